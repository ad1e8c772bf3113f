package ai

import (
	"strings"
	"testing"
)

func TestUnmarshalFlexible(t *testing.T) {
	type payload struct {
		Summary string `json:"summary"`
	}

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{
			name:  "standard json",
			input: `{"summary": "a holding company"}`,
			want:  "a holding company",
		},
		{
			name:  "double encoded",
			input: `"{\"summary\": \"a holding company\"}"`,
			want:  "a holding company",
		},
		{
			name:  "unquoted keys repaired",
			input: `{summary: "a holding company"}`,
			want:  "a holding company",
		},
		{
			name:  "trailing comma repaired",
			input: `{"summary": "a holding company",}`,
			want:  "a holding company",
		},
		{
			name:  "duplicate leading brace",
			input: `{ {"summary": "a holding company"}`,
			want:  "a holding company",
		},
		{
			name:    "unrecoverable input",
			input:   `]]]`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out payload
			err := UnmarshalFlexible(tt.input, &out)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got summary %q", out.Summary)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if out.Summary != tt.want {
				t.Errorf("summary = %q, want %q", out.Summary, tt.want)
			}
		})
	}
}

func TestBuildSummaryPromptTrimsFacts(t *testing.T) {
	long := make([]string, 0, 4000)
	for range 4000 {
		long = append(long, "registration number 12345678 issued by the commercial registry")
	}

	in := SummaryInput{
		Caption:       "Acme Holdings",
		Schema:        "Company",
		Relationships: []string{"Owner of: Acme Subsidiary"},
		Facts:         long,
	}

	prompt, err := BuildSummaryPrompt(in, 500)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(prompt) == 0 {
		t.Fatal("empty prompt")
	}
	if want := "Owner of: Acme Subsidiary"; !strings.Contains(prompt, want) {
		t.Errorf("prompt lost relationship line %q", want)
	}
	if !strings.Contains(prompt, "Acme Holdings") {
		t.Error("prompt lost caption")
	}
}
