package util

import "testing"

func TestSanitizePostgresText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "empty",
			input: "",
			want:  "",
		},
		{
			name:  "plain utf8",
			input: "Vladimir PUTIN",
			want:  "Vladimir PUTIN",
		},
		{
			name:  "non-ascii caption preserved",
			input: "Acme Holdings S.à r.l.",
			want:  "Acme Holdings S.à r.l.",
		},
		{
			name:  "null byte removed",
			input: "hel\x00lo",
			want:  "hello",
		},
		{
			name:  "invalid utf8 removed",
			input: string([]byte{'a', 0xff, 'b'}),
			want:  "ab",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizePostgresText(tt.input)
			if got != tt.want {
				t.Fatalf("unexpected sanitized value: got %q, want %q", got, tt.want)
			}
		})
	}
}
