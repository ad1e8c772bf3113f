package graph

import (
	"testing"

	"github.com/attested/dossier/pkg/sanctions"
)

func TestExtractEntityID(t *testing.T) {
	tests := []struct {
		name  string
		value sanctions.Value
		want  string
	}{
		{name: "bare string", value: strVal("ent-1"), want: "ent-1"},
		{name: "embedded reference", value: refVal("ent-2", "Some Corp"), want: "ent-2"},
		{name: "empty value", value: sanctions.Value{}, want: ""},
		{name: "embedded reference without id", value: refVal("", "nameless"), want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractEntityID(tt.value); got != tt.want {
				t.Errorf("ExtractEntityID() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFirstTarget(t *testing.T) {
	cache := CaptionCache{}
	values := []sanctions.Value{
		{},
		refVal("", "no id"),
		refVal("ent-1", "First Corp"),
		refVal("ent-2", "Second Corp"),
	}

	if got := FirstTarget(values, cache); got != "ent-1" {
		t.Fatalf("FirstTarget() = %q, want ent-1", got)
	}
	if got := cache.Display("ent-1"); got != "First Corp" {
		t.Errorf("caption not seeded: Display(ent-1) = %q", got)
	}
	if cache.Has("ent-2") {
		t.Error("FirstTarget() seeded captions beyond the first target")
	}
}

func TestFirstTargetEmpty(t *testing.T) {
	if got := FirstTarget(nil, CaptionCache{}); got != "" {
		t.Errorf("FirstTarget(nil) = %q, want empty", got)
	}
}

func TestNestedEntities(t *testing.T) {
	props := map[string][]sanctions.Value{
		"ownershipAsset": {
			{Entity: &sanctions.EntityRecord{ID: "rel-1", Schema: "Ownership"}},
		},
		"name": {strVal("John Doe")},
		"partial": {
			{Entity: &sanctions.EntityRecord{ID: "no-schema"}},
			{Entity: &sanctions.EntityRecord{Schema: "Ownership"}},
		},
	}

	nested := NestedEntities(props)
	if len(nested) != 1 {
		t.Fatalf("NestedEntities() returned %d records, want 1", len(nested))
	}
	if nested[0].ID != "rel-1" {
		t.Errorf("nested record id = %q, want rel-1", nested[0].ID)
	}
}

func TestCaptionCacheFirstWriterWins(t *testing.T) {
	cache := CaptionCache{}
	cache.Seed("ent-1", "First Caption")
	cache.Seed("ent-1", "Second Caption")

	if got := cache.Display("ent-1"); got != "First Caption" {
		t.Errorf("Display(ent-1) = %q, want First Caption", got)
	}

	cache.Seed("", "ignored")
	cache.Seed("ent-2", "")
	if cache.Has("") || cache.Has("ent-2") {
		t.Error("empty id or caption must not be seeded")
	}
	if got := cache.Display("ent-2"); got != "ent-2" {
		t.Errorf("Display falls back to raw id, got %q", got)
	}
}
