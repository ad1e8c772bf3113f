package notes

import (
	"fmt"
	"sort"
	"strings"
	"text/template"
	"time"

	"github.com/attested/dossier/pkg/graph"
	"github.com/attested/dossier/pkg/sanctions"
)

const noteTemplateText = `---
entity_id: {{ .ID }}
schema: {{ .Schema }}
{{- if .Datasets }}
datasets: [{{ join .Datasets ", " }}]
{{- end }}
screened_at: {{ .ScreenedAt }}
---

# {{ .Caption }}
{{- if .Properties }}

| Property | Value |
| --- | --- |
{{- range .Properties }}
| {{ .Name }} | {{ join .Values "; " }} |
{{- end }}
{{- end }}
{{- if .Buckets }}

## Relationships
{{- range .Buckets }}

### {{ .Label }}
{{- range .Names }}
- [[{{ . }}]]
{{- end }}
{{- end }}
{{- end }}
{{- if .Summary }}

## Summary

{{ .Summary }}
{{- end }}
`

var noteTemplate = template.Must(
	template.New("note").Funcs(template.FuncMap{
		"join": strings.Join,
	}).Parse(noteTemplateText),
)

type propertyRow struct {
	Name   string
	Values []string
}

type noteData struct {
	ID         string
	Caption    string
	Schema     string
	Datasets   []string
	ScreenedAt string
	Properties []propertyRow
	Buckets    []graph.NamedBucket
	Summary    string
}

// Render produces the markdown dossier note for an enriched entity.
// Summary may be empty; the section is omitted.
func Render(enriched *graph.EnrichedEntity, rules *Rules, summary string, now time.Time) (string, error) {
	if enriched == nil || enriched.Entity == nil {
		return "", fmt.Errorf("rendering note: enriched entity is nil")
	}
	if rules == nil {
		rules = DefaultRules()
	}

	entity := enriched.Entity
	schemaRules := rules.For(entity.Schema)

	var buckets []graph.NamedBucket
	if enriched.Relationships != nil {
		for _, b := range enriched.Relationships.Buckets() {
			if len(b.Names) > 0 {
				buckets = append(buckets, b)
			}
		}
	}

	data := noteData{
		ID:         entity.ID,
		Caption:    displayCaption(entity),
		Schema:     entity.Schema,
		Datasets:   entity.Datasets,
		ScreenedAt: now.UTC().Format(time.RFC3339),
		Properties: propertyRows(entity, schemaRules, enriched.Captions),
		Buckets:    buckets,
		Summary:    strings.TrimSpace(summary),
	}

	var b strings.Builder
	if err := noteTemplate.Execute(&b, data); err != nil {
		return "", fmt.Errorf("rendering note: %w", err)
	}
	return b.String(), nil
}

func displayCaption(entity *sanctions.EntityRecord) string {
	if entity.Caption != "" {
		return entity.Caption
	}
	return entity.ID
}

// propertyRows flattens the included properties to display strings,
// honoring the ordering of the include list. Embedded references display
// by caption; wikilink properties wrap each value in [[...]].
func propertyRows(entity *sanctions.EntityRecord, rules SchemaRules, captions graph.CaptionCache) []propertyRow {
	order := rules.Include
	if len(order) == 0 {
		order = sortedKeys(entity.Properties)
	}

	var rows []propertyRow
	for _, name := range order {
		values, ok := entity.Properties[name]
		if !ok || !rules.Includes(name) {
			continue
		}
		wikilink := rules.IsWikilink(name)

		var display []string
		for _, v := range values {
			s := displayValue(v, captions)
			if s == "" {
				continue
			}
			if wikilink {
				s = "[[" + s + "]]"
			}
			display = append(display, s)
		}
		if len(display) > 0 {
			rows = append(rows, propertyRow{Name: name, Values: display})
		}
	}
	return rows
}

func displayValue(v sanctions.Value, captions graph.CaptionCache) string {
	if v.Entity != nil {
		if v.Entity.Caption != "" {
			return v.Entity.Caption
		}
		if captions != nil {
			return captions.Display(v.Entity.ID)
		}
		return v.Entity.ID
	}
	return v.Str
}

func sortedKeys(props map[string][]sanctions.Value) []string {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
