package notes

import (
	"strings"
)

// forbidden covers the characters no common filesystem or sync target
// accepts in file names.
const forbidden = `/\:*?"<>|#^[]`

// Filename builds a safe markdown file name from an entity caption,
// falling back to the raw id when the caption sanitizes away to nothing.
func Filename(caption, id string) string {
	name := sanitizeName(caption)
	if name == "" {
		name = sanitizeName(id)
	}
	if name == "" {
		name = "entity"
	}
	return name + ".md"
}

func sanitizeName(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || strings.ContainsRune(forbidden, r) {
			continue
		}
		b.WriteRune(r)
	}
	name := strings.Join(strings.Fields(b.String()), " ")
	name = strings.Trim(name, ". ")
	if runes := []rune(name); len(runes) > 120 {
		name = strings.TrimRight(string(runes[:120]), ". ")
	}
	return name
}
