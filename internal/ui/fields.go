package ui

import (
	"sort"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/Nomadcxx/parsevideo/internal/naming"
)

var fieldLabels = map[string]string{
	"dvd":         "disc",
	"episodename": "episode name",
	"endepisode":  "end episode",
	"subepisode":  "sub episode",
	"didParse":    "parsed",
	"dir":         "directory",
}

// FieldLabel returns a display label for a metadata key.
func FieldLabel(key string) string {
	if key == "imdb" {
		return "IMDb"
	}
	if l, ok := fieldLabels[key]; ok {
		return Title(l)
	}
	return Title(key)
}

// Title title-cases s for display, e.g. a media kind. A Caser is stateful,
// so one is made per call.
func Title(s string) string {
	return cases.Title(language.English).String(s)
}

// FieldRows returns label/value pairs for fields in the canonical field
// order, followed by any unknown keys in sorted order. didParse is omitted.
func FieldRows(fields map[string]string) [][]string {
	rows := make([][]string, 0, len(fields))

	for _, f := range naming.KnownFields() {
		key := string(f)
		v, ok := fields[key]
		if !ok || f == naming.FieldDidParse {
			continue
		}
		rows = append(rows, []string{FieldLabel(key), v})
	}

	var extra []string
	for key := range fields {
		if !naming.IsKnownField(naming.Field(key)) {
			extra = append(extra, key)
		}
	}
	sort.Strings(extra)
	for _, key := range extra {
		rows = append(rows, []string{FieldLabel(key), fields[key]})
	}
	return rows
}
