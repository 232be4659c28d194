package main

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/Nomadcxx/parsevideo/internal/api"
	"github.com/Nomadcxx/parsevideo/internal/naming"
	"github.com/Nomadcxx/parsevideo/internal/ui"
)

//go:embed assets/header.txt
var asciiHeader string

// printHeader displays the ASCII header with version info
func printHeader(w io.Writer, version string) {
	fmt.Fprintln(w, ui.Info(strings.TrimRight(asciiHeader, "\n")))
	fmt.Fprintf(w, "Version: %s\n\n", version)
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printResult writes one parse result as a field table. explain adds the
// winning rule and the normalised text it matched.
func printResult(w io.Writer, res api.ParseResult, explain bool) {
	status := ui.Success("parsed")
	if !res.Parsed {
		status = ui.Warning("not parsed")
	}
	fmt.Fprintf(w, "%s  %s %s\n", ui.Path(res.Filename), ui.Kind(res.Kind, ui.Title(res.Kind)), ui.Dim("("+status+")"))

	if explain {
		rule := res.Rule
		if rule == "" {
			rule = "-"
		}
		fmt.Fprintf(w, "  %s %s\n", ui.Label("rule:"), rule)
		fmt.Fprintf(w, "  %s %q\n", ui.Label("core:"), res.Core)
	}

	rows := ui.FieldRows(res.Fields)
	if len(rows) == 0 {
		return
	}

	tbl := ui.NewTable("FIELD", "VALUE")
	for _, row := range rows {
		tbl.AddRow(row...)
	}
	fmt.Fprintln(w, tbl.Render())
}

// printCompact writes one tab-separated line per result: filename, rule and
// the fields as key=value pairs in canonical order.
func printCompact(w io.Writer, res api.ParseResult) {
	var parts []string
	for _, f := range naming.KnownFields() {
		if f == naming.FieldDidParse {
			continue
		}
		if v, ok := res.Fields[string(f)]; ok {
			parts = append(parts, string(f)+"="+v)
		}
	}
	rule := res.Rule
	if rule == "" {
		rule = "-"
	}
	fmt.Fprintf(w, "%s\t%s\t%s\n", res.Filename, rule, strings.Join(parts, " "))
}
