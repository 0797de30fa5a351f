// Package toon implements TOON (Token-Oriented Object Notation) encoding.
package toon

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/phobologic/talondoc/internal/model"
)

var (
	needsQuoting = regexp.MustCompile(`[,:"\\{}\[\]]`)
	looksNumeric = regexp.MustCompile(`^-?(?:0|[1-9]\d*)(?:\.\d+)?$`)
	keywords     = map[string]struct{}{
		"true":  {},
		"false": {},
		"null":  {},
	}
)

// Encode converts a Report into TOON format.
func Encode(r *model.Report) string {
	var parts []string

	parts = append(parts, fmt.Sprintf("package: %s", encodeValue(r.Name)))
	parts = append(parts, fmt.Sprintf("root: %s", encodeValue(r.Root)))

	var fileRows [][]string
	for i := range r.Files {
		f := &r.Files[i]
		fileRows = append(fileRows, []string{
			f.Path,
			f.Language,
			fmt.Sprintf("%.4f", f.Rank),
		})
	}
	parts = append(parts, formatTabular("files", []string{"path", "language", "rank"}, fileRows))

	declColumns := []string{"file", "kind", "name", "line", "desc"}
	parts = append(parts, formatTabular("declarations", declColumns, declRows(r.Declarations)))
	parts = append(parts, formatTabular("overrides", declColumns, declRows(r.Overrides)))

	var useRows [][]string
	for i := range r.Uses {
		u := &r.Uses[i]
		useRows = append(useRows, []string{u.File, string(u.Kind), u.Name})
	}
	parts = append(parts, formatTabular("uses", []string{"file", "kind", "name"}, useRows))

	var depRows [][]string
	for i := range r.Dependencies {
		d := &r.Dependencies[i]
		depRows = append(depRows, []string{
			d.Source,
			d.Target,
			strings.Join(d.Symbols, " "),
		})
	}
	parts = append(parts, formatTabular("dependencies", []string{"source", "target", "symbols"}, depRows))

	if len(r.Conflicts) > 0 {
		var conflictRows [][]string
		for i := range r.Conflicts {
			c := &r.Conflicts[i]
			conflictRows = append(conflictRows, []string{
				string(c.Kind),
				c.Name,
				c.Previous.File,
				c.Current.File,
			})
		}
		parts = append(parts, formatTabular("conflicts", []string{"kind", "name", "replaced", "winner"}, conflictRows))
	}

	return strings.Join(parts, "\n")
}

// declRows renders declarations with only the first line of their description.
func declRows(decls []model.Declaration) [][]string {
	var rows [][]string
	for i := range decls {
		d := &decls[i]
		desc, _, _ := strings.Cut(d.Desc, "\n")
		rows = append(rows, []string{
			d.File,
			string(d.Kind),
			d.Name,
			fmt.Sprintf("%d", d.Source.Start.Line),
			strings.TrimSpace(desc),
		})
	}
	return rows
}

func formatTabular(name string, columns []string, rows [][]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s[%d]{%s}:", name, len(rows), strings.Join(columns, ","))
	for _, row := range rows {
		encoded := make([]string, len(row))
		for i, cell := range row {
			encoded[i] = encodeValue(cell)
		}
		fmt.Fprintf(&b, "\n  %s", strings.Join(encoded, ","))
	}
	return b.String()
}

func encodeValue(value string) string {
	if value == "" {
		return `""`
	}

	if value != strings.TrimSpace(value) {
		return quote(value)
	}

	if strings.ContainsAny(value, "\n\r\t") {
		return quote(value)
	}

	if _, ok := keywords[strings.ToLower(value)]; ok {
		return quote(value)
	}

	if looksNumeric.MatchString(value) {
		return value
	}

	if needsQuoting.MatchString(value) {
		return quote(value)
	}

	if strings.HasPrefix(value, "-") {
		return quote(value)
	}

	return value
}

func quote(value string) string {
	escaped := strings.ReplaceAll(value, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	escaped = strings.ReplaceAll(escaped, "\n", `\n`)
	escaped = strings.ReplaceAll(escaped, "\r", `\r`)
	escaped = strings.ReplaceAll(escaped, "\t", `\t`)
	return `"` + escaped + `"`
}
