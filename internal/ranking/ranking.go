// Package ranking selects and filters the contents of a package report.
package ranking

import (
	"strings"

	"github.com/phobologic/talondoc/internal/model"
)

// SelectFiles returns a new Report with only the top-ranked files and the
// declarations, uses and edges that belong to them. Files must already be
// sorted by rank. If maxFiles is <= 0 or >= len(files), r is returned.
func SelectFiles(r *model.Report, maxFiles int) *model.Report {
	if maxFiles <= 0 || maxFiles >= len(r.Files) {
		return r
	}

	selected := r.Files[:maxFiles]
	keep := make(map[string]struct{}, maxFiles)
	for i := range selected {
		keep[selected[i].Path] = struct{}{}
	}
	inFile := func(path string) bool {
		_, ok := keep[path]
		return ok
	}

	out := &model.Report{Name: r.Name, Root: r.Root, Files: selected}
	out.Declarations = filterDecls(r.Declarations, func(d model.Declaration) bool { return inFile(d.File) })
	out.Overrides = filterDecls(r.Overrides, func(d model.Declaration) bool { return inFile(d.File) })
	for _, u := range r.Uses {
		if inFile(u.File) {
			out.Uses = append(out.Uses, u)
		}
	}
	for _, d := range r.Dependencies {
		if inFile(d.Source) && inFile(d.Target) {
			out.Dependencies = append(out.Dependencies, d)
		}
	}
	for _, c := range r.Conflicts {
		if inFile(c.Current.File) {
			out.Conflicts = append(out.Conflicts, c)
		}
	}
	return out
}

// FilterBySymbol returns a new Report focused on symbols whose name contains
// substr (case-insensitive): their declarations, overrides and uses, the files
// involved, and the dependency edges carrying them.
func FilterBySymbol(r *model.Report, substr string) *model.Report {
	lower := strings.ToLower(substr)
	matches := func(name string) bool {
		return strings.Contains(strings.ToLower(name), lower)
	}

	files := make(map[string]struct{})
	byName := func(d model.Declaration) bool {
		if matches(d.Name) {
			files[d.File] = struct{}{}
			return true
		}
		return false
	}

	out := &model.Report{Name: r.Name, Root: r.Root}
	out.Declarations = filterDecls(r.Declarations, byName)
	out.Overrides = filterDecls(r.Overrides, byName)
	for _, u := range r.Uses {
		if matches(u.Name) {
			files[u.File] = struct{}{}
			out.Uses = append(out.Uses, u)
		}
	}
	for _, d := range r.Dependencies {
		var syms []string
		for _, s := range d.Symbols {
			if matches(s) {
				syms = append(syms, s)
			}
		}
		if len(syms) > 0 {
			out.Dependencies = append(out.Dependencies, model.Dependency{Source: d.Source, Target: d.Target, Symbols: syms})
		}
	}
	for _, c := range r.Conflicts {
		if matches(c.Name) {
			out.Conflicts = append(out.Conflicts, c)
		}
	}
	for _, f := range r.Files {
		if _, ok := files[f.Path]; ok {
			out.Files = append(out.Files, f)
		}
	}
	return out
}

// FilterByFile returns a new Report containing only files whose path contains
// substr (case-insensitive), what they declare and use, and every dependency
// edge touching them.
func FilterByFile(r *model.Report, substr string) *model.Report {
	lower := strings.ToLower(substr)

	matched := make(map[string]struct{})
	out := &model.Report{Name: r.Name, Root: r.Root}
	for _, f := range r.Files {
		if strings.Contains(strings.ToLower(f.Path), lower) {
			matched[f.Path] = struct{}{}
			out.Files = append(out.Files, f)
		}
	}
	inFile := func(path string) bool {
		_, ok := matched[path]
		return ok
	}

	out.Declarations = filterDecls(r.Declarations, func(d model.Declaration) bool { return inFile(d.File) })
	out.Overrides = filterDecls(r.Overrides, func(d model.Declaration) bool { return inFile(d.File) })
	for _, u := range r.Uses {
		if inFile(u.File) {
			out.Uses = append(out.Uses, u)
		}
	}
	for _, d := range r.Dependencies {
		if inFile(d.Source) || inFile(d.Target) {
			out.Dependencies = append(out.Dependencies, d)
		}
	}
	for _, c := range r.Conflicts {
		if inFile(c.Previous.File) || inFile(c.Current.File) {
			out.Conflicts = append(out.Conflicts, c)
		}
	}
	return out
}

func filterDecls(decls []model.Declaration, keep func(model.Declaration) bool) []model.Declaration {
	var out []model.Declaration
	for _, d := range decls {
		if keep(d) {
			out = append(out, d)
		}
	}
	return out
}
