package analysis

import (
	"path/filepath"

	"github.com/phobologic/talondoc/internal/graph"
	"github.com/phobologic/talondoc/internal/model"
)

// Report projects the result into a serializable Report with files ranked by
// how heavily the rest of the package depends on them.
func (r *Result) Report() *model.Report {
	deps := graph.BuildGraph(r.Files)

	entries := make([]model.FileEntry, len(r.Files))
	for i, fi := range r.Files {
		entries[i] = model.FileEntry{Path: fi.Path, Language: fi.Language}
	}
	graph.Rank(entries, deps)

	var uses []model.Use
	for _, fi := range r.Files {
		for _, kind := range model.Kinds {
			for _, name := range fi.Uses[kind].Sorted() {
				uses = append(uses, model.Use{File: fi.Path, Kind: kind, Name: name})
			}
		}
	}

	name := filepath.Base(r.Package.Root)
	return &model.Report{
		Name:         name,
		Root:         name,
		Files:        entries,
		Declarations: r.Package.AllDeclarations(),
		Overrides:    r.Package.AllOverrides(),
		Uses:         uses,
		Dependencies: deps,
		Conflicts:    r.Package.Conflicts,
	}
}
