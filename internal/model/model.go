// Package model defines core data structures for talondoc.
package model

import (
	"fmt"
	"sort"
)

// Kind is the sort of a command-domain symbol.
type Kind string

const (
	Action  Kind = "action"
	List    Kind = "list"
	Tag     Kind = "tag"
	Capture Kind = "capture"
)

// Kinds lists every symbol kind in a stable order.
var Kinds = []Kind{Action, List, Tag, Capture}

// ParseKind converts a kind name into a Kind.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown symbol kind %q", s)
}

// Position is a point in a source file. Line is 1-based, Column is a 0-based
// byte offset within the line.
type Position struct {
	Line   int `json:"line" yaml:"line"`
	Column int `json:"column" yaml:"column"`
}

// Span is the source range a declaration was read from.
type Span struct {
	File  string   `json:"file" yaml:"file"`
	Start Position `json:"start" yaml:"start"`
	End   Position `json:"end" yaml:"end"`
}

// Declaration is a single declaration or override of a symbol. Desc is empty
// when the declaration carries no description.
type Declaration struct {
	Name     string `json:"name" yaml:"name"`
	Kind     Kind   `json:"kind" yaml:"kind"`
	File     string `json:"file" yaml:"file"`
	Override bool   `json:"override" yaml:"override"`
	Desc     string `json:"desc,omitempty" yaml:"desc,omitempty"`
	Source   Span   `json:"source" yaml:"source"`
}

// DeclSet is a set of override declarations.
type DeclSet map[Declaration]struct{}

// Sorted returns the set's members ordered by file then position.
func (s DeclSet) Sorted() []Declaration {
	out := make([]Declaration, 0, len(s))
	for d := range s {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].File != out[j].File {
			return out[i].File < out[j].File
		}
		if out[i].Source.Start.Line != out[j].Source.Start.Line {
			return out[i].Source.Start.Line < out[j].Source.Start.Line
		}
		return out[i].Source.Start.Column < out[j].Source.Start.Column
	})
	return out
}

// NameSet is a set of symbol names.
type NameSet map[string]struct{}

// Sorted returns the names in lexical order.
func (s NameSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Table holds declarations, overrides and uses grouped by kind. It is the
// shared shape of FileInfo and PackageInfo.
type Table struct {
	Declarations map[Kind]map[string]Declaration
	Overrides    map[Kind]map[string]DeclSet
	Uses         map[Kind]NameSet
}

func newTable() Table {
	return Table{
		Declarations: make(map[Kind]map[string]Declaration),
		Overrides:    make(map[Kind]map[string]DeclSet),
		Uses:         make(map[Kind]NameSet),
	}
}

// Declare records d as a base declaration or, when d.Override is set, adds it
// to the override set for its name. It reports the base declaration d
// replaced, if any.
func (t *Table) Declare(d Declaration) (Declaration, bool) {
	if d.Override {
		byName := t.Overrides[d.Kind]
		if byName == nil {
			byName = make(map[string]DeclSet)
			t.Overrides[d.Kind] = byName
		}
		set := byName[d.Name]
		if set == nil {
			set = make(DeclSet)
			byName[d.Name] = set
		}
		set[d] = struct{}{}
		return Declaration{}, false
	}
	byName := t.Declarations[d.Kind]
	if byName == nil {
		byName = make(map[string]Declaration)
		t.Declarations[d.Kind] = byName
	}
	prev, replaced := byName[d.Name]
	byName[d.Name] = d
	return prev, replaced
}

// Use records a reference to name.
func (t *Table) Use(kind Kind, name string) {
	set := t.Uses[kind]
	if set == nil {
		set = make(NameSet)
		t.Uses[kind] = set
	}
	set[name] = struct{}{}
}

// Lookup returns the base declaration for (kind, name). Overrides are never
// returned.
func (t *Table) Lookup(kind Kind, name string) (Declaration, bool) {
	d, ok := t.Declarations[kind][name]
	return d, ok
}

// AllDeclarations returns every base declaration ordered by kind then name.
func (t *Table) AllDeclarations() []Declaration {
	var out []Declaration
	for _, k := range Kinds {
		byName := t.Declarations[k]
		names := make([]string, 0, len(byName))
		for n := range byName {
			names = append(names, n)
		}
		sort.Strings(names)
		for _, n := range names {
			out = append(out, byName[n])
		}
	}
	return out
}

// AllOverrides returns every override ordered by kind, name, then file.
func (t *Table) AllOverrides() []Declaration {
	var out []Declaration
	for _, k := range Kinds {
		byName := t.Overrides[k]
		names := make([]string, 0, len(byName))
		for n := range byName {
			names = append(names, n)
		}
		sort.Strings(names)
		for _, n := range names {
			out = append(out, byName[n].Sorted()...)
		}
	}
	return out
}

// FileInfo holds what one source file declares, overrides and uses.
type FileInfo struct {
	Path     string
	Language string
	Table
}

// NewFileInfo returns an empty FileInfo for path.
func NewFileInfo(path, language string) *FileInfo {
	return &FileInfo{Path: path, Language: language, Table: newTable()}
}

// Conflict records a base declaration replaced by a later one with the same
// kind and name during a package merge.
type Conflict struct {
	Kind     Kind        `json:"kind" yaml:"kind"`
	Name     string      `json:"name" yaml:"name"`
	Previous Declaration `json:"previous" yaml:"previous"`
	Current  Declaration `json:"current" yaml:"current"`
}

// PackageInfo is the merged symbol table for every file under a root.
type PackageInfo struct {
	Root      string
	Files     []string
	Conflicts []Conflict
	Table
}

// NewPackageInfo returns an empty PackageInfo for root.
func NewPackageInfo(root string) *PackageInfo {
	return &PackageInfo{Root: root, Table: newTable()}
}

// Add merges fi into the package. A base declaration replaces an earlier base
// declaration of the same kind and name (the replacement is recorded as a
// Conflict); overrides and uses accumulate.
func (p *PackageInfo) Add(fi *FileInfo) {
	p.Files = append(p.Files, fi.Path)
	for _, d := range fi.AllDeclarations() {
		if prev, replaced := p.Declare(d); replaced && prev != d {
			p.Conflicts = append(p.Conflicts, Conflict{Kind: d.Kind, Name: d.Name, Previous: prev, Current: d})
		}
	}
	for _, d := range fi.AllOverrides() {
		p.Declare(d)
	}
	for kind, names := range fi.Uses {
		for n := range names {
			p.Use(kind, n)
		}
	}
}
