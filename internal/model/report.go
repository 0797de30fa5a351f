package model

// FileEntry is one analyzed file in a Report.
type FileEntry struct {
	Path     string  `json:"path" yaml:"path"`
	Language string  `json:"language" yaml:"language"`
	Rank     float64 `json:"rank" yaml:"rank"`
}

// Use is a reference from File to a symbol.
type Use struct {
	File string `json:"file" yaml:"file"`
	Kind Kind   `json:"kind" yaml:"kind"`
	Name string `json:"name" yaml:"name"`
}

// Dependency represents an edge in the dependency graph:
// Source uses symbols declared or overridden in Target.
type Dependency struct {
	Source  string   `json:"source" yaml:"source"`
	Target  string   `json:"target" yaml:"target"`
	Symbols []string `json:"symbols" yaml:"symbols"`
}

// Report is the complete analyzed package, ready for serialization.
type Report struct {
	Name         string        `json:"name" yaml:"name"`
	Root         string        `json:"root" yaml:"root"`
	Files        []FileEntry   `json:"files" yaml:"files"`
	Declarations []Declaration `json:"declarations" yaml:"declarations"`
	Overrides    []Declaration `json:"overrides" yaml:"overrides"`
	Uses         []Use         `json:"uses" yaml:"uses"`
	Dependencies []Dependency  `json:"dependencies" yaml:"dependencies"`
	Conflicts    []Conflict    `json:"conflicts,omitempty" yaml:"conflicts,omitempty"`
}
