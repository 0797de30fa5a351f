// Package lang provides a language registry mapping file extensions to the
// languages talondoc understands, plus tree-sitter node helpers.
package lang

import (
	"sync"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/talondoc/internal/model"
)

// Language holds configuration for a supported language. Grammar is nil for
// languages that are not parsed with tree-sitter.
type Language struct {
	Name       string
	Extensions []string
	grammar    *sitter.Language
}

// GetLanguage returns the tree-sitter Language pointer, or nil.
func (l *Language) GetLanguage() *sitter.Language {
	return l.grammar
}

// NewParser creates a fresh tree-sitter parser for this language.
// Each goroutine must use its own parser (not thread-safe).
// Returns nil when the language has no tree-sitter grammar.
func (l *Language) NewParser() *sitter.Parser {
	if l.grammar == nil {
		return nil
	}
	p := sitter.NewParser()
	p.SetLanguage(l.grammar)
	return p
}

// Languages maps language names to their configuration.
// Populated by init() functions in per-language files.
var Languages = map[string]*Language{}

// extensionMap is built lazily after all init() functions have run.
var extensionMap map[string]string
var extensionOnce sync.Once

func getExtensionMap() map[string]string {
	extensionOnce.Do(func() {
		extensionMap = make(map[string]string)
		for _, l := range Languages {
			for _, ext := range l.Extensions {
				extensionMap[ext] = l.Name
			}
		}
	})
	return extensionMap
}

// ForExtension returns the language name for a file extension, or "" if unsupported.
func ForExtension(ext string) string {
	return getExtensionMap()[ext]
}

// NodeText returns the source text of a tree-sitter node.
func NodeText(node *sitter.Node, source []byte) string {
	return string(source[node.StartByte():node.EndByte()])
}

// SpanOf converts a node's range into a model.Span for file.
func SpanOf(node *sitter.Node, file string) model.Span {
	start, end := node.StartPoint(), node.EndPoint()
	return model.Span{
		File:  file,
		Start: model.Position{Line: int(start.Row) + 1, Column: int(start.Column)},
		End:   model.Position{Line: int(end.Row) + 1, Column: int(end.Column)},
	}
}
