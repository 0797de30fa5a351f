package describe

import (
	"log/slog"
	"strings"

	"github.com/phobologic/talondoc/internal/model"
	"github.com/phobologic/talondoc/internal/talonscript"
)

// SymbolTable resolves base declarations. *model.PackageInfo satisfies it.
type SymbolTable interface {
	Lookup(kind model.Kind, name string) (model.Declaration, bool)
}

// Renderer describes command scripts against a symbol table. The table must
// not be mutated while a Renderer is in use; a Renderer is otherwise safe for
// concurrent use.
type Renderer struct {
	table  SymbolTable
	logger *slog.Logger
	walker *talonscript.Walker[Desc]
}

// NewRenderer returns a Renderer backed by table. A nil logger discards
// diagnostics.
func NewRenderer(table SymbolTable, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	r := &Renderer{table: table, logger: logger}
	r.walker = talonscript.NewWalker(talonscript.Hooks[Desc]{
		Comment: func(string) Desc { return Ignore{} },
		Sleep:   func([]Desc) Desc { return Ignore{} },
		Operator: func(l Desc, op string, rt Desc) Desc {
			return Chunk{Text: Text(l) + " " + op + " " + Text(rt)}
		},
		Assignment: r.assignment,
		Variable:   func(name string) Desc { return Chunk{Text: "<" + name + ">"} },
		Key:        r.key,
		Value:      func(v string) Desc { return Chunk{Text: v} },
		FormatString: func(_ string, parts []Desc) Desc {
			var b strings.Builder
			for _, p := range parts {
				b.WriteString(Text(p))
			}
			return Chunk{Text: b.String()}
		},
		Action: r.action,
	})
	return r
}

// Describe folds s into a Lines block with one entry per statement, Ignore
// entries removed.
func (r *Renderer) Describe(s talonscript.Script) (Lines, error) {
	folded, err := r.walker.FoldScript(s)
	if err != nil {
		return Lines{}, err
	}
	var out Lines
	for _, d := range folded {
		if _, ok := d.(Ignore); ok {
			continue
		}
		out.Items = append(out.Items, d)
	}
	return out, nil
}

// Script renders s as lines of prose.
func (r *Renderer) Script(s talonscript.Script) ([]string, error) {
	d, err := r.Describe(s)
	if err != nil {
		return nil, err
	}
	return Flatten(d), nil
}

func (r *Renderer) assignment(name string, value Desc) Desc {
	v, ok := Inline(value)
	if !ok {
		return value
	}
	return Line{Text: "Let <" + name + "> be " + v}
}

func (r *Renderer) key(keys []Desc) Desc {
	texts := make([]string, len(keys))
	for i, k := range keys {
		texts[i] = Text(k)
	}
	return Line{Text: "Press " + strings.Join(texts, " ")}
}

func (r *Renderer) action(name string, args []Desc) Desc {
	bare := Chunk{Text: name}
	decl, ok := r.table.Lookup(model.Action, name)
	if !ok || decl.Desc == "" {
		r.logger.Debug("no documentation for action", "action", name)
		return bare
	}
	logger := r.logger.With("action", name, "file", decl.File, "line", decl.Source.Start.Line)

	compiled := Compile(decl.Desc, logger)
	tmpl, isTemplate := compiled.(Template)
	switch {
	case compiled == nil:
		return bare
	case !isTemplate:
		return compiled
	}

	texts, ok := argumentTexts(Lines{Items: args})
	if !ok {
		logger.Warn("arguments do not render as a block of lines")
		return bare
	}
	text, err := tmpl.Apply(texts)
	if err != nil {
		logger.Warn("cannot substitute arguments", "error", err)
		return bare
	}
	return Line{Text: text}
}

// argumentTexts returns the inline text of each entry of a Lines block.
func argumentTexts(d Desc) ([]string, bool) {
	l, ok := d.(Lines)
	if !ok {
		return nil, false
	}
	texts := make([]string, len(l.Items))
	for i, it := range l.Items {
		if texts[i], ok = Inline(it); !ok {
			return nil, false
		}
	}
	return texts, true
}
