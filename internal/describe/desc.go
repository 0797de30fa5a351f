// Package describe renders command scripts as prose, using the documentation
// of the actions they call.
package describe

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrArgCount is returned when a template is applied to a different number of
// arguments than it declares parameters.
var ErrArgCount = errors.New("argument count mismatch")

// Desc is a rendered fragment. The set of implementations is closed.
type Desc interface {
	desc()
}

type (
	// Ignore is dropped from rendered output.
	Ignore struct{}
	// Chunk is inline text, meant to be embedded in a larger line.
	Chunk struct {
		Text string
	}
	// Line is one complete line of output.
	Line struct {
		Text string
	}
	// Lines is an ordered block of fragments.
	Lines struct {
		Items []Desc
	}
	// Template is a short description with named parameter placeholders.
	Template struct {
		Text   string
		Params []string
	}
)

func (Ignore) desc()   {}
func (Chunk) desc()    {}
func (Line) desc()     {}
func (Lines) desc()    {}
func (Template) desc() {}

// Apply substitutes the Nth argument for every whole-word occurrence of the
// Nth parameter name.
func (t Template) Apply(args []string) (string, error) {
	if len(args) != len(t.Params) {
		return "", fmt.Errorf("%w: %d parameters, %d arguments", ErrArgCount, len(t.Params), len(args))
	}
	if len(t.Params) == 0 {
		return t.Text, nil
	}
	bind := make(map[string]string, len(t.Params))
	alts := make([]string, len(t.Params))
	for i, p := range t.Params {
		bind[p] = args[i]
		alts[i] = regexp.QuoteMeta(p)
	}
	re := regexp.MustCompile(`\b(` + strings.Join(alts, "|") + `)\b`)
	return re.ReplaceAllStringFunc(t.Text, func(name string) string {
		return bind[name]
	}), nil
}

// Inline returns d as a single piece of text. A Lines block with more than one
// entry has no inline form.
func Inline(d Desc) (string, bool) {
	switch d := d.(type) {
	case Ignore:
		return "", true
	case Chunk:
		return d.Text, true
	case Line:
		return d.Text, true
	case Template:
		return d.Text, true
	case Lines:
		var kept []Desc
		for _, it := range d.Items {
			if _, ok := it.(Ignore); !ok {
				kept = append(kept, it)
			}
		}
		switch len(kept) {
		case 0:
			return "", true
		case 1:
			return Inline(kept[0])
		}
	}
	return "", false
}

// Text returns d as text, joining block entries with ", ".
func Text(d Desc) string {
	if s, ok := Inline(d); ok {
		return s
	}
	l, ok := d.(Lines)
	if !ok {
		return ""
	}
	var parts []string
	for _, it := range l.Items {
		if _, ok := it.(Ignore); ok {
			continue
		}
		parts = append(parts, Text(it))
	}
	return strings.Join(parts, ", ")
}

// Flatten returns the output lines of d in order, dropping Ignore entries and
// expanding nested blocks.
func Flatten(d Desc) []string {
	switch d := d.(type) {
	case Ignore:
		return nil
	case Lines:
		var out []string
		for _, it := range d.Items {
			out = append(out, Flatten(it)...)
		}
		return out
	}
	s, _ := Inline(d)
	return []string{s}
}
