// Package docstring parses Google-style python docstrings into a short
// description and the documented parameters.
package docstring

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrParse is wrapped by every *ParseError.
var ErrParse = errors.New("malformed docstring")

// ParseError reports the section item that could not be parsed.
type ParseError struct {
	Line int // 1-based line within the docstring
	Text string
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("docstring line %d: %s: %q", e.Line, e.Msg, e.Text)
}

func (e *ParseError) Unwrap() error {
	return ErrParse
}

// Param is one documented parameter.
type Param struct {
	Name     string
	Type     string
	Desc     string
	Optional bool
}

// Docstring is a parsed docstring.
type Docstring struct {
	Short   string
	Long    string
	Params  []Param
	Returns string
}

// ParamNames returns the documented parameter names in order.
func (d *Docstring) ParamNames() []string {
	var names []string
	for _, p := range d.Params {
		names = append(names, p.Name)
	}
	return names
}

type sectionKind int

const (
	sectionParams sectionKind = iota
	sectionReturns
	sectionOther
)

var sections = map[string]sectionKind{
	"args":       sectionParams,
	"arguments":  sectionParams,
	"parameters": sectionParams,
	"params":     sectionParams,
	"returns":    sectionReturns,
	"return":     sectionReturns,
	"yields":     sectionReturns,
	"raises":     sectionOther,
	"exceptions": sectionOther,
	"attributes": sectionOther,
	"example":    sectionOther,
	"examples":   sectionOther,
	"note":       sectionOther,
	"notes":      sectionOther,
	"warning":    sectionOther,
	"warnings":   sectionOther,
	"todo":       sectionOther,
	"see also":   sectionOther,
}

var (
	titleRe = regexp.MustCompile(`^([A-Za-z][A-Za-z ]*):\s*$`)
	paramRe = regexp.MustCompile(`^(\*{0,2}\w+)\s*(?:\(([^)]*)\))?\s*$`)
)

type section struct {
	kind  sectionKind
	start int // index of the first body line
	lines []string
}

// Parse parses text. Text before the first section title is the
// description: its first line is Short, the rest is Long.
func Parse(text string) (*Docstring, error) {
	lines := strings.Split(strings.TrimSpace(text), "\n")

	var desc []string
	var secs []*section
	var cur *section
	for i, line := range lines {
		if m := titleRe.FindStringSubmatch(line); m != nil {
			if kind, ok := sections[strings.ToLower(m[1])]; ok {
				cur = &section{kind: kind, start: i + 1}
				secs = append(secs, cur)
				continue
			}
		}
		if cur == nil {
			desc = append(desc, line)
		} else {
			cur.lines = append(cur.lines, line)
		}
	}

	doc := &Docstring{}
	if len(desc) > 0 {
		doc.Short = strings.TrimSpace(desc[0])
		doc.Long = strings.TrimSpace(strings.Join(desc[1:], "\n"))
	}

	for _, s := range secs {
		items, err := s.items()
		if err != nil {
			return nil, err
		}
		switch s.kind {
		case sectionParams:
			for _, it := range items {
				p, err := parseParam(it)
				if err != nil {
					return nil, err
				}
				doc.Params = append(doc.Params, p)
			}
		case sectionReturns:
			if len(items) > 0 {
				doc.Returns = returnsText(items)
			}
		}
	}
	return doc, nil
}

type item struct {
	line int
	text string
}

// items splits a section body into items. The first non-blank line fixes
// the item indent; deeper lines continue the previous item.
func (s *section) items() ([]item, error) {
	indent := -1
	var out []item
	for i, line := range s.lines {
		trimmed := strings.TrimLeft(line, " \t")
		if trimmed == "" {
			continue
		}
		depth := len(line) - len(trimmed)
		if indent < 0 {
			if depth == 0 {
				return nil, &ParseError{Line: s.start + i + 1, Text: line, Msg: "cannot infer section indent"}
			}
			indent = depth
		}
		switch {
		case depth < indent:
			return nil, &ParseError{Line: s.start + i + 1, Text: line, Msg: "inconsistent section indent"}
		case depth == indent:
			out = append(out, item{line: s.start + i + 1, text: trimmed})
		default:
			out[len(out)-1].text += "\n" + trimmed
		}
	}
	return out, nil
}

func parseParam(it item) (Param, error) {
	head, desc, ok := strings.Cut(it.text, ":")
	if !ok {
		return Param{}, &ParseError{Line: it.line, Text: it.text, Msg: "expected a colon"}
	}
	m := paramRe.FindStringSubmatch(strings.TrimSpace(head))
	if m == nil {
		return Param{}, &ParseError{Line: it.line, Text: it.text, Msg: "malformed parameter name"}
	}
	p := Param{Name: m[1], Desc: strings.TrimSpace(desc)}
	if m[2] != "" {
		typ := strings.TrimSpace(m[2])
		if base, found := strings.CutSuffix(typ, ", optional"); found {
			typ = strings.TrimSpace(base)
			p.Optional = true
		}
		p.Type = typ
	}
	return p, nil
}

func returnsText(items []item) string {
	texts := make([]string, len(items))
	for i, it := range items {
		texts[i] = it.text
	}
	text := strings.Join(texts, "\n")
	// "type: description" keeps only the description.
	if head, desc, ok := strings.Cut(text, ":"); ok && !strings.ContainsAny(head, " \n") {
		return strings.TrimSpace(desc)
	}
	return text
}
