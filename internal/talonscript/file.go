package talonscript

import (
	"fmt"
	"strings"
)

// Command is one voice rule and the script it runs.
type Command struct {
	Rule   string
	Line   int
	Script Script
}

// File is a parsed .talon file. Commands that fail to parse are left out and
// their errors collected in Errors.
type File struct {
	Path     string
	Context  []string
	Commands []Command
	Errors   []error
}

// blocks whose bodies are not command scripts
var skippedBlocks = map[string]bool{
	"settings()": true,
	"tag()":      true,
}

// ParseFile parses a .talon file. It never fails outright; a command that
// does not parse is recorded in File.Errors and the rest still parse.
func ParseFile(path string, src []byte) *File {
	f := &File{Path: path}
	lines := strings.Split(strings.ReplaceAll(string(src), "\r\n", "\n"), "\n")

	body := 0
	for i, line := range lines {
		if strings.TrimRight(line, " \t") == "-" {
			for _, h := range lines[:i] {
				h = strings.TrimSpace(h)
				if h != "" && !strings.HasPrefix(h, "#") {
					f.Context = append(f.Context, h)
				}
			}
			body = i + 1
			break
		}
	}

	for i := body; i < len(lines); {
		line := lines[i]
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") || indented(line) {
			i++
			continue
		}
		lineNo := i + 1

		rule, rest, ok := splitRule(line)
		if !ok {
			f.Errors = append(f.Errors, fmt.Errorf("%s: %w", path, &SyntaxError{Line: lineNo, Column: 1, Msg: "expected a rule followed by ':'"}))
			i++
			continue
		}

		// Gather the indented block that follows.
		j := i + 1
		for j < len(lines) && (strings.TrimSpace(lines[j]) == "" || indented(lines[j])) {
			j++
		}
		block := lines[i+1 : j]
		i = j

		if skippedBlocks[rule] {
			continue
		}

		var script Script
		var err error
		if strings.TrimSpace(rest) != "" {
			script, err = ParseScript(rest, lineNo)
			if err == nil && len(block) > 0 {
				var more Script
				more, err = ParseScript(strings.Join(block, "\n"), lineNo+1)
				script.Lines = append(script.Lines, more.Lines...)
			}
		} else {
			script, err = ParseScript(strings.Join(block, "\n"), lineNo+1)
		}
		if err != nil {
			f.Errors = append(f.Errors, fmt.Errorf("%s: command %q: %w", path, rule, err))
			continue
		}
		f.Commands = append(f.Commands, Command{Rule: rule, Line: lineNo, Script: script})
	}
	return f
}

func indented(line string) bool {
	return line != "" && (line[0] == ' ' || line[0] == '\t')
}

// splitRule splits a rule line at the first ':' outside any brackets.
func splitRule(line string) (rule, rest string, ok bool) {
	depth := 0
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '(', '[', '{', '<':
			depth++
		case ')', ']', '}', '>':
			depth--
		case ':':
			if depth == 0 {
				return strings.TrimSpace(line[:i]), line[i+1:], true
			}
		}
	}
	return "", "", false
}

// ActionUses returns the names of every action called in s, in first-use
// order. Key, sleep and repeat statements count as calls to the key, sleep
// and repeat actions.
func ActionUses(s Script) ([]string, error) {
	w := NewWalker(Hooks[[]string]{
		Operator: func(l []string, _ string, r []string) []string { return append(l, r...) },
		FormatString: func(_ string, parts [][]string) []string {
			return concat(parts)
		},
		Assignment: func(_ string, v []string) []string { return v },
		Action: func(name string, args [][]string) []string {
			return append([]string{name}, concat(args)...)
		},
	})
	folded, err := w.FoldScript(s)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var names []string
	for _, n := range concat(folded) {
		if !seen[n] {
			seen[n] = true
			names = append(names, n)
		}
	}
	return names, nil
}

func concat(parts [][]string) []string {
	var out []string
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
