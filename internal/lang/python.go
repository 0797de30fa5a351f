package lang

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// Python is the language used to write extension modules.
const Python = "python"

func init() {
	Languages[Python] = &Language{
		Name:       Python,
		Extensions: []string{".py"},
		grammar:    python.GetLanguage(),
	}
}

// StringLiteral returns the value of a plain python string literal node.
// Interpolated f-strings, concatenated strings and any other node type are
// not literals.
func StringLiteral(node *sitter.Node, source []byte) (string, bool) {
	if node == nil || node.Type() != "string" || hasInterpolation(node) {
		return "", false
	}
	return decodeString(NodeText(node, source))
}

func hasInterpolation(node *sitter.Node) bool {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() == "interpolation" || hasInterpolation(child) {
			return true
		}
	}
	return false
}

func decodeString(raw string) (string, bool) {
	i := strings.IndexAny(raw, `'"`)
	if i < 0 {
		return "", false
	}
	prefix := strings.ToLower(raw[:i])
	body := raw[i:]

	quote := body[:1]
	if strings.HasPrefix(body, `"""`) || strings.HasPrefix(body, `'''`) {
		quote = body[:3]
	}
	if len(body) < 2*len(quote) || !strings.HasSuffix(body, quote) {
		return "", false
	}
	body = body[len(quote) : len(body)-len(quote)]

	if strings.Contains(prefix, "r") {
		return body, true
	}
	return unescape(body), true
}

var escapes = map[byte]string{
	'\\': `\`,
	'\'': `'`,
	'"':  `"`,
	'n':  "\n",
	't':  "\t",
	'r':  "\r",
	'0':  "\x00",
	'\n': "",
}

func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 >= len(s) {
			b.WriteByte(s[i])
			continue
		}
		if rep, ok := escapes[s[i+1]]; ok {
			b.WriteString(rep)
			i++
			continue
		}
		// Unknown escapes keep their backslash, as python does.
		b.WriteByte(s[i])
	}
	return b.String()
}

// Docstring returns the cleaned documentation string of a function or class
// definition node: the string literal that is the first statement of its
// body.
func Docstring(def *sitter.Node, source []byte) (string, bool) {
	body := def.ChildByFieldName("body")
	if body == nil {
		return "", false
	}
	for i := 0; i < int(body.NamedChildCount()); i++ {
		stmt := body.NamedChild(i)
		if stmt.Type() == "comment" {
			continue
		}
		if stmt.Type() != "expression_statement" || stmt.NamedChildCount() == 0 {
			return "", false
		}
		doc, ok := StringLiteral(stmt.NamedChild(0), source)
		if !ok {
			return "", false
		}
		return CleanDoc(doc), true
	}
	return "", false
}

// CleanDoc normalizes docstring indentation the way python's
// inspect.cleandoc does: the first line is left-trimmed, the common margin
// of the remaining lines is removed, and leading and trailing blank lines
// are dropped.
func CleanDoc(doc string) string {
	lines := strings.Split(strings.ReplaceAll(doc, "\t", "        "), "\n")

	margin := -1
	for _, l := range lines[1:] {
		trimmed := strings.TrimLeft(l, " ")
		if trimmed == "" {
			continue
		}
		if indent := len(l) - len(trimmed); margin < 0 || indent < margin {
			margin = indent
		}
	}

	lines[0] = strings.TrimLeft(lines[0], " ")
	for i := 1; i < len(lines); i++ {
		if margin > 0 && len(lines[i]) >= margin {
			lines[i] = lines[i][margin:]
		} else {
			lines[i] = strings.TrimLeft(lines[i], " ")
		}
	}

	for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}
