package talonscript

import (
	"fmt"
	"strings"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokNumber
	tokString
	tokOp
	tokLParen
	tokRParen
	tokComma
	tokAssign
)

type token struct {
	kind tokenKind
	text string // identifier, number or operator text; raw body for strings
	col  int
}

// SyntaxError is a command script that does not parse.
type SyntaxError struct {
	Line   int
	Column int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Msg)
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || isDigit(c) || c == '.'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// lex splits one statement line into tokens. col0 is the column of the
// line's first byte, used for error positions.
func lex(line string, lineNo, col0 int) ([]token, error) {
	var toks []token
	for i := 0; i < len(line); {
		c := line[i]
		start := i
		switch {
		case c == ' ' || c == '\t':
			i++
			continue
		case c == '#':
			i = len(line)
			continue
		case isIdentStart(c):
			for i < len(line) && isIdentChar(line[i]) {
				i++
			}
			toks = append(toks, token{kind: tokIdent, text: line[start:i], col: col0 + start})
		case isDigit(c):
			for i < len(line) && (isDigit(line[i]) || line[i] == '.') {
				i++
			}
			// unit suffix, as in 100ms
			for i < len(line) && isIdentStart(line[i]) {
				i++
			}
			toks = append(toks, token{kind: tokNumber, text: line[start:i], col: col0 + start})
		case c == '"' || c == '\'':
			i++
			for i < len(line) && line[i] != c {
				if line[i] == '\\' {
					i++
				}
				i++
			}
			if i >= len(line) {
				return nil, &SyntaxError{Line: lineNo, Column: col0 + start + 1, Msg: "unterminated string"}
			}
			i++
			toks = append(toks, token{kind: tokString, text: line[start+1 : i-1], col: col0 + start})
		case c == '(':
			i++
			toks = append(toks, token{kind: tokLParen, text: "(", col: col0 + start})
		case c == ')':
			i++
			toks = append(toks, token{kind: tokRParen, text: ")", col: col0 + start})
		case c == ',':
			i++
			toks = append(toks, token{kind: tokComma, text: ",", col: col0 + start})
		case c == '=':
			i++
			toks = append(toks, token{kind: tokAssign, text: "=", col: col0 + start})
		case strings.IndexByte("+-*/%", c) >= 0:
			i++
			toks = append(toks, token{kind: tokOp, text: string(c), col: col0 + start})
		default:
			return nil, &SyntaxError{Line: lineNo, Column: col0 + start + 1, Msg: fmt.Sprintf("unexpected character %q", c)}
		}
	}
	return append(toks, token{kind: tokEOF, col: col0 + len(line)}), nil
}
