package talonscript

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	keyStmtRe   = regexp.MustCompile(`^key\((.*)\)$`)
	sleepStmtRe = regexp.MustCompile(`^sleep\((.*)\)$`)
	numberRe    = regexp.MustCompile(`^-?\d+(\.\d+)?$`)
)

// ParseScript parses a command body, one statement per line. firstLine is
// the line number of the body's first line, used in errors.
func ParseScript(body string, firstLine int) (Script, error) {
	var s Script
	for i, raw := range strings.Split(body, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		col := strings.Index(raw, line) + 1
		stmt, err := parseStatement(line, firstLine+i, col)
		if err != nil {
			return Script{}, err
		}
		s.Lines = append(s.Lines, stmt)
	}
	return s, nil
}

func parseStatement(line string, lineNo, col int) (Expr, error) {
	if text, ok := strings.CutPrefix(line, "#"); ok {
		return Comment{Text: strings.TrimSpace(text)}, nil
	}
	if m := keyStmtRe.FindStringSubmatch(line); m != nil {
		var keys []Expr
		for _, k := range strings.Fields(m[1]) {
			keys = append(keys, KeyValue{Value: k})
		}
		return KeyStatement{Keys: keys}, nil
	}
	if m := sleepStmtRe.FindStringSubmatch(line); m != nil {
		arg := strings.TrimSpace(m[1])
		if numberRe.MatchString(arg) {
			return Sleep{Args: []Expr{NumberValue{Value: arg}}}, nil
		}
		return Sleep{Args: []Expr{Value{Value: arg}}}, nil
	}

	toks, err := lex(line, lineNo, col-1)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks, line: lineNo}

	if len(toks) > 2 && toks[0].kind == tokIdent && toks[1].kind == tokAssign {
		p.pos = 2
		value, err := p.expr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(tokEOF, "end of statement"); err != nil {
			return nil, err
		}
		return Assignment{Var: toks[0].text, Expr: value}, nil
	}

	e, err := p.expr()
	if err != nil {
		return nil, err
	}
	if err := p.expect(tokEOF, "end of statement"); err != nil {
		return nil, err
	}
	switch e := e.(type) {
	case Action:
		if e.Name == "repeat" && len(e.Args) == 1 {
			return Repeat{Value: e.Args[0]}, nil
		}
		return e, nil
	case StringValue, FormatString:
		// A bare string inserts itself.
		return Action{Name: "insert", Args: []Expr{e}}, nil
	}
	return nil, &SyntaxError{Line: lineNo, Column: col, Msg: "expected a statement"}
}

type parser struct {
	toks []token
	pos  int
	line int
}

func (p *parser) peek() token {
	return p.toks[p.pos]
}

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) errorf(t token, format string, args ...any) error {
	return &SyntaxError{Line: p.line, Column: t.col + 1, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) expect(kind tokenKind, what string) error {
	if t := p.peek(); t.kind != kind {
		return p.errorf(t, "expected %s, found %q", what, t.text)
	}
	p.next()
	return nil
}

func (p *parser) expr() (Expr, error) {
	left, err := p.additive()
	if err != nil {
		return nil, err
	}
	for t := p.peek(); t.kind == tokIdent && t.text == "or"; t = p.peek() {
		p.next()
		right, err := p.additive()
		if err != nil {
			return nil, err
		}
		left = Or{Left: left, Op: t.text, Right: right}
	}
	return left, nil
}

func (p *parser) additive() (Expr, error) {
	left, err := p.multiplicative()
	if err != nil {
		return nil, err
	}
	for t := p.peek(); t.kind == tokOp && (t.text == "+" || t.text == "-"); t = p.peek() {
		p.next()
		right, err := p.multiplicative()
		if err != nil {
			return nil, err
		}
		if t.text == "+" {
			left = Add{Left: left, Op: t.text, Right: right}
		} else {
			left = Sub{Left: left, Op: t.text, Right: right}
		}
	}
	return left, nil
}

func (p *parser) multiplicative() (Expr, error) {
	left, err := p.primary()
	if err != nil {
		return nil, err
	}
	for t := p.peek(); t.kind == tokOp && strings.Contains("*/%", t.text); t = p.peek() {
		p.next()
		right, err := p.primary()
		if err != nil {
			return nil, err
		}
		switch t.text {
		case "*":
			left = Mul{Left: left, Op: t.text, Right: right}
		case "/":
			left = Div{Left: left, Op: t.text, Right: right}
		default:
			left = Mod{Left: left, Op: t.text, Right: right}
		}
	}
	return left, nil
}

func (p *parser) primary() (Expr, error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		return number(t.text), nil
	case tokOp:
		if n := p.peek(); t.text == "-" && n.kind == tokNumber {
			p.next()
			return number("-" + n.text), nil
		}
	case tokString:
		return stringValue(t.text), nil
	case tokIdent:
		if p.peek().kind != tokLParen {
			return Variable{Name: t.text}, nil
		}
		p.next()
		args, err := p.args()
		if err != nil {
			return nil, err
		}
		return Action{Name: t.text, Args: args}, nil
	case tokLParen:
		inner, err := p.expr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(tokRParen, "')'"); err != nil {
			return nil, err
		}
		return inner, nil
	}
	return nil, p.errorf(t, "unexpected %q", t.text)
}

func (p *parser) args() ([]Expr, error) {
	var args []Expr
	if p.peek().kind == tokRParen {
		p.next()
		return args, nil
	}
	for {
		a, err := p.expr()
		if err != nil {
			return nil, err
		}
		args = append(args, a)
		if p.peek().kind == tokComma {
			p.next()
			continue
		}
		if err := p.expect(tokRParen, "')' or ','"); err != nil {
			return nil, err
		}
		return args, nil
	}
}

func number(text string) Expr {
	if numberRe.MatchString(text) {
		return NumberValue{Value: text}
	}
	return Value{Value: text}
}

var stringEscapes = strings.NewReplacer(`\n`, "\n", `\t`, "\t", `\"`, `"`, `\'`, `'`, `\\`, `\`)

// stringValue splits a string body on {name} interpolations.
func stringValue(body string) Expr {
	if !strings.Contains(body, "{") {
		return StringValue{Value: stringEscapes.Replace(body)}
	}
	var parts []Expr
	rest := body
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			break
		}
		end := strings.IndexByte(rest[open:], '}')
		if end < 0 {
			break
		}
		if open > 0 {
			parts = append(parts, StringValue{Value: stringEscapes.Replace(rest[:open])})
		}
		parts = append(parts, Variable{Name: strings.TrimSpace(rest[open+1 : open+end])})
		rest = rest[open+end+1:]
	}
	if rest != "" {
		parts = append(parts, StringValue{Value: stringEscapes.Replace(rest)})
	}
	if len(parts) == 1 {
		if s, ok := parts[0].(StringValue); ok {
			return s
		}
	}
	return FormatString{Value: stringEscapes.Replace(body), Parts: parts}
}
