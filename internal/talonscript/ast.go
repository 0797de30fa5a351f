// Package talonscript parses talon command scripts and folds their
// expression trees.
package talonscript

// Expr is a node of a command script. The set of implementations is closed.
type Expr interface {
	expr()
}

// Comment is a `#` comment line.
type Comment struct {
	Text string
}

// Binary operators. Op holds the operator text as written.
type (
	Add struct {
		Left  Expr
		Op    string
		Right Expr
	}
	Sub struct {
		Left  Expr
		Op    string
		Right Expr
	}
	Mul struct {
		Left  Expr
		Op    string
		Right Expr
	}
	Div struct {
		Left  Expr
		Op    string
		Right Expr
	}
	Mod struct {
		Left  Expr
		Op    string
		Right Expr
	}
	Or struct {
		Left  Expr
		Op    string
		Right Expr
	}
	// Op is any other binary operator.
	Op struct {
		Left  Expr
		Op    string
		Right Expr
	}
)

// Values.
type (
	// KeyValue is a single key in a key() statement, e.g. "ctrl-a".
	KeyValue struct {
		Value string
	}
	StringValue struct {
		Value string
	}
	// FormatString is a string with `{var}` interpolations. Parts alternate
	// between StringValue and Variable in source order.
	FormatString struct {
		Value string
		Parts []Expr
	}
	NumberValue struct {
		Value string
	}
	// Value is any other literal, such as the duration in sleep(100ms).
	Value struct {
		Value string
	}
)

// Variable is a reference to a capture, list or assigned variable.
type Variable struct {
	Name string
}

// Statements.
type (
	KeyStatement struct {
		Keys []Expr
	}
	Sleep struct {
		Args []Expr
	}
	Repeat struct {
		Value Expr
	}
	Action struct {
		Name string
		Args []Expr
	}
	Assignment struct {
		Var  string
		Expr Expr
	}
)

func (Comment) expr()      {}
func (Add) expr()          {}
func (Sub) expr()          {}
func (Mul) expr()          {}
func (Div) expr()          {}
func (Mod) expr()          {}
func (Or) expr()           {}
func (Op) expr()           {}
func (KeyValue) expr()     {}
func (StringValue) expr()  {}
func (FormatString) expr() {}
func (NumberValue) expr()  {}
func (Value) expr()        {}
func (Variable) expr()     {}
func (KeyStatement) expr() {}
func (Sleep) expr()        {}
func (Repeat) expr()       {}
func (Action) expr()       {}
func (Assignment) expr()   {}

// Script is the body of one command: its statements in order.
type Script struct {
	Lines []Expr
}
