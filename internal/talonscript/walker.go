package talonscript

import (
	"errors"
	"fmt"
)

// ErrUnknownExpr is returned when a fold meets an expression outside the
// closed set of node types. It aborts that fold only.
var ErrUnknownExpr = errors.New("unknown expression")

// Hooks are the per-variant callbacks of a Walker. A nil hook falls back to a
// more general one:
//
//	Add, Sub, Mul, Div, Mod, Or -> Operator
//	KeyValue -> StringValue -> Value
//	FormatString, NumberValue -> Value
//	Key, Sleep, Repeat -> Action("key" | "sleep" | "repeat", ...)
//
// Comment, Operator, Value, Variable, Action and Assignment default to
// returning the zero T. Operator children and call arguments are folded
// before their hook is invoked.
type Hooks[T any] struct {
	Comment func(text string) T

	Add      func(left T, op string, right T) T
	Sub      func(left T, op string, right T) T
	Mul      func(left T, op string, right T) T
	Div      func(left T, op string, right T) T
	Mod      func(left T, op string, right T) T
	Or       func(left T, op string, right T) T
	Operator func(left T, op string, right T) T

	KeyValue     func(value string) T
	StringValue  func(value string) T
	FormatString func(value string, parts []T) T
	NumberValue  func(value string) T
	Value        func(value string) T

	Variable func(name string) T

	Key        func(keys []T) T
	Sleep      func(args []T) T
	Repeat     func(count T) T
	Action     func(name string, args []T) T
	Assignment func(name string, value T) T
}

// Walker folds scripts into values of type T.
type Walker[T any] struct {
	h Hooks[T]
}

// NewWalker returns a Walker using hooks, with every nil hook wired to its
// fallback. Fallbacks read the final hook set, so overriding only a general
// hook changes every variant that defaults to it.
func NewWalker[T any](hooks Hooks[T]) *Walker[T] {
	w := &Walker[T]{h: hooks}
	h := &w.h

	operator := func(left T, op string, right T) T { return h.Operator(left, op, right) }
	if h.Add == nil {
		h.Add = operator
	}
	if h.Sub == nil {
		h.Sub = operator
	}
	if h.Mul == nil {
		h.Mul = operator
	}
	if h.Div == nil {
		h.Div = operator
	}
	if h.Mod == nil {
		h.Mod = operator
	}
	if h.Or == nil {
		h.Or = operator
	}

	if h.KeyValue == nil {
		h.KeyValue = func(v string) T { return h.StringValue(v) }
	}
	if h.StringValue == nil {
		h.StringValue = func(v string) T { return h.Value(v) }
	}
	if h.FormatString == nil {
		h.FormatString = func(v string, _ []T) T { return h.Value(v) }
	}
	if h.NumberValue == nil {
		h.NumberValue = func(v string) T { return h.Value(v) }
	}

	if h.Key == nil {
		h.Key = func(keys []T) T { return h.Action("key", keys) }
	}
	if h.Sleep == nil {
		h.Sleep = func(args []T) T { return h.Action("sleep", args) }
	}
	if h.Repeat == nil {
		h.Repeat = func(v T) T { return h.Action("repeat", []T{v}) }
	}

	var zero T
	if h.Comment == nil {
		h.Comment = func(string) T { return zero }
	}
	if h.Operator == nil {
		h.Operator = func(T, string, T) T { return zero }
	}
	if h.Value == nil {
		h.Value = func(string) T { return zero }
	}
	if h.Variable == nil {
		h.Variable = func(string) T { return zero }
	}
	if h.Action == nil {
		h.Action = func(string, []T) T { return zero }
	}
	if h.Assignment == nil {
		h.Assignment = func(string, T) T { return zero }
	}
	return w
}

// FoldScript folds each top-level statement of s, preserving order and
// length.
func (w *Walker[T]) FoldScript(s Script) ([]T, error) {
	out := make([]T, len(s.Lines))
	for i, stmt := range s.Lines {
		r, err := w.Fold(stmt)
		if err != nil {
			return nil, fmt.Errorf("statement %d: %w", i+1, err)
		}
		out[i] = r
	}
	return out, nil
}

// Fold folds one expression, dispatching on its type alone.
func (w *Walker[T]) Fold(e Expr) (T, error) {
	h := &w.h
	switch e := e.(type) {
	case Comment:
		return h.Comment(e.Text), nil

	case Add:
		return w.binary(e.Left, e.Op, e.Right, h.Add)
	case Sub:
		return w.binary(e.Left, e.Op, e.Right, h.Sub)
	case Mul:
		return w.binary(e.Left, e.Op, e.Right, h.Mul)
	case Div:
		return w.binary(e.Left, e.Op, e.Right, h.Div)
	case Mod:
		return w.binary(e.Left, e.Op, e.Right, h.Mod)
	case Or:
		return w.binary(e.Left, e.Op, e.Right, h.Or)
	case Op:
		return w.binary(e.Left, e.Op, e.Right, h.Operator)

	case KeyValue:
		return h.KeyValue(e.Value), nil
	case StringValue:
		return h.StringValue(e.Value), nil
	case FormatString:
		parts, err := w.foldAll(e.Parts)
		if err != nil {
			var zero T
			return zero, err
		}
		return h.FormatString(e.Value, parts), nil
	case NumberValue:
		return h.NumberValue(e.Value), nil
	case Value:
		return h.Value(e.Value), nil

	case Variable:
		return h.Variable(e.Name), nil

	case KeyStatement:
		keys, err := w.foldAll(e.Keys)
		if err != nil {
			var zero T
			return zero, err
		}
		return h.Key(keys), nil
	case Sleep:
		args, err := w.foldAll(e.Args)
		if err != nil {
			var zero T
			return zero, err
		}
		return h.Sleep(args), nil
	case Repeat:
		v, err := w.Fold(e.Value)
		if err != nil {
			return v, err
		}
		return h.Repeat(v), nil
	case Action:
		args, err := w.foldAll(e.Args)
		if err != nil {
			var zero T
			return zero, err
		}
		return h.Action(e.Name, args), nil
	case Assignment:
		v, err := w.Fold(e.Expr)
		if err != nil {
			return v, err
		}
		return h.Assignment(e.Var, v), nil
	}

	var zero T
	return zero, fmt.Errorf("%w: %T", ErrUnknownExpr, e)
}

func (w *Walker[T]) binary(left Expr, op string, right Expr, hook func(T, string, T) T) (T, error) {
	l, err := w.Fold(left)
	if err != nil {
		return l, err
	}
	r, err := w.Fold(right)
	if err != nil {
		return r, err
	}
	return hook(l, op, r), nil
}

func (w *Walker[T]) foldAll(exprs []Expr) ([]T, error) {
	out := make([]T, len(exprs))
	for i, e := range exprs {
		r, err := w.Fold(e)
		if err != nil {
			return nil, err
		}
		out[i] = r
	}
	return out, nil
}
