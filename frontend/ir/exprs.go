package ir

import (
	"encoding/binary"
	"go/token"
	"hash/fnv"
	"strings"
)

// Expr is the expression surface the call-site machinery consumes. The
// resolver only ever needs to know where an argument came from and whether
// it was written as a literal, so the sum stays deliberately small.
type Expr interface {
	Positioner
	// ExprName is the Name of the syntax-type of the expression.
	ExprName() string
	// Describe is what to call this expression in error messages
	Describe() string
	Hash() uint64
}

var _ Expr = (*Literal)(nil)
var _ Expr = (*Var)(nil)
var _ Expr = (*Call)(nil)
var _ Expr = (*MethodCall)(nil)

type Literal struct {
	// Syntax is a string representation of the literal value. The syntax will be printed when the literal is printed.
	Syntax string

	// Kind indicates what literal this is originally
	//
	// Should be one of
	// token.INT, token.FLOAT, token.STRING, or token.IDENT (for true, false, nil)
	Kind token.Token

	Range
}

// Returns the syntax of e.
func (e *Literal) ExprName() string { return e.Syntax }

func (e *Literal) Describe() string {
	switch e.Kind {
	case token.STRING:
		return "string " + e.Syntax
	case token.INT, token.FLOAT:
		return "number " + e.Syntax
	default:
		return e.Syntax
	}
}

// Hash returns a hash value for the Literal, based on its structural characteristics
func (e *Literal) Hash() uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(e.Syntax))
	_, _ = h.Write([]byte(e.Kind.String()))
	return h.Sum64()
}

// Variable (or Identifier)
type Var struct {
	Name string
	Range
}

// "Var"
func (e *Var) ExprName() string { return "Var" }

func (e *Var) Describe() string { return "variable " + e.Name }

// Hash returns a hash value for the Var, based on its structural characteristics
func (e *Var) Hash() uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(e.Name))
	return h.Sum64()
}

// Application: `f(x)`
type Call struct {
	Func  Expr
	Args  []Expr
	Range // of the entire expression
}

// "Call"
func (e *Call) ExprName() string { return "Call" }

func (e *Call) Describe() string { return "call of " + e.Func.Describe() }

func (e *Call) Hash() uint64 {
	h := fnv.New64a()
	arr := []byte("Call")
	arr = binary.LittleEndian.AppendUint64(arr, e.Func.Hash())
	for _, arg := range e.Args {
		arr = binary.LittleEndian.AppendUint64(arr, arg.Hash())
	}
	_, _ = h.Write(arr)
	return h.Sum64()
}

// Method application: `recv:name(x)`, which passes recv as the first argument
type MethodCall struct {
	Recv  Expr
	Name  string
	Args  []Expr
	Range // of the entire expression
}

// "MethodCall"
func (e *MethodCall) ExprName() string { return "MethodCall" }

func (e *MethodCall) Describe() string { return "method call " + e.Name }

func (e *MethodCall) Hash() uint64 {
	h := fnv.New64a()
	arr := []byte("MethodCall")
	arr = append(arr, e.Name...)
	arr = binary.LittleEndian.AppendUint64(arr, e.Recv.Hash())
	for _, arg := range e.Args {
		arr = binary.LittleEndian.AppendUint64(arr, arg.Hash())
	}
	_, _ = h.Write(arr)
	return h.Sum64()
}

// IsLiteral reports whether the expression was written as a literal value at
// the call site, which makes it a better anchor for a type mismatch than the
// whole call.
func IsLiteral(e Expr) bool {
	_, ok := e.(*Literal)
	return ok
}

func ExprString(e Expr) string {
	switch e := e.(type) {
	case *Literal:
		return e.Syntax
	case *Var:
		return e.Name
	case *Call:
		parts := make([]string, len(e.Args))
		for i, arg := range e.Args {
			parts[i] = ExprString(arg)
		}
		return ExprString(e.Func) + "(" + strings.Join(parts, ", ") + ")"
	case *MethodCall:
		parts := make([]string, len(e.Args))
		for i, arg := range e.Args {
			parts[i] = ExprString(arg)
		}
		return ExprString(e.Recv) + ":" + e.Name + "(" + strings.Join(parts, ", ") + ")"
	default:
		return e.ExprName()
	}
}
