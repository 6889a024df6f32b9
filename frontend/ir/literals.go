package ir

import (
	"go/token"
)

func StringLiteral(value string, in Positioner) *Literal {
	return &Literal{
		Range:  RangeOf(in),
		Syntax: value,
		Kind:   token.STRING,
	}
}

// NumberLiteral represents a compile time numeric value
//
// Semantics for later converting to the appropriate type must follow Go's (see https://go.dev/ref/spec#Constants)
func NumberLiteral(value string, in Positioner) *Literal {
	return &Literal{
		Range:  RangeOf(in),
		Syntax: value,
		Kind:   token.FLOAT,
	}
}

func BoolLiteral(value bool, in Positioner) *Literal {
	syntax := "false"
	if value {
		syntax = "true"
	}
	return &Literal{
		Range:  RangeOf(in),
		Syntax: syntax,
		Kind:   token.IDENT,
	}
}

func NilLiteral(in Positioner) *Literal {
	return &Literal{
		Range:  RangeOf(in),
		Syntax: "nil",
		Kind:   token.IDENT,
	}
}
