package parser

import (
	"github.com/cottand/loon/frontend/loonerr"
	"github.com/cottand/loon/frontend/types"
	"github.com/cottand/loon/internal/log"
)

var parserLogger = log.DefaultLogger.With("section", "parser")

// ParseType reads a single type expression and interns it into arena.
// Primitive names resolve through builtins, so equal source always yields the
// same TypeId within one arena. On failure the returned TypeId is nil and the
// diagnostics carry byte offsets into input.
//
// The grammar is the annotation subset of the surface language: primitive and
// keyword names, quoted string singletons, '~' negation, '|' and '&' with the
// usual precedence, parenthesised grouping, '(T, U, ...V) -> R' function
// types with '<T, P...>' generic prefixes, and '{ name: T, read name: T,
// [K]: V }' table types. An arrow's return type extends to the end of the
// expression, so a function inside a union or intersection needs parentheses.
func ParseType(input string, arena *types.TypeArena, builtins *types.Builtins) (types.TypeId, *loonerr.Errors) {
	p := newTypeParser(input, arena, builtins)
	ty := p.parseType()
	if !p.failed && p.tok.kind != itemEOF {
		p.errorAt(p.tok, "unexpected %s after type", p.tok.describe())
	}
	if p.failed {
		parserLogger.Debug("parse failed", "input", input)
		return nil, p.errs
	}
	return ty, nil
}
