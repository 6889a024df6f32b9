package parser

import (
	"fmt"
	"go/token"

	"github.com/cottand/loon/frontend/ir"
	"github.com/cottand/loon/frontend/loonerr"
	"github.com/cottand/loon/frontend/types"
)

// typeParser is a one-item-lookahead reader over the scanner. Everything it
// builds is interned straight into the target arena, so there is no separate
// syntax tree to walk afterwards.
//
// The parser stops at the first error. A failed parser keeps returning the
// builtin error type so callers never see a nil TypeId mid-parse.
type typeParser struct {
	scan     scanner
	tok      item
	arena    *types.TypeArena
	builtins *types.Builtins
	errs     *loonerr.Errors
	failed   bool

	// generics and genericPacks are the names bound by enclosing <...>
	// prefixes, visible while their signature is being read.
	generics     map[string]types.TypeId
	genericPacks map[string]types.TypePackId
}

func newTypeParser(input string, arena *types.TypeArena, builtins *types.Builtins) *typeParser {
	p := &typeParser{
		scan:     scanner{src: input},
		arena:    arena,
		builtins: builtins,
	}
	p.advance()
	return p
}

func (p *typeParser) advance() {
	p.tok = p.scan.next()
}

func (p *typeParser) record(at item, msg, hint string) {
	if p.failed {
		return
	}
	p.failed = true
	p.errs = p.errs.With(loonerr.New(loonerr.NewParse{
		Positioner: ir.Range{
			PosStart: token.Pos(at.start),
			PosEnd:   token.Pos(at.end),
		},
		ParserMessage: msg,
		Hint:          hint,
	}))
}

func (p *typeParser) errorAt(at item, format string, args ...any) {
	p.record(at, fmt.Sprintf(format, args...), "")
}

func (p *typeParser) expect(kind itemKind, context string) item {
	at := p.tok
	if at.kind != kind {
		p.errorAt(at, "expected %s in %s, found %s", kind, context, at.describe())
		return at
	}
	p.advance()
	return at
}

// parseType reads a full type expression: '|' binds loosest, then '&', then
// prefix '~', then atoms.
func (p *typeParser) parseType() types.TypeId {
	if p.failed {
		return p.builtins.Error
	}
	ty := p.parseIntersection()
	if p.tok.kind != itemPipe {
		return ty
	}
	members := []types.TypeId{ty}
	for p.tok.kind == itemPipe && !p.failed {
		p.advance()
		members = append(members, p.parseIntersection())
	}
	return p.arena.Union(members...)
}

func (p *typeParser) parseIntersection() types.TypeId {
	ty := p.parseUnary()
	if p.tok.kind != itemAmpersand {
		return ty
	}
	members := []types.TypeId{ty}
	for p.tok.kind == itemAmpersand && !p.failed {
		p.advance()
		members = append(members, p.parseUnary())
	}
	return p.arena.Intersection(members...)
}

func (p *typeParser) parseUnary() types.TypeId {
	if p.tok.kind == itemTilde {
		p.advance()
		return p.arena.Negation(p.parseUnary())
	}
	return p.parseAtom()
}

const primitiveNamesHint = "primitive names are nil, boolean, number, string, thread, buffer, table, function, any, unknown, never, true and false"

func (p *typeParser) parseAtom() types.TypeId {
	if p.failed {
		return p.builtins.Error
	}
	at := p.tok
	switch at.kind {
	case itemIdent:
		p.advance()
		if g, ok := p.generics[at.text]; ok {
			return g
		}
		if ty, ok := p.builtins.Primitive(at.text); ok {
			return ty
		}
		p.record(at, fmt.Sprintf("unknown type name '%s'", at.text), primitiveNamesHint)
		return p.builtins.Error
	case itemString:
		p.advance()
		return p.arena.StringSingleton(at.text)
	case itemBadString:
		p.errorAt(at, "unterminated string literal")
		return p.builtins.Error
	case itemLBrace:
		return p.parseTable()
	case itemLParen:
		return p.parseParenOrFunction(nil, nil)
	case itemLAngle:
		return p.parseGenericFunction()
	default:
		p.errorAt(at, "expected a type, found %s", at.describe())
		return p.builtins.Error
	}
}

// parseParenOrFunction reads '(...)' and decides between grouping and a
// function type: an arrow after the closing parenthesis makes it a function,
// a lone tail-less type without one is grouping, anything else is an error.
// The generic lists are non-nil when a <...> prefix introduced this signature.
func (p *typeParser) parseParenOrFunction(generics []types.TypeId, genericPacks []types.TypePackId) types.TypeId {
	p.expect(itemLParen, "type")
	head, tail, single := p.parsePackBody()
	p.expect(itemRParen, "argument pack")
	if p.tok.kind != itemArrow {
		if single && generics == nil && genericPacks == nil {
			return head[0]
		}
		p.errorAt(p.tok, "expected '->' after argument pack, found %s", p.tok.describe())
		return p.builtins.Error
	}
	p.advance()
	rets := p.parseReturnPack()
	return p.arena.Function(generics, genericPacks, p.arena.Pack(head, tail), rets)
}

// parsePackBody reads the comma-separated inside of a parenthesised pack,
// stopping before the closing parenthesis. A '...T' element or a bound 'P...'
// name ends the pack as its tail. single reports a body of exactly one plain
// type, which grouping treats specially.
func (p *typeParser) parsePackBody() (head []types.TypeId, tail types.TypePackId, single bool) {
	if p.tok.kind == itemRParen {
		return nil, nil, false
	}
	for !p.failed {
		if p.tok.kind == itemEllipsis {
			p.advance()
			return head, p.arena.Variadic(p.parseType()), false
		}
		if p.tok.kind == itemIdent {
			if gp, ok := p.genericPacks[p.tok.text]; ok {
				p.advance()
				p.expect(itemEllipsis, "generic pack")
				return head, gp, false
			}
		}
		head = append(head, p.parseType())
		if p.tok.kind != itemComma {
			return head, nil, len(head) == 1
		}
		p.advance()
	}
	return head, nil, false
}

func (p *typeParser) parseReturnPack() types.TypePackId {
	switch p.tok.kind {
	case itemLParen:
		p.advance()
		head, tail, _ := p.parsePackBody()
		p.expect(itemRParen, "return pack")
		return p.arena.Pack(head, tail)
	case itemEllipsis:
		p.advance()
		return p.arena.Variadic(p.parseType())
	case itemIdent:
		if gp, ok := p.genericPacks[p.tok.text]; ok {
			p.advance()
			p.expect(itemEllipsis, "generic pack")
			return gp
		}
	}
	return p.arena.Pack([]types.TypeId{p.parseType()}, nil)
}

// parseGenericFunction reads a '<T, U, P...>' prefix, binds the fresh
// generics for the duration of the signature, and hands over to the function
// reader. Inner bindings shadow outer ones of the same name.
func (p *typeParser) parseGenericFunction() types.TypeId {
	p.expect(itemLAngle, "generic parameter list")
	outerGenerics, outerGenericPacks := p.generics, p.genericPacks
	p.generics = make(map[string]types.TypeId, len(outerGenerics)+1)
	for name, g := range outerGenerics {
		p.generics[name] = g
	}
	p.genericPacks = make(map[string]types.TypePackId, len(outerGenericPacks)+1)
	for name, gp := range outerGenericPacks {
		p.genericPacks[name] = gp
	}

	var generics []types.TypeId
	var genericPacks []types.TypePackId
	for !p.failed {
		name := p.expect(itemIdent, "generic parameter list")
		if p.failed {
			break
		}
		if p.tok.kind == itemEllipsis {
			p.advance()
			gp := p.arena.FreshGenericPack(name.text)
			p.genericPacks[name.text] = gp
			genericPacks = append(genericPacks, gp)
		} else {
			g := p.arena.FreshGeneric(name.text)
			p.generics[name.text] = g
			generics = append(generics, g)
		}
		if p.tok.kind != itemComma {
			break
		}
		p.advance()
	}
	p.expect(itemRAngle, "generic parameter list")
	ty := p.parseParenOrFunction(generics, genericPacks)
	p.generics, p.genericPacks = outerGenerics, outerGenericPacks
	return ty
}

// parseTable reads '{ name: T, read name: T, [K]: V }'. Fields and the
// indexer may come in any order, separated by ',' or ';'. Readers always
// produce sealed tables; unsealed ones only arise inside the checker.
func (p *typeParser) parseTable() types.TypeId {
	p.expect(itemLBrace, "table type")
	props := map[string]types.Property{}
	var indexer *types.TableIndexer
	for p.tok.kind != itemRBrace && !p.failed {
		switch p.tok.kind {
		case itemLBracket:
			bracket := p.tok
			p.advance()
			key := p.parseType()
			p.expect(itemRBracket, "table indexer")
			p.expect(itemColon, "table indexer")
			value := p.parseType()
			if indexer != nil {
				p.errorAt(bracket, "table type already declares an indexer")
				return p.builtins.Error
			}
			indexer = &types.TableIndexer{Key: key, Value: value}
		case itemIdent:
			name := p.tok
			p.advance()
			readOnly := false
			// 'read' is contextual: it only modifies when another
			// name follows, so '{ read: T }' stays a plain field.
			if name.text == "read" && p.tok.kind == itemIdent {
				readOnly = true
				name = p.tok
				p.advance()
			}
			p.expect(itemColon, "table field")
			ty := p.parseType()
			if _, dup := props[name.text]; dup {
				p.errorAt(name, "duplicate table field '%s'", name.text)
				return p.builtins.Error
			}
			props[name.text] = types.Property{Ty: ty, ReadOnly: readOnly}
		default:
			p.errorAt(p.tok, "expected a field name, an indexer or '}', found %s", p.tok.describe())
			return p.builtins.Error
		}
		if p.tok.kind != itemComma && p.tok.kind != itemSemicolon {
			break
		}
		p.advance()
	}
	p.expect(itemRBrace, "table type")
	return p.arena.Table(props, indexer, types.TableSealed)
}
