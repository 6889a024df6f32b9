package parser_test

import (
	"testing"

	"github.com/cottand/loon/frontend/loonerr"
	"github.com/cottand/loon/frontend/types"
	"github.com/cottand/loon/parser"
	"github.com/stretchr/testify/assert"
)

func testParse(t *testing.T, input string) (types.TypeId, *types.TypeArena, *types.Builtins) {
	arena := types.NewArena()
	builtins := types.NewBuiltins(arena)
	ty, errs := parser.ParseType(input, arena, builtins)
	assert.False(t, errs.HasError(), "unexpected parse errors for %q: %v", input, errs.Errors())
	return ty, arena, builtins
}

func TestNoPanics(t *testing.T) {
	inputs := map[string]string{
		"empty input":          ``,
		"lone pipe":            `|`,
		"lone tilde":           `~`,
		"unclosed paren":       `(number`,
		"unclosed table":       `{ x: number`,
		"unclosed generics":    `<T`,
		"unterminated string":  `"abc`,
		"stray dot":            `.`,
		"stray dash":           `-`,
		"arrow without pack":   `-> number`,
		"deeply nested":        `((((((number))))))`,
		"table without colon":  `{ x number }`,
		"ellipsis at toplevel": `...number`,
	}

	for name, input := range inputs {
		t.Run(name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				arena := types.NewArena()
				builtins := types.NewBuiltins(arena)
				_, _ = parser.ParseType(input, arena, builtins)
			})
		})
	}
}

func TestParsePrimitives(t *testing.T) {
	arena := types.NewArena()
	builtins := types.NewBuiltins(arena)
	expected := map[string]types.TypeId{
		"nil":      builtins.Nil,
		"boolean":  builtins.Boolean,
		"number":   builtins.Number,
		"string":   builtins.String,
		"thread":   builtins.Thread,
		"buffer":   builtins.Buffer,
		"table":    builtins.TableTop,
		"function": builtins.FunctionTop,
		"any":      builtins.Any,
		"unknown":  builtins.Unknown,
		"never":    builtins.Never,
		"true":     builtins.True,
		"false":    builtins.False,
	}

	for name, want := range expected {
		t.Run(name, func(t *testing.T) {
			ty, errs := parser.ParseType(name, arena, builtins)
			assert.False(t, errs.HasError())
			assert.Same(t, want, ty)
		})
	}
}

func TestParseSingletons(t *testing.T) {
	ty, arena, _ := testParse(t, `"hello"`)
	assert.Same(t, arena.StringSingleton("hello"), ty)

	ty, arena, _ = testParse(t, `'hi'`)
	assert.Same(t, arena.StringSingleton("hi"), ty)

	ty, arena, _ = testParse(t, `"a\"b\n"`)
	assert.Same(t, arena.StringSingleton("a\"b\n"), ty)
}

func TestParsePrecedence(t *testing.T) {
	t.Run("union of intersection", func(t *testing.T) {
		ty, arena, builtins := testParse(t, `number | string & boolean`)
		want := arena.Union(builtins.Number, arena.Intersection(builtins.String, builtins.Boolean))
		assert.Same(t, want, ty)
	})

	t.Run("parens flip precedence", func(t *testing.T) {
		ty, arena, builtins := testParse(t, `(number | string) & boolean`)
		want := arena.Intersection(arena.Union(builtins.Number, builtins.String), builtins.Boolean)
		assert.Same(t, want, ty)
	})

	t.Run("negation binds tightest", func(t *testing.T) {
		ty, arena, builtins := testParse(t, `~number | string`)
		want := arena.Union(arena.Negation(builtins.Number), builtins.String)
		assert.Same(t, want, ty)
	})

	t.Run("double negation", func(t *testing.T) {
		ty, arena, builtins := testParse(t, `~~number`)
		assert.Same(t, arena.Negation(arena.Negation(builtins.Number)), ty)
	})

	t.Run("grouping is transparent", func(t *testing.T) {
		ty, _, builtins := testParse(t, `(number)`)
		assert.Same(t, builtins.Number, ty)
	})
}

func TestParseFunctions(t *testing.T) {
	t.Run("single argument", func(t *testing.T) {
		ty, arena, builtins := testParse(t, `(number) -> string`)
		want := arena.Function(nil, nil,
			arena.Pack([]types.TypeId{builtins.Number}, nil),
			arena.Pack([]types.TypeId{builtins.String}, nil))
		assert.Same(t, want, ty)
	})

	t.Run("no arguments no returns", func(t *testing.T) {
		ty, arena, _ := testParse(t, `() -> ()`)
		want := arena.Function(nil, nil, arena.EmptyPack(), arena.EmptyPack())
		assert.Same(t, want, ty)
	})

	t.Run("multiple returns", func(t *testing.T) {
		ty, arena, builtins := testParse(t, `(number, string) -> (boolean, nil)`)
		want := arena.Function(nil, nil,
			arena.Pack([]types.TypeId{builtins.Number, builtins.String}, nil),
			arena.Pack([]types.TypeId{builtins.Boolean, builtins.Nil}, nil))
		assert.Same(t, want, ty)
	})

	t.Run("variadic arguments", func(t *testing.T) {
		ty, arena, builtins := testParse(t, `(number, ...string) -> boolean`)
		want := arena.Function(nil, nil,
			arena.Pack([]types.TypeId{builtins.Number}, arena.Variadic(builtins.String)),
			arena.Pack([]types.TypeId{builtins.Boolean}, nil))
		assert.Same(t, want, ty)
	})

	t.Run("variadic returns", func(t *testing.T) {
		ty, arena, builtins := testParse(t, `() -> ...string`)
		want := arena.Function(nil, nil, arena.EmptyPack(), arena.Variadic(builtins.String))
		assert.Same(t, want, ty)
	})

	t.Run("union in return position", func(t *testing.T) {
		ty, arena, builtins := testParse(t, `(number) -> string | boolean`)
		want := arena.Function(nil, nil,
			arena.Pack([]types.TypeId{builtins.Number}, nil),
			arena.Pack([]types.TypeId{arena.Union(builtins.String, builtins.Boolean)}, nil))
		assert.Same(t, want, ty)
	})

	t.Run("overload intersection", func(t *testing.T) {
		ty, arena, builtins := testParse(t, `((number) -> number) & ((string) -> string)`)
		numFn := arena.Function(nil, nil,
			arena.Pack([]types.TypeId{builtins.Number}, nil),
			arena.Pack([]types.TypeId{builtins.Number}, nil))
		strFn := arena.Function(nil, nil,
			arena.Pack([]types.TypeId{builtins.String}, nil),
			arena.Pack([]types.TypeId{builtins.String}, nil))
		assert.Same(t, arena.Intersection(numFn, strFn), ty)
	})
}

func TestParseGenericFunctions(t *testing.T) {
	t.Run("identity", func(t *testing.T) {
		ty, _, _ := testParse(t, `<T>(T) -> T`)
		fn, ok := ty.(*types.FunctionType)
		if !assert.True(t, ok, "expected a function, got %s", ty) {
			return
		}
		if !assert.Len(t, fn.Generics, 1) {
			return
		}
		args, ok := fn.Args.(*types.TypePack)
		if assert.True(t, ok) && assert.Len(t, args.Head, 1) {
			assert.Same(t, fn.Generics[0], args.Head[0])
		}
		rets, ok := fn.Rets.(*types.TypePack)
		if assert.True(t, ok) && assert.Len(t, rets.Head, 1) {
			assert.Same(t, fn.Generics[0], rets.Head[0])
		}
	})

	t.Run("generic pack", func(t *testing.T) {
		ty, _, builtins := testParse(t, `<T, P...>(T, P...) -> P...`)
		fn, ok := ty.(*types.FunctionType)
		if !assert.True(t, ok, "expected a function, got %s", ty) {
			return
		}
		assert.Len(t, fn.Generics, 1)
		if !assert.Len(t, fn.GenericPacks, 1) {
			return
		}
		args, ok := fn.Args.(*types.TypePack)
		if assert.True(t, ok) {
			assert.Same(t, fn.GenericPacks[0], args.Tail)
		}
		assert.Same(t, fn.GenericPacks[0], fn.Rets)
		_ = builtins
	})

	t.Run("fresh per parse", func(t *testing.T) {
		arena := types.NewArena()
		builtins := types.NewBuiltins(arena)
		first, errs := parser.ParseType(`<T>(T) -> T`, arena, builtins)
		assert.False(t, errs.HasError())
		second, errs := parser.ParseType(`<T>(T) -> T`, arena, builtins)
		assert.False(t, errs.HasError())
		assert.NotSame(t, first, second)
	})
}

func TestParseTables(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		ty, arena, _ := testParse(t, `{}`)
		assert.Same(t, arena.Table(nil, nil, types.TableSealed), ty)
	})

	t.Run("fields and read modifier", func(t *testing.T) {
		ty, arena, builtins := testParse(t, `{ x: number, read y: string }`)
		want := arena.Table(map[string]types.Property{
			"x": {Ty: builtins.Number},
			"y": {Ty: builtins.String, ReadOnly: true},
		}, nil, types.TableSealed)
		assert.Same(t, want, ty)
	})

	t.Run("field named read", func(t *testing.T) {
		ty, arena, builtins := testParse(t, `{ read: number }`)
		want := arena.Table(map[string]types.Property{
			"read": {Ty: builtins.Number},
		}, nil, types.TableSealed)
		assert.Same(t, want, ty)
	})

	t.Run("indexer", func(t *testing.T) {
		ty, arena, builtins := testParse(t, `{ [string]: boolean }`)
		want := arena.Table(nil, &types.TableIndexer{Key: builtins.String, Value: builtins.Boolean}, types.TableSealed)
		assert.Same(t, want, ty)
	})

	t.Run("fields mixed with indexer", func(t *testing.T) {
		ty, arena, builtins := testParse(t, `{ x: number; [string]: number }`)
		want := arena.Table(map[string]types.Property{
			"x": {Ty: builtins.Number},
		}, &types.TableIndexer{Key: builtins.String, Value: builtins.Number}, types.TableSealed)
		assert.Same(t, want, ty)
	})

	t.Run("nested", func(t *testing.T) {
		ty, arena, builtins := testParse(t, `{ inner: { x: number } }`)
		inner := arena.Table(map[string]types.Property{"x": {Ty: builtins.Number}}, nil, types.TableSealed)
		want := arena.Table(map[string]types.Property{"inner": {Ty: inner}}, nil, types.TableSealed)
		assert.Same(t, want, ty)
	})
}

func TestParseRoundTripsRender(t *testing.T) {
	arena := types.NewArena()
	builtins := types.NewBuiltins(arena)

	built := []types.TypeId{
		builtins.Number,
		arena.StringSingleton("hi"),
		arena.Union(builtins.Number, builtins.String),
		arena.Intersection(builtins.TableTop, arena.Negation(builtins.Nil)),
		arena.Function(nil, nil,
			arena.Pack([]types.TypeId{builtins.Number}, arena.Variadic(builtins.String)),
			arena.Pack([]types.TypeId{builtins.Boolean}, nil)),
		arena.Table(map[string]types.Property{
			"x": {Ty: builtins.Number},
			"y": {Ty: builtins.String, ReadOnly: true},
		}, &types.TableIndexer{Key: builtins.String, Value: builtins.Boolean}, types.TableSealed),
	}

	for _, ty := range built {
		t.Run(ty.String(), func(t *testing.T) {
			parsed, errs := parser.ParseType(ty.String(), arena, builtins)
			if assert.False(t, errs.HasError(), "render %q did not parse back: %v", ty.String(), errs.Errors()) {
				assert.Same(t, ty, parsed)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		name  string
		input string
	}{
		{name: "empty input", input: ``},
		{name: "unknown name", input: `wibble`},
		{name: "trailing input", input: `number string`},
		{name: "missing union member", input: `number |`},
		{name: "pack without arrow", input: `(number, string)`},
		{name: "empty parens without arrow", input: `()`},
		{name: "generic prefix without arrow", input: `<T>(T)`},
		{name: "unterminated string", input: `"abc`},
		{name: "duplicate field", input: `{ x: number, x: string }`},
		{name: "duplicate indexer", input: `{ [number]: string, [string]: number }`},
		{name: "missing field type", input: `{ x: }`},
		{name: "stray ellipsis", input: `(number, ...string, boolean) -> nil`},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			arena := types.NewArena()
			builtins := types.NewBuiltins(arena)
			ty, errs := parser.ParseType(tt.input, arena, builtins)
			assert.Nil(t, ty)
			if !assert.True(t, errs.HasError(), "expected a parse error for %q", tt.input) {
				return
			}
			assert.Equal(t, loonerr.Parse, errs.Errors()[0].Code())
		})
	}
}

func TestParseErrorPositions(t *testing.T) {
	arena := types.NewArena()
	builtins := types.NewBuiltins(arena)

	input := `number | wibble`
	_, errs := parser.ParseType(input, arena, builtins)
	if !assert.True(t, errs.HasError()) {
		return
	}
	parseErr, ok := errs.Errors()[0].(loonerr.NewParse)
	if !assert.True(t, ok, "expected a NewParse, got %T", errs.Errors()[0]) {
		return
	}
	assert.Equal(t, 9, int(parseErr.Pos()))
	assert.Equal(t, 15, int(parseErr.End()))
	assert.NotEmpty(t, parseErr.Hint)
}
