package loon

import (
	"context"
	"testing"

	"github.com/cottand/loon/frontend/loonerr"
	"github.com/cottand/loon/frontend/types"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func testAnalyzer(t *testing.T) *Analyzer {
	t.Helper()
	return NewAnalyzer(context.Background(), Settings{})
}

func mustParse(t *testing.T, analyzer *Analyzer, src string) types.TypeId {
	t.Helper()
	ty, errs := analyzer.ParseType(src)
	if !assert.False(t, errs.HasError(), "parse errors for %q: %v", src, errs.Errors()) {
		t.FailNow()
	}
	return ty
}

func TestAnalyzerSubtypeQuery(t *testing.T) {
	analyzer := testAnalyzer(t)
	sub := mustParse(t, analyzer, `number`)
	superTy := mustParse(t, analyzer, `number | string`)

	result, errs := analyzer.IsSubtype(sub, superTy)
	assert.False(t, errs.HasError())
	assert.True(t, result.IsSubtype)

	result, errs = analyzer.IsSubtype(superTy, sub)
	assert.False(t, errs.HasError())
	assert.False(t, result.IsSubtype)
}

func TestAnalyzerParsesIntoOwnArena(t *testing.T) {
	analyzer := testAnalyzer(t)
	first := mustParse(t, analyzer, `{ x: number }`)
	second := mustParse(t, analyzer, `{ x: number }`)
	assert.Same(t, first, second)
}

func TestAnalyzerPackQuery(t *testing.T) {
	analyzer := testAnalyzer(t)
	arena, builtins := analyzer.Arena(), analyzer.Builtins()

	shorter := arena.Pack([]types.TypeId{builtins.Number}, nil)
	longer := arena.Pack([]types.TypeId{builtins.Number, builtins.String}, nil)

	result, errs := analyzer.IsSubtypePacks(shorter, longer)
	assert.False(t, errs.HasError())
	assert.False(t, result.IsSubtype)
	assert.True(t, result.Errors.HasError())
}

func TestAnalyzerSelectOverload(t *testing.T) {
	analyzer := testAnalyzer(t)
	overloads := mustParse(t, analyzer, `((number) -> number) & ((string) -> string)`)
	strFn := mustParse(t, analyzer, `(string) -> string`)

	args := analyzer.Arena().Pack([]types.TypeId{analyzer.Builtins().String}, nil)
	analysis, chosen, errs := analyzer.SelectOverload(overloads, args, nil)
	assert.False(t, errs.HasError())
	assert.Equal(t, types.AnalysisOk, analysis)
	assert.Same(t, strFn, chosen)
}

func TestAnalyzerResolve(t *testing.T) {
	analyzer := testAnalyzer(t)
	overloads := mustParse(t, analyzer, `((number) -> number) & ((string) -> string)`)

	args := analyzer.Arena().Pack([]types.TypeId{analyzer.Builtins().True}, nil)
	resolver, errs := analyzer.Resolve(overloads, args, nil, nil, nil)
	assert.False(t, errs.HasError())
	assert.Len(t, resolver.Resolutions(), 2)
	assert.Len(t, resolver.NonviableOverloads, 2)

	described := DescribeResolution(resolver)
	assert.Contains(t, described, "nonviable")
	assert.Contains(t, described, "(number) -> (number)")
}

func TestDescribeResult(t *testing.T) {
	analyzer := testAnalyzer(t)
	sub := mustParse(t, analyzer, `(number) -> string`)
	superTy := mustParse(t, analyzer, `(number | boolean) -> string`)

	result, errs := analyzer.IsSubtype(sub, superTy)
	assert.False(t, errs.HasError())

	described := DescribeResult(result)
	assert.Contains(t, described, "subtype: no")
	assert.Contains(t, described, ".param(0)")
	assert.Contains(t, described, "contravariant")
}

func TestAnalyzerStepBudget(t *testing.T) {
	analyzer := NewAnalyzer(context.Background(), Settings{Steps: 1})
	sub := mustParse(t, analyzer, `number | string`)

	result, errs := analyzer.IsSubtype(sub, analyzer.Builtins().String)
	assert.False(t, errs.HasError())
	assert.False(t, result.IsSubtype)
	assert.True(t, result.NormalizationTooComplex)
	assert.Contains(t, DescribeResult(result), "too complex")
}

func TestAnalyzerStringMetatable(t *testing.T) {
	analyzer := testAnalyzer(t)
	methods := mustParse(t, analyzer, `{ upper: (string) -> string }`)
	analyzer.RegisterStringMetatable(methods)

	result, errs := analyzer.IsSubtype(analyzer.Builtins().String, methods)
	assert.False(t, errs.HasError())
	assert.True(t, result.IsSubtype)
}

func TestRecoverInvariantViolation(t *testing.T) {
	analyzer := testAnalyzer(t)

	var errs *loonerr.Errors
	func() {
		defer analyzer.recoverInvariant(&errs)
		panic(types.InvariantViolation{Err: errors.New("no rule for this shape")})
	}()

	if assert.True(t, errs.HasError()) {
		assert.Equal(t, loonerr.Internal, errs.Errors()[0].Code())
		assert.Contains(t, errs.Errors()[0].Error(), "no rule for this shape")
	}
}

func TestForeignPanicsPropagate(t *testing.T) {
	analyzer := testAnalyzer(t)

	var errs *loonerr.Errors
	assert.Panics(t, func() {
		defer analyzer.recoverInvariant(&errs)
		panic("unrelated failure")
	})
	assert.False(t, errs.HasError())
}
