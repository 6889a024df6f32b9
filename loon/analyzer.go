// Package loon ties the analysis pieces together behind one Analyzer, the
// unit embedders and the CLI talk to.
package loon

import (
	"context"

	"github.com/cottand/loon/frontend/ir"
	"github.com/cottand/loon/frontend/loonerr"
	"github.com/cottand/loon/frontend/types"
	"github.com/cottand/loon/internal/log"
	"github.com/cottand/loon/parser"
)

var analyzerLogger = log.DefaultLogger.With("section", "analyzer")

// Analyzer owns the state of one compilation unit: the arena, the builtin
// universe, the subtyping engine and the step budget. Queries against one
// Analyzer share its persistent cache; the cache is copy-on-write, so
// separate units can run concurrently as long as each owns its Analyzer.
//
// Engine invariant violations panic internally; every Analyzer operation
// recovers them into a diagnostic so one broken query cannot take the
// process down.
type Analyzer struct {
	arena    *types.TypeArena
	builtins *types.Builtins
	engine   *types.Subtyping
	limits   *types.TypeCheckLimits
}

// Settings configures a new Analyzer.
type Settings struct {
	// Steps bounds the work of a single query. Zero means the default
	// budget.
	Steps int
}

// NewAnalyzer builds an Analyzer whose queries stop early once ctx is
// cancelled.
func NewAnalyzer(ctx context.Context, settings Settings) *Analyzer {
	limits := types.DefaultLimits(ctx)
	if settings.Steps > 0 {
		limits = types.NewLimits(ctx, settings.Steps)
	}
	arena := types.NewArena()
	builtins := types.NewBuiltins(arena)
	return &Analyzer{
		arena:    arena,
		builtins: builtins,
		engine:   types.NewSubtyping(arena, builtins, limits),
		limits:   limits,
	}
}

func (a *Analyzer) Arena() *types.TypeArena   { return a.arena }
func (a *Analyzer) Builtins() *types.Builtins { return a.builtins }
func (a *Analyzer) Engine() *types.Subtyping  { return a.engine }

// ParseType reads a type expression into this Analyzer's arena.
func (a *Analyzer) ParseType(src string) (types.TypeId, *loonerr.Errors) {
	return parser.ParseType(src, a.arena, a.builtins)
}

// RegisterStringMetatable installs the metatable consulted when strings are
// compared against tables. Register before the first query: judgements made
// earlier may already sit in the cache.
func (a *Analyzer) RegisterStringMetatable(mt types.TypeId) {
	a.builtins.RegisterStringMetatable(mt)
}

// IsSubtype decides sub ≤ super. On an internal failure the result is a
// conservative false and errs carries the diagnostic.
func (a *Analyzer) IsSubtype(sub, super types.TypeId) (result types.SubtypingResult, errs *loonerr.Errors) {
	defer a.recoverInvariant(&errs)
	result = a.engine.IsSubtype(sub, super)
	return result, errs
}

// IsSubtypePacks is IsSubtype over type packs.
func (a *Analyzer) IsSubtypePacks(sub, super types.TypePackId) (result types.SubtypingResult, errs *loonerr.Errors) {
	defer a.recoverInvariant(&errs)
	result = a.engine.IsSubtypePacks(sub, super)
	return result, errs
}

// SelectOverload picks the first overload of callee that accepts args, in
// declaration order. callSite positions the diagnostics of a failed pick.
func (a *Analyzer) SelectOverload(callee types.TypeId, args types.TypePackId, callSite ir.Positioner) (analysis types.Analysis, chosen types.TypeId, errs *loonerr.Errors) {
	defer a.recoverInvariant(&errs)
	resolver := types.NewOverloadResolver(a.engine, callSite)
	analysis, chosen = resolver.SelectOverload(callee, args)
	return analysis, chosen, errs
}

// Resolve classifies every overload of fnTy against args and returns the
// resolver holding the per-candidate verdicts. selfExpr and argExprs blame
// diagnostics on the call's source expressions and may be nil.
func (a *Analyzer) Resolve(fnTy types.TypeId, args types.TypePackId, callSite ir.Positioner, selfExpr ir.Expr, argExprs []ir.Expr) (resolver *types.OverloadResolver, errs *loonerr.Errors) {
	defer a.recoverInvariant(&errs)
	resolver = types.NewOverloadResolver(a.engine, callSite)
	resolver.Resolve(fnTy, args, selfExpr, argExprs)
	return resolver, errs
}

func (a *Analyzer) recoverInvariant(errs **loonerr.Errors) {
	r := recover()
	if r == nil {
		return
	}
	violation, ok := r.(types.InvariantViolation)
	if !ok {
		panic(r)
	}
	analyzerLogger.Error("query aborted by invariant violation", "err", violation.Err)
	*errs = (*errs).With(loonerr.New(loonerr.NewInternal{
		Positioner: ir.Range{},
		Msg:        violation.Err.Error(),
	}))
}
