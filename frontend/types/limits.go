package types

import (
	"context"
)

const (
	defaultStartingSteps = 10_000
	defaultDepthLimit    = 250

	// checking ctx.Err() on every step would dominate small queries, so we
	// only look every so often
	ctxCheckInterval = 256
)

// TypeCheckLimits bounds the work one query may do. The step budget is shared
// between the subtyping engine and the normalizer, so a query cannot dodge
// the cap by bouncing between the two.
type TypeCheckLimits struct {
	ctx      context.Context
	budget   int
	steps    int
	maxDepth int

	depth   int
	ticks   int
	expired bool
}

// NewLimits makes limits with the given step budget. A non-positive budget
// falls back to the default.
func NewLimits(ctx context.Context, steps int) *TypeCheckLimits {
	if steps <= 0 {
		steps = defaultStartingSteps
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return &TypeCheckLimits{
		ctx:      ctx,
		budget:   steps,
		steps:    steps,
		maxDepth: defaultDepthLimit,
	}
}

// reset re-arms the full budget. Called at the start of every top-level
// query so one expensive judgement cannot starve the next.
func (l *TypeCheckLimits) reset() {
	l.steps = l.budget
	l.depth = 0
	l.ticks = 0
	l.expired = false
}

func DefaultLimits(ctx context.Context) *TypeCheckLimits {
	return NewLimits(ctx, defaultStartingSteps)
}

// take consumes one step. It reports false once the budget is spent or the
// context is done, and from then on every call reports false.
func (l *TypeCheckLimits) take() bool {
	if l.expired {
		return false
	}
	l.steps--
	l.ticks++
	if l.steps <= 0 {
		l.expired = true
		return false
	}
	if l.ticks%ctxCheckInterval == 0 && l.ctx.Err() != nil {
		l.expired = true
		return false
	}
	return true
}

// enter is take plus depth accounting; every enter needs a matching leave.
func (l *TypeCheckLimits) enter() bool {
	l.depth++
	if l.depth > l.maxDepth {
		l.expired = true
		return false
	}
	return l.take()
}

func (l *TypeCheckLimits) leave() {
	l.depth--
}

// Expired reports whether any bound was hit. Results produced after this
// turns true are not trustworthy and must not be cached.
func (l *TypeCheckLimits) Expired() bool {
	return l.expired
}
