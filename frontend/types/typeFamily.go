package types

import (
	"github.com/cottand/loon/util"
	"github.com/pkg/errors"
)

// TypeFamily is an opaque type-level function. Reduce sees arguments that are
// already free of nested family applications and either produces a concrete
// type or names the arguments it is stuck on.
type TypeFamily struct {
	Name   string
	Reduce func(r *Reducer, args []TypeId, packs []TypePackId) FamilyReduction
}

// FamilyReduction is the outcome of a single family application.
type FamilyReduction struct {
	// Result is the reduced type, nil when the family could not make progress.
	Result       TypeId
	BlockedTypes []TypeId
	BlockedPacks []TypePackId
}

func FamilyReduced(ty TypeId) FamilyReduction {
	return FamilyReduction{Result: ty}
}

func FamilyBlockedOn(tys ...TypeId) FamilyReduction {
	return FamilyReduction{BlockedTypes: tys}
}

// ReductionResult is the outcome of forcing a whole instance, nested
// applications included.
type ReductionResult struct {
	Reduced      TypeId
	BlockedTypes []TypeId
	BlockedPacks []TypePackId
}

func (res ReductionResult) Blocked() bool {
	return res.Reduced == nil
}

// Reducer forces type family instances down to concrete types. It shares its
// limits with the subtyping engine so both draw from one step budget.
type Reducer struct {
	arena    *TypeArena
	builtins *Builtins
	limits   *TypeCheckLimits

	// memo maps an instance hash to its one-step reduction. Entries may chain
	// through further instances until a concrete type is reached.
	memo map[uint64]TypeId
}

func NewReducer(arena *TypeArena, builtins *Builtins, limits *TypeCheckLimits) *Reducer {
	return &Reducer{
		arena:    arena,
		builtins: builtins,
		limits:   limits,
		memo:     make(map[uint64]TypeId),
	}
}

func (r *Reducer) Arena() *TypeArena   { return r.arena }
func (r *Reducer) Builtins() *Builtins { return r.builtins }

// ForceReduce reduces instance as far as the step budget allows. The error
// return is reserved for malfunctions (a family with no Reduce, a broken memo
// chain); a family that merely cannot progress comes back as a blocked result.
func (r *Reducer) ForceReduce(instance *TypeFamilyInstanceType) (ReductionResult, error) {
	pending := &util.Stack[*TypeFamilyInstanceType]{}
	pending.Push(instance)

	for {
		current, ok := pending.Pop()
		if !ok {
			break
		}
		if _, done := r.memo[current.Hash()]; done {
			continue
		}
		if current.Family == nil || current.Family.Reduce == nil {
			return ReductionResult{}, errors.Errorf("type family instance %s has no reducer", current)
		}
		if !r.limits.take() {
			return ReductionResult{BlockedTypes: []TypeId{current}}, nil
		}

		args, unresolved := r.resolveArgs(current.TypeArgs)
		if unresolved != nil {
			// reduce the nested instance first, then come back to this one
			pending.Push(current)
			pending.Push(unresolved)
			continue
		}

		red := current.Family.Reduce(r, args, current.PackArgs)
		if red.Result == nil {
			blocked := red.BlockedTypes
			if len(blocked) == 0 && len(red.BlockedPacks) == 0 {
				blocked = []TypeId{current}
			}
			logger.Debug("type family blocked",
				"family", current.Family.Name, "instance", current.String())
			return ReductionResult{BlockedTypes: blocked, BlockedPacks: red.BlockedPacks}, nil
		}
		r.memo[current.Hash()] = red.Result
		if next, isInstance := red.Result.(*TypeFamilyInstanceType); isInstance {
			pending.Push(next)
		}
	}

	final, err := r.followMemo(instance)
	if err != nil {
		return ReductionResult{}, err
	}
	logger.Debug("type family reduced",
		"family", instance.Family.Name, "instance", instance.String(), "to", final.String())
	return ReductionResult{Reduced: final}, nil
}

// resolveArgs swaps nested instances for their memoized reductions. The
// second return is the first argument still awaiting reduction, if any.
func (r *Reducer) resolveArgs(args []TypeId) ([]TypeId, *TypeFamilyInstanceType) {
	resolved := make([]TypeId, len(args))
	for i, arg := range args {
		nested, isInstance := arg.(*TypeFamilyInstanceType)
		if !isInstance {
			resolved[i] = arg
			continue
		}
		reduced, err := r.followMemo(nested)
		if err != nil {
			return nil, nested
		}
		resolved[i] = reduced
	}
	return resolved, nil
}

func (r *Reducer) followMemo(instance *TypeFamilyInstanceType) (TypeId, error) {
	current := TypeId(instance)
	for range defaultDepthLimit {
		next, isInstance := current.(*TypeFamilyInstanceType)
		if !isInstance {
			return current, nil
		}
		memoized, ok := r.memo[next.Hash()]
		if !ok {
			return nil, errors.Errorf("no memoized reduction for %s", next)
		}
		current = memoized
	}
	return nil, errors.Errorf("reduction of %s did not converge", instance)
}

// familyOperands is what union and intersect share: both demand fully
// concrete members and block on generics, which only the outer judgement can
// give meaning to.
func familyOperands(args []TypeId) ([]TypeId, []TypeId) {
	var blocked []TypeId
	for _, arg := range args {
		if _, isGeneric := arg.(*GenericType); isGeneric {
			blocked = append(blocked, arg)
		}
	}
	if blocked != nil {
		return nil, blocked
	}
	return args, nil
}

// UnionFamily reduces to the union of its arguments once they are concrete.
var UnionFamily = &TypeFamily{
	Name: "union",
	Reduce: func(r *Reducer, args []TypeId, _ []TypePackId) FamilyReduction {
		operands, blocked := familyOperands(args)
		if blocked != nil {
			return FamilyBlockedOn(blocked...)
		}
		return FamilyReduced(r.arena.Union(operands...))
	},
}

// IntersectFamily reduces to the intersection of its arguments once they are
// concrete.
var IntersectFamily = &TypeFamily{
	Name: "intersect",
	Reduce: func(r *Reducer, args []TypeId, _ []TypePackId) FamilyReduction {
		operands, blocked := familyOperands(args)
		if blocked != nil {
			return FamilyBlockedOn(blocked...)
		}
		return FamilyReduced(r.arena.Intersection(operands...))
	},
}

// BuiltinFamilies lists the families the checker ships with, keyed by name.
func BuiltinFamilies() map[string]*TypeFamily {
	return map[string]*TypeFamily{
		UnionFamily.Name:     UnionFamily,
		IntersectFamily.Name: IntersectFamily,
	}
}
