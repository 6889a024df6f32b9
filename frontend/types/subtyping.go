package types

import (
	"github.com/benbjohnson/immutable"
	"github.com/cottand/loon/frontend/ir"
	"github.com/cottand/loon/frontend/loonerr"
	"github.com/cottand/loon/internal/log"
	"github.com/pkg/errors"
	"github.com/xtgo/set"
)

var logger = log.DefaultLogger.With("section", "types")

// InvariantViolation is the panic payload raised when the dispatcher meets a
// type shape it has no rule for. The analyzer facade recovers it into a
// diagnostic so one broken query cannot take the process down.
type InvariantViolation struct {
	Err error
}

func (v InvariantViolation) Error() string { return v.Err.Error() }

type typePairHasher struct{}

func (typePairHasher) Hash(p typePair) uint32 {
	h := p.Hash()
	return uint32(h>>32) ^ uint32(h)
}
func (typePairHasher) Equal(a, b typePair) bool {
	return Equal(a.Sub, b.Sub) && Equal(a.Super, b.Super)
}

// Subtyping decides `sub ≤ super` judgements. One instance serves one
// compilation unit: the persistent cache and the normalizer memo accumulate
// across queries, while every query gets a fresh environment and a re-armed
// step budget.
type Subtyping struct {
	arena      *TypeArena
	builtins   *Builtins
	normalizer *Normalizer
	reducer    *Reducer
	limits     *TypeCheckLimits

	// variance tracks the polarity of the position currently being compared;
	// it decides which side a generic-versus-generic comparison binds.
	variance SubtypingVariance

	// cache holds finished cacheable judgements. It is only replaced
	// wholesale, after a query completes within budget.
	cache   *immutable.Map[typePair, SubtypingResult]
	pending map[typePair]SubtypingResult
}

func NewSubtyping(arena *TypeArena, builtins *Builtins, limits *TypeCheckLimits) *Subtyping {
	return &Subtyping{
		arena:      arena,
		builtins:   builtins,
		normalizer: NewNormalizer(arena, builtins, limits),
		reducer:    NewReducer(arena, builtins, limits),
		limits:     limits,
		variance:   VarianceCovariant,
		cache:      immutable.NewMap[typePair, SubtypingResult](typePairHasher{}),
	}
}

func (s *Subtyping) Arena() *TypeArena       { return s.arena }
func (s *Subtyping) Builtins() *Builtins     { return s.builtins }
func (s *Subtyping) Normalizer() *Normalizer { return s.normalizer }

// IsSubtype reports whether every value of subTy is also a value of superTy.
func (s *Subtyping) IsSubtype(subTy, superTy TypeId) SubtypingResult {
	env := s.beginQuery()
	result := s.isCovariantWith(env, subTy, superTy)
	result = s.finishQuery(env, result)
	logger.Debug("subtype query",
		"sub", subTy.String(), "super", superTy.String(),
		"isSubtype", result.IsSubtype, "cacheable", result.IsCacheable)
	return result
}

// IsSubtypePacks is IsSubtype over type packs, used for argument lists and
// returns.
func (s *Subtyping) IsSubtypePacks(subTp, superTp TypePackId) SubtypingResult {
	env := s.beginQuery()
	result := s.packsCovariantWith(env, subTp, superTp, IndexPath)
	result = s.finishQuery(env, result)
	logger.Debug("subtype pack query",
		"sub", subTp.String(), "super", superTp.String(),
		"isSubtype", result.IsSubtype, "cacheable", result.IsCacheable)
	return result
}

// CachedResult peeks at the persistent cache; only tests use it.
func (s *Subtyping) CachedResult(subTy, superTy TypeId) (SubtypingResult, bool) {
	return s.cache.Get(typePair{Sub: subTy, Super: superTy})
}

func (s *Subtyping) CacheSize() int { return s.cache.Len() }

func (s *Subtyping) beginQuery() *SubtypingEnvironment {
	s.limits.reset()
	s.variance = VarianceCovariant
	s.pending = make(map[typePair]SubtypingResult)
	return newEnvironment()
}

func (s *Subtyping) finishQuery(env *SubtypingEnvironment, result SubtypingResult) SubtypingResult {
	result = s.checkGenericBounds(env, result)
	if env.usedGenerics() {
		result.IsCacheable = false
	}
	if !s.limits.Expired() {
		for pair, res := range s.pending {
			s.cache = s.cache.Set(pair, res)
		}
	}
	s.pending = nil
	return result
}

// checkGenericBounds verifies, once the walk is over, that every flexible
// generic admits at least one type: the union of its lower bounds must fit
// under the intersection of its upper bounds.
func (s *Subtyping) checkGenericBounds(env *SubtypingEnvironment, result SubtypingResult) SubtypingResult {
	// the coherence checks below may seed further generics; the index loop
	// picks those up as genericOrder grows
	for i := 0; i < len(env.genericOrder); i++ {
		generic := env.genericOrder[i]
		bounds := env.mappedGenerics[generic]
		lower := s.arena.Union(bounds.Lower.Slice()...)        // never when unbounded
		upper := s.arena.Intersection(bounds.Upper.Slice()...) // unknown when unbounded
		check := s.isCovariantWith(env, lower, upper)
		if !check.IsSubtype {
			check = check.WithError(loonerr.New(loonerr.NewGenericBoundMismatch{
				Positioner: ir.Range{},
				Generic:    generic.String(),
				Lower:      lower.String(),
				Upper:      upper.String(),
			}))
		}
		result = result.AndAlso(check)
	}
	return result
}

// isCovariantWith is the recursion entry for every type pair: limits, the
// short-circuits, both cache levels and the coinductive seen set live here;
// dispatch holds the shape-directed rules.
func (s *Subtyping) isCovariantWith(env *SubtypingEnvironment, subTy, superTy TypeId) SubtypingResult {
	if !s.limits.enter() {
		return tooComplexResult()
	}
	defer s.limits.leave()

	if Equal(subTy, superTy) {
		return SubtypeResult(true)
	}
	switch subTy.(type) {
	case *AnyType, *ErrorType, *NeverType:
		return SubtypeResult(true)
	}
	switch superTy.(type) {
	case *AnyType, *ErrorType, *UnknownType:
		return SubtypeResult(true)
	}

	pair := typePair{Sub: subTy, Super: superTy}
	if cached, ok := s.cache.Get(pair); ok {
		return cached
	}
	if res, ok := s.pending[pair]; ok {
		return res
	}
	if res, ok := env.ephemeralCache[pair]; ok {
		return res
	}

	if env.seenTypes.Contains(pair) {
		// coinduction: assume an in-progress pair holds
		return SubtypingResult{IsSubtype: true}
	}
	env.seenTypes.Insert(pair)
	result := s.dispatch(env, subTy, superTy)
	env.seenTypes.Remove(pair)

	if result.IsCacheable {
		s.pending[pair] = result
	} else {
		env.ephemeralCache[pair] = result
	}
	return result
}

func (s *Subtyping) dispatch(env *SubtypingEnvironment, subTy, superTy TypeId) SubtypingResult {
	// family instances reduce before any structural reasoning
	if subFam, isFam := subTy.(*TypeFamilyInstanceType); isFam {
		reduced, errs := s.reduceFamilyInstance(subFam)
		return s.isCovariantWith(env, reduced, superTy).WithErrors(errs).WithoutCaching()
	}
	if superFam, isFam := superTy.(*TypeFamilyInstanceType); isFam {
		reduced, errs := s.reduceFamilyInstance(superFam)
		return s.isCovariantWith(env, subTy, reduced).WithErrors(errs).WithoutCaching()
	}

	// flexible generics bind against the whole other side, so they must be
	// seen before unions and intersections decompose it
	if result, bound := s.tryBindGenerics(env, subTy, superTy); bound {
		return result
	}

	if subUnion, ok := subTy.(*UnionType); ok {
		return s.unionSubtype(env, subUnion, superTy)
	}
	if superUnion, ok := superTy.(*UnionType); ok {
		return s.unionSupertype(env, subTy, superUnion)
	}
	if superInter, ok := superTy.(*IntersectionType); ok {
		return s.intersectionSupertype(env, subTy, superInter)
	}
	if subInter, ok := subTy.(*IntersectionType); ok {
		return s.intersectionSubtype(env, subInter, superTy)
	}

	subNeg, subIsNeg := subTy.(*NegationType)
	superNeg, superIsNeg := superTy.(*NegationType)
	switch {
	case subIsNeg && superIsNeg:
		return s.isCovariantWith(env, superNeg.Negated, subNeg.Negated).
			asContravariant().
			WithBothComponent(NegatedPath)
	case subIsNeg:
		return s.normalizedSubtype(env, subTy, superTy)
	case superIsNeg:
		if result, decided := s.disjointFromNegated(superNeg.Negated, subTy); decided {
			return result
		}
		return s.normalizedSubtype(env, subTy, superTy)
	}

	switch sub := subTy.(type) {
	case *UnknownType:
		// unknown fits under no strict shape; semantic cases like
		// `unknown ≤ string | ~string` resolve through the union retry
		return SubtypeResult(false)
	case *PrimitiveType:
		switch super := superTy.(type) {
		case *PrimitiveType:
			return SubtypeResult(sub.Kind == super.Kind)
		case *TableType, *MetatableType:
			if sub.Kind == StringKind {
				return s.stringLibrarySubtype(env, superTy)
			}
			return SubtypeResult(false)
		default:
			return SubtypeResult(false)
		}
	case *StringSingletonType:
		switch super := superTy.(type) {
		case *PrimitiveType:
			return SubtypeResult(super.Kind == StringKind)
		case *StringSingletonType:
			return SubtypeResult(sub.Value == super.Value)
		case *TableType, *MetatableType:
			return s.stringLibrarySubtype(env, superTy)
		default:
			return SubtypeResult(false)
		}
	case *BooleanSingletonType:
		switch super := superTy.(type) {
		case *PrimitiveType:
			return SubtypeResult(super.Kind == BooleanKind)
		case *BooleanSingletonType:
			return SubtypeResult(sub.Value == super.Value)
		default:
			return SubtypeResult(false)
		}
	case *FunctionType:
		switch super := superTy.(type) {
		case *FunctionType:
			return s.functionSubtype(env, sub, super)
		case *PrimitiveType:
			return SubtypeResult(super.Kind == TopFunctionKind)
		default:
			return SubtypeResult(false)
		}
	case *TableType:
		switch super := superTy.(type) {
		case *TableType:
			return s.tableSubtype(env, sub, super)
		case *PrimitiveType:
			return SubtypeResult(super.Kind == TopTableKind)
		default:
			return SubtypeResult(false)
		}
	case *MetatableType:
		switch super := superTy.(type) {
		case *MetatableType:
			table := s.isCovariantWith(env, sub.Table, super.Table)
			meta := s.isCovariantWith(env, sub.Metatable, super.Metatable).
				WithBothComponent(MetatablePath)
			return table.AndAlso(meta)
		case *TableType:
			return s.metatableSubtypeTable(env, sub, super)
		case *PrimitiveType:
			return SubtypeResult(super.Kind == TopTableKind)
		default:
			return SubtypeResult(false)
		}
	case *ClassType:
		switch super := superTy.(type) {
		case *ClassType:
			return SubtypeResult(isSubclass(sub, super))
		case *TableType:
			return s.classSubtypeTable(env, sub, super)
		default:
			return SubtypeResult(false)
		}
	case *GenericType:
		// rigid: identity (handled above) is its only supertype besides tops
		return SubtypeResult(false)
	}
	panic(InvariantViolation{errors.Errorf("no subtyping rule for %T ≤ %T", subTy, superTy)})
}

func (s *Subtyping) reduceFamilyInstance(instance *TypeFamilyInstanceType) (TypeId, *loonerr.Errors) {
	reduction, err := s.reducer.ForceReduce(instance)
	if err != nil {
		panic(InvariantViolation{err})
	}
	if reduction.Blocked() {
		// substituting never poisons the comparison towards success with an
		// error attached, which callers prefer over a hard mismatch
		errs := (&loonerr.Errors{}).With(loonerr.New(loonerr.NewUninhabitedTypeFamily{
			Positioner: ir.Range{},
			Family:     instance.Family.Name,
		}))
		return s.builtins.Never, errs
	}
	return reduction.Reduced, nil
}

func (s *Subtyping) tryBindGenerics(env *SubtypingEnvironment, subTy, superTy TypeId) (SubtypingResult, bool) {
	subGen, subIsGen := subTy.(*GenericType)
	superGen, superIsGen := superTy.(*GenericType)
	subFlexible := subIsGen && env.isFlexible(subGen)
	superFlexible := superIsGen && env.isFlexible(superGen)
	switch {
	case subFlexible && superFlexible:
		// polarity decides which of the two placeholders absorbs the other
		if s.variance == VarianceCovariant {
			env.mappedGenerics[subGen].Upper.Insert(superTy)
		} else {
			env.mappedGenerics[superGen].Lower.Insert(subTy)
		}
	case subFlexible:
		env.mappedGenerics[subGen].Upper.Insert(superTy)
	case superFlexible:
		env.mappedGenerics[superGen].Lower.Insert(subTy)
	default:
		return SubtypingResult{}, false
	}
	return SubtypingResult{IsSubtype: true}, true
}

// semanticRetry falls back to normalized comparison when the structural
// answer was negative: decompositions of unions and intersections are not
// complete on their own.
func (s *Subtyping) semanticRetry(env *SubtypingEnvironment, structural SubtypingResult, subTy, superTy TypeId) SubtypingResult {
	if structural.IsSubtype || structural.NormalizationTooComplex {
		return structural
	}
	semantic := s.normalizedSubtype(env, subTy, superTy)
	if semantic.IsSubtype {
		return semantic
	}
	if semantic.NormalizationTooComplex {
		// structural false is not conclusive here, keep the flag
		return structural.AndAlso(semantic)
	}
	return structural
}

func (s *Subtyping) unionSubtype(env *SubtypingEnvironment, subUnion *UnionType, superTy TypeId) SubtypingResult {
	results := make([]SubtypingResult, 0, len(subUnion.Members))
	for i, member := range subUnion.Members {
		results = append(results,
			s.isCovariantWith(env, member, superTy).WithSubComponent(UnionMemberPath(i)))
	}
	return s.semanticRetry(env, AllResults(results...), subUnion, superTy)
}

func (s *Subtyping) unionSupertype(env *SubtypingEnvironment, subTy TypeId, superUnion *UnionType) SubtypingResult {
	results := make([]SubtypingResult, 0, len(superUnion.Members))
	for i, member := range superUnion.Members {
		results = append(results,
			s.isCovariantWith(env, subTy, member).WithSuperComponent(UnionMemberPath(i)))
	}
	return s.semanticRetry(env, AnyResults(results...), subTy, superUnion)
}

func (s *Subtyping) intersectionSupertype(env *SubtypingEnvironment, subTy TypeId, superInter *IntersectionType) SubtypingResult {
	results := make([]SubtypingResult, 0, len(superInter.Members))
	for i, member := range superInter.Members {
		results = append(results,
			s.isCovariantWith(env, subTy, member).WithSuperComponent(IntersectionMemberPath(i)))
	}
	return s.semanticRetry(env, AllResults(results...), subTy, superInter)
}

func (s *Subtyping) intersectionSubtype(env *SubtypingEnvironment, subInter *IntersectionType, superTy TypeId) SubtypingResult {
	results := make([]SubtypingResult, 0, len(subInter.Members))
	for i, member := range subInter.Members {
		results = append(results,
			s.isCovariantWith(env, member, superTy).WithSubComponent(IntersectionMemberPath(i)))
	}
	return s.semanticRetry(env, AnyResults(results...), subInter, superTy)
}

// disjointFromNegated decides `sub ≤ ~negated` directly when both shapes are
// scalar or nominal: the judgement holds exactly when the two share no
// values. Everything else goes through normalization.
func (s *Subtyping) disjointFromNegated(negated, subTy TypeId) (SubtypingResult, bool) {
	switch neg := negated.(type) {
	case *PrimitiveType, *StringSingletonType, *BooleanSingletonType:
		switch subTy.(type) {
		case *PrimitiveType, *StringSingletonType, *BooleanSingletonType:
			return SubtypeResult(!scalarsOverlap(subTy, negated)), true
		case *ClassType:
			return SubtypeResult(true), true
		case *TableType, *MetatableType:
			if p, isPrim := negated.(*PrimitiveType); isPrim && p.Kind == TopTableKind {
				return SubtypeResult(false), true
			}
			return SubtypeResult(true), true
		case *FunctionType:
			if p, isPrim := negated.(*PrimitiveType); isPrim && p.Kind == TopFunctionKind {
				return SubtypeResult(false), true
			}
			return SubtypeResult(true), true
		}
	case *ClassType:
		switch sub := subTy.(type) {
		case *ClassType:
			overlap := isSubclass(sub, neg) || isSubclass(neg, sub)
			return SubtypeResult(!overlap), true
		case *PrimitiveType, *StringSingletonType, *BooleanSingletonType, *TableType, *MetatableType, *FunctionType:
			return SubtypeResult(true), true
		}
	}
	return SubtypingResult{}, false
}

func scalarsOverlap(a, b TypeId) bool {
	if Equal(a, b) {
		return true
	}
	switch x := a.(type) {
	case *StringSingletonType:
		p, isPrim := b.(*PrimitiveType)
		return isPrim && p.Kind == StringKind
	case *BooleanSingletonType:
		p, isPrim := b.(*PrimitiveType)
		return isPrim && p.Kind == BooleanKind
	case *PrimitiveType:
		switch y := b.(type) {
		case *StringSingletonType:
			return x.Kind == StringKind
		case *BooleanSingletonType:
			return x.Kind == BooleanKind
		case *PrimitiveType:
			return x.Kind == y.Kind
		}
	}
	return false
}

// stringLibrarySubtype compares the registered string method table against a
// table-shaped supertype; it is what makes `("x"):upper()` style dispatch
// typecheck. A registration shaped as a metatable resolves through __index
// first.
func (s *Subtyping) stringLibrarySubtype(env *SubtypingEnvironment, superTy TypeId) SubtypingResult {
	library := s.builtins.StringMetatable()
	if library == nil {
		return SubtypeResult(false)
	}
	if mt, isTable := library.(*TableType); isTable {
		if index, ok := mt.Props["__index"]; ok {
			library = index.Ty
		}
	}
	return s.isCovariantWith(env, library, superTy)
}

func (s *Subtyping) flipVariance() func() {
	saved := s.variance
	if saved == VarianceCovariant {
		s.variance = VarianceContravariant
	} else {
		s.variance = VarianceCovariant
	}
	return func() { s.variance = saved }
}

// isContravariantWith holds when superTy flows into subTy; reasoning paths
// come back swapped into root orientation.
func (s *Subtyping) isContravariantWith(env *SubtypingEnvironment, subTy, superTy TypeId) SubtypingResult {
	restore := s.flipVariance()
	result := s.isCovariantWith(env, superTy, subTy)
	restore()
	return result.asContravariant()
}

func (s *Subtyping) isInvariantWith(env *SubtypingEnvironment, subTy, superTy TypeId) SubtypingResult {
	return s.isCovariantWith(env, subTy, superTy).
		AndAlso(s.isContravariantWith(env, subTy, superTy)).
		asInvariant()
}

func (s *Subtyping) functionSubtype(env *SubtypingEnvironment, subFn, superFn *FunctionType) SubtypingResult {
	// both signatures' generics become flexible placeholders for the
	// comparison; bound coherence is checked at the end of the query
	for _, generic := range subFn.Generics {
		env.makeFlexible(generic)
	}
	for _, generic := range superFn.Generics {
		env.makeFlexible(generic)
	}
	for _, pack := range subFn.GenericPacks {
		env.makePackFlexible(pack)
	}
	for _, pack := range superFn.GenericPacks {
		env.makePackFlexible(pack)
	}

	params := s.contravariantPacks(env, subFn.Args, superFn.Args, ParamPath)
	rets := s.packsCovariantWith(env, subFn.Rets, superFn.Rets, ReturnPath)
	return params.AndAlso(rets)
}

func (s *Subtyping) contravariantPacks(env *SubtypingEnvironment, subTp, superTp TypePackId, head func(int) Component) SubtypingResult {
	restore := s.flipVariance()
	result := s.packsCovariantWith(env, superTp, subTp, head)
	restore()
	return result.asContravariant()
}

func splitPack(tp TypePackId) ([]TypeId, TypePackId) {
	if pack, isPack := tp.(*TypePack); isPack {
		return pack.Head, pack.Tail
	}
	return nil, tp
}

// packsCovariantWith compares packs element-wise. head renders the position
// of the i-th element: Index for free-standing packs, Param or Return inside
// functions.
func (s *Subtyping) packsCovariantWith(env *SubtypingEnvironment, subTp, superTp TypePackId, head func(int) Component) SubtypingResult {
	if Equal(subTp, superTp) {
		return SubtypeResult(true)
	}
	subHead, subTail := splitPack(subTp)
	superHead, superTail := splitPack(superTp)
	shared := len(subHead)
	if len(superHead) < shared {
		shared = len(superHead)
	}

	var results []SubtypingResult
	for i := 0; i < shared; i++ {
		results = append(results,
			s.isCovariantWith(env, subHead[i], superHead[i]).WithBothComponent(head(i)))
	}

	switch {
	case len(subHead) > shared: // sub has elements the super head never names
		switch tail := superTail.(type) {
		case *VariadicTypePack:
			for i := shared; i < len(subHead); i++ {
				results = append(results, s.isCovariantWith(env, subHead[i], tail.Ty).
					WithSubComponent(head(i)).
					WithSuperComponent(VariadicPath))
			}
			results = append(results, s.packTailsCovariantWith(env, subTail, superTail))
		case *GenericTypePack:
			if env.isPackFlexible(tail) {
				rest := s.arena.Pack(subHead[shared:], subTail)
				if _, consistent := env.bindPack(tail, rest); consistent {
					results = append(results, SubtypingResult{IsSubtype: true})
				} else {
					results = append(results, SubtypingResult{}.WithSuperComponent(VariadicPath))
				}
			} else {
				results = append(results, s.packArityMismatch(len(subHead), len(superHead), false))
			}
		default:
			results = append(results, s.packArityMismatch(len(subHead), len(superHead), false))
		}
	case len(superHead) > shared: // sub ran out of named elements
		switch tail := subTail.(type) {
		case *VariadicTypePack:
			for i := shared; i < len(superHead); i++ {
				results = append(results, s.isCovariantWith(env, tail.Ty, superHead[i]).
					WithSubComponent(VariadicPath).
					WithSuperComponent(head(i)))
			}
			results = append(results, s.packTailsCovariantWith(env, subTail, superTail))
		case *GenericTypePack:
			if env.isPackFlexible(tail) {
				rest := s.arena.Pack(superHead[shared:], superTail)
				if _, consistent := env.bindPack(tail, rest); consistent {
					results = append(results, SubtypingResult{IsSubtype: true})
				} else {
					results = append(results, SubtypingResult{}.WithSubComponent(VariadicPath))
				}
			} else {
				results = append(results, s.packArityMismatch(len(subHead), len(superHead), s.packHasVariadic(superTail)))
			}
		default:
			results = append(results, s.packArityMismatch(len(subHead), len(superHead), s.packHasVariadic(superTail)))
		}
	default:
		results = append(results, s.packTailsCovariantWith(env, subTail, superTail))
	}
	return AllResults(results...)
}

func (s *Subtyping) packHasVariadic(tail TypePackId) bool {
	_, isVariadic := tail.(*VariadicTypePack)
	return isVariadic
}

func (s *Subtyping) packArityMismatch(actual, expected int, expectedVariadic bool) SubtypingResult {
	return SubtypingResult{}.WithError(loonerr.New(loonerr.NewCountMismatch{
		Positioner:       ir.Range{},
		Expected:         expected,
		Actual:           actual,
		ExpectedVariadic: expectedVariadic,
	}))
}

func (s *Subtyping) packTailsCovariantWith(env *SubtypingEnvironment, subTail, superTail TypePackId) SubtypingResult {
	switch {
	case subTail == nil && superTail == nil:
		return SubtypeResult(true)
	case subTail == nil:
		switch tail := superTail.(type) {
		case *VariadicTypePack:
			// a variadic super tail admits zero extra elements
			return SubtypeResult(true)
		case *GenericTypePack:
			if env.isPackFlexible(tail) {
				if _, consistent := env.bindPack(tail, s.arena.EmptyPack()); consistent {
					return SubtypingResult{IsSubtype: true}
				}
			}
			return SubtypingResult{}.WithSuperComponent(VariadicPath)
		}
	case superTail == nil:
		switch tail := subTail.(type) {
		case *VariadicTypePack:
			// sub may keep producing elements the super never promised
			return SubtypingResult{}.WithSubComponent(VariadicPath)
		case *GenericTypePack:
			if env.isPackFlexible(tail) {
				if _, consistent := env.bindPack(tail, s.arena.EmptyPack()); consistent {
					return SubtypingResult{IsSubtype: true}
				}
			}
			return SubtypingResult{}.WithSubComponent(VariadicPath)
		}
	default:
		subVariadic, subIsVariadic := subTail.(*VariadicTypePack)
		superVariadic, superIsVariadic := superTail.(*VariadicTypePack)
		if subIsVariadic && superIsVariadic {
			return s.isCovariantWith(env, subVariadic.Ty, superVariadic.Ty).
				WithBothComponent(VariadicPath)
		}
		if superGen, isGen := superTail.(*GenericTypePack); isGen && env.isPackFlexible(superGen) {
			if _, consistent := env.bindPack(superGen, subTail); consistent {
				return SubtypingResult{IsSubtype: true}
			}
			return SubtypingResult{}.WithSuperComponent(VariadicPath)
		}
		if subGen, isGen := subTail.(*GenericTypePack); isGen && env.isPackFlexible(subGen) {
			if _, consistent := env.bindPack(subGen, superTail); consistent {
				return SubtypingResult{IsSubtype: true}
			}
			return SubtypingResult{}.WithSubComponent(VariadicPath)
		}
		// rigid tails only match by identity, which Equal caught earlier
		return SubtypingResult{}.WithBothComponent(VariadicPath)
	}
	panic(InvariantViolation{errors.Errorf("no pack tail rule for %T against %T", subTail, superTail)})
}

func (s *Subtyping) tableSubtype(env *SubtypingEnvironment, subTable, superTable *TableType) SubtypingResult {
	var results []SubtypingResult
	for _, name := range superTable.PropNames() {
		superProp := superTable.Props[name]
		subProp, present := subTable.Props[name]
		switch {
		case present && superProp.ReadOnly:
			results = append(results,
				s.isCovariantWith(env, subProp.Ty, superProp.Ty).WithBothComponent(FieldPath(name)))
		case present:
			results = append(results,
				s.isInvariantWith(env, subProp.Ty, superProp.Ty).WithBothComponent(FieldPath(name)))
		case subTable.Indexer != nil:
			// the indexer can stand in for a missing field when it accepts
			// the field's name
			key := s.arena.StringSingleton(name)
			keyResult := s.isCovariantWith(env, key, subTable.Indexer.Key).
				WithSubComponent(IndexerKeyPath).
				WithSuperComponent(FieldPath(name))
			var valueResult SubtypingResult
			if superProp.ReadOnly {
				valueResult = s.isCovariantWith(env, subTable.Indexer.Value, superProp.Ty)
			} else {
				valueResult = s.isInvariantWith(env, subTable.Indexer.Value, superProp.Ty)
			}
			valueResult = valueResult.
				WithSubComponent(IndexerValuePath).
				WithSuperComponent(FieldPath(name))
			results = append(results, keyResult, valueResult)
		default:
			results = append(results, SubtypingResult{}.WithBothComponent(FieldPath(name)))
		}
	}

	if superTable.Indexer != nil {
		if subTable.Indexer != nil {
			keys := s.isContravariantWith(env, subTable.Indexer.Key, superTable.Indexer.Key).
				WithBothComponent(IndexerKeyPath)
			values := s.isInvariantWith(env, subTable.Indexer.Value, superTable.Indexer.Value).
				WithBothComponent(IndexerValuePath)
			results = append(results, keys, values)
		} else if !(subTable.State == TableSealed && len(subTable.Props) == 0) {
			// only a sealed, empty sub table vacuously satisfies an indexer
			results = append(results, SubtypingResult{}.WithSuperComponent(IndexerKeyPath))
		}
	}

	// width: a sealed super rejects fields it does not name unless the sub
	// table is sealed too
	if superTable.State == TableSealed && subTable.State != TableSealed {
		for _, name := range subTable.PropNames() {
			if _, named := superTable.Props[name]; !named {
				results = append(results, SubtypingResult{}.WithSubComponent(FieldPath(name)))
			}
		}
	}
	return AllResults(results...)
}

// metatableSubtypeTable compares a metatabled value against a plain table by
// flattening one level of __index lookup into the value's own fields.
func (s *Subtyping) metatableSubtypeTable(env *SubtypingEnvironment, subMt *MetatableType, superTable *TableType) SubtypingResult {
	base, isTable := subMt.Table.(*TableType)
	if !isTable {
		return SubtypeResult(false)
	}
	if flattened, ok := s.flattenMetatable(base, subMt.Metatable); ok {
		return s.tableSubtype(env, flattened, superTable)
	}
	return s.tableSubtype(env, base, superTable)
}

func (s *Subtyping) flattenMetatable(base *TableType, metatable TypeId) (*TableType, bool) {
	mtTable, isTable := metatable.(*TableType)
	if !isTable {
		return nil, false
	}
	indexProp, hasIndex := mtTable.Props["__index"]
	if !hasIndex {
		return nil, false
	}
	indexTable, isTable := indexProp.Ty.(*TableType)
	if !isTable {
		return nil, false
	}
	props := make(map[string]Property, len(base.Props)+len(indexTable.Props))
	for name, prop := range indexTable.Props {
		// fields reached through __index are read, never written
		props[name] = Property{Ty: prop.Ty, ReadOnly: true}
	}
	for name, prop := range base.Props {
		props[name] = prop
	}
	flattened, isTable := s.arena.Table(props, base.Indexer, base.State).(*TableType)
	return flattened, isTable
}

func classProps(class *ClassType) map[string]Property {
	props := make(map[string]Property)
	for current := class; current != nil; {
		for name, prop := range current.Props {
			if _, shadowed := props[name]; !shadowed {
				props[name] = prop
			}
		}
		parent, isClass := current.Parent.(*ClassType)
		if !isClass {
			break
		}
		current = parent
	}
	return props
}

func (s *Subtyping) classSubtypeTable(env *SubtypingEnvironment, subClass *ClassType, superTable *TableType) SubtypingResult {
	inherited := classProps(subClass)
	var results []SubtypingResult
	for _, name := range superTable.PropNames() {
		superProp := superTable.Props[name]
		classProp, present := inherited[name]
		if !present {
			results = append(results, SubtypingResult{}.WithBothComponent(FieldPath(name)))
			continue
		}
		if superProp.ReadOnly {
			results = append(results,
				s.isCovariantWith(env, classProp.Ty, superProp.Ty).WithBothComponent(FieldPath(name)))
		} else {
			results = append(results,
				s.isInvariantWith(env, classProp.Ty, superProp.Ty).WithBothComponent(FieldPath(name)))
		}
	}
	if superTable.Indexer != nil {
		// classes expose named properties only
		results = append(results, SubtypingResult{}.WithSuperComponent(IndexerKeyPath))
	}
	return AllResults(results...)
}

func (s *Subtyping) normalizedSubtype(env *SubtypingEnvironment, subTy, superTy TypeId) SubtypingResult {
	subNorm, err := s.normalizer.Normalize(subTy)
	if err != nil {
		if !errors.Is(err, ErrNormalizationTooComplex) {
			panic(InvariantViolation{err})
		}
		return tooComplexResult()
	}
	superNorm, err := s.normalizer.Normalize(superTy)
	if err != nil {
		if !errors.Is(err, ErrNormalizationTooComplex) {
			panic(InvariantViolation{err})
		}
		return tooComplexResult()
	}
	return s.normalizedCovariantWith(env, subNorm, superNorm)
}

// normalizedCovariantWith is bucket-wise conjunction over two normal forms.
func (s *Subtyping) normalizedCovariantWith(env *SubtypingEnvironment, subNorm, superNorm *NormalizedType) SubtypingResult {
	subNorm = s.normalizer.expandTops(subNorm)
	superNorm = s.normalizer.expandTops(superNorm)
	results := []SubtypingResult{
		s.scalarBucket(subNorm.Booleans, superNorm.Booleans, s.builtins.Boolean),
		s.scalarBucket(subNorm.Nils, superNorm.Nils, s.builtins.Nil),
		s.scalarBucket(subNorm.Numbers, superNorm.Numbers, s.builtins.Number),
		s.scalarBucket(subNorm.Threads, superNorm.Threads, s.builtins.Thread),
		s.scalarBucket(subNorm.Buffers, superNorm.Buffers, s.builtins.Buffer),
		s.scalarBucket(subNorm.Errors, superNorm.Errors, s.builtins.Error),
		s.stringBucket(env, subNorm.Strings, superNorm.Strings, superNorm.Tables),
		s.classBucket(env, subNorm.Classes, superNorm.Classes, superNorm.Tables),
		s.tableBucket(env, subNorm.Tables, superNorm.Tables),
		s.functionBucket(env, subNorm.Functions, superNorm.Functions),
	}
	return AllResults(results...)
}

func (s *Subtyping) scalarBucket(sub, super, primitive TypeId) SubtypingResult {
	never := s.builtins.Never
	switch {
	case Equal(sub, never):
		return SubtypeResult(true)
	case Equal(super, never):
		return SubtypeResult(false)
	case Equal(sub, super) || Equal(super, primitive):
		return SubtypeResult(true)
	default:
		return SubtypeResult(false)
	}
}

func stringSetSubset(a, b []string) bool {
	return len(mergeSortedStrings(a, b, set.Diff)) == 0
}

func stringSetDisjoint(a, b []string) bool {
	return len(mergeSortedStrings(a, b, set.Inter)) == 0
}

func (s *Subtyping) stringBucket(env *SubtypingEnvironment, sub, super NormalizedStringType, superTables []TypeId) SubtypingResult {
	if sub.IsNever() {
		return SubtypeResult(true)
	}
	contained := false
	switch {
	case !sub.Cofinite && !super.Cofinite:
		contained = stringSetSubset(sub.Literals, super.Literals)
	case !sub.Cofinite && super.Cofinite:
		contained = stringSetDisjoint(sub.Literals, super.Literals)
	case sub.Cofinite && super.Cofinite:
		contained = stringSetSubset(super.Literals, sub.Literals)
	default: // cofinite against a finite set
		contained = false
	}
	if contained {
		return SubtypeResult(true)
	}
	if len(superTables) == 0 {
		return SubtypeResult(false)
	}
	// strings may still fit a table-shaped super through the string library
	if sub.Cofinite {
		return s.anyTableHolds(env, s.builtins.String, superTables)
	}
	var results []SubtypingResult
	for _, literal := range sub.Literals {
		results = append(results, s.anyTableHolds(env, s.arena.StringSingleton(literal), superTables))
	}
	return AllResults(results...)
}

func (s *Subtyping) anyTableHolds(env *SubtypingEnvironment, sub TypeId, tables []TypeId) SubtypingResult {
	results := make([]SubtypingResult, 0, len(tables))
	for _, table := range tables {
		results = append(results, s.isCovariantWith(env, sub, table))
	}
	return AnyResults(results...)
}

func (s *Subtyping) classBucket(env *SubtypingEnvironment, sub, super NormalizedClassType, superTables []TypeId) SubtypingResult {
	if sub.IsNever() || super.Top {
		return SubtypeResult(true)
	}
	if sub.Top {
		return SubtypeResult(false)
	}
	var results []SubtypingResult
	for _, entry := range sub.Entries {
		if classEntryContained(entry, super.Entries) {
			continue
		}
		if len(superTables) > 0 {
			results = append(results, s.anyTableHolds(env, entry.Class, superTables))
			continue
		}
		results = append(results, SubtypeResult(false))
	}
	return AllResults(results...)
}

func classEntryContained(entry ClassNegation, superEntries []ClassNegation) bool {
	for _, superEntry := range superEntries {
		if !isSubclass(entry.Class, superEntry.Class) {
			continue
		}
		excluded := false
		for _, neg := range superEntry.Negations {
			if isSubclass(entry.Class, neg) {
				excluded = true
				break
			}
			if isSubclass(neg, entry.Class) && !containsClass(entry.Negations, neg) {
				excluded = true
				break
			}
		}
		if !excluded {
			return true
		}
	}
	return false
}

func (s *Subtyping) tableBucket(env *SubtypingEnvironment, subTables, superTables []TypeId) SubtypingResult {
	if len(subTables) == 0 {
		return SubtypeResult(true)
	}
	if len(superTables) == 0 {
		return SubtypeResult(false)
	}
	var results []SubtypingResult
	for _, subTable := range subTables {
		results = append(results, s.anyTableHolds(env, subTable, superTables))
	}
	return AllResults(results...)
}

func (s *Subtyping) functionBucket(env *SubtypingEnvironment, sub, super NormalizedFunctionType) SubtypingResult {
	switch {
	case sub.IsNever() || super.Top:
		return SubtypeResult(true)
	case sub.Top || super.IsNever():
		return SubtypeResult(false)
	}
	var results []SubtypingResult
	for _, part := range sub.Parts {
		candidates := make([]SubtypingResult, 0, len(super.Parts))
		for _, superPart := range super.Parts {
			candidates = append(candidates, s.isCovariantWith(env, part, superPart))
		}
		results = append(results, AnyResults(candidates...))
	}
	return AllResults(results...)
}
