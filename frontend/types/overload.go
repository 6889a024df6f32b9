package types

import (
	"github.com/cottand/loon/frontend/ir"
	"github.com/cottand/loon/frontend/loonerr"
	"github.com/cottand/loon/util"
)

// Analysis classifies one call candidate against an argument pack.
type Analysis uint8

const (
	AnalysisOk Analysis = iota
	TypeIsNotAFunction
	ArityMismatch
	// OverloadIsNonviable: the arity lined up but the argument values cannot
	// flow into the parameters.
	OverloadIsNonviable
)

func (a Analysis) String() string {
	switch a {
	case AnalysisOk:
		return "ok"
	case TypeIsNotAFunction:
		return "not a function"
	case ArityMismatch:
		return "arity mismatch"
	case OverloadIsNonviable:
		return "nonviable"
	default:
		return "?analysis?"
	}
}

// OverloadClassification is where one candidate landed: its Analysis and its
// position inside the bucket that Analysis names.
type OverloadClassification struct {
	Analysis Analysis
	Index    int
}

// OverloadResolver classifies the overloads of one call site. Buckets fill
// in source order; the resolution map remembers every candidate's verdict.
// One resolver serves one call site and is not reused.
type OverloadResolver struct {
	arena     *TypeArena
	builtins  *Builtins
	subtyping *Subtyping
	callSite  ir.Positioner

	Ok                 []TypeId
	NonFunctions       []TypeId
	ArityMismatches    []util.Pair[TypeId, *loonerr.Errors]
	NonviableOverloads []util.Pair[TypeId, *loonerr.Errors]

	resolution      []util.Pair[TypeId, OverloadClassification]
	resolutionIndex map[TypeId]int
}

func NewOverloadResolver(subtyping *Subtyping, callSite ir.Positioner) *OverloadResolver {
	if callSite == nil {
		callSite = ir.Range{}
	}
	return &OverloadResolver{
		arena:           subtyping.Arena(),
		builtins:        subtyping.Builtins(),
		subtyping:       subtyping,
		callSite:        callSite,
		resolutionIndex: make(map[TypeId]int),
	}
}

// SelectOverload tries candidates in source order and returns the first that
// accepts the arguments. When none does, the callee itself comes back with
// the most informative failure observed: value mismatches outrank arity
// mismatches, which outrank not-a-function.
func (r *OverloadResolver) SelectOverload(callee TypeId, args TypePackId) (Analysis, TypeId) {
	sawNonviable, sawArity := false, false
	for _, candidate := range unfoldCandidates(callee) {
		analysis, _ := r.checkOverload(candidate, args, nil, true)
		switch analysis {
		case AnalysisOk:
			return AnalysisOk, candidate
		case OverloadIsNonviable:
			sawNonviable = true
		case ArityMismatch:
			sawArity = true
		}
	}
	switch {
	case sawNonviable:
		return OverloadIsNonviable, callee
	case sawArity:
		return ArityMismatch, callee
	default:
		return TypeIsNotAFunction, callee
	}
}

// Resolve classifies every candidate and files it into the buckets. For a
// method call the receiver must already be the first element of args, with
// selfExpr naming its expression; argExprs holds the remaining argument
// expressions in order, so diagnostics can point at the literal that clashed.
func (r *OverloadResolver) Resolve(fnTy TypeId, args TypePackId, selfExpr ir.Expr, argExprs []ir.Expr) {
	blame := make([]ir.Expr, 0, len(argExprs)+1)
	if selfExpr != nil {
		blame = append(blame, selfExpr)
	}
	blame = append(blame, argExprs...)

	for _, candidate := range unfoldCandidates(fnTy) {
		analysis, errs := r.checkOverload(candidate, args, blame, true)
		r.add(analysis, candidate, errs)
	}
	logger.Debug("overload resolution",
		"callee", fnTy.String(),
		"ok", len(r.Ok),
		"nonviable", len(r.NonviableOverloads),
		"arityMismatches", len(r.ArityMismatches),
		"nonFunctions", len(r.NonFunctions))
}

// ResolutionFor reports how one candidate was classified.
func (r *OverloadResolver) ResolutionFor(candidate TypeId) (OverloadClassification, bool) {
	i, ok := r.resolutionIndex[candidate]
	if !ok {
		return OverloadClassification{}, false
	}
	return r.resolution[i].Snd, true
}

// Resolutions lists every candidate with its classification, in the order
// the candidates were tried.
func (r *OverloadResolver) Resolutions() []util.Pair[TypeId, OverloadClassification] {
	out := make([]util.Pair[TypeId, OverloadClassification], len(r.resolution))
	copy(out, r.resolution)
	return out
}

func unfoldCandidates(callee TypeId) []TypeId {
	if inter, ok := callee.(*IntersectionType); ok {
		return inter.Members
	}
	return []TypeId{callee}
}

func (r *OverloadResolver) checkOverload(fnTy TypeId, args TypePackId, blame []ir.Expr, callMetamethodOk bool) (Analysis, *loonerr.Errors) {
	switch fn := fnTy.(type) {
	case *AnyType, *ErrorType, *NeverType:
		// all three accept any call rather than cascade errors
		return AnalysisOk, nil
	case *FunctionType:
		return r.checkArguments(fnTy, fn, args, blame)
	}
	if callMm := r.callMetamethod(fnTy); callMm != nil && callMetamethodOk {
		// a __call metamethod receives the callee itself as its first
		// argument; there is no expression to blame for that slot
		withSelf := r.arena.PrependPack(fnTy, args)
		augmented := append([]ir.Expr{nil}, blame...)
		return r.checkOverload(callMm, withSelf, augmented, false)
	}
	return TypeIsNotAFunction, nil
}

func (r *OverloadResolver) callMetamethod(ty TypeId) TypeId {
	var meta TypeId
	switch t := ty.(type) {
	case *MetatableType:
		meta = t.Metatable
	case *ClassType:
		meta = t.Metatable
	default:
		return nil
	}
	mt, isTable := meta.(*TableType)
	if !isTable {
		return nil
	}
	if prop, ok := mt.Props["__call"]; ok {
		return prop.Ty
	}
	return nil
}

func (r *OverloadResolver) checkArguments(fnTy TypeId, fn *FunctionType, args TypePackId, blame []ir.Expr) (Analysis, *loonerr.Errors) {
	argHead, argTail := splitPack(args)
	paramHead, paramTail := splitPack(fn.Args)

	if argTail == nil {
		required := requiredParams(paramHead)
		if len(argHead) < required {
			return ArityMismatch, (&loonerr.Errors{}).With(loonerr.New(loonerr.NewCountMismatch{
				Positioner:       r.callSite,
				Expected:         required,
				Actual:           len(argHead),
				ExpectedVariadic: paramTail != nil,
			}))
		}
		if len(argHead) < len(paramHead) {
			// omitted optional arguments arrive as nil at runtime
			padded := make([]TypeId, len(paramHead))
			copy(padded, argHead)
			for i := len(argHead); i < len(paramHead); i++ {
				padded[i] = r.builtins.Nil
			}
			argHead = padded
		}
	}
	if len(argHead) > len(paramHead) && paramTail == nil {
		return ArityMismatch, (&loonerr.Errors{}).With(loonerr.New(loonerr.NewCountMismatch{
			Positioner: r.callSite,
			Expected:   len(paramHead),
			Actual:     len(argHead),
		}))
	}

	argPack := r.arena.Pack(argHead, argTail)
	// the candidate must accept exactly these arguments, whatever it returns
	prospective := r.arena.Function(nil, nil, argPack, r.arena.Variadic(r.builtins.Any))
	result := r.subtyping.IsSubtype(fnTy, prospective)
	if result.IsSubtype {
		return AnalysisOk, nil
	}
	for _, err := range result.Errors.Errors() {
		if err.Code() == loonerr.CountMismatch {
			return ArityMismatch, result.Errors
		}
	}
	return OverloadIsNonviable, r.describeMismatches(fnTy, prospective, result, argHead, paramHead, paramTail, blame)
}

// requiredParams counts the parameters a call cannot omit: everything before
// the trailing run of parameters that admit nil.
func requiredParams(paramHead []TypeId) int {
	count := len(paramHead)
	for count > 0 && admitsNil(paramHead[count-1]) {
		count--
	}
	return count
}

func admitsNil(ty TypeId) bool {
	switch t := ty.(type) {
	case *AnyType, *UnknownType, *ErrorType:
		return true
	case *PrimitiveType:
		return t.Kind == NilKind
	case *UnionType:
		for _, member := range t.Members {
			if admitsNil(member) {
				return true
			}
		}
	}
	return false
}

// describeMismatches renders the engine's reasonings as diagnostics. In the
// judgement `candidate ≤ (args) -> any...` the sub side paths walk the
// candidate and the super side paths walk the arguments, so a super path
// leading with a param component names the argument to blame.
func (r *OverloadResolver) describeMismatches(
	fnTy, prospective TypeId,
	result SubtypingResult,
	argHead, paramHead []TypeId,
	paramTail TypePackId,
	blame []ir.Expr,
) *loonerr.Errors {
	errs := (&loonerr.Errors{}).Merge(result.Errors)
	if result.Reasoning.Len() == 0 {
		return errs.With(loonerr.New(loonerr.NewTypeMismatch{
			Positioner: r.callSite,
			Sub:        fnTy.String(),
			Super:      prospective.String(),
		}))
	}
	for reasoning := range result.Reasoning.All() {
		argSide := reasoning.SuperPath
		paramSide := reasoning.SubPath
		argIdx, ok := leadingParam(argSide)
		if !ok || argIdx >= len(argHead) {
			errs = errs.With(loonerr.New(loonerr.NewTypeMismatch{
				Positioner: r.callSite,
				Sub:        fnTy.String(),
				Super:      prospective.String(),
				SubPath:    paramSide.String(),
				SuperPath:  argSide.String(),
				Variance:   reasoning.Variance.String(),
			}))
			continue
		}
		errs = errs.With(loonerr.New(loonerr.NewTypeMismatch{
			Positioner: r.blameFor(argIdx, blame),
			Sub:        argHead[argIdx].String(),
			Super:      r.paramTypeFor(paramSide, paramHead, paramTail).String(),
			SubPath:    pathTail(argSide).String(),
			SuperPath:  pathTail(paramSide).String(),
			Variance:   reasoning.Variance.String(),
		}))
	}
	return errs
}

// blameFor picks the argument's own expression when it was written as a
// literal; anything else anchors at the whole call.
func (r *OverloadResolver) blameFor(argIdx int, blame []ir.Expr) ir.Positioner {
	if argIdx < len(blame) && blame[argIdx] != nil && ir.IsLiteral(blame[argIdx]) {
		logger.Debug("anchoring diagnostic at literal argument", "arg", blame[argIdx])
		return blame[argIdx]
	}
	return r.callSite
}

func (r *OverloadResolver) paramTypeFor(paramSide Path, paramHead []TypeId, paramTail TypePackId) TypeId {
	comps := paramSide.Components()
	if len(comps) > 0 {
		switch comps[0].Kind {
		case ComponentParam:
			if comps[0].Index < len(paramHead) {
				return paramHead[comps[0].Index]
			}
		case ComponentVariadic:
			if vt, isVariadic := paramTail.(*VariadicTypePack); isVariadic {
				return vt.Ty
			}
		}
	}
	return r.builtins.Unknown
}

func leadingParam(p Path) (int, bool) {
	comps := p.Components()
	if len(comps) == 0 || comps[0].Kind != ComponentParam {
		return 0, false
	}
	return comps[0].Index, true
}

func pathTail(p Path) Path {
	comps := p.Components()
	if len(comps) <= 1 {
		return EmptyPath()
	}
	return NewPath(comps[1:]...)
}

func (r *OverloadResolver) add(analysis Analysis, candidate TypeId, errs *loonerr.Errors) {
	var index int
	switch analysis {
	case AnalysisOk:
		index = len(r.Ok)
		r.Ok = append(r.Ok, candidate)
	case TypeIsNotAFunction:
		index = len(r.NonFunctions)
		r.NonFunctions = append(r.NonFunctions, candidate)
	case ArityMismatch:
		index = len(r.ArityMismatches)
		r.ArityMismatches = append(r.ArityMismatches, util.NewPair(candidate, errs))
	case OverloadIsNonviable:
		index = len(r.NonviableOverloads)
		r.NonviableOverloads = append(r.NonviableOverloads, util.NewPair(candidate, errs))
	}
	if _, seen := r.resolutionIndex[candidate]; seen {
		return
	}
	r.resolutionIndex[candidate] = len(r.resolution)
	r.resolution = append(r.resolution, util.NewPair(candidate, OverloadClassification{
		Analysis: analysis,
		Index:    index,
	}))
}
