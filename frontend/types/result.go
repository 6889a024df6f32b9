package types

import (
	"fmt"
	"github.com/cottand/loon/frontend/loonerr"
	"github.com/cottand/loon/util/hset"
)

type SubtypingVariance uint8

const (
	VarianceInvalid SubtypingVariance = iota
	VarianceCovariant
	VarianceContravariant
	VarianceInvariant
)

func (v SubtypingVariance) String() string {
	switch v {
	case VarianceCovariant:
		return "covariant"
	case VarianceContravariant:
		return "contravariant"
	case VarianceInvariant:
		return "invariant"
	default:
		return "invalid"
	}
}

// SubtypingReasoning is one structural witness of a judgement: the paths to
// the mismatched leaves on each side, and the variance the leaves were
// compared under. Variance takes part in equality: the same pair of paths
// can fail both covariantly and contravariantly.
type SubtypingReasoning struct {
	SubPath   Path
	SuperPath Path
	Variance  SubtypingVariance
}

// Hash generates a hash for SubtypingReasoning from both paths and the variance
func (r SubtypingReasoning) Hash() uint64 {
	const prime1 uint64 = 16777619
	hash := r.SubPath.Hash()
	hash = hash*prime1 ^ r.SuperPath.Hash()
	hash = hash*prime1 ^ uint64(r.Variance)
	return hash
}

func (r SubtypingReasoning) String() string {
	if r.SubPath.IsEmpty() && r.SuperPath.IsEmpty() {
		return fmt.Sprintf("at the top level (%v)", r.Variance)
	}
	return fmt.Sprintf("at sub%v / super%v (%v)", r.SubPath, r.SuperPath, r.Variance)
}

// Reasonings merge in insertion order, so the reasoning a caller sees first
// is the one recorded first.
type Reasonings = *hset.HSet[SubtypingReasoning]

type SubtypingResult struct {
	IsSubtype bool
	// IsCacheable is cleared the moment a mapped generic is read or written,
	// so bounds-dependent answers never reach the persistent cache.
	IsCacheable bool
	// NormalizationTooComplex marks that normalization overflowed or a limit
	// expired; the judgement is then a conservative failure.
	NormalizationTooComplex bool
	Reasoning               Reasonings
	Errors                  *loonerr.Errors
}

// SubtypeResult is the plain construction: a cacheable verdict with no
// reasoning attached.
func SubtypeResult(isSubtype bool) SubtypingResult {
	return SubtypingResult{IsSubtype: isSubtype, IsCacheable: true}
}

func tooComplexResult() SubtypingResult {
	return SubtypingResult{IsSubtype: false, NormalizationTooComplex: true}
}

func (r SubtypingResult) WithoutCaching() SubtypingResult {
	r.IsCacheable = false
	return r
}

func mergeReasonings(a, b Reasonings) Reasonings {
	if a.Len() == 0 && b.Len() == 0 {
		return nil
	}
	merged := a.Copy()
	merged.Union(b)
	return merged
}

func mergeErrors(a, b *loonerr.Errors) *loonerr.Errors {
	if !a.HasError() && !b.HasError() {
		return nil
	}
	merged := &loonerr.Errors{}
	return merged.Merge(a).Merge(b)
}

// AndAlso conjoins two results, keeping every witness and diagnostic of
// both.
func (r SubtypingResult) AndAlso(other SubtypingResult) SubtypingResult {
	return SubtypingResult{
		IsSubtype:               r.IsSubtype && other.IsSubtype,
		IsCacheable:             r.IsCacheable && other.IsCacheable,
		NormalizationTooComplex: r.NormalizationTooComplex || other.NormalizationTooComplex,
		Reasoning:               mergeReasonings(r.Reasoning, other.Reasoning),
		Errors:                  mergeErrors(r.Errors, other.Errors),
	}
}

// OrElse disjoins two results under the same merging policy as AndAlso.
func (r SubtypingResult) OrElse(other SubtypingResult) SubtypingResult {
	return SubtypingResult{
		IsSubtype:               r.IsSubtype || other.IsSubtype,
		IsCacheable:             r.IsCacheable && other.IsCacheable,
		NormalizationTooComplex: r.NormalizationTooComplex || other.NormalizationTooComplex,
		Reasoning:               mergeReasonings(r.Reasoning, other.Reasoning),
		Errors:                  mergeErrors(r.Errors, other.Errors),
	}
}

func AllResults(results ...SubtypingResult) SubtypingResult {
	acc := SubtypeResult(true)
	for _, r := range results {
		acc = acc.AndAlso(r)
	}
	return acc
}

func AnyResults(results ...SubtypingResult) SubtypingResult {
	acc := SubtypeResult(false)
	for _, r := range results {
		acc = acc.OrElse(r)
	}
	return acc
}

// Negate flips the verdict and preserves everything else.
func (r SubtypingResult) Negate() SubtypingResult {
	r.IsSubtype = !r.IsSubtype
	return r
}

func (r SubtypingResult) WithSubComponent(c Component) SubtypingResult {
	return r.WithSubPath(NewPath(c))
}

func (r SubtypingResult) WithSuperComponent(c Component) SubtypingResult {
	return r.WithSuperPath(NewPath(c))
}

func (r SubtypingResult) WithBothComponent(c Component) SubtypingResult {
	return r.WithSubPath(NewPath(c)).WithSuperPath(NewPath(c))
}

// WithSubPath prepends p to the sub side of every reasoning. A failure with
// no reasoning yet gains one rooted at p.
func (r SubtypingResult) WithSubPath(p Path) SubtypingResult {
	if p.IsEmpty() {
		return r
	}
	if r.Reasoning.Len() == 0 {
		if !r.IsSubtype {
			r.Reasoning = hset.New(SubtypingReasoning{SubPath: p, SuperPath: EmptyPath(), Variance: VarianceCovariant})
		}
		return r
	}
	mapped := hset.Empty[SubtypingReasoning]()
	for reasoning := range r.Reasoning.All() {
		reasoning.SubPath = reasoning.SubPath.Prepend(p)
		mapped.Add(reasoning)
	}
	r.Reasoning = mapped
	return r
}

// WithSuperPath prepends p to the super side of every reasoning.
func (r SubtypingResult) WithSuperPath(p Path) SubtypingResult {
	if p.IsEmpty() {
		return r
	}
	if r.Reasoning.Len() == 0 {
		if !r.IsSubtype {
			r.Reasoning = hset.New(SubtypingReasoning{SubPath: EmptyPath(), SuperPath: p, Variance: VarianceCovariant})
		}
		return r
	}
	mapped := hset.Empty[SubtypingReasoning]()
	for reasoning := range r.Reasoning.All() {
		reasoning.SuperPath = reasoning.SuperPath.Prepend(p)
		mapped.Add(reasoning)
	}
	r.Reasoning = mapped
	return r
}

func (r SubtypingResult) WithBothPath(p Path) SubtypingResult {
	return r.WithSubPath(p).WithSuperPath(p)
}

func (r SubtypingResult) WithErrors(errs *loonerr.Errors) SubtypingResult {
	r.Errors = mergeErrors(r.Errors, errs)
	return r
}

func (r SubtypingResult) WithError(err loonerr.LoonError) SubtypingResult {
	return r.WithErrors((&loonerr.Errors{}).With(err))
}

// asContravariant swaps every reasoning's paths back after a flipped
// comparison and tags them contravariant. Invariant tags stay as they are.
func (r SubtypingResult) asContravariant() SubtypingResult {
	if r.Reasoning.Len() == 0 {
		if !r.IsSubtype {
			r.Reasoning = hset.New(SubtypingReasoning{Variance: VarianceContravariant})
		}
		return r
	}
	mapped := hset.Empty[SubtypingReasoning]()
	for reasoning := range r.Reasoning.All() {
		reasoning.SubPath, reasoning.SuperPath = reasoning.SuperPath, reasoning.SubPath
		if reasoning.Variance != VarianceInvariant {
			reasoning.Variance = VarianceContravariant
		}
		mapped.Add(reasoning)
	}
	r.Reasoning = mapped
	return r
}

// asInvariant retags every reasoning invariant, keeping paths.
func (r SubtypingResult) asInvariant() SubtypingResult {
	if r.Reasoning.Len() == 0 {
		return r
	}
	mapped := hset.Empty[SubtypingReasoning]()
	for reasoning := range r.Reasoning.All() {
		reasoning.Variance = VarianceInvariant
		mapped.Add(reasoning)
	}
	r.Reasoning = mapped
	return r
}
