package types

import (
	"slices"
	"sort"

	"github.com/benbjohnson/immutable"
	"github.com/cottand/loon/util"
	"github.com/pkg/errors"
	"github.com/xtgo/set"
)

// ErrNormalizationTooComplex is returned when a type cannot be flattened
// within budget, or when it needs a representation the buckets do not have
// (negated tables, negated functions, rigid generics).
var ErrNormalizationTooComplex = errors.New("normalization too complex")

// maxNormalizedSetSize caps every bucket; beyond it normalization gives up
// rather than degrade into quadratic bucket scans.
const maxNormalizedSetSize = 128

// NormalizedStringType is the string bucket: a finite set of singletons, or
// the whole string primitive minus a finite set when Cofinite is set.
type NormalizedStringType struct {
	Cofinite bool
	Literals []string // sorted, unique
}

func stringsNever() NormalizedStringType { return NormalizedStringType{} }
func stringsAll() NormalizedStringType   { return NormalizedStringType{Cofinite: true} }

func (s NormalizedStringType) IsNever() bool { return !s.Cofinite && len(s.Literals) == 0 }
func (s NormalizedStringType) IsAll() bool   { return s.Cofinite && len(s.Literals) == 0 }

// mergeSortedStrings applies one of the xtgo/set pivot operations to two
// already-sorted literal slices.
func mergeSortedStrings(a, b []string, op func(sort.Interface, int) int) []string {
	combined := make([]string, 0, len(a)+len(b))
	combined = append(combined, a...)
	combined = append(combined, b...)
	size := op(sort.StringSlice(combined), len(a))
	return combined[:size]
}

func unionStrings(a, b NormalizedStringType) NormalizedStringType {
	switch {
	case a.Cofinite && b.Cofinite:
		// the excluded set shrinks to what both exclude
		return NormalizedStringType{Cofinite: true, Literals: mergeSortedStrings(a.Literals, b.Literals, set.Inter)}
	case a.Cofinite:
		return NormalizedStringType{Cofinite: true, Literals: mergeSortedStrings(a.Literals, b.Literals, set.Diff)}
	case b.Cofinite:
		return NormalizedStringType{Cofinite: true, Literals: mergeSortedStrings(b.Literals, a.Literals, set.Diff)}
	default:
		return NormalizedStringType{Literals: mergeSortedStrings(a.Literals, b.Literals, set.Union)}
	}
}

func intersectStrings(a, b NormalizedStringType) NormalizedStringType {
	switch {
	case !a.Cofinite && !b.Cofinite:
		return NormalizedStringType{Literals: mergeSortedStrings(a.Literals, b.Literals, set.Inter)}
	case a.Cofinite && !b.Cofinite:
		return NormalizedStringType{Literals: mergeSortedStrings(b.Literals, a.Literals, set.Diff)}
	case !a.Cofinite && b.Cofinite:
		return NormalizedStringType{Literals: mergeSortedStrings(a.Literals, b.Literals, set.Diff)}
	default:
		return NormalizedStringType{Cofinite: true, Literals: mergeSortedStrings(a.Literals, b.Literals, set.Union)}
	}
}

func complementStrings(a NormalizedStringType) NormalizedStringType {
	return NormalizedStringType{Cofinite: !a.Cofinite, Literals: a.Literals}
}

func subtractStrings(a, b NormalizedStringType) NormalizedStringType {
	return intersectStrings(a, complementStrings(b))
}

// ClassNegation is one positive class with the subclasses carved out of it.
type ClassNegation struct {
	Class     *ClassType
	Negations []*ClassType
}

// NormalizedClassType is the class bucket. Top stands for every class, which
// only appears while expanding unknown and any.
type NormalizedClassType struct {
	Top     bool
	Entries []ClassNegation
}

func (c NormalizedClassType) IsNever() bool { return !c.Top && len(c.Entries) == 0 }

// isSubclass walks the nominal parent chain.
func isSubclass(sub, super *ClassType) bool {
	for current := sub; current != nil; {
		if Equal(current, super) {
			return true
		}
		parent, ok := current.Parent.(*ClassType)
		if !ok {
			return false
		}
		current = parent
	}
	return false
}

func containsClass(classes []*ClassType, c *ClassType) bool {
	for _, existing := range classes {
		if Equal(existing, c) {
			return true
		}
	}
	return false
}

func sameNegations(a, b []*ClassType) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

// addClassEntry inserts entry unless an existing entry already covers it, and
// drops existing entries the new one subsumes. Subsumption only applies to
// negation-free entries; carved-up entries keep their exact shape.
func addClassEntry(entries []ClassNegation, entry ClassNegation) []ClassNegation {
	for _, existing := range entries {
		if Equal(existing.Class, entry.Class) && sameNegations(existing.Negations, entry.Negations) {
			return entries
		}
		if len(existing.Negations) == 0 && len(entry.Negations) == 0 &&
			isSubclass(entry.Class, existing.Class) {
			return entries
		}
	}
	kept := entries[:0]
	for _, existing := range entries {
		if len(existing.Negations) == 0 && len(entry.Negations) == 0 &&
			isSubclass(existing.Class, entry.Class) {
			continue
		}
		kept = append(kept, existing)
	}
	return append(kept, entry)
}

func unionClasses(a, b NormalizedClassType) NormalizedClassType {
	if a.Top || b.Top {
		return NormalizedClassType{Top: true}
	}
	entries := append([]ClassNegation(nil), a.Entries...)
	for _, entry := range b.Entries {
		entries = addClassEntry(entries, entry)
	}
	return NormalizedClassType{Entries: entries}
}

func intersectClasses(a, b NormalizedClassType) NormalizedClassType {
	if a.Top {
		return b
	}
	if b.Top {
		return a
	}
	var entries []ClassNegation
	for _, ea := range a.Entries {
		for _, eb := range b.Entries {
			var positive *ClassType
			switch {
			case isSubclass(ea.Class, eb.Class):
				positive = ea.Class
			case isSubclass(eb.Class, ea.Class):
				positive = eb.Class
			default:
				continue // nominally disjoint
			}
			entry := ClassNegation{Class: positive}
			dead := false
			for neg := range util.ConcatIter(slices.Values(ea.Negations), slices.Values(eb.Negations)) {
				if isSubclass(positive, neg) {
					dead = true
					break
				}
				if isSubclass(neg, positive) && !containsClass(entry.Negations, neg) {
					entry.Negations = append(entry.Negations, neg)
				}
			}
			if !dead {
				entries = addClassEntry(entries, entry)
			}
		}
	}
	return NormalizedClassType{Entries: entries}
}

func subtractClass(c NormalizedClassType, neg *ClassType) (NormalizedClassType, error) {
	if c.Top {
		// "every class except neg" has no per-root representation
		return NormalizedClassType{}, ErrNormalizationTooComplex
	}
	var entries []ClassNegation
	for _, entry := range c.Entries {
		switch {
		case isSubclass(entry.Class, neg):
			continue // wholly removed
		case isSubclass(neg, entry.Class):
			kept := ClassNegation{Class: entry.Class, Negations: append([]*ClassType(nil), entry.Negations...)}
			if !containsClass(kept.Negations, neg) {
				kept.Negations = append(kept.Negations, neg)
			}
			entries = append(entries, kept)
		default:
			entries = append(entries, entry)
		}
	}
	return NormalizedClassType{Entries: entries}, nil
}

// NormalizedFunctionType is the function bucket: a union of parts, or every
// function when Top is set. An intersection of functions folds into a single
// intersection part.
type NormalizedFunctionType struct {
	Top   bool
	Parts []TypeId
}

func (f NormalizedFunctionType) IsNever() bool { return !f.Top && len(f.Parts) == 0 }

// NormalizedType partitions a type into pairwise-disjoint buckets. When Tops
// is unknown or any the other buckets are empty and the form means exactly
// that top type.
type NormalizedType struct {
	Tops      TypeId
	Booleans  TypeId
	Nils      TypeId
	Numbers   TypeId
	Threads   TypeId
	Buffers   TypeId
	Errors    TypeId
	Strings   NormalizedStringType
	Classes   NormalizedClassType
	Tables    []TypeId
	Functions NormalizedFunctionType
}

// IsNever reports whether no value inhabits the normalized type.
func (nf *NormalizedType) IsNever(b *Builtins) bool {
	return Equal(nf.Tops, b.Never) &&
		Equal(nf.Booleans, b.Never) && Equal(nf.Nils, b.Never) &&
		Equal(nf.Numbers, b.Never) && Equal(nf.Threads, b.Never) &&
		Equal(nf.Buffers, b.Never) && Equal(nf.Errors, b.Never) &&
		nf.Strings.IsNever() && nf.Classes.IsNever() &&
		len(nf.Tables) == 0 && nf.Functions.IsNever()
}

// Normalizer flattens types into NormalizedType, memoizing per interned id.
// It shares its limits with the engine that owns it.
type Normalizer struct {
	arena    *TypeArena
	builtins *Builtins
	limits   *TypeCheckLimits
	memo     *immutable.Map[TypeId, *NormalizedType]
}

type typeIdHasher struct{}

func (typeIdHasher) Hash(t TypeId) uint32 {
	h := t.Hash()
	return uint32(h>>32) ^ uint32(h)
}
func (typeIdHasher) Equal(a, b TypeId) bool { return Equal(a, b) }

func NewNormalizer(arena *TypeArena, builtins *Builtins, limits *TypeCheckLimits) *Normalizer {
	return &Normalizer{
		arena:    arena,
		builtins: builtins,
		limits:   limits,
		memo:     immutable.NewMap[TypeId, *NormalizedType](typeIdHasher{}),
	}
}

// Normalize flattens ty, reusing memoized forms. Overflow is never memoized;
// a later query with a fresh budget may still succeed.
func (n *Normalizer) Normalize(ty TypeId) (*NormalizedType, error) {
	if cached, ok := n.memo.Get(ty); ok {
		return cached, nil
	}
	nf, err := n.normalizeTy(ty)
	if err != nil {
		return nil, err
	}
	n.memo = n.memo.Set(ty, nf)
	return nf, nil
}

func (n *Normalizer) emptyNormal() *NormalizedType {
	never := n.builtins.Never
	return &NormalizedType{
		Tops: never, Booleans: never, Nils: never, Numbers: never,
		Threads: never, Buffers: never, Errors: never,
	}
}

// fullNormal is unknown spelled out bucket by bucket; withError upgrades it
// to any.
func (n *Normalizer) fullNormal(withError bool) *NormalizedType {
	nf := n.emptyNormal()
	nf.Booleans = n.builtins.Boolean
	nf.Nils = n.builtins.Nil
	nf.Numbers = n.builtins.Number
	nf.Threads = n.builtins.Thread
	nf.Buffers = n.builtins.Buffer
	nf.Strings = stringsAll()
	nf.Classes = NormalizedClassType{Top: true}
	nf.Tables = []TypeId{n.builtins.TableTop}
	nf.Functions = NormalizedFunctionType{Top: true}
	if withError {
		nf.Errors = n.builtins.Error
	}
	return nf
}

func (n *Normalizer) topsRank(t TypeId) int {
	switch {
	case Equal(t, n.builtins.Any):
		return 2
	case Equal(t, n.builtins.Unknown):
		return 1
	default:
		return 0
	}
}

// expandTops trades the unknown/any marker for fully populated buckets so
// the set operations need only one representation.
func (n *Normalizer) expandTops(nf *NormalizedType) *NormalizedType {
	switch n.topsRank(nf.Tops) {
	case 2:
		return n.fullNormal(true)
	case 1:
		return n.fullNormal(false)
	default:
		return nf
	}
}

func (n *Normalizer) normalizeTy(ty TypeId) (*NormalizedType, error) {
	if !n.limits.take() {
		return nil, ErrNormalizationTooComplex
	}
	nf := n.emptyNormal()
	switch t := ty.(type) {
	case *AnyType:
		nf.Tops = n.builtins.Any
	case *UnknownType:
		nf.Tops = n.builtins.Unknown
	case *NeverType:
		// stays empty
	case *ErrorType:
		nf.Errors = n.builtins.Error
	case *PrimitiveType:
		switch t.Kind {
		case NilKind:
			nf.Nils = n.builtins.Nil
		case BooleanKind:
			nf.Booleans = n.builtins.Boolean
		case NumberKind:
			nf.Numbers = n.builtins.Number
		case StringKind:
			nf.Strings = stringsAll()
		case ThreadKind:
			nf.Threads = n.builtins.Thread
		case BufferKind:
			nf.Buffers = n.builtins.Buffer
		case TopTableKind:
			nf.Tables = []TypeId{n.builtins.TableTop}
		case TopFunctionKind:
			nf.Functions = NormalizedFunctionType{Top: true}
		default:
			return nil, errors.Errorf("unknown primitive kind %d", t.Kind)
		}
	case *StringSingletonType:
		nf.Strings = NormalizedStringType{Literals: []string{t.Value}}
	case *BooleanSingletonType:
		nf.Booleans = t
	case *ClassType:
		nf.Classes = NormalizedClassType{Entries: []ClassNegation{{Class: t}}}
	case *TableType, *MetatableType:
		nf.Tables = []TypeId{ty}
	case *FunctionType:
		nf.Functions = NormalizedFunctionType{Parts: []TypeId{ty}}
	case *UnionType:
		for _, member := range t.Members {
			mem, err := n.Normalize(member)
			if err != nil {
				return nil, err
			}
			nf = n.unionNormals(nf, mem)
		}
	case *IntersectionType:
		// positive members first; subtracting from an already narrowed form
		// keeps negated classes representable
		acc := n.fullNormal(true)
		var negated []TypeId
		for _, member := range t.Members {
			if neg, isNeg := member.(*NegationType); isNeg {
				negated = append(negated, neg.Negated)
				continue
			}
			mem, err := n.Normalize(member)
			if err != nil {
				return nil, err
			}
			if acc, err = n.intersectNormals(acc, mem); err != nil {
				return nil, err
			}
		}
		for _, sub := range negated {
			var err error
			if acc, err = n.subtractTy(acc, sub); err != nil {
				return nil, err
			}
		}
		nf = acc
	case *NegationType:
		if inner, isNeg := t.Negated.(*NegationType); isNeg {
			return n.Normalize(inner.Negated)
		}
		return n.subtractTy(n.fullNormal(true), t.Negated)
	default:
		// rigid generics and unreduced families have no bucket
		return nil, ErrNormalizationTooComplex
	}
	if err := n.checkSize(nf); err != nil {
		return nil, err
	}
	return nf, nil
}

func (n *Normalizer) checkSize(nf *NormalizedType) error {
	if len(nf.Tables) > maxNormalizedSetSize ||
		len(nf.Classes.Entries) > maxNormalizedSetSize ||
		len(nf.Strings.Literals) > maxNormalizedSetSize ||
		len(nf.Functions.Parts) > maxNormalizedSetSize {
		return ErrNormalizationTooComplex
	}
	return nil
}

func (n *Normalizer) unionScalar(a, b, primitive TypeId) TypeId {
	never := n.builtins.Never
	switch {
	case Equal(a, never):
		return b
	case Equal(b, never):
		return a
	case Equal(a, b):
		return a
	default:
		// two distinct inhabitants widen to the primitive
		return primitive
	}
}

func (n *Normalizer) intersectScalar(a, b, primitive TypeId) TypeId {
	never := n.builtins.Never
	switch {
	case Equal(a, never) || Equal(b, never):
		return never
	case Equal(a, b):
		return a
	case Equal(a, primitive):
		return b
	case Equal(b, primitive):
		return a
	default:
		return never
	}
}

func dedupeTypes(ids []TypeId) []TypeId {
	if len(ids) < 2 {
		return ids
	}
	sort.Sort(bySeq(ids))
	return ids[:set.Uniq(bySeq(ids))]
}

func (n *Normalizer) unionNormals(a, b *NormalizedType) *NormalizedType {
	rank := n.topsRank(a.Tops)
	if r := n.topsRank(b.Tops); r > rank {
		rank = r
	}
	hasError := !Equal(a.Errors, n.builtins.Never) || !Equal(b.Errors, n.builtins.Never)
	if rank == 2 || (rank == 1 && hasError) {
		nf := n.emptyNormal()
		nf.Tops = n.builtins.Any
		return nf
	}
	if rank == 1 {
		nf := n.emptyNormal()
		nf.Tops = n.builtins.Unknown
		return nf
	}
	nf := n.emptyNormal()
	nf.Booleans = n.unionScalar(a.Booleans, b.Booleans, n.builtins.Boolean)
	nf.Nils = n.unionScalar(a.Nils, b.Nils, n.builtins.Nil)
	nf.Numbers = n.unionScalar(a.Numbers, b.Numbers, n.builtins.Number)
	nf.Threads = n.unionScalar(a.Threads, b.Threads, n.builtins.Thread)
	nf.Buffers = n.unionScalar(a.Buffers, b.Buffers, n.builtins.Buffer)
	nf.Errors = n.unionScalar(a.Errors, b.Errors, n.builtins.Error)
	nf.Strings = unionStrings(a.Strings, b.Strings)
	nf.Classes = unionClasses(a.Classes, b.Classes)
	nf.Tables = dedupeTypes(append(append([]TypeId(nil), a.Tables...), b.Tables...))
	switch {
	case a.Functions.Top || b.Functions.Top:
		nf.Functions = NormalizedFunctionType{Top: true}
	default:
		parts := append(append([]TypeId(nil), a.Functions.Parts...), b.Functions.Parts...)
		nf.Functions = NormalizedFunctionType{Parts: dedupeTypes(parts)}
	}
	return nf
}

func (n *Normalizer) intersectNormals(a, b *NormalizedType) (*NormalizedType, error) {
	a, b = n.expandTops(a), n.expandTops(b)
	nf := n.emptyNormal()
	nf.Booleans = n.intersectScalar(a.Booleans, b.Booleans, n.builtins.Boolean)
	nf.Nils = n.intersectScalar(a.Nils, b.Nils, n.builtins.Nil)
	nf.Numbers = n.intersectScalar(a.Numbers, b.Numbers, n.builtins.Number)
	nf.Threads = n.intersectScalar(a.Threads, b.Threads, n.builtins.Thread)
	nf.Buffers = n.intersectScalar(a.Buffers, b.Buffers, n.builtins.Buffer)
	nf.Errors = n.intersectScalar(a.Errors, b.Errors, n.builtins.Error)
	nf.Strings = intersectStrings(a.Strings, b.Strings)
	nf.Classes = intersectClasses(a.Classes, b.Classes)
	tables, err := n.intersectTables(a.Tables, b.Tables)
	if err != nil {
		return nil, err
	}
	nf.Tables = tables
	functions, err := n.intersectFunctions(a.Functions, b.Functions)
	if err != nil {
		return nil, err
	}
	nf.Functions = functions
	if err := n.checkSize(nf); err != nil {
		return nil, err
	}
	return nf, nil
}

func (n *Normalizer) intersectFunctions(a, b NormalizedFunctionType) (NormalizedFunctionType, error) {
	switch {
	case a.Top:
		return b, nil
	case b.Top:
		return a, nil
	case a.IsNever() || b.IsNever():
		return NormalizedFunctionType{}, nil
	}
	if len(a.Parts) == 1 && len(b.Parts) == 1 && Equal(a.Parts[0], b.Parts[0]) {
		return a, nil
	}
	// an overload: all parts must hold at once
	combined := append(append([]TypeId(nil), a.Parts...), b.Parts...)
	return NormalizedFunctionType{Parts: []TypeId{n.arena.Intersection(combined...)}}, nil
}

func (n *Normalizer) intersectTables(a, b []TypeId) ([]TypeId, error) {
	if len(a) == 0 || len(b) == 0 {
		return nil, nil
	}
	var out []TypeId
	for _, x := range a {
		for _, y := range b {
			met, inhabited, err := n.tableMeet(x, y)
			if err != nil {
				return nil, err
			}
			if inhabited {
				out = append(out, met)
			}
		}
	}
	return dedupeTypes(out), nil
}

// tableMeet computes the greatest table satisfying both operands. The bool
// return is false when the meet is uninhabited.
func (n *Normalizer) tableMeet(x, y TypeId) (TypeId, bool, error) {
	if Equal(x, y) {
		return x, true, nil
	}
	if Equal(x, n.builtins.TableTop) {
		return y, true, nil
	}
	if Equal(y, n.builtins.TableTop) {
		return x, true, nil
	}
	tx, okX := x.(*TableType)
	ty, okY := y.(*TableType)
	if !okX || !okY {
		// metatable meets have no simple bucket form
		return nil, false, ErrNormalizationTooComplex
	}

	props := make(map[string]Property, len(tx.Props)+len(ty.Props))
	for name, prop := range tx.Props {
		props[name] = prop
	}
	for name, prop := range ty.Props {
		existing, shared := props[name]
		if !shared {
			props[name] = prop
			continue
		}
		merged := Property{ReadOnly: existing.ReadOnly && prop.ReadOnly}
		if Equal(existing.Ty, prop.Ty) {
			merged.Ty = existing.Ty
		} else {
			merged.Ty = n.arena.Intersection(existing.Ty, prop.Ty)
		}
		props[name] = merged
	}

	var indexer *TableIndexer
	switch {
	case tx.Indexer == nil:
		indexer = ty.Indexer
	case ty.Indexer == nil:
		indexer = tx.Indexer
	case Equal(tx.Indexer.Key, ty.Indexer.Key) && Equal(tx.Indexer.Value, ty.Indexer.Value):
		indexer = tx.Indexer
	default:
		return nil, false, ErrNormalizationTooComplex
	}

	state := tx.State
	if tx.State != ty.State {
		state = TableSealed
	}
	return n.arena.Table(props, indexer, state), true, nil
}

// subtractTy removes a single type from a normal form. Only shapes whose
// complement fits the buckets are supported; everything else overflows.
func (n *Normalizer) subtractTy(nf *NormalizedType, ty TypeId) (*NormalizedType, error) {
	if !n.limits.take() {
		return nil, ErrNormalizationTooComplex
	}
	nf = n.expandTops(nf)
	out := *nf
	out.Tables = append([]TypeId(nil), nf.Tables...)
	never := n.builtins.Never

	switch t := ty.(type) {
	case *AnyType:
		return n.emptyNormal(), nil
	case *UnknownType:
		empty := n.emptyNormal()
		empty.Errors = nf.Errors
		return empty, nil
	case *NeverType:
		return nf, nil
	case *ErrorType:
		out.Errors = never
	case *PrimitiveType:
		switch t.Kind {
		case NilKind:
			out.Nils = never
		case BooleanKind:
			out.Booleans = never
		case NumberKind:
			out.Numbers = never
		case ThreadKind:
			out.Threads = never
		case BufferKind:
			out.Buffers = never
		case StringKind:
			out.Strings = stringsNever()
		case TopTableKind:
			out.Tables = nil
		case TopFunctionKind:
			out.Functions = NormalizedFunctionType{}
		default:
			return nil, errors.Errorf("unknown primitive kind %d", t.Kind)
		}
	case *StringSingletonType:
		out.Strings = subtractStrings(nf.Strings, NormalizedStringType{Literals: []string{t.Value}})
	case *BooleanSingletonType:
		switch {
		case Equal(nf.Booleans, never):
		case Equal(nf.Booleans, n.builtins.Boolean):
			if t.Value {
				out.Booleans = n.builtins.False
			} else {
				out.Booleans = n.builtins.True
			}
		case Equal(nf.Booleans, TypeId(t)):
			out.Booleans = never
		}
	case *ClassType:
		classes, err := subtractClass(nf.Classes, t)
		if err != nil {
			return nil, err
		}
		out.Classes = classes
	case *UnionType:
		acc := nf
		for _, member := range t.Members {
			var err error
			acc, err = n.subtractTy(acc, member)
			if err != nil {
				return nil, err
			}
		}
		return acc, nil
	case *IntersectionType:
		// nf minus (A and B) is (nf minus A) or (nf minus B)
		acc := n.emptyNormal()
		for _, member := range t.Members {
			part, err := n.subtractTy(nf, member)
			if err != nil {
				return nil, err
			}
			acc = n.unionNormals(acc, part)
		}
		return acc, nil
	case *NegationType:
		inner, err := n.Normalize(t.Negated)
		if err != nil {
			return nil, err
		}
		return n.intersectNormals(nf, inner)
	case *TableType, *MetatableType:
		switch {
		case len(nf.Tables) == 0:
		case len(nf.Tables) == 1 && Equal(nf.Tables[0], ty):
			out.Tables = nil
		default:
			return nil, ErrNormalizationTooComplex
		}
	case *FunctionType:
		switch {
		case nf.Functions.IsNever():
		case !nf.Functions.Top && len(nf.Functions.Parts) == 1 && Equal(nf.Functions.Parts[0], ty):
			out.Functions = NormalizedFunctionType{}
		default:
			return nil, ErrNormalizationTooComplex
		}
	default:
		return nil, ErrNormalizationTooComplex
	}
	return &out, nil
}
