package types

import (
	set "github.com/hashicorp/go-set/v3"
)

// typePair is one in-progress judgement. Both the coinductive seen set and
// the caches key on the ordered pair, never on single ids.
type typePair struct {
	Sub   TypeId
	Super TypeId
}

// Hash generates a hash for typePair; the mix is asymmetric so (a, b) and
// (b, a) stay distinct
func (p typePair) Hash() uint64 {
	const prime1 uint64 = 16777619
	return p.Sub.Hash()*prime1 ^ p.Super.Hash()*31
}

// GenericBounds are the bounds inferred so far for one flexible generic.
// They only ever grow during a query; the coherence of lower against upper
// is checked once the whole query is done.
type GenericBounds struct {
	Lower *set.HashSet[TypeId, uint64]
	Upper *set.HashSet[TypeId, uint64]
}

func newGenericBounds() *GenericBounds {
	return &GenericBounds{
		Lower: set.NewHashSet[TypeId, uint64](0),
		Upper: set.NewHashSet[TypeId, uint64](0),
	}
}

// SubtypingEnvironment is the scratch state of one top-level query. It never
// outlives the query: on failure it is discarded wholesale, which is what
// makes tentative generic bounds safe.
type SubtypingEnvironment struct {
	// mappedGenerics holds bounds for every generic currently flexible.
	// A generic absent from this map is rigid.
	mappedGenerics map[TypeId]*GenericBounds
	// genericOrder remembers seeding order so the end-of-query bounds check
	// runs deterministically.
	genericOrder []TypeId

	// mappedGenericPacks: a key present with a nil value is a flexible pack
	// not yet bound; a non-nil value is its tentative binding.
	mappedGenericPacks map[TypePackId]TypePackId
	packOrder          []TypePackId

	seenTypes *set.HashSet[typePair, uint64]

	// ephemeralCache keeps results that must not outlive the query, such as
	// anything derived from a mapped generic.
	ephemeralCache map[typePair]SubtypingResult
}

func newEnvironment() *SubtypingEnvironment {
	return &SubtypingEnvironment{
		mappedGenerics:     make(map[TypeId]*GenericBounds),
		mappedGenericPacks: make(map[TypePackId]TypePackId),
		seenTypes:          set.NewHashSet[typePair, uint64](0),
		ephemeralCache:     make(map[typePair]SubtypingResult),
	}
}

// makeFlexible brings a generic into scope with empty bounds. Seeding twice
// is a no-op, so shared generic nodes keep their accumulated bounds.
func (env *SubtypingEnvironment) makeFlexible(generic TypeId) {
	if _, ok := env.mappedGenerics[generic]; ok {
		return
	}
	env.mappedGenerics[generic] = newGenericBounds()
	env.genericOrder = append(env.genericOrder, generic)
}

func (env *SubtypingEnvironment) isFlexible(generic TypeId) bool {
	_, ok := env.mappedGenerics[generic]
	return ok
}

func (env *SubtypingEnvironment) makePackFlexible(pack TypePackId) {
	if _, ok := env.mappedGenericPacks[pack]; ok {
		return
	}
	env.mappedGenericPacks[pack] = nil
	env.packOrder = append(env.packOrder, pack)
}

func (env *SubtypingEnvironment) isPackFlexible(pack TypePackId) bool {
	_, ok := env.mappedGenericPacks[pack]
	return ok
}

// bindPack records a tentative binding for a flexible generic pack. The
// second return is false when the pack already has a different binding.
func (env *SubtypingEnvironment) bindPack(generic TypePackId, to TypePackId) (TypePackId, bool) {
	existing := env.mappedGenericPacks[generic]
	if existing == nil {
		env.mappedGenericPacks[generic] = to
		return to, true
	}
	if Equal(existing, to) {
		return existing, true
	}
	return existing, false
}

func (env *SubtypingEnvironment) usedGenerics() bool {
	return len(env.mappedGenerics) > 0 || len(env.mappedGenericPacks) > 0
}
