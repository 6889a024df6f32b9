package types

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestNormalizer() (*TypeArena, *Builtins, *Normalizer) {
	arena := NewArena()
	builtins := NewBuiltins(arena)
	return arena, builtins, NewNormalizer(arena, builtins, DefaultLimits(context.Background()))
}

func TestNormalizeScalarBuckets(t *testing.T) {
	arena, builtins, n := newTestNormalizer()

	t.Run("primitives land in their bucket", func(t *testing.T) {
		nf, err := n.Normalize(builtins.Number)
		assert.NoError(t, err)
		assert.True(t, Equal(nf.Numbers, builtins.Number))
		assert.True(t, Equal(nf.Booleans, builtins.Never))
		assert.True(t, nf.Strings.IsNever())
	})

	t.Run("boolean singleton stays narrow", func(t *testing.T) {
		nf, err := n.Normalize(builtins.True)
		assert.NoError(t, err)
		assert.True(t, Equal(nf.Booleans, builtins.True))
	})

	t.Run("both singletons widen to the primitive", func(t *testing.T) {
		nf, err := n.Normalize(arena.Union(builtins.True, builtins.False))
		assert.NoError(t, err)
		assert.True(t, Equal(nf.Booleans, builtins.Boolean))
	})

	t.Run("union spreads across buckets", func(t *testing.T) {
		nf, err := n.Normalize(arena.Union(builtins.Number, builtins.String))
		assert.NoError(t, err)
		assert.True(t, Equal(nf.Numbers, builtins.Number))
		assert.True(t, nf.Strings.IsAll())
		assert.True(t, Equal(nf.Booleans, builtins.Never))
	})

	t.Run("never is empty", func(t *testing.T) {
		nf, err := n.Normalize(builtins.Never)
		assert.NoError(t, err)
		assert.True(t, nf.IsNever(builtins))
	})

	t.Run("tops are kept symbolic", func(t *testing.T) {
		nf, err := n.Normalize(builtins.Unknown)
		assert.NoError(t, err)
		assert.True(t, Equal(nf.Tops, builtins.Unknown))

		nf, err = n.Normalize(builtins.Any)
		assert.NoError(t, err)
		assert.True(t, Equal(nf.Tops, builtins.Any))
	})

	t.Run("error has its own bucket", func(t *testing.T) {
		nf, err := n.Normalize(builtins.Error)
		assert.NoError(t, err)
		assert.True(t, Equal(nf.Errors, builtins.Error))
		assert.True(t, Equal(nf.Numbers, builtins.Never))
	})
}

func TestNormalizeStringSets(t *testing.T) {
	arena, builtins, n := newTestNormalizer()
	lit := func(s string) TypeId { return arena.StringSingleton(s) }

	t.Run("literal union is a finite set", func(t *testing.T) {
		nf, err := n.Normalize(arena.Union(lit("a"), lit("b")))
		assert.NoError(t, err)
		assert.False(t, nf.Strings.Cofinite)
		assert.Equal(t, []string{"a", "b"}, nf.Strings.Literals)
	})

	t.Run("negated literal is cofinite", func(t *testing.T) {
		nf, err := n.Normalize(arena.Negation(lit("a")))
		assert.NoError(t, err)
		assert.True(t, nf.Strings.Cofinite)
		assert.Equal(t, []string{"a"}, nf.Strings.Literals)
	})

	t.Run("string minus literal", func(t *testing.T) {
		nf, err := n.Normalize(arena.Intersection(builtins.String, arena.Negation(lit("a"))))
		assert.NoError(t, err)
		assert.True(t, nf.Strings.Cofinite)
		assert.Equal(t, []string{"a"}, nf.Strings.Literals)
	})

	t.Run("finite set minus literal", func(t *testing.T) {
		nf, err := n.Normalize(arena.Intersection(arena.Union(lit("a"), lit("b")), arena.Negation(lit("a"))))
		assert.NoError(t, err)
		assert.False(t, nf.Strings.Cofinite)
		assert.Equal(t, []string{"b"}, nf.Strings.Literals)
	})

	t.Run("union of complements covers everything", func(t *testing.T) {
		nf, err := n.Normalize(arena.Union(arena.Negation(lit("a")), arena.Negation(lit("b"))))
		assert.NoError(t, err)
		assert.True(t, nf.Strings.IsAll())
	})

	t.Run("intersection of complements excludes both", func(t *testing.T) {
		nf, err := n.Normalize(arena.Intersection(arena.Negation(lit("a")), arena.Negation(lit("b"))))
		assert.NoError(t, err)
		assert.True(t, nf.Strings.Cofinite)
		assert.Equal(t, []string{"a", "b"}, nf.Strings.Literals)
	})
}

func TestNormalizeClasses(t *testing.T) {
	arena, builtins, n := newTestNormalizer()
	animal := arena.Class("Animal", nil, nil, nil)
	dog := arena.Class("Dog", animal, nil, nil)
	cat := arena.Class("Cat", animal, nil, nil)

	t.Run("single class entry", func(t *testing.T) {
		nf, err := n.Normalize(dog)
		assert.NoError(t, err)
		if assert.Len(t, nf.Classes.Entries, 1) {
			assert.True(t, Equal(nf.Classes.Entries[0].Class, dog))
			assert.Empty(t, nf.Classes.Entries[0].Negations)
		}
	})

	t.Run("sibling intersection is empty", func(t *testing.T) {
		nf, err := n.Normalize(arena.Intersection(dog, cat))
		assert.NoError(t, err)
		assert.True(t, nf.IsNever(builtins))
	})

	t.Run("parent and child meet at the child", func(t *testing.T) {
		nf, err := n.Normalize(arena.Intersection(animal, dog))
		assert.NoError(t, err)
		if assert.Len(t, nf.Classes.Entries, 1) {
			assert.True(t, Equal(nf.Classes.Entries[0].Class, dog))
		}
	})

	t.Run("parent union child collapses to the parent", func(t *testing.T) {
		nf, err := n.Normalize(arena.Union(dog, animal))
		assert.NoError(t, err)
		if assert.Len(t, nf.Classes.Entries, 1) {
			assert.True(t, Equal(nf.Classes.Entries[0].Class, animal))
		}
	})

	t.Run("negation carves a subclass out", func(t *testing.T) {
		nf, err := n.Normalize(arena.Intersection(animal, arena.Negation(dog)))
		assert.NoError(t, err)
		if assert.Len(t, nf.Classes.Entries, 1) {
			entry := nf.Classes.Entries[0]
			assert.True(t, Equal(entry.Class, animal))
			if assert.Len(t, entry.Negations, 1) {
				assert.True(t, Equal(entry.Negations[0], dog))
			}
		}
	})

	t.Run("other buckets survive the carve", func(t *testing.T) {
		nf, err := n.Normalize(arena.Intersection(
			arena.Union(animal, builtins.Number), arena.Negation(dog)))
		assert.NoError(t, err)
		assert.True(t, Equal(nf.Numbers, builtins.Number))
		assert.Len(t, nf.Classes.Entries, 1)
	})
}

func TestNormalizeTablesAndFunctions(t *testing.T) {
	arena, builtins, n := newTestNormalizer()
	t1 := arena.Table(map[string]Property{"a": {Ty: builtins.Number}}, nil, TableSealed)
	t2 := arena.Table(map[string]Property{"b": {Ty: builtins.String}}, nil, TableSealed)
	fnA := arena.Function(nil, nil, arena.Pack([]TypeId{builtins.Number}, nil), arena.EmptyPack())
	fnB := arena.Function(nil, nil, arena.Pack([]TypeId{builtins.String}, nil), arena.EmptyPack())

	t.Run("table union keeps both parts", func(t *testing.T) {
		nf, err := n.Normalize(arena.Union(t1, t2))
		assert.NoError(t, err)
		assert.Len(t, nf.Tables, 2)
	})

	t.Run("table top absorbs into the other operand", func(t *testing.T) {
		nf, err := n.Normalize(arena.Intersection(builtins.TableTop, t1))
		assert.NoError(t, err)
		if assert.Len(t, nf.Tables, 1) {
			assert.True(t, Equal(nf.Tables[0], t1))
		}
	})

	t.Run("table meet merges properties", func(t *testing.T) {
		nf, err := n.Normalize(arena.Intersection(t1, t2))
		assert.NoError(t, err)
		merged := arena.Table(map[string]Property{
			"a": {Ty: builtins.Number},
			"b": {Ty: builtins.String},
		}, nil, TableSealed)
		if assert.Len(t, nf.Tables, 1) {
			assert.True(t, Equal(nf.Tables[0], merged),
				"got %v, want %v", nf.Tables[0], merged)
		}
	})

	t.Run("function union keeps both parts", func(t *testing.T) {
		nf, err := n.Normalize(arena.Union(fnA, fnB))
		assert.NoError(t, err)
		assert.Len(t, nf.Functions.Parts, 2)
	})

	t.Run("function intersection folds to one overload part", func(t *testing.T) {
		nf, err := n.Normalize(arena.Intersection(fnA, fnB))
		assert.NoError(t, err)
		if assert.Len(t, nf.Functions.Parts, 1) {
			assert.True(t, Equal(nf.Functions.Parts[0], arena.Intersection(fnA, fnB)))
		}
	})
}

func TestNormalizeOverflow(t *testing.T) {
	arena, builtins, n := newTestNormalizer()
	plainTable := arena.Table(map[string]Property{"a": {Ty: builtins.Number}}, nil, TableSealed)
	plainFn := arena.Function(nil, nil, arena.EmptyPack(), arena.EmptyPack())

	t.Run("negated table has no bucket form", func(t *testing.T) {
		_, err := n.Normalize(arena.Negation(plainTable))
		assert.ErrorIs(t, err, ErrNormalizationTooComplex)
	})

	t.Run("negated function has no bucket form", func(t *testing.T) {
		_, err := n.Normalize(arena.Negation(plainFn))
		assert.ErrorIs(t, err, ErrNormalizationTooComplex)
	})

	t.Run("negated table top is representable", func(t *testing.T) {
		nf, err := n.Normalize(arena.Negation(builtins.TableTop))
		assert.NoError(t, err)
		assert.Empty(t, nf.Tables)
		assert.True(t, nf.Functions.Top, "everything but the tables survives")
	})

	t.Run("rigid generics never normalize", func(t *testing.T) {
		g := arena.FreshGeneric("T")
		_, err := n.Normalize(g)
		assert.ErrorIs(t, err, ErrNormalizationTooComplex)

		_, memoized := n.memo.Get(g)
		assert.False(t, memoized, "failures must not be memoized")
	})

	t.Run("oversized literal sets give up", func(t *testing.T) {
		members := make([]TypeId, 0, maxNormalizedSetSize+1)
		for i := 0; i <= maxNormalizedSetSize; i++ {
			members = append(members, arena.StringSingleton(fmt.Sprintf("k%03d", i)))
		}
		_, err := n.Normalize(arena.Union(members...))
		assert.ErrorIs(t, err, ErrNormalizationTooComplex)
	})
}

func TestNormalizeMemoization(t *testing.T) {
	arena, builtins, n := newTestNormalizer()

	t.Run("repeated queries share one form", func(t *testing.T) {
		union := arena.Union(builtins.Number, builtins.String)
		first, err := n.Normalize(union)
		assert.NoError(t, err)
		second, err := n.Normalize(union)
		assert.NoError(t, err)
		assert.Same(t, first, second)
	})

	t.Run("memoized members rescue a retried query", func(t *testing.T) {
		limits := NewLimits(context.Background(), 3)
		bounded := NewNormalizer(arena, builtins, limits)
		union := arena.Union(builtins.Number, builtins.Boolean)

		_, err := bounded.Normalize(union)
		assert.ErrorIs(t, err, ErrNormalizationTooComplex,
			"three steps cannot cover the union and both members")

		limits.reset()
		nf, err := bounded.Normalize(union)
		assert.NoError(t, err, "the first member was memoized before the budget ran out")
		assert.True(t, Equal(nf.Numbers, builtins.Number))
		assert.True(t, Equal(nf.Booleans, builtins.Boolean))
	})
}
