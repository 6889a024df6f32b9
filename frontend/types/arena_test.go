package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestArenaInternsStructurally(t *testing.T) {
	arena := NewArena()
	builtins := NewBuiltins(arena)

	t.Run("primitives", func(t *testing.T) {
		assert.Same(t, builtins.Number, arena.Primitive(NumberKind))
		assert.Same(t, arena.Primitive(StringKind), arena.Primitive(StringKind))
		assert.NotSame(t, arena.Primitive(StringKind), arena.Primitive(NumberKind))
	})

	t.Run("singletons", func(t *testing.T) {
		assert.Same(t, arena.StringSingleton("hi"), arena.StringSingleton("hi"))
		assert.NotSame(t, arena.StringSingleton("hi"), arena.StringSingleton("bye"))
		assert.Same(t, builtins.True, arena.BooleanSingleton(true))
	})

	t.Run("tables hash by shape", func(t *testing.T) {
		first := arena.Table(map[string]Property{"a": {Ty: builtins.Number}}, nil, TableSealed)
		second := arena.Table(map[string]Property{"a": {Ty: builtins.Number}}, nil, TableSealed)
		assert.Same(t, first, second)

		readOnly := arena.Table(map[string]Property{"a": {Ty: builtins.Number, ReadOnly: true}}, nil, TableSealed)
		assert.NotSame(t, first, readOnly)

		unsealed := arena.Table(map[string]Property{"a": {Ty: builtins.Number}}, nil, TableUnsealed)
		assert.NotSame(t, first, unsealed)
	})

	t.Run("functions hash by signature", func(t *testing.T) {
		first := makeFn(arena, []TypeId{builtins.Number}, []TypeId{builtins.String})
		second := makeFn(arena, []TypeId{builtins.Number}, []TypeId{builtins.String})
		assert.Same(t, first, second)
	})

	t.Run("generics are generative", func(t *testing.T) {
		first := arena.FreshGeneric("T")
		second := arena.FreshGeneric("T")
		assert.NotSame(t, first, second)
		assert.False(t, Equal(first, second), "same-named fresh generics stay distinct")

		firstPack := arena.FreshGenericPack("A")
		secondPack := arena.FreshGenericPack("A")
		assert.False(t, Equal(firstPack, secondPack))
	})
}

func TestUnionCanonicalization(t *testing.T) {
	arena := NewArena()
	builtins := NewBuiltins(arena)

	t.Run("member order does not matter", func(t *testing.T) {
		assert.Same(t,
			arena.Union(builtins.Number, builtins.String),
			arena.Union(builtins.String, builtins.Number))
	})

	t.Run("duplicates collapse", func(t *testing.T) {
		assert.Same(t, builtins.Number, arena.Union(builtins.Number, builtins.Number))
	})

	t.Run("single member collapses", func(t *testing.T) {
		assert.Same(t, builtins.Number, arena.Union(builtins.Number))
	})

	t.Run("nested unions flatten", func(t *testing.T) {
		nested := arena.Union(arena.Union(builtins.Number, builtins.String), builtins.Boolean)
		flat := arena.Union(builtins.Number, builtins.String, builtins.Boolean)
		assert.Same(t, flat, nested)
	})

	t.Run("no members is never", func(t *testing.T) {
		assert.Same(t, builtins.Never, arena.Union())
	})
}

func TestIntersectionCanonicalization(t *testing.T) {
	arena := NewArena()
	builtins := NewBuiltins(arena)

	t.Run("member order does not matter", func(t *testing.T) {
		assert.Same(t,
			arena.Intersection(builtins.Number, builtins.String),
			arena.Intersection(builtins.String, builtins.Number))
	})

	t.Run("nested intersections flatten", func(t *testing.T) {
		nested := arena.Intersection(arena.Intersection(builtins.Number, builtins.String), builtins.Boolean)
		flat := arena.Intersection(builtins.Number, builtins.String, builtins.Boolean)
		assert.Same(t, flat, nested)
	})

	t.Run("union members stay whole", func(t *testing.T) {
		union := arena.Union(builtins.Number, builtins.String)
		inter, ok := arena.Intersection(union, builtins.Boolean).(*IntersectionType)
		if assert.True(t, ok) {
			assert.Len(t, inter.Members, 2)
		}
	})

	t.Run("no members is unknown", func(t *testing.T) {
		assert.Same(t, builtins.Unknown, arena.Intersection())
	})
}

func TestPackCanonicalization(t *testing.T) {
	arena := NewArena()
	builtins := NewBuiltins(arena)

	t.Run("pack tails flatten into the head", func(t *testing.T) {
		chained := arena.Pack([]TypeId{builtins.Number}, arena.Pack([]TypeId{builtins.String}, nil))
		flat := arena.Pack([]TypeId{builtins.Number, builtins.String}, nil)
		assert.Same(t, flat, chained)
	})

	t.Run("variadic tails survive flattening", func(t *testing.T) {
		chained := arena.Pack([]TypeId{builtins.Number},
			arena.Pack([]TypeId{builtins.String}, arena.Variadic(builtins.Boolean)))
		flat := arena.Pack([]TypeId{builtins.Number, builtins.String}, arena.Variadic(builtins.Boolean))
		assert.Same(t, flat, chained)

		pack, ok := flat.(*TypePack)
		if assert.True(t, ok) {
			assert.Len(t, pack.Head, 2)
			_, isVariadic := pack.Tail.(*VariadicTypePack)
			assert.True(t, isVariadic)
		}
	})

	t.Run("empty pack is shared", func(t *testing.T) {
		assert.Same(t, arena.EmptyPack(), arena.Pack(nil, nil))
	})

	t.Run("prepend builds the same pack as direct construction", func(t *testing.T) {
		direct := arena.Pack([]TypeId{builtins.Number, builtins.String}, nil)
		prepended := arena.PrependPack(builtins.Number, arena.Pack([]TypeId{builtins.String}, nil))
		assert.Same(t, direct, prepended)

		ontoVariadic := arena.PrependPack(builtins.Number, arena.Variadic(builtins.String))
		assert.Same(t, arena.Pack([]TypeId{builtins.Number}, arena.Variadic(builtins.String)), ontoVariadic)

		ontoNothing := arena.PrependPack(builtins.Number, nil)
		assert.Same(t, arena.Pack([]TypeId{builtins.Number}, nil), ontoNothing)
	})
}
