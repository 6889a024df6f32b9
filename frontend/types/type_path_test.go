package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPathString(t *testing.T) {
	testCases := []struct {
		name     string
		path     Path
		expected string
	}{
		{"empty", EmptyPath(), ""},
		{"field then index", NewPath(FieldPath("a"), IndexPath(0)), ".a[0]"},
		{"parameter", NewPath(ParamPath(1)), ".param(1)"},
		{"return", NewPath(ReturnPath(0)), ".ret(0)"},
		{"union member", NewPath(ParamPath(0), UnionMemberPath(2)), ".param(0).union(2)"},
		{"intersection member", NewPath(IntersectionMemberPath(1)), ".intersection(1)"},
		{"variadic", NewPath(VariadicPath), ".variadic()"},
		{"negated", NewPath(NegatedPath), ".negated()"},
		{"metatable field", NewPath(MetatablePath, FieldPath("__index")), ".metatable().__index"},
		{"indexer", NewPath(IndexerKeyPath, IndexerValuePath), ".indexkey().indexvalue()"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.path.String())
		})
	}
}

func TestPathPushDoesNotMutate(t *testing.T) {
	base := NewPath(FieldPath("a"))
	extended := base.Push(IndexPath(0))

	assert.Equal(t, 1, base.Len())
	assert.Equal(t, 2, extended.Len())
	assert.Equal(t, ".a", base.String())
	assert.Equal(t, ".a[0]", extended.String())
}

func TestPathPrepend(t *testing.T) {
	inner := NewPath(IndexPath(0))
	prefixed := inner.Prepend(NewPath(FieldPath("a")))
	assert.Equal(t, ".a[0]", prefixed.String())
	assert.Equal(t, "[0]", inner.String(), "prepending copies")

	assert.True(t, inner.Prepend(EmptyPath()).Equal(inner))
}

func TestPathEquality(t *testing.T) {
	a := NewPath(FieldPath("x"), ParamPath(1))
	b := NewPath(FieldPath("x"), ParamPath(1))
	c := NewPath(FieldPath("x"), ParamPath(2))

	assert.True(t, a.Equal(b))
	assert.Equal(t, a.Hash(), b.Hash())
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(EmptyPath()))
	assert.True(t, EmptyPath().Equal(Path{}), "the zero value is the empty path")
}

func TestComponentsCopies(t *testing.T) {
	path := NewPath(FieldPath("a"), FieldPath("b"))
	comps := path.Components()
	comps[0] = IndexPath(9)
	assert.Equal(t, ".a.b", path.String(), "mutating the copy leaves the path alone")
}
