// Package hset implements a set of hashable elements, JVM style
package hset

import (
	"github.com/hashicorp/go-set/v3"
	"iter"
)

// HSet is a set of elements keyed by their Hash which also remembers
// insertion order. Two sets built by the same sequence of inserts iterate
// identically, which keeps downstream output deterministic.
//
// use immutable.Set if you are not going to be modifying this
// as it is more copy efficient
type HSet[A set.Hasher[uint64]] struct {
	index map[uint64]int
	items []A
}

func Empty[A set.Hasher[uint64]]() *HSet[A] {
	return &HSet[A]{
		index: make(map[uint64]int),
	}
}

func New[A set.Hasher[uint64]](elems ...A) *HSet[A] {
	n := &HSet[A]{
		index: make(map[uint64]int, len(elems)),
	}
	n.Add(elems...)
	return n
}

func (s *HSet[A]) Add(elems ...A) {
	for _, elem := range elems {
		h := elem.Hash()
		if _, ok := s.index[h]; ok {
			continue
		}
		s.index[h] = len(s.items)
		s.items = append(s.items, elem)
	}
}

func (s *HSet[A]) Contains(elem A) bool {
	if s == nil {
		return false
	}
	_, ok := s.index[elem.Hash()]
	return ok
}

func (s *HSet[A]) Len() int {
	if s == nil {
		return 0
	}
	return len(s.items)
}

func (s *HSet[A]) IsEmpty() bool {
	return s.Len() == 0
}

// Union inserts every element of other, preserving the receiver's order for
// elements already present.
func (s *HSet[A]) Union(other *HSet[A]) {
	if other == nil {
		return
	}
	s.Add(other.items...)
}

func (s *HSet[A]) Copy() *HSet[A] {
	if s == nil {
		return Empty[A]()
	}
	return New(s.items...)
}

// All ranges over the elements in insertion order.
func (s *HSet[A]) All() iter.Seq[A] {
	return func(yield func(A) bool) {
		if s == nil {
			return
		}
		for _, elem := range s.items {
			if !yield(elem) {
				return
			}
		}
	}
}

func (s *HSet[A]) Slice() []A {
	if s == nil {
		return nil
	}
	out := make([]A, len(s.items))
	copy(out, s.items)
	return out
}

// Equal reports whether both sets hold the same elements, in any order.
func (s *HSet[A]) Equal(other *HSet[A]) bool {
	if s.Len() != other.Len() {
		return false
	}
	if s == nil {
		return true
	}
	for h := range s.index {
		if _, ok := other.index[h]; !ok {
			return false
		}
	}
	return true
}
