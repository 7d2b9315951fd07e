// Package util contains small generic container helpers shared by the
// automata-construction packages: ordered sets of comparable keys, a LIFO
// stack, and deterministic map-iteration helpers, all built on plain Go
// maps plus generics.
package util

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

// KeySet is a set of comparable, orderable keys. The zero value is not
// usable; construct with NewKeySet.
type KeySet[E cmp.Ordered] map[E]struct{}

// NewKeySet returns a new, empty KeySet.
func NewKeySet[E cmp.Ordered](of ...E) KeySet[E] {
	s := KeySet[E]{}
	for _, e := range of {
		s.Add(e)
	}
	return s
}

// Add adds value to the set. No effect if already present.
func (s KeySet[E]) Add(value E) {
	s[value] = struct{}{}
}

// AddAll adds every element of other to s.
func (s KeySet[E]) AddAll(other KeySet[E]) {
	for k := range other {
		s.Add(k)
	}
}

// Remove removes value from the set. No effect if absent.
func (s KeySet[E]) Remove(value E) {
	delete(s, value)
}

// Has returns whether value is in the set.
func (s KeySet[E]) Has(value E) bool {
	_, ok := s[value]
	return ok
}

// Len returns the number of elements in the set.
func (s KeySet[E]) Len() int {
	return len(s)
}

// Empty returns whether the set has no elements.
func (s KeySet[E]) Empty() bool {
	return len(s) == 0
}

// Copy returns a shallow duplicate of s.
func (s KeySet[E]) Copy() KeySet[E] {
	newS := make(KeySet[E], len(s))
	for k := range s {
		newS[k] = struct{}{}
	}
	return newS
}

// Union returns a new set containing every element of s and other.
func (s KeySet[E]) Union(other KeySet[E]) KeySet[E] {
	newS := s.Copy()
	newS.AddAll(other)
	return newS
}

// Intersection returns a new set containing only elements present in both s
// and other.
func (s KeySet[E]) Intersection(other KeySet[E]) KeySet[E] {
	newS := NewKeySet[E]()
	for k := range s {
		if other.Has(k) {
			newS.Add(k)
		}
	}
	return newS
}

// Any returns whether any element of s satisfies predicate.
func (s KeySet[E]) Any(predicate func(E) bool) bool {
	for k := range s {
		if predicate(k) {
			return true
		}
	}
	return false
}

// Elements returns the elements of s sorted in ascending order. Sorting
// (rather than arbitrary map order) is required for the deterministic
// enumeration the driver promises: indices and enumerations must not depend
// on Go's randomized map iteration.
func (s KeySet[E]) Elements() []E {
	elems := make([]E, 0, len(s))
	for k := range s {
		elems = append(elems, k)
	}
	slices.Sort(elems)
	return elems
}

// String renders the set contents in ascending order.
func (s KeySet[E]) String() string {
	elems := s.Elements()
	parts := make([]string, len(elems))
	for i, e := range elems {
		parts[i] = fmt.Sprintf("%v", e)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Min returns the smallest element of s. Panics if s is empty; callers must
// check Empty() first.
func (s KeySet[E]) Min() E {
	elems := s.Elements()
	return elems[0]
}

// OrderedKeys returns the keys of m sorted in ascending order.
func OrderedKeys[K cmp.Ordered, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Stack is a simple LIFO stack. The iterative traversals in this repository
// (worklist expansion, iterative Tarjan) keep their own slices and do not
// use it.
type Stack[T any] struct {
	items []T
}

// Push adds an item to the top of the stack.
func (s *Stack[T]) Push(item T) {
	s.items = append(s.items, item)
}

// Pop removes and returns the top item. Panics if the stack is empty.
func (s *Stack[T]) Pop() T {
	n := len(s.items)
	item := s.items[n-1]
	s.items = s.items[:n-1]
	return item
}

// Peek returns the top item without removing it. Panics if the stack is
// empty.
func (s *Stack[T]) Peek() T {
	return s.items[len(s.items)-1]
}

// Len returns the number of items on the stack.
func (s *Stack[T]) Len() int {
	return len(s.items)
}
