package internal

import (
	"errors"
	"fmt"
	"slices"
)

var ErrKeyNotFound = errors.New("key not found")

// Cloner is implemented by every value stored in a Lookup, so that cloning
// a Lookup never shares a stored value between the copies.
type Cloner[T any] interface {
	Clone() T
}

// Lookup is an ordered multi-map. Keys are traversed in the order they were
// first added, and values for a key keep their registration order.
type Lookup[K comparable, V Cloner[V]] struct {
	keys    []K
	entries map[K][]V
}

func NewLookup[K comparable, V Cloner[V]]() *Lookup[K, V] {
	return &Lookup[K, V]{
		keys:    []K{},
		entries: map[K][]V{},
	}
}

func (l *Lookup[K, V]) Add(key K, value V) {
	values, found := l.entries[key]
	if !found {
		l.keys = append(l.keys, key)
	}
	l.entries[key] = append(values, value)
}

func (l *Lookup[K, V]) Get(key K) ([]V, error) {
	values, found := l.entries[key]
	if !found {
		return nil, fmt.Errorf("%w: %v", ErrKeyNotFound, key)
	}
	return values, nil
}

func (l *Lookup[K, V]) HasKey(key K) bool {
	_, found := l.entries[key]
	return found
}

func (l *Lookup[K, V]) Remove(key K) error {
	if !l.HasKey(key) {
		return fmt.Errorf("%w: %v", ErrKeyNotFound, key)
	}
	delete(l.entries, key)
	l.keys = slices.DeleteFunc(l.keys, func(k K) bool { return k == key })
	return nil
}

// RemoveByCondition removes every value matching condition, under all keys,
// and returns the removed values in traversal order. Keys left without
// values are dropped.
func (l *Lookup[K, V]) RemoveByCondition(condition func(value V) bool) []V {
	removed := []V{}
	for _, key := range slices.Clone(l.keys) {
		kept := []V{}
		for _, value := range l.entries[key] {
			if condition(value) {
				removed = append(removed, value)
			} else {
				kept = append(kept, value)
			}
		}
		if len(kept) == 0 {
			delete(l.entries, key)
			l.keys = slices.DeleteFunc(l.keys, func(k K) bool { return k == key })
		} else {
			l.entries[key] = kept
		}
	}
	return removed
}

func (l *Lookup[K, V]) Traverse(fn func(key K, values []V)) {
	for _, key := range slices.Clone(l.keys) {
		fn(key, l.entries[key])
	}
}

func (l *Lookup[K, V]) Len() int {
	return len(l.keys)
}

func (l *Lookup[K, V]) Clone() *Lookup[K, V] {
	clone := NewLookup[K, V]()
	for _, key := range l.keys {
		for _, value := range l.entries[key] {
			clone.Add(key, value.Clone())
		}
	}
	return clone
}
