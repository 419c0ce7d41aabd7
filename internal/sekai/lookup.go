package sekai

import "sort"

// Lookup indexes a master table by an integer key. Entries sharing a key keep
// their table order, and Index returns the first of them.
type Lookup[T any] struct {
	items []T
	keys  []int
}

// NewLookup indexes items by key.
func NewLookup[T any](items []T, key func(T) int) *Lookup[T] {
	sorted := make([]T, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool { return key(sorted[i]) < key(sorted[j]) })

	keys := make([]int, len(sorted))
	for i, item := range sorted {
		keys[i] = key(item)
	}
	return &Lookup[T]{items: sorted, keys: keys}
}

// Index returns the position of the first entry with key id, or -1.
func (l *Lookup[T]) Index(id int) int {
	i := sort.SearchInts(l.keys, id)
	if i < len(l.keys) && l.keys[i] == id {
		return i
	}
	return -1
}

// Get returns the first entry with key id.
func (l *Lookup[T]) Get(id int) (T, bool) {
	i := l.Index(id)
	if i < 0 {
		var zero T
		return zero, false
	}
	return l.items[i], true
}

// At returns the entry at position i of the sorted table.
func (l *Lookup[T]) At(i int) (T, bool) {
	if i < 0 || i >= len(l.items) {
		var zero T
		return zero, false
	}
	return l.items[i], true
}

// Key returns the key of the entry at position i.
func (l *Lookup[T]) Key(i int) int {
	return l.keys[i]
}

// Len returns the number of entries.
func (l *Lookup[T]) Len() int {
	return len(l.items)
}
