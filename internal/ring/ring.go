// Package ring provides a fixed-capacity FIFO buffer that evicts the oldest
// element on overflow.
package ring

// Buffer is not safe for concurrent use; callers guard it.
type Buffer[T any] struct {
	items []T
	head  int // index of the oldest element
	size  int
}

// New returns a buffer holding at most capacity elements. A non-positive
// capacity is treated as 1.
func New[T any](capacity int) *Buffer[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Buffer[T]{items: make([]T, capacity)}
}

// Push appends v, overwriting the oldest element when full. It reports
// whether an element was evicted.
func (b *Buffer[T]) Push(v T) bool {
	c := len(b.items)
	if b.size < c {
		b.items[(b.head+b.size)%c] = v
		b.size++
		return false
	}
	b.items[b.head] = v
	b.head = (b.head + 1) % c
	return true
}

// Len returns the number of stored elements.
func (b *Buffer[T]) Len() int { return b.size }

// Cap returns the configured capacity.
func (b *Buffer[T]) Cap() int { return len(b.items) }

// Do calls fn for each element from oldest to newest.
func (b *Buffer[T]) Do(fn func(T)) {
	c := len(b.items)
	for i := 0; i < b.size; i++ {
		fn(b.items[(b.head+i)%c])
	}
}

// Slice returns a copy of the elements from oldest to newest.
func (b *Buffer[T]) Slice() []T {
	out := make([]T, 0, b.size)
	b.Do(func(v T) { out = append(out, v) })
	return out
}

// Last returns up to n newest elements, oldest first.
func (b *Buffer[T]) Last(n int) []T {
	if n > b.size {
		n = b.size
	}
	if n <= 0 {
		return nil
	}
	c := len(b.items)
	out := make([]T, 0, n)
	for i := b.size - n; i < b.size; i++ {
		out = append(out, b.items[(b.head+i)%c])
	}
	return out
}

// Clear drops every element and returns how many were removed.
func (b *Buffer[T]) Clear() int {
	n := b.size
	var zero T
	for i := range b.items {
		b.items[i] = zero
	}
	b.head, b.size = 0, 0
	return n
}
