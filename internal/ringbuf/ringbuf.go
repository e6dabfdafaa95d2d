// Package ringbuf implements a fixed-capacity FIFO ring buffer.
package ringbuf

// Ring is a bounded FIFO. Appending beyond capacity evicts the oldest
// element in O(1). The zero value is not usable; use New.
type Ring[T any] struct {
	buf   []T
	head  int // index of the oldest element
	count int
}

// New creates a ring with the given capacity. Capacity must be positive.
func New[T any](capacity int) *Ring[T] {
	if capacity <= 0 {
		panic("ringbuf: capacity must be positive")
	}
	return &Ring[T]{buf: make([]T, capacity)}
}

// Append adds v, evicting the oldest element if the ring is full.
func (r *Ring[T]) Append(v T) {
	tail := (r.head + r.count) % len(r.buf)
	r.buf[tail] = v
	if r.count == len(r.buf) {
		r.head = (r.head + 1) % len(r.buf)
	} else {
		r.count++
	}
}

// Len returns the number of elements currently held.
func (r *Ring[T]) Len() int {
	return r.count
}

// Cap returns the fixed capacity.
func (r *Ring[T]) Cap() int {
	return len(r.buf)
}

// Values returns the elements oldest-first as a fresh slice.
func (r *Ring[T]) Values() []T {
	out := make([]T, r.count)
	for i := 0; i < r.count; i++ {
		out[i] = r.buf[(r.head+i)%len(r.buf)]
	}
	return out
}
