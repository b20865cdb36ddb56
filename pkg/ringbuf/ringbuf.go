// Package ringbuf provides a fixed-capacity buffer that evicts its oldest
// element once full. It is not safe for concurrent use; callers are expected
// to serialize access themselves.
package ringbuf

type Buffer[T any] struct {
	buf   []T
	head  int
	count int
}

func New[T any](capacity int) *Buffer[T] {
	return &Buffer[T]{buf: make([]T, capacity)}
}

// Push appends an item, evicting the oldest if the buffer is full.
func (b *Buffer[T]) Push(item T) {
	idx := (b.head + b.count) % len(b.buf)
	b.buf[idx] = item
	if b.count == len(b.buf) {
		b.head = (b.head + 1) % len(b.buf)
	} else {
		b.count++
	}
}

// Snapshot returns a copy of all elements, oldest first.
func (b *Buffer[T]) Snapshot() []T {
	out := make([]T, b.count)
	for i := 0; i < b.count; i++ {
		out[i] = b.buf[(b.head+i)%len(b.buf)]
	}
	return out
}

func (b *Buffer[T]) Len() int {
	return b.count
}
