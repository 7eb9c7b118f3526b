package store

// ring is a fixed-capacity FIFO that overwrites its oldest element when full.
type ring[T any] struct {
	buf   []T
	head  int // index of the oldest element
	count int
}

func newRing[T any](capacity int) *ring[T] {
	return &ring[T]{buf: make([]T, capacity)}
}

// push appends v and returns the element it displaced, if any.
func (r *ring[T]) push(v T) (evicted T, ok bool) {
	if len(r.buf) == 0 {
		return v, true
	}

	if r.count < len(r.buf) {
		r.buf[(r.head+r.count)%len(r.buf)] = v
		r.count++
		return evicted, false
	}

	evicted = r.buf[r.head]
	r.buf[r.head] = v
	r.head = (r.head + 1) % len(r.buf)
	return evicted, true
}

func (r *ring[T]) len() int {
	return r.count
}

// at returns the i-th element in insertion order, 0 being the oldest.
func (r *ring[T]) at(i int) T {
	return r.buf[(r.head+i)%len(r.buf)]
}

// newest returns up to n elements, newest first.
func (r *ring[T]) newest(n int) []T {
	n = min(n, r.count)
	if n <= 0 {
		return []T{}
	}

	out := make([]T, 0, n)
	for i := r.count - 1; i >= r.count-n; i-- {
		out = append(out, r.at(i))
	}
	return out
}

// last returns up to n of the most recent elements in insertion order.
func (r *ring[T]) last(n int) []T {
	n = min(n, r.count)
	if n <= 0 {
		return []T{}
	}

	out := make([]T, 0, n)
	for i := r.count - n; i < r.count; i++ {
		out = append(out, r.at(i))
	}
	return out
}
