// internal/store/ring.go
package store

const minRingSize = 64

// ring is a growable FIFO. Dropping from the front is O(dropped);
// the backing array is only reallocated when the ring is full.
type ring[T any] struct {
	buf  []T
	head int
	n    int
}

func (r *ring[T]) len() int { return r.n }

func (r *ring[T]) at(i int) T {
	return r.buf[(r.head+i)%len(r.buf)]
}

func (r *ring[T]) push(v T) {
	if r.n == len(r.buf) {
		r.grow()
	}
	r.buf[(r.head+r.n)%len(r.buf)] = v
	r.n++
}

func (r *ring[T]) grow() {
	size := 2 * len(r.buf)
	if size < minRingSize {
		size = minRingSize
	}
	buf := make([]T, size)
	r.copyTo(buf)
	r.buf = buf
	r.head = 0
}

// dropFront discards the k oldest entries.
func (r *ring[T]) dropFront(k int) {
	if k >= r.n {
		r.reset()
		return
	}
	var zero T
	for i := 0; i < k; i++ {
		r.buf[(r.head+i)%len(r.buf)] = zero
	}
	r.head = (r.head + k) % len(r.buf)
	r.n -= k
}

// keepNewest trims the ring to its newest k entries.
func (r *ring[T]) keepNewest(k int) {
	if r.n > k {
		r.dropFront(r.n - k)
	}
}

func (r *ring[T]) copyTo(dst []T) int {
	if r.n == 0 {
		return 0
	}
	first := r.buf[r.head:min(r.head+r.n, len(r.buf))]
	c := copy(dst, first)
	if c < r.n {
		c += copy(dst[c:], r.buf[:r.n-c])
	}
	return c
}

func (r *ring[T]) items() []T {
	out := make([]T, r.n)
	r.copyTo(out)
	return out
}

func (r *ring[T]) reset() {
	r.buf = nil
	r.head = 0
	r.n = 0
}

// load replaces the contents with items, which the ring takes ownership of.
func (r *ring[T]) load(items []T) {
	r.buf = items
	r.head = 0
	r.n = len(items)
}
