package recorder

// RingBuffer is a fixed-capacity circular store of mono float32 samples.
// When an append would exceed capacity the oldest samples are overwritten.
// The backing array is allocated once in NewRingBuffer.
//
// RingBuffer is not safe for concurrent use. The controller relies on the
// capture device serializing its callback against Stop.
type RingBuffer struct {
	buf     []float32
	head    int // next write position
	n       int // valid samples
	dropped uint64
}

func NewRingBuffer(capacity int) *RingBuffer {
	if capacity < 1 {
		capacity = 1
	}
	return &RingBuffer{buf: make([]float32, capacity)}
}

// Append writes samples after the newest held sample.
func (r *RingBuffer) Append(samples []float32) {
	c := len(r.buf)
	if len(samples) >= c {
		// Only the newest c samples survive.
		r.dropped += uint64(r.n + len(samples) - c)
		copy(r.buf, samples[len(samples)-c:])
		r.head = 0
		r.n = c
		return
	}

	if over := r.n + len(samples) - c; over > 0 {
		r.dropped += uint64(over)
	}

	k := copy(r.buf[r.head:], samples)
	if k < len(samples) {
		copy(r.buf, samples[k:])
	}
	r.head = (r.head + len(samples)) % c
	r.n = min(r.n+len(samples), c)
}

// SnapshotAndClear returns the held samples oldest-first as an independent
// slice and resets the buffer. An empty buffer yields an empty, non-nil slice.
func (r *RingBuffer) SnapshotAndClear() []float32 {
	out := make([]float32, r.n)
	if r.n > 0 {
		c := len(r.buf)
		start := (r.head - r.n + c) % c
		k := copy(out, r.buf[start:min(start+r.n, c)])
		copy(out[k:], r.buf[:r.n-k])
	}
	r.head = 0
	r.n = 0
	return out
}

func (r *RingBuffer) Len() int { return r.n }

func (r *RingBuffer) Cap() int { return len(r.buf) }

// Dropped is the total number of samples overwritten since construction.
func (r *RingBuffer) Dropped() uint64 { return r.dropped }
