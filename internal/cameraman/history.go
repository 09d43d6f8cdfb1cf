package cameraman

// History is a fixed-capacity FIFO of float samples. Once full, every Push
// evicts the oldest sample.
type History struct {
	buf   []float64
	start int // index of the oldest sample
	n     int
}

// NewHistory returns an empty history holding at most capacity samples.
// capacity must be positive.
func NewHistory(capacity int) *History {
	return &History{buf: make([]float64, capacity)}
}

// Fill replaces the contents with capacity copies of v.
func (h *History) Fill(v float64) {
	for i := range h.buf {
		h.buf[i] = v
	}
	h.start = 0
	h.n = len(h.buf)
}

// Push appends v. When the history is full the oldest sample is dropped
// and returned with evicted=true.
func (h *History) Push(v float64) (old float64, evicted bool) {
	if h.n < len(h.buf) {
		h.buf[(h.start+h.n)%len(h.buf)] = v
		h.n++
		return 0, false
	}
	old = h.buf[h.start]
	h.buf[h.start] = v
	h.start = (h.start + 1) % len(h.buf)
	return old, true
}

// Len returns the number of stored samples.
func (h *History) Len() int { return h.n }

// Cap returns the capacity.
func (h *History) Cap() int { return len(h.buf) }

// At returns the i-th sample, oldest first.
func (h *History) At(i int) float64 {
	return h.buf[(h.start+i)%len(h.buf)]
}

// Last returns the newest sample. ok is false when the history is empty.
func (h *History) Last() (v float64, ok bool) {
	if h.n == 0 {
		return 0, false
	}
	return h.At(h.n - 1), true
}

// Values copies the samples out, oldest first.
func (h *History) Values() []float64 {
	out := make([]float64, h.n)
	for i := range out {
		out[i] = h.At(i)
	}
	return out
}

// Displacement returns newest minus oldest, where the oldest is prev when
// a sample was just evicted. This equals the sum of consecutive
// differences across the window, so after a Push into a full history it
// spans Cap() intervals rather than Cap()-1.
//
// For finite samples the result may be ±Inf but is never NaN.
func (h *History) Displacement(prev float64, hasPrev bool) float64 {
	if h.n == 0 {
		return 0
	}
	oldest := h.At(0)
	if hasPrev {
		oldest = prev
	}
	return h.At(h.n-1) - oldest
}
