package sensor

import "errors"

// DefaultWindowSize is the moving average window length.
const DefaultWindowSize = 5

// ErrEmptyWindow is returned by Current before any sample was pushed.
var ErrEmptyWindow = errors.New("filter window is empty")

// Filter is a fixed-capacity FIFO moving average over distance samples.
// Pushing beyond capacity evicts the oldest value. Not safe for concurrent
// use; a single sampler owns it.
type Filter struct {
	buf  []float64
	head int
	n    int
}

// NewFilter creates a filter retaining the last size samples.
// A non-positive size falls back to the default window.
func NewFilter(size int) *Filter {
	if size <= 0 {
		size = DefaultWindowSize
	}
	return &Filter{buf: make([]float64, size)}
}

// Push appends a sample, evicting the oldest when the window is full.
func (f *Filter) Push(v float64) {
	f.buf[f.head] = v
	f.head = (f.head + 1) % len(f.buf)
	if f.n < len(f.buf) {
		f.n++
	}
}

// Current returns the unweighted mean of the retained samples, rounded to
// two decimals. Returns ErrEmptyWindow before the first push.
func (f *Filter) Current() (float64, error) {
	if f.n == 0 {
		return 0, ErrEmptyWindow
	}
	var sum float64
	for _, v := range f.buf[:f.n] {
		sum += v
	}
	return round2(sum / float64(f.n)), nil
}

// Len reports how many samples the window currently retains.
func (f *Filter) Len() int { return f.n }
