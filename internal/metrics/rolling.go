package metrics

// RollingAverage maintains the mean of the last Size samples. The sum is
// updated incrementally: each Add adds the new sample and, once the window
// is full, subtracts the one that falls out.
type RollingAverage struct {
	size   int
	window []int
	sum    int
}

// NewRollingAverage returns a window of the given size; sizes below 1 are
// treated as 1.
func NewRollingAverage(size int) *RollingAverage {
	if size < 1 {
		size = 1
	}
	return &RollingAverage{size: size, window: make([]int, 0, size)}
}

// Add records v and returns the mean of the samples now in the window.
func (r *RollingAverage) Add(v int) float64 {
	r.window = append(r.window, v)
	r.sum += v
	if len(r.window) > r.size {
		r.sum -= r.window[0]
		r.window = r.window[1:]
	}
	return float64(r.sum) / float64(len(r.window))
}

// Size returns the configured window length
func (r *RollingAverage) Size() int {
	return r.size
}
