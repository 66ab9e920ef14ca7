package split

import (
	"errors"
	"sort"
)

var errTooFewSamples = errors.New("split: need at least two timestamps to derive temporal resolution")

func median(xs []float64) float64 {
	s := make([]float64, len(xs))
	copy(s, xs)
	sort.Float64s(s)
	n := len(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}

// temporalResolution estimates the effective sampling rate of a recording
// as the reciprocal of the median inter-sample interval. The median keeps
// the estimate stable under dropped frames and scheduling jitter.
func temporalResolution(timestamps []float64) (float64, error) {
	if len(timestamps) < 2 {
		return 0, errTooFewSamples
	}
	diffs := make([]float64, len(timestamps)-1)
	for i := 1; i < len(timestamps); i++ {
		diffs[i-1] = timestamps[i] - timestamps[i-1]
	}
	m := median(diffs)
	if m <= 0 {
		return 0, errors.New("split: non-increasing timestamps")
	}
	return 1 / m, nil
}
