package drift

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// smoothingFloor replaces empty bin frequencies before the log-ratio step.
// This is a numerical-stability substitution, not a statistically principled
// correction; it is kept as-is for compatibility with historical PSI values.
const smoothingFloor = 0.0001

// PSI computes the Population Stability Index between a reference and a
// current sample. Both samples are rescaled together into [0,1], split into
// equal-width buckets, and compared bin-by-bin:
//
//	PSI = Σ (actual − expected) · ln(actual / expected)
//
// Values exactly at the top breakpoint land in the last bucket. When every
// value across both samples is identical the index is 0 by policy: a constant
// sample carries no evidence of divergence, and failing would force callers
// to skip the feature instead of reporting it.
func PSI(reference, current []float64, buckets int) (float64, error) {
	if len(reference) == 0 || len(current) == 0 {
		return 0, fmt.Errorf("%w: both samples must be non-empty", ErrInvalidInput)
	}
	if buckets < 1 {
		return 0, fmt.Errorf("%w: buckets must be >= 1, got %d", ErrInvalidInput, buckets)
	}

	minVal := math.Min(floats.Min(reference), floats.Min(current))
	maxVal := math.Max(floats.Max(reference), floats.Max(current))
	if maxVal == minVal {
		return 0, nil
	}

	expected := binFrequencies(reference, minVal, maxVal, buckets)
	actual := binFrequencies(current, minVal, maxVal, buckets)

	psi := 0.0
	for b := 0; b < buckets; b++ {
		e := smooth(expected[b])
		a := smooth(actual[b])
		psi += (a - e) * math.Log(a/e)
	}
	return psi, nil
}

// binFrequencies rescales values into [0,1] and counts them into equal-width
// buckets, returning per-bucket relative frequencies.
func binFrequencies(values []float64, minVal, maxVal float64, buckets int) []float64 {
	counts := make([]float64, buckets)
	span := maxVal - minVal
	for _, v := range values {
		scaled := (v - minVal) / span
		idx := int(scaled * float64(buckets))
		if idx >= buckets {
			idx = buckets - 1
		}
		counts[idx]++
	}
	n := float64(len(values))
	for i := range counts {
		counts[i] /= n
	}
	return counts
}

func smooth(freq float64) float64 {
	if freq == 0 {
		return smoothingFloor
	}
	return freq
}
