package drift

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// KolmogorovSmirnov runs the two-sample Kolmogorov-Smirnov test: the supremum
// of the absolute difference between the two empirical CDFs, with the
// asymptotic two-sided p-value under the null hypothesis that both samples
// come from the same continuous distribution.
func KolmogorovSmirnov(reference, current []float64) (statistic, pValue float64, err error) {
	if len(reference) == 0 || len(current) == 0 {
		return 0, 0, fmt.Errorf("%w: both samples must be non-empty", ErrInvalidInput)
	}

	x := append([]float64(nil), reference...)
	y := append([]float64(nil), current...)
	sort.Float64s(x)
	sort.Float64s(y)

	statistic = stat.KolmogorovSmirnov(x, nil, y, nil)

	n := float64(len(x))
	m := float64(len(y))
	en := math.Sqrt(n * m / (n + m))
	pValue = kolmogorovSF(en * statistic)
	return statistic, pValue, nil
}

// kolmogorovSF is the survival function of the Kolmogorov distribution,
//
//	Q(λ) = 2 Σ_{k≥1} (−1)^{k−1} exp(−2 k² λ²)
//
// clamped to [0,1]. Q(0) = 1 and the series converges within a handful of
// terms for any λ of practical size.
func kolmogorovSF(lambda float64) float64 {
	if lambda <= 0 {
		return 1
	}

	sum := 0.0
	sign := 1.0
	for k := 1; k <= 100; k++ {
		kf := float64(k)
		term := sign * math.Exp(-2*kf*kf*lambda*lambda)
		sum += term
		if math.Abs(term) < 1e-12 {
			break
		}
		sign = -sign
	}

	p := 2 * sum
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}
