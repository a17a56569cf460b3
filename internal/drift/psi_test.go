package drift

import (
	"errors"
	"math"
	"testing"
)

func TestPSIIdenticalSamples(t *testing.T) {
	t.Parallel()

	x := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	psi, err := PSI(x, x, 10)
	if err != nil {
		t.Fatalf("PSI returned error: %v", err)
	}
	if psi != 0 {
		t.Fatalf("expected PSI 0 for identical samples, got %g", psi)
	}
}

func TestPSIEmptyInput(t *testing.T) {
	t.Parallel()

	if _, err := PSI(nil, []float64{1, 2, 3}, 10); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty reference, got %v", err)
	}
	if _, err := PSI([]float64{1, 2, 3}, nil, 10); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty current, got %v", err)
	}
	if _, err := PSI([]float64{1}, []float64{2}, 0); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for zero buckets, got %v", err)
	}
}

func TestPSIDegenerateRange(t *testing.T) {
	t.Parallel()

	psi, err := PSI([]float64{5, 5, 5}, []float64{5, 5, 5}, 10)
	if err != nil {
		t.Fatalf("degenerate range should not fail: %v", err)
	}
	if psi != 0 {
		t.Fatalf("expected PSI 0 for constant samples, got %g", psi)
	}
}

func TestPSIShiftedSample(t *testing.T) {
	t.Parallel()

	reference := make([]float64, 100)
	current := make([]float64, 100)
	for i := range reference {
		reference[i] = float64(i)
		current[i] = float64(i) + 50
	}

	psi, err := PSI(reference, current, 10)
	if err != nil {
		t.Fatalf("PSI returned error: %v", err)
	}
	if psi <= 0.2 {
		t.Fatalf("expected significant PSI for a half-range shift, got %g", psi)
	}
}

func TestPSISymmetric(t *testing.T) {
	t.Parallel()

	// Each bin contributes (a-e)*ln(a/e), which is invariant under swapping
	// the samples; binning uses the combined min/max and the smoothing floor
	// applies to both sides, so the index is symmetric in its arguments.
	a := []float64{0, 0, 0, 0, 0, 0, 0, 0, 0, 10}
	b := []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10}

	ab, err := PSI(a, b, 5)
	if err != nil {
		t.Fatalf("PSI(a,b) error: %v", err)
	}
	ba, err := PSI(b, a, 5)
	if err != nil {
		t.Fatalf("PSI(b,a) error: %v", err)
	}
	if math.Abs(ab-ba) > 1e-12 {
		t.Fatalf("PSI(a,b) = %g, PSI(b,a) = %g, want equal", ab, ba)
	}
	if ab <= 0 {
		t.Fatalf("expected positive PSI for diverging samples, got %g", ab)
	}
}

func TestPSIBucketCoarsening(t *testing.T) {
	t.Parallel()

	reference := []float64{1, 2, 2, 3, 3, 3, 4, 4, 5, 9}
	current := []float64{1, 1, 2, 4, 5, 5, 6, 7, 8, 9}

	for _, buckets := range []int{1, 2, 5, 10, 25, 100} {
		psi, err := PSI(reference, current, buckets)
		if err != nil {
			t.Fatalf("buckets=%d: %v", buckets, err)
		}
		if psi < 0 || math.IsNaN(psi) || math.IsInf(psi, 0) {
			t.Fatalf("buckets=%d: expected finite non-negative PSI, got %g", buckets, psi)
		}
	}
}

func TestPSITopBreakpointFallsInLastBin(t *testing.T) {
	t.Parallel()

	// Both maxima sit exactly on the 1.0 breakpoint after rescaling; they
	// must be counted, not dropped, so equal samples still cancel to zero.
	x := []float64{0, 0.5, 1}
	psi, err := PSI(x, x, 2)
	if err != nil {
		t.Fatalf("PSI returned error: %v", err)
	}
	if psi != 0 {
		t.Fatalf("expected PSI 0, got %g", psi)
	}
}
