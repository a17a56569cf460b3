package domain

import "time"

// Feature identifies one monitored numeric column of the dataset.
type Feature struct {
	// Name is the raw label as it appears in the source data. It may contain
	// characters the tracking backend rejects; callers sanitize before logging.
	Name string
	// Column is the CSV header the feature is read from when the source is a
	// cleaned climate export.
	Column string
}

// Sample is an observed slice of one feature at one point in time. Values are
// immutable once captured.
type Sample struct {
	Feature    string
	Values     []float64
	CapturedAt time.Time
}

// SamplePair couples the historical and the fresh observation of a feature
// for drift comparison.
type SamplePair struct {
	Feature   string
	Reference []float64
	Current   []float64
}
