package dataset

import (
	"context"
	"fmt"
	"os"

	"driftwatch/internal/domain"
	"driftwatch/internal/ports"
)

// FileSource serves sample pairs out of two cleaned CSV files: one holding
// the reference (training) period and one holding the current period.
type FileSource struct {
	referencePath string
	currentPath   string
}

var _ ports.SampleSource = (*FileSource)(nil)

// NewFileSource points the source at the two period files.
func NewFileSource(referencePath, currentPath string) *FileSource {
	return &FileSource{referencePath: referencePath, currentPath: currentPath}
}

// FetchPairs reads each feature's column from both files.
func (s *FileSource) FetchPairs(ctx context.Context, features []domain.Feature) ([]domain.SamplePair, error) {
	pairs := make([]domain.SamplePair, 0, len(features))
	for _, feature := range features {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		reference, err := readFileColumn(s.referencePath, feature.Column)
		if err != nil {
			return nil, fmt.Errorf("reference %s: %w", feature.Name, err)
		}
		current, err := readFileColumn(s.currentPath, feature.Column)
		if err != nil {
			return nil, fmt.Errorf("current %s: %w", feature.Name, err)
		}

		pairs = append(pairs, domain.SamplePair{
			Feature:   feature.Name,
			Reference: reference,
			Current:   current,
		})
	}
	return pairs, nil
}

func readFileColumn(path, column string) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	values, err := ReadColumn(f, column)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return values, nil
}
