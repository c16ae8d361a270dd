// Package audit checks persisted L_RAND datasets: ordering, completeness, collisions
// and the shape of the L_RAND distribution.
package audit

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/montanaflynn/stats"

	"github.com/Blackdeer1524/lrand/src/storage"
)

// DefaultSampleSize caps the number of values the distribution summary is computed on.
const DefaultSampleSize = 1 << 20

var (
	ErrRowCountMismatch = errors.New("row count mismatch")
	ErrNotSorted        = errors.New("L_RAND is not non-increasing")
	ErrIndexGap         = errors.New("row index is not dense")
	ErrEmptyDataset     = errors.New("dataset is empty")
)

type Summary struct {
	Count  int
	Min    float64
	Max    float64
	Mean   float64
	StdDev float64
	Median float64
}

type Report struct {
	Rows       int64
	Collisions int64
	MinWhole   int64
	MaxWhole   int64
	Summary    Summary
}

// Summarize describes wholes (L_RAND scaled by 1e10) as L_RAND values.
func Summarize(wholes []int64) (Summary, error) {
	if len(wholes) == 0 {
		return Summary{}, ErrEmptyDataset
	}

	data := make(stats.Float64Data, len(wholes))
	for i, w := range wholes {
		data[i] = float64(w) / 1e10
	}

	var (
		s   = Summary{Count: len(data)}
		err error
	)
	if s.Min, err = stats.Min(data); err != nil {
		return Summary{}, fmt.Errorf("failed to compute min: %w", err)
	}
	if s.Max, err = stats.Max(data); err != nil {
		return Summary{}, fmt.Errorf("failed to compute max: %w", err)
	}
	if s.Mean, err = stats.Mean(data); err != nil {
		return Summary{}, fmt.Errorf("failed to compute mean: %w", err)
	}
	if s.StdDev, err = stats.StandardDeviation(data); err != nil {
		return Summary{}, fmt.Errorf("failed to compute standard deviation: %w", err)
	}
	if s.Median, err = stats.Median(data); err != nil {
		return Summary{}, fmt.Errorf("failed to compute median: %w", err)
	}

	return s, nil
}

// Collisions counts rows whose L_RAND equals the previous row's. rows must already be
// sorted by L_RAND.
func Collisions(rows []storage.Row) int64 {
	var n int64
	for i := 1; i < len(rows); i++ {
		if rows[i].Whole == rows[i-1].Whole {
			n++
		}
	}

	return n
}

// Verifier consumes rows of a persisted dataset in file order.
type Verifier struct {
	expected int64

	rows       int64
	collisions int64
	last       int64
	minWhole   int64
	maxWhole   int64

	sample    []int64
	sampleCap int
	rng       *rand.Rand
}

// NewVerifier expects expectedRows rows; a negative value disables the count check.
func NewVerifier(expectedRows int64, sampleSize int) *Verifier {
	if sampleSize <= 0 {
		sampleSize = DefaultSampleSize
	}

	return &Verifier{
		expected:  expectedRows,
		sampleCap: sampleSize,
		rng:       rand.New(rand.NewPCG(0, 0)),
	}
}

func (v *Verifier) Observe(r storage.Row) error {
	if r.Index != v.rows {
		return fmt.Errorf("%w: row %d has index %d", ErrIndexGap, v.rows, r.Index)
	}

	if v.rows == 0 {
		v.minWhole, v.maxWhole = r.Whole, r.Whole
	} else {
		if r.Whole > v.last {
			return fmt.Errorf("%w: row %d (%d) follows %d", ErrNotSorted, v.rows, r.Whole, v.last)
		}
		if r.Whole == v.last {
			v.collisions++
		}
		v.minWhole = min(v.minWhole, r.Whole)
		v.maxWhole = max(v.maxWhole, r.Whole)
	}

	// reservoir sampling
	if len(v.sample) < v.sampleCap {
		v.sample = append(v.sample, r.Whole)
	} else if j := v.rng.Int64N(v.rows + 1); j < int64(v.sampleCap) {
		v.sample[j] = r.Whole
	}

	v.last = r.Whole
	v.rows++

	return nil
}

func (v *Verifier) Finish() (*Report, error) {
	if v.expected >= 0 && v.rows != v.expected {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrRowCountMismatch, v.rows, v.expected)
	}

	summary, err := Summarize(v.sample)
	if err != nil {
		return nil, err
	}

	return &Report{
		Rows:       v.rows,
		Collisions: v.collisions,
		MinWhole:   v.minWhole,
		MaxWhole:   v.maxWhole,
		Summary:    summary,
	}, nil
}

func Verify(ds *storage.Dataset, expectedRows int64) (*Report, error) {
	v := NewVerifier(expectedRows, DefaultSampleSize)
	for _, r := range ds.Rows {
		if err := v.Observe(r); err != nil {
			return nil, err
		}
	}

	return v.Finish()
}

// VerifyFile streams the dataset at path through a Verifier.
func VerifyFile(sink *storage.CSVSink, path string, expectedRows int64, sampleSize int) (*Report, error) {
	v := NewVerifier(expectedRows, sampleSize)
	if _, err := sink.Scan(path, v.Observe); err != nil {
		return nil, fmt.Errorf("failed to verify %s: %w", path, err)
	}

	return v.Finish()
}
