// Package series loads per-video measure time series and slices them into
// time-bounded segments.
package series

import (
	"fmt"
	"math"
	"sort"

	"github.com/sanspareilsmyn/momentlens/internal/measure"
)

// DefaultLabel is the display label used when a dataset carries none.
const DefaultLabel = "Unknown"

// TimeSeries is the immutable measure data of one video. Times are seconds,
// sorted ascending; every column is aligned 1:1 with Times and uses NaN for
// missing cells.
type TimeSeries struct {
	VideoID string
	Label   string
	Times   []float64

	columns map[measure.Measure][]float64
}

// New builds a TimeSeries, dropping non-canonical columns and sorting samples
// by time when needed. The input slices are copied.
func New(videoID, label string, times []float64, columns map[measure.Measure][]float64) (*TimeSeries, error) {
	if len(times) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptySeries, videoID)
	}
	for _, t := range times {
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return nil, fmt.Errorf("%w: non-finite timestamp in %s", ErrMalformedDataset, videoID)
		}
	}

	order := make([]int, len(times))
	for i := range order {
		order[i] = i
	}
	if !sort.Float64sAreSorted(times) {
		sort.SliceStable(order, func(a, b int) bool { return times[order[a]] < times[order[b]] })
	}

	ts := &TimeSeries{
		VideoID: videoID,
		Label:   label,
		Times:   make([]float64, len(times)),
		columns: make(map[measure.Measure][]float64, len(columns)),
	}
	if ts.Label == "" {
		ts.Label = DefaultLabel
	}
	for i, src := range order {
		ts.Times[i] = times[src]
	}

	for m, values := range columns {
		if !measure.Valid(m) {
			continue
		}
		if len(values) != len(times) {
			return nil, fmt.Errorf("%w: column %q has %d values for %d timestamps",
				ErrMalformedDataset, m, len(values), len(times))
		}
		col := make([]float64, len(values))
		for i, src := range order {
			col[i] = values[src]
		}
		ts.columns[m] = col
	}

	return ts, nil
}

// Len returns the number of samples.
func (s *TimeSeries) Len() int { return len(s.Times) }

// MinTime returns the first timestamp.
func (s *TimeSeries) MinTime() float64 { return s.Times[0] }

// MaxTime returns the last timestamp.
func (s *TimeSeries) MaxTime() float64 { return s.Times[len(s.Times)-1] }

// Column returns the values of m. The slice must not be modified.
func (s *TimeSeries) Column(m measure.Measure) ([]float64, bool) {
	col, ok := s.columns[m]
	return col, ok
}

// Has reports whether the dataset carries a column for m.
func (s *TimeSeries) Has(m measure.Measure) bool {
	_, ok := s.columns[m]
	return ok
}

// Measures returns the measures present, in canonical order.
func (s *TimeSeries) Measures() []measure.Measure {
	present := make(map[measure.Measure]bool, len(s.columns))
	for m := range s.columns {
		present[m] = true
	}
	return measure.Ordered(present)
}

// bounds returns the half-open index range [lo, hi) of samples with
// start <= t <= end.
func (s *TimeSeries) bounds(start, end float64) (lo, hi int) {
	lo = sort.Search(len(s.Times), func(i int) bool { return s.Times[i] >= start })
	hi = sort.Search(len(s.Times), func(i int) bool { return s.Times[i] > end })
	if hi < lo {
		hi = lo
	}
	return lo, hi
}
