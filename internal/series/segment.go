package series

import (
	"math"

	"github.com/sanspareilsmyn/momentlens/internal/measure"
)

// EndTolerance absorbs rounding drift in upstream clip-end reporting. It is in
// the same unit as timestamps.
const EndTolerance = 0.05

// toleranceSlack absorbs float error in the distance itself, so a gap of
// exactly EndTolerance counts as within it.
const toleranceSlack = 1e-9

// Segment is the contiguous slice of a TimeSeries within [Start, End].
// It shares storage with its source and must be treated as read-only.
type Segment struct {
	Source *TimeSeries
	Start  float64
	End    float64

	lo, hi int
}

// WithinTolerance reports whether a and b are at most EndTolerance apart.
func WithinTolerance(a, b float64) bool {
	return math.Abs(a-b)-EndTolerance <= toleranceSlack
}

// SnapEnd returns maxTime when end lies within EndTolerance of it, end otherwise.
func SnapEnd(end, maxTime float64) float64 {
	if WithinTolerance(end, maxTime) {
		return maxTime
	}
	return end
}

// Extract returns the samples with start <= t <= end after end-snapping.
// A window that matches no sample yields an empty segment, not an error.
func Extract(s *TimeSeries, start, end float64) Segment {
	end = SnapEnd(end, s.MaxTime())
	lo, hi := s.bounds(start, end)
	return Segment{Source: s, Start: start, End: end, lo: lo, hi: hi}
}

// Len returns the number of samples in the segment.
func (g Segment) Len() int { return g.hi - g.lo }

// Empty reports whether the segment holds no samples.
func (g Segment) Empty() bool { return g.Source == nil || g.hi <= g.lo }

// Times returns the segment timestamps.
func (g Segment) Times() []float64 {
	if g.Empty() {
		return nil
	}
	return g.Source.Times[g.lo:g.hi]
}

// Column returns the values of m within the segment. ok is false when the
// source has no such column.
func (g Segment) Column(m measure.Measure) (values []float64, ok bool) {
	if g.Source == nil {
		return nil, false
	}
	col, ok := g.Source.Column(m)
	if !ok {
		return nil, false
	}
	return col[g.lo:g.hi], true
}

// Measures returns the measures of the source dataset in canonical order.
func (g Segment) Measures() []measure.Measure {
	if g.Source == nil {
		return nil
	}
	return g.Source.Measures()
}
