package series

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanspareilsmyn/momentlens/internal/measure"
)

func newSeries(t *testing.T, times []float64, eng []float64) *TimeSeries {
	t.Helper()
	ts, err := New("vid", "Ad", times, map[measure.Measure][]float64{measure.Engagement: eng})
	require.NoError(t, err)
	return ts
}

func TestNew_SortsByTime(t *testing.T) {
	ts := newSeries(t, []float64{2, 0, 1}, []float64{0.2, 0.0, 0.1})

	assert.Equal(t, []float64{0, 1, 2}, ts.Times)
	col, ok := ts.Column(measure.Engagement)
	require.True(t, ok)
	assert.Equal(t, []float64{0.0, 0.1, 0.2}, col)
	assert.Equal(t, 0.0, ts.MinTime())
	assert.Equal(t, 2.0, ts.MaxTime())
}

func TestNew_DropsUnknownColumns(t *testing.T) {
	ts, err := New("vid", "", []float64{0}, map[measure.Measure][]float64{
		measure.Engagement: {0.5},
		"Heart Rate":       {70},
	})
	require.NoError(t, err)

	assert.Equal(t, DefaultLabel, ts.Label)
	assert.Equal(t, []measure.Measure{measure.Engagement}, ts.Measures())
	assert.False(t, ts.Has("Heart Rate"))
}

func TestNew_Errors(t *testing.T) {
	_, err := New("vid", "Ad", nil, nil)
	assert.ErrorIs(t, err, ErrEmptySeries)

	_, err = New("vid", "Ad", []float64{0, math.NaN()}, nil)
	assert.ErrorIs(t, err, ErrMalformedDataset)

	_, err = New("vid", "Ad", []float64{0, 1}, map[measure.Measure][]float64{measure.Engagement: {1}})
	assert.ErrorIs(t, err, ErrMalformedDataset)
}

func TestExtract_InclusiveBounds(t *testing.T) {
	ts := newSeries(t, []float64{0, 1, 2, 3, 4}, []float64{0, 0.1, 0.2, 0.3, 0.4})

	seg := Extract(ts, 1, 3)
	assert.Equal(t, []float64{1, 2, 3}, seg.Times())
	col, ok := seg.Column(measure.Engagement)
	require.True(t, ok)
	assert.Equal(t, []float64{0.1, 0.2, 0.3}, col)
	assert.Equal(t, 3, seg.Len())
}

func TestExtract_EndSnapping(t *testing.T) {
	ts := newSeries(t, []float64{0.0, 0.5, 1.0}, []float64{1, 2, 3})

	seg := Extract(ts, 0.0, 0.96)
	assert.Equal(t, 1.0, seg.End)
	assert.Equal(t, []float64{0.0, 0.5, 1.0}, seg.Times())

	seg = Extract(ts, 0.0, 0.9)
	assert.Equal(t, 0.9, seg.End)
	assert.Equal(t, []float64{0.0, 0.5}, seg.Times())

	// Overshoot within tolerance snaps back as well.
	seg = Extract(ts, 0.5, 1.04)
	assert.Equal(t, 1.0, seg.End)
	assert.Equal(t, []float64{0.5, 1.0}, seg.Times())
}

func TestExtract_SingleSample(t *testing.T) {
	ts := newSeries(t, []float64{0, 1, 2}, []float64{5, 6, 7})

	seg := Extract(ts, 1, 1)
	assert.Equal(t, []float64{1}, seg.Times())
	col, _ := seg.Column(measure.Engagement)
	assert.Equal(t, []float64{6}, col)
}

func TestExtract_Empty(t *testing.T) {
	ts := newSeries(t, []float64{0, 1, 2}, []float64{5, 6, 7})

	assert.True(t, Extract(ts, 10, 20).Empty())
	assert.True(t, Extract(ts, 1.2, 1.8).Empty())
	assert.True(t, Extract(ts, 2, 1).Empty())
	assert.Nil(t, Extract(ts, 10, 20).Times())
}

func TestSegment_MissingColumn(t *testing.T) {
	ts := newSeries(t, []float64{0, 1}, []float64{5, 6})

	_, ok := Extract(ts, 0, 1).Column(measure.VisualAttentionGlobal)
	assert.False(t, ok)
	assert.Equal(t, []measure.Measure{measure.Engagement}, Extract(ts, 0, 1).Measures())
}

func TestSnapEnd(t *testing.T) {
	assert.Equal(t, 10.0, SnapEnd(9.95, 10))
	assert.Equal(t, 10.0, SnapEnd(10.05, 10))
	assert.Equal(t, 9.9, SnapEnd(9.9, 10))
	assert.Equal(t, 10.1, SnapEnd(10.1, 10))
}

func TestExtract_SnapsAtExactTolerance(t *testing.T) {
	ts := newSeries(t, []float64{0, 5, 10}, []float64{1, 2, 3})

	seg := Extract(ts, 0, 9.95)
	assert.Equal(t, 10.0, seg.End)
	assert.Equal(t, 3, seg.Len())
}

func TestWithinTolerance(t *testing.T) {
	assert.True(t, WithinTolerance(9.95, 10))
	assert.True(t, WithinTolerance(10, 9.95))
	assert.True(t, WithinTolerance(10.05, 10))
	assert.False(t, WithinTolerance(9.94, 10))
	assert.False(t, WithinTolerance(10.06, 10))
}
