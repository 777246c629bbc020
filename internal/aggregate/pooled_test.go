package aggregate

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sanspareilsmyn/momentlens/internal/measure"
	"github.com/sanspareilsmyn/momentlens/internal/moment"
	"github.com/sanspareilsmyn/momentlens/internal/series"
)

func TestPool(t *testing.T) {
	a := mustSeries(t, "a", []float64{0, 1, 2, 3}, map[measure.Measure][]float64{
		measure.Engagement:       {0.1, 0.2, 0.3, 0.4},
		measure.ApproachWithdraw: {-0.1, math.NaN(), 0.1, 0.2},
	})
	b := engagementSeries(t, "b", []float64{0, 1, 2}, []float64{0.5, 0.6, 0.7})

	res, err := Pool([]series.Segment{
		series.Extract(a, 1, 2),
		series.Extract(b, 0, 1),
	})
	require.NoError(t, err)

	assert.Equal(t, ModeBox, res.Mode())
	assert.Equal(t, 2, res.Segments)
	assert.Equal(t, []measure.Measure{measure.ApproachWithdraw, measure.Engagement}, res.Measures)
	assert.Equal(t, []float64{0.2, 0.3, 0.5, 0.6}, res.Values[measure.Engagement])
	assert.Equal(t, []float64{0.1}, res.Values[measure.ApproachWithdraw])
	assert.Equal(t, 4, res.MaxSamples())

	eng := res.Stats[measure.Engagement]
	assert.Equal(t, 4, eng.Count)
	assert.InDelta(t, 0.4, eng.Mean, 1e-12)
	assert.Equal(t, 0.2, eng.Min)
	assert.Equal(t, 0.6, eng.Max)

	aw := res.Stats[measure.ApproachWithdraw]
	assert.Equal(t, 1, aw.Count)
	assert.True(t, math.IsNaN(aw.Std), "single sample std must be NaN")
}

func TestPool_OrderIndependent(t *testing.T) {
	a := engagementSeries(t, "a", []float64{0, 1, 2}, []float64{0.11, 0.29, 0.37})
	b := engagementSeries(t, "b", []float64{0, 1, 2}, []float64{0.53, 0.61, 0.07})
	c := engagementSeries(t, "c", []float64{0, 1, 2}, []float64{0.91, 0.13, 0.42})

	segs := []series.Segment{series.Extract(a, 0, 2), series.Extract(b, 0, 2), series.Extract(c, 0, 1)}
	forward, err := Pool(segs)
	require.NoError(t, err)

	backward, err := Pool([]series.Segment{segs[2], segs[0], segs[1]})
	require.NoError(t, err)

	assert.Equal(t, forward, backward)
}

func TestPool_NoData(t *testing.T) {
	a := engagementSeries(t, "a", []float64{0, 1}, []float64{0.1, 0.2})

	_, err := Pool(nil)
	assert.ErrorIs(t, err, ErrNoData)

	_, err = Pool([]series.Segment{series.Extract(a, 5, 6)})
	assert.ErrorIs(t, err, ErrNoData)

	allNaN := engagementSeries(t, "n", []float64{0, 1}, []float64{math.NaN(), math.NaN()})
	_, err = Pool([]series.Segment{series.Extract(allNaN, 0, 1)})
	assert.ErrorIs(t, err, ErrNoData)
}

func TestPooler_Aggregate(t *testing.T) {
	store := series.NewMemoryStore(
		engagementSeries(t, "a", []float64{0, 1, 2}, []float64{0.2, 0.4, 0.6}),
		engagementSeries(t, "b", []float64{0, 1, 2}, []float64{0.3, 0.5, 0.7}),
	)
	pooler := NewPooler(store, Options{}, zap.NewNop())

	res, err := pooler.Aggregate(context.Background(), []moment.Moment{
		{VideoID: "a", Start: 0, End: 1},
		{VideoID: "missing", Start: 0, End: 1},
		{VideoID: "b", Start: 1, End: 1.96},
		{VideoID: "b", Start: 10, End: 12},
	})
	require.NoError(t, err)

	assert.Equal(t, []float64{0.2, 0.4, 0.5, 0.7}, res.Values[measure.Engagement])
	assert.InDelta(t, 0.96, res.PureDuration, 1e-12)
	require.Len(t, res.Skipped, 2)
	assert.Equal(t, ReasonNotFound, res.Skipped[0].Reason)
	assert.Equal(t, ReasonEmptySegment, res.Skipped[1].Reason)
}

func TestPooler_AllMissing(t *testing.T) {
	pooler := NewPooler(series.NewMemoryStore(), Options{}, zap.NewNop())

	_, err := pooler.Aggregate(context.Background(), []moment.Moment{{VideoID: "x", Start: 0, End: 1}})
	assert.ErrorIs(t, err, ErrNoData)

	_, err = pooler.Aggregate(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoMoments)
}
