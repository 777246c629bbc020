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

func newAligner(t *testing.T, policy Policy, datasets ...*series.TimeSeries) *Aligner {
	t.Helper()
	return NewAligner(series.NewMemoryStore(datasets...), Options{Policy: policy}, zap.NewNop())
}

func TestAligner_AveragesTwoMoments(t *testing.T) {
	aligner := newAligner(t, PolicyClamp,
		engagementSeries(t, "a", []float64{0, 1, 2}, []float64{0.2, 0.4, 0.6}),
		engagementSeries(t, "b", []float64{0, 1, 2}, []float64{0.3, 0.5, 0.7}),
	)

	res, err := aligner.Aggregate(context.Background(), []moment.Moment{
		{VideoID: "a", Start: 0, End: 2},
		{VideoID: "b", Start: 0, End: 2},
	}, 0, 0)
	require.NoError(t, err)

	assert.Equal(t, ModeLine, res.Mode())
	assert.Equal(t, 2, res.Included)
	assert.Equal(t, 2.0, res.PureDuration)
	require.Len(t, res.Grid, GridPoints)
	assert.Equal(t, 0.0, res.Grid[0])
	assert.Equal(t, 2.0, res.Grid[GridPoints-1])
	assert.Equal(t, []measure.Measure{measure.Engagement}, res.Measures)

	v, ok := res.At(measure.Engagement, 1)
	require.True(t, ok)
	assert.InDelta(t, 0.45, v, 1e-9)

	curve, ok := res.Curve(measure.Engagement)
	require.True(t, ok)
	assert.InDelta(t, 0.25, curve[0], 1e-12)
	assert.InDelta(t, 0.65, curve[GridPoints-1], 1e-12)

	_, ok = res.Curve(measure.VisualAttentionGlobal)
	assert.False(t, ok)
}

func TestAligner_GridSpansPureDuration(t *testing.T) {
	aligner := newAligner(t, PolicyClamp,
		engagementSeries(t, "a", []float64{0, 1, 2, 3, 4, 5}, []float64{1, 1, 1, 1, 1, 1}),
	)

	res, err := aligner.Aggregate(context.Background(), []moment.Moment{
		{VideoID: "a", Start: 1, End: 4},
		{VideoID: "a", Start: 0, End: 1.5},
	}, 0, 0)
	require.NoError(t, err)

	assert.Equal(t, 1.5, res.PureDuration)
	assert.Equal(t, 0.0, res.Grid[0])
	assert.Equal(t, 1.5, res.Grid[len(res.Grid)-1])
	assert.Equal(t, 1.5, res.EffectivePost())

	ms := res.GridMillis()
	assert.Equal(t, int64(0), ms[0])
	assert.Equal(t, int64(1500), ms[len(ms)-1])
}

func TestAligner_RelativeTime(t *testing.T) {
	// Same shape at different absolute offsets must align at t=0.
	aligner := newAligner(t, PolicyClamp,
		engagementSeries(t, "a", []float64{0, 1, 2, 3, 4}, []float64{0, 0, 1, 2, 3}),
		engagementSeries(t, "b", []float64{0, 1, 2}, []float64{1, 2, 3}),
	)

	res, err := aligner.Aggregate(context.Background(), []moment.Moment{
		{VideoID: "a", Start: 2, End: 4},
		{VideoID: "b", Start: 0, End: 2},
	}, 0, 0)
	require.NoError(t, err)

	curve, _ := res.Curve(measure.Engagement)
	assert.InDelta(t, 1.0, curve[0], 1e-12)
	assert.InDelta(t, 3.0, curve[len(curve)-1], 1e-12)
}

func TestAligner_CoverageExclusion(t *testing.T) {
	moments := []moment.Moment{
		{VideoID: "short", Start: 0, End: 2, Label: "Short Ad"},
		{VideoID: "long", Start: 0, End: 2},
	}
	long := engagementSeries(t, "long", []float64{0, 1, 2, 3}, []float64{0, 0, 0, 0})

	// short ends before start + effective_post - tolerance.
	aligner := newAligner(t, PolicyClamp,
		engagementSeries(t, "short", []float64{0, 1, 2}, []float64{1, 1, 1}),
		long,
	)
	res, err := aligner.Aggregate(context.Background(), moments, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Included)
	assert.Equal(t, []string{"Short Ad"}, res.ExcludedLabels())
	assert.Equal(t, ReasonNoCoverage, res.Excluded[0].Reason)

	// Within tolerance of the window end it is included.
	aligner = newAligner(t, PolicyClamp,
		engagementSeries(t, "short", []float64{0, 1, 2, 2.96}, []float64{1, 1, 1, 1}),
		long,
	)
	res, err = aligner.Aggregate(context.Background(), moments, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Included)
	assert.Empty(t, res.Excluded)

	// Extended to fully cover the window it stays included.
	aligner = newAligner(t, PolicyClamp,
		engagementSeries(t, "short", []float64{0, 1, 2, 3}, []float64{1, 1, 1, 1}),
		long,
	)
	res, err = aligner.Aggregate(context.Background(), moments, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Included)
}

func TestAligner_CoverageToleranceIsInclusive(t *testing.T) {
	// Window end 10 against data ending at 9.95.
	aligner := newAligner(t, PolicyClamp,
		engagementSeries(t, "tail", []float64{0, 5, 9.95}, []float64{1, 1, 1}),
	)
	res, err := aligner.Aggregate(context.Background(), []moment.Moment{{VideoID: "tail", Start: 0, End: 9}}, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Included)
	assert.Empty(t, res.Excluded)

	// Window start 11-1.05 against data starting at 10.
	aligner = newAligner(t, PolicyClamp,
		engagementSeries(t, "head", []float64{10, 11, 12, 13}, []float64{1, 1, 1, 1}),
	)
	res, err = aligner.Aggregate(context.Background(), []moment.Moment{{VideoID: "head", Start: 11, End: 12}}, 1.05, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Included)
	assert.Empty(t, res.Excluded)

	// Just past the tolerance on either side is excluded.
	aligner = newAligner(t, PolicyClamp,
		engagementSeries(t, "tail", []float64{0, 5, 9.94}, []float64{1, 1, 1}),
		engagementSeries(t, "head", []float64{10, 11, 12, 13}, []float64{1, 1, 1, 1}),
	)
	_, err = aligner.Aggregate(context.Background(), []moment.Moment{{VideoID: "tail", Start: 0, End: 9}}, 0, 1)
	assert.ErrorIs(t, err, ErrNoData)
	_, err = aligner.Aggregate(context.Background(), []moment.Moment{{VideoID: "head", Start: 11, End: 12}}, 1.06, 0)
	assert.ErrorIs(t, err, ErrNoData)
}

func TestAligner_PreWindowNeedsCoverage(t *testing.T) {
	aligner := newAligner(t, PolicyClamp,
		engagementSeries(t, "a", []float64{0, 1, 2, 3}, []float64{0, 1, 2, 3}),
	)

	_, err := aligner.Aggregate(context.Background(), []moment.Moment{{VideoID: "a", Start: 0.5, End: 2}}, 1, 0)
	assert.ErrorIs(t, err, ErrNoData)

	res, err := aligner.Aggregate(context.Background(), []moment.Moment{{VideoID: "a", Start: 1, End: 2}}, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, -1.0, res.Grid[0])
	curve, _ := res.Curve(measure.Engagement)
	assert.InDelta(t, 0.0, curve[0], 1e-12)
}

func TestAligner_OutOfDomainPolicy(t *testing.T) {
	datasets := []*series.TimeSeries{
		engagementSeries(t, "partial", []float64{0, 1, 2}, []float64{1, 1, 1}),
		engagementSeries(t, "full", []float64{0, 1, 2, 3, 4}, []float64{0, 0, 0, 0, 0}),
	}
	moments := []moment.Moment{
		{VideoID: "partial", Start: 0, End: 4},
		{VideoID: "full", Start: 0, End: 4},
	}

	clamp, err := newAligner(t, PolicyClamp, datasets...).Aggregate(context.Background(), moments, 0, 0)
	require.NoError(t, err)
	curve, _ := clamp.Curve(measure.Engagement)
	assert.InDelta(t, 0.5, curve[len(curve)-1], 1e-12)

	nan, err := newAligner(t, PolicyNaN, datasets...).Aggregate(context.Background(), moments, 0, 0)
	require.NoError(t, err)
	curve, _ = nan.Curve(measure.Engagement)
	assert.InDelta(t, 0.0, curve[len(curve)-1], 1e-12)
	assert.InDelta(t, 0.5, curve[0], 1e-12)
}

func TestAligner_MeasureAbsentFromSomeMoments(t *testing.T) {
	withVA := mustSeries(t, "a", []float64{0, 1}, map[measure.Measure][]float64{
		measure.Engagement:            {0.2, 0.2},
		measure.VisualAttentionGlobal: {0.8, 0.8},
	})
	withoutVA := engagementSeries(t, "b", []float64{0, 1}, []float64{0.4, 0.4})

	res, err := newAligner(t, PolicyClamp, withVA, withoutVA).Aggregate(context.Background(), []moment.Moment{
		{VideoID: "a", Start: 0, End: 1},
		{VideoID: "b", Start: 0, End: 1},
	}, 0, 0)
	require.NoError(t, err)

	va, _ := res.Curve(measure.VisualAttentionGlobal)
	assert.InDelta(t, 0.8, va[50], 1e-12)
	eng, _ := res.Curve(measure.Engagement)
	assert.InDelta(t, 0.3, eng[50], 1e-12)
}

func TestAligner_Errors(t *testing.T) {
	aligner := newAligner(t, PolicyClamp)

	_, err := aligner.Aggregate(context.Background(), nil, 0, 0)
	assert.ErrorIs(t, err, ErrNoMoments)

	_, err = aligner.Aggregate(context.Background(), []moment.Moment{{VideoID: "a", End: 1}}, -1, 0)
	assert.ErrorIs(t, err, ErrInvalidWindow)

	_, err = aligner.Aggregate(context.Background(), []moment.Moment{{VideoID: "a", End: 1}}, 0, math.NaN())
	assert.ErrorIs(t, err, ErrInvalidWindow)

	_, err = aligner.Aggregate(context.Background(), []moment.Moment{{VideoID: "missing", End: 1}}, 0, 0)
	assert.ErrorIs(t, err, ErrNoData)
}

func TestLinspace(t *testing.T) {
	assert.Equal(t, []float64{-1, -0.5, 0, 0.5, 1}, Linspace(-1, 1, 5))
	assert.Equal(t, []float64{3}, Linspace(3, 5, 1))
	assert.Nil(t, Linspace(0, 1, 0))
}

func TestInterpolate(t *testing.T) {
	xs := []float64{0, 1, 3}
	ys := []float64{0, 10, 30}

	got := interpolate([]float64{-1, 0, 0.5, 2, 3, 4}, xs, ys, PolicyClamp)
	assert.Equal(t, []float64{0, 0, 5, 20, 30, 30}, got)

	got = interpolate([]float64{-1, 4}, xs, ys, PolicyNaN)
	assert.True(t, math.IsNaN(got[0]))
	assert.True(t, math.IsNaN(got[1]))
}

func TestParseModeAndPolicy(t *testing.T) {
	m, err := ParseMode("LINE")
	require.NoError(t, err)
	assert.Equal(t, ModeLine, m)
	m, err = ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeBox, m)
	_, err = ParseMode("violin")
	assert.ErrorIs(t, err, ErrUnknownMode)

	p, err := ParsePolicy("nan")
	require.NoError(t, err)
	assert.Equal(t, PolicyNaN, p)
	_, err = ParsePolicy("zero")
	assert.ErrorIs(t, err, ErrUnknownPolicy)
}
