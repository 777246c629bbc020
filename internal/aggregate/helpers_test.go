package aggregate

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sanspareilsmyn/momentlens/internal/measure"
	"github.com/sanspareilsmyn/momentlens/internal/series"
)

func mustSeries(t *testing.T, id string, times []float64, cols map[measure.Measure][]float64) *series.TimeSeries {
	t.Helper()
	ts, err := series.New(id, "Ad "+id, times, cols)
	require.NoError(t, err)
	return ts
}

func engagementSeries(t *testing.T, id string, times, values []float64) *series.TimeSeries {
	t.Helper()
	return mustSeries(t, id, times, map[measure.Measure][]float64{measure.Engagement: values})
}
