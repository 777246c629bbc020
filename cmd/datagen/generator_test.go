package main

import (
	"bytes"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanspareilsmyn/momentlens/internal/measure"
	"github.com/sanspareilsmyn/momentlens/internal/series"
)

func TestGenerator_Video(t *testing.T) {
	g := generator{rng: rand.New(rand.NewSource(7)), duration: 5, rate: 4}

	ts, err := g.video("video-001", "Ad 1")
	require.NoError(t, err)

	assert.Equal(t, 21, ts.Len())
	assert.Equal(t, 0.0, ts.MinTime())
	assert.Equal(t, 5.0, ts.MaxTime())
	assert.Equal(t, measure.All(), ts.Measures())

	for _, m := range measure.All() {
		cluster, ok := measure.ClusterOf(m)
		require.True(t, ok)
		col, _ := ts.Column(m)
		for _, v := range col {
			if math.IsNaN(v) {
				continue
			}
			assert.GreaterOrEqual(t, v, cluster.Axis.Min)
			assert.LessOrEqual(t, v, cluster.Axis.Max)
		}
	}

	var buf bytes.Buffer
	require.NoError(t, series.WriteCSV(&buf, ts))
	back, err := series.ReadCSV(&buf, "video-001")
	require.NoError(t, err)
	assert.Equal(t, "Ad 1", back.Label)
	assert.Equal(t, ts.Times, back.Times)
}
