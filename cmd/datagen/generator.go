package main

import (
	"math"
	"math/rand"

	"github.com/sanspareilsmyn/momentlens/internal/measure"
	"github.com/sanspareilsmyn/momentlens/internal/series"
)

const (
	// Chance that a cell is left empty.
	gapRate = 0.02
	// Chance that a sample jumps instead of drifting.
	spikeRate = 0.01
)

type generator struct {
	rng      *rand.Rand
	duration float64
	rate     float64
}

// video builds one dataset whose measures random-walk inside their chart axis.
func (g generator) video(videoID, label string) (*series.TimeSeries, error) {
	n := int(math.Floor(g.duration*g.rate)) + 1
	times := make([]float64, n)
	for i := range times {
		times[i] = math.Round(float64(i)/g.rate*1000) / 1000
	}

	columns := make(map[measure.Measure][]float64, measure.Count())
	for _, m := range measure.All() {
		cluster, _ := measure.ClusterOf(m)
		columns[m] = g.walk(n, cluster.Axis)
	}
	return series.New(videoID, label, times, columns)
}

func (g generator) walk(n int, axis measure.Axis) []float64 {
	span := axis.Max - axis.Min
	v := axis.Min + span*(0.3+0.4*g.rng.Float64())

	out := make([]float64, n)
	for i := range out {
		if g.rng.Float64() < spikeRate {
			v += g.rng.NormFloat64() * span * 0.2
		} else {
			v += g.rng.NormFloat64() * span * 0.01
		}
		v = math.Max(axis.Min, math.Min(axis.Max, v))

		if g.rng.Float64() < gapRate {
			out[i] = math.NaN()
			continue
		}
		out[i] = math.Round(v*1e4) / 1e4
	}
	return out
}
