package aggregate

import (
	"math"
	"sort"
)

// Stats summarises one pooled sample. Std is the sample standard deviation
// (n-1 denominator) and is NaN when Count < 2. Every field is NaN when
// Count is 0.
type Stats struct {
	Count int     `json:"count"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Mean  float64 `json:"mean"`
	Std   float64 `json:"std"`
}

// Describe computes Stats over values, ignoring NaN entries.
func Describe(values []float64) Stats {
	st := Stats{Min: math.NaN(), Max: math.NaN(), Mean: math.NaN(), Std: math.NaN()}

	var sum float64
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		if st.Count == 0 || v < st.Min {
			st.Min = v
		}
		if st.Count == 0 || v > st.Max {
			st.Max = v
		}
		sum += v
		st.Count++
	}
	if st.Count == 0 {
		return st
	}
	st.Mean = sum / float64(st.Count)
	if st.Count < 2 {
		return st
	}

	var sq float64
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		d := v - st.Mean
		sq += d * d
	}
	st.Std = math.Sqrt(sq / float64(st.Count-1))
	return st
}

// Quantile returns the q-th quantile (0 <= q <= 1) of an ascending sample
// using linear interpolation between closest ranks.
func Quantile(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[n-1]
	}
	pos := q * float64(n-1)
	lo := int(math.Floor(pos))
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

// sortedFinite returns the non-NaN values of values in ascending order.
func sortedFinite(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	sort.Float64s(out)
	return out
}
