package server

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"

	"github.com/sanspareilsmyn/momentlens/internal/aggregate"
	"github.com/sanspareilsmyn/momentlens/internal/measure"
)

// number is a float that encodes NaN and infinities as JSON null.
type number float64

func (n number) MarshalJSON() ([]byte, error) {
	f := float64(n)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, f, 'f', -1, 64), nil
}

func numbers(vs []float64) []number {
	out := make([]number, len(vs))
	for i, v := range vs {
		out[i] = number(v)
	}
	return out
}

type statsView struct {
	Count int    `json:"count"`
	Min   number `json:"min"`
	Max   number `json:"max"`
	Mean  number `json:"mean"`
	Std   number `json:"std"`
}

func viewStats(st aggregate.Stats) statsView {
	return statsView{
		Count: st.Count,
		Min:   number(st.Min),
		Max:   number(st.Max),
		Mean:  number(st.Mean),
		Std:   number(st.Std),
	}
}

func viewAllStats(ms []measure.Measure, stats map[measure.Measure]aggregate.Stats) map[string]statsView {
	out := make(map[string]statsView, len(ms))
	for _, m := range ms {
		out[string(m)] = viewStats(stats[m])
	}
	return out
}

type errorBody struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	writeJSON(w, statusOf(err), errorBody{Error: err.Error(), RequestID: RequestID(r.Context())})
}
