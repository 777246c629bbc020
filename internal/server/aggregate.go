package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime"
	"net/http"

	"github.com/sanspareilsmyn/momentlens/internal/aggregate"
	"github.com/sanspareilsmyn/momentlens/internal/moment"
	"github.com/sanspareilsmyn/momentlens/internal/pipeline"
	"github.com/sanspareilsmyn/momentlens/internal/report"
)

// aggregateRequest accepts moments as objects, as cart selections, or both.
type aggregateRequest struct {
	Query        string             `json:"query"`
	Mode         string             `json:"mode"`
	PreDuration  float64            `json:"pre_duration"`
	PostDuration float64            `json:"post_duration"`
	Moments      []moment.Input     `json:"moments"`
	Selections   []moment.Selection `json:"selections"`
}

type dropView struct {
	VideoID string           `json:"video_id"`
	Label   string           `json:"label"`
	Reason  aggregate.Reason `json:"reason"`
	Detail  string           `json:"detail,omitempty"`
}

func viewDrops(ds []aggregate.Drop) []dropView {
	out := make([]dropView, len(ds))
	for i, d := range ds {
		out[i] = dropView{VideoID: d.Moment.VideoID, Label: d.Label(), Reason: d.Reason, Detail: d.Detail}
	}
	return out
}

type pooledView struct {
	Stats  statsView `json:"stats"`
	Values []number  `json:"values"`
}

type aggregateResponse struct {
	ID           string             `json:"id"`
	Query        string             `json:"query"`
	Mode         aggregate.Mode     `json:"mode"`
	PureDuration float64            `json:"pure_duration"`
	Included     int                `json:"included"`
	Rejected     []rejectedView     `json:"rejected"`
	Malformed    []moment.Selection `json:"malformed,omitempty"`
	Skipped      []dropView         `json:"skipped"`
	Excluded     []dropView         `json:"excluded,omitempty"`

	// box mode
	Pooled map[string]pooledView `json:"pooled,omitempty"`

	// line mode
	PreDuration *float64            `json:"pre_duration,omitempty"`
	PostExtra   *float64            `json:"post_extra,omitempty"`
	Grid        []number            `json:"grid,omitempty"`
	TimeMillis  []int64             `json:"time_ms,omitempty"`
	Curves      map[string][]number `json:"curves,omitempty"`

	Charts []report.Chart `json:"charts"`
}

// decodeAggregate reads the body into a pipeline request. Malformed
// selections are returned separately and do not fail the request.
func decodeAggregate(w http.ResponseWriter, r *http.Request) (pipeline.Request, []moment.Selection, error) {
	var body aggregateRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&body); err != nil {
		return pipeline.Request{}, nil, fmt.Errorf("%w: %w", ErrInvalidBody, err)
	}

	inputs := append([]moment.Input{}, body.Moments...)
	resolved, malformed := moment.Resolve(body.Selections)
	inputs = append(inputs, resolved...)

	return pipeline.Request{
		ID:          RequestID(r.Context()),
		Query:       body.Query,
		Mode:        body.Mode,
		PreDuration: body.PreDuration,
		PostExtra:   body.PostDuration,
		Inputs:      inputs,
	}, malformed, nil
}

func (s *Server) execute(w http.ResponseWriter, r *http.Request) (*pipeline.Outcome, []moment.Selection, bool) {
	req, malformed, err := decodeAggregate(w, r)
	if err != nil {
		writeError(w, r, err)
		return nil, nil, false
	}
	out, err := s.deps.Pipeline.Execute(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return nil, nil, false
	}
	return out, malformed, true
}

// handleAggregate returns the aggregate and its chart descriptions as JSON.
func (s *Server) handleAggregate(w http.ResponseWriter, r *http.Request) {
	out, malformed, ok := s.execute(w, r)
	if !ok {
		return
	}
	charts, err := report.Charts(out.Result, out.Query)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := aggregateResponse{
		ID:        out.ID,
		Query:     out.Query,
		Mode:      out.Mode,
		Included:  out.Included(),
		Rejected:  viewRejected(out.Rejected),
		Malformed: malformed,
		Charts:    charts,
	}

	switch res := out.Result.(type) {
	case *aggregate.PooledResult:
		resp.PureDuration = res.PureDuration
		resp.Skipped = viewDrops(res.Skipped)
		resp.Pooled = make(map[string]pooledView, len(res.Measures))
		for _, m := range res.Measures {
			resp.Pooled[string(m)] = pooledView{Stats: viewStats(res.Stats[m]), Values: numbers(res.Values[m])}
		}
	case *aggregate.AlignedResult:
		resp.PureDuration = res.PureDuration
		resp.Skipped = viewDrops(res.Skipped)
		resp.Excluded = viewDrops(res.Excluded)
		resp.PreDuration = &res.PreDuration
		resp.PostExtra = &res.PostExtra
		resp.Grid = numbers(res.Grid)
		resp.TimeMillis = res.GridMillis()
		resp.Curves = make(map[string][]number, len(res.Measures))
		for _, m := range res.Measures {
			curve, _ := res.Curve(m)
			resp.Curves[string(m)] = numbers(curve)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleAggregateCSV streams the aggregate as a CSV attachment.
func (s *Server) handleAggregateCSV(w http.ResponseWriter, r *http.Request) {
	out, _, ok := s.execute(w, r)
	if !ok {
		return
	}
	data, err := report.CSV(out.Result, out.Query)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition",
		mime.FormatMediaType("attachment", map[string]string{"filename": report.Filename(out.Query)}))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// handleAggregateCharts renders the chart page as HTML.
func (s *Server) handleAggregateCharts(w http.ResponseWriter, r *http.Request) {
	out, _, ok := s.execute(w, r)
	if !ok {
		return
	}
	charts, err := report.Charts(out.Result, out.Query)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := report.RenderHTML(&buf, pageTitle(out), charts); err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func pageTitle(out *pipeline.Outcome) string {
	title := "Aggregated Moments"
	if out.Query != "" {
		title += " - Query: " + out.Query
	}
	return title
}
