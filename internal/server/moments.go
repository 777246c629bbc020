package server

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/sanspareilsmyn/momentlens/internal/aggregate"
	"github.com/sanspareilsmyn/momentlens/internal/moment"
)

type rejectedView struct {
	Input interface{} `json:"input"`
	Error string      `json:"error"`
}

func viewRejected(rs []moment.Rejected) []rejectedView {
	out := make([]rejectedView, len(rs))
	for i, r := range rs {
		out[i] = rejectedView{Input: r.Input, Error: r.Err.Error()}
	}
	return out
}

type resolveResponse struct {
	Moments      []moment.Moment    `json:"moments"`
	PureDuration float64            `json:"pure_duration"`
	Malformed    []moment.Selection `json:"malformed"`
	Rejected     []rejectedView     `json:"rejected"`
}

// handleResolve turns a JSON array of cart selections into validated moments.
func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, r, fmt.Errorf("%w: %w", ErrInvalidBody, err))
		return
	}
	selections, err := moment.ParseSelectionsJSON(body)
	if err != nil {
		writeError(w, r, err)
		return
	}

	inputs, malformed := moment.Resolve(selections)
	moments, rejected := moment.Parse(inputs)
	writeJSON(w, http.StatusOK, resolveResponse{
		Moments:      moments,
		PureDuration: moment.PureDuration(moments),
		Malformed:    append([]moment.Selection{}, malformed...),
		Rejected:     viewRejected(rejected),
	})
}

type segmentResponse struct {
	VideoID  string               `json:"video_id"`
	Start    float64              `json:"start_time"`
	End      float64              `json:"end_time"`
	Duration float64              `json:"duration"`
	Measures map[string]statsView `json:"measures"`
}

func viewSegment(videoID string, start, end float64, res *aggregate.PooledResult) segmentResponse {
	return segmentResponse{
		VideoID:  videoID,
		Start:    start,
		End:      end,
		Duration: res.PureDuration,
		Measures: viewAllStats(res.Measures, res.Stats),
	}
}

// handleSegmentMetrics serves GET /segments/metrics?video_id=&start=&end=.
func (s *Server) handleSegmentMetrics(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	videoID := q.Get("video_id")
	start, err := strconv.ParseFloat(q.Get("start"), 64)
	if err != nil {
		writeError(w, r, fmt.Errorf("%w: start %q", ErrInvalidParam, q.Get("start")))
		return
	}
	end, err := strconv.ParseFloat(q.Get("end"), 64)
	if err != nil {
		writeError(w, r, fmt.Errorf("%w: end %q", ErrInvalidParam, q.Get("end")))
		return
	}

	res, err := s.deps.Pipeline.SegmentMetrics(r.Context(), videoID, start, end)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewSegment(videoID, start, end, res))
}
