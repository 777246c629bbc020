package server

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/sanspareilsmyn/momentlens/internal/moment"
	"github.com/sanspareilsmyn/momentlens/internal/search"
)

type clipView struct {
	search.Clip
	Confidence search.Confidence `json:"confidence"`
	PreviewURL string            `json:"preview_url,omitempty"`
	Selection  moment.Selection  `json:"selection"`
}

type searchResponse struct {
	Key        string                    `json:"key"`
	Query      string                    `json:"query"`
	TotalHits  int                       `json:"total_hits"`
	CreatedAt  time.Time                 `json:"created_at"`
	Confidence search.Confidence         `json:"confidence"`
	Counts     map[search.Confidence]int `json:"counts"`
	Page       int                       `json:"page"`
	PerPage    int                       `json:"per_page"`
	Total      int                       `json:"total"`
	TotalPages int                       `json:"total_pages"`
	HasPrev    bool                      `json:"has_prev"`
	HasNext    bool                      `json:"has_next"`
	Clips      []clipView                `json:"clips"`
}

// handleSearch serves GET /search?q=&confidence=&page=&refresh=.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if s.deps.Searcher == nil {
		writeError(w, r, search.ErrNotConfigured)
		return
	}

	q := r.URL.Query()
	conf, err := search.ParseConfidence(q.Get("confidence"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	page := 1
	if raw := q.Get("page"); raw != "" {
		page, err = strconv.Atoi(raw)
		if err != nil || page < 1 {
			writeError(w, r, fmt.Errorf("%w: page %q", ErrInvalidParam, raw))
			return
		}
	}

	var snap *search.Snapshot
	if refresh, _ := strconv.ParseBool(q.Get("refresh")); refresh {
		snap, err = s.deps.Searcher.Refresh(r.Context(), q.Get("q"))
	} else {
		snap, err = s.deps.Searcher.Search(r.Context(), q.Get("q"))
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	p := search.Paginate(snap.Filter(conf), page, search.DefaultPageSize)
	resp := searchResponse{
		Key:        snap.Key,
		Query:      snap.Query,
		TotalHits:  snap.TotalHits,
		CreatedAt:  snap.CreatedAt,
		Confidence: conf,
		Counts:     snap.Counts(),
		Page:       p.Number,
		PerPage:    p.Size,
		Total:      p.Total,
		TotalPages: p.Pages,
		HasPrev:    p.HasPrev(),
		HasNext:    p.HasNext(),
		Clips:      make([]clipView, len(p.Clips)),
	}
	for i, c := range p.Clips {
		resp.Clips[i] = clipView{
			Clip:       c,
			Confidence: c.Confidence(),
			PreviewURL: search.PreviewURL(s.deps.Preview, c.VideoID),
			Selection:  moment.Encode(c.Moment("")),
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
