package search

import (
	"sort"
	"time"
)

// DefaultPageSize is the number of clips per result page.
const DefaultPageSize = 50

// Snapshot is the complete, score-ordered result of one query. It is never
// modified after creation.
type Snapshot struct {
	Key       string    `json:"key"`
	Query     string    `json:"query"`
	TotalHits int       `json:"total_hits"`
	Clips     []Clip    `json:"clips"`
	CreatedAt time.Time `json:"created_at"`
}

// NewSnapshot copies clips and orders them by descending score.
func NewSnapshot(query string, clips []Clip, totalHits int, now time.Time) *Snapshot {
	sorted := make([]Clip, len(clips))
	copy(sorted, clips)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Score > sorted[j].Score })
	return &Snapshot{
		Key:       Key(query),
		Query:     query,
		TotalHits: totalHits,
		Clips:     sorted,
		CreatedAt: now.UTC(),
	}
}

// Filter returns the clips in bucket c. ConfidenceAll returns every clip.
func (s *Snapshot) Filter(c Confidence) []Clip {
	if c == ConfidenceAll || c == "" {
		out := make([]Clip, len(s.Clips))
		copy(out, s.Clips)
		return out
	}
	var out []Clip
	for _, clip := range s.Clips {
		if clip.Confidence() == c {
			out = append(out, clip)
		}
	}
	return out
}

// Counts returns the number of clips per bucket, including ConfidenceAll.
func (s *Snapshot) Counts() map[Confidence]int {
	counts := map[Confidence]int{
		ConfidenceAll:    len(s.Clips),
		ConfidenceHigh:   0,
		ConfidenceMedium: 0,
		ConfidenceLow:    0,
	}
	for _, clip := range s.Clips {
		counts[clip.Confidence()]++
	}
	return counts
}

// Page is one page of a filtered clip list. Number is 1-based.
type Page struct {
	Clips  []Clip `json:"clips"`
	Number int    `json:"page"`
	Size   int    `json:"per_page"`
	Total  int    `json:"total"`
	Pages  int    `json:"total_pages"`
}

// HasPrev reports whether an earlier page exists.
func (p Page) HasPrev() bool { return p.Number > 1 }

// HasNext reports whether a later page exists.
func (p Page) HasNext() bool { return p.Number < p.Pages }

// Paginate returns page number (1-based) of clips. A page past the end is
// empty; size <= 0 means DefaultPageSize.
func Paginate(clips []Clip, number, size int) Page {
	if size <= 0 {
		size = DefaultPageSize
	}
	if number < 1 {
		number = 1
	}
	total := len(clips)
	p := Page{
		Number: number,
		Size:   size,
		Total:  total,
		Pages:  (total + size - 1) / size,
		Clips:  []Clip{},
	}
	start := (number - 1) * size
	if start >= total {
		return p
	}
	end := start + size
	if end > total {
		end = total
	}
	p.Clips = clips[start:end]
	return p
}
