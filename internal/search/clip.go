// Package search runs text queries against a video search provider and keeps
// immutable result snapshots keyed by the normalized query.
package search

import (
	"fmt"
	"strings"

	"github.com/sanspareilsmyn/momentlens/internal/moment"
)

// Clip is one ranked search hit.
type Clip struct {
	VideoID      string  `json:"video_id"`
	Start        float64 `json:"start"`
	End          float64 `json:"end"`
	Score        float64 `json:"score"`
	ThumbnailURL string  `json:"thumbnail_url,omitempty"`
}

// Confidence buckets a clip score.
type Confidence string

const (
	ConfidenceAll    Confidence = "all"
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

const (
	highScore   = 80
	mediumScore = 75
)

// ConfidenceOf buckets score: >= 80 high, >= 75 medium, otherwise low.
func ConfidenceOf(score float64) Confidence {
	switch {
	case score >= highScore:
		return ConfidenceHigh
	case score >= mediumScore:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// ParseConfidence accepts all, high, medium or low. Empty means all.
func ParseConfidence(s string) (Confidence, error) {
	switch c := Confidence(strings.ToLower(strings.TrimSpace(s))); c {
	case "", ConfidenceAll:
		return ConfidenceAll, nil
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
		return c, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidConfidence, s)
	}
}

// Confidence returns the clip's bucket.
func (c Clip) Confidence() Confidence { return ConfidenceOf(c.Score) }

// Moment converts the clip into a selectable moment.
func (c Clip) Moment(label string) moment.Moment {
	return moment.Moment{
		VideoID:   c.VideoID,
		Start:     c.Start,
		End:       c.End,
		Label:     label,
		Thumbnail: c.ThumbnailURL,
	}
}
