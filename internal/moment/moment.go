// Package moment models user-selected time windows within videos.
package moment

import (
	"fmt"
	"math"
)

// Moment is a validated window [Start, End] in seconds within a video.
type Moment struct {
	VideoID   string  `json:"video_id"`
	Start     float64 `json:"start_time"`
	End       float64 `json:"end_time"`
	Label     string  `json:"ad_name,omitempty"`
	Thumbnail string  `json:"thumbnail_url,omitempty"`
}

// Duration returns End - Start.
func (m Moment) Duration() float64 { return m.End - m.Start }

// DisplayLabel returns the label, falling back to the video id.
func (m Moment) DisplayLabel() string {
	if m.Label != "" {
		return m.Label
	}
	return m.VideoID
}

// Input is a raw moment as submitted by a client. Start and End may be JSON
// numbers or numeric strings.
type Input struct {
	VideoID   string      `json:"video_id"`
	Start     interface{} `json:"start_time"`
	End       interface{} `json:"end_time"`
	Label     string      `json:"ad_name,omitempty"`
	Thumbnail string      `json:"thumbnail_url,omitempty"`
}

// Rejected pairs a dropped input with the reason it was dropped.
type Rejected struct {
	Input Input
	Err   error
}

// Validate converts in into a Moment.
func Validate(in Input) (Moment, error) {
	if in.VideoID == "" {
		return Moment{}, ErrMissingVideoID
	}
	start, ok := seconds(in.Start)
	if !ok {
		return Moment{}, fmt.Errorf("%w: start %s", ErrInvalidTime, snippet(in.Start, 32))
	}
	end, ok := seconds(in.End)
	if !ok {
		return Moment{}, fmt.Errorf("%w: end %s", ErrInvalidTime, snippet(in.End, 32))
	}
	if end < start {
		return Moment{}, fmt.Errorf("%w: end %g before start %g", ErrInvertedWindow, end, start)
	}
	return Moment{
		VideoID:   in.VideoID,
		Start:     start,
		End:       end,
		Label:     in.Label,
		Thumbnail: in.Thumbnail,
	}, nil
}

// Parse validates every input, keeping input order. Malformed inputs are
// returned separately and never abort the batch.
func Parse(inputs []Input) (moments []Moment, rejected []Rejected) {
	moments = make([]Moment, 0, len(inputs))
	for _, in := range inputs {
		m, err := Validate(in)
		if err != nil {
			rejected = append(rejected, Rejected{Input: in, Err: err})
			continue
		}
		moments = append(moments, m)
	}
	return moments, rejected
}

// PureDuration is the shortest moment duration, or 0 when moments is empty.
func PureDuration(moments []Moment) float64 {
	if len(moments) == 0 {
		return 0
	}
	shortest := math.Inf(1)
	for _, m := range moments {
		if d := m.Duration(); d < shortest {
			shortest = d
		}
	}
	return shortest
}

// Labels returns the display label of each moment.
func Labels(moments []Moment) []string {
	out := make([]string, len(moments))
	for i, m := range moments {
		out[i] = m.DisplayLabel()
	}
	return out
}
