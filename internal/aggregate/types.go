package aggregate

import (
	"fmt"
	"strings"

	"github.com/sanspareilsmyn/momentlens/internal/moment"
)

// Mode selects how segments are combined.
type Mode string

const (
	// ModeBox pools every in-window sample per measure.
	ModeBox Mode = "box"
	// ModeLine aligns segments on a relative time grid and averages them.
	ModeLine Mode = "line"
)

// ParseMode accepts "box" or "line" (case-insensitive). An empty string is box.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeBox:
		return ModeBox, nil
	case ModeLine:
		return ModeLine, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// Result is either a *PooledResult or an *AlignedResult.
type Result interface {
	Mode() Mode
}

// Reason explains why a moment contributed nothing.
type Reason string

const (
	ReasonNotFound     Reason = "not_found"
	ReasonLoadFailed   Reason = "load_failed"
	ReasonEmptySegment Reason = "empty_segment"
	ReasonNoCoverage   Reason = "insufficient_coverage"
)

// Drop records a moment left out of an aggregate.
type Drop struct {
	Moment moment.Moment `json:"moment"`
	Reason Reason        `json:"reason"`
	Detail string        `json:"detail,omitempty"`
}

// Label is the display label of the dropped moment.
func (d Drop) Label() string { return d.Moment.DisplayLabel() }

func labels(drops []Drop) []string {
	out := make([]string, len(drops))
	for i, d := range drops {
		out[i] = d.Label()
	}
	return out
}
