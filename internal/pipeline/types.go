package pipeline

import (
	"errors"
	"time"

	"github.com/sanspareilsmyn/momentlens/internal/aggregate"
	"github.com/sanspareilsmyn/momentlens/internal/moment"
)

// Request is one aggregation over a list of user-selected moments.
// PreDuration and PostExtra only apply to line mode.
type Request struct {
	ID          string
	Query       string
	Mode        string
	PreDuration float64
	PostExtra   float64
	Inputs      []moment.Input
}

// Outcome is the result of a Request. Result is nil when Err is set.
type Outcome struct {
	ID          string
	Query       string
	Mode        aggregate.Mode
	Result      aggregate.Result
	Moments     []moment.Moment
	Rejected    []moment.Rejected
	Err         error
	Duration    time.Duration
	CompletedAt time.Time
}

// Included is the number of moments that contributed to the result.
func (o *Outcome) Included() int {
	switch r := o.Result.(type) {
	case *aggregate.PooledResult:
		return r.Segments
	case *aggregate.AlignedResult:
		return r.Included
	default:
		return 0
	}
}

// Drops returns excluded and skipped moments, in that order.
func (o *Outcome) Drops() []aggregate.Drop {
	switch r := o.Result.(type) {
	case *aggregate.PooledResult:
		return r.Skipped
	case *aggregate.AlignedResult:
		out := make([]aggregate.Drop, 0, len(r.Excluded)+len(r.Skipped))
		out = append(out, r.Excluded...)
		return append(out, r.Skipped...)
	default:
		return nil
	}
}

// status is the metric label for the outcome.
func (o *Outcome) status() string {
	switch {
	case o.Err == nil:
		return "ok"
	case errors.Is(o.Err, aggregate.ErrNoData):
		return "no_data"
	default:
		return "error"
	}
}
