package aggregate

import "errors"

var (
	// ErrNoData is returned when no moment contributes any sample.
	ErrNoData = errors.New("no valid data after exclusions")

	ErrUnknownMode   = errors.New("unknown aggregation mode")
	ErrUnknownPolicy = errors.New("unknown out-of-domain policy")
	ErrInvalidWindow = errors.New("pre and post durations must be finite and non-negative")
	ErrNoMoments     = errors.New("no moments to aggregate")
)
