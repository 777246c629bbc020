package pipeline

import "errors"

var (
	ErrInvalidConfig  = errors.New("invalid aggregation configuration")
	ErrNoValidMoments = errors.New("no valid moments in request")
	ErrInvalidSegment = errors.New("invalid segment request")
)
