package series

import "errors"

var (
	// ErrNotFound is returned when no dataset exists for a video id.
	ErrNotFound = errors.New("time series not found")

	// ErrEmptySeries is returned when a dataset holds no samples.
	ErrEmptySeries = errors.New("time series has no samples")

	// ErrMalformedDataset is returned when a dataset cannot be interpreted.
	ErrMalformedDataset = errors.New("malformed time series dataset")

	// ErrInvalidVideoID is returned for ids that cannot name a dataset.
	ErrInvalidVideoID = errors.New("invalid video id")
)
