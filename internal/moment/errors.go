package moment

import "errors"

var (
	ErrMissingVideoID      = errors.New("moment has no video id")
	ErrInvalidTime         = errors.New("moment time is not a finite number")
	ErrInvertedWindow      = errors.New("moment ends before it starts")
	ErrMalformedSelection  = errors.New("malformed selection")
	ErrJSONUnmarshalFailed = errors.New("failed to unmarshal JSON")
)
