package server

import (
	"errors"
	"net/http"

	"github.com/sanspareilsmyn/momentlens/internal/aggregate"
	"github.com/sanspareilsmyn/momentlens/internal/moment"
	"github.com/sanspareilsmyn/momentlens/internal/pipeline"
	"github.com/sanspareilsmyn/momentlens/internal/search"
	"github.com/sanspareilsmyn/momentlens/internal/series"
)

var (
	ErrInvalidBody  = errors.New("invalid request body")
	ErrInvalidParam = errors.New("invalid query parameter")
)

// statusOf maps domain errors onto HTTP status codes.
func statusOf(err error) int {
	switch {
	case errors.Is(err, series.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, search.ErrNotConfigured):
		return http.StatusServiceUnavailable
	case errors.Is(err, search.ErrSearchFailed):
		return http.StatusBadGateway
	case errors.Is(err, ErrInvalidBody),
		errors.Is(err, ErrInvalidParam),
		errors.Is(err, aggregate.ErrNoData),
		errors.Is(err, aggregate.ErrNoMoments),
		errors.Is(err, aggregate.ErrUnknownMode),
		errors.Is(err, aggregate.ErrInvalidWindow),
		errors.Is(err, moment.ErrJSONUnmarshalFailed),
		errors.Is(err, pipeline.ErrInvalidSegment),
		errors.Is(err, series.ErrInvalidVideoID),
		errors.Is(err, search.ErrEmptyQuery),
		errors.Is(err, search.ErrInvalidConfidence):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
