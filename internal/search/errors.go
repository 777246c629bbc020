package search

import "errors"

var (
	ErrEmptyQuery        = errors.New("search query cannot be empty")
	ErrInvalidConfidence = errors.New("invalid confidence filter")
	ErrSearchFailed      = errors.New("video search failed")
	ErrNotConfigured     = errors.New("video search provider is not configured")
)
