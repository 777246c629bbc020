package report

import "errors"

var (
	ErrUnsupportedResult = errors.New("unsupported aggregate result")
	ErrRenderFailed      = errors.New("failed to render charts")
)
