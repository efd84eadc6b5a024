package capture

import (
	"errors"
	"strings"
)

// Error taxonomy for the connector. Nothing here is fatal to the process:
// ErrConnect is retried by the session's state machine, ErrRead and
// ErrEndOfStream feed its failure counter.
var (
	// ErrConnect indicates a session could not be established
	ErrConnect = errors.New("capture: connect failed")
	// ErrRead indicates a decode failure or socket error on a live connection
	ErrRead = errors.New("capture: read failed")
	// ErrEndOfStream indicates the source closed the stream gracefully.
	// The source is expected to be perpetual, so the session treats this
	// identically to ErrRead.
	ErrEndOfStream = errors.New("capture: end of stream")
)

// ErrorCategory classifies connector errors for log telemetry.
type ErrorCategory int

const (
	// ErrCategoryNetwork indicates connection, timeout or DNS failures
	ErrCategoryNetwork ErrorCategory = iota
	// ErrCategoryCodec indicates decode or stream format failures
	ErrCategoryCodec
	// ErrCategoryUnknown indicates unclassified errors
	ErrCategoryUnknown
)

// String returns a human-readable string representation of the category.
func (e ErrorCategory) String() string {
	switch e {
	case ErrCategoryNetwork:
		return "network"
	case ErrCategoryCodec:
		return "codec"
	default:
		return "unknown"
	}
}

// Classify buckets a connector error by message heuristics. The FFmpeg layer
// does not expose structured error codes, so string matching is all we have.
func Classify(err error) ErrorCategory {
	if err == nil {
		return ErrCategoryUnknown
	}

	msg := strings.ToLower(err.Error())

	for _, kw := range codecKeywords {
		if strings.Contains(msg, kw) {
			return ErrCategoryCodec
		}
	}
	for _, kw := range networkKeywords {
		if strings.Contains(msg, kw) {
			return ErrCategoryNetwork
		}
	}
	return ErrCategoryUnknown
}

var networkKeywords = []string{
	"connection",
	"timeout",
	"unreachable",
	"refused",
	"network",
	"dns",
	"resolve",
	"socket",
	"rtsp",
	"no media",
}

var codecKeywords = []string{
	"decode",
	"codec",
	"format",
	"corrupt",
	"no frame",
}
