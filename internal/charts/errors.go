package charts

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSourceMissing means a strategy found nothing to decode.
var ErrSourceMissing = errors.New("source not present on page")

// DecodeError reports a source that was present but held invalid data.
type DecodeError struct {
	Strategy string
	SourceID string
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.SourceID, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Attempt records one failed strategy.
type Attempt struct {
	Strategy string
	Err      error
}

// ResolutionError means no strategy produced a series for a chart.
type ResolutionError struct {
	SourceID string
	Attempts []Attempt
}

func (e *ResolutionError) Error() string {
	if len(e.Attempts) == 0 {
		return fmt.Sprintf("resolve %s: no strategies configured", e.SourceID)
	}
	parts := make([]string, len(e.Attempts))
	for i, a := range e.Attempts {
		parts[i] = fmt.Sprintf("%s: %v", a.Strategy, a.Err)
	}
	return fmt.Sprintf("resolve %s: %s", e.SourceID, strings.Join(parts, "; "))
}

// Unwrap exposes every attempt error to errors.Is and errors.As.
func (e *ResolutionError) Unwrap() []error {
	out := make([]error, len(e.Attempts))
	for i, a := range e.Attempts {
		out[i] = a.Err
	}
	return out
}
