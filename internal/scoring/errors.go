package scoring

import (
	"errors"
	"fmt"
)

// ErrInvalidBaseline is returned when a baseline is zero or negative
var ErrInvalidBaseline = errors.New("invalid baseline")

// InvalidBaselineError carries the source and the rejected baseline
type InvalidBaselineError struct {
	Source   string
	Baseline float64
}

func (e *InvalidBaselineError) Error() string {
	return fmt.Sprintf("invalid baseline %v for source %q: must be > 0", e.Baseline, e.Source)
}

func (e *InvalidBaselineError) Unwrap() error {
	return ErrInvalidBaseline
}
