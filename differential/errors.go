package differential

import (
	"fmt"
)

// InputShapeError is returned before any computation when the input table has
// the wrong number of columns or a value that cannot be used.
type InputShapeError struct {
	Row    int
	Reason string
}

func (e *InputShapeError) Error() string {
	if e.Row < 0 {
		return fmt.Sprintf("bad input: %s", e.Reason)
	}
	return fmt.Sprintf("bad input at data row %d: %s", e.Row, e.Reason)
}

// InsufficientDataError is returned when there are no rows, or fewer rows than
// the sliding window is wide.
type InsufficientDataError struct {
	Rows   int
	Window int
	Err    error
}

func (e *InsufficientDataError) Error() string {
	if e.Rows == 0 {
		return "no data rows to analyze"
	}
	return fmt.Sprintf("%d data rows is fewer than the sliding window width of %d", e.Rows, e.Window)
}

func (e *InsufficientDataError) Unwrap() error {
	return e.Err
}

// FitConvergenceError wraps a failed Gaussian fit of the Z-score histogram.
type FitConvergenceError struct {
	Err error
}

func (e *FitConvergenceError) Error() string {
	return e.Err.Error()
}

func (e *FitConvergenceError) Unwrap() error {
	return e.Err
}

// ConfigError names an invalid configuration field.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s %s", e.Field, e.Reason)
}
