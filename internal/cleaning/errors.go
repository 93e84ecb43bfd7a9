package cleaning

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownOption is returned for identifiers outside the catalog.
	ErrUnknownOption = errors.New("unknown cleaning option")
	// ErrDegenerateColumn matches *DegenerateColumnError.
	ErrDegenerateColumn = errors.New("degenerate column")
)

// StepError identifies the step that failed a pipeline run.
type StepError struct {
	Option Option
	Err    error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("cleaning step %s: %v", e.Option, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// DegenerateColumnError reports a constant numeric column that cannot be
// min-max scaled in strict mode.
type DegenerateColumnError struct {
	Column string
	Value  float64
}

func (e *DegenerateColumnError) Error() string {
	return fmt.Sprintf("column %q is constant (%g); cannot normalize", e.Column, e.Value)
}

func (e *DegenerateColumnError) Is(target error) bool { return target == ErrDegenerateColumn }
