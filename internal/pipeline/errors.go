package pipeline

import (
	"fmt"

	"github.com/fyrsmithlabs/planforge/internal/stage"
)

// RunError is the single structured error a failed run surfaces. It
// carries the failing stage and the last failure reason; a failed run
// never produces a partial plan.
type RunError struct {
	Stage stage.Stage
	Err   error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("pipeline failed at stage %s: %v", e.Stage, e.Err)
}

func (e *RunError) Unwrap() error { return e.Err }
