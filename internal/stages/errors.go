package stages

import (
	"fmt"

	"github.com/jonathan/resume-optimizer/internal/types"
)

// StageError reports which model-backed stage failed and why.
type StageError struct {
	Stage   types.StageName
	Message string
	Cause   error
}

func (e *StageError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("stage %s: %s: %v", e.Stage, e.Message, e.Cause)
	}
	return fmt.Sprintf("stage %s: %s", e.Stage, e.Message)
}

func (e *StageError) Unwrap() error {
	return e.Cause
}
