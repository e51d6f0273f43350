package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/resume-optimizer/internal/llm"
	"github.com/jonathan/resume-optimizer/internal/repair"
	"github.com/jonathan/resume-optimizer/internal/schemas"
)

// RunError reports the state a run failed in.
type RunError struct {
	State State
	Cause error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("pipeline failed in %s: %v", e.State, e.Cause)
}

func (e *RunError) Unwrap() error {
	return e.Cause
}

// InputError reports an application input that failed validation.
type InputError struct {
	Message string
	Cause   error
}

func (e *InputError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("invalid input: %s: %v", e.Message, e.Cause)
	}
	return "invalid input: " + e.Message
}

func (e *InputError) Unwrap() error {
	return e.Cause
}

// ErrStateTransition is returned when the orchestrator attempts a transition the state
// machine does not allow.
var ErrStateTransition = errors.New("illegal state transition")

// HTTPStatus maps a pipeline error to the status code a caller should report.
func HTTPStatus(err error) int {
	var inputErr *InputError
	var validationErrs validator.ValidationErrors
	var configErr *llm.ConfigError
	var exhausted *llm.RetryExhaustedError
	var guardErr *repair.GuardrailError
	var schemaErr *schemas.ValidationError

	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &inputErr), errors.As(err, &validationErrs):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &configErr):
		return http.StatusServiceUnavailable
	case errors.As(err, &exhausted):
		return http.StatusBadGateway
	case errors.As(err, &guardErr), errors.As(err, &schemaErr), llm.IsFatalOutput(err):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
