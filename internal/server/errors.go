package server

import (
	"errors"
	"net/http"

	"github.com/jonathan/resume-optimizer/internal/pipeline"
	"github.com/jonathan/resume-optimizer/internal/repair"
)

// ErrorResponse is the JSON body of every error reply.
type ErrorResponse struct {
	Error string `json:"error"`
	// State is the pipeline state a failed run stopped in.
	State string `json:"state,omitempty"`
	// Issues lists the guardrail violations of a rejected rewrite.
	Issues []string `json:"issues,omitempty"`
}

// pipelineError maps a pipeline failure to a status code and body. Internal failures
// get a generic message so wrapped driver errors are not echoed to clients.
func pipelineError(err error) (int, ErrorResponse) {
	status := pipeline.HTTPStatus(err)
	body := ErrorResponse{Error: err.Error()}
	if status == http.StatusInternalServerError {
		body.Error = "internal error"
	}

	var runErr *pipeline.RunError
	if errors.As(err, &runErr) {
		body.State = string(runErr.State)
	}
	var guardErr *repair.GuardrailError
	if errors.As(err, &guardErr) {
		body.Issues = repair.Describe(guardErr.Issues)
	}
	return status, body
}
