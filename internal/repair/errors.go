package repair

import (
	"fmt"
	"strings"
)

// GuardrailError means the rewrite still broke the guardrails after its one corrective pass.
type GuardrailError struct {
	Issues []Issue
	Cause  error
}

func (e *GuardrailError) Error() string {
	details := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		details = append(details, issue.String())
	}
	return fmt.Sprintf("rewrite failed guardrail validation after correction: %s", strings.Join(details, "; "))
}

func (e *GuardrailError) Unwrap() error {
	return e.Cause
}
