package llm

import (
	"errors"
	"fmt"
)

// TransientError is a generator failure worth retrying (rate limit, timeout, 5xx).
type TransientError struct {
	Status  int
	Message string
	Cause   error
}

func (e *TransientError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("transient generator error (status %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("transient generator error: %s", e.Message)
}

func (e *TransientError) Unwrap() error {
	return e.Cause
}

// ConfigError is a fatal setup problem such as a missing API key.
type ConfigError struct {
	Message string
	Cause   error
}

func (e *ConfigError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("generator configuration error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("generator configuration error: %s", e.Message)
}

func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// ParseError means the response text was not valid JSON.
type ParseError struct {
	Message string
	Raw     string
	Cause   error
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to parse generator response: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to parse generator response: %s", e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// SchemaError means the response was JSON but not the expected shape.
type SchemaError struct {
	Message string
	Cause   error
}

func (e *SchemaError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("generator response does not match schema: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("generator response does not match schema: %s", e.Message)
}

func (e *SchemaError) Unwrap() error {
	return e.Cause
}

// RetryExhaustedError is returned when every attempt failed with a transient error.
type RetryExhaustedError struct {
	Attempts int
	Cause    error
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("generator failed after %d attempts: %v", e.Attempts, e.Cause)
}

func (e *RetryExhaustedError) Unwrap() error {
	return e.Cause
}

// IsFatalOutput reports whether err is a malformed-output failure (parse or schema).
func IsFatalOutput(err error) bool {
	var pe *ParseError
	var se *SchemaError
	return errors.As(err, &pe) || errors.As(err, &se)
}
