// SPDX-License-Identifier: Apache-2.0
// Package errors provides typed error handling for the Adulter orchestrator.
package errors

import (
	"encoding/json"
	"fmt"
)

// ErrorCode classifies orchestrator errors for monitoring and recovery.
type ErrorCode string

const (
	// CodeConfiguration indicates invalid role/tool wiring. Fatal at construction.
	CodeConfiguration ErrorCode = "CONFIGURATION_ERROR"

	// CodeCapability indicates a role attempted a tool call outside its
	// capability set. The call is rejected, the turn continues.
	CodeCapability ErrorCode = "CAPABILITY_ERROR"

	// CodeValidation indicates malformed tool arguments. Surfaced as error
	// text to the issuing role.
	CodeValidation ErrorCode = "VALIDATION_ERROR"

	// CodeCollaborator indicates an external API failure or timeout.
	// Surfaced as error text, never retried by the bridge.
	CodeCollaborator ErrorCode = "COLLABORATOR_ERROR"

	// CodeAdapter indicates the reasoning backend was unavailable. The turn
	// is counted as unproductive.
	CodeAdapter ErrorCode = "ADAPTER_ERROR"

	// CodeRoundLimit indicates governor-forced termination. A result state,
	// not a fault.
	CodeRoundLimit ErrorCode = "ROUND_LIMIT_EXCEEDED"

	// CodeTimeout indicates an operation exceeded its time limit.
	CodeTimeout ErrorCode = "TIMEOUT"

	// CodeCancelled indicates the conversation was abandoned by its caller.
	CodeCancelled ErrorCode = "CANCELLED"

	// CodeInternal indicates an internal system error.
	CodeInternal ErrorCode = "INTERNAL_ERROR"
)

// AdulterError is a typed error with structured context for observability.
// It implements the error interface and can be unwrapped with errors.As().
type AdulterError struct {
	Code        ErrorCode
	Message     string
	Err         error
	Context     map[string]interface{}
	Recoverable bool
	StatusCode  int
}

// Error implements the error interface.
func (e *AdulterError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements errors.Unwrap for error chain traversal.
func (e *AdulterError) Unwrap() error {
	return e.Err
}

// MarshalJSON implements json.Marshaler for structured logging.
func (e *AdulterError) MarshalJSON() ([]byte, error) {
	type Alias AdulterError
	return json.Marshal(&struct {
		Message     string `json:"message"`
		Code        string `json:"code"`
		Err         string `json:"error,omitempty"`
		Recoverable bool   `json:"recoverable"`
		*Alias
	}{
		Message:     e.Error(),
		Code:        string(e.Code),
		Err:         fmt.Sprintf("%v", e.Err),
		Recoverable: e.Recoverable,
		Alias:       (*Alias)(e),
	})
}

// New creates a new AdulterError with the given code, message, and cause.
// Every code except CodeConfiguration is recoverable by default: the
// conversation must stay in a well-defined, continuable state.
func New(code ErrorCode, msg string, cause error) *AdulterError {
	return &AdulterError{
		Code:        code,
		Message:     msg,
		Err:         cause,
		Context:     make(map[string]interface{}),
		Recoverable: code != CodeConfiguration,
		StatusCode:  codeToStatusCode(code),
	}
}

// WithContext adds a key-value pair to the error context.
// Returns the error for method chaining.
func (e *AdulterError) WithContext(key string, value interface{}) *AdulterError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithRecoverable sets whether the error can be recovered from.
// Returns the error for method chaining.
func (e *AdulterError) WithRecoverable(recoverable bool) *AdulterError {
	e.Recoverable = recoverable
	return e
}

// AsAdulterError attempts to convert an error to an AdulterError.
// Returns the error as AdulterError if it is one, or wraps it otherwise.
func AsAdulterError(err error) *AdulterError {
	if err == nil {
		return nil
	}
	if ae, ok := err.(*AdulterError); ok {
		return ae
	}
	return New(CodeInternal, "wrapped error", err)
}

// CodeOf returns the error code for an error, or CodeInternal for
// untyped errors. Returns an empty code for nil.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	if ae, ok := err.(*AdulterError); ok {
		return ae.Code
	}
	return CodeInternal
}

// codeToStatusCode maps error codes to HTTP status codes.
func codeToStatusCode(code ErrorCode) int {
	switch code {
	case CodeValidation:
		return 400
	case CodeCapability:
		return 403
	case CodeTimeout:
		return 408
	case CodeCancelled:
		return 499
	case CodeCollaborator, CodeAdapter:
		return 502
	default:
		return 500
	}
}
