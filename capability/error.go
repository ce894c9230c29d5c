package capability

import (
	"fmt"

	"github.com/hupe1980/schoolmate/core"
)

// Error codes attached to failed invocations.
const (
	CodeUnknown    = "UNKNOWN_CAPABILITY"
	CodeValidation = "VALIDATION_ERROR"
	CodeExecution  = "EXECUTION_ERROR"
)

// Error represents a failed capability invocation.
type Error struct {
	Capability string `json:"capability"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("capability error [%s] in %s: %s", e.Code, e.Capability, e.Message)
	}
	return fmt.Sprintf("capability error in %s: %s", e.Capability, e.Message)
}

// Unwrap maps the code onto the core error taxonomy.
func (e *Error) Unwrap() error {
	if e.Code == CodeUnknown {
		return core.ErrUnknownCapability
	}
	return core.ErrCapabilityFailure
}

// NewError creates a new Error with the specified details.
func NewError(capability, message, code string) *Error {
	return &Error{
		Capability: capability,
		Message:    message,
		Code:       code,
	}
}
