package core

import "errors"

// Error taxonomy of an orchestration run. Callers match with errors.Is.
var (
	// ErrInvalidArgument reports a request rejected before any external call (e.g. empty query).
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrClarificationNeeded reports that a capability needs a subject identifier nobody supplied.
	// It is a valid terminal outcome and is rendered to the user as a question.
	ErrClarificationNeeded = errors.New("clarification needed")

	// ErrServiceUnavailable reports an unreachable or malformed reasoning engine round-trip.
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrCapabilityFailure reports a failed domain-service call. It never aborts a run.
	ErrCapabilityFailure = errors.New("capability failure")

	// ErrUnknownCapability reports an engine-requested capability absent from the registry.
	ErrUnknownCapability = errors.New("unknown capability")

	// ErrSubjectMismatch reports an engine-supplied subject identifier that differs from the
	// caller's. It only surfaces when the reject policy is configured.
	ErrSubjectMismatch = errors.New("subject identifier mismatch")

	// ErrNotFound reports a missing record.
	ErrNotFound = errors.New("not found")
)
