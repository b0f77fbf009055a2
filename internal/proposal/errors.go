package proposal

import (
	"errors"
	"fmt"
)

// ErrCollaborator marks a failed or malformed LLM response.
var ErrCollaborator = errors.New("llm collaborator failed")

// CollaboratorError carries the raw model output so callers can surface it.
type CollaboratorError struct {
	Op  string
	Raw string
	Err error
}

func (e *CollaboratorError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, ErrCollaborator)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, ErrCollaborator, e.Err)
}

func (e *CollaboratorError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrCollaborator}
	}
	return []error{ErrCollaborator, e.Err}
}

func malformed(op, raw, format string, args ...interface{}) *CollaboratorError {
	return &CollaboratorError{Op: op, Raw: raw, Err: fmt.Errorf(format, args...)}
}
