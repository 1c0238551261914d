package azure

import (
	"fmt"
	"net/http"
)

// SubmissionError describes a failed fine-tune management call. Op is one
// of "upload", "create", or "status". Status carries the last HTTP status
// observed (0 for transport and filesystem errors).
type SubmissionError struct {
	Op     string
	Status int
	Err    error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("fine-tune %s: %v", e.Op, e.Err)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// IsAuth reports whether the call failed authentication.
func (e *SubmissionError) IsAuth() bool {
	return e.Status == http.StatusUnauthorized
}

// ChatError describes a failed completion turn. Recoverable: the session
// keeps its transcript and the user can retry.
type ChatError struct {
	Status int
	Err    error
}

func (e *ChatError) Error() string {
	return fmt.Sprintf("completion request: %v", e.Err)
}

func (e *ChatError) Unwrap() error {
	return e.Err
}
