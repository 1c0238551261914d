package anthropic

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// SynthesisError describes a failed prompt synthesis for one source file.
// Status carries the last HTTP status observed (0 for transport errors).
type SynthesisError struct {
	Path   string
	Status int
	Err    error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("synthesizing prompt for %s: %v", e.Path, e.Err)
}

func (e *SynthesisError) Unwrap() error {
	return e.Err
}

// IsRateLimit reports whether synthesis failed on the API rate limit.
func (e *SynthesisError) IsRateLimit() bool {
	return e.Status == http.StatusTooManyRequests
}

// IsAuth reports whether synthesis failed authentication.
func (e *SynthesisError) IsAuth() bool {
	return e.Status == http.StatusUnauthorized
}

// IsTimeout reports whether synthesis failed on a request timeout.
func (e *SynthesisError) IsTimeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	return errors.As(e.Err, &netErr) && netErr.Timeout()
}
