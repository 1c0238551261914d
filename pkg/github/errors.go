package github

import (
	"fmt"
	"net/http"
)

// FetchError describes a failed GitHub list or fetch call. Status carries
// the last HTTP status observed (0 for transport errors), RateLimited is
// set when rate-limit headers attributed the failure.
type FetchError struct {
	Repo        string
	Path        string
	Status      int
	RateLimited bool
	Err         error
}

func (e *FetchError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("fetching %s: %s: %v", e.Repo, e.Path, e.Err)
	}
	return fmt.Sprintf("fetching %s: %v", e.Repo, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// IsAuth reports whether the fetch failed authentication.
func (e *FetchError) IsAuth() bool {
	return e.Status == http.StatusUnauthorized
}

// IsRateLimit reports whether the fetch exhausted the API rate limit.
func (e *FetchError) IsRateLimit() bool {
	return e.Status == http.StatusTooManyRequests || e.RateLimited
}

// IsNotFound reports whether the target repo, ref, or file does not exist.
func (e *FetchError) IsNotFound() bool {
	return e.Status == http.StatusNotFound
}
