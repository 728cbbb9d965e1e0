package apollo

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrInvalidResponse: upstream answered 2xx but not with a JSON document.
var ErrInvalidResponse = errors.New("apollo: invalid response format")

// StatusError is a non-2xx answer from Apollo. Summary is already trimmed and
// redacted and is safe to hand to clients.
type StatusError struct {
	StatusCode int
	StatusText string
	Summary    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("apollo: status %d %s", e.StatusCode, e.StatusText)
}

// NetworkError wraps transport failures and per-attempt timeouts.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string { return "apollo: network error: " + e.Err.Error() }
func (e *NetworkError) Unwrap() error { return e.Err }

func statusText(res *http.Response) string {
	if t := http.StatusText(res.StatusCode); t != "" {
		return t
	}
	return "upstream error"
}
