package gateway

import (
	"fmt"
	"net/http"
)

type Kind string

const (
	KindInvalidInput    Kind = "invalid_input"
	KindNotFound        Kind = "not_found"
	KindForbidden       Kind = "forbidden"
	KindExpired         Kind = "expired"
	KindMisconfigured   Kind = "misconfigured"
	KindUpstream        Kind = "upstream_error"
	KindNetwork         Kind = "network_error"
	KindInvalidResponse Kind = "invalid_response"
)

// Sentinels for errors.Is; only the Kind is compared.
var (
	ErrInvalidInput    = &Error{Kind: KindInvalidInput}
	ErrNotFound        = &Error{Kind: KindNotFound}
	ErrForbidden       = &Error{Kind: KindForbidden}
	ErrExpired         = &Error{Kind: KindExpired}
	ErrMisconfigured   = &Error{Kind: KindMisconfigured}
	ErrUpstream        = &Error{Kind: KindUpstream}
	ErrNetwork         = &Error{Kind: KindNetwork}
	ErrInvalidResponse = &Error{Kind: KindInvalidResponse}
)

// Error is what the gateway returns for every failed request. Status is the
// HTTP status the inbound surface should answer with.
type Error struct {
	Kind    Kind
	Status  int
	Message string

	// UpstreamStatus and StatusText are set for KindUpstream only
	UpstreamStatus int
	StatusText     string
	// upstream summary or transport error text (KindUpstream, KindNetwork)
	Details string

	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func newError(kind Kind, status int, msg string) *Error {
	return &Error{Kind: kind, Status: status, Message: msg}
}

func invalidInput(msg string) *Error { return newError(KindInvalidInput, http.StatusBadRequest, msg) }
func notFound(msg string) *Error     { return newError(KindNotFound, http.StatusNotFound, msg) }
func forbidden(msg string) *Error    { return newError(KindForbidden, http.StatusForbidden, msg) }
func expired(msg string) *Error      { return newError(KindExpired, http.StatusForbidden, msg) }

// KindInternal covers failures outside the taxonomy above (500).
const KindInternal Kind = "internal"

var ErrInternal = &Error{Kind: KindInternal}
