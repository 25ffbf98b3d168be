package partner

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies where a partner failure originated
type Kind int

const (
	// KindTransportFailure is a DNS, connection, timeout or read failure
	KindTransportFailure Kind = iota + 1
	// KindHTTPStatus is a non-2xx response from the partner
	KindHTTPStatus
	// KindMalformedResponse is a 2xx response whose body could not be used
	KindMalformedResponse
)

// String returns the kind name
func (k Kind) String() string {
	switch k {
	case KindTransportFailure:
		return "transport_failure"
	case KindHTTPStatus:
		return "http_status"
	case KindMalformedResponse:
		return "malformed_response"
	default:
		return "unknown"
	}
}

// Simulation failure messages, keyed by the partner's HTTP status
const (
	MsgInvalidSimulationInput = "invalid simulation input"
	MsgUnauthorized           = "unauthorized: credential problem"
	MsgContractNotFound       = "contract not found"
	MsgNetValueBelowMinimum   = "net value below minimum allowed"
	MsgPartnerInternalError   = "partner internal error"
	MsgSimulationFailed       = "simulation error"
)

// Messages for the authentication and contract operations
const (
	MsgAuthenticationFailed = "authentication failed"
	MsgMissingToken         = "authentication response did not include a token"
	MsgContractsFailed      = "failed to fetch contracts"
	MsgInvalidResponse      = "invalid response from partner"
	MsgConnectionProblem    = "connection problem with partner"
)

// Error is the single failure type returned by Client.
// StatusCode is the partner's HTTP status, or 500 for transport failures
// and malformed responses. RawBody keeps the upstream body for diagnostics.
type Error struct {
	Kind       Kind
	StatusCode int
	Message    string
	RawBody    string

	cause error
}

// Error implements the error interface
func (e *Error) Error() string {
	// Transport messages already carry the cause
	if e.cause != nil && e.Kind != KindTransportFailure {
		return fmt.Sprintf("partner: %s (status %d): %v", e.Message, e.StatusCode, e.cause)
	}
	return fmt.Sprintf("partner: %s (status %d)", e.Message, e.StatusCode)
}

// Unwrap returns the underlying transport or decoding error, if any
func (e *Error) Unwrap() error {
	return e.cause
}

func newTransportError(cause error) *Error {
	return &Error{
		Kind:       KindTransportFailure,
		StatusCode: http.StatusInternalServerError,
		Message:    fmt.Sprintf("%s: %v", MsgConnectionProblem, cause),
		cause:      cause,
	}
}

func newStatusError(status int, message string, body []byte) *Error {
	return &Error{
		Kind:       KindHTTPStatus,
		StatusCode: status,
		Message:    message,
		RawBody:    string(body),
	}
}

func newMalformedError(message string, body []byte, cause error) *Error {
	return &Error{
		Kind:       KindMalformedResponse,
		StatusCode: http.StatusInternalServerError,
		Message:    message,
		RawBody:    string(body),
		cause:      cause,
	}
}

// SimulationMessage maps a simulation response status to its message
func SimulationMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return MsgInvalidSimulationInput
	case http.StatusUnauthorized:
		return MsgUnauthorized
	case http.StatusNotFound:
		return MsgContractNotFound
	case http.StatusUnprocessableEntity:
		return MsgNetValueBelowMinimum
	case http.StatusInternalServerError:
		return MsgPartnerInternalError
	default:
		return MsgSimulationFailed
	}
}

// AsError extracts a *Error from err's chain
func AsError(err error) (*Error, bool) {
	var pe *Error
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// IsTransportFailure reports whether err is a partner transport failure
func IsTransportFailure(err error) bool {
	pe, ok := AsError(err)
	return ok && pe.Kind == KindTransportFailure
}

// IsHTTPStatus reports whether err is a non-2xx partner response
func IsHTTPStatus(err error) bool {
	pe, ok := AsError(err)
	return ok && pe.Kind == KindHTTPStatus
}

// IsMalformed reports whether err is an unusable 2xx partner response
func IsMalformed(err error) bool {
	pe, ok := AsError(err)
	return ok && pe.Kind == KindMalformedResponse
}
