// Package apperr tags errors with the small set of failure kinds the HTTP
// layer knows how to report.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	Internal Kind = iota
	InvalidRequest
	UpstreamUnavailable
	UpstreamMalformedResponse
	ConfigurationMissing
	PersistenceFailure
)

func (k Kind) String() string {
	switch k {
	case InvalidRequest:
		return "invalid_request"
	case UpstreamUnavailable:
		return "upstream_unavailable"
	case UpstreamMalformedResponse:
		return "upstream_malformed_response"
	case ConfigurationMissing:
		return "configuration_missing"
	case PersistenceFailure:
		return "persistence_failure"
	default:
		return "internal"
	}
}

// Error carries a Kind alongside the wrapped cause
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New wraps err with kind. A nil err stays nil.
func New(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: err}
}

// Errorf formats a message and tags it with kind
func Errorf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the outermost Kind found in err's chain, or Internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// HTTPStatus maps a kind to the status code used in strict mode
func HTTPStatus(k Kind) int {
	switch k {
	case InvalidRequest:
		return http.StatusUnprocessableEntity
	case UpstreamUnavailable, UpstreamMalformedResponse:
		return http.StatusBadGateway
	case ConfigurationMissing:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
