package routes

import (
	"errors"
	"net/http"
)

// Kind classifies a failure and decides its HTTP status.
type Kind int

const (
	KindPersistence Kind = iota
	KindConfiguration
	KindValidation
	KindAuthentication
	KindAuthorization
	KindNotFound
	KindUpstream
)

// Status maps a Kind to the response code.
func (k Kind) Status() int {
	switch k {
	case KindConfiguration:
		return http.StatusInternalServerError
	case KindValidation, KindUpstream:
		return http.StatusBadRequest
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindAuthorization:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Error is returned by services and rendered at the handler boundary.
// Message is shown to the client; Err is only logged.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func ConfigurationError(msg string) *Error {
	return &Error{Kind: KindConfiguration, Message: msg}
}

func ValidationError(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

func AuthenticationError(msg string) *Error {
	return &Error{Kind: KindAuthentication, Message: msg}
}

func AuthorizationError(msg string) *Error {
	return &Error{Kind: KindAuthorization, Message: msg}
}

func NotFoundError(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

func UpstreamError(msg string, err error) *Error {
	return &Error{Kind: KindUpstream, Message: msg, Err: err}
}

func PersistenceError(err error) *Error {
	return &Error{Kind: KindPersistence, Message: "internal server error", Err: err}
}

// AsError converts any error into an *Error. Unknown errors become persistence
// failures so their text never reaches the client.
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return PersistenceError(err)
}
