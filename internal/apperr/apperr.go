// Package apperr defines the error taxonomy shared by the vote pipeline
// and the HTTP layer.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindUnauthenticated
	KindInvalidArgument
	KindNotFound
	KindResourceExhausted
	// KindAborted marks a transaction conflict that survived the
	// processor's automatic retries. Callers may retry after backoff.
	KindAborted
)

// Error tags an underlying error with a Kind so handlers can map it to a
// status code without string matching.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

func Unauthenticated(msg string) *Error    { return New(KindUnauthenticated, msg) }
func InvalidArgument(msg string) *Error    { return New(KindInvalidArgument, msg) }
func NotFound(msg string) *Error           { return New(KindNotFound, msg) }
func ResourceExhausted(msg string) *Error  { return New(KindResourceExhausted, msg) }
func Aborted(msg string, err error) *Error { return Wrap(KindAborted, msg, err) }

// KindOf extracts the Kind from err, defaulting to KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// HTTPStatus maps the taxonomy onto the statuses the API responds with.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindInvalidArgument:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindResourceExhausted:
		return http.StatusTooManyRequests
	case KindAborted:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
