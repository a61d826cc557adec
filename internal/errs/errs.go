// Package errs defines the error taxonomy shared by the ingestion pipeline.
//
// Every failure that crosses a component boundary is an *Error tagged with a
// Kind. Callers branch on the kind (errors.Is against the sentinels below, or
// KindOf) instead of on concrete error types.
package errs

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Kind classifies a failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindAuthConfiguration
	KindAuthRefresh
	KindAuthProtocol
	KindUnauthorized
	KindUpstreamAuth
	KindUpstreamTimeout
	KindUpstreamConnection
	KindUpstream
	KindPersistenceParse
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindAuthConfiguration:
		return "auth_configuration"
	case KindAuthRefresh:
		return "auth_refresh"
	case KindAuthProtocol:
		return "auth_protocol"
	case KindUnauthorized:
		return "unauthorized"
	case KindUpstreamAuth:
		return "upstream_auth"
	case KindUpstreamTimeout:
		return "upstream_timeout"
	case KindUpstreamConnection:
		return "upstream_connection"
	case KindUpstream:
		return "upstream"
	case KindPersistenceParse:
		return "persistence_parse"
	case KindNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Error is a failure tagged with its Kind.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	case e.Err != nil:
		return e.Err.Error()
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is a sentinel of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Err == nil && t.Kind == e.Kind
}

var (
	ErrAuthConfiguration  = &Error{Kind: KindAuthConfiguration}
	ErrAuthRefresh        = &Error{Kind: KindAuthRefresh}
	ErrAuthProtocol       = &Error{Kind: KindAuthProtocol}
	ErrUnauthorized       = &Error{Kind: KindUnauthorized}
	ErrUpstreamAuth       = &Error{Kind: KindUpstreamAuth}
	ErrUpstreamTimeout    = &Error{Kind: KindUpstreamTimeout}
	ErrUpstreamConnection = &Error{Kind: KindUpstreamConnection}
	ErrUpstream           = &Error{Kind: KindUpstream}
	ErrPersistenceParse   = &Error{Kind: KindPersistenceParse}
	ErrNotFound           = &Error{Kind: KindNotFound}
)

// E builds a tagged error.
func E(kind Kind, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Errorf builds a tagged error with a formatted cause.
func Errorf(kind Kind, op, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the kind of the outermost tagged error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Retryable reports whether a caller may reasonably retry the operation.
// Nothing inside this module retries on this basis.
func Retryable(err error) bool {
	switch KindOf(err) {
	case KindUpstreamTimeout, KindUpstreamConnection:
		return true
	default:
		return false
	}
}

// Fatal reports whether err must not be retried by anyone.
func Fatal(err error) bool {
	switch KindOf(err) {
	case KindAuthConfiguration, KindAuthProtocol, KindUpstreamAuth:
		return true
	default:
		return false
	}
}

// Transport classifies a failed http.Client.Do call.
func Transport(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return E(KindUpstreamTimeout, op, err)
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return E(KindUpstreamTimeout, op, err)
	}
	return E(KindUpstreamConnection, op, err)
}

// HTTPStatus maps err to the status code reported at the HTTP boundary.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindUpstreamTimeout:
		return http.StatusGatewayTimeout
	case KindUpstreamConnection:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Code is the machine-readable error code reported at the HTTP boundary.
func Code(err error) string {
	switch KindOf(err) {
	case KindNotFound:
		return "not_found"
	case KindUpstreamTimeout:
		return "upstream_timeout"
	case KindUpstreamConnection:
		return "upstream_unreachable"
	case KindAuthConfiguration, KindAuthRefresh, KindAuthProtocol, KindUpstreamAuth:
		return "auth_failure"
	default:
		return "server_error"
	}
}
