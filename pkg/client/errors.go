package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Kind classifies a failed call.
type Kind string

const (
	KindNotFound     Kind = "not_found"
	KindInvalidInput Kind = "invalid_input"
	KindUnauthorized Kind = "unauthorized"
	KindTimeout      Kind = "timeout"
	KindServerError  Kind = "server_error"
	KindUnknown      Kind = "unknown"
)

var defaultMessages = map[Kind]string{
	KindNotFound:     "Recuerdo no encontrado",
	KindInvalidInput: "Datos inválidos. Revisa la información ingresada",
	KindUnauthorized: "No autorizado. Inicia sesión nuevamente",
	KindTimeout:      "La conexión tardó demasiado. Intenta nuevamente",
	KindServerError:  "Error en el servidor. Intenta más tarde",
	KindUnknown:      "Error desconocido",
}

// statusMessages refine the kind's message for specific statuses.
var statusMessages = map[int]string{
	http.StatusForbidden: "No tienes permiso para realizar esta acción",
}

const connectionMessage = "Error de conexión. Verifica tu internet"

// ErrConnection wraps failures where no response arrived (refused, reset,
// DNS). Such errors have Kind unknown and Status 0.
var ErrConnection = errors.New("connection failed")

// Error is the only error type returned by Client methods. Message is safe
// to show to the user as-is.
type Error struct {
	Kind    Kind
	Message string
	// Field is set for invalid_input when the server named the field.
	Field string
	// Status is the HTTP status, 0 when no response was received.
	Status int
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Retryable reports whether calling again may succeed without changing the
// request.
func (e *Error) Retryable() bool {
	return e.Kind == KindTimeout || e.Kind == KindServerError || errors.Is(e.Err, ErrConnection)
}

// IsKind reports whether err is a *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var ce *Error
	return errors.As(err, &ce) && ce.Kind == kind
}

// Message returns the user-facing text for any error, falling back to the
// generic unknown message.
func Message(err error) string {
	var ce *Error
	if errors.As(err, &ce) && ce.Message != "" {
		return ce.Message
	}
	return defaultMessages[KindUnknown]
}

func newError(kind Kind, status int, err error) *Error {
	msg, ok := statusMessages[status]
	if !ok {
		msg = defaultMessages[kind]
	}
	return &Error{Kind: kind, Message: msg, Status: status, Err: err}
}

func kindForStatus(status int) Kind {
	switch {
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return KindInvalidInput
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return KindUnauthorized
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return KindTimeout
	case status >= 500:
		return KindServerError
	default:
		return KindUnknown
	}
}

// transportError classifies a failure that happened before a response was
// read.
func transportError(err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return newError(KindTimeout, 0, err)
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return newError(KindTimeout, 0, err)
	}
	if errors.Is(err, context.Canceled) {
		return newError(KindUnknown, 0, err)
	}
	e := newError(KindUnknown, 0, fmt.Errorf("%w: %w", ErrConnection, err))
	e.Message = connectionMessage
	return e
}
