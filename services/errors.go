package services

import (
	"errors"
	"fmt"
)

// Kind классифицирует ошибку сервисного слоя; HTTP-статус выбирается по Kind один раз в handlers.
type Kind string

const (
	KindValidation   Kind = "validation_failure"
	KindUpstream     Kind = "upstream_failure"
	KindParse        Kind = "parse_failure"
	KindPersistence  Kind = "persistence_failure"
	KindNotFound     Kind = "not_found"
	KindConflict     Kind = "conflict"
	KindForbidden    Kind = "forbidden"
	KindUnauthorized Kind = "unauthorized"
)

// Error is the only error type services return to handlers.
type Error struct {
	Kind Kind
	Op   string
	// Msg is safe to show to clients. Empty means a generic message per Kind.
	Msg string
	Err error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil && e.Msg != "":
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Msg, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Op, e.Msg)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}

// PublicMessage returns the client-facing message of err.
func PublicMessage(err error) string {
	var se *Error
	if errors.As(err, &se) && se.Msg != "" {
		return se.Msg
	}
	return ""
}

func newError(kind Kind, op, msg string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Msg: msg, Err: cause}
}

func validationError(op, msg string) error { return newError(KindValidation, op, msg, nil) }
func notFoundError(op, msg string, cause error) error {
	return newError(KindNotFound, op, msg, cause)
}
func conflictError(op, msg string, cause error) error {
	return newError(KindConflict, op, msg, cause)
}
func forbiddenError(op, msg string) error    { return newError(KindForbidden, op, msg, nil) }
func unauthorizedError(op, msg string) error { return newError(KindUnauthorized, op, msg, nil) }
func upstreamError(op string, cause error) error {
	return newError(KindUpstream, op, "language model request failed", cause)
}
func parseError(op string, cause error) error {
	return newError(KindParse, op, "language model returned an unusable reply", cause)
}
func persistenceError(op string, cause error) error {
	return newError(KindPersistence, op, "", cause)
}
