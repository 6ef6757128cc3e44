package result

import (
	"errors"
	"fmt"
)

// Kind classifies the outcome of a core operation.
type Kind string

const (
	KindOK        Kind = "ok"
	KindNotFound  Kind = "not_found"
	KindForbidden Kind = "forbidden"
	KindInvalid   Kind = "invalid"
	KindConflict  Kind = "conflict"
)

// Result is the business-outcome channel. A non-OK Result is an expected,
// user-facing answer, never an infrastructure failure.
type Result struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	ID      int64  `json:"id,omitempty"`
}

func (r Result) OK() bool { return r.Kind == KindOK }

func OK(msg string) Result { return Result{Kind: KindOK, Message: msg} }

func Created(id int64, msg string) Result { return Result{Kind: KindOK, Message: msg, ID: id} }

func NotFound(msg string) Result { return Result{Kind: KindNotFound, Message: msg} }

func Forbidden(msg string) Result { return Result{Kind: KindForbidden, Message: msg} }

func Forbiddenf(format string, args ...any) Result {
	return Result{Kind: KindForbidden, Message: fmt.Sprintf(format, args...)}
}

func Invalid(msg string) Result { return Result{Kind: KindInvalid, Message: msg} }

func Invalidf(format string, args ...any) Result {
	return Result{Kind: KindInvalid, Message: fmt.Sprintf(format, args...)}
}

func Conflict(msg string) Result { return Result{Kind: KindConflict, Message: msg} }

// PublicMessage is the only text an end caller sees for an infrastructure failure.
const PublicMessage = "The service is temporarily unavailable, please try again later"

// InfraError wraps persistence or transport failures so callers can tell
// "your request is invalid" apart from "try again later".
type InfraError struct {
	Op  string
	Err error
}

func (e *InfraError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *InfraError) Unwrap() error { return e.Err }

func Infra(op string, err error) error {
	if err == nil {
		return nil
	}
	var ie *InfraError
	if errors.As(err, &ie) {
		return err
	}
	return &InfraError{Op: op, Err: err}
}

func IsInfra(err error) bool {
	var ie *InfraError
	return errors.As(err, &ie)
}
