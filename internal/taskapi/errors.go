package taskapi

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/ptran999/nodebucket/internal/validate"
)

// Sentinel kinds for task service failures. Every *Error matches exactly one
// of them with errors.Is.
var (
	ErrInvalidInput   = errors.New("invalid input")
	ErrInvalidPayload = errors.New("invalid payload")
	ErrNotFound       = errors.New("employee not found")
	ErrNoOp           = errors.New("write matched no records")
	ErrStoreFault     = errors.New("store fault")
)

// Error is the error type returned by Service. Message is safe to show to
// API callers; Err carries the underlying cause for logs.
type Error struct {
	Kind    error
	Message string
	Fields  validate.Errors
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Is(target error) bool { return target == e.Kind }

func (e *Error) Unwrap() error { return e.Err }

// Status maps the error kind to an HTTP status code.
func (e *Error) Status() int {
	switch e.Kind {
	case ErrInvalidInput, ErrInvalidPayload, ErrNoOp:
		return http.StatusBadRequest
	case ErrNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func invalidInput(empID string) *Error {
	return &Error{Kind: ErrInvalidInput, Message: fmt.Sprintf("employee id must be a number: %s", empID)}
}

func invalidPayload(err error) *Error {
	e := &Error{Kind: ErrInvalidPayload, Message: "invalid payload", Err: err}
	var fields validate.Errors
	if errors.As(err, &fields) {
		e.Fields = fields
		e.Message = "invalid payload: " + fields.Error()
		e.Err = nil
	}
	return e
}

func notFound(empID int) *Error {
	return &Error{Kind: ErrNotFound, Message: fmt.Sprintf("employee not found with empId: %d", empID)}
}

func noOp() *Error {
	return &Error{Kind: ErrNoOp, Message: "unable to create task"}
}

func storeFault(op string, err error) *Error {
	return &Error{Kind: ErrStoreFault, Message: "internal server error", Err: fmt.Errorf("%s: %w", op, err)}
}
