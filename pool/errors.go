package pool

import (
	"encoding/json"
	"fmt"
)

// Kind classifies the errors a StorePool operation can return.
type Kind string

const (
	// MissingArgument means a required parameter was not supplied.
	MissingArgument Kind = "MissingArgument"
	// NotFound means the store, resource or annotation does not exist, or
	// the requested id cannot be safely addressed.
	NotFound Kind = "NotFound"
	// NotAcceptable means no offered representation matches the caller's
	// Accept header.
	NotAcceptable Kind = "NotAcceptable"
	// PermissionDenied means the pool is read-only, or a create collided
	// with an existing store/resource.
	PermissionDenied Kind = "PermissionDenied"
	// InternalError means a lock was poisoned or an invariant was broken;
	// this should never occur in a correct run.
	InternalError Kind = "InternalError"
	// StamError wraps an error from the annotation-store collaborator
	// (load, save, query, parse) and is surfaced verbatim.
	StamError Kind = "StamError"
)

// Error is the error type returned by every StorePool operation. The HTTP
// layer maps Kind to a status code; it never needs to inspect Underlying
// directly except to render the wrapped message.
type Error struct {
	Kind       Kind
	Message    string
	Underlying error
}

func (e *Error) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Underlying)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Underlying }

func errMissingArgument(msg string) *Error { return &Error{Kind: MissingArgument, Message: msg} }
func errNotFound(msg string) *Error        { return &Error{Kind: NotFound, Message: msg} }
func errPermissionDenied(msg string) *Error {
	return &Error{Kind: PermissionDenied, Message: msg}
}
func errInternal(msg string) *Error { return &Error{Kind: InternalError, Message: msg} }
func errStam(err error) *Error {
	return &Error{Kind: StamError, Message: err.Error(), Underlying: err}
}

// MarshalJSON renders the {"@type": "ApiError"|"StamError", "name": ...,
// "message": ...} envelope every error response uses. It is implemented
// here (rather than left to the server package) because the envelope shape
// is part of the pool's error contract, not an HTTP presentation detail.
func (e *Error) MarshalJSON() ([]byte, error) {
	typ := "ApiError"
	if e.Kind == StamError {
		typ = "StamError"
	}
	return json.Marshal(struct {
		Type    string `json:"@type"`
		Name    string `json:"name"`
		Message string `json:"message"`
	}{typ, string(e.Kind), e.Message})
}
