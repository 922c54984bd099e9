// Package stamstore is a minimal stand-in for the external STAM annotation
// library that a production stamd would depend on. No public Go binding of
// the STAM data model exists (the ecosystem ships Rust and Python only), so
// this package plays that role internally: an opaque annotation store that
// can be loaded from and saved to a file, that knows whether it has been
// mutated since load, and that can answer a small subset of STAMQL. It is
// intentionally unambitious; the pool package never looks inside it.
package stamstore

import "fmt"

// Error is returned by any operation against an AnnotationStore: parsing a
// query, loading or saving a file, or resolving a reference. It is
// surfaced verbatim by the pool as pool.Error{Kind: pool.StamError}.
type Error struct {
	Op      string
	Message string
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func newError(op, format string, args ...interface{}) *Error {
	return &Error{Op: op, Message: fmt.Sprintf(format, args...)}
}
