// Package server is the thin HTTP adapter surface over the Store Pool:
// routing, content negotiation, and JSON/JSON-LD/HTML/plain text rendering
// of query results. None of the STAM domain logic lives here; every
// handler is a few lines of glue around pool.StorePool.
package server

import (
	"net/http"

	"github.com/annotation/stamd/pool"
)

// errorBody is the JSON envelope returned for every error response:
// {"@type": "ApiError"|"StamError", "name": ..., "message": ...}.
type errorBody struct {
	Type    string `json:"@type"`
	Name    string `json:"name"`
	Message string `json:"message"`
}

// statusFor maps a pool error Kind to its corresponding HTTP status.
func statusFor(kind pool.Kind) int {
	switch kind {
	case pool.NotFound, pool.MissingArgument:
		return http.StatusNotFound
	case pool.NotAcceptable:
		return http.StatusNotAcceptable
	case pool.PermissionDenied:
		return http.StatusForbidden
	case pool.InternalError:
		return http.StatusInternalServerError
	case pool.StamError:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func bodyFor(err *pool.Error) errorBody {
	typ := "ApiError"
	if err.Kind == pool.StamError {
		typ = "StamError"
	}
	return errorBody{Type: typ, Name: string(err.Kind), Message: err.Message}
}
