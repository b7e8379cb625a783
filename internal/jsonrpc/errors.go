package jsonrpc

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

var (
	// ErrTransportClosed means the stream ended or failed before the reply
	// arrived. The session behind it should be considered dead.
	ErrTransportClosed = errors.New("helper transport closed")

	// ErrMalformedResponse means the matching reply carried neither a result
	// nor an error.
	ErrMalformedResponse = errors.New("response has neither result nor error")

	// ErrCallAbandoned means the caller's context ended after the request
	// was written but before the reply arrived. The reply may still be in
	// flight on the stream.
	ErrCallAbandoned = errors.New("call abandoned")
)

// Error is a JSON-RPC error object returned by the peer.
type Error struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Error returns the peer's message verbatim.
func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("jsonrpc error %d", e.Code)
	}
	return e.Message
}

// Is maps standard error codes onto the mcp package's sentinel errors so
// callers can classify failures with errors.Is.
func (e *Error) Is(target error) bool {
	switch target {
	case mcp.ErrMethodNotFound:
		return e.Code == mcp.METHOD_NOT_FOUND
	case mcp.ErrInvalidParams:
		return e.Code == mcp.INVALID_PARAMS
	default:
		return false
	}
}

// IsApplicationError reports whether err came from an error object sent by
// the peer, as opposed to a local or transport failure.
func IsApplicationError(err error) bool {
	var rpcErr *Error
	return errors.As(err, &rpcErr)
}
