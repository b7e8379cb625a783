package helper

import (
	"errors"
	"fmt"

	"github.com/k-in/Legacy-Modernization-Agents-sub001/internal/jsonrpc"
	"github.com/k-in/Legacy-Modernization-Agents-sub001/internal/process"
	"github.com/mark3labs/mcp-go/mcp"
)

// ErrNotReady wraps every failure to bring the helper to the ready state.
var ErrNotReady = errors.New("migration helper not ready")

// notReadyError reports a failed start or initialize. It matches
// ErrNotReady and the underlying error with errors.Is. When the helper
// answered with an error object, the message is the helper's own.
type notReadyError struct {
	stage string
	err   error
}

func (e *notReadyError) Error() string {
	var rpcErr *jsonrpc.Error
	if errors.As(e.err, &rpcErr) {
		return rpcErr.Error()
	}
	if e.stage == "" {
		return fmt.Sprintf("%v: %v", ErrNotReady, e.err)
	}
	return fmt.Sprintf("%v: %s: %v", ErrNotReady, e.stage, e.err)
}

func (e *notReadyError) Unwrap() []error {
	return []error{ErrNotReady, e.err}
}

// Kind classifies a failure returned by Client.
type Kind int

const (
	KindNone Kind = iota
	// KindStart: the helper process could not be launched.
	KindStart
	// KindTransport: the helper's stream ended or the call was abandoned.
	KindTransport
	// KindRemote: the helper answered with a JSON-RPC error object.
	KindRemote
	// KindUsage: the helper rejected the method or its params.
	KindUsage
	// KindMalformed: the helper's reply carried neither result nor error.
	KindMalformed
	// KindInternal: anything else, including caller cancellation.
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindStart:
		return "start"
	case KindTransport:
		return "transport"
	case KindRemote:
		return "remote"
	case KindUsage:
		return "usage"
	case KindMalformed:
		return "malformed"
	default:
		return "internal"
	}
}

// Classify maps an error returned by Client onto a Kind.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, process.ErrStart):
		return KindStart
	case errors.Is(err, mcp.ErrMethodNotFound), errors.Is(err, mcp.ErrInvalidParams):
		return KindUsage
	case jsonrpc.IsApplicationError(err):
		return KindRemote
	case errors.Is(err, jsonrpc.ErrMalformedResponse):
		return KindMalformed
	case errors.Is(err, jsonrpc.ErrTransportClosed), errors.Is(err, jsonrpc.ErrCallAbandoned):
		return KindTransport
	default:
		return KindInternal
	}
}

// poisons reports whether err leaves the session's stream in an unknown
// state, so the next operation has to start a new session.
func poisons(err error) bool {
	return errors.Is(err, jsonrpc.ErrTransportClosed) || errors.Is(err, jsonrpc.ErrCallAbandoned)
}
