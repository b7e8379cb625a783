// Package jsonrpc implements the client half of JSON-RPC 2.0 over a framed
// stream: request envelopes, response correlation and error mapping.
package jsonrpc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"
)

// Version is the protocol version tag carried by every envelope.
const Version = mcp.JSONRPC_VERSION

// Request is an outbound call envelope.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response is an inbound envelope. Method is only set when the peer sent a
// request or notification instead of a reply.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// IsReplyTo reports whether r is a reply carrying the given numeric id.
// String ids holding the same digits are accepted.
func (r *Response) IsReplyTo(id uint64) bool {
	if r.Method != "" || len(r.ID) == 0 {
		return false
	}
	want := strconv.FormatUint(id, 10)
	got := bytes.TrimSpace(r.ID)
	if string(got) == want {
		return true
	}
	var s string
	if err := json.Unmarshal(got, &s); err == nil {
		return s == want
	}
	return false
}

// NewRequest builds a request envelope. Params that encode to null or to an
// empty object/array are omitted from the wire entirely.
func NewRequest(id uint64, method string, params any) (*Request, error) {
	req := &Request{JSONRPC: Version, ID: id, Method: method}
	if params == nil {
		return req, nil
	}

	raw, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("encoding %s params: %w", method, err)
	}
	switch string(bytes.TrimSpace(raw)) {
	case "null", "{}", "[]":
	default:
		req.Params = raw
	}
	return req, nil
}
