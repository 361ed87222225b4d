// Package daemon implements the compflags resolver daemon and its client.
//
// The daemon speaks newline-delimited JSON-RPC 2.0 over a Unix socket. Every
// request is resolved independently against the filesystem; the daemon
// keeps no resolution cache, it only saves the process start-up cost.
package daemon

import (
	"encoding/json"
	"fmt"
)

// protocolVersion is the only accepted "jsonrpc" member.
const protocolVersion = "2.0"

// ErrorCode is a JSON-RPC 2.0 error code.
type ErrorCode int

// Standard JSON-RPC 2.0 error codes.
const (
	CodeParseError     ErrorCode = -32700
	CodeInvalidRequest ErrorCode = -32600
	CodeMethodNotFound ErrorCode = -32601
	CodeInvalidParams  ErrorCode = -32602
	CodeInternalError  ErrorCode = -32603
)

// Request is a JSON-RPC request. A nil ID marks a notification.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *int64          `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response carries either Result or Error.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *int64          `json:"id,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError is the error member of a response.
type RPCError struct {
	Code    ErrorCode       `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	if len(e.Data) > 0 {
		var detail string
		if json.Unmarshal(e.Data, &detail) == nil && detail != "" {
			return fmt.Sprintf("daemon: %s: %s (code %d)", e.Message, detail, e.Code)
		}
	}
	return fmt.Sprintf("daemon: %s (code %d)", e.Message, e.Code)
}

// Call builds request id for method. Nil params are omitted.
func Call(id int64, method string, params any) (*Request, error) {
	raw, err := encodeMember(params, nil)
	if err != nil {
		return nil, fmt.Errorf("encoding %s params: %w", method, err)
	}
	return &Request{JSONRPC: protocolVersion, ID: &id, Method: method, Params: raw}, nil
}

// Reply builds the success response to req. A nil result is sent as null.
func Reply(req *Request, result any) *Response {
	raw, err := encodeMember(result, json.RawMessage("null"))
	if err != nil {
		return Fail(req.ID, CodeInternalError, "encoding result", err.Error())
	}
	return &Response{JSONRPC: protocolVersion, ID: req.ID, Result: raw}
}

// Fail builds an error response. A non-empty detail becomes the error data.
func Fail(id *int64, code ErrorCode, message, detail string) *Response {
	e := &RPCError{Code: code, Message: message}
	if detail != "" {
		e.Data, _ = json.Marshal(detail)
	}
	return &Response{JSONRPC: protocolVersion, ID: id, Error: e}
}

func encodeMember(v any, absent json.RawMessage) (json.RawMessage, error) {
	if v == nil {
		return absent, nil
	}
	return json.Marshal(v)
}
