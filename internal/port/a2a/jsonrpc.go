package a2a

import "encoding/json"

// JSON-RPC 2.0 error codes used by the A2A endpoints.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// Version is the only accepted JSON-RPC protocol version tag.
const Version = "2.0"

// Request is an inbound JSON-RPC 2.0 request envelope.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// HasID reports whether the request carries a usable id.
func (r *Request) HasID() bool {
	return len(r.ID) > 0 && string(r.ID) != "null"
}

// Response is an outbound JSON-RPC 2.0 response envelope.
// Exactly one of Result and Error is set.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  any             `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// Error is a JSON-RPC 2.0 error object.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// ErrorData carries supplementary detail on an Error.
// Details holds the raw downstream error text; callers that received an
// async acknowledgment have no other channel to learn what went wrong.
type ErrorData struct {
	Details string `json:"details,omitempty"`
}

// NewResponse builds a success response for the given request id.
func NewResponse(id json.RawMessage, result any) *Response {
	return &Response{JSONRPC: Version, ID: id, Result: result}
}

// NewErrorResponse builds an error response for the given request id.
func NewErrorResponse(id json.RawMessage, code int, message string, data any) *Response {
	return &Response{JSONRPC: Version, ID: id, Error: &Error{Code: code, Message: message, Data: data}}
}
