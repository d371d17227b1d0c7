package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sourcegraph/jsonrpc2"
)

const jsonrpcVersion = "2.0"

var (
	// ErrInvalidParams marks parameters or tool arguments that do not decode.
	ErrInvalidParams = errors.New("invalid params")

	// ErrMethodNotFound marks an unknown method name.
	ErrMethodNotFound = errors.New("method not found")

	errMissingMethod = errors.New("missing method")

	errMissingToolName = errors.New("missing tool name")
)

// MCPRequest represents an incoming JSON-RPC request
type MCPRequest struct {
	JSONRPC string
	ID      json.RawMessage
	Method  string
	Params  json.RawMessage
}

// MCPResponse represents an outgoing JSON-RPC response. A nil ID is written
// as null.
type MCPResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *jsonrpc2.Error `json:"error,omitempty"`
}

// envelopeError is a request rejected before dispatch.
type envelopeError struct {
	id      json.RawMessage
	code    int64
	message string
	data    string
}

// HandleMessage turns one raw input line into exactly one response.
func (s *Server) HandleMessage(ctx context.Context, line []byte) *MCPResponse {
	req, envErr := parseRequest(line)
	if envErr != nil {
		s.logger.Warn("rejected message", "code", envErr.code, "reason", envErr.data)
		return errorResponse(envErr.id, envErr.code, envErr.message, envErr.data)
	}

	s.logger.Debug("handling request", "method", req.Method, "id", string(req.ID))

	result, err := s.dispatch(ctx, req)
	if err != nil {
		code, message := classify(err)
		s.logger.Warn("request failed", "method", req.Method, "code", code, "error", err)
		return errorResponse(req.ID, code, message, err.Error())
	}

	return &MCPResponse{
		JSONRPC: jsonrpcVersion,
		ID:      req.ID,
		Result:  result,
	}
}

// parseRequest validates the envelope. The method is extracted but not
// checked; a missing method is a dispatch failure, not an envelope failure.
func parseRequest(line []byte) (*MCPRequest, *envelopeError) {
	var probe any
	if err := json.Unmarshal(line, &probe); err != nil {
		return nil, &envelopeError{
			code:    jsonrpc2.CodeParseError,
			message: "Parse error",
			data:    fmt.Sprintf("%v: %s", err, line),
		}
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(line, &fields); err != nil || fields == nil {
		return nil, &envelopeError{
			code:    jsonrpc2.CodeInvalidRequest,
			message: "Invalid Request",
			data:    "request must be a JSON object",
		}
	}

	req := &MCPRequest{Params: fields["params"]}

	id := fields["id"]
	if len(id) > 0 && string(id) != "null" {
		req.ID = id
	}

	if raw, ok := fields["jsonrpc"]; ok {
		// A non-string value leaves JSONRPC empty and fails below.
		_ = json.Unmarshal(raw, &req.JSONRPC)
	}
	if req.JSONRPC != jsonrpcVersion {
		return nil, &envelopeError{
			id:      req.ID,
			code:    jsonrpc2.CodeInvalidRequest,
			message: "Invalid Request",
			data:    fmt.Sprintf("jsonrpc must be %q", jsonrpcVersion),
		}
	}
	if req.ID == nil {
		return nil, &envelopeError{
			code:    jsonrpc2.CodeInvalidRequest,
			message: "Invalid Request",
			data:    "id must be present and not null",
		}
	}

	if raw, ok := fields["method"]; ok {
		_ = json.Unmarshal(raw, &req.Method)
	}
	return req, nil
}

// dispatch routes requests to appropriate handlers
func (s *Server) dispatch(ctx context.Context, req *MCPRequest) (any, error) {
	switch req.Method {
	case "":
		return nil, errMissingMethod
	case "initialize":
		return s.handleInitialize(), nil
	case "tools/list":
		return mcp.ListToolsResult{Tools: ToolDefinitions()}, nil
	case "tools/call":
		return s.handleToolsCall(ctx, req.Params)
	default:
		return nil, fmt.Errorf("%w: %s", ErrMethodNotFound, req.Method)
	}
}

// handleInitialize returns the fixed capability announcement. Client
// parameters are ignored.
func (s *Server) handleInitialize() mcp.InitializeResult {
	return mcp.InitializeResult{
		ProtocolVersion: s.protocolVersion,
		Capabilities: mcp.ServerCapabilities{
			Tools: &struct {
				ListChanged bool `json:"listChanged,omitempty"`
			}{},
		},
		ServerInfo: mcp.Implementation{
			Name:    serverName,
			Version: s.version,
		},
	}
}

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	Name      *string         `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

func (s *Server) handleToolsCall(ctx context.Context, raw json.RawMessage) (any, error) {
	var params ToolCallParams
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &params); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidParams, err)
		}
	}
	if params.Name == nil {
		return nil, errMissingToolName
	}

	args := params.Arguments
	if len(args) == 0 || string(args) == "null" {
		args = json.RawMessage("{}")
	}
	return s.tools.Call(ctx, *params.Name, args)
}

// classify maps an internal error to a JSON-RPC code and generic message.
func classify(err error) (int64, string) {
	switch {
	case errors.Is(err, ErrInvalidParams):
		return jsonrpc2.CodeInvalidParams, "Invalid params"
	case errors.Is(err, ErrMethodNotFound):
		return jsonrpc2.CodeMethodNotFound, "Method not found"
	default:
		return jsonrpc2.CodeInternalError, "Internal error"
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func errorResponse(id json.RawMessage, code int64, message, data string) *MCPResponse {
	rpcErr := &jsonrpc2.Error{Code: code, Message: message}
	rpcErr.SetError(data)
	return &MCPResponse{
		JSONRPC: jsonrpcVersion,
		ID:      id,
		Error:   rpcErr,
	}
}
