package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/sourcegraph/jsonrpc2"
)

const (
	// DefaultProtocolVersion is announced in the initialize result.
	DefaultProtocolVersion = "2024-11-01"

	serverName = "mcp-imagemagick"
)

// Server handles MCP protocol communication
type Server struct {
	tools           *ToolHandler
	logger          *slog.Logger
	version         string
	protocolVersion string
	maxMessageBytes int

	mu      sync.Mutex
	stopped bool
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the diagnostic logger. Logs never go to the protocol stream.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithVersion sets the version reported in serverInfo.
func WithVersion(v string) Option {
	return func(s *Server) {
		if v != "" {
			s.version = v
		}
	}
}

// WithProtocolVersion overrides DefaultProtocolVersion.
func WithProtocolVersion(v string) Option {
	return func(s *Server) {
		if v != "" {
			s.protocolVersion = v
		}
	}
}

// WithMaxMessageBytes bounds the size of one request line.
func WithMaxMessageBytes(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxMessageBytes = n
		}
	}
}

// New creates a new MCP server dispatching tool calls to tools.
func New(tools *ToolHandler, opts ...Option) *Server {
	s := &Server{
		tools:           tools,
		logger:          slog.New(slog.DiscardHandler),
		version:         "0.1.0",
		protocolVersion: DefaultProtocolVersion,
		maxMessageBytes: DefaultMaxMessageBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run serves requests from stdin and writes responses to stdout.
func (s *Server) Run(ctx context.Context) error {
	return s.Serve(ctx, os.Stdin, os.Stdout)
}

// Serve processes r line by line until it is exhausted, writing one response
// per request to w. A request is fully handled, including any external
// conversion, before the next line is read.
//
// Oversized lines and failed writes are logged and do not stop the loop.
// Serve returns nil at end of input or after Shutdown, and an error only when
// r cannot be read.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	transport := NewTransport(r, w, s.maxMessageBytes)
	s.logger.Info("server started", "name", serverName, "version", s.version, "protocol", s.protocolVersion)

	for {
		line, err := transport.Receive()
		var resp *MCPResponse
		switch {
		case err == nil:
		case errors.Is(err, io.EOF):
			s.logger.Info("input closed, stopping")
			return nil
		case errors.Is(err, ErrMessageTooLong):
			s.logger.Warn("rejected message", "error", err)
			resp = errorResponse(nil, jsonrpc2.CodeInvalidRequest, "Invalid Request", err.Error())
		default:
			return err
		}

		if !s.handle(ctx, transport, line, resp) {
			s.logger.Info("server shut down, stopping")
			return nil
		}
	}
}

// handle answers one line, or sends resp as is when it is already set. It
// reports false once Shutdown has been called.
func (s *Server) handle(ctx context.Context, transport *Transport, line []byte, resp *MCPResponse) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return false
	}

	if resp == nil {
		resp = s.HandleMessage(ctx, line)
	}
	if err := transport.Send(resp); err != nil {
		if errors.Is(err, ErrEncode) {
			s.logger.Error("failed to encode response", "error", err)
			err = transport.Send(errorResponse(resp.ID, jsonrpc2.CodeInternalError, "Internal error", err.Error()))
		}
		if err != nil {
			s.logger.Error("failed to write response", "error", err)
		}
	}
	return true
}

// Shutdown waits for the request in flight, if any, to finish and stops Serve
// from handling further input. It returns ctx.Err() if ctx ends first.
func (s *Server) Shutdown(ctx context.Context) error {
	idle := make(chan struct{})
	go func() {
		s.mu.Lock()
		s.stopped = true
		s.mu.Unlock()
		close(idle)
	}()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
