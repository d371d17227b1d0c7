// Package server implements the MCP (Model Context Protocol) server that
// converts DNG RAW images to WebP.
//
// # Protocol
//
// The server speaks JSON-RPC 2.0 over stdio, one JSON value per line:
//   - Input: requests on stdin, blank lines ignored
//   - Output: exactly one response line per non-blank input line, flushed
//     immediately
//   - Standard error carries logs only
//
// Requests are handled strictly one at a time. A conversion blocks the loop
// until the external program exits.
//
// Supported MCP methods:
//   - initialize: Protocol handshake with a fixed capability announcement
//   - tools/list: Enumerate the two tools
//   - tools/call: Execute a tool with arguments
//
// # Available Tools
//
//   - convert_dng_to_webp: Convert a DNG file with a named converter or the
//     automatic fallback chain
//   - check_converters: Report which converters are installed
//
// # Error Handling
//
// Every failure becomes a JSON-RPC error response; nothing stops the loop.
//   - -32700 Parse error: the line is not JSON (id is null)
//   - -32600 Invalid Request: jsonrpc is not "2.0", id is missing or null, or
//     the line exceeds the size limit (id is null; the line is skipped)
//   - -32601 Method not found: unknown method name
//   - -32602 Invalid params: tools/call parameters or tool arguments do not decode
//   - -32603 Internal error: everything else, including a missing method or
//     tool name and all conversion failures
//
// The detailed error text is always placed in error.data.
//
// # Usage
//
//	registry := converter.NewRegistry(logger, converter.NewImageMagick(nil), converter.NewDarktable(""))
//	srv := server.New(server.NewToolHandler(registry, logger), server.WithLogger(logger))
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server
