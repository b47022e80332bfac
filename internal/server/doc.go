// Package server implements the MCP (Model Context Protocol) server for PNG
// optimization.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
//   - png_optimize: Optimize and return the result
//   - png_optimize_async: Validate options and schedule an optimization
//   - png_optimize_result: Collect a scheduled optimization
//   - png_inspect: List chunks and decode the header
//   - png_resolve_options: Show what a set of options resolves to
//
// Images are passed either as a file path or inline as base64. Results are
// returned as base64 unless output_path is given.
//
// # Deferred Tasks
//
// png_optimize_async validates the options before scheduling, so invalid
// options fail the call itself rather than the task. Scheduled tasks are
// tracked in a TaskRegistry under a random id until their result is
// collected. Finished results left uncollected for an hour are swept.
//
// # Error Handling
//
// Tool errors are returned as JSON-RPC error responses:
//   - -32602: malformed arguments or invalid options
//   - -32000: engine failures and I/O errors
//
// Option and engine errors carry a data object with kind, code, value and
// message fields. The message of an engine failure is the engine's own.
//
// # Usage
//
//	b := bridge.New(engine.NewNative(), bridge.NewPool(4))
//	srv := server.New(b, logger)
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
