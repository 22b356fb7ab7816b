// Package server implements an MCP (Model Context Protocol) server that
// exposes the image describer as tools.
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
//   - image_describe: Combined "<text> - <color> - <label>" description of
//     an image file, with its parts
//   - image_source_info: Sniffed format and size of an image file
//   - color_classify: Basic color name and hex for an RGB triple
//
// # Error Handling
//
// Tool failures are returned as JSON-RPC errors with code -32000. The error
// data carries the failure kind ("io", "auth" or "service") when the
// describer reports one.
//
// # Caching
//
// Image files are read once per path and kept in memory for the lifetime of
// the server. Pass "refresh": true to image_describe to re-read a file.
package server
