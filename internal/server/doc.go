// Package server hosts the MCP server for ticktick-mcp.
//
// ServerContext carries the TickTick client, the today-tasks aggregator and
// the instrumentation shared by tool handlers.
//
// TransportServer exposes the MCP server over HTTP:
//   - sse: GET /sse opens the event stream, POST /messages/?sessionId=...
//     delivers JSON-RPC messages for that session
//   - streamable-http: a single /mcp endpoint
//
// Both variants also serve /healthz, /healthz/detailed and /readyz.
// MetricsServer exposes Prometheus metrics on a separate port.
package server
