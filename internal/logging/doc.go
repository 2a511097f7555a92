// Package logging provides structured logging utilities for ticktick-mcp.
//
// Everything is built on the standard library's slog package. The helpers
// here keep attribute names consistent between the upstream client, the tool
// handlers and the transport layer.
//
// # Usage Patterns
//
// Create a logger with standard attributes:
//
//	logger := logging.WithOperation(slog.Default(), "ticktick.list_projects")
//	logger.Info("listing projects", logging.Status("success"))
//
// Never log the TickTick bearer token directly:
//
//	logger.Info("token loaded", "token", logging.SanitizeToken(tok))
package logging
