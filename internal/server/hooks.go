package server

import (
	"context"
	"log/slog"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/ticktick-mcp/internal/instrumentation"
)

// SessionHooks returns MCP hooks that track connected clients in the
// active_sessions gauge and the health checker. Both may be nil.
func SessionHooks(metrics *instrumentation.Metrics, health *HealthChecker, transport string) *mcpserver.Hooks {
	hooks := &mcpserver.Hooks{}

	hooks.AddOnRegisterSession(func(ctx context.Context, session mcpserver.ClientSession) {
		metrics.IncrementActiveSessions(ctx, transport)
		if health != nil {
			health.SessionOpened()
		}
		slog.Debug("mcp session opened", "session_id", session.SessionID(), "transport", transport)
	})

	hooks.AddOnUnregisterSession(func(ctx context.Context, session mcpserver.ClientSession) {
		metrics.DecrementActiveSessions(ctx, transport)
		if health != nil {
			health.SessionClosed()
		}
		slog.Debug("mcp session closed", "session_id", session.SessionID(), "transport", transport)
	})

	return hooks
}
