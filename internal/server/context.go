package server

import (
	"context"
	"sync"

	"github.com/teemow/ticktick-mcp/internal/instrumentation"
	"github.com/teemow/ticktick-mcp/internal/ticktick"
)

// ServerContext holds the dependencies shared by all MCP tool handlers.
type ServerContext struct {
	ctx             context.Context
	cancel          context.CancelFunc
	client          *ticktick.Client
	aggregator      *ticktick.TodayAggregator
	defaultTimezone string
	metrics         *instrumentation.Metrics
	auditLogger     *instrumentation.AuditLogger
	mu              sync.RWMutex
	shutdown        bool
}

// NewServerContext creates a server context around a TickTick client.
// The today aggregator reads through the same client.
func NewServerContext(ctx context.Context, client *ticktick.Client, defaultTimezone string, aggOpts ...ticktick.AggregatorOption) *ServerContext {
	shutdownCtx, cancel := context.WithCancel(ctx)

	if defaultTimezone == "" {
		defaultTimezone = ticktick.DefaultTimezone
	}

	return &ServerContext{
		ctx:             shutdownCtx,
		cancel:          cancel,
		client:          client,
		aggregator:      ticktick.NewTodayAggregator(client, aggOpts...),
		defaultTimezone: defaultTimezone,
	}
}

// Context returns the server context
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Client returns the TickTick resource client.
func (sc *ServerContext) Client() *ticktick.Client {
	return sc.client
}

// Aggregator returns the today-tasks aggregator.
func (sc *ServerContext) Aggregator() *ticktick.TodayAggregator {
	return sc.aggregator
}

// DefaultTimezone is the IANA zone used when get_today_tasks omits one.
func (sc *ServerContext) DefaultTimezone() string {
	return sc.defaultTimezone
}

// SetMetrics sets the metrics recorder used by tool handlers.
func (sc *ServerContext) SetMetrics(m *instrumentation.Metrics) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.metrics = m
}

// Metrics returns the metrics recorder, or nil when none is set.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.metrics
}

// SetAuditLogger sets the audit logger used by tool handlers.
func (sc *ServerContext) SetAuditLogger(l *instrumentation.AuditLogger) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.auditLogger = l
}

// AuditLogger returns the audit logger, or nil when none is set.
func (sc *ServerContext) AuditLogger() *instrumentation.AuditLogger {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.auditLogger
}

// IsShutdown returns whether the server has been shutdown
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown shuts down the server context
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()
	return nil
}
