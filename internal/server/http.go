package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/teemow/ticktick-mcp/internal/instrumentation"
)

// HTTP transport names.
const (
	TransportSSE            = "sse"
	TransportStreamableHTTP = "streamable-http"
)

// Endpoint paths served by the transport server.
const (
	SSEPath        = "/sse"
	MessagePath    = "/messages/"
	StreamablePath = "/mcp"
)

const (
	// DefaultHTTPAddr is the default listen address for HTTP transports.
	DefaultHTTPAddr = ":58321"

	defaultReadHeaderTimeout = 10 * time.Second
	defaultIdleTimeout       = 120 * time.Second
)

// Middleware wraps an http.Handler.
type Middleware func(http.Handler) http.Handler

// TransportServerConfig configures a TransportServer.
type TransportServerConfig struct {
	// Transport is TransportSSE or TransportStreamableHTTP.
	Transport string

	// Addr is the listen address, e.g. ":58321".
	Addr string

	// BaseURL is the externally visible URL used in SSE endpoint events.
	// Leave empty to advertise a relative message path.
	BaseURL string

	// Metrics records per-request HTTP metrics. May be nil.
	Metrics *instrumentation.Metrics

	// Health serves the /healthz and /readyz probes. May be nil.
	Health *HealthChecker

	// Tracing wraps the handler with otelhttp server spans.
	Tracing bool
}

// TransportServer exposes an MCP server over SSE or streamable HTTP.
type TransportServer struct {
	mcpServer *mcpserver.MCPServer
	config    TransportServerConfig

	sse        *mcpserver.SSEServer
	streamable *mcpserver.StreamableHTTPServer

	mu         sync.Mutex
	httpServer *http.Server
	listener   net.Listener
}

// NewTransportServer builds the MCP endpoint handlers for the configured
// transport. Nothing is bound until Start.
func NewTransportServer(s *mcpserver.MCPServer, config TransportServerConfig) (*TransportServer, error) {
	if s == nil {
		return nil, fmt.Errorf("mcp server is required")
	}
	if config.Addr == "" {
		config.Addr = DefaultHTTPAddr
	}

	ts := &TransportServer{mcpServer: s, config: config}

	switch config.Transport {
	case TransportSSE:
		opts := []mcpserver.SSEOption{
			mcpserver.WithSSEEndpoint(SSEPath),
			mcpserver.WithMessageEndpoint(MessagePath),
		}
		if config.BaseURL != "" {
			opts = append(opts, mcpserver.WithBaseURL(config.BaseURL))
		}
		ts.sse = mcpserver.NewSSEServer(s, opts...)
	case TransportStreamableHTTP:
		ts.streamable = mcpserver.NewStreamableHTTPServer(s,
			mcpserver.WithEndpointPath(StreamablePath),
		)
	default:
		return nil, fmt.Errorf("unsupported server type: %s", config.Transport)
	}

	return ts, nil
}

// Handler returns the complete HTTP handler: MCP endpoints, health probes
// and the middleware chain.
func (t *TransportServer) Handler() http.Handler {
	mux := http.NewServeMux()

	if t.sse != nil {
		mux.Handle(SSEPath, t.sse)
		mux.Handle(MessagePath, t.sse)
	}
	if t.streamable != nil {
		mux.Handle(StreamablePath, t.streamable)
	}
	if t.config.Health != nil {
		t.config.Health.RegisterHealthEndpoints(mux)
	}

	var middleware []Middleware
	if t.config.Tracing {
		middleware = append(middleware, func(next http.Handler) http.Handler {
			return otelhttp.NewHandler(next, "mcp",
				otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
					return r.Method + " " + instrumentation.NormalizePath(r.URL.Path)
				}),
			)
		})
	}
	if t.config.Metrics != nil {
		middleware = append(middleware, requestMetrics(t.config.Metrics))
	}

	return chain(mux, middleware...)
}

// Start listens on the configured address and serves until Shutdown.
func (t *TransportServer) Start() error {
	return t.StartWithReadySignal(nil)
}

// StartWithReadySignal is Start, closing ready once the listener is bound.
func (t *TransportServer) StartWithReadySignal(ready chan<- struct{}) error {
	ln, err := net.Listen("tcp", t.config.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", t.config.Addr, err)
	}

	srv := &http.Server{
		Handler:           t.Handler(),
		ReadHeaderTimeout: defaultReadHeaderTimeout,
		IdleTimeout:       defaultIdleTimeout,
		// No WriteTimeout: SSE streams stay open for the whole session.
	}

	t.mu.Lock()
	t.httpServer = srv
	t.listener = ln
	t.mu.Unlock()

	slog.Info("starting MCP HTTP server",
		"transport", t.config.Transport,
		"addr", ln.Addr().String())
	if ready != nil {
		close(ready)
	}

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown closes open MCP sessions and then the HTTP server.
func (t *TransportServer) Shutdown(ctx context.Context) error {
	var errs []error

	if t.sse != nil {
		if err := t.sse.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("sse shutdown: %w", err))
		}
	}
	if t.streamable != nil {
		if err := t.streamable.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("streamable shutdown: %w", err))
		}
	}

	t.mu.Lock()
	srv := t.httpServer
	t.mu.Unlock()
	if srv != nil {
		if err := srv.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}
	}

	return errors.Join(errs...)
}

// Addr returns the bound address once started, or the configured one.
func (t *TransportServer) Addr() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.listener != nil {
		return t.listener.Addr().String()
	}
	return t.config.Addr
}

func chain(h http.Handler, middleware ...Middleware) http.Handler {
	for i := len(middleware) - 1; i >= 0; i-- {
		h = middleware[i](h)
	}
	return h
}

func requestMetrics(m *instrumentation.Metrics) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			m.RecordHTTPRequest(r.Context(), r.Method, r.URL.Path, rec.status, time.Since(start))
		})
	}
}

// statusRecorder captures the response status. It forwards Flush so SSE
// streaming keeps working behind the middleware.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if !r.wroteHeader {
		r.status = code
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	r.wroteHeader = true
	return r.ResponseWriter.Write(b)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
