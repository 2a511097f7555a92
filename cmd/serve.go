package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/ticktick-mcp/internal/config"
	"github.com/teemow/ticktick-mcp/internal/instrumentation"
	"github.com/teemow/ticktick-mcp/internal/logging"
	"github.com/teemow/ticktick-mcp/internal/resources"
	"github.com/teemow/ticktick-mcp/internal/server"
	"github.com/teemow/ticktick-mcp/internal/ticktick"
	"github.com/teemow/ticktick-mcp/internal/tools/ticktick_tools"
)

const startupTimeout = 5 * time.Second

func newServeCmd() *cobra.Command {
	var (
		client         clientFlags
		transport      string
		httpAddr       string
		baseURL        string
		readOnly       bool
		metricsEnabled bool
		metricsAddr    string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the Model Context Protocol (MCP) server exposing TickTick projects
and tasks to AI assistants.

Supports multiple transport types:
  - sse: Server-Sent Events on /sse with messages posted to /messages/ (default)
  - streamable-http: Streamable HTTP transport on /mcp
  - stdio: Standard input/output

Authentication:
  Set TICKTICK_API_KEY (or --api-key) to a TickTick access token, or run
  'ticktick-mcp auth' once to store an OAuth token in the token file.
  With TICKTICK_CLIENT_ID and TICKTICK_CLIENT_SECRET set, a stored token is
  refreshed automatically.

Read-only mode:
  --read-only registers only get_projects, project_details, get_today_tasks
  and get_task_details.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, &client)
			if err != nil {
				return err
			}

			changed := cmd.Flags().Changed
			if changed("transport") {
				cfg.Transport = transport
			}
			if changed("http-addr") {
				cfg.HTTPAddr = httpAddr
			}
			if changed("base-url") {
				cfg.BaseURL = baseURL
			}
			if changed("read-only") {
				cfg.ReadOnly = readOnly
			}
			if changed("metrics-enabled") {
				cfg.MetricsEnabled = metricsEnabled
			}
			if changed("metrics-addr") {
				cfg.MetricsAddr = metricsAddr
			}

			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			return runServe(cfg)
		},
	}

	addClientFlags(cmd, &client)
	cmd.Flags().StringVar(&transport, "transport", config.TransportSSE, "Transport type: sse, streamable-http or stdio. Can also use MCP_TRANSPORT env var.")
	cmd.Flags().StringVar(&httpAddr, "http-addr", config.DefaultHTTPAddr, "HTTP server address (for sse and streamable-http transports). Can also use MCP_HTTP_ADDR env var.")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "Public base URL announced in the SSE endpoint event. Can also use MCP_BASE_URL env var. Example: https://mcp.example.com")
	cmd.Flags().BoolVar(&readOnly, "read-only", false, "Register only the read tools. Can also use MCP_READ_ONLY env var.")
	cmd.Flags().BoolVar(&metricsEnabled, "metrics-enabled", true, "Enable the metrics server on a dedicated port. Can also use METRICS_ENABLED env var.")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", config.DefaultMetricsAddr, "Metrics server address. Can also use METRICS_ADDR env var.")

	return cmd
}

func runServe(cfg config.Config) error {
	// Setup graceful shutdown
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger := setupLogging(os.Stderr, cfg)

	// Initialize instrumentation provider
	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := provider.Shutdown(ctx); err != nil {
			logger.Warn("error during instrumentation shutdown", logging.Err(err))
		}
	}()

	client, err := newTickTickClient(shutdownCtx, cfg, provider.Metrics(), logger)
	if err != nil {
		return err
	}

	// Start metrics server if enabled and not in stdio mode
	var metricsServer *server.MetricsServer
	if cfg.Transport != config.TransportStdio && cfg.MetricsEnabled && provider.Enabled() {
		metricsServer, err = server.NewMetricsServer(server.MetricsServerConfig{
			Addr:                    cfg.MetricsAddr,
			Enabled:                 true,
			InstrumentationProvider: provider,
		})
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}

		metricsReady := make(chan struct{})
		metricsErr := make(chan error, 1)
		go func() {
			if err := metricsServer.StartWithReadySignal(metricsReady); err != nil {
				metricsErr <- err
			}
			close(metricsErr)
		}()

		select {
		case <-metricsReady:
			logger.Info("metrics server started", "addr", metricsServer.Addr())
		case err := <-metricsErr:
			return fmt.Errorf("metrics server failed to start: %w", err)
		case <-time.After(startupTimeout):
			return fmt.Errorf("metrics server startup timed out")
		}
	}

	serverContext := server.NewServerContext(shutdownCtx, client, cfg.DefaultTimezone,
		ticktick.WithFanOutLimit(cfg.FanOutLimit),
		ticktick.WithAggregatorMetrics(provider.Metrics()),
		ticktick.WithAggregatorLogger(logging.NewSlogAdapter(logger)),
	)

	// Set metrics and audit logger on server context for tool instrumentation
	if provider.Enabled() {
		serverContext.SetMetrics(provider.Metrics())
		serverContext.SetAuditLogger(instrumentation.NewAuditLoggerWithConfig(logger, instrConfig.AuditLogging))
	}
	defer func() {
		if metricsServer != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(ctx); err != nil {
				logger.Warn("error during metrics server shutdown", logging.Err(err))
			}
		}
		_ = serverContext.Shutdown()
	}()

	health := server.NewHealthChecker(serverContext, version, cfg.Transport)

	mcpSrv := mcpserver.NewMCPServer("ticktick-mcp", version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithResourceCapabilities(false, false), // Subscribe and listChanged
		mcpserver.WithHooks(server.SessionHooks(serverContext.Metrics(), health, cfg.Transport)),
		mcpserver.WithRecovery(),
	)

	if cfg.ReadOnly {
		logger.Info("starting server in read-only mode")
	}

	if err := registerAllTools(mcpSrv, serverContext, cfg.ReadOnly); err != nil {
		return err
	}

	switch cfg.Transport {
	case config.TransportStdio:
		return runStdioServer(mcpSrv)
	case config.TransportSSE, config.TransportStreamableHTTP:
		return runHTTPServer(shutdownCtx, mcpSrv, cfg, health, serverContext.Metrics(), provider.Enabled())
	default:
		return fmt.Errorf("unsupported transport type: %s (supported: sse, streamable-http, stdio)", cfg.Transport)
	}
}

func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			serverDone <- err
		}
	}()

	err := <-serverDone
	if err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}

func runHTTPServer(ctx context.Context, mcpSrv *mcpserver.MCPServer, cfg config.Config, health *server.HealthChecker, metrics *instrumentation.Metrics, tracing bool) error {
	transportServer, err := server.NewTransportServer(mcpSrv, server.TransportServerConfig{
		Transport: cfg.Transport,
		Addr:      cfg.HTTPAddr,
		BaseURL:   cfg.BaseURL,
		Metrics:   metrics,
		Health:    health,
		Tracing:   tracing,
	})
	if err != nil {
		return err
	}

	ready := make(chan struct{})
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := transportServer.StartWithReadySignal(ready); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverDone <- err
		}
	}()

	select {
	case <-ready:
	case err := <-serverDone:
		return fmt.Errorf("HTTP server failed to start: %w", err)
	case <-time.After(startupTimeout):
		return fmt.Errorf("HTTP server startup timed out")
	}

	slog.Info("ticktick-mcp MCP server started",
		"transport", cfg.Transport,
		"addr", transportServer.Addr(),
		"endpoints", strings.Join(endpointsFor(cfg.Transport), ","))

	select {
	case <-ctx.Done():
		slog.Info("shutdown signal received, stopping HTTP server")
		health.SetReady(false)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
		defer cancel()
		if err := transportServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("error shutting down HTTP server: %w", err)
		}
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("HTTP server stopped with error: %w", err)
		}
	}

	slog.Info("HTTP server gracefully stopped")
	return nil
}

func endpointsFor(transport string) []string {
	endpoints := []string{"/healthz", "/readyz"}
	if transport == config.TransportSSE {
		return append([]string{server.SSEPath, server.MessagePath}, endpoints...)
	}
	return append([]string{server.StreamablePath}, endpoints...)
}

// registerAllTools registers all MCP tools and resources
func registerAllTools(mcpSrv *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	type toolRegistration struct {
		name     string
		register func() error
	}

	registrations := []toolRegistration{
		{
			name: "TickTick tools",
			register: func() error {
				return ticktick_tools.RegisterTickTickTools(mcpSrv, sc, readOnly)
			},
		},
		{
			name: "TickTick resources",
			register: func() error {
				return resources.RegisterTickTickResources(mcpSrv, sc)
			},
		},
	}

	for _, reg := range registrations {
		if err := reg.register(); err != nil {
			return fmt.Errorf("failed to register %s: %w", reg.name, err)
		}
	}
	return nil
}
