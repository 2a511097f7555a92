package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/ticktick-mcp/internal/config"
	"github.com/teemow/ticktick-mcp/internal/instrumentation"
	"github.com/teemow/ticktick-mcp/internal/logging"
	"github.com/teemow/ticktick-mcp/internal/ticktick"
)

// clientFlags are the flags shared by every command that talks to TickTick.
type clientFlags struct {
	apiKey          string
	apiBase         string
	tokenFile       string
	httpTimeout     time.Duration
	fanOutLimit     int
	defaultTimezone string
	logFormat       string
	debug           bool
}

func addClientFlags(cmd *cobra.Command, f *clientFlags) {
	cmd.Flags().StringVar(&f.apiKey, "api-key", "", "TickTick access token. Can also use TICKTICK_API_KEY env var. Falls back to the token file.")
	cmd.Flags().StringVar(&f.apiBase, "api-base", ticktick.DefaultBaseURL, "TickTick Open API base URL. Can also use TICKTICK_API_BASE env var.")
	cmd.Flags().StringVar(&f.tokenFile, "token-file", "", "Token file written by 'ticktick-mcp auth'. Can also use TICKTICK_TOKEN_FILE env var.")
	cmd.Flags().DurationVar(&f.httpTimeout, "http-timeout", ticktick.DefaultTimeout, "Timeout for each TickTick API request. Can also use TICKTICK_HTTP_TIMEOUT env var.")
	cmd.Flags().IntVar(&f.fanOutLimit, "fanout-limit", ticktick.DefaultFanOutLimit, "Concurrent project fetches when collecting today's tasks. Can also use TICKTICK_FANOUT_LIMIT env var.")
	cmd.Flags().StringVar(&f.defaultTimezone, "default-timezone", ticktick.DefaultTimezone, "IANA timezone used when get_today_tasks omits one. Can also use TICKTICK_DEFAULT_TIMEZONE env var.")
	cmd.Flags().StringVar(&f.logFormat, "log-format", logging.FormatText, "Log format: text or json. Can also use LOG_FORMAT env var.")
	cmd.Flags().BoolVar(&f.debug, "debug", false, "Enable debug logging. Can also use DEBUG env var.")
}

// apply overrides cfg with every flag the user set explicitly.
func (f *clientFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	changed := cmd.Flags().Changed
	if changed("api-key") {
		cfg.APIKey = f.apiKey
	}
	if changed("api-base") {
		cfg.APIBase = f.apiBase
	}
	if changed("token-file") {
		cfg.TokenFile = f.tokenFile
	}
	if changed("http-timeout") {
		cfg.HTTPTimeout = f.httpTimeout
	}
	if changed("fanout-limit") {
		cfg.FanOutLimit = f.fanOutLimit
	}
	if changed("default-timezone") {
		cfg.DefaultTimezone = f.defaultTimezone
	}
	if changed("log-format") {
		cfg.LogFormat = f.logFormat
	}
	if changed("debug") {
		cfg.Debug = f.debug
	}
}

// setupLogging installs the default slog logger. Logs always go to w
// (stderr in practice) so stdio transport keeps stdout for MCP frames.
func setupLogging(w io.Writer, cfg config.Config) *slog.Logger {
	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(logging.NewHandler(w, level, cfg.LogFormat))
	slog.SetDefault(logger)
	return logger
}

// newTickTickClient builds the resource client from an API key or from the
// stored OAuth token. A stored token is refreshed automatically when the
// OAuth client credentials are configured.
func newTickTickClient(ctx context.Context, cfg config.Config, metrics *instrumentation.Metrics, logger *slog.Logger) (*ticktick.Client, error) {
	opts := []ticktick.Option{
		ticktick.WithBaseURL(cfg.APIBase),
		ticktick.WithTimeout(cfg.HTTPTimeout),
		ticktick.WithMetrics(metrics),
		ticktick.WithLogger(logging.NewSlogAdapter(logger)),
	}

	if cfg.APIKey != "" {
		logger.Debug("using TickTick API key", "token", logging.SanitizeToken(cfg.APIKey))
		return ticktick.NewClient(cfg.APIKey, opts...)
	}

	if cfg.TokenFile == "" {
		return nil, fmt.Errorf("%w: set TICKTICK_API_KEY or run 'ticktick-mcp auth'", ticktick.ErrMissingToken)
	}
	tok, err := ticktick.LoadToken(cfg.TokenFile)
	if err != nil {
		return nil, fmt.Errorf("%w: set TICKTICK_API_KEY or run 'ticktick-mcp auth' (%v)", ticktick.ErrMissingToken, err)
	}

	logger.Debug("using stored TickTick token",
		"token_file", cfg.TokenFile,
		"token", logging.SanitizeToken(tok.AccessToken),
		"refreshable", cfg.ClientID != "" && tok.RefreshToken != "")

	conf := ticktick.OAuthConfig(cfg.ClientID, cfg.ClientSecret, cfg.RedirectURL)
	return ticktick.NewClientWithTokenSource(ticktick.TokenSource(ctx, conf, tok), opts...), nil
}

// loadConfig reads the environment and applies explicitly set flags.
func loadConfig(cmd *cobra.Command, f *clientFlags) (config.Config, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return config.Config{}, err
	}
	f.apply(cmd, &cfg)
	return cfg, nil
}
