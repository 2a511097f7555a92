// Package config resolves ticktick-mcp settings from the environment.
//
// Values come from, in increasing priority: built-in defaults, an optional
// .env file, and process environment variables. Command line flags are
// applied on top by the cmd package.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/teemow/ticktick-mcp/internal/logging"
	"github.com/teemow/ticktick-mcp/internal/ticktick"
)

// Transport names accepted by the serve command.
const (
	TransportSSE            = "sse"
	TransportStdio          = "stdio"
	TransportStreamableHTTP = "streamable-http"
)

// Defaults for settings without an environment value.
const (
	DefaultHTTPAddr    = ":58321"
	DefaultMetricsAddr = ":9090"
	DefaultEnvFile     = ".env"
)

// Config holds every runtime setting of the server and CLI.
type Config struct {
	// APIKey is a TickTick access token. When empty the token file is used.
	APIKey    string
	APIBase   string
	TokenFile string

	ClientID     string
	ClientSecret string
	RedirectURL  string

	HTTPTimeout     time.Duration
	FanOutLimit     int
	DefaultTimezone string

	Transport string
	HTTPAddr  string
	BaseURL   string
	ReadOnly  bool

	MetricsEnabled bool
	MetricsAddr    string

	LogFormat string
	Debug     bool
}

// Load reads the given .env files, skipping missing ones, and builds a
// Config from the environment. Variables already set in the process
// environment win over .env values.
func Load(envFiles ...string) (Config, error) {
	var existing []string
	for _, f := range envFiles {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) > 0 {
		if err := godotenv.Load(existing...); err != nil {
			return Config{}, fmt.Errorf("failed to load env file: %w", err)
		}
	}

	tokenFile := getEnv("TICKTICK_TOKEN_FILE", "")
	if tokenFile == "" {
		if def, err := ticktick.DefaultTokenFile(); err == nil {
			tokenFile = def
		}
	}

	timeout, err := getEnvDuration("TICKTICK_HTTP_TIMEOUT", ticktick.DefaultTimeout)
	if err != nil {
		return Config{}, err
	}
	fanOut, err := getEnvInt("TICKTICK_FANOUT_LIMIT", ticktick.DefaultFanOutLimit)
	if err != nil {
		return Config{}, err
	}

	return Config{
		APIKey:          getEnv("TICKTICK_API_KEY", ""),
		APIBase:         getEnv("TICKTICK_API_BASE", ticktick.DefaultBaseURL),
		TokenFile:       tokenFile,
		ClientID:        getEnv("TICKTICK_CLIENT_ID", ""),
		ClientSecret:    getEnv("TICKTICK_CLIENT_SECRET", ""),
		RedirectURL:     getEnv("TICKTICK_REDIRECT_URL", ticktick.DefaultRedirectURL),
		HTTPTimeout:     timeout,
		FanOutLimit:     fanOut,
		DefaultTimezone: getEnv("TICKTICK_DEFAULT_TIMEZONE", ticktick.DefaultTimezone),
		Transport:       getEnv("MCP_TRANSPORT", TransportSSE),
		HTTPAddr:        getEnv("MCP_HTTP_ADDR", DefaultHTTPAddr),
		BaseURL:         getEnv("MCP_BASE_URL", ""),
		ReadOnly:        getEnvBool("MCP_READ_ONLY", false),
		MetricsEnabled:  getEnvBool("METRICS_ENABLED", true),
		MetricsAddr:     getEnv("METRICS_ADDR", DefaultMetricsAddr),
		LogFormat:       getEnv("LOG_FORMAT", logging.FormatText),
		Debug:           getEnvBool("DEBUG", false),
	}, nil
}

// Validate checks settings that would otherwise fail later at runtime.
func (c Config) Validate() error {
	var errs []error

	switch c.Transport {
	case TransportSSE, TransportStdio, TransportStreamableHTTP:
	default:
		errs = append(errs, fmt.Errorf("unsupported transport %q (supported: sse, stdio, streamable-http)", c.Transport))
	}
	if c.HTTPTimeout <= 0 {
		errs = append(errs, fmt.Errorf("http timeout must be positive, got %s", c.HTTPTimeout))
	}
	if c.FanOutLimit <= 0 {
		errs = append(errs, fmt.Errorf("fan-out limit must be positive, got %d", c.FanOutLimit))
	}
	if _, err := ticktick.LoadTimezone(c.DefaultTimezone); err != nil {
		errs = append(errs, fmt.Errorf("default timezone: %w", err))
	}
	if _, err := logging.ParseFormat(c.LogFormat); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return parsed, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return parsed, nil
}
