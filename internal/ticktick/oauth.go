package ticktick

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/oauth2"
)

// OAuth endpoints and defaults of the TickTick developer platform.
const (
	AuthURL  = "https://ticktick.com/oauth/authorize"
	TokenURL = "https://ticktick.com/oauth/token"

	DefaultRedirectURL = "http://127.0.0.1:8080"

	callbackTimeout = 5 * time.Minute
)

// Scopes requested by the authorization flow.
var Scopes = []string{"tasks:read", "tasks:write"}

// OAuthConfig returns the oauth2 configuration for a registered TickTick app.
// Client credentials are sent in the Basic auth header.
func OAuthConfig(clientID, clientSecret, redirectURL string) *oauth2.Config {
	if redirectURL == "" {
		redirectURL = DefaultRedirectURL
	}
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes:       Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   AuthURL,
			TokenURL:  TokenURL,
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}
}

// DefaultTokenFile returns <user cache dir>/ticktick-mcp/token.json.
func DefaultTokenFile() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine cache directory: %w", err)
	}
	return filepath.Join(dir, "ticktick-mcp", "token.json"), nil
}

// LoadToken reads a token written by SaveToken.
func LoadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("failed to parse token file %s: %w", path, err)
	}
	if tok.AccessToken == "" {
		return nil, fmt.Errorf("token file %s: %w", path, ErrMissingToken)
	}
	return &tok, nil
}

// SaveToken writes tok as JSON with mode 0600, creating the directory.
func SaveToken(path string, tok *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

// TokenSource returns a source for tok. With a config and a refresh token
// the source refreshes expired tokens, otherwise tok is used as is.
func TokenSource(ctx context.Context, conf *oauth2.Config, tok *oauth2.Token) oauth2.TokenSource {
	if conf != nil && conf.ClientID != "" && tok.RefreshToken != "" {
		return conf.TokenSource(ctx, tok)
	}
	return oauth2.StaticTokenSource(tok)
}

// Authorize runs the authorization code flow. It passes the consent URL to
// prompt, serves the redirect on ln and exchanges the returned code.
func Authorize(ctx context.Context, conf *oauth2.Config, ln net.Listener, prompt func(authURL string)) (*oauth2.Token, error) {
	state, err := randomState()
	if err != nil {
		return nil, err
	}
	verifier := oauth2.GenerateVerifier()

	type result struct {
		code string
		err  error
	}
	results := make(chan result, 1)
	deliver := func(r result) {
		select {
		case results <- r:
		default:
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch {
		case q.Get("error") != "":
			http.Error(w, "Authorization denied", http.StatusBadRequest)
			deliver(result{err: fmt.Errorf("authorization denied: %s", q.Get("error"))})
		case q.Get("state") != state:
			http.Error(w, "Invalid state", http.StatusBadRequest)
		case q.Get("code") == "":
			http.Error(w, "No code in callback", http.StatusBadRequest)
		default:
			w.Header().Set("Content-Type", "text/html")
			fmt.Fprintf(w, "<html><body><h1>%s</h1><p>You may close this window.</p></body></html>",
				html.EscapeString("TickTick authorization successful"))
			deliver(result{code: q.Get("code")})
		}
	})

	server := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			deliver(result{err: fmt.Errorf("callback server failed: %w", err)})
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	prompt(conf.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier)))

	var r result
	select {
	case r = <-results:
	case <-time.After(callbackTimeout):
		return nil, fmt.Errorf("timed out waiting for the OAuth callback")
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if r.err != nil {
		return nil, r.err
	}

	tok, err := conf.Exchange(ctx, r.code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}
	return tok, nil
}

func randomState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
