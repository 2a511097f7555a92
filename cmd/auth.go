package cmd

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/teemow/ticktick-mcp/internal/config"
	"github.com/teemow/ticktick-mcp/internal/logging"
	"github.com/teemow/ticktick-mcp/internal/ticktick"
)

func newAuthCmd() *cobra.Command {
	var (
		clientID     string
		clientSecret string
		redirectURL  string
		tokenFile    string
	)

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authorize ticktick-mcp with your TickTick account",
		Long: `Run the TickTick OAuth flow and store the resulting access token.

Register an app at https://developer.ticktick.com/manage with the redirect
URL below, then run this command with the app's client id and secret.
Open the printed URL, approve access, and the token is written to the
token file. serve and today use it when TICKTICK_API_KEY is not set.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(envFile)
			if err != nil {
				return err
			}

			changed := cmd.Flags().Changed
			if changed("client-id") {
				cfg.ClientID = clientID
			}
			if changed("client-secret") {
				cfg.ClientSecret = clientSecret
			}
			if changed("redirect-url") {
				cfg.RedirectURL = redirectURL
			}
			if changed("token-file") {
				cfg.TokenFile = tokenFile
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			return runAuth(ctx, cmd, cfg)
		},
	}

	cmd.Flags().StringVar(&clientID, "client-id", "", "TickTick OAuth client id. Can also use TICKTICK_CLIENT_ID env var.")
	cmd.Flags().StringVar(&clientSecret, "client-secret", "", "TickTick OAuth client secret. Can also use TICKTICK_CLIENT_SECRET env var.")
	cmd.Flags().StringVar(&redirectURL, "redirect-url", ticktick.DefaultRedirectURL, "Redirect URL registered for the app; must point at this machine. Can also use TICKTICK_REDIRECT_URL env var.")
	cmd.Flags().StringVar(&tokenFile, "token-file", "", "Where to store the token. Can also use TICKTICK_TOKEN_FILE env var.")

	return cmd
}

func runAuth(ctx context.Context, cmd *cobra.Command, cfg config.Config) error {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return fmt.Errorf("client id and secret are required (--client-id/--client-secret or TICKTICK_CLIENT_ID/TICKTICK_CLIENT_SECRET)")
	}
	if cfg.TokenFile == "" {
		return fmt.Errorf("no token file location; set --token-file or TICKTICK_TOKEN_FILE")
	}

	addr, err := callbackAddr(cfg.RedirectURL)
	if err != nil {
		return err
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen for the OAuth callback on %s: %w", addr, err)
	}

	out := cmd.OutOrStdout()
	conf := ticktick.OAuthConfig(cfg.ClientID, cfg.ClientSecret, cfg.RedirectURL)
	tok, err := ticktick.Authorize(ctx, conf, ln, func(authURL string) {
		fmt.Fprintf(out, "Open this URL in your browser to authorize ticktick-mcp:\n\n  %s\n\nWaiting for the redirect to %s ...\n", authURL, cfg.RedirectURL)
	})
	if err != nil {
		return err
	}

	if err := ticktick.SaveToken(cfg.TokenFile, tok); err != nil {
		return err
	}

	fmt.Fprintf(out, "\nAuthorization successful.\n")
	fmt.Fprintf(out, "  Access token: %s\n", logging.SanitizeToken(tok.AccessToken))
	if !tok.Expiry.IsZero() {
		fmt.Fprintf(out, "  Expires:      %s\n", tok.Expiry.Format("2006-01-02 15:04:05 MST"))
	}
	fmt.Fprintf(out, "  Saved to:     %s\n", cfg.TokenFile)
	return nil
}

// callbackAddr returns the local listen address for a redirect URL.
func callbackAddr(redirectURL string) (string, error) {
	u, err := url.Parse(redirectURL)
	if err != nil {
		return "", fmt.Errorf("invalid redirect URL: %w", err)
	}
	if u.Scheme != "http" {
		return "", fmt.Errorf("redirect URL must use http on a local address, got %q", redirectURL)
	}

	host, port := u.Hostname(), u.Port()
	if host == "" {
		return "", fmt.Errorf("redirect URL has no host: %q", redirectURL)
	}
	if port == "" {
		port = "80"
	}
	return net.JoinHostPort(host, port), nil
}
