package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"aichat/internal/auth"
	"aichat/internal/config"
	"aichat/pkg/logging"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

// DefaultDiscoveryTimeout bounds the OIDC discovery request made before login.
const DefaultDiscoveryTimeout = 10 * time.Second

// Replaced in tests.
var (
	browserOpener auth.BrowserOpener = auth.OpenBrowser
	httpClient                       = &http.Client{Timeout: auth.DefaultHTTPTimeout}
)

// resolveConfigDir returns --config-dir or the default configuration directory.
func resolveConfigDir() (string, error) {
	if configDirFlag != "" {
		return configDirFlag, nil
	}
	return config.DefaultConfigDir()
}

// loadSettings resolves the configuration directory and loads config.yaml from it.
func loadSettings() (string, config.AichatConfig, error) {
	dir, err := resolveConfigDir()
	if err != nil {
		return "", config.AichatConfig{}, err
	}
	cfg, err := config.LoadConfig(dir)
	if err != nil {
		return "", config.AichatConfig{}, err
	}
	return dir, cfg, nil
}

func newCredentialStore(dir string) *auth.CredentialStore {
	return auth.NewCredentialStore(config.CredentialsPath(dir), logging.Logger().With("subsystem", "Auth"))
}

// oauthConfigFromSettings combines the client secret with config.yaml.
// Explicit endpoints win over discovery, which wins over the client secret,
// which wins over the built-in Google defaults.
func oauthConfigFromSettings(ctx context.Context, dir string, cfg config.AichatConfig) (auth.OAuthConfig, error) {
	settings := cfg.OAuth

	secret, err := config.LoadClientSecret(dir, settings.Client)
	if err != nil {
		if errors.Is(err, config.ErrClientSecretNotFound) {
			return auth.OAuthConfig{}, fmt.Errorf(`%w

To install the OAuth client for %q, run:
  aichat auth import-secrets --client %s --file <client_secret.json>`, err, settings.Client, settings.Client)
		}
		return auth.OAuthConfig{}, err
	}

	oc := auth.OAuthConfig{
		ClientID:     secret.ClientID,
		ClientSecret: secret.ClientSecret,
		RedirectURI:  settings.RedirectURI,
		Scopes:       secret.Scopes,
		UserInfoURL:  settings.UserInfoURL,
	}
	if len(settings.Scopes) > 0 {
		oc.Scopes = settings.Scopes
	}
	oc.Endpoint.AuthURL = settings.AuthURL
	oc.Endpoint.TokenURL = settings.TokenURL

	if settings.Issuer != "" {
		dctx, cancel := context.WithTimeout(ctx, DefaultDiscoveryTimeout)
		discovered, err := auth.DiscoverEndpoints(dctx, settings.Issuer, httpClient)
		cancel()
		if err != nil {
			return auth.OAuthConfig{}, err
		}
		oc = discovered.Apply(oc)
		logging.Debug("Auth", "Discovered endpoints for issuer %s", settings.Issuer)
	}

	if oc.Endpoint.AuthURL == "" {
		oc.Endpoint.AuthURL = secret.AuthURL
	}
	if oc.Endpoint.TokenURL == "" {
		oc.Endpoint.TokenURL = secret.TokenURL
	}
	return oc, nil
}

// buildOAuthAuthenticator creates the OAuth authenticator described by cfg.
// extra options are applied last.
func buildOAuthAuthenticator(ctx context.Context, cmd *cobra.Command, dir string, cfg config.AichatConfig, extra ...auth.Option) (*auth.OAuthAuthenticator, error) {
	oc, err := oauthConfigFromSettings(ctx, dir, cfg)
	if err != nil {
		return nil, err
	}

	opts := []auth.Option{
		auth.WithHTTPClient(httpClient),
		auth.WithLogger(logging.Logger().With("subsystem", "Auth")),
		auth.WithBrowserOpener(browserOpener),
		auth.WithOpenBrowser(cfg.OAuth.BrowserEnabled()),
		auth.WithCallbackTimeout(cfg.OAuth.CallbackTimeout),
		auth.WithAuthPromptHandler(promptPrinter(cmd.ErrOrStderr())),
	}
	return auth.NewOAuthAuthenticator(oc, newCredentialStore(dir), append(opts, extra...)...)
}

// buildAuthenticator picks the static key or OAuth authenticator from cfg.
func buildAuthenticator(ctx context.Context, cmd *cobra.Command, dir string, cfg config.AichatConfig, extra ...auth.Option) (auth.Authenticator, error) {
	if cfg.UsesStaticKey() {
		logging.Debug("Auth", "Using static API key")
		return auth.NewStaticKeyAuthenticator(cfg.APIKey)
	}
	return buildOAuthAuthenticator(ctx, cmd, dir, cfg, extra...)
}

// promptPrinter shows the authorization prompt. The manual URL is printed
// even with --quiet because the login cannot finish without it.
func promptPrinter(w io.Writer) auth.AuthPromptHandler {
	return func(p auth.AuthPrompt) {
		if p.ManualURL != "" {
			fmt.Fprintf(w, "Open the following URL in your browser to sign in:\n\n  %s\n\n", p.ManualURL)
			return
		}
		if quietFlag {
			return
		}
		fmt.Fprintln(w, "Opening your browser to sign in...")
		fmt.Fprintf(w, "  %s\n", text.FgHiBlack.Sprint(p.RedactedURL))
	}
}

// authPrintf prints output only if the --quiet flag is not set.
func authPrintf(cmd *cobra.Command, format string, args ...interface{}) {
	if !quietFlag {
		fmt.Fprintf(cmd.OutOrStdout(), format, args...)
	}
}

// authPrintln prints a line only if the --quiet flag is not set.
func authPrintln(cmd *cobra.Command, a ...interface{}) {
	if !quietFlag {
		fmt.Fprintln(cmd.OutOrStdout(), a...)
	}
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < 0 {
		return "expired"
	}
	if d < time.Minute {
		return "< 1 minute"
	}
	if d < time.Hour {
		minutes := int(d.Minutes())
		if minutes == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", minutes)
	}
	if d < 24*time.Hour {
		hours := int(d.Hours())
		if hours == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", hours)
	}
	days := int(d.Hours() / 24)
	if days == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", days)
}

// formatExpiry formats an expiry as "in X" or "expired X ago" relative to now.
func formatExpiry(expiresAt, now time.Time) string {
	remaining := expiresAt.Sub(now)
	if remaining > 0 {
		return "in " + formatDuration(remaining)
	}
	return text.FgYellow.Sprintf("expired %s ago", formatDuration(-remaining))
}

// identity returns the best display name for a cached record.
func identity(rec *auth.CredentialRecord) string {
	if rec.UserInfo == nil {
		return ""
	}
	if rec.UserInfo.Email != "" {
		return rec.UserInfo.Email
	}
	return rec.UserInfo.Name
}
