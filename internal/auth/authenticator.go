package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"aichat/pkg/oauth"
)

// Authenticator produces a credential string for the remote API.
//
// The interface is sealed: StaticKeyAuthenticator and OAuthAuthenticator are
// the only implementations.
type Authenticator interface {
	// Authenticate returns an API key or an OAuth access token.
	Authenticate(ctx context.Context) (string, error)

	isAuthenticator()
}

// StaticKeyAuthenticator returns a fixed API key.
type StaticKeyAuthenticator struct {
	key oauth.RedactedToken
}

// NewStaticKeyAuthenticator creates an authenticator for key. An empty key
// is rejected.
func NewStaticKeyAuthenticator(key string) (*StaticKeyAuthenticator, error) {
	if key == "" {
		return nil, errors.New("static API key must not be empty")
	}
	return &StaticKeyAuthenticator{key: oauth.NewRedactedToken(key)}, nil
}

// Authenticate returns the configured key. It performs no I/O.
func (a *StaticKeyAuthenticator) Authenticate(context.Context) (string, error) {
	return a.key.Value(), nil
}

func (*StaticKeyAuthenticator) isAuthenticator() {}

// AuthPrompt is shown to the user once the authorization URL is ready.
type AuthPrompt struct {
	// AttemptID correlates the prompt with log lines for this login.
	AttemptID string

	// RedactedURL is safe to display and log.
	RedactedURL string

	// ManualURL is the full URL. It is only set when the browser is not
	// launched automatically, so the user can open it by hand. Never log it.
	ManualURL string
}

// AuthPromptHandler receives the prompt for each interactive login.
type AuthPromptHandler func(prompt AuthPrompt)

// OAuthAuthenticator returns a cached OAuth access token, refreshing or
// running an interactive Authorization Code + PKCE login as needed.
//
// Concurrent calls within one process share a single in-flight
// authentication, and every path that can start an interactive login shares
// the same login. A caller whose context is cancelled returns early without
// failing the others.
type OAuthAuthenticator struct {
	cfg      OAuthConfig
	store    *CredentialStore
	tokens   *TokenClient
	userInfo *UserInfoClient

	httpClient      *http.Client
	logger          *slog.Logger
	now             func() time.Time
	openBrowser     BrowserOpener
	browserEnabled  bool
	callbackTimeout time.Duration
	out             io.Writer
	onPrompt        AuthPromptHandler

	calls sharedCalls
}

// Keys for calls shared between concurrent callers.
const (
	callAuthenticate = "authenticate"
	callLogin        = "login"
	callRefresh      = "refresh"
)

// Option configures an OAuthAuthenticator.
type Option func(*OAuthAuthenticator)

// WithHTTPClient sets the HTTP client used for token and userinfo requests.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(a *OAuthAuthenticator) {
		a.httpClient = httpClient
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *OAuthAuthenticator) {
		a.logger = logger
	}
}

// WithClock sets the time source used for expiry decisions.
func WithClock(now func() time.Time) Option {
	return func(a *OAuthAuthenticator) {
		a.now = now
	}
}

// WithBrowserOpener replaces OpenBrowser.
func WithBrowserOpener(opener BrowserOpener) Option {
	return func(a *OAuthAuthenticator) {
		a.openBrowser = opener
	}
}

// WithOpenBrowser enables or disables launching the browser. When disabled
// the full authorization URL is handed to the prompt handler instead.
func WithOpenBrowser(enabled bool) Option {
	return func(a *OAuthAuthenticator) {
		a.browserEnabled = enabled
	}
}

// WithCallbackTimeout bounds the wait for the browser redirect.
func WithCallbackTimeout(timeout time.Duration) Option {
	return func(a *OAuthAuthenticator) {
		a.callbackTimeout = timeout
	}
}

// WithOutput sets where the default prompt handler writes.
func WithOutput(w io.Writer) Option {
	return func(a *OAuthAuthenticator) {
		a.out = w
	}
}

// WithAuthPromptHandler replaces the default prompt handler.
func WithAuthPromptHandler(handler AuthPromptHandler) Option {
	return func(a *OAuthAuthenticator) {
		a.onPrompt = handler
	}
}

// NewOAuthAuthenticator creates an authenticator for cfg that caches
// credentials in store. Unset cfg fields get defaults.
func NewOAuthAuthenticator(cfg OAuthConfig, store *CredentialStore, opts ...Option) (*OAuthAuthenticator, error) {
	if store == nil {
		return nil, errors.New("credential store is required")
	}
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &OAuthAuthenticator{
		cfg:             cfg,
		store:           store,
		httpClient:      &http.Client{Timeout: DefaultHTTPTimeout},
		logger:          slog.Default(),
		now:             time.Now,
		openBrowser:     OpenBrowser,
		browserEnabled:  true,
		callbackTimeout: DefaultCallbackTimeout,
		out:             os.Stderr,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.onPrompt == nil {
		a.onPrompt = a.printPrompt
	}

	a.tokens = NewTokenClient(cfg, a.httpClient, a.now)
	a.userInfo = NewUserInfoClient(cfg.UserInfoURL, a.httpClient)
	return a, nil
}

func (*OAuthAuthenticator) isAuthenticator() {}

// Config returns the effective configuration.
func (a *OAuthAuthenticator) Config() OAuthConfig {
	return a.cfg
}

// Authenticate returns a usable access token.
//
//   - No readable cache: run an interactive login.
//   - Cached token without expiry, or not yet expired: return it.
//   - Expired with a refresh token: refresh once. On refresh failure the
//     stale token is returned and the failure is logged.
//   - Expired without a refresh token: return the stale token.
func (a *OAuthAuthenticator) Authenticate(ctx context.Context) (string, error) {
	v, err := a.calls.do(ctx, callAuthenticate, func(ctx context.Context) (interface{}, error) {
		return a.authenticate(ctx)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (a *OAuthAuthenticator) authenticate(ctx context.Context) (string, error) {
	rec, err := a.store.Read()
	if err != nil {
		switch {
		case errors.Is(err, ErrCredentialsNotFound):
			a.logger.Debug("No cached credentials, starting interactive login", "path", a.store.Path())
		case errors.Is(err, ErrCorruptCredentials):
			a.logger.Warn("Cached credentials are corrupt, starting interactive login", "path", a.store.Path(), "error", err)
		default:
			a.logger.Warn("Failed to read cached credentials, starting interactive login", "path", a.store.Path(), "error", err)
		}

		rec, err = a.sharedLogin(ctx)
		if err != nil {
			return "", err
		}
		return rec.AccessToken, nil
	}

	if !rec.IsExpired(a.now()) {
		return rec.AccessToken, nil
	}

	if !rec.CanRefresh() {
		a.logger.Warn("Cached access token expired and no refresh token is available",
			"expired_at", rec.ExpiresAt().Format(time.RFC3339))
		return rec.AccessToken, nil
	}

	refreshed, err := a.refresh(ctx, rec)
	if err != nil {
		var refreshErr *RefreshError
		if errors.As(err, &refreshErr) {
			a.logger.Warn("Token refresh failed, using cached access token", "error", err)
			return rec.AccessToken, nil
		}
		return "", err
	}
	return refreshed.AccessToken, nil
}

// refresh runs one refresh-token grant and persists the result. Grant
// failures come back as *RefreshError. Persist failures are returned as is.
func (a *OAuthAuthenticator) refresh(ctx context.Context, rec *CredentialRecord) (*CredentialRecord, error) {
	a.logger.Debug("Refreshing access token", "expired_at", rec.ExpiresAt().Format(time.RFC3339))

	refreshed, err := a.tokens.Refresh(ctx, rec)
	if err != nil {
		return nil, &RefreshError{Err: err}
	}
	if err := a.store.Write(refreshed); err != nil {
		return nil, err
	}

	a.logger.Info("SECURITY_AUDIT: OAuth token refreshed",
		"event", "token_refreshed",
		"expiry", refreshed.ExpiresAt().Format(time.RFC3339),
		"refresh_token_rotated", refreshed.RefreshToken != rec.RefreshToken,
	)
	return refreshed, nil
}

// Login runs an interactive login regardless of the cache.
// A login already in flight is joined rather than started twice.
func (a *OAuthAuthenticator) Login(ctx context.Context) (*CredentialRecord, error) {
	return a.sharedLogin(ctx)
}

func (a *OAuthAuthenticator) sharedLogin(ctx context.Context) (*CredentialRecord, error) {
	v, err := a.calls.do(ctx, callLogin, func(ctx context.Context) (interface{}, error) {
		return a.login(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*CredentialRecord), nil
}

// Refresh forces a refresh-token grant. Unlike Authenticate it returns the
// failure instead of falling back to the cached token.
func (a *OAuthAuthenticator) Refresh(ctx context.Context) (*CredentialRecord, error) {
	v, err := a.calls.do(ctx, callRefresh, func(ctx context.Context) (interface{}, error) {
		rec, err := a.store.Read()
		if err != nil {
			return nil, err
		}
		if !rec.CanRefresh() {
			return nil, &RefreshError{Err: errors.New("no refresh token cached")}
		}
		return a.refresh(ctx, rec)
	})
	if err != nil {
		return nil, err
	}
	return v.(*CredentialRecord), nil
}

// Status returns the cached record without contacting the provider.
func (a *OAuthAuthenticator) Status() (*CredentialRecord, error) {
	return a.store.Read()
}

// Logout deletes the cached credentials.
func (a *OAuthAuthenticator) Logout() error {
	return a.store.Clear()
}

func (a *OAuthAuthenticator) printPrompt(prompt AuthPrompt) {
	if a.out == nil {
		return
	}
	if prompt.ManualURL != "" {
		fmt.Fprintf(a.out, "Open the following URL in your browser to sign in:\n\n  %s\n\n", prompt.ManualURL)
		return
	}
	fmt.Fprintf(a.out, "Opening browser for authentication:\n  %s\n", prompt.RedactedURL)
}
