package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"aichat/pkg/oauth"

	"github.com/google/uuid"
)

// errSuperseded aborts a user-info merge when the cached token changed underneath.
var errSuperseded = errors.New("cached credentials changed during user info lookup")

// login runs one interactive Authorization Code + PKCE attempt:
// generate PKCE and state, start the redirect listener, show the
// authorization URL, open the browser, wait for the redirect, verify state,
// exchange the code, persist, then label the record with user info.
func (a *OAuthAuthenticator) login(ctx context.Context) (*CredentialRecord, error) {
	attemptID := uuid.New().String()
	logger := a.logger.With("attempt_id", attemptID)

	pkce, err := oauth.GeneratePKCE()
	if err != nil {
		return nil, err
	}
	state, err := oauth.GenerateState()
	if err != nil {
		return nil, err
	}

	server, err := NewCallbackServer(a.cfg.RedirectURI, logger)
	if err != nil {
		return nil, err
	}

	serverCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	redirectURI, err := server.Start(serverCtx)
	if err != nil {
		return nil, err
	}
	defer server.Stop()

	authURL := a.cfg.AuthCodeURL(redirectURI, state, pkce.CodeChallenge)
	redactedURL := oauth.RedactURL(authURL)

	logger.Info("Starting OAuth authorization",
		"auth_url", redactedURL,
		"redirect_uri", redirectURI,
		"open_browser", a.browserEnabled,
	)

	prompt := AuthPrompt{AttemptID: attemptID, RedactedURL: redactedURL}
	if !a.browserEnabled {
		prompt.ManualURL = authURL
	}
	a.onPrompt(prompt)

	if a.browserEnabled {
		if err := a.openBrowser(authURL); err != nil {
			if !errors.Is(err, ErrBrowserLaunch) {
				err = fmt.Errorf("%w: %w", ErrBrowserLaunch, err)
			}
			logger.Warn("Failed to open browser", "error", err)
			return nil, err
		}
	}

	result, err := server.WaitForCallback(ctx, a.callbackTimeout)
	if err != nil {
		logger.Warn("OAuth authorization did not complete", "error", err)
		return nil, err
	}

	if !oauth.StateMatches(state, result.State) {
		// SECURITY AUDIT: possible CSRF attempt
		logger.Warn("SECURITY_AUDIT: OAuth state parameter mismatch",
			"event", "state_mismatch",
			"expected_length", len(state),
			"received_length", len(result.State),
		)
		return nil, ErrCSRFMismatch
	}

	rec, err := a.tokens.Exchange(ctx, result.Code, pkce.CodeVerifier, redirectURI)
	if err != nil {
		logger.Warn("Authorization code exchange failed", "error", err)
		return nil, err
	}

	if err := a.store.Write(rec); err != nil {
		return nil, err
	}

	logger.Info("SECURITY_AUDIT: OAuth login completed",
		"event", "login_completed",
		"has_refresh_token", rec.RefreshToken != "",
		"expiry", expiryString(rec),
	)

	a.enrichUserInfo(ctx, rec, logger)
	return rec, nil
}

// enrichUserInfo labels the stored record with the user's identity. Every
// failure is logged and otherwise ignored.
func (a *OAuthAuthenticator) enrichUserInfo(ctx context.Context, rec *CredentialRecord, logger *slog.Logger) {
	info, err := a.userInfo.Fetch(ctx, rec.AccessToken)
	if err != nil {
		logger.Warn("Failed to fetch user info", "error", err)
		return
	}

	err = a.store.Update(func(cur *CredentialRecord) error {
		if cur.AccessToken != rec.AccessToken {
			return errSuperseded
		}
		cur.UserInfo = info
		return nil
	})
	if err != nil {
		logger.Warn("Failed to store user info", "error", err)
		return
	}

	rec.UserInfo = info
	logger.Info("Authenticated", "email", info.Email)
}

func expiryString(rec *CredentialRecord) string {
	if !rec.HasExpiry() {
		return "never"
	}
	return rec.ExpiresAt().UTC().Format(time.RFC3339)
}
