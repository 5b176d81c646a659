package auth

import (
	"context"
	"errors"
	"net/http"
	"time"

	strutil "aichat/pkg/strings"

	"golang.org/x/oauth2"
)

// DefaultHTTPTimeout is the default timeout for token and userinfo requests.
const DefaultHTTPTimeout = 30 * time.Second

// TokenClient performs the authorization-code and refresh-token grants.
type TokenClient struct {
	cfg        OAuthConfig
	httpClient *http.Client
	now        func() time.Time
}

// NewTokenClient creates a token client. cfg should already have defaults applied.
func NewTokenClient(cfg OAuthConfig, httpClient *http.Client, now func() time.Time) *TokenClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultHTTPTimeout}
	}
	if now == nil {
		now = time.Now
	}
	return &TokenClient{cfg: cfg, httpClient: httpClient, now: now}
}

// Exchange redeems an authorization code. redirectURI must be the exact
// value sent in the authorization request.
func (c *TokenClient) Exchange(ctx context.Context, code, verifier, redirectURI string) (*CredentialRecord, error) {
	conf := c.cfg.oauth2Config(redirectURI)

	token, err := conf.Exchange(c.clientContext(ctx), code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, tokenEndpointError(err)
	}
	return c.recordFromToken(token, nil), nil
}

// Refresh runs the refresh-token grant for prev. The previous refresh token
// and user info are kept when the response does not replace them.
func (c *TokenClient) Refresh(ctx context.Context, prev *CredentialRecord) (*CredentialRecord, error) {
	if prev == nil || prev.RefreshToken == "" {
		return nil, &TokenEndpointError{Err: errors.New("no refresh token available")}
	}
	conf := c.cfg.oauth2Config(c.cfg.RedirectURI)

	src := conf.TokenSource(c.clientContext(ctx), &oauth2.Token{RefreshToken: prev.RefreshToken})
	token, err := src.Token()
	if err != nil {
		return nil, tokenEndpointError(err)
	}
	return c.recordFromToken(token, prev), nil
}

func (c *TokenClient) clientContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
}

func (c *TokenClient) recordFromToken(token *oauth2.Token, prev *CredentialRecord) *CredentialRecord {
	var rec *CredentialRecord
	if prev != nil {
		rec = prev.Clone()
	} else {
		rec = &CredentialRecord{}
	}

	rec.AccessToken = token.AccessToken
	if token.RefreshToken != "" {
		rec.RefreshToken = token.RefreshToken
	}
	if token.TokenType != "" {
		rec.TokenType = token.TokenType
	}

	switch {
	case token.ExpiresIn > 0:
		rec.ExpiryDate = c.now().Add(time.Duration(token.ExpiresIn) * time.Second).Unix()
	case !token.Expiry.IsZero():
		rec.ExpiryDate = token.Expiry.Unix()
	default:
		rec.ExpiryDate = 0
	}
	return rec
}

// tokenEndpointError converts an x/oauth2 error into a *TokenEndpointError.
func tokenEndpointError(err error) *TokenEndpointError {
	var retrieveErr *oauth2.RetrieveError
	if !errors.As(err, &retrieveErr) {
		return &TokenEndpointError{Err: err}
	}

	te := &TokenEndpointError{
		ErrorCode:   retrieveErr.ErrorCode,
		Description: retrieveErr.ErrorDescription,
		Err:         err,
	}
	if retrieveErr.Response != nil {
		te.StatusCode = retrieveErr.Response.StatusCode
	}
	if te.ErrorCode == "" && te.Description == "" {
		te.Description = strutil.Snippet(string(retrieveErr.Body))
	}
	return te
}
