package auth

import (
	"errors"
	"fmt"
	"net/url"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	// DefaultRedirectURI is the loopback redirect used when none is configured.
	DefaultRedirectURI = "http://localhost:37387/"

	// DefaultAuthURL is Google's v2 authorization endpoint.
	DefaultAuthURL = "https://accounts.google.com/o/oauth2/v2/auth"

	// DefaultUserInfoURL is Google's userinfo v2 endpoint.
	DefaultUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
)

// DefaultScopes are requested when neither configuration nor the client
// secret names any.
var DefaultScopes = []string{
	"https://www.googleapis.com/auth/cloud-platform",
	"https://www.googleapis.com/auth/userinfo.email",
	"https://www.googleapis.com/auth/userinfo.profile",
}

// OAuthConfig holds everything one authorization attempt needs. It is not
// modified after the authenticator is constructed.
type OAuthConfig struct {
	ClientID     string
	ClientSecret string

	// RedirectURI must be an http URL on a loopback host. A URI without a
	// port gets the port the listener actually bound.
	RedirectURI string

	Scopes []string

	// Endpoint holds the authorization and token URLs.
	Endpoint oauth2.Endpoint

	// UserInfoURL is queried after login to label the cached credentials.
	UserInfoURL string
}

// DefaultEndpoint returns Google's endpoint with the v2 authorization URL.
func DefaultEndpoint() oauth2.Endpoint {
	ep := google.Endpoint
	ep.AuthURL = DefaultAuthURL
	return ep
}

// WithDefaults returns a copy with every unset field filled in.
func (c OAuthConfig) WithDefaults() OAuthConfig {
	defaults := DefaultEndpoint()
	if c.RedirectURI == "" {
		c.RedirectURI = DefaultRedirectURI
	}
	if len(c.Scopes) == 0 {
		c.Scopes = append([]string(nil), DefaultScopes...)
	}
	if c.Endpoint.AuthURL == "" {
		c.Endpoint.AuthURL = defaults.AuthURL
	}
	if c.Endpoint.TokenURL == "" {
		c.Endpoint.TokenURL = defaults.TokenURL
	}
	// Client credentials go in the form body.
	c.Endpoint.AuthStyle = oauth2.AuthStyleInParams
	if c.UserInfoURL == "" {
		c.UserInfoURL = DefaultUserInfoURL
	}
	return c
}

// Validate reports configuration that cannot produce a working login.
func (c OAuthConfig) Validate() error {
	if c.ClientID == "" {
		return errors.New("oauth config: client ID is required")
	}
	u, err := url.Parse(c.RedirectURI)
	if err != nil {
		return fmt.Errorf("oauth config: invalid redirect URI: %w", err)
	}
	if u.Scheme != "http" || !isLoopbackHost(u.Hostname()) {
		return fmt.Errorf("oauth config: redirect URI must be http on a loopback host, got %q", c.RedirectURI)
	}
	for name, raw := range map[string]string{
		"authorization URL": c.Endpoint.AuthURL,
		"token URL":         c.Endpoint.TokenURL,
		"userinfo URL":      c.UserInfoURL,
	} {
		u, err := url.Parse(raw)
		if err != nil || u.Host == "" || (u.Scheme != "https" && u.Scheme != "http") {
			return fmt.Errorf("oauth config: invalid %s %q", name, raw)
		}
	}
	return nil
}

// oauth2Config builds the x/oauth2 configuration for one resolved redirect URI.
func (c OAuthConfig) oauth2Config(redirectURI string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		Endpoint:     c.Endpoint,
		RedirectURL:  redirectURI,
		Scopes:       c.Scopes,
	}
}

// AuthCodeURL builds the authorization URL for one attempt.
func (c OAuthConfig) AuthCodeURL(redirectURI, state, codeChallenge string) string {
	return c.oauth2Config(redirectURI).AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("code_challenge", codeChallenge),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
	)
}
