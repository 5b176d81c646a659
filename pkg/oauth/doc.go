// Package oauth provides the OAuth 2.0 primitives shared by the aichat
// authentication code and its command line.
//
// This package has no knowledge of where credentials are stored or how the
// browser is driven. It only produces and protects the short-lived values an
// authorization round trip needs.
//
// # Core Components
//
//   - PKCE: Proof Key for Code Exchange generation (RFC 7636, S256 only)
//   - State: CSRF state tokens bound to one authorization round trip
//   - RedactURL: masks secret query parameters before a URL is shown or logged
//   - RedactedToken: wraps a token so that fmt, slog and encoding/json never print it
//
// # Usage
//
//	pkce, err := oauth.GeneratePKCE()
//	state, err := oauth.GenerateState()
//	url := cfg.AuthCodeURL(state, ...)
//	slog.Info("Opening browser", "url", oauth.RedactURL(url))
package oauth
