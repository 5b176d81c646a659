// Package auth obtains, caches and refreshes the credential aichat sends to
// the remote API.
//
// Two Authenticator implementations exist. StaticKeyAuthenticator returns a
// configured API key. OAuthAuthenticator runs the OAuth 2.0 Authorization
// Code flow with PKCE (RFC 7636) against a loopback redirect (RFC 8252).
//
// # Flow
//
//  1. Read the cached CredentialRecord from the CredentialStore.
//  2. Return it if it has no expiry or has not expired yet.
//  3. If it expired and carries a refresh token, refresh once. A failed
//     refresh falls back to the cached token.
//  4. With no readable cache, log in interactively: generate PKCE and state,
//     bind the CallbackServer, open the browser, wait for the redirect,
//     verify state, exchange the code, persist, fetch user info.
//
// # Security
//
//   - PKCE verifiers and state tokens are 32 random bytes and never stored.
//   - State is compared in constant time. A mismatch aborts before any
//     token request and nothing is written.
//   - The listener binds 127.0.0.1 only and answers a single terminal request.
//   - The credential file is 0600 inside a 0700 directory and is replaced
//     by rename, so a crash never leaves a partial file.
//   - URLs are logged only after oauth.RedactURL. Tokens are never logged.
//
// # Errors
//
// Failures match the sentinel errors in errors.go through errors.Is.
// Refresh and user-info failures are logged and never returned from
// Authenticate.
package auth
