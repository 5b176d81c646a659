package auth

import (
	"errors"
	"fmt"
)

// Sentinel errors for the authentication flow. Typed errors below match them
// through errors.Is.
var (
	// ErrCredentialsNotFound means no credential file exists yet.
	ErrCredentialsNotFound = errors.New("no cached credentials")

	// ErrCorruptCredentials means the credential file exists but is not a valid record.
	ErrCorruptCredentials = errors.New("cached credentials are corrupt")

	// ErrCredentialsIO means the credential file could not be read or written.
	ErrCredentialsIO = errors.New("credential file I/O failed")

	// ErrPortBind means the loopback redirect listener could not bind.
	ErrPortBind = errors.New("failed to bind redirect listener")

	// ErrAuthorizationTimeout means no redirect arrived before the deadline.
	ErrAuthorizationTimeout = errors.New("timed out waiting for authorization")

	// ErrAuthorizationDenied means the provider redirected back with an error.
	ErrAuthorizationDenied = errors.New("authorization denied")

	// ErrCSRFMismatch means the redirect state did not match the one sent.
	ErrCSRFMismatch = errors.New("state parameter mismatch")

	// ErrMissingCodeOrState means the redirect lacked the code or state parameter.
	ErrMissingCodeOrState = errors.New("redirect is missing code or state")

	// ErrTokenEndpoint means the token endpoint failed or returned an unusable response.
	ErrTokenEndpoint = errors.New("token endpoint request failed")

	// ErrBrowserLaunch means the system browser could not be started.
	ErrBrowserLaunch = errors.New("failed to launch browser")

	// ErrRefreshFailed means a refresh-token grant failed. Never fatal to Authenticate.
	ErrRefreshFailed = errors.New("token refresh failed")

	// ErrUserInfo means the user-info lookup failed. Never fatal to Authenticate.
	ErrUserInfo = errors.New("user info request failed")
)

// TokenEndpointError describes a failed exchange or refresh request.
type TokenEndpointError struct {
	// StatusCode is the HTTP status, or 0 when no response was received.
	StatusCode int

	// ErrorCode is the RFC 6749 "error" field when the body carried one.
	ErrorCode string

	// Description is the "error_description" field or a truncated body snippet.
	Description string

	// Err is the underlying transport or decoding error.
	Err error
}

// Error implements the error interface.
func (e *TokenEndpointError) Error() string {
	msg := ErrTokenEndpoint.Error()
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s: status %d", msg, e.StatusCode)
	}
	if e.ErrorCode != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.ErrorCode)
	}
	if e.Description != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Description)
	}
	if e.Err != nil && e.ErrorCode == "" && e.Description == "" {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *TokenEndpointError) Unwrap() error {
	return e.Err
}

// Is allows errors.Is(err, ErrTokenEndpoint).
func (e *TokenEndpointError) Is(target error) bool {
	return target == ErrTokenEndpoint
}

// AuthorizationDeniedError carries the error the provider put on the redirect.
type AuthorizationDeniedError struct {
	ErrorCode   string
	Description string
}

// Error implements the error interface.
func (e *AuthorizationDeniedError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("%s: %s: %s", ErrAuthorizationDenied, e.ErrorCode, e.Description)
	}
	return fmt.Sprintf("%s: %s", ErrAuthorizationDenied, e.ErrorCode)
}

// Is allows errors.Is(err, ErrAuthorizationDenied).
func (e *AuthorizationDeniedError) Is(target error) bool {
	return target == ErrAuthorizationDenied
}

// RefreshError wraps the cause of a failed refresh-token grant.
type RefreshError struct {
	Err error
}

// Error implements the error interface.
func (e *RefreshError) Error() string {
	return fmt.Sprintf("%s: %v", ErrRefreshFailed, e.Err)
}

// Unwrap returns the underlying error.
func (e *RefreshError) Unwrap() error {
	return e.Err
}

// Is allows errors.Is(err, ErrRefreshFailed).
func (e *RefreshError) Is(target error) bool {
	return target == ErrRefreshFailed
}
