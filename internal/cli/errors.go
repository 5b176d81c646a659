package cli

import (
	"context"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	"aichat/internal/auth"
)

// ConnectionErrorType categorizes the type of connection error.
type ConnectionErrorType int

const (
	// ConnectionErrorUnknown indicates an unclassified connection error.
	ConnectionErrorUnknown ConnectionErrorType = iota
	// ConnectionErrorTLS indicates a TLS/certificate verification error.
	ConnectionErrorTLS
	// ConnectionErrorNetwork indicates a network connectivity error (e.g., refused, unreachable).
	ConnectionErrorNetwork
	// ConnectionErrorTimeout indicates a connection timeout.
	ConnectionErrorTimeout
	// ConnectionErrorDNS indicates a DNS resolution failure.
	ConnectionErrorDNS
)

// String returns a human-readable name for the connection error type.
func (t ConnectionErrorType) String() string {
	switch t {
	case ConnectionErrorTLS:
		return "TLS certificate error"
	case ConnectionErrorNetwork:
		return "Network error"
	case ConnectionErrorTimeout:
		return "Connection timeout"
	case ConnectionErrorDNS:
		return "DNS resolution error"
	default:
		return "Connection error"
	}
}

// ConnectionError describes a failed request to an OAuth provider endpoint.
type ConnectionError struct {
	// Endpoint is the URL that could not be reached, if known.
	Endpoint string
	// Type categorizes the connection error.
	Type ConnectionErrorType
	// Reason is the underlying error.
	Reason error
}

// Error implements error.
func (e *ConnectionError) Error() string {
	if e.Endpoint == "" {
		return fmt.Sprintf("%s: %v", e.Type, e.Reason)
	}
	return fmt.Sprintf("%s reaching %s: %v", e.Type, e.Endpoint, e.Reason)
}

// Unwrap returns the underlying error.
func (e *ConnectionError) Unwrap() error {
	return e.Reason
}

// ClassifyConnectionError returns a ConnectionError when err was caused by
// an HTTP request that never got a response. Other errors, including nil,
// yield nil.
func ClassifyConnectionError(err error) *ConnectionError {
	var urlErr *url.Error
	if !errors.As(err, &urlErr) {
		return nil
	}

	ce := &ConnectionError{Endpoint: redactEndpoint(urlErr.URL), Reason: urlErr.Err}

	var dnsErr *net.DNSError
	switch {
	case isTLSError(urlErr.Err):
		ce.Type = ConnectionErrorTLS
	case errors.As(urlErr.Err, &dnsErr):
		ce.Type = ConnectionErrorDNS
	case urlErr.Timeout():
		ce.Type = ConnectionErrorTimeout
	case isNetworkError(urlErr.Err.Error()):
		ce.Type = ConnectionErrorNetwork
	default:
		ce.Type = ConnectionErrorUnknown
	}
	return ce
}

// redactEndpoint drops the query so token request parameters never reach the terminal.
func redactEndpoint(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	u.RawQuery = ""
	u.User = nil
	return u.String()
}

// isTLSError checks if the error is related to TLS/certificate issues.
func isTLSError(err error) bool {
	var certErr x509.CertificateInvalidError
	var hostErr x509.HostnameError
	var unknownAuthErr x509.UnknownAuthorityError
	if errors.As(err, &certErr) || errors.As(err, &hostErr) || errors.As(err, &unknownAuthErr) {
		return true
	}

	errStr := err.Error()
	for _, keyword := range []string{"x509:", "certificate", "tls:", "TLS handshake"} {
		if strings.Contains(errStr, keyword) {
			return true
		}
	}
	return false
}

// isNetworkError checks if the error string indicates a network connectivity issue.
func isNetworkError(errStr string) bool {
	networkKeywords := []string{
		"connection refused",
		"connection reset",
		"network is unreachable",
		"no route to host",
		"dial tcp",
		"connect:",
	}

	for _, keyword := range networkKeywords {
		if strings.Contains(errStr, keyword) {
			return true
		}
	}
	return false
}

// AuthRequiredError indicates there are no usable credentials.
type AuthRequiredError struct {
	// Reason is the underlying error, if any.
	Reason error
}

// Error returns a user-friendly error message with actionable guidance.
func (e *AuthRequiredError) Error() string {
	reason := ""
	if e.Reason != nil {
		reason = fmt.Sprintf(": %v", e.Reason)
	}
	return fmt.Sprintf(`Authentication required%s

To authenticate, run:
  aichat auth login

To check current authentication status:
  aichat auth status`, reason)
}

// Unwrap returns the underlying error.
func (e *AuthRequiredError) Unwrap() error {
	return e.Reason
}

// Is allows errors.Is() to work with wrapped errors.
func (e *AuthRequiredError) Is(target error) bool {
	_, ok := target.(*AuthRequiredError)
	return ok
}

// AuthFailedError indicates an interactive login or forced refresh failed.
type AuthFailedError struct {
	// Reason is the underlying error.
	Reason error
}

// Error returns a user-friendly error message with actionable guidance.
func (e *AuthFailedError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Authentication failed: %v", e.Reason)

	if hint := failureHint(e.Reason); hint != "" {
		b.WriteString("\n\n")
		b.WriteString(hint)
	}

	b.WriteString(`

To retry authentication, run:
  aichat auth login`)
	return b.String()
}

// Unwrap returns the underlying error.
func (e *AuthFailedError) Unwrap() error {
	return e.Reason
}

// Is allows errors.Is() to work with wrapped errors.
func (e *AuthFailedError) Is(target error) bool {
	_, ok := target.(*AuthFailedError)
	return ok
}

func failureHint(err error) string {
	if ce := ClassifyConnectionError(err); ce != nil {
		switch ce.Type {
		case ConnectionErrorTLS:
			return "The OAuth provider's certificate could not be verified."
		case ConnectionErrorDNS:
			return "The OAuth provider's host name could not be resolved. Check your network and the endpoint URLs in config.yaml."
		case ConnectionErrorTimeout:
			return "The OAuth provider did not respond in time."
		default:
			return "The OAuth provider could not be reached. Check your network connection."
		}
	}

	switch {
	case errors.Is(err, auth.ErrPortBind):
		return "The local redirect port is in use. Set oauth.redirect_uri in config.yaml to a free port."
	case errors.Is(err, auth.ErrAuthorizationTimeout):
		return "The browser did not return to aichat in time. Use --timeout to wait longer."
	case errors.Is(err, auth.ErrBrowserLaunch):
		return "Use --no-browser to print the sign-in URL instead."
	case errors.Is(err, auth.ErrCSRFMismatch):
		return "The redirect did not belong to this login attempt and was rejected."
	case errors.Is(err, auth.ErrAuthorizationDenied):
		return "Access was not granted in the browser."
	}
	return ""
}

// ClassifyAuthError wraps err in the CLI error type that matches its cause.
// Cancellation and errors unrelated to authentication are returned unchanged.
func ClassifyAuthError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, &AuthRequiredError{}) || errors.Is(err, &AuthFailedError{}) {
		return err
	}

	switch {
	case errors.Is(err, auth.ErrCredentialsNotFound),
		errors.Is(err, auth.ErrCorruptCredentials):
		return &AuthRequiredError{Reason: err}
	case errors.Is(err, auth.ErrRefreshFailed):
		var endpointErr *auth.TokenEndpointError
		if errors.As(err, &endpointErr) && endpointErr.ErrorCode == "invalid_grant" {
			return &AuthRequiredError{Reason: err}
		}
		return &AuthFailedError{Reason: err}
	case errors.Is(err, auth.ErrPortBind),
		errors.Is(err, auth.ErrAuthorizationTimeout),
		errors.Is(err, auth.ErrAuthorizationDenied),
		errors.Is(err, auth.ErrCSRFMismatch),
		errors.Is(err, auth.ErrMissingCodeOrState),
		errors.Is(err, auth.ErrTokenEndpoint),
		errors.Is(err, auth.ErrBrowserLaunch):
		return &AuthFailedError{Reason: err}
	}
	return err
}
