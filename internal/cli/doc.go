// Package cli holds the pieces shared by the aichat commands: typed errors
// that carry actionable guidance and map to exit codes, the go-pretty table
// style, and the spinner shown while a command waits on the network or the
// browser.
//
// # Errors
//
// ClassifyAuthError turns errors from internal/auth into one of:
//   - AuthRequiredError: no usable credentials, the user must log in
//   - AuthFailedError: an interactive login or a forced refresh failed
//
// Both implement Is so callers can test with errors.Is against a zero value.
// AuthFailedError also explains network failures using ClassifyConnectionError.
package cli
