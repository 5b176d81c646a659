package oauth

import (
	"log/slog"
	"net/url"
	"strings"
)

// RedactedValue replaces secret values in redacted output.
const RedactedValue = "REDACTED"

// sensitiveParams lists query parameters that must never be shown or logged.
var sensitiveParams = map[string]struct{}{
	"client_id":      {},
	"client_secret":  {},
	"code":           {},
	"code_challenge": {},
	"code_verifier":  {},
	"state":          {},
	"access_token":   {},
	"refresh_token":  {},
	"id_token":       {},
}

// RedactURL returns rawURL with every sensitive query parameter value
// replaced by RedactedValue. Non-sensitive parameters are kept. Input that
// cannot be parsed as a URL is replaced wholesale so that nothing leaks.
func RedactURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return RedactedValue
	}
	if u.User != nil {
		u.User = url.User(RedactedValue)
	}
	if u.RawQuery == "" {
		return u.String()
	}

	query := u.Query()
	for key, values := range query {
		if !IsSensitiveParam(key) {
			continue
		}
		for i := range values {
			values[i] = RedactedValue
		}
	}
	u.RawQuery = query.Encode()
	return u.String()
}

// IsSensitiveParam reports whether a query or form parameter carries a secret.
func IsSensitiveParam(name string) bool {
	_, ok := sensitiveParams[strings.ToLower(name)]
	return ok
}

// RedactedToken wraps a sensitive token string to prevent accidental logging.
//
// The wrapped value is hidden from fmt verbs, slog attributes and JSON
// encoding. Only Value returns the real token.
//
//	token := oauth.NewRedactedToken("secret-token-value")
//	fmt.Println(token)           // prints: [REDACTED]
//	actualValue := token.Value() // returns: "secret-token-value"
type RedactedToken struct {
	value string
}

// NewRedactedToken creates a new RedactedToken wrapping the given value.
func NewRedactedToken(value string) RedactedToken {
	return RedactedToken{value: value}
}

// Value returns the actual token value. Never log the result of this method.
func (t RedactedToken) Value() string {
	return t.value
}

// String implements fmt.Stringer.
func (t RedactedToken) String() string {
	return "[REDACTED]"
}

// GoString implements fmt.GoStringer for %#v formatting.
func (t RedactedToken) GoString() string {
	return "oauth.RedactedToken{[REDACTED]}"
}

// LogValue implements slog.LogValuer.
func (t RedactedToken) LogValue() slog.Value {
	return slog.StringValue("[REDACTED]")
}

// IsEmpty returns true if the token value is empty.
func (t RedactedToken) IsEmpty() bool {
	return t.value == ""
}

// MarshalText implements encoding.TextMarshaler.
func (t RedactedToken) MarshalText() ([]byte, error) {
	return []byte("[REDACTED]"), nil
}

// MarshalJSON implements json.Marshaler.
func (t RedactedToken) MarshalJSON() ([]byte, error) {
	return []byte(`"[REDACTED]"`), nil
}
