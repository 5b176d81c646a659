package config

import "time"

// AichatConfig is the top-level configuration structure read from config.yaml.
//
// Only the settings that affect authentication live here. Other aichat
// settings in the same file are ignored by this package.
type AichatConfig struct {
	// APIKey selects static key authentication when non-empty.
	APIKey string `yaml:"api_key,omitempty"`

	OAuth OAuthSettings `yaml:"oauth"`
}

// OAuthSettings configures the interactive OAuth login.
type OAuthSettings struct {
	Client          string        `yaml:"client,omitempty"`           // Name under clients/ holding client_secret.json (default: gemini)
	RedirectURI     string        `yaml:"redirect_uri,omitempty"`     // Loopback redirect URI (default: http://localhost:37387/)
	Scopes          []string      `yaml:"scopes,omitempty"`           // Overrides scopes from the client secret and the defaults
	Issuer          string        `yaml:"issuer,omitempty"`           // Optional OIDC issuer used for endpoint discovery
	AuthURL         string        `yaml:"auth_url,omitempty"`         // Explicit authorization endpoint
	TokenURL        string        `yaml:"token_url,omitempty"`        // Explicit token endpoint
	UserInfoURL     string        `yaml:"userinfo_url,omitempty"`     // Explicit userinfo endpoint
	CallbackTimeout time.Duration `yaml:"callback_timeout,omitempty"` // How long to wait for the browser redirect (default: 5m)
	OpenBrowser     *bool         `yaml:"open_browser,omitempty"`     // Launch the system browser (default: true)
}

// UsesStaticKey reports whether the static key authenticator should be used.
func (c AichatConfig) UsesStaticKey() bool {
	return c.APIKey != ""
}

// BrowserEnabled reports whether the login flow should launch a browser.
func (s OAuthSettings) BrowserEnabled() bool {
	return s.OpenBrowser == nil || *s.OpenBrowser
}
