package config

import "time"

const (
	// DefaultOAuthClient is the client directory used when oauth.client is unset.
	DefaultOAuthClient = "gemini"

	// DefaultRedirectURI is the loopback redirect registered for the default client.
	DefaultRedirectURI = "http://localhost:37387/"

	// DefaultCallbackTimeout bounds the wait for the browser redirect.
	DefaultCallbackTimeout = 5 * time.Minute
)

// GetDefaultConfig returns the configuration used when config.yaml is absent.
func GetDefaultConfig() AichatConfig {
	return AichatConfig{
		OAuth: OAuthSettings{
			Client:          DefaultOAuthClient,
			RedirectURI:     DefaultRedirectURI,
			CallbackTimeout: DefaultCallbackTimeout,
		},
	}
}

// applyDefaults fills unset fields after config.yaml has been decoded.
func applyDefaults(cfg *AichatConfig) {
	if cfg.OAuth.Client == "" {
		cfg.OAuth.Client = DefaultOAuthClient
	}
	if cfg.OAuth.RedirectURI == "" {
		cfg.OAuth.RedirectURI = DefaultRedirectURI
	}
	if cfg.OAuth.CallbackTimeout <= 0 {
		cfg.OAuth.CallbackTimeout = DefaultCallbackTimeout
	}
}
