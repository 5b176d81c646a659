package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"aichat/pkg/logging"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads config.yaml from configDir. A missing file yields the
// defaults. A malformed file is an error.
func LoadConfig(configDir string) (AichatConfig, error) {
	configFilePath := ConfigFilePath(configDir)
	config := GetDefaultConfig()

	data, err := os.ReadFile(configFilePath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logging.Info("ConfigLoader", "Error loading config.yaml from %s: %s", configFilePath, err)
			return AichatConfig{}, err
		}
		logging.Debug("ConfigLoader", "No config.yaml found at %s, using defaults", configFilePath)
	} else {
		if err := yaml.Unmarshal(data, &config); err != nil {
			return AichatConfig{}, &ConfigurationError{
				FilePath: configFilePath,
				Message:  "invalid YAML",
				Details:  err.Error(),
			}
		}
		logging.Debug("ConfigLoader", "Loaded configuration from %s", configFilePath)
	}

	if key := getenv(EnvAPIKey); key != "" {
		config.APIKey = key
	}

	applyDefaults(&config)

	if err := Validate(config); err != nil {
		var cfgErr *ConfigurationError
		if errors.As(err, &cfgErr) {
			cfgErr.FilePath = configFilePath
		}
		return AichatConfig{}, err
	}
	return config, nil
}

// Validate checks the settings that would otherwise fail late in a login.
func Validate(cfg AichatConfig) error {
	if err := ValidateClientName(cfg.OAuth.Client); err != nil {
		return &ConfigurationError{
			Message:     fmt.Sprintf("invalid oauth.client: %v", err),
			Suggestions: []string{"Use a plain directory name such as \"gemini\""},
		}
	}

	for field, raw := range map[string]string{
		"oauth.issuer":       cfg.OAuth.Issuer,
		"oauth.auth_url":     cfg.OAuth.AuthURL,
		"oauth.token_url":    cfg.OAuth.TokenURL,
		"oauth.userinfo_url": cfg.OAuth.UserInfoURL,
	} {
		if raw == "" {
			continue
		}
		u, err := url.Parse(raw)
		if err != nil || u.Host == "" || (u.Scheme != "https" && u.Scheme != "http") {
			return &ConfigurationError{
				Message: fmt.Sprintf("%s must be an absolute http(s) URL, got %q", field, raw),
			}
		}
	}

	redirect, err := url.Parse(cfg.OAuth.RedirectURI)
	if err != nil || redirect.Scheme != "http" || !isLoopbackHost(redirect.Hostname()) {
		return &ConfigurationError{
			Message:     fmt.Sprintf("oauth.redirect_uri must be an http URL on a loopback host, got %q", cfg.OAuth.RedirectURI),
			Suggestions: []string{"Use " + DefaultRedirectURI},
		}
	}
	return nil
}

func isLoopbackHost(host string) bool {
	switch strings.ToLower(host) {
	case "localhost", "127.0.0.1", "::1":
		return true
	}
	return false
}
