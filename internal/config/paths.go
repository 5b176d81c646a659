package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// EnvConfigDir overrides the configuration directory.
	EnvConfigDir = "AICHAT_CONFIG_DIR"

	// EnvAPIKey overrides api_key from config.yaml.
	EnvAPIKey = "AICHAT_API_KEY"

	appDirName           = "aichat"
	configFileName       = "config.yaml"
	credentialsFileName  = "oauth_creds.json"
	clientsDirName       = "clients"
	clientSecretFileName = "client_secret.json"
)

// Overridable for tests.
var (
	getenv        = os.Getenv
	userConfigDir = os.UserConfigDir
)

// DefaultConfigDir resolves the configuration directory: $AICHAT_CONFIG_DIR,
// then $XDG_CONFIG_HOME/aichat, then the platform user config dir.
func DefaultConfigDir() (string, error) {
	if dir := getenv(EnvConfigDir); dir != "" {
		return dir, nil
	}
	if xdg := getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appDirName), nil
	}
	base, err := userConfigDir()
	if err != nil {
		return "", fmt.Errorf("could not determine user config directory: %w", err)
	}
	return filepath.Join(base, appDirName), nil
}

// ConfigFilePath returns the path of config.yaml inside configDir.
func ConfigFilePath(configDir string) string {
	return filepath.Join(configDir, configFileName)
}

// CredentialsPath returns the path of the cached OAuth credential file.
func CredentialsPath(configDir string) string {
	return filepath.Join(configDir, credentialsFileName)
}

// ClientSecretPath returns where the client secret for the named client lives.
func ClientSecretPath(configDir, client string) string {
	return filepath.Join(configDir, clientsDirName, client, clientSecretFileName)
}
