package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"regexp"

	"aichat/internal/fileutil"
	"aichat/pkg/logging"

	"golang.org/x/oauth2/google"
)

var clientNamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,63}$`)

// ErrClientSecretNotFound is returned when no client secret exists for a client.
var ErrClientSecretNotFound = errors.New("client secret not found")

// ClientSecret is the subset of a Google client_secret.json used for login.
type ClientSecret struct {
	ClientID     string
	ClientSecret string
	AuthURL      string
	TokenURL     string
	RedirectURL  string
	Scopes       []string
}

// ValidateClientName rejects names that could escape the clients directory.
func ValidateClientName(name string) error {
	if !clientNamePattern.MatchString(name) || name == "." || name == ".." {
		return fmt.Errorf("client name %q must match %s", name, clientNamePattern.String())
	}
	return nil
}

// ParseClientSecret parses a Google-format client secret document. Both the
// "installed" and "web" layouts are accepted. A top-level "scopes" array, if
// present, is returned as the client's default scopes.
func ParseClientSecret(data []byte) (*ClientSecret, error) {
	var extra struct {
		Scopes []string `json:"scopes"`
	}
	if err := json.Unmarshal(data, &extra); err != nil {
		return nil, fmt.Errorf("client secret is not valid JSON: %w", err)
	}

	cfg, err := google.ConfigFromJSON(data, extra.Scopes...)
	if err != nil {
		return nil, err
	}
	if cfg.ClientID == "" {
		return nil, errors.New("client secret has no client_id")
	}

	return &ClientSecret{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		AuthURL:      cfg.Endpoint.AuthURL,
		TokenURL:     cfg.Endpoint.TokenURL,
		RedirectURL:  cfg.RedirectURL,
		Scopes:       cfg.Scopes,
	}, nil
}

// LoadClientSecret reads clients/<client>/client_secret.json from configDir.
func LoadClientSecret(configDir, client string) (*ClientSecret, error) {
	if err := ValidateClientName(client); err != nil {
		return nil, err
	}

	path := ClientSecretPath(configDir, client)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrClientSecretNotFound, path)
		}
		return nil, fmt.Errorf("failed to read client secret %s: %w", path, err)
	}

	secret, err := ParseClientSecret(data)
	if err != nil {
		return nil, &ConfigurationError{
			FilePath: path,
			Message:  "invalid client secret",
			Details:  err.Error(),
		}
	}
	logging.Debug("ConfigLoader", "Loaded client secret for %s from %s", client, path)
	return secret, nil
}

// ImportClientSecret validates the client secret at srcPath and installs it
// as clients/<client>/client_secret.json under configDir with owner-only
// permissions. It returns the destination path.
func ImportClientSecret(configDir, client, srcPath string) (string, error) {
	if err := ValidateClientName(client); err != nil {
		return "", err
	}

	data, err := os.ReadFile(srcPath)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", srcPath, err)
	}
	if _, err := ParseClientSecret(data); err != nil {
		return "", &ConfigurationError{
			FilePath:    srcPath,
			Message:     "invalid client secret",
			Details:     err.Error(),
			Suggestions: []string{"Download the OAuth client JSON for a Desktop or Web application from the provider console"},
		}
	}

	dest := ClientSecretPath(configDir, client)
	if err := fileutil.WriteFileAtomic(dest, data, fileutil.PrivateFilePerm); err != nil {
		return "", fmt.Errorf("failed to install client secret: %w", err)
	}
	logging.Info("ConfigLoader", "Imported client secret for %s to %s", client, dest)
	return dest, nil
}
