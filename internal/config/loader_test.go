package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0644))
}

func withEnv(t *testing.T, env map[string]string) {
	t.Helper()
	original := getenv
	getenv = func(key string) string { return env[key] }
	t.Cleanup(func() { getenv = original })
}

func TestLoadConfig_DefaultOnly(t *testing.T) {
	withEnv(t, nil)
	tempDir := t.TempDir()

	cfg, err := LoadConfig(tempDir)
	require.NoError(t, err)

	assert.Equal(t, GetDefaultConfig(), cfg)
	assert.False(t, cfg.UsesStaticKey())
	assert.True(t, cfg.OAuth.BrowserEnabled())
}

func TestLoadConfig_OAuthSettings(t *testing.T) {
	withEnv(t, nil)
	tempDir := t.TempDir()
	writeConfigFile(t, tempDir, `
model: gemini-pro
oauth:
  client: work
  redirect_uri: http://127.0.0.1:8085/callback
  scopes:
    - openid
    - email
  issuer: https://accounts.google.com
  callback_timeout: 90s
  open_browser: false
`)

	cfg, err := LoadConfig(tempDir)
	require.NoError(t, err)

	assert.Equal(t, "work", cfg.OAuth.Client)
	assert.Equal(t, "http://127.0.0.1:8085/callback", cfg.OAuth.RedirectURI)
	assert.Equal(t, []string{"openid", "email"}, cfg.OAuth.Scopes)
	assert.Equal(t, "https://accounts.google.com", cfg.OAuth.Issuer)
	assert.Equal(t, 90*time.Second, cfg.OAuth.CallbackTimeout)
	assert.False(t, cfg.OAuth.BrowserEnabled())
}

func TestLoadConfig_PartialOAuthGetsDefaults(t *testing.T) {
	withEnv(t, nil)
	tempDir := t.TempDir()
	writeConfigFile(t, tempDir, "oauth:\n  scopes: [openid]\n")

	cfg, err := LoadConfig(tempDir)
	require.NoError(t, err)

	assert.Equal(t, DefaultOAuthClient, cfg.OAuth.Client)
	assert.Equal(t, DefaultRedirectURI, cfg.OAuth.RedirectURI)
	assert.Equal(t, DefaultCallbackTimeout, cfg.OAuth.CallbackTimeout)
}

func TestLoadConfig_APIKey(t *testing.T) {
	tempDir := t.TempDir()
	writeConfigFile(t, tempDir, "api_key: from-file\n")

	t.Run("from file", func(t *testing.T) {
		withEnv(t, nil)
		cfg, err := LoadConfig(tempDir)
		require.NoError(t, err)
		assert.Equal(t, "from-file", cfg.APIKey)
		assert.True(t, cfg.UsesStaticKey())
	})

	t.Run("environment overrides file", func(t *testing.T) {
		withEnv(t, map[string]string{EnvAPIKey: "from-env"})
		cfg, err := LoadConfig(tempDir)
		require.NoError(t, err)
		assert.Equal(t, "from-env", cfg.APIKey)
	})
}

func TestLoadConfig_MalformedYAML(t *testing.T) {
	withEnv(t, nil)
	tempDir := t.TempDir()
	writeConfigFile(t, tempDir, "oauth: [unterminated\n")

	_, err := LoadConfig(tempDir)
	require.Error(t, err)

	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, filepath.Join(tempDir, "config.yaml"), cfgErr.FilePath)
}

func TestLoadConfig_InvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantMsg string
	}{
		{
			name:    "non loopback redirect",
			content: "oauth:\n  redirect_uri: http://example.com:37387/\n",
			wantMsg: "oauth.redirect_uri",
		},
		{
			name:    "https redirect",
			content: "oauth:\n  redirect_uri: https://localhost:37387/\n",
			wantMsg: "oauth.redirect_uri",
		},
		{
			name:    "path traversal client",
			content: "oauth:\n  client: ../../etc\n",
			wantMsg: "oauth.client",
		},
		{
			name:    "relative token url",
			content: "oauth:\n  token_url: /token\n",
			wantMsg: "oauth.token_url",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withEnv(t, nil)
			tempDir := t.TempDir()
			writeConfigFile(t, tempDir, tt.content)

			_, err := LoadConfig(tempDir)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestDefaultConfigDir(t *testing.T) {
	originalUserConfigDir := userConfigDir
	userConfigDir = func() (string, error) { return "/home/user/.config", nil }
	t.Cleanup(func() { userConfigDir = originalUserConfigDir })

	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{
			name: "explicit override",
			env:  map[string]string{EnvConfigDir: "/custom/dir", "XDG_CONFIG_HOME": "/xdg"},
			want: "/custom/dir",
		},
		{
			name: "xdg config home",
			env:  map[string]string{"XDG_CONFIG_HOME": "/xdg"},
			want: filepath.Join("/xdg", "aichat"),
		},
		{
			name: "platform default",
			env:  nil,
			want: filepath.Join("/home/user/.config", "aichat"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withEnv(t, tt.env)
			dir, err := DefaultConfigDir()
			require.NoError(t, err)
			assert.Equal(t, tt.want, dir)
		})
	}
}

func TestPaths(t *testing.T) {
	assert.Equal(t, filepath.Join("/cfg", "oauth_creds.json"), CredentialsPath("/cfg"))
	assert.Equal(t, filepath.Join("/cfg", "config.yaml"), ConfigFilePath("/cfg"))
	assert.Equal(t, filepath.Join("/cfg", "clients", "gemini", "client_secret.json"), ClientSecretPath("/cfg", "gemini"))
}

func TestConfigurationError_DetailedError(t *testing.T) {
	err := &ConfigurationError{
		FilePath:    "/cfg/config.yaml",
		Message:     "invalid YAML",
		Details:     "line 2",
		Suggestions: []string{"fix it"},
	}

	assert.Equal(t, "configuration error in /cfg/config.yaml: invalid YAML: line 2", err.Error())
	detailed := err.DetailedError()
	assert.Contains(t, detailed, "File: /cfg/config.yaml")
	assert.Contains(t, detailed, "- fix it")
}
