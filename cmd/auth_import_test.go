package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"aichat/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthImportSecrets(t *testing.T) {
	p := newTestProvider(t)
	dir := t.TempDir()
	src := filepath.Join(t.TempDir(), "client_secret.json")
	require.NoError(t, os.WriteFile(src, []byte(p.clientSecretJSON()), 0644))

	res := executeCommand(t, "", "auth", "import-secrets", "--file", src, "--client", "work", "--config-dir", dir)
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "Imported client secret for work")

	dest := config.ClientSecretPath(dir, "work")
	info, err := os.Stat(dest)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	secret, err := config.LoadClientSecret(dir, "work")
	require.NoError(t, err)
	assert.Equal(t, "cli-client-id", secret.ClientID)
}

func TestAuthImportSecrets_DefaultClient(t *testing.T) {
	p := newTestProvider(t)
	dir := t.TempDir()
	src := filepath.Join(t.TempDir(), "client_secret.json")
	require.NoError(t, os.WriteFile(src, []byte(p.clientSecretJSON()), 0600))

	res := executeCommand(t, "", "auth", "import-secrets", "-f", src, "--config-dir", dir)
	require.NoError(t, res.err)
	assert.FileExists(t, config.ClientSecretPath(dir, config.DefaultOAuthClient))
}

func TestAuthImportSecrets_Rejects(t *testing.T) {
	dir := t.TempDir()

	t.Run("invalid json", func(t *testing.T) {
		src := filepath.Join(t.TempDir(), "bad.json")
		require.NoError(t, os.WriteFile(src, []byte(`{"something":"else"}`), 0600))

		res := executeCommand(t, "", "auth", "import-secrets", "--file", src, "--config-dir", dir)
		require.Error(t, res.err)
		var cfgErr *config.ConfigurationError
		assert.ErrorAs(t, res.err, &cfgErr)
	})

	t.Run("unsafe client name", func(t *testing.T) {
		res := executeCommand(t, "", "auth", "import-secrets", "--file", "x.json", "--client", "../escape", "--config-dir", dir)
		require.Error(t, res.err)
		assert.NoDirExists(t, filepath.Join(dir, "escape"))
	})

	t.Run("file flag is required", func(t *testing.T) {
		res := executeCommand(t, "", "auth", "import-secrets", "--config-dir", dir)
		require.Error(t, res.err)
	})
}
