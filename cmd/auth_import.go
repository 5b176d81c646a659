package cmd

import (
	"aichat/internal/cli"
	"aichat/internal/config"

	"github.com/spf13/cobra"
)

// Import-specific flags
var (
	importFile   string
	importClient string
)

// authImportSecretsCmd represents the auth import-secrets command
var authImportSecretsCmd = &cobra.Command{
	Use:   "import-secrets",
	Short: "Install an OAuth client secret",
	Long: `Install an OAuth client secret downloaded from the provider console.

The file must be a Google-format client_secret.json ("installed" or "web").
It is validated and copied to clients/<client>/client_secret.json inside the
configuration directory with owner-only permissions. oauth.client in
config.yaml selects which client is used for login.

Examples:
  aichat auth import-secrets --file ~/Downloads/client_secret.json
  aichat auth import-secrets --file secret.json --client work`,
	Args: cobra.NoArgs,
	RunE: runAuthImportSecrets,
}

func init() {
	authImportSecretsCmd.Flags().StringVarP(&importFile, "file", "f", "", "Path to client_secret.json")
	authImportSecretsCmd.Flags().StringVar(&importClient, "client", "", "Client name (default: oauth.client from config, gemini)")
	_ = authImportSecretsCmd.MarkFlagRequired("file")
}

func runAuthImportSecrets(cmd *cobra.Command, args []string) error {
	dir, cfg, err := loadSettings()
	if err != nil {
		return err
	}

	client := importClient
	if client == "" {
		client = cfg.OAuth.Client
	}

	dest, err := config.ImportClientSecret(dir, client, importFile)
	if err != nil {
		return err
	}
	authPrintf(cmd, "%s\n  %s\n", cli.Success("Imported client secret for "+client), dest)
	return nil
}
