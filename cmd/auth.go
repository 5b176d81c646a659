package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"aichat/internal/auth"
	"aichat/internal/cli"

	"github.com/spf13/cobra"
)

// authCmd represents the auth command group
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage authentication for aichat",
	Long: `Manage the credentials aichat uses to call the model API.

When no API key is configured, aichat signs in with OAuth: your browser
opens the provider's consent page and the resulting tokens are cached in
oauth_creds.json inside the configuration directory. Expired tokens are
refreshed automatically.

Examples:
  aichat auth login                    # Sign in (reuses a valid cached login)
  aichat auth login --force            # Sign in again even if a login is cached
  aichat auth login --no-browser       # Print the sign-in URL instead of opening it
  aichat auth status                   # Show the cached login
  aichat auth token                    # Print a usable access token
  aichat auth refresh                  # Force a token refresh
  aichat auth logout                   # Delete the cached login
  aichat auth import-secrets --file client_secret.json --client gemini`,
}

// authLogoutCmd represents the auth logout command
var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Delete cached OAuth credentials",
	Long: `Delete the cached OAuth credentials.

The next command that needs the API will start a new browser login.

Examples:
  aichat auth logout                   # Asks for confirmation
  aichat auth logout --yes             # No confirmation`,
	Args: cobra.NoArgs,
	RunE: runAuthLogout,
}

// authRefreshCmd represents the auth refresh command
var authRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Force token refresh",
	Long: `Force a refresh of the cached access token.

Unlike normal requests, which fall back to the cached token when a refresh
fails, this command reports the failure.`,
	Args: cobra.NoArgs,
	RunE: runAuthRefresh,
}

// authTokenCmd represents the auth token command
var authTokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Print a usable access token",
	Long: `Print a credential for the model API on stdout.

With an API key configured the key is printed. Otherwise the cached OAuth
token is refreshed or a browser login is started as needed.

Examples:
  curl -H "Authorization: Bearer $(aichat auth token)" ...`,
	Args: cobra.NoArgs,
	RunE: runAuthToken,
}

// Logout-specific flags
var logoutYes bool

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authLogoutCmd)
	authCmd.AddCommand(authStatusCmd)
	authCmd.AddCommand(authRefreshCmd)
	authCmd.AddCommand(authTokenCmd)
	authCmd.AddCommand(authImportSecretsCmd)

	authLogoutCmd.Flags().BoolVarP(&logoutYes, "yes", "y", false, "Skip confirmation prompt")
}

func runAuthLogout(cmd *cobra.Command, args []string) error {
	dir, err := resolveConfigDir()
	if err != nil {
		return err
	}
	store := newCredentialStore(dir)

	rec, err := store.Read()
	switch {
	case errors.Is(err, auth.ErrCredentialsNotFound):
		authPrintln(cmd, "No stored credentials to clear.")
		return nil
	case err != nil && !errors.Is(err, auth.ErrCorruptCredentials):
		return err
	}

	if !logoutYes {
		who := "the cached login"
		if rec != nil && identity(rec) != "" {
			who = identity(rec)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Remove credentials for %s from %s? [y/N]: ", who, store.Path())

		response, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && response == "" {
			return fmt.Errorf("failed to read response: %w", err)
		}
		response = strings.TrimSpace(strings.ToLower(response))
		if response != "y" && response != "yes" {
			fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
			return nil
		}
	}

	if err := store.Clear(); err != nil {
		return fmt.Errorf("failed to logout: %w", err)
	}
	authPrintln(cmd, cli.Success("Logged out."))
	return nil
}

func runAuthRefresh(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	dir, cfg, err := loadSettings()
	if err != nil {
		return err
	}
	if cfg.UsesStaticKey() {
		authPrintln(cmd, "A static API key is configured; there is no token to refresh.")
		return nil
	}

	a, err := buildOAuthAuthenticator(ctx, cmd, dir, cfg)
	if err != nil {
		return err
	}

	sp := cli.StartSpinner(cmd.ErrOrStderr(), "Refreshing access token...", quietFlag)
	rec, err := a.Refresh(ctx)
	if err != nil {
		sp.Stop(cli.Failure("Token refresh failed"))
		return cli.ClassifyAuthError(err)
	}
	sp.Stop("")

	if rec.HasExpiry() {
		authPrintf(cmd, "%s (expires %s)\n", cli.Success("Token refreshed."), formatExpiry(rec.ExpiresAt(), timeNow()))
	} else {
		authPrintln(cmd, cli.Success("Token refreshed."))
	}
	return nil
}

func runAuthToken(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	dir, cfg, err := loadSettings()
	if err != nil {
		return err
	}
	a, err := buildAuthenticator(ctx, cmd, dir, cfg)
	if err != nil {
		return err
	}

	token, err := a.Authenticate(ctx)
	if err != nil {
		return cli.ClassifyAuthError(err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
