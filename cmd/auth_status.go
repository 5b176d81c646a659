package cmd

import (
	"errors"
	"fmt"

	"aichat/internal/auth"
	"aichat/internal/cli"
	"aichat/internal/config"
	"aichat/pkg/oauth"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

// authStatusCmd represents the auth status command
var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show authentication status",
	Long: `Show how aichat authenticates and the state of the cached login.

The provider is not contacted; expiry is computed from the cached record.`,
	Args: cobra.NoArgs,
	RunE: runAuthStatus,
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	dir, cfg, err := loadSettings()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if cfg.UsesStaticKey() {
		fmt.Fprintln(out, "Method:  static API key")
		fmt.Fprintf(out, "Key:     %s\n", oauth.NewRedactedToken(cfg.APIKey))
		return nil
	}

	store := newCredentialStore(dir)
	rec, err := store.Read()
	switch {
	case errors.Is(err, auth.ErrCredentialsNotFound):
		fmt.Fprintf(out, "Status:  %s\n", text.FgYellow.Sprint("Not authenticated"))
		fmt.Fprintln(out, "\nTo authenticate, run:")
		fmt.Fprintln(out, "  aichat auth login")
		return nil
	case errors.Is(err, auth.ErrCorruptCredentials):
		fmt.Fprintf(out, "Status:  %s\n", text.FgRed.Sprint("Cached credentials are unreadable"))
		fmt.Fprintf(out, "         %s\n", store.Path())
		fmt.Fprintln(out, "\nTo replace them, run:")
		fmt.Fprintln(out, "  aichat auth login --force")
		return nil
	case err != nil:
		return err
	}

	tbl := cli.NewKeyValueTable(out)
	tbl.AppendRow(table.Row{"Status", formatCredentialStatus(rec)})
	if who := identity(rec); who != "" {
		tbl.AppendRow(table.Row{"Identity", who})
	}
	tbl.AppendRow(table.Row{"Client", cfg.OAuth.Client})
	if rec.HasExpiry() {
		tbl.AppendRow(table.Row{"Expires", formatExpiry(rec.ExpiresAt(), timeNow())})
	} else {
		tbl.AppendRow(table.Row{"Expires", "never"})
	}
	tbl.AppendRow(table.Row{"Refresh token", yesNo(rec.CanRefresh())})
	tbl.AppendRow(table.Row{"Credentials", store.Path()})
	if _, err := config.LoadClientSecret(dir, cfg.OAuth.Client); err != nil {
		tbl.AppendRow(table.Row{"Client secret", text.FgYellow.Sprint("missing")})
	}
	tbl.Render()
	return nil
}

// formatCredentialStatus describes whether the cached token can be used.
func formatCredentialStatus(rec *auth.CredentialRecord) string {
	switch {
	case !rec.IsExpired(timeNow()):
		return text.FgGreen.Sprint("Authenticated")
	case rec.CanRefresh():
		return text.FgYellow.Sprint("Expired (will refresh)")
	default:
		return text.FgRed.Sprint("Expired")
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
