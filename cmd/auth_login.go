package cmd

import (
	"time"

	"aichat/internal/auth"
	"aichat/internal/cli"

	"github.com/spf13/cobra"
)

// Login-specific flags
var (
	loginForce     bool
	loginNoBrowser bool
	loginTimeout   time.Duration
)

// timeNow is replaced in tests.
var timeNow = time.Now

// authLoginCmd represents the auth login command
var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in with OAuth",
	Long: `Sign in to the model provider with OAuth.

A browser window opens on the provider's consent page. After you approve,
the browser is redirected to a temporary listener on this machine and the
tokens are cached for later runs. A valid cached login is reused unless
--force is given.

Examples:
  aichat auth login                    # Sign in if needed
  aichat auth login --force            # Always run the browser login
  aichat auth login --no-browser       # Print the URL to open by hand
  aichat auth login --timeout 10m      # Wait longer for the browser`,
	Args: cobra.NoArgs,
	RunE: runAuthLogin,
}

func init() {
	authLoginCmd.Flags().BoolVar(&loginForce, "force", false, "Sign in again even if a valid login is cached")
	authLoginCmd.Flags().BoolVar(&loginNoBrowser, "no-browser", false, "Do not launch a browser; print the sign-in URL instead")
	authLoginCmd.Flags().DurationVar(&loginTimeout, "timeout", 0, "How long to wait for the browser redirect (default from config, 5m)")
}

func runAuthLogin(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	dir, cfg, err := loadSettings()
	if err != nil {
		return err
	}
	if cfg.UsesStaticKey() {
		authPrintln(cmd, "A static API key is configured; OAuth login is not needed.")
		return nil
	}

	var sp *cli.Spinner
	prompt := promptPrinter(cmd.ErrOrStderr())
	opts := []auth.Option{
		auth.WithAuthPromptHandler(func(p auth.AuthPrompt) {
			prompt(p)
			sp = cli.StartSpinner(cmd.ErrOrStderr(), "Waiting for authorization in the browser...", quietFlag)
		}),
	}
	if loginNoBrowser {
		opts = append(opts, auth.WithOpenBrowser(false))
	}
	if loginTimeout > 0 {
		opts = append(opts, auth.WithCallbackTimeout(loginTimeout))
	}

	a, err := buildOAuthAuthenticator(ctx, cmd, dir, cfg, opts...)
	if err != nil {
		return err
	}

	var rec *auth.CredentialRecord
	if loginForce {
		rec, err = a.Login(ctx)
	} else if _, err = a.Authenticate(ctx); err == nil {
		rec, err = a.Status()
	}
	if err != nil {
		sp.Stop(cli.Failure("Login failed"))
		return cli.ClassifyAuthError(err)
	}
	sp.Stop("")

	if who := identity(rec); who != "" {
		authPrintf(cmd, "%s\n", cli.Success("Authenticated as "+who))
	} else {
		authPrintln(cmd, cli.Success("Authenticated."))
	}
	if rec.HasExpiry() {
		authPrintf(cmd, "  Token expires %s\n", formatExpiry(rec.ExpiresAt(), timeNow()))
	}
	return nil
}
