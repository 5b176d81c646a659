package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"aichat/internal/cli"
	"aichat/pkg/logging"

	"github.com/spf13/cobra"
)

// Exit codes for CLI commands.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (command failed, invalid arguments).
	ExitCodeError = 1
	// ExitCodeAuthRequired indicates authentication is required but not available.
	ExitCodeAuthRequired = 2
	// ExitCodeAuthFailed indicates the OAuth flow failed.
	ExitCodeAuthFailed = 3
)

// Global flags
var (
	configDirFlag string
	debugFlag     bool
	logFormatFlag string
	quietFlag     bool
)

// rootCmd represents the base command for the aichat application.
var rootCmd = &cobra.Command{
	Use:   "aichat",
	Short: "Chat with AI models from the terminal",
	Long: `aichat talks to hosted AI models from your terminal.

Requests are authenticated either with a static API key (api_key in
config.yaml or AICHAT_API_KEY) or with an OAuth account login that runs
in your browser and is cached locally.`,
	SilenceUsage:      true,
	PersistentPreRunE: initLogging,
}

// SetVersion sets the version for the root command.
// It is called from the main package to inject the version at build time.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute runs the root command and exits with a semantic exit code on failure.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "aichat version %s\n" .Version}}`)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(getExitCode(err))
	}
}

// getExitCode determines the appropriate exit code based on the error type.
func getExitCode(err error) int {
	if err == nil {
		return ExitCodeSuccess
	}

	var authRequired *cli.AuthRequiredError
	if errors.As(err, &authRequired) {
		return ExitCodeAuthRequired
	}

	var authFailed *cli.AuthFailedError
	if errors.As(err, &authFailed) {
		return ExitCodeAuthFailed
	}

	return ExitCodeError
}

func initLogging(cmd *cobra.Command, args []string) error {
	level := logging.LevelWarn
	if debugFlag {
		level = logging.LevelDebug
	}

	var format logging.Format
	switch logFormatFlag {
	case "", string(logging.FormatText):
		format = logging.FormatText
	case string(logging.FormatJSON):
		format = logging.FormatJSON
	default:
		return fmt.Errorf("unsupported --log-format %q (use text or json)", logFormatFlag)
	}

	logging.Init(logging.Options{Level: level, Format: format, Output: cmd.ErrOrStderr()})
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDirFlag, "config-dir", "", "Configuration directory (env: AICHAT_CONFIG_DIR)")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFormatFlag, "log-format", "text", "Log format: text or json")
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "Suppress non-essential output")

	rootCmd.AddCommand(newVersionCmd())
}
