// Package logging provides the process-wide structured logger for aichat.
//
// The package is a thin layer over log/slog. Init installs a text or JSON
// handler as the slog default, so code that logs through an injected
// *slog.Logger and code that uses the subsystem helpers below end up in the
// same stream.
//
// # Usage
//
//	logging.InitForCLI(logging.LevelInfo, os.Stderr)
//
//	logging.Info("Config", "Loaded configuration from %s", path)
//	logging.Debug("Auth", "Using client %s", clientName)
//	logging.Warn("Auth", "Credential file is corrupt, starting a new login")
//	logging.Error("Auth", err, "Token refresh failed")
//
// Every helper adds a "subsystem" attribute. Current subsystems:
//
//   - Config: configuration and client secret loading
//   - Auth: authentication commands
//   - CLI: command dispatch
//
// Secrets are never passed to this package. URLs go through
// oauth.RedactURL and tokens are wrapped in oauth.RedactedToken first.
package logging
