package auth

import (
	"errors"
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
)

// BrowserOpener opens a URL for the user. OpenBrowser is the default.
type BrowserOpener func(url string) error

// browserLauncher starts the platform command. Replaced in tests.
var browserLauncher = func(cmd *exec.Cmd) error {
	return cmd.Start()
}

// OpenBrowser opens the specified URL in the default web browser.
// It supports Linux, macOS, and Windows. Only http and https URLs are
// accepted. Failures match ErrBrowserLaunch.
func OpenBrowser(rawURL string) error {
	if rawURL == "" {
		return fmt.Errorf("%w: URL cannot be empty", ErrBrowserLaunch)
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: invalid URL: %w", ErrBrowserLaunch, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: invalid URL scheme %q", ErrBrowserLaunch, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: invalid URL: missing host", ErrBrowserLaunch)
	}

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "linux", "freebsd", "openbsd", "netbsd":
		cmd = exec.Command("xdg-open", rawURL)
	case "darwin":
		cmd = exec.Command("open", rawURL)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", rawURL)
	default:
		return fmt.Errorf("%w: unsupported platform: %s", ErrBrowserLaunch, runtime.GOOS)
	}

	// The browser keeps running after this returns.
	if err := browserLauncher(cmd); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return fmt.Errorf("%w: %s not found: %w", ErrBrowserLaunch, cmd.Path, err)
		}
		return fmt.Errorf("%w: %w", ErrBrowserLaunch, err)
	}
	return nil
}
