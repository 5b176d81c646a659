package config

import (
	"fmt"
	"strings"
)

// ConfigurationError describes a problem with config.yaml or a client secret file.
type ConfigurationError struct {
	FilePath    string   // Full path to the file that caused the error
	Message     string   // Human-readable error message
	Details     string   // Additional details about the error
	Suggestions []string // Actionable suggestions to fix the error
}

// Error implements the error interface
func (ce *ConfigurationError) Error() string {
	if ce.FilePath == "" {
		return "configuration error: " + ce.Message
	}
	if ce.Details == "" {
		return fmt.Sprintf("configuration error in %s: %s", ce.FilePath, ce.Message)
	}
	return fmt.Sprintf("configuration error in %s: %s: %s", ce.FilePath, ce.Message, ce.Details)
}

// DetailedError returns a multi-line message including suggestions.
func (ce *ConfigurationError) DetailedError() string {
	var parts []string

	parts = append(parts, "Configuration Error: "+ce.Message)
	if ce.FilePath != "" {
		parts = append(parts, fmt.Sprintf("  File: %s", ce.FilePath))
	}
	if ce.Details != "" {
		parts = append(parts, fmt.Sprintf("  Details: %s", ce.Details))
	}

	if len(ce.Suggestions) > 0 {
		parts = append(parts, "  Suggestions:")
		for _, suggestion := range ce.Suggestions {
			parts = append(parts, fmt.Sprintf("    - %s", suggestion))
		}
	}

	return strings.Join(parts, "\n")
}
