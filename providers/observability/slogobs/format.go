package slogobs

import (
	"os"
	"strings"
)

// Format represents the output format for logs.
type Format string

const (
	// FormatText is slog's key=value text format (default).
	// Example: time=2025-11-03T10:40:35Z level=DEBUG msg="span started" flow.execution.id=3f2a span=flow.run
	FormatText Format = "text"

	// FormatJSON is standard JSON format (for production/log aggregation).
	// Example: {"time":"2025-11-03T10:40:35Z","level":"DEBUG","msg":"span started","flow":{"execution.id":"3f2a"},"span":"flow.run"}
	FormatJSON Format = "json"
)

// ParseFormat parses a format string and returns the corresponding Format.
// If the format is invalid, it returns FormatText (default).
func ParseFormat(s string) Format {
	switch strings.TrimSpace(strings.ToLower(s)) {
	case "json":
		return FormatJSON
	default:
		return FormatText
	}
}

// GetFormatFromEnv retrieves the log format from environment variables.
// It checks AIGOFLOW_LOG_FORMAT first, then falls back to LOG_FORMAT.
func GetFormatFromEnv() Format {
	if format := os.Getenv("AIGOFLOW_LOG_FORMAT"); format != "" {
		return ParseFormat(format)
	}
	if format := os.Getenv("LOG_FORMAT"); format != "" {
		return ParseFormat(format)
	}
	return FormatText
}

// String returns the string representation of the Format.
func (f Format) String() string {
	return string(f)
}
