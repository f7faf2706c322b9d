package slogobs

import (
	"log/slog"
	"os"
	"strings"
)

// LevelTrace sits below DEBUG and is filtered out unless explicitly enabled.
const LevelTrace = slog.LevelDebug - 4

// ParseLogLevel maps a level name to a slog.Level. Unknown values yield INFO.
func ParseLogLevel(s string) slog.Level {
	switch strings.TrimSpace(strings.ToUpper(s)) {
	case "TRACE":
		return LevelTrace
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// GetLogLevelFromEnv reads AIGOFLOW_LOG_LEVEL, falling back to LOG_LEVEL.
func GetLogLevelFromEnv() slog.Level {
	if level := os.Getenv("AIGOFLOW_LOG_LEVEL"); level != "" {
		return ParseLogLevel(level)
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		return ParseLogLevel(level)
	}
	return slog.LevelInfo
}
