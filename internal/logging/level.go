package logging

import (
	"log/slog"
	"strings"
)

// DefaultLevel is the log level used when not configured.
const DefaultLevel = slog.LevelInfo

// LevelNames lists the accepted level names.
var LevelNames = []string{"debug", "info", "warn", "error"}

// ParseLevel converts a level name to slog.Level, case-insensitively.
// "warning" is accepted for "warn". ok is false for unknown names.
func ParseLevel(s string) (level slog.Level, ok bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}
	return DefaultLevel, false
}

// ParseLevelOrDefault converts a level name to slog.Level, returning
// DefaultLevel for unknown names.
func ParseLevelOrDefault(s string) slog.Level {
	level, _ := ParseLevel(s)
	return level
}
