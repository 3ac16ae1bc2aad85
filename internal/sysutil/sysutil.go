// Package sysutil holds small process-level helpers shared by the server
// entrypoint: log level wiring and a couple of string conveniences used when
// resolving environment-driven settings.
package sysutil

import (
	"strings"

	"github.com/rs/zerolog"
)

// ParseLogLevel maps a configuration string to a zerolog level. Matching is
// case-insensitive and tolerant of surrounding whitespace; "warning" is
// accepted as an alias for warn. Unknown or empty values report ok=false.
func ParseLogLevel(lvl string) (level zerolog.Level, ok bool) {
	switch strings.ToLower(strings.TrimSpace(lvl)) {
	case "debug":
		return zerolog.DebugLevel, true
	case "info":
		return zerolog.InfoLevel, true
	case "warn", "warning":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	case "fatal":
		return zerolog.FatalLevel, true
	case "panic":
		return zerolog.PanicLevel, true
	default:
		return zerolog.InfoLevel, false
	}
}

// SetLogLevel configures the global zerolog level from a configuration
// string. Unrecognized values fall back to info rather than failing startup;
// a misspelled LOG_LEVEL should not keep the service down.
func SetLogLevel(lvl string) {
	level, _ := ParseLogLevel(lvl)
	zerolog.SetGlobalLevel(level)
}

// IsTruthy reports whether an environment variable string reads as true.
// Accepted values (case-insensitive): "1", "true", "yes", "y", "on".
func IsTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true
	default:
		return false
	}
}

// FirstNonEmpty returns the first value that is not blank after trimming,
// or "" when every value is blank. The winner keeps its original spacing.
func FirstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
