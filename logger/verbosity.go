package logger

import (
	"strings"

	"go.uber.org/zap/zapcore"

	"github.com/teranos/subgraph/errors"
)

// Verbosity names accepted by --verbosity and LOG_LEVEL.
//
//	info    -> InfoLevel  (build results, rebuild notices)
//	verbose -> DebugLevel (+ watch registrations, generated file paths)
//	debug   -> DebugLevel (+ compiler command lines, raw fsnotify events)
const (
	VerbosityInfo    = "info"
	VerbosityVerbose = "verbose"
	VerbosityDebug   = "debug"
)

// VerbosityToLevel maps a verbosity name to a zap level.
// Matching is case-insensitive; an empty name means info.
func VerbosityToLevel(name string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", VerbosityInfo:
		return zapcore.InfoLevel, nil
	case VerbosityVerbose, VerbosityDebug:
		return zapcore.DebugLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, errors.WithHint(
			errors.Newf("unknown verbosity %q", name),
			"use one of: info, verbose, debug")
	}
}

// IsTrace reports whether the verbosity name asks for the noisiest output
func IsTrace(name string) bool {
	return strings.EqualFold(strings.TrimSpace(name), VerbosityDebug)
}
