// Package logging builds the process logger.
package logging

import (
	"fmt"
	"regexp"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a development logger for "debug" and a production JSON logger
// at the given level otherwise.
func New(level string) (*zap.Logger, error) {
	if level == "debug" {
		return zap.NewDevelopment()
	}
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

var credentials = regexp.MustCompile(`://[^:/@]+:[^@]+@`)

// RedactURL hides the password in a connection URL before it is logged.
func RedactURL(raw string) string {
	return credentials.ReplaceAllString(raw, "://[REDACTED]@")
}
