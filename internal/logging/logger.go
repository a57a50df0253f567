// Package logging builds the zap logger used across the service. Every core
// is wrapped in a redaction layer so user queries and generated answers never
// reach a sink in clear text, whatever the call site passes in.
package logging

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures the logger.
type Options struct {
	Level  string // "debug", "info", "warn", "error"
	Format string // "console" or "json"
	File   string // optional rotating log file, JSON encoded
	// RevealQueries keeps the "query" field readable. Answers, prompts and
	// context are redacted regardless.
	RevealQueries bool
}

// New creates a logger writing to stdout and, when configured, to a rotating
// file.
func New(opts Options) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cmpOr(opts.Level, "info"))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.MessageKey = "message"
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	jsonEncoder := zapcore.NewJSONEncoder(encoderConfig)

	var consoleEncoder zapcore.Encoder
	switch strings.ToLower(cmpOr(opts.Format, "console")) {
	case "json":
		consoleEncoder = jsonEncoder
	case "console", "text":
		consoleEncoder = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	default:
		return nil, fmt.Errorf("invalid log format %q", opts.Format)
	}

	cores := []zapcore.Core{
		zapcore.NewCore(consoleEncoder, zapcore.Lock(os.Stdout), level),
	}

	if opts.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    10, // Megabytes
			MaxBackups: 5,
			MaxAge:     30, // Days
			Compress:   true,
		}
		cores = append(cores, zapcore.NewCore(jsonEncoder, zapcore.AddSync(rotator), level))
	}

	return NewWithCore(zapcore.NewTee(cores...), opts), nil
}

// NewWithCore wraps an existing core with redaction. Tests use it to capture
// output.
func NewWithCore(core zapcore.Core, opts Options) *zap.Logger {
	return zap.New(NewRedactingCore(core, opts.RevealQueries), zap.AddCaller())
}

func cmpOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
