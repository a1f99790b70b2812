// Package observability owns the process-wide logger and metrics.
package observability

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// CLILogger is the logger used by commands. It is a no-op until
// InitCLILogger or ConfigureCLILogger runs.
var CLILogger = zap.NewNop()

// Log formats.
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// LoggerConfig configures NewLogger.
type LoggerConfig struct {
	// Service is attached to every entry as "service".
	Service string

	// Level is a zap level name ("debug", "info", "warn", "error").
	// Empty means info.
	Level string

	// Format is FormatJSON or FormatConsole. Empty means console.
	Format string

	// Output receives log entries. Nil means stderr.
	Output io.Writer
}

// NewLogger builds a zap logger from cfg.
func NewLogger(cfg LoggerConfig) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		lvl, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
		level = lvl
	}

	var encoder zapcore.Encoder
	switch strings.ToLower(cfg.Format) {
	case FormatJSON:
		encCfg := zap.NewProductionEncoderConfig()
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewJSONEncoder(encCfg)
	case FormatConsole, "":
		encCfg := zap.NewDevelopmentEncoderConfig()
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encCfg)
	default:
		return nil, fmt.Errorf("invalid log format %q (expected json or console)", cfg.Format)
	}

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	core := zapcore.NewCore(encoder, zapcore.Lock(zapcore.AddSync(out)), level)
	logger := zap.New(core)
	if cfg.Service != "" {
		logger = logger.With(zap.String("service", cfg.Service))
	}
	return logger, nil
}

// ConfigureCLILogger replaces CLILogger with a logger built from cfg.
func ConfigureCLILogger(cfg LoggerConfig) error {
	logger, err := NewLogger(cfg)
	if err != nil {
		return err
	}
	CLILogger = logger
	return nil
}

// InitCLILogger installs a console logger at info level, or debug when
// verbose is set.
func InitCLILogger(service string, verbose bool) {
	level := "info"
	if verbose {
		level = "debug"
	}
	// Level and format are fixed, so NewLogger cannot fail.
	_ = ConfigureCLILogger(LoggerConfig{Service: service, Level: level, Format: FormatConsole})
}
