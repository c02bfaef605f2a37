// Package logger builds process loggers and carries request-scoped loggers
// on contexts.
package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/kailas-cloud/gamerec/internal/version"
)

// Component names used by the binaries.
const (
	ComponentAPI   = "api"
	ComponentTrain = "train"
)

// New creates a zap logger for the given environment, named after component.
// prod writes JSON, local/dev/docker write colored console output.
// A non-empty level overrides the environment default: debug, info, warn, error.
// Every entry carries the build version so artifacts can be traced to a binary.
func New(env, component, level string) (*zap.Logger, error) {
	var cfg zap.Config
	switch env {
	case "prod":
		cfg = zap.NewProductionConfig()
	case "local", "dev", "docker":
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	default:
		return nil, fmt.Errorf("unknown environment %q for logger", env)
	}

	if level != "" {
		lvl, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	cfg.InitialFields = map[string]any{"version": version.Version}

	l, err := cfg.Build(zap.AddStacktrace(zapcore.ErrorLevel))
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	if component != "" {
		l = l.Named(component)
	}
	return l, nil
}
