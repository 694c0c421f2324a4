package logging

import (
	"fmt"

	"go.uber.org/zap"
)

// New returns a debug logger writing to the given file, or a no-op logger
// when path is empty. The TUI owns the terminal, so logs never go to
// stdout/stderr.
func New(path string) (*zap.Logger, error) {
	if path == "" {
		return zap.NewNop(), nil
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	cfg.OutputPaths = []string{path}
	cfg.ErrorOutputPaths = []string{path}

	log, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return log, nil
}

// FromEnv builds the logger from GRASP_DEBUG_LOG, no-op when unset.
func FromEnv(getenv func(string) string) (*zap.Logger, error) {
	return New(getenv("GRASP_DEBUG_LOG"))
}
