package testsupport

import (
	"path/filepath"
	"testing"

	"podshelf/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Extraction.APIKey = "test"
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithMaxRetries sets the scheduler retry bound on the test config.
func WithMaxRetries(max int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Workflow.MaxRetries = max
	}
}
