package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
}

// Transcript contains caption fetching and completeness thresholds.
type Transcript struct {
	BaseURL             string  `toml:"base_url"`
	RequestTimeout      int     `toml:"request_timeout"`
	MinSegments         int     `toml:"min_segments"`
	MinCharacters       int     `toml:"min_characters"`
	MaxGapRatio         float64 `toml:"max_gap_ratio"`
	GapThresholdSeconds float64 `toml:"gap_threshold_seconds"`
}

// Extraction contains the extraction oracle connection and chunking settings.
type Extraction struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	ChunkSize      int    `toml:"chunk_size"`
	LookbackWindow int    `toml:"lookback_window"`
}

// Books contains the metadata oracle connection settings.
type Books struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Workflow contains scheduler timing and retry bounds.
type Workflow struct {
	PollInterval       int    `toml:"poll_interval"`
	ErrorRetryInterval int    `toml:"error_retry_interval"`
	RetryInterval      int    `toml:"retry_interval"`
	MaxRetries         int    `toml:"max_retries"`
	Phase              string `toml:"phase"`
}

// Logging contains log output configuration.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for podshelf.
//
// Configuration sections by subsystem:
//   - Paths: data and log directories
//   - Transcript: caption source endpoint and completeness thresholds
//   - Extraction: extraction oracle connection, chunk sizing
//   - Books: metadata oracle connection
//   - Workflow: scheduler intervals, retry bounds, pipeline phase tag
//   - Logging: log format and level
type Config struct {
	Paths      Paths      `toml:"paths"`
	Transcript Transcript `toml:"transcript"`
	Extraction Extraction `toml:"extraction"`
	Books      Books      `toml:"books"`
	Workflow   Workflow   `toml:"workflow"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/podshelf/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. API keys may also be
// supplied through the environment (optionally via a .env file in the
// working directory), which takes precedence over file values.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func (c *Config) applyEnvOverrides() {
	// Best-effort; a missing .env file is the normal case.
	_ = godotenv.Load()

	if key := strings.TrimSpace(os.Getenv("PODSHELF_EXTRACTION_API_KEY")); key != "" {
		c.Extraction.APIKey = key
	}
	if key := strings.TrimSpace(os.Getenv("PODSHELF_BOOKS_API_KEY")); key != "" {
		c.Books.APIKey = key
	}
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("podshelf.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories required for operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// SampleConfig returns the embedded sample configuration file contents.
func SampleConfig() string {
	return sampleConfig
}

// WriteSample writes the sample configuration to the given path, refusing to
// overwrite an existing file.
func WriteSample(path string) error {
	expanded, err := expandPath(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config file already exists at %s", expanded)
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(expanded, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

func (c *Config) normalize() error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return err
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return err
	}
	c.Extraction.APIKey = strings.TrimSpace(c.Extraction.APIKey)
	c.Extraction.BaseURL = strings.TrimSpace(c.Extraction.BaseURL)
	c.Extraction.Model = strings.TrimSpace(c.Extraction.Model)
	c.Books.APIKey = strings.TrimSpace(c.Books.APIKey)
	c.Books.BaseURL = strings.TrimSpace(c.Books.BaseURL)
	c.Transcript.BaseURL = strings.TrimSpace(c.Transcript.BaseURL)
	c.Workflow.Phase = strings.TrimSpace(c.Workflow.Phase)
	return nil
}
