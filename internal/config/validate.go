package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateTranscript(); err != nil {
		return err
	}
	if err := c.validateExtraction(); err != nil {
		return err
	}
	if err := c.validateBooks(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateTranscript() error {
	if c.Transcript.MinSegments <= 0 {
		return errors.New("transcript.min_segments must be positive")
	}
	if c.Transcript.MinCharacters <= 0 {
		return errors.New("transcript.min_characters must be positive")
	}
	if c.Transcript.MaxGapRatio <= 0 || c.Transcript.MaxGapRatio >= 1 {
		return errors.New("transcript.max_gap_ratio must be between 0 and 1")
	}
	if c.Transcript.GapThresholdSeconds <= 0 {
		return errors.New("transcript.gap_threshold_seconds must be positive")
	}
	return nil
}

func (c *Config) validateExtraction() error {
	if c.Extraction.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/podshelf/config.toml"
		}
		return fmt.Errorf("extraction.api_key is required. Set PODSHELF_EXTRACTION_API_KEY env var or edit %s (create with 'podshelf config init')", defaultPath)
	}
	if c.Extraction.Model == "" {
		return errors.New("extraction.model must be set")
	}
	if c.Extraction.ChunkSize < 1000 {
		return errors.New("extraction.chunk_size must be at least 1000 characters")
	}
	if c.Extraction.LookbackWindow < 0 || c.Extraction.LookbackWindow >= c.Extraction.ChunkSize {
		return errors.New("extraction.lookback_window must be smaller than chunk_size")
	}
	return nil
}

func (c *Config) validateBooks() error {
	if c.Books.BaseURL == "" {
		return errors.New("books.base_url must be set")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.PollInterval <= 0 {
		return errors.New("workflow.poll_interval must be positive")
	}
	if c.Workflow.RetryInterval <= 0 {
		return errors.New("workflow.retry_interval must be positive")
	}
	if c.Workflow.MaxRetries < 0 {
		return errors.New("workflow.max_retries must not be negative")
	}
	if c.Workflow.Phase == "" {
		return errors.New("workflow.phase must be set")
	}
	return nil
}
