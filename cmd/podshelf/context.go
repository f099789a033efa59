package main

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"podshelf/internal/config"
	"podshelf/internal/enrich"
	"podshelf/internal/queue"
	"podshelf/internal/services/books"
	"podshelf/internal/services/captions"
	"podshelf/internal/services/llm"
	"podshelf/internal/transcript"
	"podshelf/internal/workflow"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) withStore(fn func(*config.Config, *queue.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := queue.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(cfg, store)
}

// buildPipeline wires the live service clients behind the pipeline.
func buildPipeline(cfg *config.Config, store *queue.Store, logger *slog.Logger) *workflow.Pipeline {
	var source transcript.Source = captions.NewClient(captions.Config{
		BaseURL:        cfg.Transcript.BaseURL,
		RequestTimeout: time.Duration(cfg.Transcript.RequestTimeout) * time.Second,
	})
	oracle := llm.NewExtractionOracle(llm.NewClient(llm.Config{
		APIKey:         cfg.Extraction.APIKey,
		BaseURL:        cfg.Extraction.BaseURL,
		Model:          cfg.Extraction.Model,
		TimeoutSeconds: cfg.Extraction.TimeoutSeconds,
	}))
	var catalog enrich.MetadataOracle = books.NewClient(books.Config{
		APIKey:         cfg.Books.APIKey,
		BaseURL:        cfg.Books.BaseURL,
		RequestTimeout: time.Duration(cfg.Books.RequestTimeout) * time.Second,
	})
	return workflow.NewPipeline(cfg, store, source, oracle, catalog, logger)
}
