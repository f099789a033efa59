package config

const (
	defaultDataDir             = "~/.local/share/podshelf"
	defaultLogDir              = "~/.local/share/podshelf/logs"
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultTranscriptBaseURL   = "https://www.youtube.com"
	defaultTranscriptTimeout   = 15
	defaultMinSegments         = 10
	defaultMinCharacters       = 1000
	defaultMaxGapRatio         = 0.10
	defaultGapThresholdSeconds = 2.0
	defaultExtractionBaseURL   = "https://openrouter.ai/api/v1/chat/completions"
	defaultExtractionModel     = "anthropic/claude-sonnet-4"
	defaultExtractionTimeout   = 120
	defaultChunkSize           = 12000
	defaultLookbackWindow      = 500
	defaultBooksBaseURL        = "https://www.googleapis.com/books/v1/volumes"
	defaultBooksTimeout        = 10
	defaultPollInterval        = 5
	defaultErrorRetryInterval  = 10
	defaultRetryInterval       = 300
	defaultMaxRetries          = 3
	defaultPhase               = "phase_1"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Transcript: Transcript{
			BaseURL:             defaultTranscriptBaseURL,
			RequestTimeout:      defaultTranscriptTimeout,
			MinSegments:         defaultMinSegments,
			MinCharacters:       defaultMinCharacters,
			MaxGapRatio:         defaultMaxGapRatio,
			GapThresholdSeconds: defaultGapThresholdSeconds,
		},
		Extraction: Extraction{
			BaseURL:        defaultExtractionBaseURL,
			Model:          defaultExtractionModel,
			TimeoutSeconds: defaultExtractionTimeout,
			ChunkSize:      defaultChunkSize,
			LookbackWindow: defaultLookbackWindow,
		},
		Books: Books{
			BaseURL:        defaultBooksBaseURL,
			RequestTimeout: defaultBooksTimeout,
		},
		Workflow: Workflow{
			PollInterval:       defaultPollInterval,
			ErrorRetryInterval: defaultErrorRetryInterval,
			RetryInterval:      defaultRetryInterval,
			MaxRetries:         defaultMaxRetries,
			Phase:              defaultPhase,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
