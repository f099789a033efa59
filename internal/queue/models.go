package queue

import "time"

// Status represents the lifecycle of an episode.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

var allStatuses = []Status{
	StatusPending,
	StatusProcessing,
	StatusCompleted,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// ParseStatus validates a user-supplied status string.
func ParseStatus(value string) (Status, bool) {
	status := Status(value)
	_, ok := statusSet[status]
	return status, ok
}

// Failure reasons recorded on episodes that never reached extraction.
const (
	ReasonTranscriptUnavailable = "transcript_unavailable"
	ReasonIncompleteTranscript  = "incomplete_transcript"
)

// Episode is one source unit persisted in SQLite.
type Episode struct {
	ID                 int64
	VideoID            string
	Title              string
	DurationSeconds    float64
	GuestNames         []string
	Status             Status
	ErrorMessage       string
	RetryCount         int
	TranscriptMetaJSON string
	ProcessedAt        *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Recommendation is one merged item persisted for an episode. Rows are
// written once per run and never deleted; ineligible rows stay hidden from
// read surfaces.
type Recommendation struct {
	ID              int64
	EpisodeID       int64
	Type            string
	Title           string
	AuthorCreator   string
	Context         string
	Quotes          []string
	Speakers        []string
	Confidence      float64
	MentionCount    int
	DisplayEligible bool
	EnrichmentJSON  string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ProcessingMetric is the append-only record of one processing run.
type ProcessingMetric struct {
	ID        int64
	EpisodeID int64
	Phase     string

	TotalSegments      int
	CharacterCount     int
	GapsDetected       int
	CoveragePercent    float64
	TranscriptComplete bool

	TotalChunks      int
	FailedChunks     int
	CharactersSent   int
	CoverageVerified bool

	CandidatesFound int
	BooksFound      int
	MediaFound      int
	OtherFound      int
	EligibleCount   int

	Model                 string
	EstimatedCostUSD      float64
	ProcessingTimeSeconds float64
	HadErrors             bool
	ErrorMessage          string
	CreatedAt             time.Time
}

// PhaseSummary aggregates the metric history for one pipeline phase.
// Rates are fractions in [0, 1].
type PhaseSummary struct {
	Phase          string
	Runs           int
	Episodes       int
	TotalCostUSD   float64
	AvgCostUSD     float64
	AvgTimeSeconds float64
	CompleteRate   float64
	ErrorRate      float64
}

// HealthSummary describes aggregated episode counts per lifecycle state.
type HealthSummary struct {
	Total      int
	Pending    int
	Processing int
	Completed  int
	Failed     int
}
