package metrics

import (
	"context"
	"time"

	"podshelf/internal/extraction"
	"podshelf/internal/queue"
	"podshelf/internal/recs"
	"podshelf/internal/transcript"
)

// Input tokens estimated at four characters each, priced at $3 per million.
const (
	charsPerToken       = 4
	costPerMillionInput = 3.0
)

// EstimateCostUSD converts characters sent to the model into an input-token
// cost estimate.
func EstimateCostUSD(charactersSent int) float64 {
	tokens := float64(charactersSent) / charsPerToken
	return tokens / 1_000_000 * costPerMillionInput
}

// Recorder assembles and persists one processing metric per run. It observes
// the pipeline; nothing downstream reads metrics back.
type Recorder struct {
	store *queue.Store
	phase string
	model string
}

// NewRecorder constructs a recorder tagged with the pipeline phase and model.
func NewRecorder(store *queue.Store, phase, model string) *Recorder {
	return &Recorder{store: store, phase: phase, model: model}
}

// Build assembles a run metric from the stage outputs. Any argument may be
// zero-valued for runs that failed before reaching that stage.
func (r *Recorder) Build(episodeID int64, verification transcript.Verification, report extraction.Report, merged []recs.Recommendation, elapsed time.Duration, runErr error) *queue.ProcessingMetric {
	metric := &queue.ProcessingMetric{
		EpisodeID: episodeID,
		Phase:     r.phase,
		Model:     r.model,

		TotalSegments:      verification.TotalSegments,
		CharacterCount:     verification.CharacterCount,
		GapsDetected:       verification.GapsDetected,
		CoveragePercent:    verification.CoveragePercent,
		TranscriptComplete: verification.IsComplete,

		TotalChunks:      report.TotalChunks,
		FailedChunks:     report.FailedChunks,
		CharactersSent:   report.CharactersSent,
		CoverageVerified: report.CoverageVerified,
		CandidatesFound:  report.CandidatesFound,

		EstimatedCostUSD:      EstimateCostUSD(report.CharactersSent),
		ProcessingTimeSeconds: elapsed.Seconds(),
	}
	for _, rec := range merged {
		switch rec.Type {
		case extraction.TypeBook:
			metric.BooksFound++
		case extraction.TypeMedia:
			metric.MediaFound++
		default:
			metric.OtherFound++
		}
		if rec.DisplayEligible {
			metric.EligibleCount++
		}
	}
	if runErr != nil {
		metric.HadErrors = true
		metric.ErrorMessage = runErr.Error()
	} else if report.FailedChunks > 0 {
		metric.HadErrors = true
	}
	return metric
}

// Record builds and persists a run metric.
func (r *Recorder) Record(ctx context.Context, episodeID int64, verification transcript.Verification, report extraction.Report, merged []recs.Recommendation, elapsed time.Duration, runErr error) error {
	return r.store.InsertMetric(ctx, r.Build(episodeID, verification, report, merged, elapsed, runErr))
}
