package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"podshelf/internal/chunker"
	"podshelf/internal/config"
	"podshelf/internal/enrich"
	"podshelf/internal/extraction"
	"podshelf/internal/logging"
	"podshelf/internal/metrics"
	"podshelf/internal/queue"
	"podshelf/internal/recs"
	"podshelf/internal/services"
	"podshelf/internal/transcript"
)

// Pipeline runs one episode through verification, extraction, merging,
// enrichment, and persistence.
type Pipeline struct {
	cfg      *config.Config
	store    *queue.Store
	source   transcript.Source
	orch     *extraction.Orchestrator
	gate     *enrich.Gate
	recorder *metrics.Recorder
	logger   *slog.Logger
}

// NewPipeline wires the processing stages together.
func NewPipeline(cfg *config.Config, store *queue.Store, source transcript.Source, oracle extraction.Oracle, metadataOracle enrich.MetadataOracle, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		store:    store,
		source:   source,
		orch:     extraction.NewOrchestrator(oracle, logger),
		gate:     enrich.NewGate(metadataOracle, logger),
		recorder: metrics.NewRecorder(store, cfg.Workflow.Phase, cfg.Extraction.Model),
		logger:   logging.NewComponentLogger(logger, "workflow"),
	}
}

// RunResult summarizes one processing attempt.
type RunResult struct {
	EpisodeID       int64
	Claimed         bool
	Status          queue.Status
	FailureReason   string
	Recommendations int
	Eligible        int
	Report          extraction.Report
}

// Process claims an episode and runs it to a terminal state. An episode that
// is not pending (already claimed, finished, or unknown) is a no-op. Once a
// run starts it is never cancelled mid-flight except by the caller's
// context; every other failure lands the episode in failed with a reason.
func (p *Pipeline) Process(ctx context.Context, episodeID int64) (RunResult, error) {
	result := RunResult{EpisodeID: episodeID}

	episode, err := p.store.GetByID(ctx, episodeID)
	if err != nil {
		return result, fmt.Errorf("load episode %d: %w", episodeID, err)
	}
	if episode == nil {
		return result, fmt.Errorf("episode %d not found", episodeID)
	}

	claimed, err := p.store.Claim(ctx, episodeID)
	if err != nil {
		return result, fmt.Errorf("claim episode %d: %w", episodeID, err)
	}
	if !claimed {
		p.logger.Debug("episode not claimable, skipping",
			logging.Int64(logging.FieldEpisodeID, episodeID))
		return result, nil
	}
	result.Claimed = true

	start := time.Now()
	verification, report, merged, runErr := p.run(ctx, episode)
	elapsed := time.Since(start)

	result.Report = report
	if runErr != nil {
		if ctx.Err() != nil {
			// Shutdown, not a processing failure: leave the episode for the
			// stuck-processing reset instead of burning a retry.
			return result, runErr
		}
		reason := failureReason(runErr)
		result.Status = queue.StatusFailed
		result.FailureReason = reason
		p.logger.Warn("episode failed",
			logging.Int64(logging.FieldEpisodeID, episode.ID),
			logging.String(logging.FieldVideoID, episode.VideoID),
			logging.String("reason", reason),
			logging.Error(runErr),
		)
		if err := p.store.MarkFailed(ctx, episode.ID, reason); err != nil {
			return result, fmt.Errorf("mark failed: %w", err)
		}
		if err := p.recorder.Record(ctx, episode.ID, verification, report, merged, elapsed, runErr); err != nil {
			p.logger.Warn("record failure metric", logging.Error(err))
		}
		return result, nil
	}

	for _, rec := range merged {
		if rec.DisplayEligible {
			result.Eligible++
		}
	}
	result.Recommendations = len(merged)

	if err := p.recorder.Record(ctx, episode.ID, verification, report, merged, elapsed, nil); err != nil {
		return result, fmt.Errorf("record metric: %w", err)
	}
	if err := p.store.MarkCompleted(ctx, episode.ID); err != nil {
		return result, fmt.Errorf("mark completed: %w", err)
	}
	result.Status = queue.StatusCompleted
	p.logger.Info("episode completed",
		logging.Int64(logging.FieldEpisodeID, episode.ID),
		logging.String(logging.FieldVideoID, episode.VideoID),
		logging.Int("recommendations", result.Recommendations),
		logging.Int("eligible", result.Eligible),
		logging.Int("failed_chunks", report.FailedChunks),
		logging.Bool("coverage_verified", report.CoverageVerified),
		logging.Duration("elapsed", elapsed),
	)
	return result, nil
}

// run executes the stage sequence and returns whatever partial outputs exist
// alongside the terminal error, so the failure metric still records them.
func (p *Pipeline) run(ctx context.Context, episode *queue.Episode) (transcript.Verification, extraction.Report, []recs.Recommendation, error) {
	var (
		verification transcript.Verification
		report       extraction.Report
	)

	segments, videoDuration, err := p.source.Fetch(ctx, episode.VideoID)
	if err != nil {
		if services.IsUnavailableInput(err) {
			return verification, report, nil, fmt.Errorf("%s: %w", queue.ReasonTranscriptUnavailable, err)
		}
		return verification, report, nil, services.Wrap(services.ErrExternalService, "workflow", "fetch transcript", "transcript fetch failed", err)
	}

	verified := transcript.Verify(segments, videoDuration, transcript.Thresholds{
		MinSegments:         p.cfg.Transcript.MinSegments,
		MinCharacters:       p.cfg.Transcript.MinCharacters,
		MaxGapRatio:         p.cfg.Transcript.MaxGapRatio,
		GapThresholdSeconds: p.cfg.Transcript.GapThresholdSeconds,
	})
	verification = verified.Verification

	guests := episode.GuestNames
	if len(guests) == 0 {
		if guest := GuestFromTitle(episode.Title); guest != "" {
			guests = []string{guest}
		}
	}
	if err := p.storeEpisodeMetadata(ctx, episode.ID, verification, guests); err != nil {
		return verification, report, nil, err
	}

	if !verification.IsComplete {
		return verification, report, nil, fmt.Errorf("%s: %d segments, %d characters, %d gaps",
			queue.ReasonIncompleteTranscript,
			verification.TotalSegments,
			verification.CharacterCount,
			verification.GapsDetected,
		)
	}

	chunks := chunker.Split(verified.Text, p.cfg.Extraction.ChunkSize, p.cfg.Extraction.LookbackWindow)
	candidates, report, err := p.orch.ExtractAll(ctx, chunks, extraction.EpisodeContext{
		Title:        episode.Title,
		Participants: guests,
	}, len(verified.Text))
	if err != nil {
		return verification, report, nil, err
	}

	merged := recs.Merge(candidates)
	if err := p.gate.EnrichAll(ctx, merged); err != nil {
		return verification, report, merged, err
	}

	rows, err := toStoredRecommendations(episode.ID, merged)
	if err != nil {
		return verification, report, merged, err
	}
	if err := p.store.SaveRecommendations(ctx, episode.ID, rows); err != nil {
		return verification, report, merged, services.Wrap(services.ErrTransient, "workflow", "persist", "save recommendations", err)
	}
	return verification, report, merged, nil
}

func (p *Pipeline) storeEpisodeMetadata(ctx context.Context, episodeID int64, verification transcript.Verification, guests []string) error {
	meta, err := json.Marshal(verification)
	if err != nil {
		return fmt.Errorf("marshal transcript meta: %w", err)
	}
	if err := p.store.UpdateMetadata(ctx, episodeID, verification.VideoDuration, guests, string(meta)); err != nil {
		return services.Wrap(services.ErrTransient, "workflow", "persist", "update episode metadata", err)
	}
	return nil
}

func toStoredRecommendations(episodeID int64, merged []recs.Recommendation) ([]queue.Recommendation, error) {
	rows := make([]queue.Recommendation, 0, len(merged))
	for _, rec := range merged {
		row := queue.Recommendation{
			EpisodeID:       episodeID,
			Type:            string(rec.Type),
			Title:           rec.Title,
			AuthorCreator:   rec.AuthorCreator,
			Context:         rec.Context,
			Quotes:          rec.Quotes,
			Speakers:        rec.Speakers,
			Confidence:      rec.Confidence,
			MentionCount:    rec.MentionCount,
			DisplayEligible: rec.DisplayEligible,
		}
		var payload any
		switch {
		case rec.Book != nil:
			payload = rec.Book
		case rec.Media != nil:
			payload = rec.Media
		}
		if payload != nil {
			encoded, err := json.Marshal(payload)
			if err != nil {
				return nil, fmt.Errorf("marshal enrichment: %w", err)
			}
			row.EnrichmentJSON = string(encoded)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// failureReason maps a run error to the stored failure reason. Stage-level
// reasons lead the error message, so the prefix is the reason.
func failureReason(err error) string {
	msg := err.Error()
	const limit = 300
	if len(msg) > limit {
		msg = msg[:limit]
	}
	return msg
}

// ProcessPending claims and processes pending episodes one at a time until
// none remain or the limit is reached. A limit of zero means no limit.
func (p *Pipeline) ProcessPending(ctx context.Context, limit int) (int, error) {
	processed := 0
	for limit <= 0 || processed < limit {
		if err := ctx.Err(); err != nil {
			return processed, err
		}
		episode, err := p.store.NextPending(ctx)
		if err != nil {
			return processed, err
		}
		if episode == nil {
			return processed, nil
		}
		if _, err := p.Process(ctx, episode.ID); err != nil {
			return processed, err
		}
		processed++
	}
	return processed, nil
}

// StatusSummary reports episode counts by state.
func (p *Pipeline) StatusSummary(ctx context.Context) (queue.HealthSummary, error) {
	return p.store.Stats(ctx)
}
