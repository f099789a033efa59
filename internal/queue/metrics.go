package queue

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// InsertMetric appends one processing run record. Metrics are never
// updated or deleted; each run leaves its own row.
func (s *Store) InsertMetric(ctx context.Context, metric *ProcessingMetric) error {
	if metric == nil {
		return fmt.Errorf("metric is nil")
	}
	metric.CreatedAt = time.Now().UTC()
	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO processing_metrics (
            episode_id, phase,
            total_segments, character_count, gaps_detected, coverage_percent, transcript_complete,
            total_chunks, failed_chunks, characters_sent, coverage_verified,
            candidates_found, books_found, media_found, other_found, eligible_count,
            model, estimated_cost_usd, processing_time_seconds,
            had_errors, error_message, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		metric.EpisodeID,
		metric.Phase,
		metric.TotalSegments,
		metric.CharacterCount,
		metric.GapsDetected,
		metric.CoveragePercent,
		boolToInt(metric.TranscriptComplete),
		metric.TotalChunks,
		metric.FailedChunks,
		metric.CharactersSent,
		boolToInt(metric.CoverageVerified),
		metric.CandidatesFound,
		metric.BooksFound,
		metric.MediaFound,
		metric.OtherFound,
		metric.EligibleCount,
		nullableString(metric.Model),
		metric.EstimatedCostUSD,
		metric.ProcessingTimeSeconds,
		boolToInt(metric.HadErrors),
		nullableString(metric.ErrorMessage),
		metric.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert metric: %w", err)
	}
	if metric.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	return nil
}

// MetricsForEpisode returns every run record for an episode, oldest first.
func (s *Store) MetricsForEpisode(ctx context.Context, episodeID int64) ([]ProcessingMetric, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, episode_id, phase,
            total_segments, character_count, gaps_detected, coverage_percent, transcript_complete,
            total_chunks, failed_chunks, characters_sent, coverage_verified,
            candidates_found, books_found, media_found, other_found, eligible_count,
            model, estimated_cost_usd, processing_time_seconds,
            had_errors, error_message, created_at
         FROM processing_metrics WHERE episode_id = ? ORDER BY id`,
		episodeID,
	)
	if err != nil {
		return nil, fmt.Errorf("query metrics: %w", err)
	}
	defer rows.Close()

	var metrics []ProcessingMetric
	for rows.Next() {
		var (
			metric             ProcessingMetric
			transcriptComplete int
			coverageVerified   int
			hadErrors          int
			model              sql.NullString
			errorMessage       sql.NullString
			createdRaw         string
		)
		if err := rows.Scan(
			&metric.ID,
			&metric.EpisodeID,
			&metric.Phase,
			&metric.TotalSegments,
			&metric.CharacterCount,
			&metric.GapsDetected,
			&metric.CoveragePercent,
			&transcriptComplete,
			&metric.TotalChunks,
			&metric.FailedChunks,
			&metric.CharactersSent,
			&coverageVerified,
			&metric.CandidatesFound,
			&metric.BooksFound,
			&metric.MediaFound,
			&metric.OtherFound,
			&metric.EligibleCount,
			&model,
			&metric.EstimatedCostUSD,
			&metric.ProcessingTimeSeconds,
			&hadErrors,
			&errorMessage,
			&createdRaw,
		); err != nil {
			return nil, err
		}
		metric.TranscriptComplete = transcriptComplete != 0
		metric.CoverageVerified = coverageVerified != 0
		metric.HadErrors = hadErrors != 0
		metric.Model = model.String
		metric.ErrorMessage = errorMessage.String
		if created, err := parseTimeString(createdRaw); err == nil {
			metric.CreatedAt = created
		}
		metrics = append(metrics, metric)
	}
	return metrics, rows.Err()
}

// PhaseSummaries aggregates the metric history per pipeline phase.
func (s *Store) PhaseSummaries(ctx context.Context) ([]PhaseSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT phase,
            COUNT(*),
            COUNT(DISTINCT episode_id),
            COALESCE(SUM(estimated_cost_usd), 0),
            COALESCE(AVG(estimated_cost_usd), 0),
            COALESCE(AVG(processing_time_seconds), 0),
            COALESCE(AVG(transcript_complete), 0),
            COALESCE(AVG(had_errors), 0)
         FROM processing_metrics GROUP BY phase ORDER BY phase`,
	)
	if err != nil {
		return nil, fmt.Errorf("query phase summaries: %w", err)
	}
	defer rows.Close()

	var summaries []PhaseSummary
	for rows.Next() {
		var summary PhaseSummary
		if err := rows.Scan(
			&summary.Phase,
			&summary.Runs,
			&summary.Episodes,
			&summary.TotalCostUSD,
			&summary.AvgCostUSD,
			&summary.AvgTimeSeconds,
			&summary.CompleteRate,
			&summary.ErrorRate,
		); err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}
	return summaries, rows.Err()
}
