package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Add inserts a new episode awaiting processing. Adding a video ID that
// already exists returns the existing episode unchanged.
func (s *Store) Add(ctx context.Context, videoID, title string) (*Episode, error) {
	if videoID == "" {
		return nil, errors.New("video id required")
	}
	if existing, err := s.GetByVideoID(ctx, videoID); err != nil {
		return nil, err
	} else if existing != nil {
		return existing, nil
	}

	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO episodes (video_id, title, status, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?)`,
		videoID,
		title,
		StatusPending,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert episode: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

// GetByID fetches an episode by identifier.
func (s *Store) GetByID(ctx context.Context, id int64) (*Episode, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+episodeColumns+` FROM episodes WHERE id = ?`, id)
	episode, err := scanEpisode(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get episode: %w", err)
	}
	return episode, nil
}

// GetByVideoID fetches an episode by its source video identifier.
func (s *Store) GetByVideoID(ctx context.Context, videoID string) (*Episode, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+episodeColumns+` FROM episodes WHERE video_id = ?`, videoID)
	episode, err := scanEpisode(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get episode by video id: %w", err)
	}
	return episode, nil
}

// List returns episodes filtered by status set, or all episodes when no
// status is provided, ordered by creation time.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Episode, error) {
	var (
		rows *sql.Rows
		err  error
	)
	baseQuery := `SELECT ` + episodeColumns + ` FROM episodes`
	orderClause := ` ORDER BY created_at`

	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(statuses))
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = status
		}
		rows, err = s.db.QueryContext(ctx, baseQuery+` WHERE status IN (`+placeholders+`)`+orderClause, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list episodes: %w", err)
	}
	defer rows.Close()

	var episodes []*Episode
	for rows.Next() {
		episode, err := scanEpisode(rows)
		if err != nil {
			return nil, err
		}
		episodes = append(episodes, episode)
	}
	return episodes, rows.Err()
}

// NextPending returns the oldest pending episode, or nil when none exist.
func (s *Store) NextPending(ctx context.Context) (*Episode, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+episodeColumns+` FROM episodes WHERE status = ? ORDER BY created_at LIMIT 1`,
		StatusPending,
	)
	episode, err := scanEpisode(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("next pending: %w", err)
	}
	return episode, nil
}

// Claim moves a pending episode to processing. The WHERE clause doubles as a
// compare-and-set so concurrent claimants cannot both win; the return value
// reports whether this caller took ownership.
func (s *Store) Claim(ctx context.Context, id int64) (bool, error) {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE episodes SET status = ?, error_message = NULL, updated_at = ?
         WHERE id = ? AND status = ?`,
		StatusProcessing,
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
		StatusPending,
	)
	if err != nil {
		return false, fmt.Errorf("claim episode: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// MarkCompleted finishes a processing episode and stamps processed_at.
func (s *Store) MarkCompleted(ctx context.Context, id int64) error {
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE episodes SET status = ?, error_message = NULL, processed_at = ?, updated_at = ?
         WHERE id = ? AND status = ?`,
		StatusCompleted,
		timestamp,
		timestamp,
		id,
		StatusProcessing,
	); err != nil {
		return fmt.Errorf("mark completed: %w", err)
	}
	return nil
}

// MarkFailed records a failure reason on a processing episode.
func (s *Store) MarkFailed(ctx context.Context, id int64, reason string) error {
	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE episodes SET status = ?, error_message = ?, updated_at = ?
         WHERE id = ?`,
		StatusFailed,
		nullableString(reason),
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
	); err != nil {
		return fmt.Errorf("mark failed: %w", err)
	}
	return nil
}

// UpdateMetadata persists episode facts learned during processing.
func (s *Store) UpdateMetadata(ctx context.Context, id int64, durationSeconds float64, guestNames []string, transcriptMetaJSON string) error {
	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE episodes SET duration_seconds = ?, guest_names_json = ?, transcript_meta_json = ?, updated_at = ?
         WHERE id = ?`,
		durationSeconds,
		encodeStringSlice(guestNames),
		nullableString(transcriptMetaJSON),
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
	); err != nil {
		return fmt.Errorf("update metadata: %w", err)
	}
	return nil
}

// RetryFailed moves failed episodes below the retry bound back to pending
// and increments their retry count. It returns how many episodes moved.
func (s *Store) RetryFailed(ctx context.Context, maxRetries int) (int64, error) {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE episodes
         SET status = ?, retry_count = retry_count + 1, error_message = NULL, updated_at = ?
         WHERE status = ? AND retry_count < ?`,
		StatusPending,
		time.Now().UTC().Format(time.RFC3339Nano),
		StatusFailed,
		maxRetries,
	)
	if err != nil {
		return 0, fmt.Errorf("retry failed episodes: %w", err)
	}
	return res.RowsAffected()
}

// ResetStuckProcessing returns episodes stranded in processing (by a crash
// or shutdown) back to pending without consuming a retry.
func (s *Store) ResetStuckProcessing(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE episodes SET status = ?, updated_at = ? WHERE status = ?`,
		StatusPending,
		time.Now().UTC().Format(time.RFC3339Nano),
		StatusProcessing,
	)
	if err != nil {
		return 0, fmt.Errorf("reset stuck episodes: %w", err)
	}
	return res.RowsAffected()
}

// Stats aggregates episode counts by lifecycle state.
func (s *Store) Stats(ctx context.Context) (HealthSummary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM episodes GROUP BY status`)
	if err != nil {
		return HealthSummary{}, fmt.Errorf("query stats: %w", err)
	}
	defer rows.Close()

	var summary HealthSummary
	for rows.Next() {
		var (
			statusStr string
			count     int
		)
		if err := rows.Scan(&statusStr, &count); err != nil {
			return HealthSummary{}, err
		}
		summary.Total += count
		switch Status(statusStr) {
		case StatusPending:
			summary.Pending = count
		case StatusProcessing:
			summary.Processing = count
		case StatusCompleted:
			summary.Completed = count
		case StatusFailed:
			summary.Failed = count
		}
	}
	return summary, rows.Err()
}
