package queue

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const recommendationColumns = "id, episode_id, type, title, author_creator, context, quotes_json, speakers_json, confidence, mention_count, display_eligible, enrichment_json, created_at, updated_at"

// SaveRecommendations persists one run's merged recommendations for an
// episode in a single transaction. A reprocessed episode replaces its own
// previous rows so retries never duplicate output; ineligible rows are
// stored like any other and filtered only at read time.
func (s *Store) SaveRecommendations(ctx context.Context, episodeID int64, items []Recommendation) error {
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin recommendations tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		var existing int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(1) FROM recommendations WHERE episode_id = ?`, episodeID,
		).Scan(&existing); err != nil {
			return fmt.Errorf("count existing recommendations: %w", err)
		}
		if existing > 0 {
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM recommendations WHERE episode_id = ?`, episodeID,
			); err != nil {
				return fmt.Errorf("replace stale recommendations: %w", err)
			}
		}

		timestamp := time.Now().UTC().Format(time.RFC3339Nano)
		for _, item := range items {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO recommendations (
                    episode_id, type, title, author_creator, context,
                    quotes_json, speakers_json, confidence, mention_count,
                    display_eligible, enrichment_json, created_at, updated_at
                ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				episodeID,
				item.Type,
				item.Title,
				nullableString(item.AuthorCreator),
				nullableString(item.Context),
				encodeStringSlice(item.Quotes),
				encodeStringSlice(item.Speakers),
				item.Confidence,
				item.MentionCount,
				boolToInt(item.DisplayEligible),
				nullableString(item.EnrichmentJSON),
				timestamp,
				timestamp,
			); err != nil {
				return fmt.Errorf("insert recommendation: %w", err)
			}
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit recommendations: %w", err)
		}
		return nil
	})
}

// RecommendationsForEpisode returns every stored recommendation for an
// episode, eligible or not.
func (s *Store) RecommendationsForEpisode(ctx context.Context, episodeID int64) ([]Recommendation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+recommendationColumns+` FROM recommendations WHERE episode_id = ? ORDER BY confidence DESC, id`,
		episodeID,
	)
	if err != nil {
		return nil, fmt.Errorf("query recommendations: %w", err)
	}
	defer rows.Close()
	return collectRecommendations(rows)
}

// EligibleRecommendations returns only display-eligible rows, newest
// episodes first.
func (s *Store) EligibleRecommendations(ctx context.Context, limit int) ([]Recommendation, error) {
	query := `SELECT ` + recommendationColumns + ` FROM recommendations WHERE display_eligible = 1 ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query eligible recommendations: %w", err)
	}
	defer rows.Close()
	return collectRecommendations(rows)
}

func collectRecommendations(rows *sql.Rows) ([]Recommendation, error) {
	var items []Recommendation
	for rows.Next() {
		var (
			item       Recommendation
			author     sql.NullString
			context_   sql.NullString
			quotes     sql.NullString
			speakers   sql.NullString
			eligible   int
			enrichment sql.NullString
			createdRaw string
			updatedRaw string
		)
		if err := rows.Scan(
			&item.ID,
			&item.EpisodeID,
			&item.Type,
			&item.Title,
			&author,
			&context_,
			&quotes,
			&speakers,
			&item.Confidence,
			&item.MentionCount,
			&eligible,
			&enrichment,
			&createdRaw,
			&updatedRaw,
		); err != nil {
			return nil, err
		}
		item.AuthorCreator = author.String
		item.Context = context_.String
		item.Quotes = decodeStringSlice(quotes.String)
		item.Speakers = decodeStringSlice(speakers.String)
		item.DisplayEligible = eligible != 0
		item.EnrichmentJSON = enrichment.String
		if created, err := parseTimeString(createdRaw); err == nil {
			item.CreatedAt = created
		}
		if updated, err := parseTimeString(updatedRaw); err == nil {
			item.UpdatedAt = updated
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
