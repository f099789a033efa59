package queue

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

const episodeColumns = "id, video_id, title, duration_seconds, guest_names_json, status, error_message, retry_count, transcript_meta_json, processed_at, created_at, updated_at"

func scanEpisode(scanner interface{ Scan(dest ...any) error }) (*Episode, error) {
	var (
		id             int64
		videoID        string
		title          string
		duration       float64
		guestNames     sql.NullString
		statusStr      string
		errorMessage   sql.NullString
		retryCount     int
		transcriptMeta sql.NullString
		processedRaw   sql.NullString
		createdRaw     sql.NullString
		updatedRaw     sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&videoID,
		&title,
		&duration,
		&guestNames,
		&statusStr,
		&errorMessage,
		&retryCount,
		&transcriptMeta,
		&processedRaw,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	episode := &Episode{
		ID:                 id,
		VideoID:            videoID,
		Title:              title,
		DurationSeconds:    duration,
		GuestNames:         decodeStringSlice(guestNames.String),
		Status:             Status(statusStr),
		ErrorMessage:       errorMessage.String,
		RetryCount:         retryCount,
		TranscriptMetaJSON: transcriptMeta.String,
	}
	if processedRaw.Valid {
		if processed, err := parseTimeString(processedRaw.String); err == nil {
			episode.ProcessedAt = &processed
		}
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		episode.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		episode.UpdatedAt = updated
	}
	return episode, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func encodeStringSlice(values []string) any {
	if len(values) == 0 {
		return nil
	}
	encoded, err := json.Marshal(values)
	if err != nil {
		return nil
	}
	return string(encoded)
}

func decodeStringSlice(encoded string) []string {
	if encoded == "" {
		return nil
	}
	var values []string
	if err := json.Unmarshal([]byte(encoded), &values); err != nil {
		return nil
	}
	return values
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
