package extraction

import (
	"context"
	"encoding/json"
	"fmt"

	"podshelf/internal/services"
)

// Request carries one chunk plus the episode context the oracle needs to
// attribute speakers.
type Request struct {
	ChunkText    string
	EpisodeTitle string
	Participants []string
	// Strict requests a more constrained instruction after a malformed
	// response.
	Strict bool
}

// Oracle turns unstructured chunk text into candidate items. Implementations
// are treated as unreliable and possibly non-deterministic; an unparseable
// response is reported via services.ErrMalformed.
type Oracle interface {
	Extract(ctx context.Context, req Request) ([]Candidate, error)
}

// DecodeCandidates parses the oracle's JSON payload
// ({"recommendations": [...]}) and sanitizes each item. Invalid items are
// skipped; an unparseable payload is a malformed-response error.
func DecodeCandidates(payload string, chunkIndex int) ([]Candidate, error) {
	var parsed struct {
		Recommendations []rawCandidate `json:"recommendations"`
	}
	if err := json.Unmarshal([]byte(payload), &parsed); err != nil {
		return nil, fmt.Errorf("%w: decode recommendations: %v", services.ErrMalformed, err)
	}
	candidates := make([]Candidate, 0, len(parsed.Recommendations))
	for _, raw := range parsed.Recommendations {
		if candidate, ok := raw.sanitize(chunkIndex); ok {
			candidates = append(candidates, candidate)
		}
	}
	return candidates, nil
}
