package llm

import (
	"context"
	"fmt"

	"podshelf/internal/extraction"
	"podshelf/internal/services"
)

// ExtractionOracle adapts the model client to the extraction pipeline.
type ExtractionOracle struct {
	client *Client
}

// NewExtractionOracle wraps a model client as an extraction oracle.
func NewExtractionOracle(client *Client) *ExtractionOracle {
	return &ExtractionOracle{client: client}
}

// Extract sends one chunk to the model and decodes the structured response.
// Transport failures surface as external-service errors so the orchestrator
// does not burn its strict retry on them; unparseable payloads surface as
// malformed-response errors so it does.
func (o *ExtractionOracle) Extract(ctx context.Context, req extraction.Request) ([]extraction.Candidate, error) {
	prompt := buildExtractionPrompt(req.ChunkText, req.EpisodeTitle, req.Participants, req.Strict)
	content, err := o.client.CompleteJSON(ctx, extractionSystemPrompt, prompt)
	if err != nil {
		return nil, fmt.Errorf("%w: extraction completion: %w", services.ErrExternalService, err)
	}

	// Models occasionally wrap the object in fences or prose anyway.
	candidates, err := extraction.DecodeCandidates(sanitizeJSONPayload(content), 0)
	if err != nil {
		return nil, err
	}
	return candidates, nil
}
