package extraction

import (
	"context"
	"errors"
	"log/slog"

	"podshelf/internal/chunker"
	"podshelf/internal/logging"
	"podshelf/internal/services"
)

// Report summarizes one extraction pass over an episode's chunks. It feeds
// the processing metric and never aborts a run on its own.
type Report struct {
	TotalChunks      int
	FailedChunks     int
	CharactersSent   int
	FirstChunkStart  int
	LastChunkEnd     int
	CandidatesFound  int
	CoverageVerified bool
}

// EpisodeContext is the unit context sent along with every chunk.
type EpisodeContext struct {
	Title        string
	Participants []string
}

// Orchestrator drives the extraction oracle over an ordered chunk list.
type Orchestrator struct {
	oracle Oracle
	logger *slog.Logger
}

// NewOrchestrator constructs an orchestrator around the given oracle.
func NewOrchestrator(oracle Oracle, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		oracle: oracle,
		logger: logging.NewComponentLogger(logger, "extraction"),
	}
}

// ExtractAll submits chunks to the oracle in index order and collects
// sanitized candidates. A chunk whose response stays malformed after one
// strict retry contributes zero items; the run only fails when every chunk
// fails. CoverageVerified is true only when the chunk ranges span the
// transcript and every chunk was processed, so a partial failure clears it.
// An unverified run is a quality defect, not a fatal error.
func (o *Orchestrator) ExtractAll(ctx context.Context, chunks []chunker.Chunk, epCtx EpisodeContext, transcriptLen int) ([]Candidate, Report, error) {
	report := Report{TotalChunks: len(chunks)}
	if len(chunks) == 0 {
		return nil, report, services.Wrap(services.ErrValidation, "extraction", "extract all", "no chunks to process", nil)
	}

	var all []Candidate
	var processed int
	for _, chunk := range chunks {
		report.CharactersSent += chunk.Len()

		candidates, err := o.extractChunk(ctx, chunk, epCtx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil, report, err
			}
			report.FailedChunks++
			o.logger.Warn("chunk extraction failed, continuing without it",
				logging.Int("chunk_index", chunk.Index),
				logging.Error(err),
				logging.String(logging.FieldEventType, "chunk_extraction_failed"),
			)
			continue
		}
		processed += chunk.Len()
		all = append(all, candidates...)
	}
	report.CandidatesFound = len(all)

	if report.FailedChunks == report.TotalChunks {
		return nil, report, services.Wrap(services.ErrExternalService, "extraction", "extract all",
			"extraction oracle failed on every chunk", nil)
	}

	report.FirstChunkStart = chunks[0].StartOffset
	report.LastChunkEnd = chunks[len(chunks)-1].EndOffset
	report.CoverageVerified = processed == transcriptLen && chunker.Coverage(chunks, transcriptLen)
	if !report.CoverageVerified {
		o.logger.Warn("extraction did not cover the full transcript",
			logging.Int("characters_processed", processed),
			logging.Int("transcript_length", transcriptLen),
			logging.Int("failed_chunks", report.FailedChunks),
			logging.String(logging.FieldEventType, "coverage_violation"),
		)
	}

	return all, report, nil
}

// extractChunk performs one oracle call, retrying exactly once with the
// strict instruction when the response is malformed.
func (o *Orchestrator) extractChunk(ctx context.Context, chunk chunker.Chunk, epCtx EpisodeContext) ([]Candidate, error) {
	req := Request{
		ChunkText:    chunk.Text,
		EpisodeTitle: epCtx.Title,
		Participants: epCtx.Participants,
	}
	candidates, err := o.oracle.Extract(ctx, req)
	if err == nil {
		return tagChunk(candidates, chunk.Index), nil
	}
	if !errors.Is(err, services.ErrMalformed) {
		return nil, err
	}

	o.logger.Debug("malformed oracle response, retrying with strict instruction",
		logging.Int("chunk_index", chunk.Index),
		logging.Error(err),
	)
	req.Strict = true
	candidates, err = o.oracle.Extract(ctx, req)
	if err != nil {
		return nil, err
	}
	return tagChunk(candidates, chunk.Index), nil
}

func tagChunk(candidates []Candidate, index int) []Candidate {
	for i := range candidates {
		candidates[i].ChunkIndex = index
	}
	return candidates
}
