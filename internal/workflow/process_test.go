package workflow

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"podshelf/internal/config"
	"podshelf/internal/extraction"
	"podshelf/internal/logging"
	"podshelf/internal/queue"
	"podshelf/internal/services"
	"podshelf/internal/services/books"
	"podshelf/internal/testsupport"
	"podshelf/internal/transcript"
)

// fakeSource serves a fixed segment list or a scripted error.
type fakeSource struct {
	segments []transcript.Segment
	duration float64
	err      error
}

func (f *fakeSource) Fetch(ctx context.Context, videoID string) ([]transcript.Segment, float64, error) {
	if f.err != nil {
		return nil, 0, f.err
	}
	return f.segments, f.duration, nil
}

// countingOracle answers per call position: calls listed in failOn error out,
// the rest return one candidate named after the call number.
type countingOracle struct {
	mu     sync.Mutex
	calls  int
	failOn map[int]bool
	strict int
}

func (o *countingOracle) Extract(ctx context.Context, req extraction.Request) ([]extraction.Candidate, error) {
	o.mu.Lock()
	call := o.calls
	o.calls++
	if req.Strict {
		o.strict++
	}
	o.mu.Unlock()

	if o.failOn[call] {
		return nil, services.ErrExternalService
	}
	return []extraction.Candidate{{
		Type:       extraction.TypeOther,
		Title:      fmt.Sprintf("Item %d", call),
		Speaker:    "James Clear",
		Confidence: 0.8,
	}}, nil
}

// missCatalog reports every lookup as a miss.
type missCatalog struct{}

func (missCatalog) Lookup(ctx context.Context, title, authorHint string) (books.Volume, error) {
	return books.Volume{}, services.ErrNotFound
}

// completeSegments builds a contiguous transcript that passes verification:
// 15 segments, about 1400 characters, no gaps.
func completeSegments() []transcript.Segment {
	segments := make([]transcript.Segment, 15)
	for i := range segments {
		segments[i] = transcript.Segment{
			Text:     fmt.Sprintf("segment %02d %s", i, strings.Repeat("x", 80)),
			Start:    float64(i) * 10,
			Duration: 10,
		}
	}
	return segments
}

func newTestConfig(t *testing.T, opts ...testsupport.ConfigOption) *config.Config {
	cfg := testsupport.NewConfig(t, opts...)
	cfg.Extraction.ChunkSize = 300
	cfg.Extraction.LookbackWindow = 0
	return cfg
}

func TestProcessPartialChunkFailure(t *testing.T) {
	cfg := newTestConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	episode := testsupport.NewEpisode(t, store, "vid-partial", "Deep Work | Cal Newport (author)")

	oracle := &countingOracle{failOn: map[int]bool{1: true, 3: true}}
	pipeline := NewPipeline(cfg, store, &fakeSource{segments: completeSegments(), duration: 150}, oracle, missCatalog{}, logging.NewNop())

	result, err := pipeline.Process(context.Background(), episode.ID)
	if err != nil {
		t.Fatalf("Process returned error: %v", err)
	}
	if result.Status != queue.StatusCompleted {
		t.Fatalf("status = %q, want completed", result.Status)
	}
	if result.Report.TotalChunks != 5 || result.Report.FailedChunks != 2 {
		t.Fatalf("report chunks = %d/%d failed, want 5/2", result.Report.TotalChunks, result.Report.FailedChunks)
	}
	if result.Report.CoverageVerified {
		t.Fatal("coverage must not verify when chunks failed")
	}
	if result.Recommendations != 3 {
		t.Fatalf("recommendations = %d, want one per surviving chunk", result.Recommendations)
	}

	stored, err := store.GetByID(context.Background(), episode.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.Status != queue.StatusCompleted {
		t.Fatalf("stored status = %q, want completed", stored.Status)
	}
	if len(stored.GuestNames) != 1 || stored.GuestNames[0] != "Cal Newport" {
		t.Fatalf("guest names = %v, want Cal Newport from the title", stored.GuestNames)
	}

	metricsRows, err := store.MetricsForEpisode(context.Background(), episode.ID)
	if err != nil {
		t.Fatalf("MetricsForEpisode: %v", err)
	}
	if len(metricsRows) != 1 {
		t.Fatalf("expected one metric row, got %d", len(metricsRows))
	}
	metric := metricsRows[0]
	if metric.FailedChunks != 2 || metric.CoverageVerified {
		t.Fatalf("metric failed_chunks=%d coverage_verified=%v, want 2/false", metric.FailedChunks, metric.CoverageVerified)
	}
	if !metric.HadErrors {
		t.Fatal("partial chunk failure must flag had_errors")
	}
	if metric.ErrorMessage != "" {
		t.Fatalf("partial failure is not terminal, error message should be empty, got %q", metric.ErrorMessage)
	}
}

func TestProcessTranscriptUnavailable(t *testing.T) {
	cfg := newTestConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	episode := testsupport.NewEpisode(t, store, "vid-missing", "Some Episode")

	source := &fakeSource{err: services.Wrap(services.ErrNotFound, "captions", "fetch", "no caption track for video", nil)}
	pipeline := NewPipeline(cfg, store, source, &countingOracle{}, missCatalog{}, logging.NewNop())

	result, err := pipeline.Process(context.Background(), episode.ID)
	if err != nil {
		t.Fatalf("Process returned error: %v", err)
	}
	if result.Status != queue.StatusFailed {
		t.Fatalf("status = %q, want failed", result.Status)
	}
	if !strings.HasPrefix(result.FailureReason, queue.ReasonTranscriptUnavailable) {
		t.Fatalf("failure reason = %q, want %s prefix", result.FailureReason, queue.ReasonTranscriptUnavailable)
	}

	stored, err := store.GetByID(context.Background(), episode.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.Status != queue.StatusFailed {
		t.Fatalf("stored status = %q, want failed", stored.Status)
	}

	metricsRows, err := store.MetricsForEpisode(context.Background(), episode.ID)
	if err != nil {
		t.Fatalf("MetricsForEpisode: %v", err)
	}
	if len(metricsRows) != 1 {
		t.Fatalf("expected one metric row, got %d", len(metricsRows))
	}
	metric := metricsRows[0]
	if metric.TotalChunks != 0 || metric.CharactersSent != 0 || metric.CandidatesFound != 0 {
		t.Fatalf("pre-extraction failure must record zero chunk data, got %+v", metric)
	}
	if !metric.HadErrors || metric.ErrorMessage == "" {
		t.Fatal("terminal failure must flag had_errors with a message")
	}
}

func TestProcessIncompleteTranscript(t *testing.T) {
	cfg := newTestConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	episode := testsupport.NewEpisode(t, store, "vid-short", "Short Episode")

	source := &fakeSource{segments: []transcript.Segment{
		{Text: "too short", Start: 0, Duration: 5},
		{Text: "to use", Start: 5, Duration: 5},
	}, duration: 3600}
	oracle := &countingOracle{}
	pipeline := NewPipeline(cfg, store, source, oracle, missCatalog{}, logging.NewNop())

	result, err := pipeline.Process(context.Background(), episode.ID)
	if err != nil {
		t.Fatalf("Process returned error: %v", err)
	}
	if result.Status != queue.StatusFailed {
		t.Fatalf("status = %q, want failed", result.Status)
	}
	if !strings.HasPrefix(result.FailureReason, queue.ReasonIncompleteTranscript) {
		t.Fatalf("failure reason = %q, want %s prefix", result.FailureReason, queue.ReasonIncompleteTranscript)
	}
	if oracle.calls != 0 {
		t.Fatalf("incomplete transcripts must never reach extraction, got %d calls", oracle.calls)
	}

	stored, err := store.GetByID(context.Background(), episode.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.TranscriptMetaJSON == "" {
		t.Fatal("verification summary should be stored even when incomplete")
	}
}

func TestProcessAllChunksFail(t *testing.T) {
	cfg := newTestConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	episode := testsupport.NewEpisode(t, store, "vid-dead", "Dead Episode")

	oracle := &countingOracle{failOn: map[int]bool{0: true, 1: true, 2: true, 3: true, 4: true}}
	pipeline := NewPipeline(cfg, store, &fakeSource{segments: completeSegments(), duration: 150}, oracle, missCatalog{}, logging.NewNop())

	result, err := pipeline.Process(context.Background(), episode.ID)
	if err != nil {
		t.Fatalf("Process returned error: %v", err)
	}
	if result.Status != queue.StatusFailed {
		t.Fatalf("status = %q, want failed when every chunk fails", result.Status)
	}

	recommendations, err := store.RecommendationsForEpisode(context.Background(), episode.ID)
	if err != nil {
		t.Fatalf("RecommendationsForEpisode: %v", err)
	}
	if len(recommendations) != 0 {
		t.Fatalf("failed run must not persist recommendations, got %d", len(recommendations))
	}
}

func TestProcessSkipsNonPendingEpisode(t *testing.T) {
	cfg := newTestConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	episode := testsupport.NewEpisode(t, store, "vid-claimed", "Claimed Episode")

	claimed, err := store.Claim(context.Background(), episode.ID)
	if err != nil || !claimed {
		t.Fatalf("setup claim failed: claimed=%v err=%v", claimed, err)
	}

	oracle := &countingOracle{}
	pipeline := NewPipeline(cfg, store, &fakeSource{segments: completeSegments(), duration: 150}, oracle, missCatalog{}, logging.NewNop())

	result, err := pipeline.Process(context.Background(), episode.ID)
	if err != nil {
		t.Fatalf("Process returned error: %v", err)
	}
	if result.Claimed {
		t.Fatal("already-processing episode must not be claimed again")
	}
	if oracle.calls != 0 {
		t.Fatalf("skipped episode must not reach extraction, got %d calls", oracle.calls)
	}
}

func TestProcessUnknownEpisode(t *testing.T) {
	cfg := newTestConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	pipeline := NewPipeline(cfg, store, &fakeSource{segments: completeSegments(), duration: 150}, &countingOracle{}, missCatalog{}, logging.NewNop())

	result, err := pipeline.Process(context.Background(), 9999)
	if err == nil {
		t.Fatal("processing an unknown episode id must fail")
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Fatalf("error = %v, want a not-found message", err)
	}
	if result.Claimed {
		t.Fatal("unknown episode must not be claimed")
	}
}

func TestProcessPendingDrainsQueue(t *testing.T) {
	cfg := newTestConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	testsupport.NewEpisode(t, store, "vid-a", "Episode A")
	testsupport.NewEpisode(t, store, "vid-b", "Episode B")
	testsupport.NewEpisode(t, store, "vid-c", "Episode C")

	pipeline := NewPipeline(cfg, store, &fakeSource{segments: completeSegments(), duration: 150}, &countingOracle{}, missCatalog{}, logging.NewNop())

	processed, err := pipeline.ProcessPending(context.Background(), 0)
	if err != nil {
		t.Fatalf("ProcessPending: %v", err)
	}
	if processed != 3 {
		t.Fatalf("processed = %d, want 3", processed)
	}

	summary, err := store.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if summary.Pending != 0 || summary.Completed != 3 {
		t.Fatalf("summary = %+v, want all completed", summary)
	}
}
