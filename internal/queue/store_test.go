package queue_test

import (
	"context"
	"fmt"
	"testing"

	"podshelf/internal/queue"
	"podshelf/internal/testsupport"
)

func TestOpenCreatesSchema(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	episode, err := store.Add(ctx, "vid-1", "Episode One")
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if episode.ID == 0 {
		t.Fatal("expected episode ID to be assigned")
	}
	if episode.Status != queue.StatusPending {
		t.Fatalf("new episode status = %s", episode.Status)
	}

	fetched, err := store.GetByVideoID(ctx, "vid-1")
	if err != nil {
		t.Fatalf("GetByVideoID failed: %v", err)
	}
	if fetched == nil || fetched.Title != "Episode One" {
		t.Fatalf("unexpected fetched episode: %#v", fetched)
	}
}

func TestAddIsIdempotentPerVideoID(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	first, err := store.Add(ctx, "vid-1", "Episode One")
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	second, err := store.Add(ctx, "vid-1", "Different Title")
	if err != nil {
		t.Fatalf("second Add failed: %v", err)
	}
	if second.ID != first.ID || second.Title != "Episode One" {
		t.Fatalf("duplicate add must return the existing episode, got %#v", second)
	}
}

func TestClaimIsCompareAndSet(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	episode := testsupport.NewEpisode(t, store, "vid-1", "Episode One")

	claimed, err := store.Claim(ctx, episode.ID)
	if err != nil {
		t.Fatalf("Claim failed: %v", err)
	}
	if !claimed {
		t.Fatal("expected first claim to win")
	}

	again, err := store.Claim(ctx, episode.ID)
	if err != nil {
		t.Fatalf("second Claim failed: %v", err)
	}
	if again {
		t.Fatal("second claim must lose")
	}

	fetched, err := store.GetByID(ctx, episode.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched.Status != queue.StatusProcessing {
		t.Fatalf("status = %s, want processing", fetched.Status)
	}
}

func TestMarkCompletedStampsProcessedAt(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	episode := testsupport.NewEpisode(t, store, "vid-1", "Episode One")
	if _, err := store.Claim(ctx, episode.ID); err != nil {
		t.Fatalf("Claim failed: %v", err)
	}
	if err := store.MarkCompleted(ctx, episode.ID); err != nil {
		t.Fatalf("MarkCompleted failed: %v", err)
	}

	fetched, err := store.GetByID(ctx, episode.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched.Status != queue.StatusCompleted {
		t.Fatalf("status = %s, want completed", fetched.Status)
	}
	if fetched.ProcessedAt == nil {
		t.Fatal("processed_at must be stamped")
	}
}

func TestMarkFailedRecordsReason(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	episode := testsupport.NewEpisode(t, store, "vid-1", "Episode One")
	if _, err := store.Claim(ctx, episode.ID); err != nil {
		t.Fatalf("Claim failed: %v", err)
	}
	if err := store.MarkFailed(ctx, episode.ID, queue.ReasonTranscriptUnavailable); err != nil {
		t.Fatalf("MarkFailed failed: %v", err)
	}

	fetched, err := store.GetByID(ctx, episode.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched.Status != queue.StatusFailed {
		t.Fatalf("status = %s, want failed", fetched.Status)
	}
	if fetched.ErrorMessage != queue.ReasonTranscriptUnavailable {
		t.Fatalf("error message = %q", fetched.ErrorMessage)
	}
}

func TestRetryFailedRespectsBound(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		episode := testsupport.NewEpisode(t, store, fmt.Sprintf("vid-%d", i), "Episode")
		if _, err := store.Claim(ctx, episode.ID); err != nil {
			t.Fatalf("Claim failed: %v", err)
		}
		if err := store.MarkFailed(ctx, episode.ID, "boom"); err != nil {
			t.Fatalf("MarkFailed failed: %v", err)
		}
	}

	const maxRetries = 2
	for cycle := 1; cycle <= maxRetries; cycle++ {
		moved, err := store.RetryFailed(ctx, maxRetries)
		if err != nil {
			t.Fatalf("RetryFailed failed: %v", err)
		}
		if moved != 3 {
			t.Fatalf("cycle %d moved %d episodes, want 3", cycle, moved)
		}
		episodes, err := store.List(ctx, queue.StatusPending)
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		for _, episode := range episodes {
			if episode.RetryCount != cycle {
				t.Fatalf("retry count = %d, want %d", episode.RetryCount, cycle)
			}
			if _, err := store.Claim(ctx, episode.ID); err != nil {
				t.Fatalf("Claim failed: %v", err)
			}
			if err := store.MarkFailed(ctx, episode.ID, "boom"); err != nil {
				t.Fatalf("MarkFailed failed: %v", err)
			}
		}
	}

	moved, err := store.RetryFailed(ctx, maxRetries)
	if err != nil {
		t.Fatalf("RetryFailed failed: %v", err)
	}
	if moved != 0 {
		t.Fatalf("episodes past the retry bound must stay failed, moved %d", moved)
	}
}

func TestResetStuckProcessing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	episode := testsupport.NewEpisode(t, store, "vid-1", "Episode One")
	if _, err := store.Claim(ctx, episode.ID); err != nil {
		t.Fatalf("Claim failed: %v", err)
	}

	moved, err := store.ResetStuckProcessing(ctx)
	if err != nil {
		t.Fatalf("ResetStuckProcessing failed: %v", err)
	}
	if moved != 1 {
		t.Fatalf("moved = %d, want 1", moved)
	}

	fetched, err := store.GetByID(ctx, episode.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched.Status != queue.StatusPending {
		t.Fatalf("status = %s, want pending", fetched.Status)
	}
	if fetched.RetryCount != 0 {
		t.Fatal("reset must not consume a retry")
	}
}

func TestUpdateMetadataRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	episode := testsupport.NewEpisode(t, store, "vid-1", "Episode One")
	if err := store.UpdateMetadata(ctx, episode.ID, 3600.5, []string{"Jane Doe"}, `{"segments":120}`); err != nil {
		t.Fatalf("UpdateMetadata failed: %v", err)
	}

	fetched, err := store.GetByID(ctx, episode.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched.DurationSeconds != 3600.5 {
		t.Fatalf("duration = %v", fetched.DurationSeconds)
	}
	if len(fetched.GuestNames) != 1 || fetched.GuestNames[0] != "Jane Doe" {
		t.Fatalf("guest names = %v", fetched.GuestNames)
	}
	if fetched.TranscriptMetaJSON != `{"segments":120}` {
		t.Fatalf("transcript meta = %q", fetched.TranscriptMetaJSON)
	}
}

func TestSaveRecommendationsReplacesOnReprocess(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	episode := testsupport.NewEpisode(t, store, "vid-1", "Episode One")
	first := []queue.Recommendation{
		{Type: "book", Title: "Old Run", Confidence: 0.5, MentionCount: 1},
	}
	if err := store.SaveRecommendations(ctx, episode.ID, first); err != nil {
		t.Fatalf("SaveRecommendations failed: %v", err)
	}

	second := []queue.Recommendation{
		{Type: "book", Title: "Atomic Habits", AuthorCreator: "James Clear", Quotes: []string{"q1", "q2"}, Speakers: []string{"Jane Doe"}, Confidence: 0.95, MentionCount: 2, DisplayEligible: true, EnrichmentJSON: `{"isbn_13":"9780735211292"}`},
		{Type: "media", Title: "The Wire", Confidence: 0.7, MentionCount: 1},
	}
	if err := store.SaveRecommendations(ctx, episode.ID, second); err != nil {
		t.Fatalf("second SaveRecommendations failed: %v", err)
	}

	items, err := store.RecommendationsForEpisode(ctx, episode.ID)
	if err != nil {
		t.Fatalf("RecommendationsForEpisode failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 rows after reprocess, got %d", len(items))
	}
	if items[0].Title != "Atomic Habits" || len(items[0].Quotes) != 2 {
		t.Fatalf("unexpected first row %#v", items[0])
	}

	eligible, err := store.EligibleRecommendations(ctx, 0)
	if err != nil {
		t.Fatalf("EligibleRecommendations failed: %v", err)
	}
	if len(eligible) != 1 || eligible[0].Title != "Atomic Habits" {
		t.Fatalf("unexpected eligible rows %#v", eligible)
	}
}

func TestInsertMetricAppendOnly(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	episode := testsupport.NewEpisode(t, store, "vid-1", "Episode One")
	for run := 0; run < 2; run++ {
		metric := &queue.ProcessingMetric{
			EpisodeID:          episode.ID,
			Phase:              "phase_1",
			TotalSegments:      120,
			CharacterCount:     24000,
			CoveragePercent:    98.5,
			TranscriptComplete: true,
			TotalChunks:        2,
			CharactersSent:     24000,
			CoverageVerified:   true,
			CandidatesFound:    4,
			BooksFound:         3,
			MediaFound:         1,
			Model:              "demo-model",
			EstimatedCostUSD:   0.018,
		}
		if err := store.InsertMetric(ctx, metric); err != nil {
			t.Fatalf("InsertMetric failed: %v", err)
		}
		if metric.ID == 0 {
			t.Fatal("expected metric ID to be assigned")
		}
	}

	metrics, err := store.MetricsForEpisode(ctx, episode.ID)
	if err != nil {
		t.Fatalf("MetricsForEpisode failed: %v", err)
	}
	if len(metrics) != 2 {
		t.Fatalf("expected 2 run records, got %d", len(metrics))
	}
	if !metrics[0].CoverageVerified || metrics[0].BooksFound != 3 {
		t.Fatalf("unexpected metric %#v", metrics[0])
	}
}

func TestStats(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		testsupport.NewEpisode(t, store, fmt.Sprintf("vid-%d", i), "Episode")
	}
	if _, err := store.Claim(ctx, 1); err != nil {
		t.Fatalf("Claim failed: %v", err)
	}
	if err := store.MarkCompleted(ctx, 1); err != nil {
		t.Fatalf("MarkCompleted failed: %v", err)
	}
	if _, err := store.Claim(ctx, 2); err != nil {
		t.Fatalf("Claim failed: %v", err)
	}
	if err := store.MarkFailed(ctx, 2, "boom"); err != nil {
		t.Fatalf("MarkFailed failed: %v", err)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Total != 4 || stats.Pending != 2 || stats.Completed != 1 || stats.Failed != 1 {
		t.Fatalf("unexpected stats %#v", stats)
	}
}

func TestParseStatus(t *testing.T) {
	if _, ok := queue.ParseStatus("pending"); !ok {
		t.Fatal("pending must parse")
	}
	if _, ok := queue.ParseStatus("ripping"); ok {
		t.Fatal("unknown status must not parse")
	}
}

func TestPhaseSummaries(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	first := testsupport.NewEpisode(t, store, "vid-1", "Episode One")
	second := testsupport.NewEpisode(t, store, "vid-2", "Episode Two")

	inserts := []*queue.ProcessingMetric{
		{EpisodeID: first.ID, Phase: "phase_1", TranscriptComplete: true, EstimatedCostUSD: 0.02, ProcessingTimeSeconds: 10},
		{EpisodeID: first.ID, Phase: "phase_1", TranscriptComplete: true, EstimatedCostUSD: 0.04, ProcessingTimeSeconds: 30, HadErrors: true},
		{EpisodeID: second.ID, Phase: "phase_2", TranscriptComplete: false, EstimatedCostUSD: 0, ProcessingTimeSeconds: 1, HadErrors: true},
	}
	for _, metric := range inserts {
		if err := store.InsertMetric(ctx, metric); err != nil {
			t.Fatalf("InsertMetric failed: %v", err)
		}
	}

	summaries, err := store.PhaseSummaries(ctx)
	if err != nil {
		t.Fatalf("PhaseSummaries failed: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("expected 2 phases, got %d", len(summaries))
	}

	phase1 := summaries[0]
	if phase1.Phase != "phase_1" || phase1.Runs != 2 || phase1.Episodes != 1 {
		t.Fatalf("unexpected phase_1 summary %+v", phase1)
	}
	if diff := phase1.TotalCostUSD - 0.06; diff < -1e-9 || diff > 1e-9 {
		t.Fatalf("phase_1 total cost = %v, want 0.06", phase1.TotalCostUSD)
	}
	if diff := phase1.AvgTimeSeconds - 20; diff < -1e-9 || diff > 1e-9 {
		t.Fatalf("phase_1 avg time = %v, want 20", phase1.AvgTimeSeconds)
	}
	if phase1.CompleteRate != 1 || phase1.ErrorRate != 0.5 {
		t.Fatalf("phase_1 rates = %v complete, %v errors", phase1.CompleteRate, phase1.ErrorRate)
	}

	phase2 := summaries[1]
	if phase2.Phase != "phase_2" || phase2.Runs != 1 || phase2.ErrorRate != 1 {
		t.Fatalf("unexpected phase_2 summary %+v", phase2)
	}
}
