package testsupport

import (
	"context"
	"testing"

	"podshelf/internal/config"
	"podshelf/internal/queue"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewEpisode creates a pending episode for tests using the provided store.
func NewEpisode(t testing.TB, store *queue.Store, videoID, title string) *queue.Episode {
	t.Helper()

	episode, err := store.Add(context.Background(), videoID, title)
	if err != nil {
		t.Fatalf("store.Add: %v", err)
	}
	return episode
}
