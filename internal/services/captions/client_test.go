package captions

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"podshelf/internal/services"
)

const json3Track = `{"events":[
	{"tStartMs":0,"dDurationMs":4000,"segs":[{"utf8":"welcome to the "},{"utf8":"show"}]},
	{"tStartMs":4000,"dDurationMs":1000,"segs":[{"utf8":"\n"}]},
	{"tStartMs":5000,"dDurationMs":3500,"segs":[{"utf8":"today we talk about books"}]}
]}`

func watchPage(trackPath string) string {
	if trackPath == "" {
		return `<html>{"lengthSeconds":"3600","other":true}</html>`
	}
	return fmt.Sprintf(`<html>{"lengthSeconds":"3600","captionTracks":[{"baseUrl":"%s","languageCode":"en"}]}</html>`, trackPath)
}

func TestFetchParsesTrack(t *testing.T) {
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/watch", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("v") != "vid-1" {
			t.Fatalf("unexpected video id %q", r.URL.Query().Get("v"))
		}
		fmt.Fprint(w, watchPage(`\/api\/timedtext?v=vid-1&lang=en`))
	})
	mux.HandleFunc("/api/timedtext", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("fmt") != "json3" {
			t.Fatalf("expected json3 format, got %q", r.URL.Query().Get("fmt"))
		}
		fmt.Fprint(w, json3Track)
	})

	client := NewClient(Config{BaseURL: server.URL})
	segments, duration, err := client.Fetch(context.Background(), "vid-1")
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if duration != 3600 {
		t.Fatalf("duration = %v, want 3600", duration)
	}
	if len(segments) != 2 {
		t.Fatalf("expected 2 non-empty segments, got %d", len(segments))
	}
	if segments[0].Text != "welcome to the show" || segments[0].Start != 0 || segments[0].Duration != 4 {
		t.Fatalf("unexpected first segment %+v", segments[0])
	}
	if segments[1].Start != 5 || segments[1].Duration != 3.5 {
		t.Fatalf("unexpected second segment %+v", segments[1])
	}
}

func TestFetchNoCaptionTrack(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, watchPage(""))
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL})
	_, duration, err := client.Fetch(context.Background(), "vid-1")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not-found error, got %v", err)
	}
	if duration != 3600 {
		t.Fatalf("duration should still be scraped, got %v", duration)
	}
}

func TestFetchEmptyTrack(t *testing.T) {
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/watch", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, watchPage(`\/api\/timedtext?v=vid-1`))
	})
	mux.HandleFunc("/api/timedtext", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"events":[]}`)
	})

	client := NewClient(Config{BaseURL: server.URL})
	_, _, err := client.Fetch(context.Background(), "vid-1")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not-found error for empty track, got %v", err)
	}
}

func TestFetchServerFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL})
	_, _, err := client.Fetch(context.Background(), "vid-1")
	if !errors.Is(err, services.ErrExternalService) {
		t.Fatalf("expected external service error, got %v", err)
	}
}

func TestFetchRequiresVideoID(t *testing.T) {
	client := NewClient(Config{})
	_, _, err := client.Fetch(context.Background(), "  ")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
