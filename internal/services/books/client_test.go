package books

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/cenkalti/backoff/v4"

	"podshelf/internal/services"
)

func immediateBackoff() backoff.BackOff {
	return backoff.WithMaxRetries(&backoff.ZeroBackOff{}, 3)
}

func volumePayload() map[string]any {
	return map[string]any{
		"totalItems": 1,
		"items": []any{
			map[string]any{
				"id": "vol123",
				"volumeInfo": map[string]any{
					"title":         "Atomic Habits",
					"authors":       []string{"James Clear"},
					"publisher":     "Avery",
					"publishedDate": "2018-10-16",
					"pageCount":     320,
					"industryIdentifiers": []any{
						map[string]string{"type": "ISBN_13", "identifier": "9780735211292"},
						map[string]string{"type": "ISBN_10", "identifier": "0735211299"},
					},
					"imageLinks": map[string]string{"thumbnail": "http://books.google.com/thumb.jpg"},
				},
			},
		},
	}
}

func TestLookupStrictQuery(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		_ = json.NewEncoder(w).Encode(volumePayload())
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL}, WithBackoff(immediateBackoff))
	volume, err := client.Lookup(context.Background(), "Atomic Habits", "James Clear")
	if err != nil {
		t.Fatalf("Lookup returned error: %v", err)
	}
	if gotQuery != "intitle:Atomic Habits+inauthor:James Clear" {
		t.Fatalf("unexpected query %q", gotQuery)
	}
	if volume.CatalogID != "vol123" || volume.ISBN13 != "9780735211292" {
		t.Fatalf("unexpected volume %+v", volume)
	}
	if volume.PublishedYear() != "2018" {
		t.Fatalf("published year = %q", volume.PublishedYear())
	}
}

func TestLookupRelaxedFallback(t *testing.T) {
	var queries []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		queries = append(queries, q)
		if len(queries) == 1 {
			_ = json.NewEncoder(w).Encode(map[string]any{"totalItems": 0})
			return
		}
		_ = json.NewEncoder(w).Encode(volumePayload())
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL}, WithBackoff(immediateBackoff))
	volume, err := client.Lookup(context.Background(), "Atomic Habits", "James Clear")
	if err != nil {
		t.Fatalf("Lookup returned error: %v", err)
	}
	if len(queries) != 2 {
		t.Fatalf("expected strict then relaxed query, got %v", queries)
	}
	if queries[1] != "Atomic Habits James Clear" {
		t.Fatalf("relaxed query = %q", queries[1])
	}
	if volume.Title != "Atomic Habits" {
		t.Fatalf("unexpected volume %+v", volume)
	}
}

func TestLookupNoMatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"totalItems": 0})
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL}, WithBackoff(immediateBackoff))
	_, err := client.Lookup(context.Background(), "No Such Book", "")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestSearchRetriesServerError(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(volumePayload())
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL}, WithBackoff(immediateBackoff))
	if _, err := client.Lookup(context.Background(), "Atomic Habits", ""); err != nil {
		t.Fatalf("Lookup returned error: %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected retry after 500, got %d calls", calls.Load())
	}
}

func TestSearchDoesNotRetryForbidden(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL}, WithBackoff(immediateBackoff))
	_, err := client.Lookup(context.Background(), "Atomic Habits", "")
	if !errors.Is(err, services.ErrExternalService) {
		t.Fatalf("expected external service error, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("403 must not be retried, got %d calls", calls.Load())
	}
}

func TestISBN13To10(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"9780735211292", "0735211299"},
		{"978-0-7352-1129-2", "0735211299"},
		{"9780306406157", "0306406152"},
		{"9790306406157", ""},
		{"123", ""},
	}
	for _, tc := range cases {
		if got := ISBN13To10(tc.in); got != tc.want {
			t.Fatalf("ISBN13To10(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCoverImageURLPreference(t *testing.T) {
	withISBN10 := Volume{ISBN10: "0735211299"}
	if got := withISBN10.CoverImageURL(); got != "https://images-na.ssl-images-amazon.com/images/P/0735211299.01._SCLZZZZZZZ_SX500_.jpg" {
		t.Fatalf("amazon cover = %q", got)
	}

	isbn13Only := Volume{ISBN13: "9790306406157"}
	if got := isbn13Only.CoverImageURL(); got != "https://covers.openlibrary.org/b/isbn/9790306406157-L.jpg" {
		t.Fatalf("open library cover = %q", got)
	}

	thumbOnly := Volume{ThumbnailURL: "http://books.google.com/thumb.jpg"}
	if got := thumbOnly.CoverImageURL(); got != "https://books.google.com/thumb.jpg" {
		t.Fatalf("thumbnail cover = %q", got)
	}

	if got := (Volume{}).CoverImageURL(); got != "" {
		t.Fatalf("empty volume cover = %q", got)
	}
}

func TestPurchaseURL(t *testing.T) {
	v := Volume{Title: "Atomic Habits", Authors: []string{"James Clear"}}
	if got := v.PurchaseURL(); got != "https://www.amazon.com/s?k=Atomic+Habits+James+Clear" {
		t.Fatalf("purchase url = %q", got)
	}
	if got := (Volume{}).PurchaseURL(); got != "" {
		t.Fatalf("empty purchase url = %q", got)
	}
}
