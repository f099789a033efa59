package books

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"podshelf/internal/services"
)

const (
	defaultBaseURL     = "https://www.googleapis.com/books/v1/volumes"
	defaultHTTPTimeout = 10 * time.Second
	maxResults         = 5
	maxRetryElapsed    = 15 * time.Second
)

// Config captures the runtime settings for the catalog client.
type Config struct {
	APIKey         string
	BaseURL        string
	RequestTimeout time.Duration
}

// Client queries a Google Books style volumes API.
type Client struct {
	cfg        Config
	httpClient *http.Client
	newBackoff func() backoff.BackOff
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBackoff overrides retry pacing (useful for tests).
func WithBackoff(factory func() backoff.BackOff) Option {
	return func(c *Client) {
		if factory != nil {
			c.newBackoff = factory
		}
	}
}

// NewClient constructs a catalog client.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	client := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		newBackoff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.MaxElapsedTime = maxRetryElapsed
			return b
		},
	}
	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = defaultBaseURL
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Lookup searches the catalog by title and optional author hint. It tries a
// fielded intitle/inauthor query first, then one relaxed free-text query.
// A volume that simply is not in the catalog is services.ErrNotFound.
func (c *Client) Lookup(ctx context.Context, title, authorHint string) (Volume, error) {
	title = strings.TrimSpace(title)
	authorHint = strings.TrimSpace(authorHint)
	if title == "" {
		return Volume{}, services.Wrap(services.ErrValidation, "books", "lookup", "title required", nil)
	}

	strictQuery := "intitle:" + title
	if authorHint != "" {
		strictQuery += "+inauthor:" + authorHint
	}
	volume, err := c.search(ctx, strictQuery)
	if err == nil {
		return volume, nil
	}
	if !services.IsUnavailableInput(err) {
		return Volume{}, err
	}

	relaxedQuery := title
	if authorHint != "" {
		relaxedQuery += " " + authorHint
	}
	return c.search(ctx, relaxedQuery)
}

type volumesResponse struct {
	TotalItems int `json:"totalItems"`
	Items      []struct {
		ID         string `json:"id"`
		VolumeInfo struct {
			Title               string   `json:"title"`
			Subtitle            string   `json:"subtitle"`
			Authors             []string `json:"authors"`
			Publisher           string   `json:"publisher"`
			PublishedDate       string   `json:"publishedDate"`
			Description         string   `json:"description"`
			PageCount           int      `json:"pageCount"`
			IndustryIdentifiers []struct {
				Type       string `json:"type"`
				Identifier string `json:"identifier"`
			} `json:"industryIdentifiers"`
			ImageLinks struct {
				Thumbnail      string `json:"thumbnail"`
				SmallThumbnail string `json:"smallThumbnail"`
			} `json:"imageLinks"`
		} `json:"volumeInfo"`
	} `json:"items"`
}

func (c *Client) search(ctx context.Context, query string) (Volume, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("maxResults", fmt.Sprintf("%d", maxResults))
	params.Set("printType", "books")
	params.Set("langRestrict", "en")
	if c.cfg.APIKey != "" {
		params.Set("key", c.cfg.APIKey)
	}
	endpoint := c.cfg.BaseURL + "?" + params.Encode()

	var parsed volumesResponse
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("books request: new request: %w", err))
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return fmt.Errorf("books request: http error: %w", err)
		}
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("books request: read body: %w", err)
		}
		if resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests {
			return fmt.Errorf("books request: http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("books request: http %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
		}
		if err := json.Unmarshal(body, &parsed); err != nil {
			return backoff.Permanent(fmt.Errorf("books request: decode response: %w", err))
		}
		return nil
	}
	if err := backoff.Retry(op, backoff.WithContext(c.newBackoff(), ctx)); err != nil {
		return Volume{}, services.Wrap(services.ErrExternalService, "books", "search", "catalog query failed", err)
	}

	if parsed.TotalItems == 0 || len(parsed.Items) == 0 {
		return Volume{}, services.Wrap(services.ErrNotFound, "books", "search", "no catalog match for query", nil)
	}

	item := parsed.Items[0]
	volume := Volume{
		CatalogID:     item.ID,
		Title:         item.VolumeInfo.Title,
		Subtitle:      item.VolumeInfo.Subtitle,
		Authors:       item.VolumeInfo.Authors,
		Publisher:     item.VolumeInfo.Publisher,
		PublishedDate: item.VolumeInfo.PublishedDate,
		Description:   item.VolumeInfo.Description,
		PageCount:     item.VolumeInfo.PageCount,
	}
	for _, id := range item.VolumeInfo.IndustryIdentifiers {
		switch id.Type {
		case "ISBN_10":
			volume.ISBN10 = id.Identifier
		case "ISBN_13":
			volume.ISBN13 = id.Identifier
		}
	}
	if volume.ThumbnailURL = item.VolumeInfo.ImageLinks.Thumbnail; volume.ThumbnailURL == "" {
		volume.ThumbnailURL = item.VolumeInfo.ImageLinks.SmallThumbnail
	}
	return volume, nil
}
