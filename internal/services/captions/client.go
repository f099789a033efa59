package captions

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"podshelf/internal/services"
	"podshelf/internal/transcript"
)

const (
	defaultBaseURL     = "https://www.youtube.com"
	defaultHTTPTimeout = 10 * time.Second
)

// Config captures the runtime settings for the caption source.
type Config struct {
	BaseURL        string
	RequestTimeout time.Duration
}

// Client fetches timed captions from a YouTube-style watch page. It
// implements transcript.Source.
type Client struct {
	cfg        Config
	httpClient *http.Client
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

// NewClient constructs a caption source.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	client := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
	}
	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = defaultBaseURL
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

var (
	lengthSecondsPattern = regexp.MustCompile(`"lengthSeconds":"(\d+)"`)
	captionTrackPattern  = regexp.MustCompile(`"captionTracks":\[\{"baseUrl":"([^"]+)"`)
)

// Fetch retrieves the timed caption track for a video along with the video
// duration in seconds. A video with no caption track is services.ErrNotFound;
// the duration is best-effort and may be zero.
func (c *Client) Fetch(ctx context.Context, videoID string) ([]transcript.Segment, float64, error) {
	videoID = strings.TrimSpace(videoID)
	if videoID == "" {
		return nil, 0, services.Wrap(services.ErrValidation, "captions", "fetch", "video id required", nil)
	}

	page, err := c.get(ctx, c.cfg.BaseURL+"/watch?v="+videoID)
	if err != nil {
		return nil, 0, services.Wrap(services.ErrExternalService, "captions", "fetch", "load watch page", err)
	}

	var duration float64
	if match := lengthSecondsPattern.FindSubmatch(page); match != nil {
		if seconds, err := strconv.Atoi(string(match[1])); err == nil {
			duration = float64(seconds)
		}
	}

	match := captionTrackPattern.FindSubmatch(page)
	if match == nil {
		return nil, duration, services.Wrap(services.ErrNotFound, "captions", "fetch", "no caption track for video", nil)
	}
	trackURL := unescapeTrackURL(string(match[1]))
	if strings.HasPrefix(trackURL, "/") {
		trackURL = c.cfg.BaseURL + trackURL
	}
	if !strings.Contains(trackURL, "fmt=json3") {
		separator := "?"
		if strings.Contains(trackURL, "?") {
			separator = "&"
		}
		trackURL += separator + "fmt=json3"
	}

	body, err := c.get(ctx, trackURL)
	if err != nil {
		return nil, duration, services.Wrap(services.ErrExternalService, "captions", "fetch", "load caption track", err)
	}

	segments, err := parseJSON3(body)
	if err != nil {
		return nil, duration, services.Wrap(services.ErrMalformed, "captions", "fetch", "parse caption track", err)
	}
	if len(segments) == 0 {
		return nil, duration, services.Wrap(services.ErrNotFound, "captions", "fetch", "caption track is empty", nil)
	}
	return segments, duration, nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http error: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("http %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// unescapeTrackURL reverses the JSON string escaping the watch page applies
// to embedded URLs.
func unescapeTrackURL(raw string) string {
	replacer := strings.NewReplacer(`\u0026`, "&", `\/`, "/", `\\`, `\`)
	return replacer.Replace(raw)
}

// json3Document mirrors the timedtext json3 wire format.
type json3Document struct {
	Events []struct {
		StartMs    int64 `json:"tStartMs"`
		DurationMs int64 `json:"dDurationMs"`
		Segs       []struct {
			UTF8 string `json:"utf8"`
		} `json:"segs"`
	} `json:"events"`
}

func parseJSON3(body []byte) ([]transcript.Segment, error) {
	var doc json3Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, err
	}
	segments := make([]transcript.Segment, 0, len(doc.Events))
	for _, event := range doc.Events {
		var b strings.Builder
		for _, seg := range event.Segs {
			b.WriteString(seg.UTF8)
		}
		text := strings.TrimSpace(strings.ReplaceAll(b.String(), "\n", " "))
		if text == "" {
			continue
		}
		segments = append(segments, transcript.Segment{
			Text:     text,
			Start:    float64(event.StartMs) / 1000,
			Duration: float64(event.DurationMs) / 1000,
		})
	}
	return segments, nil
}
