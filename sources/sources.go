// Package sources implements the ingestion scrapers that feed posts into
// the record store: Singapore subreddits, the HardwareZone EDMW forum and
// local news feeds.
package sources

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/zombar/painscope/db"
	"github.com/zombar/painscope/metrics"
	"github.com/zombar/painscope/models"
)

// PainKeywords are the phrases that mark a post as a pain point candidate.
var PainKeywords = []string{
	"frustrated", "hate", "annoying", "waste of time",
	"how do I", "anyone else", "problem with", "issue with",
	"terrible", "horrible", "worst", "ridiculous",
	"expensive", "overpriced", "rip off", "scam",
	"slow", "inefficient", "broken", "doesn't work",
	"help me", "need advice", "struggling with",
}

// newsPainKeywords extend PainKeywords for news coverage, which reports
// complaints rather than voicing them.
var newsPainKeywords = []string{
	"complaint", "complain", "upset", "angry", "outrage",
	"concern", "worried", "issue", "problem", "fail",
	"delay", "shortage", "increase", "hike", "expensive",
}

// Store is the record store surface the scrapers depend on.
type Store interface {
	InsertPost(p *models.Post) (string, error)
}

// Config contains scraper configuration
type Config struct {
	UserAgent    string
	HTTPTimeout  time.Duration
	RequestDelay time.Duration // pause between page fetches
	MaxRetries   int
	RetryDelay   time.Duration
	PainKeywords []string
}

// DefaultConfig returns default scraper configuration
func DefaultConfig() Config {
	return Config{
		UserAgent:    "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
		HTTPTimeout:  30 * time.Second,
		RequestDelay: 2 * time.Second,
		MaxRetries:   3,
		RetryDelay:   5 * time.Second,
		PainKeywords: PainKeywords,
	}
}

// Result summarizes one scraper run.
type Result struct {
	Scraped int `json:"scraped"`
	Saved   int `json:"saved"`
}

// IsPainPointCandidate reports whether text contains any of the given
// keywords, case-insensitively.
func IsPainPointCandidate(keywords []string, text string) bool {
	lower := strings.ToLower(text)
	for _, keyword := range keywords {
		if strings.Contains(lower, strings.ToLower(keyword)) {
			return true
		}
	}
	return false
}

// fetcher wraps an HTTP client with the retry and pacing policy shared by
// the scrapers.
type fetcher struct {
	config     Config
	httpClient *http.Client
}

func newFetcher(config Config) *fetcher {
	return &fetcher{
		config: config,
		httpClient: &http.Client{
			Timeout:   config.HTTPTimeout,
			Transport: otelhttp.NewTransport(nil),
		},
	}
}

// get fetches a URL, retrying transient failures up to MaxRetries times.
func (f *fetcher) get(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt < f.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(f.config.RetryDelay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		body, err := f.getOnce(ctx, url)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}
	return nil, fmt.Errorf("failed to fetch %s after %d attempts: %w", url, f.config.MaxRetries, lastErr)
}

func (f *fetcher) getOnce(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.config.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}
	return io.ReadAll(resp.Body)
}

// pause sleeps for the configured request delay, returning early when the
// context is cancelled.
func (f *fetcher) pause(ctx context.Context) {
	if f.config.RequestDelay <= 0 {
		return
	}
	select {
	case <-time.After(f.config.RequestDelay):
	case <-ctx.Done():
	}
}

// savePost inserts a post and counts the outcome. Duplicates are silently
// skipped; the bool reports whether the post was actually stored.
func savePost(store Store, post *models.Post) (bool, error) {
	if _, err := store.InsertPost(post); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			metrics.PostsDuplicate.WithLabelValues(post.Source).Inc()
			return false, nil
		}
		return false, fmt.Errorf("failed to save post: %w", err)
	}
	metrics.PostsIngested.WithLabelValues(post.Source).Inc()
	return true, nil
}
