package painscope

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/zombar/painscope/metrics"
	"github.com/zombar/painscope/models"
)

// Store is the record store surface the pipeline depends on.
type Store interface {
	GetUnclassifiedPosts(limit int) ([]models.Post, error)
	UpsertClassification(c *models.Classification) error
}

// Backend classifies one post and returns the model's raw reply text.
type Backend interface {
	Classify(ctx context.Context, title, content, source string) (string, error)
}

// Stats summarizes one pipeline run.
type Stats struct {
	Classified int `json:"classified"`
	PainPoints int `json:"pain_points"`
}

// ProgressFunc is invoked after each post with the running position and the
// batch total.
type ProgressFunc func(current, total int)

// Pipeline drives classification batches: fetch unclassified posts, call
// the backend once per post, parse and normalize the reply, persist the
// result. Posts are processed strictly one at a time.
type Pipeline struct {
	store      Store
	backend    Backend
	normalizer *Normalizer
	batchLimit int

	// Progress, when set, is called after each persisted post.
	Progress ProgressFunc
}

// NewPipeline creates a Pipeline over the given store and backend.
func NewPipeline(store Store, backend Backend, cfg Config) *Pipeline {
	return &Pipeline{
		store:      store,
		backend:    backend,
		normalizer: NewNormalizer(cfg.Categories, cfg.Audiences),
		batchLimit: cfg.BatchLimit,
	}
}

// Run classifies up to limit unclassified posts (the configured batch limit
// when limit <= 0). Backend failures and unparseable replies degrade to
// negative classifications and never abort the batch; only a persistence
// failure stops the run. The returned Stats cover the posts persisted
// before any error.
func (p *Pipeline) Run(ctx context.Context, limit int) (Stats, error) {
	var stats Stats

	if limit <= 0 {
		limit = p.batchLimit
	}

	posts, err := p.store.GetUnclassifiedPosts(limit)
	if err != nil {
		return stats, fmt.Errorf("fetching unclassified posts: %w", err)
	}
	total := len(posts)
	if total == 0 {
		return stats, nil
	}
	log.Printf("classifying %d posts", total)

	for i, post := range posts {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		c := p.classifyOne(ctx, post)
		if err := p.store.UpsertClassification(&c); err != nil {
			return stats, fmt.Errorf("persisting classification for post %s: %w", post.ID, err)
		}

		stats.Classified++
		if c.IsPainPoint {
			stats.PainPoints++
		}
		if p.Progress != nil {
			p.Progress(i+1, total)
		}
	}

	return stats, nil
}

// classifyOne produces a complete classification record for a single post.
// It never fails: degraded outcomes are encoded in the record itself.
func (p *Pipeline) classifyOne(ctx context.Context, post models.Post) models.Classification {
	start := time.Now()
	defer func() {
		metrics.ClassificationDuration.Observe(time.Since(start).Seconds())
	}()

	var c models.Classification

	raw, err := p.backend.Classify(ctx, post.Title, post.Content, post.Source)
	if err != nil {
		log.Printf("backend error for post %s: %v", post.ID, err)
		c.RawResponse = err.Error()
		c.BackendError = true
		metrics.Classifications.WithLabelValues(metrics.ResultBackendError).Inc()
	} else {
		data := ExtractJSON(raw)
		c = p.normalizer.Normalize(data)
		c.RawResponse = raw
		switch {
		case data == nil:
			metrics.Classifications.WithLabelValues(metrics.ResultUnparseable).Inc()
		case c.IsPainPoint:
			metrics.Classifications.WithLabelValues(metrics.ResultPainPoint).Inc()
		default:
			metrics.Classifications.WithLabelValues(metrics.ResultNotPainPoint).Inc()
		}
	}

	c.PostID = post.ID
	c.ClassifiedAt = time.Now().UTC()
	return c
}
