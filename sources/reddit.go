package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/zombar/painscope/models"
)

const redditBaseURL = "https://www.reddit.com"

// DefaultSubreddits are the Singapore communities scraped by default.
var DefaultSubreddits = []string{
	"singapore",
	"askSingapore",
	"singaporefi",
	"SGExams",
}

// RedditScraper ingests posts from subreddit listings via Reddit's public
// JSON endpoints. No API credentials are needed for read access.
type RedditScraper struct {
	store      Store
	fetcher    *fetcher
	baseURL    string
	subreddits []string
}

// NewRedditScraper creates a scraper over the given subreddits, or
// DefaultSubreddits when none are given.
func NewRedditScraper(store Store, config Config, subreddits []string) *RedditScraper {
	if len(subreddits) == 0 {
		subreddits = DefaultSubreddits
	}
	return &RedditScraper{
		store:      store,
		fetcher:    newFetcher(config),
		baseURL:    redditBaseURL,
		subreddits: subreddits,
	}
}

type redditListing struct {
	Data struct {
		Children []struct {
			Data redditPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type redditPost struct {
	Title      string  `json:"title"`
	SelfText   string  `json:"selftext"`
	Permalink  string  `json:"permalink"`
	Author     string  `json:"author"`
	CreatedUTC float64 `json:"created_utc"`
}

// Scrape fetches up to limit new posts from each configured subreddit and
// stores them. A subreddit that fails to fetch is logged and skipped.
func (s *RedditScraper) Scrape(ctx context.Context, limit int) (Result, error) {
	var result Result
	if limit <= 0 {
		limit = 50
	}

	for i, subreddit := range s.subreddits {
		if i > 0 {
			s.fetcher.pause(ctx)
		}
		if err := ctx.Err(); err != nil {
			return result, err
		}

		url := fmt.Sprintf("%s/r/%s/new.json?limit=%d", s.baseURL, subreddit, limit)
		body, err := s.fetcher.get(ctx, url)
		if err != nil {
			log.Printf("reddit: failed to fetch r/%s: %v", subreddit, err)
			continue
		}

		var listing redditListing
		if err := json.Unmarshal(body, &listing); err != nil {
			log.Printf("reddit: failed to decode r/%s listing: %v", subreddit, err)
			continue
		}

		for _, child := range listing.Data.Children {
			result.Scraped++

			post, err := s.toPost(subreddit, child.Data)
			if err != nil {
				continue
			}
			saved, err := savePost(s.store, post)
			if err != nil {
				return result, err
			}
			if saved {
				result.Saved++
			}
		}
	}

	return result, nil
}

func (s *RedditScraper) toPost(subreddit string, p redditPost) (*models.Post, error) {
	title := CleanText(p.Title)
	if title == "" {
		return nil, fmt.Errorf("post without title")
	}

	// Link posts carry no selftext; fall back to the title so the
	// classifier always has content.
	content := p.SelfText
	if content == "" {
		content = p.Title
	}

	author := p.Author
	if author == "" {
		author = "[deleted]"
	}

	var postedAt *time.Time
	if p.CreatedUTC > 0 {
		t := time.Unix(int64(p.CreatedUTC), 0).UTC()
		postedAt = &t
	}

	return &models.Post{
		Source:   "reddit/r/" + subreddit,
		Title:    title,
		Content:  content,
		URL:      "https://reddit.com" + p.Permalink,
		Author:   author,
		PostedAt: postedAt,
	}, nil
}
