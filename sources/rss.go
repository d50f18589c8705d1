package sources

import (
	"context"
	"log"

	"github.com/mmcdole/gofeed"

	"github.com/zombar/painscope/models"
)

// Feed names an RSS source.
type Feed struct {
	Name string
	URL  string
}

// DefaultFeeds are the Singapore news feeds scraped by default.
var DefaultFeeds = []Feed{
	{Name: "mothership.sg", URL: "https://mothership.sg/feed/"},
}

// RSSScraper ingests articles from news RSS feeds.
type RSSScraper struct {
	store   Store
	fetcher *fetcher
	parser  *gofeed.Parser
	feeds   []Feed

	// FetchFullContent replaces feed summaries with the full article
	// text, at the cost of one extra request per article.
	FetchFullContent bool
}

// NewRSSScraper creates a scraper over the given feeds, or DefaultFeeds
// when none are given.
func NewRSSScraper(store Store, config Config, feeds []Feed) *RSSScraper {
	if len(feeds) == 0 {
		feeds = DefaultFeeds
	}
	parser := gofeed.NewParser()
	parser.UserAgent = config.UserAgent
	return &RSSScraper{
		store:   store,
		fetcher: newFetcher(config),
		parser:  parser,
		feeds:   feeds,
	}
}

// Scrape fetches up to limit articles from each configured feed and stores
// them. A feed that fails to parse is logged and skipped.
func (s *RSSScraper) Scrape(ctx context.Context, limit int) (Result, error) {
	var result Result
	if limit <= 0 {
		limit = 50
	}

	for i, feed := range s.feeds {
		if i > 0 {
			s.fetcher.pause(ctx)
		}
		if err := ctx.Err(); err != nil {
			return result, err
		}

		parsed, err := s.parser.ParseURLWithContext(feed.URL, ctx)
		if err != nil {
			log.Printf("rss: failed to parse %s: %v", feed.Name, err)
			continue
		}

		items := parsed.Items
		if len(items) > limit {
			items = items[:limit]
		}

		for _, item := range items {
			result.Scraped++

			post := s.toPost(feed, item)
			if post == nil {
				continue
			}
			if s.FetchFullContent && item.Link != "" {
				if text, err := s.fetcher.fetchArticleText(ctx, item.Link); err == nil && text != "" {
					post.Content = text
				}
				s.fetcher.pause(ctx)
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

func (s *RSSScraper) toPost(feed Feed, item *gofeed.Item) *models.Post {
	title := CleanText(item.Title)
	if title == "" {
		return nil
	}

	summary := item.Description
	if summary == "" {
		summary = item.Content
	}
	content := CleanText(stripHTML(summary))
	if content == "" {
		content = title
	}

	author := feed.Name
	if item.Author != nil && item.Author.Name != "" {
		author = item.Author.Name
	}

	postedAt := item.PublishedParsed
	if postedAt == nil {
		postedAt = ParseTimestamp(item.Published)
	}

	return &models.Post{
		Source:   feed.Name,
		Title:    title,
		Content:  content,
		URL:      item.Link,
		Author:   author,
		PostedAt: postedAt,
	}
}
