package sources

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/zombar/painscope/models"
)

const (
	hwzBaseURL   = "https://forums.hardwarezone.com.sg"
	hwzForumPath = "/forums/eat-drink-man-woman.16/"

	// Thread bodies are capped so a megathread cannot dominate storage.
	maxThreadContentLen = 5000
	minPostLen          = 20
)

// HWZScraper ingests threads from the HardwareZone EDMW forum, the main
// Singapore complaint venue outside Reddit.
type HWZScraper struct {
	store      Store
	fetcher    *fetcher
	baseURL    string
	maxReplies int
}

// NewHWZScraper creates an EDMW forum scraper.
func NewHWZScraper(store Store, config Config) *HWZScraper {
	return &HWZScraper{
		store:      store,
		fetcher:    newFetcher(config),
		baseURL:    hwzBaseURL,
		maxReplies: 20,
	}
}

type hwzThread struct {
	Title     string
	URL       string
	Author    string
	Timestamp *time.Time
}

// Scrape scans up to maxPages listing pages, collects up to maxThreads
// threads and stores each thread's opening posts as one record.
func (s *HWZScraper) Scrape(ctx context.Context, maxThreads, maxPages int) (Result, error) {
	var result Result
	if maxThreads <= 0 {
		maxThreads = 50
	}
	if maxPages <= 0 {
		maxPages = 3
	}

	var threads []hwzThread
	for page := 1; page <= maxPages && len(threads) < maxThreads; page++ {
		if page > 1 {
			s.fetcher.pause(ctx)
		}
		if err := ctx.Err(); err != nil {
			return result, err
		}

		pageThreads, err := s.listThreads(ctx, page)
		if err != nil {
			log.Printf("hwz: failed to fetch listing page %d: %v", page, err)
			continue
		}
		threads = append(threads, pageThreads...)
	}
	if len(threads) > maxThreads {
		threads = threads[:maxThreads]
	}

	for _, thread := range threads {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.Scraped++

		content, err := s.threadContent(ctx, thread.URL)
		if err != nil || content == "" {
			continue
		}

		full := thread.Title + "\n\n" + content
		if len(full) > maxThreadContentLen {
			full = full[:maxThreadContentLen]
		}

		saved, err := savePost(s.store, &models.Post{
			Source:   "hwz/edmw",
			Title:    thread.Title,
			Content:  full,
			URL:      thread.URL,
			Author:   thread.Author,
			PostedAt: thread.Timestamp,
		})
		if err != nil {
			return result, err
		}
		if saved {
			result.Saved++
		}
		s.fetcher.pause(ctx)
	}

	return result, nil
}

// listThreads parses one forum listing page.
func (s *HWZScraper) listThreads(ctx context.Context, page int) ([]hwzThread, error) {
	listURL := s.baseURL + hwzForumPath
	if page > 1 {
		listURL = fmt.Sprintf("%spage-%d", listURL, page)
	}

	body, err := s.fetcher.get(ctx, listURL)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse listing HTML: %w", err)
	}

	items := doc.Find(".structItem--thread")
	if items.Length() == 0 {
		items = doc.Find("[data-thread-id]")
	}

	var threads []hwzThread
	items.Each(func(_ int, sel *goquery.Selection) {
		titleLink := sel.Find(".structItem-title a").First()
		if titleLink.Length() == 0 {
			titleLink = sel.Find("a.title").First()
		}
		title := CleanText(titleLink.Text())
		href, _ := titleLink.Attr("href")
		if title == "" || href == "" {
			return
		}

		author := strings.TrimSpace(sel.Find(".username").First().Text())
		if author == "" {
			author = "Unknown"
		}

		var timestamp *time.Time
		if timeElem := sel.Find("time").First(); timeElem.Length() > 0 {
			raw, ok := timeElem.Attr("datetime")
			if !ok {
				raw, _ = timeElem.Attr("title")
			}
			timestamp = ParseTimestamp(raw)
		}

		threads = append(threads, hwzThread{
			Title:     title,
			URL:       s.resolveURL(href),
			Author:    author,
			Timestamp: timestamp,
		})
	})

	return threads, nil
}

// threadContent fetches a thread page and joins the first few post bodies.
func (s *HWZScraper) threadContent(ctx context.Context, threadURL string) (string, error) {
	body, err := s.fetcher.get(ctx, threadURL)
	if err != nil {
		return "", err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to parse thread HTML: %w", err)
	}

	posts := doc.Find(".message-body")
	if posts.Length() == 0 {
		posts = doc.Find(".messageText")
	}

	var contents []string
	posts.EachWithBreak(func(i int, sel *goquery.Selection) bool {
		if i > s.maxReplies {
			return false
		}
		text := CleanText(sel.Text())
		if len(text) > minPostLen {
			contents = append(contents, text)
		}
		return true
	})

	// First few posts carry the thread context; the rest is noise.
	if len(contents) > 5 {
		contents = contents[:5]
	}
	return strings.Join(contents, " "), nil
}

func (s *HWZScraper) resolveURL(href string) string {
	base, err := url.Parse(s.baseURL)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
