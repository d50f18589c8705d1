package sources

import (
	"bytes"
	"context"
	"strings"

	"golang.org/x/net/html"
)

const maxArticleLen = 3000

// fetchArticleText downloads a page and returns its readable text, capped
// at maxArticleLen characters. Returns "" when nothing usable is found.
func (f *fetcher) fetchArticleText(ctx context.Context, url string) (string, error) {
	body, err := f.get(ctx, url)
	if err != nil {
		return "", err
	}

	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return "", err
	}

	text := CleanText(extractText(doc))
	if len(text) > maxArticleLen {
		text = text[:maxArticleLen]
	}
	return text, nil
}

// stripHTML returns the text content of an HTML fragment, as found in RSS
// summaries. Invalid markup degrades to whatever text can be salvaged.
func stripHTML(fragment string) string {
	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}
	return extractText(doc)
}

// extractText extracts all text content from the HTML
func extractText(n *html.Node) string {
	var buf strings.Builder
	var f func(*html.Node)
	f = func(n *html.Node) {
		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				buf.WriteString(text)
				buf.WriteString(" ")
			}
		}
		// Skip non-content containers
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "nav", "header", "footer", "aside":
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			f(c)
		}
	}
	f(n)
	return strings.TrimSpace(buf.String())
}
