// Package prompt renders the classification prompt sent to a model backend.
// The template is fixed at construction so both backend variants produce
// identical prompts for the same post.
package prompt

import "strings"

// Input bounds. Long posts are truncated before rendering so a single
// oversized post cannot blow the model's context window.
const (
	maxTitleLen   = 500
	maxContentLen = 2000
)

// DefaultTemplate requests a strict-JSON-only reply describing whether the
// post is a pain point and, if so, its category, audience, intensity and
// automation potential.
const DefaultTemplate = `Analyze the following post from Singapore and extract pain points.

POST TITLE: {title}
POST CONTENT: {content}
SOURCE: {source}

Classify this post and respond with ONLY valid JSON (no markdown, no explanation):
{
    "is_pain_point": true/false,
    "pain_point_category": "one of: healthcare, transport, compliance, hiring, cost_of_living, housing, finance, education, government_services, rental, food_delivery, banking, insurance, telecommunications, other",
    "target_audience": "consumer, SME, or both",
    "intensity": 1-10 (how frustrated/urgent is this),
    "automation_potential": "low, medium, or high (can AI/software solve this?)",
    "suggested_solution": "brief 1-2 sentence AI automation idea",
    "keywords": ["list", "of", "main", "complaint", "keywords"],
    "summary": "one sentence summary of the pain point"
}

If this is NOT a pain point (just news, meme, casual chat), set is_pain_point to false and fill other fields with null.`

// Renderer renders classification prompts from a fixed template. The
// template uses {title}, {content} and {source} placeholders.
type Renderer struct {
	template string
}

// NewRenderer creates a Renderer for the given template. An empty template
// falls back to DefaultTemplate.
func NewRenderer(template string) *Renderer {
	if template == "" {
		template = DefaultTemplate
	}
	return &Renderer{template: template}
}

// Render substitutes the post fields into the template. Title and content
// are truncated to their bounds; source is passed through verbatim.
func (r *Renderer) Render(title, content, source string) string {
	replacer := strings.NewReplacer(
		"{title}", truncate(title, maxTitleLen),
		"{content}", truncate(content, maxContentLen),
		"{source}", source,
	)
	return replacer.Replace(r.template)
}

// truncate limits s to n characters, counting runes so multi-byte
// characters are never split.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
