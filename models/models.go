package models

import "time"

// Post represents one ingested text document from any source. Posts are
// immutable once stored; re-ingesting the same content is a duplicate no-op.
type Post struct {
	ID          string     `json:"id"`
	Fingerprint string     `json:"fingerprint"`
	Source      string     `json:"source"`
	Title       string     `json:"title"`
	Content     string     `json:"content"`
	URL         string     `json:"url,omitempty"`
	Author      string     `json:"author,omitempty"`
	PostedAt    *time.Time `json:"posted_at,omitempty"`
	ScrapedAt   time.Time  `json:"scraped_at"`
}

// Classification is the structured extraction result attached to a post,
// one-to-one by post ID. When IsPainPoint is false only the flag and
// RawResponse carry meaning; every other field is nil.
type Classification struct {
	PostID              string    `json:"post_id"`
	IsPainPoint         bool      `json:"is_pain_point"`
	Category            *string   `json:"category,omitempty"`
	Audience            *string   `json:"audience,omitempty"`
	Intensity           *int      `json:"intensity,omitempty"`
	AutomationPotential *string   `json:"automation_potential,omitempty"`
	SuggestedSolution   *string   `json:"suggested_solution,omitempty"`
	Keywords            []string  `json:"keywords,omitempty"`
	Summary             *string   `json:"summary,omitempty"`
	RawResponse         string    `json:"raw_response"`
	BackendError        bool      `json:"backend_error"`
	ClassifiedAt        time.Time `json:"classified_at"`
}

// PainPoint is a post joined with its positive classification, as returned
// by the reporting queries.
type PainPoint struct {
	Post
	Category            string   `json:"category"`
	Audience            string   `json:"audience"`
	Intensity           int      `json:"intensity"`
	AutomationPotential string   `json:"automation_potential"`
	SuggestedSolution   string   `json:"suggested_solution,omitempty"`
	Keywords            []string `json:"keywords,omitempty"`
	Summary             string   `json:"summary,omitempty"`
}

// CategoryStat aggregates pain point counts and average intensity per category.
type CategoryStat struct {
	Category     string  `json:"category"`
	Count        int     `json:"count"`
	AvgIntensity float64 `json:"avg_intensity"`
}

// AutomationOpportunity is a high-automation, high-intensity pain point
// surfaced for the opportunity leaderboard.
type AutomationOpportunity struct {
	Title               string `json:"title"`
	Source              string `json:"source"`
	URL                 string `json:"url,omitempty"`
	Category            string `json:"category"`
	Intensity           int    `json:"intensity"`
	AutomationPotential string `json:"automation_potential"`
	SuggestedSolution   string `json:"suggested_solution,omitempty"`
	Summary             string `json:"summary,omitempty"`
}

// TrendComparison holds pain point counts by category for two adjacent
// time windows, used for trending analysis.
type TrendComparison struct {
	Recent   map[string]int `json:"recent"`
	Previous map[string]int `json:"previous"`
}

// TotalStats contains overall database statistics.
type TotalStats struct {
	TotalPosts      int            `json:"total_posts"`
	TotalPainPoints int            `json:"total_pain_points"`
	TotalSources    int            `json:"total_sources"`
	PostsBySource   map[string]int `json:"posts_by_source"`
}

// OllamaRequest represents a request to the Ollama generate API
type OllamaRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Format  string         `json:"format,omitempty"`
	Options *OllamaOptions `json:"options,omitempty"`
}

// OllamaOptions carries sampling options for an Ollama generate call
type OllamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

// OllamaResponse represents a response from the Ollama generate API
type OllamaResponse struct {
	Model     string `json:"model"`
	CreatedAt string `json:"created_at"`
	Response  string `json:"response"`
	Done      bool   `json:"done"`
}
