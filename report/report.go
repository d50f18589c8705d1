// Package report renders the markdown analysis report over the classified
// corpus.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/zombar/painscope/db"
	"github.com/zombar/painscope/models"
)

// Store is the read surface the report generator depends on.
type Store interface {
	GetTotalStats() (*models.TotalStats, error)
	GetCategoryStats() ([]models.CategoryStat, error)
	GetPainPoints(filter db.PainPointFilter) ([]models.PainPoint, error)
	GetAutomationOpportunities(minIntensity, limit int) ([]models.AutomationOpportunity, error)
	GetRecentVsPrevious(days int) (*models.TrendComparison, error)
}

// Generator renders markdown reports into an output directory, one file
// per day.
type Generator struct {
	store Store
	dir   string

	// now allows tests to pin the report date.
	now func() time.Time
}

// NewGenerator creates a Generator writing into dir ("reports" when empty).
func NewGenerator(store Store, dir string) *Generator {
	if dir == "" {
		dir = "reports"
	}
	return &Generator{store: store, dir: dir, now: time.Now}
}

// Generate renders the report and writes it to <dir>/<YYYY-MM-DD>.md,
// returning the written path.
func (g *Generator) Generate() (string, error) {
	content, err := g.Render()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(g.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}
	path := filepath.Join(g.dir, g.now().Format("2006-01-02")+".md")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return path, nil
}

// Export is the machine-readable counterpart of the markdown report.
type Export struct {
	GeneratedAt             time.Time                      `json:"generated_at"`
	TotalStats              *models.TotalStats             `json:"total_stats"`
	CategoryStats           []models.CategoryStat          `json:"category_stats"`
	PainPoints              []models.PainPoint             `json:"pain_points"`
	AutomationOpportunities []models.AutomationOpportunity `json:"automation_opportunities"`
	Trending                *models.TrendComparison        `json:"trending"`
}

// GenerateJSON writes the full dataset to <dir>/<YYYY-MM-DD>.json,
// returning the written path.
func (g *Generator) GenerateJSON() (string, error) {
	export, err := g.Export()
	if err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode export: %w", err)
	}

	if err := os.MkdirAll(g.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}
	path := filepath.Join(g.dir, g.now().Format("2006-01-02")+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write export: %w", err)
	}
	return path, nil
}

// Export gathers the complete report dataset without writing it. Pain
// points are unfiltered (capped at 500) so the export serves downstream
// analysis, not just the report's highlights.
func (g *Generator) Export() (*Export, error) {
	totals, err := g.store.GetTotalStats()
	if err != nil {
		return nil, fmt.Errorf("failed to load total stats: %w", err)
	}
	categories, err := g.store.GetCategoryStats()
	if err != nil {
		return nil, fmt.Errorf("failed to load category stats: %w", err)
	}
	painPoints, err := g.store.GetPainPoints(db.PainPointFilter{Limit: 500})
	if err != nil {
		return nil, fmt.Errorf("failed to load pain points: %w", err)
	}
	opportunities, err := g.store.GetAutomationOpportunities(6, 100)
	if err != nil {
		return nil, fmt.Errorf("failed to load automation opportunities: %w", err)
	}
	trends, err := g.store.GetRecentVsPrevious(7)
	if err != nil {
		return nil, fmt.Errorf("failed to load trends: %w", err)
	}

	return &Export{
		GeneratedAt:             g.now().UTC(),
		TotalStats:              totals,
		CategoryStats:           categories,
		PainPoints:              painPoints,
		AutomationOpportunities: opportunities,
		Trending:                trends,
	}, nil
}

// Render builds the report content without writing it.
func (g *Generator) Render() (string, error) {
	totals, err := g.store.GetTotalStats()
	if err != nil {
		return "", fmt.Errorf("failed to load total stats: %w", err)
	}
	categories, err := g.store.GetCategoryStats()
	if err != nil {
		return "", fmt.Errorf("failed to load category stats: %w", err)
	}
	topPainPoints, err := g.store.GetPainPoints(db.PainPointFilter{MinIntensity: 6, Limit: 10})
	if err != nil {
		return "", fmt.Errorf("failed to load pain points: %w", err)
	}
	opportunities, err := g.store.GetAutomationOpportunities(6, 20)
	if err != nil {
		return "", fmt.Errorf("failed to load automation opportunities: %w", err)
	}
	trends, err := g.store.GetRecentVsPrevious(7)
	if err != nil {
		return "", fmt.Errorf("failed to load trends: %w", err)
	}

	var b strings.Builder

	fmt.Fprintf(&b, "# Singapore Pain Point Analysis Report\n\n")
	fmt.Fprintf(&b, "**Generated:** %s\n\n---\n\n", g.now().Format("2006-01-02 15:04:05"))

	g.writeSummary(&b, totals, len(opportunities))
	g.writeTopPainPoints(&b, topPainPoints)
	g.writeCategories(&b, categories)
	g.writeOpportunities(&b, opportunities)
	g.writeTrends(&b, trends)

	b.WriteString("---\n\n## Methodology\n\n")
	b.WriteString("1. **Data Collection**: Posts scraped from Reddit (r/singapore, r/askSingapore, etc.), HardwareZone EDMW and Mothership.sg\n")
	b.WriteString("2. **Classification**: Each post analyzed by an LLM backend for pain point identification\n")
	b.WriteString("3. **Scoring**: Pain points rated on intensity (1-10) and automation potential (low/medium/high)\n")

	return b.String(), nil
}

func (g *Generator) writeSummary(b *strings.Builder, totals *models.TotalStats, opportunityCount int) {
	b.WriteString("## Executive Summary\n\n")
	b.WriteString("| Metric | Value |\n|--------|-------|\n")
	fmt.Fprintf(b, "| Total Posts Analyzed | %d |\n", totals.TotalPosts)
	fmt.Fprintf(b, "| Pain Points Identified | %d |\n", totals.TotalPainPoints)
	fmt.Fprintf(b, "| Sources Tracked | %d |\n", totals.TotalSources)
	fmt.Fprintf(b, "| High-Potential Automation Opportunities | %d |\n\n", opportunityCount)

	if len(totals.PostsBySource) > 0 {
		b.WriteString("### Posts by Source\n\n")
		type sourceCount struct {
			source string
			count  int
		}
		counts := make([]sourceCount, 0, len(totals.PostsBySource))
		for source, count := range totals.PostsBySource {
			counts = append(counts, sourceCount{source, count})
		}
		sort.Slice(counts, func(i, j int) bool {
			if counts[i].count != counts[j].count {
				return counts[i].count > counts[j].count
			}
			return counts[i].source < counts[j].source
		})
		for _, sc := range counts {
			fmt.Fprintf(b, "- **%s**: %d posts\n", sc.source, sc.count)
		}
		b.WriteString("\n")
	}
}

func (g *Generator) writeTopPainPoints(b *strings.Builder, painPoints []models.PainPoint) {
	b.WriteString("---\n\n## Top 10 Pain Points by Intensity\n\n")

	if len(painPoints) == 0 {
		b.WriteString("*No high-intensity pain points found yet.*\n\n")
		return
	}

	for i, pp := range painPoints {
		fmt.Fprintf(b, "### %d. %s\n\n", i+1, truncate(pp.Title, 80))
		fmt.Fprintf(b, "- **Intensity:** %d/10\n", pp.Intensity)
		fmt.Fprintf(b, "- **Category:** %s\n", pp.Category)
		fmt.Fprintf(b, "- **Audience:** %s\n", pp.Audience)
		fmt.Fprintf(b, "- **Automation Potential:** %s\n", pp.AutomationPotential)
		fmt.Fprintf(b, "- **Source:** %s\n\n", pp.Source)
		if pp.Summary != "" {
			fmt.Fprintf(b, "> %s\n\n", pp.Summary)
		}
		if pp.SuggestedSolution != "" {
			fmt.Fprintf(b, "**Suggested Solution:** %s\n\n", pp.SuggestedSolution)
		}
		if pp.URL != "" {
			fmt.Fprintf(b, "[View Original](%s)\n\n", pp.URL)
		}
	}
}

func (g *Generator) writeCategories(b *strings.Builder, categories []models.CategoryStat) {
	b.WriteString("---\n\n## Pain Points by Category\n\n")

	if len(categories) == 0 {
		b.WriteString("*No categorized pain points yet.*\n\n")
		return
	}

	b.WriteString("| Category | Count | Avg Intensity |\n|----------|-------|---------------|\n")
	for _, c := range categories {
		fmt.Fprintf(b, "| %s | %d | %.1f/10 |\n", titleCase(c.Category), c.Count, c.AvgIntensity)
	}
	b.WriteString("\n### Category Distribution\n\n```\n")

	maxCount := 1
	for _, c := range categories {
		if c.Count > maxCount {
			maxCount = c.Count
		}
	}
	shown := categories
	if len(shown) > 10 {
		shown = shown[:10]
	}
	for _, c := range shown {
		barLen := c.Count * 30 / maxCount
		fmt.Fprintf(b, "%-15s %s (%d)\n", truncate(c.Category, 15), strings.Repeat("█", barLen), c.Count)
	}
	b.WriteString("```\n\n")
}

func (g *Generator) writeOpportunities(b *strings.Builder, opportunities []models.AutomationOpportunity) {
	b.WriteString("---\n\n## Best Automation Opportunities\n\n")
	b.WriteString("*High automation potential + high intensity = best opportunities for AI solutions*\n\n")

	if len(opportunities) == 0 {
		b.WriteString("*No high-potential automation opportunities identified yet.*\n\n")
		return
	}

	shown := opportunities
	if len(shown) > 10 {
		shown = shown[:10]
	}
	for i, op := range shown {
		fmt.Fprintf(b, "### %d. %s\n\n", i+1, truncate(op.Title, 60))
		fmt.Fprintf(b, "- **Category:** %s\n", op.Category)
		fmt.Fprintf(b, "- **Intensity:** %d/10\n", op.Intensity)
		fmt.Fprintf(b, "- **Source:** %s\n\n", op.Source)
		if op.Summary != "" {
			fmt.Fprintf(b, "> %s\n\n", op.Summary)
		}
		if op.SuggestedSolution != "" {
			fmt.Fprintf(b, "**AI Solution Idea:**\n%s\n\n", op.SuggestedSolution)
		}
	}
}

func (g *Generator) writeTrends(b *strings.Builder, trends *models.TrendComparison) {
	b.WriteString("---\n\n## Trending Topics\n\n")
	b.WriteString("*Comparing last 7 days vs previous 7 days*\n\n")

	if len(trends.Recent) == 0 && len(trends.Previous) == 0 {
		b.WriteString("*Not enough data for trending analysis yet.*\n\n")
		return
	}

	type trend struct {
		category string
		count    int
		change   string
	}
	var up, down []trend

	seen := make(map[string]bool)
	for category := range trends.Recent {
		seen[category] = true
	}
	for category := range trends.Previous {
		seen[category] = true
	}

	for category := range seen {
		recent := trends.Recent[category]
		previous := trends.Previous[category]
		switch {
		case previous == 0 && recent > 0:
			up = append(up, trend{category, recent, "NEW"})
		case recent > previous:
			change := (recent - previous) * 100 / previous
			up = append(up, trend{category, recent, fmt.Sprintf("+%d%%", change)})
		case recent < previous:
			change := (previous - recent) * 100 / previous
			down = append(down, trend{category, recent, fmt.Sprintf("-%d%%", change)})
		}
	}

	if len(up) > 0 {
		sort.Slice(up, func(i, j int) bool { return up[i].count > up[j].count })
		if len(up) > 5 {
			up = up[:5]
		}
		b.WriteString("### Trending Up\n\n")
		for _, t := range up {
			fmt.Fprintf(b, "- **%s**: %d mentions (%s)\n", titleCase(t.category), t.count, t.change)
		}
		b.WriteString("\n")
	}
	if len(down) > 0 {
		sort.Slice(down, func(i, j int) bool { return down[i].count < down[j].count })
		if len(down) > 5 {
			down = down[:5]
		}
		b.WriteString("### Trending Down\n\n")
		for _, t := range down {
			fmt.Fprintf(b, "- **%s**: %d mentions (%s)\n", titleCase(t.category), t.count, t.change)
		}
		b.WriteString("\n")
	}
}

// titleCase renders a snake_case category as "Title Case".
func titleCase(category string) string {
	words := strings.Split(strings.ReplaceAll(category, "_", " "), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
