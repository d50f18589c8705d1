package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zombar/painscope/fingerprint"
	"github.com/zombar/painscope/models"
)

// PostExists reports whether a post with the given fingerprint is already
// stored.
func (db *DB) PostExists(fp string) (bool, error) {
	var exists bool
	err := db.conn.QueryRow(
		"SELECT EXISTS(SELECT 1 FROM posts WHERE fingerprint = $1)", fp,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check post existence: %w", err)
	}
	return exists, nil
}

// InsertPost stores a new post and returns its ID. Missing ID, fingerprint
// and scrape time are filled in. A fingerprint collision returns
// ErrDuplicate and stores nothing.
func (db *DB) InsertPost(p *models.Post) (string, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Fingerprint == "" {
		p.Fingerprint = fingerprint.Generate(p.Source, p.Title, p.Content)
	}
	if p.ScrapedAt.IsZero() {
		p.ScrapedAt = time.Now().UTC()
	}

	exists, err := db.PostExists(p.Fingerprint)
	if err != nil {
		return "", err
	}
	if exists {
		return "", ErrDuplicate
	}

	query := `
		INSERT INTO posts (id, fingerprint, source, title, content, url, author, posted_at, scraped_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = db.conn.Exec(query,
		p.ID, p.Fingerprint, p.Source, p.Title, p.Content,
		p.URL, p.Author, p.PostedAt, p.ScrapedAt,
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert post: %w", err)
	}
	return p.ID, nil
}

// GetPostByID retrieves a post by ID, or nil if it does not exist.
func (db *DB) GetPostByID(id string) (*models.Post, error) {
	query := `
		SELECT id, fingerprint, source, title, content, url, author, posted_at, scraped_at
		FROM posts WHERE id = $1
	`
	var p models.Post
	var postedAt sql.NullTime
	err := db.conn.QueryRow(query, id).Scan(
		&p.ID, &p.Fingerprint, &p.Source, &p.Title, &p.Content,
		&p.URL, &p.Author, &postedAt, &p.ScrapedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query post: %w", err)
	}
	if postedAt.Valid {
		p.PostedAt = &postedAt.Time
	}
	return &p, nil
}

// DeletePostByID deletes a post and, via cascade, its classification.
func (db *DB) DeletePostByID(id string) error {
	result, err := db.conn.Exec("DELETE FROM posts WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// CountPosts returns the total number of stored posts.
func (db *DB) CountPosts() (int, error) {
	var count int
	if err := db.conn.QueryRow("SELECT COUNT(*) FROM posts").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count posts: %w", err)
	}
	return count, nil
}

// GetUnclassifiedPosts returns up to limit posts with no classification,
// newest first. The read does not mark or lease the returned posts.
func (db *DB) GetUnclassifiedPosts(limit int) ([]models.Post, error) {
	query := `
		SELECT p.id, p.fingerprint, p.source, p.title, p.content, p.url, p.author, p.posted_at, p.scraped_at
		FROM posts p
		LEFT JOIN classifications c ON c.post_id = p.id
		WHERE c.post_id IS NULL
		ORDER BY p.scraped_at DESC
		LIMIT $1
	`
	rows, err := db.conn.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query unclassified posts: %w", err)
	}
	defer rows.Close()

	var posts []models.Post
	for rows.Next() {
		var p models.Post
		var postedAt sql.NullTime
		if err := rows.Scan(
			&p.ID, &p.Fingerprint, &p.Source, &p.Title, &p.Content,
			&p.URL, &p.Author, &postedAt, &p.ScrapedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		if postedAt.Valid {
			p.PostedAt = &postedAt.Time
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// UpsertClassification stores a classification keyed by post ID, replacing
// any previous record for the same post. A missing post surfaces as a
// ConstraintError.
func (db *DB) UpsertClassification(c *models.Classification) error {
	var keywordsJSON sql.NullString
	if c.Keywords != nil {
		b, err := json.Marshal(c.Keywords)
		if err != nil {
			return fmt.Errorf("failed to marshal keywords: %w", err)
		}
		keywordsJSON = sql.NullString{String: string(b), Valid: true}
	}

	query := `
		INSERT INTO classifications (
			post_id, is_pain_point, category, audience, intensity,
			automation_potential, suggested_solution, keywords, summary,
			raw_response, backend_error, classified_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (post_id) DO UPDATE SET
			is_pain_point = excluded.is_pain_point,
			category = excluded.category,
			audience = excluded.audience,
			intensity = excluded.intensity,
			automation_potential = excluded.automation_potential,
			suggested_solution = excluded.suggested_solution,
			keywords = excluded.keywords,
			summary = excluded.summary,
			raw_response = excluded.raw_response,
			backend_error = excluded.backend_error,
			classified_at = excluded.classified_at
	`
	_, err := db.conn.Exec(query,
		c.PostID, c.IsPainPoint, c.Category, c.Audience, c.Intensity,
		c.AutomationPotential, c.SuggestedSolution, keywordsJSON, c.Summary,
		c.RawResponse, c.BackendError, c.ClassifiedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return &ConstraintError{PostID: c.PostID, Err: err}
		}
		return fmt.Errorf("failed to upsert classification: %w", err)
	}
	return nil
}

// PainPointFilter narrows GetPainPoints results. Zero values mean no
// filtering; Limit defaults to 50.
type PainPointFilter struct {
	Category     string
	Audience     string
	Automation   string
	MinIntensity int
	Limit        int
}

// GetPainPoints returns posts classified as pain points, most intense
// first.
func (db *DB) GetPainPoints(filter PainPointFilter) ([]models.PainPoint, error) {
	conditions := []string{"c.is_pain_point = TRUE"}
	args := []any{}

	addCondition := func(clause string, value any) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(clause, len(args)))
	}

	if filter.Category != "" {
		addCondition("c.category = $%d", filter.Category)
	}
	if filter.Audience != "" {
		addCondition("c.audience = $%d", filter.Audience)
	}
	if filter.Automation != "" {
		addCondition("c.automation_potential = $%d", filter.Automation)
	}
	if filter.MinIntensity > 0 {
		addCondition("c.intensity >= $%d", filter.MinIntensity)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit)

	query := fmt.Sprintf(`
		SELECT p.id, p.fingerprint, p.source, p.title, p.content, p.url, p.author, p.posted_at, p.scraped_at,
		       COALESCE(c.category, ''), COALESCE(c.audience, ''), COALESCE(c.intensity, 0),
		       COALESCE(c.automation_potential, ''), COALESCE(c.suggested_solution, ''),
		       c.keywords, COALESCE(c.summary, '')
		FROM classifications c
		JOIN posts p ON p.id = c.post_id
		WHERE %s
		ORDER BY c.intensity DESC NULLS LAST, p.scraped_at DESC
		LIMIT $%d
	`, strings.Join(conditions, " AND "), len(args))

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query pain points: %w", err)
	}
	defer rows.Close()

	var painPoints []models.PainPoint
	for rows.Next() {
		var pp models.PainPoint
		var postedAt sql.NullTime
		var keywordsJSON sql.NullString
		if err := rows.Scan(
			&pp.ID, &pp.Fingerprint, &pp.Source, &pp.Title, &pp.Content,
			&pp.URL, &pp.Author, &postedAt, &pp.ScrapedAt,
			&pp.Category, &pp.Audience, &pp.Intensity,
			&pp.AutomationPotential, &pp.SuggestedSolution,
			&keywordsJSON, &pp.Summary,
		); err != nil {
			return nil, fmt.Errorf("failed to scan pain point: %w", err)
		}
		if postedAt.Valid {
			pp.PostedAt = &postedAt.Time
		}
		if keywordsJSON.Valid {
			if err := json.Unmarshal([]byte(keywordsJSON.String), &pp.Keywords); err != nil {
				return nil, fmt.Errorf("failed to unmarshal keywords: %w", err)
			}
		}
		painPoints = append(painPoints, pp)
	}
	return painPoints, rows.Err()
}

// GetCategoryStats returns pain point counts and average intensity per
// category, most frequent first.
func (db *DB) GetCategoryStats() ([]models.CategoryStat, error) {
	query := `
		SELECT COALESCE(category, 'other'), COUNT(*), COALESCE(AVG(intensity), 0)
		FROM classifications
		WHERE is_pain_point = TRUE
		GROUP BY category
		ORDER BY COUNT(*) DESC
	`
	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query category stats: %w", err)
	}
	defer rows.Close()

	var stats []models.CategoryStat
	for rows.Next() {
		var s models.CategoryStat
		if err := rows.Scan(&s.Category, &s.Count, &s.AvgIntensity); err != nil {
			return nil, fmt.Errorf("failed to scan category stat: %w", err)
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

// GetAutomationOpportunities returns high-automation pain points at or
// above the given intensity, most intense first.
func (db *DB) GetAutomationOpportunities(minIntensity, limit int) ([]models.AutomationOpportunity, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `
		SELECT p.title, p.source, p.url,
		       COALESCE(c.category, ''), COALESCE(c.intensity, 0),
		       COALESCE(c.automation_potential, ''), COALESCE(c.suggested_solution, ''),
		       COALESCE(c.summary, '')
		FROM classifications c
		JOIN posts p ON p.id = c.post_id
		WHERE c.is_pain_point = TRUE
		  AND c.automation_potential = 'high'
		  AND c.intensity >= $1
		ORDER BY c.intensity DESC
		LIMIT $2
	`
	rows, err := db.conn.Query(query, minIntensity, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query automation opportunities: %w", err)
	}
	defer rows.Close()

	var opportunities []models.AutomationOpportunity
	for rows.Next() {
		var o models.AutomationOpportunity
		if err := rows.Scan(
			&o.Title, &o.Source, &o.URL, &o.Category, &o.Intensity,
			&o.AutomationPotential, &o.SuggestedSolution, &o.Summary,
		); err != nil {
			return nil, fmt.Errorf("failed to scan automation opportunity: %w", err)
		}
		opportunities = append(opportunities, o)
	}
	return opportunities, rows.Err()
}

// GetRecentVsPrevious returns pain point counts by category for the most
// recent window of the given length and the window immediately before it.
func (db *DB) GetRecentVsPrevious(days int) (*models.TrendComparison, error) {
	recent, err := db.categoryCounts(
		"p.scraped_at >= NOW() - make_interval(days => $1)", days)
	if err != nil {
		return nil, err
	}
	previous, err := db.categoryCounts(
		"p.scraped_at >= NOW() - make_interval(days => $1 * 2) AND p.scraped_at < NOW() - make_interval(days => $1)", days)
	if err != nil {
		return nil, err
	}
	return &models.TrendComparison{Recent: recent, Previous: previous}, nil
}

func (db *DB) categoryCounts(window string, args ...any) (map[string]int, error) {
	query := fmt.Sprintf(`
		SELECT COALESCE(c.category, 'other'), COUNT(*)
		FROM classifications c
		JOIN posts p ON p.id = c.post_id
		WHERE c.is_pain_point = TRUE AND %s
		GROUP BY c.category
	`, window)

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query category counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var category string
		var count int
		if err := rows.Scan(&category, &count); err != nil {
			return nil, fmt.Errorf("failed to scan category count: %w", err)
		}
		counts[category] = count
	}
	return counts, rows.Err()
}

// GetTotalStats returns overall store statistics.
func (db *DB) GetTotalStats() (*models.TotalStats, error) {
	stats := &models.TotalStats{PostsBySource: make(map[string]int)}

	if err := db.conn.QueryRow("SELECT COUNT(*) FROM posts").Scan(&stats.TotalPosts); err != nil {
		return nil, fmt.Errorf("failed to count posts: %w", err)
	}
	if err := db.conn.QueryRow(
		"SELECT COUNT(*) FROM classifications WHERE is_pain_point = TRUE",
	).Scan(&stats.TotalPainPoints); err != nil {
		return nil, fmt.Errorf("failed to count pain points: %w", err)
	}

	rows, err := db.conn.Query("SELECT source, COUNT(*) FROM posts GROUP BY source")
	if err != nil {
		return nil, fmt.Errorf("failed to query posts by source: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var source string
		var count int
		if err := rows.Scan(&source, &count); err != nil {
			return nil, fmt.Errorf("failed to scan source count: %w", err)
		}
		stats.PostsBySource[source] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	stats.TotalSources = len(stats.PostsBySource)

	return stats, nil
}
