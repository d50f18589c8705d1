package db

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/zombar/painscope/models"
)

// setupTestDB connects to the database named by TEST_DATABASE_DSN and
// truncates the tables. Tests are skipped when the variable is unset.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN not set, skipping database tests")
	}

	db, err := New(Config{DSN: dsn})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	if _, err := db.conn.Exec("TRUNCATE posts CASCADE"); err != nil {
		t.Fatalf("Failed to truncate tables: %v", err)
	}

	return db
}

func insertTestPost(t *testing.T, db *DB, source, title, content string) string {
	t.Helper()
	id, err := db.InsertPost(&models.Post{
		Source:  source,
		Title:   title,
		Content: content,
	})
	if err != nil {
		t.Fatalf("Failed to insert post: %v", err)
	}
	return id
}

func TestInsertPostDeduplicates(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	post := &models.Post{
		Source:  "reddit/r/singapore",
		Title:   "MRT breakdown",
		Content: "Stuck at Jurong East for an hour",
	}

	id, err := db.InsertPost(post)
	if err != nil {
		t.Fatalf("Failed to insert post: %v", err)
	}
	if id == "" {
		t.Fatal("Expected generated post ID")
	}
	if post.Fingerprint == "" {
		t.Fatal("Expected generated fingerprint")
	}

	// Same source/title/content again, fresh struct.
	_, err = db.InsertPost(&models.Post{
		Source:  "reddit/r/singapore",
		Title:   "MRT breakdown",
		Content: "Stuck at Jurong East for an hour",
	})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("Expected ErrDuplicate, got %v", err)
	}

	count, err := db.CountPosts()
	if err != nil {
		t.Fatalf("Failed to count posts: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 post after duplicate insert, got %d", count)
	}
}

func TestPostExists(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	post := &models.Post{Source: "s", Title: "t", Content: "c"}
	if _, err := db.InsertPost(post); err != nil {
		t.Fatalf("Failed to insert post: %v", err)
	}

	exists, err := db.PostExists(post.Fingerprint)
	if err != nil {
		t.Fatalf("PostExists failed: %v", err)
	}
	if !exists {
		t.Error("Expected fingerprint to exist")
	}

	exists, err = db.PostExists("no-such-fingerprint")
	if err != nil {
		t.Fatalf("PostExists failed: %v", err)
	}
	if exists {
		t.Error("Expected unknown fingerprint to not exist")
	}
}

func TestGetPostByID(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	id := insertTestPost(t, db, "hwz/edmw", "CPF rant", "Why so complicated")

	post, err := db.GetPostByID(id)
	if err != nil {
		t.Fatalf("GetPostByID failed: %v", err)
	}
	if post == nil {
		t.Fatal("Expected post, got nil")
	}
	if post.Title != "CPF rant" {
		t.Errorf("Unexpected title: %s", post.Title)
	}

	missing, err := db.GetPostByID("no-such-id")
	if err != nil {
		t.Fatalf("Unexpected error for missing post: %v", err)
	}
	if missing != nil {
		t.Error("Expected nil for missing post")
	}
}

func TestDeletePostCascades(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	id := insertTestPost(t, db, "s", "t", "c")

	err := db.UpsertClassification(&models.Classification{
		PostID:       id,
		IsPainPoint:  true,
		ClassifiedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("Failed to upsert classification: %v", err)
	}

	if err := db.DeletePostByID(id); err != nil {
		t.Fatalf("Failed to delete post: %v", err)
	}

	posts, err := db.GetUnclassifiedPosts(10)
	if err != nil {
		t.Fatalf("GetUnclassifiedPosts failed: %v", err)
	}
	if len(posts) != 0 {
		t.Errorf("Expected no posts after delete, got %d", len(posts))
	}

	if err := db.DeletePostByID(id); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for second delete, got %v", err)
	}
}

func TestGetUnclassifiedPosts(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	first := insertTestPost(t, db, "s", "first", "c1")
	second := insertTestPost(t, db, "s", "second", "c2")

	posts, err := db.GetUnclassifiedPosts(10)
	if err != nil {
		t.Fatalf("GetUnclassifiedPosts failed: %v", err)
	}
	if len(posts) != 2 {
		t.Fatalf("Expected 2 unclassified posts, got %d", len(posts))
	}

	// Classifying one removes it from the unclassified set; the read
	// itself must not.
	err = db.UpsertClassification(&models.Classification{
		PostID:       first,
		IsPainPoint:  false,
		ClassifiedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("Failed to upsert classification: %v", err)
	}

	posts, err = db.GetUnclassifiedPosts(10)
	if err != nil {
		t.Fatalf("GetUnclassifiedPosts failed: %v", err)
	}
	if len(posts) != 1 {
		t.Fatalf("Expected 1 unclassified post, got %d", len(posts))
	}
	if posts[0].ID != second {
		t.Errorf("Expected remaining post %s, got %s", second, posts[0].ID)
	}
}

func TestUpsertClassificationReplaces(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	id := insertTestPost(t, db, "s", "t", "c")

	category := "transport"
	intensity := 8
	err := db.UpsertClassification(&models.Classification{
		PostID:       id,
		IsPainPoint:  true,
		Category:     &category,
		Intensity:    &intensity,
		Keywords:     []string{"mrt", "delay"},
		ClassifiedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("First upsert failed: %v", err)
	}

	// Second upsert for the same post replaces the record.
	err = db.UpsertClassification(&models.Classification{
		PostID:       id,
		IsPainPoint:  false,
		ClassifiedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("Second upsert failed: %v", err)
	}

	painPoints, err := db.GetPainPoints(PainPointFilter{})
	if err != nil {
		t.Fatalf("GetPainPoints failed: %v", err)
	}
	if len(painPoints) != 0 {
		t.Errorf("Expected replaced classification to not be a pain point, got %d", len(painPoints))
	}
}

func TestUpsertClassificationMissingPost(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	err := db.UpsertClassification(&models.Classification{
		PostID:       "no-such-post",
		IsPainPoint:  true,
		ClassifiedAt: time.Now().UTC(),
	})

	var constraintErr *ConstraintError
	if !errors.As(err, &constraintErr) {
		t.Fatalf("Expected ConstraintError, got %v", err)
	}
	if constraintErr.PostID != "no-such-post" {
		t.Errorf("Unexpected post ID in error: %s", constraintErr.PostID)
	}
}

func TestGetPainPointsFilters(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	transport := insertTestPost(t, db, "reddit/r/singapore", "MRT rant", "delays")
	housing := insertTestPost(t, db, "hwz/edmw", "BTO rant", "ballot again")

	classify := func(postID, category string, intensity int) {
		t.Helper()
		audience := "consumer"
		automation := "high"
		err := db.UpsertClassification(&models.Classification{
			PostID:              postID,
			IsPainPoint:         true,
			Category:            &category,
			Audience:            &audience,
			Intensity:           &intensity,
			AutomationPotential: &automation,
			ClassifiedAt:        time.Now().UTC(),
		})
		if err != nil {
			t.Fatalf("Failed to classify %s: %v", postID, err)
		}
	}
	classify(transport, "transport", 9)
	classify(housing, "housing", 5)

	all, err := db.GetPainPoints(PainPointFilter{})
	if err != nil {
		t.Fatalf("GetPainPoints failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("Expected 2 pain points, got %d", len(all))
	}
	if all[0].Intensity != 9 {
		t.Errorf("Expected highest intensity first, got %d", all[0].Intensity)
	}

	filtered, err := db.GetPainPoints(PainPointFilter{Category: "transport"})
	if err != nil {
		t.Fatalf("GetPainPoints failed: %v", err)
	}
	if len(filtered) != 1 || filtered[0].Category != "transport" {
		t.Errorf("Unexpected category filter result: %+v", filtered)
	}

	intense, err := db.GetPainPoints(PainPointFilter{MinIntensity: 7})
	if err != nil {
		t.Fatalf("GetPainPoints failed: %v", err)
	}
	if len(intense) != 1 || intense[0].ID != transport {
		t.Errorf("Unexpected intensity filter result: %+v", intense)
	}
}

func TestGetCategoryStats(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	for i, title := range []string{"a", "b", "c"} {
		id := insertTestPost(t, db, "s", title, "content")
		category := "transport"
		if i == 2 {
			category = "housing"
		}
		intensity := 6 + i
		err := db.UpsertClassification(&models.Classification{
			PostID:       id,
			IsPainPoint:  true,
			Category:     &category,
			Intensity:    &intensity,
			ClassifiedAt: time.Now().UTC(),
		})
		if err != nil {
			t.Fatalf("Failed to classify: %v", err)
		}
	}

	stats, err := db.GetCategoryStats()
	if err != nil {
		t.Fatalf("GetCategoryStats failed: %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("Expected 2 categories, got %d", len(stats))
	}
	if stats[0].Category != "transport" || stats[0].Count != 2 {
		t.Errorf("Unexpected top category: %+v", stats[0])
	}
}

func TestGetTotalStats(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	insertTestPost(t, db, "reddit/r/singapore", "a", "1")
	insertTestPost(t, db, "reddit/r/singapore", "b", "2")
	id := insertTestPost(t, db, "hwz/edmw", "c", "3")

	err := db.UpsertClassification(&models.Classification{
		PostID:       id,
		IsPainPoint:  true,
		ClassifiedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("Failed to classify: %v", err)
	}

	stats, err := db.GetTotalStats()
	if err != nil {
		t.Fatalf("GetTotalStats failed: %v", err)
	}
	if stats.TotalPosts != 3 {
		t.Errorf("Expected 3 posts, got %d", stats.TotalPosts)
	}
	if stats.TotalPainPoints != 1 {
		t.Errorf("Expected 1 pain point, got %d", stats.TotalPainPoints)
	}
	if stats.TotalSources != 2 {
		t.Errorf("Expected 2 sources, got %d", stats.TotalSources)
	}
	if stats.PostsBySource["reddit/r/singapore"] != 2 {
		t.Errorf("Unexpected source counts: %v", stats.PostsBySource)
	}
}
