package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := NewConnection(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, _, err = RunMigrations(db)
	require.NoError(t, err)

	return db
}

func testArticle(userID, kind, externalID string) Article {
	published := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	return Article{
		UserID:      userID,
		SourceKind:  kind,
		ExternalID:  externalID,
		GUID:        externalID,
		Link:        "https://example.com/" + externalID,
		Title:       "Test Article",
		Description: "A description",
		Content:     "The body",
		PublishedAt: &published,
		Author:      "Test Author",
		Categories:  []string{"Technology"},
	}
}

func TestArticleUpsertCreatesThenUpdates(t *testing.T) {
	db := newTestDB(t)
	repo := NewArticleRepository(db)

	created, err := repo.Upsert(testArticle("user-1", "rss", "guid-1"))
	require.NoError(t, err)
	assert.True(t, created, "first upsert should create")

	updated := testArticle("user-1", "rss", "guid-1")
	updated.Title = "Updated Title"
	created, err = repo.Upsert(updated)
	require.NoError(t, err)
	assert.False(t, created, "second upsert should update in place")

	count, err := repo.GetCount()
	require.NoError(t, err)
	assert.Equal(t, 1, count, "natural key must yield exactly one row")

	stored, err := repo.GetByNaturalKey("user-1", "rss", "guid-1")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "Updated Title", stored.Title)
}

func TestArticleUpsertPreservesUserState(t *testing.T) {
	db := newTestDB(t)
	repo := NewArticleRepository(db)

	_, err := repo.Upsert(testArticle("user-1", "wordpress", "42"))
	require.NoError(t, err)

	stored, err := repo.GetByNaturalKey("user-1", "wordpress", "42")
	require.NoError(t, err)
	require.NoError(t, repo.SetSaved(stored.ID, true))
	require.NoError(t, repo.SetRead(stored.ID, true))

	// Re-ingestion with fresh enrichment data
	reingested := testArticle("user-1", "wordpress", "42")
	reingested.AICategories = []string{"Technology", "Go"}
	reingested.AISummary = "A fresh summary"
	reingested.Saved = false
	reingested.Read = false
	_, err = repo.Upsert(reingested)
	require.NoError(t, err)

	stored, err = repo.GetByNaturalKey("user-1", "wordpress", "42")
	require.NoError(t, err)
	assert.True(t, stored.Saved, "saved must survive re-ingestion")
	assert.True(t, stored.Read, "read must survive re-ingestion")
	assert.Equal(t, []string{"Technology", "Go"}, stored.AICategories)
	assert.Equal(t, "A fresh summary", stored.AISummary)
}

func TestArticleNaturalKeyIsScopedPerUser(t *testing.T) {
	db := newTestDB(t)
	repo := NewArticleRepository(db)

	_, err := repo.Upsert(testArticle("user-1", "rss", "guid-1"))
	require.NoError(t, err)
	created, err := repo.Upsert(testArticle("user-2", "rss", "guid-1"))
	require.NoError(t, err)
	assert.True(t, created, "same natural key for another user is a new row")

	count, err := repo.GetCount()
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestArticleExistsByGUID(t *testing.T) {
	db := newTestDB(t)
	sourceRepo := NewSourceRepository(db)
	repo := NewArticleRepository(db)

	sourceID, err := sourceRepo.Upsert(Source{UserID: "user-1", Kind: "rss", URL: "https://example.com/feed"})
	require.NoError(t, err)

	article := testArticle("user-1", "rss", "guid-1")
	article.SourceID = sourceID
	_, err = repo.Upsert(article)
	require.NoError(t, err)

	exists, err := repo.ExistsByGUID(sourceID, "guid-1")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsByGUID(sourceID, "guid-other")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestArticleListFilters(t *testing.T) {
	db := newTestDB(t)
	repo := NewArticleRepository(db)

	saved := testArticle("user-1", "rss", "guid-1")
	saved.Saved = true
	_, err := repo.Upsert(saved)
	require.NoError(t, err)
	_, err = repo.Upsert(testArticle("user-1", "wordpress", "42"))
	require.NoError(t, err)
	_, err = repo.Upsert(testArticle("user-2", "rss", "guid-2"))
	require.NoError(t, err)

	articles, err := repo.List(ArticleFilter{UserID: "user-1"})
	require.NoError(t, err)
	assert.Len(t, articles, 2)

	articles, err = repo.List(ArticleFilter{UserID: "user-1", SavedOnly: true})
	require.NoError(t, err)
	require.Len(t, articles, 1)
	assert.Equal(t, "guid-1", articles[0].ExternalID)

	articles, err = repo.List(ArticleFilter{SourceKind: "wordpress"})
	require.NoError(t, err)
	assert.Len(t, articles, 1)
}

func TestArticleDeleteStale(t *testing.T) {
	db := newTestDB(t)
	repo := NewArticleRepository(db)

	_, err := repo.Upsert(testArticle("user-1", "rss", "old-unsaved"))
	require.NoError(t, err)

	savedArticle := testArticle("user-1", "rss", "old-saved")
	savedArticle.Saved = true
	_, err = repo.Upsert(savedArticle)
	require.NoError(t, err)

	// Everything was created just now; a cutoff in the future makes both
	// "old", but only the unsaved one qualifies.
	deleted, err := repo.DeleteStale(time.Now().UTC().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	remaining, err := repo.GetByNaturalKey("user-1", "rss", "old-saved")
	require.NoError(t, err)
	assert.NotNil(t, remaining, "saved articles must survive cleanup")
}

func TestTransformationCreateSetsFlag(t *testing.T) {
	db := newTestDB(t)
	articleRepo := NewArticleRepository(db)
	transformRepo := NewTransformationRepository(db)

	_, err := articleRepo.Upsert(testArticle("user-1", "rss", "guid-1"))
	require.NoError(t, err)
	stored, err := articleRepo.GetByNaturalKey("user-1", "rss", "guid-1")
	require.NoError(t, err)
	assert.False(t, stored.Transformed)

	_, err = transformRepo.Create(Transformation{
		ArticleID: stored.ID,
		Kind:      "markdown",
		Result:    "# Test Article",
		Settings:  map[string]any{"flavor": "commonmark"},
	})
	require.NoError(t, err)

	stored, err = articleRepo.GetByID(stored.ID)
	require.NoError(t, err)
	assert.True(t, stored.Transformed, "creating a transformation flips the flag")

	transformations, err := transformRepo.ListByArticle(stored.ID)
	require.NoError(t, err)
	require.Len(t, transformations, 1)
	assert.Equal(t, "markdown", transformations[0].Kind)
	assert.Equal(t, "commonmark", transformations[0].Settings["flavor"])

	// A stale article that was transformed must survive cleanup
	deleted, err := articleRepo.DeleteStale(time.Now().UTC().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(0), deleted)
}

func TestSourceUpsertIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	repo := NewSourceRepository(db)

	id1, err := repo.Upsert(Source{UserID: "user-1", Kind: "rss", URL: "https://example.com/feed", Title: "First"})
	require.NoError(t, err)
	id2, err := repo.Upsert(Source{UserID: "user-1", Kind: "rss", URL: "https://example.com/feed", Title: "Renamed"})
	require.NoError(t, err)
	assert.Equal(t, id1, id2, "re-registration must not create a second source")

	source, err := repo.GetByID(id1)
	require.NoError(t, err)
	require.NotNil(t, source)
	assert.Equal(t, "Renamed", source.Title)

	count, err := repo.GetCount()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSourceDueAndTouch(t *testing.T) {
	db := newTestDB(t)
	repo := NewSourceRepository(db)

	id, err := repo.Upsert(Source{UserID: "user-1", Kind: "rss", URL: "https://example.com/feed"})
	require.NoError(t, err)

	due, err := repo.GetDue(10)
	require.NoError(t, err)
	assert.Len(t, due, 1, "never-fetched sources are due immediately")

	require.NoError(t, repo.TouchLastFetched(id, time.Now().UTC().Add(time.Hour)))

	due, err = repo.GetDue(10)
	require.NoError(t, err)
	assert.Empty(t, due, "source with a future next fetch is not due")

	source, err := repo.GetByID(id)
	require.NoError(t, err)
	assert.NotNil(t, source.LastFetchedAt, "touch must record the attempt")
}
