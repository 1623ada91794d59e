package ingest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lysyi3m/content-comb/app/classify"
	"github.com/lysyi3m/content-comb/app/content"
	"github.com/lysyi3m/content-comb/app/database"
	"github.com/lysyi3m/content-comb/app/feed"
	"github.com/lysyi3m/content-comb/app/platform"
)

type fakeFetcher struct {
	data []byte
	err  error
}

func (f *fakeFetcher) Run(ctx context.Context, url string) ([]byte, error) {
	return f.data, f.err
}

type fakeParser struct {
	metadata feed.Metadata
	items    []feed.Item
	err      error
}

func (f *fakeParser) Run(data []byte) (*feed.Metadata, []feed.Item, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	return &f.metadata, f.items, nil
}

type fakeEnricher struct {
	calls  int
	result classify.Result
}

func (f *fakeEnricher) Run(ctx context.Context, title, body string) classify.Result {
	f.calls++
	return f.result
}

type fakeImporters struct {
	payloads []map[string]any
	err      error
}

func (f *fakeImporters) Get(kind content.SourceKind) (platform.Importer, error) {
	return fakeImporter{payloads: f.payloads, err: f.err, kind: kind}, nil
}

type fakeImporter struct {
	payloads []map[string]any
	err      error
	kind     content.SourceKind
}

func (f fakeImporter) Kind() content.SourceKind { return f.kind }

func (f fakeImporter) Fetch(ctx context.Context, source database.Source) ([]map[string]any, error) {
	return f.payloads, f.err
}

type fixture struct {
	sourceRepo  database.SourceRepository
	articleRepo database.ArticleRepository
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	db, err := database.NewConnection(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	_, _, err = database.RunMigrations(db)
	require.NoError(t, err)

	return fixture{
		sourceRepo:  database.NewSourceRepository(db),
		articleRepo: database.NewArticleRepository(db),
	}
}

func (f fixture) registerSource(t *testing.T, kind, url string) database.Source {
	t.Helper()
	id, err := f.sourceRepo.Upsert(database.Source{UserID: "user-1", Kind: kind, URL: url})
	require.NoError(t, err)
	source, err := f.sourceRepo.GetByID(id)
	require.NoError(t, err)
	return *source
}

func feedItems() []feed.Item {
	return []feed.Item{
		{GUID: "item-1", Title: "One", Link: "https://example.com/1", Body: "Body one, long enough"},
		{GUID: "item-2", Title: "Two", Link: "https://example.com/2", Body: "Body two, long enough"},
		{}, // neither guid nor link, normalization must reject it
		{GUID: "item-4", Title: "Four", Link: "https://example.com/4", Body: "Body four, long enough"},
		{GUID: "item-5", Title: "Five", Link: "https://example.com/5", Body: "Body five, long enough"},
	}
}

func TestRunFeedPartialBatchIsolation(t *testing.T) {
	f := newFixture(t)
	source := f.registerSource(t, "rss", "https://example.com/feed")

	enricher := &fakeEnricher{result: classify.Result{Categories: []string{"Tech"}, Summary: "summary"}}
	ingestor := NewIngestor(
		&fakeFetcher{data: []byte("feed")},
		&fakeParser{metadata: feed.Metadata{Title: "Example Feed"}, items: feedItems()},
		enricher, nil, f.sourceRepo, f.articleRepo)

	summary, err := ingestor.Run(context.Background(), source)
	require.NoError(t, err)

	assert.Equal(t, Summary{Added: 4, Errors: 1}, summary)
	assert.Equal(t, 4, enricher.calls, "only valid items are enriched")

	count, err := f.articleRepo.GetCount()
	require.NoError(t, err)
	assert.Equal(t, 4, count)

	stored, err := f.articleRepo.GetByNaturalKey("user-1", "rss", "item-1")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.False(t, stored.Saved, "feed refresh must not mark items saved")
	assert.Equal(t, []string{"Tech"}, stored.AICategories)

	refreshed, err := f.sourceRepo.GetByID(source.ID)
	require.NoError(t, err)
	assert.NotNil(t, refreshed.LastFetchedAt, "fetch time updates despite item failures")
	assert.Equal(t, "Example Feed", refreshed.Title, "feed title backfills an untitled source")
}

func TestRunFeedSkipsExistingItems(t *testing.T) {
	f := newFixture(t)
	source := f.registerSource(t, "rss", "https://example.com/feed")

	enricher := &fakeEnricher{}
	ingestor := NewIngestor(
		&fakeFetcher{data: []byte("feed")},
		&fakeParser{metadata: feed.Metadata{Title: "Example Feed"}, items: feedItems()},
		enricher, nil, f.sourceRepo, f.articleRepo)

	_, err := ingestor.Run(context.Background(), source)
	require.NoError(t, err)
	firstCalls := enricher.calls

	summary, err := ingestor.Run(context.Background(), source)
	require.NoError(t, err)

	assert.Equal(t, Summary{Skipped: 4, Errors: 1}, summary)
	assert.Equal(t, firstCalls, enricher.calls, "known items must not be re-enriched")

	count, err := f.articleRepo.GetCount()
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}

func TestRunFetchFailureStillTouchesSource(t *testing.T) {
	f := newFixture(t)
	source := f.registerSource(t, "rss", "https://example.com/feed")

	ingestor := NewIngestor(
		&fakeFetcher{err: errors.New("all strategies failed")},
		&fakeParser{}, nil, nil, f.sourceRepo, f.articleRepo)

	_, err := ingestor.Run(context.Background(), source)
	require.Error(t, err)

	refreshed, err := f.sourceRepo.GetByID(source.ID)
	require.NoError(t, err)
	assert.NotNil(t, refreshed.LastFetchedAt, "a failed attempt still counts as an attempt")
	assert.NotNil(t, refreshed.NextFetchAt)
}

func TestRunImportMarksSavedAndReenriches(t *testing.T) {
	f := newFixture(t)
	source := f.registerSource(t, "wordpress", "https://blog.example.com")

	payloads := []map[string]any{
		{"id": float64(42), "title": map[string]any{"rendered": "Post"}, "content": map[string]any{"rendered": "A post body long enough"}},
		{"title": map[string]any{"rendered": "No ID"}},
	}

	enricher := &fakeEnricher{result: classify.Result{Summary: "first pass"}}
	ingestor := NewIngestor(nil, nil, enricher,
		&fakeImporters{payloads: payloads}, f.sourceRepo, f.articleRepo)

	summary, err := ingestor.Run(context.Background(), source)
	require.NoError(t, err)
	assert.Equal(t, Summary{Added: 1, Errors: 1}, summary)

	stored, err := f.articleRepo.GetByNaturalKey("user-1", "wordpress", "42")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.True(t, stored.Saved, "explicit imports are saved")
	assert.Equal(t, "first pass", stored.AISummary)

	// A second import updates the known item instead of skipping it
	enricher.result = classify.Result{Summary: "second pass"}
	summary, err = ingestor.Run(context.Background(), source)
	require.NoError(t, err)
	assert.Equal(t, Summary{Updated: 1, Errors: 1}, summary)

	stored, err = f.articleRepo.GetByNaturalKey("user-1", "wordpress", "42")
	require.NoError(t, err)
	assert.Equal(t, "second pass", stored.AISummary)
}

func TestImportBatch(t *testing.T) {
	f := newFixture(t)

	ingestor := NewIngestor(nil, nil, nil, nil, f.sourceRepo, f.articleRepo)
	summary := ingestor.ImportBatch(context.Background(), "user-1", content.KindFacebook, []map[string]any{
		{"id": "fb-1", "message": "Hello from the other side", "permalink_url": "https://fb.example/1"},
		{"message": "no id here"},
	})

	assert.Equal(t, Summary{Added: 1, Errors: 1}, summary)

	stored, err := f.articleRepo.GetByNaturalKey("user-1", "facebook", "fb-1")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.True(t, stored.Saved)
	assert.Equal(t, "", stored.SourceID, "batch imports are not tied to a registered source")
}

func TestRunRejectsUnknownKind(t *testing.T) {
	f := newFixture(t)
	ingestor := NewIngestor(nil, nil, nil, nil, f.sourceRepo, f.articleRepo)

	_, err := ingestor.Run(context.Background(), database.Source{Kind: "gopher"})
	require.Error(t, err)
}
