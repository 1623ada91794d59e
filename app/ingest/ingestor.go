package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lysyi3m/content-comb/app/classify"
	"github.com/lysyi3m/content-comb/app/content"
	"github.com/lysyi3m/content-comb/app/database"
	"github.com/lysyi3m/content-comb/app/feed"
	"github.com/lysyi3m/content-comb/app/platform"
)

type Fetcher interface {
	Run(ctx context.Context, url string) ([]byte, error)
}

type FeedParser interface {
	Run(data []byte) (*feed.Metadata, []feed.Item, error)
}

type Enricher interface {
	Run(ctx context.Context, title, body string) classify.Result
}

type ImporterRegistry interface {
	Get(kind content.SourceKind) (platform.Importer, error)
}

// Summary accounts for every item of one ingestion run. Skipped counts feed
// items already present; Errors counts items that failed normalization or
// storage while the rest of the batch continued.
type Summary struct {
	Added   int `json:"added"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
	Errors  int `json:"errors"`
}

type Ingestor struct {
	fetcher     Fetcher
	parser      FeedParser
	enricher    Enricher
	importers   ImporterRegistry
	sourceRepo  database.SourceRepository
	articleRepo database.ArticleRepository
}

func NewIngestor(fetcher Fetcher, parser FeedParser, enricher Enricher,
	importers ImporterRegistry, sourceRepo database.SourceRepository,
	articleRepo database.ArticleRepository) *Ingestor {
	return &Ingestor{
		fetcher:     fetcher,
		parser:      parser,
		enricher:    enricher,
		importers:   importers,
		sourceRepo:  sourceRepo,
		articleRepo: articleRepo,
	}
}

// Run ingests one source end to end. Fetch and parse failures abort the
// source; per-item failures are counted and the batch continues. The
// source's fetch bookkeeping is updated after every attempt, successful or
// not, so a persistently broken source does not get retried in a tight loop.
func (i *Ingestor) Run(ctx context.Context, source database.Source) (Summary, error) {
	start := time.Now()

	kind, err := content.ParseKind(source.Kind)
	if err != nil {
		return Summary{}, err
	}

	defer func() {
		interval := time.Duration(source.RefreshInterval) * time.Second
		if touchErr := i.sourceRepo.TouchLastFetched(source.ID, time.Now().UTC().Add(interval)); touchErr != nil {
			slog.Error("Failed to update source fetch time", "source", source.URL, "error", touchErr)
		}
	}()

	var summary Summary
	switch kind {
	case content.KindRSS:
		summary, err = i.refreshFeed(ctx, source)
	default:
		summary, err = i.importRemote(ctx, source, kind)
	}
	if err != nil {
		return summary, err
	}

	slog.Info("Source ingested",
		"source", source.URL,
		"kind", source.Kind,
		"added", summary.Added,
		"updated", summary.Updated,
		"skipped", summary.Skipped,
		"errors", summary.Errors,
		"duration", time.Since(start).Round(time.Millisecond))

	return summary, nil
}

func (i *Ingestor) refreshFeed(ctx context.Context, source database.Source) (Summary, error) {
	var summary Summary

	data, err := i.fetcher.Run(ctx, source.URL)
	if err != nil {
		return summary, err
	}

	metadata, items, err := i.parser.Run(data)
	if err != nil {
		return summary, fmt.Errorf("failed to parse feed %s: %w", source.URL, err)
	}

	if source.Title == "" && metadata.Title != "" {
		if err := i.sourceRepo.UpdateTitle(source.ID, metadata.Title); err != nil {
			slog.Warn("Failed to update source title", "source", source.URL, "error", err)
		}
	}

	for _, item := range items {
		exists, err := i.articleRepo.ExistsByGUID(source.ID, item.GUID)
		if err != nil {
			summary.Errors++
			continue
		}
		if exists {
			summary.Skipped++
			continue
		}

		record, err := content.Normalize(content.KindRSS, feedPayload(item))
		if err != nil {
			slog.Warn("Skipping feed item", "source", source.URL, "error", err)
			summary.Errors++
			continue
		}

		i.store(ctx, source, record, false, &summary)
	}

	return summary, nil
}

func (i *Ingestor) importRemote(ctx context.Context, source database.Source, kind content.SourceKind) (Summary, error) {
	importer, err := i.importers.Get(kind)
	if err != nil {
		return Summary{}, err
	}

	payloads, err := importer.Fetch(ctx, source)
	if err != nil {
		return Summary{}, err
	}

	return i.ingestPayloads(ctx, source, kind, payloads), nil
}

// ImportBatch ingests caller-supplied payloads for sources whose platform
// has no open API (LinkedIn, Facebook exports, manual entries). Imported
// items are marked saved: the user asked for them explicitly.
func (i *Ingestor) ImportBatch(ctx context.Context, userID string, kind content.SourceKind, payloads []map[string]any) Summary {
	source := database.Source{UserID: userID, Kind: string(kind)}
	return i.ingestPayloads(ctx, source, kind, payloads)
}

func (i *Ingestor) ingestPayloads(ctx context.Context, source database.Source, kind content.SourceKind, payloads []map[string]any) Summary {
	var summary Summary

	for _, payload := range payloads {
		record, err := content.Normalize(kind, payload)
		if err != nil {
			slog.Warn("Skipping import item", "kind", kind, "error", err)
			summary.Errors++
			continue
		}

		// Unlike feed refresh, imports re-process known items so their
		// enrichment stays current.
		i.store(ctx, source, record, true, &summary)
	}

	return summary
}

func (i *Ingestor) store(ctx context.Context, source database.Source, record content.Record, saved bool, summary *Summary) {
	if i.enricher != nil && len(record.AICategories) == 0 && record.AISummary == "" {
		result := i.enricher.Run(ctx, record.Title, record.Content)
		record.AICategories = result.Categories
		record.AISummary = result.Summary
	}

	created, err := i.articleRepo.Upsert(database.Article{
		UserID:       source.UserID,
		SourceID:     source.ID,
		SourceKind:   string(record.SourceKind),
		ExternalID:   record.ExternalID,
		GUID:         record.GUID,
		Link:         record.Link,
		Title:        record.Title,
		Description:  record.Description,
		Content:      record.Content,
		PublishedAt:  record.PublishedAt,
		Author:       record.Author,
		ThumbnailURL: record.ThumbnailURL,
		Categories:   record.Categories,
		AICategories: record.AICategories,
		AISummary:    record.AISummary,
		Metadata:     record.Metadata,
		Saved:        saved,
	})
	if err != nil {
		slog.Warn("Failed to store article", "external_id", record.ExternalID, "error", err)
		summary.Errors++
		return
	}

	if created {
		summary.Added++
	} else {
		summary.Updated++
	}
}

func feedPayload(item feed.Item) map[string]any {
	return map[string]any{
		"guid":          item.GUID,
		"title":         item.Title,
		"description":   item.Description,
		"content":       item.Body,
		"link":          item.Link,
		"published_at":  item.PublishedAt,
		"author":        item.Author,
		"thumbnail_url": item.ThumbnailURL,
		"categories":    item.Categories,
	}
}
