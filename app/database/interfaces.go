package database

import (
	"time"
)

type SourceRepository interface {
	Upsert(source Source) (string, error)
	GetAll() ([]Source, error)
	GetByID(id string) (*Source, error)
	GetDue(limit int) ([]Source, error)
	TouchLastFetched(id string, nextFetch time.Time) error
	UpdateTitle(id string, title string) error
	GetCount() (int, error)
}

type ArticleRepository interface {
	// Upsert inserts or updates by the natural key
	// (user_id, source_kind, external_id). Only content and enrichment
	// fields are updated on conflict; user state (read, saved) and
	// created_at are never overwritten. Returns true when a new row was
	// created.
	Upsert(article Article) (bool, error)

	ExistsByGUID(sourceID, guid string) (bool, error)
	GetByNaturalKey(userID, sourceKind, externalID string) (*Article, error)
	GetByID(id string) (*Article, error)
	List(filter ArticleFilter) ([]Article, error)

	SetRead(id string, read bool) error
	SetSaved(id string, saved bool) error
	MarkTransformed(id string) error

	GetCount() (int, error)
	DeleteStale(olderThan time.Time) (int64, error)
}

type TransformationRepository interface {
	// Create inserts the transformation and flips the origin article's
	// transformed flag in the same transaction.
	Create(t Transformation) (string, error)
	ListByArticle(articleID string) ([]Transformation, error)
}
