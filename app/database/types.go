package database

import (
	"time"
)

type Source struct {
	ID              string     `json:"id"` // Database UUID
	UserID          string     `json:"user_id"`
	Kind            string     `json:"kind"` // rss, wordpress, youtube, linkedin, facebook, manual
	URL             string     `json:"url"`
	Title           string     `json:"title"`
	Category        string     `json:"category"`
	RefreshInterval int        `json:"refresh_interval"` // seconds
	LastFetchedAt   *time.Time `json:"last_fetched_at"`
	NextFetchAt     *time.Time `json:"next_fetch_at"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

type Article struct {
	ID           string         `json:"id"`
	UserID       string         `json:"user_id"`
	SourceID     string         `json:"source_id"` // empty for records imported without a registered source
	SourceKind   string         `json:"source_kind"`
	ExternalID   string         `json:"external_id"` // unique within SourceKind per user
	GUID         string         `json:"guid"`
	Link         string         `json:"link"`
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	Content      string         `json:"content"`
	PublishedAt  *time.Time     `json:"published_at"`
	Author       string         `json:"author"`
	ThumbnailURL string         `json:"thumbnail_url"`
	Categories   []string       `json:"categories"`
	AICategories []string       `json:"ai_categories"`
	AISummary    string         `json:"ai_summary"`
	Metadata     map[string]any `json:"metadata"`
	Read         bool           `json:"read"`
	Saved        bool           `json:"saved"`
	Transformed  bool           `json:"transformed"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

type Transformation struct {
	ID        string         `json:"id"`
	ArticleID string         `json:"article_id"`
	Kind      string         `json:"kind"`
	Result    string         `json:"result"`
	Settings  map[string]any `json:"settings"`
	CreatedAt time.Time      `json:"created_at"`
}

// ArticleFilter narrows List queries. Zero values mean "no constraint".
type ArticleFilter struct {
	UserID     string
	SourceID   string
	SourceKind string
	SavedOnly  bool
	UnreadOnly bool
	Limit      int
}
