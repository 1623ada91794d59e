package feed

import (
	"time"
)

type Metadata struct {
	Title       string
	Link        string
	Description string
	ImageURL    string
	Language    string
	PublishedAt *time.Time
}

type Item struct {
	GUID         string
	Title        string
	Link         string
	Description  string
	Body         string
	PublishedAt  *time.Time
	Author       string
	Categories   []string
	ThumbnailURL string
}
