package content

import (
	"fmt"
	"time"
)

type SourceKind string

const (
	KindRSS       SourceKind = "rss"
	KindWordPress SourceKind = "wordpress"
	KindYouTube   SourceKind = "youtube"
	KindLinkedIn  SourceKind = "linkedin"
	KindFacebook  SourceKind = "facebook"
	KindManual    SourceKind = "manual"
)

func ParseKind(s string) (SourceKind, error) {
	switch SourceKind(s) {
	case KindRSS, KindWordPress, KindYouTube, KindLinkedIn, KindFacebook, KindManual:
		return SourceKind(s), nil
	}
	return "", fmt.Errorf("unknown source kind: %q", s)
}

// Record is the canonical content representation every source is mapped to.
// ExternalID is unique within SourceKind; (SourceKind, ExternalID) is the
// natural key used for deduplication.
type Record struct {
	SourceKind   SourceKind
	ExternalID   string
	GUID         string
	Title        string
	Description  string
	Content      string
	Link         string
	PublishedAt  *time.Time
	Author       string
	ThumbnailURL string
	Categories   []string
	AICategories []string
	AISummary    string
	Metadata     map[string]any
}

// NormalizationError indicates a source payload that cannot be mapped to a
// Record, typically because its identifier is missing. The affected item is
// skipped; the batch continues.
type NormalizationError struct {
	Kind   SourceKind
	Reason string
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("cannot normalize %s payload: %s", e.Kind, e.Reason)
}
