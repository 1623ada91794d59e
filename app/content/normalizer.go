package content

import (
	"cmp"
	"fmt"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	DefaultTitle  = "Untitled"
	DefaultAuthor = "Unknown"
)

var (
	sanitizer  = bluemonday.UGCPolicy()
	titleCaser = cases.Title(language.English)
)

type normalizeFunc func(payload map[string]any) (Record, error)

var normalizers = map[SourceKind]normalizeFunc{
	KindRSS:       normalizeRSS,
	KindWordPress: normalizeWordPress,
	KindYouTube:   normalizeYouTube,
	KindLinkedIn:  normalizeLinkedIn,
	KindFacebook:  normalizeFacebook,
	KindManual:    normalizeManual,
}

// Normalize maps a source-specific payload to the canonical Record. It is a
// pure transform; the only failure mode is a payload missing its identifier.
func Normalize(kind SourceKind, payload map[string]any) (Record, error) {
	fn, ok := normalizers[kind]
	if !ok {
		return Record{}, &NormalizationError{Kind: kind, Reason: "no normalizer registered"}
	}

	record, err := fn(payload)
	if err != nil {
		return Record{}, err
	}

	record.SourceKind = kind
	finalize(&record)

	return record, nil
}

func normalizeRSS(payload map[string]any) (Record, error) {
	guid := cmp.Or(str(payload, "guid"), str(payload, "link"))
	if guid == "" {
		return Record{}, &NormalizationError{Kind: KindRSS, Reason: "item has neither guid nor link"}
	}

	return Record{
		ExternalID:   guid,
		GUID:         guid,
		Title:        str(payload, "title"),
		Description:  str(payload, "description"),
		Content:      str(payload, "content"),
		Link:         str(payload, "link"),
		PublishedAt:  timeVal(payload, "published_at"),
		Author:       str(payload, "author"),
		ThumbnailURL: str(payload, "thumbnail_url"),
		Categories:   strSlice(payload, "categories"),
	}, nil
}

func normalizeWordPress(payload map[string]any) (Record, error) {
	id := numericID(payload, "id")
	if id == "" {
		return Record{}, &NormalizationError{Kind: KindWordPress, Reason: "post has no id"}
	}

	record := Record{
		ExternalID:  id,
		GUID:        id,
		Title:       str(payload, "title", "rendered"),
		Description: str(payload, "excerpt", "rendered"),
		Content:     str(payload, "content", "rendered"),
		Link:        str(payload, "link"),
		PublishedAt: parseTime(str(payload, "date")),
		Author:      str(payload, "_embedded", "author", "name"),
		Metadata: map[string]any{
			"status": str(payload, "status"),
			"slug":   str(payload, "slug"),
		},
	}

	if thumb := str(payload, "jetpack_featured_media_url"); thumb != "" {
		record.ThumbnailURL = thumb
	} else {
		record.ThumbnailURL = str(payload, "_embedded", "wp:featuredmedia", "source_url")
	}

	return record, nil
}

func normalizeYouTube(payload map[string]any) (Record, error) {
	videoID := str(payload, "id", "videoId")
	if videoID == "" {
		videoID = str(payload, "id")
	}
	if videoID == "" {
		return Record{}, &NormalizationError{Kind: KindYouTube, Reason: "item has no video id"}
	}

	return Record{
		ExternalID:   videoID,
		GUID:         videoID,
		Title:        str(payload, "snippet", "title"),
		Description:  str(payload, "snippet", "description"),
		Content:      str(payload, "snippet", "description"),
		Link:         "https://www.youtube.com/watch?v=" + videoID,
		PublishedAt:  parseTime(str(payload, "snippet", "publishedAt")),
		Author:       str(payload, "snippet", "channelTitle"),
		ThumbnailURL: cmp.Or(str(payload, "snippet", "thumbnails", "high", "url"), str(payload, "snippet", "thumbnails", "default", "url")),
		Metadata: map[string]any{
			"channel_id": str(payload, "snippet", "channelId"),
		},
	}, nil
}

func normalizeLinkedIn(payload map[string]any) (Record, error) {
	id := str(payload, "id")
	if id == "" {
		return Record{}, &NormalizationError{Kind: KindLinkedIn, Reason: "post has no id"}
	}

	body := cmp.Or(str(payload, "commentary"), str(payload, "text"), str(payload, "content"))

	return Record{
		ExternalID:   id,
		GUID:         id,
		Title:        cmp.Or(str(payload, "title"), firstLine(body)),
		Description:  excerpt(body, 280),
		Content:      body,
		Link:         cmp.Or(str(payload, "permalink"), str(payload, "url")),
		PublishedAt:  timeVal(payload, "published_at"),
		Author:       str(payload, "author"),
		ThumbnailURL: str(payload, "thumbnail_url"),
	}, nil
}

func normalizeFacebook(payload map[string]any) (Record, error) {
	id := str(payload, "id")
	if id == "" {
		return Record{}, &NormalizationError{Kind: KindFacebook, Reason: "post has no id"}
	}

	body := cmp.Or(str(payload, "message"), str(payload, "story"))

	return Record{
		ExternalID:   id,
		GUID:         id,
		Title:        cmp.Or(str(payload, "name"), firstLine(body)),
		Description:  excerpt(body, 280),
		Content:      body,
		Link:         str(payload, "permalink_url"),
		PublishedAt:  parseTime(str(payload, "created_time")),
		Author:       str(payload, "from", "name"),
		ThumbnailURL: str(payload, "full_picture"),
	}, nil
}

func normalizeManual(payload map[string]any) (Record, error) {
	link := str(payload, "url")
	if link == "" {
		return Record{}, &NormalizationError{Kind: KindManual, Reason: "entry has no url"}
	}

	return Record{
		ExternalID:   link,
		GUID:         link,
		Title:        str(payload, "title"),
		Description:  str(payload, "description"),
		Content:      str(payload, "content"),
		Link:         link,
		Author:       str(payload, "author"),
		ThumbnailURL: str(payload, "thumbnail_url"),
		Categories:   strSlice(payload, "categories"),
	}, nil
}

// finalize enforces the canonical invariants: no empty display fields,
// sanitized HTML bodies, canonical category labels.
func finalize(r *Record) {
	r.Title = cmp.Or(strings.TrimSpace(r.Title), DefaultTitle)
	r.Author = cmp.Or(strings.TrimSpace(r.Author), DefaultAuthor)
	r.Description = sanitizer.Sanitize(r.Description)
	r.Content = sanitizer.Sanitize(r.Content)
	r.Categories = CanonicalCategories(r.Categories)
}

// CanonicalCategories trims, title-cases and de-duplicates category labels
// while preserving their order.
func CanonicalCategories(categories []string) []string {
	if len(categories) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(categories))
	result := make([]string, 0, len(categories))
	for _, c := range categories {
		label := titleCaser.String(strings.TrimSpace(c))
		if label == "" || seen[label] {
			continue
		}
		seen[label] = true
		result = append(result, label)
	}
	return result
}

// str walks nested maps following keys and returns the string at the end.
// Intermediate JSON arrays are traversed through their first element, which
// matches how the WordPress _embedded envelope nests authors and media.
func str(m map[string]any, keys ...string) string {
	var current any = m
	for _, key := range keys {
		node, ok := current.(map[string]any)
		if !ok {
			return ""
		}
		current = node[key]
		if list, ok := current.([]any); ok {
			if len(list) == 0 {
				return ""
			}
			current = list[0]
		}
	}

	s, ok := current.(string)
	if !ok {
		return ""
	}
	return s
}

func strSlice(m map[string]any, key string) []string {
	switch v := m[key].(type) {
	case []string:
		return v
	case []any:
		result := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				result = append(result, s)
			}
		}
		return result
	}
	return nil
}

func timeVal(m map[string]any, key string) *time.Time {
	switch v := m[key].(type) {
	case time.Time:
		return &v
	case *time.Time:
		return v
	case string:
		return parseTime(v)
	}
	return nil
}

// numericID renders JSON numeric identifiers as strings without a decimal
// point; WordPress post IDs arrive as float64 after generic decoding.
func numericID(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case float64:
		return fmt.Sprintf("%.0f", v)
	case int:
		return fmt.Sprintf("%d", v)
	case int64:
		return fmt.Sprintf("%d", v)
	}
	return ""
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05-0700",
	"2006-01-02 15:04:05",
}

func parseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.IndexByte(s, '\n'); idx > 0 {
		s = s[:idx]
	}
	return excerpt(s, 120)
}

func excerpt(s string, limit int) string {
	s = strings.TrimSpace(s)
	if len(s) <= limit {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
