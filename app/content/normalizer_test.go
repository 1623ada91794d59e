package content

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestNormalizeWordPress(t *testing.T) {
	payload := map[string]any{
		"id":   float64(42),
		"date": "2024-03-01T10:00:00",
		"link": "https://blog.example.com/hello-world",
		"slug": "hello-world",
		"title": map[string]any{
			"rendered": "Hello World",
		},
		"excerpt": map[string]any{
			"rendered": "<p>A short excerpt</p>",
		},
		"content": map[string]any{
			"rendered": "<p>The full post body</p>",
		},
		"_embedded": map[string]any{
			"author": []any{
				map[string]any{"name": "Jane Doe"},
			},
		},
	}

	record, err := Normalize(KindWordPress, payload)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if record.SourceKind != KindWordPress {
		t.Errorf("Expected source kind 'wordpress', got: %s", record.SourceKind)
	}
	if record.ExternalID != "42" {
		t.Errorf("Expected external ID '42', got: %s", record.ExternalID)
	}
	if record.Title != "Hello World" {
		t.Errorf("Expected title 'Hello World', got: %s", record.Title)
	}
	if record.Author != "Jane Doe" {
		t.Errorf("Expected author 'Jane Doe', got: %s", record.Author)
	}
	if record.Link != "https://blog.example.com/hello-world" {
		t.Errorf("Expected post link, got: %s", record.Link)
	}
	if record.PublishedAt == nil {
		t.Fatal("Expected published date to be set")
	}
	if record.PublishedAt.Year() != 2024 {
		t.Errorf("Expected published year 2024, got: %d", record.PublishedAt.Year())
	}
	if !strings.Contains(record.Content, "The full post body") {
		t.Errorf("Expected content to survive sanitizing, got: %s", record.Content)
	}
}

func TestNormalizeWordPressMissingID(t *testing.T) {
	_, err := Normalize(KindWordPress, map[string]any{
		"title": map[string]any{"rendered": "No ID"},
	})
	if err == nil {
		t.Fatal("Expected error for payload without id")
	}

	var normErr *NormalizationError
	if !errors.As(err, &normErr) {
		t.Fatalf("Expected NormalizationError, got: %T", err)
	}
	if normErr.Kind != KindWordPress {
		t.Errorf("Expected kind 'wordpress' in error, got: %s", normErr.Kind)
	}
}

func TestNormalizeYouTube(t *testing.T) {
	payload := map[string]any{
		"id": map[string]any{"videoId": "dQw4w9WgXcQ"},
		"snippet": map[string]any{
			"title":        "Test Video",
			"description":  "A description long enough to matter",
			"publishedAt":  "2024-05-10T08:30:00Z",
			"channelTitle": "Test Channel",
			"channelId":    "UC123",
			"thumbnails": map[string]any{
				"high": map[string]any{"url": "https://i.ytimg.com/vi/dQw4w9WgXcQ/hq.jpg"},
			},
		},
	}

	record, err := Normalize(KindYouTube, payload)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if record.ExternalID != "dQw4w9WgXcQ" {
		t.Errorf("Expected external ID 'dQw4w9WgXcQ', got: %s", record.ExternalID)
	}
	if record.Link != "https://www.youtube.com/watch?v=dQw4w9WgXcQ" {
		t.Errorf("Expected derived watch URL, got: %s", record.Link)
	}
	if record.Author != "Test Channel" {
		t.Errorf("Expected author 'Test Channel', got: %s", record.Author)
	}
	if record.ThumbnailURL != "https://i.ytimg.com/vi/dQw4w9WgXcQ/hq.jpg" {
		t.Errorf("Expected high thumbnail, got: %s", record.ThumbnailURL)
	}
}

func TestNormalizeDefaults(t *testing.T) {
	record, err := Normalize(KindRSS, map[string]any{
		"guid": "item-1",
	})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if record.Title != DefaultTitle {
		t.Errorf("Expected default title %q, got: %s", DefaultTitle, record.Title)
	}
	if record.Author != DefaultAuthor {
		t.Errorf("Expected default author %q, got: %s", DefaultAuthor, record.Author)
	}
	if record.PublishedAt != nil {
		t.Error("Expected nil published date when source provides none")
	}
}

func TestNormalizeRSSGuidFallsBackToLink(t *testing.T) {
	record, err := Normalize(KindRSS, map[string]any{
		"link":  "https://example.com/article",
		"title": "Linked",
	})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if record.ExternalID != "https://example.com/article" {
		t.Errorf("Expected link as external ID, got: %s", record.ExternalID)
	}
}

func TestNormalizeSanitizesContent(t *testing.T) {
	record, err := Normalize(KindRSS, map[string]any{
		"guid":    "item-2",
		"content": `<p>Safe</p><script>alert("nope")</script>`,
	})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if strings.Contains(record.Content, "script") {
		t.Errorf("Expected script tag to be stripped, got: %s", record.Content)
	}
	if !strings.Contains(record.Content, "Safe") {
		t.Errorf("Expected paragraph to survive, got: %s", record.Content)
	}
}

func TestNormalizeFacebook(t *testing.T) {
	published := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	record, err := Normalize(KindFacebook, map[string]any{
		"id":            "12345_67890",
		"message":       "First line of the post\nSecond line",
		"permalink_url": "https://facebook.com/12345/posts/67890",
		"created_time":  published.Format("2006-01-02T15:04:05-0700"),
		"from":          map[string]any{"name": "Page Name"},
	})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if record.Title != "First line of the post" {
		t.Errorf("Expected title from first line, got: %s", record.Title)
	}
	if record.Author != "Page Name" {
		t.Errorf("Expected author 'Page Name', got: %s", record.Author)
	}
	if record.PublishedAt == nil || !record.PublishedAt.Equal(published) {
		t.Errorf("Expected published %v, got: %v", published, record.PublishedAt)
	}
}

func TestCanonicalCategories(t *testing.T) {
	got := CanonicalCategories([]string{" technology ", "technology", "ai", ""})
	if len(got) != 2 {
		t.Fatalf("Expected 2 categories, got: %d (%v)", len(got), got)
	}
	if got[0] != "Technology" {
		t.Errorf("Expected 'Technology', got: %s", got[0])
	}
	if got[1] != "Ai" {
		t.Errorf("Expected 'Ai', got: %s", got[1])
	}
}

func TestParseKind(t *testing.T) {
	if _, err := ParseKind("wordpress"); err != nil {
		t.Errorf("Expected 'wordpress' to parse, got: %v", err)
	}
	if _, err := ParseKind("myspace"); err == nil {
		t.Error("Expected error for unknown kind")
	}
}
