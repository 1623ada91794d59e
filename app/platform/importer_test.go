package platform

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lysyi3m/content-comb/app/content"
	"github.com/lysyi3m/content-comb/app/database"
	"github.com/lysyi3m/content-comb/app/fetch"
)

func newDirectClient() *fetch.Client {
	return fetch.NewClientWithStrategies(
		[]fetch.Strategy{fetch.DirectStrategy()}, 5*time.Second, "test-agent")
}

func TestWordPressImporterFetch(t *testing.T) {
	var requestedPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestedPath = r.URL.RequestURI()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id": 42, "title": {"rendered": "First"}}, {"id": 43, "title": {"rendered": "Second"}}]`))
	}))
	defer server.Close()

	importer := NewWordPressImporter(newDirectClient(), 20)
	posts, err := importer.Fetch(context.Background(), database.Source{URL: server.URL + "/"})
	if err != nil {
		t.Fatalf("expected fetch to succeed, got: %v", err)
	}

	if requestedPath != "/wp-json/wp/v2/posts?per_page=20&_embed" {
		t.Errorf("unexpected request path: %s", requestedPath)
	}
	if len(posts) != 2 {
		t.Fatalf("expected 2 posts, got %d", len(posts))
	}
	if posts[0]["id"] != float64(42) {
		t.Errorf("expected first post id 42, got %v", posts[0]["id"])
	}
}

func TestWordPressImporterDecodeError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>not json</html>`))
	}))
	defer server.Close()

	importer := NewWordPressImporter(newDirectClient(), 20)
	_, err := importer.Fetch(context.Background(), database.Source{URL: server.URL})
	if err == nil {
		t.Fatal("expected decode error, got nil")
	}
}

func TestYouTubeImporterFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		if query.Get("key") != "test-key" {
			t.Errorf("expected API key in query, got %q", query.Get("key"))
		}
		if query.Get("channelId") != "UC123" {
			t.Errorf("expected channel ID UC123, got %q", query.Get("channelId"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"items": [{"id": {"videoId": "abc"}, "snippet": {"title": "Video"}}]}`))
	}))
	defer server.Close()

	original := youtubeAPIBase
	youtubeAPIBase = server.URL
	defer func() { youtubeAPIBase = original }()

	importer := NewYouTubeImporter(newDirectClient(), "test-key", 10)
	items, err := importer.Fetch(context.Background(), database.Source{URL: "https://www.youtube.com/channel/UC123?view=0"})
	if err != nil {
		t.Fatalf("expected fetch to succeed, got: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
}

func TestYouTubeImporterRequiresKey(t *testing.T) {
	importer := NewYouTubeImporter(newDirectClient(), "", 10)
	_, err := importer.Fetch(context.Background(), database.Source{URL: "UC123"})
	if err == nil {
		t.Fatal("expected error without API key, got nil")
	}
}

func TestChannelID(t *testing.T) {
	cases := map[string]string{
		"UC123": "UC123",
		"https://www.youtube.com/channel/UC456":        "UC456",
		"https://www.youtube.com/channel/UC789/videos": "UC789",
		"https://www.youtube.com/channel/UC000?view=0": "UC000",
	}
	for input, expected := range cases {
		if got := channelID(input); got != expected {
			t.Errorf("channelID(%q) = %q, expected %q", input, got, expected)
		}
	}
}

func TestRegistry(t *testing.T) {
	importer := NewWordPressImporter(newDirectClient(), 20)
	registry := NewRegistry(importer)

	got, err := registry.Get(content.KindWordPress)
	if err != nil {
		t.Fatalf("expected registered importer, got: %v", err)
	}
	if got != Importer(importer) {
		t.Error("expected the registered importer instance")
	}

	if _, err := registry.Get(content.KindLinkedIn); err == nil {
		t.Error("expected error for unregistered kind")
	}
}
