package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/lysyi3m/content-comb/app/content"
	"github.com/lysyi3m/content-comb/app/database"
	"github.com/lysyi3m/content-comb/app/fetch"
)

// Overridden in tests.
var youtubeAPIBase = "https://www.googleapis.com/youtube/v3/search"

type YouTubeImporter struct {
	client   *fetch.Client
	apiKey   string
	maxItems int
}

func NewYouTubeImporter(client *fetch.Client, apiKey string, maxItems int) *YouTubeImporter {
	return &YouTubeImporter{client: client, apiKey: apiKey, maxItems: maxItems}
}

func (i *YouTubeImporter) Kind() content.SourceKind {
	return content.KindYouTube
}

// Fetch lists the latest videos of a channel via the Data API search
// endpoint. The source URL may be a raw channel ID or a
// youtube.com/channel/... URL.
func (i *YouTubeImporter) Fetch(ctx context.Context, source database.Source) ([]map[string]any, error) {
	if i.apiKey == "" {
		return nil, fmt.Errorf("YouTube API key is not configured")
	}

	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("channelId", channelID(source.URL))
	params.Set("maxResults", strconv.Itoa(i.maxItems))
	params.Set("order", "date")
	params.Set("type", "video")
	params.Set("key", i.apiKey)

	data, err := i.client.Run(ctx, youtubeAPIBase+"?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var response struct {
		Items []map[string]any `json:"items"`
	}
	if err := json.Unmarshal(data, &response); err != nil {
		return nil, fmt.Errorf("failed to decode YouTube response: %w", err)
	}

	return response.Items, nil
}

func channelID(sourceURL string) string {
	if idx := strings.Index(sourceURL, "/channel/"); idx != -1 {
		id := sourceURL[idx+len("/channel/"):]
		if cut := strings.IndexAny(id, "/?"); cut != -1 {
			id = id[:cut]
		}
		return id
	}
	return sourceURL
}
