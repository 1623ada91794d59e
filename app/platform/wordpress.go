package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lysyi3m/content-comb/app/content"
	"github.com/lysyi3m/content-comb/app/database"
	"github.com/lysyi3m/content-comb/app/fetch"
)

type WordPressImporter struct {
	client   *fetch.Client
	maxItems int
}

func NewWordPressImporter(client *fetch.Client, maxItems int) *WordPressImporter {
	return &WordPressImporter{client: client, maxItems: maxItems}
}

func (i *WordPressImporter) Kind() content.SourceKind {
	return content.KindWordPress
}

// Fetch pulls the most recent posts from the site's REST API. The _embed
// parameter inlines author and media resources so normalization does not
// need follow-up requests.
func (i *WordPressImporter) Fetch(ctx context.Context, source database.Source) ([]map[string]any, error) {
	endpoint := fmt.Sprintf("%s/wp-json/wp/v2/posts?per_page=%d&_embed",
		strings.TrimRight(source.URL, "/"), i.maxItems)

	data, err := i.client.Run(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var posts []map[string]any
	if err := json.Unmarshal(data, &posts); err != nil {
		return nil, fmt.Errorf("failed to decode WordPress response: %w", err)
	}

	return posts, nil
}
