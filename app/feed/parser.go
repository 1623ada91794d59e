package feed

import (
	"bytes"
	"cmp"
	"fmt"

	"github.com/mmcdole/gofeed"
)

type Parser struct {
	gofeedParser *gofeed.Parser
}

func NewParser() *Parser {
	return &Parser{
		gofeedParser: gofeed.NewParser(),
	}
}

func (p *Parser) Run(data []byte) (*Metadata, []Item, error) {
	feed, err := p.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	metadata := &Metadata{
		Title:       feed.Title,
		Link:        feed.Link,
		Description: feed.Description,
		Language:    feed.Language,
	}

	if feed.Image != nil {
		metadata.ImageURL = feed.Image.URL
	}

	if feed.PublishedParsed != nil {
		metadata.PublishedAt = feed.PublishedParsed
	}

	items := make([]Item, 0, len(feed.Items))
	for _, item := range feed.Items {
		items = append(items, p.normalizeItem(item))
	}

	return metadata, items, nil
}

func (p *Parser) normalizeItem(item *gofeed.Item) Item {
	normalized := Item{
		GUID:        cmp.Or(item.GUID, item.Link),
		Title:       item.Title,
		Link:        item.Link,
		Description: item.Description,
		Body:        p.resolveBody(item),
	}

	if item.PublishedParsed != nil {
		normalized.PublishedAt = item.PublishedParsed
	} else if item.UpdatedParsed != nil {
		normalized.PublishedAt = item.UpdatedParsed
	}

	normalized.Author = p.extractAuthor(item)

	if item.Categories != nil {
		normalized.Categories = item.Categories
	}

	normalized.ThumbnailURL = p.extractThumbnail(item)

	return normalized
}

// resolveBody picks the richest body representation a feed offers. Feeds
// commonly carry several redundant ones of decreasing richness; keeping the
// fullest improves downstream classification.
func (p *Parser) resolveBody(item *gofeed.Item) string {
	return cmp.Or(
		item.Content,
		p.extensionValue(item, "content", "encoded"),
		p.extensionValue(item, "media", "description"),
		item.Description,
	)
}

func (p *Parser) extractAuthor(item *gofeed.Item) string {
	if len(item.Authors) > 0 && item.Authors[0] != nil {
		if item.Authors[0].Name != "" {
			return item.Authors[0].Name
		}
		return item.Authors[0].Email
	}
	if item.Author != nil {
		if item.Author.Name != "" {
			return item.Author.Name
		}
		return item.Author.Email
	}
	return ""
}

func (p *Parser) extractThumbnail(item *gofeed.Item) string {
	if item.Image != nil && item.Image.URL != "" {
		return item.Image.URL
	}

	for _, enclosure := range item.Enclosures {
		if enclosure == nil {
			continue
		}
		if len(enclosure.Type) >= 6 && enclosure.Type[:6] == "image/" {
			return enclosure.URL
		}
	}

	if ext := p.extensionAttr(item, "media", "thumbnail", "url"); ext != "" {
		return ext
	}

	return ""
}

func (p *Parser) extensionValue(item *gofeed.Item, namespace, name string) string {
	exts, ok := item.Extensions[namespace]
	if !ok {
		return ""
	}
	for _, ext := range exts[name] {
		if ext.Value != "" {
			return ext.Value
		}
	}
	return ""
}

func (p *Parser) extensionAttr(item *gofeed.Item, namespace, name, attr string) string {
	exts, ok := item.Extensions[namespace]
	if !ok {
		return ""
	}
	for _, ext := range exts[name] {
		if v := ext.Attrs[attr]; v != "" {
			return v
		}
	}
	return ""
}
