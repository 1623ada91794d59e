package transform

import (
	"fmt"
	"strings"

	readability "codeberg.org/readeck/go-readability"
	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/microcosm-cc/bluemonday"

	"github.com/lysyi3m/content-comb/app/database"
)

const (
	KindMarkdown    = "markdown"
	KindReadability = "readability"
	KindExcerpt     = "excerpt"

	defaultExcerptLength = 280
)

var stripTags = bluemonday.StrictPolicy()

// Transformer derives alternate renditions of a stored article. Each derived
// rendition is persisted as a transformation row, which also marks the
// article as transformed.
type Transformer struct {
	transformationRepo database.TransformationRepository
	mdConverter        *converter.Converter
}

func NewTransformer(transformationRepo database.TransformationRepository) *Transformer {
	return &Transformer{
		transformationRepo: transformationRepo,
		mdConverter: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
	}
}

// Run derives and persists the requested rendition of an article.
func (t *Transformer) Run(article database.Article, kind string, settings map[string]any) (database.Transformation, error) {
	var result string
	var err error

	switch kind {
	case KindMarkdown:
		result, err = t.markdown(article)
	case KindReadability:
		result, err = t.readable(article)
	case KindExcerpt:
		result, err = t.excerpt(article, settings)
	default:
		return database.Transformation{}, fmt.Errorf("unknown transformation kind: %q", kind)
	}
	if err != nil {
		return database.Transformation{}, err
	}

	transformation := database.Transformation{
		ArticleID: article.ID,
		Kind:      kind,
		Result:    result,
		Settings:  settings,
	}

	id, err := t.transformationRepo.Create(transformation)
	if err != nil {
		return database.Transformation{}, err
	}
	transformation.ID = id

	return transformation, nil
}

func (t *Transformer) markdown(article database.Article) (string, error) {
	body := articleBody(article)
	if body == "" {
		return "", fmt.Errorf("article has no content to convert")
	}

	result, err := t.mdConverter.ConvertString(body, converter.WithDomain(article.Link))
	if err != nil {
		return "", fmt.Errorf("failed to convert content to markdown: %w", err)
	}
	return strings.TrimSpace(result), nil
}

func (t *Transformer) readable(article database.Article) (string, error) {
	body := articleBody(article)
	if body == "" {
		return "", fmt.Errorf("article has no content to extract")
	}

	extracted, err := readability.FromReader(strings.NewReader(body), nil)
	if err != nil {
		return "", fmt.Errorf("failed to extract readable content: %w", err)
	}
	if extracted.Content == "" {
		return "", fmt.Errorf("no readable content extracted")
	}

	return extracted.Content, nil
}

func (t *Transformer) excerpt(article database.Article, settings map[string]any) (string, error) {
	body := articleBody(article)
	if body == "" {
		return "", fmt.Errorf("article has no content to excerpt")
	}

	length := defaultExcerptLength
	if v, ok := settings["length"].(float64); ok && v > 0 {
		length = int(v)
	}

	plain := strings.Join(strings.Fields(stripTags.Sanitize(body)), " ")
	runes := []rune(plain)
	if len(runes) <= length {
		return plain, nil
	}
	return strings.TrimSpace(string(runes[:length])) + "…", nil
}

func articleBody(article database.Article) string {
	if strings.TrimSpace(article.Content) != "" {
		return article.Content
	}
	return strings.TrimSpace(article.Description)
}
