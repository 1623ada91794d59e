package api

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/content-comb/app/content"
	"github.com/lysyi3m/content-comb/app/database"
	"github.com/lysyi3m/content-comb/app/ingest"
	"github.com/lysyi3m/content-comb/app/transform"
)

type IngestorInterface interface {
	Run(ctx context.Context, source database.Source) (ingest.Summary, error)
	ImportBatch(ctx context.Context, userID string, kind content.SourceKind, payloads []map[string]any) ingest.Summary
}

type RefresherInterface interface {
	Run(ctx context.Context) (ingest.Report, error)
}

type TransformerInterface interface {
	Run(article database.Article, kind string, settings map[string]any) (database.Transformation, error)
}

var _ IngestorInterface = (*ingest.Ingestor)(nil)
var _ RefresherInterface = (*ingest.Refresher)(nil)
var _ TransformerInterface = (*transform.Transformer)(nil)

type Handler struct {
	sourceRepo  database.SourceRepository
	articleRepo database.ArticleRepository
	ingestor    IngestorInterface
	refresher   RefresherInterface
	transformer TransformerInterface
}

func NewHandler(sourceRepo database.SourceRepository, articleRepo database.ArticleRepository,
	ingestor IngestorInterface, refresher RefresherInterface,
	transformer TransformerInterface) *Handler {
	return &Handler{
		sourceRepo:  sourceRepo,
		articleRepo: articleRepo,
		ingestor:    ingestor,
		refresher:   refresher,
		transformer: transformer,
	}
}

// Every endpoint responds with the same envelope so clients can branch on a
// single field.
func respondOK(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": false, "error": message})
}
