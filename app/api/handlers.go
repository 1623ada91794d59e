package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/content-comb/app/content"
	"github.com/lysyi3m/content-comb/app/database"
)

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if sourceCount, err := h.sourceRepo.GetCount(); err == nil {
		health["sources"] = sourceCount
	}
	if articleCount, err := h.articleRepo.GetCount(); err == nil {
		health["articles"] = articleCount
	}

	respondOK(c, http.StatusOK, health)
}

func (h *Handler) ListSources(c *gin.Context) {
	sources, err := h.sourceRepo.GetAll()
	if err != nil {
		slog.Error("Database error", "operation", "list_sources", "error", err)
		respondError(c, http.StatusInternalServerError, "Database error")
		return
	}

	respondOK(c, http.StatusOK, gin.H{"sources": sources, "total": len(sources)})
}

type createSourceRequest struct {
	UserID          string `json:"user_id"`
	Kind            string `json:"kind" binding:"required"`
	URL             string `json:"url" binding:"required"`
	Title           string `json:"title"`
	Category        string `json:"category"`
	RefreshInterval int    `json:"refresh_interval"`
}

func (h *Handler) CreateSource(c *gin.Context) {
	var req createSourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := content.ParseKind(req.Kind); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	if req.UserID == "" {
		req.UserID = "default"
	}

	id, err := h.sourceRepo.Upsert(database.Source{
		UserID:          req.UserID,
		Kind:            req.Kind,
		URL:             req.URL,
		Title:           req.Title,
		Category:        req.Category,
		RefreshInterval: req.RefreshInterval,
	})
	if err != nil {
		slog.Error("Database error", "operation", "create_source", "url", req.URL, "error", err)
		respondError(c, http.StatusInternalServerError, "Failed to register source")
		return
	}

	source, err := h.sourceRepo.GetByID(id)
	if err != nil || source == nil {
		respondError(c, http.StatusInternalServerError, "Failed to load registered source")
		return
	}

	respondOK(c, http.StatusCreated, source)
}

func (h *Handler) RefreshAll(c *gin.Context) {
	report, err := h.refresher.Run(c.Request.Context())
	if err != nil {
		slog.Error("Bulk refresh failed", "error", err)
		respondError(c, http.StatusInternalServerError, "Failed to refresh sources")
		return
	}

	respondOK(c, http.StatusOK, report)
}

func (h *Handler) RefreshSource(c *gin.Context) {
	source, ok := h.lookupSource(c)
	if !ok {
		return
	}

	summary, err := h.ingestor.Run(c.Request.Context(), *source)
	if err != nil {
		slog.Error("Source refresh failed", "source", source.URL, "error", err)
		respondError(c, http.StatusBadGateway, err.Error())
		return
	}

	respondOK(c, http.StatusOK, summary)
}

type importRequest struct {
	UserID   string           `json:"user_id"`
	Kind     string           `json:"kind" binding:"required"`
	SourceID string           `json:"source_id"`
	Payloads []map[string]any `json:"payloads"`
}

// Import ingests content on demand. With a source_id it pulls from the
// platform's API; with inline payloads it ingests a caller-supplied batch
// (LinkedIn and Facebook exports, manual entries).
func (h *Handler) Import(c *gin.Context) {
	var req importRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	kind, err := content.ParseKind(req.Kind)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if req.SourceID != "" {
		source, err := h.sourceRepo.GetByID(req.SourceID)
		if err != nil {
			respondError(c, http.StatusInternalServerError, "Database error")
			return
		}
		if source == nil {
			respondError(c, http.StatusNotFound, "Source not found")
			return
		}

		summary, err := h.ingestor.Run(c.Request.Context(), *source)
		if err != nil {
			slog.Error("Source import failed", "source", source.URL, "error", err)
			respondError(c, http.StatusBadGateway, err.Error())
			return
		}
		respondOK(c, http.StatusOK, summary)
		return
	}

	if len(req.Payloads) == 0 {
		respondError(c, http.StatusBadRequest, "Either source_id or payloads is required")
		return
	}
	if req.UserID == "" {
		req.UserID = "default"
	}

	summary := h.ingestor.ImportBatch(c.Request.Context(), req.UserID, kind, req.Payloads)
	respondOK(c, http.StatusOK, summary)
}

func (h *Handler) ListArticles(c *gin.Context) {
	filter := database.ArticleFilter{
		UserID:     c.Query("user_id"),
		SourceID:   c.Query("source_id"),
		SourceKind: c.Query("kind"),
		SavedOnly:  c.Query("saved") == "true",
		UnreadOnly: c.Query("unread") == "true",
	}
	if limit := c.Query("limit"); limit != "" {
		value, err := strconv.Atoi(limit)
		if err != nil || value <= 0 {
			respondError(c, http.StatusBadRequest, "Invalid limit parameter")
			return
		}
		filter.Limit = value
	}

	articles, err := h.articleRepo.List(filter)
	if err != nil {
		slog.Error("Database error", "operation", "list_articles", "error", err)
		respondError(c, http.StatusInternalServerError, "Database error")
		return
	}

	respondOK(c, http.StatusOK, gin.H{"articles": articles, "total": len(articles)})
}

type patchArticleRequest struct {
	Read  *bool `json:"read"`
	Saved *bool `json:"saved"`
}

func (h *Handler) PatchArticle(c *gin.Context) {
	article, ok := h.lookupArticle(c)
	if !ok {
		return
	}

	var req patchArticleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	if req.Read == nil && req.Saved == nil {
		respondError(c, http.StatusBadRequest, "Nothing to update")
		return
	}

	if req.Read != nil {
		if err := h.articleRepo.SetRead(article.ID, *req.Read); err != nil {
			respondError(c, http.StatusInternalServerError, "Failed to update article")
			return
		}
	}
	if req.Saved != nil {
		if err := h.articleRepo.SetSaved(article.ID, *req.Saved); err != nil {
			respondError(c, http.StatusInternalServerError, "Failed to update article")
			return
		}
	}

	updated, err := h.articleRepo.GetByID(article.ID)
	if err != nil || updated == nil {
		respondError(c, http.StatusInternalServerError, "Failed to load updated article")
		return
	}

	respondOK(c, http.StatusOK, updated)
}

type transformRequest struct {
	Kind     string         `json:"kind" binding:"required"`
	Settings map[string]any `json:"settings"`
}

func (h *Handler) TransformArticle(c *gin.Context) {
	article, ok := h.lookupArticle(c)
	if !ok {
		return
	}

	var req transformRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	transformation, err := h.transformer.Run(*article, req.Kind, req.Settings)
	if err != nil {
		slog.Error("Transformation failed", "article", article.ID, "kind", req.Kind, "error", err)
		respondError(c, http.StatusUnprocessableEntity, err.Error())
		return
	}

	respondOK(c, http.StatusCreated, transformation)
}

func (h *Handler) lookupSource(c *gin.Context) (*database.Source, bool) {
	id := c.Param("id")
	if id == "" {
		respondError(c, http.StatusBadRequest, "Missing source id parameter")
		return nil, false
	}

	source, err := h.sourceRepo.GetByID(id)
	if err != nil {
		slog.Error("Database error", "operation", "get_source", "id", id, "error", err)
		respondError(c, http.StatusInternalServerError, "Database error")
		return nil, false
	}
	if source == nil {
		respondError(c, http.StatusNotFound, "Source not found")
		return nil, false
	}

	return source, true
}

func (h *Handler) lookupArticle(c *gin.Context) (*database.Article, bool) {
	id := c.Param("id")
	if id == "" {
		respondError(c, http.StatusBadRequest, "Missing article id parameter")
		return nil, false
	}

	article, err := h.articleRepo.GetByID(id)
	if err != nil {
		slog.Error("Database error", "operation", "get_article", "id", id, "error", err)
		respondError(c, http.StatusInternalServerError, "Database error")
		return nil, false
	}
	if article == nil {
		respondError(c, http.StatusNotFound, "Article not found")
		return nil, false
	}

	return article, true
}
