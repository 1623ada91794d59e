package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type articleRepository struct {
	db *DB
}

func NewArticleRepository(db *DB) ArticleRepository {
	return &articleRepository{db: db}
}

var _ ArticleRepository = (*articleRepository)(nil)

const articleColumns = `id, user_id, COALESCE(source_id, ''), source_kind, external_id, guid, link,
       title, description, content, published_at, author, thumbnail_url,
       categories, ai_categories, ai_summary, metadata,
       read, saved, transformed, created_at, updated_at`

func (r *articleRepository) Upsert(article Article) (bool, error) {
	var existingID string
	err := r.db.QueryRow(`
		SELECT id FROM articles
		WHERE user_id = ? AND source_kind = ? AND external_id = ?
	`, article.UserID, article.SourceKind, article.ExternalID).Scan(&existingID)
	if err != nil && err != sql.ErrNoRows {
		return false, fmt.Errorf("failed to check existing article: %w", err)
	}
	created := existingID == ""

	if article.ID == "" {
		article.ID = uuid.NewString()
	}

	now := time.Now().UTC()

	categories, err := encodeStrings(article.Categories)
	if err != nil {
		return false, err
	}
	aiCategories, err := encodeStrings(article.AICategories)
	if err != nil {
		return false, err
	}
	metadata, err := encodeMap(article.Metadata)
	if err != nil {
		return false, err
	}

	// The ON CONFLICT branch carries every content and enrichment field but
	// deliberately not read, saved or created_at: re-ingestion must never
	// overwrite user state.
	_, err = r.db.Exec(`
		INSERT INTO articles (
			id, user_id, source_id, source_kind, external_id, guid, link,
			title, description, content, published_at, author, thumbnail_url,
			categories, ai_categories, ai_summary, metadata,
			read, saved, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, source_kind, external_id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			content = excluded.content,
			published_at = excluded.published_at,
			author = excluded.author,
			thumbnail_url = excluded.thumbnail_url,
			categories = excluded.categories,
			ai_categories = excluded.ai_categories,
			ai_summary = excluded.ai_summary,
			metadata = excluded.metadata,
			updated_at = excluded.updated_at
	`, article.ID, article.UserID, nullIfEmpty(article.SourceID), article.SourceKind,
		article.ExternalID, article.GUID, article.Link,
		article.Title, article.Description, article.Content, article.PublishedAt,
		article.Author, article.ThumbnailURL,
		categories, aiCategories, article.AISummary, metadata,
		article.Read, article.Saved, now, now)
	if err != nil {
		return false, fmt.Errorf("failed to upsert article: %w", err)
	}

	return created, nil
}

// ExistsByGUID is the feed-scoped dedup check: one row per (source, guid).
func (r *articleRepository) ExistsByGUID(sourceID, guid string) (bool, error) {
	var id string
	err := r.db.QueryRow(`
		SELECT id FROM articles WHERE source_id = ? AND guid = ? LIMIT 1
	`, sourceID, guid).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check duplicate: %w", err)
	}
	return true, nil
}

func (r *articleRepository) GetByNaturalKey(userID, sourceKind, externalID string) (*Article, error) {
	return r.getOne(`
		SELECT `+articleColumns+`
		FROM articles
		WHERE user_id = ? AND source_kind = ? AND external_id = ?
	`, userID, sourceKind, externalID)
}

func (r *articleRepository) GetByID(id string) (*Article, error) {
	return r.getOne(`
		SELECT `+articleColumns+`
		FROM articles
		WHERE id = ?
	`, id)
}

func (r *articleRepository) List(filter ArticleFilter) ([]Article, error) {
	query := `SELECT ` + articleColumns + ` FROM articles`
	var conditions []string
	var args []any

	if filter.UserID != "" {
		conditions = append(conditions, "user_id = ?")
		args = append(args, filter.UserID)
	}
	if filter.SourceID != "" {
		conditions = append(conditions, "source_id = ?")
		args = append(args, filter.SourceID)
	}
	if filter.SourceKind != "" {
		conditions = append(conditions, "source_kind = ?")
		args = append(args, filter.SourceKind)
	}
	if filter.SavedOnly {
		conditions = append(conditions, "saved = 1")
	}
	if filter.UnreadOnly {
		conditions = append(conditions, "read = 0")
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY COALESCE(published_at, created_at) DESC"

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += " LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list articles: %w", err)
	}
	defer rows.Close()

	var articles []Article
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		articles = append(articles, article)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating article rows: %w", err)
	}

	return articles, nil
}

func (r *articleRepository) SetRead(id string, read bool) error {
	return r.setFlag(id, "read", read)
}

func (r *articleRepository) SetSaved(id string, saved bool) error {
	return r.setFlag(id, "saved", saved)
}

func (r *articleRepository) MarkTransformed(id string) error {
	return r.setFlag(id, "transformed", true)
}

func (r *articleRepository) setFlag(id, column string, value bool) error {
	_, err := r.db.Exec(`
		UPDATE articles SET `+column+` = ?, updated_at = ? WHERE id = ?
	`, value, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to set %s flag: %w", column, err)
	}
	return nil
}

func (r *articleRepository) GetCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM articles").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get article count: %w", err)
	}
	return count, nil
}

// DeleteStale removes articles old enough that nobody acted on them: never
// saved, never transformed.
func (r *articleRepository) DeleteStale(olderThan time.Time) (int64, error) {
	result, err := r.db.Exec(`
		DELETE FROM articles
		WHERE saved = 0 AND transformed = 0 AND created_at < ?
	`, olderThan.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale articles: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted articles: %w", err)
	}
	return deleted, nil
}

func (r *articleRepository) getOne(query string, args ...any) (*Article, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get article: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("failed to get article: %w", err)
		}
		return nil, nil
	}

	article, err := scanArticle(rows)
	if err != nil {
		return nil, err
	}
	return &article, nil
}

func scanArticle(rows *sql.Rows) (Article, error) {
	var article Article
	var categories, aiCategories, metadata string

	err := rows.Scan(
		&article.ID, &article.UserID, &article.SourceID, &article.SourceKind,
		&article.ExternalID, &article.GUID, &article.Link,
		&article.Title, &article.Description, &article.Content,
		&article.PublishedAt, &article.Author, &article.ThumbnailURL,
		&categories, &aiCategories, &article.AISummary, &metadata,
		&article.Read, &article.Saved, &article.Transformed,
		&article.CreatedAt, &article.UpdatedAt,
	)
	if err != nil {
		return Article{}, fmt.Errorf("failed to scan article row: %w", err)
	}

	if article.Categories, err = decodeStrings(categories); err != nil {
		return Article{}, err
	}
	if article.AICategories, err = decodeStrings(aiCategories); err != nil {
		return Article{}, err
	}
	if article.Metadata, err = decodeMap(metadata); err != nil {
		return Article{}, err
	}

	return article, nil
}

func encodeStrings(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("failed to encode string list: %w", err)
	}
	return string(data), nil
}

func decodeStrings(data string) ([]string, error) {
	if data == "" || data == "[]" {
		return nil, nil
	}
	var values []string
	if err := json.Unmarshal([]byte(data), &values); err != nil {
		return nil, fmt.Errorf("failed to decode string list: %w", err)
	}
	return values, nil
}

func encodeMap(m map[string]any) (string, error) {
	if m == nil {
		m = map[string]any{}
	}
	data, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("failed to encode metadata: %w", err)
	}
	return string(data), nil
}

func decodeMap(data string) (map[string]any, error) {
	if data == "" || data == "{}" {
		return nil, nil
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(data), &m); err != nil {
		return nil, fmt.Errorf("failed to decode metadata: %w", err)
	}
	return m, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
