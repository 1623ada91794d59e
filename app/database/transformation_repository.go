package database

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type transformationRepository struct {
	db *DB
}

func NewTransformationRepository(db *DB) TransformationRepository {
	return &transformationRepository{db: db}
}

var _ TransformationRepository = (*transformationRepository)(nil)

func (r *transformationRepository) Create(t Transformation) (string, error) {
	settings, err := encodeMap(t.Settings)
	if err != nil {
		return "", err
	}

	id := uuid.NewString()
	now := time.Now().UTC()

	tx, err := r.db.Begin()
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO transformations (id, article_id, kind, result, settings, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, id, t.ArticleID, t.Kind, t.Result, settings, now)
	if err != nil {
		return "", fmt.Errorf("failed to insert transformation: %w", err)
	}

	// The transformed flag is a denormalized cache of "at least one
	// transformation exists"; it is set here and never cleared.
	_, err = tx.Exec(`
		UPDATE articles SET transformed = 1, updated_at = ? WHERE id = ?
	`, now, t.ArticleID)
	if err != nil {
		return "", fmt.Errorf("failed to mark article transformed: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit transformation: %w", err)
	}

	return id, nil
}

func (r *transformationRepository) ListByArticle(articleID string) ([]Transformation, error) {
	rows, err := r.db.Query(`
		SELECT id, article_id, kind, result, settings, created_at
		FROM transformations
		WHERE article_id = ?
		ORDER BY created_at
	`, articleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transformations: %w", err)
	}
	defer rows.Close()

	var transformations []Transformation
	for rows.Next() {
		var t Transformation
		var settings string
		err := rows.Scan(&t.ID, &t.ArticleID, &t.Kind, &t.Result, &settings, &t.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transformation row: %w", err)
		}
		if t.Settings, err = decodeMap(settings); err != nil {
			return nil, err
		}
		transformations = append(transformations, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transformation rows: %w", err)
	}

	return transformations, nil
}
