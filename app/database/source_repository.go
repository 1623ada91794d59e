package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type sourceRepository struct {
	db *DB
}

func NewSourceRepository(db *DB) SourceRepository {
	return &sourceRepository{db: db}
}

var _ SourceRepository = (*sourceRepository)(nil)

const sourceColumns = `id, user_id, kind, url, title, category, refresh_interval,
       last_fetched_at, next_fetch_at, created_at, updated_at`

// Upsert registers a source, keyed on (user_id, kind, url). Registration
// updates title, category and refresh interval but never resets fetch
// bookkeeping. Returns the database ID.
func (r *sourceRepository) Upsert(source Source) (string, error) {
	now := time.Now().UTC()

	var existingID string
	err := r.db.QueryRow(`
		SELECT id FROM sources WHERE user_id = ? AND kind = ? AND url = ?
	`, source.UserID, source.Kind, source.URL).Scan(&existingID)
	if err != nil && err != sql.ErrNoRows {
		return "", fmt.Errorf("failed to check existing source: %w", err)
	}

	if source.RefreshInterval <= 0 {
		source.RefreshInterval = 3600
	}

	if existingID != "" {
		_, err = r.db.Exec(`
			UPDATE sources
			SET title = ?, category = ?, refresh_interval = ?, updated_at = ?
			WHERE id = ?
		`, source.Title, source.Category, source.RefreshInterval, now, existingID)
		if err != nil {
			return "", fmt.Errorf("failed to update source: %w", err)
		}
		return existingID, nil
	}

	id := uuid.NewString()
	_, err = r.db.Exec(`
		INSERT INTO sources (id, user_id, kind, url, title, category, refresh_interval, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, id, source.UserID, source.Kind, source.URL, source.Title, source.Category,
		source.RefreshInterval, now, now)
	if err != nil {
		return "", fmt.Errorf("failed to insert source: %w", err)
	}

	return id, nil
}

func (r *sourceRepository) GetAll() ([]Source, error) {
	rows, err := r.db.Query(`
		SELECT ` + sourceColumns + `
		FROM sources
		ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get sources: %w", err)
	}
	defer rows.Close()

	return scanSources(rows)
}

func (r *sourceRepository) GetByID(id string) (*Source, error) {
	var source Source
	err := r.db.QueryRow(`
		SELECT `+sourceColumns+`
		FROM sources
		WHERE id = ?
	`, id).Scan(
		&source.ID, &source.UserID, &source.Kind, &source.URL, &source.Title,
		&source.Category, &source.RefreshInterval, &source.LastFetchedAt,
		&source.NextFetchAt, &source.CreatedAt, &source.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get source by ID: %w", err)
	}

	return &source, nil
}

// GetDue returns sources whose next fetch time has passed (or was never set).
func (r *sourceRepository) GetDue(limit int) ([]Source, error) {
	rows, err := r.db.Query(`
		SELECT `+sourceColumns+`
		FROM sources
		WHERE next_fetch_at IS NULL OR next_fetch_at <= ?
		ORDER BY COALESCE(next_fetch_at, created_at)
		LIMIT ?
	`, time.Now().UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get due sources: %w", err)
	}
	defer rows.Close()

	return scanSources(rows)
}

// TouchLastFetched records that a refresh attempt completed, regardless of
// per-item outcomes.
func (r *sourceRepository) TouchLastFetched(id string, nextFetch time.Time) error {
	now := time.Now().UTC()
	_, err := r.db.Exec(`
		UPDATE sources
		SET last_fetched_at = ?, next_fetch_at = ?, updated_at = ?
		WHERE id = ?
	`, now, nextFetch.UTC(), now, id)
	if err != nil {
		return fmt.Errorf("failed to update last fetched time: %w", err)
	}
	return nil
}

func (r *sourceRepository) UpdateTitle(id string, title string) error {
	_, err := r.db.Exec(`
		UPDATE sources
		SET title = ?, updated_at = ?
		WHERE id = ?
	`, title, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update source title: %w", err)
	}
	return nil
}

func (r *sourceRepository) GetCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM sources").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get source count: %w", err)
	}
	return count, nil
}

func scanSources(rows *sql.Rows) ([]Source, error) {
	var sources []Source
	for rows.Next() {
		var source Source
		err := rows.Scan(
			&source.ID, &source.UserID, &source.Kind, &source.URL, &source.Title,
			&source.Category, &source.RefreshInterval, &source.LastFetchedAt,
			&source.NextFetchAt, &source.CreatedAt, &source.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan source row: %w", err)
		}
		sources = append(sources, source)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating source rows: %w", err)
	}

	return sources, nil
}
