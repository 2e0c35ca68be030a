package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"zone_scheduler/internal/models"
)

type DocumentSQLite struct {
	db *sql.DB
}

func NewDocumentSQLite(db *sql.DB) *DocumentSQLite {
	return &DocumentSQLite{db: db}
}

var _ DocumentStore = (*DocumentSQLite)(nil)

const (
	upsertDocumentSQL = `
		INSERT INTO documents (key, version, body, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			version=excluded.version,
			body=excluded.body,
			updated_at=excluded.updated_at
	`

	selectDocumentSQL = `SELECT version, body FROM documents WHERE key=?`
)

// Save replaces the document stored under key.
func (r *DocumentSQLite) Save(ctx context.Context, key string, doc *models.Document) error {
	body, err := encodeDocument(doc)
	if err != nil {
		return fmt.Errorf("encode document %q: %w", key, err)
	}
	if _, err = r.db.ExecContext(ctx, upsertDocumentSQL, key, doc.Version, body, time.Now().UTC()); err != nil {
		return fmt.Errorf("save document %q: %w", key, err)
	}
	return nil
}

// Load returns the document stored under key, or nil if there is none.
func (r *DocumentSQLite) Load(ctx context.Context, key string) (*models.Document, error) {
	var (
		version int
		body    string
	)
	err := r.db.QueryRowContext(ctx, selectDocumentSQL, key).Scan(&version, &body)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("load document %q: %w", key, err)
	}
	doc, err := decodeDocument([]byte(body))
	if err != nil {
		return nil, fmt.Errorf("decode document %q: %w", key, err)
	}
	doc.Version = version
	return doc, nil
}

// encodeDocument and decodeDocument are shared by every DocumentStore backend.
func encodeDocument(doc *models.Document) (string, error) {
	b, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeDocument(b []byte) (*models.Document, error) {
	var doc models.Document
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, err
	}
	if doc.Schedules == nil {
		doc.Schedules = map[string][]models.Schedule{}
	}
	if doc.Holds == nil {
		doc.Holds = map[string]models.Hold{}
	}
	// documents written before versioning carry no version at all
	if doc.Version == 0 {
		doc.Version = 1
	}
	return &doc, nil
}
