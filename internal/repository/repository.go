package repository

import (
	"context"
	"database/sql"
	"time"

	"zone_scheduler/internal/models"
	"zone_scheduler/internal/repository/db"
)

// DocumentStore is a durable key-value container holding versioned documents.
// Load returns (nil, nil) when nothing was saved under key yet.
type DocumentStore interface {
	Load(ctx context.Context, key string) (*models.Document, error)
	Save(ctx context.Context, key string, doc *models.Document) error
}

type Authorization interface {
	Create(username, hash string) (int, error)
	GetByUsername(username string) (*models.User, error)
}

// ChangeLog keeps every schedule/hold/setpoint event for later inspection.
type ChangeLog interface {
	Append(ctx context.Context, e models.Event) error
	List(ctx context.Context, f EventFilter) ([]models.Event, error)
}

// EventFilter narrows ChangeLog.List; zero fields do not filter.
type EventFilter struct {
	From   time.Time
	To     time.Time
	Type   string
	ZoneID string
}

type Repository struct {
	Documents DocumentStore
	ChangeLog ChangeLog
	Auth      Authorization
}

// NewRepository builds SQLite-backed repositories. A non-nil documents store
// replaces the SQLite one (e.g. Redis).
func NewRepository(conn *sql.DB, documents DocumentStore) *Repository {
	if documents == nil {
		documents = NewDocumentSQLite(conn)
	}
	return &Repository{
		Documents: documents,
		ChangeLog: NewChangeLogSQLite(conn),
		Auth:      NewUserRepository(conn),
	}
}

// InitDB opens the SQLite database used by the repositories.
func InitDB(path string) (*sql.DB, error) {
	return db.InitDB(path)
}
