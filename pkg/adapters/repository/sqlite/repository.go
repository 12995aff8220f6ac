package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	_ "github.com/tursodatabase/libsql-client-go/libsql" // Turso driver
	"github.com/wadjakorntonsri/tinylink/pkg/core/domain"
	"github.com/wadjakorntonsri/tinylink/pkg/ports"
	_ "modernc.org/sqlite" // Local SQLite driver
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbURL string) (*SQLiteRepository, error) {
	driverName := "sqlite"
	if strings.Contains(dbURL, "libsql://") || strings.Contains(dbURL, "wss://") {
		driverName = "libsql"
	}

	db, err := sql.Open(driverName, dbURL)
	if err != nil {
		return nil, err
	}

	if driverName == "sqlite" {
		// A single connection serializes writers; SQLite rejects
		// concurrent write transactions with SQLITE_BUSY otherwise.
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	if err := migrate(db); err != nil {
		return nil, err
	}

	return &SQLiteRepository{db: db}, nil
}

func migrate(db *sql.DB) error {
	// The PRIMARY KEY on code is the uniqueness constraint the create path
	// relies on: a concurrent insert of the same code loses here, not in a
	// check-then-insert at the service.
	query := `
	CREATE TABLE IF NOT EXISTS links (
		code TEXT PRIMARY KEY,
		target_url TEXT NOT NULL,
		clicks INTEGER NOT NULL DEFAULT 0,
		last_clicked DATETIME,
		created_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_links_created_at ON links(created_at);
	`
	_, err := db.Exec(query)
	return err
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func (r *SQLiteRepository) Create(ctx context.Context, link *domain.Link) error {
	query := `INSERT INTO links (code, target_url, clicks, created_at) VALUES (?, ?, 0, ?)`

	_, err := r.db.ExecContext(ctx, query, link.Code, link.TargetURL, link.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrCodeTaken
		}
		return err
	}
	return nil
}

func (r *SQLiteRepository) GetByCode(ctx context.Context, code string) (*domain.Link, error) {
	query := `SELECT code, target_url, clicks, last_clicked, created_at
			  FROM links WHERE code = ?`

	var link domain.Link
	var lastClicked sql.NullTime

	err := r.db.QueryRowContext(ctx, query, code).Scan(
		&link.Code, &link.TargetURL, &link.Clicks, &lastClicked, &link.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if lastClicked.Valid {
		link.LastClicked = &lastClicked.Time
	}
	return &link, nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]domain.Link, error) {
	query := `SELECT code, target_url, clicks, last_clicked, created_at
			  FROM links ORDER BY created_at DESC, rowid DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanLinks(rows)
}

func (r *SQLiteRepository) Delete(ctx context.Context, code string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM links WHERE code = ?`, code)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// RecordClick increments the counter as a relative delta at the store, so
// concurrent clicks commute instead of racing a read-modify-write.
func (r *SQLiteRepository) RecordClick(ctx context.Context, code string, at time.Time) error {
	query := `UPDATE links SET clicks = clicks + 1, last_clicked = ? WHERE code = ?`

	res, err := r.db.ExecContext(ctx, query, at, code)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) Dump(ctx context.Context) ([]domain.Link, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT code, target_url, clicks, last_clicked, created_at FROM links`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanLinks(rows)
}

// Restore inserts a full row including counters, for migration imports.
func (r *SQLiteRepository) Restore(ctx context.Context, link *domain.Link) error {
	query := `INSERT INTO links (code, target_url, clicks, last_clicked, created_at) VALUES (?, ?, ?, ?, ?)`

	var lastClicked sql.NullTime
	if link.LastClicked != nil {
		lastClicked = sql.NullTime{Time: *link.LastClicked, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, query, link.Code, link.TargetURL, link.Clicks, lastClicked, link.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrCodeTaken
		}
		return err
	}
	return nil
}

func scanLinks(rows *sql.Rows) ([]domain.Link, error) {
	var links []domain.Link
	for rows.Next() {
		var l domain.Link
		var lastClicked sql.NullTime
		if err := rows.Scan(&l.Code, &l.TargetURL, &l.Clicks, &lastClicked, &l.CreatedAt); err != nil {
			return nil, err
		}
		if lastClicked.Valid {
			l.LastClicked = &lastClicked.Time
		}
		links = append(links, l)
	}
	return links, rows.Err()
}

// isUniqueViolation matches the constraint error text of both drivers:
// modernc reports "UNIQUE constraint failed", libsql/Postgres-backed
// deployments report "duplicate key".
func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "SQLITE_CONSTRAINT") ||
		strings.Contains(msg, "duplicate key")
}

// Ensure interface compliance
var _ ports.LinkRepository = (*SQLiteRepository)(nil)
