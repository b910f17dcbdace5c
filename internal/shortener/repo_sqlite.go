package shortener

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/sundayezeilo/shortlink/internal/errx"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS links (
    id         TEXT PRIMARY KEY CHECK (length(id) > 0),
    target_url TEXT NOT NULL CHECK (length(target_url) > 0),
    created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now')),
    updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
)`

// SQLiteRepository is a Repository backed by a single SQLite file.
type SQLiteRepository struct {
	db *sql.DB
}

var _ Repository = (*SQLiteRepository)(nil)

// OpenSQLite opens (creating if needed) the SQLite database at path and makes
// sure the links table exists. Use ":memory:" for a throwaway database.
func OpenSQLite(ctx context.Context, path string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	// SQLite serialises writers anyway; one connection keeps ":memory:"
	// databases shared and avoids SQLITE_BUSY between pool members.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize links schema: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func mapSQLiteError(op string, err error) error {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return errx.E(op, errx.NotFound, err)

	case isSQLiteIDConflict(err):
		return errx.E(op, errx.Conflict, err)

	default:
		return errx.E(op, errx.Storage, err)
	}
}

func (s *SQLiteRepository) Get(ctx context.Context, id string) (Link, error) {
	const op = "shortener.sqlite.Get"

	var link Link
	err := s.db.QueryRowContext(ctx,
		"SELECT id, target_url FROM links WHERE id = ?", id,
	).Scan(&link.ID, &link.TargetURL)
	if err != nil {
		return Link{}, mapSQLiteError(op, err)
	}
	return link, nil
}

func (s *SQLiteRepository) Insert(ctx context.Context, link Link) (Link, error) {
	const op = "shortener.sqlite.Insert"

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO links (id, target_url) VALUES (?, ?)", link.ID, link.TargetURL,
	)
	if err != nil {
		return Link{}, mapSQLiteError(op, err)
	}
	return link, nil
}

func (s *SQLiteRepository) UpdateTarget(ctx context.Context, id, targetURL string) (int64, error) {
	const op = "shortener.sqlite.UpdateTarget"

	res, err := s.db.ExecContext(ctx,
		`UPDATE links
		 SET target_url = ?, updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')
		 WHERE id = ?`,
		targetURL, id,
	)
	if err != nil {
		return 0, mapSQLiteError(op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, errx.E(op, errx.Storage, err)
	}
	return n, nil
}

// Ping reports whether the database is reachable.
func (s *SQLiteRepository) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying database.
func (s *SQLiteRepository) Close() error {
	return s.db.Close()
}
