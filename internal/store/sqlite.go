package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/Movie-Song/sns-contents-tracker/internal/content"
)

// SQLite is a self-hosted content store. Like the Notion database it has
// no uniqueness constraint on url: duplicate prevention stays client-side.
type SQLite struct {
	readDB  *sql.DB
	writeDB *sql.DB
}

func OpenSQLite(dbPath string) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating store dir: %w", err)
	}

	writeDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening write db: %w", err)
	}
	writeDB.SetMaxOpenConns(1)

	readDB, err := sql.Open("sqlite", dbPath+"?mode=ro")
	if err != nil {
		writeDB.Close()
		return nil, fmt.Errorf("opening read db: %w", err)
	}

	s := &SQLite{readDB: readDB, writeDB: writeDB}
	if err := s.init(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLite) init() error {
	_, err := s.writeDB.Exec(`
		CREATE TABLE IF NOT EXISTS contents (
			id         TEXT PRIMARY KEY,
			title      TEXT NOT NULL,
			url        TEXT NOT NULL,
			published  TEXT NOT NULL,
			platform   TEXT NOT NULL,
			created_at DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_contents_published ON contents(published DESC);
		CREATE INDEX IF NOT EXISTS idx_contents_url ON contents(url);
	`)
	if err != nil {
		return fmt.Errorf("initializing schema: %w", err)
	}
	return nil
}

func (s *SQLite) Close() error {
	var errs []error
	if s.readDB != nil {
		errs = append(errs, s.readDB.Close())
	}
	if s.writeDB != nil {
		errs = append(errs, s.writeDB.Close())
	}
	for _, e := range errs {
		if e != nil {
			return e
		}
	}
	return nil
}

func (s *SQLite) Create(ctx context.Context, rec content.Record) (content.StoredRecord, error) {
	stored := content.StoredRecord{
		ID:        uuid.NewString(),
		Title:     rec.Title,
		URL:       rec.URL,
		Published: rec.Timestamp(),
		Platform:  rec.Platform,
	}
	_, err := s.writeDB.ExecContext(ctx, `
		INSERT INTO contents (id, title, url, published, platform, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, stored.ID, stored.Title, stored.URL, stored.Published, stored.Platform, time.Now().UTC())
	if err != nil {
		return content.StoredRecord{}, writeErr(fmt.Errorf("inserting %s: %w", rec.URL, err))
	}
	return stored, nil
}

func (s *SQLite) Query(ctx context.Context, q Query) ([]content.StoredRecord, error) {
	var (
		where []string
		args  []any
	)

	if q.Filter.URL != "" {
		where = append(where, "url = ?")
		args = append(args, q.Filter.URL)
	}
	if q.Filter.Date != "" {
		where = append(where, "substr(published, 1, 10) = ?")
		args = append(args, q.Filter.Date)
	}
	if q.Filter.Since != "" {
		where = append(where, "substr(published, 1, 10) >= ?")
		args = append(args, q.Filter.Since)
	}

	query := "SELECT id, title, url, published, platform FROM contents"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	if q.SortDateDesc {
		query += " ORDER BY published DESC"
	} else {
		query += " ORDER BY created_at"
	}

	rows, err := s.readDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, queryErr(fmt.Errorf("querying contents: %w", err))
	}
	defer rows.Close()

	var out []content.StoredRecord
	for rows.Next() {
		var r content.StoredRecord
		if err := rows.Scan(&r.ID, &r.Title, &r.URL, &r.Published, &r.Platform); err != nil {
			return nil, queryErr(fmt.Errorf("scanning content: %w", err))
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, queryErr(err)
	}
	return out, nil
}

// Count returns the number of stored records.
func (s *SQLite) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.readDB.QueryRowContext(ctx, "SELECT COUNT(*) FROM contents").Scan(&n); err != nil {
		return 0, queryErr(err)
	}
	return n, nil
}
