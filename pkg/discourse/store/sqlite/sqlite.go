package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/neopian-sys/DiscourseAnalyses/pkg/discourse/internalerr"
	"github.com/neopian-sys/DiscourseAnalyses/pkg/discourse/store"
)

// sqliteStore implements the Store interface using SQLite. Every Append is
// durable on commit; snapshots fold the write-ahead log into the main
// database file.
type sqliteStore struct {
	db *sql.DB
}

// OpenSQLite opens a SQLite database with WAL mode enabled.
func OpenSQLite(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", internalerr.ErrStoreUnavailable, err)
	}
	// One connection keeps PRAGMAs and the WAL checkpoint on the same handle.
	db.SetMaxOpenConns(1)

	// Enable WAL mode so a crash mid-run keeps committed documents
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", internalerr.ErrStoreUnavailable, err)
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: init schema: %v", internalerr.ErrStoreUnavailable, err)
	}

	return &sqliteStore{db: db}, nil
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS documents (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	url TEXT UNIQUE NOT NULL,
	title TEXT NOT NULL DEFAULT '',
	date TEXT NOT NULL DEFAULT '',
	raw_content TEXT NOT NULL DEFAULT '',
	content TEXT NOT NULL DEFAULT '',
	stored_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS links (
	url TEXT PRIMARY KEY,
	discovered_at TEXT NOT NULL
);
`

	_, err := db.ExecContext(ctx, schema)
	return err
}

// Load returns documents in insertion order.
func (s *sqliteStore) Load(ctx context.Context) ([]store.Document, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT url, title, date, raw_content, content
FROM documents
ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("%w: load documents: %v", internalerr.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var docs []store.Document
	for rows.Next() {
		var r store.Record
		if err := rows.Scan(&r.URL, &r.Title, &r.Date, &r.RawContent, &r.Content); err != nil {
			return nil, fmt.Errorf("%w: scan document: %v", internalerr.ErrStoreUnavailable, err)
		}
		docs = append(docs, r.ToDocument())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", internalerr.ErrStoreUnavailable, err)
	}
	return docs, nil
}

// Append inserts a document unless the URL already exists.
func (s *sqliteStore) Append(ctx context.Context, doc store.Document) (bool, error) {
	if doc.URL == "" {
		return false, fmt.Errorf("%w: document without URL", internalerr.ErrInvalidInput)
	}

	const stmt = `
INSERT INTO documents (url, title, date, raw_content, content, stored_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(url) DO NOTHING;
`
	r := doc.ToRecord()
	res, err := s.db.ExecContext(
		ctx,
		stmt,
		r.URL,
		r.Title,
		r.Date,
		r.RawContent,
		r.Content,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return false, fmt.Errorf("%w: insert %s: %v", internalerr.ErrStoreUnavailable, doc.URL, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: %v", internalerr.ErrStoreUnavailable, err)
	}
	return n > 0, nil
}

// Snapshot checkpoints the write-ahead log. A partial snapshot copies what
// it can without blocking; a full snapshot also truncates the log.
func (s *sqliteStore) Snapshot(ctx context.Context, partial bool) error {
	mode := "TRUNCATE"
	if partial {
		mode = "PASSIVE"
	}
	var busy, logFrames, checkpointed int
	err := s.db.QueryRowContext(ctx, "PRAGMA wal_checkpoint("+mode+")").Scan(&busy, &logFrames, &checkpointed)
	if err != nil {
		return fmt.Errorf("%w: checkpoint: %v", internalerr.ErrStoreUnavailable, err)
	}
	if busy != 0 && !partial {
		return fmt.Errorf("%w: checkpoint blocked", internalerr.ErrStoreUnavailable)
	}
	return nil
}

// SaveLinks records discovered links. Links accumulate across runs.
func (s *sqliteStore) SaveLinks(ctx context.Context, urls []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", internalerr.ErrStoreUnavailable, err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, u := range urls {
		if u == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO links (url, discovered_at) VALUES (?, ?) ON CONFLICT(url) DO NOTHING`, u, now); err != nil {
			return fmt.Errorf("%w: insert link: %v", internalerr.ErrStoreUnavailable, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %v", internalerr.ErrStoreUnavailable, err)
	}
	return nil
}

// LoadLinks returns all recorded links sorted by URL.
func (s *sqliteStore) LoadLinks(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT url FROM links ORDER BY url`)
	if err != nil {
		return nil, fmt.Errorf("%w: load links: %v", internalerr.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("%w: %v", internalerr.ErrStoreUnavailable, err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
