package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

// CatalogFile is the index database kept next to the run directories.
const CatalogFile = "runs.db"

// Catalog indexes run metadata in SQLite so runs can be filtered without
// reading every run directory.
type Catalog struct {
	db   *sql.DB
	path string
}

func OpenCatalog(path string) (*Catalog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		created INTEGER NOT NULL,
		seed INTEGER NOT NULL,
		events INTEGER NOT NULL,
		smear INTEGER NOT NULL,
		decays INTEGER NOT NULL,
		payload BLOB NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create runs table: %w", err)
	}
	return &Catalog{db: db, path: path}, nil
}

// Catalog opens the index of this store.
func (s *Store) Catalog() (*Catalog, error) {
	return OpenCatalog(filepath.Join(s.baseDir, CatalogFile))
}

func (c *Catalog) Close() error { return c.db.Close() }

func (c *Catalog) Path() string { return c.path }

// Record inserts or replaces the entry for meta.ID.
func (c *Catalog) Record(ctx context.Context, meta RunMetadata) error {
	payload, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	smear := 0
	if meta.Smear {
		smear = 1
	}
	_, err = c.db.ExecContext(ctx, `INSERT INTO runs(id,name,created,seed,events,smear,decays,payload)
		VALUES(?,?,?,?,?,?,?,?)
		ON CONFLICT(id) DO UPDATE SET name=excluded.name, created=excluded.created, seed=excluded.seed,
			events=excluded.events, smear=excluded.smear, decays=excluded.decays, payload=excluded.payload`,
		meta.ID, meta.Name, meta.Timestamp.UnixNano(), meta.Seed, meta.Summary.Events, smear, meta.Summary.Decays, payload)
	if err != nil {
		return fmt.Errorf("upsert %s: %w", meta.ID, err)
	}
	return nil
}

// Query filters catalog entries. Zero fields do not filter.
type Query struct {
	Name      string
	Seed      int64
	MinEvents int
	SmearOnly bool
	Since     time.Time
	Limit     int
}

// Runs returns matching entries, newest first.
func (c *Catalog) Runs(ctx context.Context, q Query) ([]RunMetadata, error) {
	stmt := `SELECT payload FROM runs WHERE 1=1`
	var args []any
	if q.Name != "" {
		stmt += ` AND name = ?`
		args = append(args, q.Name)
	}
	if q.Seed != 0 {
		stmt += ` AND seed = ?`
		args = append(args, q.Seed)
	}
	if q.MinEvents > 0 {
		stmt += ` AND events >= ?`
		args = append(args, q.MinEvents)
	}
	if q.SmearOnly {
		stmt += ` AND smear = 1`
	}
	if !q.Since.IsZero() {
		stmt += ` AND created >= ?`
		args = append(args, q.Since.UnixNano())
	}
	stmt += ` ORDER BY created DESC`
	if q.Limit > 0 {
		stmt += ` LIMIT ?`
		args = append(args, q.Limit)
	}

	rows, err := c.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("select runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	runs := make([]RunMetadata, 0)
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		var meta RunMetadata
		if err := json.Unmarshal(payload, &meta); err != nil {
			return nil, fmt.Errorf("decode run: %w", err)
		}
		runs = append(runs, meta)
	}
	return runs, rows.Err()
}

func (c *Catalog) Delete(ctx context.Context, id string) error {
	_, err := c.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	return err
}

// Reindex replaces the catalog contents with the runs found in s.
func (c *Catalog) Reindex(ctx context.Context, s *Store) (n int, retErr error) {
	runs, err := s.List()
	if err != nil {
		return 0, err
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM runs`); err != nil {
		return 0, fmt.Errorf("clear runs: %w", err)
	}
	for _, meta := range runs {
		payload, err := json.Marshal(meta)
		if err != nil {
			return 0, err
		}
		smear := 0
		if meta.Smear {
			smear = 1
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO runs(id,name,created,seed,events,smear,decays,payload) VALUES(?,?,?,?,?,?,?,?)`,
			meta.ID, meta.Name, meta.Timestamp.UnixNano(), meta.Seed, meta.Summary.Events, smear, meta.Summary.Decays, payload); err != nil {
			return 0, fmt.Errorf("insert %s: %w", meta.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(runs), nil
}
