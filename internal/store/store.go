package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// FileName is the database file created inside the store directory.
const FileName = "scenes.db"

// timeLayout sorts lexically in time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

var (
	ErrNotFound    = errors.New("scene not found")
	ErrInvalidName = errors.New("invalid scene name: must not be empty")
)

// Entry describes a stored scene without its document.
type Entry struct {
	Name      string    `json:"name"`
	Width     float64   `json:"width"`
	Height    float64   `json:"height"`
	Objects   int       `json:"objects"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Store is a SQLite-backed table of scene documents keyed by name.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates the store in dir.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	path := filepath.Join(dir, FileName)

	db, err := sql.Open("sqlite", path+"?mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{db: db, path: path}
	if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if err := s.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS scenes (
		name TEXT PRIMARY KEY,
		width REAL NOT NULL,
		height REAL NOT NULL,
		objects INTEGER NOT NULL,
		document TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_scenes_updated ON scenes(updated_at);
	`
	_, err := s.db.ExecContext(context.Background(), schema)
	return err
}

// summary is the part of a scene document the listing needs.
type summary struct {
	Width   float64           `json:"width"`
	Height  float64           `json:"height"`
	Objects []json.RawMessage `json:"objects"`
}

// Save stores doc under name, replacing any scene with the same name.
func (s *Store) Save(ctx context.Context, name string, doc []byte) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrInvalidName
	}
	var sum summary
	if err := json.Unmarshal(doc, &sum); err != nil {
		return fmt.Errorf("failed to read scene document: %w", err)
	}

	query := `
	INSERT INTO scenes (name, width, height, objects, document, updated_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(name) DO UPDATE SET
		width = excluded.width,
		height = excluded.height,
		objects = excluded.objects,
		document = excluded.document,
		updated_at = excluded.updated_at
	`
	_, err := s.db.ExecContext(ctx, query,
		name,
		sum.Width,
		sum.Height,
		len(sum.Objects),
		string(doc),
		time.Now().UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to save scene: %w", err)
	}
	return nil
}

// Load returns the document stored under name.
func (s *Store) Load(ctx context.Context, name string) ([]byte, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, `SELECT document FROM scenes WHERE name = ?`, name).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load scene: %w", err)
	}
	return []byte(doc), nil
}

// List returns every stored scene, most recently saved first.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT name, width, height, objects, updated_at
	FROM scenes
	ORDER BY updated_at DESC, name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list scenes: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e       Entry
			updated string
		)
		if err := rows.Scan(&e.Name, &e.Width, &e.Height, &e.Objects, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan scene: %w", err)
		}
		e.UpdatedAt, _ = time.Parse(timeLayout, updated)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list scenes: %w", err)
	}
	return entries, nil
}

// Delete removes the scene stored under name.
func (s *Store) Delete(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM scenes WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("failed to delete scene: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete scene: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return nil
}
