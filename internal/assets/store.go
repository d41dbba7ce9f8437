// Package assets stores synthesized audio blobs on disk, keyed by the
// server-supplied filename. A SQLite catalog tracks what is stored so stale
// assets can be pruned, and a small in-memory cache spares re-reads when the
// same sentence is replayed.
package assets

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	_ "modernc.org/sqlite"
)

// cacheTTL bounds how long a decoded blob stays in memory. Replays cluster
// within a page of interaction, so a short window is enough.
const cacheTTL = 10 * time.Minute

// Store is the local audio asset store.
type Store struct {
	dir    string
	db     *sql.DB
	cache  *gocache.Cache
	logger *zap.Logger
}

// Open creates or reopens the asset store under dir.
func Open(ctx context.Context, dir string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating asset dir: %w", err)
	}

	dsn := filepath.Join(dir, "catalog.db") + "?_journal_mode=WAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening asset catalog: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS assets (
			name       TEXT PRIMARY KEY,
			size_bytes INTEGER NOT NULL,
			created_at INTEGER NOT NULL
		)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing asset catalog: %w", err)
	}

	return &Store{
		dir:    dir,
		db:     db,
		cache:  gocache.New(cacheTTL, cacheTTL),
		logger: logger,
	}, nil
}

// Close releases the catalog connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put writes data under the given filename and records it in the catalog,
// replacing any previous asset of the same name.
func (s *Store) Put(filename string, data []byte) error {
	path := filepath.Join(s.dir, filepath.Base(filename))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing asset %s: %w", filename, err)
	}

	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO assets (name, size_bytes, created_at) VALUES (?, ?, ?)`,
		filepath.Base(filename), len(data), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("cataloging asset %s: %w", filename, err)
	}

	s.cache.Set(filepath.Base(filename), data, cacheTTL)
	return nil
}

// Get returns the stored blob for filename.
func (s *Store) Get(filename string) ([]byte, error) {
	name := filepath.Base(filename)
	if cached, ok := s.cache.Get(name); ok {
		return cached.([]byte), nil
	}

	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return nil, fmt.Errorf("reading asset %s: %w", name, err)
	}
	s.cache.Set(name, data, cacheTTL)
	return data, nil
}

// Path returns the on-disk location of filename without checking existence.
// The audio player collaborator takes paths, not blobs.
func (s *Store) Path(filename string) string {
	return filepath.Join(s.dir, filepath.Base(filename))
}

// Has reports whether the catalog knows the filename.
func (s *Store) Has(filename string) bool {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(1) FROM assets WHERE name = ?`, filepath.Base(filename)).Scan(&n)
	return err == nil && n > 0
}

// Prune removes assets older than the cutoff, both files and catalog rows.
// Returns how many were removed.
func (s *Store) Prune(olderThan time.Duration) (int, error) {
	cutoff := time.Now().Add(-olderThan).Unix()

	rows, err := s.db.Query(`SELECT name FROM assets WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("listing stale assets: %w", err)
	}
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scanning stale asset: %w", err)
		}
		names = append(names, name)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("listing stale assets: %w", err)
	}

	removed := 0
	for _, name := range names {
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("could not remove stale asset", zap.String("name", name), zap.Error(err))
			continue
		}
		if _, err := s.db.Exec(`DELETE FROM assets WHERE name = ?`, name); err != nil {
			return removed, fmt.Errorf("deleting catalog row %s: %w", name, err)
		}
		s.cache.Delete(name)
		removed++
	}
	return removed, nil
}
