// Package durationcache persists probed track durations across daemon
// restarts so a playlist that hasn't changed doesn't have to be re-probed
// with ffprobe on every boot.
package durationcache

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Cache wraps a SQLite-backed path -> duration_seconds table.
type Cache struct {
	db *sql.DB
}

// Open creates (if needed) and opens the cache database at dbPath.
func Open(dbPath string) (*Cache, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("durationcache: open: %w", err)
	}
	const schema = `CREATE TABLE IF NOT EXISTS durations (
		path TEXT PRIMARY KEY,
		seconds REAL NOT NULL,
		probed_at INTEGER NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("durationcache: schema: %w", err)
	}
	return &Cache{db: db}, nil
}

// Close releases the underlying database handle.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Get returns the cached duration for path, or (0, false) if not cached.
// Entries never expire: a file replaced in place without renaming will
// return its previously probed duration until Put overwrites it or the
// cache file is cleared.
func (c *Cache) Get(path string) (float64, bool) {
	var seconds float64
	err := c.db.QueryRow(`SELECT seconds FROM durations WHERE path = ?`, path).Scan(&seconds)
	if err != nil {
		return 0, false
	}
	return seconds, true
}

// Put stores or overwrites the cached duration for path, stamped with
// probedAtUnix (caller supplies the timestamp; this package never calls
// time.Now itself so its behavior stays deterministic under test).
func (c *Cache) Put(path string, seconds float64, probedAtUnix int64) error {
	_, err := c.db.Exec(
		`INSERT INTO durations (path, seconds, probed_at) VALUES (?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET seconds = excluded.seconds, probed_at = excluded.probed_at`,
		path, seconds, probedAtUnix,
	)
	if err != nil {
		return fmt.Errorf("durationcache: put: %w", err)
	}
	return nil
}

// Delete removes a cached entry, e.g. when a playlist path is no longer
// referenced by any playlist.
func (c *Cache) Delete(path string) error {
	_, err := c.db.Exec(`DELETE FROM durations WHERE path = ?`, path)
	return err
}
