// Package cachestore is a small best-effort SQLite-backed cache: embedding
// vectors keyed by (model, text hash), and scan-state records keyed by file
// path. Reads that miss simply fall through to recomputation; writes that
// fail are logged and swallowed, never propagated as errors — caching must
// never be able to turn a successful ingestion into a failed one.
package cachestore

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Store wraps a sql.DB holding the knowledge base's best-effort caches.
type Store struct {
	*sql.DB
	mu   sync.RWMutex
	path string
}

// Open creates or opens a SQLite cache database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("cachestore: create directory: %w", err)
	}

	sqlDB, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("cachestore: open: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("cachestore: ping: %w", err)
	}

	s := &Store{DB: sqlDB, path: path}
	if err := s.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("cachestore: migrate: %w", err)
	}
	return s, nil
}

// OpenMemory opens an in-memory cache store, useful for tests and for
// running without persistence.
func OpenMemory() (*Store, error) {
	sqlDB, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("cachestore: open in-memory: %w", err)
	}
	s := &Store{DB: sqlDB, path: ":memory:"}
	if err := s.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("cachestore: migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.Exec(schema)
	return err
}

const schema = `
CREATE TABLE IF NOT EXISTS embedding_cache (
    cache_key TEXT PRIMARY KEY,
    model_name TEXT NOT NULL,
    embedding BLOB NOT NULL,
    created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS scan_state (
    file_path TEXT PRIMARY KEY,
    source_folder TEXT NOT NULL,
    content_hash TEXT NOT NULL,
    mod_time DATETIME NOT NULL,
    size INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_scan_state_folder ON scan_state(source_folder);
`

// GetEmbedding returns a cached embedding's raw bytes, or ok=false on a
// miss or any read error — callers should treat both identically and
// recompute.
func (s *Store) GetEmbedding(cacheKey string) (data []byte, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var blob []byte
	err := s.QueryRow("SELECT embedding FROM embedding_cache WHERE cache_key = ?", cacheKey).Scan(&blob)
	if err != nil {
		return nil, false
	}
	return blob, true
}

// PutEmbedding best-effort writes an embedding to the cache. Failures are
// logged, not returned, so a slow or locked cache never fails ingestion.
func (s *Store) PutEmbedding(cacheKey, modelName string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.Exec(
		`INSERT INTO embedding_cache (cache_key, model_name, embedding) VALUES (?, ?, ?)
		 ON CONFLICT(cache_key) DO UPDATE SET embedding = excluded.embedding`,
		cacheKey, modelName, data,
	)
	if err != nil {
		slog.Warn("cachestore: embedding write failed", "key", cacheKey, "error", err)
	}
}

// ScanStateRow is one vault.Scanner cache entry as persisted across runs.
type ScanStateRow struct {
	FilePath     string
	SourceFolder string
	ContentHash  string
	ModTime      time.Time
	Size         int64
}

// LoadScanState returns every persisted scan-state row, so a Scanner can
// resume incremental change detection across process restarts instead of
// treating every file as new. A read error yields an empty result rather
// than failing the caller — worst case is a full rescan.
func (s *Store) LoadScanState() []ScanStateRow {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.Query(`SELECT file_path, source_folder, content_hash, mod_time, size FROM scan_state`)
	if err != nil {
		slog.Debug("cachestore: scan state read failed", "error", err)
		return nil
	}
	defer rows.Close()

	var out []ScanStateRow
	for rows.Next() {
		var r ScanStateRow
		var modTime string
		if err := rows.Scan(&r.FilePath, &r.SourceFolder, &r.ContentHash, &modTime, &r.Size); err != nil {
			continue
		}
		if t, err := time.Parse(time.RFC3339Nano, modTime); err == nil {
			r.ModTime = t
		}
		out = append(out, r)
	}
	return out
}

// SaveScanState replaces the persisted scan state with rows, best-effort.
// Engine.Close calls it once at shutdown rather than per file; replacing
// the whole table means rows for files deleted since the last save do not
// survive.
func (s *Store) SaveScanState(rows []ScanStateRow) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.Begin()
	if err != nil {
		slog.Warn("cachestore: scan state write failed", "error", err)
		return
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM scan_state`); err != nil {
		slog.Warn("cachestore: scan state clear failed", "error", err)
		return
	}
	stmt, err := tx.Prepare(`INSERT INTO scan_state (file_path, source_folder, content_hash, mod_time, size) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		slog.Warn("cachestore: scan state prepare failed", "error", err)
		return
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.Exec(r.FilePath, r.SourceFolder, r.ContentHash, r.ModTime.Format(time.RFC3339Nano), r.Size); err != nil {
			slog.Warn("cachestore: scan state row write failed", "path", r.FilePath, "error", err)
			return
		}
	}
	if err := tx.Commit(); err != nil {
		slog.Warn("cachestore: scan state commit failed", "error", err)
	}
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.DB.Close()
}
