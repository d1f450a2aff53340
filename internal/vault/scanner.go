// Package vault scans one or more Obsidian vault root folders for Markdown
// notes and images, hashing file content and detecting which files are new,
// modified, deleted or unchanged since the last scan.
package vault

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultMaxFileSize is the largest file scanned by default (10 MB, notes
// are text but embedded vault attachments can be large).
const DefaultMaxFileSize int64 = 10 << 20

// ChangeType classifies how a file differs from the last recorded scan.
type ChangeType string

const (
	ChangeNew       ChangeType = "new"
	ChangeModified  ChangeType = "modified"
	ChangeDeleted   ChangeType = "deleted"
	ChangeUnchanged ChangeType = "unchanged"
)

// FileRecord is a single file's identity as of a scan.
type FileRecord struct {
	Path    string // absolute path on disk
	RelPath string // path relative to the source folder, forward-slashed
	Size    int64
	ModTime time.Time
	Hash    string
}

// Change pairs a FileRecord with how it differs from the cache.
type Change struct {
	FileRecord
	Type ChangeType
}

// ScanConfig controls a single Scanner.Scan call.
type ScanConfig struct {
	SourceFolder string   // absolute root to walk
	Patterns     []string // glob patterns, e.g. "*.md"; empty means "*.md"
	MaxFileSize  int64    // 0 uses DefaultMaxFileSize
}

// excludedDirs are Obsidian/vault housekeeping directories never treated as
// content.
var excludedDirs = map[string]bool{
	".obsidian":  true,
	".smart-env": true,
	".git":       true,
	".trash":     true,
}

// Scanner walks vault folders and tracks file identity across calls so
// repeated scans can report incremental changes instead of a full rescan.
type Scanner struct {
	cache map[string]FileRecord // absolute path -> last known record, per folder
}

// NewScanner returns an empty Scanner. Use LoadCache to seed it from a
// persisted change cache.
func NewScanner() *Scanner {
	return &Scanner{cache: make(map[string]FileRecord)}
}

// LoadCache replaces the scanner's in-memory cache, e.g. from persisted state.
func (s *Scanner) LoadCache(records map[string]FileRecord) {
	s.cache = make(map[string]FileRecord, len(records))
	for k, v := range records {
		s.cache[k] = v
	}
}

// Snapshot returns a copy of the current cache, suitable for persistence.
func (s *Scanner) Snapshot() map[string]FileRecord {
	out := make(map[string]FileRecord, len(s.cache))
	for k, v := range s.cache {
		out[k] = v
	}
	return out
}

// Scan walks cfg.SourceFolder and returns every matching file's current
// record, without consulting or mutating the change cache.
func (s *Scanner) Scan(cfg ScanConfig) ([]FileRecord, error) {
	root, err := filepath.Abs(cfg.SourceFolder)
	if err != nil {
		return nil, fmt.Errorf("vault: resolve source folder: %w", err)
	}
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("vault: source folder does not exist: %s", cfg.SourceFolder)
	}

	patterns := cfg.Patterns
	if len(patterns) == 0 {
		patterns = []string{"*.md"}
	}
	maxSize := cfg.MaxFileSize
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}

	var records []FileRecord

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		if d.IsDir() {
			if excludedDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if isHiddenPath(root, path) {
			return nil
		}
		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		if !matchesAnyPattern(filepath.ToSlash(relPath), patterns) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		if info.Size() > maxSize {
			return nil
		}

		hash, err := hashFile(path)
		if err != nil {
			return nil
		}

		records = append(records, FileRecord{
			Path:    path,
			RelPath: filepath.ToSlash(relPath),
			Size:    info.Size(),
			ModTime: info.ModTime(),
			Hash:    hash,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("vault: walk: %w", err)
	}

	return records, nil
}

// DetectChanges scans cfg.SourceFolder and classifies every discovered and
// previously-cached file as new, modified, deleted or unchanged, updating
// the scanner's cache as it goes. Unchanged files are identified by content
// hash, not mtime, so touching a file without editing it does not trigger
// reprocessing.
func (s *Scanner) DetectChanges(cfg ScanConfig) ([]Change, error) {
	current, err := s.Scan(cfg)
	if err != nil {
		return nil, err
	}

	currentByPath := make(map[string]FileRecord, len(current))
	for _, r := range current {
		currentByPath[r.Path] = r
	}

	root, _ := filepath.Abs(cfg.SourceFolder)
	var changes []Change

	for path, rec := range s.cache {
		if !strings.HasPrefix(path, root) {
			continue // belongs to a different source folder's cache entries
		}
		if _, stillExists := currentByPath[path]; !stillExists {
			changes = append(changes, Change{FileRecord: rec, Type: ChangeDeleted})
			delete(s.cache, path)
		}
	}

	for path, rec := range currentByPath {
		cached, ok := s.cache[path]
		switch {
		case !ok:
			changes = append(changes, Change{FileRecord: rec, Type: ChangeNew})
		case cached.Hash != rec.Hash:
			changes = append(changes, Change{FileRecord: rec, Type: ChangeModified})
		default:
			changes = append(changes, Change{FileRecord: rec, Type: ChangeUnchanged})
		}
		s.cache[path] = rec
	}

	return changes, nil
}

// ClearCache drops all tracked file identity, forcing the next DetectChanges
// call to report every file as new.
func (s *Scanner) ClearCache() {
	s.cache = make(map[string]FileRecord)
}

func isHiddenPath(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}

// matchesAnyPattern matches the forward-slashed relative path against each
// glob, with ** support. Bare patterns like "*.md" match against the base
// name so they apply at any depth; patterns containing a slash match the
// full relative path.
func matchesAnyPattern(relPath string, patterns []string) bool {
	base := relPath
	if i := strings.LastIndex(relPath, "/"); i >= 0 {
		base = relPath[i+1:]
	}
	for _, p := range patterns {
		target := base
		if strings.Contains(p, "/") {
			target = relPath
		}
		if ok, err := doublestar.Match(p, target); err == nil && ok {
			return true
		}
	}
	return false
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
