// Package snapshot implements the portable export/import format (C13): a
// manifest plus a full document payload and a verbatim copy of the
// vector-index directory, and a verifier that transitions documents
// between active and frozen status as their source folders come and go.
package snapshot

import (
	"errors"
	"time"
)

// FormatVersion is the stable snapshot format version this package reads
// and writes.
const FormatVersion = "1.0"

// ErrManifestMissing is returned when an import source has no
// manifest.json — a fatal error per the distilled spec's error taxonomy.
var ErrManifestMissing = errors.New("snapshot: manifest.json missing")

// ErrNoDocumentsImported is returned when zero documents could be
// reconstructed from documents.json — also fatal, since a snapshot import
// that silently produces an empty registry is worse than a hard failure.
var ErrNoDocumentsImported = errors.New("snapshot: zero documents reconstructed")

// ManifestMetadata is the descriptive header of a snapshot.
type ManifestMetadata struct {
	ExportDate         time.Time `json:"export_date"`
	Version            string    `json:"version"`
	TotalDocuments     int       `json:"total_documents"`
	TotalChunks        int       `json:"total_chunks"`
	TotalRelationships int       `json:"total_relationships"`
	SourceFolders      []string  `json:"source_folders"`
}

// Manifest is the JSON descriptor tying documents.json and vector_db/ into
// a portable snapshot.
type Manifest struct {
	Metadata      ManifestMetadata `json:"metadata"`
	DocumentsFile string           `json:"documents_file"`
	VectorDBPath  string           `json:"vector_db_path"`
}

// ImportResult reports the outcome of importing a snapshot, never an
// error itself except in the fatal cases named above.
type ImportResult struct {
	Success               bool
	DocumentsImported     int
	ChunksImported        int
	RelationshipsImported int
	Errors                []string
	Warnings              []string
}

// SourceStatus reports whether one declared source folder is currently
// reachable on disk.
type SourceStatus struct {
	Folder    string
	Available bool
}

// VerificationReport is the outcome of one verifier pass.
type VerificationReport struct {
	TotalSources     int
	AvailableSources int
	MissingSources   int
	FrozenDocuments  int
	SourceStatuses   []SourceStatus
}
