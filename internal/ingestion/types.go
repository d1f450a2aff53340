// Package ingestion drives the scan-parse-chunk-embed-index pipeline (C1-C5)
// per changed vault file with bounded parallelism, then builds document
// relationships once every file task has settled.
package ingestion

import "time"

// ProgressFunc reports incremental progress; it is always invoked while the
// batch's result-collection lock is held, so callbacks never overlap.
type ProgressFunc func(processed, total int, currentFile string)

// FileError records a single file's processing failure without aborting the
// rest of the batch.
type FileError struct {
	Path string
	Err  error
}

func (e FileError) Error() string { return e.Path + ": " + e.Err.Error() }

// ProcessingStats summarizes one orchestrator run.
type ProcessingStats struct {
	FilesScanned       int
	FilesNew           int
	FilesModified      int
	FilesDeleted       int
	FilesUnchanged     int
	ChunksCreated      int
	RelationshipsBuilt int
	Errors             []FileError
	Duration           time.Duration
}
