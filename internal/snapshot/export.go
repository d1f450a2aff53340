package snapshot

import (
	"archive/zip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/arjun-iyer/noteforge/internal/kbtypes"
	"github.com/arjun-iyer/noteforge/internal/vectordb"
)

const (
	documentsFileName = "documents.json"
	manifestFileName  = "manifest.json"
	vectorDBDirName   = "vector_db"
)

// Exporter writes portable knowledge-base snapshots.
type Exporter struct {
	store vectordb.VectorStore
}

// NewExporter returns an Exporter that snapshots store's contents.
func NewExporter(store vectordb.VectorStore) *Exporter {
	return &Exporter{store: store}
}

// Export writes documents.json, a verbatim copy of the vector index
// directory and manifest.json under outputDir. When zipPath is non-empty,
// the three artifacts are additionally archived there.
func (e *Exporter) Export(ctx context.Context, docs []kbtypes.Document, sourceFolders []string, outputDir, zipPath string) (Manifest, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return Manifest{}, fmt.Errorf("snapshot: create output dir: %w", err)
	}

	docsData, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return Manifest{}, fmt.Errorf("snapshot: marshal documents: %w", err)
	}
	docsPath := filepath.Join(outputDir, documentsFileName)
	if err := os.WriteFile(docsPath, docsData, 0o644); err != nil {
		return Manifest{}, fmt.Errorf("snapshot: write documents.json: %w", err)
	}

	vectorDBPath := filepath.Join(outputDir, vectorDBDirName)
	if err := os.MkdirAll(vectorDBPath, 0o755); err != nil {
		return Manifest{}, fmt.Errorf("snapshot: create vector_db dir: %w", err)
	}
	if e.store != nil {
		if err := e.store.Persist(ctx, vectorDBPath); err != nil {
			return Manifest{}, fmt.Errorf("snapshot: persist vector index: %w", err)
		}
	}

	totalChunks, totalRelationships := 0, 0
	for _, d := range docs {
		totalChunks += len(d.Chunks)
		totalRelationships += len(d.Relationships)
	}

	manifest := Manifest{
		Metadata: ManifestMetadata{
			ExportDate:         time.Now().UTC(),
			Version:            FormatVersion,
			TotalDocuments:     len(docs),
			TotalChunks:        totalChunks,
			TotalRelationships: totalRelationships,
			SourceFolders:      sourceFolders,
		},
		DocumentsFile: documentsFileName,
		VectorDBPath:  vectorDBDirName,
	}

	manifestData, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return Manifest{}, fmt.Errorf("snapshot: marshal manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(outputDir, manifestFileName), manifestData, 0o644); err != nil {
		return Manifest{}, fmt.Errorf("snapshot: write manifest.json: %w", err)
	}

	if zipPath != "" {
		if err := zipDirectory(outputDir, zipPath); err != nil {
			return Manifest{}, fmt.Errorf("snapshot: zip export: %w", err)
		}
	}

	return manifest, nil
}

// zipDirectory archives every file under dir into a zip at zipPath, with
// paths relative to dir so the archive's root mirrors the export layout.
func zipDirectory(dir, zipPath string) error {
	out, err := os.Create(zipPath)
	if err != nil {
		return fmt.Errorf("create zip: %w", err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	defer zw.Close()

	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		w, err := zw.Create(filepath.ToSlash(rel))
		if err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(w, f)
		return err
	})
}
