package snapshot

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/arjun-iyer/noteforge/internal/embeddings"
	"github.com/arjun-iyer/noteforge/internal/kbtypes"
	"github.com/arjun-iyer/noteforge/internal/vectordb"
)

func sampleDocs() []kbtypes.Document {
	return []kbtypes.Document{
		{
			DocID:        "vault::a.md",
			SourceFolder: "/vault",
			RelativePath: "a.md",
			FilePath:     "/vault/a.md",
			RawContent:   "# A",
			Metadata:     kbtypes.Metadata{Title: "A", Tags: []string{"x"}},
			Chunks: []kbtypes.Chunk{
				{ChunkID: "vault::a.md_0", DocumentID: "vault::a.md", Index: 0, Content: "hello"},
			},
			Relationships: []kbtypes.Relationship{
				{SourceDocID: "vault::a.md", TargetDocID: "vault::b.md", Kind: kbtypes.RelWikilink, Strength: 1.0},
			},
			Status: kbtypes.StatusActive,
		},
		{
			DocID:        "vault::b.md",
			SourceFolder: "/vault",
			RelativePath: "b.md",
			FilePath:     "/vault/b.md",
			RawContent:   "# B",
			Metadata:     kbtypes.Metadata{Title: "B"},
			Status:       kbtypes.StatusActive,
		},
		{
			DocID:        "vault::c.md",
			SourceFolder: "/vault",
			RelativePath: "c.md",
			FilePath:     "/vault/c.md",
			RawContent:   "# C",
			Metadata:     kbtypes.Metadata{Title: "C"},
			Status:       kbtypes.StatusActive,
		},
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := vectordb.NewChromemStore(embeddings.NewMockEmbedder(16))
	if err != nil {
		t.Fatalf("NewChromemStore: %v", err)
	}
	if err := store.AddChunks(ctx, []vectordb.Document{
		{ID: "vault::a.md_0", Content: "hello", Metadata: vectordb.Metadata{DocID: "vault::a.md"}},
	}); err != nil {
		t.Fatalf("AddChunks: %v", err)
	}

	outDir := filepath.Join(t.TempDir(), "export")
	docs := sampleDocs()

	manifest, err := NewExporter(store).Export(ctx, docs, []string{"/vault"}, outDir, "")
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if manifest.Metadata.TotalDocuments != 3 {
		t.Fatalf("expected 3 documents in manifest, got %d", manifest.Metadata.TotalDocuments)
	}

	targetStore, err := vectordb.NewChromemStore(embeddings.NewMockEmbedder(16))
	if err != nil {
		t.Fatalf("NewChromemStore: %v", err)
	}
	targetVecDir := filepath.Join(t.TempDir(), "vector_db")

	result, importedDocs, err := NewImporter(targetStore).Import(ctx, outDir, targetVecDir)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected successful import, errors: %v", result.Errors)
	}
	if result.DocumentsImported != 3 {
		t.Fatalf("expected 3 imported documents, got %d", result.DocumentsImported)
	}
	if len(result.Errors) != 0 {
		t.Fatalf("expected no errors, got %v", result.Errors)
	}
	if _, err := os.Stat(targetVecDir); err != nil {
		t.Fatalf("expected vector db directory at target path: %v", err)
	}

	for i := range importedDocs {
		if importedDocs[i].DocID != docs[i].DocID {
			t.Fatalf("doc_id mismatch at %d: %q vs %q", i, importedDocs[i].DocID, docs[i].DocID)
		}
		if importedDocs[i].Status != docs[i].Status {
			t.Fatalf("status mismatch at %d", i)
		}
	}
	if importedDocs[0].Relationships[0].TargetDocID != "vault::b.md" {
		t.Fatalf("expected relationship to round-trip, got %+v", importedDocs[0].Relationships)
	}
}

func TestExportImportZipRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := vectordb.NewChromemStore(embeddings.NewMockEmbedder(16))
	if err != nil {
		t.Fatalf("NewChromemStore: %v", err)
	}

	outDir := filepath.Join(t.TempDir(), "export")
	zipPath := filepath.Join(t.TempDir(), "export.zip")
	docs := sampleDocs()

	if _, err := NewExporter(store).Export(ctx, docs, []string{"/vault"}, outDir, zipPath); err != nil {
		t.Fatalf("Export: %v", err)
	}
	if _, err := os.Stat(zipPath); err != nil {
		t.Fatalf("expected zip archive: %v", err)
	}

	targetStore, err := vectordb.NewChromemStore(embeddings.NewMockEmbedder(16))
	if err != nil {
		t.Fatalf("NewChromemStore: %v", err)
	}
	result, importedDocs, err := NewImporter(targetStore).Import(ctx, zipPath, filepath.Join(t.TempDir(), "vector_db"))
	if err != nil {
		t.Fatalf("Import from zip: %v", err)
	}
	if result.DocumentsImported != 3 || len(importedDocs) != 3 {
		t.Fatalf("unexpected zip import result: %+v", result)
	}
}

func TestImportMissingManifestFails(t *testing.T) {
	dir := t.TempDir()
	store, _ := vectordb.NewChromemStore(embeddings.NewMockEmbedder(16))
	_, _, err := NewImporter(store).Import(context.Background(), dir, filepath.Join(dir, "vector_db"))
	if err != ErrManifestMissing {
		t.Fatalf("expected ErrManifestMissing, got %v", err)
	}
}

func TestVerifierFreezeThaw(t *testing.T) {
	base := t.TempDir()
	present := filepath.Join(base, "present")
	missing := filepath.Join(base, "missing")
	if err := os.MkdirAll(present, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	docs := []*kbtypes.Document{
		{DocID: "d1", SourceFolder: present, FilePath: filepath.Join(present, "a.md"), Status: kbtypes.StatusActive},
		{DocID: "d2", SourceFolder: missing, FilePath: filepath.Join(missing, "b.md"), Status: kbtypes.StatusActive},
	}

	v := NewVerifier()
	report := v.Verify(docs, []string{present, missing})

	if report.TotalSources != 2 || report.AvailableSources != 1 || report.MissingSources != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if report.FrozenDocuments != 1 {
		t.Fatalf("expected 1 frozen document, got %d", report.FrozenDocuments)
	}
	if docs[0].Status != kbtypes.StatusActive {
		t.Fatalf("expected doc under present folder to remain active")
	}
	if docs[1].Status != kbtypes.StatusFrozen {
		t.Fatalf("expected doc under missing folder to freeze")
	}

	// Idempotence: a second verify with the same folders yields the same report.
	report2 := v.Verify(docs, []string{present, missing})
	if report2.TotalSources != report.TotalSources ||
		report2.AvailableSources != report.AvailableSources ||
		report2.MissingSources != report.MissingSources ||
		report2.FrozenDocuments != report.FrozenDocuments {
		t.Fatalf("expected idempotent report, got %+v vs %+v", report, report2)
	}

	// Recreate the missing folder; the frozen document should thaw.
	if err := os.MkdirAll(missing, 0o755); err != nil {
		t.Fatalf("mkdir missing: %v", err)
	}
	report3 := v.Verify(docs, []string{present, missing})
	if report3.MissingSources != 0 {
		t.Fatalf("expected 0 missing sources after recreation, got %d", report3.MissingSources)
	}
	if docs[1].Status != kbtypes.StatusActive {
		t.Fatalf("expected frozen document to thaw back to active")
	}
}
