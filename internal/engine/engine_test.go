package engine

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/arjun-iyer/noteforge/internal/config"
	"github.com/arjun-iyer/noteforge/internal/kbtypes"
)

const doc1Content = `---
title: Rust Ownership
tags:
  - lang/rust
---
所有權是 Rust 的核心概念。每個值都有一個擁有者。當擁有者離開作用域時值會被釋放。

See also [[doc2]].
`

const doc2Content = "# Borrowing\n\n```rust\nfn main() { let s = String::new(); }\n```\n\nBack to [[doc1|rules]].\n"

func newTestEngine(t *testing.T, vaultDir string) *Engine {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Provider = config.ProviderMock
	cfg.Model = "mock"
	cfg.EmbeddingProvider = config.ProviderMock
	cfg.EmbeddingModel = "mock"
	cfg.EmbeddingDim = 64
	cfg.Vault.SourceFolders = []string{vaultDir}
	cfg.Storage.VectorDBPath = filepath.Join(t.TempDir(), "vector_db")
	cfg.Storage.CachePath = "" // in-memory cache
	// The mock embedder is hash-derived, not semantic; keep every retrieved
	// chunk above the floor so end-to-end assertions stay deterministic.
	cfg.Retrieval.MinScore = 0.01

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	e, err := Open(cfg, logger)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { e.Close(context.Background()) })
	return e
}

func writeNote(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestIngestThenQuery(t *testing.T) {
	vaultDir := t.TempDir()
	writeNote(t, vaultDir, "doc1.md", doc1Content)
	writeNote(t, vaultDir, "doc2.md", doc2Content)

	e := newTestEngine(t, vaultDir)
	ctx := context.Background()

	stats, err := e.RunIngestion(ctx, false, nil)
	if err != nil {
		t.Fatalf("RunIngestion: %v", err)
	}
	if stats.FilesNew != 2 {
		t.Fatalf("new files = %d, want 2", stats.FilesNew)
	}
	if len(stats.Errors) != 0 {
		t.Fatalf("errors: %v", stats.Errors)
	}

	docs := e.Ingestion.Documents()
	if len(docs) != 2 {
		t.Fatalf("registry size = %d, want 2", len(docs))
	}

	var doc1 *kbtypes.Document
	var doc2ID string
	for i := range docs {
		if len(docs[i].Chunks) == 0 {
			t.Errorf("%s has no chunks", docs[i].RelativePath)
		}
		switch docs[i].RelativePath {
		case "doc1.md":
			doc1 = &docs[i]
		case "doc2.md":
			doc2ID = docs[i].DocID
		}
	}
	if doc1 == nil || doc2ID == "" {
		t.Fatal("expected doc1.md and doc2.md in the registry")
	}

	var linked bool
	for _, rel := range doc1.Relationships {
		if rel.TargetDocID == doc2ID &&
			(rel.Kind == kbtypes.RelWikilink || rel.Kind == kbtypes.RelWikilinkHeader) {
			linked = true
			if rel.ManualLinkScore != 1.0 {
				t.Errorf("wikilink manual score = %v, want 1.0", rel.ManualLinkScore)
			}
			if rel.Strength != 1.0 {
				t.Errorf("wikilink strength = %v, want 1.0", rel.Strength)
			}
		}
	}
	if !linked {
		t.Errorf("expected a wikilink relationship doc1 -> doc2, got %+v", doc1.Relationships)
	}

	qc, err := e.Retrieval.Process(ctx, "所有權", "")
	if err != nil {
		t.Fatalf("retrieval: %v", err)
	}
	if !qc.HasResults {
		t.Fatal("expected retrieval results from the indexed vault")
	}
	if qc.ContextText == "" || qc.TotalTokens == 0 {
		t.Errorf("context not assembled: %+v", qc)
	}

	res := e.RAG.Query(ctx, "所有權是什麼？", "")
	if !res.HasLocalData {
		t.Fatalf("expected RAG to find local data, got %+v", res)
	}
	if res.Response == "" {
		t.Error("expected a non-empty response")
	}
	if res.TurnCount != 1 {
		t.Errorf("turn count = %d, want 1", res.TurnCount)
	}
}

func TestIncrementalReingest(t *testing.T) {
	vaultDir := t.TempDir()
	writeNote(t, vaultDir, "doc1.md", doc1Content)
	writeNote(t, vaultDir, "doc2.md", doc2Content)

	e := newTestEngine(t, vaultDir)
	ctx := context.Background()

	if _, err := e.RunIngestion(ctx, false, nil); err != nil {
		t.Fatalf("first ingestion: %v", err)
	}

	writeNote(t, vaultDir, "doc1.md", doc1Content+"\n補充一句關於借用的說明。\n")

	stats, err := e.RunIngestion(ctx, false, nil)
	if err != nil {
		t.Fatalf("second ingestion: %v", err)
	}
	if stats.FilesModified != 1 {
		t.Errorf("modified = %d, want 1", stats.FilesModified)
	}
	if stats.FilesUnchanged != 1 {
		t.Errorf("unchanged = %d, want 1", stats.FilesUnchanged)
	}
	if stats.FilesNew != 0 {
		t.Errorf("new = %d, want 0", stats.FilesNew)
	}
	if len(e.Ingestion.Documents()) != 2 {
		t.Errorf("registry size changed: %d", len(e.Ingestion.Documents()))
	}
}

func TestBuildGraphFromRegistry(t *testing.T) {
	vaultDir := t.TempDir()
	writeNote(t, vaultDir, "doc1.md", doc1Content)
	writeNote(t, vaultDir, "doc2.md", doc2Content)

	e := newTestEngine(t, vaultDir)
	if _, err := e.RunIngestion(context.Background(), false, nil); err != nil {
		t.Fatalf("ingestion: %v", err)
	}

	g := e.BuildGraph()
	if g.TotalNodes() != 2 {
		t.Fatalf("graph nodes = %d, want 2", g.TotalNodes())
	}
	// doc1 wikilinks doc2, so the pair is connected regardless of what the
	// hash-derived vectors contribute.
	if g.TotalEdges() != 1 {
		t.Errorf("graph edges = %d, want 1", g.TotalEdges())
	}
	if g.TotalEdges() == 1 && g.Edges[0].WikilinkScore != 1.0 {
		t.Errorf("wikilink score = %v, want 1.0", g.Edges[0].WikilinkScore)
	}
}

func TestClosePersistsVectorIndex(t *testing.T) {
	vaultDir := t.TempDir()
	writeNote(t, vaultDir, "doc1.md", doc1Content)

	e := newTestEngine(t, vaultDir)
	ctx := context.Background()
	if _, err := e.RunIngestion(ctx, false, nil); err != nil {
		t.Fatalf("ingestion: %v", err)
	}
	if err := e.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}

	entries, err := os.ReadDir(e.Config.Storage.VectorDBPath)
	if err != nil {
		t.Fatalf("vector db dir missing after Close: %v", err)
	}
	if len(entries) == 0 {
		t.Error("vector db dir empty after Close")
	}
}
