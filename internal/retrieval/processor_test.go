package retrieval

import (
	"context"
	"strings"
	"testing"

	"github.com/arjun-iyer/noteforge/internal/embeddings"
	"github.com/arjun-iyer/noteforge/internal/vectordb"
)

func TestCleanQuery(t *testing.T) {
	cases := map[string]string{
		"  hello   world  \n\n": "hello world",
		"所有權":                   "所有權",
		"a\tb\nc":               "a b c",
	}
	for in, want := range cases {
		if got := CleanQuery(in); got != want {
			t.Errorf("CleanQuery(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestExpandQuery(t *testing.T) {
	if got := ExpandQuery("q", "not a question"); got != "q" {
		t.Errorf("non-question prior turn should be ignored, got %q", got)
	}
	if got := ExpandQuery("q", "is this a question?"); !strings.Contains(got, "q") || !strings.Contains(got, "question?") {
		t.Errorf("question prior turn should be folded in, got %q", got)
	}
}

func newTestStore(t *testing.T) vectordb.VectorStore {
	t.Helper()
	store, err := vectordb.NewChromemStore(embeddings.NewMockEmbedder(32))
	if err != nil {
		t.Fatalf("NewChromemStore: %v", err)
	}
	return store
}

func TestProcessRanksAndFloors(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	docs := []vectordb.Document{
		{ID: "doc1_0", Content: "Rust ownership rules govern memory safety.", Metadata: vectordb.Metadata{DocID: "doc1", RelativePath: "doc1.md", StartLine: 1, EndLine: 2}},
		{ID: "doc2_0", Content: "A completely unrelated note about gardening.", Metadata: vectordb.Metadata{DocID: "doc2", RelativePath: "doc2.md", StartLine: 1, EndLine: 1}},
	}
	if err := store.AddChunks(ctx, docs); err != nil {
		t.Fatalf("AddChunks: %v", err)
	}

	p := New(store, Config{MaxResults: 5, MinScore: 0, MaxContextTokens: 2000})
	qc, err := p.Process(ctx, "Rust ownership rules govern memory safety.", "")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if !qc.HasResults {
		t.Fatalf("expected results")
	}
	for i := 1; i < len(qc.RetrievedChunks); i++ {
		if qc.RetrievedChunks[i-1].Score < qc.RetrievedChunks[i].Score {
			t.Fatalf("results not sorted by descending score: %+v", qc.RetrievedChunks)
		}
	}
	for _, c := range qc.RetrievedChunks {
		if c.Score < p.cfg.MinScore {
			t.Fatalf("chunk below min score surfaced: %+v", c)
		}
	}
}

func TestProcessNoResultsOnEmptyStore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	p := New(store, Config{MaxResults: 5, MinScore: 0.3, MaxContextTokens: 2000})

	qc, err := p.Process(ctx, "anything", "")
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if qc.HasResults {
		t.Fatalf("expected no results against an empty store")
	}
	if qc.ContextText != "" {
		t.Fatalf("expected empty context text, got %q", qc.ContextText)
	}
}

func TestAssembleContextRespectsBudgetButKeepsFirst(t *testing.T) {
	longChunk := RetrievedChunk{DocumentPath: "big.md", Content: strings.Repeat("word ", 2000), Score: 0.9}
	shortChunk := RetrievedChunk{DocumentPath: "small.md", Content: "tiny", Score: 0.5}

	kept, text, tokens := assembleContext([]RetrievedChunk{longChunk, shortChunk}, 50)
	if len(kept) != 1 {
		t.Fatalf("expected only the first oversized chunk to be kept, got %d", len(kept))
	}
	if tokens <= 0 || text == "" {
		t.Fatalf("expected non-empty assembled context")
	}
}

func TestAssembleContextJoinsWithSeparator(t *testing.T) {
	chunks := []RetrievedChunk{
		{DocumentPath: "a.md", Content: "aaa", Score: 0.9},
		{DocumentPath: "b.md", Content: "bbb", Score: 0.8},
	}
	_, text, _ := assembleContext(chunks, 2000)
	if !strings.Contains(text, "\n---\n") {
		t.Fatalf("expected separator between blocks, got %q", text)
	}
	if !strings.Contains(text, "[Source 1]") || !strings.Contains(text, "[Source 2]") {
		t.Fatalf("expected numbered source markers, got %q", text)
	}
}
