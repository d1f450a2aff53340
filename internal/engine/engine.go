// Package engine owns the knowledge-base process's lifecycle: it opens the
// vector index and best-effort cache, wires every component (C1-C13) from
// a single Config, and closes those durable resources on shutdown. There
// is no package-level singleton — callers construct an Engine explicitly
// and pass it (or the ports it exposes) down to whatever needs them.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/arjun-iyer/noteforge/internal/cachestore"
	"github.com/arjun-iyer/noteforge/internal/chunker"
	"github.com/arjun-iyer/noteforge/internal/config"
	"github.com/arjun-iyer/noteforge/internal/conversation"
	"github.com/arjun-iyer/noteforge/internal/embeddings"
	"github.com/arjun-iyer/noteforge/internal/graph"
	"github.com/arjun-iyer/noteforge/internal/ingestion"
	"github.com/arjun-iyer/noteforge/internal/kbtypes"
	"github.com/arjun-iyer/noteforge/internal/llm"
	"github.com/arjun-iyer/noteforge/internal/notes"
	"github.com/arjun-iyer/noteforge/internal/ocr"
	"github.com/arjun-iyer/noteforge/internal/rag"
	"github.com/arjun-iyer/noteforge/internal/retrieval"
	"github.com/arjun-iyer/noteforge/internal/snapshot"
	"github.com/arjun-iyer/noteforge/internal/vault"
	"github.com/arjun-iyer/noteforge/internal/vectordb"
)

// Engine wires together every pipeline stage for one knowledge base.
type Engine struct {
	Config *config.Config
	Logger *slog.Logger

	Cache        *cachestore.Store
	Embedder     embeddings.Embedder
	LLM          llm.Provider
	VectorDB     vectordb.VectorStore
	Parser       *notes.Parser
	Chunker      *chunker.Chunker
	Scanner      *vault.Scanner
	Ingestion    *ingestion.Orchestrator
	GraphBuilder *graph.Builder

	Retrieval    *retrieval.Processor
	Conversation *conversation.Store
	RAG          *rag.Orchestrator

	Exporter *snapshot.Exporter
	Importer *snapshot.Importer
	Verifier *snapshot.Verifier
}

// Open constructs every port and orchestrator from cfg and returns a ready
// Engine. The caller must call Close when done to flush the cache and
// vector index to disk.
func Open(cfg *config.Config, logger *slog.Logger) (*Engine, error) {
	if logger == nil {
		logger = slog.Default()
	}

	cache, err := openCache(cfg.Storage.CachePath)
	if err != nil {
		return nil, fmt.Errorf("engine: open cache: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(string(cfg.EmbeddingProvider), cfg.EmbeddingModel, cfg.EmbeddingDim)
	if err != nil {
		cache.Close()
		return nil, fmt.Errorf("engine: construct embedder: %w", err)
	}
	if cache != nil {
		embedder = embeddings.NewCachedEmbedder(embedder, cache)
	}

	llmProvider, err := llm.NewProvider(string(cfg.Provider), cfg.Model)
	if err != nil {
		cache.Close()
		return nil, fmt.Errorf("engine: construct llm provider: %w", err)
	}

	store, err := vectordb.NewChromemStore(embedder)
	if err != nil {
		cache.Close()
		return nil, fmt.Errorf("engine: construct vector store: %w", err)
	}
	if cfg.Storage.VectorDBPath != "" {
		if err := store.Load(context.Background(), cfg.Storage.VectorDBPath); err != nil {
			logger.Debug("engine: vector index load skipped", "path", cfg.Storage.VectorDBPath, "error", err)
		}
	}

	recognizer := ocr.NewNoopRecognizer()

	scanner := vault.NewScanner()
	if cache != nil {
		if rows := cache.LoadScanState(); len(rows) > 0 {
			records := make(map[string]vault.FileRecord, len(rows))
			for _, r := range rows {
				records[r.FilePath] = vault.FileRecord{
					Path:    r.FilePath,
					Size:    r.Size,
					ModTime: r.ModTime,
					Hash:    r.ContentHash,
				}
			}
			scanner.LoadCache(records)
		}
	}

	parser := notes.New()
	chnk := chunker.New(chunker.Config{
		ChunkSize:          cfg.Chunking.ChunkSize,
		ChunkOverlap:       cfg.Chunking.ChunkOverlap,
		PreserveCodeBlocks: cfg.Chunking.PreserveCodeBlocks,
		TokenizerVocabPath: cfg.Chunking.TokenizerVocabPath,
	})

	orchestrator := ingestion.New(parser, chnk, embedder, store, recognizer, ingestion.Config{
		MaxWorkers: cfg.Ingestion.MaxWorkers,
	}, logger)

	graphBuilder := graph.NewBuilder(graph.BuilderConfig{
		MinEdgeWeight:    cfg.Graph.MinEdgeWeight,
		MaxEdgesPerNode:  cfg.Graph.MaxEdgesPerNode,
		KeywordMinLength: cfg.Graph.KeywordMinLength,
	})

	processor := retrieval.New(store, retrieval.Config{
		MaxResults:       cfg.Retrieval.MaxResults,
		MinScore:         cfg.Retrieval.MinScore,
		MaxContextTokens: cfg.Retrieval.MaxContextTokens,
	})

	convStore := conversation.New(cfg.Conversation.PersistDir)

	ragOrchestrator := rag.New(processor, llmProvider, convStore, rag.Config{
		MaxTokens:         cfg.Conversation.MaxTokens,
		HistorySnippetLen: cfg.Conversation.HistoryTokens,
	})

	return &Engine{
		Config:       cfg,
		Logger:       logger,
		Cache:        cache,
		Embedder:     embedder,
		LLM:          llmProvider,
		VectorDB:     store,
		Parser:       parser,
		Chunker:      chnk,
		Scanner:      scanner,
		Ingestion:    orchestrator,
		GraphBuilder: graphBuilder,
		Retrieval:    processor,
		Conversation: convStore,
		RAG:          ragOrchestrator,
		Exporter:     snapshot.NewExporter(store),
		Importer:     snapshot.NewImporter(store),
		Verifier:     snapshot.NewVerifier(),
	}, nil
}

// openCache opens the best-effort SQLite cache, falling back to an
// in-memory store (never failing engine startup) when path is empty.
func openCache(path string) (*cachestore.Store, error) {
	if path == "" {
		return cachestore.OpenMemory()
	}
	return cachestore.Open(path)
}

// RunIngestion drives the ingestion orchestrator once per configured vault
// source folder, aggregating every folder's ProcessingStats into one.
// Scan-state persistence (if the engine's cache is durable) is left for
// Close to flush, so a crash mid-run simply forces a rescan of whatever
// wasn't yet persisted.
func (e *Engine) RunIngestion(ctx context.Context, force bool, onProgress ingestion.ProgressFunc) (*ingestion.ProcessingStats, error) {
	total := &ingestion.ProcessingStats{}
	for _, folder := range e.Config.Vault.SourceFolders {
		stats, err := e.Ingestion.Run(ctx, e.Scanner, ingestion.RunConfig{
			SourceFolder: folder,
			Patterns:     e.Config.Vault.Include,
			MaxFileSize:  e.Config.Vault.MaxFileSizeMB << 20,
			Force:        force,
		}, onProgress)
		if err != nil {
			return total, fmt.Errorf("engine: ingest %s: %w", folder, err)
		}
		total.FilesScanned += stats.FilesScanned
		total.FilesNew += stats.FilesNew
		total.FilesModified += stats.FilesModified
		total.FilesDeleted += stats.FilesDeleted
		total.FilesUnchanged += stats.FilesUnchanged
		total.ChunksCreated += stats.ChunksCreated
		total.RelationshipsBuilt += stats.RelationshipsBuilt
		total.Errors = append(total.Errors, stats.Errors...)
		total.Duration += stats.Duration
	}
	return total, nil
}

// BuildGraph builds the document graph from the engine's current registry
// and every document's mean chunk embedding.
func (e *Engine) BuildGraph() *graph.DocumentGraph {
	docs := e.Ingestion.Documents()
	return e.GraphBuilder.Build(docs, meanEmbeddings(docs))
}

// meanEmbeddings averages each document's chunk embeddings into one
// representative vector, skipping documents with no embedded chunks.
func meanEmbeddings(docs []kbtypes.Document) map[string][]float32 {
	out := make(map[string][]float32, len(docs))
	for _, d := range docs {
		var sum []float32
		n := 0
		for _, c := range d.Chunks {
			if len(c.Embedding) == 0 {
				continue
			}
			if sum == nil {
				sum = make([]float32, len(c.Embedding))
			}
			for i, v := range c.Embedding {
				sum[i] += v
			}
			n++
		}
		if n == 0 {
			continue
		}
		for i := range sum {
			sum[i] /= float32(n)
		}
		out[d.DocID] = sum
	}
	return out
}

// Close flushes the vector index to its configured persistence path and
// closes the cache. Safe to call once at shutdown.
func (e *Engine) Close(ctx context.Context) error {
	var errs []error
	if e.Config.Storage.VectorDBPath != "" {
		if err := os.MkdirAll(e.Config.Storage.VectorDBPath, 0o755); err != nil {
			errs = append(errs, fmt.Errorf("create vector db dir: %w", err))
		} else if err := e.VectorDB.Persist(ctx, e.Config.Storage.VectorDBPath); err != nil {
			errs = append(errs, fmt.Errorf("persist vector db: %w", err))
		}
	}
	if e.Cache != nil {
		snapshot := e.Scanner.Snapshot()
		rows := make([]cachestore.ScanStateRow, 0, len(snapshot))
		for _, r := range snapshot {
			rows = append(rows, cachestore.ScanStateRow{
				FilePath:    r.Path,
				ContentHash: r.Hash,
				ModTime:     r.ModTime,
				Size:        r.Size,
			})
		}
		e.Cache.SaveScanState(rows)
		if err := e.Cache.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close cache: %w", err))
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("engine: close: %v", errs)
}
