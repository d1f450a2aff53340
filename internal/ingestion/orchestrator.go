package ingestion

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/arjun-iyer/noteforge/internal/chunker"
	"github.com/arjun-iyer/noteforge/internal/embeddings"
	"github.com/arjun-iyer/noteforge/internal/kbtypes"
	"github.com/arjun-iyer/noteforge/internal/notes"
	"github.com/arjun-iyer/noteforge/internal/ocr"
	"github.com/arjun-iyer/noteforge/internal/vault"
	"github.com/arjun-iyer/noteforge/internal/vectordb"
)

// Config tunes orchestrator execution.
type Config struct {
	MaxWorkers int // bounded worker pool size, default 4
}

// DefaultConfig mirrors the defaults used throughout the knowledge-base spec.
func DefaultConfig() Config {
	return Config{MaxWorkers: 4}
}

// RunConfig parameterizes a single Run call over one vault source folder.
type RunConfig struct {
	SourceFolder string
	Patterns     []string // defaults to "*.md" in vault.Scanner when empty
	MaxFileSize  int64
	Force        bool // treat every file as new, skipping change detection
}

// Orchestrator drives C1-C5 per changed file and owns the resulting document
// registry and its relationships.
type Orchestrator struct {
	parser   *notes.Parser
	chunker  *chunker.Chunker
	embedder embeddings.Embedder
	store    vectordb.VectorStore
	ocr      ocr.Recognizer
	cfg      Config
	logger   *slog.Logger

	mu       sync.RWMutex
	registry map[string]*kbtypes.Document // doc_id -> document
}

// New returns an Orchestrator wired to the given ports. logger must not be
// nil; ocr may be nil, in which case images are never recognized.
func New(parser *notes.Parser, chnk *chunker.Chunker, embedder embeddings.Embedder, store vectordb.VectorStore, recognizer ocr.Recognizer, cfg Config, logger *slog.Logger) *Orchestrator {
	if cfg.MaxWorkers < 1 {
		cfg.MaxWorkers = 1
	}
	if recognizer == nil {
		recognizer = ocr.NewNoopRecognizer()
	}
	return &Orchestrator{
		parser:   parser,
		chunker:  chnk,
		embedder: embedder,
		store:    store,
		ocr:      recognizer,
		cfg:      cfg,
		logger:   logger,
		registry: make(map[string]*kbtypes.Document),
	}
}

// Documents returns a snapshot of every document currently in the registry.
func (o *Orchestrator) Documents() []kbtypes.Document {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make([]kbtypes.Document, 0, len(o.registry))
	for _, d := range o.registry {
		out = append(out, *d)
	}
	return out
}

// Get returns a single document by id.
func (o *Orchestrator) Get(docID string) (kbtypes.Document, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	d, ok := o.registry[docID]
	if !ok {
		return kbtypes.Document{}, false
	}
	return *d, true
}

// LoadRegistry seeds the registry, e.g. from a restored snapshot.
func (o *Orchestrator) LoadRegistry(docs []kbtypes.Document) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.registry = make(map[string]*kbtypes.Document, len(docs))
	for i := range docs {
		d := docs[i]
		o.registry[d.DocID] = &d
	}
}

// fileResult is one file task's outcome, collected on a single goroutine.
type fileResult struct {
	doc       kbtypes.Document
	wikilinks []notes.Wikilink
	err       *FileError
}

// Run scans cfg.SourceFolder via scanner, processes new/modified markdown
// files with a bounded worker pool, removes deleted documents from the
// registry and vector store, then builds relationships for the documents
// processed in this run, resolving link targets against the whole registry;
// documents left unchanged keep the relationships they already had.
// Per-file errors are captured in the returned stats and never abort the
// batch.
func (o *Orchestrator) Run(ctx context.Context, scanner *vault.Scanner, cfg RunConfig, onProgress ProgressFunc) (*ProcessingStats, error) {
	start := time.Now()
	stats := &ProcessingStats{}

	scanCfg := vault.ScanConfig{
		SourceFolder: cfg.SourceFolder,
		Patterns:     cfg.Patterns,
		MaxFileSize:  cfg.MaxFileSize,
	}

	var changes []vault.Change
	if cfg.Force {
		records, err := scanner.Scan(scanCfg)
		if err != nil {
			return nil, fmt.Errorf("ingestion: scan %s: %w", cfg.SourceFolder, err)
		}
		for _, r := range records {
			changes = append(changes, vault.Change{FileRecord: r, Type: vault.ChangeNew})
		}
	} else {
		var err error
		changes, err = scanner.DetectChanges(scanCfg)
		if err != nil {
			return nil, fmt.Errorf("ingestion: detect changes in %s: %w", cfg.SourceFolder, err)
		}
	}

	stats.FilesScanned = len(changes)

	var toProcess []vault.Change
	var toDelete []vault.Change
	for _, c := range changes {
		if !strings.HasSuffix(strings.ToLower(c.RelPath), ".md") {
			continue
		}
		switch c.Type {
		case vault.ChangeNew:
			stats.FilesNew++
			toProcess = append(toProcess, c)
		case vault.ChangeModified:
			stats.FilesModified++
			toProcess = append(toProcess, c)
		case vault.ChangeDeleted:
			stats.FilesDeleted++
			toDelete = append(toDelete, c)
		case vault.ChangeUnchanged:
			stats.FilesUnchanged++
		}
	}

	o.mu.Lock()
	for _, c := range toDelete {
		docID := docIDFor(cfg.SourceFolder, c.RelPath)
		delete(o.registry, docID)
		if o.store != nil {
			if err := o.store.DeleteByDocID(ctx, docID); err != nil {
				o.logger.Warn("ingestion: delete vector rows failed", "doc", docID, "error", err)
			}
		}
	}
	o.mu.Unlock()

	results := o.processBatch(ctx, cfg.SourceFolder, toProcess, onProgress)

	pendingLinks := make(map[string][]notes.Wikilink)
	o.mu.Lock()
	for _, r := range results {
		if r.err != nil {
			stats.Errors = append(stats.Errors, *r.err)
			continue
		}
		doc := r.doc
		o.registry[doc.DocID] = &doc
		stats.ChunksCreated += len(doc.Chunks)
		pendingLinks[doc.DocID] = r.wikilinks
	}
	o.mu.Unlock()

	o.mu.Lock()
	o.buildRelationships(ctx, pendingLinks)
	for _, doc := range o.registry {
		stats.RelationshipsBuilt += len(doc.Relationships)
	}
	o.mu.Unlock()

	stats.Duration = time.Since(start)
	return stats, nil
}

// processBatch processes files concurrently through a bounded worker pool,
// grounded on this codebase's semaphore + WaitGroup + mutex-guarded
// collection pattern, with a circuit breaker tripped on provider
// quota-exhaustion errors.
func (o *Orchestrator) processBatch(ctx context.Context, sourceFolder string, changes []vault.Change, onProgress ProgressFunc) []fileResult {
	total := len(changes)
	if total == 0 {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	var quotaExhausted int64

	sem := make(chan struct{}, o.cfg.MaxWorkers)
	var mu sync.Mutex
	var processed int64
	var results []fileResult

	var wg sync.WaitGroup
	for _, change := range changes {
		if atomic.LoadInt64(&quotaExhausted) > 0 {
			mu.Lock()
			results = append(results, fileResult{err: &FileError{Path: change.RelPath, Err: fmt.Errorf("skipped: provider quota exhausted")}})
			count := atomic.AddInt64(&processed, 1)
			if onProgress != nil {
				onProgress(int(count), total, change.RelPath)
			}
			mu.Unlock()
			continue
		}

		select {
		case <-ctx.Done():
			mu.Lock()
			results = append(results, fileResult{err: &FileError{Path: change.RelPath, Err: ctx.Err()}})
			count := atomic.AddInt64(&processed, 1)
			if onProgress != nil {
				onProgress(int(count), total, change.RelPath)
			}
			mu.Unlock()
			continue
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(c vault.Change) {
			defer wg.Done()
			defer func() { <-sem }()

			doc, links, err := o.processFile(ctx, sourceFolder, c)

			mu.Lock()
			if err != nil {
				results = append(results, fileResult{err: &FileError{Path: c.RelPath, Err: err}})
				if isQuotaError(err) {
					atomic.StoreInt64(&quotaExhausted, 1)
					cancel()
				}
			} else {
				results = append(results, fileResult{doc: doc, wikilinks: links})
			}

			count := atomic.AddInt64(&processed, 1)
			if onProgress != nil {
				onProgress(int(count), total, c.RelPath)
			}
			mu.Unlock()
		}(change)
	}

	wg.Wait()
	return results
}

// processFile runs C2 (parse) -> OCR -> C3 (chunk) -> C4 (embed) -> C5
// (upsert) for a single file.
func (o *Orchestrator) processFile(ctx context.Context, sourceFolder string, c vault.Change) (kbtypes.Document, []notes.Wikilink, error) {
	content, err := os.ReadFile(c.Path)
	if err != nil {
		return kbtypes.Document{}, nil, fmt.Errorf("read: %w", err)
	}

	stem := strings.TrimSuffix(filepath.Base(c.RelPath), filepath.Ext(c.RelPath))
	parsed, err := o.parser.Parse(string(content), stem)
	if err != nil {
		return kbtypes.Document{}, nil, fmt.Errorf("parse: %w", err)
	}

	plainText := parsed.PlainText
	for _, img := range parsed.Images {
		imgPath := filepath.Join(filepath.Dir(c.Path), img.Path)
		res, err := o.ocr.Recognize(ctx, imgPath)
		if err != nil {
			o.logger.Debug("ingestion: ocr failed", "image", imgPath, "error", err)
			continue
		}
		if res.Text != "" {
			plainText = plainText + "\n" + res.Text
		}
	}

	rawChunks := o.chunker.Chunk(plainText)

	docID := docIDFor(sourceFolder, c.RelPath)
	chunks := make([]kbtypes.Chunk, len(rawChunks))
	texts := make([]string, len(rawChunks))
	for i, rc := range rawChunks {
		chunks[i] = kbtypes.Chunk{
			ChunkID:    fmt.Sprintf("%s_%d", docID, i),
			DocumentID: docID,
			Index:      i,
			Content:    rc.Text,
			StartLine:  lineAt(plainText, rc.StartIndex),
			EndLine:    lineAt(plainText, rc.EndIndex),
		}
		texts[i] = rc.Text
	}

	if len(texts) > 0 && o.embedder != nil {
		vectors, err := o.embedder.Embed(ctx, texts)
		if err != nil {
			return kbtypes.Document{}, nil, fmt.Errorf("embed: %w", err)
		}
		for i := range chunks {
			if i < len(vectors) {
				chunks[i].Embedding = vectors[i]
			}
		}
	}

	if o.store != nil && len(chunks) > 0 {
		vdocs := make([]vectordb.Document, len(chunks))
		for i, ch := range chunks {
			vdocs[i] = vectordb.Document{
				ID:      ch.ChunkID,
				Content: ch.Content,
				Metadata: vectordb.Metadata{
					DocID:        docID,
					SourceFolder: sourceFolder,
					RelativePath: c.RelPath,
					ChunkIndex:   ch.Index,
					StartLine:    ch.StartLine,
					EndLine:      ch.EndLine,
					Title:        parsed.Title,
					Tags:         strings.Join(parsed.Tags, ","),
				},
			}
		}
		if err := o.store.AddChunks(ctx, vdocs); err != nil {
			return kbtypes.Document{}, nil, fmt.Errorf("upsert: %w", err)
		}
	}

	doc := kbtypes.Document{
		DocID:         docID,
		SourceFolder:  sourceFolder,
		RelativePath:  c.RelPath,
		FilePath:      c.Path,
		RawContent:    parsed.RawContent,
		ParsedContent: parsed.ParsedContent,
		PlainText:     plainText,
		Metadata: kbtypes.Metadata{
			Title:     parsed.Title,
			Tags:      parsed.Tags,
			Aliases:   parsed.Aliases,
			Headings:  parsed.Headings,
			WordCount: len(strings.Fields(plainText)),
		},
		Chunks:      chunks,
		Status:      kbtypes.StatusActive,
		FileSize:    c.Size,
		FileHash:    c.Hash,
		LastIndexed: time.Now().UTC(),
	}

	return doc, parsed.Wikilinks, nil
}

// buildRelationships resolves wikilink targets by filename stem against the
// whole registry and supplements them with top-6 vector-similarity matches
// per document, merging both signals onto a single Relationship per target
// pair and keeping the top 5 by strength. Must be called with o.mu held.
func (o *Orchestrator) buildRelationships(ctx context.Context, pending map[string][]notes.Wikilink) {
	stemIndex := make(map[string][]string)
	for docID, doc := range o.registry {
		stem := strings.ToLower(strings.TrimSuffix(filepath.Base(doc.RelativePath), filepath.Ext(doc.RelativePath)))
		stemIndex[stem] = append(stemIndex[stem], docID)
	}

	for docID, links := range pending {
		doc, ok := o.registry[docID]
		if !ok {
			continue
		}

		rels := make(map[string]*kbtypes.Relationship)

		for _, wl := range links {
			target := strings.ToLower(strings.TrimSpace(wl.Target))
			target = strings.TrimSuffix(target, filepath.Ext(target))
			for _, targetID := range stemIndex[target] {
				if targetID == docID {
					continue
				}
				r := rels[targetID]
				if r == nil {
					r = &kbtypes.Relationship{SourceDocID: docID, TargetDocID: targetID, Kind: wl.Kind}
					rels[targetID] = r
				}
				r.ManualLinkScore = 1.0
			}
		}

		if o.store != nil {
			matches, err := o.store.Search(ctx, doc.PlainText, 7, nil)
			if err != nil {
				o.logger.Debug("ingestion: similarity search failed", "doc", docID, "error", err)
			} else {
				found := 0
				for _, m := range matches {
					targetID := m.Document.Metadata.DocID
					if targetID == "" || targetID == docID {
						continue
					}
					r := rels[targetID]
					if r == nil {
						r = &kbtypes.Relationship{SourceDocID: docID, TargetDocID: targetID, Kind: kbtypes.RelSimilarity}
						rels[targetID] = r
					}
					if float64(m.Similarity) > r.VectorScore {
						r.VectorScore = float64(m.Similarity)
					}
					found++
					if found >= 6 {
						break
					}
				}
			}
		}

		list := make([]kbtypes.Relationship, 0, len(rels))
		for _, r := range rels {
			r.CalculateStrength()
			list = append(list, *r)
		}
		sort.SliceStable(list, func(i, j int) bool { return list[i].Strength > list[j].Strength })
		if len(list) > 5 {
			list = list[:5]
		}
		doc.Relationships = list
	}
}

// docIDFor derives a stable document id from a file's source folder and
// vault-relative path, so re-ingesting the same file always yields the same
// id across runs.
func docIDFor(sourceFolder, relPath string) string {
	sum := sha256.Sum256([]byte(sourceFolder + "|" + relPath))
	return hex.EncodeToString(sum[:])[:16]
}

func lineAt(text string, byteIndex int) int {
	if byteIndex > len(text) {
		byteIndex = len(text)
	}
	if byteIndex < 0 {
		byteIndex = 0
	}
	return 1 + strings.Count(text[:byteIndex], "\n")
}

// isQuotaError reports whether err looks like a provider quota-exhaustion
// failure, matching the same substrings this codebase's pipeline watches
// for when tripping its circuit breaker.
func isQuotaError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "RESOURCE_EXHAUSTED") || strings.Contains(msg, "quota") || strings.Contains(msg, "rate limit")
}
