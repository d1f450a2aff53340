// Package retrieval implements the query processor (C10): it cleans a raw
// query, embeds it, retrieves candidate chunks from the vector store, ranks
// them by score and assembles a token-bounded context block ready for an
// LLM prompt.
package retrieval

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/arjun-iyer/noteforge/internal/vectordb"
)

// Config tunes the query processor, mirroring internal/config's
// RetrievalConfig defaults (top 5, 0.3 score floor, 2000-token context).
type Config struct {
	MaxResults       int
	MinScore         float64
	MaxContextTokens int
}

// DefaultConfig returns the distilled spec's component-level defaults.
func DefaultConfig() Config {
	return Config{MaxResults: 5, MinScore: 0.3, MaxContextTokens: 2000}
}

// RetrievedChunk is one ranked, scored chunk surfaced by a query.
type RetrievedChunk struct {
	ChunkID      string
	DocumentID   string
	DocumentPath string
	Content      string
	StartLine    int
	EndLine      int
	Score        float64
}

// QueryContext is the bounded, citation-ready context assembled for one
// query, ready to hand to an LLM prompt.
type QueryContext struct {
	Query           string
	RetrievedChunks []RetrievedChunk
	TotalTokens     int
	ContextText     string
	HasResults      bool
}

// Processor is the C10 retrieval/query processor.
type Processor struct {
	store vectordb.VectorStore
	cfg   Config
}

// New returns a Processor backed by store, reading defaults for any zero
// field in cfg.
func New(store vectordb.VectorStore, cfg Config) *Processor {
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = DefaultConfig().MaxResults
	}
	if cfg.MinScore <= 0 {
		cfg.MinScore = DefaultConfig().MinScore
	}
	if cfg.MaxContextTokens <= 0 {
		cfg.MaxContextTokens = DefaultConfig().MaxContextTokens
	}
	return &Processor{store: store, cfg: cfg}
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// CleanQuery collapses runs of whitespace (including newlines) to a single
// space and trims the result.
func CleanQuery(raw string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(raw, " "))
}

// ExpandQuery applies the trivial v1 expansion: the prior turn is folded in
// only when it looks like a question, otherwise it is ignored entirely.
func ExpandQuery(query, priorTurn string) string {
	prior := strings.TrimSpace(priorTurn)
	if prior == "" || !strings.HasSuffix(prior, "?") {
		return query
	}
	return prior + " " + query
}

// estimateTokens is the processor's conservative chars/3 budget estimator.
func estimateTokens(s string) int {
	return len([]rune(s)) / 3
}

// Process cleans, optionally expands, embeds and retrieves for query,
// returning a ranked, token-bounded QueryContext. priorTurn may be empty.
func (p *Processor) Process(ctx context.Context, query, priorTurn string) (QueryContext, error) {
	cleaned := CleanQuery(query)
	expanded := ExpandQuery(cleaned, priorTurn)

	qc := QueryContext{Query: cleaned}

	results, err := p.store.Search(ctx, expanded, p.cfg.MaxResults, nil)
	if err != nil {
		return qc, fmt.Errorf("retrieval: search: %w", err)
	}

	chunks := make([]RetrievedChunk, 0, len(results))
	for _, r := range results {
		score := vectordb.CosineToScore(float64(r.Similarity))
		if score < p.cfg.MinScore {
			continue
		}
		chunks = append(chunks, RetrievedChunk{
			ChunkID:      r.Document.ID,
			DocumentID:   r.Document.Metadata.DocID,
			DocumentPath: r.Document.Metadata.RelativePath,
			Content:      r.Document.Content,
			StartLine:    r.Document.Metadata.StartLine,
			EndLine:      r.Document.Metadata.EndLine,
			Score:        score,
		})
	}

	sort.SliceStable(chunks, func(i, j int) bool { return chunks[i].Score > chunks[j].Score })

	qc.HasResults = len(chunks) > 0
	qc.RetrievedChunks, qc.ContextText, qc.TotalTokens = assembleContext(chunks, p.cfg.MaxContextTokens)
	return qc, nil
}

// assembleContext formats ranked chunks into "[Source i] path (lines a-b)"
// blocks joined by "\n---\n", stopping before the block that would push the
// running estimate over maxTokens. The first block is always kept, even when
// it alone exceeds maxTokens. Chunks dropped for budget reasons are
// excluded from the returned slice so RetrievedChunks always matches what
// ContextText actually cites.
func assembleContext(chunks []RetrievedChunk, maxTokens int) ([]RetrievedChunk, string, int) {
	var (
		kept   []RetrievedChunk
		blocks []string
		total  int
	)

	for i, c := range chunks {
		loc := c.DocumentPath
		if c.EndLine > c.StartLine {
			loc = fmt.Sprintf("%s (lines %d-%d)", loc, c.StartLine, c.EndLine)
		} else if c.StartLine > 0 {
			loc = fmt.Sprintf("%s (line %d)", loc, c.StartLine)
		}
		block := fmt.Sprintf("[Source %d] %s\n%s\n", i+1, loc, c.Content)
		blockTokens := estimateTokens(block)
		if len(kept) > 0 && total+blockTokens > maxTokens {
			break
		}
		kept = append(kept, c)
		blocks = append(blocks, block)
		total += blockTokens
	}

	return kept, strings.Join(blocks, "\n---\n"), total
}
