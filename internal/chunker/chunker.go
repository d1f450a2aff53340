// Package chunker splits a note's plain-text projection into token-budgeted
// chunks along sentence boundaries, keeping fenced code blocks intact.
package chunker

import (
	"regexp"
	"strings"
)

// Chunk is one token-budgeted slice of a document.
type Chunk struct {
	Text       string
	StartIndex int
	EndIndex   int
	TokenCount int
}

var (
	sentenceSplitPattern = regexp.MustCompile(`(?:[.!?])\s+|(?:[。！？])|(?:\n\n+)`)
	codeFencePattern     = regexp.MustCompile(`(?s)` + "```" + `.*?` + "```")
)

const codeBlockMarker = "\x00CODE_BLOCK\x00"

// Config tunes chunk construction.
type Config struct {
	ChunkSize          int    // target token count per chunk
	ChunkOverlap       int    // tokens of trailing context carried into the next chunk
	PreserveCodeBlocks bool   // keep fenced code blocks intact rather than splitting them
	TokenizerVocabPath string // optional tokenizer.json; empty uses the chars/3 estimate
}

// DefaultConfig mirrors the defaults used throughout the knowledge-base spec
// (512 tokens per chunk, ~20% overlap).
func DefaultConfig() Config {
	return Config{ChunkSize: 512, ChunkOverlap: 102, PreserveCodeBlocks: true}
}

// Chunker splits text into sentence-bounded, token-budgeted chunks.
type Chunker struct {
	cfg     Config
	counter TokenCounter
}

// New returns a Chunker using cfg. When cfg.TokenizerVocabPath names a
// loadable BPE vocabulary, token counts come from it; otherwise Chunker
// falls back to the chars/3 estimate.
func New(cfg Config) *Chunker {
	return &Chunker{cfg: cfg, counter: LoadTokenCounter(cfg.TokenizerVocabPath)}
}

// CountTokens estimates a text's token count using the conservative
// chars/3 fallback. Package-level helper for callers (e.g. the retrieval
// and RAG context budgets) that need a quick estimate without a Chunker
// instance; Chunker.Chunk itself uses its own configured counter.
func CountTokens(text string) int {
	return charEstimateCounter{}.Count(text)
}

// Chunk splits text into chunks. Empty or whitespace-only text yields no
// chunks.
func (c *Chunker) Chunk(text string) []Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var codeBlocks []string
	working := text
	if c.cfg.PreserveCodeBlocks {
		codeBlocks, working = extractCodeBlocks(text)
	}

	sentences := splitSentences(working)
	if len(sentences) == 0 {
		return nil
	}

	var chunks []Chunk
	var current []string
	currentTokens := 0
	currentStart := 0

	flush := func(end int) {
		chunkText := strings.Join(current, " ")
		chunks = append(chunks, Chunk{
			Text:       chunkText,
			StartIndex: currentStart,
			EndIndex:   end,
			TokenCount: currentTokens,
		})
	}

	for _, sentence := range sentences {
		sentenceTokens := c.counter.Count(sentence)
		if sentence == codeBlockMarker {
			// The marker stands in for a fenced code block of unknown size.
			// Treating it as oversized forces a boundary around it so a
			// reinserted code block can never straddle two chunks.
			sentenceTokens = c.cfg.ChunkSize + 1
		}

		if currentTokens+sentenceTokens > c.cfg.ChunkSize && len(current) > 0 {
			chunkText := strings.Join(current, " ")
			chunkEnd := currentStart + len(chunkText)
			flush(chunkEnd)

			var overlap []string
			overlapTokens := 0
			for j := len(current) - 1; j >= 0; j-- {
				// A code block never carries into the next chunk's overlap:
				// duplicating its marker would make reinsertion consume the
				// wrong block or leave a marker unreplaced.
				if strings.Contains(current[j], codeBlockMarker) {
					break
				}
				st := c.counter.Count(current[j])
				if overlapTokens+st <= c.cfg.ChunkOverlap {
					overlap = append([]string{current[j]}, overlap...)
					overlapTokens += st
				} else {
					break
				}
			}
			current = overlap
			currentTokens = overlapTokens
			currentStart = chunkEnd - len(strings.Join(overlap, " "))
		}

		current = append(current, sentence)
		currentTokens += sentenceTokens
	}

	if len(current) > 0 {
		chunkText := strings.Join(current, " ")
		flush(currentStart + len(chunkText))
	}

	if c.cfg.PreserveCodeBlocks && len(codeBlocks) > 0 {
		reinsertCodeBlocks(chunks, codeBlocks)
	}

	return chunks
}

// extractCodeBlocks pulls fenced code blocks out of text, replacing each
// with a marker so sentence splitting never breaks a code block apart.
func extractCodeBlocks(text string) ([]string, string) {
	blocks := codeFencePattern.FindAllString(text, -1)
	cleaned := codeFencePattern.ReplaceAllString(text, codeBlockMarker)
	return blocks, cleaned
}

// reinsertCodeBlocks restores markers in chunk order, consuming code blocks
// one at a time as markers are encountered.
func reinsertCodeBlocks(chunks []Chunk, blocks []string) {
	next := 0
	for i := range chunks {
		for strings.Contains(chunks[i].Text, codeBlockMarker) && next < len(blocks) {
			chunks[i].Text = strings.Replace(chunks[i].Text, codeBlockMarker, blocks[next], 1)
			next++
		}
	}
}

func splitSentences(text string) []string {
	parts := sentenceSplitPattern.Split(text, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
