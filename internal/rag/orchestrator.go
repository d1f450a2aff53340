// Package rag composes the retrieval processor (C10), an LLM provider port
// and the conversation store (C11) into the retrieval-augmented query
// orchestrator (C12): it resolves a conversation, retrieves context,
// invokes the LLM, shapes the reply with citations and keeps rolling
// statistics. Every step is caught and folded into the returned RAGResult
// rather than propagated — a query always gets an answer, even a "no
// local data" one.
package rag

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/arjun-iyer/noteforge/internal/conversation"
	"github.com/arjun-iyer/noteforge/internal/llm"
	"github.com/arjun-iyer/noteforge/internal/notes"
	"github.com/arjun-iyer/noteforge/internal/retrieval"
)

// Config tunes the orchestrator.
type Config struct {
	SystemPrompt      string
	MaxTokens         int
	Temperature       float64
	HistorySnippetLen int // max chars of the prior user turn folded into retrieval expansion
	NoDataMessage     string
}

// DefaultConfig mirrors the distilled spec's canned-response behavior.
func DefaultConfig() Config {
	return Config{
		SystemPrompt:      "Answer the user's question using only the provided context. Cite sources as [Source N].",
		MaxTokens:         1024,
		Temperature:       0.3,
		HistorySnippetLen: 200,
		NoDataMessage:     "I don't have any local notes that answer this question. You may want to search externally.",
	}
}

// Citation attributes a claim in the response to a specific retrieved
// chunk. PreviewHTML is a rendered preview of the snippet for host UIs
// that display rich citations; it is empty when rendering fails.
type Citation struct {
	SourceID    int
	FilePath    string
	StartLine   int
	EndLine     int
	Snippet     string
	PreviewHTML string
}

// RAGResult is the outcome of a single query, always returned even on
// error — error is a short tag, never a panic or unwound exception.
type RAGResult struct {
	Query                string
	Response             string
	Citations            []Citation
	Confidence           string // "high", "medium", "low", or "" when HasLocalData is false
	ConversationID       string
	TurnCount            int
	ProcessingTime       time.Duration
	HasLocalData         bool
	RetrievedChunksCount int
	LLMTokensUsed        int
	Error                string
}

// Stats is rolling statistics across every query an Orchestrator has
// answered.
type Stats struct {
	TotalQueries      int
	SuccessfulQueries int
	FailedQueries     int
	NoDataQueries     int
	TotalLLMTokens    int
}

// Orchestrator is the C12 RAG orchestrator.
type Orchestrator struct {
	processor    *retrieval.Processor
	llmProvider  llm.Provider
	conversation *conversation.Store
	cfg          Config

	mu    sync.Mutex
	stats Stats
}

// New returns an Orchestrator composing processor, provider and conv.
func New(processor *retrieval.Processor, provider llm.Provider, conv *conversation.Store, cfg Config) *Orchestrator {
	def := DefaultConfig()
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = def.SystemPrompt
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = def.MaxTokens
	}
	if cfg.HistorySnippetLen <= 0 {
		cfg.HistorySnippetLen = def.HistorySnippetLen
	}
	if cfg.NoDataMessage == "" {
		cfg.NoDataMessage = def.NoDataMessage
	}
	return &Orchestrator{processor: processor, llmProvider: provider, conversation: conv, cfg: cfg}
}

// Stats returns a snapshot of the rolling statistics.
func (o *Orchestrator) Stats() Stats {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.stats
}

// Query answers a single user query, threading it through conversationID's
// history (auto-created if empty), retrieving local context, invoking the
// LLM and shaping the reply. It never returns a non-nil error: every
// failure is folded into the returned RAGResult.
func (o *Orchestrator) Query(ctx context.Context, query, conversationID string) RAGResult {
	start := time.Now()
	conv := o.conversation.GetOrCreate(conversationID)

	result := RAGResult{Query: query, ConversationID: conv.SessionID}

	priorTurn := lastUserMessage(conv, o.cfg.HistorySnippetLen)
	qc, err := o.processor.Process(ctx, query, priorTurn)
	if err != nil {
		return o.fail(result, start, fmt.Sprintf("retrieval_error: %v", err))
	}
	result.RetrievedChunksCount = len(qc.RetrievedChunks)

	if !qc.HasResults {
		result.Response = o.cfg.NoDataMessage
		result.HasLocalData = false
		result.ProcessingTime = time.Since(start)
		result.TurnCount = conv.TurnCount

		o.mu.Lock()
		o.stats.TotalQueries++
		o.stats.NoDataQueries++
		o.mu.Unlock()
		return result
	}
	result.HasLocalData = true

	messages := buildLLMMessages(conv, o.cfg.SystemPrompt, o.cfg.MaxTokens, qc.ContextText, query)
	resp, err := o.llmProvider.Complete(ctx, llm.CompletionRequest{
		Messages:    messages,
		MaxTokens:   o.cfg.MaxTokens,
		Temperature: o.cfg.Temperature,
	})
	if err != nil {
		return o.fail(result, start, fmt.Sprintf("llm_error: %v", err))
	}

	shaped, citations, confidence := ShapeResponse(resp.Content, qc)
	result.Response = shaped
	result.Citations = citations
	result.Confidence = confidence
	result.LLMTokensUsed = resp.TotalTokens()

	conv.AddMessage(conversation.Message{Role: conversation.RoleUser, Content: query})
	conv.AddMessage(conversation.Message{Role: conversation.RoleAssistant, Content: shaped})
	if err := o.conversation.Persist(conv.SessionID); err != nil {
		// Persistence is best-effort; the answer is still good.
		result.Error = fmt.Sprintf("persist_warning: %v", err)
	}

	result.TurnCount = conv.TurnCount
	result.ProcessingTime = time.Since(start)

	o.mu.Lock()
	o.stats.TotalQueries++
	o.stats.SuccessfulQueries++
	o.stats.TotalLLMTokens += result.LLMTokensUsed
	o.mu.Unlock()

	return result
}

func (o *Orchestrator) fail(result RAGResult, start time.Time, tag string) RAGResult {
	result.Error = tag
	result.Response = "I couldn't process that request. Please try again."
	result.ProcessingTime = time.Since(start)

	o.mu.Lock()
	o.stats.TotalQueries++
	o.stats.FailedQueries++
	o.mu.Unlock()

	return result
}

// lastUserMessage returns the most recent user message's content, truncated
// to maxLen runes, or "" if there isn't one yet.
func lastUserMessage(conv *conversation.Conversation, maxLen int) string {
	for i := len(conv.Messages) - 1; i >= 0; i-- {
		if conv.Messages[i].Role == conversation.RoleUser {
			content := conv.Messages[i].Content
			r := []rune(content)
			if len(r) > maxLen {
				r = r[:maxLen]
			}
			return string(r)
		}
	}
	return ""
}

// buildLLMMessages assembles the prompt sent to the LLM: a system message,
// the conversation's bounded-token recall, then a final user turn carrying
// the assembled retrieval context alongside the raw query.
func buildLLMMessages(conv *conversation.Conversation, systemPrompt string, maxTokens int, contextText, query string) []llm.Message {
	var messages []llm.Message
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: systemPrompt})

	for _, m := range conv.GetMessages(maxTokens) {
		if m.Role == conversation.RoleSystem {
			continue // the orchestrator's own system prompt takes precedence
		}
		messages = append(messages, llm.Message{Role: llm.Role(m.Role), Content: m.Content})
	}

	messages = append(messages, llm.Message{
		Role:    llm.RoleUser,
		Content: fmt.Sprintf("Context:\n%s\n\nQuestion: %s", contextText, query),
	})
	return messages
}

var citationMarker = regexp.MustCompile(`\[(?:來源|Source)\s*\d+\]|\[\d+\]`)
var blankRuns = regexp.MustCompile(`\n{3,}`)

// ShapeResponse strips inline citation markers from raw LLM text, collapses
// 3+ blank lines to 2, and builds a Citation per retrieved chunk plus a
// confidence tag derived from the mean retrieval score.
func ShapeResponse(raw string, qc retrieval.QueryContext) (string, []Citation, string) {
	cleaned := citationMarker.ReplaceAllString(raw, "")
	cleaned = blankRuns.ReplaceAllString(cleaned, "\n\n")
	cleaned = strings.TrimSpace(cleaned)

	citations := make([]Citation, 0, len(qc.RetrievedChunks))
	var scoreSum float64
	for i, c := range qc.RetrievedChunks {
		snippet := c.Content
		if r := []rune(snippet); len(r) > 200 {
			snippet = string(r[:200]) + "..."
		}
		preview, err := notes.RenderHTML(snippet)
		if err != nil {
			preview = ""
		}
		citations = append(citations, Citation{
			SourceID:    i + 1,
			FilePath:    c.DocumentPath,
			StartLine:   c.StartLine,
			EndLine:     c.EndLine,
			Snippet:     snippet,
			PreviewHTML: preview,
		})
		scoreSum += c.Score
	}

	confidence := ""
	if len(qc.RetrievedChunks) > 0 {
		mean := scoreSum / float64(len(qc.RetrievedChunks))
		switch {
		case mean >= 0.7:
			confidence = "high"
		case mean >= 0.5:
			confidence = "medium"
		default:
			confidence = "low"
		}
	}

	return cleaned, citations, confidence
}
