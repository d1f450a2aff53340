package llm

// Role identifies who a conversation message came from. The values mirror
// internal/conversation's roles so the RAG orchestrator can map a stored
// transcript straight onto a completion request.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of the prompt sent to a provider: the system
// instruction, prior conversation recall, or the context-carrying question.
type Message struct {
	Role    Role
	Content string
}

// CompletionRequest asks a provider to answer over the assembled note
// context. Model overrides the provider's configured model when set;
// JSONMode requests structured output from providers that support it.
type CompletionRequest struct {
	Model       string
	Messages    []Message
	MaxTokens   int
	Temperature float64
	JSONMode    bool
}

// CompletionResponse is a provider's answer plus the token accounting the
// RAG statistics track per query.
type CompletionResponse struct {
	Content      string
	InputTokens  int
	OutputTokens int
	Model        string
	FinishReason string
}

// TotalTokens is the combined prompt and answer token count for one call.
func (r *CompletionResponse) TotalTokens() int {
	return r.InputTokens + r.OutputTokens
}
