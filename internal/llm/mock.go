package llm

import "context"

// MockProvider is a deterministic Provider for tests and for running the
// RAG pipeline end to end without network credentials. It cycles through a
// scripted list of responses, one per call, then repeats a default
// response once the script is exhausted.
type MockProvider struct {
	responses []string
	fallback  string
	calls     int
}

// NewMockProvider returns a MockProvider that returns responses in order on
// successive Complete calls, falling back to fallback (or a generic
// placeholder if empty) once the script runs out.
func NewMockProvider(responses []string, fallback string) *MockProvider {
	if fallback == "" {
		fallback = "I don't have a specific answer for that based on the available context."
	}
	return &MockProvider{responses: responses, fallback: fallback}
}

func (p *MockProvider) Name() string { return "mock" }

func (p *MockProvider) CountTokens(text string) int {
	return DefaultCountTokens(text)
}

func (p *MockProvider) Complete(_ context.Context, req CompletionRequest) (*CompletionResponse, error) {
	content := p.fallback
	if p.calls < len(p.responses) {
		content = p.responses[p.calls]
	}
	p.calls++

	model := req.Model
	if model == "" {
		model = "mock"
	}

	var inputTokens int
	for _, m := range req.Messages {
		inputTokens += p.CountTokens(m.Content)
	}

	return &CompletionResponse{
		Content:      content,
		InputTokens:  inputTokens,
		OutputTokens: p.CountTokens(content),
		Model:        model,
		FinishReason: "stop",
	}, nil
}

// CallCount reports how many times Complete has been invoked, useful for
// asserting scripted-response exhaustion in tests.
func (p *MockProvider) CallCount() int { return p.calls }
