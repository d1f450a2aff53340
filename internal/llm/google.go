package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"
)

const geminiModelsURL = "https://generativelanguage.googleapis.com/v1beta/models"

// GoogleProvider answers queries through the Gemini generateContent API.
// It authenticates with either an API key or an OAuth2 token source; the
// latter suits deployments that refuse long-lived keys on disk.
type GoogleProvider struct {
	apiKey      string
	tokenSource oauth2.TokenSource
	model       string
	client      *http.Client
}

// NewGoogleProvider returns a provider for model authenticated by apiKey.
func NewGoogleProvider(apiKey string, model string) *GoogleProvider {
	return &GoogleProvider{apiKey: apiKey, model: model, client: &http.Client{}}
}

// NewGoogleProviderWithTokenSource returns a provider sending OAuth2 Bearer
// tokens instead of a key.
func NewGoogleProviderWithTokenSource(ts oauth2.TokenSource, model string) *GoogleProvider {
	return &GoogleProvider{tokenSource: ts, model: model, client: &http.Client{}}
}

func (p *GoogleProvider) Name() string { return "google" }

// CountTokens uses the shared conservative estimate rather than Gemini's
// separate countTokens endpoint, keeping history budgeting a local call.
func (p *GoogleProvider) CountTokens(text string) int {
	return DefaultCountTokens(text)
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiAPIRequest struct {
	Contents          []geminiContent `json:"contents"`
	SystemInstruction *geminiContent  `json:"systemInstruction,omitempty"`
	GenerationConfig  struct {
		MaxOutputTokens  int     `json:"maxOutputTokens,omitempty"`
		Temperature      float64 `json:"temperature"`
		ResponseMIMEType string  `json:"responseMimeType,omitempty"`
	} `json:"generationConfig"`
}

type geminiAPIResponse struct {
	Candidates []struct {
		Content      *geminiContent `json:"content"`
		FinishReason string         `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata *struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
	} `json:"usageMetadata"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

// geminiRole maps this package's roles onto Gemini's two-party scheme,
// where the assistant side is called "model".
func geminiRole(r Role) string {
	if r == RoleAssistant {
		return "model"
	}
	return "user"
}

func (p *GoogleProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}

	system, turns := splitSystemPrompt(req.Messages)

	apiReq := geminiAPIRequest{Contents: make([]geminiContent, 0, len(turns))}
	for _, m := range turns {
		apiReq.Contents = append(apiReq.Contents, geminiContent{
			Role:  geminiRole(m.Role),
			Parts: []geminiPart{{Text: m.Content}},
		})
	}
	// Gemini rejects an empty contents list outright.
	if len(apiReq.Contents) == 0 {
		apiReq.Contents = append(apiReq.Contents, geminiContent{Role: "user", Parts: []geminiPart{{Text: ""}}})
	}
	if system != "" {
		apiReq.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: system}}}
	}
	apiReq.GenerationConfig.Temperature = req.Temperature
	if req.MaxTokens > 0 {
		apiReq.GenerationConfig.MaxOutputTokens = req.MaxTokens
	}
	if req.JSONMode {
		apiReq.GenerationConfig.ResponseMIMEType = "application/json"
	}

	body, err := json.Marshal(apiReq)
	if err != nil {
		return nil, fmt.Errorf("llm: google: marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/%s:generateContent", geminiModelsURL, model)
	if p.tokenSource == nil {
		url += "?key=" + p.apiKey
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("llm: google: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if p.tokenSource != nil {
		token, err := p.tokenSource.Token()
		if err != nil {
			return nil, fmt.Errorf("llm: google: oauth2 token: %w", err)
		}
		httpReq.Header.Set("Authorization", "Bearer "+token.AccessToken)
	}

	httpResp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("llm: google: complete: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("llm: google: read response: %w", err)
	}

	var apiResp geminiAPIResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, fmt.Errorf("llm: google: decode response: %w", err)
	}
	if apiResp.Error != nil {
		return nil, fmt.Errorf("llm: google: api error (%s): %s", apiResp.Error.Status, apiResp.Error.Message)
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("llm: google: status %d: %s", httpResp.StatusCode, string(respBody))
	}

	resp := &CompletionResponse{Model: model}
	if len(apiResp.Candidates) > 0 {
		cand := apiResp.Candidates[0]
		resp.FinishReason = cand.FinishReason
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				resp.Content += part.Text
			}
		}
	}
	if apiResp.UsageMetadata != nil {
		resp.InputTokens = apiResp.UsageMetadata.PromptTokenCount
		resp.OutputTokens = apiResp.UsageMetadata.CandidatesTokenCount
	}
	return resp, nil
}
