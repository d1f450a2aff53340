package embeddings

import (
	"fmt"
	"os"
)

// NewEmbedder creates a new Embedder for providerType and model, mirroring
// internal/llm's provider factory: credentials come from the conventional
// environment variable for each provider, dim is only consulted for
// providers whose dimension isn't implied by the model name.
func NewEmbedder(providerType, model string, dim int) (Embedder, error) {
	switch providerType {
	case "openai":
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("OpenAI API key not found: set OPENAI_API_KEY")
		}
		return NewOpenAIEmbedder(apiKey, OpenAIModel(model)), nil

	case "google":
		apiKey := os.Getenv("GOOGLE_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("Google API key not found: set GOOGLE_API_KEY")
		}
		return NewGoogleEmbedder(apiKey, GoogleModel(model)), nil

	case "ollama":
		host := os.Getenv("OLLAMA_HOST")
		if host == "" {
			host = "http://localhost:11434"
		}
		return NewOllamaEmbedder(model, dim, host), nil

	case "mock":
		return NewMockEmbedder(dim), nil

	default:
		return nil, fmt.Errorf("unsupported embedding provider type: %s", providerType)
	}
}
