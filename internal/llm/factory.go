package llm

import (
	"fmt"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// NewProvider creates a new LLM provider for providerType and model.
// Supported provider types: "anthropic", "openai", "google", "ollama", "mock".
// Credentials are read from the conventional environment variable for each
// provider; there is no stored-credential fallback since this engine has no
// CLI auth surface of its own.
func NewProvider(providerType string, model string) (Provider, error) {
	switch providerType {
	case "anthropic":
		apiKey := os.Getenv("ANTHROPIC_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("Anthropic API key not found: set ANTHROPIC_API_KEY")
		}
		return NewAnthropicProvider(apiKey, model), nil

	case "openai":
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("OpenAI API key not found: set OPENAI_API_KEY")
		}
		return NewOpenAIProvider(apiKey, model), nil

	case "google":
		apiKey := os.Getenv("GOOGLE_API_KEY")
		if apiKey != "" {
			return NewGoogleProvider(apiKey, model), nil
		}
		// Fall back to an OAuth2 refresh-token flow, for deployments that
		// prefer not to mint a long-lived API key.
		ts, err := googleTokenSource()
		if err == nil && ts != nil {
			return NewGoogleProviderWithTokenSource(ts, model), nil
		}
		return nil, fmt.Errorf("Google API credentials not found: set GOOGLE_API_KEY or GOOGLE_OAUTH_REFRESH_TOKEN")

	case "ollama":
		host := os.Getenv("OLLAMA_HOST")
		if host == "" {
			host = "http://localhost:11434"
		}
		return NewOllamaProvider(host, model), nil

	case "mock":
		return NewMockProvider(nil, ""), nil

	default:
		return nil, fmt.Errorf("unsupported provider type: %s", providerType)
	}
}

// googleTokenSource builds an OAuth2 token source from a refresh token
// supplied via environment variables, refreshing access tokens as needed.
func googleTokenSource() (oauth2.TokenSource, error) {
	refreshToken := os.Getenv("GOOGLE_OAUTH_REFRESH_TOKEN")
	if refreshToken == "" {
		return nil, fmt.Errorf("no Google OAuth refresh token configured")
	}
	cfg := &oauth2.Config{
		ClientID:     os.Getenv("GOOGLE_OAUTH_CLIENT_ID"),
		ClientSecret: os.Getenv("GOOGLE_OAUTH_CLIENT_SECRET"),
		Endpoint:     google.Endpoint,
		Scopes:       []string{"https://www.googleapis.com/auth/generative-language"},
	}
	token := &oauth2.Token{RefreshToken: refreshToken}
	return cfg.TokenSource(nil, token), nil
}
