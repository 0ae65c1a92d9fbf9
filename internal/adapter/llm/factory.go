package llm

import (
	"context"
	"fmt"
	"net/http"

	"perpetua/internal/config"
)

// NewProvider builds the provider selected by cfg.Provider.
func NewProvider(ctx context.Context, cfg config.LLMConfig) (Provider, error) {
	switch cfg.Provider {
	case "gemini":
		return NewGeminiProvider(ctx, cfg.APIKey, cfg.Model)
	case "openai":
		return NewOpenAIProvider(cfg.APIKey, cfg.Model)
	case "ollama":
		// Ollama holds the connection for the whole generation, so the HTTP client
		// must outlive the gateway timeout rather than cut it short.
		return NewOllamaProvider(cfg.ServerURL, cfg.Model, &http.Client{Timeout: cfg.Timeout + cfg.Timeout/2})
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.Provider)
	}
}
