package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/genai"

	"perpetua/internal/domain"
)

// GeminiProvider implements Provider using the Google Gemini SDK.
type GeminiProvider struct {
	client *genai.Client
	model  string
}

// NewGeminiProvider creates a client bound to one model.
func NewGeminiProvider(ctx context.Context, apiKey, model string) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, errors.New("gemini API key is required")
	}
	if model == "" {
		return nil, errors.New("gemini model name is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create Gemini client: %w", err)
	}

	return &GeminiProvider{client: client, model: model}, nil
}

func (p *GeminiProvider) Complete(ctx context.Context, prompt string, opts domain.GenerationOptions) (string, error) {
	config := &genai.GenerateContentConfig{}
	if opts.Temperature != nil {
		temp := float32(*opts.Temperature)
		config.Temperature = &temp
	}

	result, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(prompt), config)
	if err != nil {
		return "", mapGeminiError(err)
	}
	return result.Text(), nil
}

func (p *GeminiProvider) ModelID() string {
	return p.model
}

func mapGeminiError(err error) error {
	var apiErr *genai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusTooManyRequests:
			return fmt.Errorf("gemini quota exceeded: %w", err)
		case apiErr.Code >= 500:
			return fmt.Errorf("gemini unavailable: %w", err)
		}
	}
	return fmt.Errorf("gemini request failed: %w", err)
}
