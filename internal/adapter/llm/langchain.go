package llm

import (
	"context"
	"net/http"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"perpetua/internal/domain"
)

// LangchainProvider adapts any langchaingo model (Ollama, OpenAI) to Provider.
type LangchainProvider struct {
	model   llms.Model
	modelID string
}

func NewLangchainProvider(model llms.Model, modelID string) *LangchainProvider {
	return &LangchainProvider{model: model, modelID: modelID}
}

// NewOllamaProvider talks to a local Ollama server.
func NewOllamaProvider(serverURL, model string, httpClient *http.Client) (*LangchainProvider, error) {
	opts := []ollama.Option{
		ollama.WithServerURL(serverURL),
		ollama.WithModel(model),
	}
	if httpClient != nil {
		opts = append(opts, ollama.WithHTTPClient(httpClient))
	}
	llm, err := ollama.New(opts...)
	if err != nil {
		return nil, err
	}
	return NewLangchainProvider(llm, model), nil
}

func NewOpenAIProvider(apiKey, model string) (*LangchainProvider, error) {
	llm, err := openai.New(openai.WithToken(apiKey), openai.WithModel(model))
	if err != nil {
		return nil, err
	}
	return NewLangchainProvider(llm, model), nil
}

func (p *LangchainProvider) Complete(ctx context.Context, prompt string, opts domain.GenerationOptions) (string, error) {
	var callOpts []llms.CallOption
	if opts.Temperature != nil {
		callOpts = append(callOpts, llms.WithTemperature(*opts.Temperature))
	}
	return llms.GenerateFromSinglePrompt(ctx, p.model, prompt, callOpts...)
}

func (p *LangchainProvider) ModelID() string {
	return p.modelID
}
