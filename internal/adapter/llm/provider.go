package llm

import (
	"context"

	"perpetua/internal/domain"
)

// Provider is a single generative model backend. Implementations return the
// model's raw text and leave fence stripping and decoding to the Gateway.
type Provider interface {
	Complete(ctx context.Context, prompt string, opts domain.GenerationOptions) (string, error)
	// ModelID identifies the bound model in logs.
	ModelID() string
}
