package domain

import "context"

// GenerationOptions tunes a single model call. A nil Temperature keeps the provider default.
type GenerationOptions struct {
	Temperature *float64
}

// WithTemperature returns options with the given sampling temperature.
func WithTemperature(t float64) GenerationOptions {
	return GenerationOptions{Temperature: &t}
}

// TextGenerator is the AI gateway port. Failures wrap ErrProviderFailure or
// ErrMalformedResponse so callers can tell them apart with errors.Is.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string, opts GenerationOptions) (string, error)
	GenerateJSON(ctx context.Context, prompt string, opts GenerationOptions, v any) error
}
