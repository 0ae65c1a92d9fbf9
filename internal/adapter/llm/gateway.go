package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"perpetua/internal/domain"
	"perpetua/internal/logger"
)

const defaultTimeout = 30 * time.Second

// Gateway sends one-shot prompts to a Provider under a hard timeout and turns
// the reply into text or decoded JSON.
type Gateway struct {
	provider Provider
	timeout  time.Duration
}

// NewGateway wraps provider. A non-positive timeout falls back to 30s.
func NewGateway(provider Provider, timeout time.Duration) *Gateway {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Gateway{provider: provider, timeout: timeout}
}

// Generate returns the model's raw reply. Provider errors and timeouts wrap
// domain.ErrProviderFailure; a blank reply wraps domain.ErrMalformedResponse.
func (g *Gateway) Generate(ctx context.Context, prompt string, opts domain.GenerationOptions) (string, error) {
	l := logger.Get()

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	text, err := g.provider.Complete(ctx, prompt, opts)
	elapsed := time.Since(start)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			l.Error("LLM request timed out",
				zap.String("model", g.provider.ModelID()),
				zap.Duration("timeout", g.timeout),
				zap.Error(err))
			return "", fmt.Errorf("%w: timed out after %s: %v", domain.ErrProviderFailure, g.timeout, err)
		}
		l.Error("LLM request failed",
			zap.String("model", g.provider.ModelID()),
			zap.Duration("elapsed", elapsed),
			zap.Error(err))
		return "", fmt.Errorf("%w: %v", domain.ErrProviderFailure, err)
	}

	l.Info("LLM request completed",
		zap.String("model", g.provider.ModelID()),
		zap.Int("prompt_chars", len(prompt)),
		zap.Int("response_chars", len(text)),
		zap.Duration("elapsed", elapsed))
	l.Debug("Raw LLM response received", zap.String("raw_response", text))

	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: empty response", domain.ErrMalformedResponse)
	}
	return text, nil
}

// GenerateJSON calls Generate, strips code fences and decodes the single JSON
// object into v. Decode failures wrap domain.ErrMalformedResponse.
func (g *Gateway) GenerateJSON(ctx context.Context, prompt string, opts domain.GenerationOptions, v any) error {
	text, err := g.Generate(ctx, prompt, opts)
	if err != nil {
		return err
	}
	return DecodeJSON(text, v)
}

// DecodeJSON strips code fences from text and unmarshals the remainder into v.
func DecodeJSON(text string, v any) error {
	cleaned := StripCodeFence(text)
	if cleaned == "" {
		return fmt.Errorf("%w: no content after stripping code fences", domain.ErrMalformedResponse)
	}
	if err := json.Unmarshal([]byte(cleaned), v); err != nil {
		logger.Get().Warn("Failed to decode JSON from LLM response",
			zap.Error(err),
			zap.String("cleaned_response", cleaned))
		return fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}
	return nil
}

// StripCodeFence removes reasoning blocks and a surrounding Markdown code fence
// (with an optional language tag) from a model reply.
func StripCodeFence(text string) string {
	s := strings.TrimSpace(text)

	for {
		start := strings.Index(s, "<think>")
		if start == -1 {
			break
		}
		end := strings.Index(s[start:], "</think>")
		if end == -1 {
			break
		}
		s = strings.TrimSpace(s[:start] + s[start+end+len("</think>"):])
	}

	if strings.HasPrefix(s, "```") {
		if nl := strings.IndexByte(s, '\n'); nl != -1 {
			s = s[nl+1:]
		} else {
			// Single-line fence such as ```{"a":1}```.
			s = strings.TrimLeft(s[3:], "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ")
		}
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

var _ domain.TextGenerator = (*Gateway)(nil)
