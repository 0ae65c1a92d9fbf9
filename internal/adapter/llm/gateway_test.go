package llm_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"perpetua/internal/adapter/llm"
	"perpetua/internal/domain"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain", input: `{"a":1}`, want: `{"a":1}`},
		{name: "json fence", input: "```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "bare fence", input: "```\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "surrounding whitespace", input: "\n\n  ```json\n{\"a\":1}\n```  \n", want: `{"a":1}`},
		{name: "single line fence", input: "```json{\"a\":1}```", want: `{"a":1}`},
		{name: "think block", input: "<think>let me see</think>\n```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "only trailing fence", input: "{\"a\":1}\n```", want: `{"a":1}`},
		{name: "empty", input: "   ", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, llm.StripCodeFence(tt.input))
		})
	}
}

func TestDecodeJSON_FencedAndPlainAreIdentical(t *testing.T) {
	var fenced, plain map[string]any
	require.NoError(t, llm.DecodeJSON("```json\n{\"a\":1}\n```", &fenced))
	require.NoError(t, llm.DecodeJSON(`{"a":1}`, &plain))
	assert.Equal(t, plain, fenced)
	assert.Equal(t, float64(1), plain["a"])
}

func TestDecodeJSON_Malformed(t *testing.T) {
	var v map[string]any
	err := llm.DecodeJSON("Sure! Here is your exercise.", &v)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrMalformedResponse))
	assert.False(t, errors.Is(err, domain.ErrProviderFailure))

	err = llm.DecodeJSON("```json\n```", &v)
	assert.True(t, errors.Is(err, domain.ErrMalformedResponse))
}

func TestGateway_Generate(t *testing.T) {
	ctx := context.Background()

	t.Run("success passes temperature through", func(t *testing.T) {
		provider := llm.NewMockProvider(llm.MockResponse{Text: "hello"})
		gw := llm.NewGateway(provider, time.Second)

		text, err := gw.Generate(ctx, "prompt", domain.WithTemperature(0.3))
		require.NoError(t, err)
		assert.Equal(t, "hello", text)
		require.Len(t, provider.Options, 1)
		require.NotNil(t, provider.Options[0].Temperature)
		assert.InDelta(t, 0.3, *provider.Options[0].Temperature, 1e-9)
		assert.Equal(t, []string{"prompt"}, provider.Prompts)
	})

	t.Run("provider error is a provider failure", func(t *testing.T) {
		provider := llm.NewMockProvider(llm.MockResponse{Err: errors.New("quota exceeded")})
		gw := llm.NewGateway(provider, time.Second)

		_, err := gw.Generate(ctx, "prompt", domain.GenerationOptions{})
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrProviderFailure))
		assert.Contains(t, err.Error(), "quota exceeded")
	})

	t.Run("timeout is a provider failure", func(t *testing.T) {
		provider := llm.NewMockProvider(llm.MockResponse{Text: "late", Delay: time.Second})
		gw := llm.NewGateway(provider, 20*time.Millisecond)

		_, err := gw.Generate(ctx, "prompt", domain.GenerationOptions{})
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrProviderFailure))
		assert.Contains(t, err.Error(), "timed out")
	})

	t.Run("blank reply is malformed", func(t *testing.T) {
		provider := llm.NewMockProvider(llm.MockResponse{Text: " \n "})
		gw := llm.NewGateway(provider, time.Second)

		_, err := gw.Generate(ctx, "prompt", domain.GenerationOptions{})
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrMalformedResponse))
	})
}

func TestGateway_GenerateJSON(t *testing.T) {
	ctx := context.Background()
	provider := llm.NewMockProvider(
		llm.MockResponse{Text: "```json\n{\"score\": 80, \"feedback\": \"Nice\"}\n```"},
		llm.MockResponse{Text: "{\"score\": "},
	)
	gw := llm.NewGateway(provider, time.Second)

	var out struct {
		Score    int    `json:"score"`
		Feedback string `json:"feedback"`
	}
	require.NoError(t, gw.GenerateJSON(ctx, "p1", domain.GenerationOptions{}, &out))
	assert.Equal(t, 80, out.Score)
	assert.Equal(t, "Nice", out.Feedback)

	err := gw.GenerateJSON(ctx, "p2", domain.GenerationOptions{}, &out)
	assert.True(t, errors.Is(err, domain.ErrMalformedResponse))
	assert.Equal(t, 2, provider.CallCount())
}

func TestNewGeminiProvider_RequiresKey(t *testing.T) {
	_, err := llm.NewGeminiProvider(context.Background(), "", "gemini-2.5-flash")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key is required")
}
