package llm

import (
	"context"
	"errors"
	"sync"
	"time"

	"perpetua/internal/domain"
)

// MockResponse is a canned reply for MockProvider.
type MockResponse struct {
	Text  string
	Err   error
	Delay time.Duration
}

// MockProvider is a deterministic Provider for tests. It returns canned
// responses in FIFO order and records every prompt it receives.
type MockProvider struct {
	mu        sync.Mutex
	responses []MockResponse
	Prompts   []string
	Options   []domain.GenerationOptions
}

func NewMockProvider(responses ...MockResponse) *MockProvider {
	return &MockProvider{responses: responses}
}

func (m *MockProvider) Complete(ctx context.Context, prompt string, opts domain.GenerationOptions) (string, error) {
	m.mu.Lock()
	m.Prompts = append(m.Prompts, prompt)
	m.Options = append(m.Options, opts)
	if len(m.responses) == 0 {
		m.mu.Unlock()
		return "", errors.New("mock provider: no responses queued")
	}
	resp := m.responses[0]
	m.responses = m.responses[1:]
	m.mu.Unlock()

	if resp.Delay > 0 {
		timer := time.NewTimer(resp.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-timer.C:
		}
	}
	if resp.Err != nil {
		return "", resp.Err
	}
	return resp.Text, nil
}

func (m *MockProvider) ModelID() string {
	return "mock"
}

// CallCount returns the number of Complete calls made.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Prompts)
}
