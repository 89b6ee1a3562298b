package llm

import (
	"context"
	"sync"
)

// MockClient replays queued responses in order, then falls back to
// Response. Every prompt and option set is recorded.
type MockClient struct {
	mu            sync.Mutex
	Response      string
	ResponseQueue []string
	Err           error
	Prompts       []string
	Calls         []Options
}

func (m *MockClient) Generate(ctx context.Context, prompt string, opts ...Option) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Prompts = append(m.Prompts, prompt)
	m.Calls = append(m.Calls, collect(opts))
	if m.Err != nil {
		return "", m.Err
	}
	if len(m.ResponseQueue) > 0 {
		resp := m.ResponseQueue[0]
		m.ResponseQueue = m.ResponseQueue[1:]
		return resp, nil
	}
	return m.Response, nil
}
