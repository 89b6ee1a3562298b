package research

import (
	"context"
	"sync"
)

// MockClient answers from a map keyed by question. Questions listed in
// Errors fail with the mapped error.
type MockClient struct {
	mu       sync.Mutex
	Answers  map[string]string
	Errors   map[string]error
	Fallback string
	Asked    []string
}

func (m *MockClient) Ask(ctx context.Context, question string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Asked = append(m.Asked, question)
	if err, ok := m.Errors[question]; ok {
		return "", err
	}
	if a, ok := m.Answers[question]; ok {
		return a, nil
	}
	return m.Fallback, nil
}
