package embedding

import (
	"context"
	"sync"
)

// MockEmbedder is a deterministic Embedder for tests.
type MockEmbedder struct {
	Err     error
	Vectors map[string][]float32
	Default []float32
	Inputs  []string
	mu      sync.Mutex
}

// Embed records text and returns the configured vector.
func (m *MockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Inputs = append(m.Inputs, text)
	if m.Err != nil {
		return nil, m.Err
	}
	if v, ok := m.Vectors[text]; ok {
		return v, nil
	}
	if m.Default != nil {
		return m.Default, nil
	}
	return []float32{1, 0, 0}, nil
}

// Calls returns how many times Embed was invoked.
func (m *MockEmbedder) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Inputs)
}

// Dimensions returns the length of Default, or 3.
func (m *MockEmbedder) Dimensions() int {
	if m.Default != nil {
		return len(m.Default)
	}
	return 3
}
