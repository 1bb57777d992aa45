package llm

import (
	"context"
	"sync"
)

// MockClient returns queued responses and records every request.
type MockClient struct {
	Requests  []Request
	Responses []Response
	Errors    []error
	calls     int
	mu        sync.Mutex
}

// Complete pops the next response or error.
func (m *MockClient) Complete(_ context.Context, req Request) (Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.calls
	m.calls++
	m.Requests = append(m.Requests, req)

	if idx < len(m.Errors) && m.Errors[idx] != nil {
		return Response{}, m.Errors[idx]
	}
	if idx < len(m.Responses) {
		return m.Responses[idx], nil
	}
	if len(m.Responses) > 0 {
		return m.Responses[len(m.Responses)-1], nil
	}
	return Response{Text: "mock response"}, nil
}

// Calls returns the number of Complete invocations.
func (m *MockClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// LastRequest returns the most recent request.
func (m *MockClient) LastRequest() Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Requests) == 0 {
		return Request{}
	}
	return m.Requests[len(m.Requests)-1]
}
