// Package testutils holds test doubles shared by the server-side packages.
package testutils

import (
	"context"
	"sync"

	"github.com/papercomputeco/chatline/pkg/llm"
)

// MockProvider is a scripted reply generator. It emits Deltas in order and
// then returns Err.
type MockProvider struct {
	Deltas []string
	Err    error

	mu       sync.Mutex
	requests []*llm.ChatRequest
}

// NewMockProvider creates a provider that replies with deltas.
func NewMockProvider(deltas ...string) *MockProvider {
	return &MockProvider{Deltas: deltas}
}

func (m *MockProvider) Name() string {
	return "mock"
}

func (m *MockProvider) Stream(ctx context.Context, req *llm.ChatRequest, emit llm.EmitFunc) error {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	for _, d := range m.Deltas {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := emit(d); err != nil {
			return err
		}
	}
	return m.Err
}

// LastRequest returns the most recent request, or nil.
func (m *MockProvider) LastRequest() *llm.ChatRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		return nil
	}
	return m.requests[len(m.requests)-1]
}
