package testutils

import (
	"context"
	"sync"

	"github.com/papercomputeco/chatline/pkg/eventstream"
)

// MockPublisher is a test event publisher that records published events.
type MockPublisher struct {
	mu     sync.Mutex
	events []*eventstream.MessagePersistedEvent

	// Err is returned by every PublishMessage call when set.
	Err error

	// Block, when non-nil, holds every PublishMessage call until it is closed.
	Block chan struct{}

	// Notify, when non-nil, receives each recorded event.
	Notify chan *eventstream.MessagePersistedEvent
}

// NewMockPublisher creates a publisher whose events can be received from
// Notify.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{
		Notify: make(chan *eventstream.MessagePersistedEvent, 64),
	}
}

func (m *MockPublisher) PublishMessage(_ context.Context, e *eventstream.MessagePersistedEvent) error {
	if m.Block != nil {
		<-m.Block
	}

	m.mu.Lock()
	if m.Err != nil {
		m.mu.Unlock()
		return m.Err
	}
	m.events = append(m.events, e)
	m.mu.Unlock()

	if m.Notify != nil {
		m.Notify <- e
	}
	return nil
}

func (m *MockPublisher) Close() error { return nil }

// Published returns a copy of the recorded events.
func (m *MockPublisher) Published() []*eventstream.MessagePersistedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*eventstream.MessagePersistedEvent(nil), m.events...)
}
