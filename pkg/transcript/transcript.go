// Package transcript holds the ordered list of messages rendered for a chat.
//
// Messages are addressed by an opaque Handle rather than by position, so a
// streaming reply keeps updating the message it started with even when other
// messages are appended or removed in the meantime.
package transcript

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// ErrUnknownHandle is returned when a handle does not address any message.
var ErrUnknownHandle = errors.New("unknown message handle")

// Handle identifies a single message in a Transcript.
type Handle string

// Message is a rendered chat message.
type Message struct {
	Handle  Handle
	Role    string
	Content string

	// Streaming is true while a reply is still being assembled into Content.
	Streaming bool
}

// Transcript is safe for concurrent use.
type Transcript struct {
	mu       sync.RWMutex
	messages []Message
}

// New creates a transcript seeded with history. Handles are assigned to
// messages that do not carry one.
func New(history ...Message) *Transcript {
	t := &Transcript{}
	t.Reset(history)
	return t
}

// Reset replaces the whole transcript, e.g. after reloading from the API.
func (t *Transcript) Reset(history []Message) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.messages = make([]Message, 0, len(history))
	for _, m := range history {
		if m.Handle == "" {
			m.Handle = newHandle()
		}
		t.messages = append(t.messages, m)
	}
}

// Append adds a complete message and returns its handle.
func (t *Transcript) Append(role, content string) Handle {
	t.mu.Lock()
	defer t.mu.Unlock()

	h := newHandle()
	t.messages = append(t.messages, Message{Handle: h, Role: role, Content: content})
	return h
}

// Begin adds an empty, streaming message for role and returns the handle
// that subsequent snapshots must target.
func (t *Transcript) Begin(role string) Handle {
	t.mu.Lock()
	defer t.mu.Unlock()

	h := newHandle()
	t.messages = append(t.messages, Message{Handle: h, Role: role, Streaming: true})
	return h
}

// Replace swaps the content of the message addressed by h.
func (t *Transcript) Replace(h Handle, content string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	i, err := t.find(h)
	if err != nil {
		return err
	}
	t.messages[i].Content = content
	return nil
}

// Finish marks the message addressed by h as no longer streaming. The content
// assembled so far is kept as is.
func (t *Transcript) Finish(h Handle) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	i, err := t.find(h)
	if err != nil {
		return err
	}
	t.messages[i].Streaming = false
	return nil
}

// Remove deletes the message addressed by h.
func (t *Transcript) Remove(h Handle) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	i, err := t.find(h)
	if err != nil {
		return err
	}
	t.messages = append(t.messages[:i], t.messages[i+1:]...)
	return nil
}

// Get returns a copy of the message addressed by h.
func (t *Transcript) Get(h Handle) (Message, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	i, err := t.find(h)
	if err != nil {
		return Message{}, false
	}
	return t.messages[i], true
}

// Messages returns a copy of all messages in order.
func (t *Transcript) Messages() []Message {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]Message, len(t.messages))
	copy(out, t.messages)
	return out
}

// Len returns the number of messages.
func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.messages)
}

// find must be called with mu held.
func (t *Transcript) find(h Handle) (int, error) {
	for i := range t.messages {
		if t.messages[i].Handle == h {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %s", ErrUnknownHandle, h)
}

func newHandle() Handle {
	return Handle(uuid.NewString())
}
