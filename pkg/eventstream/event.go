package eventstream

import (
	"time"

	"github.com/google/uuid"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeMessagePersisted is emitted after a chat message is stored.
	EventTypeMessagePersisted = "chatline.message.persisted"
)

// MessagePersistedEvent is a transport-neutral event payload for a stored
// chat message.
type MessagePersistedEvent struct {
	SchemaVersion int         `json:"schema_version"`
	EventType     string      `json:"event_type"`
	EventID       string      `json:"event_id"`
	EmittedAt     time.Time   `json:"emitted_at"`
	Source        EventSource `json:"source"`
	Message       MessageMeta `json:"message"`
}

// EventSource identifies the server and reply generator that produced the event.
type EventSource struct {
	Server    string `json:"server,omitempty"`
	Responder string `json:"responder"`
	Model     string `json:"model,omitempty"`
}

// MessageMeta describes the stored message.
type MessageMeta struct {
	ID        int64     `json:"id"`
	ChatID    int64     `json:"chat_id"`
	UserID    int64     `json:"user_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	Streaming bool      `json:"streaming"`
	// Truncated is true when the reply generator failed part way.
	Truncated bool `json:"truncated,omitempty"`
}

// NewMessagePersistedEvent stamps a new event with a fresh ID.
func NewMessagePersistedEvent(source EventSource, msg MessageMeta) *MessagePersistedEvent {
	return &MessagePersistedEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     EventTypeMessagePersisted,
		EventID:       uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		Source:        source,
		Message:       msg,
	}
}
