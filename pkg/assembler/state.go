package assembler

import "github.com/papercomputeco/chatline/pkg/transcript"

// State is the lifecycle state of an Assembler.
type State int

const (
	// StateStreaming accepts more input.
	StateStreaming State = iota

	// StateDone means the sentinel payload was received.
	StateDone

	// StateClosed means the stream ended without a sentinel.
	StateClosed

	// StateAborted means the read loop was cancelled or failed.
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateStreaming:
		return "streaming"
	case StateDone:
		return "done"
	case StateClosed:
		return "closed"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Terminal reports whether the state accepts no further input.
func (s State) Terminal() bool {
	return s != StateStreaming
}

// Result is the outcome of assembling one reply.
type Result struct {
	Handle  transcript.Handle
	Content string
	State   State

	// Snapshots is the number of snapshots emitted.
	Snapshots int

	// DecodeErrors counts payloads skipped because they were not JSON objects.
	DecodeErrors int

	// ServerErrors holds error messages the server embedded in the stream.
	ServerErrors []string

	// Truncated is the number of bytes left in the carry-over buffer when the
	// stream ended without a separator. Those bytes are never decoded.
	Truncated int
}
