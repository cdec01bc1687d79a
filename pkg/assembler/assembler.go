// Package assembler reconstructs an assistant reply from the chunked "data:"
// event stream returned by the chat API.
//
// An Assembler is fed raw bytes, tokenizes them into blocks, decodes each
// payload and appends its content to the reply. After every decoded payload
// it emits a Snapshot holding the full reply so far, so consumers replace
// their rendering wholesale instead of stitching deltas together.
package assembler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/papercomputeco/chatline/pkg/logger"
	"github.com/papercomputeco/chatline/pkg/sse"
	"github.com/papercomputeco/chatline/pkg/transcript"
)

var (
	// ErrNoBody is returned when a response carries no readable stream.
	ErrNoBody = errors.New("response has no readable stream body")

	// ErrTerminated is returned when input is fed after the stream ended.
	ErrTerminated = errors.New("assembler already terminated")

	errNullPayload = errors.New("payload is null, want an object")
)

// Snapshot is the full reply assembled so far.
type Snapshot struct {
	// Handle addresses the transcript message the reply belongs to.
	Handle transcript.Handle

	// Content is the complete reply text, not a delta.
	Content string

	// Seq counts snapshots emitted by the assembler, starting at 1.
	Seq int
}

// DecodeError reports a data payload the assembler could not use. That
// covers text that is not JSON, JSON that is not an object (42, "str",
// null) and an object whose content is not a string ({"content":5}). Such a
// payload adds nothing to the message, not even an empty delta, and emits no
// snapshot. It is recoverable: the stream continues with the next payload.
type DecodeError struct {
	Payload string
	Err     error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding payload %q: %v", e.Payload, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// payload is the JSON shape of a data line. Error is set by the server when
// the upstream model failed mid-reply.
type payload struct {
	Content string `json:"content"`
	Error   string `json:"error,omitempty"`
}

// Assembler is not safe for concurrent use; it is driven by a single
// sequential read loop.
type Assembler struct {
	handle transcript.Handle

	decoder   sse.Decoder
	tokenizer *sse.Tokenizer
	message   strings.Builder

	state        State
	snapshots    int
	decodeErrors int
	serverErrors []string
	truncated    int

	onSnapshot    func(Snapshot)
	onDecodeError func(*DecodeError)
	onServerError func(string)
	logger        *slog.Logger
}

// Option configures an Assembler created with New.
type Option func(*Assembler)

// WithSnapshotFunc registers the consumer of snapshots. It is called
// synchronously, in arrival order, after each decoded payload.
func WithSnapshotFunc(fn func(Snapshot)) Option {
	return func(a *Assembler) {
		a.onSnapshot = fn
	}
}

// WithDecodeErrorFunc registers a hook for recoverable decode errors.
func WithDecodeErrorFunc(fn func(*DecodeError)) Option {
	return func(a *Assembler) {
		a.onDecodeError = fn
	}
}

// WithServerErrorFunc registers a hook for error payloads sent by the server.
func WithServerErrorFunc(fn func(string)) Option {
	return func(a *Assembler) {
		a.onServerError = fn
	}
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Assembler) {
		a.logger = l
	}
}

// New creates an Assembler whose snapshots target the message addressed by h.
func New(h transcript.Handle, opts ...Option) *Assembler {
	a := &Assembler{
		handle:    h,
		tokenizer: sse.NewTokenizer(),
		state:     StateStreaming,
		logger:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Feed processes one chunk of the stream. Complete blocks are decoded
// immediately; a trailing partial block waits for the next chunk. Once the
// sentinel is seen the rest of the input is ignored and the assembler is
// terminal.
func (a *Assembler) Feed(chunk []byte) error {
	if a.state.Terminal() {
		return ErrTerminated
	}

	text := a.decoder.Decode(chunk)
	for _, block := range a.tokenizer.Feed(text) {
		for _, p := range block.Payloads() {
			if p == sse.Done {
				a.finish(StateDone)
				return nil
			}
			a.handlePayload(p)
		}
	}

	return nil
}

// Close marks the natural end of the stream. An unterminated block still in
// the carry-over buffer is discarded, not decoded; its size is reported as
// Result.Truncated.
func (a *Assembler) Close() {
	if a.state.Terminal() {
		return
	}

	a.truncated = len(a.tokenizer.Pending()) + a.decoder.Held()
	if a.truncated > 0 {
		a.logger.Debug("stream ended mid-block, discarding carry-over",
			"handle", a.handle,
			"bytes", a.truncated,
		)
	}
	a.finish(StateClosed)
}

// abort marks the stream as cut short by cancellation or a read failure.
// The content assembled so far is kept.
func (a *Assembler) abort() {
	if a.state.Terminal() {
		return
	}
	a.finish(StateAborted)
}

// State returns the current lifecycle state.
func (a *Assembler) State() State {
	return a.state
}

// Content returns the reply assembled so far.
func (a *Assembler) Content() string {
	return a.message.String()
}

// Result summarizes the assembler's work so far.
func (a *Assembler) Result() Result {
	return Result{
		Handle:       a.handle,
		Content:      a.message.String(),
		State:        a.state,
		Snapshots:    a.snapshots,
		DecodeErrors: a.decodeErrors,
		ServerErrors: append([]string(nil), a.serverErrors...),
		Truncated:    a.truncated,
	}
}

func (a *Assembler) handlePayload(raw string) {
	var p payload
	err := json.Unmarshal([]byte(raw), &p)
	if err == nil && raw == "null" {
		err = errNullPayload
	}
	if err != nil {
		derr := &DecodeError{Payload: raw, Err: err}
		a.decodeErrors++
		a.logger.Warn("skipping malformed payload",
			"handle", a.handle,
			"error", err,
		)
		if a.onDecodeError != nil {
			a.onDecodeError(derr)
		}
		return
	}

	if p.Error != "" {
		a.serverErrors = append(a.serverErrors, p.Error)
		a.logger.Warn("server reported error in stream",
			"handle", a.handle,
			"error", p.Error,
		)
		if a.onServerError != nil {
			a.onServerError(p.Error)
		}
	}

	a.message.WriteString(p.Content)
	a.snapshots++

	if a.onSnapshot != nil {
		a.onSnapshot(Snapshot{
			Handle:  a.handle,
			Content: a.message.String(),
			Seq:     a.snapshots,
		})
	}
}

func (a *Assembler) finish(s State) {
	a.state = s
	a.tokenizer.Reset()
	a.logger.Debug("stream finished",
		"handle", a.handle,
		"state", s.String(),
		"snapshots", a.snapshots,
		"decode_errors", a.decodeErrors,
	)
}
