package chatapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime"
	"net/http"

	"github.com/papercomputeco/chatline/pkg/assembler"
	"github.com/papercomputeco/chatline/pkg/transcript"
)

const roleUser = "user"

// ListMessages returns a chat's messages, oldest first. A chat the user
// cannot see yields an empty list.
func (c *Client) ListMessages(ctx context.Context, chatID int64) ([]Message, error) {
	var msgs []Message
	if err := c.doJSON(ctx, http.MethodGet, chatPath(chatID)+"/messages", nil, &msgs); err != nil {
		return nil, fmt.Errorf("listing messages of chat %d: %w", chatID, err)
	}
	return msgs, nil
}

// PostMessage sends a user message and waits for the whole assistant reply.
func (c *Client) PostMessage(ctx context.Context, chatID int64, content string) (string, error) {
	var out postMessageResponse
	err := c.doJSON(ctx, http.MethodPost, chatPath(chatID)+"/messages", messageRequest{
		Role:    roleUser,
		Content: content,
	}, &out)
	if err != nil {
		return "", fmt.Errorf("posting message to chat %d: %w", chatID, err)
	}
	return out.Assistant, nil
}

// StreamMessage sends a user message and assembles the streamed reply.
// sink receives a full-message snapshot addressed by h after every decoded
// payload. It returns once the stream ends, fails or ctx is cancelled; the
// partial reply is in the Result in every case.
func (c *Client) StreamMessage(ctx context.Context, chatID int64, content string, h transcript.Handle, sink func(assembler.Snapshot)) (assembler.Result, error) {
	a := assembler.New(h,
		assembler.WithSnapshotFunc(sink),
		assembler.WithLogger(c.logger),
		assembler.WithServerErrorFunc(func(msg string) {
			c.logger.Warn("server reported a stream error", "chat_id", chatID, "error", msg)
		}),
	)

	payload, err := json.Marshal(messageRequest{Role: roleUser, Content: content})
	if err != nil {
		return a.Result(), fmt.Errorf("encoding request: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, chatPath(chatID)+"/messages/stream", bytes.NewReader(payload), http.Header{
		"Content-Type": {"application/json"},
		"Accept":       {"text/event-stream"},
	})
	if err != nil {
		return a.Result(), fmt.Errorf("streaming to chat %d: %w", chatID, err)
	}

	// The server answers a rejected message with a plain JSON object.
	if mt, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type")); mt == "application/json" {
		defer resp.Body.Close()
		var rej streamRejection
		if err := decode(resp, &rej); err != nil {
			return a.Result(), err
		}
		return a.Result(), &APIError{Status: resp.StatusCode, Detail: rej.Error}
	}

	res, err := a.Consume(ctx, resp.Body)
	if err != nil {
		return res, fmt.Errorf("streaming to chat %d: %w", chatID, err)
	}
	if res.Truncated > 0 {
		c.logger.Warn("stream ended inside a block, tail discarded", "chat_id", chatID, "bytes", res.Truncated)
	}
	return res, nil
}

// StreamReply appends the user message to t, begins an assistant message and
// streams the reply into it. notify runs after each snapshot was applied.
// A failed stream leaves the partial reply in t.
func (c *Client) StreamReply(ctx context.Context, t *transcript.Transcript, chatID int64, content string, notify func(assembler.Snapshot)) (assembler.Result, error) {
	t.Append(transcript.RoleUser, content)
	h := t.Begin(transcript.RoleAssistant)
	defer func() { _ = t.Finish(h) }()

	return c.StreamMessage(ctx, chatID, content, h, func(s assembler.Snapshot) {
		if err := t.Replace(s.Handle, s.Content); err != nil {
			c.logger.Warn("applying snapshot failed", "handle", s.Handle, "error", err)
			return
		}
		if notify != nil {
			notify(s)
		}
	})
}

// History converts a chat's stored messages into transcript messages.
func History(msgs []Message) []transcript.Message {
	out := make([]transcript.Message, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, transcript.Message{Role: m.Role, Content: m.Content})
	}
	return out
}

// LoadTranscript fetches a chat's history into a new transcript.
func (c *Client) LoadTranscript(ctx context.Context, chatID int64) (*transcript.Transcript, error) {
	msgs, err := c.ListMessages(ctx, chatID)
	if err != nil {
		return nil, err
	}
	return transcript.New(History(msgs)...), nil
}
