// Package echo is a deterministic reply generator for development and tests.
// It answers with the last user message, one word per delta.
package echo

import (
	"context"
	"strings"
	"time"

	"github.com/papercomputeco/chatline/pkg/llm"
)

const prefix = "You said: "

// Provider echoes the last user message.
type Provider struct {
	delay time.Duration
}

// Option configures the echo provider.
type Option func(*Provider)

// WithDelay pauses between deltas so clients see a real stream.
func WithDelay(d time.Duration) Option {
	return func(p *Provider) { p.delay = d }
}

func New(opts ...Option) *Provider {
	p := &Provider{}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Provider) Name() string {
	return "echo"
}

func (p *Provider) Stream(ctx context.Context, req *llm.ChatRequest, emit llm.EmitFunc) error {
	for _, delta := range Deltas(req.LastUserText()) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := emit(delta); err != nil {
			return err
		}
		if p.delay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.delay):
			}
		}
	}
	return nil
}

// Deltas splits the echo of text into the deltas Stream emits. Joining them
// gives the full reply.
func Deltas(text string) []string {
	words := strings.Fields(text)
	deltas := make([]string, 0, len(words)+1)
	deltas = append(deltas, prefix)
	for i, w := range words {
		if i > 0 {
			w = " " + w
		}
		deltas = append(deltas, w)
	}
	return deltas
}
