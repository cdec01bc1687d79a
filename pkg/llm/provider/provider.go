// Package provider defines the reply generators behind the reference chat
// server and the HTTP plumbing they share.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/papercomputeco/chatline/pkg/llm"
)

// Provider generates an assistant reply for a conversation.
type Provider interface {
	// Name returns the canonical provider name (e.g., "echo", "openai", "ollama", "anthropic")
	Name() string

	// Stream generates a reply for req, calling emit with each text delta.
	// It returns once the reply is complete, emit fails, ctx is done or the
	// upstream fails.
	Stream(ctx context.Context, req *llm.ChatRequest, emit llm.EmitFunc) error
}

// Complete runs p to completion and returns the whole reply. The text
// produced before a failure is returned with the error.
func Complete(ctx context.Context, p Provider, req *llm.ChatRequest) (string, error) {
	var b strings.Builder
	err := p.Stream(ctx, req, func(delta string) error {
		b.WriteString(delta)
		return nil
	})
	return b.String(), err
}

// UpstreamError is returned when an upstream answers with a non-2xx status.
type UpstreamError struct {
	Provider string
	Status   int
	Body     string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s upstream returned %d: %s", e.Provider, e.Status, e.Body)
}

// maxErrorBody bounds how much of an upstream error body is kept.
const maxErrorBody = 512

// PostJSON sends body as JSON to url and returns the response when the
// status is 2xx. The caller owns the response body.
func PostJSON(ctx context.Context, client *http.Client, name, url string, headers map[string]string, body any) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encoding %s request: %w", name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("building %s request: %w", name, err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling %s upstream: %w", name, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &UpstreamError{Provider: name, Status: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}

	return resp, nil
}
