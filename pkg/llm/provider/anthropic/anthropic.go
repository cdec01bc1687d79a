// Package anthropic streams replies from Anthropic's Messages API.
package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/papercomputeco/chatline/pkg/llm"
	"github.com/papercomputeco/chatline/pkg/llm/provider"
	"github.com/papercomputeco/chatline/pkg/sse"
)

const (
	apiVersion       = "2023-06-01"
	defaultMaxTokens = 4096
)

type anthropicProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// New creates a provider posting to baseURL + "/v1/messages".
func New(baseURL, apiKey string, client *http.Client) *anthropicProvider {
	return &anthropicProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  client,
	}
}

func (a *anthropicProvider) Name() string {
	return "anthropic"
}

func (a *anthropicProvider) Stream(ctx context.Context, req *llm.ChatRequest, emit llm.EmitFunc) error {
	body := anthropicRequest{
		Model:     req.Model,
		System:    req.System,
		MaxTokens: req.MaxTokens,
		Stream:    true,
	}
	if body.MaxTokens == 0 {
		body.MaxTokens = defaultMaxTokens
	}
	// The Messages API has no system role inside messages.
	for _, m := range req.Messages {
		if m.Role == llm.RoleSystem {
			continue
		}
		body.Messages = append(body.Messages, anthropicMessage{Role: m.Role, Content: m.Content})
	}

	headers := map[string]string{
		"anthropic-version": apiVersion,
		"Accept":            "text/event-stream",
	}
	if a.apiKey != "" {
		headers["x-api-key"] = a.apiKey
	}

	resp, err := provider.PostJSON(ctx, a.client, a.Name(), a.baseURL+"/v1/messages", headers, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	stopped := false
	err = sse.Scan(resp.Body, func(payload string) error {
		var ev anthropicEvent
		if err := json.Unmarshal([]byte(payload), &ev); err != nil {
			return fmt.Errorf("decoding anthropic event: %w", err)
		}

		switch ev.Type {
		case "content_block_delta":
			if ev.Delta.Type == "text_delta" && ev.Delta.Text != "" {
				return emit(ev.Delta.Text)
			}
		case "message_stop":
			stopped = true
			return sse.ErrStop
		case "error":
			if ev.Error != nil {
				return fmt.Errorf("anthropic stream error: %s", ev.Error.Message)
			}
			return errors.New("anthropic stream error")
		}
		return nil
	})
	if err != nil {
		return err
	}

	if !stopped {
		return errors.New("anthropic stream ended without message_stop")
	}
	return nil
}
