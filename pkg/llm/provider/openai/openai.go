// Package openai streams replies from any OpenAI-compatible chat completions
// endpoint (OpenAI, Gemini's OpenAI surface, vLLM, LM Studio).
package openai

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

// openaiProvider implements provider.Provider for OpenAI's Chat Completions API.
type openaiProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// New creates a provider posting to baseURL + "/chat/completions".
func New(baseURL, apiKey string, client *http.Client) *openaiProvider {
	return &openaiProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  client,
	}
}

func (o *openaiProvider) Name() string {
	return "openai"
}

func (o *openaiProvider) Stream(ctx context.Context, req *llm.ChatRequest, emit llm.EmitFunc) error {
	body := openaiRequest{
		Model:     req.Model,
		MaxTokens: req.MaxTokens,
		Stream:    true,
	}
	if req.System != "" {
		body.Messages = append(body.Messages, openaiMessage{Role: llm.RoleSystem, Content: req.System})
	}
	for _, m := range req.Messages {
		body.Messages = append(body.Messages, openaiMessage{Role: m.Role, Content: m.Content})
	}

	headers := map[string]string{"Accept": "text/event-stream"}
	if o.apiKey != "" {
		headers["Authorization"] = "Bearer " + o.apiKey
	}

	resp, err := provider.PostJSON(ctx, o.client, o.Name(), o.baseURL+"/chat/completions", headers, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	done := false
	err = sse.Scan(resp.Body, func(payload string) error {
		if payload == sse.Done {
			done = true
			return sse.ErrStop
		}

		var chunk openaiChunk
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			return fmt.Errorf("decoding openai chunk: %w", err)
		}
		if chunk.Error != nil {
			return fmt.Errorf("openai stream error: %s", chunk.Error.Message)
		}

		for _, choice := range chunk.Choices {
			if choice.Index != 0 || choice.Delta.Content == "" {
				continue
			}
			if err := emit(choice.Delta.Content); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
			return fmt.Errorf("%w: %w", ctxErr, err)
		}
		return err
	}

	if !done {
		return errors.New("openai stream ended without [DONE]")
	}
	return nil
}
