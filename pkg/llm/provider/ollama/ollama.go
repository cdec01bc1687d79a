package ollama

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/papercomputeco/chatline/pkg/llm"
	"github.com/papercomputeco/chatline/pkg/llm/provider"
)

// maxLine bounds a single NDJSON line.
const maxLine = 1 << 20

type ollamaProvider struct {
	baseURL string
	client  *http.Client
}

// New creates a provider posting to baseURL + "/api/chat".
func New(baseURL string, client *http.Client) *ollamaProvider {
	return &ollamaProvider{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

func (o *ollamaProvider) Name() string {
	return "ollama"
}

func (o *ollamaProvider) Stream(ctx context.Context, req *llm.ChatRequest, emit llm.EmitFunc) error {
	body := ollamaRequest{Model: req.Model, Stream: true}
	if req.MaxTokens > 0 {
		body.Options = &ollamaOptions{NumPredict: req.MaxTokens}
	}
	if req.System != "" {
		body.Messages = append(body.Messages, ollamaMessage{Role: llm.RoleSystem, Content: req.System})
	}
	for _, m := range req.Messages {
		body.Messages = append(body.Messages, ollamaMessage{Role: m.Role, Content: m.Content})
	}

	resp, err := provider.PostJSON(ctx, o.client, o.Name(), o.baseURL+"/api/chat", nil, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLine)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var chunk ollamaChunk
		if err := json.Unmarshal([]byte(line), &chunk); err != nil {
			return fmt.Errorf("decoding ollama chunk: %w", err)
		}
		if chunk.Error != "" {
			return fmt.Errorf("ollama stream error: %s", chunk.Error)
		}
		if chunk.Message.Content != "" {
			if err := emit(chunk.Message.Content); err != nil {
				return err
			}
		}
		if chunk.Done {
			return nil
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading ollama stream: %w", err)
	}
	return errors.New("ollama stream ended before done")
}
