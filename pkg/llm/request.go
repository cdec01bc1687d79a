package llm

// ChatRequest represents a provider-agnostic chat completion request.
type ChatRequest struct {
	// Model name (e.g., "gpt-4o-mini", "llama3.2")
	Model string `json:"model"`

	// System prompt, sent the way each provider expects it.
	System string `json:"system,omitempty"`

	// Conversation messages, oldest first
	Messages []Message `json:"messages"`

	// MaxTokens caps the reply length where the provider requires a cap.
	MaxTokens int `json:"max_tokens,omitempty"`
}

// LastUserText returns the content of the most recent user message.
func (r *ChatRequest) LastUserText() string {
	for i := len(r.Messages) - 1; i >= 0; i-- {
		if r.Messages[i].Role == RoleUser {
			return r.Messages[i].Content
		}
	}
	return ""
}
