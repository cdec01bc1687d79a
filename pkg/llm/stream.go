package llm

// EmitFunc receives each text delta of a streamed reply in order.
// Returning an error stops generation and is reported by the provider.
type EmitFunc func(delta string) error
