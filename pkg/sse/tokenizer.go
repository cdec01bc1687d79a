package sse

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Tokenizer turns arbitrarily fragmented text into complete blocks.
//
// ┌──────────────┐   ┌───────────────────┐   ┌─────────┐
// │ Feed(chunk)  │──▶│ carry-over buffer │──▶│ []Block │
// └──────────────┘   └───────────────────┘   └─────────┘
//
// Text after the last separator is never emitted as a block; it stays in the
// carry-over buffer until a later chunk completes it.
type Tokenizer struct {
	pending string
}

// NewTokenizer returns an empty Tokenizer.
func NewTokenizer() *Tokenizer {
	return &Tokenizer{}
}

// Feed appends chunk to the carry-over buffer and returns every block that is
// now complete, in arrival order.
func (t *Tokenizer) Feed(chunk string) []Block {
	if chunk == "" {
		return nil
	}

	parts := strings.Split(t.pending+chunk, Separator)
	t.pending = parts[len(parts)-1]

	complete := parts[:len(parts)-1]
	if len(complete) == 0 {
		return nil
	}

	blocks := make([]Block, 0, len(complete))
	for _, part := range complete {
		blocks = append(blocks, Block{Raw: part})
	}
	return blocks
}

// Pending returns the unterminated text held in the carry-over buffer.
func (t *Tokenizer) Pending() string {
	return t.pending
}

// Reset drops the carry-over buffer.
func (t *Tokenizer) Reset() {
	t.pending = ""
}

// Decoder converts a byte stream into text without splitting multi-byte
// UTF-8 sequences that straddle chunk boundaries. An incomplete trailing
// sequence is held back until the next call to Decode.
type Decoder struct {
	held []byte
}

// Decode returns the text decodable from p plus any held-back bytes.
func (d *Decoder) Decode(p []byte) string {
	buf := p
	if len(d.held) > 0 {
		buf = append(d.held, p...)
		d.held = nil
	}

	cut := incompleteTail(buf)
	if cut < len(buf) {
		d.held = append([]byte(nil), buf[cut:]...)
		buf = buf[:cut]
	}

	return string(buf)
}

// Held reports how many bytes are waiting for the rest of their sequence.
func (d *Decoder) Held() int {
	return len(d.held)
}

// incompleteTail returns the index where a trailing, incomplete UTF-8
// sequence begins, or len(p) when p ends on a rune boundary.
func incompleteTail(p []byte) int {
	start := max(len(p)-utf8.UTFMax, 0)
	for i := len(p) - 1; i >= start; i-- {
		if !utf8.RuneStart(p[i]) {
			continue
		}
		if utf8.FullRune(p[i:]) {
			return len(p)
		}
		return i
	}
	return len(p)
}

// Encode frames a payload as a single data block.
func Encode(payload string) string {
	return DataTag + payload + Separator
}

// EncodeJSON marshals v and frames it as a single data block.
func EncodeJSON(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encoding payload: %w", err)
	}
	return Encode(string(raw)), nil
}
