// Package sse provides a minimal, purpose-built tokenizer for the chunked
// "data:" event protocol spoken by the chat API streaming endpoints. It is
// transport independent: bytes go in through Feed and complete blocks come
// out, so the parsing can be exercised without a network stream.
//
// The package also carries the frame encoder used by the reference server
// so both ends of the wire agree on the framing.
//
// The format is a subset of Server-Sent Events:
// https://html.spec.whatwg.org/multipage/server-sent-events.html
package sse

import "strings"

const (
	// Separator delimits blocks in the stream.
	Separator = "\n\n"

	// DataTag prefixes payload lines inside a block.
	DataTag = "data: "

	// Done is the sentinel payload marking the end of meaningful payloads.
	Done = "[DONE]"
)

// Block is a single complete unit of the stream, delimited by a blank line.
type Block struct {
	// Raw is the block text without its trailing separator.
	Raw string
}

// Lines returns the whitespace-trimmed, non-blank lines of the block.
func (b Block) Lines() []string {
	raw := strings.Split(b.Raw, "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		lines = append(lines, trimmed)
	}
	return lines
}

// Payloads returns the payload of every data line in the block, in order.
// Lines without the data tag (comments, "event:" fields, noise) are skipped.
func (b Block) Payloads() []string {
	var payloads []string
	for _, line := range b.Lines() {
		if after, ok := strings.CutPrefix(line, DataTag); ok {
			payloads = append(payloads, after)
		}
	}
	return payloads
}
