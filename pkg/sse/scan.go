package sse

import (
	"errors"
	"io"
)

// ErrStop may be returned by a Scan callback to end the scan early without
// reporting an error.
var ErrStop = errors.New("stop scanning")

// Scan reads r until EOF and calls fn for every data payload of every
// complete block. The Done sentinel is passed to fn like any other payload.
// An unterminated trailing block is dropped.
func Scan(r io.Reader, fn func(payload string) error) error {
	var (
		dec Decoder
		tok Tokenizer
		buf = make([]byte, 4096)
	)

	for {
		n, err := r.Read(buf)
		if n > 0 {
			for _, block := range tok.Feed(dec.Decode(buf[:n])) {
				for _, payload := range block.Payloads() {
					if ferr := fn(payload); ferr != nil {
						if errors.Is(ferr, ErrStop) {
							return nil
						}
						return ferr
					}
				}
			}
		}

		switch {
		case err == nil:
		case errors.Is(err, io.EOF):
			return nil
		default:
			return err
		}
	}
}
