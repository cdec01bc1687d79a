package assembler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// readSize is the size of each read from the stream body.
const readSize = 4096

// Consume drives the read loop over body until the sentinel, the end of the
// stream, a read failure or cancellation of ctx, whichever comes first.
// Cancelling ctx closes body, which unblocks a pending read. body is always
// closed before Consume returns.
//
// A nil body (or http.NoBody) is a precondition failure: ErrNoBody is
// returned and nothing is assembled. On read failure or cancellation the
// partial reply is still available in the returned Result.
func (a *Assembler) Consume(ctx context.Context, body io.ReadCloser) (Result, error) {
	if body == nil || body == http.NoBody {
		return a.Result(), ErrNoBody
	}
	defer body.Close()

	stop := context.AfterFunc(ctx, func() {
		_ = body.Close()
	})
	defer stop()

	buf := make([]byte, readSize)
	for {
		n, err := body.Read(buf)
		if n > 0 {
			if ferr := a.Feed(buf[:n]); ferr != nil {
				return a.Result(), ferr
			}
			if a.state.Terminal() {
				return a.Result(), nil
			}
		}

		switch {
		case err == nil:
			continue
		case ctx.Err() != nil:
			a.abort()
			return a.Result(), fmt.Errorf("stream cancelled: %w", ctx.Err())
		case errors.Is(err, io.EOF):
			a.Close()
			return a.Result(), nil
		default:
			a.abort()
			return a.Result(), fmt.Errorf("reading stream: %w", err)
		}
	}
}
