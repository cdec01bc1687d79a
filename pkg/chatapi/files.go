package chatapi

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
)

// UploadFile attaches the content of r to a chat as name.
func (c *Client) UploadFile(ctx context.Context, chatID int64, name string, r io.Reader) (*UploadedFile, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		part, err := mw.CreateFormFile("file", filepath.Base(name))
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, r); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(mw.Close())
	}()

	resp, err := c.do(ctx, http.MethodPost, chatPath(chatID)+"/files", pr, http.Header{
		"Content-Type": {mw.FormDataContentType()},
	})
	// Unblocks the writer when the request failed before reading the body.
	_ = pr.Close()
	if err != nil {
		return nil, fmt.Errorf("uploading %s: %w", name, err)
	}
	defer resp.Body.Close()

	var out uploadResponse
	if err := decode(resp, &out); err != nil {
		return nil, fmt.Errorf("uploading %s: %w", name, err)
	}
	return &out.File, nil
}

// ListFiles returns the files attached to a chat.
func (c *Client) ListFiles(ctx context.Context, chatID int64) ([]UploadedFile, error) {
	var files []UploadedFile
	if err := c.doJSON(ctx, http.MethodGet, chatPath(chatID)+"/files", nil, &files); err != nil {
		return nil, fmt.Errorf("listing files of chat %d: %w", chatID, err)
	}
	return files, nil
}
