package chatapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

var (
	// ErrSessionExpired is returned when the server answers 401. The local
	// session has already been cleared when the caller sees it.
	ErrSessionExpired = errors.New("session expired, please log in again")

	// ErrNoAccessToken is returned by Login when the server's answer carries
	// no token.
	ErrNoAccessToken = errors.New("login response has no access_token")

	// ErrEmptyTitle is returned by RenameChat for a blank title.
	ErrEmptyTitle = errors.New("chat title must not be empty")
)

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 4096

// APIError is a non-2xx answer from the chat API.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("chat api returned %d: %s", e.Status, e.Detail)
}

// StatusCode returns the HTTP status of err when it is an *APIError, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// newAPIError reads a {"detail": ...} body. Validation failures carry a list
// of objects as detail; those are kept as raw JSON.
func newAPIError(resp *http.Response) *APIError {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	apiErr := &APIError{Status: resp.StatusCode}

	var body struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && len(body.Detail) > 0 {
		var s string
		if json.Unmarshal(body.Detail, &s) == nil {
			apiErr.Detail = s
		} else {
			apiErr.Detail = string(body.Detail)
		}
		return apiErr
	}

	apiErr.Detail = strings.TrimSpace(string(raw))
	if apiErr.Detail == "" {
		apiErr.Detail = http.StatusText(resp.StatusCode)
	}
	return apiErr
}
