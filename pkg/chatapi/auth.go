package chatapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Register creates an account. It does not log in.
func (c *Client) Register(ctx context.Context, email, password, name string) (*User, error) {
	user := &User{}
	err := c.doJSON(ctx, http.MethodPost, "/register", registerRequest{
		Email:    email,
		Password: password,
		Name:     name,
	}, user)
	if err != nil {
		return nil, fmt.Errorf("registering %s: %w", email, err)
	}
	return user, nil
}

// Login exchanges credentials for a bearer token and stores it, with the
// email and API target, in the session store.
func (c *Client) Login(ctx context.Context, email, password string) error {
	form := url.Values{
		"username": {email},
		"password": {password},
	}

	resp, err := c.do(ctx, http.MethodPost, "/token", strings.NewReader(form.Encode()), http.Header{
		"Content-Type": {"application/x-www-form-urlencoded"},
	})
	if err != nil {
		return fmt.Errorf("logging in: %w", err)
	}
	defer resp.Body.Close()

	var tok tokenResponse
	if err := decode(resp, &tok); err != nil {
		return fmt.Errorf("logging in: %w", err)
	}
	if tok.AccessToken == "" {
		return ErrNoAccessToken
	}

	if c.session == nil {
		return nil
	}
	if err := c.session.SetLogin(c.baseURL, email, tok.AccessToken); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

// Logout forgets the local session. The server is not contacted.
func (c *Client) Logout() error {
	if c.session == nil {
		return nil
	}
	return c.session.Clear()
}

// Me returns the signed-in user.
func (c *Client) Me(ctx context.Context) (*User, error) {
	user := &User{}
	if err := c.doJSON(ctx, http.MethodGet, "/me", nil, user); err != nil {
		return nil, err
	}
	return user, nil
}
