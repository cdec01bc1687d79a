package chatapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

func chatPath(chatID int64) string {
	return fmt.Sprintf("/chats/%d", chatID)
}

// ListChats returns the user's chats, newest first.
func (c *Client) ListChats(ctx context.Context) ([]Chat, error) {
	var chats []Chat
	if err := c.doJSON(ctx, http.MethodGet, "/chats", nil, &chats); err != nil {
		return nil, fmt.Errorf("listing chats: %w", err)
	}
	return chats, nil
}

// CreateChat creates a chat. A blank title becomes DefaultChatTitle.
func (c *Client) CreateChat(ctx context.Context, title string) (*Chat, error) {
	if strings.TrimSpace(title) == "" {
		title = DefaultChatTitle
	}

	chat := &Chat{}
	if err := c.doJSON(ctx, http.MethodPost, "/chats", titleRequest{Title: title}, chat); err != nil {
		return nil, fmt.Errorf("creating chat: %w", err)
	}
	return chat, nil
}

func (c *Client) GetChat(ctx context.Context, chatID int64) (*Chat, error) {
	chat := &Chat{}
	if err := c.doJSON(ctx, http.MethodGet, chatPath(chatID), nil, chat); err != nil {
		return nil, fmt.Errorf("getting chat %d: %w", chatID, err)
	}
	return chat, nil
}

// RenameChat changes a chat's title. A blank title is rejected without
// contacting the server.
func (c *Client) RenameChat(ctx context.Context, chatID int64, title string) (*Chat, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrEmptyTitle
	}

	chat := &Chat{}
	if err := c.doJSON(ctx, http.MethodPut, chatPath(chatID), titleRequest{Title: title}, chat); err != nil {
		return nil, fmt.Errorf("renaming chat %d: %w", chatID, err)
	}
	return chat, nil
}

func (c *Client) DeleteChat(ctx context.Context, chatID int64) error {
	if err := c.doJSON(ctx, http.MethodDelete, chatPath(chatID), nil, nil); err != nil {
		return fmt.Errorf("deleting chat %d: %w", chatID, err)
	}
	return nil
}
