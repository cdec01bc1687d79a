// Package storage defines the persistence contract of the reference chat
// server: users, bearer tokens, chats, messages and uploaded files.
package storage

import (
	"context"
	"time"
)

// Driver defines the interface for persisting and retrieving chat data.
// Every chat-scoped read or write takes the owning user's ID; a chat owned by
// someone else is reported as NotFoundError.
type Driver interface {
	// CreateUser stores a new account. Returns ErrDuplicateEmail when the
	// email is already registered.
	CreateUser(ctx context.Context, email, passwordHash, name string) (*User, error)

	// UserByEmail looks an account up by its login email.
	UserByEmail(ctx context.Context, email string) (*User, error)

	// UserByID looks an account up by its ID.
	UserByID(ctx context.Context, id int64) (*User, error)

	// PutToken stores an opaque bearer token for userID valid until expiresAt.
	PutToken(ctx context.Context, token string, userID int64, expiresAt time.Time) error

	// Token resolves a bearer token. Expiry is left to the caller.
	Token(ctx context.Context, token string) (*Token, error)

	// CreateChat creates a chat owned by userID.
	CreateChat(ctx context.Context, userID int64, title string) (*Chat, error)

	// ListChats returns userID's chats, newest first.
	ListChats(ctx context.Context, userID int64) ([]*Chat, error)

	// GetChat returns one of userID's chats.
	GetChat(ctx context.Context, userID, chatID int64) (*Chat, error)

	// RenameChat changes the title of one of userID's chats.
	RenameChat(ctx context.Context, userID, chatID int64, title string) (*Chat, error)

	// DeleteChat removes a chat with its messages and files. Deleting a chat
	// that does not exist is not an error.
	DeleteChat(ctx context.Context, userID, chatID int64) error

	// AddMessage appends a message to a chat.
	AddMessage(ctx context.Context, chatID int64, role, content string) (*Message, error)

	// ListMessages returns a chat's messages, oldest first.
	ListMessages(ctx context.Context, chatID int64) ([]*Message, error)

	// AddFile records an uploaded file.
	AddFile(ctx context.Context, file *File) (*File, error)

	// ListFiles returns the files userID uploaded to a chat, oldest first.
	ListFiles(ctx context.Context, userID, chatID int64) ([]*File, error)

	// Close closes the store and releases any resources.
	Close() error
}
