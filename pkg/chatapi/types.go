package chatapi

import "time"

// DefaultChatTitle is used by CreateChat when no title is given.
const DefaultChatTitle = "New Chat"

type User struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type Chat struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

type Message struct {
	ID        int64     `json:"id"`
	ChatID    int64     `json:"chat_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// UploadedFile is a file attached to a chat. Path is server side.
type UploadedFile struct {
	ID        int64     `json:"id"`
	ChatID    int64     `json:"chat_id"`
	UserID    int64     `json:"user_id"`
	Filename  string    `json:"filename"`
	Path      string    `json:"path"`
	CreatedAt time.Time `json:"created_at"`
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type titleRequest struct {
	Title string `json:"title"`
}

type messageRequest struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type postMessageResponse struct {
	Assistant string  `json:"assistant"`
	Message   Message `json:"message"`
}

type uploadResponse struct {
	Message string       `json:"message"`
	File    UploadedFile `json:"file"`
}

type streamRejection struct {
	Error string `json:"error"`
}
