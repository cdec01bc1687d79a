// Package api provides the reference HTTP chat server: accounts, bearer
// tokens, chats, messages, file uploads and the streaming reply endpoint.
package api

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/papercomputeco/chatline/api/worker"
)

const (
	defaultTokenTTL     = 24 * time.Hour
	defaultUploadDir    = "uploads"
	defaultAllowOrigins = "*"
)

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8000")
	ListenAddr string

	// Name identifies this server in published events.
	Name string

	// Model is passed to the reply generator on every request.
	Model string

	// TokenTTL is how long an issued bearer token stays valid.
	TokenTTL time.Duration

	// UploadDir is where uploaded files are written.
	UploadDir string

	// AllowOrigins is the CORS origin list (comma separated).
	AllowOrigins string

	// BcryptCost is the password hashing cost. Defaults to bcrypt.DefaultCost.
	BcryptCost int

	// Events receives one job per persisted message. Optional.
	Events *worker.Pool
}

func (c *Config) applyDefaults() {
	if c.TokenTTL <= 0 {
		c.TokenTTL = defaultTokenTTL
	}
	if c.UploadDir == "" {
		c.UploadDir = defaultUploadDir
	}
	if c.AllowOrigins == "" {
		c.AllowOrigins = defaultAllowOrigins
	}
	if c.BcryptCost == 0 {
		c.BcryptCost = bcrypt.DefaultCost
	}
}
