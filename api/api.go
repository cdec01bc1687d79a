package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/papercomputeco/chatline/pkg/llm/provider"
	"github.com/papercomputeco/chatline/pkg/logger"
	"github.com/papercomputeco/chatline/pkg/storage"
)

// Server is the reference chat API server.
type Server struct {
	config    Config
	store     storage.Driver
	responder provider.Provider
	logger    *slog.Logger
	app       *fiber.App
	now       func() time.Time
}

// NewServer creates a new API server.
// The store and responder are injected so the caller owns their lifecycle.
func NewServer(config Config, store storage.Driver, responder provider.Provider, log *slog.Logger) (*Server, error) {
	if store == nil {
		return nil, fmt.Errorf("api server requires a storage driver")
	}
	if responder == nil {
		return nil, fmt.Errorf("api server requires a responder")
	}
	if log == nil {
		log = logger.Nop()
	}

	config.applyDefaults()
	if err := os.MkdirAll(config.UploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating upload dir: %w", err)
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})

	s := &Server{
		config:    config,
		store:     store,
		responder: responder,
		logger:    log,
		app:       app,
		now:       time.Now,
	}

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(cors.New(cors.Config{AllowOrigins: config.AllowOrigins}))
	app.Use(s.logRequest)

	app.Get("/ping", s.handlePing)
	app.Post("/register", s.handleRegister)
	app.Post("/token", s.handleToken)

	auth := s.requireUser
	app.Get("/me", auth, s.handleMe)

	app.Get("/chats", auth, s.handleListChats)
	app.Post("/chats", auth, s.handleCreateChat)
	app.Get("/chats/:id", auth, s.handleGetChat)
	app.Put("/chats/:id", auth, s.handleRenameChat)
	app.Delete("/chats/:id", auth, s.handleDeleteChat)

	app.Get("/chats/:id/messages", auth, s.handleListMessages)
	app.Post("/chats/:id/messages", auth, s.handlePostMessage)
	app.Post("/chats/:id/messages/stream", auth, s.handleStreamMessage)

	app.Get("/chats/:id/files", auth, s.handleListFiles)
	app.Post("/chats/:id/files", auth, s.handleUploadFile)

	return s, nil
}

// Handler exposes the app as a net/http handler.
func (s *Server) Handler() http.Handler {
	return adaptor.FiberApp(s.app)
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		"listen", s.config.ListenAddr,
		"responder", s.responder.Name(),
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func (s *Server) logRequest(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()

	s.logger.Debug("request",
		"method", c.Method(),
		"path", c.Path(),
		"status", c.Response().StatusCode(),
		"duration", time.Since(start),
		"request_id", c.Locals(requestid.ConfigDefault.ContextKey),
	)
	return err
}
