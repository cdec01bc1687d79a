package api

import (
	"errors"
	"net/mail"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/papercomputeco/chatline/pkg/storage"
)

const (
	userLocalsKey   = "chatline.user"
	tokenTypeBearer = "bearer"
)

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type userResponse struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// handleRegister creates an account.
func (s *Server) handleRegister(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return detail(c, fiber.StatusUnprocessableEntity, "invalid request body")
	}

	req.Email = strings.TrimSpace(req.Email)
	if addr, err := mail.ParseAddress(req.Email); err != nil || addr.Address != req.Email {
		return detail(c, fiber.StatusUnprocessableEntity, "value is not a valid email address")
	}
	if req.Password == "" {
		return detail(c, fiber.StatusUnprocessableEntity, "password is required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.config.BcryptCost)
	if err != nil {
		s.logger.Error("hashing password failed", "error", err)
		return fiber.ErrInternalServerError
	}

	user, err := s.store.CreateUser(c.Context(), req.Email, string(hash), req.Name)
	if errors.Is(err, storage.ErrDuplicateEmail) {
		return detail(c, fiber.StatusBadRequest, "Email already registered")
	}
	if err != nil {
		s.logger.Error("creating user failed", "error", err)
		return fiber.ErrInternalServerError
	}

	s.logger.Info("user registered", "user_id", user.ID)
	return c.JSON(userResponse{ID: user.ID, Email: user.Email})
}

// handleToken exchanges form credentials for a bearer token.
func (s *Server) handleToken(c *fiber.Ctx) error {
	email := c.FormValue("username")
	password := c.FormValue("password")

	user, err := s.store.UserByEmail(c.Context(), email)
	if err != nil && !storage.IsNotFound(err) {
		s.logger.Error("looking up user failed", "error", err)
		return fiber.ErrInternalServerError
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return detail(c, fiber.StatusBadRequest, "Invalid credentials")
	}

	token := uuid.NewString()
	if err := s.store.PutToken(c.Context(), token, user.ID, s.now().Add(s.config.TokenTTL)); err != nil {
		s.logger.Error("storing token failed", "error", err)
		return fiber.ErrInternalServerError
	}

	return c.JSON(tokenResponse{AccessToken: token, TokenType: tokenTypeBearer})
}

func (s *Server) handleMe(c *fiber.Ctx) error {
	user := currentUser(c)
	return c.JSON(userResponse{ID: user.ID, Email: user.Email, Name: user.Name})
}

// requireUser resolves the bearer token to a user or answers 401.
func (s *Server) requireUser(c *fiber.Ctx) error {
	scheme, token, ok := strings.Cut(c.Get(fiber.HeaderAuthorization), " ")
	if !ok || !strings.EqualFold(scheme, tokenTypeBearer) || strings.TrimSpace(token) == "" {
		return unauthorized(c, "Not authenticated")
	}

	t, err := s.store.Token(c.Context(), strings.TrimSpace(token))
	if storage.IsNotFound(err) {
		return unauthorized(c, "Could not validate credentials")
	}
	if err != nil {
		s.logger.Error("looking up token failed", "error", err)
		return fiber.ErrInternalServerError
	}
	if t.Expired(s.now()) {
		return unauthorized(c, "Could not validate credentials")
	}

	user, err := s.store.UserByID(c.Context(), t.UserID)
	if storage.IsNotFound(err) {
		return unauthorized(c, "Could not validate credentials")
	}
	if err != nil {
		s.logger.Error("looking up user failed", "error", err)
		return fiber.ErrInternalServerError
	}

	c.Locals(userLocalsKey, user)
	return c.Next()
}

func unauthorized(c *fiber.Ctx, msg string) error {
	c.Set(fiber.HeaderWWWAuthenticate, "Bearer")
	return detail(c, fiber.StatusUnauthorized, msg)
}

func currentUser(c *fiber.Ctx) *storage.User {
	user, _ := c.Locals(userLocalsKey).(*storage.User)
	return user
}
