package api

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/chatline/pkg/storage"
)

const defaultChatTitle = "New chat"

type chatTitleRequest struct {
	Title string `json:"title"`
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

func (s *Server) handleListChats(c *fiber.Ctx) error {
	chats, err := s.store.ListChats(c.Context(), currentUser(c).ID)
	if err != nil {
		s.logger.Error("listing chats failed", "error", err)
		return fiber.ErrInternalServerError
	}
	return c.JSON(chats)
}

func (s *Server) handleCreateChat(c *fiber.Ctx) error {
	var req chatTitleRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return detail(c, fiber.StatusUnprocessableEntity, "invalid request body")
		}
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = defaultChatTitle
	}

	chat, err := s.store.CreateChat(c.Context(), currentUser(c).ID, title)
	if err != nil {
		s.logger.Error("creating chat failed", "error", err)
		return fiber.ErrInternalServerError
	}
	return c.JSON(chat)
}

func (s *Server) handleGetChat(c *fiber.Ctx) error {
	chatID, err := chatIDParam(c)
	if err != nil {
		return err
	}

	chat, err := s.store.GetChat(c.Context(), currentUser(c).ID, chatID)
	if storage.IsNotFound(err) {
		return detail(c, fiber.StatusNotFound, "Not found")
	}
	if err != nil {
		s.logger.Error("getting chat failed", "chat_id", chatID, "error", err)
		return fiber.ErrInternalServerError
	}
	return c.JSON(chat)
}

func (s *Server) handleRenameChat(c *fiber.Ctx) error {
	chatID, err := chatIDParam(c)
	if err != nil {
		return err
	}

	var req chatTitleRequest
	if err := c.BodyParser(&req); err != nil {
		return detail(c, fiber.StatusUnprocessableEntity, "invalid request body")
	}
	if strings.TrimSpace(req.Title) == "" {
		return detail(c, fiber.StatusUnprocessableEntity, "title is required")
	}

	chat, err := s.store.RenameChat(c.Context(), currentUser(c).ID, chatID, strings.TrimSpace(req.Title))
	if storage.IsNotFound(err) {
		return detail(c, fiber.StatusNotFound, "Chat not found or unauthorized")
	}
	if err != nil {
		s.logger.Error("renaming chat failed", "chat_id", chatID, "error", err)
		return fiber.ErrInternalServerError
	}
	return c.JSON(chat)
}

func (s *Server) handleDeleteChat(c *fiber.Ctx) error {
	chatID, err := chatIDParam(c)
	if err != nil {
		return err
	}

	if err := s.store.DeleteChat(c.Context(), currentUser(c).ID, chatID); err != nil {
		s.logger.Error("deleting chat failed", "chat_id", chatID, "error", err)
		return fiber.ErrInternalServerError
	}
	return c.JSON(fiber.Map{"ok": true})
}

func chatIDParam(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return 0, fiber.NewError(fiber.StatusUnprocessableEntity, "chat id must be an integer")
	}
	return id, nil
}
