package api

import (
	"bufio"
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/chatline/api/worker"
	"github.com/papercomputeco/chatline/pkg/eventstream"
	"github.com/papercomputeco/chatline/pkg/llm"
	"github.com/papercomputeco/chatline/pkg/llm/provider"
	"github.com/papercomputeco/chatline/pkg/sse"
	"github.com/papercomputeco/chatline/pkg/storage"
)

const assistantInstructions = "You are an assistant helping the user answer questions."

type postMessageRequest struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type postMessageResponse struct {
	Assistant string           `json:"assistant"`
	Message   *storage.Message `json:"message"`
}

// contentFrame and errorFrame are the payloads of the stream endpoint.
type contentFrame struct {
	Content string `json:"content"`
}

type errorFrame struct {
	Error string `json:"error"`
}

// handleListMessages returns a chat's messages. A chat the user doesn't own
// yields an empty list.
func (s *Server) handleListMessages(c *fiber.Ctx) error {
	chatID, err := chatIDParam(c)
	if err != nil {
		return err
	}

	if _, err := s.store.GetChat(c.Context(), currentUser(c).ID, chatID); err != nil {
		if storage.IsNotFound(err) {
			return c.JSON([]*storage.Message{})
		}
		s.logger.Error("getting chat failed", "chat_id", chatID, "error", err)
		return fiber.ErrInternalServerError
	}

	msgs, err := s.store.ListMessages(c.Context(), chatID)
	if err != nil {
		s.logger.Error("listing messages failed", "chat_id", chatID, "error", err)
		return fiber.ErrInternalServerError
	}
	return c.JSON(msgs)
}

// handlePostMessage stores a message and, for a non-empty user message,
// answers with the complete assistant reply.
func (s *Server) handlePostMessage(c *fiber.Ctx) error {
	user := currentUser(c)
	chatID, req, err := s.readMessage(c)
	if err != nil {
		return err
	}

	msg, err := s.store.AddMessage(c.Context(), chatID, req.Role, req.Content)
	if err != nil {
		s.logger.Error("storing message failed", "chat_id", chatID, "error", err)
		return fiber.ErrInternalServerError
	}
	s.publish(user.ID, msg, false, false)

	if req.Role != storage.RoleUser || req.Content == "" {
		return c.JSON(msg)
	}

	reply, err := provider.Complete(c.Context(), s.responder, s.buildRequest(c.Context(), user.ID, chatID, req.Content))
	if err != nil {
		s.logger.Error("generating reply failed", "chat_id", chatID, "error", err)
		return detail(c, fiber.StatusBadGateway, err.Error())
	}

	assistant, err := s.store.AddMessage(c.Context(), chatID, storage.RoleAssistant, reply)
	if err != nil {
		s.logger.Error("storing reply failed", "chat_id", chatID, "error", err)
		return fiber.ErrInternalServerError
	}
	s.publish(user.ID, assistant, false, false)

	return c.JSON(postMessageResponse{Assistant: reply, Message: msg})
}

// handleStreamMessage stores the user message and streams the reply as
// "data:" frames ending with the [DONE] sentinel.
func (s *Server) handleStreamMessage(c *fiber.Ctx) error {
	user := currentUser(c)
	chatID, req, err := s.readMessage(c)
	if err != nil {
		return err
	}

	msg, err := s.store.AddMessage(c.Context(), chatID, req.Role, req.Content)
	if err != nil {
		s.logger.Error("storing message failed", "chat_id", chatID, "error", err)
		return fiber.ErrInternalServerError
	}
	s.publish(user.ID, msg, true, false)

	if req.Role != storage.RoleUser || req.Content == "" {
		return c.JSON(errorFrame{Error: "Invalid request"})
	}

	prompt := s.buildRequest(c.Context(), user.ID, chatID, req.Content)

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		s.streamReply(w, user.ID, chatID, prompt)
	})
	return nil
}

// streamReply runs after the handler has returned, so it must not touch the
// request context.
func (s *Server) streamReply(w *bufio.Writer, userID, chatID int64, prompt *llm.ChatRequest) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var reply strings.Builder
	err := s.responder.Stream(ctx, prompt, func(delta string) error {
		if delta == "" {
			return nil
		}
		frame, err := sse.EncodeJSON(contentFrame{Content: delta})
		if err != nil {
			return err
		}
		reply.WriteString(delta)
		if _, err := w.WriteString(frame); err != nil {
			return err
		}
		return w.Flush()
	})

	if err != nil {
		s.logger.Warn("reply stream failed", "chat_id", chatID, "error", err)
		if frame, ferr := sse.EncodeJSON(errorFrame{Error: err.Error()}); ferr == nil {
			_, _ = w.WriteString(frame)
		}
	}
	_, _ = w.WriteString(sse.Encode(sse.Done))
	if ferr := w.Flush(); ferr != nil {
		s.logger.Debug("client went away before [DONE]", "chat_id", chatID, "error", ferr)
	}

	if reply.Len() == 0 {
		return
	}

	msg, serr := s.store.AddMessage(ctx, chatID, storage.RoleAssistant, reply.String())
	if serr != nil {
		s.logger.Error("storing streamed reply failed", "chat_id", chatID, "error", serr)
		return
	}
	s.publish(userID, msg, true, err != nil)
}

// readMessage parses the chat ID and message body and checks the chat
// belongs to the current user.
func (s *Server) readMessage(c *fiber.Ctx) (int64, postMessageRequest, error) {
	var req postMessageRequest

	chatID, err := chatIDParam(c)
	if err != nil {
		return 0, req, err
	}

	if err := c.BodyParser(&req); err != nil {
		return 0, req, fiber.NewError(fiber.StatusUnprocessableEntity, "invalid request body")
	}
	if req.Role == "" {
		req.Role = storage.RoleUser
	}

	if _, err := s.store.GetChat(c.Context(), currentUser(c).ID, chatID); err != nil {
		if storage.IsNotFound(err) {
			return 0, req, fiber.NewError(fiber.StatusNotFound, "Not found")
		}
		s.logger.Error("getting chat failed", "chat_id", chatID, "error", err)
		return 0, req, fiber.ErrInternalServerError
	}

	return chatID, req, nil
}

// buildRequest assembles the prompt: the instructions plus the opening of
// every file uploaded to the chat, then the user's message.
func (s *Server) buildRequest(ctx context.Context, userID, chatID int64, content string) *llm.ChatRequest {
	return &llm.ChatRequest{
		Model:  s.config.Model,
		System: assistantInstructions + "\n\nAttached file context:\n" + s.fileContext(ctx, userID, chatID),
		Messages: []llm.Message{
			llm.NewTextMessage(llm.RoleUser, content),
		},
	}
}

func (s *Server) publish(userID int64, msg *storage.Message, streaming, truncated bool) {
	if s.config.Events == nil {
		return
	}

	s.config.Events.Enqueue(worker.Job{
		Source: eventstream.EventSource{
			Server:    s.config.Name,
			Responder: s.responder.Name(),
			Model:     s.config.Model,
		},
		UserID:    userID,
		Message:   msg,
		Streaming: streaming,
		Truncated: truncated,
	})
}
