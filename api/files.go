package api

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/chatline/pkg/storage"
)

const (
	// fileContextRunes is how much of each uploaded file feeds the prompt.
	fileContextRunes = 50

	noFilesContext = "[No files uploaded for this chat]"
)

type uploadResponse struct {
	Message string        `json:"message"`
	File    *storage.File `json:"file"`
}

func (s *Server) handleUploadFile(c *fiber.Ctx) error {
	user := currentUser(c)
	chatID, err := chatIDParam(c)
	if err != nil {
		return err
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return detail(c, fiber.StatusUnprocessableEntity, "file is required")
	}

	if _, err := s.store.GetChat(c.Context(), user.ID, chatID); err != nil {
		if storage.IsNotFound(err) {
			return detail(c, fiber.StatusForbidden, "Unauthorized chat")
		}
		s.logger.Error("getting chat failed", "chat_id", chatID, "error", err)
		return fiber.ErrInternalServerError
	}

	name := filepath.Base(fh.Filename)
	path := filepath.Join(s.config.UploadDir, fmt.Sprintf("%d_%s", chatID, name))
	if err := c.SaveFile(fh, path); err != nil {
		s.logger.Error("saving upload failed", "path", path, "error", err)
		return fiber.ErrInternalServerError
	}

	file, err := s.store.AddFile(c.Context(), &storage.File{
		ChatID:   chatID,
		UserID:   user.ID,
		Filename: name,
		Path:     path,
	})
	if err != nil {
		s.logger.Error("recording upload failed", "chat_id", chatID, "error", err)
		return fiber.ErrInternalServerError
	}

	s.logger.Info("file uploaded", "chat_id", chatID, "file_id", file.ID, "bytes", fh.Size)
	return c.JSON(uploadResponse{Message: "File uploaded successfully", File: file})
}

func (s *Server) handleListFiles(c *fiber.Ctx) error {
	chatID, err := chatIDParam(c)
	if err != nil {
		return err
	}

	files, err := s.store.ListFiles(c.Context(), currentUser(c).ID, chatID)
	if err != nil {
		s.logger.Error("listing files failed", "chat_id", chatID, "error", err)
		return fiber.ErrInternalServerError
	}
	return c.JSON(files)
}

// fileContext renders the prompt section built from a chat's uploads.
func (s *Server) fileContext(ctx context.Context, userID, chatID int64) string {
	files, err := s.store.ListFiles(ctx, userID, chatID)
	if err != nil {
		s.logger.Warn("listing files for prompt failed", "chat_id", chatID, "error", err)
	}
	if len(files) == 0 {
		return noFilesContext
	}

	var b strings.Builder
	for _, f := range files {
		head, err := readHead(f.Path, fileContextRunes)
		if err != nil {
			fmt.Fprintf(&b, "\n\n[Could not read file %s]\n", f.Filename)
			continue
		}
		fmt.Fprintf(&b, "\n\n--- File: %s ---\n%s", f.Filename, head)
	}
	return b.String()
}

// readHead returns up to n runes from the start of the file at path.
// Invalid UTF-8 is dropped.
func readHead(path string, n int) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	buf, err := io.ReadAll(io.LimitReader(f, int64(n*4)))
	if err != nil {
		return "", err
	}

	runes := []rune(strings.ToValidUTF8(string(buf), ""))
	if len(runes) > n {
		runes = runes[:n]
	}
	return string(runes), nil
}
