package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// detailResponse is the error body every failing endpoint returns.
type detailResponse struct {
	Detail string `json:"detail"`
}

func detail(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(detailResponse{Detail: msg})
}

// errorHandler renders errors escaping a handler in the same shape.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "Internal server error"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		msg = fe.Message
	}

	return detail(c, code, msg)
}
