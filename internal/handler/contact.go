package handler

import (
	"context"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/openshelf/openshelf/internal/repository"
)

// ContactHandler accepts public contact-form submissions.
type ContactHandler struct {
	Messages *repository.MessageRepo
	Validate *validator.Validate
}

func NewContactHandler(messages *repository.MessageRepo, v *validator.Validate) *ContactHandler {
	return &ContactHandler{Messages: messages, Validate: v}
}

type contactReq struct {
	Name    string `json:"name" form:"name" validate:"required"`
	Email   string `json:"email" form:"email" validate:"required,email"`
	Message string `json:"message" form:"message" validate:"required"`
}

// Submit validates and stores one message.  Database failures are logged
// server-side only; the client gets a generic message, never the raw error.
func (h *ContactHandler) Submit(c echo.Context) error {
	var req contactReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "Name, email, and message are required"})
	}
	if err := h.Validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "message": "Name, email, and message are required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if err := h.Messages.Insert(ctx, req.Name, req.Email, req.Message); err != nil {
		c.Logger().Errorf("contact: insert message: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "message": "Failed to send message"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Message sent successfully!",
		"data":    echo.Map{"name": req.Name, "email": req.Email},
	})
}
