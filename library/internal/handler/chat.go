package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/Astemirdum/library-assistant/library/internal/model"
)

// Chat godoc
// @Summary Ask the library assistant
// @Description Borrows a book or answers a question about the library.
// @Tags chat
// @Accept json
// @Produce json
// @Param request body model.ChatRequest true "question"
// @Success 200 {object} model.ChatResponse
// @Failure 400,500 {object} model.MessageResponse
// @Router /api/v1/chat [post]
func (h *Handler) Chat(c echo.Context) error {
	var req model.ChatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if strings.TrimSpace(req.Question) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "please provide a question")
	}

	resp, err := h.chatSvc.Reply(c.Request().Context(), req.Question)
	if err != nil {
		h.log.Error("chat", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, fmt.Sprintf("An error occurred: %s", err))
	}
	return c.JSON(http.StatusOK, resp)
}
