package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/roomcast/internal/core"
)

// MessageHandlers provides HTTP handlers for message endpoints.
type MessageHandlers struct {
	handler *core.Handler
	log     *zerolog.Logger
}

// NewMessageHandlers creates a new message handlers instance.
func NewMessageHandlers(handler *core.Handler, logger *zerolog.Logger) *MessageHandlers {
	return &MessageHandlers{
		handler: handler,
		log:     logger,
	}
}

// MarkRead records a read receipt for the authenticated recipient.
// PUT /api/v1/messages/:id/read
func (h *MessageHandlers) MarkRead(c *gin.Context) {
	readerID, ok := c.Get(ContextKeyUserID)
	if !ok {
		h.log.Error().Msg("user_id not found in context")
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}
	uid, ok := readerID.(int64)
	if !ok {
		h.log.Error().Msg("invalid user_id type in context")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	messageID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid message id"})
		return
	}

	msg, err := h.handler.MarkRead(c.Request.Context(), messageID, uid)
	switch {
	case errors.Is(err, core.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "message not found"})
		return
	case errors.Is(err, core.ErrForbidden):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "only the recipient can mark a message as read"})
		return
	case err != nil:
		h.log.Error().Err(err).Int64("message_id", messageID).Msg("failed to mark message read")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	h.log.Debug().Int64("message_id", messageID).Int64("user_id", uid).Msg("message marked read")
	c.JSON(http.StatusOK, messageResponse(msg))
}
