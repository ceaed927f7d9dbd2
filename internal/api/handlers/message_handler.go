package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wisetreee/safe-haven/internal/api/middleware"
	"github.com/wisetreee/safe-haven/internal/models"
	"github.com/wisetreee/safe-haven/internal/services"
)

// MessageHandler serves the per-booking chat endpoints. Clients poll List on
// an interval; there is no push channel.
type MessageHandler struct {
	messages services.IMessageService
}

func NewMessageHandler(messages services.IMessageService) *MessageHandler {
	return &MessageHandler{messages: messages}
}

// List returns the booking's thread and marks the opposite role's messages
// as read for the caller.
func (h *MessageHandler) List(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	viewerRole := models.RoleUser
	if user := middleware.CurrentUser(c); user != nil {
		viewerRole = user.Role
	}

	list, err := h.messages.List(c.Request.Context(), id, viewerRole)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

type sendMessageRequest struct {
	Content   string `json:"content" binding:"required"`
	GuestName string `json:"guestName"`
}

// Send appends a message. Identity comes from the session when present, else
// from the supplied guest name.
func (h *MessageHandler) Send(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "content is required"})
		return
	}

	msg, err := h.messages.Send(c.Request.Context(), id, middleware.CurrentUser(c), req.GuestName, req.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}
