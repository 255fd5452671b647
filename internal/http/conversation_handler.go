package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tailortalk/internal/domain"
	"tailortalk/internal/service"
)

// ConversationHandler expone el widget de agenda sobre HTTP.
type ConversationHandler struct {
	logger        *zap.Logger
	conversations *service.ConversationService
}

func NewConversationHandler(logger *zap.Logger, conversations *service.ConversationService) *ConversationHandler {
	return &ConversationHandler{
		logger:        logger,
		conversations: conversations,
	}
}

// Create maneja POST /conversations.
func (h *ConversationHandler) Create(c *gin.Context) {
	conv, err := h.conversations.Create(c.Request.Context())
	if err != nil {
		h.respondError(c, err, "create conversation failed")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"conversation": conv.Snapshot()})
}

// Get maneja GET /conversations/:id.
func (h *ConversationHandler) Get(c *gin.Context) {
	conv, ok := h.conversation(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversation": conv.Snapshot()})
}

// Delete maneja DELETE /conversations/:id y termina la sesion.
func (h *ConversationHandler) Delete(c *gin.Context) {
	if err := h.conversations.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err, "delete conversation failed")
		return
	}
	c.Status(http.StatusNoContent)
}

// PostMessage maneja POST /conversations/:id/messages. Texto vacio se ignora sin error.
func (h *ConversationHandler) PostMessage(c *gin.Context) {
	var req struct {
		Text string `json:"text"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid post message request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	conv, ok := h.conversation(c)
	if !ok {
		return
	}
	accepted, err := conv.Send(req.Text)
	if err != nil {
		h.respondError(c, err, "send message failed")
		return
	}
	h.respondAction(c, conv, accepted)
}

// UpdateDraft maneja PUT /conversations/:id/draft.
func (h *ConversationHandler) UpdateDraft(c *gin.Context) {
	var req struct {
		Text string `json:"text"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid draft request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	conv, ok := h.conversation(c)
	if !ok {
		return
	}
	if err := conv.SetDraft(req.Text); err != nil {
		h.respondError(c, err, "update draft failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversation": conv.Snapshot()})
}

// ClickSlot maneja POST /conversations/:id/slots. message_id 0 usa el selector mas reciente.
func (h *ConversationHandler) ClickSlot(c *gin.Context) {
	var req struct {
		Time      string `json:"time" binding:"required"`
		MessageID int    `json:"message_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid slot request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	conv, ok := h.conversation(c)
	if !ok {
		return
	}
	accepted, err := conv.ClickSlot(req.MessageID, req.Time)
	if err != nil {
		h.respondError(c, err, "click slot failed")
		return
	}
	h.respondAction(c, conv, accepted)
}

// Accept maneja POST /conversations/:id/confirmation.
func (h *ConversationHandler) Accept(c *gin.Context) {
	conv, ok := h.conversation(c)
	if !ok {
		return
	}
	accepted, err := conv.Accept()
	if err != nil {
		h.respondError(c, err, "accept confirmation failed")
		return
	}
	h.respondAction(c, conv, accepted)
}

// Decline maneja DELETE /conversations/:id/confirmation.
func (h *ConversationHandler) Decline(c *gin.Context) {
	conv, ok := h.conversation(c)
	if !ok {
		return
	}
	declined, err := conv.Decline()
	if err != nil {
		h.respondError(c, err, "decline confirmation failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversation": conv.Snapshot(), "ignored": !declined})
}

// Events maneja GET /conversations/:id/events: un evento "snapshot" por cada mutacion.
func (h *ConversationHandler) Events(c *gin.Context) {
	conv, ok := h.conversation(c)
	if !ok {
		return
	}
	updates, unsubscribe := conv.Subscribe()
	defer unsubscribe()

	header := c.Writer.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	header.Set("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	// El primer snapshot siempre esta en el buffer; se manda antes de esperar al cliente.
	first, open := <-updates
	if !h.writeEvent(c, conv, first, open) {
		return
	}
	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case snap, open := <-updates:
			if !h.writeEvent(c, conv, snap, open) {
				return
			}
		}
	}
}

func (h *ConversationHandler) writeEvent(c *gin.Context, conv *service.Conversation, snap domain.ConversationSnapshot, open bool) bool {
	if !open {
		c.SSEvent("closed", gin.H{"id": conv.ID()})
		c.Writer.Flush()
		return false
	}
	c.SSEvent("snapshot", snap)
	c.Writer.Flush()
	return true
}

func (h *ConversationHandler) conversation(c *gin.Context) (*service.Conversation, bool) {
	conv, err := h.conversations.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err, "get conversation failed")
		return nil, false
	}
	return conv, true
}

// respondAction responde 202 si la accion se programo y 200 con ignored=true si se descarto.
func (h *ConversationHandler) respondAction(c *gin.Context, conv *service.Conversation, accepted bool) {
	status := http.StatusAccepted
	if !accepted {
		status = http.StatusOK
	}
	c.JSON(status, gin.H{"conversation": conv.Snapshot(), "ignored": !accepted})
}

func (h *ConversationHandler) respondError(c *gin.Context, err error, msg string) {
	switch {
	case errors.Is(err, service.ErrConversationNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
	case errors.Is(err, service.ErrConversationClosed):
		c.JSON(http.StatusGone, gin.H{"error": "conversation closed"})
	default:
		h.logger.Error(msg, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
