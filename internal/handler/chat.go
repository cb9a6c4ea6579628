package handler

import (
	"log"
	"net/http"

	"realty/internal/model"
	"realty/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ChatHandler handles conversation HTTP requests
type ChatHandler struct {
	assistant *service.Assistant
}

// NewChatHandler creates a new chat handler
func NewChatHandler(assistant *service.Assistant) *ChatHandler {
	return &ChatHandler{assistant: assistant}
}

// Chat handles POST /api/v1/chat
func (h *ChatHandler) Chat(c *gin.Context) {
	var req model.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	requestID := uuid.NewString()
	log.Printf("[%s] chat %d: incoming message (%d chars)", requestID, req.ChatID, len(req.Message))

	reply, err := h.assistant.Respond(c.Request.Context(), req.ChatID, req.Message)
	if err != nil {
		log.Printf("[%s] chat %d: %v", requestID, req.ChatID, err)
		c.JSON(http.StatusOK, model.ChatResponse{Reply: service.MsgEngineFailure})
		return
	}

	c.JSON(http.StatusOK, model.ChatResponse{Reply: reply})
}

// Reset handles POST /api/v1/chat/reset
func (h *ChatHandler) Reset(c *gin.Context) {
	var req model.ChatResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	welcome := h.assistant.Reset(req.ChatID)
	c.JSON(http.StatusOK, model.ChatResponse{Reply: welcome})
}
