package handler

import (
	"log"
	"net/http"

	"realty/internal/ingest"

	"github.com/gin-gonic/gin"
)

// IngestHandler handles catalog reload requests
type IngestHandler struct {
	loader *ingest.Loader
}

// NewIngestHandler creates a new ingest handler
func NewIngestHandler(loader *ingest.Loader) *IngestHandler {
	return &IngestHandler{loader: loader}
}

// Reload handles POST /api/v1/catalog/reload
func (h *IngestHandler) Reload(c *gin.Context) {
	if err := h.loader.Load(c.Request.Context()); err != nil {
		log.Printf("catalog reload failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Reload failed: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
