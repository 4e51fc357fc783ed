package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/docupine/docupine-backend/internal/http/middleware"
	"github.com/docupine/docupine-backend/internal/http/response"
	"github.com/docupine/docupine-backend/internal/ingestion"
	"github.com/docupine/docupine-backend/internal/jobs"
	"github.com/docupine/docupine-backend/internal/platform/logger"
)

type UploadHandler struct {
	log   *logger.Logger
	queue jobs.Queue
}

func NewUploadHandler(baseLog *logger.Logger, queue jobs.Queue) *UploadHandler {
	return &UploadHandler{
		log:   baseLog.With("handler", "UploadHandler"),
		queue: queue,
	}
}

type uploadCompleteRequest struct {
	Key  string `json:"key"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// POST /api/uploadthing
// The storage provider's upload-complete callback: validate, enqueue,
// return 202 so the storage side never waits on heavy work.
func (h *UploadHandler) UploadComplete(c *gin.Context) {
	ownerID, ok := middleware.OwnerID(c)
	if !ok {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	var req uploadCompleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	if strings.TrimSpace(req.Key) == "" || strings.TrimSpace(req.URL) == "" {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", fmt.Errorf("key and url are required"))
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		req.Name = req.Key
	}

	err := h.queue.Enqueue(c.Request.Context(), ingestion.Request{
		StorageKey: req.Key,
		FileName:   req.Name,
		FileURL:    req.URL,
		OwnerID:    ownerID,
		Subscribed: middleware.Subscribed(c),
	})
	if err != nil {
		h.log.Error("Failed to enqueue ingest job", "storage_key", req.Key, "error", err)
		response.RespondError(c, http.StatusInternalServerError, "enqueue_failed", err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"key": req.Key})
}
