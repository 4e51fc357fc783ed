package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/docupine/docupine-backend/internal/http/middleware"
	"github.com/docupine/docupine-backend/internal/http/response"
	"github.com/docupine/docupine-backend/internal/platform/logger"
	"github.com/docupine/docupine-backend/internal/services"
)

type MessageHandler struct {
	log  *logger.Logger
	chat services.ChatService
}

func NewMessageHandler(baseLog *logger.Logger, chat services.ChatService) *MessageHandler {
	return &MessageHandler{
		log:  baseLog.With("handler", "MessageHandler"),
		chat: chat,
	}
}

type sendMessageRequest struct {
	FileID  string `json:"fileId"`
	Message string `json:"message"`
}

// POST /api/message
// Streams the answer as plain-text fragments. The answer is fully
// persisted before the first byte goes out, so a dropped connection
// never loses the conversation.
func (h *MessageHandler) Send(c *gin.Context) {
	ownerID, ok := middleware.OwnerID(c)
	if !ok {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	documentID, err := uuid.Parse(req.FileID)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", fmt.Errorf("fileId must be a uuid"))
		return
	}

	stream, err := h.chat.Answer(c.Request.Context(), ownerID, documentID, req.Message)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}

	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.Header("Cache-Control", "no-cache")
	c.Status(http.StatusOK)

	flusher, canFlush := c.Writer.(http.Flusher)
	for fragment := range stream.Fragments {
		if _, err := io.WriteString(c.Writer, fragment); err != nil {
			h.log.Debug("Client went away mid-stream", "error", err)
			return
		}
		if canFlush {
			flusher.Flush()
		}
	}
}

// GET /api/files/:id/messages?limit&cursor
// Cursor is the created_at of the oldest message already loaded,
// RFC3339; results come newest first.
func (h *MessageHandler) List(c *gin.Context) {
	ownerID, ok := middleware.OwnerID(c)
	if !ok {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	documentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			response.RespondError(c, http.StatusBadRequest, "invalid_limit", fmt.Errorf("limit must be a non-negative integer"))
			return
		}
	}
	var before *time.Time
	if raw := c.Query("cursor"); raw != "" {
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_cursor", err)
			return
		}
		before = &t
	}

	msgs, err := h.chat.ListMessages(c.Request.Context(), ownerID, documentID, limit, before)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"messages": msgs})
}
