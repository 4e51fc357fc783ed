package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/docupine/docupine-backend/internal/http/middleware"
	"github.com/docupine/docupine-backend/internal/http/response"
	"github.com/docupine/docupine-backend/internal/sse"
)

type EventsHandler struct {
	hub *sse.Hub
}

func NewEventsHandler(hub *sse.Hub) *EventsHandler {
	return &EventsHandler{hub: hub}
}

// GET /api/events
// Long-lived SSE stream of document status changes for the caller.
func (h *EventsHandler) Stream(c *gin.Context) {
	ownerID, ok := middleware.OwnerID(c)
	if !ok {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	client := h.hub.NewClient(ownerID)
	defer h.hub.CloseClient(client)
	h.hub.ServeHTTP(c.Writer, c.Request, client)
}
