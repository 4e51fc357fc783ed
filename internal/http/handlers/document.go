package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/docupine/docupine-backend/internal/http/middleware"
	"github.com/docupine/docupine-backend/internal/http/response"
	"github.com/docupine/docupine-backend/internal/services"
)

type DocumentHandler struct {
	docs services.DocumentService
}

func NewDocumentHandler(docs services.DocumentService) *DocumentHandler {
	return &DocumentHandler{docs: docs}
}

// GET /api/files/key/:key
// Poll target for the upload flow: 404 until the ingest worker has
// created the row.
func (h *DocumentHandler) GetByStorageKey(c *gin.Context) {
	ownerID, ok := middleware.OwnerID(c)
	if !ok {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	doc, err := h.docs.GetByStorageKey(c.Request.Context(), ownerID, c.Param("key"))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	if doc == nil {
		response.RespondError(c, http.StatusNotFound, "document_not_found", nil)
		return
	}
	response.RespondOK(c, gin.H{"file": doc})
}

// GET /api/files/:id
func (h *DocumentHandler) GetByID(c *gin.Context) {
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
	doc, err := h.docs.GetByID(c.Request.Context(), ownerID, documentID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"file": doc})
}

// GET /api/files
func (h *DocumentHandler) List(c *gin.Context) {
	ownerID, ok := middleware.OwnerID(c)
	if !ok {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	docs, err := h.docs.ListByOwner(c.Request.Context(), ownerID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"files": docs})
}

// DELETE /api/files/:id
func (h *DocumentHandler) Delete(c *gin.Context) {
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
	if err := h.docs.Delete(c.Request.Context(), ownerID, documentID); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"deleted": documentID})
}
