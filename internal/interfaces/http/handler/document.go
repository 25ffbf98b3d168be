package handler

import (
	"github.com/gin-gonic/gin"

	refinancingapp "github.com/beneficios/backend/internal/application/refinancing"
)

// DocumentHandler handles CPF validation
type DocumentHandler struct {
	BaseHandler
	service *refinancingapp.Service
}

// NewDocumentHandler creates a new DocumentHandler
func NewDocumentHandler(service *refinancingapp.Service) *DocumentHandler {
	return &DocumentHandler{service: service}
}

// ValidateDocumentRequest is the body of POST /documents/validate
type ValidateDocumentRequest struct {
	Document string `json:"document" binding:"required,max=64"`
}

// Validate formats and validates a CPF.
// An invalid CPF is a normal 200 answer with is_valid=false.
//
//	POST /documents/validate
func (h *DocumentHandler) Validate(c *gin.Context) {
	var req ValidateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	h.Success(c, h.service.ValidateDocument(c.Request.Context(), req.Document))
}
