package handler

import (
	"github.com/gin-gonic/gin"

	refinancingapp "github.com/beneficios/backend/internal/application/refinancing"
	"github.com/beneficios/backend/internal/domain/document"
)

// RefinancingHandler handles contract searches and refinancing simulations
type RefinancingHandler struct {
	BaseHandler
	service *refinancingapp.Service
}

// NewRefinancingHandler creates a new RefinancingHandler
func NewRefinancingHandler(service *refinancingapp.Service) *RefinancingHandler {
	return &RefinancingHandler{service: service}
}

// SearchContracts lists the partner contracts of a beneficiary
//
//	POST /contracts/search
func (h *RefinancingHandler) SearchContracts(c *gin.Context) {
	var req SearchContractsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	contracts, err := h.service.ListContracts(c.Request.Context(), req.Document)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessList(c, toContractsResponse(document.Format(req.Document), contracts), len(contracts))
}

// Simulate runs a refinancing simulation with the partner
//
//	POST /refinancing/simulations
func (h *RefinancingHandler) Simulate(c *gin.Context) {
	var req SimulateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	out, err := h.service.Simulate(c.Request.Context(), req.toInput())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toSimulationResponse(out))
}
