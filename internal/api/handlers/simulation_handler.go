package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/andresuchdata/reorder-replay/internal/domain"
	"github.com/andresuchdata/reorder-replay/internal/service"
)

type SimulationHandler struct {
	service *service.SimulationService
}

func NewSimulationHandler(service *service.SimulationService) *SimulationHandler {
	return &SimulationHandler{service: service}
}

type runSimulationRequest struct {
	TenantID           int64    `json:"tenant_id" binding:"required"`
	StartDate          string   `json:"start_date" binding:"required"`
	EndDate            string   `json:"end_date" binding:"required"`
	ItemIDs            []string `json:"item_ids" binding:"required"`
	AutoPlaceOrders    bool     `json:"auto_place_orders"`
	LeadTimeBufferDays int      `json:"lead_time_buffer_days"`
	MinOrderQuantity   int      `json:"min_order_quantity"`
	ServiceLevel       float64  `json:"service_level"`
}

func (r runSimulationRequest) toDomain() (domain.SimulationRequest, error) {
	start, err := time.Parse("2006-01-02", r.StartDate)
	if err != nil {
		return domain.SimulationRequest{}, err
	}
	end, err := time.Parse("2006-01-02", r.EndDate)
	if err != nil {
		return domain.SimulationRequest{}, err
	}

	minOrder := r.MinOrderQuantity
	if minOrder == 0 {
		minOrder = 1
	}
	serviceLevel := r.ServiceLevel
	if serviceLevel == 0 {
		serviceLevel = 0.95
	}

	return domain.SimulationRequest{
		TenantID:  r.TenantID,
		StartDate: start,
		EndDate:   end,
		ItemIDs:   r.ItemIDs,
		Policy: domain.PolicyConfig{
			AutoPlaceOrders:    r.AutoPlaceOrders,
			LeadTimeBufferDays: r.LeadTimeBufferDays,
			MinOrderQuantity:   minOrder,
			ServiceLevel:       serviceLevel,
		},
	}, nil
}

// RunSimulation executes a replay synchronously and returns the full result.
func (h *SimulationHandler) RunSimulation(c *gin.Context) {
	var body runSimulationRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	req, err := body.toDomain()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, expected YYYY-MM-DD: " + err.Error()})
		return
	}

	result, err := h.service.Run(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if result.Status == domain.SimulationFailed {
		c.JSON(http.StatusUnprocessableEntity, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetSimulation returns a previously completed run from the result cache.
func (h *SimulationHandler) GetSimulation(c *gin.Context) {
	runID := c.Param("id")

	result, ok, err := h.service.GetResult(c.Request.Context(), runID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "simulation not found or expired"})
		return
	}
	c.JSON(http.StatusOK, result)
}
