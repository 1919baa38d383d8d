package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/krishsoni15/procureflow/internal/application/service"
)

// CostComparisonHandler exposes the cost comparison endpoints, keyed by
// request item id.
type CostComparisonHandler struct {
	comparisons service.CostComparisonService
}

// NewCostComparisonHandler creates a new cost comparison handler
func NewCostComparisonHandler(comparisons service.CostComparisonService) *CostComparisonHandler {
	return &CostComparisonHandler{comparisons: comparisons}
}

type costComparisonBody struct {
	Quotes           []service.VendorQuoteInput `json:"quotes"`
	IsDirectDelivery bool                       `json:"is_direct_delivery"`
}

// Upsert handles PUT /items/:id/cost-comparison
func (h *CostComparisonHandler) Upsert(c *gin.Context) {
	itemID, ok := paramItemID(c)
	if !ok {
		return
	}
	var body costComparisonBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	cc, err := h.comparisons.Upsert(c.Request.Context(), actorFrom(c), itemID, body.Quotes, body.IsDirectDelivery)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cc)
}

// Submit handles POST /items/:id/cost-comparison/submit
func (h *CostComparisonHandler) Submit(c *gin.Context) {
	itemID, ok := paramItemID(c)
	if !ok {
		return
	}

	if err := h.comparisons.Submit(c.Request.Context(), actorFrom(c), itemID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "submitted"})
}

// Approve handles POST /items/:id/cost-comparison/approve
func (h *CostComparisonHandler) Approve(c *gin.Context) {
	itemID, ok := paramItemID(c)
	if !ok {
		return
	}

	if err := h.comparisons.Approve(c.Request.Context(), actorFrom(c), itemID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "approved"})
}

// Reject handles POST /items/:id/cost-comparison/reject
func (h *CostComparisonHandler) Reject(c *gin.Context) {
	itemID, ok := paramItemID(c)
	if !ok {
		return
	}
	var body struct {
		ManagerNotes string `json:"manager_notes"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.comparisons.Reject(c.Request.Context(), actorFrom(c), itemID, body.ManagerNotes); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "rejected"})
}

// Resubmit handles POST /items/:id/cost-comparison/resubmit
func (h *CostComparisonHandler) Resubmit(c *gin.Context) {
	itemID, ok := paramItemID(c)
	if !ok {
		return
	}
	var body costComparisonBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.comparisons.Resubmit(c.Request.Context(), actorFrom(c), itemID, body.Quotes, body.IsDirectDelivery); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "resubmitted"})
}

// Get handles GET /items/:id/cost-comparison
func (h *CostComparisonHandler) Get(c *gin.Context) {
	itemID, ok := paramItemID(c)
	if !ok {
		return
	}

	cc, err := h.comparisons.Get(c.Request.Context(), itemID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cc)
}

// paramItemID parses the :id path segment, responding 400 on garbage.
func paramItemID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid item id"})
		return 0, false
	}
	return id, true
}
