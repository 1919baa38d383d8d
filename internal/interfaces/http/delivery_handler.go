package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/krishsoni15/procureflow/internal/application/service"
)

// DeliveryHandler exposes the delivery confirmation endpoints.
type DeliveryHandler struct {
	deliveries service.DeliveryService
}

// NewDeliveryHandler creates a new delivery handler
func NewDeliveryHandler(deliveries service.DeliveryService) *DeliveryHandler {
	return &DeliveryHandler{deliveries: deliveries}
}

// Confirm handles POST /items/:id/delivery
func (h *DeliveryHandler) Confirm(c *gin.Context) {
	itemID, ok := paramItemID(c)
	if !ok {
		return
	}
	var body struct {
		Quantity float64 `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	item, err := h.deliveries.Confirm(c.Request.Context(), actorFrom(c), itemID, body.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// History handles GET /items/:id/deliveries
func (h *DeliveryHandler) History(c *gin.Context) {
	itemID, ok := paramItemID(c)
	if !ok {
		return
	}

	deliveries, err := h.deliveries.History(c.Request.Context(), itemID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deliveries": deliveries})
}
