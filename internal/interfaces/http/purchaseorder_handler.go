package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/krishsoni15/procureflow/internal/application/service"
)

// PurchaseOrderHandler exposes the purchase order endpoints.
type PurchaseOrderHandler struct {
	orders service.PurchaseOrderService
}

// NewPurchaseOrderHandler creates a new purchase order handler
func NewPurchaseOrderHandler(orders service.PurchaseOrderService) *PurchaseOrderHandler {
	return &PurchaseOrderHandler{orders: orders}
}

// Issue handles POST /purchase-orders
func (h *PurchaseOrderHandler) Issue(c *gin.Context) {
	var req service.IssuePORequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	orders, err := h.orders.Issue(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"purchase_orders": orders})
}

// MarkOrdered handles POST /purchase-orders/:id/ordered
func (h *PurchaseOrderHandler) MarkOrdered(c *gin.Context) {
	poID, ok := paramPOID(c)
	if !ok {
		return
	}

	if err := h.orders.MarkOrdered(c.Request.Context(), actorFrom(c), poID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ordered"})
}

// MarkOutForDelivery handles POST /purchase-orders/:id/dispatch
func (h *PurchaseOrderHandler) MarkOutForDelivery(c *gin.Context) {
	poID, ok := paramPOID(c)
	if !ok {
		return
	}

	if err := h.orders.MarkOutForDelivery(c.Request.Context(), actorFrom(c), poID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "out_for_delivery"})
}

// Reject handles POST /purchase-orders/:id/reject
func (h *PurchaseOrderHandler) Reject(c *gin.Context) {
	poID, ok := paramPOID(c)
	if !ok {
		return
	}
	var body struct {
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.orders.Reject(c.Request.Context(), actorFrom(c), poID, body.Reason); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "rejected"})
}

// Get handles GET /purchase-orders/:id
func (h *PurchaseOrderHandler) Get(c *gin.Context) {
	poID, ok := paramPOID(c)
	if !ok {
		return
	}

	po, err := h.orders.Get(c.Request.Context(), poID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, po)
}

// List handles GET /purchase-orders
func (h *PurchaseOrderHandler) List(c *gin.Context) {
	orders, err := h.orders.List(c.Request.Context(), int(queryInt64(c, "limit")), int(queryInt64(c, "offset")))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"purchase_orders": orders, "count": len(orders)})
}

func paramPOID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid purchase order id"})
		return 0, false
	}
	return id, true
}
