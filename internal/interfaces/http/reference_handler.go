package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/krishsoni15/procureflow/internal/application/service"
	"github.com/krishsoni15/procureflow/internal/domain/entity"
)

// ReferenceHandler exposes the site, vendor, and inventory endpoints.
type ReferenceHandler struct {
	reference service.ReferenceService
}

// NewReferenceHandler creates a new reference data handler
func NewReferenceHandler(reference service.ReferenceService) *ReferenceHandler {
	return &ReferenceHandler{reference: reference}
}

// CreateSite handles POST /sites
func (h *ReferenceHandler) CreateSite(c *gin.Context) {
	var site entity.Site
	if err := c.ShouldBindJSON(&site); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.reference.CreateSite(c.Request.Context(), actorFrom(c), &site); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, site)
}

// UpdateSite handles PUT /sites/:id
func (h *ReferenceHandler) UpdateSite(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var site entity.Site
	if err := c.ShouldBindJSON(&site); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	site.ID = id

	if err := h.reference.UpdateSite(c.Request.Context(), actorFrom(c), &site); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, site)
}

// DeactivateSite handles POST /sites/:id/deactivate
func (h *ReferenceHandler) DeactivateSite(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	if err := h.reference.DeactivateSite(c.Request.Context(), actorFrom(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deactivated"})
}

// DeleteSite handles DELETE /sites/:id
func (h *ReferenceHandler) DeleteSite(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	if err := h.reference.DeleteSite(c.Request.Context(), actorFrom(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListSites handles GET /sites
func (h *ReferenceHandler) ListSites(c *gin.Context) {
	sites, err := h.reference.ListSites(c.Request.Context(), c.Query("active") == "true")
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sites": sites})
}

// CreateVendor handles POST /vendors
func (h *ReferenceHandler) CreateVendor(c *gin.Context) {
	var vendor entity.Vendor
	if err := c.ShouldBindJSON(&vendor); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.reference.CreateVendor(c.Request.Context(), actorFrom(c), &vendor); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, vendor)
}

// UpdateVendor handles PUT /vendors/:id
func (h *ReferenceHandler) UpdateVendor(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var vendor entity.Vendor
	if err := c.ShouldBindJSON(&vendor); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	vendor.ID = id

	if err := h.reference.UpdateVendor(c.Request.Context(), actorFrom(c), &vendor); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, vendor)
}

// DeleteVendor handles DELETE /vendors/:id
func (h *ReferenceHandler) DeleteVendor(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	if err := h.reference.DeleteVendor(c.Request.Context(), actorFrom(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListVendors handles GET /vendors
func (h *ReferenceHandler) ListVendors(c *gin.Context) {
	vendors, err := h.reference.ListVendors(c.Request.Context(), c.Query("active") == "true")
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"vendors": vendors})
}

// CreateInventoryItem handles POST /inventory
func (h *ReferenceHandler) CreateInventoryItem(c *gin.Context) {
	var item entity.InventoryItem
	if err := c.ShouldBindJSON(&item); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.reference.CreateInventoryItem(c.Request.Context(), actorFrom(c), &item); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

// UpdateInventoryItem handles PUT /inventory/:id
func (h *ReferenceHandler) UpdateInventoryItem(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var item entity.InventoryItem
	if err := c.ShouldBindJSON(&item); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	item.ID = id

	if err := h.reference.UpdateInventoryItem(c.Request.Context(), actorFrom(c), &item); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// DeleteInventoryItem handles DELETE /inventory/:id
func (h *ReferenceHandler) DeleteInventoryItem(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	if err := h.reference.DeleteInventoryItem(c.Request.Context(), actorFrom(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListInventory handles GET /inventory
func (h *ReferenceHandler) ListInventory(c *gin.Context) {
	items, err := h.reference.ListInventory(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func paramID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}
