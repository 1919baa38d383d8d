package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/krishsoni15/procureflow/internal/application/service"
	"github.com/krishsoni15/procureflow/internal/domain/entity"
	"github.com/krishsoni15/procureflow/internal/domain/workflow"
)

// RequestHandler exposes the request lifecycle endpoints.
type RequestHandler struct {
	requests service.RequestService
}

// NewRequestHandler creates a new request handler
func NewRequestHandler(requests service.RequestService) *RequestHandler {
	return &RequestHandler{requests: requests}
}

// Create handles POST /requests
func (h *RequestHandler) Create(c *gin.Context) {
	var input service.CreateRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	group, err := h.requests.Create(c.Request.Context(), actorFrom(c), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, group)
}

// UpdateDraft handles PUT /requests/:number
func (h *RequestHandler) UpdateDraft(c *gin.Context) {
	var body struct {
		Items []service.RequestItemInput `json:"items"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	group, err := h.requests.UpdateDraft(c.Request.Context(), actorFrom(c), c.Param("number"), body.Items)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, group)
}

// DeleteDraft handles DELETE /requests/:number
func (h *RequestHandler) DeleteDraft(c *gin.Context) {
	if err := h.requests.DeleteDraft(c.Request.Context(), actorFrom(c), c.Param("number")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Send handles POST /requests/:number/send
func (h *RequestHandler) Send(c *gin.Context) {
	h.transition(c, h.requests.Send)
}

// Approve handles POST /requests/:number/approve
func (h *RequestHandler) Approve(c *gin.Context) {
	h.transition(c, h.requests.Approve)
}

// Resend handles POST /requests/:number/resend
func (h *RequestHandler) Resend(c *gin.Context) {
	h.transition(c, h.requests.Resend)
}

// Reject handles POST /requests/:number/reject
func (h *RequestHandler) Reject(c *gin.Context) {
	var body struct {
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.requests.Reject(c.Request.Context(), actorFrom(c), c.Param("number"), body.Reason); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "rejected"})
}

// Recheck handles POST /requests/:number/recheck
func (h *RequestHandler) Recheck(c *gin.Context) {
	var body struct {
		Notes string `json:"notes"`
	}
	// notes are optional
	_ = c.ShouldBindJSON(&body)

	if err := h.requests.Recheck(c.Request.Context(), actorFrom(c), c.Param("number"), body.Notes); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "recheck"})
}

// Get handles GET /requests/:number
func (h *RequestHandler) Get(c *gin.Context) {
	group, err := h.requests.Get(c.Request.Context(), actorFrom(c), c.Param("number"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, group)
}

// List handles GET /requests
func (h *RequestHandler) List(c *gin.Context) {
	query := service.RequestListQuery{
		Q:      c.Query("q"),
		Status: workflow.State(c.Query("status")),
		SiteID: queryInt64(c, "site_id"),
		Limit:  int(queryInt64(c, "limit")),
		Offset: int(queryInt64(c, "offset")),
	}

	groups, err := h.requests.List(c.Request.Context(), actorFrom(c), query)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": groups, "count": len(groups)})
}

// StatusCounts handles GET /dashboard/status-counts
func (h *RequestHandler) StatusCounts(c *gin.Context) {
	counts, err := h.requests.StatusCounts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"counts": counts})
}

// TopSites handles GET /dashboard/top-sites
func (h *RequestHandler) TopSites(c *gin.Context) {
	sites, err := h.requests.TopSites(c.Request.Context(), int(queryInt64(c, "limit")))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sites": sites})
}

// transition runs a reason-less group action and reports the outcome.
func (h *RequestHandler) transition(c *gin.Context, fn func(ctx context.Context, actor entity.Actor, number string) error) {
	if err := fn(c.Request.Context(), actorFrom(c), c.Param("number")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func queryInt64(c *gin.Context, name string) int64 {
	v, err := strconv.ParseInt(c.Query(name), 10, 64)
	if err != nil {
		return 0
	}
	return v
}
