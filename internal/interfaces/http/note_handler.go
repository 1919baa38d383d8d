package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/krishsoni15/procureflow/internal/application/service"
)

// NoteHandler exposes the audit trail and goods-received log endpoints.
type NoteHandler struct {
	notes service.NoteService
}

// NewNoteHandler creates a new note handler
func NewNoteHandler(notes service.NoteService) *NoteHandler {
	return &NoteHandler{notes: notes}
}

// ForRequest handles GET /requests/:number/notes
func (h *NoteHandler) ForRequest(c *gin.Context) {
	notes, err := h.notes.ForRequest(c.Request.Context(), actorFrom(c), c.Param("number"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notes": notes})
}

// GRNLog handles GET /grn
func (h *NoteHandler) GRNLog(c *gin.Context) {
	notes, err := h.notes.GRNLog(c.Request.Context(), actorFrom(c), int(queryInt64(c, "limit")), int(queryInt64(c, "offset")))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": notes})
}

// ExportGRN handles GET /grn/export
func (h *NoteHandler) ExportGRN(c *gin.Context) {
	data, err := h.notes.ExportGRN(c.Request.Context(), actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}

	filename := fmt.Sprintf("grn-%s.xlsx", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
