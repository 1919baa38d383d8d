package entity

import (
	"time"

	"github.com/krishsoni15/procureflow/internal/domain/workflow"
)

// Note type constants
const (
	NoteTypeNote         = "note"
	NoteTypeNotification = "notification"
	NoteTypeGRN          = "grn"
)

// Note is an append-only audit record written alongside every transition.
// Never mutated after creation.
type Note struct {
	ID            int64          `json:"id"`
	RequestNumber string         `json:"request_number"`
	UserID        string         `json:"user_id"`
	Role          workflow.Role  `json:"role"`
	Status        workflow.State `json:"status"`
	Type          string         `json:"type"`
	Content       string         `json:"content"`
	CreatedAt     time.Time      `json:"created_at"`
}
