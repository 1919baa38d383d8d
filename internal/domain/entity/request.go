package entity

import (
	"time"

	"github.com/krishsoni15/procureflow/internal/domain/workflow"
)

// RequestItem represents one material line item within a logical request.
// Items sharing a RequestNumber move together through the request-level
// transitions (send, approve, reject) and may diverge afterwards.
type RequestItem struct {
	ID                int64          `json:"id"`
	RequestNumber     string         `json:"request_number"`
	ItemOrder         int            `json:"item_order"`
	ItemName          string         `json:"item_name"`
	Quantity          float64        `json:"quantity"`
	Unit              string         `json:"unit"`
	Description       string         `json:"description,omitempty"`
	SpecsBrand        string         `json:"specs_brand,omitempty"`
	IsUrgent          bool           `json:"is_urgent"`
	SiteID            int64          `json:"site_id"`
	Status            workflow.State `json:"status"`
	Version           int64          `json:"version"`
	CreatedBy         string         `json:"created_by"`
	RejectionReason   string         `json:"rejection_reason,omitempty"`
	DeliveredQuantity float64        `json:"delivered_quantity"`
	RequiredBy        *time.Time     `json:"required_by,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// Remaining returns the outstanding quantity still awaiting delivery.
func (i *RequestItem) Remaining() float64 {
	return i.Quantity - i.DeliveredQuantity
}

// RequestGroup is the read model for request-level actions: all line items
// sharing a request number, plus the status they hold in common up to the
// approval stage.
type RequestGroup struct {
	RequestNumber string         `json:"request_number"`
	SiteID        int64          `json:"site_id"`
	CreatedBy     string         `json:"created_by"`
	Status        workflow.State `json:"status"`
	IsUrgent      bool           `json:"is_urgent"`
	Items         []*RequestItem `json:"items"`
	CreatedAt     time.Time      `json:"created_at"`
}

// Uniform reports whether every item in the group currently holds the same
// status. Request-level actions require a uniform group.
func (g *RequestGroup) Uniform() bool {
	for _, item := range g.Items {
		if item.Status != g.Status {
			return false
		}
	}
	return true
}

// StatusCount is one row of the dashboard status projection.
type StatusCount struct {
	Status workflow.State `json:"status"`
	Count  int64          `json:"count"`
}

// SiteVolume is one row of the top-sites dashboard projection.
type SiteVolume struct {
	SiteID   int64  `json:"site_id"`
	SiteName string `json:"site_name"`
	Requests int64  `json:"requests"`
}
