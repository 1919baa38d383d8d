package entity

import (
	"time"

	"github.com/krishsoni15/procureflow/internal/domain/workflow"
)

// VendorQuote is a single vendor's unit price quote inside a cost comparison.
type VendorQuote struct {
	ID               int64   `json:"id"`
	CostComparisonID int64   `json:"cost_comparison_id"`
	VendorID         int64   `json:"vendor_id"`
	UnitPrice        float64 `json:"unit_price"`
}

// Total returns the quoted cost for the given requested quantity.
func (q *VendorQuote) Total(quantity float64) float64 {
	return q.UnitPrice * quantity
}

// CostComparison holds the vendor quotes collected for one request item.
// At most one comparison exists per item (upsert semantics); its status
// mirrors the CC-related states of the owning item.
type CostComparison struct {
	ID               int64          `json:"id"`
	RequestItemID    int64          `json:"request_item_id"`
	Status           workflow.State `json:"status"`
	IsDirectDelivery bool           `json:"is_direct_delivery"`
	ManagerNotes     string         `json:"manager_notes,omitempty"`
	CreatedBy        string         `json:"created_by"`
	Quotes           []*VendorQuote `json:"quotes"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// LowestQuote returns the quote with the lowest unit price, or nil if the
// comparison holds no quotes.
func (c *CostComparison) LowestQuote() *VendorQuote {
	var lowest *VendorQuote
	for _, q := range c.Quotes {
		if lowest == nil || q.UnitPrice < lowest.UnitPrice {
			lowest = q
		}
	}
	return lowest
}

// QuoteForVendor returns the quote belonging to the given vendor, or nil.
func (c *CostComparison) QuoteForVendor(vendorID int64) *VendorQuote {
	for _, q := range c.Quotes {
		if q.VendorID == vendorID {
			return q
		}
	}
	return nil
}
