package entity

import (
	"time"

	"github.com/krishsoni15/procureflow/internal/domain/workflow"
)

// PurchaseOrderItem binds one request item into a purchase order with the
// agreed unit price.
type PurchaseOrderItem struct {
	ID              int64   `json:"id"`
	PurchaseOrderID int64   `json:"purchase_order_id"`
	RequestItemID   int64   `json:"request_item_id"`
	ItemName        string  `json:"item_name"`
	Quantity        float64 `json:"quantity"`
	UnitPrice       float64 `json:"unit_price"`
	Amount          float64 `json:"amount"`
}

// PurchaseOrder is issued against exactly one vendor for one or more request
// items from the same request. TotalAmount is the sum of its item amounts.
type PurchaseOrder struct {
	ID                   int64                `json:"id"`
	PONumber             string               `json:"po_number"`
	RequestNumber        string               `json:"request_number"`
	VendorID             int64                `json:"vendor_id"`
	Status               workflow.State       `json:"status"`
	TotalAmount          float64              `json:"total_amount"`
	ExpectedDeliveryDate *time.Time           `json:"expected_delivery_date,omitempty"`
	DeliveredDate        *time.Time           `json:"delivered_date,omitempty"`
	RejectionReason      string               `json:"rejection_reason,omitempty"`
	CreatedBy            string               `json:"created_by"`
	Items                []*PurchaseOrderItem `json:"items"`
	CreatedAt            time.Time            `json:"created_at"`
	UpdatedAt            time.Time            `json:"updated_at"`
}

// ComputeTotal recomputes each item amount and the order total.
func (po *PurchaseOrder) ComputeTotal() {
	var total float64
	for _, item := range po.Items {
		item.Amount = item.UnitPrice * item.Quantity
		total += item.Amount
	}
	po.TotalAmount = total
}

// Delivery records one delivery confirmation against a request item.
type Delivery struct {
	ID                int64     `json:"id"`
	RequestItemID     int64     `json:"request_item_id"`
	DeliveredQuantity float64   `json:"delivered_quantity"`
	ReceivedBy        string    `json:"received_by"`
	CreatedAt         time.Time `json:"created_at"`
}
