package entity

import (
	"time"

	"github.com/krishsoni15/procureflow/internal/domain/workflow"
)

// Site is a construction site requests are raised against. Referenced by id;
// never embedded into request rows.
type Site struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Location  string    `json:"location,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// Vendor is a supplier quoted in cost comparisons and bound to purchase
// orders. GSTNumber must pass format validation before create/update.
type Vendor struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	GSTNumber string    `json:"gst_number"`
	Address   string    `json:"address,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// InventoryItem is a row of the inventory master list. Stock is incremented
// when a matching item completes delivery.
type InventoryItem struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Unit      string    `json:"unit"`
	Quantity  float64   `json:"quantity"`
	VendorID  *int64    `json:"vendor_id,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// User is an application account. Identity resolution happens outside the
// core; this table backs the site-usage guard and role-scoped queries.
type User struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Role      workflow.Role `json:"role"`
	SiteID    *int64        `json:"site_id,omitempty"`
	IsActive  bool          `json:"is_active"`
	CreatedAt time.Time     `json:"created_at"`
}

// Actor is the identity resolved for the current call.
type Actor struct {
	UserID string        `json:"user_id"`
	Name   string        `json:"name"`
	Role   workflow.Role `json:"role"`
}
