package port

import (
	"context"
	"time"

	"github.com/krishsoni15/procureflow/internal/domain/entity"
	"github.com/krishsoni15/procureflow/internal/domain/workflow"
)

// RequestListFilter narrows request item listings.
type RequestListFilter struct {
	CreatedBy string         // restrict to a creator (role scoping)
	Status    workflow.State // restrict to a status, empty for all
	SiteID    int64          // restrict to a site, 0 for all
	Limit     int
	Offset    int
}

// RequestRepository defines persistence operations for request line items.
// Guarded updates take the expected pre-state (and version where the update
// targets a single item) and report how many rows actually changed, so the
// caller can detect stale-state races.
type RequestRepository interface {
	CreateItems(ctx context.Context, items []*entity.RequestItem) error
	GetItemByID(ctx context.Context, id int64) (*entity.RequestItem, error)
	GetGroup(ctx context.Context, requestNumber string) ([]*entity.RequestItem, error)
	List(ctx context.Context, filter RequestListFilter) ([]*entity.RequestItem, error)

	// UpdateGroupStatus transitions every item of a group from one status to
	// another, returning the number of rows updated.
	UpdateGroupStatus(ctx context.Context, requestNumber string, from, to workflow.State, rejectionReason string) (int64, error)

	// UpdateItemStatus transitions a single item, guarded by expected status
	// and version. Returns false when the guard did not match.
	UpdateItemStatus(ctx context.Context, id int64, from, to workflow.State, version int64) (bool, error)

	// UpdateDelivered transitions an item and records its new cumulative
	// delivered quantity in one guarded write.
	UpdateDelivered(ctx context.Context, id int64, from, to workflow.State, version int64, deliveredQuantity float64) (bool, error)

	// ReplaceDraftItems swaps the line items of a draft group.
	ReplaceDraftItems(ctx context.Context, requestNumber string, items []*entity.RequestItem) error

	// DeleteGroup hard-deletes a group while it holds the given status.
	DeleteGroup(ctx context.Context, requestNumber string, status workflow.State) (int64, error)

	NextRequestNumber(ctx context.Context) (string, error)

	CountBySite(ctx context.Context, siteID int64) (int64, error)
	CountByStatus(ctx context.Context) ([]*entity.StatusCount, error)
	TopSites(ctx context.Context, limit int) ([]*entity.SiteVolume, error)
}

// CostComparisonRepository defines persistence for cost comparisons.
// One comparison per request item; Upsert replaces the quote set.
type CostComparisonRepository interface {
	GetByItemID(ctx context.Context, requestItemID int64) (*entity.CostComparison, error)
	Upsert(ctx context.Context, cc *entity.CostComparison) error
	UpdateStatus(ctx context.Context, id int64, status workflow.State, managerNotes string) error
}

// PurchaseOrderRepository defines persistence for purchase orders.
type PurchaseOrderRepository interface {
	Create(ctx context.Context, po *entity.PurchaseOrder) error
	GetByID(ctx context.Context, id int64) (*entity.PurchaseOrder, error)
	GetByRequestItemID(ctx context.Context, requestItemID int64) (*entity.PurchaseOrder, error)
	List(ctx context.Context, limit, offset int) ([]*entity.PurchaseOrder, error)

	// UpdateStatus transitions a purchase order guarded by its current status.
	UpdateStatus(ctx context.Context, id int64, from, to workflow.State, reason string) (bool, error)

	SetDeliveredDate(ctx context.Context, id int64, t time.Time) error

	// CountUndeliveredItems counts PO items whose request item has not yet
	// reached the delivered status.
	CountUndeliveredItems(ctx context.Context, poID int64) (int64, error)

	NextPONumber(ctx context.Context) (string, error)
}

// DeliveryRepository defines persistence for delivery confirmations.
type DeliveryRepository interface {
	Create(ctx context.Context, d *entity.Delivery) error
	ListByItem(ctx context.Context, requestItemID int64) ([]*entity.Delivery, error)
}

// NoteRepository defines persistence for the append-only audit log.
type NoteRepository interface {
	Create(ctx context.Context, note *entity.Note) error
	GetByRequestNumber(ctx context.Context, requestNumber string) ([]*entity.Note, error)
	ListAll(ctx context.Context, limit, offset int) ([]*entity.Note, error)

	// ListForCreator returns notes belonging to requests created by the user.
	ListForCreator(ctx context.Context, createdBy string, limit, offset int) ([]*entity.Note, error)
}

// SiteRepository defines persistence for sites.
type SiteRepository interface {
	Create(ctx context.Context, site *entity.Site) error
	Update(ctx context.Context, site *entity.Site) error
	GetByID(ctx context.Context, id int64) (*entity.Site, error)
	List(ctx context.Context, activeOnly bool) ([]*entity.Site, error)
	SetActive(ctx context.Context, id int64, active bool) error
	Delete(ctx context.Context, id int64) error
}

// VendorRepository defines persistence for vendors.
type VendorRepository interface {
	Create(ctx context.Context, vendor *entity.Vendor) error
	Update(ctx context.Context, vendor *entity.Vendor) error
	GetByID(ctx context.Context, id int64) (*entity.Vendor, error)
	GetByGST(ctx context.Context, gstNumber string) (*entity.Vendor, error)
	List(ctx context.Context, activeOnly bool) ([]*entity.Vendor, error)
	Delete(ctx context.Context, id int64) error
}

// InventoryRepository defines persistence for the inventory master list.
type InventoryRepository interface {
	Create(ctx context.Context, item *entity.InventoryItem) error
	Update(ctx context.Context, item *entity.InventoryItem) error
	GetByID(ctx context.Context, id int64) (*entity.InventoryItem, error)

	// GetByName matches case-insensitively against the master list.
	GetByName(ctx context.Context, name string) (*entity.InventoryItem, error)

	List(ctx context.Context) ([]*entity.InventoryItem, error)
	IncrementStock(ctx context.Context, id int64, delta float64) error
	CountByVendor(ctx context.Context, vendorID int64) (int64, error)
	Delete(ctx context.Context, id int64) error
}

// UserRepository defines persistence for application accounts.
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	CountBySite(ctx context.Context, siteID int64) (int64, error)
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
