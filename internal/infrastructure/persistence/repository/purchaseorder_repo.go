package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/krishsoni15/procureflow/internal/application/port"
	"github.com/krishsoni15/procureflow/internal/domain/entity"
	"github.com/krishsoni15/procureflow/internal/domain/workflow"
	"github.com/krishsoni15/procureflow/internal/infrastructure/persistence/sqlite"
)

const purchaseOrderColumns = `
	id, po_number, request_number, vendor_id, status, total_amount,
	expected_delivery_date, delivered_date, rejection_reason, created_by,
	created_at, updated_at
`

// PurchaseOrderRepository implements port.PurchaseOrderRepository
type PurchaseOrderRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPurchaseOrderRepository creates a new purchase order repository
func NewPurchaseOrderRepository(db *sql.DB, logger *zap.Logger) port.PurchaseOrderRepository {
	return &PurchaseOrderRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a purchase order with its items.
func (r *PurchaseOrderRepository) Create(ctx context.Context, po *entity.PurchaseOrder) error {
	exec := sqlite.ExecutorFor(ctx, r.db)

	query := `
		INSERT INTO purchase_orders (
			po_number, request_number, vendor_id, status, total_amount,
			expected_delivery_date, created_by, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := exec.ExecContext(ctx, query,
		po.PONumber,
		po.RequestNumber,
		po.VendorID,
		po.Status,
		po.TotalAmount,
		po.ExpectedDeliveryDate,
		po.CreatedBy,
		po.CreatedAt,
		po.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create purchase order", zap.String("po_number", po.PONumber), zap.Error(err))
		return fmt.Errorf("failed to create purchase order: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	po.ID = id

	for _, item := range po.Items {
		res, err := exec.ExecContext(ctx,
			`INSERT INTO purchase_order_items (purchase_order_id, request_item_id, item_name, quantity, unit_price, amount) VALUES (?, ?, ?, ?, ?, ?)`,
			po.ID, item.RequestItemID, item.ItemName, item.Quantity, item.UnitPrice, item.Amount)
		if err != nil {
			return fmt.Errorf("failed to insert purchase order item: %w", err)
		}
		itemID, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get last insert id: %w", err)
		}
		item.ID = itemID
		item.PurchaseOrderID = po.ID
	}
	return nil
}

// GetByID retrieves a purchase order with its items.
func (r *PurchaseOrderRepository) GetByID(ctx context.Context, id int64) (*entity.PurchaseOrder, error) {
	query := `SELECT ` + purchaseOrderColumns + ` FROM purchase_orders WHERE id = ?`

	po, err := scanPurchaseOrder(sqlite.ExecutorFor(ctx, r.db).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get purchase order", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get purchase order: %w", err)
	}

	if err := r.loadItems(ctx, po); err != nil {
		return nil, err
	}
	return po, nil
}

// GetByRequestItemID retrieves the newest active order covering a request
// item. Rejected orders are skipped so a re-issued order wins over the one it
// replaced. Nil for direct-delivery items.
func (r *PurchaseOrderRepository) GetByRequestItemID(ctx context.Context, requestItemID int64) (*entity.PurchaseOrder, error) {
	query := `
		SELECT ` + purchaseOrderColumns + `
		FROM purchase_orders
		WHERE id = (
			SELECT poi.purchase_order_id
			FROM purchase_order_items poi
			JOIN purchase_orders po ON po.id = poi.purchase_order_id
			WHERE poi.request_item_id = ? AND po.status != ?
			ORDER BY po.id DESC
			LIMIT 1
		)
	`

	po, err := scanPurchaseOrder(sqlite.ExecutorFor(ctx, r.db).QueryRowContext(ctx, query, requestItemID, workflow.StatePORejected))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get purchase order by item", zap.Int64("request_item_id", requestItemID), zap.Error(err))
		return nil, fmt.Errorf("failed to get purchase order: %w", err)
	}

	if err := r.loadItems(ctx, po); err != nil {
		return nil, err
	}
	return po, nil
}

// List retrieves purchase orders with pagination, newest first.
func (r *PurchaseOrderRepository) List(ctx context.Context, limit, offset int) ([]*entity.PurchaseOrder, error) {
	query := `SELECT ` + purchaseOrderColumns + ` FROM purchase_orders ORDER BY created_at DESC LIMIT ? OFFSET ?`

	rows, err := sqlite.ExecutorFor(ctx, r.db).QueryContext(ctx, query, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list purchase orders", zap.Error(err))
		return nil, fmt.Errorf("failed to list purchase orders: %w", err)
	}
	defer rows.Close()

	var orders []*entity.PurchaseOrder
	for rows.Next() {
		po, err := scanPurchaseOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan purchase order: %w", err)
		}
		orders = append(orders, po)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, po := range orders {
		if err := r.loadItems(ctx, po); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

// UpdateStatus transitions an order guarded by its current status.
func (r *PurchaseOrderRepository) UpdateStatus(ctx context.Context, id int64, from, to workflow.State, reason string) (bool, error) {
	query := `
		UPDATE purchase_orders
		SET status = ?, rejection_reason = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = ?
	`

	result, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, query, to, reason, id, from)
	if err != nil {
		r.logger.Error("Failed to update purchase order status", zap.Int64("id", id), zap.Error(err))
		return false, fmt.Errorf("failed to update purchase order status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

// SetDeliveredDate stamps the order complete.
func (r *PurchaseOrderRepository) SetDeliveredDate(ctx context.Context, id int64, t time.Time) error {
	query := `UPDATE purchase_orders SET delivered_date = ?, status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`

	_, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, query, t, workflow.StateDelivered, id)
	if err != nil {
		r.logger.Error("Failed to set delivered date", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to set delivered date: %w", err)
	}
	return nil
}

// CountUndeliveredItems counts order items whose request item has not reached
// the delivered status.
func (r *PurchaseOrderRepository) CountUndeliveredItems(ctx context.Context, poID int64) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM purchase_order_items poi
		JOIN request_items ri ON ri.id = poi.request_item_id
		WHERE poi.purchase_order_id = ? AND ri.status != ?
	`

	var count int64
	err := sqlite.ExecutorFor(ctx, r.db).QueryRowContext(ctx, query, poID, workflow.StateDelivered).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count undelivered items: %w", err)
	}
	return count, nil
}

// NextPONumber allocates the next purchase order number from the sequence
// table.
func (r *PurchaseOrderRepository) NextPONumber(ctx context.Context) (string, error) {
	query := `
		INSERT INTO sequences (name, value) VALUES ('purchase_order', 1)
		ON CONFLICT(name) DO UPDATE SET value = value + 1
		RETURNING value
	`

	var value int64
	if err := sqlite.ExecutorFor(ctx, r.db).QueryRowContext(ctx, query).Scan(&value); err != nil {
		r.logger.Error("Failed to allocate po number", zap.Error(err))
		return "", fmt.Errorf("failed to allocate po number: %w", err)
	}
	return fmt.Sprintf("PO-%05d", value), nil
}

func (r *PurchaseOrderRepository) loadItems(ctx context.Context, po *entity.PurchaseOrder) error {
	rows, err := sqlite.ExecutorFor(ctx, r.db).QueryContext(ctx,
		`SELECT id, purchase_order_id, request_item_id, item_name, quantity, unit_price, amount FROM purchase_order_items WHERE purchase_order_id = ? ORDER BY id`,
		po.ID)
	if err != nil {
		return fmt.Errorf("failed to get purchase order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item entity.PurchaseOrderItem
		if err := rows.Scan(&item.ID, &item.PurchaseOrderID, &item.RequestItemID, &item.ItemName, &item.Quantity, &item.UnitPrice, &item.Amount); err != nil {
			return fmt.Errorf("failed to scan purchase order item: %w", err)
		}
		po.Items = append(po.Items, &item)
	}
	return rows.Err()
}

func scanPurchaseOrder(row rowScanner) (*entity.PurchaseOrder, error) {
	var po entity.PurchaseOrder
	var expected, delivered sql.NullTime
	var reason sql.NullString

	err := row.Scan(
		&po.ID,
		&po.PONumber,
		&po.RequestNumber,
		&po.VendorID,
		&po.Status,
		&po.TotalAmount,
		&expected,
		&delivered,
		&reason,
		&po.CreatedBy,
		&po.CreatedAt,
		&po.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if expected.Valid {
		po.ExpectedDeliveryDate = &expected.Time
	}
	if delivered.Valid {
		po.DeliveredDate = &delivered.Time
	}
	po.RejectionReason = reason.String
	return &po, nil
}

// Verify interface compliance
var _ port.PurchaseOrderRepository = (*PurchaseOrderRepository)(nil)
