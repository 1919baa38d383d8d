package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/krishsoni15/procureflow/internal/application/port"
	"github.com/krishsoni15/procureflow/internal/domain/entity"
	"github.com/krishsoni15/procureflow/internal/infrastructure/persistence/sqlite"
)

const inventoryColumns = `id, name, unit, quantity, vendor_id, updated_at`

// InventoryRepository implements port.InventoryRepository
type InventoryRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewInventoryRepository creates a new inventory repository
func NewInventoryRepository(db *sql.DB, logger *zap.Logger) port.InventoryRepository {
	return &InventoryRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts an inventory item.
func (r *InventoryRepository) Create(ctx context.Context, item *entity.InventoryItem) error {
	query := `INSERT INTO inventory_items (name, unit, quantity, vendor_id, updated_at) VALUES (?, ?, ?, ?, ?)`

	result, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, query,
		item.Name, item.Unit, item.Quantity, item.VendorID, item.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to create inventory item", zap.String("name", item.Name), zap.Error(err))
		return fmt.Errorf("failed to create inventory item: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	item.ID = id
	return nil
}

// Update rewrites an inventory item's mutable fields.
func (r *InventoryRepository) Update(ctx context.Context, item *entity.InventoryItem) error {
	query := `UPDATE inventory_items SET name = ?, unit = ?, quantity = ?, vendor_id = ?, updated_at = ? WHERE id = ?`

	_, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, query,
		item.Name, item.Unit, item.Quantity, item.VendorID, item.UpdatedAt, item.ID)
	if err != nil {
		r.logger.Error("Failed to update inventory item", zap.Int64("id", item.ID), zap.Error(err))
		return fmt.Errorf("failed to update inventory item: %w", err)
	}
	return nil
}

// GetByID retrieves an inventory item by id
func (r *InventoryRepository) GetByID(ctx context.Context, id int64) (*entity.InventoryItem, error) {
	query := `SELECT ` + inventoryColumns + ` FROM inventory_items WHERE id = ?`
	return r.getOne(ctx, query, id)
}

// GetByName matches the master list case-insensitively.
func (r *InventoryRepository) GetByName(ctx context.Context, name string) (*entity.InventoryItem, error) {
	query := `SELECT ` + inventoryColumns + ` FROM inventory_items WHERE name = ? COLLATE NOCASE`
	return r.getOne(ctx, query, name)
}

func (r *InventoryRepository) getOne(ctx context.Context, query string, arg interface{}) (*entity.InventoryItem, error) {
	item, err := scanInventoryItem(sqlite.ExecutorFor(ctx, r.db).QueryRowContext(ctx, query, arg))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get inventory item", zap.Error(err))
		return nil, fmt.Errorf("failed to get inventory item: %w", err)
	}
	return item, nil
}

// List retrieves every inventory item.
func (r *InventoryRepository) List(ctx context.Context) ([]*entity.InventoryItem, error) {
	query := `SELECT ` + inventoryColumns + ` FROM inventory_items ORDER BY name`

	rows, err := sqlite.ExecutorFor(ctx, r.db).QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list inventory items", zap.Error(err))
		return nil, fmt.Errorf("failed to list inventory items: %w", err)
	}
	defer rows.Close()

	var items []*entity.InventoryItem
	for rows.Next() {
		item, err := scanInventoryItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan inventory item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// IncrementStock adds to an item's stock count.
func (r *InventoryRepository) IncrementStock(ctx context.Context, id int64, delta float64) error {
	query := `UPDATE inventory_items SET quantity = quantity + ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`

	_, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, query, delta, id)
	if err != nil {
		r.logger.Error("Failed to increment stock", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to increment stock: %w", err)
	}
	return nil
}

// CountByVendor counts inventory items supplied by a vendor.
func (r *InventoryRepository) CountByVendor(ctx context.Context, vendorID int64) (int64, error) {
	var count int64
	err := sqlite.ExecutorFor(ctx, r.db).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM inventory_items WHERE vendor_id = ?`, vendorID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count inventory by vendor: %w", err)
	}
	return count, nil
}

// Delete removes an inventory item.
func (r *InventoryRepository) Delete(ctx context.Context, id int64) error {
	_, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, `DELETE FROM inventory_items WHERE id = ?`, id)
	if err != nil {
		r.logger.Error("Failed to delete inventory item", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete inventory item: %w", err)
	}
	return nil
}

func scanInventoryItem(row rowScanner) (*entity.InventoryItem, error) {
	var item entity.InventoryItem
	var vendorID sql.NullInt64
	err := row.Scan(&item.ID, &item.Name, &item.Unit, &item.Quantity, &vendorID, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if vendorID.Valid {
		item.VendorID = &vendorID.Int64
	}
	return &item, nil
}

// Verify interface compliance
var _ port.InventoryRepository = (*InventoryRepository)(nil)
