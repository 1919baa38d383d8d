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

// DeliveryRepository implements port.DeliveryRepository
type DeliveryRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewDeliveryRepository creates a new delivery repository
func NewDeliveryRepository(db *sql.DB, logger *zap.Logger) port.DeliveryRepository {
	return &DeliveryRepository{
		db:     db,
		logger: logger,
	}
}

// Create records one delivery confirmation.
func (r *DeliveryRepository) Create(ctx context.Context, d *entity.Delivery) error {
	query := `
		INSERT INTO deliveries (request_item_id, delivered_quantity, received_by, created_at)
		VALUES (?, ?, ?, ?)
	`

	result, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, query,
		d.RequestItemID, d.DeliveredQuantity, d.ReceivedBy, d.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to create delivery", zap.Int64("request_item_id", d.RequestItemID), zap.Error(err))
		return fmt.Errorf("failed to create delivery: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	d.ID = id
	return nil
}

// ListByItem retrieves the delivery confirmations against an item, oldest
// first.
func (r *DeliveryRepository) ListByItem(ctx context.Context, requestItemID int64) ([]*entity.Delivery, error) {
	query := `
		SELECT id, request_item_id, delivered_quantity, received_by, created_at
		FROM deliveries
		WHERE request_item_id = ?
		ORDER BY created_at
	`

	rows, err := sqlite.ExecutorFor(ctx, r.db).QueryContext(ctx, query, requestItemID)
	if err != nil {
		r.logger.Error("Failed to list deliveries", zap.Int64("request_item_id", requestItemID), zap.Error(err))
		return nil, fmt.Errorf("failed to list deliveries: %w", err)
	}
	defer rows.Close()

	var deliveries []*entity.Delivery
	for rows.Next() {
		var d entity.Delivery
		if err := rows.Scan(&d.ID, &d.RequestItemID, &d.DeliveredQuantity, &d.ReceivedBy, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan delivery: %w", err)
		}
		deliveries = append(deliveries, &d)
	}
	return deliveries, rows.Err()
}

// Verify interface compliance
var _ port.DeliveryRepository = (*DeliveryRepository)(nil)
