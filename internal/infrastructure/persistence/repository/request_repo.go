// Package repository contains the SQLite implementations of the persistence
// ports. Guarded updates encode the optimistic concurrency rules: the WHERE
// clause carries the expected pre-state, and an unmatched guard surfaces as
// zero affected rows for the caller to classify.
package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/krishsoni15/procureflow/internal/application/port"
	"github.com/krishsoni15/procureflow/internal/domain/entity"
	"github.com/krishsoni15/procureflow/internal/domain/workflow"
	"github.com/krishsoni15/procureflow/internal/infrastructure/persistence/sqlite"
)

const requestItemColumns = `
	id, request_number, item_order, item_name, quantity, unit, description,
	specs_brand, is_urgent, site_id, status, version, created_by,
	rejection_reason, delivered_quantity, required_by, created_at, updated_at
`

// RequestRepository implements port.RequestRepository
type RequestRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewRequestRepository creates a new request repository
func NewRequestRepository(db *sql.DB, logger *zap.Logger) port.RequestRepository {
	return &RequestRepository{
		db:     db,
		logger: logger,
	}
}

// CreateItems inserts the line items of a new request.
func (r *RequestRepository) CreateItems(ctx context.Context, items []*entity.RequestItem) error {
	query := `
		INSERT INTO request_items (
			request_number, item_order, item_name, quantity, unit, description,
			specs_brand, is_urgent, site_id, status, version, created_by,
			delivered_quantity, required_by, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	exec := sqlite.ExecutorFor(ctx, r.db)
	for _, item := range items {
		result, err := exec.ExecContext(ctx, query,
			item.RequestNumber,
			item.ItemOrder,
			item.ItemName,
			item.Quantity,
			item.Unit,
			item.Description,
			item.SpecsBrand,
			item.IsUrgent,
			item.SiteID,
			item.Status,
			item.Version,
			item.CreatedBy,
			item.DeliveredQuantity,
			item.RequiredBy,
			item.CreatedAt,
			item.UpdatedAt,
		)
		if err != nil {
			r.logger.Error("Failed to create request item", zap.Error(err), zap.String("request_number", item.RequestNumber))
			return fmt.Errorf("failed to create request item: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get last insert id: %w", err)
		}
		item.ID = id
	}
	return nil
}

// GetItemByID retrieves one line item by id
func (r *RequestRepository) GetItemByID(ctx context.Context, id int64) (*entity.RequestItem, error) {
	query := `SELECT ` + requestItemColumns + ` FROM request_items WHERE id = ?`

	item, err := scanRequestItem(sqlite.ExecutorFor(ctx, r.db).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get request item", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get request item: %w", err)
	}
	return item, nil
}

// GetGroup retrieves every line item sharing a request number, in item order.
func (r *RequestRepository) GetGroup(ctx context.Context, requestNumber string) ([]*entity.RequestItem, error) {
	query := `SELECT ` + requestItemColumns + ` FROM request_items WHERE request_number = ? ORDER BY item_order`

	rows, err := sqlite.ExecutorFor(ctx, r.db).QueryContext(ctx, query, requestNumber)
	if err != nil {
		r.logger.Error("Failed to get request group", zap.String("request_number", requestNumber), zap.Error(err))
		return nil, fmt.Errorf("failed to get request group: %w", err)
	}
	defer rows.Close()

	return collectRequestItems(rows)
}

// List retrieves line items matching the filter, urgent first, then newest
// request first.
func (r *RequestRepository) List(ctx context.Context, filter port.RequestListFilter) ([]*entity.RequestItem, error) {
	query := `SELECT ` + requestItemColumns + ` FROM request_items WHERE 1=1`
	var args []interface{}

	if filter.CreatedBy != "" {
		query += " AND created_by = ?"
		args = append(args, filter.CreatedBy)
	}
	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, filter.Status)
	}
	if filter.SiteID != 0 {
		query += " AND site_id = ?"
		args = append(args, filter.SiteID)
	}
	query += " ORDER BY is_urgent DESC, request_number DESC, item_order LIMIT ? OFFSET ?"
	args = append(args, filter.Limit, filter.Offset)

	rows, err := sqlite.ExecutorFor(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list request items", zap.Error(err))
		return nil, fmt.Errorf("failed to list request items: %w", err)
	}
	defer rows.Close()

	return collectRequestItems(rows)
}

// UpdateGroupStatus transitions a whole group, guarded by the expected
// pre-state on every row. Returns how many rows matched. An empty reason
// leaves any stored rejection reason untouched.
func (r *RequestRepository) UpdateGroupStatus(ctx context.Context, requestNumber string, from, to workflow.State, rejectionReason string) (int64, error) {
	query := `
		UPDATE request_items
		SET status = ?, version = version + 1,
			rejection_reason = CASE WHEN ? = '' THEN rejection_reason ELSE ? END,
			updated_at = CURRENT_TIMESTAMP
		WHERE request_number = ? AND status = ?
	`

	result, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, query, to, rejectionReason, rejectionReason, requestNumber, from)
	if err != nil {
		r.logger.Error("Failed to update group status", zap.String("request_number", requestNumber), zap.Error(err))
		return 0, fmt.Errorf("failed to update group status: %w", err)
	}
	return result.RowsAffected()
}

// UpdateItemStatus transitions one item, guarded by status and version.
func (r *RequestRepository) UpdateItemStatus(ctx context.Context, id int64, from, to workflow.State, version int64) (bool, error) {
	query := `
		UPDATE request_items
		SET status = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = ? AND version = ?
	`

	result, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, query, to, id, from, version)
	if err != nil {
		r.logger.Error("Failed to update item status", zap.Int64("id", id), zap.Error(err))
		return false, fmt.Errorf("failed to update item status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

// UpdateDelivered transitions one item and records its cumulative delivered
// quantity in the same guarded write.
func (r *RequestRepository) UpdateDelivered(ctx context.Context, id int64, from, to workflow.State, version int64, deliveredQuantity float64) (bool, error) {
	query := `
		UPDATE request_items
		SET status = ?, version = version + 1, delivered_quantity = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = ? AND version = ?
	`

	result, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, query, to, deliveredQuantity, id, from, version)
	if err != nil {
		r.logger.Error("Failed to update delivered quantity", zap.Int64("id", id), zap.Error(err))
		return false, fmt.Errorf("failed to update delivered quantity: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

// ReplaceDraftItems swaps the line items of a draft group in place.
func (r *RequestRepository) ReplaceDraftItems(ctx context.Context, requestNumber string, items []*entity.RequestItem) error {
	exec := sqlite.ExecutorFor(ctx, r.db)

	if _, err := exec.ExecContext(ctx, `DELETE FROM request_items WHERE request_number = ?`, requestNumber); err != nil {
		r.logger.Error("Failed to clear draft items", zap.String("request_number", requestNumber), zap.Error(err))
		return fmt.Errorf("failed to clear draft items: %w", err)
	}
	return r.CreateItems(ctx, items)
}

// DeleteGroup hard-deletes a group while every row holds the given status.
func (r *RequestRepository) DeleteGroup(ctx context.Context, requestNumber string, status workflow.State) (int64, error) {
	query := `DELETE FROM request_items WHERE request_number = ? AND status = ?`

	result, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, query, requestNumber, status)
	if err != nil {
		r.logger.Error("Failed to delete group", zap.String("request_number", requestNumber), zap.Error(err))
		return 0, fmt.Errorf("failed to delete group: %w", err)
	}
	return result.RowsAffected()
}

// NextRequestNumber allocates the next request number from the sequence
// table. Safe under concurrency; callers run it inside a transaction.
func (r *RequestRepository) NextRequestNumber(ctx context.Context) (string, error) {
	query := `
		INSERT INTO sequences (name, value) VALUES ('request', 1)
		ON CONFLICT(name) DO UPDATE SET value = value + 1
		RETURNING value
	`

	var value int64
	if err := sqlite.ExecutorFor(ctx, r.db).QueryRowContext(ctx, query).Scan(&value); err != nil {
		r.logger.Error("Failed to allocate request number", zap.Error(err))
		return "", fmt.Errorf("failed to allocate request number: %w", err)
	}
	return fmt.Sprintf("REQ-%05d", value), nil
}

// CountBySite counts line items referencing a site.
func (r *RequestRepository) CountBySite(ctx context.Context, siteID int64) (int64, error) {
	var count int64
	err := sqlite.ExecutorFor(ctx, r.db).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM request_items WHERE site_id = ?`, siteID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count items by site: %w", err)
	}
	return count, nil
}

// CountByStatus returns the dashboard status projection.
func (r *RequestRepository) CountByStatus(ctx context.Context) ([]*entity.StatusCount, error) {
	rows, err := sqlite.ExecutorFor(ctx, r.db).QueryContext(ctx,
		`SELECT status, COUNT(*) FROM request_items GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count items by status: %w", err)
	}
	defer rows.Close()

	var counts []*entity.StatusCount
	for rows.Next() {
		var sc entity.StatusCount
		if err := rows.Scan(&sc.Status, &sc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		counts = append(counts, &sc)
	}
	return counts, rows.Err()
}

// TopSites returns the sites with the most request items, descending.
func (r *RequestRepository) TopSites(ctx context.Context, limit int) ([]*entity.SiteVolume, error) {
	query := `
		SELECT s.id, s.name, COUNT(ri.id) AS volume
		FROM request_items ri
		JOIN sites s ON s.id = ri.site_id
		GROUP BY s.id, s.name
		ORDER BY volume DESC
		LIMIT ?
	`

	rows, err := sqlite.ExecutorFor(ctx, r.db).QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to rank sites: %w", err)
	}
	defer rows.Close()

	var sites []*entity.SiteVolume
	for rows.Next() {
		var sv entity.SiteVolume
		if err := rows.Scan(&sv.SiteID, &sv.SiteName, &sv.Requests); err != nil {
			return nil, fmt.Errorf("failed to scan site volume: %w", err)
		}
		sites = append(sites, &sv)
	}
	return sites, rows.Err()
}

// rowScanner abstracts *sql.Row and *sql.Rows for the shared scan helpers.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRequestItem(row rowScanner) (*entity.RequestItem, error) {
	var item entity.RequestItem
	var description, specsBrand, rejectionReason sql.NullString
	var requiredBy sql.NullTime

	err := row.Scan(
		&item.ID,
		&item.RequestNumber,
		&item.ItemOrder,
		&item.ItemName,
		&item.Quantity,
		&item.Unit,
		&description,
		&specsBrand,
		&item.IsUrgent,
		&item.SiteID,
		&item.Status,
		&item.Version,
		&item.CreatedBy,
		&rejectionReason,
		&item.DeliveredQuantity,
		&requiredBy,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	item.Description = description.String
	item.SpecsBrand = specsBrand.String
	item.RejectionReason = rejectionReason.String
	if requiredBy.Valid {
		item.RequiredBy = &requiredBy.Time
	}
	return &item, nil
}

func collectRequestItems(rows *sql.Rows) ([]*entity.RequestItem, error) {
	var items []*entity.RequestItem
	for rows.Next() {
		item, err := scanRequestItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan request item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Verify interface compliance
var _ port.RequestRepository = (*RequestRepository)(nil)
