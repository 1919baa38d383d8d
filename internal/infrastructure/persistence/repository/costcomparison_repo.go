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

// CostComparisonRepository implements port.CostComparisonRepository
type CostComparisonRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewCostComparisonRepository creates a new cost comparison repository
func NewCostComparisonRepository(db *sql.DB, logger *zap.Logger) port.CostComparisonRepository {
	return &CostComparisonRepository{
		db:     db,
		logger: logger,
	}
}

// GetByItemID retrieves the comparison attached to a request item, with its
// quotes.
func (r *CostComparisonRepository) GetByItemID(ctx context.Context, requestItemID int64) (*entity.CostComparison, error) {
	query := `
		SELECT id, request_item_id, status, is_direct_delivery, manager_notes,
			created_by, created_at, updated_at
		FROM cost_comparisons
		WHERE request_item_id = ?
	`

	exec := sqlite.ExecutorFor(ctx, r.db)

	var cc entity.CostComparison
	var managerNotes sql.NullString
	err := exec.QueryRowContext(ctx, query, requestItemID).Scan(
		&cc.ID,
		&cc.RequestItemID,
		&cc.Status,
		&cc.IsDirectDelivery,
		&managerNotes,
		&cc.CreatedBy,
		&cc.CreatedAt,
		&cc.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get cost comparison", zap.Int64("request_item_id", requestItemID), zap.Error(err))
		return nil, fmt.Errorf("failed to get cost comparison: %w", err)
	}
	cc.ManagerNotes = managerNotes.String

	rows, err := exec.QueryContext(ctx,
		`SELECT id, cost_comparison_id, vendor_id, unit_price FROM cost_comparison_quotes WHERE cost_comparison_id = ? ORDER BY id`,
		cc.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get quotes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var q entity.VendorQuote
		if err := rows.Scan(&q.ID, &q.CostComparisonID, &q.VendorID, &q.UnitPrice); err != nil {
			return nil, fmt.Errorf("failed to scan quote: %w", err)
		}
		cc.Quotes = append(cc.Quotes, &q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &cc, nil
}

// Upsert writes the comparison row for an item and replaces its quote set.
func (r *CostComparisonRepository) Upsert(ctx context.Context, cc *entity.CostComparison) error {
	exec := sqlite.ExecutorFor(ctx, r.db)

	query := `
		INSERT INTO cost_comparisons (
			request_item_id, status, is_direct_delivery, manager_notes,
			created_by, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(request_item_id) DO UPDATE SET
			status = excluded.status,
			is_direct_delivery = excluded.is_direct_delivery,
			manager_notes = excluded.manager_notes,
			updated_at = excluded.updated_at
		RETURNING id
	`

	err := exec.QueryRowContext(ctx, query,
		cc.RequestItemID,
		cc.Status,
		cc.IsDirectDelivery,
		cc.ManagerNotes,
		cc.CreatedBy,
		cc.CreatedAt,
		cc.UpdatedAt,
	).Scan(&cc.ID)
	if err != nil {
		r.logger.Error("Failed to upsert cost comparison", zap.Int64("request_item_id", cc.RequestItemID), zap.Error(err))
		return fmt.Errorf("failed to upsert cost comparison: %w", err)
	}

	if _, err := exec.ExecContext(ctx, `DELETE FROM cost_comparison_quotes WHERE cost_comparison_id = ?`, cc.ID); err != nil {
		return fmt.Errorf("failed to clear quotes: %w", err)
	}

	for _, q := range cc.Quotes {
		result, err := exec.ExecContext(ctx,
			`INSERT INTO cost_comparison_quotes (cost_comparison_id, vendor_id, unit_price) VALUES (?, ?, ?)`,
			cc.ID, q.VendorID, q.UnitPrice)
		if err != nil {
			return fmt.Errorf("failed to insert quote: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get last insert id: %w", err)
		}
		q.ID = id
		q.CostComparisonID = cc.ID
	}
	return nil
}

// UpdateStatus updates a comparison's status and manager notes.
func (r *CostComparisonRepository) UpdateStatus(ctx context.Context, id int64, status workflow.State, managerNotes string) error {
	query := `UPDATE cost_comparisons SET status = ?, manager_notes = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`

	_, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, query, status, managerNotes, id)
	if err != nil {
		r.logger.Error("Failed to update cost comparison status", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to update cost comparison status: %w", err)
	}
	return nil
}

// Verify interface compliance
var _ port.CostComparisonRepository = (*CostComparisonRepository)(nil)
