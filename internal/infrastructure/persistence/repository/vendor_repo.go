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

const vendorColumns = `id, name, email, phone, gst_number, address, is_active, created_at`

// VendorRepository implements port.VendorRepository
type VendorRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewVendorRepository creates a new vendor repository
func NewVendorRepository(db *sql.DB, logger *zap.Logger) port.VendorRepository {
	return &VendorRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a vendor.
func (r *VendorRepository) Create(ctx context.Context, vendor *entity.Vendor) error {
	query := `
		INSERT INTO vendors (name, email, phone, gst_number, address, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	result, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, query,
		vendor.Name, vendor.Email, vendor.Phone, vendor.GSTNumber, vendor.Address, vendor.IsActive, vendor.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to create vendor", zap.String("name", vendor.Name), zap.Error(err))
		return fmt.Errorf("failed to create vendor: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	vendor.ID = id
	return nil
}

// Update rewrites a vendor's mutable fields.
func (r *VendorRepository) Update(ctx context.Context, vendor *entity.Vendor) error {
	query := `UPDATE vendors SET name = ?, email = ?, phone = ?, gst_number = ?, address = ?, is_active = ? WHERE id = ?`

	_, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, query,
		vendor.Name, vendor.Email, vendor.Phone, vendor.GSTNumber, vendor.Address, vendor.IsActive, vendor.ID)
	if err != nil {
		r.logger.Error("Failed to update vendor", zap.Int64("id", vendor.ID), zap.Error(err))
		return fmt.Errorf("failed to update vendor: %w", err)
	}
	return nil
}

// GetByID retrieves a vendor by id
func (r *VendorRepository) GetByID(ctx context.Context, id int64) (*entity.Vendor, error) {
	query := `SELECT ` + vendorColumns + ` FROM vendors WHERE id = ?`
	return r.getOne(ctx, query, id)
}

// GetByGST retrieves a vendor by GST number.
func (r *VendorRepository) GetByGST(ctx context.Context, gstNumber string) (*entity.Vendor, error) {
	query := `SELECT ` + vendorColumns + ` FROM vendors WHERE gst_number = ?`
	return r.getOne(ctx, query, gstNumber)
}

func (r *VendorRepository) getOne(ctx context.Context, query string, arg interface{}) (*entity.Vendor, error) {
	vendor, err := scanVendor(sqlite.ExecutorFor(ctx, r.db).QueryRowContext(ctx, query, arg))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get vendor", zap.Error(err))
		return nil, fmt.Errorf("failed to get vendor: %w", err)
	}
	return vendor, nil
}

// List retrieves vendors, optionally active only.
func (r *VendorRepository) List(ctx context.Context, activeOnly bool) ([]*entity.Vendor, error) {
	query := `SELECT ` + vendorColumns + ` FROM vendors`
	if activeOnly {
		query += ` WHERE is_active = 1`
	}
	query += ` ORDER BY name`

	rows, err := sqlite.ExecutorFor(ctx, r.db).QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list vendors", zap.Error(err))
		return nil, fmt.Errorf("failed to list vendors: %w", err)
	}
	defer rows.Close()

	var vendors []*entity.Vendor
	for rows.Next() {
		vendor, err := scanVendor(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan vendor: %w", err)
		}
		vendors = append(vendors, vendor)
	}
	return vendors, rows.Err()
}

// Delete removes a vendor.
func (r *VendorRepository) Delete(ctx context.Context, id int64) error {
	_, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, `DELETE FROM vendors WHERE id = ?`, id)
	if err != nil {
		r.logger.Error("Failed to delete vendor", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete vendor: %w", err)
	}
	return nil
}

func scanVendor(row rowScanner) (*entity.Vendor, error) {
	var vendor entity.Vendor
	var phone, address sql.NullString
	err := row.Scan(
		&vendor.ID, &vendor.Name, &vendor.Email, &phone, &vendor.GSTNumber,
		&address, &vendor.IsActive, &vendor.CreatedAt)
	if err != nil {
		return nil, err
	}
	vendor.Phone = phone.String
	vendor.Address = address.String
	return &vendor, nil
}

// Verify interface compliance
var _ port.VendorRepository = (*VendorRepository)(nil)
