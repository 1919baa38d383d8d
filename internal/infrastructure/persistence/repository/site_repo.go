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

// SiteRepository implements port.SiteRepository
type SiteRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSiteRepository creates a new site repository
func NewSiteRepository(db *sql.DB, logger *zap.Logger) port.SiteRepository {
	return &SiteRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a site.
func (r *SiteRepository) Create(ctx context.Context, site *entity.Site) error {
	query := `INSERT INTO sites (name, location, is_active, created_at) VALUES (?, ?, ?, ?)`

	result, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, query,
		site.Name, site.Location, site.IsActive, site.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to create site", zap.String("name", site.Name), zap.Error(err))
		return fmt.Errorf("failed to create site: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	site.ID = id
	return nil
}

// Update rewrites a site's mutable fields.
func (r *SiteRepository) Update(ctx context.Context, site *entity.Site) error {
	query := `UPDATE sites SET name = ?, location = ?, is_active = ? WHERE id = ?`

	_, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, query,
		site.Name, site.Location, site.IsActive, site.ID)
	if err != nil {
		r.logger.Error("Failed to update site", zap.Int64("id", site.ID), zap.Error(err))
		return fmt.Errorf("failed to update site: %w", err)
	}
	return nil
}

// GetByID retrieves a site by id
func (r *SiteRepository) GetByID(ctx context.Context, id int64) (*entity.Site, error) {
	query := `SELECT id, name, location, is_active, created_at FROM sites WHERE id = ?`

	var site entity.Site
	var location sql.NullString
	err := sqlite.ExecutorFor(ctx, r.db).QueryRowContext(ctx, query, id).Scan(
		&site.ID, &site.Name, &location, &site.IsActive, &site.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get site", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get site: %w", err)
	}
	site.Location = location.String
	return &site, nil
}

// List retrieves sites, optionally active only.
func (r *SiteRepository) List(ctx context.Context, activeOnly bool) ([]*entity.Site, error) {
	query := `SELECT id, name, location, is_active, created_at FROM sites`
	if activeOnly {
		query += ` WHERE is_active = 1`
	}
	query += ` ORDER BY name`

	rows, err := sqlite.ExecutorFor(ctx, r.db).QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list sites", zap.Error(err))
		return nil, fmt.Errorf("failed to list sites: %w", err)
	}
	defer rows.Close()

	var sites []*entity.Site
	for rows.Next() {
		var site entity.Site
		var location sql.NullString
		if err := rows.Scan(&site.ID, &site.Name, &location, &site.IsActive, &site.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan site: %w", err)
		}
		site.Location = location.String
		sites = append(sites, &site)
	}
	return sites, rows.Err()
}

// SetActive toggles a site's active flag.
func (r *SiteRepository) SetActive(ctx context.Context, id int64, active bool) error {
	_, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx,
		`UPDATE sites SET is_active = ? WHERE id = ?`, active, id)
	if err != nil {
		r.logger.Error("Failed to set site active flag", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to set site active flag: %w", err)
	}
	return nil
}

// Delete removes a site.
func (r *SiteRepository) Delete(ctx context.Context, id int64) error {
	_, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, `DELETE FROM sites WHERE id = ?`, id)
	if err != nil {
		r.logger.Error("Failed to delete site", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete site: %w", err)
	}
	return nil
}

// Verify interface compliance
var _ port.SiteRepository = (*SiteRepository)(nil)
