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

// UserRepository implements port.UserRepository
type UserRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sql.DB, logger *zap.Logger) port.UserRepository {
	return &UserRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a user account.
func (r *UserRepository) Create(ctx context.Context, user *entity.User) error {
	query := `INSERT INTO users (id, name, role, site_id, is_active, created_at) VALUES (?, ?, ?, ?, ?, ?)`

	_, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, query,
		user.ID, user.Name, user.Role, user.SiteID, user.IsActive, user.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to create user", zap.String("id", user.ID), zap.Error(err))
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by id
func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	query := `SELECT id, name, role, site_id, is_active, created_at FROM users WHERE id = ?`

	var user entity.User
	var siteID sql.NullInt64
	err := sqlite.ExecutorFor(ctx, r.db).QueryRowContext(ctx, query, id).Scan(
		&user.ID, &user.Name, &user.Role, &siteID, &user.IsActive, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get user", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if siteID.Valid {
		user.SiteID = &siteID.Int64
	}
	return &user, nil
}

// CountBySite counts users assigned to a site.
func (r *UserRepository) CountBySite(ctx context.Context, siteID int64) (int64, error) {
	var count int64
	err := sqlite.ExecutorFor(ctx, r.db).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE site_id = ?`, siteID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count users by site: %w", err)
	}
	return count, nil
}

// Verify interface compliance
var _ port.UserRepository = (*UserRepository)(nil)
