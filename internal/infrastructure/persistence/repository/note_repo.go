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

const noteColumns = `id, request_number, user_id, role, status, type, content, created_at`

// NoteRepository implements port.NoteRepository
type NoteRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewNoteRepository creates a new note repository
func NewNoteRepository(db *sql.DB, logger *zap.Logger) port.NoteRepository {
	return &NoteRepository{
		db:     db,
		logger: logger,
	}
}

// Create appends one audit note. Notes are never updated or deleted.
func (r *NoteRepository) Create(ctx context.Context, note *entity.Note) error {
	query := `
		INSERT INTO notes (request_number, user_id, role, status, type, content, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	result, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, query,
		note.RequestNumber, note.UserID, note.Role, note.Status, note.Type, note.Content, note.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to create note", zap.String("request_number", note.RequestNumber), zap.Error(err))
		return fmt.Errorf("failed to create note: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	note.ID = id
	return nil
}

// GetByRequestNumber retrieves the audit trail of one request, oldest first.
func (r *NoteRepository) GetByRequestNumber(ctx context.Context, requestNumber string) ([]*entity.Note, error) {
	query := `SELECT ` + noteColumns + ` FROM notes WHERE request_number = ? ORDER BY created_at`

	rows, err := sqlite.ExecutorFor(ctx, r.db).QueryContext(ctx, query, requestNumber)
	if err != nil {
		r.logger.Error("Failed to get notes", zap.String("request_number", requestNumber), zap.Error(err))
		return nil, fmt.Errorf("failed to get notes: %w", err)
	}
	defer rows.Close()

	return collectNotes(rows)
}

// ListAll retrieves notes across all requests, newest first. A non-positive
// limit means no limit.
func (r *NoteRepository) ListAll(ctx context.Context, limit, offset int) ([]*entity.Note, error) {
	query := `SELECT ` + noteColumns + ` FROM notes ORDER BY created_at DESC LIMIT ? OFFSET ?`
	if limit <= 0 {
		limit = -1
	}

	rows, err := sqlite.ExecutorFor(ctx, r.db).QueryContext(ctx, query, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list notes", zap.Error(err))
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	defer rows.Close()

	return collectNotes(rows)
}

// ListForCreator retrieves notes for requests created by one user, newest
// first.
func (r *NoteRepository) ListForCreator(ctx context.Context, createdBy string, limit, offset int) ([]*entity.Note, error) {
	query := `
		SELECT ` + noteColumns + `
		FROM notes
		WHERE request_number IN (SELECT DISTINCT request_number FROM request_items WHERE created_by = ?)
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`
	if limit <= 0 {
		limit = -1
	}

	rows, err := sqlite.ExecutorFor(ctx, r.db).QueryContext(ctx, query, createdBy, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list notes for creator", zap.String("created_by", createdBy), zap.Error(err))
		return nil, fmt.Errorf("failed to list notes for creator: %w", err)
	}
	defer rows.Close()

	return collectNotes(rows)
}

func collectNotes(rows *sql.Rows) ([]*entity.Note, error) {
	var notes []*entity.Note
	for rows.Next() {
		var n entity.Note
		if err := rows.Scan(&n.ID, &n.RequestNumber, &n.UserID, &n.Role, &n.Status, &n.Type, &n.Content, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan note: %w", err)
		}
		notes = append(notes, &n)
	}
	return notes, rows.Err()
}

// Verify interface compliance
var _ port.NoteRepository = (*NoteRepository)(nil)
