package service

import (
	"context"

	"github.com/krishsoni15/procureflow/internal/application/port"
	"github.com/krishsoni15/procureflow/internal/application/report"
	"github.com/krishsoni15/procureflow/internal/domain/apperr"
	"github.com/krishsoni15/procureflow/internal/domain/entity"
	"github.com/krishsoni15/procureflow/internal/domain/workflow"
)

// NoteService exposes the audit trail and the goods-received log.
// Site engineers only see notes belonging to their own requests.
type NoteService interface {
	ForRequest(ctx context.Context, actor entity.Actor, requestNumber string) ([]*entity.Note, error)
	GRNLog(ctx context.Context, actor entity.Actor, limit, offset int) ([]*entity.Note, error)
	ExportGRN(ctx context.Context, actor entity.Actor) ([]byte, error)
}

type noteServiceImpl struct {
	noteRepo    port.NoteRepository
	requestRepo port.RequestRepository
	logger      Logger
}

// NewNoteService creates a new NoteService
func NewNoteService(noteRepo port.NoteRepository, requestRepo port.RequestRepository, logger Logger) NoteService {
	return &noteServiceImpl{noteRepo: noteRepo, requestRepo: requestRepo, logger: logger}
}

// ForRequest returns the audit trail of one request, oldest first.
func (s *noteServiceImpl) ForRequest(ctx context.Context, actor entity.Actor, requestNumber string) ([]*entity.Note, error) {
	items, err := s.requestRepo.GetGroup(ctx, requestNumber)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, apperr.NotFoundf("request %s not found", requestNumber)
	}
	if actor.Role == workflow.RoleSiteEngineer && items[0].CreatedBy != actor.UserID {
		return nil, apperr.Forbidden("site engineers can only view their own requests")
	}

	return s.noteRepo.GetByRequestNumber(ctx, requestNumber)
}

// GRNLog returns goods-received entries, scoped to the caller's own requests
// for site engineers.
func (s *noteServiceImpl) GRNLog(ctx context.Context, actor entity.Actor, limit, offset int) ([]*entity.Note, error) {
	if limit <= 0 {
		limit = 100
	}

	all, err := s.listForActor(ctx, actor, limit, offset)
	if err != nil {
		return nil, err
	}
	return filterGRN(all), nil
}

// ExportGRN renders the caller's goods-received log as an xlsx workbook.
func (s *noteServiceImpl) ExportGRN(ctx context.Context, actor entity.Actor) ([]byte, error) {
	// unpaged; the export covers the full visible log
	all, err := s.listForActor(ctx, actor, 0, 0)
	if err != nil {
		return nil, err
	}

	data, err := report.BuildGRNWorkbook(filterGRN(all))
	if err != nil {
		s.logger.Error("Failed to build GRN export", "error", err, "user_id", actor.UserID)
		return nil, apperr.Internal("build GRN export", err)
	}

	s.logger.Info("GRN export generated", "user_id", actor.UserID)
	return data, nil
}

func (s *noteServiceImpl) listForActor(ctx context.Context, actor entity.Actor, limit, offset int) ([]*entity.Note, error) {
	if actor.Role == workflow.RoleSiteEngineer {
		return s.noteRepo.ListForCreator(ctx, actor.UserID, limit, offset)
	}
	return s.noteRepo.ListAll(ctx, limit, offset)
}

func filterGRN(notes []*entity.Note) []*entity.Note {
	out := make([]*entity.Note, 0, len(notes))
	for _, n := range notes {
		if n.Type == entity.NoteTypeGRN {
			out = append(out, n)
		}
	}
	return out
}
