package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krishsoni15/procureflow/internal/application/port"
	"github.com/krishsoni15/procureflow/internal/domain/apperr"
	"github.com/krishsoni15/procureflow/internal/domain/entity"
	"github.com/krishsoni15/procureflow/internal/domain/event"
	"github.com/krishsoni15/procureflow/internal/domain/workflow"
)

var (
	engineer = entity.Actor{UserID: "eng-1", Name: "Asha", Role: workflow.RoleSiteEngineer}
	manager  = entity.Actor{UserID: "mgr-1", Name: "Ravi", Role: workflow.RoleManager}
)

func validCreateInput() CreateRequestInput {
	return CreateRequestInput{
		SiteID: 1,
		Items: []RequestItemInput{
			{ItemName: "Cement OPC 53", Quantity: 100, Unit: "bag"},
			{ItemName: "Steel Rod 12mm", Quantity: 500, Unit: "kg", IsUrgent: true},
		},
	}
}

func activeSite(id int64) *entity.Site {
	return &entity.Site{ID: id, Name: "Site A", IsActive: true}
}

func groupFixture(number string, status workflow.State, createdBy string, n int) []*entity.RequestItem {
	items := make([]*entity.RequestItem, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, &entity.RequestItem{
			ID:            int64(i + 1),
			RequestNumber: number,
			ItemOrder:     i + 1,
			ItemName:      "Cement OPC 53",
			Quantity:      100,
			Unit:          "bag",
			SiteID:        1,
			Status:        status,
			Version:       1,
			CreatedBy:     createdBy,
			CreatedAt:     time.Now(),
		})
	}
	return items
}

func newRequestService(requestRepo *mockRequestRepo, siteRepo *mockSiteRepo, noteRepo *mockNoteRepo, events *mockDispatcher) RequestService {
	if siteRepo == nil {
		siteRepo = &mockSiteRepo{
			GetByIDFn: func(ctx context.Context, id int64) (*entity.Site, error) {
				return activeSite(id), nil
			},
		}
	}
	if noteRepo == nil {
		noteRepo = &mockNoteRepo{}
	}
	if events == nil {
		return NewRequestService(requestRepo, siteRepo, noteRepo, passthroughTx{}, nil, nopLogger{})
	}
	return NewRequestService(requestRepo, siteRepo, noteRepo, passthroughTx{}, events, nopLogger{})
}

func TestRequestCreate(t *testing.T) {
	t.Run("creates draft group with sequential order", func(t *testing.T) {
		var created []*entity.RequestItem
		repo := &mockRequestRepo{
			CreateItemsFn: func(ctx context.Context, items []*entity.RequestItem) error {
				created = items
				return nil
			},
		}
		svc := newRequestService(repo, nil, nil, nil)

		group, err := svc.Create(context.Background(), engineer, validCreateInput())
		require.NoError(t, err)

		assert.Equal(t, "REQ-00001", group.RequestNumber)
		assert.Equal(t, workflow.StateDraft, group.Status)
		assert.True(t, group.IsUrgent)
		require.Len(t, created, 2)
		assert.Equal(t, 1, created[0].ItemOrder)
		assert.Equal(t, 2, created[1].ItemOrder)
		assert.Equal(t, engineer.UserID, created[0].CreatedBy)
		assert.Equal(t, int64(1), created[0].Version)
	})

	t.Run("only site engineers may create", func(t *testing.T) {
		svc := newRequestService(&mockRequestRepo{}, nil, nil, nil)

		_, err := svc.Create(context.Background(), manager, validCreateInput())
		require.Error(t, err)
		assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
	})

	t.Run("rejects empty item list", func(t *testing.T) {
		svc := newRequestService(&mockRequestRepo{}, nil, nil, nil)

		_, err := svc.Create(context.Background(), engineer, CreateRequestInput{SiteID: 1})
		require.Error(t, err)
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		svc := newRequestService(&mockRequestRepo{}, nil, nil, nil)

		input := validCreateInput()
		input.Items[0].Quantity = 0
		_, err := svc.Create(context.Background(), engineer, input)
		require.Error(t, err)
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	})

	t.Run("rejects inactive site", func(t *testing.T) {
		siteRepo := &mockSiteRepo{
			GetByIDFn: func(ctx context.Context, id int64) (*entity.Site, error) {
				return &entity.Site{ID: id, Name: "Old Yard", IsActive: false}, nil
			},
		}
		svc := newRequestService(&mockRequestRepo{}, siteRepo, nil, nil)

		_, err := svc.Create(context.Background(), engineer, validCreateInput())
		require.Error(t, err)
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	})

	t.Run("rejects unknown site", func(t *testing.T) {
		siteRepo := &mockSiteRepo{
			GetByIDFn: func(ctx context.Context, id int64) (*entity.Site, error) {
				return nil, nil
			},
		}
		svc := newRequestService(&mockRequestRepo{}, siteRepo, nil, nil)

		_, err := svc.Create(context.Background(), engineer, validCreateInput())
		require.Error(t, err)
		assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	})

	t.Run("publishes request.created", func(t *testing.T) {
		events := &mockDispatcher{}
		svc := newRequestService(&mockRequestRepo{}, nil, nil, events)

		_, err := svc.Create(context.Background(), engineer, validCreateInput())
		require.NoError(t, err)

		require.Len(t, events.events, 1)
		assert.Equal(t, event.TypeRequestCreated, events.events[0].Type)
		assert.Equal(t, "REQ-00001", events.events[0].RequestNumber)
	})
}

func TestRequestSend(t *testing.T) {
	t.Run("owner sends draft to pending", func(t *testing.T) {
		var gotFrom, gotTo workflow.State
		repo := &mockRequestRepo{
			GetGroupFn: func(ctx context.Context, number string) ([]*entity.RequestItem, error) {
				return groupFixture(number, workflow.StateDraft, engineer.UserID, 2), nil
			},
			UpdateGroupStatusFn: func(ctx context.Context, number string, from, to workflow.State, reason string) (int64, error) {
				gotFrom, gotTo = from, to
				return 2, nil
			},
		}
		noteRepo := &mockNoteRepo{}
		svc := newRequestService(repo, nil, noteRepo, nil)

		require.NoError(t, svc.Send(context.Background(), engineer, "REQ-00001"))
		assert.Equal(t, workflow.StateDraft, gotFrom)
		assert.Equal(t, workflow.StatePending, gotTo)
		require.Len(t, noteRepo.created, 1)
		assert.Equal(t, entity.NoteTypeNote, noteRepo.created[0].Type)
	})

	t.Run("non-owner cannot send", func(t *testing.T) {
		repo := &mockRequestRepo{
			GetGroupFn: func(ctx context.Context, number string) ([]*entity.RequestItem, error) {
				return groupFixture(number, workflow.StateDraft, "someone-else", 1), nil
			},
		}
		svc := newRequestService(repo, nil, nil, nil)

		err := svc.Send(context.Background(), engineer, "REQ-00001")
		require.Error(t, err)
		assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
	})

	t.Run("concurrent modification surfaces as conflict", func(t *testing.T) {
		repo := &mockRequestRepo{
			GetGroupFn: func(ctx context.Context, number string) ([]*entity.RequestItem, error) {
				return groupFixture(number, workflow.StateDraft, engineer.UserID, 3), nil
			},
			UpdateGroupStatusFn: func(ctx context.Context, number string, from, to workflow.State, reason string) (int64, error) {
				return 2, nil // one row already advanced
			},
		}
		svc := newRequestService(repo, nil, nil, nil)

		err := svc.Send(context.Background(), engineer, "REQ-00001")
		require.Error(t, err)
		assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	})

	t.Run("non-uniform group is rejected", func(t *testing.T) {
		repo := &mockRequestRepo{
			GetGroupFn: func(ctx context.Context, number string) ([]*entity.RequestItem, error) {
				items := groupFixture(number, workflow.StateDraft, engineer.UserID, 2)
				items[1].Status = workflow.StatePending
				return items, nil
			},
		}
		svc := newRequestService(repo, nil, nil, nil)

		err := svc.Send(context.Background(), engineer, "REQ-00001")
		require.Error(t, err)
		assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	})

	t.Run("unknown request is not found", func(t *testing.T) {
		svc := newRequestService(&mockRequestRepo{}, nil, nil, nil)

		err := svc.Send(context.Background(), engineer, "REQ-09999")
		require.Error(t, err)
		assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	})
}

func TestRequestApprove(t *testing.T) {
	t.Run("manager approves pending group and writes notification", func(t *testing.T) {
		repo := &mockRequestRepo{
			GetGroupFn: func(ctx context.Context, number string) ([]*entity.RequestItem, error) {
				return groupFixture(number, workflow.StatePending, engineer.UserID, 2), nil
			},
			UpdateGroupStatusFn: func(ctx context.Context, number string, from, to workflow.State, reason string) (int64, error) {
				return 2, nil
			},
		}
		noteRepo := &mockNoteRepo{}
		svc := newRequestService(repo, nil, noteRepo, nil)

		require.NoError(t, svc.Approve(context.Background(), manager, "REQ-00001"))
		require.Len(t, noteRepo.created, 2)
		assert.Equal(t, entity.NoteTypeNotification, noteRepo.created[1].Type)
	})

	t.Run("site engineer cannot approve", func(t *testing.T) {
		repo := &mockRequestRepo{
			GetGroupFn: func(ctx context.Context, number string) ([]*entity.RequestItem, error) {
				return groupFixture(number, workflow.StatePending, engineer.UserID, 1), nil
			},
		}
		svc := newRequestService(repo, nil, nil, nil)

		err := svc.Approve(context.Background(), engineer, "REQ-00001")
		require.Error(t, err)
		assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
	})

	t.Run("approving a draft is a conflict", func(t *testing.T) {
		repo := &mockRequestRepo{
			GetGroupFn: func(ctx context.Context, number string) ([]*entity.RequestItem, error) {
				return groupFixture(number, workflow.StateDraft, engineer.UserID, 1), nil
			},
		}
		svc := newRequestService(repo, nil, nil, nil)

		err := svc.Approve(context.Background(), manager, "REQ-00001")
		require.Error(t, err)
		assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	})
}

func TestRequestReject(t *testing.T) {
	t.Run("requires a reason", func(t *testing.T) {
		svc := newRequestService(&mockRequestRepo{}, nil, nil, nil)

		err := svc.Reject(context.Background(), manager, "REQ-00001", "  ")
		require.Error(t, err)
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	})

	t.Run("records reason on the guarded update", func(t *testing.T) {
		var gotReason string
		repo := &mockRequestRepo{
			GetGroupFn: func(ctx context.Context, number string) ([]*entity.RequestItem, error) {
				return groupFixture(number, workflow.StatePending, engineer.UserID, 1), nil
			},
			UpdateGroupStatusFn: func(ctx context.Context, number string, from, to workflow.State, reason string) (int64, error) {
				gotReason = reason
				return 1, nil
			},
		}
		svc := newRequestService(repo, nil, nil, nil)

		require.NoError(t, svc.Reject(context.Background(), manager, "REQ-00001", "over budget"))
		assert.Equal(t, "over budget", gotReason)
	})
}

func TestRequestRecheckResend(t *testing.T) {
	repo := func(status workflow.State) *mockRequestRepo {
		return &mockRequestRepo{
			GetGroupFn: func(ctx context.Context, number string) ([]*entity.RequestItem, error) {
				return groupFixture(number, status, engineer.UserID, 1), nil
			},
			UpdateGroupStatusFn: func(ctx context.Context, number string, from, to workflow.State, reason string) (int64, error) {
				return 1, nil
			},
		}
	}

	t.Run("manager sends pending back for recheck", func(t *testing.T) {
		svc := newRequestService(repo(workflow.StatePending), nil, nil, nil)
		require.NoError(t, svc.Recheck(context.Background(), manager, "REQ-00001", "split the steel items"))
	})

	t.Run("owner resends rechecked group", func(t *testing.T) {
		svc := newRequestService(repo(workflow.StateRecheck), nil, nil, nil)
		require.NoError(t, svc.Resend(context.Background(), engineer, "REQ-00001"))
	})

	t.Run("non-owner cannot resend", func(t *testing.T) {
		other := entity.Actor{UserID: "eng-2", Role: workflow.RoleSiteEngineer}
		svc := newRequestService(repo(workflow.StateRecheck), nil, nil, nil)

		err := svc.Resend(context.Background(), other, "REQ-00001")
		require.Error(t, err)
		assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
	})
}

func TestRequestDeleteDraft(t *testing.T) {
	t.Run("deletes own draft", func(t *testing.T) {
		repo := &mockRequestRepo{
			GetGroupFn: func(ctx context.Context, number string) ([]*entity.RequestItem, error) {
				return groupFixture(number, workflow.StateDraft, engineer.UserID, 2), nil
			},
			DeleteGroupFn: func(ctx context.Context, number string, status workflow.State) (int64, error) {
				return 2, nil
			},
		}
		svc := newRequestService(repo, nil, nil, nil)

		require.NoError(t, svc.DeleteDraft(context.Background(), engineer, "REQ-00001"))
	})

	t.Run("sent requests cannot be deleted", func(t *testing.T) {
		repo := &mockRequestRepo{
			GetGroupFn: func(ctx context.Context, number string) ([]*entity.RequestItem, error) {
				return groupFixture(number, workflow.StatePending, engineer.UserID, 1), nil
			},
		}
		svc := newRequestService(repo, nil, nil, nil)

		err := svc.DeleteDraft(context.Background(), engineer, "REQ-00001")
		require.Error(t, err)
		assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	})
}

func TestRequestGet(t *testing.T) {
	repo := &mockRequestRepo{
		GetGroupFn: func(ctx context.Context, number string) ([]*entity.RequestItem, error) {
			return groupFixture(number, workflow.StatePending, engineer.UserID, 1), nil
		},
	}
	svc := newRequestService(repo, nil, nil, nil)

	t.Run("owner reads own request", func(t *testing.T) {
		group, err := svc.Get(context.Background(), engineer, "REQ-00001")
		require.NoError(t, err)
		assert.Equal(t, "REQ-00001", group.RequestNumber)
	})

	t.Run("another engineer is forbidden", func(t *testing.T) {
		other := entity.Actor{UserID: "eng-2", Role: workflow.RoleSiteEngineer}
		_, err := svc.Get(context.Background(), other, "REQ-00001")
		require.Error(t, err)
		assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
	})

	t.Run("manager reads any request", func(t *testing.T) {
		_, err := svc.Get(context.Background(), manager, "REQ-00001")
		require.NoError(t, err)
	})
}

func TestRequestList(t *testing.T) {
	t.Run("site engineers are scoped to their own requests", func(t *testing.T) {
		var gotFilter port.RequestListFilter
		repo := &mockRequestRepo{
			ListFn: func(ctx context.Context, filter port.RequestListFilter) ([]*entity.RequestItem, error) {
				gotFilter = filter
				return nil, nil
			},
		}
		svc := newRequestService(repo, nil, nil, nil)

		_, err := svc.List(context.Background(), engineer, RequestListQuery{})
		require.NoError(t, err)
		assert.Equal(t, engineer.UserID, gotFilter.CreatedBy)
		assert.Equal(t, 100, gotFilter.Limit)
	})

	t.Run("managers see everything", func(t *testing.T) {
		var gotFilter port.RequestListFilter
		repo := &mockRequestRepo{
			ListFn: func(ctx context.Context, filter port.RequestListFilter) ([]*entity.RequestItem, error) {
				gotFilter = filter
				return nil, nil
			},
		}
		svc := newRequestService(repo, nil, nil, nil)

		_, err := svc.List(context.Background(), manager, RequestListQuery{Limit: 20})
		require.NoError(t, err)
		assert.Empty(t, gotFilter.CreatedBy)
		assert.Equal(t, 20, gotFilter.Limit)
	})

	t.Run("search term filters the grouped result", func(t *testing.T) {
		repo := &mockRequestRepo{
			ListFn: func(ctx context.Context, filter port.RequestListFilter) ([]*entity.RequestItem, error) {
				a := groupFixture("REQ-00001", workflow.StatePending, engineer.UserID, 1)
				b := groupFixture("REQ-00002", workflow.StatePending, engineer.UserID, 1)
				b[0].ItemName = "Plywood 18mm"
				return append(a, b...), nil
			},
		}
		svc := newRequestService(repo, nil, nil, nil)

		groups, err := svc.List(context.Background(), manager, RequestListQuery{Q: "plywood"})
		require.NoError(t, err)
		require.Len(t, groups, 1)
		assert.Equal(t, "REQ-00002", groups[0].RequestNumber)
	})
}
