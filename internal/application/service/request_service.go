package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/krishsoni15/procureflow/internal/application/dispatcher"
	"github.com/krishsoni15/procureflow/internal/application/port"
	"github.com/krishsoni15/procureflow/internal/application/search"
	appwf "github.com/krishsoni15/procureflow/internal/application/workflow"
	"github.com/krishsoni15/procureflow/internal/domain/apperr"
	"github.com/krishsoni15/procureflow/internal/domain/entity"
	"github.com/krishsoni15/procureflow/internal/domain/event"
	"github.com/krishsoni15/procureflow/internal/domain/workflow"
	"github.com/krishsoni15/procureflow/internal/metrics"
)

// RequestItemInput is one line item of a create/edit payload.
type RequestItemInput struct {
	ItemName    string  `json:"item_name"`
	Quantity    float64 `json:"quantity"`
	Unit        string  `json:"unit"`
	Description string  `json:"description"`
	SpecsBrand  string  `json:"specs_brand"`
	IsUrgent    bool    `json:"is_urgent"`
}

// CreateRequestInput is the payload for creating a draft request.
type CreateRequestInput struct {
	Items      []RequestItemInput `json:"items"`
	SiteID     int64              `json:"site_id"`
	RequiredBy *time.Time         `json:"required_by"`
}

// RequestListQuery narrows and searches request listings.
type RequestListQuery struct {
	Q      string
	Status workflow.State
	SiteID int64
	Limit  int
	Offset int
}

// RequestService manages the request-level lifecycle: draft creation and
// editing, send, manager approve/reject/recheck, and the grouped read models.
type RequestService interface {
	Create(ctx context.Context, actor entity.Actor, input CreateRequestInput) (*entity.RequestGroup, error)
	UpdateDraft(ctx context.Context, actor entity.Actor, requestNumber string, items []RequestItemInput) (*entity.RequestGroup, error)
	DeleteDraft(ctx context.Context, actor entity.Actor, requestNumber string) error
	Send(ctx context.Context, actor entity.Actor, requestNumber string) error
	Approve(ctx context.Context, actor entity.Actor, requestNumber string) error
	Reject(ctx context.Context, actor entity.Actor, requestNumber string, reason string) error
	Recheck(ctx context.Context, actor entity.Actor, requestNumber string, notes string) error
	Resend(ctx context.Context, actor entity.Actor, requestNumber string) error
	Get(ctx context.Context, actor entity.Actor, requestNumber string) (*entity.RequestGroup, error)
	List(ctx context.Context, actor entity.Actor, query RequestListQuery) ([]*entity.RequestGroup, error)
	StatusCounts(ctx context.Context) ([]*entity.StatusCount, error)
	TopSites(ctx context.Context, limit int) ([]*entity.SiteVolume, error)
}

type requestServiceImpl struct {
	requestRepo port.RequestRepository
	siteRepo    port.SiteRepository
	noteRepo    port.NoteRepository
	txManager   port.TransactionManager
	events      dispatcher.Dispatcher
	logger      Logger
}

// NewRequestService creates a new RequestService. events may be nil.
func NewRequestService(
	requestRepo port.RequestRepository,
	siteRepo port.SiteRepository,
	noteRepo port.NoteRepository,
	txManager port.TransactionManager,
	events dispatcher.Dispatcher,
	logger Logger,
) RequestService {
	return &requestServiceImpl{
		requestRepo: requestRepo,
		siteRepo:    siteRepo,
		noteRepo:    noteRepo,
		txManager:   txManager,
		events:      events,
		logger:      logger,
	}
}

// eventTypeForTrigger maps request-level triggers onto published event types.
func eventTypeForTrigger(trigger workflow.Trigger) event.Type {
	switch trigger {
	case workflow.TriggerSend, workflow.TriggerResend:
		return event.TypeRequestSent
	case workflow.TriggerApprove:
		return event.TypeRequestApproved
	case workflow.TriggerReject:
		return event.TypeRequestRejected
	case workflow.TriggerRecheck:
		return event.TypeRequestRecheck
	default:
		return ""
	}
}

// Create creates a new draft request group owned by the calling site engineer.
func (s *requestServiceImpl) Create(ctx context.Context, actor entity.Actor, input CreateRequestInput) (*entity.RequestGroup, error) {
	if actor.Role != workflow.RoleSiteEngineer {
		return nil, apperr.Forbidden("only site engineers can create material requests")
	}
	if err := validateItems(input.Items); err != nil {
		return nil, err
	}

	site, err := s.siteRepo.GetByID(ctx, input.SiteID)
	if err != nil {
		return nil, err
	}
	if site == nil {
		return nil, apperr.NotFoundf("site %d not found", input.SiteID)
	}
	if !site.IsActive {
		return nil, apperr.Validationf("site %q is inactive", site.Name)
	}

	var group *entity.RequestGroup
	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		number, err := s.requestRepo.NextRequestNumber(txCtx)
		if err != nil {
			return fmt.Errorf("allocate request number: %w", err)
		}

		now := time.Now()
		items := make([]*entity.RequestItem, 0, len(input.Items))
		for i, in := range input.Items {
			items = append(items, &entity.RequestItem{
				RequestNumber: number,
				ItemOrder:     i + 1,
				ItemName:      strings.TrimSpace(in.ItemName),
				Quantity:      in.Quantity,
				Unit:          in.Unit,
				Description:   in.Description,
				SpecsBrand:    in.SpecsBrand,
				IsUrgent:      in.IsUrgent,
				SiteID:        input.SiteID,
				Status:        workflow.StateDraft,
				Version:       1,
				CreatedBy:     actor.UserID,
				RequiredBy:    input.RequiredBy,
				CreatedAt:     now,
				UpdatedAt:     now,
			})
		}

		if err := s.requestRepo.CreateItems(txCtx, items); err != nil {
			return fmt.Errorf("create request items: %w", err)
		}

		group = &entity.RequestGroup{
			RequestNumber: number,
			SiteID:        input.SiteID,
			CreatedBy:     actor.UserID,
			Status:        workflow.StateDraft,
			IsUrgent:      groupUrgent(items),
			Items:         items,
			CreatedAt:     now,
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to create request", "error", err, "user_id", actor.UserID)
		return nil, err
	}

	s.logger.Info("Request created", "request_number", group.RequestNumber, "items", len(group.Items))
	s.publish(ctx, event.TypeRequestCreated, group.RequestNumber, actor, map[string]interface{}{
		"site_id": group.SiteID,
		"items":   len(group.Items),
	})
	return group, nil
}

// UpdateDraft replaces the line items of a draft group. Owner only.
func (s *requestServiceImpl) UpdateDraft(ctx context.Context, actor entity.Actor, requestNumber string, inputs []RequestItemInput) (*entity.RequestGroup, error) {
	if err := validateItems(inputs); err != nil {
		return nil, err
	}

	var group *entity.RequestGroup
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		existing, err := s.loadGroup(txCtx, requestNumber)
		if err != nil {
			return err
		}
		if existing.CreatedBy != actor.UserID {
			return apperr.Forbidden("only the request creator can edit a draft")
		}
		if existing.Status != workflow.StateDraft && existing.Status != workflow.StateRecheck {
			return apperr.Conflict(fmt.Sprintf("request %s is %s and can no longer be edited", requestNumber, existing.Status))
		}

		now := time.Now()
		items := make([]*entity.RequestItem, 0, len(inputs))
		for i, in := range inputs {
			items = append(items, &entity.RequestItem{
				RequestNumber: requestNumber,
				ItemOrder:     i + 1,
				ItemName:      strings.TrimSpace(in.ItemName),
				Quantity:      in.Quantity,
				Unit:          in.Unit,
				Description:   in.Description,
				SpecsBrand:    in.SpecsBrand,
				IsUrgent:      in.IsUrgent,
				SiteID:        existing.SiteID,
				Status:        existing.Status,
				Version:       1,
				CreatedBy:     existing.CreatedBy,
				CreatedAt:     now,
				UpdatedAt:     now,
			})
		}

		if err := s.requestRepo.ReplaceDraftItems(txCtx, requestNumber, items); err != nil {
			return fmt.Errorf("replace draft items: %w", err)
		}

		group = &entity.RequestGroup{
			RequestNumber: requestNumber,
			SiteID:        existing.SiteID,
			CreatedBy:     existing.CreatedBy,
			Status:        existing.Status,
			IsUrgent:      groupUrgent(items),
			Items:         items,
			CreatedAt:     existing.CreatedAt,
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to update draft", "error", err, "request_number", requestNumber)
		return nil, err
	}

	return group, nil
}

// DeleteDraft hard-deletes a draft group. Owner only; sent requests are never
// physically deleted.
func (s *requestServiceImpl) DeleteDraft(ctx context.Context, actor entity.Actor, requestNumber string) error {
	return s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		group, err := s.loadGroup(txCtx, requestNumber)
		if err != nil {
			return err
		}
		if group.CreatedBy != actor.UserID {
			return apperr.Forbidden("only the request creator can delete a draft")
		}
		if group.Status != workflow.StateDraft {
			return apperr.Conflict(fmt.Sprintf("request %s is %s and can no longer be deleted", requestNumber, group.Status))
		}

		deleted, err := s.requestRepo.DeleteGroup(txCtx, requestNumber, workflow.StateDraft)
		if err != nil {
			return fmt.Errorf("delete draft: %w", err)
		}
		if deleted != int64(len(group.Items)) {
			return apperr.Conflict(fmt.Sprintf("request %s changed while deleting", requestNumber))
		}

		s.logger.Info("Draft deleted", "request_number", requestNumber, "user_id", actor.UserID)
		return nil
	})
}

// Send transitions a draft group to pending. Owner only.
func (s *requestServiceImpl) Send(ctx context.Context, actor entity.Actor, requestNumber string) error {
	return s.groupTransition(ctx, actor, requestNumber, workflow.TriggerSend, groupTransitionOpts{
		ownerOnly:   true,
		noteContent: "request sent for approval",
	})
}

// Approve transitions a pending group to approved. Manager only.
func (s *requestServiceImpl) Approve(ctx context.Context, actor entity.Actor, requestNumber string) error {
	return s.groupTransition(ctx, actor, requestNumber, workflow.TriggerApprove, groupTransitionOpts{
		noteContent: "request approved - forwarded to purchase officer",
		notify:      true,
	})
}

// Reject transitions a pending group to rejected. Manager only; a reason is required.
func (s *requestServiceImpl) Reject(ctx context.Context, actor entity.Actor, requestNumber string, reason string) error {
	if strings.TrimSpace(reason) == "" {
		return apperr.Validation("rejection reason is required")
	}
	return s.groupTransition(ctx, actor, requestNumber, workflow.TriggerReject, groupTransitionOpts{
		rejectionReason: reason,
		noteContent:     "request rejected: " + reason,
	})
}

// Recheck sends a pending group back to the site engineer for correction.
func (s *requestServiceImpl) Recheck(ctx context.Context, actor entity.Actor, requestNumber string, notes string) error {
	content := "request returned for recheck"
	if strings.TrimSpace(notes) != "" {
		content += ": " + notes
	}
	return s.groupTransition(ctx, actor, requestNumber, workflow.TriggerRecheck, groupTransitionOpts{
		noteContent: content,
	})
}

// Resend moves a rechecked group back to pending. Owner only.
func (s *requestServiceImpl) Resend(ctx context.Context, actor entity.Actor, requestNumber string) error {
	return s.groupTransition(ctx, actor, requestNumber, workflow.TriggerResend, groupTransitionOpts{
		ownerOnly:   true,
		noteContent: "request resent for approval",
	})
}

// Get returns the grouped view of a request. Site engineers may only read
// their own requests.
func (s *requestServiceImpl) Get(ctx context.Context, actor entity.Actor, requestNumber string) (*entity.RequestGroup, error) {
	group, err := s.loadGroup(ctx, requestNumber)
	if err != nil {
		return nil, err
	}
	if actor.Role == workflow.RoleSiteEngineer && group.CreatedBy != actor.UserID {
		return nil, apperr.Forbidden("site engineers can only view their own requests")
	}
	return group, nil
}

// List returns grouped requests, role-scoped and filtered by the query.
func (s *requestServiceImpl) List(ctx context.Context, actor entity.Actor, query RequestListQuery) ([]*entity.RequestGroup, error) {
	filter := port.RequestListFilter{
		Status: query.Status,
		SiteID: query.SiteID,
		Limit:  query.Limit,
		Offset: query.Offset,
	}
	if filter.Limit <= 0 || filter.Limit > 500 {
		filter.Limit = 100
	}
	if actor.Role == workflow.RoleSiteEngineer {
		filter.CreatedBy = actor.UserID
	}

	items, err := s.requestRepo.List(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to list requests", "error", err)
		return nil, err
	}

	groups := groupItems(items)
	if strings.TrimSpace(query.Q) != "" {
		groups = search.FilterGroups(groups, query.Q)
	}
	return groups, nil
}

// StatusCounts returns the dashboard projection of item counts per status.
func (s *requestServiceImpl) StatusCounts(ctx context.Context) ([]*entity.StatusCount, error) {
	return s.requestRepo.CountByStatus(ctx)
}

// TopSites returns the sites with the most request items.
func (s *requestServiceImpl) TopSites(ctx context.Context, limit int) ([]*entity.SiteVolume, error) {
	if limit <= 0 {
		limit = 5
	}
	return s.requestRepo.TopSites(ctx, limit)
}

type groupTransitionOpts struct {
	ownerOnly       bool
	rejectionReason string
	noteContent     string
	notify          bool
}

// groupTransition applies a request-level transition to every item of the
// group atomically. The guarded UPDATE must touch exactly the group size or
// the transaction rolls back with a Conflict.
func (s *requestServiceImpl) groupTransition(ctx context.Context, actor entity.Actor, requestNumber string, trigger workflow.Trigger, opts groupTransitionOpts) error {
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		group, err := s.loadGroup(txCtx, requestNumber)
		if err != nil {
			return err
		}
		if !group.Uniform() {
			return apperr.Conflict(fmt.Sprintf("request %s items are not in a uniform state", requestNumber))
		}
		if opts.ownerOnly && group.CreatedBy != actor.UserID {
			return apperr.Forbidden("only the request creator can perform this action")
		}

		machine := appwf.BuildRequestStateMachine(group.Status)
		if err := machine.Fire(txCtx, trigger, actor.Role); err != nil {
			return transitionError(err)
		}
		target := machine.State()

		updated, err := s.requestRepo.UpdateGroupStatus(txCtx, requestNumber, group.Status, target, opts.rejectionReason)
		if err != nil {
			return fmt.Errorf("update group status: %w", err)
		}
		if updated != int64(len(group.Items)) {
			return apperr.Conflict(fmt.Sprintf("request %s was modified concurrently", requestNumber))
		}

		note := &entity.Note{
			RequestNumber: requestNumber,
			UserID:        actor.UserID,
			Role:          actor.Role,
			Status:        target,
			Type:          entity.NoteTypeNote,
			Content:       opts.noteContent,
			CreatedAt:     time.Now(),
		}
		if err := s.noteRepo.Create(txCtx, note); err != nil {
			return fmt.Errorf("create audit note: %w", err)
		}
		if opts.notify {
			notification := &entity.Note{
				RequestNumber: requestNumber,
				UserID:        actor.UserID,
				Role:          actor.Role,
				Status:        target,
				Type:          entity.NoteTypeNotification,
				Content:       "request ready for cost comparison",
				CreatedAt:     time.Now(),
			}
			if err := s.noteRepo.Create(txCtx, notification); err != nil {
				return fmt.Errorf("create notification note: %w", err)
			}
		}
		return nil
	})

	metrics.RecordTransition(trigger.String(), err)
	if err != nil {
		s.logger.Error("Group transition failed",
			"error", err, "request_number", requestNumber, "trigger", trigger.String(), "role", actor.Role.String())
		return err
	}

	s.logger.Info("Group transition applied",
		"request_number", requestNumber, "trigger", trigger.String(), "user_id", actor.UserID)
	if eventType := eventTypeForTrigger(trigger); eventType != "" {
		s.publish(ctx, eventType, requestNumber, actor, map[string]interface{}{
			"trigger": trigger.String(),
		})
	}
	return nil
}

// publish emits a lifecycle event after the transaction has committed.
func (s *requestServiceImpl) publish(ctx context.Context, eventType event.Type, requestNumber string, actor entity.Actor, payload map[string]interface{}) {
	if s.events == nil {
		return
	}
	if payload == nil {
		payload = make(map[string]interface{}, 1)
	}
	payload["role"] = actor.Role.String()
	s.events.DispatchAsync(ctx, event.NewEvent(eventType, requestNumber, 0, actor.UserID, payload))
}

// loadGroup fetches a request group and fails with NotFound when empty.
func (s *requestServiceImpl) loadGroup(ctx context.Context, requestNumber string) (*entity.RequestGroup, error) {
	items, err := s.requestRepo.GetGroup(ctx, requestNumber)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, apperr.NotFoundf("request %s not found", requestNumber)
	}
	group := &entity.RequestGroup{
		RequestNumber: requestNumber,
		SiteID:        items[0].SiteID,
		CreatedBy:     items[0].CreatedBy,
		Status:        items[0].Status,
		IsUrgent:      groupUrgent(items),
		Items:         items,
		CreatedAt:     items[0].CreatedAt,
	}
	return group, nil
}

func validateItems(items []RequestItemInput) error {
	if len(items) == 0 {
		return apperr.Validation("a request needs at least one item")
	}
	for i, item := range items {
		if strings.TrimSpace(item.ItemName) == "" {
			return apperr.Validationf("item %d: name is required", i+1)
		}
		if item.Quantity <= 0 {
			return apperr.Validationf("item %d: quantity must be positive", i+1)
		}
		if strings.TrimSpace(item.Unit) == "" {
			return apperr.Validationf("item %d: unit is required", i+1)
		}
	}
	return nil
}

func groupUrgent(items []*entity.RequestItem) bool {
	for _, item := range items {
		if item.IsUrgent {
			return true
		}
	}
	return false
}

// groupItems folds a flat item listing into grouped read models, newest
// first, urgent groups ahead of equally recent ones.
func groupItems(items []*entity.RequestItem) []*entity.RequestGroup {
	index := make(map[string]*entity.RequestGroup)
	var ordered []*entity.RequestGroup
	for _, item := range items {
		group, ok := index[item.RequestNumber]
		if !ok {
			group = &entity.RequestGroup{
				RequestNumber: item.RequestNumber,
				SiteID:        item.SiteID,
				CreatedBy:     item.CreatedBy,
				Status:        item.Status,
				CreatedAt:     item.CreatedAt,
			}
			index[item.RequestNumber] = group
			ordered = append(ordered, group)
		}
		group.Items = append(group.Items, item)
		if item.IsUrgent {
			group.IsUrgent = true
		}
	}
	return ordered
}
