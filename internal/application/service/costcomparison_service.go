package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/krishsoni15/procureflow/internal/application/dispatcher"
	"github.com/krishsoni15/procureflow/internal/application/port"
	appwf "github.com/krishsoni15/procureflow/internal/application/workflow"
	"github.com/krishsoni15/procureflow/internal/domain/apperr"
	"github.com/krishsoni15/procureflow/internal/domain/entity"
	"github.com/krishsoni15/procureflow/internal/domain/event"
	"github.com/krishsoni15/procureflow/internal/domain/workflow"
	"github.com/krishsoni15/procureflow/internal/metrics"
)

// VendorQuoteInput is one vendor's quote in an upsert payload.
type VendorQuoteInput struct {
	VendorID  int64   `json:"vendor_id"`
	UnitPrice float64 `json:"unit_price"`
}

// CostComparisonService manages the vendor quote comparison attached to a
// request item: upsert while drafting, submit for manager review, manager
// approve/reject, and resubmit after a rejection.
type CostComparisonService interface {
	Upsert(ctx context.Context, actor entity.Actor, itemID int64, quotes []VendorQuoteInput, isDirectDelivery bool) (*entity.CostComparison, error)
	Submit(ctx context.Context, actor entity.Actor, itemID int64) error
	Approve(ctx context.Context, actor entity.Actor, itemID int64) error
	Reject(ctx context.Context, actor entity.Actor, itemID int64, managerNotes string) error
	Resubmit(ctx context.Context, actor entity.Actor, itemID int64, quotes []VendorQuoteInput, isDirectDelivery bool) error
	Get(ctx context.Context, itemID int64) (*entity.CostComparison, error)
}

type costComparisonServiceImpl struct {
	requestRepo port.RequestRepository
	ccRepo      port.CostComparisonRepository
	vendorRepo  port.VendorRepository
	noteRepo    port.NoteRepository
	txManager   port.TransactionManager
	events      dispatcher.Dispatcher
	logger      Logger
}

// NewCostComparisonService creates a new CostComparisonService. events may be nil.
func NewCostComparisonService(
	requestRepo port.RequestRepository,
	ccRepo port.CostComparisonRepository,
	vendorRepo port.VendorRepository,
	noteRepo port.NoteRepository,
	txManager port.TransactionManager,
	events dispatcher.Dispatcher,
	logger Logger,
) CostComparisonService {
	return &costComparisonServiceImpl{
		requestRepo: requestRepo,
		ccRepo:      ccRepo,
		vendorRepo:  vendorRepo,
		noteRepo:    noteRepo,
		txManager:   txManager,
		events:      events,
		logger:      logger,
	}
}

// Upsert replaces the full quote set for an item's comparison. Valid while
// the item is approved, ready_for_cc, or cc_rejected; parks an approved item
// in ready_for_cc.
func (s *costComparisonServiceImpl) Upsert(ctx context.Context, actor entity.Actor, itemID int64, quotes []VendorQuoteInput, isDirectDelivery bool) (*entity.CostComparison, error) {
	if err := s.validateQuotes(ctx, quotes, isDirectDelivery); err != nil {
		return nil, err
	}

	var cc *entity.CostComparison
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		item, err := s.loadItem(txCtx, itemID)
		if err != nil {
			return err
		}

		switch item.Status {
		case workflow.StateApproved:
			// Saving a comparison draft parks the item in ready_for_cc.
			if err := s.fireItem(txCtx, actor, item, workflow.TriggerPrepareCC); err != nil {
				return err
			}
		case workflow.StateReadyForCC, workflow.StateCCRejected:
			if actor.Role != workflow.RolePurchaseOfficer {
				return apperr.Forbidden("only purchase officers can edit cost comparisons")
			}
		default:
			return apperr.Conflict(fmt.Sprintf("item %d is %s; cost comparison cannot be edited", itemID, item.Status))
		}

		cc, err = s.writeComparison(txCtx, actor, item, quotes, isDirectDelivery, item.Status)
		return err
	})
	if err != nil {
		s.logger.Error("Failed to upsert cost comparison", "error", err, "item_id", itemID)
		return nil, err
	}

	s.logger.Info("Cost comparison saved", "item_id", itemID, "quotes", len(quotes))
	return cc, nil
}

// Submit sends the item's comparison for manager review. Requires at least
// one vendor quote.
func (s *costComparisonServiceImpl) Submit(ctx context.Context, actor entity.Actor, itemID int64) error {
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		item, err := s.loadItem(txCtx, itemID)
		if err != nil {
			return err
		}

		cc, err := s.ccRepo.GetByItemID(txCtx, itemID)
		if err != nil {
			return err
		}
		if cc == nil || len(cc.Quotes) == 0 {
			return apperr.Validation("add at least one vendor quote")
		}

		if err := s.fireItem(txCtx, actor, item, workflow.TriggerSubmitCC); err != nil {
			return err
		}
		if err := s.ccRepo.UpdateStatus(txCtx, cc.ID, workflow.StateCCPending, ""); err != nil {
			return fmt.Errorf("update comparison status: %w", err)
		}

		return s.writeNote(txCtx, actor, item, workflow.StateCCPending, "cost comparison submitted for approval")
	})

	metrics.RecordTransition(workflow.TriggerSubmitCC.String(), err)
	if err != nil {
		s.logger.Error("Failed to submit cost comparison", "error", err, "item_id", itemID)
		return err
	}

	s.logger.Info("Cost comparison submitted", "item_id", itemID, "user_id", actor.UserID)
	s.publish(ctx, event.TypeCCSubmitted, itemID, actor)
	return nil
}

// Approve accepts a pending comparison. Manager only.
func (s *costComparisonServiceImpl) Approve(ctx context.Context, actor entity.Actor, itemID int64) error {
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		item, err := s.loadItem(txCtx, itemID)
		if err != nil {
			return err
		}
		cc, err := s.loadComparison(txCtx, itemID)
		if err != nil {
			return err
		}

		if err := s.fireItem(txCtx, actor, item, workflow.TriggerApproveCC); err != nil {
			return err
		}
		if err := s.ccRepo.UpdateStatus(txCtx, cc.ID, workflow.StateCCApproved, ""); err != nil {
			return fmt.Errorf("update comparison status: %w", err)
		}

		return s.writeNote(txCtx, actor, item, workflow.StateCCApproved, "cost comparison approved")
	})

	metrics.RecordTransition(workflow.TriggerApproveCC.String(), err)
	if err != nil {
		s.logger.Error("Failed to approve cost comparison", "error", err, "item_id", itemID)
		return err
	}
	s.publish(ctx, event.TypeCCApproved, itemID, actor)
	return nil
}

// Reject declines a pending comparison. Manager only; notes are required so
// the purchase officer knows what to fix.
func (s *costComparisonServiceImpl) Reject(ctx context.Context, actor entity.Actor, itemID int64, managerNotes string) error {
	if strings.TrimSpace(managerNotes) == "" {
		return apperr.Validation("manager notes are required to reject a cost comparison")
	}

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		item, err := s.loadItem(txCtx, itemID)
		if err != nil {
			return err
		}
		cc, err := s.loadComparison(txCtx, itemID)
		if err != nil {
			return err
		}

		if err := s.fireItem(txCtx, actor, item, workflow.TriggerRejectCC); err != nil {
			return err
		}
		if err := s.ccRepo.UpdateStatus(txCtx, cc.ID, workflow.StateCCRejected, managerNotes); err != nil {
			return fmt.Errorf("update comparison status: %w", err)
		}

		return s.writeNote(txCtx, actor, item, workflow.StateCCRejected, "cost comparison rejected: "+managerNotes)
	})

	metrics.RecordTransition(workflow.TriggerRejectCC.String(), err)
	if err != nil {
		s.logger.Error("Failed to reject cost comparison", "error", err, "item_id", itemID)
		return err
	}
	s.publish(ctx, event.TypeCCRejected, itemID, actor)
	return nil
}

// Resubmit replaces the quotes of a rejected comparison and sends it straight
// back for review. Kept distinct from Upsert+Submit so the audit trail shows
// the rejection-fix cycle.
func (s *costComparisonServiceImpl) Resubmit(ctx context.Context, actor entity.Actor, itemID int64, quotes []VendorQuoteInput, isDirectDelivery bool) error {
	if err := s.validateQuotes(ctx, quotes, isDirectDelivery); err != nil {
		return err
	}
	// resubmission lands straight in cc_pending, so the submit-time quote
	// requirement applies regardless of direct delivery
	if len(quotes) == 0 {
		return apperr.Validation("add at least one vendor quote")
	}

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		item, err := s.loadItem(txCtx, itemID)
		if err != nil {
			return err
		}
		if item.Status != workflow.StateCCRejected {
			return apperr.Conflict(fmt.Sprintf("item %d is %s; only a rejected cost comparison can be resubmitted", itemID, item.Status))
		}

		if err := s.fireItem(txCtx, actor, item, workflow.TriggerResubmitCC); err != nil {
			return err
		}
		if _, err := s.writeComparison(txCtx, actor, item, quotes, isDirectDelivery, workflow.StateCCPending); err != nil {
			return err
		}

		return s.writeNote(txCtx, actor, item, workflow.StateCCPending, "cost comparison resubmitted")
	})

	metrics.RecordTransition(workflow.TriggerResubmitCC.String(), err)
	if err != nil {
		s.logger.Error("Failed to resubmit cost comparison", "error", err, "item_id", itemID)
		return err
	}

	s.logger.Info("Cost comparison resubmitted", "item_id", itemID, "user_id", actor.UserID)
	return nil
}

// Get returns the comparison attached to an item.
func (s *costComparisonServiceImpl) Get(ctx context.Context, itemID int64) (*entity.CostComparison, error) {
	return s.loadComparison(ctx, itemID)
}

// validateQuotes rejects duplicate vendors and unknown/inactive vendor ids.
func (s *costComparisonServiceImpl) validateQuotes(ctx context.Context, quotes []VendorQuoteInput, isDirectDelivery bool) error {
	if len(quotes) == 0 && !isDirectDelivery {
		return apperr.Validation("add at least one vendor quote")
	}

	seen := make(map[int64]bool, len(quotes))
	for _, q := range quotes {
		if seen[q.VendorID] {
			return apperr.Validationf("vendor %d is quoted more than once", q.VendorID)
		}
		seen[q.VendorID] = true

		if q.UnitPrice <= 0 {
			return apperr.Validationf("vendor %d: unit price must be positive", q.VendorID)
		}

		vendor, err := s.vendorRepo.GetByID(ctx, q.VendorID)
		if err != nil {
			return err
		}
		if vendor == nil {
			return apperr.NotFoundf("vendor %d not found", q.VendorID)
		}
		if !vendor.IsActive {
			return apperr.Validationf("vendor %q is inactive", vendor.Name)
		}
	}
	return nil
}

// writeComparison upserts the comparison row and quote set for an item.
func (s *costComparisonServiceImpl) writeComparison(ctx context.Context, actor entity.Actor, item *entity.RequestItem, quotes []VendorQuoteInput, isDirectDelivery bool, status workflow.State) (*entity.CostComparison, error) {
	now := time.Now()
	cc := &entity.CostComparison{
		RequestItemID:    item.ID,
		Status:           status,
		IsDirectDelivery: isDirectDelivery,
		CreatedBy:        actor.UserID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	for _, q := range quotes {
		cc.Quotes = append(cc.Quotes, &entity.VendorQuote{
			VendorID:  q.VendorID,
			UnitPrice: q.UnitPrice,
		})
	}
	if err := s.ccRepo.Upsert(ctx, cc); err != nil {
		return nil, fmt.Errorf("upsert cost comparison: %w", err)
	}
	return cc, nil
}

// fireItem runs the machine for the item's current state and applies the
// guarded single-item update.
func (s *costComparisonServiceImpl) fireItem(ctx context.Context, actor entity.Actor, item *entity.RequestItem, trigger workflow.Trigger) error {
	machine := appwf.BuildRequestStateMachine(item.Status)
	if err := machine.Fire(ctx, trigger, actor.Role); err != nil {
		return transitionError(err)
	}
	target := machine.State()

	updated, err := s.requestRepo.UpdateItemStatus(ctx, item.ID, item.Status, target, item.Version)
	if err != nil {
		return fmt.Errorf("update item status: %w", err)
	}
	if !updated {
		return apperr.Conflict(fmt.Sprintf("item %d was modified concurrently", item.ID))
	}

	item.Status = target
	item.Version++
	return nil
}

func (s *costComparisonServiceImpl) loadItem(ctx context.Context, itemID int64) (*entity.RequestItem, error) {
	item, err := s.requestRepo.GetItemByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, apperr.NotFoundf("request item %d not found", itemID)
	}
	return item, nil
}

func (s *costComparisonServiceImpl) loadComparison(ctx context.Context, itemID int64) (*entity.CostComparison, error) {
	cc, err := s.ccRepo.GetByItemID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if cc == nil {
		return nil, apperr.NotFoundf("no cost comparison for item %d", itemID)
	}
	return cc, nil
}

// publish emits a lifecycle event after the transaction has committed. The
// item read is best effort; a missing row just drops the event.
func (s *costComparisonServiceImpl) publish(ctx context.Context, eventType event.Type, itemID int64, actor entity.Actor) {
	if s.events == nil {
		return
	}
	item, err := s.requestRepo.GetItemByID(ctx, itemID)
	if err != nil || item == nil {
		return
	}
	s.events.DispatchAsync(ctx, event.NewEvent(eventType, item.RequestNumber, item.ID, actor.UserID, nil))
}

func (s *costComparisonServiceImpl) writeNote(ctx context.Context, actor entity.Actor, item *entity.RequestItem, status workflow.State, content string) error {
	note := &entity.Note{
		RequestNumber: item.RequestNumber,
		UserID:        actor.UserID,
		Role:          actor.Role,
		Status:        status,
		Type:          entity.NoteTypeNote,
		Content:       content,
		CreatedAt:     time.Now(),
	}
	if err := s.noteRepo.Create(ctx, note); err != nil {
		return fmt.Errorf("create audit note: %w", err)
	}
	return nil
}
