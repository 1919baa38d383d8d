package service

import (
	"context"
	"fmt"
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

// quantityEpsilon absorbs the float accumulation error of repeated partial
// confirmations so the confirmation that completes the requested quantity
// still registers as final.
const quantityEpsilon = 1e-6

// DeliveryService records delivery confirmations against request items.
// A confirmation that completes the requested quantity finalizes the item,
// feeds the inventory stock count, and closes the purchase order once every
// item on it has arrived.
type DeliveryService interface {
	Confirm(ctx context.Context, actor entity.Actor, itemID int64, quantity float64) (*entity.RequestItem, error)
	History(ctx context.Context, itemID int64) ([]*entity.Delivery, error)
}

type deliveryServiceImpl struct {
	requestRepo   port.RequestRepository
	deliveryRepo  port.DeliveryRepository
	poRepo        port.PurchaseOrderRepository
	inventoryRepo port.InventoryRepository
	noteRepo      port.NoteRepository
	txManager     port.TransactionManager
	events        dispatcher.Dispatcher
	logger        Logger
}

// NewDeliveryService creates a new DeliveryService. events may be nil.
func NewDeliveryService(
	requestRepo port.RequestRepository,
	deliveryRepo port.DeliveryRepository,
	poRepo port.PurchaseOrderRepository,
	inventoryRepo port.InventoryRepository,
	noteRepo port.NoteRepository,
	txManager port.TransactionManager,
	events dispatcher.Dispatcher,
	logger Logger,
) DeliveryService {
	return &deliveryServiceImpl{
		requestRepo:   requestRepo,
		deliveryRepo:  deliveryRepo,
		poRepo:        poRepo,
		inventoryRepo: inventoryRepo,
		noteRepo:      noteRepo,
		txManager:     txManager,
		events:        events,
		logger:        logger,
	}
}

// Confirm records a received quantity against an item. Partial confirmations
// accumulate; the confirmation that reaches the requested quantity is final.
// Over-delivery is rejected.
func (s *deliveryServiceImpl) Confirm(ctx context.Context, actor entity.Actor, itemID int64, quantity float64) (*entity.RequestItem, error) {
	if quantity <= 0 {
		return nil, apperr.Validation("delivered quantity must be positive")
	}

	var result *entity.RequestItem
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		item, err := s.requestRepo.GetItemByID(txCtx, itemID)
		if err != nil {
			return err
		}
		if item == nil {
			return apperr.NotFoundf("request item %d not found", itemID)
		}
		if actor.Role == workflow.RoleSiteEngineer && item.CreatedBy != actor.UserID {
			return apperr.Forbidden("site engineers can only confirm deliveries for their own requests")
		}
		if !item.Status.IsDeliverable() {
			return apperr.Conflict(fmt.Sprintf("item %d is %s; deliveries cannot be recorded", itemID, item.Status))
		}
		remaining := item.Remaining()
		if quantity > remaining+quantityEpsilon {
			return apperr.Validationf("delivered quantity %.2f exceeds remaining %.2f", quantity, remaining)
		}

		final := remaining-quantity <= quantityEpsilon
		trigger := workflow.TriggerConfirmPartial
		if final {
			trigger = workflow.TriggerConfirmFinal
		}

		machine := appwf.BuildRequestStateMachine(item.Status)
		if err := machine.Fire(txCtx, trigger, actor.Role); err != nil {
			return transitionError(err)
		}
		target := machine.State()

		newDelivered := item.DeliveredQuantity + quantity
		if final {
			// settle the cumulative total on the requested quantity so the
			// stored value carries no rounding residue
			newDelivered = item.Quantity
		}
		updated, err := s.requestRepo.UpdateDelivered(txCtx, item.ID, item.Status, target, item.Version, newDelivered)
		if err != nil {
			return fmt.Errorf("update delivered quantity: %w", err)
		}
		if !updated {
			return apperr.Conflict(fmt.Sprintf("item %d was modified concurrently", item.ID))
		}

		delivery := &entity.Delivery{
			RequestItemID:     item.ID,
			DeliveredQuantity: quantity,
			ReceivedBy:        actor.UserID,
			CreatedAt:         time.Now(),
		}
		if err := s.deliveryRepo.Create(txCtx, delivery); err != nil {
			return fmt.Errorf("record delivery: %w", err)
		}

		if final {
			if err := s.onFinalDelivery(txCtx, item, newDelivered); err != nil {
				return err
			}
		}

		content := fmt.Sprintf("delivery of %.2f %s recorded for %s (%.2f of %.2f)", quantity, item.Unit, item.ItemName, newDelivered, item.Quantity)
		note := &entity.Note{
			RequestNumber: item.RequestNumber,
			UserID:        actor.UserID,
			Role:          actor.Role,
			Status:        target,
			Type:          entity.NoteTypeGRN,
			Content:       content,
			CreatedAt:     time.Now(),
		}
		if err := s.noteRepo.Create(txCtx, note); err != nil {
			return fmt.Errorf("create delivery note: %w", err)
		}

		item.Status = target
		item.Version++
		item.DeliveredQuantity = newDelivered
		result = item
		return nil
	})

	action := workflow.TriggerConfirmPartial.String()
	if result != nil && result.Status == workflow.StateDelivered {
		action = workflow.TriggerConfirmFinal.String()
	}
	metrics.RecordTransition(action, err)
	if err != nil {
		s.logger.Error("Failed to confirm delivery", "error", err, "item_id", itemID, "quantity", quantity)
		return nil, err
	}

	s.logger.Info("Delivery confirmed", "item_id", itemID, "quantity", quantity, "status", result.Status.String(), "user_id", actor.UserID)
	if s.events != nil {
		eventType := event.TypeDeliveryConfirmed
		if result.Status == workflow.StateDelivered {
			eventType = event.TypeItemDelivered
		}
		s.events.DispatchAsync(ctx, event.NewEvent(eventType, result.RequestNumber, result.ID, actor.UserID, map[string]interface{}{
			"quantity":  quantity,
			"delivered": result.DeliveredQuantity,
			"requested": result.Quantity,
			"role":      actor.Role.String(),
		}))
	}
	return result, nil
}

// onFinalDelivery feeds the stock count and closes the owning purchase order
// once nothing on it remains undelivered. Items missing from the inventory
// master list are skipped without error.
func (s *deliveryServiceImpl) onFinalDelivery(ctx context.Context, item *entity.RequestItem, totalDelivered float64) error {
	stock, err := s.inventoryRepo.GetByName(ctx, item.ItemName)
	if err != nil {
		return err
	}
	if stock != nil {
		if err := s.inventoryRepo.IncrementStock(ctx, stock.ID, totalDelivered); err != nil {
			return fmt.Errorf("increment stock: %w", err)
		}
	}

	po, err := s.poRepo.GetByRequestItemID(ctx, item.ID)
	if err != nil {
		return err
	}
	if po == nil {
		// direct-delivery items never had a purchase order
		return nil
	}

	remaining, err := s.poRepo.CountUndeliveredItems(ctx, po.ID)
	if err != nil {
		return err
	}
	// this item's row is updated before we count, so zero means the order
	// is complete
	if remaining == 0 {
		if err := s.poRepo.SetDeliveredDate(ctx, po.ID, time.Now()); err != nil {
			return fmt.Errorf("set delivered date: %w", err)
		}
	}
	return nil
}

// History returns the delivery confirmations recorded against an item.
func (s *deliveryServiceImpl) History(ctx context.Context, itemID int64) ([]*entity.Delivery, error) {
	item, err := s.requestRepo.GetItemByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, apperr.NotFoundf("request item %d not found", itemID)
	}
	return s.deliveryRepo.ListByItem(ctx, itemID)
}
