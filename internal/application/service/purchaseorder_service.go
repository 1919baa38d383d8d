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

// IssuePORequest carries the purchase-officer input for issuing orders from a
// set of CC-approved items. VendorID overrides the lowest-quote default when
// set; the chosen vendor must be among the item's quotes.
type IssuePORequest struct {
	ItemIDs              []int64    `json:"item_ids"`
	VendorID             int64      `json:"vendor_id,omitempty"`
	ExpectedDeliveryDate *time.Time `json:"expected_delivery_date,omitempty"`
}

// PurchaseOrderService turns approved cost comparisons into purchase orders
// and walks orders through their vendor-side lifecycle.
type PurchaseOrderService interface {
	Issue(ctx context.Context, actor entity.Actor, req IssuePORequest) ([]*entity.PurchaseOrder, error)
	MarkOrdered(ctx context.Context, actor entity.Actor, poID int64) error
	MarkOutForDelivery(ctx context.Context, actor entity.Actor, poID int64) error
	Reject(ctx context.Context, actor entity.Actor, poID int64, reason string) error
	Get(ctx context.Context, poID int64) (*entity.PurchaseOrder, error)
	List(ctx context.Context, limit, offset int) ([]*entity.PurchaseOrder, error)
}

type purchaseOrderServiceImpl struct {
	requestRepo port.RequestRepository
	ccRepo      port.CostComparisonRepository
	poRepo      port.PurchaseOrderRepository
	vendorRepo  port.VendorRepository
	noteRepo    port.NoteRepository
	txManager   port.TransactionManager
	events      dispatcher.Dispatcher
	logger      Logger
}

// NewPurchaseOrderService creates a new PurchaseOrderService. events may be nil.
func NewPurchaseOrderService(
	requestRepo port.RequestRepository,
	ccRepo port.CostComparisonRepository,
	poRepo port.PurchaseOrderRepository,
	vendorRepo port.VendorRepository,
	noteRepo port.NoteRepository,
	txManager port.TransactionManager,
	events dispatcher.Dispatcher,
	logger Logger,
) PurchaseOrderService {
	return &purchaseOrderServiceImpl{
		requestRepo: requestRepo,
		ccRepo:      ccRepo,
		poRepo:      poRepo,
		vendorRepo:  vendorRepo,
		noteRepo:    noteRepo,
		txManager:   txManager,
		events:      events,
		logger:      logger,
	}
}

// poCandidate pairs a loaded item with its approved comparison.
type poCandidate struct {
	item  *entity.RequestItem
	cc    *entity.CostComparison
	quote *entity.VendorQuote
}

// Issue creates purchase orders for the given items. Direct-delivery items
// skip the PO stage entirely. Vendor items are grouped so each vendor gets
// one order covering all of their items in the batch.
func (s *purchaseOrderServiceImpl) Issue(ctx context.Context, actor entity.Actor, req IssuePORequest) ([]*entity.PurchaseOrder, error) {
	if actor.Role != workflow.RolePurchaseOfficer && actor.Role != workflow.RoleAdmin {
		return nil, apperr.Forbidden("only purchase officers can issue purchase orders")
	}
	if len(req.ItemIDs) == 0 {
		return nil, apperr.Validation("select at least one item")
	}

	var orders []*entity.PurchaseOrder
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		candidates, err := s.loadCandidates(txCtx, req)
		if err != nil {
			return err
		}

		byVendor := make(map[int64][]*poCandidate)
		var vendorOrder []int64
		for _, c := range candidates {
			if c.cc.IsDirectDelivery {
				if err := s.fireItem(txCtx, actor, c.item, workflow.TriggerIssueDirectPO); err != nil {
					return err
				}
				if err := s.writeNote(txCtx, actor, c.item.RequestNumber, c.item.Status, fmt.Sprintf("item %d routed for direct delivery", c.item.ID)); err != nil {
					return err
				}
				continue
			}
			if _, seen := byVendor[c.quote.VendorID]; !seen {
				vendorOrder = append(vendorOrder, c.quote.VendorID)
			}
			byVendor[c.quote.VendorID] = append(byVendor[c.quote.VendorID], c)
		}

		for _, vendorID := range vendorOrder {
			po, err := s.createOrder(txCtx, actor, vendorID, byVendor[vendorID], req.ExpectedDeliveryDate)
			if err != nil {
				return err
			}
			orders = append(orders, po)
		}
		return nil
	})

	metrics.RecordTransition(workflow.TriggerIssuePO.String(), err)
	if err != nil {
		s.logger.Error("Failed to issue purchase orders", "error", err, "item_ids", req.ItemIDs)
		return nil, err
	}

	s.logger.Info("Purchase orders issued", "count", len(orders), "user_id", actor.UserID)
	if s.events != nil {
		for _, po := range orders {
			s.events.DispatchAsync(ctx, event.NewEvent(event.TypePOIssued, po.RequestNumber, 0, actor.UserID, map[string]interface{}{
				"po_number":    po.PONumber,
				"vendor_id":    po.VendorID,
				"total_amount": po.TotalAmount,
				"role":         actor.Role.String(),
			}))
		}
	}
	return orders, nil
}

// loadCandidates loads and validates the items of an issue batch, resolving
// the vendor quote each item will be ordered from.
func (s *purchaseOrderServiceImpl) loadCandidates(ctx context.Context, req IssuePORequest) ([]*poCandidate, error) {
	seen := make(map[int64]bool, len(req.ItemIDs))
	candidates := make([]*poCandidate, 0, len(req.ItemIDs))
	for _, itemID := range req.ItemIDs {
		if seen[itemID] {
			return nil, apperr.Validationf("item %d listed more than once", itemID)
		}
		seen[itemID] = true

		item, err := s.requestRepo.GetItemByID(ctx, itemID)
		if err != nil {
			return nil, err
		}
		if item == nil {
			return nil, apperr.NotFoundf("request item %d not found", itemID)
		}
		switch item.Status {
		case workflow.StateCCApproved, workflow.StateReadyForPO, workflow.StatePORejected:
		default:
			return nil, apperr.Conflict(fmt.Sprintf("item %d is %s; not ready for a purchase order", itemID, item.Status))
		}

		cc, err := s.ccRepo.GetByItemID(ctx, itemID)
		if err != nil {
			return nil, err
		}
		if cc == nil {
			return nil, apperr.Conflict(fmt.Sprintf("item %d has no approved cost comparison", itemID))
		}

		c := &poCandidate{item: item, cc: cc}
		if !cc.IsDirectDelivery {
			quote := cc.LowestQuote()
			if req.VendorID != 0 {
				quote = cc.QuoteForVendor(req.VendorID)
				if quote == nil {
					return nil, apperr.Validationf("vendor %d has no quote for item %d", req.VendorID, itemID)
				}
			}
			if quote == nil {
				return nil, apperr.Conflict(fmt.Sprintf("item %d has no vendor quotes", itemID))
			}
			c.quote = quote
		}
		candidates = append(candidates, c)
	}
	return candidates, nil
}

// createOrder writes one purchase order for a vendor and moves its items to
// pending_po.
func (s *purchaseOrderServiceImpl) createOrder(ctx context.Context, actor entity.Actor, vendorID int64, candidates []*poCandidate, expected *time.Time) (*entity.PurchaseOrder, error) {
	vendor, err := s.vendorRepo.GetByID(ctx, vendorID)
	if err != nil {
		return nil, err
	}
	if vendor == nil {
		return nil, apperr.NotFoundf("vendor %d not found", vendorID)
	}
	if !vendor.IsActive {
		return nil, apperr.Validationf("vendor %q is inactive", vendor.Name)
	}

	poNumber, err := s.poRepo.NextPONumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("allocate po number: %w", err)
	}

	now := time.Now()
	// the order row keys on the first request in the batch; audit notes below
	// cover every request the batch spans
	po := &entity.PurchaseOrder{
		PONumber:             poNumber,
		RequestNumber:        candidates[0].item.RequestNumber,
		VendorID:             vendorID,
		Status:               workflow.StatePendingPO,
		ExpectedDeliveryDate: expected,
		CreatedBy:            actor.UserID,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	for _, c := range candidates {
		po.Items = append(po.Items, &entity.PurchaseOrderItem{
			RequestItemID: c.item.ID,
			ItemName:      c.item.ItemName,
			Quantity:      c.item.Quantity,
			UnitPrice:     c.quote.UnitPrice,
		})
	}
	po.ComputeTotal()

	if err := s.poRepo.Create(ctx, po); err != nil {
		return nil, fmt.Errorf("create purchase order: %w", err)
	}

	for _, c := range candidates {
		if err := s.fireItem(ctx, actor, c.item, workflow.TriggerIssuePO); err != nil {
			return nil, err
		}
	}

	content := fmt.Sprintf("purchase order %s issued to %s for %.2f", po.PONumber, vendor.Name, po.TotalAmount)
	noted := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		if noted[c.item.RequestNumber] {
			continue
		}
		noted[c.item.RequestNumber] = true
		if err := s.writeNote(ctx, actor, c.item.RequestNumber, workflow.StatePendingPO, content); err != nil {
			return nil, err
		}
	}
	return po, nil
}

// MarkOrdered records that the vendor has accepted the order.
func (s *purchaseOrderServiceImpl) MarkOrdered(ctx context.Context, actor entity.Actor, poID int64) error {
	return s.advance(ctx, actor, poID, workflow.TriggerMarkOrdered, workflow.StateOrdered, "order placed with vendor", "")
}

// MarkOutForDelivery records that the vendor has dispatched the order.
func (s *purchaseOrderServiceImpl) MarkOutForDelivery(ctx context.Context, actor entity.Actor, poID int64) error {
	return s.advance(ctx, actor, poID, workflow.TriggerMarkOutForDelivery, workflow.StateOutForDelivery, "order dispatched by vendor", "")
}

// Reject sends a pending order back to the purchase officer. Manager only;
// the reason is required.
func (s *purchaseOrderServiceImpl) Reject(ctx context.Context, actor entity.Actor, poID int64, reason string) error {
	if strings.TrimSpace(reason) == "" {
		return apperr.Validation("rejection reason is required")
	}
	if err := s.advance(ctx, actor, poID, workflow.TriggerRejectPO, workflow.StatePORejected, "purchase order rejected: "+reason, reason); err != nil {
		return err
	}
	if s.events != nil {
		if po, err := s.poRepo.GetByID(ctx, poID); err == nil && po != nil {
			s.events.DispatchAsync(ctx, event.NewEvent(event.TypePORejected, po.RequestNumber, 0, actor.UserID, map[string]interface{}{
				"po_number": po.PONumber,
				"reason":    reason,
				"role":      actor.Role.String(),
			}))
		}
	}
	return nil
}

// advance fires the trigger against each item of the order and applies the
// matching guarded update to the order row itself.
func (s *purchaseOrderServiceImpl) advance(ctx context.Context, actor entity.Actor, poID int64, trigger workflow.Trigger, target workflow.State, noteContent, reason string) error {
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		po, err := s.loadOrder(txCtx, poID)
		if err != nil {
			return err
		}

		seen := make(map[string]bool, 1)
		requestNumbers := make([]string, 0, 1)
		for _, poItem := range po.Items {
			item, err := s.requestRepo.GetItemByID(txCtx, poItem.RequestItemID)
			if err != nil {
				return err
			}
			if item == nil {
				return apperr.NotFoundf("request item %d not found", poItem.RequestItemID)
			}
			if !seen[item.RequestNumber] {
				seen[item.RequestNumber] = true
				requestNumbers = append(requestNumbers, item.RequestNumber)
			}
			if err := s.fireItem(txCtx, actor, item, trigger); err != nil {
				return err
			}
		}
		if len(requestNumbers) == 0 {
			requestNumbers = append(requestNumbers, po.RequestNumber)
		}

		updated, err := s.poRepo.UpdateStatus(txCtx, po.ID, po.Status, target, reason)
		if err != nil {
			return fmt.Errorf("update purchase order status: %w", err)
		}
		if !updated {
			return apperr.Conflict(fmt.Sprintf("purchase order %d was modified concurrently", po.ID))
		}

		for _, requestNumber := range requestNumbers {
			if err := s.writeNote(txCtx, actor, requestNumber, target, noteContent); err != nil {
				return err
			}
		}
		return nil
	})

	metrics.RecordTransition(trigger.String(), err)
	if err != nil {
		s.logger.Error("Failed to advance purchase order", "error", err, "po_id", poID, "trigger", trigger.String())
		return err
	}

	s.logger.Info("Purchase order advanced", "po_id", poID, "status", target.String(), "user_id", actor.UserID)
	return nil
}

// Get returns a purchase order with its items.
func (s *purchaseOrderServiceImpl) Get(ctx context.Context, poID int64) (*entity.PurchaseOrder, error) {
	return s.loadOrder(ctx, poID)
}

// List returns purchase orders, newest first.
func (s *purchaseOrderServiceImpl) List(ctx context.Context, limit, offset int) ([]*entity.PurchaseOrder, error) {
	if limit <= 0 {
		limit = 100
	}
	return s.poRepo.List(ctx, limit, offset)
}

func (s *purchaseOrderServiceImpl) loadOrder(ctx context.Context, poID int64) (*entity.PurchaseOrder, error) {
	po, err := s.poRepo.GetByID(ctx, poID)
	if err != nil {
		return nil, err
	}
	if po == nil {
		return nil, apperr.NotFoundf("purchase order %d not found", poID)
	}
	return po, nil
}

func (s *purchaseOrderServiceImpl) fireItem(ctx context.Context, actor entity.Actor, item *entity.RequestItem, trigger workflow.Trigger) error {
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

func (s *purchaseOrderServiceImpl) writeNote(ctx context.Context, actor entity.Actor, requestNumber string, status workflow.State, content string) error {
	note := &entity.Note{
		RequestNumber: requestNumber,
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
