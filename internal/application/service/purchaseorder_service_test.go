package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krishsoni15/procureflow/internal/domain/apperr"
	"github.com/krishsoni15/procureflow/internal/domain/entity"
	"github.com/krishsoni15/procureflow/internal/domain/workflow"
)

type poFixture struct {
	requestRepo *mockRequestRepo
	ccRepo      *mockCCRepo
	poRepo      *mockPORepo
	vendorRepo  *mockVendorRepo
	noteRepo    *mockNoteRepo
	svc         PurchaseOrderService
}

func newPOFixture(items map[int64]*entity.RequestItem, comparisons map[int64]*entity.CostComparison) *poFixture {
	f := &poFixture{
		requestRepo: &mockRequestRepo{
			GetItemByIDFn: func(ctx context.Context, id int64) (*entity.RequestItem, error) {
				return items[id], nil
			},
		},
		ccRepo: &mockCCRepo{
			GetByItemIDFn: func(ctx context.Context, itemID int64) (*entity.CostComparison, error) {
				return comparisons[itemID], nil
			},
		},
		poRepo: &mockPORepo{},
		vendorRepo: &mockVendorRepo{
			GetByIDFn: func(ctx context.Context, id int64) (*entity.Vendor, error) {
				return &entity.Vendor{ID: id, Name: "Vendor", IsActive: true}, nil
			},
		},
		noteRepo: &mockNoteRepo{},
	}
	f.svc = NewPurchaseOrderService(f.requestRepo, f.ccRepo, f.poRepo, f.vendorRepo, f.noteRepo, passthroughTx{}, nil, nopLogger{})
	return f
}

func poItem(id int64, status workflow.State, quantity float64) *entity.RequestItem {
	return &entity.RequestItem{
		ID:            id,
		RequestNumber: "REQ-00001",
		ItemName:      "Cement OPC 53",
		Quantity:      quantity,
		Unit:          "bag",
		SiteID:        1,
		Status:        status,
		Version:       1,
		CreatedBy:     engineer.UserID,
	}
}

func comparisonWith(itemID int64, direct bool, vendorQuotes ...*entity.VendorQuote) *entity.CostComparison {
	return &entity.CostComparison{
		ID:               itemID * 10,
		RequestItemID:    itemID,
		Status:           workflow.StateCCApproved,
		IsDirectDelivery: direct,
		Quotes:           vendorQuotes,
	}
}

func TestPOIssue(t *testing.T) {
	t.Run("orders group by vendor at the lowest quote", func(t *testing.T) {
		items := map[int64]*entity.RequestItem{
			1: poItem(1, workflow.StateCCApproved, 100),
			2: poItem(2, workflow.StateCCApproved, 50),
			3: poItem(3, workflow.StateCCApproved, 20),
		}
		comparisons := map[int64]*entity.CostComparison{
			// items 1 and 3 share vendor 7 as the lowest quote
			1: comparisonWith(1, false, &entity.VendorQuote{VendorID: 7, UnitPrice: 300}, &entity.VendorQuote{VendorID: 8, UnitPrice: 320}),
			2: comparisonWith(2, false, &entity.VendorQuote{VendorID: 8, UnitPrice: 90}),
			3: comparisonWith(3, false, &entity.VendorQuote{VendorID: 7, UnitPrice: 50}),
		}
		f := newPOFixture(items, comparisons)
		var created []*entity.PurchaseOrder
		f.poRepo.CreateFn = func(ctx context.Context, po *entity.PurchaseOrder) error {
			created = append(created, po)
			return nil
		}

		orders, err := f.svc.Issue(context.Background(), officer, IssuePORequest{ItemIDs: []int64{1, 2, 3}})
		require.NoError(t, err)
		require.Len(t, orders, 2)
		require.Len(t, created, 2)

		first := created[0]
		assert.Equal(t, int64(7), first.VendorID)
		require.Len(t, first.Items, 2)
		assert.Equal(t, float64(100*300+20*50), first.TotalAmount)
		assert.Equal(t, workflow.StatePendingPO, first.Status)

		second := created[1]
		assert.Equal(t, int64(8), second.VendorID)
		assert.Equal(t, float64(50*90), second.TotalAmount)
	})

	t.Run("batch spanning requests notes each request", func(t *testing.T) {
		items := map[int64]*entity.RequestItem{
			1: poItem(1, workflow.StateCCApproved, 100),
			2: poItem(2, workflow.StateCCApproved, 50),
		}
		items[2].RequestNumber = "REQ-00002"
		comparisons := map[int64]*entity.CostComparison{
			1: comparisonWith(1, false, &entity.VendorQuote{VendorID: 7, UnitPrice: 300}),
			2: comparisonWith(2, false, &entity.VendorQuote{VendorID: 7, UnitPrice: 90}),
		}
		f := newPOFixture(items, comparisons)

		orders, err := f.svc.Issue(context.Background(), officer, IssuePORequest{ItemIDs: []int64{1, 2}})
		require.NoError(t, err)
		require.Len(t, orders, 1)

		noted := make([]string, 0, len(f.noteRepo.created))
		for _, n := range f.noteRepo.created {
			noted = append(noted, n.RequestNumber)
		}
		assert.ElementsMatch(t, []string{"REQ-00001", "REQ-00002"}, noted)
	})

	t.Run("direct delivery items skip the purchase order", func(t *testing.T) {
		items := map[int64]*entity.RequestItem{
			1: poItem(1, workflow.StateCCApproved, 10),
		}
		comparisons := map[int64]*entity.CostComparison{
			1: comparisonWith(1, true),
		}
		f := newPOFixture(items, comparisons)
		var movedTo workflow.State
		f.requestRepo.UpdateItemStatusFn = func(ctx context.Context, id int64, from, to workflow.State, version int64) (bool, error) {
			movedTo = to
			return true, nil
		}
		poCreated := false
		f.poRepo.CreateFn = func(ctx context.Context, po *entity.PurchaseOrder) error {
			poCreated = true
			return nil
		}

		orders, err := f.svc.Issue(context.Background(), officer, IssuePORequest{ItemIDs: []int64{1}})
		require.NoError(t, err)
		assert.Empty(t, orders)
		assert.False(t, poCreated)
		assert.Equal(t, workflow.StateDirectPO, movedTo)
	})

	t.Run("vendor override must be among the quotes", func(t *testing.T) {
		items := map[int64]*entity.RequestItem{
			1: poItem(1, workflow.StateCCApproved, 10),
		}
		comparisons := map[int64]*entity.CostComparison{
			1: comparisonWith(1, false, &entity.VendorQuote{VendorID: 7, UnitPrice: 300}),
		}
		f := newPOFixture(items, comparisons)

		_, err := f.svc.Issue(context.Background(), officer, IssuePORequest{ItemIDs: []int64{1}, VendorID: 99})
		require.Error(t, err)
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	})

	t.Run("vendor override wins over the lowest quote", func(t *testing.T) {
		items := map[int64]*entity.RequestItem{
			1: poItem(1, workflow.StateCCApproved, 10),
		}
		comparisons := map[int64]*entity.CostComparison{
			1: comparisonWith(1, false,
				&entity.VendorQuote{VendorID: 7, UnitPrice: 300},
				&entity.VendorQuote{VendorID: 8, UnitPrice: 320}),
		}
		f := newPOFixture(items, comparisons)
		var created *entity.PurchaseOrder
		f.poRepo.CreateFn = func(ctx context.Context, po *entity.PurchaseOrder) error {
			created = po
			return nil
		}

		_, err := f.svc.Issue(context.Background(), officer, IssuePORequest{ItemIDs: []int64{1}, VendorID: 8})
		require.NoError(t, err)
		require.NotNil(t, created)
		assert.Equal(t, int64(8), created.VendorID)
		assert.Equal(t, float64(10*320), created.TotalAmount)
	})

	t.Run("item not ready for ordering is a conflict", func(t *testing.T) {
		items := map[int64]*entity.RequestItem{
			1: poItem(1, workflow.StatePending, 10),
		}
		f := newPOFixture(items, nil)

		_, err := f.svc.Issue(context.Background(), officer, IssuePORequest{ItemIDs: []int64{1}})
		require.Error(t, err)
		assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	})

	t.Run("item without a comparison is a conflict", func(t *testing.T) {
		items := map[int64]*entity.RequestItem{
			1: poItem(1, workflow.StateCCApproved, 10),
		}
		f := newPOFixture(items, nil)

		_, err := f.svc.Issue(context.Background(), officer, IssuePORequest{ItemIDs: []int64{1}})
		require.Error(t, err)
		assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	})

	t.Run("managers cannot issue orders", func(t *testing.T) {
		f := newPOFixture(nil, nil)

		_, err := f.svc.Issue(context.Background(), manager, IssuePORequest{ItemIDs: []int64{1}})
		require.Error(t, err)
		assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
	})

	t.Run("empty batch is rejected", func(t *testing.T) {
		f := newPOFixture(nil, nil)

		_, err := f.svc.Issue(context.Background(), officer, IssuePORequest{})
		require.Error(t, err)
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	})

	t.Run("duplicate item ids are rejected", func(t *testing.T) {
		items := map[int64]*entity.RequestItem{
			1: poItem(1, workflow.StateCCApproved, 10),
		}
		f := newPOFixture(items, nil)

		_, err := f.svc.Issue(context.Background(), officer, IssuePORequest{ItemIDs: []int64{1, 1}})
		require.Error(t, err)
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	})
}

func TestPOAdvance(t *testing.T) {
	order := func(status workflow.State) *entity.PurchaseOrder {
		return &entity.PurchaseOrder{
			ID:            11,
			PONumber:      "PO-00001",
			RequestNumber: "REQ-00001",
			VendorID:      7,
			Status:        status,
			Items:         []*entity.PurchaseOrderItem{{RequestItemID: 1, Quantity: 100, UnitPrice: 300}},
		}
	}

	withOrder := func(po *entity.PurchaseOrder, itemStatus workflow.State) *poFixture {
		f := newPOFixture(map[int64]*entity.RequestItem{
			1: poItem(1, itemStatus, 100),
		}, nil)
		f.poRepo.GetByIDFn = func(ctx context.Context, id int64) (*entity.PurchaseOrder, error) {
			return po, nil
		}
		return f
	}

	t.Run("purchase officer marks the order placed", func(t *testing.T) {
		f := withOrder(order(workflow.StatePendingPO), workflow.StatePendingPO)
		var gotTo workflow.State
		f.poRepo.UpdateStatusFn = func(ctx context.Context, id int64, from, to workflow.State, reason string) (bool, error) {
			gotTo = to
			return true, nil
		}

		require.NoError(t, f.svc.MarkOrdered(context.Background(), officer, 11))
		assert.Equal(t, workflow.StateOrdered, gotTo)
	})

	t.Run("manager rejects a pending order with a reason", func(t *testing.T) {
		f := withOrder(order(workflow.StatePendingPO), workflow.StatePendingPO)
		var gotReason string
		f.poRepo.UpdateStatusFn = func(ctx context.Context, id int64, from, to workflow.State, reason string) (bool, error) {
			gotReason = reason
			return true, nil
		}

		require.NoError(t, f.svc.Reject(context.Background(), manager, 11, "price too high"))
		assert.Equal(t, "price too high", gotReason)
	})

	t.Run("rejection without a reason is invalid", func(t *testing.T) {
		f := withOrder(order(workflow.StatePendingPO), workflow.StatePendingPO)

		err := f.svc.Reject(context.Background(), manager, 11, " ")
		require.Error(t, err)
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	})

	t.Run("dispatching an unplaced order is a conflict", func(t *testing.T) {
		f := withOrder(order(workflow.StatePendingPO), workflow.StatePendingPO)

		err := f.svc.MarkOutForDelivery(context.Background(), officer, 11)
		require.Error(t, err)
		assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	})

	t.Run("stale order status surfaces as conflict", func(t *testing.T) {
		f := withOrder(order(workflow.StatePendingPO), workflow.StatePendingPO)
		f.poRepo.UpdateStatusFn = func(ctx context.Context, id int64, from, to workflow.State, reason string) (bool, error) {
			return false, nil
		}

		err := f.svc.MarkOrdered(context.Background(), officer, 11)
		require.Error(t, err)
		assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	})

	t.Run("unknown order is not found", func(t *testing.T) {
		f := newPOFixture(nil, nil)

		err := f.svc.MarkOrdered(context.Background(), officer, 99)
		require.Error(t, err)
		assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	})
}
