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

var officer = entity.Actor{UserID: "po-1", Name: "Meera", Role: workflow.RolePurchaseOfficer}

func ccItem(status workflow.State) *entity.RequestItem {
	return &entity.RequestItem{
		ID:            5,
		RequestNumber: "REQ-00001",
		ItemName:      "Cement OPC 53",
		Quantity:      100,
		Unit:          "bag",
		SiteID:        1,
		Status:        status,
		Version:       1,
		CreatedBy:     engineer.UserID,
	}
}

type ccFixture struct {
	requestRepo *mockRequestRepo
	ccRepo      *mockCCRepo
	vendorRepo  *mockVendorRepo
	noteRepo    *mockNoteRepo
	svc         CostComparisonService
}

func newCCFixture(item *entity.RequestItem) *ccFixture {
	f := &ccFixture{
		requestRepo: &mockRequestRepo{
			GetItemByIDFn: func(ctx context.Context, id int64) (*entity.RequestItem, error) {
				return item, nil
			},
		},
		ccRepo: &mockCCRepo{},
		vendorRepo: &mockVendorRepo{
			GetByIDFn: func(ctx context.Context, id int64) (*entity.Vendor, error) {
				return &entity.Vendor{ID: id, Name: "Vendor", IsActive: true}, nil
			},
		},
		noteRepo: &mockNoteRepo{},
	}
	f.svc = NewCostComparisonService(f.requestRepo, f.ccRepo, f.vendorRepo, f.noteRepo, passthroughTx{}, nil, nopLogger{})
	return f
}

func quotes(prices ...float64) []VendorQuoteInput {
	out := make([]VendorQuoteInput, 0, len(prices))
	for i, p := range prices {
		out = append(out, VendorQuoteInput{VendorID: int64(i + 1), UnitPrice: p})
	}
	return out
}

func TestCCUpsert(t *testing.T) {
	t.Run("saving against an approved item parks it in ready_for_cc", func(t *testing.T) {
		f := newCCFixture(ccItem(workflow.StateApproved))
		var movedTo workflow.State
		f.requestRepo.UpdateItemStatusFn = func(ctx context.Context, id int64, from, to workflow.State, version int64) (bool, error) {
			movedTo = to
			return true, nil
		}
		var saved *entity.CostComparison
		f.ccRepo.UpsertFn = func(ctx context.Context, cc *entity.CostComparison) error {
			saved = cc
			return nil
		}

		cc, err := f.svc.Upsert(context.Background(), officer, 5, quotes(350, 340), false)
		require.NoError(t, err)
		assert.Equal(t, workflow.StateReadyForCC, movedTo)
		require.NotNil(t, saved)
		assert.Len(t, cc.Quotes, 2)
	})

	t.Run("editing a rejected comparison does not re-fire", func(t *testing.T) {
		f := newCCFixture(ccItem(workflow.StateCCRejected))
		fired := false
		f.requestRepo.UpdateItemStatusFn = func(ctx context.Context, id int64, from, to workflow.State, version int64) (bool, error) {
			fired = true
			return true, nil
		}

		_, err := f.svc.Upsert(context.Background(), officer, 5, quotes(350), false)
		require.NoError(t, err)
		assert.False(t, fired)
	})

	t.Run("duplicate vendors are rejected", func(t *testing.T) {
		f := newCCFixture(ccItem(workflow.StateReadyForCC))

		_, err := f.svc.Upsert(context.Background(), officer, 5, []VendorQuoteInput{
			{VendorID: 1, UnitPrice: 350},
			{VendorID: 1, UnitPrice: 340},
		}, false)
		require.Error(t, err)
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	})

	t.Run("non-positive prices are rejected", func(t *testing.T) {
		f := newCCFixture(ccItem(workflow.StateReadyForCC))

		_, err := f.svc.Upsert(context.Background(), officer, 5, quotes(0), false)
		require.Error(t, err)
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	})

	t.Run("inactive vendor is rejected", func(t *testing.T) {
		f := newCCFixture(ccItem(workflow.StateReadyForCC))
		f.vendorRepo.GetByIDFn = func(ctx context.Context, id int64) (*entity.Vendor, error) {
			return &entity.Vendor{ID: id, Name: "Closed Traders", IsActive: false}, nil
		}

		_, err := f.svc.Upsert(context.Background(), officer, 5, quotes(350), false)
		require.Error(t, err)
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	})

	t.Run("empty quotes allowed only for direct delivery", func(t *testing.T) {
		f := newCCFixture(ccItem(workflow.StateReadyForCC))

		_, err := f.svc.Upsert(context.Background(), officer, 5, nil, false)
		require.Error(t, err)
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

		_, err = f.svc.Upsert(context.Background(), officer, 5, nil, true)
		require.NoError(t, err)
	})

	t.Run("wrong item state is a conflict", func(t *testing.T) {
		f := newCCFixture(ccItem(workflow.StatePending))

		_, err := f.svc.Upsert(context.Background(), officer, 5, quotes(350), false)
		require.Error(t, err)
		assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	})

	t.Run("engineer cannot edit a comparison", func(t *testing.T) {
		f := newCCFixture(ccItem(workflow.StateReadyForCC))

		_, err := f.svc.Upsert(context.Background(), engineer, 5, quotes(350), false)
		require.Error(t, err)
		assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
	})
}

func TestCCSubmit(t *testing.T) {
	t.Run("submits a saved comparison", func(t *testing.T) {
		f := newCCFixture(ccItem(workflow.StateReadyForCC))
		f.ccRepo.GetByItemIDFn = func(ctx context.Context, itemID int64) (*entity.CostComparison, error) {
			return &entity.CostComparison{
				ID:            3,
				RequestItemID: itemID,
				Quotes:        []*entity.VendorQuote{{VendorID: 1, UnitPrice: 350}},
			}, nil
		}
		var gotStatus workflow.State
		f.ccRepo.UpdateStatusFn = func(ctx context.Context, id int64, status workflow.State, notes string) error {
			gotStatus = status
			return nil
		}

		require.NoError(t, f.svc.Submit(context.Background(), officer, 5))
		assert.Equal(t, workflow.StateCCPending, gotStatus)
	})

	t.Run("submission without quotes is rejected", func(t *testing.T) {
		f := newCCFixture(ccItem(workflow.StateReadyForCC))

		err := f.svc.Submit(context.Background(), officer, 5)
		require.Error(t, err)
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	})
}

func TestCCApproveReject(t *testing.T) {
	withComparison := func(item *entity.RequestItem) *ccFixture {
		f := newCCFixture(item)
		f.ccRepo.GetByItemIDFn = func(ctx context.Context, itemID int64) (*entity.CostComparison, error) {
			return &entity.CostComparison{
				ID:            3,
				RequestItemID: itemID,
				Status:        workflow.StateCCPending,
				Quotes:        []*entity.VendorQuote{{VendorID: 1, UnitPrice: 350}},
			}, nil
		}
		return f
	}

	t.Run("manager approves a pending comparison", func(t *testing.T) {
		f := withComparison(ccItem(workflow.StateCCPending))
		var gotStatus workflow.State
		f.ccRepo.UpdateStatusFn = func(ctx context.Context, id int64, status workflow.State, notes string) error {
			gotStatus = status
			return nil
		}

		require.NoError(t, f.svc.Approve(context.Background(), manager, 5))
		assert.Equal(t, workflow.StateCCApproved, gotStatus)
	})

	t.Run("purchase officer cannot approve", func(t *testing.T) {
		f := withComparison(ccItem(workflow.StateCCPending))

		err := f.svc.Approve(context.Background(), officer, 5)
		require.Error(t, err)
		assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
	})

	t.Run("rejection requires manager notes", func(t *testing.T) {
		f := withComparison(ccItem(workflow.StateCCPending))

		err := f.svc.Reject(context.Background(), manager, 5, "")
		require.Error(t, err)
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	})

	t.Run("rejection stores the notes", func(t *testing.T) {
		f := withComparison(ccItem(workflow.StateCCPending))
		var gotNotes string
		f.ccRepo.UpdateStatusFn = func(ctx context.Context, id int64, status workflow.State, notes string) error {
			gotNotes = notes
			return nil
		}

		require.NoError(t, f.svc.Reject(context.Background(), manager, 5, "quote the usual vendor too"))
		assert.Equal(t, "quote the usual vendor too", gotNotes)
	})
}

func TestCCResubmit(t *testing.T) {
	t.Run("resubmits a rejected comparison straight to pending", func(t *testing.T) {
		f := newCCFixture(ccItem(workflow.StateCCRejected))
		var saved *entity.CostComparison
		f.ccRepo.UpsertFn = func(ctx context.Context, cc *entity.CostComparison) error {
			saved = cc
			return nil
		}

		require.NoError(t, f.svc.Resubmit(context.Background(), officer, 5, quotes(330, 345), false))
		require.NotNil(t, saved)
		assert.Equal(t, workflow.StateCCPending, saved.Status)
	})

	t.Run("direct delivery resubmission still needs a quote", func(t *testing.T) {
		f := newCCFixture(ccItem(workflow.StateCCRejected))

		err := f.svc.Resubmit(context.Background(), officer, 5, nil, true)
		require.Error(t, err)
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	})

	t.Run("only rejected comparisons can be resubmitted", func(t *testing.T) {
		f := newCCFixture(ccItem(workflow.StateCCPending))

		err := f.svc.Resubmit(context.Background(), officer, 5, quotes(330), false)
		require.Error(t, err)
		assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	})
}
