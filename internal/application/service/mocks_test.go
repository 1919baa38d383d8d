package service

import (
	"context"
	"time"

	"github.com/krishsoni15/procureflow/internal/application/dispatcher"
	"github.com/krishsoni15/procureflow/internal/application/port"
	"github.com/krishsoni15/procureflow/internal/domain/entity"
	"github.com/krishsoni15/procureflow/internal/domain/event"
	"github.com/krishsoni15/procureflow/internal/domain/workflow"
)

// nopLogger discards all log output in tests.
type nopLogger struct{}

func (nopLogger) Info(msg string, keysAndValues ...interface{})  {}
func (nopLogger) Error(msg string, keysAndValues ...interface{}) {}

// passthroughTx runs the closure directly without a real transaction.
type passthroughTx struct{}

func (passthroughTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// mockDispatcher records published events.
type mockDispatcher struct {
	events []*event.Event
}

func (m *mockDispatcher) Subscribe(eventType event.Type, name string, handler dispatcher.Handler) {
}
func (m *mockDispatcher) Dispatch(ctx context.Context, evt *event.Event) error {
	m.events = append(m.events, evt)
	return nil
}
func (m *mockDispatcher) DispatchAsync(ctx context.Context, evt *event.Event) {
	m.events = append(m.events, evt)
}
func (m *mockDispatcher) Close() error { return nil }

type mockRequestRepo struct {
	CreateItemsFn       func(ctx context.Context, items []*entity.RequestItem) error
	GetItemByIDFn       func(ctx context.Context, id int64) (*entity.RequestItem, error)
	GetGroupFn          func(ctx context.Context, requestNumber string) ([]*entity.RequestItem, error)
	ListFn              func(ctx context.Context, filter port.RequestListFilter) ([]*entity.RequestItem, error)
	UpdateGroupStatusFn func(ctx context.Context, requestNumber string, from, to workflow.State, rejectionReason string) (int64, error)
	UpdateItemStatusFn  func(ctx context.Context, id int64, from, to workflow.State, version int64) (bool, error)
	UpdateDeliveredFn   func(ctx context.Context, id int64, from, to workflow.State, version int64, deliveredQuantity float64) (bool, error)
	ReplaceDraftItemsFn func(ctx context.Context, requestNumber string, items []*entity.RequestItem) error
	DeleteGroupFn       func(ctx context.Context, requestNumber string, status workflow.State) (int64, error)
	NextRequestNumberFn func(ctx context.Context) (string, error)
	CountBySiteFn       func(ctx context.Context, siteID int64) (int64, error)
	CountByStatusFn     func(ctx context.Context) ([]*entity.StatusCount, error)
	TopSitesFn          func(ctx context.Context, limit int) ([]*entity.SiteVolume, error)
}

func (m *mockRequestRepo) CreateItems(ctx context.Context, items []*entity.RequestItem) error {
	if m.CreateItemsFn != nil {
		return m.CreateItemsFn(ctx, items)
	}
	return nil
}

func (m *mockRequestRepo) GetItemByID(ctx context.Context, id int64) (*entity.RequestItem, error) {
	if m.GetItemByIDFn != nil {
		return m.GetItemByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockRequestRepo) GetGroup(ctx context.Context, requestNumber string) ([]*entity.RequestItem, error) {
	if m.GetGroupFn != nil {
		return m.GetGroupFn(ctx, requestNumber)
	}
	return nil, nil
}

func (m *mockRequestRepo) List(ctx context.Context, filter port.RequestListFilter) ([]*entity.RequestItem, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, filter)
	}
	return nil, nil
}

func (m *mockRequestRepo) UpdateGroupStatus(ctx context.Context, requestNumber string, from, to workflow.State, rejectionReason string) (int64, error) {
	if m.UpdateGroupStatusFn != nil {
		return m.UpdateGroupStatusFn(ctx, requestNumber, from, to, rejectionReason)
	}
	return 0, nil
}

func (m *mockRequestRepo) UpdateItemStatus(ctx context.Context, id int64, from, to workflow.State, version int64) (bool, error) {
	if m.UpdateItemStatusFn != nil {
		return m.UpdateItemStatusFn(ctx, id, from, to, version)
	}
	return true, nil
}

func (m *mockRequestRepo) UpdateDelivered(ctx context.Context, id int64, from, to workflow.State, version int64, deliveredQuantity float64) (bool, error) {
	if m.UpdateDeliveredFn != nil {
		return m.UpdateDeliveredFn(ctx, id, from, to, version, deliveredQuantity)
	}
	return true, nil
}

func (m *mockRequestRepo) ReplaceDraftItems(ctx context.Context, requestNumber string, items []*entity.RequestItem) error {
	if m.ReplaceDraftItemsFn != nil {
		return m.ReplaceDraftItemsFn(ctx, requestNumber, items)
	}
	return nil
}

func (m *mockRequestRepo) DeleteGroup(ctx context.Context, requestNumber string, status workflow.State) (int64, error) {
	if m.DeleteGroupFn != nil {
		return m.DeleteGroupFn(ctx, requestNumber, status)
	}
	return 0, nil
}

func (m *mockRequestRepo) NextRequestNumber(ctx context.Context) (string, error) {
	if m.NextRequestNumberFn != nil {
		return m.NextRequestNumberFn(ctx)
	}
	return "REQ-00001", nil
}

func (m *mockRequestRepo) CountBySite(ctx context.Context, siteID int64) (int64, error) {
	if m.CountBySiteFn != nil {
		return m.CountBySiteFn(ctx, siteID)
	}
	return 0, nil
}

func (m *mockRequestRepo) CountByStatus(ctx context.Context) ([]*entity.StatusCount, error) {
	if m.CountByStatusFn != nil {
		return m.CountByStatusFn(ctx)
	}
	return nil, nil
}

func (m *mockRequestRepo) TopSites(ctx context.Context, limit int) ([]*entity.SiteVolume, error) {
	if m.TopSitesFn != nil {
		return m.TopSitesFn(ctx, limit)
	}
	return nil, nil
}

type mockCCRepo struct {
	GetByItemIDFn  func(ctx context.Context, requestItemID int64) (*entity.CostComparison, error)
	UpsertFn       func(ctx context.Context, cc *entity.CostComparison) error
	UpdateStatusFn func(ctx context.Context, id int64, status workflow.State, managerNotes string) error
}

func (m *mockCCRepo) GetByItemID(ctx context.Context, requestItemID int64) (*entity.CostComparison, error) {
	if m.GetByItemIDFn != nil {
		return m.GetByItemIDFn(ctx, requestItemID)
	}
	return nil, nil
}

func (m *mockCCRepo) Upsert(ctx context.Context, cc *entity.CostComparison) error {
	if m.UpsertFn != nil {
		return m.UpsertFn(ctx, cc)
	}
	return nil
}

func (m *mockCCRepo) UpdateStatus(ctx context.Context, id int64, status workflow.State, managerNotes string) error {
	if m.UpdateStatusFn != nil {
		return m.UpdateStatusFn(ctx, id, status, managerNotes)
	}
	return nil
}

type mockPORepo struct {
	CreateFn                func(ctx context.Context, po *entity.PurchaseOrder) error
	GetByIDFn               func(ctx context.Context, id int64) (*entity.PurchaseOrder, error)
	GetByRequestItemIDFn    func(ctx context.Context, requestItemID int64) (*entity.PurchaseOrder, error)
	ListFn                  func(ctx context.Context, limit, offset int) ([]*entity.PurchaseOrder, error)
	UpdateStatusFn          func(ctx context.Context, id int64, from, to workflow.State, reason string) (bool, error)
	SetDeliveredDateFn      func(ctx context.Context, id int64, t time.Time) error
	CountUndeliveredItemsFn func(ctx context.Context, poID int64) (int64, error)
	NextPONumberFn          func(ctx context.Context) (string, error)
}

func (m *mockPORepo) Create(ctx context.Context, po *entity.PurchaseOrder) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, po)
	}
	return nil
}

func (m *mockPORepo) GetByID(ctx context.Context, id int64) (*entity.PurchaseOrder, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockPORepo) GetByRequestItemID(ctx context.Context, requestItemID int64) (*entity.PurchaseOrder, error) {
	if m.GetByRequestItemIDFn != nil {
		return m.GetByRequestItemIDFn(ctx, requestItemID)
	}
	return nil, nil
}

func (m *mockPORepo) List(ctx context.Context, limit, offset int) ([]*entity.PurchaseOrder, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, limit, offset)
	}
	return nil, nil
}

func (m *mockPORepo) UpdateStatus(ctx context.Context, id int64, from, to workflow.State, reason string) (bool, error) {
	if m.UpdateStatusFn != nil {
		return m.UpdateStatusFn(ctx, id, from, to, reason)
	}
	return true, nil
}

func (m *mockPORepo) SetDeliveredDate(ctx context.Context, id int64, t time.Time) error {
	if m.SetDeliveredDateFn != nil {
		return m.SetDeliveredDateFn(ctx, id, t)
	}
	return nil
}

func (m *mockPORepo) CountUndeliveredItems(ctx context.Context, poID int64) (int64, error) {
	if m.CountUndeliveredItemsFn != nil {
		return m.CountUndeliveredItemsFn(ctx, poID)
	}
	return 0, nil
}

func (m *mockPORepo) NextPONumber(ctx context.Context) (string, error) {
	if m.NextPONumberFn != nil {
		return m.NextPONumberFn(ctx)
	}
	return "PO-00001", nil
}

type mockDeliveryRepo struct {
	CreateFn     func(ctx context.Context, d *entity.Delivery) error
	ListByItemFn func(ctx context.Context, requestItemID int64) ([]*entity.Delivery, error)
}

func (m *mockDeliveryRepo) Create(ctx context.Context, d *entity.Delivery) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, d)
	}
	return nil
}

func (m *mockDeliveryRepo) ListByItem(ctx context.Context, requestItemID int64) ([]*entity.Delivery, error) {
	if m.ListByItemFn != nil {
		return m.ListByItemFn(ctx, requestItemID)
	}
	return nil, nil
}

type mockNoteRepo struct {
	CreateFn             func(ctx context.Context, note *entity.Note) error
	GetByRequestNumberFn func(ctx context.Context, requestNumber string) ([]*entity.Note, error)
	ListAllFn            func(ctx context.Context, limit, offset int) ([]*entity.Note, error)
	ListForCreatorFn     func(ctx context.Context, createdBy string, limit, offset int) ([]*entity.Note, error)

	created []*entity.Note
}

func (m *mockNoteRepo) Create(ctx context.Context, note *entity.Note) error {
	m.created = append(m.created, note)
	if m.CreateFn != nil {
		return m.CreateFn(ctx, note)
	}
	return nil
}

func (m *mockNoteRepo) GetByRequestNumber(ctx context.Context, requestNumber string) ([]*entity.Note, error) {
	if m.GetByRequestNumberFn != nil {
		return m.GetByRequestNumberFn(ctx, requestNumber)
	}
	return nil, nil
}

func (m *mockNoteRepo) ListAll(ctx context.Context, limit, offset int) ([]*entity.Note, error) {
	if m.ListAllFn != nil {
		return m.ListAllFn(ctx, limit, offset)
	}
	return nil, nil
}

func (m *mockNoteRepo) ListForCreator(ctx context.Context, createdBy string, limit, offset int) ([]*entity.Note, error) {
	if m.ListForCreatorFn != nil {
		return m.ListForCreatorFn(ctx, createdBy, limit, offset)
	}
	return nil, nil
}

type mockSiteRepo struct {
	CreateFn    func(ctx context.Context, site *entity.Site) error
	UpdateFn    func(ctx context.Context, site *entity.Site) error
	GetByIDFn   func(ctx context.Context, id int64) (*entity.Site, error)
	ListFn      func(ctx context.Context, activeOnly bool) ([]*entity.Site, error)
	SetActiveFn func(ctx context.Context, id int64, active bool) error
	DeleteFn    func(ctx context.Context, id int64) error
}

func (m *mockSiteRepo) Create(ctx context.Context, site *entity.Site) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, site)
	}
	return nil
}

func (m *mockSiteRepo) Update(ctx context.Context, site *entity.Site) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, site)
	}
	return nil
}

func (m *mockSiteRepo) GetByID(ctx context.Context, id int64) (*entity.Site, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockSiteRepo) List(ctx context.Context, activeOnly bool) ([]*entity.Site, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, activeOnly)
	}
	return nil, nil
}

func (m *mockSiteRepo) SetActive(ctx context.Context, id int64, active bool) error {
	if m.SetActiveFn != nil {
		return m.SetActiveFn(ctx, id, active)
	}
	return nil
}

func (m *mockSiteRepo) Delete(ctx context.Context, id int64) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}
	return nil
}

type mockVendorRepo struct {
	CreateFn   func(ctx context.Context, vendor *entity.Vendor) error
	UpdateFn   func(ctx context.Context, vendor *entity.Vendor) error
	GetByIDFn  func(ctx context.Context, id int64) (*entity.Vendor, error)
	GetByGSTFn func(ctx context.Context, gstNumber string) (*entity.Vendor, error)
	ListFn     func(ctx context.Context, activeOnly bool) ([]*entity.Vendor, error)
	DeleteFn   func(ctx context.Context, id int64) error
}

func (m *mockVendorRepo) Create(ctx context.Context, vendor *entity.Vendor) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, vendor)
	}
	return nil
}

func (m *mockVendorRepo) Update(ctx context.Context, vendor *entity.Vendor) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, vendor)
	}
	return nil
}

func (m *mockVendorRepo) GetByID(ctx context.Context, id int64) (*entity.Vendor, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockVendorRepo) GetByGST(ctx context.Context, gstNumber string) (*entity.Vendor, error) {
	if m.GetByGSTFn != nil {
		return m.GetByGSTFn(ctx, gstNumber)
	}
	return nil, nil
}

func (m *mockVendorRepo) List(ctx context.Context, activeOnly bool) ([]*entity.Vendor, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, activeOnly)
	}
	return nil, nil
}

func (m *mockVendorRepo) Delete(ctx context.Context, id int64) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}
	return nil
}

type mockInventoryRepo struct {
	CreateFn         func(ctx context.Context, item *entity.InventoryItem) error
	UpdateFn         func(ctx context.Context, item *entity.InventoryItem) error
	GetByIDFn        func(ctx context.Context, id int64) (*entity.InventoryItem, error)
	GetByNameFn      func(ctx context.Context, name string) (*entity.InventoryItem, error)
	ListFn           func(ctx context.Context) ([]*entity.InventoryItem, error)
	IncrementStockFn func(ctx context.Context, id int64, delta float64) error
	CountByVendorFn  func(ctx context.Context, vendorID int64) (int64, error)
	DeleteFn         func(ctx context.Context, id int64) error
}

func (m *mockInventoryRepo) Create(ctx context.Context, item *entity.InventoryItem) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, item)
	}
	return nil
}

func (m *mockInventoryRepo) Update(ctx context.Context, item *entity.InventoryItem) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, item)
	}
	return nil
}

func (m *mockInventoryRepo) GetByID(ctx context.Context, id int64) (*entity.InventoryItem, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockInventoryRepo) GetByName(ctx context.Context, name string) (*entity.InventoryItem, error) {
	if m.GetByNameFn != nil {
		return m.GetByNameFn(ctx, name)
	}
	return nil, nil
}

func (m *mockInventoryRepo) List(ctx context.Context) ([]*entity.InventoryItem, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx)
	}
	return nil, nil
}

func (m *mockInventoryRepo) IncrementStock(ctx context.Context, id int64, delta float64) error {
	if m.IncrementStockFn != nil {
		return m.IncrementStockFn(ctx, id, delta)
	}
	return nil
}

func (m *mockInventoryRepo) CountByVendor(ctx context.Context, vendorID int64) (int64, error) {
	if m.CountByVendorFn != nil {
		return m.CountByVendorFn(ctx, vendorID)
	}
	return 0, nil
}

func (m *mockInventoryRepo) Delete(ctx context.Context, id int64) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}
	return nil
}

type mockUserRepo struct {
	CreateFn      func(ctx context.Context, user *entity.User) error
	GetByIDFn     func(ctx context.Context, id string) (*entity.User, error)
	CountBySiteFn func(ctx context.Context, siteID int64) (int64, error)
}

func (m *mockUserRepo) Create(ctx context.Context, user *entity.User) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, user)
	}
	return nil
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockUserRepo) CountBySite(ctx context.Context, siteID int64) (int64, error) {
	if m.CountBySiteFn != nil {
		return m.CountBySiteFn(ctx, siteID)
	}
	return 0, nil
}
