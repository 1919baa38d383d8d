package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/krishsoni15/procureflow/internal/application/port"
	"github.com/krishsoni15/procureflow/internal/domain/apperr"
	"github.com/krishsoni15/procureflow/internal/domain/entity"
	"github.com/krishsoni15/procureflow/internal/domain/workflow"
	"github.com/krishsoni15/procureflow/pkg/utils"
)

// ReferenceService manages sites, vendors, and the inventory master list.
// Deactivation and deletion are guarded by usage checks so history stays
// resolvable: a site with users or requests and a vendor with inventory
// items cannot be removed.
type ReferenceService interface {
	CreateSite(ctx context.Context, actor entity.Actor, site *entity.Site) error
	UpdateSite(ctx context.Context, actor entity.Actor, site *entity.Site) error
	DeactivateSite(ctx context.Context, actor entity.Actor, siteID int64) error
	DeleteSite(ctx context.Context, actor entity.Actor, siteID int64) error
	ListSites(ctx context.Context, activeOnly bool) ([]*entity.Site, error)

	CreateVendor(ctx context.Context, actor entity.Actor, vendor *entity.Vendor) error
	UpdateVendor(ctx context.Context, actor entity.Actor, vendor *entity.Vendor) error
	DeleteVendor(ctx context.Context, actor entity.Actor, vendorID int64) error
	ListVendors(ctx context.Context, activeOnly bool) ([]*entity.Vendor, error)

	CreateInventoryItem(ctx context.Context, actor entity.Actor, item *entity.InventoryItem) error
	UpdateInventoryItem(ctx context.Context, actor entity.Actor, item *entity.InventoryItem) error
	DeleteInventoryItem(ctx context.Context, actor entity.Actor, itemID int64) error
	ListInventory(ctx context.Context) ([]*entity.InventoryItem, error)
}

type referenceServiceImpl struct {
	siteRepo      port.SiteRepository
	vendorRepo    port.VendorRepository
	inventoryRepo port.InventoryRepository
	userRepo      port.UserRepository
	requestRepo   port.RequestRepository
	txManager     port.TransactionManager
	logger        Logger
}

// NewReferenceService creates a new ReferenceService
func NewReferenceService(
	siteRepo port.SiteRepository,
	vendorRepo port.VendorRepository,
	inventoryRepo port.InventoryRepository,
	userRepo port.UserRepository,
	requestRepo port.RequestRepository,
	txManager port.TransactionManager,
	logger Logger,
) ReferenceService {
	return &referenceServiceImpl{
		siteRepo:      siteRepo,
		vendorRepo:    vendorRepo,
		inventoryRepo: inventoryRepo,
		userRepo:      userRepo,
		requestRepo:   requestRepo,
		txManager:     txManager,
		logger:        logger,
	}
}

// requireAdmin gates reference-data mutations to admins.
func requireAdmin(actor entity.Actor) error {
	if actor.Role != workflow.RoleAdmin {
		return apperr.Forbidden("only admins can manage reference data")
	}
	return nil
}

func (s *referenceServiceImpl) CreateSite(ctx context.Context, actor entity.Actor, site *entity.Site) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if strings.TrimSpace(site.Name) == "" {
		return apperr.Validation("site name is required")
	}

	site.IsActive = true
	site.CreatedAt = time.Now()
	if err := s.siteRepo.Create(ctx, site); err != nil {
		s.logger.Error("Failed to create site", "error", err, "name", site.Name)
		return err
	}

	s.logger.Info("Site created", "site_id", site.ID, "name", site.Name)
	return nil
}

func (s *referenceServiceImpl) UpdateSite(ctx context.Context, actor entity.Actor, site *entity.Site) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if strings.TrimSpace(site.Name) == "" {
		return apperr.Validation("site name is required")
	}

	existing, err := s.siteRepo.GetByID(ctx, site.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return apperr.NotFoundf("site %d not found", site.ID)
	}

	return s.siteRepo.Update(ctx, site)
}

// DeactivateSite hides a site from new requests. The same usage guard as
// deletion applies: assigned users or referencing requests block it.
func (s *referenceServiceImpl) DeactivateSite(ctx context.Context, actor entity.Actor, siteID int64) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.checkSiteUsage(txCtx, siteID, "deactivated"); err != nil {
			return err
		}
		return s.siteRepo.SetActive(txCtx, siteID, false)
	})
	if err != nil {
		return err
	}

	s.logger.Info("Site deactivated", "site_id", siteID)
	return nil
}

func (s *referenceServiceImpl) DeleteSite(ctx context.Context, actor entity.Actor, siteID int64) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.checkSiteUsage(txCtx, siteID, "deleted"); err != nil {
			return err
		}
		return s.siteRepo.Delete(txCtx, siteID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("Site deleted", "site_id", siteID)
	return nil
}

// checkSiteUsage blocks removal while users are assigned to the site or
// requests reference it.
func (s *referenceServiceImpl) checkSiteUsage(ctx context.Context, siteID int64, verb string) error {
	site, err := s.siteRepo.GetByID(ctx, siteID)
	if err != nil {
		return err
	}
	if site == nil {
		return apperr.NotFoundf("site %d not found", siteID)
	}

	users, err := s.userRepo.CountBySite(ctx, siteID)
	if err != nil {
		return err
	}
	if users > 0 {
		return apperr.UsageConflict(fmt.Sprintf("site %q has %d assigned users and cannot be %s", site.Name, users, verb))
	}

	requests, err := s.requestRepo.CountBySite(ctx, siteID)
	if err != nil {
		return err
	}
	if requests > 0 {
		return apperr.UsageConflict(fmt.Sprintf("site %q is referenced by %d request items and cannot be %s", site.Name, requests, verb))
	}
	return nil
}

func (s *referenceServiceImpl) ListSites(ctx context.Context, activeOnly bool) ([]*entity.Site, error) {
	return s.siteRepo.List(ctx, activeOnly)
}

func (s *referenceServiceImpl) CreateVendor(ctx context.Context, actor entity.Actor, vendor *entity.Vendor) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if err := s.validateVendor(ctx, vendor, 0); err != nil {
		return err
	}

	vendor.IsActive = true
	vendor.CreatedAt = time.Now()
	if err := s.vendorRepo.Create(ctx, vendor); err != nil {
		s.logger.Error("Failed to create vendor", "error", err, "name", vendor.Name)
		return err
	}

	s.logger.Info("Vendor created", "vendor_id", vendor.ID, "name", vendor.Name)
	return nil
}

func (s *referenceServiceImpl) UpdateVendor(ctx context.Context, actor entity.Actor, vendor *entity.Vendor) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}

	existing, err := s.vendorRepo.GetByID(ctx, vendor.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return apperr.NotFoundf("vendor %d not found", vendor.ID)
	}
	if err := s.validateVendor(ctx, vendor, vendor.ID); err != nil {
		return err
	}

	return s.vendorRepo.Update(ctx, vendor)
}

// validateVendor checks required fields, formats, and GST uniqueness.
// excludeID skips the vendor's own row on update.
func (s *referenceServiceImpl) validateVendor(ctx context.Context, vendor *entity.Vendor, excludeID int64) error {
	if strings.TrimSpace(vendor.Name) == "" {
		return apperr.Validation("vendor name is required")
	}
	if !utils.IsValidEmail(vendor.Email) {
		return apperr.Validationf("invalid email address %q", vendor.Email)
	}
	if vendor.Phone != "" && !utils.IsValidPhone(vendor.Phone) {
		return apperr.Validationf("invalid phone number %q", vendor.Phone)
	}

	vendor.GSTNumber = utils.NormalizeGST(vendor.GSTNumber)
	if !utils.IsValidGST(vendor.GSTNumber) {
		return apperr.Validationf("invalid GST number %q", vendor.GSTNumber)
	}

	existing, err := s.vendorRepo.GetByGST(ctx, vendor.GSTNumber)
	if err != nil {
		return err
	}
	if existing != nil && existing.ID != excludeID {
		return apperr.Validationf("GST number %s already registered to vendor %q", vendor.GSTNumber, existing.Name)
	}
	return nil
}

func (s *referenceServiceImpl) DeleteVendor(ctx context.Context, actor entity.Actor, vendorID int64) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		vendor, err := s.vendorRepo.GetByID(txCtx, vendorID)
		if err != nil {
			return err
		}
		if vendor == nil {
			return apperr.NotFoundf("vendor %d not found", vendorID)
		}

		inUse, err := s.inventoryRepo.CountByVendor(txCtx, vendorID)
		if err != nil {
			return err
		}
		if inUse > 0 {
			return apperr.UsageConflict(fmt.Sprintf("vendor %q supplies %d inventory items and cannot be deleted", vendor.Name, inUse))
		}

		return s.vendorRepo.Delete(txCtx, vendorID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("Vendor deleted", "vendor_id", vendorID)
	return nil
}

func (s *referenceServiceImpl) ListVendors(ctx context.Context, activeOnly bool) ([]*entity.Vendor, error) {
	return s.vendorRepo.List(ctx, activeOnly)
}

func (s *referenceServiceImpl) CreateInventoryItem(ctx context.Context, actor entity.Actor, item *entity.InventoryItem) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if err := s.validateInventoryItem(ctx, item); err != nil {
		return err
	}
	if item.Quantity < 0 {
		return apperr.Validation("initial quantity cannot be negative")
	}

	item.UpdatedAt = time.Now()
	if err := s.inventoryRepo.Create(ctx, item); err != nil {
		s.logger.Error("Failed to create inventory item", "error", err, "name", item.Name)
		return err
	}

	s.logger.Info("Inventory item created", "item_id", item.ID, "name", item.Name)
	return nil
}

func (s *referenceServiceImpl) UpdateInventoryItem(ctx context.Context, actor entity.Actor, item *entity.InventoryItem) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}

	existing, err := s.inventoryRepo.GetByID(ctx, item.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return apperr.NotFoundf("inventory item %d not found", item.ID)
	}
	if err := s.validateInventoryItem(ctx, item); err != nil {
		return err
	}

	item.UpdatedAt = time.Now()
	return s.inventoryRepo.Update(ctx, item)
}

func (s *referenceServiceImpl) validateInventoryItem(ctx context.Context, item *entity.InventoryItem) error {
	if strings.TrimSpace(item.Name) == "" {
		return apperr.Validation("inventory item name is required")
	}
	if strings.TrimSpace(item.Unit) == "" {
		return apperr.Validation("inventory item unit is required")
	}
	if item.VendorID != nil {
		vendor, err := s.vendorRepo.GetByID(ctx, *item.VendorID)
		if err != nil {
			return err
		}
		if vendor == nil {
			return apperr.NotFoundf("vendor %d not found", *item.VendorID)
		}
	}
	return nil
}

func (s *referenceServiceImpl) DeleteInventoryItem(ctx context.Context, actor entity.Actor, itemID int64) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}

	existing, err := s.inventoryRepo.GetByID(ctx, itemID)
	if err != nil {
		return err
	}
	if existing == nil {
		return apperr.NotFoundf("inventory item %d not found", itemID)
	}

	return s.inventoryRepo.Delete(ctx, itemID)
}

func (s *referenceServiceImpl) ListInventory(ctx context.Context) ([]*entity.InventoryItem, error) {
	return s.inventoryRepo.List(ctx)
}
