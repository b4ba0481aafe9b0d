package catalog

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/kirana-pos/kirana/internal/ledger"
	"github.com/kirana-pos/kirana/internal/pricing"
	"github.com/kirana-pos/kirana/internal/refdata"
	"github.com/kirana-pos/kirana/internal/shared"
)

// RegistryPort resolves reference records the catalog links to.
// refdata.Service satisfies it.
type RegistryPort interface {
	GetCategory(ctx context.Context, id int64) (refdata.Category, error)
	GetUnit(ctx context.Context, id int64) (refdata.Unit, error)
	GetTax(ctx context.Context, id int64) (refdata.Tax, error)
	GetWarehouse(ctx context.Context, id int64) (refdata.Warehouse, error)
}

// Service owns material lifecycle and validation.
type Service struct {
	repo     RepositoryPort
	registry RegistryPort
	audit    ledger.AuditPort
}

// NewService builds Service. audit may be nil.
func NewService(repo RepositoryPort, registry RegistryPort, audit ledger.AuditPort) *Service {
	return &Service{repo: repo, registry: registry, audit: audit}
}

// Create validates the form, resolves every referenced registry record and
// persists the material. Include-tax flags default to true when omitted.
func (s *Service) Create(ctx context.Context, form MaterialForm) (Material, error) {
	m := Material{
		Name:                    normalizeName(form.Name),
		HSN:                     strings.TrimSpace(form.HSN),
		Code:                    strings.TrimSpace(form.Code),
		Barcode:                 strings.TrimSpace(form.Barcode),
		CategoryID:              form.CategoryID,
		UnitPrimaryID:           form.UnitPrimaryID,
		UnitSecondaryID:         form.UnitSecondaryID,
		ConversionFactor:        form.ConversionFactor,
		PurchaseRate:            form.PurchaseRate,
		RetailRate:              form.RetailRate,
		WholesaleRate:           form.WholesaleRate,
		TaxID:                   form.TaxID,
		PurchaseRateIncludeTax:  boolOr(form.PurchaseRateIncludeTax, true),
		RetailRateIncludeTax:    boolOr(form.RetailRateIncludeTax, true),
		WholesaleRateIncludeTax: boolOr(form.WholesaleRateIncludeTax, true),
		BatchEnabled:            form.BatchEnabled,
		SerialNumberEnabled:     form.SerialNumberEnabled,
		Discount:                pricing.Discount{Amount: form.DiscountAmount, Type: form.DiscountType},
		WarehouseID:             form.WarehouseID,
		ImageURL:                strings.TrimSpace(form.ImageURL),
	}
	if err := s.validate(ctx, &m); err != nil {
		return Material{}, err
	}
	created, err := s.repo.Create(ctx, m)
	if err != nil {
		return Material{}, err
	}
	s.record(ctx, "material:create", created.ID, created.Name)
	return created, nil
}

// Get returns one material by id.
func (s *Service) Get(ctx context.Context, id int64) (Material, error) {
	return s.repo.GetByID(ctx, id)
}

// Update applies the non-nil fields of upd onto the stored record and
// re-validates the merged result. Fields absent from the payload keep
// their current value.
func (s *Service) Update(ctx context.Context, id int64, upd MaterialUpdate) (Material, error) {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Material{}, err
	}
	applyUpdate(&m, upd)
	if err := s.validate(ctx, &m); err != nil {
		return Material{}, err
	}
	if err := s.repo.Update(ctx, m); err != nil {
		return Material{}, err
	}
	s.record(ctx, "material:update", m.ID, m.Name)
	return s.repo.GetByID(ctx, id)
}

// Delete removes the material row outright. Ledger entries referencing it
// stay in place: history is never rewritten, the row is simply gone.
func (s *Service) Delete(ctx context.Context, id int64) error {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.record(ctx, "material:delete", m.ID, m.Name)
	return nil
}

// MovementMaterial satisfies ledger.CatalogPort.
func (s *Service) MovementMaterial(ctx context.Context, materialID int64) (ledger.MaterialInfo, error) {
	return s.repo.MovementMaterial(ctx, materialID)
}

func (s *Service) validate(ctx context.Context, m *Material) error {
	if m.Name == "" {
		return fmt.Errorf("%w: name is required", shared.ErrInvalidArgument)
	}
	if m.UnitPrimaryID <= 0 {
		return fmt.Errorf("%w: primary unit is required", shared.ErrInvalidArgument)
	}
	if m.UnitSecondaryID != 0 {
		if m.ConversionFactor <= 0 {
			return fmt.Errorf("%w: conversion factor must be positive when a secondary unit is set", shared.ErrInvalidArgument)
		}
	} else if m.ConversionFactor == 0 {
		m.ConversionFactor = 1
	}
	if m.ConversionFactor < 0 {
		return fmt.Errorf("%w: conversion factor must be positive", shared.ErrInvalidArgument)
	}
	if m.PurchaseRate < 0 || m.RetailRate < 0 || m.WholesaleRate < 0 {
		return fmt.Errorf("%w: rates must be non-negative", shared.ErrInvalidArgument)
	}
	switch m.Discount.Type {
	case "":
		if m.Discount.Amount > 0 {
			m.Discount.Type = pricing.DiscountPercent
		}
	case pricing.DiscountPercent, pricing.DiscountFixed:
	default:
		return fmt.Errorf("%w: unknown discount type %q", shared.ErrInvalidArgument, m.Discount.Type)
	}
	if m.Discount.Amount < 0 {
		return fmt.Errorf("%w: discount amount must be non-negative", shared.ErrInvalidArgument)
	}
	if m.Discount.Type == pricing.DiscountPercent && m.Discount.Amount > 100 {
		return fmt.Errorf("%w: percent discount cannot exceed 100", shared.ErrInvalidArgument)
	}

	if m.CategoryID != 0 {
		if _, err := s.registry.GetCategory(ctx, m.CategoryID); err != nil {
			return err
		}
	}
	if _, err := s.registry.GetUnit(ctx, m.UnitPrimaryID); err != nil {
		return err
	}
	if m.UnitSecondaryID != 0 {
		if _, err := s.registry.GetUnit(ctx, m.UnitSecondaryID); err != nil {
			return err
		}
	}
	if m.TaxID != 0 {
		if _, err := s.registry.GetTax(ctx, m.TaxID); err != nil {
			return err
		}
	}
	if m.WarehouseID != 0 {
		if _, err := s.registry.GetWarehouse(ctx, m.WarehouseID); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) record(ctx context.Context, action string, id int64, name string) {
	if s.audit == nil {
		return
	}
	var actorID int64
	if p := shared.PrincipalFromContext(ctx); p != nil {
		actorID = p.ID
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "materials",
		EntityID: fmt.Sprintf("%d", id),
		Meta:     map[string]any{"name": name},
	})
}

func applyUpdate(m *Material, upd MaterialUpdate) {
	if upd.Name != nil {
		m.Name = normalizeName(*upd.Name)
	}
	if upd.HSN != nil {
		m.HSN = strings.TrimSpace(*upd.HSN)
	}
	if upd.Code != nil {
		m.Code = strings.TrimSpace(*upd.Code)
	}
	if upd.Barcode != nil {
		m.Barcode = strings.TrimSpace(*upd.Barcode)
	}
	if upd.CategoryID != nil {
		m.CategoryID = *upd.CategoryID
	}
	if upd.UnitPrimaryID != nil {
		m.UnitPrimaryID = *upd.UnitPrimaryID
	}
	if upd.UnitSecondaryID != nil {
		m.UnitSecondaryID = *upd.UnitSecondaryID
	}
	if upd.ConversionFactor != nil {
		m.ConversionFactor = *upd.ConversionFactor
	}
	if upd.PurchaseRate != nil {
		m.PurchaseRate = *upd.PurchaseRate
	}
	if upd.RetailRate != nil {
		m.RetailRate = *upd.RetailRate
	}
	if upd.WholesaleRate != nil {
		m.WholesaleRate = *upd.WholesaleRate
	}
	if upd.TaxID != nil {
		m.TaxID = *upd.TaxID
	}
	if upd.PurchaseRateIncludeTax != nil {
		m.PurchaseRateIncludeTax = *upd.PurchaseRateIncludeTax
	}
	if upd.RetailRateIncludeTax != nil {
		m.RetailRateIncludeTax = *upd.RetailRateIncludeTax
	}
	if upd.WholesaleRateIncludeTax != nil {
		m.WholesaleRateIncludeTax = *upd.WholesaleRateIncludeTax
	}
	if upd.BatchEnabled != nil {
		m.BatchEnabled = *upd.BatchEnabled
	}
	if upd.SerialNumberEnabled != nil {
		m.SerialNumberEnabled = *upd.SerialNumberEnabled
	}
	if upd.DiscountAmount != nil {
		m.Discount.Amount = *upd.DiscountAmount
	}
	if upd.DiscountType != nil {
		m.Discount.Type = *upd.DiscountType
	}
	if upd.WarehouseID != nil {
		m.WarehouseID = *upd.WarehouseID
	}
	if upd.ImageURL != nil {
		m.ImageURL = strings.TrimSpace(*upd.ImageURL)
	}
}

func normalizeName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
