package ledger

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/kirana-pos/kirana/internal/pricing"
	"github.com/kirana-pos/kirana/internal/shared"
)

// MaterialInfo is the slice of a material the ledger needs to validate and
// convert a movement.
type MaterialInfo struct {
	Units               pricing.UnitConfig
	BatchEnabled        bool
	SerialNumberEnabled bool
	DefaultWarehouseID  int64
}

// CatalogPort resolves materials for movement validation.
type CatalogPort interface {
	MovementMaterial(ctx context.Context, materialID int64) (MaterialInfo, error)
}

// WarehousePort checks warehouse existence.
type WarehousePort interface {
	WarehouseExists(ctx context.Context, warehouseID int64) (bool, error)
}

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// IdempotencyPort guards duplicate postings for the same originating
// transaction.
type IdempotencyPort interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key string) error
}

// MetricsPort counts appended movements.
type MetricsPort interface {
	LedgerAppend(entryType string)
}

// ServiceConfig groups optional settings.
type ServiceConfig struct {
	// EnforceSign rejects PURCHASE/OPENING entries with negative qty and
	// SALE entries with positive qty. Off preserves the permissive
	// historical behaviour.
	EnforceSign bool
}

// Service validates and appends stock movements.
type Service struct {
	repo        RepositoryPort
	catalog     CatalogPort
	warehouses  WarehousePort
	aggregator  *Aggregator
	audit       AuditPort
	idempotency IdempotencyPort
	metrics     MetricsPort
	enforceSign bool
}

// NewService builds Service. audit, idempotency and metrics may be nil.
func NewService(repo RepositoryPort, catalog CatalogPort, warehouses WarehousePort, aggregator *Aggregator, audit AuditPort, idempotency IdempotencyPort, metrics MetricsPort, cfg ServiceConfig) *Service {
	return &Service{
		repo:        repo,
		catalog:     catalog,
		warehouses:  warehouses,
		aggregator:  aggregator,
		audit:       audit,
		idempotency: idempotency,
		metrics:     metrics,
		enforceSign: cfg.EnforceSign,
	}
}

// Append validates the posting, converts qty to the material's primary unit
// and writes exactly one immutable entry. All checks run before the write:
// on error there are no side effects.
func (s *Service) Append(ctx context.Context, input AppendInput) (Entry, error) {
	if !input.Type.Valid() {
		return Entry{}, fmt.Errorf("%w: unknown movement type %q", shared.ErrInvalidArgument, input.Type)
	}
	if input.Qty == 0 {
		return Entry{}, fmt.Errorf("%w: qty must be non-zero", shared.ErrInvalidArgument)
	}
	unit := strings.TrimSpace(input.Unit)
	if unit == "" {
		return Entry{}, fmt.Errorf("%w: unit is required", shared.ErrInvalidArgument)
	}
	if s.enforceSign {
		switch input.Type {
		case EntryTypePurchase, EntryTypeOpening:
			if input.Qty < 0 {
				return Entry{}, fmt.Errorf("%w: %s qty must be positive", shared.ErrInvalidArgument, input.Type)
			}
		case EntryTypeSale:
			if input.Qty > 0 {
				return Entry{}, fmt.Errorf("%w: SALE qty must be negative", shared.ErrInvalidArgument)
			}
		}
	}
	if input.ReferenceID != "" {
		if _, err := uuid.Parse(input.ReferenceID); err != nil {
			return Entry{}, fmt.Errorf("%w: reference id must be a UUID", shared.ErrInvalidArgument)
		}
	}

	material, err := s.catalog.MovementMaterial(ctx, input.MaterialID)
	if err != nil {
		return Entry{}, err
	}
	if input.WarehouseID == 0 {
		input.WarehouseID = material.DefaultWarehouseID
	}
	if input.WarehouseID == 0 {
		return Entry{}, fmt.Errorf("%w: warehouse is required and the material has no default", shared.ErrInvalidArgument)
	}
	exists, err := s.warehouses.WarehouseExists(ctx, input.WarehouseID)
	if err != nil {
		return Entry{}, err
	}
	if !exists {
		return Entry{}, fmt.Errorf("%w: warehouse %d", shared.ErrNotFound, input.WarehouseID)
	}
	if len(input.SerialNumbers) > 0 && !material.SerialNumberEnabled {
		return Entry{}, fmt.Errorf("%w: material does not track serial numbers", shared.ErrInvalidArgument)
	}
	batch := strings.TrimSpace(input.Batch)
	if batch != "" && !material.BatchEnabled {
		return Entry{}, fmt.Errorf("%w: material does not track batches", shared.ErrInvalidArgument)
	}

	qty, err := pricing.ToPrimaryUnit(material.Units, input.Qty, unit)
	if err != nil {
		return Entry{}, err
	}

	insertedKey := ""
	if s.idempotency != nil && input.ReferenceID != "" {
		key := fmt.Sprintf("%s:%s:%d:%d", input.Type, input.ReferenceID, input.MaterialID, input.WarehouseID)
		if err := s.idempotency.CheckAndInsert(ctx, key, "ledger"); err != nil {
			return Entry{}, err
		}
		insertedKey = key
	}

	entry, err := s.repo.Insert(ctx, Entry{
		MaterialID:    input.MaterialID,
		WarehouseID:   input.WarehouseID,
		Type:          input.Type,
		Qty:           qty,
		Unit:          unit,
		Batch:         batch,
		SerialNumbers: input.SerialNumbers,
		ReferenceID:   input.ReferenceID,
	})
	if err != nil {
		if insertedKey != "" {
			_ = s.idempotency.Delete(ctx, insertedKey)
		}
		return Entry{}, err
	}

	// Synchronous: no stale on-hand read once Append has returned.
	if s.aggregator != nil {
		if err := s.aggregator.Invalidate(ctx, entry.MaterialID, entry.WarehouseID); err != nil {
			return Entry{}, fmt.Errorf("invalidate on-hand memo: %w", err)
		}
	}

	if s.metrics != nil {
		s.metrics.LedgerAppend(string(entry.Type))
	}
	if s.audit != nil {
		actorID := input.ActorID
		if p := shared.PrincipalFromContext(ctx); p != nil {
			actorID = p.ID
		}
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actorID,
			Action:   fmt.Sprintf("ledger:%s", entry.Type),
			Entity:   "stock_ledger",
			EntityID: fmt.Sprintf("%d", entry.ID),
			Meta: map[string]any{
				"material_id":  entry.MaterialID,
				"warehouse_id": entry.WarehouseID,
				"qty":          entry.Qty,
				"unit":         entry.Unit,
				"reference_id": entry.ReferenceID,
			},
		})
	}
	return entry, nil
}

// EntriesFor lists entries for a material in ascending creation order,
// optionally scoped to one warehouse (0 = all).
func (s *Service) EntriesFor(ctx context.Context, materialID, warehouseID int64) ([]Entry, error) {
	if materialID <= 0 {
		return nil, fmt.Errorf("%w: material id is required", shared.ErrInvalidArgument)
	}
	return s.repo.EntriesFor(ctx, materialID, warehouseID)
}

// OnHand exposes the aggregator fold for a pair.
func (s *Service) OnHand(ctx context.Context, materialID, warehouseID int64) (float64, error) {
	if materialID <= 0 {
		return 0, fmt.Errorf("%w: material id is required", shared.ErrInvalidArgument)
	}
	return s.aggregator.OnHand(ctx, materialID, warehouseID)
}
