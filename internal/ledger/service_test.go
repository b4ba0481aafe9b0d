package ledger

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/kirana-pos/kirana/internal/pricing"
	"github.com/kirana-pos/kirana/internal/shared"
)

type memLedgerRepo struct {
	nextID  int64
	entries []Entry
}

func (r *memLedgerRepo) Insert(_ context.Context, entry Entry) (Entry, error) {
	r.nextID++
	entry.ID = r.nextID
	entry.CreatedAt = time.Now().UTC()
	r.entries = append(r.entries, entry)
	return entry, nil
}

func (r *memLedgerRepo) EntriesFor(_ context.Context, materialID, warehouseID int64) ([]Entry, error) {
	var out []Entry
	for _, e := range r.entries {
		if e.MaterialID != materialID {
			continue
		}
		if warehouseID != 0 && e.WarehouseID != warehouseID {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *memLedgerRepo) SumQty(_ context.Context, materialID, warehouseID int64) (float64, error) {
	var sum float64
	for _, e := range r.entries {
		if e.MaterialID != materialID {
			continue
		}
		if warehouseID != 0 && e.WarehouseID != warehouseID {
			continue
		}
		sum += e.Qty
	}
	return sum, nil
}

func (r *memLedgerRepo) SumQtyByMaterial(ctx context.Context, materialIDs []int64, warehouseID int64) (map[int64]float64, error) {
	out := map[int64]float64{}
	for _, id := range materialIDs {
		sum, _ := r.SumQty(ctx, id, warehouseID)
		if sum != 0 {
			out[id] = sum
		}
	}
	return out, nil
}

func (r *memLedgerRepo) RecentlyActive(_ context.Context, since time.Time, _ int) ([]MovementKey, error) {
	seen := map[MovementKey]bool{}
	var keys []MovementKey
	for _, e := range r.entries {
		if e.CreatedAt.Before(since) {
			continue
		}
		k := MovementKey{MaterialID: e.MaterialID, WarehouseID: e.WarehouseID}
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	return keys, nil
}

type fakeCatalog struct {
	materials map[int64]MaterialInfo
}

func (c *fakeCatalog) MovementMaterial(_ context.Context, materialID int64) (MaterialInfo, error) {
	info, ok := c.materials[materialID]
	if !ok {
		return MaterialInfo{}, fmt.Errorf("%w: material %d", shared.ErrNotFound, materialID)
	}
	return info, nil
}

type fakeWarehouses struct {
	ids map[int64]bool
}

func (w *fakeWarehouses) WarehouseExists(_ context.Context, warehouseID int64) (bool, error) {
	return w.ids[warehouseID], nil
}

type memIdempotency struct {
	keys map[string]bool
}

func (s *memIdempotency) CheckAndInsert(_ context.Context, key, _ string) error {
	if s.keys == nil {
		s.keys = map[string]bool{}
	}
	if s.keys[key] {
		return fmt.Errorf("%w: key %q", shared.ErrIdempotencyConflict, key)
	}
	s.keys[key] = true
	return nil
}

func (s *memIdempotency) Delete(_ context.Context, key string) error {
	delete(s.keys, key)
	return nil
}

type countingMetrics struct {
	byType map[string]int
}

func (m *countingMetrics) LedgerAppend(entryType string) {
	if m.byType == nil {
		m.byType = map[string]int{}
	}
	m.byType[entryType]++
}

func newTestLedger(t *testing.T, cfg ServiceConfig) (*Service, *memLedgerRepo, *countingMetrics) {
	t.Helper()
	repo := &memLedgerRepo{}
	catalog := &fakeCatalog{materials: map[int64]MaterialInfo{
		1: {
			Units: pricing.UnitConfig{Primary: "Pcs", Secondary: "Box", ConversionFactor: 12},
		},
		2: {
			Units:              pricing.UnitConfig{Primary: "Ltr"},
			DefaultWarehouseID: 1,
		},
		3: {
			Units:               pricing.UnitConfig{Primary: "Pcs"},
			BatchEnabled:        true,
			SerialNumberEnabled: true,
		},
	}}
	warehouses := &fakeWarehouses{ids: map[int64]bool{1: true, 2: true}}
	metrics := &countingMetrics{}
	agg := NewAggregator(repo, nil, 0)
	svc := NewService(repo, catalog, warehouses, agg, nil, &memIdempotency{}, metrics, cfg)
	return svc, repo, metrics
}

func TestAppendAndFold(t *testing.T) {
	svc, _, metrics := newTestLedger(t, ServiceConfig{EnforceSign: true})
	ctx := context.Background()

	_, err := svc.Append(ctx, AppendInput{MaterialID: 2, WarehouseID: 1, Type: EntryTypePurchase, Qty: 100, Unit: "Ltr"})
	require.NoError(t, err)
	_, err = svc.Append(ctx, AppendInput{MaterialID: 2, WarehouseID: 1, Type: EntryTypeSale, Qty: -30, Unit: "Ltr"})
	require.NoError(t, err)

	onHand, err := svc.OnHand(ctx, 2, 1)
	require.NoError(t, err)
	require.Equal(t, float64(70), onHand)
	require.Equal(t, 1, metrics.byType["PURCHASE"])
	require.Equal(t, 1, metrics.byType["SALE"])
}

func TestAppendConvertsToPrimaryUnit(t *testing.T) {
	svc, repo, _ := newTestLedger(t, ServiceConfig{})
	ctx := context.Background()

	entry, err := svc.Append(ctx, AppendInput{MaterialID: 1, WarehouseID: 1, Type: EntryTypePurchase, Qty: 2, Unit: "Box"})
	require.NoError(t, err)
	require.Equal(t, float64(24), entry.Qty)
	// The recorded unit survives for audit even though qty is primary.
	require.Equal(t, "Box", entry.Unit)
	require.Len(t, repo.entries, 1)

	onHand, err := svc.OnHand(ctx, 1, 1)
	require.NoError(t, err)
	require.Equal(t, float64(24), onHand)
}

func TestAppendUnknownUnit(t *testing.T) {
	svc, repo, _ := newTestLedger(t, ServiceConfig{})

	_, err := svc.Append(context.Background(), AppendInput{MaterialID: 2, WarehouseID: 1, Type: EntryTypePurchase, Qty: 5, Unit: "Box"})
	require.ErrorIs(t, err, shared.ErrInvalidArgument)
	require.Empty(t, repo.entries)
}

func TestAppendValidation(t *testing.T) {
	svc, repo, _ := newTestLedger(t, ServiceConfig{})
	ctx := context.Background()

	_, err := svc.Append(ctx, AppendInput{MaterialID: 1, WarehouseID: 1, Type: "TRANSFER", Qty: 1, Unit: "Pcs"})
	require.ErrorIs(t, err, shared.ErrInvalidArgument)

	_, err = svc.Append(ctx, AppendInput{MaterialID: 1, WarehouseID: 1, Type: EntryTypePurchase, Qty: 0, Unit: "Pcs"})
	require.ErrorIs(t, err, shared.ErrInvalidArgument)

	_, err = svc.Append(ctx, AppendInput{MaterialID: 1, WarehouseID: 1, Type: EntryTypePurchase, Qty: 1, Unit: "  "})
	require.ErrorIs(t, err, shared.ErrInvalidArgument)

	_, err = svc.Append(ctx, AppendInput{MaterialID: 99, WarehouseID: 1, Type: EntryTypePurchase, Qty: 1, Unit: "Pcs"})
	require.ErrorIs(t, err, shared.ErrNotFound)

	_, err = svc.Append(ctx, AppendInput{MaterialID: 1, WarehouseID: 9, Type: EntryTypePurchase, Qty: 1, Unit: "Pcs"})
	require.ErrorIs(t, err, shared.ErrNotFound)

	_, err = svc.Append(ctx, AppendInput{MaterialID: 1, WarehouseID: 1, Type: EntryTypePurchase, Qty: 1, Unit: "Pcs", ReferenceID: "not-a-uuid"})
	require.ErrorIs(t, err, shared.ErrInvalidArgument)

	require.Empty(t, repo.entries)
}

func TestAppendSignEnforcement(t *testing.T) {
	svc, _, _ := newTestLedger(t, ServiceConfig{EnforceSign: true})
	ctx := context.Background()

	_, err := svc.Append(ctx, AppendInput{MaterialID: 1, WarehouseID: 1, Type: EntryTypePurchase, Qty: -5, Unit: "Pcs"})
	require.ErrorIs(t, err, shared.ErrInvalidArgument)

	_, err = svc.Append(ctx, AppendInput{MaterialID: 1, WarehouseID: 1, Type: EntryTypeSale, Qty: 5, Unit: "Pcs"})
	require.ErrorIs(t, err, shared.ErrInvalidArgument)

	// Adjustments go either way.
	_, err = svc.Append(ctx, AppendInput{MaterialID: 1, WarehouseID: 1, Type: EntryTypeAdjustment, Qty: -5, Unit: "Pcs"})
	require.NoError(t, err)
	_, err = svc.Append(ctx, AppendInput{MaterialID: 1, WarehouseID: 1, Type: EntryTypeAdjustment, Qty: 5, Unit: "Pcs"})
	require.NoError(t, err)
}

func TestAppendSignPermissiveWhenDisabled(t *testing.T) {
	svc, _, _ := newTestLedger(t, ServiceConfig{EnforceSign: false})

	_, err := svc.Append(context.Background(), AppendInput{MaterialID: 1, WarehouseID: 1, Type: EntryTypePurchase, Qty: -5, Unit: "Pcs"})
	require.NoError(t, err)
}

func TestAppendDefaultsWarehouse(t *testing.T) {
	svc, repo, _ := newTestLedger(t, ServiceConfig{})
	ctx := context.Background()

	entry, err := svc.Append(ctx, AppendInput{MaterialID: 2, Type: EntryTypeOpening, Qty: 10, Unit: "Ltr"})
	require.NoError(t, err)
	require.Equal(t, int64(1), entry.WarehouseID)
	require.Len(t, repo.entries, 1)

	// Material 1 has no default: warehouse becomes mandatory.
	_, err = svc.Append(ctx, AppendInput{MaterialID: 1, Type: EntryTypeOpening, Qty: 10, Unit: "Pcs"})
	require.ErrorIs(t, err, shared.ErrInvalidArgument)
}

func TestAppendSerialNumbersRequireFlag(t *testing.T) {
	svc, _, _ := newTestLedger(t, ServiceConfig{})
	ctx := context.Background()

	_, err := svc.Append(ctx, AppendInput{MaterialID: 1, WarehouseID: 1, Type: EntryTypePurchase, Qty: 1, Unit: "Pcs", SerialNumbers: []string{"SN1"}})
	require.ErrorIs(t, err, shared.ErrInvalidArgument)

	_, err = svc.Append(ctx, AppendInput{MaterialID: 3, WarehouseID: 1, Type: EntryTypePurchase, Qty: 1, Unit: "Pcs", SerialNumbers: []string{"SN1"}})
	require.NoError(t, err)
}

func TestAppendBatchRequiresFlag(t *testing.T) {
	svc, _, _ := newTestLedger(t, ServiceConfig{})
	ctx := context.Background()

	_, err := svc.Append(ctx, AppendInput{MaterialID: 1, WarehouseID: 1, Type: EntryTypePurchase, Qty: 1, Unit: "Pcs", Batch: "B-42"})
	require.ErrorIs(t, err, shared.ErrInvalidArgument)

	entry, err := svc.Append(ctx, AppendInput{MaterialID: 3, WarehouseID: 1, Type: EntryTypePurchase, Qty: 1, Unit: "Pcs", Batch: " B-42 "})
	require.NoError(t, err)
	require.Equal(t, "B-42", entry.Batch)
}

func TestAppendIdempotency(t *testing.T) {
	svc, repo, _ := newTestLedger(t, ServiceConfig{})
	ctx := context.Background()
	ref := uuid.NewString()

	input := AppendInput{MaterialID: 1, WarehouseID: 1, Type: EntryTypeSale, Qty: -2, Unit: "Pcs", ReferenceID: ref}
	_, err := svc.Append(ctx, input)
	require.NoError(t, err)

	_, err = svc.Append(ctx, input)
	require.ErrorIs(t, err, shared.ErrIdempotencyConflict)
	require.Len(t, repo.entries, 1)

	// A different line of the same transaction posts fine.
	other := input
	other.MaterialID = 3
	_, err = svc.Append(ctx, other)
	require.NoError(t, err)
}

func TestEntriesForScopesWarehouse(t *testing.T) {
	svc, _, _ := newTestLedger(t, ServiceConfig{})
	ctx := context.Background()

	_, err := svc.Append(ctx, AppendInput{MaterialID: 1, WarehouseID: 1, Type: EntryTypePurchase, Qty: 5, Unit: "Pcs"})
	require.NoError(t, err)
	_, err = svc.Append(ctx, AppendInput{MaterialID: 1, WarehouseID: 2, Type: EntryTypePurchase, Qty: 7, Unit: "Pcs"})
	require.NoError(t, err)

	all, err := svc.EntriesFor(ctx, 1, 0)
	require.NoError(t, err)
	require.Len(t, all, 2)

	scoped, err := svc.EntriesFor(ctx, 1, 2)
	require.NoError(t, err)
	require.Len(t, scoped, 1)
	require.Equal(t, float64(7), scoped[0].Qty)

	onHandAll, err := svc.OnHand(ctx, 1, 0)
	require.NoError(t, err)
	require.Equal(t, float64(12), onHandAll)
}

func TestOnHandNoEntriesIsZero(t *testing.T) {
	svc, _, _ := newTestLedger(t, ServiceConfig{})

	onHand, err := svc.OnHand(context.Background(), 1, 1)
	require.NoError(t, err)
	require.Zero(t, onHand)
}
