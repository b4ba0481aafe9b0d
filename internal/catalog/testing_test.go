package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/kirana-pos/kirana/internal/ledger"
	"github.com/kirana-pos/kirana/internal/pricing"
	"github.com/kirana-pos/kirana/internal/refdata"
	"github.com/kirana-pos/kirana/internal/shared"
)

// memRepo is the in-memory RepositoryPort used across the package tests.
type memRepo struct {
	nextID    int64
	materials map[int64]Material
	unitNames map[int64]string
}

func newMemRepo() *memRepo {
	return &memRepo{
		materials: map[int64]Material{},
		unitNames: map[int64]string{1: "Pcs", 2: "Box", 3: "Kg"},
	}
}

func (r *memRepo) Create(_ context.Context, m Material) (Material, error) {
	for _, existing := range r.materials {
		if m.Barcode != "" && existing.Barcode == m.Barcode {
			return Material{}, fmt.Errorf("%w: duplicate barcode", shared.ErrConflict)
		}
		if m.Code != "" && existing.Code == m.Code {
			return Material{}, fmt.Errorf("%w: duplicate code", shared.ErrConflict)
		}
	}
	r.nextID++
	m.ID = r.nextID
	m.CreatedAt = time.Now().UTC()
	m.UpdatedAt = m.CreatedAt
	r.materials[m.ID] = m
	return m, nil
}

func (r *memRepo) GetByID(_ context.Context, id int64) (Material, error) {
	m, ok := r.materials[id]
	if !ok {
		return Material{}, fmt.Errorf("%w: material %d", shared.ErrNotFound, id)
	}
	return m, nil
}

func (r *memRepo) GetByBarcode(_ context.Context, barcode string) (Material, error) {
	for _, m := range r.materials {
		if m.Barcode == barcode {
			return m, nil
		}
	}
	return Material{}, fmt.Errorf("%w: barcode %q", shared.ErrNotFound, barcode)
}

func (r *memRepo) Update(_ context.Context, m Material) error {
	if _, ok := r.materials[m.ID]; !ok {
		return fmt.Errorf("%w: material %d", shared.ErrNotFound, m.ID)
	}
	m.UpdatedAt = time.Now().UTC()
	r.materials[m.ID] = m
	return nil
}

func (r *memRepo) Delete(_ context.Context, id int64) error {
	if _, ok := r.materials[id]; !ok {
		return fmt.Errorf("%w: material %d", shared.ErrNotFound, id)
	}
	delete(r.materials, id)
	return nil
}

func (r *memRepo) List(_ context.Context, f ListFilter) ([]Material, error) {
	var matched []Material
	for _, m := range r.materials {
		if f.CategoryID != 0 && m.CategoryID != f.CategoryID {
			continue
		}
		if !matchesSearch(m, f.Search) {
			continue
		}
		matched = append(matched, m)
	}
	if f.Sort == SortNameAsc {
		sort.Slice(matched, func(i, j int) bool { return matched[i].Name < matched[j].Name })
	} else {
		sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })
	}
	if f.Limit <= 0 {
		return matched, nil
	}
	start := (f.Page - 1) * f.Limit
	if start < 0 {
		start = 0
	}
	if start > len(matched) {
		start = len(matched)
	}
	end := start + f.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], nil
}

func (r *memRepo) Count(ctx context.Context, f ListFilter) (int, error) {
	f.Limit = 0
	matched, err := r.List(ctx, f)
	return len(matched), err
}

func (r *memRepo) Search(ctx context.Context, query string, limit int) ([]Material, error) {
	return r.List(ctx, ListFilter{Search: query, Page: 1, Limit: limit})
}

func (r *memRepo) MovementMaterial(_ context.Context, id int64) (ledger.MaterialInfo, error) {
	m, ok := r.materials[id]
	if !ok {
		return ledger.MaterialInfo{}, fmt.Errorf("%w: material %d", shared.ErrNotFound, id)
	}
	return ledger.MaterialInfo{
		Units: pricing.UnitConfig{
			Primary:          r.unitNames[m.UnitPrimaryID],
			Secondary:        r.unitNames[m.UnitSecondaryID],
			ConversionFactor: m.ConversionFactor,
		},
		BatchEnabled:        m.BatchEnabled,
		SerialNumberEnabled: m.SerialNumberEnabled,
		DefaultWarehouseID:  m.WarehouseID,
	}, nil
}

func matchesSearch(m Material, search string) bool {
	for _, token := range strings.Fields(search) {
		token = strings.ToLower(token)
		hit := strings.Contains(strings.ToLower(m.Name), token) ||
			strings.Contains(strings.ToLower(m.Code), token) ||
			strings.Contains(strings.ToLower(m.Barcode), token) ||
			strings.Contains(strings.ToLower(m.HSN), token)
		if !hit {
			return false
		}
	}
	return true
}

// memRegistry backs both RegistryPort and ListPort.
type memRegistry struct {
	categories map[int64]refdata.Category
	units      map[int64]refdata.Unit
	taxes      map[int64]refdata.Tax
	warehouses map[int64]refdata.Warehouse
}

func newMemRegistry() *memRegistry {
	return &memRegistry{
		categories: map[int64]refdata.Category{1: {ID: 1, Name: "Grocery"}},
		units: map[int64]refdata.Unit{
			1: {ID: 1, Name: "Pcs"},
			2: {ID: 2, Name: "Box"},
			3: {ID: 3, Name: "Kg"},
		},
		taxes:      map[int64]refdata.Tax{1: {ID: 1, Name: "GST 5%", Rate: 5}},
		warehouses: map[int64]refdata.Warehouse{1: {ID: 1, Name: "Main"}},
	}
}

func (r *memRegistry) GetCategory(_ context.Context, id int64) (refdata.Category, error) {
	c, ok := r.categories[id]
	if !ok {
		return refdata.Category{}, fmt.Errorf("%w: category %d", shared.ErrNotFound, id)
	}
	return c, nil
}

func (r *memRegistry) GetUnit(_ context.Context, id int64) (refdata.Unit, error) {
	u, ok := r.units[id]
	if !ok {
		return refdata.Unit{}, fmt.Errorf("%w: unit %d", shared.ErrNotFound, id)
	}
	return u, nil
}

func (r *memRegistry) GetTax(_ context.Context, id int64) (refdata.Tax, error) {
	t, ok := r.taxes[id]
	if !ok {
		return refdata.Tax{}, fmt.Errorf("%w: tax %d", shared.ErrNotFound, id)
	}
	return t, nil
}

func (r *memRegistry) GetWarehouse(_ context.Context, id int64) (refdata.Warehouse, error) {
	w, ok := r.warehouses[id]
	if !ok {
		return refdata.Warehouse{}, fmt.Errorf("%w: warehouse %d", shared.ErrNotFound, id)
	}
	return w, nil
}

func (r *memRegistry) ListCategories(_ context.Context) ([]refdata.Category, error) {
	out := make([]refdata.Category, 0, len(r.categories))
	for _, c := range r.categories {
		out = append(out, c)
	}
	return out, nil
}

func (r *memRegistry) ListUnits(_ context.Context) ([]refdata.Unit, error) {
	out := make([]refdata.Unit, 0, len(r.units))
	for _, u := range r.units {
		out = append(out, u)
	}
	return out, nil
}

func (r *memRegistry) ListTaxes(_ context.Context) ([]refdata.Tax, error) {
	out := make([]refdata.Tax, 0, len(r.taxes))
	for _, t := range r.taxes {
		out = append(out, t)
	}
	return out, nil
}

func (r *memRegistry) ListWarehouses(_ context.Context) ([]refdata.Warehouse, error) {
	out := make([]refdata.Warehouse, 0, len(r.warehouses))
	for _, w := range r.warehouses {
		out = append(out, w)
	}
	return out, nil
}

// memOnHand serves fixed fold results.
type memOnHand struct {
	qty map[int64]float64
}

func (o *memOnHand) OnHandByMaterial(_ context.Context, materialIDs []int64, _ int64) (map[int64]float64, error) {
	out := make(map[int64]float64, len(materialIDs))
	for _, id := range materialIDs {
		out[id] = o.qty[id]
	}
	return out, nil
}
