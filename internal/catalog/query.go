package catalog

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/kirana-pos/kirana/internal/pricing"
	"github.com/kirana-pos/kirana/internal/refdata"
	"github.com/kirana-pos/kirana/internal/shared"
)

// ListPort is the registry surface the query engine denormalizes against.
// refdata.Service satisfies it.
type ListPort interface {
	ListCategories(ctx context.Context) ([]refdata.Category, error)
	ListUnits(ctx context.Context) ([]refdata.Unit, error)
	ListTaxes(ctx context.Context) ([]refdata.Tax, error)
	ListWarehouses(ctx context.Context) ([]refdata.Warehouse, error)
}

// OnHandPort folds current stock per material. ledger.Aggregator
// satisfies it.
type OnHandPort interface {
	OnHandByMaterial(ctx context.Context, materialIDs []int64, warehouseID int64) (map[int64]float64, error)
}

// QueryConfig bounds listings and sets the default low-stock threshold.
type QueryConfig struct {
	LowStockThreshold float64
	DefaultLimit      int
	MaxLimit          int
}

// QueryEngine builds denormalized catalog views. Nothing here writes: rows
// are derived fresh from materials, the registries and the ledger fold on
// every call.
type QueryEngine struct {
	repo     RepositoryPort
	registry ListPort
	onHand   OnHandPort
	cfg      QueryConfig
}

// NewQueryEngine constructs QueryEngine with config defaults applied.
func NewQueryEngine(repo RepositoryPort, registry ListPort, onHand OnHandPort, cfg QueryConfig) *QueryEngine {
	if cfg.LowStockThreshold <= 0 {
		cfg.LowStockThreshold = 10
	}
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = 20
	}
	if cfg.MaxLimit <= 0 {
		cfg.MaxLimit = 200
	}
	return &QueryEngine{repo: repo, registry: registry, onHand: onHand, cfg: cfg}
}

// registryIndex is a per-query snapshot of the reference registries keyed
// by id. Registries are small, so four list calls per query beat a five-way
// SQL join that the repository would have to mirror filter-for-filter.
type registryIndex struct {
	categories map[int64]refdata.Category
	units      map[int64]refdata.Unit
	taxes      map[int64]refdata.Tax
	warehouses map[int64]refdata.Warehouse
}

// List pages the catalog with registry names and on-hand attached.
// The low-stock filter cannot be pushed into SQL because on-hand is a
// ledger fold, so that path folds the full matching set first and pages in
// memory; the plain path counts and pages concurrently, accepting the usual
// small window between the two statements.
func (q *QueryEngine) List(ctx context.Context, f ListFilter) ([]MaterialRow, shared.Pagination, error) {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Limit <= 0 {
		f.Limit = q.cfg.DefaultLimit
	}
	if f.Limit > q.cfg.MaxLimit {
		f.Limit = q.cfg.MaxLimit
	}

	if f.LowStock {
		return q.listLowStock(ctx, f)
	}

	var (
		materials []Material
		total     int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		materials, err = q.repo.List(gctx, f)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = q.repo.Count(gctx, f)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, shared.Pagination{}, err
	}

	rows, err := q.denormalize(ctx, materials, f.WarehouseID, q.threshold(f))
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return rows, shared.NewPagination(f.Page, f.Limit, total), nil
}

func (q *QueryEngine) listLowStock(ctx context.Context, f ListFilter) ([]MaterialRow, shared.Pagination, error) {
	all := f
	all.Limit = 0
	materials, err := q.repo.List(ctx, all)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	rows, err := q.denormalize(ctx, materials, f.WarehouseID, q.threshold(f))
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	low := rows[:0]
	for _, row := range rows {
		if row.LowStock {
			low = append(low, row)
		}
	}
	total := len(low)
	start := (f.Page - 1) * f.Limit
	if start > total {
		start = total
	}
	end := start + f.Limit
	if end > total {
		end = total
	}
	return low[start:end], shared.NewPagination(f.Page, f.Limit, total), nil
}

// GetByID returns one denormalized row.
func (q *QueryEngine) GetByID(ctx context.Context, id, warehouseID int64) (MaterialRow, error) {
	m, err := q.repo.GetByID(ctx, id)
	if err != nil {
		return MaterialRow{}, err
	}
	return q.denormalizeOne(ctx, m, warehouseID)
}

// GetByBarcode is the point-of-sale scan path: exact match only.
func (q *QueryEngine) GetByBarcode(ctx context.Context, barcode string) (MaterialRow, error) {
	if barcode == "" {
		return MaterialRow{}, fmt.Errorf("%w: barcode is required", shared.ErrInvalidArgument)
	}
	m, err := q.repo.GetByBarcode(ctx, barcode)
	if err != nil {
		return MaterialRow{}, err
	}
	return q.denormalizeOne(ctx, m, 0)
}

// Search is the typeahead lookup, capped and denormalized like List.
func (q *QueryEngine) Search(ctx context.Context, query string, limit int) ([]MaterialRow, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: search query is required", shared.ErrInvalidArgument)
	}
	if limit <= 0 {
		limit = q.cfg.DefaultLimit
	}
	if limit > q.cfg.MaxLimit {
		limit = q.cfg.MaxLimit
	}
	materials, err := q.repo.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	return q.denormalize(ctx, materials, 0, q.cfg.LowStockThreshold)
}

func (q *QueryEngine) threshold(f ListFilter) float64 {
	if f.Threshold > 0 {
		return f.Threshold
	}
	return q.cfg.LowStockThreshold
}

func (q *QueryEngine) denormalizeOne(ctx context.Context, m Material, warehouseID int64) (MaterialRow, error) {
	rows, err := q.denormalize(ctx, []Material{m}, warehouseID, q.cfg.LowStockThreshold)
	if err != nil {
		return MaterialRow{}, err
	}
	return rows[0], nil
}

func (q *QueryEngine) denormalize(ctx context.Context, materials []Material, warehouseID int64, threshold float64) ([]MaterialRow, error) {
	rows := make([]MaterialRow, 0, len(materials))
	if len(materials) == 0 {
		return rows, nil
	}

	idx, err := q.loadRegistries(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(materials))
	for _, m := range materials {
		ids = append(ids, m.ID)
	}
	onHand, err := q.onHand.OnHandByMaterial(ctx, ids, warehouseID)
	if err != nil {
		return nil, err
	}

	for _, m := range materials {
		row := MaterialRow{Material: m, OnHand: onHand[m.ID]}
		// Dangling references render as blanks rather than failing the
		// whole listing.
		if c, ok := idx.categories[m.CategoryID]; ok {
			row.CategoryName = c.Name
		}
		if u, ok := idx.units[m.UnitPrimaryID]; ok {
			row.UnitPrimary = u.Name
		}
		if u, ok := idx.units[m.UnitSecondaryID]; ok {
			row.UnitSecondary = u.Name
		}
		if t, ok := idx.taxes[m.TaxID]; ok {
			row.TaxName = t.Name
			row.TaxRate = t.Rate
		}
		if w, ok := idx.warehouses[m.WarehouseID]; ok {
			row.WarehouseName = w.Name
		}
		retail, err := pricing.DisplayPrice(m.RetailRate, row.TaxRate, m.RetailRateIncludeTax, true)
		if err != nil {
			return nil, err
		}
		wholesale, err := pricing.DisplayPrice(m.WholesaleRate, row.TaxRate, m.WholesaleRateIncludeTax, true)
		if err != nil {
			return nil, err
		}
		row.RetailPrice = pricing.ApplyDiscount(retail, m.Discount)
		row.WholesalePrice = pricing.ApplyDiscount(wholesale, m.Discount)
		row.LowStock = row.OnHand < threshold
		rows = append(rows, row)
	}
	return rows, nil
}

func (q *QueryEngine) loadRegistries(ctx context.Context) (registryIndex, error) {
	idx := registryIndex{
		categories: map[int64]refdata.Category{},
		units:      map[int64]refdata.Unit{},
		taxes:      map[int64]refdata.Tax{},
		warehouses: map[int64]refdata.Warehouse{},
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		categories, err := q.registry.ListCategories(gctx)
		for _, c := range categories {
			idx.categories[c.ID] = c
		}
		return err
	})
	g.Go(func() error {
		units, err := q.registry.ListUnits(gctx)
		for _, u := range units {
			idx.units[u.ID] = u
		}
		return err
	})
	g.Go(func() error {
		taxes, err := q.registry.ListTaxes(gctx)
		for _, t := range taxes {
			idx.taxes[t.ID] = t
		}
		return err
	})
	g.Go(func() error {
		warehouses, err := q.registry.ListWarehouses(gctx)
		for _, w := range warehouses {
			idx.warehouses[w.ID] = w
		}
		return err
	})
	if err := g.Wait(); err != nil {
		return registryIndex{}, err
	}
	return idx, nil
}
