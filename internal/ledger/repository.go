package ledger

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryPort abstracts ledger storage for the service and aggregator.
type RepositoryPort interface {
	Insert(ctx context.Context, entry Entry) (Entry, error)
	EntriesFor(ctx context.Context, materialID, warehouseID int64) ([]Entry, error)
	SumQty(ctx context.Context, materialID, warehouseID int64) (float64, error)
	SumQtyByMaterial(ctx context.Context, materialIDs []int64, warehouseID int64) (map[int64]float64, error)
	RecentlyActive(ctx context.Context, since time.Time, limit int) ([]MovementKey, error)
}

// Repository persists ledger entries in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert writes one entry. The single-row INSERT is the atomicity boundary:
// the entry is either fully durable or absent.
func (r *Repository) Insert(ctx context.Context, entry Entry) (Entry, error) {
	err := r.pool.QueryRow(ctx, `INSERT INTO stock_ledger (material_id, warehouse_id, entry_type, qty, unit, batch, serial_numbers, reference_id, created_at)
VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, NULLIF($8, '')::uuid, NOW())
RETURNING id, created_at`,
		entry.MaterialID, entry.WarehouseID, string(entry.Type), entry.Qty, entry.Unit,
		entry.Batch, entry.SerialNumbers, entry.ReferenceID).
		Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// EntriesFor returns entries for a material in ascending creation order.
// warehouseID 0 means all warehouses.
func (r *Repository) EntriesFor(ctx context.Context, materialID, warehouseID int64) ([]Entry, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, material_id, warehouse_id, entry_type, qty, unit, COALESCE(batch, ''), COALESCE(serial_numbers, '{}'), COALESCE(reference_id::text, ''), created_at
FROM stock_ledger
WHERE material_id = $1 AND ($2 = 0 OR warehouse_id = $2)
ORDER BY created_at ASC, id ASC`, materialID, warehouseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []Entry
	for rows.Next() {
		var e Entry
		var typ string
		if err := rows.Scan(&e.ID, &e.MaterialID, &e.WarehouseID, &typ, &e.Qty, &e.Unit, &e.Batch, &e.SerialNumbers, &e.ReferenceID, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Type = EntryType(typ)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// SumQty folds the ledger for one pair. warehouseID 0 sums across all
// warehouses. No entries yields 0.
func (r *Repository) SumQty(ctx context.Context, materialID, warehouseID int64) (float64, error) {
	var sum float64
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(SUM(qty), 0)
FROM stock_ledger
WHERE material_id = $1 AND ($2 = 0 OR warehouse_id = $2)`, materialID, warehouseID).Scan(&sum)
	return sum, err
}

// SumQtyByMaterial folds the ledger for many materials at once. With
// warehouseID 0 each material is scoped to its own default warehouse; a
// material without one sums across all warehouses (the join condition is
// always true for NULL defaults).
func (r *Repository) SumQtyByMaterial(ctx context.Context, materialIDs []int64, warehouseID int64) (map[int64]float64, error) {
	if len(materialIDs) == 0 {
		return map[int64]float64{}, nil
	}
	var query string
	args := []any{materialIDs}
	if warehouseID != 0 {
		query = `SELECT material_id, COALESCE(SUM(qty), 0)
FROM stock_ledger
WHERE material_id = ANY($1) AND warehouse_id = $2
GROUP BY material_id`
		args = append(args, warehouseID)
	} else {
		query = `SELECT e.material_id, COALESCE(SUM(e.qty), 0)
FROM stock_ledger e
JOIN materials m ON m.id = e.material_id
WHERE e.material_id = ANY($1) AND e.warehouse_id = COALESCE(m.warehouse_id, e.warehouse_id)
GROUP BY e.material_id`
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	sums := make(map[int64]float64, len(materialIDs))
	for rows.Next() {
		var id int64
		var sum float64
		if err := rows.Scan(&id, &sum); err != nil {
			return nil, err
		}
		sums[id] = sum
	}
	return sums, rows.Err()
}

// RecentlyActive lists pairs with ledger activity after since, for cache
// warmup.
func (r *Repository) RecentlyActive(ctx context.Context, since time.Time, limit int) ([]MovementKey, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT material_id, warehouse_id
FROM stock_ledger
WHERE created_at > $1
LIMIT $2`, since, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var keys []MovementKey
	for rows.Next() {
		var k MovementKey
		if err := rows.Scan(&k.MaterialID, &k.WarehouseID); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}
