package ledger

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Aggregator derives on-hand quantity by folding the ledger. The fold may be
// memoized in redis; Invalidate is called synchronously by Service.Append, so
// a returned Append is never followed by a stale read.
type Aggregator struct {
	repo  RepositoryPort
	cache *redis.Client
	ttl   time.Duration
}

// NewAggregator builds an Aggregator. cache may be nil to disable
// memoization; ttl caps how long a warm value may live without activity.
func NewAggregator(repo RepositoryPort, cache *redis.Client, ttl time.Duration) *Aggregator {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &Aggregator{repo: repo, cache: cache, ttl: ttl}
}

// LowStock reports whether an on-hand quantity is below the threshold.
func LowStock(onHand, threshold float64) bool {
	return onHand < threshold
}

// OnHand returns the derived quantity for a pair, in the material's primary
// unit. warehouseID 0 folds across all warehouses. A pair with no entries
// yields 0.
func (a *Aggregator) OnHand(ctx context.Context, materialID, warehouseID int64) (float64, error) {
	if a.cache != nil {
		if raw, err := a.cache.Get(ctx, onHandKey(materialID, warehouseID)).Result(); err == nil {
			if v, perr := strconv.ParseFloat(raw, 64); perr == nil {
				return v, nil
			}
		}
	}
	sum, err := a.repo.SumQty(ctx, materialID, warehouseID)
	if err != nil {
		return 0, err
	}
	a.store(ctx, materialID, warehouseID, sum)
	return sum, nil
}

// OnHandByMaterial bulk-folds the ledger for the query engine. It bypasses
// the memo: one grouped query is cheaper than n cache round trips. Materials
// without entries are present in the result with 0.
func (a *Aggregator) OnHandByMaterial(ctx context.Context, materialIDs []int64, warehouseID int64) (map[int64]float64, error) {
	sums, err := a.repo.SumQtyByMaterial(ctx, materialIDs, warehouseID)
	if err != nil {
		return nil, err
	}
	for _, id := range materialIDs {
		if _, ok := sums[id]; !ok {
			sums[id] = 0
		}
	}
	return sums, nil
}

// Invalidate drops the memo for a pair. Must complete before the triggering
// append returns.
func (a *Aggregator) Invalidate(ctx context.Context, materialID, warehouseID int64) error {
	if a.cache == nil {
		return nil
	}
	// The all-warehouse fold includes this pair, drop it too.
	return a.cache.Del(ctx, onHandKey(materialID, warehouseID), onHandKey(materialID, 0)).Err()
}

// Warm recomputes and stores the memo for a pair.
func (a *Aggregator) Warm(ctx context.Context, materialID, warehouseID int64) error {
	sum, err := a.repo.SumQty(ctx, materialID, warehouseID)
	if err != nil {
		return err
	}
	a.store(ctx, materialID, warehouseID, sum)
	return nil
}

func (a *Aggregator) store(ctx context.Context, materialID, warehouseID int64, sum float64) {
	if a.cache == nil {
		return
	}
	// Best effort: a failed SET only costs a recomputation later.
	_ = a.cache.Set(ctx, onHandKey(materialID, warehouseID), strconv.FormatFloat(sum, 'g', -1, 64), a.ttl).Err()
}

func onHandKey(materialID, warehouseID int64) string {
	return fmt.Sprintf("onhand:%d:%d", materialID, warehouseID)
}
