// Package jobs holds the asynq task definitions and the worker runtime.
package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/kirana-pos/kirana/internal/ledger"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskOnHandWarmup recomputes on-hand memos for recently active pairs.
	TaskOnHandWarmup = "onhand:warmup"
)

// OnHandWarmupPayload bounds one warmup run.
type OnHandWarmupPayload struct {
	// Since limits the scan to pairs with movements after this time. Zero
	// means the last 24 hours.
	Since time.Time `json:"since"`
	// Limit caps how many pairs one run warms. Zero uses the store default.
	Limit int `json:"limit"`
}

// NewOnHandWarmupTask constructs an asynq task.
func NewOnHandWarmupTask(payload OnHandWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOnHandWarmup, data), nil
}

// RecentPort lists pairs that moved recently. ledger.Repository satisfies it.
type RecentPort interface {
	RecentlyActive(ctx context.Context, since time.Time, limit int) ([]ledger.MovementKey, error)
}

// OnHandWarmup folds recently active pairs back into the redis memo so the
// first catalog read after a quiet period does not pay for the fold.
type OnHandWarmup struct {
	logger     *slog.Logger
	recent     RecentPort
	aggregator *ledger.Aggregator
	metrics    *Metrics
}

// NewOnHandWarmup builds the warmup handler. metrics may be nil.
func NewOnHandWarmup(logger *slog.Logger, recent RecentPort, aggregator *ledger.Aggregator, metrics *Metrics) *OnHandWarmup {
	return &OnHandWarmup{logger: logger, recent: recent, aggregator: aggregator, metrics: metrics}
}

// Handle processes TaskOnHandWarmup tasks. A pair that fails to warm is
// logged and skipped; the run keeps going.
func (h *OnHandWarmup) Handle(ctx context.Context, t *asynq.Task) error {
	tracker := h.metrics.Track(TaskOnHandWarmup)
	var payload OnHandWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return tracker.End(asynq.SkipRetry)
	}
	since := payload.Since
	if since.IsZero() {
		since = time.Now().UTC().Add(-24 * time.Hour)
	}

	keys, err := h.recent.RecentlyActive(ctx, since, payload.Limit)
	if err != nil {
		return tracker.End(err)
	}
	warmed := 0
	for _, key := range keys {
		if err := h.aggregator.Warm(ctx, key.MaterialID, key.WarehouseID); err != nil {
			h.logger.Warn("warmup pair failed",
				slog.Int64("material_id", key.MaterialID),
				slog.Int64("warehouse_id", key.WarehouseID),
				slog.Any("error", err))
			continue
		}
		warmed++
	}
	h.logger.Info("on-hand warmup complete", slog.Int("pairs", len(keys)), slog.Int("warmed", warmed))
	return tracker.End(nil)
}
