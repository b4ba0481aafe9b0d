// Package ledger implements the append-only stock movement log and the
// on-hand aggregator derived from it. Entries are never updated or deleted;
// corrections are compensating ADJUSTMENT entries referencing the original.
package ledger

import "time"

// EntryType enumerates supported stock movements.
type EntryType string

const (
	// EntryTypePurchase records goods received.
	EntryTypePurchase EntryType = "PURCHASE"
	// EntryTypeSale records goods sold.
	EntryTypeSale EntryType = "SALE"
	// EntryTypeAdjustment records a manual correction, either sign.
	EntryTypeAdjustment EntryType = "ADJUSTMENT"
	// EntryTypeOpening records the opening balance of a location.
	EntryTypeOpening EntryType = "OPENING"
)

// Valid reports whether t is a known entry type.
func (t EntryType) Valid() bool {
	switch t {
	case EntryTypePurchase, EntryTypeSale, EntryTypeAdjustment, EntryTypeOpening:
		return true
	}
	return false
}

// Entry is one immutable ledger record. Qty is stored in the material's
// primary unit; Unit keeps the unit the movement was recorded in for audit.
type Entry struct {
	ID            int64     `json:"id"`
	MaterialID    int64     `json:"materialId"`
	WarehouseID   int64     `json:"warehouseId"`
	Type          EntryType `json:"type"`
	Qty           float64   `json:"qty"`
	Unit          string    `json:"unit"`
	Batch         string    `json:"batch,omitempty"`
	SerialNumbers []string  `json:"serialNumbers,omitempty"`
	ReferenceID   string    `json:"referenceId,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// AppendInput describes a movement posting.
type AppendInput struct {
	MaterialID    int64
	WarehouseID   int64
	Type          EntryType
	Qty           float64
	Unit          string
	Batch         string
	SerialNumbers []string
	ReferenceID   string
	ActorID       int64
}

// MovementKey identifies a (material, warehouse) pair.
type MovementKey struct {
	MaterialID  int64
	WarehouseID int64
}
