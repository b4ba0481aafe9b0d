// Package catalog holds the material catalog store and the denormalized
// query engine over it. Materials and ledger entries are the only written
// state; every read view is derived per query.
package catalog

import (
	"time"

	"github.com/kirana-pos/kirana/internal/pricing"
)

// Material is the canonical record of a sellable item.
type Material struct {
	ID                      int64            `json:"id"`
	Name                    string           `json:"name"`
	HSN                     string           `json:"hsn,omitempty"`
	Code                    string           `json:"code,omitempty"`
	Barcode                 string           `json:"barcode,omitempty"`
	CategoryID              int64            `json:"categoryId,omitempty"`
	UnitPrimaryID           int64            `json:"unitPrimaryId"`
	UnitSecondaryID         int64            `json:"unitSecondaryId,omitempty"`
	ConversionFactor        float64          `json:"conversionFactor"`
	PurchaseRate            float64          `json:"purchaseRate"`
	RetailRate              float64          `json:"retailRate"`
	WholesaleRate           float64          `json:"wholesaleRate"`
	TaxID                   int64            `json:"taxId,omitempty"`
	PurchaseRateIncludeTax  bool             `json:"purchaseRateIncludeTax"`
	RetailRateIncludeTax    bool             `json:"retailRateIncludeTax"`
	WholesaleRateIncludeTax bool             `json:"wholesaleRateIncludeTax"`
	BatchEnabled            bool             `json:"batchEnabled"`
	SerialNumberEnabled     bool             `json:"serialNumberEnabled"`
	Discount                pricing.Discount `json:"discount"`
	WarehouseID             int64            `json:"warehouseId,omitempty"`
	ImageURL                string           `json:"imageUrl,omitempty"`
	CreatedAt               time.Time        `json:"createdAt"`
	UpdatedAt               time.Time        `json:"updatedAt"`
}

// MaterialRow is a denormalized catalog view: reference ids resolved to
// names, with the derived on-hand quantity for the scoped warehouse.
type MaterialRow struct {
	Material
	CategoryName  string  `json:"categoryName,omitempty"`
	UnitPrimary   string  `json:"unitPrimary,omitempty"`
	UnitSecondary string  `json:"unitSecondary,omitempty"`
	TaxName       string  `json:"taxName,omitempty"`
	TaxRate       float64 `json:"taxRate"`
	WarehouseName string  `json:"warehouseName,omitempty"`
	// Tax-inclusive, discount-applied prices ready for display at the
	// counter. Derived from the stored rates per query, never persisted.
	RetailPrice    float64 `json:"retailPrice"`
	WholesalePrice float64 `json:"wholesalePrice"`
	OnHand         float64 `json:"onHand"`
	LowStock       bool    `json:"lowStock"`
}
