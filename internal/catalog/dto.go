package catalog

// MaterialForm carries the full attribute set for material creation.
type MaterialForm struct {
	Name                    string  `json:"name" validate:"required"`
	HSN                     string  `json:"hsn"`
	Code                    string  `json:"code"`
	Barcode                 string  `json:"barcode"`
	CategoryID              int64   `json:"categoryId"`
	UnitPrimaryID           int64   `json:"unitPrimaryId" validate:"required,gt=0"`
	UnitSecondaryID         int64   `json:"unitSecondaryId"`
	ConversionFactor        float64 `json:"conversionFactor"`
	PurchaseRate            float64 `json:"purchaseRate" validate:"gte=0"`
	RetailRate              float64 `json:"retailRate" validate:"gte=0"`
	WholesaleRate           float64 `json:"wholesaleRate" validate:"gte=0"`
	TaxID                   int64   `json:"taxId"`
	PurchaseRateIncludeTax  *bool   `json:"purchaseRateIncludeTax"`
	RetailRateIncludeTax    *bool   `json:"retailRateIncludeTax"`
	WholesaleRateIncludeTax *bool   `json:"wholesaleRateIncludeTax"`
	BatchEnabled            bool    `json:"batchEnabled"`
	SerialNumberEnabled     bool    `json:"serialNumberEnabled"`
	DiscountAmount          float64 `json:"discountAmount" validate:"gte=0"`
	DiscountType            string  `json:"discountType" validate:"omitempty,oneof=PERCENT FIXED"`
	WarehouseID             int64   `json:"warehouseId"`
	ImageURL                string  `json:"imageUrl"`
}

// MaterialUpdate is the allow-listed partial update command: only non-nil
// fields are applied. Unknown fields are rejected at decode time, not
// assigned blindly onto the record.
type MaterialUpdate struct {
	Name                    *string  `json:"name"`
	HSN                     *string  `json:"hsn"`
	Code                    *string  `json:"code"`
	Barcode                 *string  `json:"barcode"`
	CategoryID              *int64   `json:"categoryId"`
	UnitPrimaryID           *int64   `json:"unitPrimaryId"`
	UnitSecondaryID         *int64   `json:"unitSecondaryId"`
	ConversionFactor        *float64 `json:"conversionFactor"`
	PurchaseRate            *float64 `json:"purchaseRate"`
	RetailRate              *float64 `json:"retailRate"`
	WholesaleRate           *float64 `json:"wholesaleRate"`
	TaxID                   *int64   `json:"taxId"`
	PurchaseRateIncludeTax  *bool    `json:"purchaseRateIncludeTax"`
	RetailRateIncludeTax    *bool    `json:"retailRateIncludeTax"`
	WholesaleRateIncludeTax *bool    `json:"wholesaleRateIncludeTax"`
	BatchEnabled            *bool    `json:"batchEnabled"`
	SerialNumberEnabled     *bool    `json:"serialNumberEnabled"`
	DiscountAmount          *float64 `json:"discountAmount"`
	DiscountType            *string  `json:"discountType"`
	WarehouseID             *int64   `json:"warehouseId"`
	ImageURL                *string  `json:"imageUrl"`
}

// Sort modes for listings.
const (
	SortCreatedDesc = "created" // creation time descending, the default
	SortNameAsc     = "name"    // name ascending, documented alternate
)

// ListFilter selects and pages the catalog listing.
type ListFilter struct {
	Page        int
	Limit       int
	CategoryID  int64
	LowStock    bool
	Search      string
	WarehouseID int64
	// Threshold overrides the configured low-stock threshold when > 0.
	Threshold float64
	Sort      string
}
