// Package refdata holds the reference registries: Category, Unit, Tax and
// Warehouse. The catalog and ledger consume them read-only for joins and
// existence checks; mutation stays inside this package.
package refdata

import "time"

// Category groups materials for filtering. Names are unique
// case-insensitively.
type Category struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Unit is a unit of measure referenced by materials.
type Unit struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// Tax is a named tax rate in percent, 0 to 100 inclusive.
type Tax struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Rate      float64   `json:"rate"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

// Warehouse is a storage location stock is tracked against.
type Warehouse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
