// Package items is the read-mostly item catalog. Quotation lines reference
// items by id and copy a snapshot of the priced fields at quote time.
package items

import "time"

type Item struct {
	ID          int64     `json:"id" db:"id"`
	Code        string    `json:"code" db:"code"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	Unit        string    `json:"unit" db:"unit"`
	UnitPrice   float64   `json:"unit_price" db:"unit_price"`
	TaxRate     float64   `json:"tax_rate" db:"tax_rate"`
	IsActive    bool      `json:"is_active" db:"is_active"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

type ListFilters struct {
	Search   string
	IsActive *bool
	Limit    int
	Offset   int
}
