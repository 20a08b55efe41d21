// Package model defines the record and matching types shared across the
// importer, catalog client, matching engine, and reconciliation engine.
package model

import "time"

// Money is a currency-qualified amount. Currency is an ISO-ish code
// detected from the raw cell ("USD", "ARS").
type Money struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// IsEmpty reports whether the amount should be treated as absent for
// reconciliation purposes: zero counts as empty, not as a real price.
func (m Money) IsEmpty() bool {
	return m.Amount == 0
}

// SourceRecord is one normalized row from a tabular snapshot import.
// Optional attributes are pointers; nil means the cell was missing or
// unparsable. Immutable once built by the importer.
type SourceRecord struct {
	Row     int    `json:"row"` // originating row position, for traceability
	Brand   string `json:"brand"`
	Model   string `json:"model"`
	Version string `json:"version,omitempty"`
	Color   string `json:"color,omitempty"`
	Plate   string `json:"plate,omitempty"` // canonical form, may be empty

	Year    *int   `json:"year,omitempty"`
	Mileage *int   `json:"mileage,omitempty"`
	Price   *Money `json:"price,omitempty"`
}

// CatalogRecord is one vehicle from the live catalog feed. ID is always
// present; audit timestamps come from the feed.
type CatalogRecord struct {
	ID           string `json:"id"`
	Brand        string `json:"brand"`
	Model        string `json:"model"`
	Version      string `json:"version,omitempty"`
	Color        string `json:"color,omitempty"`
	Plate        string `json:"plate,omitempty"`
	Transmission string `json:"transmission,omitempty"`
	Fuel         string `json:"fuel,omitempty"`
	Doors        int    `json:"doors,omitempty"`

	Year    *int   `json:"year,omitempty"`
	Mileage *int   `json:"mileage,omitempty"`
	Price   *Money `json:"price,omitempty"`

	Active   bool `json:"active"`
	Featured bool `json:"featured"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasPrice reports whether the record carries a non-empty price.
func (c *CatalogRecord) HasPrice() bool {
	return c.Price != nil && !c.Price.IsEmpty()
}
