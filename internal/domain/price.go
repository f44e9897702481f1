package domain

import "time"

// PriceRow is one row of a <kind>_price lookup table.
type PriceRow struct {
	Code      string     `json:"code"`
	Facets    []string   `json:"facets"`
	Price     int64      `json:"price"`
	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`
}

// PriceResolution is the outcome of resolving a full facet tuple. Found is false
// and Code is empty when nothing matched.
type PriceResolution struct {
	Kind      Kind   `json:"kind"`
	Code      string `json:"code"`
	Price     int64  `json:"price"`
	Found     bool   `json:"found"`
	Ambiguous bool   `json:"ambiguous"`
}
