package models

// Billing intervals supported by the plan catalog.
const (
	IntervalMonth = "month"
	IntervalYear  = "year"
)

// Plan represents a purchasable subscription plan. The catalog is
// read-only reference data; subscriptions snapshot the price at
// creation time so later catalog changes never affect them.
type Plan struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Price    float64  `json:"price"`
	Currency string   `json:"currency"`
	Interval string   `json:"interval"` // month, year
	Features []string `json:"features"`
}
