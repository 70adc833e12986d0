package domain

import "time"

// Sale is an immutable settlement record. Created exactly once per settled
// order, never mutated, removed only by the bulk reset command.
type Sale struct {
	ID       string        `json:"id"`
	Kind     ProductKind   `json:"kind"`
	Quantity float64       `json:"quantity"`
	Price    float64       `json:"price"`
	BuyerID  string        `json:"buyerId"`
	Method   PaymentMethod `json:"method"`
	SoldAt   time.Time     `json:"soldAt"`
}
