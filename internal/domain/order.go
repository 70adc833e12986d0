package domain

import "time"

// ProductKind identifies what the buyer is purchasing.
type ProductKind string

const (
	// KindCurrency is a raw amount of in-game currency.
	KindCurrency ProductKind = "currency"
	// KindBundle is a storefront bundle priced by its currency content.
	KindBundle ProductKind = "bundle"
)

// Valid reports whether k is a known product kind.
func (k ProductKind) Valid() bool {
	return k == KindCurrency || k == KindBundle
}

// OrderStatus tracks an order through its lifecycle.
type OrderStatus string

const (
	StatusDraft           OrderStatus = "draft"
	StatusAwaitingChoice  OrderStatus = "awaiting_choice"
	StatusAwaitingPayment OrderStatus = "awaiting_payment"
	StatusSettled         OrderStatus = "settled"
	StatusCancelled       OrderStatus = "cancelled"
	StatusExpired         OrderStatus = "expired"
)

// Terminal reports whether no further transitions are allowed.
func (s OrderStatus) Terminal() bool {
	return s == StatusSettled || s == StatusCancelled || s == StatusExpired
}

// PaymentMethod records which instrument settled a sale.
type PaymentMethod string

const (
	MethodPix       PaymentMethod = "pix"
	MethodLightning PaymentMethod = "lightning"
)

// PixPayment is a static bank-transfer instrument: an encoded payload the
// buyer scans or pastes. It has no remote lifecycle.
type PixPayment struct {
	Payload string
}

// LightningPayment is an invoice issued by the payment provider, identified
// by its payment hash and queryable for paid status.
type LightningPayment struct {
	PaymentRequest string
	PaymentHash    string
	AmountBRL      float64
	AmountUSD      float64
}

// Order is one buyer's in-flight purchase. At most one of Pix/Lightning is
// non-nil at a time; selecting a new instrument discards the prior one.
type Order struct {
	ID        string
	Kind      ProductKind
	Quantity  float64
	Price     float64
	BuyerID   string
	ChannelID string
	Status    OrderStatus
	Pix       *PixPayment
	Lightning *LightningPayment
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Method returns the payment method of the currently selected instrument,
// or "" when none is selected.
func (o *Order) Method() PaymentMethod {
	switch {
	case o.Pix != nil:
		return MethodPix
	case o.Lightning != nil:
		return MethodLightning
	default:
		return ""
	}
}
