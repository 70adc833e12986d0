package domain

import "errors"

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadySettled indicates a repeated settlement attempt on an order.
	ErrAlreadySettled = errors.New("order already settled")
	// ErrBuyerNotFound indicates no buyer could be resolved for the order channel.
	ErrBuyerNotFound = errors.New("buyer not found")
	// ErrNotOwner indicates a non-owner attempted an owner-only action.
	ErrNotOwner = errors.New("owner only")
	// ErrNotBuyer indicates someone other than the order's buyer (or the
	// owner) attempted to act on it.
	ErrNotBuyer = errors.New("not the order buyer")
	// ErrInvalidAmount indicates a non-numeric or non-positive buyer amount.
	ErrInvalidAmount = errors.New("invalid amount")
)
