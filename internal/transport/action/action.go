// Package action encodes the typed descriptors carried inside interactive
// component IDs. The transport boundary parses an ID exactly once into an
// Action; handlers never re-split strings.
package action

import (
	"fmt"
	"strconv"
	"strings"

	"venusstore/internal/domain"
)

// Kind discriminates what an interactive component asks for.
type Kind string

const (
	// OpenCalculator opens the amount form for a product kind.
	OpenCalculator Kind = "calc"
	// SubmitCalculator is the amount form submission.
	SubmitCalculator Kind = "calcform"
	// Buy confirms a quote and opens an order channel.
	Buy Kind = "buy"
	// PayPix selects the bank-transfer instrument.
	PayPix Kind = "pix"
	// PayLightning selects the Lightning instrument.
	PayLightning Kind = "ln"
	// Back returns to the instrument choice.
	Back Kind = "back"
	// Cancel terminates the order.
	Cancel Kind = "cancel"
	// ConfirmPix is the owner's manual settlement of a Pix order.
	ConfirmPix Kind = "confirm"
	// VerifyLightning polls the invoice's payment status.
	VerifyLightning Kind = "verify"
	// CopyPix echoes the Pix payload for copy-paste.
	CopyPix Kind = "copypix"
	// CopyLightning echoes the full invoice for copy-paste.
	CopyLightning Kind = "copyln"
)

const sep = ":"

// Action is the parsed content of a component ID. Product and Quantity are
// set for calculator/buy actions; Token carries an opaque continuation value
// (a payment hash for copy-invoice).
type Action struct {
	Kind     Kind
	Product  domain.ProductKind
	Quantity float64
	Token    string
}

// Encode renders the action as a component ID.
func (a Action) Encode() string {
	parts := []string{string(a.Kind)}
	if a.Product != "" {
		parts = append(parts, string(a.Product))
	}
	if a.Quantity != 0 {
		parts = append(parts, strconv.FormatFloat(a.Quantity, 'f', -1, 64))
	}
	if a.Token != "" {
		parts = append(parts, a.Token)
	}
	return strings.Join(parts, sep)
}

// Parse decodes a component ID back into an Action.
func Parse(customID string) (Action, error) {
	parts := strings.Split(customID, sep)
	if len(parts) == 0 || parts[0] == "" {
		return Action{}, fmt.Errorf("empty action id")
	}

	a := Action{Kind: Kind(parts[0])}
	rest := parts[1:]

	switch a.Kind {
	case OpenCalculator, SubmitCalculator:
		if len(rest) != 1 {
			return Action{}, fmt.Errorf("action %s: want product kind, have %q", a.Kind, customID)
		}
		a.Product = domain.ProductKind(rest[0])
		if !a.Product.Valid() {
			return Action{}, fmt.Errorf("action %s: unknown product %q", a.Kind, rest[0])
		}
	case Buy:
		if len(rest) != 2 {
			return Action{}, fmt.Errorf("action buy: want product and quantity, have %q", customID)
		}
		a.Product = domain.ProductKind(rest[0])
		if !a.Product.Valid() {
			return Action{}, fmt.Errorf("action buy: unknown product %q", rest[0])
		}
		q, err := strconv.ParseFloat(rest[1], 64)
		if err != nil || q <= 0 {
			return Action{}, fmt.Errorf("action buy: bad quantity %q", rest[1])
		}
		a.Quantity = q
	case PayPix, PayLightning, Back, Cancel, ConfirmPix, VerifyLightning, CopyPix:
		if len(rest) != 0 {
			return Action{}, fmt.Errorf("action %s: unexpected payload %q", a.Kind, customID)
		}
	case CopyLightning:
		if len(rest) != 1 || rest[0] == "" {
			return Action{}, fmt.Errorf("action copyln: want payment hash, have %q", customID)
		}
		a.Token = rest[0]
	default:
		return Action{}, fmt.Errorf("unknown action %q", parts[0])
	}
	return a, nil
}
