// Package lightning wraps the payment provider's GraphQL API: invoice
// creation and payment-status polling. There is no webhook path; status is
// known only by asking.
package lightning

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// DefaultEndpoint is the provider's production GraphQL endpoint.
const DefaultEndpoint = "https://api.blink.sv/graphql"

// Status is the provider-reported payment state of an invoice.
type Status string

const (
	StatusPending Status = "PENDING"
	StatusPaid    Status = "PAID"
	StatusExpired Status = "EXPIRED"
)

// Invoice is a freshly created payment request. Immutable once issued;
// retrying creation yields a new, unrelated invoice.
type Invoice struct {
	PaymentRequest string
	PaymentHash    string
	AmountBRL      float64
	AmountUSD      float64
}

// ProviderError reports a failed exchange with the payment provider:
// transport failure, non-success HTTP status, or an application-level error
// in the response body.
type ProviderError struct {
	Op      string
	Message string
	Err     error
}

func (e *ProviderError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("payment provider: %s: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("payment provider: %s: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

type converter interface {
	Convert(ctx context.Context, amountBRL float64) (usd float64, cents int64)
}

// Client issues requests against the provider's GraphQL endpoint.
type Client struct {
	endpoint string
	apiKey   string
	walletID string
	rates    converter
	http     *http.Client
}

// New builds a Client. An empty endpoint selects DefaultEndpoint.
func New(endpoint, apiKey, walletID string, rates converter) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		walletID: walletID,
		rates:    rates,
		http:     &http.Client{Timeout: 15 * time.Second},
	}
}

const createInvoiceQuery = `
mutation LnUsdInvoiceCreate($input: LnUsdInvoiceCreateInput!) {
  lnUsdInvoiceCreate(input: $input) {
    invoice {
      paymentRequest
      paymentHash
    }
    errors {
      message
    }
  }
}`

const paymentStatusQuery = `
query LnInvoicePaymentStatus($input: LnInvoicePaymentStatusInput!) {
  lnInvoicePaymentStatus(input: $input) {
    status
    errors {
      message
    }
  }
}`

type graphqlRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables"`
}

type graphqlError struct {
	Message string `json:"message"`
}

type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphqlError  `json:"errors"`
}

type createInvoiceData struct {
	LnUsdInvoiceCreate struct {
		Invoice struct {
			PaymentRequest string `json:"paymentRequest"`
			PaymentHash    string `json:"paymentHash"`
		} `json:"invoice"`
		Errors []graphqlError `json:"errors"`
	} `json:"lnUsdInvoiceCreate"`
}

type paymentStatusData struct {
	LnInvoicePaymentStatus struct {
		Status string         `json:"status"`
		Errors []graphqlError `json:"errors"`
	} `json:"lnInvoicePaymentStatus"`
}

// CreateInvoice converts amountBRL to USD cents and asks the provider for an
// invoice on the configured wallet.
func (c *Client) CreateInvoice(ctx context.Context, amountBRL float64, memo string) (*Invoice, error) {
	usd, cents := c.rates.Convert(ctx, amountBRL)

	variables := map[string]interface{}{
		"input": map[string]interface{}{
			"walletId": c.walletID,
			"amount":   cents,
			"memo":     memo,
		},
	}

	var data createInvoiceData
	if err := c.do(ctx, "create invoice", createInvoiceQuery, variables, &data); err != nil {
		return nil, err
	}
	if errs := data.LnUsdInvoiceCreate.Errors; len(errs) > 0 {
		return nil, &ProviderError{Op: "create invoice", Message: errs[0].Message}
	}

	inv := data.LnUsdInvoiceCreate.Invoice
	if inv.PaymentRequest == "" || inv.PaymentHash == "" {
		return nil, &ProviderError{Op: "create invoice", Message: "empty invoice in response"}
	}
	return &Invoice{
		PaymentRequest: inv.PaymentRequest,
		PaymentHash:    inv.PaymentHash,
		AmountBRL:      amountBRL,
		AmountUSD:      usd,
	}, nil
}

// CheckStatus queries the paid/unpaid state of an invoice by payment hash.
func (c *Client) CheckStatus(ctx context.Context, paymentHash string) (Status, error) {
	variables := map[string]interface{}{
		"input": map[string]interface{}{
			"paymentHash": paymentHash,
		},
	}

	var data paymentStatusData
	if err := c.do(ctx, "check status", paymentStatusQuery, variables, &data); err != nil {
		return "", err
	}
	if errs := data.LnInvoicePaymentStatus.Errors; len(errs) > 0 {
		return "", &ProviderError{Op: "check status", Message: errs[0].Message}
	}
	return Status(data.LnInvoicePaymentStatus.Status), nil
}

func (c *Client) do(ctx context.Context, op, query string, variables map[string]interface{}, out interface{}) error {
	body, err := json.Marshal(graphqlRequest{Query: query, Variables: variables})
	if err != nil {
		return &ProviderError{Op: op, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return &ProviderError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-KEY", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return &ProviderError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &ProviderError{Op: op, Message: fmt.Sprintf("HTTP %d", resp.StatusCode)}
	}

	var envelope graphqlResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return &ProviderError{Op: op, Err: err}
	}
	if len(envelope.Errors) > 0 {
		return &ProviderError{Op: op, Message: envelope.Errors[0].Message}
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return &ProviderError{Op: op, Err: err}
	}
	return nil
}
