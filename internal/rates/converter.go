// Package rates converts BRL amounts into the USD amounts the payment
// provider invoices in.
package rates

import (
	"context"
	"encoding/json"
	"log"
	"math"
	"net/http"
	"time"
)

// DefaultEndpoint serves the current BRL exchange rates.
const DefaultEndpoint = "https://api.exchangerate-api.com/v4/latest/BRL"

// FallbackRate is used when the endpoint is unreachable, roughly 5.5 BRL/USD.
// Invoicing at a slightly stale rate beats refusing the sale.
const FallbackRate = 0.18

// Converter fetches the BRL→USD rate and converts amounts for invoicing.
type Converter struct {
	endpoint string
	client   *http.Client
	fallback float64
	logger   *log.Logger
}

// New creates a Converter against the given endpoint; an empty endpoint
// selects DefaultEndpoint.
func New(endpoint string, logger *log.Logger) *Converter {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Converter{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
		fallback: FallbackRate,
		logger:   logger,
	}
}

type ratesResponse struct {
	Rates map[string]float64 `json:"rates"`
}

// Rate returns the current BRL→USD rate, falling back to FallbackRate on any
// request failure. It never returns an error.
func (c *Converter) Rate(ctx context.Context) float64 {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		c.warnf("build rate request: %v", err)
		return c.fallback
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.warnf("fetch rate: %v", err)
		return c.fallback
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.warnf("fetch rate: status %d", resp.StatusCode)
		return c.fallback
	}

	var body ratesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		c.warnf("decode rate response: %v", err)
		return c.fallback
	}
	rate, ok := body.Rates["USD"]
	if !ok || rate <= 0 {
		c.warnf("rate response missing USD rate")
		return c.fallback
	}
	return rate
}

// Convert turns a BRL amount into a display USD amount (2 decimals) and the
// integer cents amount the invoicing API expects. Cents round half away from
// zero.
func (c *Converter) Convert(ctx context.Context, amountBRL float64) (usd float64, cents int64) {
	rate := c.Rate(ctx)
	usd = math.Round(amountBRL*rate*100) / 100
	cents = int64(math.Round(usd * 100))
	return usd, cents
}

func (c *Converter) warnf(format string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Printf("rates: "+format, args...)
	}
}
