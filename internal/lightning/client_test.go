package lightning

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type stubConverter struct {
	usd   float64
	cents int64
}

func (s *stubConverter) Convert(_ context.Context, _ float64) (float64, int64) {
	return s.usd, s.cents
}

func TestCreateInvoice(t *testing.T) {
	var gotAPIKey string
	var gotReq graphqlRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAPIKey = r.Header.Get("X-API-KEY")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Write([]byte(`{"data":{"lnUsdInvoiceCreate":{"invoice":{"paymentRequest":"lnbc1...","paymentHash":"hash123"},"errors":[]}}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "secret", "wallet-1", &stubConverter{usd: 8.60, cents: 860})
	inv, err := c.CreateInvoice(context.Background(), 47.80, "Venus Store - 1000 currency")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotAPIKey != "secret" {
		t.Fatalf("expected API key header, got %q", gotAPIKey)
	}
	input, ok := gotReq.Variables["input"].(map[string]interface{})
	if !ok {
		t.Fatalf("missing input variables: %+v", gotReq.Variables)
	}
	if input["walletId"] != "wallet-1" {
		t.Fatalf("unexpected walletId: %v", input["walletId"])
	}
	if amount, _ := input["amount"].(float64); amount != 860 {
		t.Fatalf("unexpected amount: %v", input["amount"])
	}
	if inv.PaymentRequest != "lnbc1..." || inv.PaymentHash != "hash123" {
		t.Fatalf("unexpected invoice: %+v", inv)
	}
	if inv.AmountBRL != 47.80 || inv.AmountUSD != 8.60 {
		t.Fatalf("unexpected amounts: %+v", inv)
	}
}

func TestCreateInvoiceApplicationError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"lnUsdInvoiceCreate":{"invoice":{"paymentRequest":"","paymentHash":""},"errors":[{"message":"insufficient balance"},{"message":"secondary"}]}}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "k", "w", &stubConverter{})
	_, err := c.CreateInvoice(context.Background(), 10, "memo")
	var perr *ProviderError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ProviderError, got %v", err)
	}
	if perr.Message != "insufficient balance" {
		t.Fatalf("expected first application error surfaced, got %q", perr.Message)
	}
}

func TestCreateInvoiceHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL, "k", "w", &stubConverter{})
	_, err := c.CreateInvoice(context.Background(), 10, "memo")
	var perr *ProviderError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ProviderError, got %v", err)
	}
}

func TestCreateInvoiceTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := New(srv.URL, "k", "w", &stubConverter{})
	_, err := c.CreateInvoice(context.Background(), 10, "memo")
	var perr *ProviderError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ProviderError, got %v", err)
	}
}

func TestCreateInvoiceGraphQLTopLevelError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"errors":[{"message":"unauthorized"}]}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "k", "w", &stubConverter{})
	_, err := c.CreateInvoice(context.Background(), 10, "memo")
	var perr *ProviderError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ProviderError, got %v", err)
	}
	if perr.Message != "unauthorized" {
		t.Fatalf("expected unauthorized, got %q", perr.Message)
	}
}

func TestCheckStatusPending(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"lnInvoicePaymentStatus":{"status":"PENDING","errors":[]}}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "k", "w", &stubConverter{})
	status, err := c.CheckStatus(context.Background(), "hash123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != StatusPending {
		t.Fatalf("expected PENDING, got %q", status)
	}
}

func TestCheckStatusPaid(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"lnInvoicePaymentStatus":{"status":"PAID"}}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "k", "w", &stubConverter{})
	status, err := c.CheckStatus(context.Background(), "hash123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != StatusPaid {
		t.Fatalf("expected PAID, got %q", status)
	}
}

func TestCheckStatusApplicationError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"lnInvoicePaymentStatus":{"status":"","errors":[{"message":"invoice not found"}]}}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "k", "w", &stubConverter{})
	_, err := c.CheckStatus(context.Background(), "nope")
	var perr *ProviderError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ProviderError, got %v", err)
	}
	if perr.Message != "invoice not found" {
		t.Fatalf("expected invoice not found, got %q", perr.Message)
	}
}
