package rates

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRateFromEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"base":"BRL","rates":{"USD":0.20,"EUR":0.17}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, nil)
	if got := c.Rate(context.Background()); got != 0.20 {
		t.Fatalf("expected 0.20, got %v", got)
	}
}

func TestRateFallbackOnUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // closed before use

	c := New(srv.URL, nil)
	if got := c.Rate(context.Background()); got != FallbackRate {
		t.Fatalf("expected fallback %v, got %v", FallbackRate, got)
	}
}

func TestRateFallbackOnBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(srv.URL, nil)
	if got := c.Rate(context.Background()); got != FallbackRate {
		t.Fatalf("expected fallback %v, got %v", FallbackRate, got)
	}
}

func TestRateFallbackOnMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	c := New(srv.URL, nil)
	if got := c.Rate(context.Background()); got != FallbackRate {
		t.Fatalf("expected fallback %v, got %v", FallbackRate, got)
	}
}

func TestRateFallbackOnMissingUSD(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"rates":{"EUR":0.17}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, nil)
	if got := c.Rate(context.Background()); got != FallbackRate {
		t.Fatalf("expected fallback %v, got %v", FallbackRate, got)
	}
}

func TestConvert(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"rates":{"USD":0.18}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, nil)
	usd, cents := c.Convert(context.Background(), 47.80)
	if usd != 8.60 { // 47.80 * 0.18 = 8.604, rounds to 8.60
		t.Fatalf("expected 8.60 USD, got %v", usd)
	}
	if cents != 860 {
		t.Fatalf("expected 860 cents, got %d", cents)
	}
}

func TestConvertUsesFallbackWhenUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := New(srv.URL, nil)
	usd, cents := c.Convert(context.Background(), 100)
	if usd <= 0 || cents <= 0 {
		t.Fatalf("expected positive fallback conversion, got %v USD, %d cents", usd, cents)
	}
	if usd != 18.00 || cents != 1800 {
		t.Fatalf("expected 18.00/1800 at fallback rate, got %v/%d", usd, cents)
	}
}

func TestConvertRoundsCentsHalfAwayFromZero(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"rates":{"USD":0.5}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, nil)
	_, cents := c.Convert(context.Background(), 0.01) // 0.005 USD rounds up
	if cents != 1 {
		t.Fatalf("expected 1 cent, got %d", cents)
	}
}
