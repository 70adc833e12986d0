package sale

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"venusstore/internal/domain"
)

func tempLedger(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "vendas.json")
}

func TestLoadMissingFile(t *testing.T) {
	repo := NewFile(tempLedger(t), nil)
	sales, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sales) != 0 {
		t.Fatalf("expected empty history, got %d", len(sales))
	}
}

func TestLoadCorruptFile(t *testing.T) {
	path := tempLedger(t)
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	repo := NewFile(path, nil)
	sales, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("corrupt file must not fail load: %v", err)
	}
	if len(sales) != 0 {
		t.Fatalf("expected empty history, got %d", len(sales))
	}
}

func TestAppendDurability(t *testing.T) {
	path := tempLedger(t)
	repo := NewFile(path, nil)
	if _, err := repo.Load(context.Background()); err != nil {
		t.Fatal(err)
	}

	soldAt := time.Date(2025, 7, 28, 14, 30, 0, 0, time.UTC)
	s := domain.Sale{
		ID:       "1753712345678",
		Kind:     domain.KindCurrency,
		Quantity: 1000,
		Price:    47.80,
		BuyerID:  "user-1",
		Method:   domain.MethodPix,
		SoldAt:   soldAt,
	}
	if err := repo.Append(context.Background(), s); err != nil {
		t.Fatalf("append: %v", err)
	}

	// A fresh repo instance must see exactly what was appended.
	reloaded, err := NewFile(path, nil).Load(context.Background())
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(reloaded) != 1 {
		t.Fatalf("expected 1 sale, got %d", len(reloaded))
	}
	got := reloaded[0]
	if got.ID != s.ID || got.Kind != s.Kind || got.Quantity != s.Quantity ||
		got.Price != s.Price || got.BuyerID != s.BuyerID || got.Method != s.Method ||
		!got.SoldAt.Equal(s.SoldAt) {
		t.Fatalf("reloaded sale differs: %+v vs %+v", got, s)
	}
}

func TestAppendPreservesOrder(t *testing.T) {
	path := tempLedger(t)
	repo := NewFile(path, nil)
	if _, err := repo.Load(context.Background()); err != nil {
		t.Fatal(err)
	}

	for i, id := range []string{"a", "b", "c"} {
		s := domain.Sale{ID: id, Kind: domain.KindBundle, Quantity: float64(i + 1), SoldAt: time.Now().UTC()}
		if err := repo.Append(context.Background(), s); err != nil {
			t.Fatalf("append %s: %v", id, err)
		}
	}

	reloaded, err := NewFile(path, nil).Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(reloaded) != 3 {
		t.Fatalf("expected 3 sales, got %d", len(reloaded))
	}
	for i, id := range []string{"a", "b", "c"} {
		if reloaded[i].ID != id {
			t.Fatalf("order not preserved: position %d is %q", i, reloaded[i].ID)
		}
	}
}

func TestReset(t *testing.T) {
	path := tempLedger(t)
	repo := NewFile(path, nil)
	if _, err := repo.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := repo.Append(context.Background(), domain.Sale{ID: "x", SoldAt: time.Now()}); err != nil {
		t.Fatal(err)
	}
	if err := repo.Reset(context.Background()); err != nil {
		t.Fatalf("reset: %v", err)
	}

	reloaded, err := NewFile(path, nil).Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(reloaded) != 0 {
		t.Fatalf("expected empty history after reset, got %d", len(reloaded))
	}
}
