package invoicecache

import (
	"fmt"
	"testing"
	"time"
)

func TestPutGet(t *testing.T) {
	c := New(time.Minute, 10)
	c.Put("hash1", "lnbc1...")
	got, ok := c.Get("hash1")
	if !ok || got != "lnbc1..." {
		t.Fatalf("expected hit, got %q ok=%v", got, ok)
	}
}

func TestGetMissing(t *testing.T) {
	c := New(time.Minute, 10)
	if _, ok := c.Get("nope"); ok {
		t.Fatal("expected miss")
	}
}

func TestDelete(t *testing.T) {
	c := New(time.Minute, 10)
	c.Put("hash1", "inv")
	c.Delete("hash1")
	if _, ok := c.Get("hash1"); ok {
		t.Fatal("expected entry removed")
	}
}

func TestExpiry(t *testing.T) {
	c := New(time.Minute, 10)
	current := time.Now()
	c.now = func() time.Time { return current }

	c.Put("hash1", "inv")
	current = current.Add(2 * time.Minute)
	if _, ok := c.Get("hash1"); ok {
		t.Fatal("expected entry expired")
	}
}

func TestCapacityEvictsOldest(t *testing.T) {
	c := New(time.Minute, 3)
	for i := 0; i < 4; i++ {
		c.Put(fmt.Sprintf("hash%d", i), "inv")
	}
	if _, ok := c.Get("hash0"); ok {
		t.Fatal("expected oldest entry evicted")
	}
	for i := 1; i < 4; i++ {
		if _, ok := c.Get(fmt.Sprintf("hash%d", i)); !ok {
			t.Fatalf("expected hash%d retained", i)
		}
	}
}

func TestPutSameHashUpdates(t *testing.T) {
	c := New(time.Minute, 2)
	c.Put("hash1", "a")
	c.Put("hash1", "b")
	got, ok := c.Get("hash1")
	if !ok || got != "b" {
		t.Fatalf("expected updated value, got %q ok=%v", got, ok)
	}
	c.Put("hash2", "c")
	if _, ok := c.Get("hash2"); !ok {
		t.Fatal("expected hash2 present; duplicate put must not consume capacity")
	}
}
