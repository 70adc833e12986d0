package qr

import (
	"bytes"
	"testing"
)

func TestPNG(t *testing.T) {
	data, err := PNG("00020126330014BR.GOV.BCB.PIX0111teste")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("\x89PNG")) {
		t.Fatal("expected PNG magic bytes")
	}
}

func TestPNGEmptyPayload(t *testing.T) {
	if _, err := PNG(""); err == nil {
		t.Fatal("expected error for empty payload")
	}
}
