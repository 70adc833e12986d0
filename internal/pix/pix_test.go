package pix

import (
	"fmt"
	"strings"
	"testing"
)

func TestEncodePayloadChecksum(t *testing.T) {
	cases := []struct {
		key    string
		amount float64
		name   string
		city   string
		txid   string
	}{
		{"pix@venus", 47.80, "Venus Store", "SAO PAULO", "pedido123"},
		{"11999998888", 0, "A", "B", ""},
		{"chave@longa.example.com", 12345.67, "Nome Bem Comprido Que Passa Do Limite", "Cidade Grande Demais", "tx"},
		{"pix@venus", 0.01, "José Conceição", "São Paulo", "pedido-42!"},
	}
	for _, c := range cases {
		payload := EncodePayload(c.key, c.amount, c.name, c.city, c.txid)
		if len(payload) < 8 {
			t.Fatalf("payload too short: %q", payload)
		}
		body := payload[:len(payload)-4]
		if !strings.HasSuffix(body, "6304") {
			t.Fatalf("payload body must end with the CRC trailer id: %q", body)
		}
		want := fmt.Sprintf("%04X", crc16(body))
		if got := payload[len(payload)-4:]; got != want {
			t.Fatalf("checksum %s, want %s (payload %q)", got, want, payload)
		}
	}
}

func TestEncodePayloadDeterministic(t *testing.T) {
	a := EncodePayload("pix@venus", 47.80, "Venus Store", "SAO PAULO", "pedido1")
	b := EncodePayload("pix@venus", 47.80, "Venus Store", "SAO PAULO", "pedido1")
	if a != b {
		t.Fatalf("same inputs produced different payloads:\n%s\n%s", a, b)
	}
}

func TestEncodeParseRoundTrip(t *testing.T) {
	payload := EncodePayload("pix@venus", 47.80, "Venus Store", "SAO PAULO", "pedido1")

	fields, err := ParsePayload(payload)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if fields[idPayloadFormat] != "01" {
		t.Fatalf("unexpected payload format: %q", fields[idPayloadFormat])
	}
	if fields[idAmount] != "47.80" {
		t.Fatalf("unexpected amount: %q", fields[idAmount])
	}
	if fields[idReceiverName] != "Venus Store" {
		t.Fatalf("unexpected receiver name: %q", fields[idReceiverName])
	}
	if fields[idReceiverCity] != "SAO PAULO" {
		t.Fatalf("unexpected receiver city: %q", fields[idReceiverCity])
	}
	if fields[idCurrency] != "986" || fields[idCountry] != "BR" {
		t.Fatalf("unexpected currency/country: %q/%q", fields[idCurrency], fields[idCountry])
	}

	inner, err := parseComposite(fields[idMerchantAccount])
	if err != nil {
		t.Fatalf("parse merchant account: %v", err)
	}
	if inner[idGUI] != "BR.GOV.BCB.PIX" {
		t.Fatalf("unexpected GUI: %q", inner[idGUI])
	}
	if inner[idKey] != "pix@venus" {
		t.Fatalf("unexpected key: %q", inner[idKey])
	}

	data, err := parseComposite(fields[idAdditionalData])
	if err != nil {
		t.Fatalf("parse additional data: %v", err)
	}
	if data[idTxID] != "pedido1" {
		t.Fatalf("unexpected txid: %q", data[idTxID])
	}
}

// parseComposite walks nested id/len/value triples without a checksum.
func parseComposite(s string) (map[string]string, error) {
	fields := make(map[string]string)
	for len(s) > 0 {
		if len(s) < 4 {
			return nil, fmt.Errorf("truncated composite: %q", s)
		}
		var length int
		if _, err := fmt.Sscanf(s[2:4], "%02d", &length); err != nil {
			return nil, err
		}
		if len(s) < 4+length {
			return nil, fmt.Errorf("composite field %s overruns", s[:2])
		}
		fields[s[:2]] = s[4 : 4+length]
		s = s[4+length:]
	}
	return fields, nil
}

// The trailer id sits in the checksummed body but its value is the CRC,
// which the parser strips before walking. The walk must stop before the
// trailer id or every valid payload fails with a truncated field 63.
func TestParseExcludesChecksumTrailer(t *testing.T) {
	payload := EncodePayload("pix@venus", 47.80, "Venus Store", "SAO PAULO", "pedido1")
	fields, err := ParsePayload(payload)
	if err != nil {
		t.Fatalf("parse valid payload: %v", err)
	}
	if _, ok := fields["63"]; ok {
		t.Fatal("trailer id must not appear as a parsed field")
	}
	if fields[idAmount] != "47.80" {
		t.Fatalf("amount field = %q, want 47.80", fields[idAmount])
	}
}

func TestParsePayloadRejectsBadChecksum(t *testing.T) {
	payload := EncodePayload("pix@venus", 10, "Venus Store", "SAO PAULO", "")
	corrupted := payload[:len(payload)-4] + "0000"
	if _, err := ParsePayload(corrupted); err == nil {
		t.Fatal("expected checksum error")
	}
}

func TestSanitization(t *testing.T) {
	payload := EncodePayload("key", 1, "Loja do João & Cia.", "São João", "tx#1")
	fields, err := ParsePayload(payload)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if fields[idReceiverName] != "Loja do Joao  Cia" {
		t.Fatalf("unexpected sanitized name: %q", fields[idReceiverName])
	}
	if fields[idReceiverCity] != "Sao Joao" {
		t.Fatalf("unexpected sanitized city: %q", fields[idReceiverCity])
	}
}

func TestTruncationLimits(t *testing.T) {
	longName := strings.Repeat("N", 40)
	longCity := strings.Repeat("C", 40)
	longTx := strings.Repeat("t", 40)
	payload := EncodePayload("key", 1, longName, longCity, longTx)
	fields, err := ParsePayload(payload)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(fields[idReceiverName]) != 25 {
		t.Fatalf("name not truncated to 25: %d", len(fields[idReceiverName]))
	}
	if len(fields[idReceiverCity]) != 15 {
		t.Fatalf("city not truncated to 15: %d", len(fields[idReceiverCity]))
	}
	data, err := parseComposite(fields[idAdditionalData])
	if err != nil {
		t.Fatalf("parse additional data: %v", err)
	}
	if len(data[idTxID]) != 25 {
		t.Fatalf("txid not truncated to 25: %d", len(data[idTxID]))
	}
}

func TestEmptyTxIDDefaults(t *testing.T) {
	payload := EncodePayload("key", 1, "Name", "City", "")
	fields, err := ParsePayload(payload)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	data, err := parseComposite(fields[idAdditionalData])
	if err != nil {
		t.Fatalf("parse additional data: %v", err)
	}
	if data[idTxID] != "***" {
		t.Fatalf("expected default txid ***, got %q", data[idTxID])
	}
}

func TestCRC16KnownVector(t *testing.T) {
	// CRC16/CCITT-FALSE of "123456789" is the standard check value 0x29B1.
	if got := crc16("123456789"); got != 0x29B1 {
		t.Fatalf("crc16(123456789) = %04X, want 29B1", got)
	}
}
