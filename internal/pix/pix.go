// Package pix encodes static Pix payment payloads in the EMV merchant
// QR format used by Brazilian banks.
package pix

import (
	"fmt"
	"strings"
	"unicode"
)

// Field IDs of the EMV payload. Composite fields wrap nested id/len/value
// triples in their value.
const (
	idPayloadFormat   = "00"
	idMerchantAccount = "26"
	idGUI             = "00"
	idKey             = "01"
	idCategoryCode    = "52"
	idCurrency        = "53"
	idAmount          = "54"
	idCountry         = "58"
	idReceiverName    = "59"
	idReceiverCity    = "60"
	idAdditionalData  = "62"
	idTxID            = "05"
	idCRCTrailer      = "6304"
)

const (
	gui          = "BR.GOV.BCB.PIX"
	currencyBRL  = "986" // ISO 4217 numeric code
	countryBR    = "BR"
	maxNameLen   = 25
	maxCityLen   = 15
	maxTxIDLen   = 25
	defaultTxID  = "***"
	categoryNone = "0000"
)

// EncodePayload builds the copy-and-paste Pix string for a fixed amount.
// Deterministic: the same inputs always produce the same payload.
func EncodePayload(key string, amount float64, receiverName, receiverCity, txID string) string {
	name := truncate(sanitize(receiverName, true), maxNameLen)
	city := truncate(sanitize(receiverCity, true), maxCityLen)
	if txID == "" {
		txID = defaultTxID
	}
	txID = truncate(sanitize(txID, false), maxTxIDLen)

	var b strings.Builder
	b.WriteString(field(idPayloadFormat, "01"))
	b.WriteString(field(idMerchantAccount, field(idGUI, gui)+field(idKey, key)))
	b.WriteString(field(idCategoryCode, categoryNone))
	b.WriteString(field(idCurrency, currencyBRL))
	b.WriteString(field(idAmount, fmt.Sprintf("%.2f", amount)))
	b.WriteString(field(idCountry, countryBR))
	b.WriteString(field(idReceiverName, name))
	b.WriteString(field(idReceiverCity, city))
	b.WriteString(field(idAdditionalData, field(idTxID, txID)))
	b.WriteString(idCRCTrailer)

	payload := b.String()
	return payload + fmt.Sprintf("%04X", crc16(payload))
}

// ParsePayload walks the top-level id/len/value triples of a payload and
// returns them keyed by field id, validating the trailing checksum.
// Composite field values are returned raw; call ParsePayload on them again
// to descend.
func ParsePayload(payload string) (map[string]string, error) {
	if len(payload) < len(idCRCTrailer)+4 {
		return nil, fmt.Errorf("payload too short: %d chars", len(payload))
	}
	body := payload[:len(payload)-4]
	sum := payload[len(payload)-4:]
	if want := fmt.Sprintf("%04X", crc16(body)); sum != want {
		return nil, fmt.Errorf("checksum mismatch: have %s, want %s", sum, want)
	}

	// The trailer's value is the CRC itself, which sits past the end of
	// body; the walk stops before the trailer id.
	fields := make(map[string]string)
	rest := payload[:len(payload)-4-len(idCRCTrailer)]
	for len(rest) > 0 {
		if len(rest) < 4 {
			return nil, fmt.Errorf("truncated field header: %q", rest)
		}
		id := rest[:2]
		var length int
		if _, err := fmt.Sscanf(rest[2:4], "%02d", &length); err != nil {
			return nil, fmt.Errorf("bad length for field %s: %w", id, err)
		}
		if len(rest) < 4+length {
			return nil, fmt.Errorf("field %s declares %d chars, %d remain", id, length, len(rest)-4)
		}
		fields[id] = rest[4 : 4+length]
		rest = rest[4+length:]
	}
	return fields, nil
}

func field(id, value string) string {
	return fmt.Sprintf("%s%02d%s", id, len(value), value)
}

// sanitize strips diacritics and any character outside [A-Za-z0-9], keeping
// spaces only when allowSpace is set.
func sanitize(s string, allowSpace bool) string {
	var b strings.Builder
	for _, r := range s {
		r = stripDiacritic(r)
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' && allowSpace:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// stripDiacritic maps accented Latin letters onto their base letter.
// Covers the Latin-1 range, which is all Brazilian bank data uses.
func stripDiacritic(r rune) rune {
	switch {
	case r >= 'À' && r <= 'Å':
		return 'A'
	case r >= 'È' && r <= 'Ë':
		return 'E'
	case r >= 'Ì' && r <= 'Ï':
		return 'I'
	case r >= 'Ò' && r <= 'Ö':
		return 'O'
	case r >= 'Ù' && r <= 'Ü':
		return 'U'
	case r == 'Ç':
		return 'C'
	case r == 'Ñ':
		return 'N'
	case r >= 'à' && r <= 'å':
		return 'a'
	case r >= 'è' && r <= 'ë':
		return 'e'
	case r >= 'ì' && r <= 'ï':
		return 'i'
	case r >= 'ò' && r <= 'ö':
		return 'o'
	case r >= 'ù' && r <= 'ü':
		return 'u'
	case r == 'ç':
		return 'c'
	case r == 'ñ':
		return 'n'
	}
	if r > unicode.MaxASCII {
		return 0
	}
	return r
}

func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max]
	}
	return s
}

// crc16 computes CRC16/CCITT-FALSE: polynomial 0x1021, initial 0xFFFF,
// MSB-first, no reflection, no final xor.
func crc16(s string) uint16 {
	crc := uint16(0xFFFF)
	for i := 0; i < len(s); i++ {
		crc ^= uint16(s[i]) << 8
		for bit := 0; bit < 8; bit++ {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
