// Package qr renders payment payloads as PNG QR codes.
package qr

import qrcode "github.com/skip2/go-qrcode"

const size = 300

// PNG encodes payload as a 300px PNG with high error correction, matching
// what payment apps expect to scan.
func PNG(payload string) ([]byte, error) {
	return qrcode.Encode(payload, qrcode.High, size)
}
