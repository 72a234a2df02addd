package token

import (
	qrcode "github.com/skip2/go-qrcode"
)

const (
	// DefaultImageSize is the pixel width of generated QR labels.
	DefaultImageSize = 256
	MaxImageSize     = 1024
)

// QRImage renders an encoded token as a PNG QR symbol. Medium error
// correction keeps the symbol scannable on curved packaging.
func QRImage(encoded string, size int) ([]byte, error) {
	if size <= 0 || size > MaxImageSize {
		size = DefaultImageSize
	}
	return qrcode.Encode(encoded, qrcode.Medium, size)
}
