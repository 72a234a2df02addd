// Package token encodes and decodes the compact payload carried by a
// product QR label.
package token

import (
	"encoding/base64"

	jsoniter "github.com/json-iterator/go"

	"github.com/veriseal/veriseal/internal/fingerprint"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Payload is the two-field record embedded in a QR symbol. It is transient:
// it lives only inside an encoded token and is never persisted as a row.
type Payload struct {
	Fingerprint string `json:"fp"`
	Serial      string `json:"sn"`
}

// Encode serializes a payload and applies a URL-safe base64 encoding so the
// result is printable and embeddable in a QR symbol.
func Encode(fp, serial string) (string, error) {
	data, err := json.Marshal(Payload{Fingerprint: fp, Serial: serial})
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

// Decode attempts the inverse transform. It is total: any malformed input
// (bad base64, bad JSON, missing fields, fingerprint that is not 64 lowercase
// hex characters) yields nil so the caller can fall back to treating the raw
// scanned string as a bare serial.
func Decode(raw string) *Payload {
	if raw == "" {
		return nil
	}
	data, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		// Labels printed by older tooling used padded encoding.
		data, err = base64.URLEncoding.DecodeString(raw)
		if err != nil {
			return nil
		}
	}
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil
	}
	if p.Serial == "" || !fingerprint.IsWellFormed(p.Fingerprint) {
		return nil
	}
	return &p
}
