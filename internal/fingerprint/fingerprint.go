// Package fingerprint computes the canonical product fingerprint.
//
// The fingerprint is a keyless SHA-256 digest over the five canonical
// attributes in their stored textual form. Anyone who can read a product's
// printed attributes can compute a valid fingerprint; the scheme detects
// substitution and data corruption, it does not stop a forger who controls
// the label. Switching to a keyed digest would change every fingerprint in
// the field, so the weakness is documented instead of fixed here.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/veriseal/veriseal/internal/domain"
)

// Delimiter separates the canonical fields in the digest input. It is not
// expected to appear inside any attribute value.
const Delimiter = "|"

// Size is the length of the hex encoded fingerprint.
const Size = 64

// Attributes are the five canonical product fields, in fingerprint order.
// Values are used exactly as stored: no trimming, case folding or
// normalization of any kind.
type Attributes struct {
	Serial          string
	Name            string
	Brand           string
	ManufactureDate string
	ExpiryDate      string
}

// FromProduct extracts the canonical attributes from a stored product.
func FromProduct(p *domain.Product) Attributes {
	return Attributes{
		Serial:          p.Serial,
		Name:            p.Name,
		Brand:           p.Brand,
		ManufactureDate: p.ManufactureDate,
		ExpiryDate:      p.ExpiryDate,
	}
}

// Compute returns the lowercase hex SHA-256 digest of the canonical
// attribute concatenation. It is a pure function: identical input always
// yields identical output.
func Compute(attrs Attributes) string {
	canonical := strings.Join([]string{
		attrs.Serial,
		attrs.Name,
		attrs.Brand,
		attrs.ManufactureDate,
		attrs.ExpiryDate,
	}, Delimiter)
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:])
}

// IsWellFormed reports whether s looks like a fingerprint: exactly 64
// lowercase hex characters.
func IsWellFormed(s string) bool {
	if len(s) != Size {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
