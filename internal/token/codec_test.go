package token

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veriseal/veriseal/internal/fingerprint"
)

func testFingerprint() string {
	return fingerprint.Compute(fingerprint.Attributes{
		Serial:          "P-100",
		Name:            "Widget",
		Brand:           "Acme",
		ManufactureDate: "2024-01-01",
		ExpiryDate:      "2030-01-01",
	})
}

func TestRoundTrip(t *testing.T) {
	fp := testFingerprint()
	cases := []string{"P-100", "a", "serial with spaces", "日本-123", "P/100+x=?"}
	for _, serial := range cases {
		encoded, err := Encode(fp, serial)
		require.NoError(t, err)

		decoded := Decode(encoded)
		require.NotNil(t, decoded, "round trip failed for serial %q", serial)
		assert.Equal(t, fp, decoded.Fingerprint)
		assert.Equal(t, serial, decoded.Serial)
	}
}

func TestEncodeIsURLSafe(t *testing.T) {
	encoded, err := Encode(testFingerprint(), "P-100?x=1&y=2")
	require.NoError(t, err)
	assert.NotContains(t, encoded, "+")
	assert.NotContains(t, encoded, "/")
}

func TestDecodeAcceptsPaddedEncoding(t *testing.T) {
	fp := testFingerprint()
	payload := `{"fp":"` + fp + `","sn":"P-100"}`
	padded := base64.URLEncoding.EncodeToString([]byte(payload))
	require.True(t, strings.HasSuffix(padded, "="))

	decoded := Decode(padded)
	require.NotNil(t, decoded)
	assert.Equal(t, "P-100", decoded.Serial)
}

// Decode must be total: garbage in, nil out, never a panic.
func TestDecodeGarbage(t *testing.T) {
	fp := testFingerprint()
	cases := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"plain serial", "P-100"},
		{"invalid base64", "!!!not-base64!!!"},
		{"base64 of garbage", base64.RawURLEncoding.EncodeToString([]byte("garbage"))},
		{"base64 of wrong json", base64.RawURLEncoding.EncodeToString([]byte(`["fp","sn"]`))},
		{"missing serial", base64.RawURLEncoding.EncodeToString([]byte(`{"fp":"` + fp + `"}`))},
		{"missing fingerprint", base64.RawURLEncoding.EncodeToString([]byte(`{"sn":"P-100"}`))},
		{"short fingerprint", base64.RawURLEncoding.EncodeToString([]byte(`{"fp":"abc123","sn":"P-100"}`))},
		{"uppercase fingerprint", base64.RawURLEncoding.EncodeToString([]byte(`{"fp":"` + strings.ToUpper(fp) + `","sn":"P-100"}`))},
		{"binary noise", string([]byte{0x00, 0xff, 0x13, 0x37})},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				assert.Nil(t, Decode(tc.in))
			})
		})
	}
}

func TestQRImage(t *testing.T) {
	encoded, err := Encode(testFingerprint(), "P-100")
	require.NoError(t, err)

	png, err := QRImage(encoded, 0)
	require.NoError(t, err)
	assert.NotEmpty(t, png)
	// PNG magic header
	assert.Equal(t, []byte{0x89, 0x50, 0x4e, 0x47}, png[:4])
}
