package adminapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/veriseal/veriseal/internal/token"
	"github.com/veriseal/veriseal/internal/verify"
	"github.com/veriseal/veriseal/internal/webserver"
)

type verifyPayload struct {
	// Code is the raw scanned string: either an encoded QR token or, when a
	// holder types the serial by hand, the bare serial itself.
	Code string `json:"code" validate:"required,min=1"`
}

// registerVerifyRoutes registers the public verification entry points
func registerVerifyRoutes() {
	webserver.ApiPOST("/verify", verifyCode)
	webserver.ApiGET("/verify/:serial", verifySerial)
}

// verifyCode handles the scanner path. The scanned string is first tried as
// an encoded token; anything that does not decode is treated as a bare
// serial, which downgrades the attempt to the existence-only mode.
func verifyCode(c echo.Context) error {
	var payload verifyPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse verify request", err.Error())
	}
	code := strings.TrimSpace(payload.Code)
	if code == "" {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Code is required", nil)
	}

	serial := code
	fp := ""
	if decoded := token.Decode(code); decoded != nil {
		serial = decoded.Serial
		fp = decoded.Fingerprint
	}

	return runVerify(c, serial, fp)
}

// verifySerial handles manual entry: existence check only, no cryptographic
// guarantee. The result mode makes the weaker check visible to callers.
func verifySerial(c echo.Context) error {
	serial := strings.TrimSpace(c.Param("serial"))
	if serial == "" {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Serial is required", nil)
	}
	return runVerify(c, serial, "")
}

func runVerify(c echo.Context, serial, fp string) error {
	appCtx := GetApp(c)

	var actor *string
	header := appCtx.GetSettingsStringValue("verify", "ActorHeader")
	if header == "" {
		header = "X-Veriseal-Actor"
	}
	if v := strings.TrimSpace(c.Request().Header.Get(header)); v != "" {
		actor = &v
	}

	res, err := appCtx.VerifyService().Verify(c.Request().Context(), serial, fp, actor)
	if err != nil {
		var unavailable *verify.UnavailableError
		if errors.As(err, &unavailable) {
			c.Response().Header().Set("Retry-After", "1")
			return fail(c, http.StatusServiceUnavailable, "RETRYABLE", "Verification temporarily unavailable, retry later", nil)
		}
		return fail(c, http.StatusInternalServerError, "VERIFY_ERROR", "Verification failed", err.Error())
	}
	return ok(c, res)
}
