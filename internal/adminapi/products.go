package adminapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/veriseal/veriseal/internal/domain"
	"github.com/veriseal/veriseal/internal/fingerprint"
	"github.com/veriseal/veriseal/internal/token"
	"github.com/veriseal/veriseal/internal/webserver"
	"github.com/veriseal/veriseal/pkg/common"
)

type productPayload struct {
	Serial          string `json:"serial" validate:"required,min=1,max=100"`
	Name            string `json:"name" validate:"required,min=1,max=200"`
	Brand           string `json:"brand" validate:"required,min=1,max=200"`
	ManufactureDate string `json:"manufacture_date" validate:"required"`
	ExpiryDate      string `json:"expiry_date" validate:"required"`
	Image           string `json:"image"`
	Remark          string `json:"remark" validate:"omitempty,max=500"`
}

// registerProductRoutes registers product registry CRUD endpoints
func registerProductRoutes() {
	webserver.ApiGET("/products", listProducts)
	webserver.ApiGET("/products/:id", getProduct)
	webserver.ApiGET("/products/:id/qrcode", getProductQrcode)
	webserver.ApiPOST("/products", createProduct)
	webserver.ApiPUT("/products/:id", updateProduct)
	webserver.ApiDELETE("/products/:id", deleteProduct)
}

// validateDates checks that both dates parse and that the payload keeps the
// canonical textual form intact. The stored text is the fingerprint input,
// so it is validated but never rewritten.
func validateDates(payload *productPayload) string {
	if _, err := dateparse.ParseAny(payload.ManufactureDate); err != nil {
		return "manufacture_date is not a valid date"
	}
	if _, err := dateparse.ParseAny(payload.ExpiryDate); err != nil {
		return "expiry_date is not a valid date"
	}
	return ""
}

func listProducts(c echo.Context) error {
	page, pageSize := parsePagination(c)

	// Sorting: field and order
	sortField := strings.TrimSpace(c.QueryParam("sort"))
	order := strings.ToUpper(strings.TrimSpace(c.QueryParam("order")))
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}

	// whitelist allowed sort columns to avoid SQL injection
	allowed := map[string]string{
		"id":         "id",
		"serial":     "serial",
		"name":       "name",
		"brand":      "brand",
		"created_at": "created_at",
		"updated_at": "updated_at",
	}
	sortCol, okCol := allowed[sortField]
	if !okCol || sortCol == "" {
		sortCol = "id"
	}

	db := GetDB(c).Model(&domain.Product{})
	if q := strings.TrimSpace(c.QueryParam("q")); q != "" {
		if strings.EqualFold(db.Name(), "postgres") { //nolint:staticcheck
			db = db.Where("serial ILIKE ? OR name ILIKE ? OR brand ILIKE ?", "%"+q+"%", "%"+q+"%", "%"+q+"%")
		} else {
			lq := "%" + strings.ToLower(q) + "%"
			db = db.Where("LOWER(serial) LIKE ? OR LOWER(name) LIKE ? OR LOWER(brand) LIKE ?", lq, lq, lq)
		}
	}
	if brand := strings.TrimSpace(c.QueryParam("brand")); brand != "" {
		db = db.Where("brand = ?", brand)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query products", err.Error())
	}

	var rows []domain.Product
	if err := db.Order(sortCol + " " + order).Offset((page - 1) * pageSize).Limit(pageSize).Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query products", err.Error())
	}

	return paged(c, rows, total, page, pageSize)
}

func getProduct(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	var p domain.Product
	if err := GetDB(c).Where("id = ?", id).First(&p).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Product not found", nil)
	}
	return ok(c, p)
}

func getProductQrcode(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	var p domain.Product
	if err := GetDB(c).Where("id = ?", id).First(&p).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Product not found", nil)
	}

	size := int(GetApp(c).GetSettingsInt64Value("verify", "QrImageSize"))
	if s, err := strconv.Atoi(c.QueryParam("size")); err == nil {
		size = s
	}
	png, err := token.QRImage(p.Token, size)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "QRCODE_ERROR", "Failed to render QR image", err.Error())
	}
	c.Response().Header().Set("Content-Disposition", `inline; filename="`+p.Serial+`.png"`)
	return c.Blob(http.StatusOK, "image/png", png)
}

func createProduct(c echo.Context) error {
	var payload productPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse product", err.Error())
	}
	payload.Serial = strings.TrimSpace(payload.Serial)
	payload.Name = strings.TrimSpace(payload.Name)
	payload.Brand = strings.TrimSpace(payload.Brand)
	if payload.Serial == "" || payload.Name == "" || payload.Brand == "" {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Serial, name and brand are required", nil)
	}
	if msg := validateDates(&payload); msg != "" {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", msg, nil)
	}

	var existing domain.Product
	err := GetDB(c).Where("serial = ?", payload.Serial).First(&existing).Error
	if err == nil {
		return fail(c, http.StatusConflict, "DUPLICATE_SERIAL", "A product with this serial already exists", nil)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query products", err.Error())
	}

	now := time.Now()
	p := domain.Product{
		ID:              common.UUIDint64(),
		Serial:          payload.Serial,
		Name:            payload.Name,
		Brand:           payload.Brand,
		ManufactureDate: payload.ManufactureDate,
		ExpiryDate:      payload.ExpiryDate,
		Image:           strings.TrimSpace(payload.Image),
		Remark:          strings.TrimSpace(payload.Remark),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := sealProduct(&p); err != nil {
		return fail(c, http.StatusInternalServerError, "TOKEN_ERROR", "Failed to encode product token", err.Error())
	}

	if err := GetDB(c).Create(&p).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create product", err.Error())
	}
	return ok(c, p)
}

func updateProduct(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	var p domain.Product
	if err := GetDB(c).Where("id = ?", id).First(&p).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Product not found", nil)
	}

	var payload productPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse product", err.Error())
	}
	payload.Serial = strings.TrimSpace(payload.Serial)
	payload.Name = strings.TrimSpace(payload.Name)
	payload.Brand = strings.TrimSpace(payload.Brand)
	if payload.Name == "" || payload.Brand == "" {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Name and brand are required", nil)
	}
	// The serial is the immutable business key: labels in the field carry it.
	if payload.Serial != "" && payload.Serial != p.Serial {
		return fail(c, http.StatusBadRequest, "IMMUTABLE_SERIAL", "Serial cannot be changed after registration", nil)
	}
	if msg := validateDates(&payload); msg != "" {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", msg, nil)
	}

	p.Name = payload.Name
	p.Brand = payload.Brand
	p.ManufactureDate = payload.ManufactureDate
	p.ExpiryDate = payload.ExpiryDate
	p.Image = strings.TrimSpace(payload.Image)
	p.Remark = strings.TrimSpace(payload.Remark)
	p.UpdatedAt = time.Now()

	// Any canonical attribute change invalidates the stored fingerprint and
	// token, so they are always recomputed on update.
	if err := sealProduct(&p); err != nil {
		return fail(c, http.StatusInternalServerError, "TOKEN_ERROR", "Failed to encode product token", err.Error())
	}

	if err := GetDB(c).Save(&p).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update product", err.Error())
	}
	return ok(c, p)
}

// sealProduct recomputes the fingerprint over the current canonical
// attributes and re-encodes the QR token.
func sealProduct(p *domain.Product) error {
	p.Fingerprint = fingerprint.Compute(fingerprint.FromProduct(p))
	encoded, err := token.Encode(p.Fingerprint, p.Serial)
	if err != nil {
		return err
	}
	p.Token = encoded
	return nil
}

func deleteProduct(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	if err := GetDB(c).Where("id = ?", id).Delete(&domain.Product{}).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete product", err.Error())
	}
	return ok(c, map[string]interface{}{"id": id})
}
