package adminapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/veriseal/veriseal/internal/domain"
	"github.com/veriseal/veriseal/internal/webserver"
	"github.com/veriseal/veriseal/pkg/common"
)

type reportPayload struct {
	Serial      string `json:"serial" validate:"required,min=1,max=100"`
	Description string `json:"description" validate:"required,min=1,max=2000"`
	Contact     string `json:"contact" validate:"omitempty,max=200"`
}

// registerReportRoutes registers counterfeit report submission and listing.
// Resolution of reports happens outside this service.
func registerReportRoutes() {
	webserver.ApiPOST("/reports", createReport)
	webserver.ApiGET("/reports", listReports)
}

func createReport(c echo.Context) error {
	var payload reportPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse report", err.Error())
	}
	payload.Serial = strings.TrimSpace(payload.Serial)
	payload.Description = strings.TrimSpace(payload.Description)
	if payload.Serial == "" || payload.Description == "" {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Serial and description are required", nil)
	}

	now := time.Now()
	r := domain.Report{
		ID:          common.UUIDint64(),
		Serial:      payload.Serial,
		Description: payload.Description,
		Contact:     strings.TrimSpace(payload.Contact),
		Status:      "open",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := GetDB(c).Create(&r).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create report", err.Error())
	}
	return ok(c, r)
}

func listReports(c echo.Context) error {
	page, pageSize := parsePagination(c)

	db := GetDB(c).Model(&domain.Report{})
	if serial := strings.TrimSpace(c.QueryParam("serial")); serial != "" {
		db = db.Where("serial = ?", serial)
	}
	if status := strings.TrimSpace(c.QueryParam("status")); status != "" {
		db = db.Where("status = ?", status)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query reports", err.Error())
	}

	var rows []domain.Report
	if err := db.Order("created_at DESC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query reports", err.Error())
	}
	return paged(c, rows, total, page, pageSize)
}
