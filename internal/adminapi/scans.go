package adminapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/labstack/echo/v4"
	"github.com/montanaflynn/stats"
	"github.com/spf13/cast"
	"gorm.io/gorm"

	"github.com/veriseal/veriseal/internal/domain"
	"github.com/veriseal/veriseal/internal/webserver"
	"github.com/veriseal/veriseal/pkg/common"
	"github.com/veriseal/veriseal/pkg/metrics"
)

// registerScanRoutes registers the scan audit log endpoints
func registerScanRoutes() {
	webserver.ApiGET("/scans", listScans)
	webserver.ApiGET("/scans/export", exportScans)
	webserver.ApiGET("/scans/stats", scanStats)
	webserver.ApiGET("/scans/series", scanSeries)
}

func scanQuery(c echo.Context) *gorm.DB {
	db := GetDB(c).Model(&domain.ScanRecord{})
	if serial := strings.TrimSpace(c.QueryParam("serial")); serial != "" {
		db = db.Where("serial = ?", serial)
	}
	if status := strings.TrimSpace(c.QueryParam("status")); status != "" {
		db = db.Where("status = ?", status)
	}
	switch strings.TrimSpace(c.QueryParam("flagged")) {
	case "true", "1":
		db = db.Where("flagged = ?", true)
	case "false", "0":
		db = db.Where("flagged = ?", false)
	}
	return db
}

func listScans(c echo.Context) error {
	page, pageSize := parsePagination(c)
	db := scanQuery(c)

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query scan records", err.Error())
	}

	var rows []domain.ScanRecord
	if err := db.Order("created_at DESC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query scan records", err.Error())
	}
	return paged(c, rows, total, page, pageSize)
}

// scanCSVRow flattens a scan record for export.
type scanCSVRow struct {
	Serial  string `csv:"serial"`
	Actor   string `csv:"actor"`
	Status  string `csv:"status"`
	Mode    string `csv:"mode"`
	Flagged bool   `csv:"flagged"`
	Reason  string `csv:"reason"`
	Time    string `csv:"time"`
}

func exportScans(c echo.Context) error {
	limit := int(GetApp(c).GetSettingsInt64Value("scans", "ExportLimit"))
	if limit <= 0 {
		limit = 10000
	}

	var rows []domain.ScanRecord
	if err := scanQuery(c).Order("created_at DESC").Limit(limit).Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query scan records", err.Error())
	}

	out := make([]scanCSVRow, 0, len(rows))
	for _, r := range rows {
		actor := ""
		if r.Actor != nil {
			actor = *r.Actor
		}
		out = append(out, scanCSVRow{
			Serial:  r.Serial,
			Actor:   actor,
			Status:  r.Status,
			Mode:    r.Mode,
			Flagged: r.Flagged,
			Reason:  r.Reason,
			Time:    common.FmtDatetime(r.CreatedAt),
		})
	}

	csvData, err := gocsv.MarshalString(&out)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "EXPORT_ERROR", "Failed to marshal CSV", err.Error())
	}
	c.Response().Header().Set("Content-Disposition", `attachment; filename="scan_records.csv"`)
	return c.Blob(http.StatusOK, "text/csv", []byte(csvData))
}

type scanStatsResult struct {
	Days         int              `json:"days"`
	Total        int64            `json:"total"`
	ByStatus     map[string]int64 `json:"by_status"`
	DailyMean    float64          `json:"daily_mean"`
	DailyMedian  float64          `json:"daily_median"`
	DailyMax     float64          `json:"daily_max"`
	SuspectRatio float64          `json:"suspect_ratio"`
}

func scanStats(c echo.Context) error {
	days := int(GetApp(c).GetSettingsInt64Value("scans", "StatsDays"))
	if days <= 0 {
		days = 30
	}
	since := time.Now().AddDate(0, 0, -days)

	type statusCount struct {
		Status string
		Total  int64
	}
	var counts []statusCount
	if err := GetDB(c).Model(&domain.ScanRecord{}).
		Select("status, count(*) as total").
		Where("created_at >= ?", since).
		Group("status").
		Scan(&counts).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to aggregate scans", err.Error())
	}

	result := scanStatsResult{Days: days, ByStatus: map[string]int64{}}
	var suspect int64
	for _, sc := range counts {
		result.ByStatus[sc.Status] = sc.Total
		result.Total += sc.Total
		if sc.Status != "original" {
			suspect += sc.Total
		}
	}
	if result.Total > 0 {
		result.SuspectRatio = float64(suspect) / float64(result.Total)
	}

	// Daily counts feed the distribution figures.
	var records []domain.ScanRecord
	if err := GetDB(c).Model(&domain.ScanRecord{}).
		Select("created_at").
		Where("created_at >= ?", since).
		Find(&records).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load scan records", err.Error())
	}
	perDay := map[string]float64{}
	for _, r := range records {
		perDay[common.FmtDate(r.CreatedAt)]++
	}
	daily := make([]float64, 0, len(perDay))
	for _, v := range perDay {
		daily = append(daily, v)
	}
	if len(daily) > 0 {
		result.DailyMean, _ = stats.Mean(daily)
		result.DailyMedian, _ = stats.Median(daily)
		result.DailyMax, _ = stats.Max(daily)
	}

	return ok(c, result)
}

type seriesPoint struct {
	Timestamp int64   `json:"timestamp"`
	Value     float64 `json:"value"`
}

// scanSeries serves raw outcome data points from the local metrics storage,
// used by the dashboard charts.
func scanSeries(c echo.Context) error {
	status := strings.TrimSpace(c.QueryParam("status"))
	if status == "" {
		status = "original"
	}
	days := cast.ToInt(c.QueryParam("days"))
	if days <= 0 || days > 365 {
		days = 7
	}
	end := time.Now().Unix()
	start := time.Now().AddDate(0, 0, -days).Unix()

	points, err := metrics.ScanPoints(status, start, end)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "METRICS_ERROR", "Failed to read scan series", err.Error())
	}
	out := make([]seriesPoint, 0, len(points))
	for _, p := range points {
		out = append(out, seriesPoint{Timestamp: p.Timestamp, Value: p.Value})
	}
	return ok(c, out)
}
