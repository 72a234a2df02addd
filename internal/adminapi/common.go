package adminapi

import (
	"strconv"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/veriseal/veriseal/internal/app"
	"github.com/veriseal/veriseal/internal/webserver"
)

// InitRouter registers all API routes. Call after webserver.Init.
func InitRouter() {
	registerProductRoutes()
	registerVerifyRoutes()
	registerScanRoutes()
	registerReportRoutes()
}

// GetApp returns the application context injected by the web server.
func GetApp(c echo.Context) app.AppContext {
	return c.Get(webserver.ContextKeyApp).(app.AppContext)
}

// GetDB returns the request scoped database handle.
func GetDB(c echo.Context) *gorm.DB {
	return GetApp(c).DB()
}

type apiResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

type apiError struct {
	Code    int         `json:"code"`
	ErrCode string      `json:"err_code"`
	Message string      `json:"message"`
	Detail  interface{} `json:"detail,omitempty"`
}

type pagedResponse struct {
	Code     int         `json:"code"`
	Data     interface{} `json:"data"`
	Total    int64       `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
}

func ok(c echo.Context, data interface{}) error {
	return c.JSON(200, apiResponse{Code: 0, Data: data})
}

func fail(c echo.Context, status int, errCode, message string, detail interface{}) error {
	return c.JSON(status, apiError{Code: status, ErrCode: errCode, Message: message, Detail: detail})
}

func paged(c echo.Context, rows interface{}, total int64, page, pageSize int) error {
	return c.JSON(200, pagedResponse{Code: 0, Data: rows, Total: total, Page: page, PageSize: pageSize})
}

// parsePagination reads page/pageSize query params with sane bounds.
func parsePagination(c echo.Context) (page, pageSize int) {
	page = 1
	pageSize = 20
	if p, err := strconv.Atoi(c.QueryParam("page")); err == nil && p > 0 {
		page = p
	}
	if ps, err := strconv.Atoi(c.QueryParam("pageSize")); err == nil && ps > 0 && ps <= 500 {
		pageSize = ps
	}
	return page, pageSize
}
