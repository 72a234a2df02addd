package webserver

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/veriseal/veriseal/internal/app"
)

// ContextKeyApp is the echo context key holding the application context.
const ContextKeyApp = "veriseal_app"

var server *WebServer

type WebServer struct {
	appCtx app.AppContext
	root   *echo.Echo
}

// Init creates the global web server bound to the application context.
func Init(appCtx app.AppContext) {
	server = NewWebServer(appCtx)
}

func NewWebServer(appCtx app.AppContext) *WebServer {
	s := &WebServer{appCtx: appCtx, root: echo.New()}
	s.root.Pre(middleware.RemoveTrailingSlash())
	s.root.Use(middleware.Recover())
	s.root.Use(middleware.CORS())
	s.root.Use(s.injectApp)
	s.root.Use(requestLogger)
	s.root.HideBanner = true
	s.root.HTTPErrorHandler = errorHandler
	return s
}

func (s *WebServer) injectApp(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Set(ContextKeyApp, s.appCtx)
		return next(c)
	}
}

func requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		zap.L().Debug("http request",
			zap.String("method", c.Request().Method),
			zap.String("path", c.Request().URL.Path),
			zap.Int("status", c.Response().Status),
			zap.Duration("latency", time.Since(start)))
		return err
	}
}

func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code := http.StatusInternalServerError
	message := err.Error()
	if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code
		message = fmt.Sprintf("%v", he.Message)
	}
	zap.L().Error("http error",
		zap.String("path", c.Request().URL.Path),
		zap.Int("status", code),
		zap.Error(err))
	_ = c.JSON(code, map[string]interface{}{"code": code, "message": message})
}

// Listen starts the server on the configured address.
func Listen() error {
	cfg := server.appCtx.Config()
	addr := fmt.Sprintf("%s:%d", cfg.Web.Host, cfg.Web.Port)
	zap.L().Info("starting web server", zap.String("listen", addr))
	return server.root.Start(addr)
}

// Shutdown stops accepting connections.
func Shutdown() {
	if server != nil {
		_ = server.root.Close()
	}
}

// Engine exposes the underlying echo engine (used in handler tests).
func Engine() *echo.Echo {
	return server.root
}

// ApiGET registers a GET handler under the /api prefix.
func ApiGET(path string, h echo.HandlerFunc) {
	server.root.GET("/api"+path, h)
}

// ApiPOST registers a POST handler under the /api prefix.
func ApiPOST(path string, h echo.HandlerFunc) {
	server.root.POST("/api"+path, h)
}

// ApiPUT registers a PUT handler under the /api prefix.
func ApiPUT(path string, h echo.HandlerFunc) {
	server.root.PUT("/api"+path, h)
}

// ApiDELETE registers a DELETE handler under the /api prefix.
func ApiDELETE(path string, h echo.HandlerFunc) {
	server.root.DELETE("/api"+path, h)
}
