package httpapi

import (
	"github.com/deferscky/stringeditor/internal/logging"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

func newRouter(logger logging.Logger, d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	h := &handler{deps: d, logger: logger}

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(accessLog(logger, d.Metrics))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	e.GET("/", h.index)
	e.GET("/system/info", h.systemInfo)
	e.GET("/healthz", h.healthz)
	if d.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(d.Metrics.Handler()))
	}

	e.POST("/auth/register", h.register)
	e.POST("/auth/login", h.login)

	auth := bearerAuth(d.Accounts)

	a := e.Group("/auth", auth)
	a.POST("/change-password", h.changePassword)
	a.POST("/delete-account", h.deleteAccount)

	s := e.Group("/strings", auth)
	s.POST("/save", h.saveStrings)
	s.POST("/get-all", h.getAllStrings)
	s.POST("/delete-all", h.deleteAllStrings)
	s.POST("/sort", h.sortStrings)
	s.POST("/search", h.searchStrings)
	s.POST("/replace", h.replaceStrings)
	s.POST("/delete", h.deleteStrings)

	e.POST("/history/get", h.getHistory, auth)

	return e
}

// endpoints lists the routes advertised by GET /.
var endpoints = []string{
	"POST /auth/register",
	"POST /auth/login",
	"POST /auth/change-password",
	"POST /auth/delete-account",
	"POST /strings/save",
	"POST /strings/get-all",
	"POST /strings/delete-all",
	"POST /strings/sort",
	"POST /strings/search",
	"POST /strings/replace",
	"POST /strings/delete",
	"POST /history/get",
	"GET /system/info",
	"GET /healthz",
	"GET /metrics",
}
