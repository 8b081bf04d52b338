package httpserver

import (
	"github.com/labstack/echo/v4"

	"github.com/dmarulanda/muninet/internal/handlers"
	mw "github.com/dmarulanda/muninet/internal/middleware"
	"github.com/dmarulanda/muninet/internal/tokens"
)

type Deps struct {
	Codec               *tokens.Codec
	AuthHandler         *handlers.AuthHandler
	MunicipalityHandler *handlers.MunicipalityHandler
	RouterHandler       *handlers.RouterHandler
	InvoiceHandler      *handlers.InvoiceHandler
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })

	v1 := e.Group("/api/v1")

	v1.POST("/auth/register", d.AuthHandler.Register)
	v1.POST("/auth/login", d.AuthHandler.Login)
	v1.POST("/auth/refresh", d.AuthHandler.Refresh)

	authed := v1.Group("", mw.Authenticate(d.Codec))

	authed.GET("/auth/me", d.AuthHandler.Me)

	read := mw.RequireRole("admin", "manager", "viewer")
	manage := mw.RequireRole("admin", "manager")

	muni := authed.Group("/municipalities")
	muni.GET("", d.MunicipalityHandler.List, read)
	muni.GET("/:id", d.MunicipalityHandler.Get, read)
	muni.POST("", d.MunicipalityHandler.Create, manage)
	muni.PATCH("/:id", d.MunicipalityHandler.Patch, manage)
	muni.DELETE("/:id", d.MunicipalityHandler.Delete, mw.RequireRole("admin"))

	routers := authed.Group("/routers")
	routers.GET("", d.RouterHandler.List, read)
	routers.GET("/:id", d.RouterHandler.Get, read)
	routers.POST("", d.RouterHandler.Create, manage)
	routers.PATCH("/:id", d.RouterHandler.Patch, manage)
	routers.DELETE("/:id", d.RouterHandler.Delete, mw.RequireRole("admin"))

	invoices := authed.Group("/invoices")
	invoices.GET("/mine", d.InvoiceHandler.ListMine)
	invoices.GET("/search", d.InvoiceHandler.Search, read)
	invoices.GET("/:id", d.InvoiceHandler.Get, read)
	invoices.POST("", d.InvoiceHandler.Create, manage)
	invoices.PATCH("/:id", d.InvoiceHandler.Patch, manage)
	invoices.DELETE("/:id", d.InvoiceHandler.Delete, mw.RequireRole("admin"))
}
