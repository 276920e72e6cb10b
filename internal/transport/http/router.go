package httpserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
)

type Deps struct {
	AuthHandler    *AuthHTTP
	CatalogHandler *CatalogHTTP
	CartHandler    *CartHTTP

	Verifier      TokenVerifier
	Ready         func(ctx context.Context) error
	AuthRateLimit int
}

func Register(e *echo.Echo, d *Deps) {
	if e.Validator == nil {
		e.Validator = NewValidator()
	}

	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil {
			if err := d.Ready(c.Request().Context()); err != nil {
				return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "unavailable"})
			}
		}
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})

	api := e.Group("/api")
	auth := BearerAuth(d.Verifier)
	limit := AuthRateLimiter(d.AuthRateLimit)

	api.POST("/register", d.AuthHandler.Register, limit)
	api.POST("/login", d.AuthHandler.Login, limit)
	api.GET("/me", d.AuthHandler.Me, auth)

	api.GET("/products", d.CatalogHandler.ListProducts)
	api.GET("/products/:id", d.CatalogHandler.GetProduct)
	api.GET("/categories", d.CatalogHandler.Categories)

	cart := api.Group("/cart", auth)

	cart.POST("", d.CartHandler.AddItem)
	cart.GET("", d.CartHandler.List)
	cart.DELETE("", d.CartHandler.Clear)
	cart.PUT("/:id", d.CartHandler.UpdateQuantity)
	cart.DELETE("/:id", d.CartHandler.RemoveItem)
}
