package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
)

type CatalogHTTP struct {
	Svc *service.CatalogService
}

func (h *CatalogHTTP) ListProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.list")

	filter := models.ProductFilter{
		Search:   c.QueryParam("search"),
		Category: c.QueryParam("category"),
	}
	items, err := h.Svc.List(ctx, filter)
	if err != nil {
		he := httpError(err, "")
		l.Error("list_products_error", "status", he.Code, "error", err)
		return he
	}

	return c.JSON(http.StatusOK, items)
}

func (h *CatalogHTTP) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.get")

	id := c.Param("id")
	p, err := h.Svc.GetProduct(ctx, id)
	if err != nil {
		he := httpError(err, "Product not found")
		l.Warn("get_product_error", "status", he.Code, "product_id", id, "error", err)
		return he
	}

	return c.JSON(http.StatusOK, p)
}

func (h *CatalogHTTP) Categories(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.categories")

	cats, err := h.Svc.Categories(ctx)
	if err != nil {
		he := httpError(err, "")
		l.Error("categories_error", "status", he.Code, "error", err)
		return he
	}

	return c.JSON(http.StatusOK, transport.CategoriesResponse{Categories: cats})
}
