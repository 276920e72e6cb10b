package httpserver

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
)

const cartItemNotFound = "Cart item not found"

type CartHTTP struct {
	Svc    *service.CartService
	Events events.Publisher
}

func (h *CartHTTP) AddItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add")

	userID, err := currentUser(c)
	if err != nil {
		return httpError(err, "")
	}

	var req transport.AddCartItemRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("add_to_cart_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		l.Warn("add_to_cart_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	line, err := h.Svc.AddItem(ctx, userID, req.ProductID, quantity)
	if err != nil {
		he := httpError(err, "Product not found")
		l.Warn("add_to_cart_error", "status", he.Code, "product_id", req.ProductID, "error", err)
		return he
	}

	publish(c, h.Events, events.TopicCart, events.Event{
		Type:      events.CartItemAdded,
		UserID:    userID,
		ItemID:    line.ID,
		ProductID: req.ProductID,
		Quantity:  line.Quantity,
	})
	l.Info("add_to_cart_successful", "status", 200, "item_id", line.ID, "quantity", line.Quantity)
	return c.JSON(http.StatusOK, line)
}

func (h *CartHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.list")

	userID, err := currentUser(c)
	if err != nil {
		return httpError(err, "")
	}

	lines, err := h.Svc.ListForUser(ctx, userID)
	if err != nil {
		he := httpError(err, "")
		l.Error("get_cart_error", "status", he.Code, "error", err)
		return he
	}
	return c.JSON(http.StatusOK, lines)
}

func (h *CartHTTP) UpdateQuantity(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.update")

	userID, err := currentUser(c)
	if err != nil {
		return httpError(err, "")
	}

	itemID := c.Param("id")
	quantity, err := strconv.Atoi(c.QueryParam("quantity"))
	if err != nil {
		l.Warn("update_cart_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "quantity must be an integer")
	}

	if err := h.Svc.UpdateQuantity(ctx, userID, itemID, quantity); err != nil {
		he := httpError(err, cartItemNotFound)
		l.Warn("update_cart_error", "status", he.Code, "item_id", itemID, "error", err)
		return he
	}

	publish(c, h.Events, events.TopicCart, events.Event{
		Type:     events.CartItemUpdated,
		UserID:   userID,
		ItemID:   itemID,
		Quantity: quantity,
	})
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "Cart updated"})
}

func (h *CartHTTP) RemoveItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.remove")

	userID, err := currentUser(c)
	if err != nil {
		return httpError(err, "")
	}

	itemID := c.Param("id")
	if err := h.Svc.RemoveItem(ctx, userID, itemID); err != nil {
		he := httpError(err, cartItemNotFound)
		l.Warn("remove_from_cart_error", "status", he.Code, "item_id", itemID, "error", err)
		return he
	}

	publish(c, h.Events, events.TopicCart, events.Event{Type: events.CartItemRemoved, UserID: userID, ItemID: itemID})
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "Item removed from cart"})
}

func (h *CartHTTP) Clear(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.clear")

	userID, err := currentUser(c)
	if err != nil {
		return httpError(err, "")
	}

	if err := h.Svc.ClearCart(ctx, userID); err != nil {
		he := httpError(err, "")
		l.Error("clear_cart_error", "status", he.Code, "error", err)
		return he
	}

	publish(c, h.Events, events.TopicCart, events.Event{Type: events.CartCleared, UserID: userID})
	l.Info("cart_cleared", "status", 200)
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "Cart cleared"})
}
