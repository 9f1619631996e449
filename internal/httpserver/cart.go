package httpserver

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/bookstore/internal/flash"
	"github.com/Skotchmaster/bookstore/internal/logging"
	"github.com/Skotchmaster/bookstore/internal/middleware/auth"
	"github.com/Skotchmaster/bookstore/internal/service"
)

type CartHTTP struct {
	Svc *service.CartService
}

func (h *CartHTTP) GetCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "get.cart")

	user := auth.CurrentUser(c)
	cart, err := h.Svc.Summary(ctx, user.ID)
	if err != nil {
		l.Error("get_cart_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return view(c, http.StatusOK, "cart", "Cart", echo.Map{"Cart": cart})
}

func (h *CartHTTP) AddToCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "add.cart")

	bookID, err := pathID(c, "bookId")
	if err != nil {
		return err
	}

	user := auth.CurrentUser(c)
	book, err := h.Svc.Add(ctx, user.ID, bookID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			l.Warn("add_to_cart_error", "status", 404, "error", err)
			return echo.NewHTTPError(http.StatusNotFound, "Book not found")
		}
		l.Error("add_to_cart_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	flash.Add(c, flash.Success, fmt.Sprintf(`Added "%s" to cart`, book.Title))
	back := sameSiteReferer(c)
	if back == "" {
		back = "/catalogue"
	}
	return redirectAfterPost(c, back)
}

// itemError maps the shared not-found and ownership failures of cart item routes.
func itemError(c echo.Context, err error, event string) error {
	l := logging.FromContext(c.Request().Context())
	switch {
	case errors.Is(err, service.ErrNotFound):
		l.Warn(event, "status", 404, "error", err)
		return echo.NewHTTPError(http.StatusNotFound, "Cart item not found")
	case errors.Is(err, service.ErrForbidden):
		l.Warn(event, "status", 303, "reason", "foreign cart item", "error", err)
		flash.Add(c, flash.Danger, "Unauthorized action")
		return redirectAfterPost(c, "/cart")
	}
	l.Error(event, "status", 500, "error", err)
	return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
}

func (h *CartHTTP) RemoveFromCart(c echo.Context) error {
	ctx := c.Request().Context()

	itemID, err := pathID(c, "itemId")
	if err != nil {
		return err
	}

	user := auth.CurrentUser(c)
	if err := h.Svc.Remove(ctx, user.ID, itemID); err != nil {
		return itemError(c, err, "remove_from_cart_error")
	}

	flash.Add(c, flash.Info, "Item removed from cart")
	return redirectAfterPost(c, "/cart")
}

func (h *CartHTTP) UpdateQuantity(c echo.Context) error {
	ctx := c.Request().Context()

	itemID, err := pathID(c, "itemId")
	if err != nil {
		return err
	}

	user := auth.CurrentUser(c)
	if err := h.Svc.UpdateQuantity(ctx, user.ID, itemID, c.FormValue("quantity")); err != nil {
		if errors.Is(err, service.ErrInvalidQuantity) {
			flash.Add(c, flash.Danger, "Invalid quantity")
			return redirectAfterPost(c, "/cart")
		}
		return itemError(c, err, "update_quantity_error")
	}

	flash.Add(c, flash.Success, "Cart updated")
	return redirectAfterPost(c, "/cart")
}
