package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/bookstore/internal/flash"
	"github.com/Skotchmaster/bookstore/internal/logging"
	"github.com/Skotchmaster/bookstore/internal/middleware/auth"
	"github.com/Skotchmaster/bookstore/internal/service"
)

type CheckoutHTTP struct {
	Svc *service.CheckoutService
}

func emptyCart(c echo.Context, code int) error {
	flash.Add(c, flash.Warning, "Your cart is empty")
	return c.Redirect(code, "/catalogue")
}

func (h *CheckoutHTTP) Checkout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout.view")

	user := auth.CurrentUser(c)
	cart, err := h.Svc.Summary(ctx, user.ID)
	if err != nil {
		if errors.Is(err, service.ErrEmptyCart) {
			return emptyCart(c, http.StatusFound)
		}
		l.Error("checkout_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return view(c, http.StatusOK, "checkout", "Checkout", echo.Map{"Cart": cart})
}

func (h *CheckoutHTTP) Complete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout.complete")

	user := auth.CurrentUser(c)
	if _, err := h.Svc.Complete(ctx, user.ID); err != nil {
		if errors.Is(err, service.ErrEmptyCart) {
			return emptyCart(c, http.StatusSeeOther)
		}
		l.Error("complete_checkout_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	flash.Add(c, flash.Success, "Order completed successfully! Thank you for your purchase.")
	return redirectAfterPost(c, "/")
}
