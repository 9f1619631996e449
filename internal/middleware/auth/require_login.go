package auth

import (
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/bookstore/internal/flash"
)

const LoginMessage = "Please log in to access this page."

// RequireLogin sends anonymous visitors to the login page and brings them back afterwards.
func RequireLogin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if CurrentUser(c) != nil {
			return next(c)
		}
		flash.Add(c, flash.Info, LoginMessage)
		return c.Redirect(http.StatusFound, "/login?next="+url.QueryEscape(c.Request().URL.RequestURI()))
	}
}
