package httpserver

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/bookstore/internal/logging"
)

var statusMessages = map[int]string{
	http.StatusNotFound:         "Page not found",
	http.StatusForbidden:        "Forbidden",
	http.StatusMethodNotAllowed: "Method not allowed",
}

// ErrorHandler renders protocol errors as HTML pages. Internal details never reach the client.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	msg := "Internal server error"
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if m, ok := statusMessages[code]; ok {
			msg = m
		}
		if s, ok := he.Message.(string); ok && code < 500 && s != "" {
			msg = s
		}
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}

	if rerr := view(c, code, "error", fmt.Sprintf("%d", code), echo.Map{"Code": code, "Message": msg}); rerr != nil {
		logging.FromContext(c.Request().Context()).Error("render_error_page", "status", code, "error", rerr)
		_ = c.String(code, msg)
	}
}
