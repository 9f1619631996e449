package httpserver

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/bookstore/internal/flash"
	"github.com/Skotchmaster/bookstore/internal/middleware/auth"
	"github.com/Skotchmaster/bookstore/internal/middleware/csrf"
	"github.com/Skotchmaster/bookstore/internal/render"
)

// view renders a page inside the layout. Flashes are popped last so messages
// added by the handler show up in this response.
func view(c echo.Context, code int, name, title string, data echo.Map) error {
	return c.Render(code, name, render.Page{
		Title:     title,
		User:      auth.CurrentUser(c),
		CSRFToken: csrf.Token(c),
		Query:     strings.TrimSpace(c.QueryParam("q")),
		Data:      data,
		Flashes:   flash.Pop(c),
	})
}

func redirectAfterPost(c echo.Context, to string) error {
	return c.Redirect(http.StatusSeeOther, to)
}

// pathID parses a positive integer route parameter; anything else is a 404.
func pathID(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusNotFound, "Page not found")
	}
	return uint(id), nil
}

// safeNext accepts only site-relative paths such as /cart?x=1.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return ""
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return ""
	}
	return u.RequestURI()
}

// sameSiteReferer returns the Referer as a local path when it points at this host.
func sameSiteReferer(c echo.Context) string {
	ref := c.Request().Referer()
	if ref == "" {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	if u.Host == "" {
		return safeNext(ref)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || !strings.EqualFold(u.Host, c.Request().Host) {
		return ""
	}
	return u.RequestURI()
}
