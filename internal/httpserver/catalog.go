package httpserver

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/bookstore/internal/logging"
	"github.com/Skotchmaster/bookstore/internal/render"
	"github.com/Skotchmaster/bookstore/internal/service"
	"github.com/Skotchmaster/bookstore/internal/util"
)

type CatalogHTTP struct {
	Svc *service.CatalogService
}

func (h *CatalogHTTP) Index(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.index")

	books, err := h.Svc.Featured(ctx)
	if err != nil {
		l.Error("featured_books_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return view(c, http.StatusOK, "index", "", echo.Map{"Books": books})
}

func (h *CatalogHTTP) Catalogue(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.catalogue")

	page, err := h.Svc.Page(ctx, util.ParsePage(c.QueryParam("page")))
	if err != nil {
		l.Error("catalogue_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return view(c, http.StatusOK, "catalogue", "Catalogue", echo.Map{
		"Books": page.Books,
		"Pager": render.Pager{Pagination: page.Pagination},
	})
}

func (h *CatalogHTTP) Book(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.book")

	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	book, err := h.Svc.Book(ctx, id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Book not found")
		}
		l.Error("get_book_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return view(c, http.StatusOK, "book_detail", book.Title, echo.Map{"Book": book})
}

func (h *CatalogHTTP) Search(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.search")

	q := strings.TrimSpace(c.QueryParam("q"))
	if q == "" {
		return c.Redirect(http.StatusFound, "/catalogue")
	}

	res, err := h.Svc.SearchBooks(ctx, q, util.ParsePage(c.QueryParam("page")))
	if err != nil {
		l.Error("search_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return view(c, http.StatusOK, "search", "Search", echo.Map{
		"Books": res.Books,
		"Pager": render.Pager{Pagination: res.Pagination, Query: q},
	})
}
