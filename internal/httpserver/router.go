package httpserver

import (
	"log/slog"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/bookstore/internal/flash"
	"github.com/Skotchmaster/bookstore/internal/metrics"
	"github.com/Skotchmaster/bookstore/internal/middleware/auth"
	"github.com/Skotchmaster/bookstore/internal/middleware/csrf"
	loggingmw "github.com/Skotchmaster/bookstore/internal/middleware/logging"
	"github.com/Skotchmaster/bookstore/internal/render"
	"github.com/Skotchmaster/bookstore/internal/session"
)

type Deps struct {
	AuthHandler     *AuthHTTP
	CatalogHandler  *CatalogHTTP
	CartHandler     *CartHTTP
	CheckoutHandler *CheckoutHTTP
	HealthHandler   *HealthHTTP

	Sessions     *session.Manager
	Metrics      *metrics.Metrics
	Logger       *slog.Logger
	CookieSecure bool
}

// New builds the echo instance with the full middleware chain and every route.
func New(d *Deps) (*echo.Echo, error) {
	renderer, err := render.New()
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = renderer
	e.HTTPErrorHandler = ErrorHandler

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(
		middleware.Recover(),
		middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}),
		loggingmw.RequestLogger(d.Logger),
		d.Metrics.Middleware(),
		flash.Middleware(d.CookieSecure),
		csrf.Middleware(csrf.Config{
			Secure:    d.CookieSecure,
			SkipPaths: []string{"/health", "/ready", "/metrics"},
		}),
		auth.LoadSession(d.Sessions),
	)

	Register(e, d)
	return e, nil
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health", d.HealthHandler.Live)
	e.GET("/ready", d.HealthHandler.Ready)
	e.GET("/metrics", echo.WrapHandler(d.Metrics.Handler()))
	e.StaticFS("/static", render.Static())

	e.GET("/", d.CatalogHandler.Index)
	e.GET("/catalogue", d.CatalogHandler.Catalogue)
	e.GET("/search", d.CatalogHandler.Search)
	e.GET("/book/:id", d.CatalogHandler.Book)

	e.GET("/login", d.AuthHandler.LoginForm)
	e.POST("/login", d.AuthHandler.Login)
	e.GET("/register", d.AuthHandler.RegisterForm)
	e.POST("/register", d.AuthHandler.Register)
	e.GET("/logout", d.AuthHandler.Logout, auth.RequireLogin)
	e.POST("/logout", d.AuthHandler.Logout, auth.RequireLogin)

	cart := e.Group("/cart", auth.RequireLogin)
	cart.GET("", d.CartHandler.GetCart)
	cart.POST("/add/:bookId", d.CartHandler.AddToCart)
	cart.POST("/remove/:itemId", d.CartHandler.RemoveFromCart)
	cart.POST("/update/:itemId", d.CartHandler.UpdateQuantity)

	checkout := e.Group("/checkout", auth.RequireLogin)
	checkout.GET("", d.CheckoutHandler.Checkout)
	checkout.POST("/complete", d.CheckoutHandler.Complete)
}
