package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/bookstore/internal/flash"
	"github.com/Skotchmaster/bookstore/internal/logging"
	"github.com/Skotchmaster/bookstore/internal/middleware/auth"
	"github.com/Skotchmaster/bookstore/internal/service"
	"github.com/Skotchmaster/bookstore/internal/session"
)

type AuthHTTP struct {
	Svc      *service.AuthService
	Sessions *session.Manager
}

func nextParam(c echo.Context) string {
	if n := c.QueryParam("next"); n != "" {
		return n
	}
	return c.FormValue("next")
}

func (h *AuthHTTP) LoginForm(c echo.Context) error {
	if auth.CurrentUser(c) != nil {
		return c.Redirect(http.StatusFound, "/")
	}
	return view(c, http.StatusOK, "login", "Login", echo.Map{"Next": safeNext(nextParam(c)), "Username": ""})
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	if auth.CurrentUser(c) != nil {
		return redirectAfterPost(c, "/")
	}

	username := c.FormValue("username")
	next := safeNext(nextParam(c))

	user, err := h.Svc.Login(ctx, username, c.FormValue("password"))
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			flash.Add(c, flash.Danger, "Invalid username or password")
			return view(c, http.StatusOK, "login", "Login", echo.Map{"Next": next, "Username": username})
		}
		l.Error("login_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	ck, err := h.Sessions.Start(ctx, user.ID)
	if err != nil {
		l.Error("login_error", "status", 500, "reason", "cannot start session", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	c.SetCookie(ck)

	l.Info("user logged in", "user_id", user.ID)
	flash.Add(c, flash.Success, "Logged in successfully!")
	if next == "" {
		next = "/"
	}
	return redirectAfterPost(c, next)
}

func (h *AuthHTTP) RegisterForm(c echo.Context) error {
	if auth.CurrentUser(c) != nil {
		return c.Redirect(http.StatusFound, "/")
	}
	return view(c, http.StatusOK, "register", "Register", echo.Map{"Username": "", "Email": ""})
}

func registerMessage(err error) (string, bool) {
	switch {
	case errors.Is(err, service.ErrMissingFields):
		return "All fields are required", true
	case errors.Is(err, service.ErrPasswordMismatch):
		return "Passwords do not match", true
	case errors.Is(err, service.ErrUsernameTaken):
		return "Username already exists", true
	case errors.Is(err, service.ErrEmailTaken):
		return "Email already registered", true
	case errors.Is(err, service.ErrPasswordTooLong):
		return "Password is too long", true
	}
	return "", false
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.register")

	if auth.CurrentUser(c) != nil {
		return redirectAfterPost(c, "/")
	}

	in := service.RegisterInput{
		Username:        c.FormValue("username"),
		Email:           c.FormValue("email"),
		Password:        c.FormValue("password"),
		ConfirmPassword: c.FormValue("confirm_password"),
	}
	user, err := h.Svc.Register(ctx, in)
	if err != nil {
		if msg, ok := registerMessage(err); ok {
			l.Warn("register_rejected", "status", 200, "reason", msg)
			flash.Add(c, flash.Danger, msg)
			return view(c, http.StatusOK, "register", "Register", echo.Map{"Username": in.Username, "Email": in.Email})
		}
		l.Error("register_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	l.Info("user registered", "user_id", user.ID)
	flash.Add(c, flash.Success, "Registration successful! Please login.")
	return redirectAfterPost(c, "/login")
}

func (h *AuthHTTP) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.logout")

	user := auth.CurrentUser(c)
	if err := h.Sessions.End(ctx, auth.SessionID(c)); err != nil {
		l.Error("logout_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	c.SetCookie(h.Sessions.ClearCookie())
	h.Svc.LoggedOut(ctx, user.ID)

	flash.Add(c, flash.Info, "Logged out successfully")
	return redirectAfterPost(c, "/")
}
