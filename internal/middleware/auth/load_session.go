package auth

import (
	"errors"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/bookstore/internal/logging"
	"github.com/Skotchmaster/bookstore/internal/session"
)

// LoadSession attaches the session's user to the context when the cookie is
// valid. Invalid cookies are cleared and the request continues anonymously.
func LoadSession(m *session.Manager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ck, err := c.Cookie(session.CookieName)
			if err != nil || ck.Value == "" {
				return next(c)
			}

			ctx := c.Request().Context()
			user, claims, err := m.Resolve(ctx, ck.Value)
			if err != nil {
				if !errors.Is(err, session.ErrInvalidSession) {
					return err
				}
				logging.FromContext(ctx).Info("session_rejected", "reason", err.Error())
				c.SetCookie(m.ClearCookie())
				return next(c)
			}

			setUserContext(c, user, claims.ID)
			l := logging.FromContext(ctx).With("user_id", user.ID)
			c.SetRequest(c.Request().WithContext(logging.IntoContext(ctx, l)))
			return next(c)
		}
	}
}
