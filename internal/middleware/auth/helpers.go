package auth

import (
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/bookstore/internal/models"
)

const (
	userKey   = "user"
	userIDKey = "user_id"
	jtiKey    = "session_jti"
)

func setUserContext(c echo.Context, user *models.User, jti string) {
	c.Set(userKey, user)
	c.Set(userIDKey, user.ID)
	c.Set(jtiKey, jti)
}

// CurrentUser returns the user restored from the session cookie, or nil for anonymous requests.
func CurrentUser(c echo.Context) *models.User {
	u, _ := c.Get(userKey).(*models.User)
	return u
}

func SessionID(c echo.Context) string {
	s, _ := c.Get(jtiKey).(string)
	return s
}
