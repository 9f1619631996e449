package flash

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

const (
	Success = "success"
	Danger  = "danger"
	Info    = "info"
	Warning = "warning"

	CookieName = "flash"
	ctxKey     = "flash.pending"
	secureKey  = "flash.secure"
)

// Middleware sets the Secure attribute for every flash cookie written during the request.
func Middleware(secureCookies bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(secureKey, secureCookies)
			return next(c)
		}
	}
}

func secure(c echo.Context) bool {
	s, _ := c.Get(secureKey).(bool)
	return s
}

type Message struct {
	Category string `json:"category"`
	Text     string `json:"text"`
}

// Add queues a message for the next page rendered for this client, whether it
// is rendered in this response or after a redirect.
func Add(c echo.Context, category, text string) {
	msgs := append(pending(c), Message{Category: category, Text: text})
	c.Set(ctxKey, msgs)
	write(c, msgs)
}

// Pop returns the queued messages and forgets them.
func Pop(c echo.Context) []Message {
	msgs := pending(c)
	c.Set(ctxKey, []Message{})
	if len(msgs) > 0 || hasCookie(c) {
		c.SetCookie(&http.Cookie{
			Name:     CookieName,
			Value:    "",
			Path:     "/",
			Expires:  time.Unix(0, 0),
			MaxAge:   -1,
			Secure:   secure(c),
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return msgs
}

func pending(c echo.Context) []Message {
	if v, ok := c.Get(ctxKey).([]Message); ok {
		return v
	}
	return read(c)
}

func hasCookie(c echo.Context) bool {
	ck, err := c.Cookie(CookieName)
	return err == nil && ck.Value != ""
}

func read(c echo.Context) []Message {
	ck, err := c.Cookie(CookieName)
	if err != nil || ck.Value == "" {
		return nil
	}
	data, err := base64.RawURLEncoding.DecodeString(ck.Value)
	if err != nil {
		return nil
	}
	var msgs []Message
	if err := json.Unmarshal(data, &msgs); err != nil {
		return nil
	}
	return msgs
}

func write(c echo.Context, msgs []Message) {
	data, err := json.Marshal(msgs)
	if err != nil {
		return
	}
	c.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    base64.RawURLEncoding.EncodeToString(data),
		Path:     "/",
		Secure:   secure(c),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
