package token

import (
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const userIDKey = "userID"

// NoticeCookie carries the transient human-readable message shown after a
// redirect, the flash analog for a JSON client.
const NoticeCookie = "notice"

func SetNotice(c echo.Context, msg string) {
	c.SetCookie(&http.Cookie{
		Name:    NoticeCookie,
		Value:   msg,
		Path:    "/",
		Expires: time.Now().Add(time.Minute),
	})
}

// RequireLogin resolves the current user from the access cookie, rotating an
// expired access token through the refresh cookie when possible. Anonymous
// requests are redirected to /login with a notice and never reach the
// handler.
func (s *Service) RequireLogin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		if ck, err := c.Cookie(AccessCookie); err == nil && ck.Value != "" {
			userID, parseErr := s.ParseAccess(ck.Value)
			if parseErr == nil {
				c.Set(userIDKey, userID)
				return next(c)
			}
			if !errors.Is(parseErr, jwt.ErrTokenExpired) {
				return redirectToLogin(c)
			}
		}

		rck, err := c.Cookie(RefreshCookie)
		if err != nil || rck.Value == "" {
			return redirectToLogin(c)
		}

		userID, access, refresh, aExp, rExp, err := s.Rotate(ctx, rck.Value)
		if err != nil {
			return redirectToLogin(c)
		}

		c.SetCookie(CreateCookie(AccessCookie, access, "/", aExp))
		c.SetCookie(CreateCookie(RefreshCookie, refresh, "/", rExp))
		c.Set(userIDKey, userID)
		return next(c)
	}
}

func redirectToLogin(c echo.Context) error {
	SetNotice(c, "Please log in first.")
	return c.Redirect(http.StatusSeeOther, "/login")
}

// CurrentUserID reads the identity placed into the request by RequireLogin.
func CurrentUserID(c echo.Context) (uint, error) {
	id, ok := c.Get(userIDKey).(uint)
	if !ok {
		return 0, ErrAuthRequired
	}
	return id, nil
}
