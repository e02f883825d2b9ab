package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/akruglov/shopfront/internal/repo"
	"github.com/akruglov/shopfront/internal/service/auth"
	"github.com/akruglov/shopfront/internal/service/token"
)

type AuthHTTP struct {
	Svc    *auth.Service
	Tokens *token.Service
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()

	var req struct {
		Email    string `json:"email" form:"email"`
		Password string `json:"password" form:"password"`
		Name     string `json:"name" form:"name"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Email == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email and password are required")
	}

	user, err := h.Svc.Register(ctx, req.Email, req.Password, req.Name)
	if err != nil {
		if errors.Is(err, repo.ErrDuplicateAccount) {
			// An existing account keeps its session; the duplicate attempt
			// gets none.
			token.SetNotice(c, "You've already signed up with that email, log in instead!")
			return c.Redirect(http.StatusSeeOther, "/login")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "registration failed")
	}

	if err := h.Tokens.EstablishSession(ctx, c.SetCookie, user.ID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "registration failed")
	}
	return c.Redirect(http.StatusSeeOther, "/")
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()

	var req struct {
		Email    string `json:"email" form:"email"`
		Password string `json:"password" form:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	user, err := h.Svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, repo.ErrUnknownAccount):
			token.SetNotice(c, "That email does not exist, please try again.")
			return c.Redirect(http.StatusSeeOther, "/login")
		case errors.Is(err, repo.ErrBadCredentials):
			token.SetNotice(c, "Password incorrect, please try again.")
			return c.Redirect(http.StatusSeeOther, "/login")
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "login failed")
		}
	}

	if err := h.Tokens.EstablishSession(ctx, c.SetCookie, user.ID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "login failed")
	}
	return c.Redirect(http.StatusSeeOther, "/")
}

// LoginPage is the landing place for auth redirects. Rendering belongs to a
// frontend; this answers with the pending notice, if any. The notice is
// consumed on delivery so it shows exactly once.
func (h *AuthHTTP) LoginPage(c echo.Context) error {
	notice := ""
	if ck, err := c.Cookie(token.NoticeCookie); err == nil && ck.Value != "" {
		notice = ck.Value
		c.SetCookie(token.DeleteCookie(token.NoticeCookie, "/"))
	}
	return c.JSON(http.StatusOK, echo.Map{"notice": notice})
}

func (h *AuthHTTP) Logout(c echo.Context) error {
	ctx := c.Request().Context()

	if ck, err := c.Cookie(token.RefreshCookie); err == nil {
		if err := h.Svc.Logout(ctx, ck.Value); err != nil {
			c.Logger().Errorf("refresh revoke error: %v", err)
		}
	}

	c.SetCookie(token.DeleteCookie(token.AccessCookie, "/"))
	c.SetCookie(token.DeleteCookie(token.RefreshCookie, "/"))
	return c.Redirect(http.StatusSeeOther, "/")
}
