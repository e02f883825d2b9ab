package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/akruglov/shopfront/internal/repo"
	"github.com/akruglov/shopfront/internal/service/cart"
	"github.com/akruglov/shopfront/internal/service/token"
)

type CartHTTP struct {
	Svc *cart.Service
}

func (h *CartHTTP) Show(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := token.CurrentUserID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	view, err := h.Svc.View(ctx, userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load cart")
	}
	return c.JSON(http.StatusOK, view)
}

func (h *CartHTTP) Add(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := token.CurrentUserID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	id, err := strconv.Atoi(c.Param("product_id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	line, err := h.Svc.Add(ctx, userID, uint(id))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "product not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot add to cart")
	}

	token.SetNotice(c, fmt.Sprintf("Product %d added to your cart.", line.ProductID))
	return c.Redirect(http.StatusSeeOther, "/cart")
}

func (h *CartHTTP) Remove(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := token.CurrentUserID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	id, err := strconv.Atoi(c.Param("product_id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	if err := h.Svc.Remove(ctx, userID, uint(id)); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot remove from cart")
	}
	return c.Redirect(http.StatusSeeOther, "/cart")
}
