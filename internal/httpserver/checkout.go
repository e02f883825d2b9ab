package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/akruglov/shopfront/internal/logging"
	"github.com/akruglov/shopfront/internal/repo"
	"github.com/akruglov/shopfront/internal/service/cart"
	"github.com/akruglov/shopfront/internal/service/checkout"
	"github.com/akruglov/shopfront/internal/service/token"
)

type CheckoutHTTP struct {
	Bridge  *checkout.Bridge
	CartSvc *cart.Service
	Repo    *repo.GormRepo
}

// Start hands the cart off to the payment processor and redirects the client
// to the hosted session. Processor failures are logged with their cause and
// answered with a generic message.
func (h *CheckoutHTTP) Start(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout_start")

	userID, err := token.CurrentUserID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	sessionURL, err := h.Bridge.SessionURL(ctx, userID)
	if err != nil {
		if errors.Is(err, checkout.ErrEmptyCart) {
			token.SetNotice(c, "Your cart is empty.")
			return c.Redirect(http.StatusSeeOther, "/cart")
		}
		l.Error("checkout session failed", "userID", userID, "error", err)
		return echo.NewHTTPError(http.StatusBadGateway, "payment is temporarily unavailable, please try again")
	}

	return c.Redirect(http.StatusSeeOther, sessionURL)
}

// Success is the processor's return target. The paid-for lines become an
// order and leave the cart; revisiting the page changes nothing.
func (h *CheckoutHTTP) Success(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout_success")

	userID, err := token.CurrentUserID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	result, err := h.CartSvc.CompleteOrder(ctx, userID)
	if err != nil {
		l.Error("order completion failed", "userID", userID, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot record order")
	}

	if result == nil {
		return c.JSON(http.StatusOK, echo.Map{"message": "payment confirmed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message": "payment confirmed",
		"order":   result.Order,
		"items":   result.Items,
	})
}

func (h *CheckoutHTTP) Orders(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := token.CurrentUserID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	orders, err := h.Repo.OrdersForUser(ctx, userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load orders")
	}
	return c.JSON(http.StatusOK, orders)
}
