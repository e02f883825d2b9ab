package httpserver

import (
	"github.com/labstack/echo/v4"

	"github.com/akruglov/shopfront/internal/service/token"
)

type Deps struct {
	Auth     *AuthHTTP
	Products *ProductHTTP
	Cart     *CartHTTP
	Checkout *CheckoutHTTP
	Search   *SearchHTTP
	Tokens   *token.Service
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })

	e.GET("/register", d.Auth.LoginPage)
	e.POST("/register", d.Auth.Register)
	e.GET("/login", d.Auth.LoginPage)
	e.POST("/login", d.Auth.Login)
	e.GET("/logout", d.Auth.Logout)

	e.GET("/", d.Products.List)
	e.GET("/post/:product_id", d.Products.Get)

	if d.Search != nil {
		e.GET("/search", d.Search.Search)
	}

	gated := e.Group("", d.Tokens.RequireLogin)
	gated.GET("/cart", d.Cart.Show)
	gated.GET("/cart/:product_id", d.Cart.Add)
	gated.POST("/cart/:product_id", d.Cart.Add)
	gated.GET("/remove_from_cart/:product_id", d.Cart.Remove)
	gated.GET("/checkout", d.Checkout.Start)
	gated.GET("/success", d.Checkout.Success)
	gated.GET("/orders", d.Checkout.Orders)
}
