package httpserver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/akruglov/shopfront/internal/repo"
	"github.com/akruglov/shopfront/internal/util"
)

type ProductHTTP struct {
	Repo *repo.GormRepo
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

func (h *ProductHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()

	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	items, total, err := h.Repo.ListProducts(ctx, offset, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot list products")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"data": items,
		"meta": echo.Map{
			"page":        page,
			"size":        limit,
			"total":       total,
			"total_pages": (total + int64(limit) - 1) / int64(limit),
			"has_prev":    page > 1,
			"has_next":    int64(offset+limit) < total,
		},
	})
}

func (h *ProductHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.Atoi(c.Param("product_id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	product, err := h.Repo.GetProduct(ctx, uint(id))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "product not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load product")
	}
	return c.JSON(http.StatusOK, product)
}
