package httpserver

import (
	"net/http"
	"strconv"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"

	"github.com/akruglov/shopfront/internal/service/search"
	"github.com/akruglov/shopfront/internal/util"
)

type SearchHTTP struct {
	ES    *elasticsearch.Client
	Index string
}

func (h *SearchHTTP) Search(c echo.Context) error {
	q := c.QueryParam("q")
	if q == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query is required")
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("size"))
	from, size := util.Calculate(page, size)

	ctx := c.Request().Context()

	total, products, err := search.Search(ctx, h.ES, h.Index, q, from, size)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "search failed")
	}
	return c.JSON(http.StatusOK, echo.Map{"total": total, "products": products})
}
