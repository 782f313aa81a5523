package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/carelink/healthcare-api/internal/core/ports"
)

type paginationMeta struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"total_pages"`
}

// listResponse is the envelope of every list endpoint.
type listResponse[T any] struct {
	Data       []T            `json:"data"`
	Pagination paginationMeta `json:"pagination"`
}

func newListResponse[T any](r *ports.ListResult[T]) listResponse[T] {
	return listResponse[T]{
		Data: r.Items,
		Pagination: paginationMeta{
			Total:      r.Total,
			Page:       r.Page,
			Limit:      r.Limit,
			TotalPages: r.TotalPages,
		},
	}
}

// pageFromQuery reads ?page= and ?limit=. Missing values fall back to the
// defaults; non-numeric values are a 400.
func pageFromQuery(c echo.Context) (ports.Page, error) {
	var p ports.Page
	err := echo.QueryParamsBinder(c).
		Int("page", &p.Page).
		Int("limit", &p.Limit).
		BindError()
	if err != nil {
		return ports.Page{}, echo.NewHTTPError(http.StatusBadRequest, "page and limit must be integers")
	}
	return p.Normalize(), nil
}
