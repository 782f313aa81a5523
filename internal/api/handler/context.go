package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/carelink/healthcare-api/internal/core/domain"
)

// ctxIdentity extracts the identity injected by the Auth middleware. A missing
// user_id means the middleware did not run, so the request is rejected before
// any service call.
func ctxIdentity(c echo.Context) (domain.Identity, error) {
	userID, _ := c.Get("user_id").(string)
	if userID == "" {
		return domain.Identity{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	username, _ := c.Get("username").(string)
	return domain.Identity{UserID: userID, Username: username}, nil
}

// bindAndValidate decodes the JSON body into req and runs its validate tags.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	return c.Validate(req)
}
