package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/animalguardian/platform/internal/api/middleware"
	"github.com/animalguardian/platform/internal/core/domain"
)

// actorFrom returns the caller stored by the Auth middleware; its absence
// means the route was mounted without it.
func actorFrom(c echo.Context) (domain.Actor, error) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return domain.Actor{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return actor, nil
}

// pathID parses a positive numeric path parameter.
func pathID(c echo.Context, name string) (uint, error) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || v == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return uint(v), nil
}

// bindAndValidate binds the request body into req and runs the validator.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

// pagination reads ?page= and ?limit=; the services apply the defaults.
func pagination(c echo.Context) (page, limit int, err error) {
	err = echo.QueryParamsBinder(c).
		Int("page", &page).
		Int("limit", &limit).
		BindError()
	return page, limit, err
}
