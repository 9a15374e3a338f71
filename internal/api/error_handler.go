package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/animalguardian/platform/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their HTTP status codes.
//   - Logs unexpected errors without leaking details to the client, unless
//     debug is set, in which case the cause is returned as "detail".
//   - Renders a consistent JSON envelope: {"error": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger, debug bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		resp := errorResponse{}
		code, msg := resolveError(err)
		resp.Error = msg
		if code == http.StatusInternalServerError {
			log.Error().
				Err(err).
				Str("method", c.Request().Method).
				Str("path", c.Path()).
				Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
				Msg("unhandled error")
			if debug {
				resp.Detail = err.Error()
			}
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, resp)
	}
}

func resolveError(err error) (int, string) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var be *echo.BindingError
	if errors.As(err, &be) {
		return http.StatusBadRequest, fmt.Sprintf("invalid %s: %v", be.Field, be.Message)
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	switch {
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrVetUnavailable),
		errors.Is(err, domain.ErrNotLocalVet):
		return http.StatusBadRequest, err.Error()

	case errors.Is(err, domain.ErrCaseNotFound),
		errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrVetProfileNotFound),
		errors.Is(err, domain.ErrLivestockNotFound),
		errors.Is(err, domain.ErrNotificationNotFound):
		return http.StatusNotFound, err.Error()

	case errors.Is(err, domain.ErrForbidden),
		errors.Is(err, domain.ErrAccountPendingApproval),
		errors.Is(err, domain.ErrAccountInactive):
		return http.StatusForbidden, err.Error()

	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid credentials"

	case errors.Is(err, domain.ErrUserExists),
		errors.Is(err, domain.ErrDuplicateKey):
		return http.StatusConflict, err.Error()
	}

	return http.StatusInternalServerError, "internal server error"
}
