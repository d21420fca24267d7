package httpserver

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/electro_shop/internal/logging"
	"github.com/Skotchmaster/electro_shop/pkg/apperr"
)

type errorBody struct {
	Error string `json:"error"`
}

// ErrorHandler renders every error as {"error": message}. Statuses come from the
// apperr taxonomy; anything unclassified is logged and hidden behind a generic 500.
func ErrorHandler(base *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, msg := resolve(err)
		if status >= http.StatusInternalServerError {
			logging.FromContext(c.Request().Context()).Error("request_failed", "status", status, "path", c.Path(), "error", err)
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(status)
		} else {
			werr = c.JSON(status, errorBody{Error: msg})
		}
		if werr != nil {
			base.Error("write_error_response", "error", werr)
		}
	}
}

func resolve(err error) (int, string) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if he.Internal != nil {
			if status, msg := apperr.Status(he.Internal); status != http.StatusInternalServerError {
				return status, msg
			}
		}
		if m, ok := he.Message.(string); ok {
			return he.Code, m
		}
		return he.Code, fmt.Sprint(he.Message)
	}
	return apperr.Status(err)
}

var errBadBody = fmt.Errorf("%w: invalid body", apperr.ErrValidation)
