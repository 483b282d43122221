package apicontrollers

import (
	"net/http"

	"github.com/drujensen/datamodels/internal/domain/errs"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch err.(type) {
	case *errors.ValidationError:
		return http.StatusBadRequest
	case *errors.RejectedError:
		return http.StatusUnprocessableEntity
	case *errors.NotFoundError:
		return http.StatusNotFound
	case *errors.DuplicateError:
		return http.StatusConflict
	case *errors.CanceledError:
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

// handleError handles errors and returns them in a consistent format
func handleError(ctx echo.Context, logger *zap.Logger, err error) error {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed", zap.String("path", ctx.Path()), zap.Error(err))
	} else {
		logger.Debug("Request rejected", zap.String("path", ctx.Path()), zap.Int("status", status), zap.Error(err))
	}

	if rejected, ok := err.(*errors.RejectedError); ok {
		return ctx.JSON(status, map[string]any{
			"title":   rejected.Title,
			"message": rejected.Message,
		})
	}
	return ctx.JSON(status, map[string]any{
		"error": err.Error(),
	})
}
