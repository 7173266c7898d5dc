package handlers

import (
	"errors"
	"net/http"

	"printforge/internal/common"

	"github.com/labstack/echo/v4"
)

// mapDomainError translates the domain error taxonomy into HTTP
// responses with stable machine-readable codes.
func mapDomainError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, common.ErrNotFound):
		return c.JSON(http.StatusNotFound, common.CreateErrorResponse("NOT_FOUND", err.Error(), nil))
	case errors.Is(err, common.ErrInvalidPlan):
		return c.JSON(http.StatusBadRequest, common.CreateErrorResponse("INVALID_PLAN", err.Error(), nil))
	case errors.Is(err, common.ErrInvalidUser):
		return c.JSON(http.StatusBadRequest, common.CreateErrorResponse("INVALID_USER", err.Error(), nil))
	case errors.Is(err, common.ErrForbidden):
		return c.JSON(http.StatusForbidden, common.CreateErrorResponse("FORBIDDEN", err.Error(), nil))
	case errors.Is(err, common.ErrInvalidState):
		return c.JSON(http.StatusConflict, common.CreateErrorResponse("INVALID_STATE", err.Error(), nil))
	case errors.Is(err, common.ErrConflict):
		return c.JSON(http.StatusConflict, common.CreateErrorResponse("CONFLICT", err.Error(), nil))
	case errors.Is(err, common.ErrPersistence):
		return c.JSON(http.StatusInternalServerError, common.CreateErrorResponse("SERVER_ERROR", "operation could not be completed", nil))
	default:
		return c.JSON(http.StatusBadRequest, common.CreateErrorResponse("VALIDATION_ERROR", err.Error(), nil))
	}
}
