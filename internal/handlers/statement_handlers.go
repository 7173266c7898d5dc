package handlers

import (
	"net/http"
	"time"

	"printforge/internal/common"
	"printforge/internal/models"
	"printforge/internal/services"

	"github.com/labstack/echo/v4"
)

// StatementHandlers triggers statement exports from the admin surface.
type StatementHandlers struct {
	statementSvc services.StatementService
}

func NewStatementHandlers(statementSvc services.StatementService) *StatementHandlers {
	return &StatementHandlers{statementSvc: statementSvc}
}

// ExportStatement handles POST /statements/export. Admin only: the
// statement covers the whole ledger, not a single owner's slice.
func (h *StatementHandlers) ExportStatement(c echo.Context) error {
	ctx := c.Request().Context()

	role, ok := common.GetRoleFromContext(ctx)
	if !ok || role != models.RoleAdmin {
		return c.JSON(http.StatusForbidden, common.CreateErrorResponse("FORBIDDEN", "statement export requires the admin role", nil))
	}

	objectName, err := h.statementSvc.Export(ctx)
	if err != nil {
		return mapDomainError(c, err)
	}

	url, err := h.statementSvc.DownloadURL(objectName, 15*time.Minute)
	if err != nil {
		return mapDomainError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]string{
		"message":      "Statement exported successfully",
		"object":       objectName,
		"download_url": url,
	})
}
