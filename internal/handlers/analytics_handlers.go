package handlers

import (
	"net/http"
	"strconv"

	"printforge/internal/analytics"

	"github.com/labstack/echo/v4"
)

// AnalyticsHandlers exposes the read-only reporting surface.
type AnalyticsHandlers struct {
	analyticsSvc *analytics.Service
}

func NewAnalyticsHandlers(analyticsSvc *analytics.Service) *AnalyticsHandlers {
	return &AnalyticsHandlers{analyticsSvc: analyticsSvc}
}

func dayWindowParam(c echo.Context) int {
	if daysParam := c.QueryParam("days"); daysParam != "" {
		if d, err := strconv.Atoi(daysParam); err == nil {
			return analytics.ClampDayWindow(d)
		}
	}
	return analytics.DefaultDayWindow
}

// GetSummaryStats handles GET /analytics/summary
func (h *AnalyticsHandlers) GetSummaryStats(c echo.Context) error {
	stats, err := h.analyticsSvc.SummaryStats(c.Request().Context())
	if err != nil {
		return mapDomainError(c, err)
	}
	return c.JSON(http.StatusOK, stats)
}

// GetRevenueSeries handles GET /analytics/revenue
func (h *AnalyticsHandlers) GetRevenueSeries(c echo.Context) error {
	series, err := h.analyticsSvc.DailySeries(c.Request().Context(), analytics.SourceSubscriptionStarts, dayWindowParam(c))
	if err != nil {
		return mapDomainError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"series": series})
}

// GetPaymentSeries handles GET /analytics/payments
func (h *AnalyticsHandlers) GetPaymentSeries(c echo.Context) error {
	series, err := h.analyticsSvc.DailySeries(c.Request().Context(), analytics.SourcePayments, dayWindowParam(c))
	if err != nil {
		return mapDomainError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"series": series})
}

// GetActiveTrend handles GET /analytics/active-trend
func (h *AnalyticsHandlers) GetActiveTrend(c echo.Context) error {
	trend, err := h.analyticsSvc.ActiveSubscriptionsTrend(c.Request().Context(), dayWindowParam(c))
	if err != nil {
		return mapDomainError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"trend": trend})
}

// GetChurnTrend handles GET /analytics/churn
func (h *AnalyticsHandlers) GetChurnTrend(c echo.Context) error {
	trend, err := h.analyticsSvc.ChurnTrend(c.Request().Context(), dayWindowParam(c))
	if err != nil {
		return mapDomainError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"trend": trend})
}
