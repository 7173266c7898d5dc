package handlers

import (
	"net/http"
	"strconv"

	"printforge/internal/common"
	"printforge/internal/services"

	"github.com/labstack/echo/v4"
)

// SubscriptionHandlers handles HTTP requests for subscription lifecycle
// operations and the flat subscription projection.
type SubscriptionHandlers struct {
	subscriptionService services.SubscriptionService
}

func NewSubscriptionHandlers(subscriptionService services.SubscriptionService) *SubscriptionHandlers {
	return &SubscriptionHandlers{subscriptionService: subscriptionService}
}

// CreateSubscription handles POST /subscriptions
func (h *SubscriptionHandlers) CreateSubscription(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := common.RequireUserID(c)
	if err != nil {
		return err
	}

	var req struct {
		PlanID    string `json:"plan_id"`
		StartDate string `json:"start_date"`
		AutoRenew *bool  `json:"auto_renew"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if req.PlanID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Plan ID is required")
	}

	startDate, err := common.ParseDateParam(req.StartDate, "start_date")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	autoRenew := true
	if req.AutoRenew != nil {
		autoRenew = *req.AutoRenew
	}

	subscription, err := h.subscriptionService.Create(ctx, userID, req.PlanID, startDate, autoRenew)
	if err != nil {
		return mapDomainError(c, err)
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"message":      "Subscription created successfully",
		"subscription": subscription,
	})
}

// ListSubscriptions handles GET /subscriptions
func (h *SubscriptionHandlers) ListSubscriptions(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := common.RequireUserID(c)
	if err != nil {
		return err
	}

	limit := 50
	offset := 0
	if limitParam := c.QueryParam("limit"); limitParam != "" {
		if l, err := strconv.Atoi(limitParam); err == nil && l > 0 {
			limit = l
		}
	}
	if offsetParam := c.QueryParam("offset"); offsetParam != "" {
		if o, err := strconv.Atoi(offsetParam); err == nil && o >= 0 {
			offset = o
		}
	}

	subscriptions, err := h.subscriptionService.List(ctx, userID, limit, offset)
	if err != nil {
		return mapDomainError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"subscriptions": subscriptions,
		"limit":         limit,
		"offset":        offset,
	})
}

// GetSubscriptionByID handles GET /subscriptions/:id
func (h *SubscriptionHandlers) GetSubscriptionByID(c echo.Context) error {
	ctx := c.Request().Context()

	subscriptionID, err := common.ValidateUUID(c.Param("id"), "subscription id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	subscription, err := h.subscriptionService.GetByID(ctx, subscriptionID)
	if err != nil {
		return mapDomainError(c, err)
	}

	return c.JSON(http.StatusOK, subscription)
}

// CancelSubscription handles DELETE /subscriptions/:id/cancel
func (h *SubscriptionHandlers) CancelSubscription(c echo.Context) error {
	ctx := c.Request().Context()

	subscriptionID, err := common.ValidateUUID(c.Param("id"), "subscription id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	userID, err := common.RequireUserID(c)
	if err != nil {
		return err
	}

	if err := h.subscriptionService.Cancel(ctx, subscriptionID, userID); err != nil {
		return mapDomainError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]string{
		"message": "Subscription cancelled successfully",
	})
}
