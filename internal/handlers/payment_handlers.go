package handlers

import (
	"net/http"
	"strconv"

	"printforge/internal/common"
	"printforge/internal/services"

	"github.com/labstack/echo/v4"
)

// PaymentHandlers handles HTTP requests for the payment ledger.
type PaymentHandlers struct {
	paymentService services.PaymentService
}

func NewPaymentHandlers(paymentService services.PaymentService) *PaymentHandlers {
	return &PaymentHandlers{paymentService: paymentService}
}

// RecordPayment handles POST /payments
func (h *PaymentHandlers) RecordPayment(c echo.Context) error {
	ctx := c.Request().Context()

	var req struct {
		SubscriptionID string  `json:"subscription_id"`
		Amount         float64 `json:"amount"`
		PaymentDate    string  `json:"payment_date"`
		PaymentMethod  string  `json:"payment_method"`
		TransactionID  string  `json:"transaction_id"`
		Status         string  `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	subscriptionID, err := common.ValidateUUID(req.SubscriptionID, "subscription_id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	paymentDate, err := common.ParseDateParam(req.PaymentDate, "payment_date")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	payment, err := h.paymentService.Record(ctx, &services.RecordPaymentRequest{
		SubscriptionID: subscriptionID,
		Amount:         req.Amount,
		PaymentDate:    paymentDate,
		PaymentMethod:  req.PaymentMethod,
		TransactionID:  req.TransactionID,
		Status:         req.Status,
	})
	if err != nil {
		return mapDomainError(c, err)
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"message": "Payment recorded successfully",
		"payment": payment,
	})
}

// ListPayments handles GET /payments
func (h *PaymentHandlers) ListPayments(c echo.Context) error {
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

	payments, err := h.paymentService.List(ctx, userID, limit, offset)
	if err != nil {
		return mapDomainError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"payments": payments,
		"limit":    limit,
		"offset":   offset,
	})
}

// RefundPayment handles POST /payments/:id/refund
func (h *PaymentHandlers) RefundPayment(c echo.Context) error {
	ctx := c.Request().Context()

	paymentID, err := common.ValidateUUID(c.Param("id"), "payment id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	userID, err := common.RequireUserID(c)
	if err != nil {
		return err
	}

	var req struct {
		Reason string `json:"reason"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := h.paymentService.Refund(ctx, paymentID, userID, req.Reason); err != nil {
		return mapDomainError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]string{
		"message": "Payment refunded successfully",
	})
}
