package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jamongadejoa28/sassmall-sub003/internal/domain"
	"github.com/jamongadejoa28/sassmall-sub003/internal/service"
	"github.com/jamongadejoa28/sassmall-sub003/internal/transport/api/middlewares"
)

type PaymentsHandler struct {
	paymentSvs PaymentServicer
}

func NewPaymentsHandler(paymentSvs PaymentServicer) *PaymentsHandler {
	return &PaymentsHandler{
		paymentSvs: paymentSvs,
	}
}

// Request POST RouteGroup + PaymentRequestRoute. Открывает платежную сессию для созданного заказа.
func (h *PaymentsHandler) Request(c *gin.Context) {
	var params RequestPaymentParams
	if bindErr := c.ShouldBindJSON(&params); bindErr != nil {
		abortWithBindError(c, bindErr)
		return
	}

	reqCtx, cancel := context.WithTimeout(c, PaymentServiceTimeout)
	defer cancel()

	redirect, err := h.paymentSvs.RequestPayment(reqCtx, middlewares.CurrentActor(c), params.OrderID)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, newPaymentRedirectResponse(redirect))
}

// Checkout POST RouteGroup + PaymentCheckoutRoute. Открывает платежную сессию по корзине, заказ будет создан
// после подтверждения оплаты.
func (h *PaymentsHandler) Checkout(c *gin.Context) {
	var params CreateOrderParams
	if bindErr := c.ShouldBindJSON(&params); bindErr != nil {
		abortWithBindError(c, bindErr)
		return
	}

	reqCtx, cancel := context.WithTimeout(c, PaymentServiceTimeout)
	defer cancel()

	redirect, err := h.paymentSvs.RequestCheckoutPayment(reqCtx, middlewares.CurrentActor(c), params.toArgs())
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, newPaymentRedirectResponse(redirect))
}

// Approve POST RouteGroup + PaymentApproveRoute. Повторный вызов с тем же paymentKey возвращает тот же результат.
func (h *PaymentsHandler) Approve(c *gin.Context) {
	var params ApprovePaymentParams
	if bindErr := c.ShouldBindJSON(&params); bindErr != nil {
		abortWithBindError(c, bindErr)
		return
	}
	if !params.Amount.IsPositive() {
		abortWithServiceError(c, domain.NewValidationError("amount", "must be positive"))
		return
	}

	reqCtx, cancel := context.WithTimeout(c, PaymentServiceTimeout)
	defer cancel()

	result, err := h.paymentSvs.ApprovePayment(reqCtx, middlewares.CurrentActor(c), service.ApprovePaymentArgs{
		PaymentKey:  params.PaymentKey,
		OrderNumber: params.OrderNumber,
		Amount:      params.Amount,
	})
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ApprovalResponse{
		PaymentID:   result.PaymentID,
		PaymentKey:  result.PaymentKey,
		OrderID:     result.OrderID,
		OrderNumber: result.OrderNumber,
		Amount:      result.Amount,
		Status:      result.Status,
		ApprovedAt:  result.ApprovedAt,
	})
}

func newPaymentRedirectResponse(r *service.PaymentRedirectResult) PaymentRedirectResponse {
	return PaymentRedirectResponse{
		PaymentID:   r.PaymentID,
		PaymentKey:  r.PaymentKey,
		OrderNumber: r.OrderNumber,
		Amount:      r.Amount,
		RedirectURL: r.RedirectURL,
	}
}
