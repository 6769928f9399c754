package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jamongadejoa28/sassmall-sub003/internal/transport/api/middlewares"
)

type OrdersHandler struct {
	orderSvs OrderServicer
}

func NewOrdersHandler(orderSvs OrderServicer) *OrdersHandler {
	return &OrdersHandler{
		orderSvs: orderSvs,
	}
}

// Create POST RouteGroup + OrdersRoute.
func (o *OrdersHandler) Create(c *gin.Context) {
	var params CreateOrderParams
	if bindErr := c.ShouldBindJSON(&params); bindErr != nil {
		abortWithBindError(c, bindErr)
		return
	}

	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	order, err := o.orderSvs.CreateOrder(reqCtx, middlewares.CurrentActor(c), params.toArgs())
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newOrderResponse(order))
}

// Validate POST RouteGroup + ValidateOrderRoute. Проверка заказа и расчет сумм без сохранения.
func (o *OrdersHandler) Validate(c *gin.Context) {
	var params CreateOrderParams
	if bindErr := c.ShouldBindJSON(&params); bindErr != nil {
		abortWithBindError(c, bindErr)
		return
	}

	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	order, err := o.orderSvs.ValidateOrder(reqCtx, middlewares.CurrentActor(c), params.toArgs())
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, newOrderResponse(order))
}

// Index GET RouteGroup + OrdersRoute.
func (o *OrdersHandler) Index(c *gin.Context) {
	var params ListOrdersParams
	if bindErr := c.ShouldBindQuery(&params); bindErr != nil {
		abortWithBindError(c, bindErr)
		return
	}

	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	actor := middlewares.CurrentActor(c)
	summaries, err := o.orderSvs.ListOwnOrders(reqCtx, actor.UserID, params.Status, params.Limit, params.Offset)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	if len(summaries) == 0 {
		c.AbortWithStatus(http.StatusNoContent)
		return
	}

	response := make([]OrderSummaryResponse, len(summaries))
	for i := range summaries {
		response[i] = newOrderSummaryResponse(&summaries[i])
	}
	c.JSON(http.StatusOK, response)
}

// Show GET RouteGroup + OrderRoute.
func (o *OrdersHandler) Show(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	order, err := o.orderSvs.GetOrder(reqCtx, middlewares.CurrentActor(c), id)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, newOrderResponse(order))
}

// Summary GET RouteGroup + OrderSummaryRoute.
func (o *OrdersHandler) Summary(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	summary, err := o.orderSvs.GetOrderSummary(reqCtx, middlewares.CurrentActor(c), id)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, newOrderSummaryResponse(summary))
}

// Cancel POST RouteGroup + CancelOrderRoute и RouteGroup + AdminCancelOrderRoute. Оплаченный заказ
// отменяется с возвратом денег, если это разрешено роли пользователя.
func (o *OrdersHandler) Cancel(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var params ReasonParams
	if bindErr := bindOptionalJSON(c, &params); bindErr != nil {
		abortWithBindError(c, bindErr)
		return
	}

	reqCtx, cancel := context.WithTimeout(c, SagaServiceTimeout)
	defer cancel()

	order, err := o.orderSvs.CancelOrder(reqCtx, middlewares.CurrentActor(c), id, params.Reason)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, newOrderResponse(order))
}
