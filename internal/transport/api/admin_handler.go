package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jamongadejoa28/sassmall-sub003/internal/repository/repoargs"
	"github.com/jamongadejoa28/sassmall-sub003/internal/transport/api/middlewares"
)

// AdminHandler маршруты администратора. Доступ проверяет middlewares.AdminRequired, сервисный слой проверяет
// роль повторно.
type AdminHandler struct {
	orderSvs OrderServicer
}

func NewAdminHandler(orderSvs OrderServicer) *AdminHandler {
	return &AdminHandler{
		orderSvs: orderSvs,
	}
}

// UpdateStatus POST RouteGroup + AdminOrderStatusRoute.
func (h *AdminHandler) UpdateStatus(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var params UpdateStatusParams
	if bindErr := c.ShouldBindJSON(&params); bindErr != nil {
		abortWithBindError(c, bindErr)
		return
	}

	reqCtx, cancel := context.WithTimeout(c, SagaServiceTimeout)
	defer cancel()

	order, err := h.orderSvs.UpdateStatus(reqCtx, middlewares.CurrentActor(c), id, params.Status, params.Reason)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, newOrderResponse(order))
}

// BulkUpdateStatus POST RouteGroup + AdminBulkStatusRoute. Результат возвращается по каждому заказу.
func (h *AdminHandler) BulkUpdateStatus(c *gin.Context) {
	var params BulkUpdateStatusParams
	if bindErr := c.ShouldBindJSON(&params); bindErr != nil {
		abortWithBindError(c, bindErr)
		return
	}

	reqCtx, cancel := context.WithTimeout(c, BulkServiceTimeout)
	defer cancel()

	results, err := h.orderSvs.BulkUpdateStatus(reqCtx, middlewares.CurrentActor(c), params.OrderIDs,
		params.Status, params.Reason)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	response := make([]BulkStatusResponse, len(results))
	for i, result := range results {
		response[i] = BulkStatusResponse{OrderID: result.OrderID, Success: result.Err == nil}
		if result.Err != nil {
			// текст приватной ошибки заменяется описанием статуса.
			status, public := middlewares.DomainErrorStatus(result.Err)
			response[i].Error = http.StatusText(status)
			if public {
				response[i].Error = result.Err.Error()
			}
			continue
		}
		response[i].Status = result.Order.Status
	}
	c.JSON(http.StatusOK, response)
}

// Refund POST RouteGroup + AdminRefundOrderRoute.
func (h *AdminHandler) Refund(c *gin.Context) {
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

	order, err := h.orderSvs.RefundOrder(reqCtx, middlewares.CurrentActor(c), id, params.Reason)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, newOrderResponse(order))
}

// Search GET RouteGroup + AdminOrdersRoute.
func (h *AdminHandler) Search(c *gin.Context) {
	var params SearchOrdersParams
	if bindErr := c.ShouldBindQuery(&params); bindErr != nil {
		abortWithBindError(c, bindErr)
		return
	}

	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	orders, total, err := h.orderSvs.AdminSearch(reqCtx, middlewares.CurrentActor(c), repoargs.OrderSearch{
		Status:            params.Status,
		UserID:            params.UserID,
		OrderNumberPrefix: params.OrderNumberPrefix,
		From:              params.From,
		To:                params.To,
		Limit:             params.Limit,
		Offset:            params.Offset,
	})
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	response := SearchOrdersResponse{
		Orders: make([]OrderResponse, len(orders)),
		Total:  total,
	}
	for i := range orders {
		response.Orders[i] = newOrderResponse(&orders[i])
	}
	c.JSON(http.StatusOK, response)
}

// Statistics GET RouteGroup + AdminStatisticsRoute.
func (h *AdminHandler) Statistics(c *gin.Context) {
	var params StatisticsParams
	if bindErr := c.ShouldBindQuery(&params); bindErr != nil {
		abortWithBindError(c, bindErr)
		return
	}

	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	stats, err := h.orderSvs.AdminStatistics(reqCtx, middlewares.CurrentActor(c), params.From, params.To)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	if stats == nil {
		stats = []repoargs.StatusStatistics{}
	}
	c.JSON(http.StatusOK, stats)
}
