package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/jamongadejoa28/sassmall-sub003/internal/domain"
	"github.com/jamongadejoa28/sassmall-sub003/internal/repository/repoargs"
	"github.com/jamongadejoa28/sassmall-sub003/internal/service"
	"github.com/jamongadejoa28/sassmall-sub003/internal/transport/api/testutils"
)

type AdminHandlerTestSuite struct {
	handlerSuite
}

func TestAdminHandlerSuite(t *testing.T) {
	suite.Run(t, new(AdminHandlerTestSuite))
}

// TestAdminRequired Тест на закрытие маршрутов администратора от покупателя.
func (s *AdminHandlerTestSuite) TestAdminRequired() {
	cases := []struct {
		name   string
		method string
		url    string
	}{
		{name: "search", method: http.MethodGet, url: RouteGroup + AdminOrdersRoute},
		{name: "statistics", method: http.MethodGet, url: RouteGroup + AdminStatisticsRoute},
		{name: "bulk status", method: http.MethodPost, url: RouteGroup + AdminBulkStatusRoute},
		{name: "status", method: http.MethodPost, url: routeURL(AdminOrderStatusRoute, 1)},
		{name: "cancel", method: http.MethodPost, url: routeURL(AdminCancelOrderRoute, 1)},
		{name: "refund", method: http.MethodPost, url: routeURL(AdminRefundOrderRoute, 1)},
	}
	for _, t := range cases {
		s.Run(t.name, func() {
			status, _ := s.request(t.method, t.url, s.customerToken, nil)
			s.Equal(http.StatusForbidden, status)

			status, _ = s.request(t.method, t.url, "", nil)
			s.Equal(http.StatusUnauthorized, status)
		})
	}
}

// TestUpdateStatus Тест на смену статуса заказа администратором.
func (s *AdminHandlerTestSuite) TestUpdateStatus() {
	s.mockOrderService.EXPECT().
		UpdateStatus(gomock.Any(), admin, int64(1), domain.OrderStatusShipping, "").
		Return(sampleOrder(1, domain.OrderStatusShipping), nil)
	s.mockOrderService.EXPECT().
		UpdateStatus(gomock.Any(), admin, int64(2), domain.OrderStatusDelivered, "").
		Return(nil, domain.NewInvalidTransitionError(domain.OrderStatusPending, domain.OrderStatusDelivered))

	cases := []struct {
		name       string
		id         int64
		payload    any
		wantStatus int
	}{
		{name: "all ok", id: 1, payload: UpdateStatusParams{Status: domain.OrderStatusShipping},
			wantStatus: http.StatusOK},
		{name: "invalid transition", id: 2, payload: UpdateStatusParams{Status: domain.OrderStatusDelivered},
			wantStatus: http.StatusConflict},
		{name: "unknown status", id: 1, payload: UpdateStatusParams{Status: "LOST"},
			wantStatus: http.StatusUnprocessableEntity},
		{name: "reason too long", id: 1, payload: UpdateStatusParams{
			Status: domain.OrderStatusShipping,
			Reason: testutils.GenerateOverBytesUnderRunes(200),
		}, wantStatus: http.StatusUnprocessableEntity},
	}
	for _, t := range cases {
		s.Run(t.name, func() {
			status, body := s.request(http.MethodPost, routeURL(AdminOrderStatusRoute, t.id), s.adminToken, t.payload)
			s.Equal(t.wantStatus, status, string(body))
		})
	}
}

// TestBulkUpdateStatus Тест на пакетную смену статусов с результатом по каждому заказу.
func (s *AdminHandlerTestSuite) TestBulkUpdateStatus() {
	s.mockOrderService.EXPECT().
		BulkUpdateStatus(gomock.Any(), admin, []int64{1, 2, 3}, domain.OrderStatusPreparingShipment, "batch").
		Return([]service.BulkStatusResult{
			{OrderID: 1, Order: sampleOrder(1, domain.OrderStatusPreparingShipment)},
			{OrderID: 2, Err: domain.NewInvalidTransitionError(domain.OrderStatusPending,
				domain.OrderStatusPreparingShipment)},
			{OrderID: 3, Err: fmt.Errorf("dial tcp 10.0.0.5:5432: %w", domain.ErrUnknown)},
		}, nil)

	status, body := s.request(http.MethodPost, RouteGroup+AdminBulkStatusRoute, s.adminToken, BulkUpdateStatusParams{
		OrderIDs: []int64{1, 2, 3},
		Status:   domain.OrderStatusPreparingShipment,
		Reason:   "batch",
	})
	s.Require().Equal(http.StatusOK, status, string(body))

	var resp []BulkStatusResponse
	s.Require().NoError(json.Unmarshal(body, &resp))
	s.Require().Len(resp, 3)

	s.True(resp[0].Success)
	s.Equal(domain.OrderStatusPreparingShipment, resp[0].Status)

	s.False(resp[1].Success)
	s.Equal("invalid status transition from PENDING to PREPARING_SHIPMENT", resp[1].Error)

	s.False(resp[2].Success)
	s.Equal(http.StatusText(http.StatusInternalServerError), resp[2].Error)
}

// TestBulkUpdateStatus_Validation Тест на проверку параметров пакетной смены статусов.
func (s *AdminHandlerTestSuite) TestBulkUpdateStatus_Validation() {
	tooMany := make([]int64, 101)
	for i := range tooMany {
		tooMany[i] = int64(i + 1)
	}

	cases := []struct {
		name    string
		payload BulkUpdateStatusParams
	}{
		{name: "no orders", payload: BulkUpdateStatusParams{Status: domain.OrderStatusShipping}},
		{name: "too many orders", payload: BulkUpdateStatusParams{OrderIDs: tooMany, Status: domain.OrderStatusShipping}},
		{name: "invalid id", payload: BulkUpdateStatusParams{OrderIDs: []int64{1, 0}, Status: domain.OrderStatusShipping}},
		{name: "no status", payload: BulkUpdateStatusParams{OrderIDs: []int64{1}}},
	}
	for _, t := range cases {
		s.Run(t.name, func() {
			status, _ := s.request(http.MethodPost, RouteGroup+AdminBulkStatusRoute, s.adminToken, t.payload)
			s.Equal(http.StatusUnprocessableEntity, status)
		})
	}
}

// TestAdminCancel Тест на отмену оплаченного заказа администратором.
func (s *AdminHandlerTestSuite) TestAdminCancel() {
	s.mockOrderService.EXPECT().CancelOrder(gomock.Any(), admin, int64(1), "").
		Return(sampleOrder(1, domain.OrderStatusCancelled), nil)

	status, body := s.request(http.MethodPost, routeURL(AdminCancelOrderRoute, 1), s.adminToken, nil)
	s.Require().Equal(http.StatusOK, status, string(body))

	var resp OrderResponse
	s.Require().NoError(json.Unmarshal(body, &resp))
	s.Equal(domain.OrderStatusCancelled, resp.Status)
}

// TestRefund Тест на запуск возврата оплаченного заказа.
func (s *AdminHandlerTestSuite) TestRefund() {
	s.mockOrderService.EXPECT().RefundOrder(gomock.Any(), admin, int64(1), "damaged").
		Return(sampleOrder(1, domain.OrderStatusRefunded), nil)
	s.mockOrderService.EXPECT().RefundOrder(gomock.Any(), admin, int64(2), "").
		Return(nil, fmt.Errorf("order 2: %w", domain.ErrPaymentNotRefundable))

	status, _ := s.request(http.MethodPost, routeURL(AdminRefundOrderRoute, 1), s.adminToken,
		ReasonParams{Reason: "damaged"})
	s.Equal(http.StatusOK, status)

	status, body := s.request(http.MethodPost, routeURL(AdminRefundOrderRoute, 2), s.adminToken, nil)
	s.Equal(http.StatusConflict, status)
	s.Equal("order 2: payment not refundable", s.decodeError(body))
}

// TestSearch Тест на поиск заказов администратором.
func (s *AdminHandlerTestSuite) TestSearch() {
	from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	s.mockOrderService.EXPECT().AdminSearch(gomock.Any(), admin, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ domain.Actor, filter repoargs.OrderSearch) ([]domain.Order, int64, error) {
			s.Equal(domain.OrderStatusPending, filter.Status)
			s.Equal(int64(10), filter.UserID)
			s.Require().NotNil(filter.From)
			s.True(from.Equal(*filter.From))
			s.Nil(filter.To)
			s.Equal(uint(5), filter.Limit)
			return []domain.Order{*sampleOrder(1, domain.OrderStatusPending)}, 12, nil
		})

	query := url.Values{}
	query.Set("status", string(domain.OrderStatusPending))
	query.Set("userId", "10")
	query.Set("from", from.Format(time.RFC3339))
	query.Set("limit", "5")

	status, body := s.request(http.MethodGet, RouteGroup+AdminOrdersRoute+"?"+query.Encode(), s.adminToken, nil)
	s.Require().Equal(http.StatusOK, status, string(body))

	var resp SearchOrdersResponse
	s.Require().NoError(json.Unmarshal(body, &resp))
	s.Equal(int64(12), resp.Total)
	s.Len(resp.Orders, 1)
}

// TestStatistics Тест на статистику заказов по статусам.
func (s *AdminHandlerTestSuite) TestStatistics() {
	from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)
	s.mockOrderService.EXPECT().AdminStatistics(gomock.Any(), admin, gomock.Any(), gomock.Any()).
		Return([]repoargs.StatusStatistics{
			{Status: domain.OrderStatusDelivered, Count: 3, Revenue: decimal.NewFromInt(15000)},
		}, nil)

	query := url.Values{}
	query.Set("from", from.Format(time.RFC3339))
	query.Set("to", to.Format(time.RFC3339))

	status, body := s.request(http.MethodGet, RouteGroup+AdminStatisticsRoute+"?"+query.Encode(), s.adminToken, nil)
	s.Require().Equal(http.StatusOK, status, string(body))

	var resp []repoargs.StatusStatistics
	s.Require().NoError(json.Unmarshal(body, &resp))
	s.Require().Len(resp, 1)
	s.Equal(int64(3), resp[0].Count)

	status, _ = s.request(http.MethodGet, RouteGroup+AdminStatisticsRoute, s.adminToken, nil)
	s.Equal(http.StatusUnprocessableEntity, status)
}
