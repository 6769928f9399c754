package collab

import (
	"context"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jamongadejoa28/sassmall-sub003/internal/domain"
)

const (
	RouteStatusNotification = "/api/v1/notifications/order-status"
	RouteCancelNotification = "/api/v1/notifications/order-cancel"
)

const notificationService = "notifications"

type statusNotificationRequest struct {
	UserID      int64                  `json:"userId"`
	OrderID     int64                  `json:"orderId"`
	OrderNumber string                 `json:"orderNumber"`
	Status      domain.OrderStatusType `json:"status"`
	Total       decimal.Decimal        `json:"totalAmount"`
}

type cancelNotificationRequest struct {
	UserID      int64  `json:"userId"`
	OrderID     int64  `json:"orderId"`
	OrderNumber string `json:"orderNumber"`
	Reason      string `json:"reason"`
	Refunded    bool   `json:"refunded"`
}

type NotificationClient struct {
	http httpClient
}

func NewNotificationClient(baseURL string, timeout time.Duration) *NotificationClient {
	return &NotificationClient{http: newHTTPClient(baseURL, timeout)}
}

func (c *NotificationClient) SendOrderStatusNotification(ctx context.Context, n domain.StatusNotification) error {
	_, err := c.http.do(ctx, http.MethodPost, RouteStatusNotification, statusNotificationRequest{
		UserID:      n.UserID,
		OrderID:     n.OrderID,
		OrderNumber: n.OrderNumber,
		Status:      n.Status,
		Total:       n.Total,
	}, nil)
	if err != nil {
		return domain.NewCollaboratorError(notificationService, "send status notification", err)
	}
	return nil
}

func (c *NotificationClient) SendOrderCancelNotification(ctx context.Context, n domain.CancelNotification) error {
	_, err := c.http.do(ctx, http.MethodPost, RouteCancelNotification, cancelNotificationRequest{
		UserID:      n.UserID,
		OrderID:     n.OrderID,
		OrderNumber: n.OrderNumber,
		Reason:      n.Reason,
		Refunded:    n.Refunded,
	}, nil)
	if err != nil {
		return domain.NewCollaboratorError(notificationService, "send cancel notification", err)
	}
	return nil
}
