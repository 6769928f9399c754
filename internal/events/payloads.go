package events

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jamongadejoa28/sassmall-sub003/internal/domain"
)

type OrderItemPayload struct {
	ProductID int64           `json:"productId"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

type OrderCreatedPayload struct {
	OrderID     int64                  `json:"orderId"`
	OrderNumber string                 `json:"orderNumber"`
	UserID      int64                  `json:"userId"`
	Status      domain.OrderStatusType `json:"status"`
	TotalAmount decimal.Decimal        `json:"totalAmount"`
	Items       []OrderItemPayload     `json:"items"`
}

type OrderStatusUpdatedPayload struct {
	OrderID     int64                  `json:"orderId"`
	OrderNumber string                 `json:"orderNumber"`
	UserID      int64                  `json:"userId"`
	From        domain.OrderStatusType `json:"from"`
	To          domain.OrderStatusType `json:"to"`
	ChangedBy   int64                  `json:"changedBy"`
}

type OrderCancelledPayload struct {
	OrderID         int64              `json:"orderId"`
	OrderNumber     string             `json:"orderNumber"`
	UserID          int64              `json:"userId"`
	Reason          string             `json:"reason"`
	Refunded        bool               `json:"refunded"`
	PendingReleases []domain.StockLine `json:"pendingReleases,omitempty"`
}

type OrderPaymentCompletedPayload struct {
	OrderID     int64           `json:"orderId"`
	OrderNumber string          `json:"orderNumber"`
	PaymentID   int64           `json:"paymentId"`
	PaymentKey  string          `json:"paymentKey"`
	Amount      decimal.Decimal `json:"amount"`
	ApprovedAt  time.Time       `json:"approvedAt"`
}

func NewOrderCreatedPayload(o *domain.Order) OrderCreatedPayload {
	items := make([]OrderItemPayload, len(o.Items))
	for i, item := range o.Items {
		items[i] = OrderItemPayload{ProductID: item.ProductID, Quantity: item.Quantity, Price: item.Price}
	}
	return OrderCreatedPayload{
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		UserID:      o.UserID,
		Status:      o.Status,
		TotalAmount: o.TotalAmount,
		Items:       items,
	}
}
