package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jamongadejoa28/sassmall-sub003/internal/domain"
	"github.com/jamongadejoa28/sassmall-sub003/internal/service"
)

type OrderItemParams struct {
	ProductID int64             `binding:"required,gt=0" json:"productId"`
	Quantity  int               `binding:"required"      json:"quantity"`
	Options   map[string]string `json:"options"`
}

type AddressParams struct {
	RecipientName   string `binding:"required,max_bytes=100" json:"recipientName"`
	Phone           string `binding:"required,max=20"        json:"phone"`
	ZipCode         string `binding:"required,max=10"        json:"zipCode"`
	Line1           string `binding:"required,max_bytes=255" json:"line1"`
	Line2           string `binding:"max_bytes=255"          json:"line2"`
	DeliveryRequest string `binding:"max_bytes=500"          json:"deliveryRequest"`
}

type CreateOrderParams struct {
	Items           []OrderItemParams        `binding:"required,min=1,dive"     json:"items"`
	ShippingAddress AddressParams            `json:"shippingAddress"`
	PaymentMethod   domain.PaymentMethodType `binding:"required,payment_method" json:"paymentMethod"`
	Memo            string                   `binding:"max_bytes=500"           json:"memo"`
}

func (p CreateOrderParams) toArgs() service.CreateOrderArgs {
	items := make([]domain.CartLine, len(p.Items))
	for i, item := range p.Items {
		items[i] = domain.CartLine{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Options:   item.Options,
		}
	}
	return service.CreateOrderArgs{
		Items: items,
		ShippingAddress: domain.Address{
			RecipientName:   p.ShippingAddress.RecipientName,
			Phone:           p.ShippingAddress.Phone,
			ZipCode:         p.ShippingAddress.ZipCode,
			Line1:           p.ShippingAddress.Line1,
			Line2:           p.ShippingAddress.Line2,
			DeliveryRequest: p.ShippingAddress.DeliveryRequest,
		},
		PaymentMethod: p.PaymentMethod,
		Memo:          p.Memo,
	}
}

type ListOrdersParams struct {
	Status domain.OrderStatusType `binding:"omitempty,order_status" form:"status"`
	Limit  uint                   `binding:"max=100"                form:"limit"`
	Offset uint                   `form:"offset"`
}

type ReasonParams struct {
	Reason string `binding:"max_bytes=500" json:"reason"`
}

type UpdateStatusParams struct {
	Status domain.OrderStatusType `binding:"required,order_status" json:"status"`
	Reason string                 `binding:"max_bytes=500"         json:"reason"`
}

type BulkUpdateStatusParams struct {
	OrderIDs []int64                `binding:"required,min=1,max=100,dive,gt=0" json:"orderIds"`
	Status   domain.OrderStatusType `binding:"required,order_status"            json:"status"`
	Reason   string                 `binding:"max_bytes=500"                    json:"reason"`
}

type SearchOrdersParams struct {
	Status            domain.OrderStatusType `binding:"omitempty,order_status" form:"status"`
	UserID            int64                  `form:"userId"`
	OrderNumberPrefix string                 `binding:"max=32"                 form:"orderNumber"`
	From              *time.Time             `form:"from"                      time_format:"2006-01-02T15:04:05Z07:00"`
	To                *time.Time             `form:"to"                        time_format:"2006-01-02T15:04:05Z07:00"`
	Limit             uint                   `binding:"max=100"                form:"limit"`
	Offset            uint                   `form:"offset"`
}

type StatisticsParams struct {
	From time.Time `binding:"required" form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To   time.Time `binding:"required" form:"to"   time_format:"2006-01-02T15:04:05Z07:00"`
}

type RequestPaymentParams struct {
	OrderID int64 `binding:"required,gt=0" json:"orderId"`
}

// ApprovePaymentParams параметры, с которыми провайдер возвращает покупателя после оплаты. orderId - номер
// заказа.
type ApprovePaymentParams struct {
	PaymentKey  string          `binding:"required,max=200" json:"paymentKey"`
	OrderNumber string          `binding:"required,max=64"  json:"orderId"`
	Amount      decimal.Decimal `json:"amount"`
}

type OrderResponse struct {
	ID              int64                    `json:"id"`
	OrderNumber     string                   `json:"orderNumber"`
	UserID          int64                    `json:"userId"`
	Status          domain.OrderStatusType   `json:"status"`
	Items           []domain.OrderItem       `json:"items"`
	ShippingAddress domain.Address           `json:"shippingAddress"`
	PaymentMethod   domain.PaymentMethodType `json:"paymentMethod"`
	Subtotal        decimal.Decimal          `json:"subtotal"`
	ShippingFee     decimal.Decimal          `json:"shippingFee"`
	TotalAmount     decimal.Decimal          `json:"totalAmount"`
	Memo            string                   `json:"memo,omitempty"`
	OrderedAt       time.Time                `json:"orderedAt"`
	UpdatedAt       time.Time                `json:"updatedAt"`
}

func newOrderResponse(o *domain.Order) OrderResponse {
	return OrderResponse{
		ID:              o.ID,
		OrderNumber:     o.OrderNumber,
		UserID:          o.UserID,
		Status:          o.Status,
		Items:           o.Items,
		ShippingAddress: o.ShippingAddress,
		PaymentMethod:   o.PaymentMethod,
		Subtotal:        o.Subtotal,
		ShippingFee:     o.ShippingFee,
		TotalAmount:     o.TotalAmount,
		Memo:            o.Memo,
		OrderedAt:       o.OrderedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

type OrderSummaryResponse struct {
	ID             int64                  `json:"id"`
	OrderNumber    string                 `json:"orderNumber"`
	Status         domain.OrderStatusType `json:"status"`
	ItemCount      int                    `json:"itemCount"`
	FirstItemName  string                 `json:"firstItemName"`
	Title          string                 `json:"title"`
	TotalAmount    decimal.Decimal        `json:"totalAmount"`
	OrderedAt      time.Time              `json:"orderedAt"`
	RequiresAction bool                   `json:"requiresAction"`
}

func newOrderSummaryResponse(s *service.OrderSummary) OrderSummaryResponse {
	return OrderSummaryResponse{
		ID:             s.ID,
		OrderNumber:    s.OrderNumber,
		Status:         s.Status,
		ItemCount:      s.ItemCount,
		FirstItemName:  s.FirstItemName,
		Title:          s.Title,
		TotalAmount:    s.TotalAmount,
		OrderedAt:      s.OrderedAt,
		RequiresAction: s.RequiresAction,
	}
}

type BulkStatusResponse struct {
	OrderID int64                  `json:"orderId"`
	Success bool                   `json:"success"`
	Status  domain.OrderStatusType `json:"status,omitempty"`
	Error   string                 `json:"error,omitempty"`
}

type SearchOrdersResponse struct {
	Orders []OrderResponse `json:"orders"`
	Total  int64           `json:"total"`
}

type PaymentRedirectResponse struct {
	PaymentID   int64           `json:"paymentId"`
	PaymentKey  string          `json:"paymentKey,omitempty"`
	OrderNumber string          `json:"orderNumber"`
	Amount      decimal.Decimal `json:"amount"`
	RedirectURL string          `json:"redirectUrl"`
}

type ApprovalResponse struct {
	PaymentID   int64                    `json:"paymentId"`
	PaymentKey  string                   `json:"paymentKey"`
	OrderID     int64                    `json:"orderId"`
	OrderNumber string                   `json:"orderNumber"`
	Amount      decimal.Decimal          `json:"amount"`
	Status      domain.PaymentStatusType `json:"status"`
	ApprovedAt  time.Time                `json:"approvedAt"`
}
