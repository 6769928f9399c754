package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Address struct {
	RecipientName   string `json:"recipientName"`
	Phone           string `json:"phone"`
	ZipCode         string `json:"zipCode"`
	Line1           string `json:"line1"`
	Line2           string `json:"line2,omitempty"`
	DeliveryRequest string `json:"deliveryRequest,omitempty"`
}

type OrderItem struct {
	ID          int64             `json:"id,omitempty"`
	OrderID     int64             `json:"orderId,omitempty"`
	ProductID   int64             `json:"productId"`
	ProductName string            `json:"productName"`
	Price       decimal.Decimal   `json:"price"`
	Quantity    int               `json:"quantity"`
	LineTotal   decimal.Decimal   `json:"lineTotal"`
	ImageURL    string            `json:"imageUrl,omitempty"`
	Options     map[string]string `json:"options,omitempty"`
}

type Order struct {
	ID              int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
	OrderedAt       time.Time
	OrderNumber     string
	UserID          int64
	Status          OrderStatusType
	Items           []OrderItem
	ShippingAddress Address
	PaymentMethod   PaymentMethodType
	PaymentKey      string
	Subtotal        decimal.Decimal
	ShippingFee     decimal.Decimal
	TotalAmount     decimal.Decimal
	Memo            string
}

type Payment struct {
	ID           int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
	OrderID      int64
	OrderNumber  string
	PaymentKey   string
	Method       PaymentMethodType
	Amount       decimal.Decimal
	Status       PaymentStatusType
	Refunded     decimal.Decimal
	ProviderData ProviderData
	FailureCode  string
	FailureMsg   string
	RequestedAt  time.Time
	ApprovedAt   *time.Time
	FailedAt     *time.Time
	RefundedAt   *time.Time
	ReconciledAt *time.Time
}

// CheckoutDraft заказ, который будет создан только после успешной оплаты.
type CheckoutDraft struct {
	ID             string
	CreatedAt      time.Time
	OrderNumber    string
	UserID         int64
	Amount         decimal.Decimal
	Items          []OrderItem
	Address        Address
	PaymentMethod  PaymentMethodType
	Memo           string
	MaterializedAt *time.Time
	OrderID        int64
}

// CartLine позиция корзины в запросе на создание заказа.
type CartLine struct {
	ProductID int64             `json:"productId"`
	Quantity  int               `json:"quantity"`
	Options   map[string]string `json:"options,omitempty"`
}

// StockLine позиция для операций с остатками.
type StockLine struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

// Saga сохраненное состояние отмены или возврата заказа. Позволяет продолжить компенсацию после перезапуска.
type Saga struct {
	ID          int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
	OrderID     int64
	OrderNumber string
	Kind        SagaKindType
	Status      SagaStatusType
	Reason      string
	Actor       Actor
	PaymentID   int64
	// PendingReleases позиции, остаток по которым еще не возвращен на склад.
	PendingReleases []StockLine
	Attempts        int
	LastError       string
}

type Actor struct {
	UserID int64
	Role   RoleType
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// Product представление товара в каталоге на момент запроса.
type Product struct {
	ID       int64
	Name     string
	Price    decimal.Decimal
	Stock    int
	IsActive bool
	ImageURL string
}

type UserInfo struct {
	ID       int64
	Name     string
	Email    string
	IsActive bool
}
