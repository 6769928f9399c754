package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type ProviderKind string

const ProviderToss ProviderKind = "tosspayments"

// ProviderPaymentStatus статус платежа на стороне провайдера.
type ProviderPaymentStatus string

const (
	ProviderStatusReady           ProviderPaymentStatus = "READY"
	ProviderStatusInProgress      ProviderPaymentStatus = "IN_PROGRESS"
	ProviderStatusWaitingDeposit  ProviderPaymentStatus = "WAITING_FOR_DEPOSIT"
	ProviderStatusDone            ProviderPaymentStatus = "DONE"
	ProviderStatusCanceled        ProviderPaymentStatus = "CANCELED"
	ProviderStatusPartialCanceled ProviderPaymentStatus = "PARTIAL_CANCELED"
	ProviderStatusAborted         ProviderPaymentStatus = "ABORTED"
	ProviderStatusExpired         ProviderPaymentStatus = "EXPIRED"
)

// IsSettledFailure платеж на стороне провайдера завершился без списания.
func (s ProviderPaymentStatus) IsSettledFailure() bool {
	return s == ProviderStatusAborted || s == ProviderStatusExpired || s == ProviderStatusCanceled
}

// TossData данные платежа, которые возвращает tosspayments.
type TossData struct {
	PaymentKey         string `json:"paymentKey,omitempty"`
	CheckoutURL        string `json:"checkoutUrl,omitempty"`
	Method             string `json:"method,omitempty"`
	Status             string `json:"status,omitempty"`
	ApprovedAt         string `json:"approvedAt,omitempty"`
	ReceiptURL         string `json:"receiptUrl,omitempty"`
	LastTransactionKey string `json:"lastTransactionKey,omitempty"`
}

// ProviderData данные платежного провайдера. Заполнено ровно одно поле, соответствующее Provider.
type ProviderData struct {
	Provider ProviderKind `json:"provider,omitempty"`
	Toss     *TossData    `json:"toss,omitempty"`
}

func NewTossData(data TossData) ProviderData {
	return ProviderData{Provider: ProviderToss, Toss: &data}
}

func (d ProviderData) IsZero() bool {
	return d.Provider == ""
}

func (d ProviderData) Validate() error {
	switch d.Provider {
	case "":
		if d.Toss != nil {
			return NewValidationError("providerData", "provider is not set")
		}
		return nil
	case ProviderToss:
		if d.Toss == nil {
			return NewValidationError("providerData", "toss data is missing")
		}
		return nil
	default:
		return NewValidationError("providerData", fmt.Sprintf("unknown provider %q", d.Provider))
	}
}

// PaymentRequest запрос на создание платежной сессии у провайдера.
type PaymentRequest struct {
	OrderNumber   string
	OrderName     string
	Amount        decimal.Decimal
	Method        PaymentMethodType
	CustomerID    int64
	CustomerName  string
	CustomerEmail string
}

// PaymentRedirect ответ провайдера на PaymentRequest. PaymentKey может быть пустым, если провайдер выдает его
// только при подтверждении.
type PaymentRedirect struct {
	PaymentKey  string
	RedirectURL string
	Data        ProviderData
}

// ProviderPayment состояние платежа у провайдера.
type ProviderPayment struct {
	PaymentKey  string
	OrderNumber string
	Amount      decimal.Decimal
	Status      ProviderPaymentStatus
	ApprovedAt  time.Time
	Data        ProviderData
}

type RefundRequest struct {
	PaymentKey string
	// Amount nil означает полный возврат.
	Amount         *decimal.Decimal
	Reason         string
	IdempotencyKey string
}

type ProviderRefund struct {
	PaymentKey string
	Amount     decimal.Decimal
	RefundedAt time.Time
	Data       ProviderData
}

// StatusNotification уведомление покупателя о смене статуса заказа.
type StatusNotification struct {
	UserID      int64
	OrderID     int64
	OrderNumber string
	Status      OrderStatusType
	Total       decimal.Decimal
}

type CancelNotification struct {
	UserID      int64
	OrderID     int64
	OrderNumber string
	Reason      string
	Refunded    bool
}
