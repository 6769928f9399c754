package tosspay

import (
	"time"

	"github.com/shopspring/decimal"
)

type paymentRequest struct {
	Method        string          `json:"method"`
	Amount        decimal.Decimal `json:"amount"`
	OrderID       string          `json:"orderId"`
	OrderName     string          `json:"orderName"`
	SuccessURL    string          `json:"successUrl"`
	FailURL       string          `json:"failUrl"`
	CustomerKey   string          `json:"customerKey,omitempty"`
	CustomerName  string          `json:"customerName,omitempty"`
	CustomerEmail string          `json:"customerEmail,omitempty"`
}

type confirmRequest struct {
	PaymentKey string          `json:"paymentKey"`
	OrderID    string          `json:"orderId"`
	Amount     decimal.Decimal `json:"amount"`
}

type cancelRequest struct {
	CancelReason string           `json:"cancelReason"`
	CancelAmount *decimal.Decimal `json:"cancelAmount,omitempty"`
}

type checkout struct {
	URL string `json:"url"`
}

type receipt struct {
	URL string `json:"url"`
}

type cancelRecord struct {
	CancelAmount decimal.Decimal `json:"cancelAmount"`
	CanceledAt   time.Time       `json:"canceledAt"`
}

// payment объект Payment из ответов API.
type payment struct {
	PaymentKey         string          `json:"paymentKey"`
	OrderID            string          `json:"orderId"`
	Status             string          `json:"status"`
	Method             string          `json:"method"`
	TotalAmount        decimal.Decimal `json:"totalAmount"`
	BalanceAmount      decimal.Decimal `json:"balanceAmount"`
	ApprovedAt         *time.Time      `json:"approvedAt"`
	LastTransactionKey string          `json:"lastTransactionKey"`
	Checkout           *checkout       `json:"checkout"`
	Receipt            *receipt        `json:"receipt"`
	Cancels            []cancelRecord  `json:"cancels"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
