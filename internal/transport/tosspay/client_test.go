package tosspay

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/jamongadejoa28/sassmall-sub003/internal/domain"
)

type ClientTestSuite struct {
	suite.Suite
	server *httptest.Server
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientTestSuite))
}

func (s *ClientTestSuite) TearDownTest() {
	if s.server != nil {
		s.server.Close()
	}
}

func (s *ClientTestSuite) newClient(h http.HandlerFunc) *Client {
	s.server = httptest.NewServer(h)
	return New(Options{
		BaseURL:    s.server.URL,
		SecretKey:  "test_sk",
		SuccessURL: "https://shop.local/success",
		FailURL:    "https://shop.local/fail",
	})
}

// TestApprovePayment Тест на подтверждение платежа.
func (s *ClientTestSuite) TestApprovePayment() {
	approvedAt := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	c := s.newClient(func(w http.ResponseWriter, r *http.Request) {
		s.Equal(http.MethodPost, r.Method)
		s.Equal(RouteConfirm, r.URL.Path)
		s.Equal("Basic dGVzdF9zazo=", r.Header.Get("Authorization"))
		s.Equal("pk-1", r.Header.Get(idempotencyHeader))

		var req confirmRequest
		s.Require().NoError(json.NewDecoder(r.Body).Decode(&req))
		s.Equal("pk-1", req.PaymentKey)
		s.Equal("ORD-20250301-AAAAAAAA", req.OrderID)
		s.True(req.Amount.Equal(decimal.NewFromInt(50000)))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(payment{
			PaymentKey:  "pk-1",
			OrderID:     "ORD-20250301-AAAAAAAA",
			Status:      "DONE",
			Method:      "CARD",
			TotalAmount: decimal.NewFromInt(50000),
			ApprovedAt:  &approvedAt,
			Receipt:     &receipt{URL: "https://receipt"},
		})
	})

	res, err := c.ApprovePayment(context.Background(), "pk-1", "ORD-20250301-AAAAAAAA", decimal.NewFromInt(50000))
	s.Require().NoError(err)
	s.Equal(domain.ProviderStatusDone, res.Status)
	s.True(res.Amount.Equal(decimal.NewFromInt(50000)))
	s.True(res.ApprovedAt.Equal(approvedAt))
	s.Equal(domain.ProviderToss, res.Data.Provider)
	s.Equal("https://receipt", res.Data.Toss.ReceiptURL)
}

// TestApprovePayment_ProviderError Тест на ошибку провайдера с кодом и сообщением.
func (s *ClientTestSuite) TestApprovePayment_ProviderError() {
	c := s.newClient(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":"REJECT_CARD_PAYMENT","message":"limit exceeded"}`))
	})

	_, err := c.ApprovePayment(context.Background(), "pk-1", "ORD-1", decimal.NewFromInt(100))
	s.Require().ErrorIs(err, domain.ErrProvider)
	pErr, ok := domain.AsProviderError(err)
	s.Require().True(ok)
	s.Equal(http.StatusBadRequest, pErr.Status)
	s.Equal("REJECT_CARD_PAYMENT", pErr.Code)
	s.Equal("limit exceeded", pErr.Message)
}

// TestApprovePayment_Timeout Тест на таймаут запроса к провайдеру.
func (s *ClientTestSuite) TestApprovePayment_Timeout() {
	release := make(chan struct{})
	c := s.newClient(func(_ http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.ApprovePayment(ctx, "pk-1", "ORD-1", decimal.NewFromInt(100))
	pErr, ok := domain.AsProviderError(err)
	s.Require().True(ok)
	s.True(pErr.IsTimeout())
}

// TestRequestPayment Тест на создание платежной сессии.
func (s *ClientTestSuite) TestRequestPayment() {
	c := s.newClient(func(w http.ResponseWriter, r *http.Request) {
		s.Equal(RoutePayments, r.URL.Path)
		var req paymentRequest
		s.Require().NoError(json.NewDecoder(r.Body).Decode(&req))
		s.Equal("MOBILE_PHONE", req.Method)
		s.Equal("customer-10", req.CustomerKey)
		s.Equal("https://shop.local/success", req.SuccessURL)

		_ = json.NewEncoder(w).Encode(payment{
			PaymentKey: "pk-2",
			OrderID:    req.OrderID,
			Status:     "READY",
			Checkout:   &checkout{URL: "https://pay.toss/checkout/pk-2"},
		})
	})

	res, err := c.RequestPayment(context.Background(), domain.PaymentRequest{
		OrderNumber: "ORD-1",
		OrderName:   "Keyboard and 1 more",
		Amount:      decimal.NewFromInt(5000),
		Method:      domain.PaymentMethodMobile,
		CustomerID:  10,
	})
	s.Require().NoError(err)
	s.Equal("pk-2", res.PaymentKey)
	s.Equal("https://pay.toss/checkout/pk-2", res.RedirectURL)
	s.Equal("https://pay.toss/checkout/pk-2", res.Data.Toss.CheckoutURL)
}

// TestRefundPayment Тест на частичный возврат с ключом идемпотентности.
func (s *ClientTestSuite) TestRefundPayment() {
	canceledAt := time.Date(2025, 3, 2, 9, 0, 0, 0, time.UTC)
	amount := decimal.NewFromInt(1000)
	c := s.newClient(func(w http.ResponseWriter, r *http.Request) {
		s.Equal("/v1/payments/pk-3/cancel", r.URL.Path)
		s.Equal("saga-7", r.Header.Get(idempotencyHeader))
		var req cancelRequest
		s.Require().NoError(json.NewDecoder(r.Body).Decode(&req))
		s.Equal("customer request", req.CancelReason)
		s.Require().NotNil(req.CancelAmount)
		s.True(req.CancelAmount.Equal(amount))

		_ = json.NewEncoder(w).Encode(payment{
			PaymentKey: "pk-3",
			Status:     "PARTIAL_CANCELED",
			Cancels:    []cancelRecord{{CancelAmount: amount, CanceledAt: canceledAt}},
		})
	})

	res, err := c.RefundPayment(context.Background(), domain.RefundRequest{
		PaymentKey:     "pk-3",
		Amount:         &amount,
		Reason:         "customer request",
		IdempotencyKey: "saga-7",
	})
	s.Require().NoError(err)
	s.True(res.Amount.Equal(amount))
	s.True(res.RefundedAt.Equal(canceledAt))
}

// TestGetPaymentStatus Тест на запрос статуса и ответ без тела ошибки.
func (s *ClientTestSuite) TestGetPaymentStatus() {
	c := s.newClient(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/payments/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(payment{PaymentKey: "pk-4", Status: "ABORTED"})
	})

	res, err := c.GetPaymentStatus(context.Background(), "pk-4")
	s.Require().NoError(err)
	s.True(res.Status.IsSettledFailure())

	_, err = c.GetPaymentStatus(context.Background(), "missing")
	pErr, ok := domain.AsProviderError(err)
	s.Require().True(ok)
	s.Equal(http.StatusNotFound, pErr.Status)
	s.False(pErr.IsTimeout())
}
