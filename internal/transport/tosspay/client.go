// Package tosspay клиент платежного API tosspayments.
package tosspay

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jamongadejoa28/sassmall-sub003/internal/domain"
)

const (
	RoutePayments      = "/v1/payments"
	RouteConfirm       = "/v1/payments/confirm"
	RoutePayment       = "/v1/payments/%s"
	RouteCancelPayment = "/v1/payments/%s/cancel"
)

const idempotencyHeader = "Idempotency-Key"

// maxErrorBody ограничение на чтение тела ответа с ошибкой.
const maxErrorBody = 64 << 10

type Options struct {
	BaseURL    string
	SecretKey  string
	SuccessURL string
	FailURL    string
}

// Client реализация платежного провайдера поверх HTTP API tosspayments. Ошибки ответа возвращаются как
// *domain.ProviderError с оригинальным кодом провайдера, таймаут и сетевые ошибки как коды
// domain.ProviderCodeTimeout и domain.ProviderCodeNetworkError.
type Client struct {
	opts       Options
	auth       string
	httpClient *http.Client
}

func New(opts Options) *Client {
	return &Client{
		opts:       opts,
		auth:       "Basic " + base64.StdEncoding.EncodeToString([]byte(opts.SecretKey+":")),
		httpClient: http.DefaultClient,
	}
}

// WithHTTPClient заменяет http клиент.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

func (c *Client) RequestPayment(ctx context.Context, req domain.PaymentRequest) (*domain.PaymentRedirect, error) {
	var resp payment
	err := c.do(ctx, http.MethodPost, RoutePayments, "", paymentRequest{
		Method:        methodName(req.Method),
		Amount:        req.Amount,
		OrderID:       req.OrderNumber,
		OrderName:     req.OrderName,
		SuccessURL:    c.opts.SuccessURL,
		FailURL:       c.opts.FailURL,
		CustomerKey:   customerKey(req.CustomerID),
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
	}, &resp)
	if err != nil {
		return nil, err
	}

	redirect := &domain.PaymentRedirect{
		PaymentKey: resp.PaymentKey,
		Data:       resp.toData(),
	}
	if resp.Checkout != nil {
		redirect.RedirectURL = resp.Checkout.URL
	}
	return redirect, nil
}

func (c *Client) ApprovePayment(
	ctx context.Context,
	key string,
	orderNumber string,
	amount decimal.Decimal,
) (*domain.ProviderPayment, error) {
	var resp payment
	err := c.do(ctx, http.MethodPost, RouteConfirm, key, confirmRequest{
		PaymentKey: key,
		OrderID:    orderNumber,
		Amount:     amount,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.toProviderPayment(), nil
}

func (c *Client) GetPaymentStatus(ctx context.Context, key string) (*domain.ProviderPayment, error) {
	var resp payment
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf(RoutePayment, url.PathEscape(key)), "", nil, &resp); err != nil {
		return nil, err
	}
	return resp.toProviderPayment(), nil
}

func (c *Client) RefundPayment(ctx context.Context, req domain.RefundRequest) (*domain.ProviderRefund, error) {
	var resp payment
	err := c.do(ctx, http.MethodPost, fmt.Sprintf(RouteCancelPayment, url.PathEscape(req.PaymentKey)),
		req.IdempotencyKey, cancelRequest{
			CancelReason: req.Reason,
			CancelAmount: req.Amount,
		}, &resp)
	if err != nil {
		return nil, err
	}

	refund := &domain.ProviderRefund{
		PaymentKey: resp.PaymentKey,
		Data:       resp.toData(),
	}
	if n := len(resp.Cancels); n > 0 {
		refund.Amount = resp.Cancels[n-1].CancelAmount
		refund.RefundedAt = resp.Cancels[n-1].CanceledAt
	}
	return refund, nil
}

// do выполняет запрос к API. idempotencyKey передается в заголовке, если не пустой.
//
//nolint:nonamedreturns
func (c *Client) do(ctx context.Context, method, route, idempotencyKey string, body, out any) (err error) {
	var reqBody io.Reader
	if body != nil {
		payload, marshalErr := json.Marshal(body)
		if marshalErr != nil {
			return fmt.Errorf("marshal request: %s", marshalErr.Error())
		}
		reqBody = bytes.NewReader(payload)
	}

	req, reqErr := http.NewRequestWithContext(ctx, method, c.opts.BaseURL+route, reqBody)
	if reqErr != nil {
		return fmt.Errorf("create request: %s", reqErr.Error())
	}
	req.Header.Set("Authorization", c.auth)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if idempotencyKey != "" {
		req.Header.Set(idempotencyHeader, idempotencyKey)
	}

	resp, doErr := c.httpClient.Do(req)
	if doErr != nil {
		return transportError(doErr)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}

	if jsonErr := json.NewDecoder(resp.Body).Decode(out); jsonErr != nil {
		if isTimeout(jsonErr) {
			return transportError(jsonErr)
		}
		return domain.NewProviderError(resp.StatusCode, "INVALID_RESPONSE",
			fmt.Sprintf("parse response: %s", jsonErr.Error()))
	}
	return nil
}

func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var body errorResponse
	if err := json.Unmarshal(raw, &body); err != nil || body.Code == "" {
		return domain.NewProviderError(resp.StatusCode, http.StatusText(resp.StatusCode), string(raw))
	}
	return domain.NewProviderError(resp.StatusCode, body.Code, body.Message)
}

func transportError(err error) error {
	if isTimeout(err) {
		return domain.NewProviderError(0, domain.ProviderCodeTimeout, err.Error())
	}
	return domain.NewProviderError(0, domain.ProviderCodeNetworkError, err.Error())
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func (p payment) toData() domain.ProviderData {
	data := domain.TossData{
		PaymentKey:         p.PaymentKey,
		Method:             p.Method,
		Status:             p.Status,
		LastTransactionKey: p.LastTransactionKey,
	}
	if p.Checkout != nil {
		data.CheckoutURL = p.Checkout.URL
	}
	if p.Receipt != nil {
		data.ReceiptURL = p.Receipt.URL
	}
	if p.ApprovedAt != nil {
		data.ApprovedAt = p.ApprovedAt.Format(time.RFC3339)
	}
	return domain.NewTossData(data)
}

func (p payment) toProviderPayment() *domain.ProviderPayment {
	pp := &domain.ProviderPayment{
		PaymentKey:  p.PaymentKey,
		OrderNumber: p.OrderID,
		Amount:      p.TotalAmount,
		Status:      domain.ProviderPaymentStatus(p.Status),
		Data:        p.toData(),
	}
	if p.ApprovedAt != nil {
		pp.ApprovedAt = *p.ApprovedAt
	}
	return pp
}

// methodName названия способов оплаты в API провайдера.
func methodName(m domain.PaymentMethodType) string {
	switch m {
	case domain.PaymentMethodCard:
		return "CARD"
	case domain.PaymentMethodVirtualAccount:
		return "VIRTUAL_ACCOUNT"
	case domain.PaymentMethodTransfer:
		return "TRANSFER"
	case domain.PaymentMethodMobile:
		return "MOBILE_PHONE"
	case domain.PaymentMethodEasyPay:
		return "EASY_PAY"
	default:
		return string(m)
	}
}

func customerKey(id int64) string {
	if id == 0 {
		return ""
	}
	return fmt.Sprintf("customer-%d", id)
}
