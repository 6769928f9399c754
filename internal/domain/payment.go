package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type NewPaymentArgs struct {
	OrderID     int64
	OrderNumber string
	PaymentKey  string
	Method      PaymentMethodType
	Amount      decimal.Decimal
	Now         time.Time
}

// NewPayment создает платеж в статусе pending.
func NewPayment(args NewPaymentArgs) (*Payment, error) {
	if args.OrderNumber == "" {
		return nil, NewValidationError("orderNumber", "is required")
	}
	if !args.Amount.IsPositive() {
		return nil, NewValidationError("amount", "must be positive")
	}
	if !args.Method.IsValid() {
		return nil, NewValidationError("method", "is not supported")
	}
	return &Payment{
		CreatedAt:   args.Now,
		UpdatedAt:   args.Now,
		OrderID:     args.OrderID,
		OrderNumber: args.OrderNumber,
		PaymentKey:  args.PaymentKey,
		Method:      args.Method,
		Amount:      args.Amount,
		Status:      PaymentStatusPending,
		RequestedAt: args.Now,
	}, nil
}

func (p *Payment) IsOpen() bool {
	return p.Status == PaymentStatusPending || p.Status == PaymentStatusReady
}

// MarkReady сохраняет данные платежной сессии провайдера.
func (p *Payment) MarkReady(key string, data ProviderData, now time.Time) error {
	if p.Status != PaymentStatusPending {
		return fmt.Errorf("payment %d is %s: %w", p.ID, p.Status, ErrPaymentNotApprovable)
	}
	if err := data.Validate(); err != nil {
		return err
	}
	if key != "" {
		p.PaymentKey = key
	}
	p.Status = PaymentStatusReady
	p.ProviderData = data
	p.UpdatedAt = now
	return nil
}

// Approve фиксирует подтверждение платежа провайдером. Подтвердить можно только открытый платеж,
// повторное подтверждение возвращает ErrPaymentAlreadyApproved.
func (p *Payment) Approve(approval ProviderPayment, now time.Time) error {
	switch p.Status {
	case PaymentStatusApproved:
		return fmt.Errorf("payment %d: %w", p.ID, ErrPaymentAlreadyApproved)
	case PaymentStatusFailed:
		return fmt.Errorf("payment %d: %w", p.ID, ErrPaymentAlreadyFailed)
	case PaymentStatusPending, PaymentStatusReady:
	default:
		return fmt.Errorf("payment %d is %s: %w", p.ID, p.Status, ErrPaymentNotApprovable)
	}
	return p.applyApproval(approval, now)
}

// ReconcileApproved применяет подтверждение, полученное сверкой статуса у провайдера, к платежу, который
// был помечен failed из-за таймаута.
func (p *Payment) ReconcileApproved(approval ProviderPayment, now time.Time) error {
	if p.Status != PaymentStatusFailed || p.FailureCode != ProviderCodeTimeout {
		return p.Approve(approval, now)
	}
	if err := p.applyApproval(approval, now); err != nil {
		return err
	}
	p.ReconciledAt = &now
	return nil
}

func (p *Payment) applyApproval(approval ProviderPayment, now time.Time) error {
	if !approval.Amount.Equal(p.Amount) {
		return fmt.Errorf("payment %d approved %s, expected %s: %w", p.ID, approval.Amount, p.Amount, ErrAmountMismatch)
	}
	if err := approval.Data.Validate(); err != nil {
		return err
	}
	if approval.PaymentKey != "" {
		p.PaymentKey = approval.PaymentKey
	}
	approvedAt := approval.ApprovedAt
	if approvedAt.IsZero() {
		approvedAt = now
	}
	p.Status = PaymentStatusApproved
	p.ApprovedAt = &approvedAt
	p.FailureCode = ""
	p.FailureMsg = ""
	if !approval.Data.IsZero() {
		p.ProviderData = approval.Data
	}
	p.UpdatedAt = now
	return nil
}

// Fail помечает платеж неуспешным. Подтвержденный платеж пометить неуспешным нельзя.
func (p *Payment) Fail(code, message string, now time.Time) error {
	switch p.Status {
	case PaymentStatusApproved, PaymentStatusRefunded:
		return fmt.Errorf("payment %d: %w", p.ID, ErrPaymentAlreadyApproved)
	case PaymentStatusFailed:
		return fmt.Errorf("payment %d: %w", p.ID, ErrPaymentAlreadyFailed)
	case PaymentStatusCancelled:
		return fmt.Errorf("payment %d is %s: %w", p.ID, p.Status, ErrPaymentNotApprovable)
	}
	p.Status = PaymentStatusFailed
	p.FailureCode = code
	p.FailureMsg = message
	p.FailedAt = &now
	p.UpdatedAt = now
	return nil
}

// FailWith помечает платеж неуспешным с кодом и сообщением из ошибки провайдера.
func (p *Payment) FailWith(err error, now time.Time) error {
	code, msg := ProviderCodeNetworkError, err.Error()
	if pErr, ok := AsProviderError(err); ok {
		code, msg = pErr.Code, pErr.Message
	}
	return p.Fail(code, msg, now)
}

// FailureError восстанавливает ошибку провайдера для платежа в статусе failed.
func (p *Payment) FailureError() error {
	return NewProviderError(0, p.FailureCode, p.FailureMsg)
}

// MarkReconciled платеж проверен сверкой у провайдера и больше не требует внимания.
func (p *Payment) MarkReconciled(now time.Time) {
	p.ReconciledAt = &now
	p.UpdatedAt = now
}

func (p *Payment) NeedsReconciliation() bool {
	return p.Status == PaymentStatusFailed && p.FailureCode == ProviderCodeTimeout && p.ReconciledAt == nil
}

// Refund фиксирует возврат средств. amount не может превышать сумму платежа.
func (p *Payment) Refund(amount decimal.Decimal, now time.Time) error {
	if p.Status != PaymentStatusApproved {
		return fmt.Errorf("payment %d is %s: %w", p.ID, p.Status, ErrPaymentNotRefundable)
	}
	if !amount.IsPositive() || amount.GreaterThan(p.Amount) {
		return NewValidationError("amount", fmt.Sprintf("must be in (0, %s]", p.Amount))
	}
	p.Status = PaymentStatusRefunded
	p.Refunded = amount
	p.RefundedAt = &now
	p.UpdatedAt = now
	return nil
}

// Cancel отменяет неподтвержденный платеж. Платеж, ожидающий сверки, отменить нельзя.
func (p *Payment) Cancel(now time.Time) error {
	if p.NeedsReconciliation() {
		return fmt.Errorf("payment %d awaits reconciliation: %w", p.ID, ErrCancellationInProgress)
	}
	switch p.Status {
	case PaymentStatusPending, PaymentStatusReady, PaymentStatusFailed:
		p.Status = PaymentStatusCancelled
		p.UpdatedAt = now
		return nil
	default:
		return fmt.Errorf("payment %d is %s: %w", p.ID, p.Status, ErrPaymentNotApprovable)
	}
}
