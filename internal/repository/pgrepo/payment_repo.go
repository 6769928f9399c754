package pgrepo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jamongadejoa28/sassmall-sub003/internal/domain"
	"github.com/jamongadejoa28/sassmall-sub003/pkg/uow"
)

const paymentColumns = `id, created_at, updated_at, order_id, order_number, payment_key, method, amount, refunded,
	status, provider_data, failure_code, failure_msg, requested_at, approved_at, failed_at, refunded_at, reconciled_at`

type PaymentRepository struct {
	conn uow.DBTX
}

func NewPaymentRepository(conn uow.DBTX) *PaymentRepository {
	return &PaymentRepository{conn: conn}
}

// Create сохраняет новый платеж. Если платеж с таким ключом провайдера уже есть, возвращает
// domain.ErrDuplicateKey.
func (r *PaymentRepository) Create(ctx context.Context, p *domain.Payment) (*domain.Payment, error) {
	row := r.conn.QueryRow(ctx, `
		INSERT INTO payments (created_at, updated_at, order_id, order_number, payment_key, method, amount, refunded,
		                      status, provider_data, failure_code, failure_msg, requested_at, approved_at, failed_at,
		                      refunded_at, reconciled_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING `+paymentColumns,
		p.CreatedAt, p.UpdatedAt, nullableInt64(p.OrderID), p.OrderNumber, nullableString(p.PaymentKey), p.Method,
		p.Amount, p.Refunded, p.Status, p.ProviderData, p.FailureCode, p.FailureMsg, p.RequestedAt, p.ApprovedAt,
		p.FailedAt, p.RefundedAt, p.ReconciledAt,
	)
	created, err := scanPayment(row)
	if err != nil {
		return nil, convertErr(err, "creating payment for order `%s`", p.OrderNumber)
	}
	return created, nil
}

func (r *PaymentRepository) FindByID(ctx context.Context, id int64) (*domain.Payment, error) {
	p, err := scanPayment(r.conn.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id))
	if err != nil {
		return nil, convertErr(err, "finding payment %d", id)
	}
	return p, nil
}

func (r *PaymentRepository) FindByKey(ctx context.Context, key string) (*domain.Payment, error) {
	p, err := scanPayment(r.conn.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE payment_key = $1`, key))
	if err != nil {
		return nil, convertErr(err, "finding payment by key `%s`", key)
	}
	return p, nil
}

// FindOpenByOrderNumber возвращает последний платеж заказа в статусе pending или ready, еще не привязанный
// к другому ключу провайдера.
func (r *PaymentRepository) FindOpenByOrderNumber(
	ctx context.Context,
	number string,
	key string,
) (*domain.Payment, error) {
	p, err := scanPayment(r.conn.QueryRow(ctx, `
		SELECT `+paymentColumns+` FROM payments
		WHERE order_number = $1 AND status IN ('pending', 'ready') AND (payment_key IS NULL OR payment_key = $2)
		ORDER BY id DESC
		LIMIT 1`, number, key))
	if err != nil {
		return nil, convertErr(err, "finding open payment of order `%s`", number)
	}
	return p, nil
}

func (r *PaymentRepository) FindApprovedByOrderNumber(ctx context.Context, number string) (*domain.Payment, error) {
	p, err := scanPayment(r.conn.QueryRow(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE order_number = $1 AND status = 'approved'`, number))
	if err != nil {
		return nil, convertErr(err, "finding approved payment of order `%s`", number)
	}
	return p, nil
}

func (r *PaymentRepository) ListByOrderNumber(ctx context.Context, number string) ([]domain.Payment, error) {
	rows, err := r.conn.Query(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE order_number = $1 ORDER BY id`, number)
	if err != nil {
		return nil, convertErr(err, "listing payments of order `%s`", number)
	}
	payments, scanErr := collectPayments(rows)
	if scanErr != nil {
		return nil, convertErr(scanErr, "listing payments of order `%s`", number)
	}
	return payments, nil
}

// ListUnreconciledTimeouts платежи, помеченные failed из-за таймаута провайдера и еще не сверенные.
func (r *PaymentRepository) ListUnreconciledTimeouts(ctx context.Context, limit uint) ([]domain.Payment, error) {
	safeLimit, limitErr := safeConvertUintToInt32(limit)
	if limitErr != nil {
		return nil, convertErr(limitErr, "converting limit to int32")
	}
	rows, err := r.conn.Query(ctx, `
		SELECT `+paymentColumns+` FROM payments
		WHERE status = 'failed' AND failure_code = $1 AND reconciled_at IS NULL
		ORDER BY failed_at
		LIMIT $2`, domain.ProviderCodeTimeout, safeLimit)
	if err != nil {
		return nil, convertErr(err, "listing timed out payments")
	}
	payments, scanErr := collectPayments(rows)
	if scanErr != nil {
		return nil, convertErr(scanErr, "listing timed out payments")
	}
	return payments, nil
}

// Save сохраняет изменяемые поля платежа, если сохраненный статус равен expected. Иначе возвращает
// domain.ErrStaleState. Второй подтвержденный платеж по заказу возвращает domain.ErrDuplicateKey.
func (r *PaymentRepository) Save(ctx context.Context, p *domain.Payment, expected domain.PaymentStatusType) error {
	tag, err := r.conn.Exec(ctx, `
		UPDATE payments SET
			updated_at = $3, order_id = $4, payment_key = $5, refunded = $6, status = $7, provider_data = $8,
			failure_code = $9, failure_msg = $10, approved_at = $11, failed_at = $12, refunded_at = $13,
			reconciled_at = $14
		WHERE id = $1 AND status = $2`,
		p.ID, expected, p.UpdatedAt, nullableInt64(p.OrderID), nullableString(p.PaymentKey), p.Refunded, p.Status,
		p.ProviderData, p.FailureCode, p.FailureMsg, p.ApprovedAt, p.FailedAt, p.RefundedAt, p.ReconciledAt,
	)
	if err != nil {
		return convertErr(err, "saving payment %d", p.ID)
	}
	if tag.RowsAffected() == 0 {
		return staleStateErr("saving payment %d from %s", p.ID, expected)
	}
	return nil
}

func collectPayments(rows pgx.Rows) ([]domain.Payment, error) {
	defer rows.Close()
	var payments []domain.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating payments: %w", err)
	}
	return payments, nil
}

func scanPayment(row rowScanner) (*domain.Payment, error) {
	var (
		p       domain.Payment
		orderID *int64
		key     *string
	)
	if err := row.Scan(
		&p.ID, &p.CreatedAt, &p.UpdatedAt, &orderID, &p.OrderNumber, &key, &p.Method, &p.Amount, &p.Refunded,
		&p.Status, &p.ProviderData, &p.FailureCode, &p.FailureMsg, &p.RequestedAt, &p.ApprovedAt, &p.FailedAt,
		&p.RefundedAt, &p.ReconciledAt,
	); err != nil {
		return nil, err //nolint:wrapcheck
	}
	p.OrderID = derefInt64(orderID)
	p.PaymentKey = derefString(key)
	return &p, nil
}
