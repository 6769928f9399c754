package pgrepo

import (
	"context"
	"time"

	"github.com/jamongadejoa28/sassmall-sub003/internal/domain"
	"github.com/jamongadejoa28/sassmall-sub003/pkg/uow"
)

type CheckoutRepository struct {
	conn uow.DBTX
}

func NewCheckoutRepository(conn uow.DBTX) *CheckoutRepository {
	return &CheckoutRepository{conn: conn}
}

func (r *CheckoutRepository) Create(ctx context.Context, d *domain.CheckoutDraft) error {
	_, err := r.conn.Exec(ctx, `
		INSERT INTO checkout_drafts (id, created_at, order_number, user_id, amount, items, address, payment_method, memo)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		d.ID, d.CreatedAt, d.OrderNumber, d.UserID, d.Amount, d.Items, d.Address, d.PaymentMethod, d.Memo,
	)
	if err != nil {
		return convertErr(err, "creating checkout draft `%s`", d.OrderNumber)
	}
	return nil
}

func (r *CheckoutRepository) FindByOrderNumber(ctx context.Context, number string) (*domain.CheckoutDraft, error) {
	var (
		d       domain.CheckoutDraft
		orderID *int64
	)
	err := r.conn.QueryRow(ctx, `
		SELECT id::text, created_at, order_number, user_id, amount, items, address, payment_method, memo,
		       materialized_at, order_id
		FROM checkout_drafts WHERE order_number = $1`, number,
	).Scan(
		&d.ID, &d.CreatedAt, &d.OrderNumber, &d.UserID, &d.Amount, &d.Items, &d.Address, &d.PaymentMethod, &d.Memo,
		&d.MaterializedAt, &orderID,
	)
	if err != nil {
		return nil, convertErr(err, "finding checkout draft `%s`", number)
	}
	d.OrderID = derefInt64(orderID)
	return &d, nil
}

// MarkMaterialized связывает черновик с созданным заказом. Повторная материализация возвращает
// domain.ErrStaleState.
func (r *CheckoutRepository) MarkMaterialized(ctx context.Context, id string, orderID int64, at time.Time) error {
	tag, err := r.conn.Exec(ctx, `
		UPDATE checkout_drafts SET materialized_at = $3, order_id = $2
		WHERE id = $1 AND materialized_at IS NULL`, id, orderID, at)
	if err != nil {
		return convertErr(err, "materializing checkout draft %s", id)
	}
	if tag.RowsAffected() == 0 {
		return staleStateErr("materializing checkout draft %s", id)
	}
	return nil
}
