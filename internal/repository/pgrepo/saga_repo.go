package pgrepo

import (
	"context"
	"fmt"
	"time"

	"github.com/jamongadejoa28/sassmall-sub003/internal/domain"
	"github.com/jamongadejoa28/sassmall-sub003/pkg/uow"
)

const sagaColumns = `id, created_at, updated_at, order_id, order_number, kind, status, reason, actor_id, actor_role,
	payment_id, pending_releases, attempts, last_error`

type SagaRepository struct {
	conn uow.DBTX
}

func NewSagaRepository(conn uow.DBTX) *SagaRepository {
	return &SagaRepository{conn: conn}
}

// Create сохраняет новую сагу. Если по заказу уже есть незавершенная сага, возвращает domain.ErrDuplicateKey.
func (r *SagaRepository) Create(ctx context.Context, s *domain.Saga) (*domain.Saga, error) {
	created, err := scanSaga(r.conn.QueryRow(ctx, `
		INSERT INTO order_sagas (created_at, updated_at, order_id, order_number, kind, status, reason, actor_id,
		                         actor_role, payment_id, pending_releases, attempts, last_error)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING `+sagaColumns,
		s.CreatedAt, s.UpdatedAt, s.OrderID, s.OrderNumber, s.Kind, s.Status, s.Reason, s.Actor.UserID, s.Actor.Role,
		nullableInt64(s.PaymentID), pendingReleases(s.PendingReleases), s.Attempts, s.LastError,
	))
	if err != nil {
		return nil, convertErr(err, "creating %s saga for order %d", s.Kind, s.OrderID)
	}
	return created, nil
}

func (r *SagaRepository) FindByID(ctx context.Context, id int64) (*domain.Saga, error) {
	s, err := scanSaga(r.conn.QueryRow(ctx, `SELECT `+sagaColumns+` FROM order_sagas WHERE id = $1`, id))
	if err != nil {
		return nil, convertErr(err, "finding saga %d", id)
	}
	return s, nil
}

func (r *SagaRepository) FindOpenByOrderID(ctx context.Context, orderID int64) (*domain.Saga, error) {
	s, err := scanSaga(r.conn.QueryRow(ctx, `
		SELECT `+sagaColumns+` FROM order_sagas
		WHERE order_id = $1 AND status NOT IN ('completed', 'failed')`, orderID))
	if err != nil {
		return nil, convertErr(err, "finding open saga of order %d", orderID)
	}
	return s, nil
}

// Save сохраняет состояние саги, если сохраненный статус равен expected. Иначе возвращает domain.ErrStaleState.
func (r *SagaRepository) Save(ctx context.Context, s *domain.Saga, expected domain.SagaStatusType) error {
	tag, err := r.conn.Exec(ctx, `
		UPDATE order_sagas SET
			updated_at = $3, status = $4, payment_id = $5, pending_releases = $6, attempts = $7, last_error = $8
		WHERE id = $1 AND status = $2`,
		s.ID, expected, s.UpdatedAt, s.Status, nullableInt64(s.PaymentID), pendingReleases(s.PendingReleases),
		s.Attempts, s.LastError,
	)
	if err != nil {
		return convertErr(err, "saving saga %d", s.ID)
	}
	if tag.RowsAffected() == 0 {
		return staleStateErr("saving saga %d from %s", s.ID, expected)
	}
	return nil
}

// ListStale незавершенные саги: в ожидании возврата остатков или не обновлявшиеся с olderThan.
func (r *SagaRepository) ListStale(ctx context.Context, olderThan time.Time, limit uint) ([]domain.Saga, error) {
	safeLimit, limitErr := safeConvertUintToInt32(limit)
	if limitErr != nil {
		return nil, convertErr(limitErr, "converting limit to int32")
	}
	rows, err := r.conn.Query(ctx, `
		SELECT `+sagaColumns+` FROM order_sagas
		WHERE status = 'release_pending'
		   OR (status IN ('started', 'funds_settled', 'stock_released') AND updated_at < $1)
		ORDER BY updated_at
		LIMIT $2`, olderThan, safeLimit)
	if err != nil {
		return nil, convertErr(err, "listing stale sagas")
	}
	defer rows.Close()

	var sagas []domain.Saga
	for rows.Next() {
		s, scanErr := scanSaga(rows)
		if scanErr != nil {
			return nil, convertErr(scanErr, "scanning saga")
		}
		sagas = append(sagas, *s)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, convertErr(fmt.Errorf("iterating sagas: %w", rowsErr), "listing stale sagas")
	}
	return sagas, nil
}

// pendingReleases пустой список хранится как [], а не null.
func pendingReleases(lines []domain.StockLine) []domain.StockLine {
	if lines == nil {
		return []domain.StockLine{}
	}
	return lines
}

func scanSaga(row rowScanner) (*domain.Saga, error) {
	var (
		s         domain.Saga
		paymentID *int64
	)
	if err := row.Scan(
		&s.ID, &s.CreatedAt, &s.UpdatedAt, &s.OrderID, &s.OrderNumber, &s.Kind, &s.Status, &s.Reason,
		&s.Actor.UserID, &s.Actor.Role, &paymentID, &s.PendingReleases, &s.Attempts, &s.LastError,
	); err != nil {
		return nil, err //nolint:wrapcheck
	}
	s.PaymentID = derefInt64(paymentID)
	return &s, nil
}
