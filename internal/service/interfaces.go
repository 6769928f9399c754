package service

import (
	"context"
	"time"

	"github.com/jamongadejoa28/sassmall-sub003/internal/domain"
	"github.com/jamongadejoa28/sassmall-sub003/internal/repository/repoargs"
)

type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) (*domain.Order, error)
	FindByID(ctx context.Context, id int64) (*domain.Order, error)
	FindByIDForUpdate(ctx context.Context, id int64) (*domain.Order, error)
	FindByOrderNumber(ctx context.Context, number string) (*domain.Order, error)
	UpdateStatus(ctx context.Context, args repoargs.UpdateOrderStatus) error
	ListByUser(ctx context.Context, args repoargs.ListUserOrders) ([]domain.Order, error)
	Search(ctx context.Context, filter repoargs.OrderSearch) ([]domain.Order, int64, error)
	Statistics(ctx context.Context, from, to time.Time) ([]repoargs.StatusStatistics, error)
}

type PaymentRepository interface {
	Create(ctx context.Context, p *domain.Payment) (*domain.Payment, error)
	FindByID(ctx context.Context, id int64) (*domain.Payment, error)
	FindByKey(ctx context.Context, key string) (*domain.Payment, error)
	FindOpenByOrderNumber(ctx context.Context, number string, key string) (*domain.Payment, error)
	FindApprovedByOrderNumber(ctx context.Context, number string) (*domain.Payment, error)
	ListByOrderNumber(ctx context.Context, number string) ([]domain.Payment, error)
	ListUnreconciledTimeouts(ctx context.Context, limit uint) ([]domain.Payment, error)
	Save(ctx context.Context, p *domain.Payment, expected domain.PaymentStatusType) error
}

type CheckoutRepository interface {
	Create(ctx context.Context, d *domain.CheckoutDraft) error
	FindByOrderNumber(ctx context.Context, number string) (*domain.CheckoutDraft, error)
	MarkMaterialized(ctx context.Context, id string, orderID int64, at time.Time) error
}

type SagaRepository interface {
	Create(ctx context.Context, s *domain.Saga) (*domain.Saga, error)
	FindByID(ctx context.Context, id int64) (*domain.Saga, error)
	FindOpenByOrderID(ctx context.Context, orderID int64) (*domain.Saga, error)
	Save(ctx context.Context, s *domain.Saga, expected domain.SagaStatusType) error
	ListStale(ctx context.Context, olderThan time.Time, limit uint) ([]domain.Saga, error)
}
