package api

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"net/http"
	"time"

	"github.com/jamongadejoa28/sassmall-sub003/internal/domain"
	"github.com/jamongadejoa28/sassmall-sub003/internal/repository/repoargs"
	"github.com/jamongadejoa28/sassmall-sub003/internal/service"
)

type OrderServicer interface {
	ValidateOrder(ctx context.Context, actor domain.Actor, args service.CreateOrderArgs) (*domain.Order, error)
	CreateOrder(ctx context.Context, actor domain.Actor, args service.CreateOrderArgs) (*domain.Order, error)
	GetOrder(ctx context.Context, actor domain.Actor, id int64) (*domain.Order, error)
	GetOrderSummary(ctx context.Context, actor domain.Actor, id int64) (*service.OrderSummary, error)
	ListOwnOrders(
		ctx context.Context,
		userID int64,
		status domain.OrderStatusType,
		limit, offset uint,
	) ([]service.OrderSummary, error)
	UpdateStatus(
		ctx context.Context,
		actor domain.Actor,
		id int64,
		to domain.OrderStatusType,
		reason string,
	) (*domain.Order, error)
	CancelOrder(ctx context.Context, actor domain.Actor, id int64, reason string) (*domain.Order, error)
	RefundOrder(ctx context.Context, actor domain.Actor, id int64, reason string) (*domain.Order, error)
	BulkUpdateStatus(
		ctx context.Context,
		actor domain.Actor,
		ids []int64,
		to domain.OrderStatusType,
		reason string,
	) ([]service.BulkStatusResult, error)
	AdminSearch(ctx context.Context, actor domain.Actor, filter repoargs.OrderSearch) ([]domain.Order, int64, error)
	AdminStatistics(ctx context.Context, actor domain.Actor, from, to time.Time) ([]repoargs.StatusStatistics, error)
}

type PaymentServicer interface {
	RequestPayment(ctx context.Context, actor domain.Actor, orderID int64) (*service.PaymentRedirectResult, error)
	RequestCheckoutPayment(
		ctx context.Context,
		actor domain.Actor,
		args service.CreateOrderArgs,
	) (*service.PaymentRedirectResult, error)
	ApprovePayment(
		ctx context.Context,
		actor domain.Actor,
		args service.ApprovePaymentArgs,
	) (*service.ApprovalResult, error)
}

// HealthChecker проверка доступности хранилища.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

type MetricsRecorder interface {
	ObserveHTTP(handler, method string, status int, d time.Duration)
	Handler() http.Handler
}
