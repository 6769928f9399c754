package service

//go:generate mockgen -source=collaborators.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jamongadejoa28/sassmall-sub003/internal/domain"
	"github.com/jamongadejoa28/sassmall-sub003/internal/events"
)

// ProductCatalog каталог товаров и складские остатки. Методы остатков возвращают false, если операция
// отклонена (например, остатка не хватает), и ошибку, если сервис недоступен.
type ProductCatalog interface {
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	CheckStock(ctx context.Context, id int64, quantity int) (bool, error)
	ReserveStock(ctx context.Context, id int64, quantity int) (bool, error)
	ReleaseStock(ctx context.Context, id int64, quantity int) (bool, error)
	DecreaseInventory(ctx context.Context, id int64, quantity int, reference string) (bool, error)
}

type PaymentProvider interface {
	RequestPayment(ctx context.Context, req domain.PaymentRequest) (*domain.PaymentRedirect, error)
	ApprovePayment(
		ctx context.Context,
		key string,
		orderNumber string,
		amount decimal.Decimal,
	) (*domain.ProviderPayment, error)
	GetPaymentStatus(ctx context.Context, key string) (*domain.ProviderPayment, error)
	RefundPayment(ctx context.Context, req domain.RefundRequest) (*domain.ProviderRefund, error)
}

type UserDirectory interface {
	GetUser(ctx context.Context, id int64) (*domain.UserInfo, error)
}

type Notifier interface {
	SendOrderStatusNotification(ctx context.Context, n domain.StatusNotification) error
	SendOrderCancelNotification(ctx context.Context, n domain.CancelNotification) error
}

// EventPublisher ставит событие в очередь на публикацию. Ошибка означает, что событие не принято.
type EventPublisher interface {
	Publish(ctx context.Context, env events.Envelope) error
}

// KeyedLocker взаимное исключение по ключу между экземплярами сервиса.
type KeyedLocker interface {
	Lock(ctx context.Context, key string) (func(), error)
}
