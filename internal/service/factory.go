package service

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jamongadejoa28/sassmall-sub003/internal/clock"
	"github.com/jamongadejoa28/sassmall-sub003/pkg/uow"
)

const defaultServiceName = "order-service"

// Timeouts ограничения на вызовы платежного провайдера.
type Timeouts struct {
	PaymentRequest time.Duration
	PaymentApprove time.Duration
	PaymentRefund  time.Duration
}

func DefaultTimeouts() Timeouts {
	return Timeouts{
		PaymentRequest: 10 * time.Second,
		PaymentApprove: 30 * time.Second,
		PaymentRefund:  30 * time.Second,
	}
}

// MetricsRecorder метрики бизнес-операций.
type MetricsRecorder interface {
	Settlement(outcome string, d time.Duration)
	Saga(kind, outcome string)
}

// Deps зависимости сервисного слоя. UOW должен содержать репозитории заказов, платежей, черновиков и саг.
type Deps struct {
	UOW       uow.UOW
	Catalog   ProductCatalog
	Provider  PaymentProvider
	Users     UserDirectory
	Notifier  Notifier
	Publisher EventPublisher
	Locker    KeyedLocker
	Metrics   MetricsRecorder
	Clock     clock.Clock
	Logger    *logrus.Logger

	ServiceName    string
	Timeouts       Timeouts
	SagaStaleAfter time.Duration
}

func (d Deps) withDefaults() Deps {
	if d.Clock == nil {
		d.Clock = clock.NewSystem()
	}
	if d.Logger == nil {
		d.Logger = logrus.StandardLogger()
	}
	if d.ServiceName == "" {
		d.ServiceName = defaultServiceName
	}
	defaults := DefaultTimeouts()
	if d.Timeouts.PaymentRequest <= 0 {
		d.Timeouts.PaymentRequest = defaults.PaymentRequest
	}
	if d.Timeouts.PaymentApprove <= 0 {
		d.Timeouts.PaymentApprove = defaults.PaymentApprove
	}
	if d.Timeouts.PaymentRefund <= 0 {
		d.Timeouts.PaymentRefund = defaults.PaymentRefund
	}
	return d
}

type AppServices struct {
	OrderService   *OrderService
	PaymentService *PaymentService
	SagaService    *SagaService
}

func Factory(deps Deps) (*AppServices, error) {
	deps = deps.withDefaults()
	if deps.UOW == nil || deps.Catalog == nil || deps.Provider == nil || deps.Users == nil {
		return nil, fmt.Errorf("service factory: unit of work, catalog, provider and users are required")
	}

	orderService, orderServiceErr := NewOrderService(deps)
	if orderServiceErr != nil {
		return nil, fmt.Errorf("service factory: %s", orderServiceErr.Error())
	}

	paymentService, paymentServiceErr := NewPaymentService(deps, orderService)
	if paymentServiceErr != nil {
		return nil, fmt.Errorf("service factory: %s", paymentServiceErr.Error())
	}

	sagaService, sagaServiceErr := NewSagaService(deps, paymentService)
	if sagaServiceErr != nil {
		return nil, fmt.Errorf("service factory: %s", sagaServiceErr.Error())
	}
	orderService.SetCanceller(sagaService)

	return &AppServices{
		OrderService:   orderService,
		PaymentService: paymentService,
		SagaService:    sagaService,
	}, nil
}
