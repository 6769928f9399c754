package recovery

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"github.com/jamongadejoa28/sassmall-sub003/internal/domain"
)

// SagaResumer продолжение незавершенных саг отмены и возврата.
type SagaResumer interface {
	StaleSagas(ctx context.Context, limit uint) ([]domain.Saga, error)
	Resume(ctx context.Context, saga domain.Saga) error
}

// PaymentReconciler сверка платежей, подтверждение которых завершилось таймаутом провайдера.
type PaymentReconciler interface {
	TimedOutPayments(ctx context.Context, limit uint) ([]domain.Payment, error)
	ReconcilePayment(ctx context.Context, payment domain.Payment) error
}

type MetricsRecorder interface {
	RecoveryTask(task, outcome string)
}
