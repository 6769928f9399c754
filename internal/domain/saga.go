package domain

import (
	"fmt"
	"time"
)

// MaxSagaAttempts после стольких неудачных попыток возобновления сага помечается failed.
const MaxSagaAttempts = 5

var sagaTransitions = map[SagaStatusType][]SagaStatusType{
	SagaStatusStarted:        {SagaStatusFundsSettled, SagaStatusFailed},
	SagaStatusFundsSettled:   {SagaStatusStockReleased, SagaStatusReleasePending, SagaStatusFailed},
	SagaStatusReleasePending: {SagaStatusStockReleased, SagaStatusFailed},
	SagaStatusStockReleased:  {SagaStatusCompleted, SagaStatusFailed},
}

type NewSagaArgs struct {
	Order  *Order
	Kind   SagaKindType
	Actor  Actor
	Reason string
	// ReleaseStock вернуть ли остатки всех позиций заказа на склад.
	ReleaseStock bool
	Now          time.Time
}

func NewSaga(args NewSagaArgs) *Saga {
	saga := &Saga{
		CreatedAt:   args.Now,
		UpdatedAt:   args.Now,
		OrderID:     args.Order.ID,
		OrderNumber: args.Order.OrderNumber,
		Kind:        args.Kind,
		Status:      SagaStatusStarted,
		Reason:      args.Reason,
		Actor:       args.Actor,
	}
	if args.ReleaseStock {
		saga.PendingReleases = args.Order.StockLines()
	}
	return saga
}

// Advance переводит сагу в следующий шаг.
func (s *Saga) Advance(to SagaStatusType, now time.Time) error {
	for _, allowed := range sagaTransitions[s.Status] {
		if allowed == to {
			s.Status = to
			s.UpdatedAt = now
			return nil
		}
	}
	return fmt.Errorf("saga %d from %s to %s: %w", s.ID, s.Status, to, ErrInvalidTransition)
}

// RecordFailure учитывает неудачную попытку шага. Возвращает true, если попытки исчерпаны и сага
// переведена в failed.
func (s *Saga) RecordFailure(err error, now time.Time) bool {
	s.Attempts++
	s.LastError = err.Error()
	s.UpdatedAt = now
	if s.Attempts >= MaxSagaAttempts {
		s.Status = SagaStatusFailed
		return true
	}
	return false
}

// Abort переводит сагу в failed без учета попыток.
func (s *Saga) Abort(err error, now time.Time) {
	s.LastError = err.Error()
	s.Status = SagaStatusFailed
	s.UpdatedAt = now
}

// SettleReleases сохраняет позиции, которые вернуть на склад не удалось. Без таких позиций сага переходит
// в stock_released, иначе остается в release_pending.
func (s *Saga) SettleReleases(failed []StockLine, now time.Time) error {
	if len(failed) == 0 {
		if err := s.Advance(SagaStatusStockReleased, now); err != nil {
			return err
		}
		s.PendingReleases = nil
		return nil
	}
	if s.Status != SagaStatusFundsSettled && s.Status != SagaStatusReleasePending {
		return fmt.Errorf("saga %d releasing stock in %s: %w", s.ID, s.Status, ErrInvalidTransition)
	}
	s.PendingReleases = failed
	if s.Status == SagaStatusReleasePending {
		s.UpdatedAt = now
		return nil
	}
	return s.Advance(SagaStatusReleasePending, now)
}
