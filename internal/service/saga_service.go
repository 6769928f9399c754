package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jamongadejoa28/sassmall-sub003/internal/clock"
	"github.com/jamongadejoa28/sassmall-sub003/internal/domain"
	"github.com/jamongadejoa28/sassmall-sub003/internal/repository/repoargs"
	"github.com/jamongadejoa28/sassmall-sub003/pkg/uow"
)

const defaultSagaStaleAfter = time.Minute

// SagaService отмена и возврат заказа. Каждый шаг сохраняется, поэтому прерванную сагу можно продолжить
// с последнего завершенного шага: возврат денег, возврат остатков, финальный статус заказа.
type SagaService struct {
	uow        uow.UOW
	sagaRepo   SagaRepository
	orderRepo  OrderRepository
	payments   *PaymentService
	inventory  *InventoryCompensator
	emitter    *emitter
	metrics    MetricsRecorder
	staleAfter time.Duration
	clock      clock.Clock
	l          *logrus.Entry
}

func NewSagaService(deps Deps, payments *PaymentService) (*SagaService, error) {
	sagaRepo, err := uow.GetRepositoryAs[SagaRepository](deps.UOW, uow.RepositoryName(repoargs.SagaRepoName))
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	orderRepo, err := uow.GetRepositoryAs[OrderRepository](deps.UOW, uow.RepositoryName(repoargs.OrderRepoName))
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	staleAfter := deps.SagaStaleAfter
	if staleAfter <= 0 {
		staleAfter = defaultSagaStaleAfter
	}
	return &SagaService{
		uow:        deps.UOW,
		sagaRepo:   sagaRepo,
		orderRepo:  orderRepo,
		payments:   payments,
		inventory:  NewInventoryCompensator(deps.Catalog, deps.Logger),
		emitter:    newEmitter(deps),
		metrics:    deps.Metrics,
		staleAfter: staleAfter,
		clock:      deps.Clock,
		l: deps.Logger.WithFields(logrus.Fields{
			"component": "saga",
			"module":    "cancellation",
		}),
	}, nil
}

// CancelOrder отменяет заказ. Для оплаченного заказа сначала возвращаются деньги: если возврат не удался,
// заказ остается в прежнем статусе, а ошибка возвращается вызывающему.
func (s *SagaService) CancelOrder(
	ctx context.Context,
	actor domain.Actor,
	orderID int64,
	reason string,
) (*domain.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	if err = order.CanBeCancelledBy(actor); err != nil {
		return nil, err //nolint:wrapcheck
	}

	saga, err := s.sagaRepo.Create(ctx, domain.NewSaga(domain.NewSagaArgs{
		Order:        order,
		Kind:         domain.SagaKindCancel,
		Actor:        actor,
		Reason:       reason,
		ReleaseStock: true,
		Now:          s.clock.Now(),
	}))
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateKey) {
			return nil, fmt.Errorf("order %d: %w", orderID, domain.ErrCancellationInProgress)
		}
		return nil, err //nolint:wrapcheck
	}

	result, err := s.run(ctx, saga)
	if err != nil {
		// пока деньги не возвращены, отмену можно просто прервать: заказ не менялся.
		s.fail(ctx, saga, err, saga.Status == domain.SagaStatusStarted || orderChanged(saga, err))
		return nil, err
	}
	return result, nil
}

// RefundOrder возврат средств по оплаченному заказу. Заказ сразу переходит в REFUND_IN_PROGRESS и остается
// в нем, пока возврат не подтвержден провайдером. Остатки возвращаются, только если товар еще не отправлен.
func (s *SagaService) RefundOrder(
	ctx context.Context,
	actor domain.Actor,
	orderID int64,
	reason string,
) (*domain.Order, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("refund of order %d: %w", orderID, domain.ErrPermissionDenied)
	}

	var (
		saga  *domain.Saga
		order *domain.Order
		from  domain.OrderStatusType
	)
	txErr := s.uow.Do(ctx, func(c context.Context, tx uow.TX) error {
		orders, sagas, repoErr := orderAndSagaRepos(tx)
		if repoErr != nil {
			return repoErr
		}
		var findErr error
		if order, findErr = orders.FindByIDForUpdate(c, orderID); findErr != nil {
			return findErr //nolint:wrapcheck
		}
		from = order.Status
		releaseStock := order.Status.HasCapturedFunds()
		now := s.clock.Now()
		if err := order.ChangeStatus(actor, domain.OrderStatusRefundInProgress, now); err != nil {
			return err //nolint:wrapcheck
		}
		if err := orders.UpdateStatus(c, repoargs.UpdateOrderStatus{
			ID: order.ID, Expected: from, Status: order.Status, UpdatedAt: now,
		}); err != nil {
			return err //nolint:wrapcheck
		}

		var createErr error
		saga, createErr = sagas.Create(c, domain.NewSaga(domain.NewSagaArgs{
			Order:        order,
			Kind:         domain.SagaKindRefund,
			Actor:        actor,
			Reason:       reason,
			ReleaseStock: releaseStock,
			Now:          now,
		}))
		if errors.Is(createErr, domain.ErrDuplicateKey) {
			return fmt.Errorf("order %d: %w", orderID, domain.ErrCancellationInProgress)
		}
		return createErr //nolint:wrapcheck
	})
	if txErr != nil {
		return nil, fmt.Errorf("starting refund of order %d: %w", orderID, txErr)
	}
	s.emitter.statusUpdated(ctx, order, from, actor.UserID)

	result, err := s.run(ctx, saga)
	if err != nil {
		s.fail(ctx, saga, err, false)
		return nil, err
	}
	return result, nil
}

// StaleSagas незавершенные саги, которые нужно продолжить.
func (s *SagaService) StaleSagas(ctx context.Context, limit uint) ([]domain.Saga, error) {
	return s.sagaRepo.ListStale(ctx, s.clock.Now().Add(-s.staleAfter), limit) //nolint:wrapcheck
}

// Resume продолжает сагу с последнего сохраненного шага.
func (s *SagaService) Resume(ctx context.Context, saga domain.Saga) error {
	if !saga.Status.IsOpen() {
		return nil
	}
	if _, err := s.run(ctx, &saga); err != nil {
		s.fail(ctx, &saga, err, orderChanged(&saga, err))
		return err
	}
	return nil
}

func (s *SagaService) run(ctx context.Context, saga *domain.Saga) (*domain.Order, error) {
	log := s.l.WithFields(logrus.Fields{
		"sagaID":      saga.ID,
		"kind":        saga.Kind,
		"orderNumber": saga.OrderNumber,
	})

	if saga.Status == domain.SagaStatusStarted {
		order, err := s.orderRepo.FindByID(ctx, saga.OrderID)
		if err != nil {
			return nil, err //nolint:wrapcheck
		}
		if err = checkOrderState(saga, order); err != nil {
			return nil, err
		}
		paymentID, err := s.settleFunds(ctx, saga, order)
		if err != nil {
			return nil, err
		}
		if err = s.saveSaga(ctx, s.sagaRepo, saga, func(next *domain.Saga) error {
			next.PaymentID = paymentID
			return next.Advance(domain.SagaStatusFundsSettled, s.clock.Now()) //nolint:wrapcheck
		}); err != nil {
			return nil, err
		}
		log.WithField("paymentID", paymentID).Info("saga funds settled")
	}

	if saga.Status == domain.SagaStatusFundsSettled || saga.Status == domain.SagaStatusReleasePending {
		if err := s.releaseStock(ctx, saga); err != nil {
			return nil, err
		}
		if len(saga.PendingReleases) > 0 {
			log.WithField("lines", saga.PendingReleases).Warn("stock release pending")
		}
	}

	var (
		order        *domain.Order
		from         domain.OrderStatusType
		transitioned bool
	)
	txErr := s.uow.Do(ctx, func(c context.Context, tx uow.TX) error {
		orders, sagas, repoErr := orderAndSagaRepos(tx)
		if repoErr != nil {
			return repoErr
		}
		var findErr error
		if order, findErr = orders.FindByIDForUpdate(c, saga.OrderID); findErr != nil {
			return findErr //nolint:wrapcheck
		}
		from = order.Status
		var finalErr error
		if transitioned, finalErr = s.finalizeOrder(c, orders, saga, order); finalErr != nil {
			return finalErr
		}
		if saga.Status != domain.SagaStatusStockReleased {
			// release_pending остается открытой до возврата оставшихся позиций.
			return nil
		}
		return s.saveSaga(c, sagas, saga, func(next *domain.Saga) error {
			return next.Advance(domain.SagaStatusCompleted, s.clock.Now()) //nolint:wrapcheck
		})
	})
	if txErr != nil {
		return nil, fmt.Errorf("finishing %s saga %d: %w", saga.Kind, saga.ID, txErr)
	}

	log.WithField("status", saga.Status).Info("saga step done")
	s.recordSaga(saga.Kind, string(saga.Status))

	if transitioned {
		if saga.Kind == domain.SagaKindCancel {
			s.emitter.cancelled(ctx, order, saga)
		} else {
			s.emitter.statusUpdated(ctx, order, from, saga.Actor.UserID)
		}
	}
	return order, nil
}

// releaseStock возвращает на склад позиции саги и сохраняет результат отдельно от перевода заказа, чтобы
// повторный запуск не возвращал уже возвращенные позиции. Перед возвратом проверяет, что заказ еще можно
// перевести в финальный статус саги.
func (s *SagaService) releaseStock(ctx context.Context, saga *domain.Saga) error {
	if len(saga.PendingReleases) > 0 {
		order, err := s.orderRepo.FindByID(ctx, saga.OrderID)
		if err != nil {
			return err //nolint:wrapcheck
		}
		if err = checkOrderState(saga, order); err != nil {
			return err
		}
	}
	failed := s.inventory.Release(ctx, saga.PendingReleases)
	return s.saveSaga(ctx, s.sagaRepo, saga, func(next *domain.Saga) error {
		return next.SettleReleases(failed, s.clock.Now()) //nolint:wrapcheck
	})
}

// settleFunds возврат денег по оплаченному заказу или отмена неподтвержденных платежей. Возвращает
// идентификатор платежа, по которому прошел возврат.
func (s *SagaService) settleFunds(ctx context.Context, saga *domain.Saga, order *domain.Order) (int64, error) {
	if saga.Kind == domain.SagaKindCancel && !order.RequiresRefundOnCancel() {
		return 0, s.payments.CancelOpenPayments(ctx, order.OrderNumber)
	}

	p, err := s.payments.SettledPayment(ctx, order.OrderNumber)
	if err != nil {
		return 0, err
	}
	refunded, err := s.payments.RefundPayment(ctx, RefundPaymentArgs{
		PaymentID:      p.ID,
		Reason:         saga.Reason,
		IdempotencyKey: "saga-" + strconv.FormatInt(saga.ID, 10),
	})
	if err != nil {
		return 0, err
	}
	return refunded.ID, nil
}

// finalizeOrder переводит заказ в финальный статус саги. Возвращает false, если заказ уже в нем.
func (s *SagaService) finalizeOrder(
	ctx context.Context,
	repo OrderRepository,
	saga *domain.Saga,
	order *domain.Order,
) (bool, error) {
	if err := checkOrderState(saga, order); err != nil {
		return false, err
	}
	now := s.clock.Now()
	from := order.Status
	switch saga.Kind {
	case domain.SagaKindCancel:
		if order.Status == domain.OrderStatusCancelled {
			return false, nil
		}
		if err := order.Cancel(saga.Actor, now); err != nil {
			return false, err //nolint:wrapcheck
		}
	case domain.SagaKindRefund:
		if order.Status == domain.OrderStatusRefunded {
			return false, nil
		}
		if err := order.TransitionTo(domain.OrderStatusRefunded, now); err != nil {
			return false, err //nolint:wrapcheck
		}
	default:
		return false, fmt.Errorf("saga %d kind %q: %w", saga.ID, saga.Kind, domain.ErrUnknown)
	}
	if err := repo.UpdateStatus(ctx, repoargs.UpdateOrderStatus{
		ID: order.ID, Expected: from, Status: order.Status, UpdatedAt: now,
	}); err != nil {
		return false, err //nolint:wrapcheck
	}
	return true, nil
}

// saveSaga применяет mutate к копии саги и сохраняет ее. saga меняется, только если сохранение прошло.
func (s *SagaService) saveSaga(
	ctx context.Context,
	repo SagaRepository,
	saga *domain.Saga,
	mutate func(next *domain.Saga) error,
) error {
	next := *saga
	if err := mutate(&next); err != nil {
		return err
	}
	if err := repo.Save(ctx, &next, saga.Status); err != nil {
		return err //nolint:wrapcheck
	}
	*saga = next
	return nil
}

// fail фиксирует неудачный шаг. abort закрывает сагу сразу, иначе учитывается попытка и сага будет
// продолжена восстановлением, пока попытки не исчерпаны.
func (s *SagaService) fail(ctx context.Context, saga *domain.Saga, cause error, abort bool) {
	ctx = context.WithoutCancel(ctx)
	exhausted := false
	err := s.saveSaga(ctx, s.sagaRepo, saga, func(next *domain.Saga) error {
		if abort {
			next.Abort(cause, s.clock.Now())
			return nil
		}
		exhausted = next.RecordFailure(cause, s.clock.Now())
		return nil
	})

	log := s.l.WithError(cause).WithFields(logrus.Fields{
		"sagaID":      saga.ID,
		"kind":        saga.Kind,
		"orderNumber": saga.OrderNumber,
		"attempts":    saga.Attempts,
	})
	if err != nil {
		log.WithField("saveError", err.Error()).Error("saga failure not recorded")
		return
	}
	switch {
	case abort:
		log.Warn("saga aborted")
		s.recordSaga(saga.Kind, "aborted")
	case exhausted:
		log.Error("saga failed, attempts exhausted, manual intervention required")
		s.recordSaga(saga.Kind, string(domain.SagaStatusFailed))
	default:
		log.Warn("saga step failed, will be resumed")
		s.recordSaga(saga.Kind, "retry")
	}
}

func (s *SagaService) recordSaga(kind domain.SagaKindType, outcome string) {
	if s.metrics != nil {
		s.metrics.Saga(string(kind), outcome)
	}
}

// checkOrderState проверяет, что заказ все еще можно перевести в финальный статус саги. Заказ, оплаченный
// после отмены неподтвержденных платежей, отменять нельзя: возврата по нему не было.
func checkOrderState(saga *domain.Saga, order *domain.Order) error {
	switch saga.Kind {
	case domain.SagaKindCancel:
		if order.Status == domain.OrderStatusCancelled {
			return nil
		}
		if saga.Status != domain.SagaStatusStarted && saga.PaymentID == 0 && order.RequiresRefundOnCancel() {
			return fmt.Errorf("order %d paid during cancellation: %w", order.ID,
				domain.NewInvalidTransitionError(order.Status, domain.OrderStatusCancelled))
		}
		return order.CanBeCancelledBy(saga.Actor) //nolint:wrapcheck
	case domain.SagaKindRefund:
		if order.Status == domain.OrderStatusRefundInProgress || order.Status == domain.OrderStatusRefunded {
			return nil
		}
		return domain.NewInvalidTransitionError(order.Status, domain.OrderStatusRefunded)
	default:
		return fmt.Errorf("saga %d kind %q: %w", saga.ID, saga.Kind, domain.ErrUnknown)
	}
}

// orderChanged заказ изменился так, что сагу нельзя завершить. Пока деньги не возвращены, такую сагу
// можно закрыть без повторов.
func orderChanged(saga *domain.Saga, err error) bool {
	return saga.PaymentID == 0 &&
		(errors.Is(err, domain.ErrInvalidTransition) || errors.Is(err, domain.ErrPermissionDenied))
}

func orderAndSagaRepos(tx uow.TX) (OrderRepository, SagaRepository, error) {
	orders, err := uow.GetAs[OrderRepository](tx, uow.RepositoryName(repoargs.OrderRepoName))
	if err != nil {
		return nil, nil, err //nolint:wrapcheck
	}
	sagas, err := uow.GetAs[SagaRepository](tx, uow.RepositoryName(repoargs.SagaRepoName))
	if err != nil {
		return nil, nil, err //nolint:wrapcheck
	}
	return orders, sagas, nil
}
