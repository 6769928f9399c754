package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/jamongadejoa28/sassmall-sub003/internal/clock"
	"github.com/jamongadejoa28/sassmall-sub003/internal/domain"
	"github.com/jamongadejoa28/sassmall-sub003/internal/repository/repoargs"
	"github.com/jamongadejoa28/sassmall-sub003/pkg/uow"
)

const (
	locateMaxAttempts = 3
	locateRetryDelay  = 50 * time.Millisecond

	paymentLockPrefix = "payment:"
)

// Исходы подтверждения платежа для метрик.
const (
	settlementApproved       = "approved"
	settlementAlreadySettled = "already_settled"
	settlementDeduplicated   = "deduplicated"
	settlementFailed         = "failed"
	settlementRejected       = "rejected"
	settlementCompensated    = "compensated"
	settlementError          = "error"
)

type ApprovePaymentArgs struct {
	PaymentKey string
	// OrderNumber номер заказа, который провайдер возвращает как orderId.
	OrderNumber string
	Amount      decimal.Decimal
}

// ApprovalResult итог подтверждения платежа. Собирается из сохраненного состояния платежа, поэтому
// одинаков для всех участников одного подтверждения и для повторных вызовов с тем же ключом.
type ApprovalResult struct {
	PaymentID   int64
	PaymentKey  string
	OrderID     int64
	OrderNumber string
	Amount      decimal.Decimal
	Status      domain.PaymentStatusType
	ApprovedAt  time.Time
	UserID      int64
}

type PaymentRedirectResult struct {
	PaymentID   int64
	PaymentKey  string
	OrderNumber string
	Amount      decimal.Decimal
	RedirectURL string
}

type RefundPaymentArgs struct {
	PaymentID int64
	// Amount nil - полный возврат.
	Amount         *decimal.Decimal
	Reason         string
	IdempotencyKey string
}

type PaymentService struct {
	uow          uow.UOW
	paymentRepo  PaymentRepository
	orderRepo    OrderRepository
	checkoutRepo CheckoutRepository
	orders       *OrderService
	provider     PaymentProvider
	users        UserDirectory
	locker       KeyedLocker
	inventory    *InventoryCompensator
	emitter      *emitter
	flights      singleflight.Group
	metrics      MetricsRecorder
	timeouts     Timeouts
	clock        clock.Clock
	l            *logrus.Entry
}

func NewPaymentService(deps Deps, orders *OrderService) (*PaymentService, error) {
	paymentRepo, err := uow.GetRepositoryAs[PaymentRepository](deps.UOW, uow.RepositoryName(repoargs.PaymentRepoName))
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	orderRepo, err := uow.GetRepositoryAs[OrderRepository](deps.UOW, uow.RepositoryName(repoargs.OrderRepoName))
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	checkoutRepo, err := uow.GetRepositoryAs[CheckoutRepository](deps.UOW, uow.RepositoryName(repoargs.CheckoutRepoName))
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	return &PaymentService{
		uow:          deps.UOW,
		paymentRepo:  paymentRepo,
		orderRepo:    orderRepo,
		checkoutRepo: checkoutRepo,
		orders:       orders,
		provider:     deps.Provider,
		users:        deps.Users,
		locker:       deps.Locker,
		inventory:    NewInventoryCompensator(deps.Catalog, deps.Logger),
		emitter:      newEmitter(deps),
		metrics:      deps.Metrics,
		timeouts:     deps.Timeouts,
		clock:        deps.Clock,
		l: deps.Logger.WithFields(logrus.Fields{
			"component": "settlement",
			"module":    "payment",
		}),
	}, nil
}

// settlementTarget оплачиваемый заказ или черновик заказа, который будет создан после оплаты.
type settlementTarget struct {
	order *domain.Order
	draft *domain.CheckoutDraft
}

func (t settlementTarget) orderID() int64 {
	if t.order != nil {
		return t.order.ID
	}
	return 0
}

func (t settlementTarget) orderNumber() string {
	if t.order != nil {
		return t.order.OrderNumber
	}
	return t.draft.OrderNumber
}

func (t settlementTarget) userID() int64 {
	if t.order != nil {
		return t.order.UserID
	}
	return t.draft.UserID
}

func (t settlementTarget) amount() decimal.Decimal {
	if t.order != nil {
		return t.order.TotalAmount
	}
	return t.draft.Amount
}

func (t settlementTarget) method() domain.PaymentMethodType {
	if t.order != nil {
		return t.order.PaymentMethod
	}
	return t.draft.PaymentMethod
}

// RequestPayment открывает платежную сессию у провайдера для существующего заказа.
func (s *PaymentService) RequestPayment(ctx context.Context, actor domain.Actor, orderID int64) (*PaymentRedirectResult, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	target := settlementTarget{order: order}
	if err = s.checkPayable(target, actor, order.TotalAmount); err != nil {
		return nil, err
	}
	return s.requestProvider(ctx, target, order.Title())
}

// RequestCheckoutPayment открывает платежную сессию для заказа, который будет создан только после
// подтверждения оплаты. Корзина проверяется так же, как при создании заказа, а снимок позиций сохраняется
// в черновике.
func (s *PaymentService) RequestCheckoutPayment(
	ctx context.Context,
	actor domain.Actor,
	args CreateOrderArgs,
) (*PaymentRedirectResult, error) {
	order, err := s.orders.prepareOrder(ctx, actor, args)
	if err != nil {
		return nil, err
	}

	draft := &domain.CheckoutDraft{
		ID:            uuid.NewString(),
		CreatedAt:     s.clock.Now(),
		UserID:        order.UserID,
		Amount:        order.TotalAmount,
		Items:         order.Items,
		Address:       order.ShippingAddress,
		PaymentMethod: order.PaymentMethod,
		Memo:          order.Memo,
	}
	for attempt := 1; ; attempt++ {
		draft.OrderNumber = newOrderNumber(draft.CreatedAt)
		err = s.checkoutRepo.Create(ctx, draft)
		if err == nil {
			break
		}
		if !errors.Is(err, domain.ErrDuplicateKey) || attempt == orderNumberMaxAttempts {
			return nil, fmt.Errorf("creating checkout draft: %w", err)
		}
	}

	return s.requestProvider(ctx, settlementTarget{draft: draft}, order.Title())
}

func (s *PaymentService) requestProvider(
	ctx context.Context,
	target settlementTarget,
	title string,
) (*PaymentRedirectResult, error) {
	p, err := domain.NewPayment(domain.NewPaymentArgs{
		OrderID:     target.orderID(),
		OrderNumber: target.orderNumber(),
		Method:      target.method(),
		Amount:      target.amount(),
		Now:         s.clock.Now(),
	})
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	if p, err = s.paymentRepo.Create(ctx, p); err != nil {
		return nil, err //nolint:wrapcheck
	}

	req := domain.PaymentRequest{
		OrderNumber: p.OrderNumber,
		OrderName:   title,
		Amount:      p.Amount,
		Method:      p.Method,
		CustomerID:  target.userID(),
	}
	if user, userErr := s.users.GetUser(ctx, target.userID()); userErr == nil {
		req.CustomerName = user.Name
		req.CustomerEmail = user.Email
	} else {
		s.l.WithError(userErr).WithField("userID", target.userID()).Debug("customer details unavailable")
	}

	pctx, cancel := context.WithTimeout(ctx, s.timeouts.PaymentRequest)
	redirect, err := s.provider.RequestPayment(pctx, req)
	cancel()
	if err != nil {
		s.failPayment(ctx, p, err)
		return nil, fmt.Errorf("requesting payment for order %s: %w", p.OrderNumber, err)
	}

	expected := p.Status
	if err = p.MarkReady(redirect.PaymentKey, redirect.Data, s.clock.Now()); err != nil {
		return nil, err //nolint:wrapcheck
	}
	if err = s.paymentRepo.Save(ctx, p, expected); err != nil {
		return nil, err //nolint:wrapcheck
	}

	s.l.WithFields(logrus.Fields{
		"paymentID":   p.ID,
		"orderNumber": p.OrderNumber,
		"amount":      p.Amount.String(),
	}).Info("payment requested")

	return &PaymentRedirectResult{
		PaymentID:   p.ID,
		PaymentKey:  p.PaymentKey,
		OrderNumber: p.OrderNumber,
		Amount:      p.Amount,
		RedirectURL: redirect.RedirectURL,
	}, nil
}

type flightResult struct {
	result  *ApprovalResult
	outcome string
}

// ApprovePayment подтверждает платеж у провайдера и переводит заказ в PAYMENT_COMPLETED.
//
// Одновременные вызовы с одним ключом платежа внутри процесса объединяются в одно выполнение, между
// экземплярами сервиса подтверждение сериализуется блокировкой по ключу. Повторный вызов после завершения
// читает сохраненное состояние и не обращается к провайдеру.
func (s *PaymentService) ApprovePayment(
	ctx context.Context,
	actor domain.Actor,
	args ApprovePaymentArgs,
) (*ApprovalResult, error) {
	switch {
	case args.PaymentKey == "":
		return nil, domain.NewValidationError("paymentKey", "is required")
	case args.OrderNumber == "":
		return nil, domain.NewValidationError("orderId", "is required")
	case !args.Amount.IsPositive():
		return nil, domain.NewValidationError("amount", "must be positive")
	}

	start := time.Now()
	leader := false
	v, err, _ := s.flights.Do(args.PaymentKey, func() (any, error) {
		leader = true
		// общее выполнение не должно прерываться отменой запроса одного из участников.
		res, outcome, approveErr := s.approve(context.WithoutCancel(ctx), actor, args)
		return flightResult{result: res, outcome: outcome}, approveErr
	})
	fr, _ := v.(flightResult)
	if leader {
		s.recordSettlement(fr.outcome, time.Since(start))
	} else {
		s.recordSettlement(settlementDeduplicated, time.Since(start))
	}
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	if !actor.IsAdmin() && fr.result.UserID != actor.UserID {
		return nil, fmt.Errorf("payment %s: %w", args.PaymentKey, domain.ErrPermissionDenied)
	}
	res := *fr.result
	return &res, nil
}

func (s *PaymentService) approve(
	ctx context.Context,
	actor domain.Actor,
	args ApprovePaymentArgs,
) (*ApprovalResult, string, error) {
	log := s.l.WithFields(logrus.Fields{
		"paymentKey":  args.PaymentKey,
		"orderNumber": args.OrderNumber,
	})

	if s.locker != nil {
		unlock, lockErr := s.locker.Lock(ctx, paymentLockPrefix+args.PaymentKey)
		if lockErr != nil {
			return nil, settlementError, fmt.Errorf("locking payment %s: %w", args.PaymentKey, lockErr)
		}
		defer unlock()
	}

	payment, err := s.paymentRepo.FindByKey(ctx, args.PaymentKey)
	switch {
	case err == nil:
		if payment.OrderNumber != args.OrderNumber {
			return nil, settlementRejected, domain.NewValidationError("orderId", "does not match payment")
		}
		if !payment.IsOpen() {
			return s.settledOutcome(ctx, payment, args)
		}
	case errors.Is(err, domain.ErrRecordNotFound):
		payment = nil
	default:
		return nil, settlementError, err //nolint:wrapcheck
	}

	target, err := s.resolveTarget(ctx, args.OrderNumber)
	if err != nil {
		return nil, settlementError, err
	}
	if err = s.checkPayable(target, actor, args.Amount); err != nil {
		return nil, settlementRejected, err
	}

	if payment == nil {
		if payment, err = s.locatePayment(ctx, target, args); err != nil {
			return nil, settlementError, err
		}
		if !payment.IsOpen() {
			return s.settledOutcome(ctx, payment, args)
		}
	}

	pctx, cancel := context.WithTimeout(ctx, s.timeouts.PaymentApprove)
	approval, err := s.provider.ApprovePayment(pctx, args.PaymentKey, args.OrderNumber, args.Amount)
	cancel()
	if err == nil && approval.Status.IsSettledFailure() {
		err = domain.NewProviderError(0, string(approval.Status), "payment was not completed by provider")
	}
	if err != nil {
		log.WithError(err).Warn("provider declined approval")
		s.failPayment(ctx, payment, err)
		return nil, settlementFailed, fmt.Errorf("approving payment %s: %w", args.PaymentKey, err)
	}

	order, outcome, err := s.settle(ctx, payment, target, *approval)
	if err != nil {
		return nil, outcome, err
	}

	log.WithFields(logrus.Fields{
		"paymentID": payment.ID,
		"orderID":   order.ID,
	}).Info("payment approved")
	return newApprovalResult(payment, order.ID, order.UserID), outcome, nil
}

// settledOutcome ответ для платежа, который уже не ожидает подтверждения.
func (s *PaymentService) settledOutcome(
	ctx context.Context,
	p *domain.Payment,
	args ApprovePaymentArgs,
) (*ApprovalResult, string, error) {
	switch p.Status {
	case domain.PaymentStatusApproved:
		if !args.Amount.Equal(p.Amount) {
			return nil, settlementRejected, fmt.Errorf("payment %s: %w", p.PaymentKey, domain.ErrAmountMismatch)
		}
		target, err := s.resolveTarget(ctx, p.OrderNumber)
		if err != nil {
			return nil, settlementError, err
		}
		return newApprovalResult(p, target.orderID(), target.userID()), settlementAlreadySettled, nil
	case domain.PaymentStatusFailed:
		return nil, settlementAlreadySettled, p.FailureError()
	default:
		return nil, settlementRejected, fmt.Errorf("payment %s is %s: %w", p.PaymentKey, p.Status,
			domain.ErrPaymentNotApprovable)
	}
}

// resolveTarget находит заказ по номеру или черновик, если заказ еще не создан.
func (s *PaymentService) resolveTarget(ctx context.Context, number string) (settlementTarget, error) {
	order, err := s.orderRepo.FindByOrderNumber(ctx, number)
	if err == nil {
		return settlementTarget{order: order}, nil
	}
	if !errors.Is(err, domain.ErrRecordNotFound) {
		return settlementTarget{}, err //nolint:wrapcheck
	}

	draft, err := s.checkoutRepo.FindByOrderNumber(ctx, number)
	if err != nil {
		return settlementTarget{}, fmt.Errorf("order %s: %w", number, err)
	}
	if draft.MaterializedAt != nil {
		// заказ создан между двумя чтениями.
		if order, err = s.orderRepo.FindByOrderNumber(ctx, number); err != nil {
			return settlementTarget{}, err //nolint:wrapcheck
		}
		return settlementTarget{order: order}, nil
	}
	return settlementTarget{draft: draft}, nil
}

func (s *PaymentService) checkPayable(target settlementTarget, actor domain.Actor, amount decimal.Decimal) error {
	if !actor.IsAdmin() && target.userID() != actor.UserID {
		return fmt.Errorf("order %s: %w", target.orderNumber(), domain.ErrPermissionDenied)
	}
	if !amount.Equal(target.amount()) {
		return fmt.Errorf("order %s total %s, got %s: %w", target.orderNumber(), target.amount(), amount,
			domain.ErrAmountMismatch)
	}
	if target.order == nil {
		return nil
	}
	switch target.order.Status {
	case domain.OrderStatusPending, domain.OrderStatusPaymentInProgress, domain.OrderStatusPaymentFailed:
		return nil
	default:
		return domain.NewInvalidTransitionError(target.order.Status, domain.OrderStatusPaymentCompleted)
	}
}

// locatePayment находит открытый платеж заказа или создает новый. Если платеж с тем же ключом успел создать
// параллельный запрос, перечитывает его с паузой вместо ошибки.
func (s *PaymentService) locatePayment(
	ctx context.Context,
	target settlementTarget,
	args ApprovePaymentArgs,
) (*domain.Payment, error) {
	for attempt := 1; ; attempt++ {
		p, err := s.paymentRepo.FindOpenByOrderNumber(ctx, args.OrderNumber, args.PaymentKey)
		if err == nil {
			if p.PaymentKey == "" {
				p.PaymentKey = args.PaymentKey
			}
			return p, nil
		}
		if !errors.Is(err, domain.ErrRecordNotFound) {
			return nil, err //nolint:wrapcheck
		}

		p, err = domain.NewPayment(domain.NewPaymentArgs{
			OrderID:     target.orderID(),
			OrderNumber: args.OrderNumber,
			PaymentKey:  args.PaymentKey,
			Method:      target.method(),
			Amount:      target.amount(),
			Now:         s.clock.Now(),
		})
		if err != nil {
			return nil, err //nolint:wrapcheck
		}
		created, err := s.paymentRepo.Create(ctx, p)
		if err == nil {
			return created, nil
		}
		if !errors.Is(err, domain.ErrDuplicateKey) || attempt >= locateMaxAttempts {
			return nil, err //nolint:wrapcheck
		}

		if existing, findErr := s.paymentRepo.FindByKey(ctx, args.PaymentKey); findErr == nil {
			return existing, nil
		}
		s.l.WithFields(logrus.Fields{
			"paymentKey": args.PaymentKey,
			"attempt":    attempt,
		}).Warn("payment creation race, re-reading")
		if err = sleep(ctx, backoff(locateRetryDelay, attempt)); err != nil {
			return nil, err
		}
	}
}

// settle фиксирует подтвержденный провайдером платеж и оплату заказа в одной транзакции. Если зафиксировать
// не удалось, деньги возвращаются покупателю.
func (s *PaymentService) settle(
	ctx context.Context,
	p *domain.Payment,
	target settlementTarget,
	approval domain.ProviderPayment,
) (*domain.Order, string, error) {
	if target.draft != nil {
		return s.materialize(ctx, p, target.draft, approval)
	}

	var (
		order           *domain.Order
		alreadyApproved bool
	)
	txErr := s.uow.Do(ctx, func(c context.Context, tx uow.TX) error {
		payments, orders, repoErr := paymentAndOrderRepos(tx)
		if repoErr != nil {
			return repoErr
		}

		var saveErr error
		if alreadyApproved, saveErr = s.saveApproval(c, payments, p, approval); saveErr != nil {
			return saveErr
		}

		var findErr error
		if order, findErr = orders.FindByIDForUpdate(c, target.order.ID); findErr != nil {
			return findErr //nolint:wrapcheck
		}
		if alreadyApproved {
			return nil
		}
		if sagaErr := ensureNoOpenSaga(c, tx, order.ID); sagaErr != nil {
			return sagaErr
		}
		return s.completeOrderPayment(c, orders, order)
	})
	if txErr != nil {
		return nil, settlementCompensated, s.compensate(ctx, p, approval, txErr)
	}
	if !alreadyApproved {
		s.emitter.paymentCompleted(ctx, order, p)
	}
	return order, settlementApproved, nil
}

// saveApproval применяет подтверждение к платежу и сохраняет его. Если платеж уже подтвердил параллельный
// запрос, это считается успехом: p заменяется сохраненным состоянием и возвращается true.
func (s *PaymentService) saveApproval(
	ctx context.Context,
	repo PaymentRepository,
	p *domain.Payment,
	approval domain.ProviderPayment,
) (bool, error) {
	expected := p.Status
	next := *p
	if err := applyApproval(&next, approval, s.clock.Now()); err != nil {
		return false, err
	}
	err := repo.Save(ctx, &next, expected)
	if err == nil {
		*p = next
		return false, nil
	}
	if !errors.Is(err, domain.ErrStaleState) {
		return false, err //nolint:wrapcheck
	}
	fresh, findErr := repo.FindByID(ctx, p.ID)
	if findErr != nil {
		return false, errors.Join(err, findErr)
	}
	if fresh.Status != domain.PaymentStatusApproved {
		return false, err //nolint:wrapcheck
	}
	*p = *fresh
	return true, nil
}

// completeOrderPayment два явных перехода: в PAYMENT_IN_PROGRESS (если заказ еще не там) и в PAYMENT_COMPLETED.
func (s *PaymentService) completeOrderPayment(ctx context.Context, repo OrderRepository, order *domain.Order) error {
	now := s.clock.Now()
	if order.Status != domain.OrderStatusPaymentInProgress {
		from := order.Status
		if err := order.TransitionTo(domain.OrderStatusPaymentInProgress, now); err != nil {
			return err //nolint:wrapcheck
		}
		if err := repo.UpdateStatus(ctx, repoargs.UpdateOrderStatus{
			ID: order.ID, Expected: from, Status: order.Status, UpdatedAt: now,
		}); err != nil {
			return err //nolint:wrapcheck
		}
	}
	if err := order.TransitionTo(domain.OrderStatusPaymentCompleted, now); err != nil {
		return err //nolint:wrapcheck
	}
	return repo.UpdateStatus(ctx, repoargs.UpdateOrderStatus{ //nolint:wrapcheck
		ID:        order.ID,
		Expected:  domain.OrderStatusPaymentInProgress,
		Status:    order.Status,
		UpdatedAt: now,
	})
}

// materialize создает оплаченный заказ по черновику: резервирует остатки и сохраняет заказ сразу
// в PAYMENT_COMPLETED вместе с подтвержденным платежом.
func (s *PaymentService) materialize(
	ctx context.Context,
	p *domain.Payment,
	draft *domain.CheckoutDraft,
	approval domain.ProviderPayment,
) (*domain.Order, string, error) {
	now := s.clock.Now()
	order, err := domain.NewOrder(domain.NewOrderArgs{
		OrderNumber:     draft.OrderNumber,
		UserID:          draft.UserID,
		Items:           draft.Items,
		ShippingAddress: draft.Address,
		PaymentMethod:   draft.PaymentMethod,
		Memo:            draft.Memo,
		Status:          domain.OrderStatusPaymentCompleted,
		Now:             now,
	})
	if err != nil {
		return nil, settlementCompensated, s.compensate(ctx, p, approval, err)
	}

	lines := order.StockLines()
	if err = s.inventory.Reserve(ctx, lines); err != nil {
		return nil, settlementCompensated, s.compensate(ctx, p, approval, err)
	}

	var created *domain.Order
	txErr := s.uow.Do(ctx, func(c context.Context, tx uow.TX) error {
		payments, orders, repoErr := paymentAndOrderRepos(tx)
		if repoErr != nil {
			return repoErr
		}
		checkouts, repoErr := uow.GetAs[CheckoutRepository](tx, uow.RepositoryName(repoargs.CheckoutRepoName))
		if repoErr != nil {
			return repoErr //nolint:wrapcheck
		}

		var createErr error
		if created, createErr = orders.Create(c, order); createErr != nil {
			return createErr //nolint:wrapcheck
		}
		expected := p.Status
		next := *p
		if applyErr := applyApproval(&next, approval, now); applyErr != nil {
			return applyErr
		}
		next.OrderID = created.ID
		if saveErr := payments.Save(c, &next, expected); saveErr != nil {
			return saveErr //nolint:wrapcheck
		}
		*p = next
		return checkouts.MarkMaterialized(c, draft.ID, created.ID, now) //nolint:wrapcheck
	})
	if txErr != nil {
		if failed := s.inventory.Release(context.WithoutCancel(ctx), lines); len(failed) > 0 {
			s.l.WithField("lines", failed).Error("release after failed materialization")
		}
		return nil, settlementCompensated, s.compensate(ctx, p, approval, txErr)
	}

	s.l.WithFields(logrus.Fields{
		"orderID":     created.ID,
		"orderNumber": created.OrderNumber,
	}).Info("checkout draft materialized")
	s.emitter.orderCreated(ctx, created)
	s.emitter.paymentCompleted(ctx, created, p)
	return created, settlementApproved, nil
}

// compensate возвращает покупателю деньги за платеж, который провайдер подтвердил, а сервис зафиксировать
// не смог. Возвращает исходную ошибку cause, дополненную ошибкой возврата, если он не удался.
func (s *PaymentService) compensate(
	ctx context.Context,
	p *domain.Payment,
	approval domain.ProviderPayment,
	cause error,
) error {
	ctx = context.WithoutCancel(ctx)
	log := s.l.WithError(cause).WithFields(logrus.Fields{
		"paymentID":  p.ID,
		"paymentKey": p.PaymentKey,
	})
	log.Error("settlement failed after provider approval, refunding")

	rctx, cancel := context.WithTimeout(ctx, s.timeouts.PaymentRefund)
	_, refundErr := s.provider.RefundPayment(rctx, domain.RefundRequest{
		PaymentKey:     p.PaymentKey,
		Reason:         "order settlement failed",
		IdempotencyKey: "compensate-" + p.PaymentKey,
	})
	cancel()
	if refundErr != nil {
		log.WithField("refundError", refundErr.Error()).
			Error("compensating refund failed, manual reconciliation required")
		return errors.Join(
			fmt.Errorf("settling payment %s: %w", p.PaymentKey, cause),
			fmt.Errorf("compensating refund: %w", refundErr),
		)
	}

	if recordErr := s.recordCompensation(ctx, p.ID, approval); recordErr != nil {
		log.WithField("recordError", recordErr.Error()).Error("compensating refund done but not recorded")
	}
	return fmt.Errorf("settling payment %s: %w", p.PaymentKey, cause)
}

func (s *PaymentService) recordCompensation(ctx context.Context, id int64, approval domain.ProviderPayment) error {
	fresh, err := s.paymentRepo.FindByID(ctx, id)
	if err != nil {
		return err //nolint:wrapcheck
	}
	expected := fresh.Status
	now := s.clock.Now()
	if fresh.Status != domain.PaymentStatusApproved {
		if applyErr := applyApproval(fresh, approval, now); applyErr != nil {
			// подтверждение не применимо (например, другая сумма): платеж закрывается как неуспешный.
			_ = fresh.Fail("COMPENSATED", applyErr.Error(), now)
			return s.paymentRepo.Save(ctx, fresh, expected) //nolint:wrapcheck
		}
	}
	if err = fresh.Refund(fresh.Amount, now); err != nil {
		return err //nolint:wrapcheck
	}
	return s.paymentRepo.Save(ctx, fresh, expected) //nolint:wrapcheck
}

func (s *PaymentService) failPayment(ctx context.Context, p *domain.Payment, cause error) {
	expected := p.Status
	if err := p.FailWith(cause, s.clock.Now()); err != nil {
		s.l.WithError(err).WithField("paymentID", p.ID).Warn("payment can not be marked failed")
		return
	}
	if err := s.paymentRepo.Save(context.WithoutCancel(ctx), p, expected); err != nil {
		s.l.WithError(err).WithField("paymentID", p.ID).Error("save failed payment")
	}
}

// SettledPayment подтвержденный или уже возвращенный платеж заказа.
func (s *PaymentService) SettledPayment(ctx context.Context, orderNumber string) (*domain.Payment, error) {
	payments, err := s.paymentRepo.ListByOrderNumber(ctx, orderNumber)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	for i := len(payments) - 1; i >= 0; i-- {
		switch payments[i].Status {
		case domain.PaymentStatusApproved, domain.PaymentStatusRefunded:
			return &payments[i], nil
		}
	}
	return nil, fmt.Errorf("order %s has no approved payment: %w", orderNumber, domain.ErrPaymentNotRefundable)
}

// RefundPayment возвращает деньги по подтвержденному платежу. Повторный вызов для уже возвращенного
// платежа возвращает его без обращения к провайдеру.
func (s *PaymentService) RefundPayment(ctx context.Context, args RefundPaymentArgs) (*domain.Payment, error) {
	p, err := s.paymentRepo.FindByID(ctx, args.PaymentID)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	if p.Status == domain.PaymentStatusRefunded {
		return p, nil
	}
	if p.Status != domain.PaymentStatusApproved {
		return nil, fmt.Errorf("payment %d is %s: %w", p.ID, p.Status, domain.ErrPaymentNotRefundable)
	}
	amount := p.Amount
	if args.Amount != nil {
		amount = *args.Amount
	}
	if !amount.IsPositive() || amount.GreaterThan(p.Amount) {
		return nil, domain.NewValidationError("amount", fmt.Sprintf("must be in (0, %s]", p.Amount))
	}

	rctx, cancel := context.WithTimeout(ctx, s.timeouts.PaymentRefund)
	_, err = s.provider.RefundPayment(rctx, domain.RefundRequest{
		PaymentKey:     p.PaymentKey,
		Amount:         args.Amount,
		Reason:         args.Reason,
		IdempotencyKey: args.IdempotencyKey,
	})
	cancel()
	if err != nil {
		return nil, fmt.Errorf("refunding payment %d: %w", p.ID, err)
	}

	expected := p.Status
	if err = p.Refund(amount, s.clock.Now()); err != nil {
		return nil, err //nolint:wrapcheck
	}
	if err = s.paymentRepo.Save(ctx, p, expected); err != nil {
		if errors.Is(err, domain.ErrStaleState) {
			if fresh, findErr := s.paymentRepo.FindByID(ctx, p.ID); findErr == nil &&
				fresh.Status == domain.PaymentStatusRefunded {
				return fresh, nil
			}
		}
		return nil, err //nolint:wrapcheck
	}

	s.l.WithFields(logrus.Fields{
		"paymentID": p.ID,
		"amount":    amount.String(),
	}).Info("payment refunded")
	return p, nil
}

// CancelOpenPayments отменяет неподтвержденные платежи заказа. Пока у заказа есть платеж, подтверждение
// которого завершилось таймаутом и еще не сверено, ничего не отменяет: провайдер мог списать деньги.
func (s *PaymentService) CancelOpenPayments(ctx context.Context, orderNumber string) error {
	payments, err := s.paymentRepo.ListByOrderNumber(ctx, orderNumber)
	if err != nil {
		return err //nolint:wrapcheck
	}
	for i := range payments {
		if payments[i].NeedsReconciliation() {
			return fmt.Errorf("payment %d of order %s awaits reconciliation: %w", payments[i].ID, orderNumber,
				domain.ErrCancellationInProgress)
		}
	}
	var errs []error
	for i := range payments {
		p := &payments[i]
		if !p.IsOpen() && p.Status != domain.PaymentStatusFailed {
			continue
		}
		expected := p.Status
		if cancelErr := p.Cancel(s.clock.Now()); cancelErr != nil {
			errs = append(errs, cancelErr)
			continue
		}
		if saveErr := s.paymentRepo.Save(ctx, p, expected); saveErr != nil {
			errs = append(errs, saveErr)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("cancelling payments of order %s: %w", orderNumber, errors.Join(errs...))
	}
	return nil
}

// TimedOutPayments платежи, подтверждение которых завершилось таймаутом провайдера и еще не сверено.
func (s *PaymentService) TimedOutPayments(ctx context.Context, limit uint) ([]domain.Payment, error) {
	return s.paymentRepo.ListUnreconciledTimeouts(ctx, limit) //nolint:wrapcheck
}

// ReconcilePayment сверяет платеж, помеченный failed из-за таймаута, со статусом у провайдера. Если провайдер
// списал деньги, подтверждение применяется так же, как при обычном подтверждении, без повторного вызова
// подтверждения. Пока провайдер не завершил платеж, ничего не меняется.
func (s *PaymentService) ReconcilePayment(ctx context.Context, payment domain.Payment) error {
	if s.locker != nil && payment.PaymentKey != "" {
		unlock, err := s.locker.Lock(ctx, paymentLockPrefix+payment.PaymentKey)
		if err != nil {
			return fmt.Errorf("locking payment %s: %w", payment.PaymentKey, err)
		}
		defer unlock()
	}

	p, err := s.paymentRepo.FindByID(ctx, payment.ID)
	if err != nil {
		return err //nolint:wrapcheck
	}
	if !p.NeedsReconciliation() {
		return nil
	}
	if p.PaymentKey == "" {
		// сессия у провайдера не была открыта.
		return s.markReconciled(ctx, p)
	}

	pctx, cancel := context.WithTimeout(ctx, s.timeouts.PaymentRequest)
	remote, err := s.provider.GetPaymentStatus(pctx, p.PaymentKey)
	cancel()
	if err != nil {
		return fmt.Errorf("payment %s status: %w", p.PaymentKey, err)
	}

	log := s.l.WithFields(logrus.Fields{
		"paymentID":      p.ID,
		"paymentKey":     p.PaymentKey,
		"providerStatus": remote.Status,
	})
	switch {
	case remote.Status == domain.ProviderStatusDone:
		target, targetErr := s.resolveTarget(ctx, p.OrderNumber)
		if targetErr != nil {
			return targetErr
		}
		if _, _, settleErr := s.settle(ctx, p, target, *remote); settleErr != nil {
			return settleErr
		}
		log.Info("timed out payment reconciled as approved")
		return nil
	case remote.Status.IsSettledFailure():
		log.Info("timed out payment confirmed as not charged")
		return s.markReconciled(ctx, p)
	default:
		log.Debug("payment still pending at provider")
		return nil
	}
}

func (s *PaymentService) markReconciled(ctx context.Context, p *domain.Payment) error {
	expected := p.Status
	p.MarkReconciled(s.clock.Now())
	return s.paymentRepo.Save(ctx, p, expected) //nolint:wrapcheck
}

func (s *PaymentService) recordSettlement(outcome string, d time.Duration) {
	if s.metrics != nil {
		s.metrics.Settlement(outcome, d)
	}
}

// applyApproval подтверждение открытого платежа или сверка платежа, помеченного failed по таймауту.
func applyApproval(p *domain.Payment, approval domain.ProviderPayment, now time.Time) error {
	if p.NeedsReconciliation() {
		return p.ReconcileApproved(approval, now) //nolint:wrapcheck
	}
	return p.Approve(approval, now) //nolint:wrapcheck
}

// ensureNoOpenSaga запрещает оплату заказа, по которому идет отмена или возврат.
func ensureNoOpenSaga(ctx context.Context, tx uow.TX, orderID int64) error {
	sagas, err := uow.GetAs[SagaRepository](tx, uow.RepositoryName(repoargs.SagaRepoName))
	if err != nil {
		return err //nolint:wrapcheck
	}
	saga, err := sagas.FindOpenByOrderID(ctx, orderID)
	switch {
	case err == nil:
		return fmt.Errorf("order %d has open %s saga %d: %w", orderID, saga.Kind, saga.ID,
			domain.ErrCancellationInProgress)
	case errors.Is(err, domain.ErrRecordNotFound):
		return nil
	default:
		return err //nolint:wrapcheck
	}
}

func paymentAndOrderRepos(tx uow.TX) (PaymentRepository, OrderRepository, error) {
	payments, err := uow.GetAs[PaymentRepository](tx, uow.RepositoryName(repoargs.PaymentRepoName))
	if err != nil {
		return nil, nil, err //nolint:wrapcheck
	}
	orders, err := uow.GetAs[OrderRepository](tx, uow.RepositoryName(repoargs.OrderRepoName))
	if err != nil {
		return nil, nil, err //nolint:wrapcheck
	}
	return payments, orders, nil
}

func newApprovalResult(p *domain.Payment, orderID, userID int64) *ApprovalResult {
	res := &ApprovalResult{
		PaymentID:   p.ID,
		PaymentKey:  p.PaymentKey,
		OrderID:     orderID,
		OrderNumber: p.OrderNumber,
		Amount:      p.Amount,
		Status:      p.Status,
		UserID:      userID,
	}
	if p.ApprovedAt != nil {
		// точность хранилища - микросекунды.
		res.ApprovedAt = p.ApprovedAt.UTC().Truncate(time.Microsecond)
	}
	return res
}
