package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/jamongadejoa28/sassmall-sub003/internal/clock"
	"github.com/jamongadejoa28/sassmall-sub003/internal/domain"
	"github.com/jamongadejoa28/sassmall-sub003/internal/repository/repoargs"
	"github.com/jamongadejoa28/sassmall-sub003/pkg/uow"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// OrderCanceller отмена и возврат заказа с компенсирующими действиями.
type OrderCanceller interface {
	CancelOrder(ctx context.Context, actor domain.Actor, orderID int64, reason string) (*domain.Order, error)
	RefundOrder(ctx context.Context, actor domain.Actor, orderID int64, reason string) (*domain.Order, error)
}

type CreateOrderArgs struct {
	Items           []domain.CartLine
	ShippingAddress domain.Address
	PaymentMethod   domain.PaymentMethodType
	Memo            string
}

// OrderSummary краткое представление заказа для списков.
type OrderSummary struct {
	ID             int64
	OrderNumber    string
	Status         domain.OrderStatusType
	ItemCount      int
	FirstItemName  string
	Title          string
	TotalAmount    decimal.Decimal
	OrderedAt      time.Time
	RequiresAction bool
}

// BulkStatusResult результат смены статуса одного заказа в пакетной операции.
type BulkStatusResult struct {
	OrderID int64
	Order   *domain.Order
	Err     error
}

type OrderService struct {
	uow       uow.UOW
	orderRepo OrderRepository
	catalog   ProductCatalog
	users     UserDirectory
	inventory *InventoryCompensator
	emitter   *emitter
	canceller OrderCanceller
	clock     clock.Clock
	l         *logrus.Entry
}

func NewOrderService(deps Deps) (*OrderService, error) {
	orderRepo, err := uow.GetRepositoryAs[OrderRepository](deps.UOW, uow.RepositoryName(repoargs.OrderRepoName))
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	return &OrderService{
		uow:       deps.UOW,
		orderRepo: orderRepo,
		catalog:   deps.Catalog,
		users:     deps.Users,
		inventory: NewInventoryCompensator(deps.Catalog, deps.Logger),
		emitter:   newEmitter(deps),
		clock:     deps.Clock,
		l: deps.Logger.WithFields(logrus.Fields{
			"component": "service",
			"module":    "order",
		}),
	}, nil
}

// SetCanceller подключает сагу отмены. Без нее отмена и возврат через UpdateStatus недоступны.
func (s *OrderService) SetCanceller(c OrderCanceller) {
	s.canceller = c
}

// ValidateOrder проверяет заказ и считает его суммы без сохранения и резервирования остатков.
func (s *OrderService) ValidateOrder(ctx context.Context, actor domain.Actor, args CreateOrderArgs) (*domain.Order, error) {
	return s.prepareOrder(ctx, actor, args)
}

// CreateOrder создает заказ в статусе PENDING. Остатки резервируются до сохранения заказа; если заказ
// сохранить не удалось, резерв возвращается.
func (s *OrderService) CreateOrder(ctx context.Context, actor domain.Actor, args CreateOrderArgs) (*domain.Order, error) {
	order, err := s.prepareOrder(ctx, actor, args)
	if err != nil {
		return nil, err
	}

	lines := order.StockLines()
	if err = s.inventory.Reserve(ctx, lines); err != nil {
		return nil, err
	}

	created, err := s.persistNew(ctx, order)
	if err != nil {
		if failed := s.inventory.Release(context.WithoutCancel(ctx), lines); len(failed) > 0 {
			s.l.WithField("lines", failed).Error("release after failed order creation")
		}
		return nil, err
	}

	s.l.WithFields(logrus.Fields{
		"orderID":     created.ID,
		"orderNumber": created.OrderNumber,
		"total":       created.TotalAmount.String(),
	}).Info("order created")
	s.emitter.orderCreated(ctx, created)
	return created, nil
}

// persistNew сохраняет заказ с новым номером, повторяя генерацию номера при совпадении.
func (s *OrderService) persistNew(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	var created *domain.Order
	for attempt := 1; attempt <= orderNumberMaxAttempts; attempt++ {
		order.OrderNumber = newOrderNumber(s.clock.Now())
		err := s.uow.Do(ctx, func(c context.Context, tx uow.TX) error {
			repo, repoErr := uow.GetAs[OrderRepository](tx, uow.RepositoryName(repoargs.OrderRepoName))
			if repoErr != nil {
				return repoErr //nolint:wrapcheck
			}
			var createErr error
			created, createErr = repo.Create(c, order)
			return createErr //nolint:wrapcheck
		})
		if err == nil {
			return created, nil
		}
		if !errors.Is(err, domain.ErrDuplicateKey) || attempt == orderNumberMaxAttempts {
			return nil, fmt.Errorf("creating order: %w", err)
		}
		s.l.WithField("orderNumber", order.OrderNumber).Warn("order number collision, regenerating")
	}
	return nil, fmt.Errorf("creating order: %w", domain.ErrDuplicateKey)
}

// prepareOrder собирает агрегат заказа по корзине: проверяет покупателя, наличие и доступность товаров,
// фиксирует снимок названий и цен.
func (s *OrderService) prepareOrder(ctx context.Context, actor domain.Actor, args CreateOrderArgs) (*domain.Order, error) {
	if len(args.Items) < domain.MinOrderItems || len(args.Items) > domain.MaxOrderItems {
		return nil, domain.NewValidationError("items",
			fmt.Sprintf("count must be between %d and %d", domain.MinOrderItems, domain.MaxOrderItems))
	}

	user, err := s.users.GetUser(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("checking user %d: %w", actor.UserID, err)
	}
	if !user.IsActive {
		return nil, fmt.Errorf("user %d: %w", actor.UserID, domain.ErrUserInactive)
	}

	items := make([]domain.OrderItem, 0, len(args.Items))
	for _, line := range args.Items {
		item, itemErr := s.snapshotItem(ctx, line)
		if itemErr != nil {
			return nil, itemErr
		}
		items = append(items, *item)
	}

	return domain.NewOrder(domain.NewOrderArgs{
		UserID:          actor.UserID,
		Items:           items,
		ShippingAddress: args.ShippingAddress,
		PaymentMethod:   args.PaymentMethod,
		Memo:            args.Memo,
		Now:             s.clock.Now(),
	})
}

func (s *OrderService) snapshotItem(ctx context.Context, line domain.CartLine) (*domain.OrderItem, error) {
	if line.Quantity < domain.MinItemQuantity || line.Quantity > domain.MaxItemQuantity {
		return nil, domain.NewValidationError("quantity",
			fmt.Sprintf("must be between %d and %d", domain.MinItemQuantity, domain.MaxItemQuantity))
	}
	product, err := s.catalog.GetProduct(ctx, line.ProductID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, fmt.Errorf("product %d: %w", line.ProductID, domain.ErrProductUnavailable)
		}
		return nil, fmt.Errorf("loading product %d: %w", line.ProductID, err)
	}
	if !product.IsActive {
		return nil, fmt.Errorf("product %d: %w", line.ProductID, domain.ErrProductUnavailable)
	}
	inStock, err := s.catalog.CheckStock(ctx, line.ProductID, line.Quantity)
	if err != nil {
		return nil, fmt.Errorf("checking stock of product %d: %w", line.ProductID, err)
	}
	if !inStock {
		return nil, fmt.Errorf("product %d x%d: %w", line.ProductID, line.Quantity, domain.ErrInsufficientStock)
	}
	return domain.NewOrderItem(domain.NewOrderItemArgs{
		ProductID:   product.ID,
		ProductName: product.Name,
		Price:       product.Price,
		Quantity:    line.Quantity,
		ImageURL:    product.ImageURL,
		Options:     line.Options,
	})
}

// GetOrder заказ, доступный actor.
func (s *OrderService) GetOrder(ctx context.Context, actor domain.Actor, id int64) (*domain.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	if !order.CanBeViewedBy(actor) {
		return nil, fmt.Errorf("order %d: %w", id, domain.ErrPermissionDenied)
	}
	return order, nil
}

func (s *OrderService) GetOrderSummary(ctx context.Context, actor domain.Actor, id int64) (*OrderSummary, error) {
	order, err := s.GetOrder(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return summarize(order), nil
}

// ListOwnOrders заказы пользователя, новые первыми. status пустой - все статусы.
func (s *OrderService) ListOwnOrders(
	ctx context.Context,
	userID int64,
	status domain.OrderStatusType,
	limit, offset uint,
) ([]OrderSummary, error) {
	if status != "" && !status.IsValid() {
		return nil, domain.NewValidationError("status", "is unknown")
	}
	orders, err := s.orderRepo.ListByUser(ctx, repoargs.ListUserOrders{
		UserID: userID,
		Status: status,
		Limit:  clampLimit(limit),
		Offset: offset,
	})
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	summaries := make([]OrderSummary, len(orders))
	for i := range orders {
		summaries[i] = *summarize(&orders[i])
	}
	return summaries, nil
}

// UpdateStatus смена статуса заказа от имени actor. CANCELLED и REFUND_IN_PROGRESS выполняются сагой
// отмены и возврата; при переходе в DELIVERED остатки списываются окончательно.
func (s *OrderService) UpdateStatus(
	ctx context.Context,
	actor domain.Actor,
	id int64,
	to domain.OrderStatusType,
	reason string,
) (*domain.Order, error) {
	if !to.IsValid() {
		return nil, domain.NewValidationError("status", "is unknown")
	}
	switch to {
	case domain.OrderStatusCancelled:
		return s.CancelOrder(ctx, actor, id, reason)
	case domain.OrderStatusRefundInProgress:
		if s.canceller == nil {
			return nil, fmt.Errorf("refund saga is not configured: %w", domain.ErrUnknown)
		}
		return s.canceller.RefundOrder(ctx, actor, id, reason) //nolint:wrapcheck
	}

	var (
		order *domain.Order
		from  domain.OrderStatusType
	)
	txErr := s.uow.Do(ctx, func(c context.Context, tx uow.TX) error {
		repo, repoErr := uow.GetAs[OrderRepository](tx, uow.RepositoryName(repoargs.OrderRepoName))
		if repoErr != nil {
			return repoErr //nolint:wrapcheck
		}
		var findErr error
		if order, findErr = repo.FindByIDForUpdate(c, id); findErr != nil {
			return findErr //nolint:wrapcheck
		}
		from = order.Status
		if err := order.ChangeStatus(actor, to, s.clock.Now()); err != nil {
			return err //nolint:wrapcheck
		}
		return repo.UpdateStatus(c, repoargs.UpdateOrderStatus{ //nolint:wrapcheck
			ID:        order.ID,
			Expected:  from,
			Status:    order.Status,
			UpdatedAt: order.UpdatedAt,
		})
	})
	if txErr != nil {
		return nil, fmt.Errorf("updating order %d status to %s: %w", id, to, txErr)
	}

	s.l.WithFields(logrus.Fields{
		"orderID": id,
		"from":    from,
		"to":      to,
		"actorID": actor.UserID,
	}).Info("order status changed")

	if to == domain.OrderStatusDelivered {
		s.inventory.Decrease(context.WithoutCancel(ctx), order)
	}
	s.emitter.statusUpdated(ctx, order, from, actor.UserID)
	return order, nil
}

// CancelOrder отменяет заказ через сагу отмены.
func (s *OrderService) CancelOrder(ctx context.Context, actor domain.Actor, id int64, reason string) (*domain.Order, error) {
	if s.canceller == nil {
		return nil, fmt.Errorf("cancel saga is not configured: %w", domain.ErrUnknown)
	}
	return s.canceller.CancelOrder(ctx, actor, id, reason) //nolint:wrapcheck
}

// RefundOrder возврат оплаченного заказа через сагу возврата.
func (s *OrderService) RefundOrder(ctx context.Context, actor domain.Actor, id int64, reason string) (*domain.Order, error) {
	return s.UpdateStatus(ctx, actor, id, domain.OrderStatusRefundInProgress, reason)
}

// BulkUpdateStatus меняет статус нескольких заказов. Ошибка одного заказа не останавливает остальные.
func (s *OrderService) BulkUpdateStatus(
	ctx context.Context,
	actor domain.Actor,
	ids []int64,
	to domain.OrderStatusType,
	reason string,
) ([]BulkStatusResult, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("bulk status update: %w", domain.ErrPermissionDenied)
	}
	if len(ids) == 0 || len(ids) > maxListLimit {
		return nil, domain.NewValidationError("orderIds", fmt.Sprintf("count must be between 1 and %d", maxListLimit))
	}
	results := make([]BulkStatusResult, len(ids))
	for i, id := range ids {
		order, err := s.UpdateStatus(ctx, actor, id, to, reason)
		results[i] = BulkStatusResult{OrderID: id, Order: order, Err: err}
		if err != nil {
			s.l.WithError(err).WithField("orderID", id).Warn("bulk status update failed for order")
		}
	}
	return results, nil
}

// AdminSearch поиск заказов по фильтру. Возвращает страницу заказов и общее число найденных.
func (s *OrderService) AdminSearch(
	ctx context.Context,
	actor domain.Actor,
	filter repoargs.OrderSearch,
) ([]domain.Order, int64, error) {
	if !actor.IsAdmin() {
		return nil, 0, fmt.Errorf("order search: %w", domain.ErrPermissionDenied)
	}
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, 0, domain.NewValidationError("status", "is unknown")
	}
	filter.Limit = clampLimit(filter.Limit)
	return s.orderRepo.Search(ctx, filter) //nolint:wrapcheck
}

// AdminStatistics количество заказов и выручка по статусам за период [from, to).
func (s *OrderService) AdminStatistics(
	ctx context.Context,
	actor domain.Actor,
	from, to time.Time,
) ([]repoargs.StatusStatistics, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("order statistics: %w", domain.ErrPermissionDenied)
	}
	if !from.Before(to) {
		return nil, domain.NewValidationError("from", "must be before to")
	}
	return s.orderRepo.Statistics(ctx, from, to) //nolint:wrapcheck
}

func summarize(o *domain.Order) *OrderSummary {
	summary := &OrderSummary{
		ID:             o.ID,
		OrderNumber:    o.OrderNumber,
		Status:         o.Status,
		ItemCount:      len(o.Items),
		Title:          o.Title(),
		TotalAmount:    o.TotalAmount,
		OrderedAt:      o.OrderedAt,
		RequiresAction: o.Status == domain.OrderStatusPending || o.Status == domain.OrderStatusPaymentFailed,
	}
	if len(o.Items) > 0 {
		summary.FirstItemName = o.Items[0].ProductName
	}
	return summary
}

func clampLimit(limit uint) uint {
	if limit == 0 {
		return defaultListLimit
	}
	return min(limit, maxListLimit)
}
