package service

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/jamongadejoa28/sassmall-sub003/internal/clock"
	"github.com/jamongadejoa28/sassmall-sub003/internal/domain"
	"github.com/jamongadejoa28/sassmall-sub003/internal/events"
	"github.com/jamongadejoa28/sassmall-sub003/internal/repository/repoargs"
	"github.com/jamongadejoa28/sassmall-sub003/internal/service/mocks"
	"github.com/jamongadejoa28/sassmall-sub003/pkg/uow"
	"github.com/jamongadejoa28/sassmall-sub003/pkg/uow/uowtest"
)

// memOrderRepo репозиторий заказов в памяти с теми же гарантиями CAS, что и postgres-реализация.
type memOrderRepo struct {
	mu     sync.Mutex
	nextID int64
	orders map[int64]*domain.Order
	// failUpdate если задан, UpdateStatus возвращает эту ошибку.
	failUpdate error
}

func newMemOrderRepo() *memOrderRepo {
	return &memOrderRepo{orders: make(map[int64]*domain.Order)}
}

func cloneOrder(o *domain.Order) *domain.Order {
	c := *o
	c.Items = slices.Clone(o.Items)
	return &c
}

func (r *memOrderRepo) Create(_ context.Context, o *domain.Order) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.orders {
		if existing.OrderNumber == o.OrderNumber {
			return nil, fmt.Errorf("order `%s`: %w", o.OrderNumber, domain.ErrDuplicateKey)
		}
	}
	r.nextID++
	c := cloneOrder(o)
	c.ID = r.nextID
	for i := range c.Items {
		c.Items[i].ID = int64(i + 1)
		c.Items[i].OrderID = c.ID
	}
	r.orders[c.ID] = c
	return cloneOrder(c), nil
}

func (r *memOrderRepo) FindByID(_ context.Context, id int64) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, fmt.Errorf("order %d: %w", id, domain.ErrRecordNotFound)
	}
	return cloneOrder(o), nil
}

func (r *memOrderRepo) FindByIDForUpdate(ctx context.Context, id int64) (*domain.Order, error) {
	return r.FindByID(ctx, id)
}

func (r *memOrderRepo) FindByOrderNumber(_ context.Context, number string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if o.OrderNumber == number {
			return cloneOrder(o), nil
		}
	}
	return nil, fmt.Errorf("order `%s`: %w", number, domain.ErrRecordNotFound)
}

func (r *memOrderRepo) UpdateStatus(_ context.Context, args repoargs.UpdateOrderStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failUpdate != nil {
		return r.failUpdate
	}
	o, ok := r.orders[args.ID]
	if !ok {
		return fmt.Errorf("order %d: %w", args.ID, domain.ErrRecordNotFound)
	}
	if o.Status != args.Expected {
		return fmt.Errorf("order %d is %s: %w", args.ID, o.Status, domain.ErrStaleState)
	}
	o.Status = args.Status
	o.UpdatedAt = args.UpdatedAt
	return nil
}

func (r *memOrderRepo) ListByUser(_ context.Context, args repoargs.ListUserOrders) ([]domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var found []domain.Order
	for _, o := range r.orders {
		if o.UserID == args.UserID && (args.Status == "" || o.Status == args.Status) {
			found = append(found, *cloneOrder(o))
		}
	}
	slices.SortFunc(found, func(a, b domain.Order) int { return int(b.ID - a.ID) })
	return page(found, args.Limit, args.Offset), nil
}

func (r *memOrderRepo) Search(_ context.Context, f repoargs.OrderSearch) ([]domain.Order, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var found []domain.Order
	for _, o := range r.orders {
		switch {
		case f.Status != "" && o.Status != f.Status,
			f.UserID != 0 && o.UserID != f.UserID,
			f.OrderNumberPrefix != "" && !strings.HasPrefix(o.OrderNumber, f.OrderNumberPrefix):
			continue
		}
		found = append(found, *cloneOrder(o))
	}
	slices.SortFunc(found, func(a, b domain.Order) int { return int(b.ID - a.ID) })
	return page(found, f.Limit, f.Offset), int64(len(found)), nil
}

func (r *memOrderRepo) Statistics(_ context.Context, from, to time.Time) ([]repoargs.StatusStatistics, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	byStatus := make(map[domain.OrderStatusType]*repoargs.StatusStatistics)
	for _, o := range r.orders {
		if o.OrderedAt.Before(from) || !o.OrderedAt.Before(to) {
			continue
		}
		st, ok := byStatus[o.Status]
		if !ok {
			st = &repoargs.StatusStatistics{Status: o.Status, Revenue: decimal.Zero}
			byStatus[o.Status] = st
		}
		st.Count++
		st.Revenue = st.Revenue.Add(o.TotalAmount)
	}
	var stats []repoargs.StatusStatistics
	for _, status := range domain.AllOrderStatuses() {
		if st, ok := byStatus[status]; ok {
			stats = append(stats, *st)
		}
	}
	return stats, nil
}

func (r *memOrderRepo) status(id int64) domain.OrderStatusType {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.orders[id].Status
}

func (r *memOrderRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.orders)
}

func page[T any](items []T, limit, offset uint) []T {
	if offset >= uint(len(items)) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < uint(len(items)) {
		items = items[:limit]
	}
	return items
}

type memPaymentRepo struct {
	mu       sync.Mutex
	nextID   int64
	payments []*domain.Payment
}

func newMemPaymentRepo() *memPaymentRepo {
	return &memPaymentRepo{}
}

func clonePayment(p *domain.Payment) *domain.Payment {
	c := *p
	return &c
}

func (r *memPaymentRepo) Create(_ context.Context, p *domain.Payment) (*domain.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.PaymentKey != "" {
		for _, existing := range r.payments {
			if existing.PaymentKey == p.PaymentKey {
				return nil, fmt.Errorf("payment `%s`: %w", p.PaymentKey, domain.ErrDuplicateKey)
			}
		}
	}
	r.nextID++
	c := clonePayment(p)
	c.ID = r.nextID
	r.payments = append(r.payments, c)
	return clonePayment(c), nil
}

func (r *memPaymentRepo) find(match func(p *domain.Payment) bool) (*domain.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.payments) - 1; i >= 0; i-- {
		if match(r.payments[i]) {
			return clonePayment(r.payments[i]), nil
		}
	}
	return nil, fmt.Errorf("payment: %w", domain.ErrRecordNotFound)
}

func (r *memPaymentRepo) FindByID(_ context.Context, id int64) (*domain.Payment, error) {
	return r.find(func(p *domain.Payment) bool { return p.ID == id })
}

func (r *memPaymentRepo) FindByKey(_ context.Context, key string) (*domain.Payment, error) {
	return r.find(func(p *domain.Payment) bool { return p.PaymentKey == key })
}

func (r *memPaymentRepo) FindOpenByOrderNumber(_ context.Context, number string, key string) (*domain.Payment, error) {
	return r.find(func(p *domain.Payment) bool {
		return p.OrderNumber == number && p.IsOpen() && (p.PaymentKey == "" || p.PaymentKey == key)
	})
}

func (r *memPaymentRepo) FindApprovedByOrderNumber(_ context.Context, number string) (*domain.Payment, error) {
	return r.find(func(p *domain.Payment) bool {
		return p.OrderNumber == number && p.Status == domain.PaymentStatusApproved
	})
}

func (r *memPaymentRepo) ListByOrderNumber(_ context.Context, number string) ([]domain.Payment, error) {
	return r.list(func(p *domain.Payment) bool { return p.OrderNumber == number }), nil
}

func (r *memPaymentRepo) ListUnreconciledTimeouts(_ context.Context, limit uint) ([]domain.Payment, error) {
	return page(r.list(func(p *domain.Payment) bool { return p.NeedsReconciliation() }), limit, 0), nil
}

func (r *memPaymentRepo) list(match func(p *domain.Payment) bool) []domain.Payment {
	r.mu.Lock()
	defer r.mu.Unlock()
	var found []domain.Payment
	for _, p := range r.payments {
		if match(p) {
			found = append(found, *clonePayment(p))
		}
	}
	return found
}

func (r *memPaymentRepo) Save(_ context.Context, p *domain.Payment, expected domain.PaymentStatusType) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx := slices.IndexFunc(r.payments, func(stored *domain.Payment) bool { return stored.ID == p.ID })
	if idx < 0 {
		return fmt.Errorf("payment %d: %w", p.ID, domain.ErrRecordNotFound)
	}
	if r.payments[idx].Status != expected {
		return fmt.Errorf("payment %d from %s: %w", p.ID, expected, domain.ErrStaleState)
	}
	if p.Status == domain.PaymentStatusApproved {
		for _, other := range r.payments {
			if other.ID != p.ID && other.OrderNumber == p.OrderNumber && other.Status == domain.PaymentStatusApproved {
				return fmt.Errorf("second approved payment of `%s`: %w", p.OrderNumber, domain.ErrDuplicateKey)
			}
		}
	}
	r.payments[idx] = clonePayment(p)
	return nil
}

func (r *memPaymentRepo) byStatus(status domain.PaymentStatusType) []domain.Payment {
	return r.list(func(p *domain.Payment) bool { return p.Status == status })
}

type memCheckoutRepo struct {
	mu     sync.Mutex
	drafts map[string]*domain.CheckoutDraft
}

func newMemCheckoutRepo() *memCheckoutRepo {
	return &memCheckoutRepo{drafts: make(map[string]*domain.CheckoutDraft)}
}

func (r *memCheckoutRepo) Create(_ context.Context, d *domain.CheckoutDraft) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.drafts[d.OrderNumber]; ok {
		return fmt.Errorf("draft `%s`: %w", d.OrderNumber, domain.ErrDuplicateKey)
	}
	c := *d
	r.drafts[d.OrderNumber] = &c
	return nil
}

func (r *memCheckoutRepo) FindByOrderNumber(_ context.Context, number string) (*domain.CheckoutDraft, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.drafts[number]
	if !ok {
		return nil, fmt.Errorf("draft `%s`: %w", number, domain.ErrRecordNotFound)
	}
	c := *d
	return &c, nil
}

func (r *memCheckoutRepo) MarkMaterialized(_ context.Context, id string, orderID int64, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.drafts {
		if d.ID != id {
			continue
		}
		if d.MaterializedAt != nil {
			return fmt.Errorf("draft %s: %w", id, domain.ErrStaleState)
		}
		d.MaterializedAt = &at
		d.OrderID = orderID
		return nil
	}
	return fmt.Errorf("draft %s: %w", id, domain.ErrRecordNotFound)
}

type memSagaRepo struct {
	mu     sync.Mutex
	nextID int64
	sagas  []*domain.Saga
}

func newMemSagaRepo() *memSagaRepo {
	return &memSagaRepo{}
}

func cloneSaga(s *domain.Saga) *domain.Saga {
	c := *s
	c.PendingReleases = slices.Clone(s.PendingReleases)
	return &c
}

func (r *memSagaRepo) Create(_ context.Context, s *domain.Saga) (*domain.Saga, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.sagas {
		if existing.OrderID == s.OrderID && existing.Status.IsOpen() {
			return nil, fmt.Errorf("saga of order %d: %w", s.OrderID, domain.ErrDuplicateKey)
		}
	}
	r.nextID++
	c := cloneSaga(s)
	c.ID = r.nextID
	r.sagas = append(r.sagas, c)
	return cloneSaga(c), nil
}

func (r *memSagaRepo) FindByID(_ context.Context, id int64) (*domain.Saga, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sagas {
		if s.ID == id {
			return cloneSaga(s), nil
		}
	}
	return nil, fmt.Errorf("saga %d: %w", id, domain.ErrRecordNotFound)
}

func (r *memSagaRepo) FindOpenByOrderID(_ context.Context, orderID int64) (*domain.Saga, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sagas {
		if s.OrderID == orderID && s.Status.IsOpen() {
			return cloneSaga(s), nil
		}
	}
	return nil, fmt.Errorf("open saga of order %d: %w", orderID, domain.ErrRecordNotFound)
}

func (r *memSagaRepo) Save(_ context.Context, s *domain.Saga, expected domain.SagaStatusType) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, stored := range r.sagas {
		if stored.ID != s.ID {
			continue
		}
		if stored.Status != expected {
			return fmt.Errorf("saga %d from %s: %w", s.ID, expected, domain.ErrStaleState)
		}
		r.sagas[i] = cloneSaga(s)
		return nil
	}
	return fmt.Errorf("saga %d: %w", s.ID, domain.ErrRecordNotFound)
}

func (r *memSagaRepo) ListStale(_ context.Context, olderThan time.Time, limit uint) ([]domain.Saga, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var found []domain.Saga
	for _, s := range r.sagas {
		if s.Status == domain.SagaStatusReleasePending || (s.Status.IsOpen() && s.UpdatedAt.Before(olderThan)) {
			found = append(found, *cloneSaga(s))
		}
	}
	return page(found, limit, 0), nil
}

func (r *memSagaRepo) last() *domain.Saga {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.sagas) == 0 {
		return nil
	}
	return cloneSaga(r.sagas[len(r.sagas)-1])
}

// localLocker блокировка по ключу внутри процесса.
type localLocker struct {
	mu   sync.Mutex
	keys map[string]*sync.Mutex
}

func (l *localLocker) Lock(_ context.Context, key string) (func(), error) {
	l.mu.Lock()
	if l.keys == nil {
		l.keys = make(map[string]*sync.Mutex)
	}
	m, ok := l.keys[key]
	if !ok {
		m = &sync.Mutex{}
		l.keys[key] = m
	}
	l.mu.Unlock()
	m.Lock()
	return m.Unlock, nil
}

// recordingPublisher запоминает опубликованные события.
type recordingPublisher struct {
	mu   sync.Mutex
	envs []events.Envelope
}

func (p *recordingPublisher) Publish(_ context.Context, env events.Envelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.envs = append(p.envs, env)
	return nil
}

func (p *recordingPublisher) types() []events.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]events.EventType, len(p.envs))
	for i, env := range p.envs {
		types[i] = env.EventType
	}
	return types
}

type recordingMetrics struct {
	mu          sync.Mutex
	settlements []string
	sagas       []string
}

func (m *recordingMetrics) Settlement(outcome string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settlements = append(m.settlements, outcome)
}

func (m *recordingMetrics) Saga(kind, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sagas = append(m.sagas, kind+":"+outcome)
}

func (m *recordingMetrics) settlementOutcomes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.settlements)
}

// serviceFixture сервисы поверх репозиториев в памяти и моков внешних сервисов.
type serviceFixture struct {
	now       time.Time
	customer  domain.Actor
	admin     domain.Actor
	orders    *memOrderRepo
	payments  *memPaymentRepo
	checkouts *memCheckoutRepo
	sagas     *memSagaRepo
	catalog   *mocks.MockProductCatalog
	provider  *mocks.MockPaymentProvider
	users     *mocks.MockUserDirectory
	notifier  *mocks.MockNotifier
	publisher *recordingPublisher
	metrics   *recordingMetrics
	services  *AppServices
}

func newServiceFixture(t *testing.T, ctrl *gomock.Controller) *serviceFixture {
	t.Helper()
	f := &serviceFixture{
		now:       time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
		customer:  domain.Actor{UserID: 10, Role: domain.RoleCustomer},
		admin:     domain.Actor{UserID: 1, Role: domain.RoleAdmin},
		orders:    newMemOrderRepo(),
		payments:  newMemPaymentRepo(),
		checkouts: newMemCheckoutRepo(),
		sagas:     newMemSagaRepo(),
		catalog:   mocks.NewMockProductCatalog(ctrl),
		provider:  mocks.NewMockPaymentProvider(ctrl),
		users:     mocks.NewMockUserDirectory(ctrl),
		notifier:  mocks.NewMockNotifier(ctrl),
		publisher: &recordingPublisher{},
		metrics:   &recordingMetrics{},
	}

	u := uowtest.New().
		MustRegister(uow.RepositoryName(repoargs.OrderRepoName), f.orders).
		MustRegister(uow.RepositoryName(repoargs.PaymentRepoName), f.payments).
		MustRegister(uow.RepositoryName(repoargs.CheckoutRepoName), f.checkouts).
		MustRegister(uow.RepositoryName(repoargs.SagaRepoName), f.sagas)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	// Уведомления не влияют на результат операций.
	f.notifier.EXPECT().SendOrderStatusNotification(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	f.notifier.EXPECT().SendOrderCancelNotification(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	services, err := Factory(Deps{
		UOW:       u,
		Catalog:   f.catalog,
		Provider:  f.provider,
		Users:     f.users,
		Notifier:  f.notifier,
		Publisher: f.publisher,
		Locker:    &localLocker{},
		Metrics:   f.metrics,
		Clock:     clock.NewFixed(f.now),
		Logger:    logger,
		Timeouts: Timeouts{
			PaymentRequest: time.Second,
			PaymentApprove: time.Second,
			PaymentRefund:  time.Second,
		},
	})
	require.NoError(t, err)
	f.services = services
	return f
}

func (f *serviceFixture) address() domain.Address {
	return domain.Address{
		RecipientName: gofakeit.Name(),
		Phone:         gofakeit.Phone(),
		ZipCode:       gofakeit.Zip(),
		Line1:         gofakeit.Street(),
	}
}

// seedOrder сохраняет заказ покупателя в статусе status: две позиции, 10000 x1 и 20000 x2,
// итого 50000 без платы за доставку.
func (f *serviceFixture) seedOrder(t *testing.T, status domain.OrderStatusType) *domain.Order {
	t.Helper()
	order, err := domain.NewOrder(domain.NewOrderArgs{
		OrderNumber: newOrderNumber(f.now),
		UserID:      f.customer.UserID,
		Items: []domain.OrderItem{
			{ProductID: 1, ProductName: gofakeit.ProductName(), Price: decimal.NewFromInt(10000), Quantity: 1},
			{ProductID: 2, ProductName: gofakeit.ProductName(), Price: decimal.NewFromInt(20000), Quantity: 2},
		},
		ShippingAddress: f.address(),
		PaymentMethod:   domain.PaymentMethodCard,
		Status:          status,
		Now:             f.now,
	})
	require.NoError(t, err)
	created, err := f.orders.Create(context.Background(), order)
	require.NoError(t, err)
	return created
}

// seedApprovedPayment сохраняет подтвержденный платеж заказа.
func (f *serviceFixture) seedApprovedPayment(t *testing.T, order *domain.Order, key string) *domain.Payment {
	t.Helper()
	p, err := domain.NewPayment(domain.NewPaymentArgs{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		PaymentKey:  key,
		Method:      order.PaymentMethod,
		Amount:      order.TotalAmount,
		Now:         f.now,
	})
	require.NoError(t, err)
	require.NoError(t, p.Approve(domain.ProviderPayment{PaymentKey: key, Amount: order.TotalAmount}, f.now))
	created, err := f.payments.Create(context.Background(), p)
	require.NoError(t, err)
	return created
}

// seedTimedOutPayment сохраняет платеж, подтверждение которого завершилось таймаутом провайдера.
func (f *serviceFixture) seedTimedOutPayment(t *testing.T, order *domain.Order, key string) *domain.Payment {
	t.Helper()
	p, err := domain.NewPayment(domain.NewPaymentArgs{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		PaymentKey:  key,
		Method:      order.PaymentMethod,
		Amount:      order.TotalAmount,
		Now:         f.now,
	})
	require.NoError(t, err)
	require.NoError(t, p.Fail(domain.ProviderCodeTimeout, "no response", f.now))
	created, err := f.payments.Create(context.Background(), p)
	require.NoError(t, err)
	return created
}

func (f *serviceFixture) expectProduct(id int64, price int64) {
	f.catalog.EXPECT().GetProduct(gomock.Any(), id).Return(&domain.Product{
		ID:       id,
		Name:     gofakeit.ProductName(),
		Price:    decimal.NewFromInt(price),
		Stock:    100,
		IsActive: true,
	}, nil)
	f.catalog.EXPECT().CheckStock(gomock.Any(), id, gomock.Any()).Return(true, nil)
}

func (f *serviceFixture) expectActiveUser(id int64) {
	f.users.EXPECT().GetUser(gomock.Any(), id).Return(&domain.UserInfo{
		ID:       id,
		Name:     gofakeit.Name(),
		Email:    gofakeit.Email(),
		IsActive: true,
	}, nil)
}

func (f *serviceFixture) approval(key string, order *domain.Order) *domain.ProviderPayment {
	return &domain.ProviderPayment{
		PaymentKey:  key,
		OrderNumber: order.OrderNumber,
		Amount:      order.TotalAmount,
		Status:      domain.ProviderStatusDone,
		ApprovedAt:  f.now,
		Data:        domain.NewTossData(domain.TossData{PaymentKey: key, Status: string(domain.ProviderStatusDone)}),
	}
}
