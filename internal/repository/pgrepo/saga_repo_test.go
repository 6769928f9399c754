package pgrepo

import (
	"time"

	"github.com/jamongadejoa28/sassmall-sub003/internal/domain"
)

func (s *RepositoryTestSuite) createSaga(number string, updatedAt time.Time) *domain.Saga {
	order, err := NewOrderRepository(s.pool).Create(s.ctx, s.newOrder(number))
	s.Require().NoError(err)
	saga := domain.NewSaga(domain.NewSagaArgs{
		Order:        order,
		Kind:         domain.SagaKindCancel,
		Actor:        domain.Actor{UserID: order.UserID, Role: domain.RoleCustomer},
		ReleaseStock: true,
		Now:          updatedAt,
	})
	created, err := NewSagaRepository(s.pool).Create(s.ctx, saga)
	s.Require().NoError(err)
	return created
}

// TestSaga_SaveStepsAndListStale Тест на сохранение шагов саги и выборку незавершенных саг.
func (s *RepositoryTestSuite) TestSaga_SaveStepsAndListStale() {
	repo := NewSagaRepository(s.pool)
	old := s.now.Add(-time.Hour)
	released := s.createSaga("ORD-20250301-0000000D", old)
	pending := s.createSaga("ORD-20250301-0000000E", s.now)
	fresh := s.createSaga("ORD-20250301-0000000F", s.now)

	s.Require().NoError(released.Advance(domain.SagaStatusFundsSettled, old))
	s.Require().NoError(repo.Save(s.ctx, released, domain.SagaStatusStarted))
	s.Require().NoError(released.SettleReleases(nil, old))
	s.Require().NoError(repo.Save(s.ctx, released, domain.SagaStatusFundsSettled))

	s.Require().NoError(pending.Advance(domain.SagaStatusFundsSettled, s.now))
	s.Require().NoError(repo.Save(s.ctx, pending, domain.SagaStatusStarted))
	left := []domain.StockLine{{ProductID: 9, Quantity: 1}}
	s.Require().NoError(pending.SettleReleases(left, s.now))
	s.Require().NoError(repo.Save(s.ctx, pending, domain.SagaStatusFundsSettled))

	stale, err := repo.ListStale(s.ctx, s.now.Add(-time.Minute), 10)
	s.Require().NoError(err)
	ids := make([]int64, 0, len(stale))
	for _, saga := range stale {
		ids = append(ids, saga.ID)
	}
	s.ElementsMatch([]int64{released.ID, pending.ID}, ids)
	s.NotContains(ids, fresh.ID)

	found, err := repo.FindByID(s.ctx, pending.ID)
	s.Require().NoError(err)
	s.Equal(domain.SagaStatusReleasePending, found.Status)
	s.Equal(left, found.PendingReleases)

	found, err = repo.FindOpenByOrderID(s.ctx, released.OrderID)
	s.Require().NoError(err)
	s.Equal(domain.SagaStatusStockReleased, found.Status)
	s.Empty(found.PendingReleases)
}

// TestSaga_SaveStale Тест на отказ сохранить сагу из устаревшего статуса.
func (s *RepositoryTestSuite) TestSaga_SaveStale() {
	repo := NewSagaRepository(s.pool)
	saga := s.createSaga("ORD-20250301-00000010", s.now)

	next := *saga
	s.Require().NoError(next.Advance(domain.SagaStatusFundsSettled, s.now))
	s.Require().NoError(repo.Save(s.ctx, &next, domain.SagaStatusStarted))

	again := *saga
	s.Require().NoError(again.Advance(domain.SagaStatusFundsSettled, s.now))
	s.ErrorIs(repo.Save(s.ctx, &again, domain.SagaStatusStarted), domain.ErrStaleState)

	_, err := repo.Create(s.ctx, domain.NewSaga(domain.NewSagaArgs{
		Order: &domain.Order{ID: saga.OrderID, OrderNumber: saga.OrderNumber},
		Kind:  domain.SagaKindRefund,
		Now:   s.now,
	}))
	s.ErrorIs(err, domain.ErrDuplicateKey)
}
