package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type SagaTestSuite struct {
	suite.Suite
	now   time.Time
	order *Order
}

func TestSagaSuite(t *testing.T) {
	suite.Run(t, new(SagaTestSuite))
}

func (s *SagaTestSuite) SetupTest() {
	s.now = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s.order = &Order{
		ID:          5,
		OrderNumber: "ORD-20250301-0000000A",
		Items: []OrderItem{
			{ProductID: 1, Quantity: 2},
			{ProductID: 2, Quantity: 1},
		},
	}
}

func (s *SagaTestSuite) TestNewSaga() {
	saga := NewSaga(NewSagaArgs{Order: s.order, Kind: SagaKindCancel, ReleaseStock: true, Now: s.now})
	s.Equal(SagaStatusStarted, saga.Status)
	s.Equal([]StockLine{{ProductID: 1, Quantity: 2}, {ProductID: 2, Quantity: 1}}, saga.PendingReleases)

	saga = NewSaga(NewSagaArgs{Order: s.order, Kind: SagaKindRefund, Now: s.now})
	s.Empty(saga.PendingReleases)
}

func (s *SagaTestSuite) TestSettleReleases() {
	saga := NewSaga(NewSagaArgs{Order: s.order, Kind: SagaKindCancel, ReleaseStock: true, Now: s.now})
	s.ErrorIs(saga.SettleReleases(nil, s.now), ErrInvalidTransition)

	s.Require().NoError(saga.Advance(SagaStatusFundsSettled, s.now))
	failed := []StockLine{{ProductID: 2, Quantity: 1}}
	s.Require().NoError(saga.SettleReleases(failed, s.now))
	s.Equal(SagaStatusReleasePending, saga.Status)
	s.Equal(failed, saga.PendingReleases)
	s.True(saga.Status.IsOpen())

	s.Require().NoError(saga.SettleReleases(failed, s.now))
	s.Equal(SagaStatusReleasePending, saga.Status)

	s.Require().NoError(saga.SettleReleases(nil, s.now))
	s.Equal(SagaStatusStockReleased, saga.Status)
	s.Empty(saga.PendingReleases)
	s.True(saga.Status.IsOpen())

	// повторный возврат после stock_released запрещен.
	s.ErrorIs(saga.SettleReleases(failed, s.now), ErrInvalidTransition)
	s.ErrorIs(saga.SettleReleases(nil, s.now), ErrInvalidTransition)

	s.Require().NoError(saga.Advance(SagaStatusCompleted, s.now))
	s.False(saga.Status.IsOpen())
}

// TestAdvance_CompletedOnlyAfterStockReleased Тест на завершение саги только после сохраненного возврата остатков.
func (s *SagaTestSuite) TestAdvance_CompletedOnlyAfterStockReleased() {
	saga := NewSaga(NewSagaArgs{Order: s.order, Kind: SagaKindCancel, ReleaseStock: true, Now: s.now})
	s.Require().NoError(saga.Advance(SagaStatusFundsSettled, s.now))
	s.ErrorIs(saga.Advance(SagaStatusCompleted, s.now), ErrInvalidTransition)

	s.Require().NoError(saga.SettleReleases([]StockLine{{ProductID: 1, Quantity: 2}}, s.now))
	s.ErrorIs(saga.Advance(SagaStatusCompleted, s.now), ErrInvalidTransition)
}

func (s *SagaTestSuite) TestRecordFailure_ExhaustsAttempts() {
	saga := NewSaga(NewSagaArgs{Order: s.order, Kind: SagaKindCancel, Now: s.now})
	for i := 1; i < MaxSagaAttempts; i++ {
		s.False(saga.RecordFailure(errors.New("provider down"), s.now))
	}
	s.True(saga.RecordFailure(errors.New("provider down"), s.now))
	s.Equal(SagaStatusFailed, saga.Status)
	s.Equal("provider down", saga.LastError)
}
