package recovery

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/suite"

	"github.com/jamongadejoa28/sassmall-sub003/internal/domain"
	"github.com/jamongadejoa28/sassmall-sub003/internal/transport/recovery/mocks"
)

type ProcessorTestSuite struct {
	suite.Suite
	processor    *Processor
	mockSagas    *mocks.MockSagaResumer
	mockPayments *mocks.MockPaymentReconciler
	mockMetrics  *mocks.MockMetricsRecorder
	ctrl         *gomock.Controller
}

func (s *ProcessorTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())

	s.mockSagas = mocks.NewMockSagaResumer(s.ctrl)
	s.mockPayments = mocks.NewMockPaymentReconciler(s.ctrl)
	s.mockMetrics = mocks.NewMockMetricsRecorder(s.ctrl)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	s.processor = New(s.mockSagas, s.mockPayments, logger).
		SetWorkers(3).
		SetMetrics(s.mockMetrics)
}

func (s *ProcessorTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestProcessorSuite(t *testing.T) {
	suite.Run(t, new(ProcessorTestSuite))
}

// TestProcess_NoTasks Тест на итерацию без саг и платежей.
func (s *ProcessorTestSuite) TestProcess_NoTasks() {
	s.mockSagas.EXPECT().StaleSagas(gomock.Any(), s.processor.limitPerIteration).Return(nil, nil)
	s.mockPayments.EXPECT().TimedOutPayments(gomock.Any(), s.processor.limitPerIteration).Return(nil, nil)

	err := s.processor.process(s.T().Context())

	s.ErrorIs(err, ErrNoTasks)
}

// TestProcess_Success Тест на обработку саг и платежей пулом воркеров.
func (s *ProcessorTestSuite) TestProcess_Success() {
	sagas := []domain.Saga{
		{ID: 1, OrderID: 10, Status: domain.SagaStatusReleasePending},
		{ID: 2, OrderID: 11, Status: domain.SagaStatusStarted},
	}
	payments := []domain.Payment{
		{ID: 5, PaymentKey: "pk-5", Status: domain.PaymentStatusFailed, FailureCode: domain.ProviderCodeTimeout},
	}

	s.mockSagas.EXPECT().StaleSagas(gomock.Any(), gomock.Any()).Return(sagas, nil)
	s.mockPayments.EXPECT().TimedOutPayments(gomock.Any(), gomock.Any()).Return(payments, nil)

	var (
		mu      sync.Mutex
		resumed []int64
	)
	s.mockSagas.EXPECT().Resume(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, saga domain.Saga) error {
			mu.Lock()
			resumed = append(resumed, saga.ID)
			mu.Unlock()
			return nil
		}).Times(2)
	s.mockPayments.EXPECT().ReconcilePayment(gomock.Any(), payments[0]).Return(nil)

	s.mockMetrics.EXPECT().RecoveryTask(TaskSaga, outcomeDone).Times(2)
	s.mockMetrics.EXPECT().RecoveryTask(TaskPayment, outcomeDone).Times(1)

	ctx, cancel := context.WithTimeout(s.T().Context(), time.Second)
	defer cancel()
	s.Require().NoError(s.processor.process(ctx))
	s.ElementsMatch([]int64{1, 2}, resumed)
}

// TestProcess_TaskFailure Тест на то, что ошибка одной задачи не мешает остальным.
func (s *ProcessorTestSuite) TestProcess_TaskFailure() {
	sagas := []domain.Saga{{ID: 1}, {ID: 2}}

	s.mockSagas.EXPECT().StaleSagas(gomock.Any(), gomock.Any()).Return(sagas, nil)
	s.mockPayments.EXPECT().TimedOutPayments(gomock.Any(), gomock.Any()).Return(nil, nil)
	s.mockSagas.EXPECT().Resume(gomock.Any(), sagas[0]).Return(errors.New("refund failed"))
	s.mockSagas.EXPECT().Resume(gomock.Any(), sagas[1]).Return(nil)

	s.mockMetrics.EXPECT().RecoveryTask(TaskSaga, outcomeFailed)
	s.mockMetrics.EXPECT().RecoveryTask(TaskSaga, outcomeDone)

	s.Require().NoError(s.processor.process(s.T().Context()))
}

// TestProcess_ProduceError Тест на ошибку выборки саг при доступных платежах.
func (s *ProcessorTestSuite) TestProcess_ProduceError() {
	payment := domain.Payment{ID: 7, PaymentKey: "pk-7"}

	s.mockSagas.EXPECT().StaleSagas(gomock.Any(), gomock.Any()).Return(nil, errors.New("db is down"))
	s.mockPayments.EXPECT().TimedOutPayments(gomock.Any(), gomock.Any()).Return([]domain.Payment{payment}, nil)
	s.mockPayments.EXPECT().ReconcilePayment(gomock.Any(), payment).Return(nil)
	s.mockMetrics.EXPECT().RecoveryTask(TaskPayment, outcomeDone)

	err := s.processor.process(s.T().Context())

	s.Require().Error(err)
	s.NotErrorIs(err, ErrNoTasks)
}

// TestRun_Stop Тест на остановку цикла по отмене контекста.
func (s *ProcessorTestSuite) TestRun_Stop() {
	s.mockSagas.EXPECT().StaleSagas(gomock.Any(), gomock.Any()).Return(nil, nil).AnyTimes()
	s.mockPayments.EXPECT().TimedOutPayments(gomock.Any(), gomock.Any()).Return(nil, nil).AnyTimes()

	ctx, cancel := context.WithCancel(s.T().Context())
	done := make(chan struct{})
	go func() {
		s.processor.SetInterval(10 * time.Millisecond).Run(ctx)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		s.Fail("processor did not stop")
	}
}
