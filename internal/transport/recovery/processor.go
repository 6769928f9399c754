// Package recovery фоновое восстановление после сбоев: продолжает зависшие саги и сверяет платежи с провайдером.
package recovery

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	defaultTaskTimeout            = 60 * time.Second
	defaultProduceTimeout         = 3 * time.Second
	defaultInterval               = 5 * time.Second
	defaultLimitPerIteration uint = 50
	defaultWorkers           uint = 5
)

const (
	TaskSaga    = "saga"
	TaskPayment = "payment"

	outcomeDone   = "done"
	outcomeFailed = "failed"
)

var ErrNoTasks = errors.New("no tasks")

// Processor периодически выбирает зависшие саги и платежи с таймаутом и обрабатывает их пулом воркеров.
type Processor struct {
	sagas             SagaResumer
	payments          PaymentReconciler
	metrics           MetricsRecorder
	l                 *logrus.Entry
	interval          time.Duration
	taskTimeout       time.Duration
	limitPerIteration uint
	workers           uint
}

func New(sagas SagaResumer, payments PaymentReconciler, l *logrus.Logger) *Processor {
	return &Processor{
		sagas:    sagas,
		payments: payments,
		l: l.WithFields(logrus.Fields{
			"component": "recovery",
			"module":    "processor",
		}),
		interval:          defaultInterval,
		taskTimeout:       defaultTaskTimeout,
		limitPerIteration: defaultLimitPerIteration,
		workers:           defaultWorkers,
	}
}

// SetLimitPerIteration устанавливает кол-во саг и платежей, выбираемых за одну итерацию.
func (p *Processor) SetLimitPerIteration(limit uint) *Processor {
	p.limitPerIteration = limit
	return p
}

// SetWorkers устанавливает кол-во воркеров.
func (p *Processor) SetWorkers(workers uint) *Processor {
	if workers > 0 {
		p.workers = workers
	}
	return p
}

// SetInterval устанавливает паузу между итерациями.
func (p *Processor) SetInterval(d time.Duration) *Processor {
	if d > 0 {
		p.interval = d
	}
	return p
}

func (p *Processor) SetMetrics(m MetricsRecorder) *Processor {
	p.metrics = m
	return p
}

// Run запускает обработку до отмены контекста. Между итерациями выдерживается пауза interval.
func (p *Processor) Run(ctx context.Context) {
	p.l.WithFields(logrus.Fields{
		"limitPerIteration": p.limitPerIteration,
		"workers":           p.workers,
		"interval":          p.interval.String(),
	}).Info("Starting")

	for {
		if err := p.process(ctx); err != nil && !errors.Is(err, ErrNoTasks) {
			p.l.WithError(err).Error("process error")
		}

		select {
		case <-ctx.Done():
			p.l.Info("Got stop signal, exiting...")
			return
		case <-time.After(p.interval):
		}
	}
}

// task единица работы воркера.
type task struct {
	kind   string
	fields logrus.Fields
	run    func(ctx context.Context) error
}

type workerResult struct {
	WorkerID uint
	Task     *task
	Error    error
}

// process выбирает задачи обоих видов и обрабатывает их. Возвращает ErrNoTasks, если обрабатывать нечего.
// Ошибка выборки одного вида задач не мешает обработке другого.
func (p *Processor) process(ctx context.Context) error {
	tasks, produceErr := p.produce(ctx)
	if len(tasks) == 0 {
		if produceErr != nil {
			return fmt.Errorf("process: %w", produceErr)
		}
		return ErrNoTasks
	}

	for _, result := range p.runWorkers(ctx, tasks) {
		l := p.l.WithFields(result.Task.fields).WithFields(logrus.Fields{
			"worker": result.WorkerID,
			"task":   result.Task.kind,
		})
		if result.Error != nil {
			l.WithError(result.Error).Warn("recovery task failed")
			p.record(result.Task.kind, outcomeFailed)
			continue
		}
		l.Debug("recovery task done")
		p.record(result.Task.kind, outcomeDone)
	}

	if produceErr != nil {
		return fmt.Errorf("process: %w", produceErr)
	}
	return nil
}

func (p *Processor) produce(ctx context.Context) ([]*task, error) {
	produceCtx, cancel := context.WithTimeout(ctx, defaultProduceTimeout)
	defer cancel()

	var (
		tasks []*task
		errs  []error
	)

	sagas, sagasErr := p.sagas.StaleSagas(produceCtx, p.limitPerIteration)
	if sagasErr != nil {
		errs = append(errs, fmt.Errorf("stale sagas: %w", sagasErr))
	}
	for _, saga := range sagas {
		tasks = append(tasks, &task{
			kind: TaskSaga,
			fields: logrus.Fields{
				"sagaID":  saga.ID,
				"orderID": saga.OrderID,
				"status":  saga.Status,
				"attempt": saga.Attempts + 1,
			},
			run: func(c context.Context) error {
				return p.sagas.Resume(c, saga) //nolint:wrapcheck
			},
		})
	}

	payments, paymentsErr := p.payments.TimedOutPayments(produceCtx, p.limitPerIteration)
	if paymentsErr != nil {
		errs = append(errs, fmt.Errorf("timed out payments: %w", paymentsErr))
	}
	for _, payment := range payments {
		tasks = append(tasks, &task{
			kind: TaskPayment,
			fields: logrus.Fields{
				"paymentID":  payment.ID,
				"paymentKey": payment.PaymentKey,
			},
			run: func(c context.Context) error {
				return p.payments.ReconcilePayment(c, payment) //nolint:wrapcheck
			},
		})
	}

	return tasks, errors.Join(errs...)
}

// runWorkers раздает задачи воркерам и ждет завершения всех.
func (p *Processor) runWorkers(ctx context.Context, tasks []*task) []workerResult {
	taskCh := make(chan *task, len(tasks))
	for _, t := range tasks {
		taskCh <- t
	}
	close(taskCh)

	resultCh := make(chan workerResult, len(tasks))
	wg := new(sync.WaitGroup)
	for i := range p.workers {
		wg.Add(1)
		go p.worker(ctx, wg, i+1, taskCh, resultCh)
	}
	wg.Wait()
	close(resultCh)

	results := make([]workerResult, 0, len(tasks))
	for result := range resultCh {
		results = append(results, result)
	}
	return results
}

func (p *Processor) worker(
	ctx context.Context,
	wg *sync.WaitGroup,
	workerID uint,
	taskCh <-chan *task,
	resultCh chan<- workerResult,
) {
	defer wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case t, ok := <-taskCh:
			if !ok {
				return
			}
			taskCtx, cancel := context.WithTimeout(ctx, p.taskTimeout)
			err := t.run(taskCtx)
			cancel()
			resultCh <- workerResult{WorkerID: workerID, Task: t, Error: err}
		}
	}
}

func (p *Processor) record(kind, outcome string) {
	if p.metrics != nil {
		p.metrics.RecoveryTask(kind, outcome)
	}
}
