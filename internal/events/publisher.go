package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

var (
	ErrQueueFull        = errors.New("publisher queue is full")
	ErrPublisherStopped = errors.New("publisher is stopped")
)

const (
	defaultQueueSize    = 1024
	defaultWorkersCount = 4
	defaultDrainTimeout = 10 * time.Second
	overflowTimeout     = 5 * time.Second
)

// Publisher асинхронно публикует события: Publish только ставит событие в очередь, доставку с повторными
// попытками выполняют воркеры. Событие, которое не удалось доставить, уходит в dead-letter топик.
type Publisher struct {
	broker       Broker
	prefix       string
	queue        chan Envelope
	workersCount uint
	retry        RetryConfig
	drainTimeout time.Duration
	metrics      MetricsRecorder
	stopped      atomic.Bool

	l *logrus.Entry
}

func NewPublisher(broker Broker, l *logrus.Logger) *Publisher {
	return &Publisher{
		broker:       broker,
		queue:        make(chan Envelope, defaultQueueSize),
		workersCount: defaultWorkersCount,
		retry:        DefaultRetryConfig(),
		drainTimeout: defaultDrainTimeout,
		l: l.WithFields(logrus.Fields{
			"component": "events",
			"module":    "publisher",
		}),
	}
}

// SetQueueSize размер очереди. Вызывать до первого Publish.
func (p *Publisher) SetQueueSize(size uint) *Publisher {
	if size > 0 {
		p.queue = make(chan Envelope, size)
	}
	return p
}

func (p *Publisher) SetWorkersCount(n uint) *Publisher {
	if n > 0 {
		p.workersCount = n
	}
	return p
}

func (p *Publisher) SetRetry(cfg RetryConfig) *Publisher {
	p.retry = cfg
	return p
}

func (p *Publisher) SetTopicPrefix(prefix string) *Publisher {
	p.prefix = prefix
	return p
}

func (p *Publisher) SetDrainTimeout(d time.Duration) *Publisher {
	p.drainTimeout = d
	return p
}

func (p *Publisher) SetMetrics(m MetricsRecorder) *Publisher {
	p.metrics = m
	return p
}

// Publish ставит событие в очередь без блокировки. Если очередь переполнена, событие сразу отправляется
// в dead-letter топик, откуда его вернет replayer. ErrQueueFull означает, что событие не принято никуда.
func (p *Publisher) Publish(ctx context.Context, env Envelope) error {
	if p.stopped.Load() {
		return ErrPublisherStopped
	}
	select {
	case p.queue <- env:
		return nil
	default:
		return p.overflow(ctx, env)
	}
}

func (p *Publisher) overflow(ctx context.Context, env Envelope) error {
	log := p.l.WithFields(logrus.Fields{
		"eventId":   env.EventID,
		"eventType": env.EventType,
	})
	body, marshalErr := json.Marshal(env)
	if marshalErr != nil {
		p.record("dropped")
		return fmt.Errorf("marshal envelope %s: %w", env.EventID, marshalErr)
	}

	dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), overflowTimeout)
	defer cancel()
	topic := env.Topic().WithPrefix(p.prefix)
	if err := p.deadLetter(dctx, env, body, topic, 0, ErrQueueFull); err != nil {
		p.record("dropped")
		log.WithError(err).Error("queue is full and dead-letter publish failed, event dropped")
		return fmt.Errorf("event %s: %w", env.EventID, errors.Join(ErrQueueFull, err))
	}
	p.record("dead_lettered")
	log.Warn("queue is full, event moved to dead-letter topic")
	return nil
}

// Run запускает воркеры доставки и блокируется до отмены ctx. После отмены новые события не принимаются,
// а оставшиеся в очереди доставляются в пределах drainTimeout.
func (p *Publisher) Run(ctx context.Context) {
	p.l.WithField("workers", p.workersCount).Info("starting event publisher")

	var wg sync.WaitGroup
	for range p.workersCount {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.worker(ctx)
		}()
	}
	wg.Wait()

	p.stopped.Store(true)
	p.drain()
	p.l.Info("event publisher stopped")
}

func (p *Publisher) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case env := <-p.queue:
			// начатая доставка доводится до конца и после остановки.
			_ = p.Deliver(context.WithoutCancel(ctx), env)
		}
	}
}

func (p *Publisher) drain() {
	drainCtx, cancel := context.WithTimeout(context.Background(), p.drainTimeout)
	defer cancel()
	for {
		select {
		case env := <-p.queue:
			if err := p.Deliver(drainCtx, env); err != nil && drainCtx.Err() != nil {
				p.l.WithField("left", len(p.queue)+1).Error("drain timeout exceeded, events lost")
				return
			}
		default:
			return
		}
	}
}

// Deliver синхронно доставляет событие в его топик с повторными попытками, а при неудаче - в dead-letter топик.
// Возвращает ошибку, только если событие не удалось доставить никуда.
func (p *Publisher) Deliver(ctx context.Context, env Envelope) error {
	body, marshalErr := json.Marshal(env)
	if marshalErr != nil {
		p.record("dropped")
		return fmt.Errorf("marshal envelope %s: %w", env.EventID, marshalErr)
	}
	topic := env.Topic().WithPrefix(p.prefix)
	msg := Message{
		Topic:   topic,
		Key:     env.AggregateID,
		Body:    body,
		Headers: map[string]string{HeaderEventType: string(env.EventType)},
	}

	log := p.l.WithFields(logrus.Fields{
		"eventId":   env.EventID,
		"eventType": env.EventType,
		"topic":     topic,
	})

	attempts, err := retryWithBackoff(ctx, p.retry, func(ctx context.Context) error {
		pubErr := p.broker.Publish(ctx, msg)
		if pubErr != nil {
			p.record("retried")
			log.WithError(pubErr).Warn("publish attempt failed")
		}
		return pubErr
	})
	if err == nil {
		p.record("published")
		log.Debug("event published")
		return nil
	}

	if dlqErr := p.deadLetter(ctx, env, body, topic, attempts, err); dlqErr != nil {
		p.record("dropped")
		log.WithError(errors.Join(err, dlqErr)).Error("event lost, dead-letter publish failed")
		return fmt.Errorf("deliver event %s: %w", env.EventID, errors.Join(err, dlqErr))
	}
	p.record("dead_lettered")
	log.WithError(err).WithField("attempts", attempts).Error("event moved to dead-letter topic")
	return nil
}

// deadLetter публикует событие в dead-letter топик с причиной cause и исходным топиком.
func (p *Publisher) deadLetter(
	ctx context.Context,
	env Envelope,
	body []byte,
	topic string,
	attempts int,
	cause error,
) error {
	return p.broker.Publish(ctx, Message{ //nolint:wrapcheck
		Topic: TopicDeadLetter.WithPrefix(p.prefix),
		Key:   env.EventID,
		Body:  body,
		Headers: map[string]string{
			HeaderEventType:     string(env.EventType),
			HeaderRetryCount:    strconv.Itoa(attempts),
			HeaderLastError:     cause.Error(),
			HeaderOriginalTopic: topic,
		},
	})
}

func (p *Publisher) record(outcome string) {
	if p.metrics != nil {
		p.metrics.EventPublish(outcome)
	}
}
