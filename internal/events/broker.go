package events

//go:generate mockgen -source=broker.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"errors"
)

var ErrNotAcknowledged = errors.New("broker did not acknowledge message")

type Message struct {
	Topic   string
	Key     string
	Body    []byte
	Headers map[string]string
}

type Handler func(ctx context.Context, msg Message) error

// Broker транспорт сообщений. Subscribe блокируется до отмены ctx или ошибки подписки; ошибка handler
// означает, что сообщение нужно доставить повторно.
type Broker interface {
	Publish(ctx context.Context, msg Message) error
	Subscribe(ctx context.Context, topic, group string, handler Handler) error
	Close() error
}

// MetricsRecorder учитывает исходы публикации: published, retried, dead_lettered, dropped.
type MetricsRecorder interface {
	EventPublish(outcome string)
}

// NopBroker брокер-заглушка для запуска без брокера сообщений: сообщения отбрасываются.
type NopBroker struct{}

func (NopBroker) Publish(context.Context, Message) error {
	return nil
}

func (NopBroker) Subscribe(ctx context.Context, _, _ string, _ Handler) error {
	<-ctx.Done()
	return ctx.Err()
}

func (NopBroker) Close() error {
	return nil
}
