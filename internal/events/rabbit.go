package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

var ErrChannelClosed = errors.New("amqp delivery channel closed")

const rabbitPrefetch = 16

// RabbitBroker брокер на RabbitMQ: топики - ключи маршрутизации в topic exchange, подписчики одной группы
// читают общую durable очередь "<topic>.<group>".
type RabbitBroker struct {
	conn     *amqp.Connection
	exchange string

	mu    sync.Mutex
	pubCh *amqp.Channel

	l *logrus.Entry
}

func DialRabbit(url, exchange string, l *logrus.Logger) (*RabbitBroker, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, chErr := conn.Channel()
	if chErr != nil {
		return nil, errors.Join(fmt.Errorf("open publish channel: %w", chErr), conn.Close())
	}
	if err = ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		return nil, errors.Join(fmt.Errorf("declare exchange %s: %w", exchange, err), conn.Close())
	}
	if err = ch.Confirm(false); err != nil {
		return nil, errors.Join(fmt.Errorf("enable publisher confirms: %w", err), conn.Close())
	}
	return &RabbitBroker{
		conn:     conn,
		exchange: exchange,
		pubCh:    ch,
		l: l.WithFields(logrus.Fields{
			"component": "events",
			"module":    "rabbitmq",
		}),
	}, nil
}

// Publish публикует persistent сообщение и ждет подтверждения брокера.
func (b *RabbitBroker) Publish(ctx context.Context, msg Message) error {
	headers := make(amqp.Table, len(msg.Headers))
	for k, v := range msg.Headers {
		headers[k] = v
	}

	b.mu.Lock()
	confirm, err := b.pubCh.PublishWithDeferredConfirmWithContext(ctx, b.exchange, msg.Topic, false, false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    msg.Key,
			Timestamp:    time.Now().UTC(),
			Headers:      headers,
			Body:         msg.Body,
		})
	b.mu.Unlock()
	if err != nil {
		return fmt.Errorf("publish to %s: %w", msg.Topic, err)
	}

	acked, waitErr := confirm.WaitContext(ctx)
	if waitErr != nil {
		return fmt.Errorf("wait confirm from %s: %w", msg.Topic, waitErr)
	}
	if !acked {
		return fmt.Errorf("publish to %s: %w", msg.Topic, ErrNotAcknowledged)
	}
	return nil
}

// Subscribe читает очередь группы с ручным подтверждением. Сообщение, на котором handler вернул ошибку,
// возвращается в очередь.
func (b *RabbitBroker) Subscribe(ctx context.Context, topic, group string, handler Handler) error {
	ch, err := b.conn.Channel()
	if err != nil {
		return fmt.Errorf("open consume channel: %w", err)
	}
	defer ch.Close()

	q, err := ch.QueueDeclare(topic+"."+group, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("declare queue for %s: %w", topic, err)
	}
	if err = ch.QueueBind(q.Name, topic, b.exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue %s: %w", q.Name, err)
	}
	if err = ch.Qos(rabbitPrefetch, 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}
	deliveries, err := ch.Consume(q.Name, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", q.Name, err)
	}

	log := b.l.WithFields(logrus.Fields{"queue": q.Name})
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return ErrChannelClosed
			}
			msg := Message{Topic: d.RoutingKey, Key: d.MessageId, Body: d.Body, Headers: stringHeaders(d.Headers)}
			if hErr := handler(ctx, msg); hErr != nil {
				log.WithError(hErr).WithField("key", d.MessageId).Warn("handler failed, message requeued")
				if nErr := d.Nack(false, true); nErr != nil {
					return fmt.Errorf("nack message: %w", nErr)
				}
				continue
			}
			if aErr := d.Ack(false); aErr != nil {
				return fmt.Errorf("ack message: %w", aErr)
			}
		}
	}
}

func (b *RabbitBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return errors.Join(b.pubCh.Close(), b.conn.Close())
}

func stringHeaders(t amqp.Table) map[string]string {
	headers := make(map[string]string, len(t))
	for k, v := range t {
		headers[k] = fmt.Sprint(v)
	}
	return headers
}
