package events

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

const kafkaHandlerRetryDelay = time.Second

// KafkaBroker брокер на Kafka. Writer создается лениво на каждый топик, ключ сообщения определяет партицию.
type KafkaBroker struct {
	brokers []string

	mu      sync.Mutex
	writers map[string]*kafka.Writer
	readers []*kafka.Reader

	l *logrus.Entry
}

// NewKafkaBroker brokers - адреса через запятую.
func NewKafkaBroker(brokers string, l *logrus.Logger) *KafkaBroker {
	var addrs []string
	for _, b := range strings.Split(brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			addrs = append(addrs, b)
		}
	}
	return &KafkaBroker{
		brokers: addrs,
		writers: make(map[string]*kafka.Writer),
		l: l.WithFields(logrus.Fields{
			"component": "events",
			"module":    "kafka",
		}),
	}
}

func (b *KafkaBroker) writer(topic string) *kafka.Writer {
	b.mu.Lock()
	defer b.mu.Unlock()
	w, ok := b.writers[topic]
	if !ok {
		w = &kafka.Writer{
			Addr:         kafka.TCP(b.brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
		}
		b.writers[topic] = w
	}
	return w
}

func (b *KafkaBroker) Publish(ctx context.Context, msg Message) error {
	headers := make([]kafka.Header, 0, len(msg.Headers))
	for k, v := range msg.Headers {
		headers = append(headers, kafka.Header{Key: k, Value: []byte(v)})
	}
	err := b.writer(msg.Topic).WriteMessages(ctx, kafka.Message{
		Key:     []byte(msg.Key),
		Value:   msg.Body,
		Headers: headers,
		Time:    time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("write to %s: %w", msg.Topic, err)
	}
	return nil
}

// Subscribe читает топик в составе consumer group. Offset фиксируется только после успешной обработки,
// при ошибке handler вызывается повторно.
func (b *KafkaBroker) Subscribe(ctx context.Context, topic, group string, handler Handler) error {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  b.brokers,
		GroupID:  group,
		Topic:    topic,
		MinBytes: 10e3,
		MaxBytes: 10e6,
	})
	b.mu.Lock()
	b.readers = append(b.readers, r)
	b.mu.Unlock()

	log := b.l.WithFields(logrus.Fields{"topic": topic, "group": group})
	for {
		m, err := r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("fetch from %s: %w", topic, err)
		}

		msg := Message{Topic: m.Topic, Key: string(m.Key), Body: m.Value, Headers: make(map[string]string, len(m.Headers))}
		for _, h := range m.Headers {
			msg.Headers[h.Key] = string(h.Value)
		}

		for {
			hErr := handler(ctx, msg)
			if hErr == nil {
				break
			}
			log.WithError(hErr).WithField("offset", m.Offset).Warn("handler failed, retrying")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(kafkaHandlerRetryDelay):
			}
		}

		if err = r.CommitMessages(ctx, m); err != nil {
			return fmt.Errorf("commit offset %d: %w", m.Offset, err)
		}
	}
}

func (b *KafkaBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	var errs []error
	for _, w := range b.writers {
		errs = append(errs, w.Close())
	}
	for _, r := range b.readers {
		errs = append(errs, r.Close())
	}
	return errors.Join(errs...)
}
