package events

import (
	"context"
	"fmt"
	"strconv"

	"github.com/sirupsen/logrus"
)

const (
	defaultReplayGroup = "order-service-dlq-replayer"
	defaultMaxReplays  = 3
)

// Replayer читает dead-letter топик и возвращает сообщения в исходный топик, пока не исчерпан лимит
// повторов. Сообщения сверх лимита только логируются и остаются для ручного разбора.
type Replayer struct {
	broker     Broker
	prefix     string
	group      string
	maxReplays int
	metrics    MetricsRecorder

	l *logrus.Entry
}

func NewReplayer(broker Broker, l *logrus.Logger) *Replayer {
	return &Replayer{
		broker:     broker,
		group:      defaultReplayGroup,
		maxReplays: defaultMaxReplays,
		l: l.WithFields(logrus.Fields{
			"component": "events",
			"module":    "replayer",
		}),
	}
}

func (r *Replayer) SetTopicPrefix(prefix string) *Replayer {
	r.prefix = prefix
	return r
}

func (r *Replayer) SetGroup(group string) *Replayer {
	if group != "" {
		r.group = group
	}
	return r
}

func (r *Replayer) SetMaxReplays(n int) *Replayer {
	r.maxReplays = n
	return r
}

func (r *Replayer) SetMetrics(m MetricsRecorder) *Replayer {
	r.metrics = m
	return r
}

// Run подписывается на dead-letter топик и блокируется до отмены ctx.
func (r *Replayer) Run(ctx context.Context) error {
	topic := TopicDeadLetter.WithPrefix(r.prefix)
	r.l.WithField("topic", topic).Info("starting dead-letter replayer")
	if err := r.broker.Subscribe(ctx, topic, r.group, r.Handle); err != nil && ctx.Err() == nil {
		return fmt.Errorf("subscribe to %s: %w", topic, err)
	}
	return nil
}

// Handle обрабатывает одно сообщение dead-letter топика.
func (r *Replayer) Handle(ctx context.Context, msg Message) error {
	original := msg.Headers[HeaderOriginalTopic]
	replays, _ := strconv.Atoi(msg.Headers[HeaderReplayCount])

	log := r.l.WithFields(logrus.Fields{
		"key":            msg.Key,
		"eventType":      msg.Headers[HeaderEventType],
		"originalTopic":  original,
		"replayCount":    replays,
		"lastError":      msg.Headers[HeaderLastError],
		"deliveryTrials": msg.Headers[HeaderRetryCount],
	})

	if original == "" {
		log.Error("dead-letter message without original topic, skipped")
		return nil
	}
	if replays >= r.maxReplays {
		r.record("parked")
		log.Error("replay limit reached, message parked")
		return nil
	}

	headers := copyHeaders(msg.Headers)
	headers[HeaderReplayCount] = strconv.Itoa(replays + 1)
	delete(headers, HeaderOriginalTopic)
	delete(headers, HeaderLastError)
	delete(headers, HeaderRetryCount)

	if err := r.broker.Publish(ctx, Message{Topic: original, Key: msg.Key, Body: msg.Body, Headers: headers}); err != nil {
		// возвращаем в dead-letter с увеличенным счетчиком, чтобы не зациклиться на одном сообщении.
		back := copyHeaders(msg.Headers)
		back[HeaderReplayCount] = strconv.Itoa(replays + 1)
		back[HeaderLastError] = err.Error()
		if backErr := r.broker.Publish(ctx, Message{Topic: msg.Topic, Key: msg.Key, Body: msg.Body, Headers: back}); backErr != nil {
			return fmt.Errorf("requeue dead-letter message %s: %w", msg.Key, backErr)
		}
		log.WithError(err).Warn("replay failed, message returned to dead-letter topic")
		return nil
	}
	r.record("replayed")
	log.Info("message replayed")
	return nil
}

func (r *Replayer) record(outcome string) {
	if r.metrics != nil {
		r.metrics.EventPublish(outcome)
	}
}

func copyHeaders(src map[string]string) map[string]string {
	dst := make(map[string]string, len(src)+1)
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
