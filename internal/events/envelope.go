// Package events публикует доменные события заказов в брокер сообщений с повторными попытками и
// отправкой в dead-letter очередь.
package events

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventOrderCreated          EventType = "OrderCreated"
	EventOrderStatusUpdated    EventType = "OrderStatusUpdated"
	EventOrderCancelled        EventType = "OrderCancelled"
	EventOrderPaymentCompleted EventType = "OrderPaymentCompleted"
)

// SchemaVersion версия формата конверта и полезной нагрузки.
const SchemaVersion = "1.0"

// Topic топик брокера. Топики разделены по бизнес-областям, плюс отдельный dead-letter.
type Topic string

const (
	TopicOrder      Topic = "order-events"
	TopicUser       Topic = "user-events"
	TopicProduct    Topic = "product-events"
	TopicCart       Topic = "cart-events"
	TopicSystem     Topic = "system-events"
	TopicDeadLetter Topic = "dead-letter"
)

// WithPrefix имя топика в брокере с учетом префикса окружения.
func (t Topic) WithPrefix(prefix string) string {
	return prefix + string(t)
}

// Заголовки сообщений.
const (
	HeaderEventType     = "x-event-type"
	HeaderRetryCount    = "x-retry-count"
	HeaderLastError     = "x-last-error"
	HeaderOriginalTopic = "x-original-topic"
	HeaderReplayCount   = "x-replay-count"
)

type Envelope struct {
	EventID          string          `json:"eventId"`
	EventType        EventType       `json:"eventType"`
	AggregateID      string          `json:"aggregateId"`
	Timestamp        time.Time       `json:"timestamp"`
	SchemaVersion    string          `json:"schemaVersion"`
	ProducingService string          `json:"producingService"`
	Payload          json.RawMessage `json:"payload"`
}

// NewEnvelope создает конверт с новым eventId и сериализованной полезной нагрузкой.
func NewEnvelope(eventType EventType, aggregateID string, payload any, producer string, now time.Time) (Envelope, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return Envelope{
		EventID:          uuid.NewString(),
		EventType:        eventType,
		AggregateID:      aggregateID,
		Timestamp:        now.UTC(),
		SchemaVersion:    SchemaVersion,
		ProducingService: producer,
		Payload:          body,
	}, nil
}

// Topic бизнес-область события определяется префиксом типа.
func (e Envelope) Topic() Topic {
	switch t := string(e.EventType); {
	case strings.HasPrefix(t, "Order"):
		return TopicOrder
	case strings.HasPrefix(t, "User"):
		return TopicUser
	case strings.HasPrefix(t, "Product"):
		return TopicProduct
	case strings.HasPrefix(t, "Cart"):
		return TopicCart
	default:
		return TopicSystem
	}
}

func (e Envelope) DecodePayload(v any) error {
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.EventType, err)
	}
	return nil
}
