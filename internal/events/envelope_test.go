package events_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamongadejoa28/sassmall-sub003/internal/domain"
	"github.com/jamongadejoa28/sassmall-sub003/internal/events"
)

func TestEnvelope_Topic(t *testing.T) {
	cases := []struct {
		eventType events.EventType
		want      events.Topic
	}{
		{events.EventOrderCreated, events.TopicOrder},
		{events.EventOrderCancelled, events.TopicOrder},
		{"UserRegistered", events.TopicUser},
		{"ProductUpdated", events.TopicProduct},
		{"CartCleared", events.TopicCart},
		{"Heartbeat", events.TopicSystem},
	}
	for _, tc := range cases {
		t.Run(string(tc.eventType), func(t *testing.T) {
			assert.Equal(t, tc.want, events.Envelope{EventType: tc.eventType}.Topic())
		})
	}
}

func TestNewEnvelope(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.FixedZone("KST", 9*3600))
	payload := events.OrderCancelledPayload{
		OrderID:     7,
		OrderNumber: "ORD-20250301-ABCDEF12",
		UserID:      3,
		Reason:      "changed mind",
		Refunded:    true,
		PendingReleases: []domain.StockLine{
			{ProductID: 1, Quantity: 2},
		},
	}

	env, err := events.NewEnvelope(events.EventOrderCancelled, "7", payload, "order-service", now)
	require.NoError(t, err)
	assert.NotEmpty(t, env.EventID)
	assert.Equal(t, time.UTC, env.Timestamp.Location())

	raw, err := json.Marshal(env)
	require.NoError(t, err)
	var fields map[string]any
	require.NoError(t, json.Unmarshal(raw, &fields))
	for _, key := range []string{"eventId", "eventType", "aggregateId", "timestamp", "schemaVersion", "producingService", "payload"} {
		assert.Contains(t, fields, key)
	}
	assert.Equal(t, "2025-03-01T03:00:00Z", fields["timestamp"])

	var decoded events.OrderCancelledPayload
	require.NoError(t, env.DecodePayload(&decoded))
	assert.Equal(t, payload, decoded)
}

func TestNewOrderCreatedPayload(t *testing.T) {
	order := &domain.Order{
		ID:          1,
		OrderNumber: "ORD-1",
		UserID:      2,
		Status:      domain.OrderStatusPending,
		TotalAmount: decimal.NewFromInt(13000),
		Items: []domain.OrderItem{
			{ProductID: 10, Quantity: 1, Price: decimal.NewFromInt(10000)},
		},
	}

	p := events.NewOrderCreatedPayload(order)

	assert.Equal(t, int64(1), p.OrderID)
	require.Len(t, p.Items, 1)
	assert.Equal(t, int64(10), p.Items[0].ProductID)
}
