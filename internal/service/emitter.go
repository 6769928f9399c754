package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/jamongadejoa28/sassmall-sub003/internal/clock"
	"github.com/jamongadejoa28/sassmall-sub003/internal/domain"
	"github.com/jamongadejoa28/sassmall-sub003/internal/events"
)

// emitter побочные эффекты после фиксации изменений: события и уведомления. Ошибки только логируются.
type emitter struct {
	publisher EventPublisher
	notifier  Notifier
	producer  string
	clock     clock.Clock
	l         *logrus.Entry
}

func newEmitter(deps Deps) *emitter {
	return &emitter{
		publisher: deps.Publisher,
		notifier:  deps.Notifier,
		producer:  deps.ServiceName,
		clock:     deps.Clock,
		l: deps.Logger.WithFields(logrus.Fields{
			"component": "service",
			"module":    "emitter",
		}),
	}
}

func (e *emitter) publish(ctx context.Context, eventType events.EventType, order *domain.Order, payload any) {
	if e.publisher == nil {
		return
	}
	log := e.l.WithFields(logrus.Fields{
		"eventType":   eventType,
		"orderNumber": order.OrderNumber,
	})
	env, err := events.NewEnvelope(eventType, idString(order.ID), payload, e.producer, e.clock.Now())
	if err != nil {
		log.WithError(err).Error("build event envelope")
		return
	}
	if err = e.publisher.Publish(context.WithoutCancel(ctx), env); err != nil {
		log.WithError(err).WithField("eventId", env.EventID).Warn("event not published")
	}
}

func (e *emitter) orderCreated(ctx context.Context, order *domain.Order) {
	e.publish(ctx, events.EventOrderCreated, order, events.NewOrderCreatedPayload(order))
}

func (e *emitter) statusUpdated(ctx context.Context, order *domain.Order, from domain.OrderStatusType, by int64) {
	e.publish(ctx, events.EventOrderStatusUpdated, order, events.OrderStatusUpdatedPayload{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID,
		From:        from,
		To:          order.Status,
		ChangedBy:   by,
	})
	e.notifyStatus(ctx, order)
}

func (e *emitter) paymentCompleted(ctx context.Context, order *domain.Order, p *domain.Payment) {
	payload := events.OrderPaymentCompletedPayload{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		PaymentID:   p.ID,
		PaymentKey:  p.PaymentKey,
		Amount:      p.Amount,
	}
	if p.ApprovedAt != nil {
		payload.ApprovedAt = *p.ApprovedAt
	}
	e.publish(ctx, events.EventOrderPaymentCompleted, order, payload)
	e.notifyStatus(ctx, order)
}

func (e *emitter) cancelled(ctx context.Context, order *domain.Order, saga *domain.Saga) {
	refunded := saga.PaymentID != 0
	e.publish(ctx, events.EventOrderCancelled, order, events.OrderCancelledPayload{
		OrderID:         order.ID,
		OrderNumber:     order.OrderNumber,
		UserID:          order.UserID,
		Reason:          saga.Reason,
		Refunded:        refunded,
		PendingReleases: saga.PendingReleases,
	})
	if e.notifier == nil {
		return
	}
	err := e.notifier.SendOrderCancelNotification(context.WithoutCancel(ctx), domain.CancelNotification{
		UserID:      order.UserID,
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		Reason:      saga.Reason,
		Refunded:    refunded,
	})
	if err != nil {
		e.l.WithError(err).WithField("orderNumber", order.OrderNumber).Warn("cancel notification not sent")
	}
}

func (e *emitter) notifyStatus(ctx context.Context, order *domain.Order) {
	if e.notifier == nil {
		return
	}
	err := e.notifier.SendOrderStatusNotification(context.WithoutCancel(ctx), domain.StatusNotification{
		UserID:      order.UserID,
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		Status:      order.Status,
		Total:       order.TotalAmount,
	})
	if err != nil {
		e.l.WithError(err).WithFields(logrus.Fields{
			"orderNumber": order.OrderNumber,
			"status":      order.Status,
		}).Warn("status notification not sent")
	}
}
