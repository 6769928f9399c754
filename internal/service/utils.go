package service

import (
	"context"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const orderNumberMaxAttempts = 3

// jitter возвращает число, рассыпавшееся относительно value на случайный процент в пределах
// [1-minPercent, 1+maxPercent].
// Например, если minPercent=0.15, maxPercent=0.15, получим диапазон [0.85*value, 1.15*value].
//
// minPercent и maxPercent должны быть >= 0 (0.1 = 10%). Если указано иное, значение выставится в 0.15.
func jitter(value, minPercent, maxPercent float64) float64 {
	if minPercent < 0 || maxPercent < 0 {
		minPercent = 0.15
		maxPercent = 0.15
	}
	factor := 1 - minPercent + rand.Float64()*(minPercent+maxPercent) // nolint:gosec
	return value * factor
}

// backoff пауза перед повтором attempt (нумерация с 1): base, 2*base, 4*base... с разбросом 15%.
func backoff(base time.Duration, attempt int) time.Duration {
	return time.Duration(jitter(float64(base<<(attempt-1)), 0.15, 0.15))
}

// sleep ждет d или отмены ctx.
func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err() //nolint:wrapcheck
	case <-t.C:
		return nil
	}
}

// newOrderNumber номер заказа вида ORD-20250301-1A2B3C4D.
func newOrderNumber(now time.Time) string {
	return "ORD-" + now.Format("20060102") + "-" + strings.ToUpper(uuid.NewString()[:8])
}

func idString(id int64) string {
	return strconv.FormatInt(id, 10)
}
