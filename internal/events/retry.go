package events

import (
	"context"
	"math"
	"time"
)

type RetryConfig struct {
	// MaxAttempts общее число попыток, включая первую.
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Multiplier  float64
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		MaxDelay:    30 * time.Second,
		Multiplier:  2,
	}
}

// delay пауза перед попыткой attempt (нумерация с 1): BaseDelay * Multiplier^(attempt-1), не больше MaxDelay.
func (c RetryConfig) delay(attempt int) time.Duration {
	d := float64(c.BaseDelay) * math.Pow(c.Multiplier, float64(attempt-1))
	if c.MaxDelay > 0 && d > float64(c.MaxDelay) {
		return c.MaxDelay
	}
	return time.Duration(d)
}

// retryWithBackoff вызывает fn, пока она не вернет nil, не кончатся попытки или не отменится ctx.
// Возвращает число сделанных попыток и последнюю ошибку.
func retryWithBackoff(ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) error) (int, error) {
	maxAttempts := max(cfg.MaxAttempts, 1)
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if lastErr = fn(ctx); lastErr == nil {
			return attempt, nil
		}
		if attempt == maxAttempts {
			return attempt, lastErr
		}
		select {
		case <-ctx.Done():
			return attempt, lastErr
		case <-time.After(cfg.delay(attempt)):
		}
	}
	return maxAttempts, lastErr
}
