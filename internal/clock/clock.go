// Package clock позволяет подменять текущее время в сервисах и тестах.
package clock

import "time"

type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func NewSystem() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

type fixedClock struct {
	now time.Time
}

// NewFixed возвращает часы, которые всегда показывают t.
func NewFixed(t time.Time) Clock {
	return fixedClock{now: t.UTC()}
}

func (f fixedClock) Now() time.Time {
	return f.now
}
