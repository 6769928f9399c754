package pgrepo

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"
)

const unlockTimeout = 5 * time.Second

// AdvisoryLocker межпроцессная блокировка по строковому ключу на advisory lock Postgres. Каждая удерживаемая
// блокировка занимает отдельное соединение пула до вызова unlock. Одновременно блокировки занимают не больше
// половины соединений пула, остальные Lock ждут свободного слота.
type AdvisoryLocker struct {
	pool  *pgxpool.Pool
	slots *semaphore.Weighted
	l     *logrus.Entry
}

func NewAdvisoryLocker(pool *pgxpool.Pool, l *logrus.Logger) *AdvisoryLocker {
	return &AdvisoryLocker{
		pool:  pool,
		slots: semaphore.NewWeighted(heldLockLimit(pool.Config().MaxConns)),
		l: l.WithFields(logrus.Fields{
			"component": "repository",
			"module":    "advisory_locker",
		}),
	}
}

// heldLockLimit сколько блокировок можно удерживать одновременно при пуле из maxConns соединений.
func heldLockLimit(maxConns int32) int64 {
	limit := int64(maxConns) / 2
	if limit < 1 {
		return 1
	}
	return limit
}

// Lock ждет освобождения ключа key или отмены ctx. Возвращенную функцию нужно вызвать ровно один раз.
func (a *AdvisoryLocker) Lock(ctx context.Context, key string) (func(), error) {
	if err := a.slots.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("waiting lock slot for `%s`: %w", key, err)
	}
	conn, err := a.pool.Acquire(ctx)
	if err != nil {
		a.slots.Release(1)
		return nil, fmt.Errorf("acquire connection for lock `%s`: %w", key, err)
	}
	if _, lockErr := conn.Exec(ctx, `SELECT pg_advisory_lock(hashtextextended($1, 0))`, key); lockErr != nil {
		// соединение могло остаться в ожидании блокировки, возвращать его в пул нельзя.
		_ = conn.Conn().Close(context.Background())
		conn.Release()
		a.slots.Release(1)
		return nil, convertErr(lockErr, "locking `%s`", key)
	}

	return func() {
		defer a.slots.Release(1)
		unlockCtx, cancel := context.WithTimeout(context.Background(), unlockTimeout)
		defer cancel()
		if _, unlockErr := conn.Exec(unlockCtx, `SELECT pg_advisory_unlock(hashtextextended($1, 0))`, key); unlockErr != nil {
			a.l.WithError(unlockErr).WithField("key", key).Error("unlock failed, closing connection")
			_ = conn.Conn().Close(unlockCtx)
		}
		conn.Release()
	}, nil
}
