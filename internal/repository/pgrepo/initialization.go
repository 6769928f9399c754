package pgrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

const (
	connectMaxAttempts   = 30
	connectRetryInterval = 3 * time.Second
)

// Connect открывает пул соединений, повторяя попытки, пока база недоступна, и применяет миграции из
// migrationsDir.
func Connect(ctx context.Context, migrationsDir, dsn string, l *logrus.Logger) (*pgxpool.Pool, error) {
	log := l.WithFields(logrus.Fields{
		"component": "repository",
		"module":    "connect",
	})

	var (
		pool    *pgxpool.Pool
		lastErr error
	)
	for attempt := 1; attempt <= connectMaxAttempts; attempt++ {
		pool, lastErr = newPostgresConnection(ctx, dsn)
		if lastErr == nil {
			break
		}
		log.WithError(lastErr).
			WithField("CurrentAttempt", fmt.Sprintf("#%d / %d", attempt, connectMaxAttempts)).
			Warnf("init postgres connection error, retrying in %.f seconds", connectRetryInterval.Seconds())

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("init postgres connection: %w", ctx.Err())
		case <-time.After(connectRetryInterval):
		}
	}
	if lastErr != nil {
		return nil, fmt.Errorf("init postgres connection after %d attempts: %s", connectMaxAttempts, lastErr.Error())
	}

	if err := postgresMigrate(migrationsDir, dsn); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

func newPostgresConnection(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	poolConfig, confErr := pgxpool.ParseConfig(dsn)
	if confErr != nil {
		return nil, fmt.Errorf("parse postgres config: %s", confErr.Error())
	}
	pool, poolErr := pgxpool.NewWithConfig(ctx, poolConfig)
	if poolErr != nil {
		return nil, fmt.Errorf("failed to create pool: %s", poolErr.Error())
	}

	if pingErr := pool.Ping(ctx); pingErr != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to postgres: %s", pingErr.Error())
	}

	return pool, nil
}

func postgresMigrate(dir string, dsn string) error {
	m, mErr := migrate.New("file://"+dir, dsn)
	if mErr != nil {
		return fmt.Errorf("failed to create migrate instance: %w", mErr)
	}
	defer m.Close()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}
