package uow

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type (
	RepositoryName    string
	Repository        any
	RepositoryFactory func(DBTX) Repository
)

// DBTX общий интерфейс пула соединений и транзакции, через который работают репозитории.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// TX репозитории, привязанные к одной транзакции.
type TX interface {
	Get(name RepositoryName) (Repository, error)
}

// TxFunc тело транзакции. Ошибка откатывает транзакцию.
type TxFunc func(ctx context.Context, tx TX) error

// Registry реестр фабрик репозиториев по имени.
type Registry interface {
	Register(name RepositoryName, factory RepositoryFactory) error
	GetRepository(name RepositoryName) (Repository, error)
}

type UOW interface {
	Registry
	Do(ctx context.Context, fn TxFunc, opts ...TxOption) error
}
