// Package uow реализует unit of work поверх пула pgx: репозитории регистрируются по имени и
// получаются либо вне транзакции, либо внутри UnitOfWork.Do.
package uow

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ UOW = (*UnitOfWork)(nil)

type UnitOfWork struct {
	conn         *pgxpool.Pool
	repositories map[RepositoryName]RepositoryFactory
}

func NewUnitOfWork(conn *pgxpool.Pool) *UnitOfWork {
	return &UnitOfWork{
		conn:         conn,
		repositories: make(map[RepositoryName]RepositoryFactory),
	}
}

// Register регистрирует фабрику репозитория. Если имя уже занято, возвращает ErrRepositoryAlreadyRegistered.
func (u *UnitOfWork) Register(name RepositoryName, factory RepositoryFactory) error {
	if _, ok := u.repositories[name]; ok {
		return ErrRepositoryAlreadyRegistered
	}
	u.repositories[name] = factory
	return nil
}

// Do выполняет fn в транзакции. Транзакция фиксируется, если fn вернула nil, иначе откатывается.
// Паника внутри fn откатывает транзакцию и пробрасывается дальше.
func (u *UnitOfWork) Do(ctx context.Context, fn TxFunc, opts ...TxOption) (err error) {
	if fn == nil {
		return ErrNilTxFunc
	}
	tx, txErr := u.conn.BeginTx(ctx, buildTxOptions(opts))
	if txErr != nil {
		return txErr //nolint:wrapcheck
	}
	defer func() {
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
			err = errors.Join(err, rollbackErr)
		}
	}()

	if fnErr := fn(ctx, NewTransaction(tx, u.repositories)); fnErr != nil {
		return fnErr
	}
	return tx.Commit(ctx) //nolint:wrapcheck
}

// GetRepository возвращает репозиторий, работающий вне транзакции, или ErrRepositoryNotRegistered.
func (u *UnitOfWork) GetRepository(name RepositoryName) (Repository, error) {
	if factory, ok := u.repositories[name]; ok {
		return factory(u.conn), nil
	}
	return nil, ErrRepositoryNotRegistered
}

// GetRepositoryAs возвращает репозиторий по имени name, приведенный к типу T. Возвращает ошибки
// ErrRepositoryNotRegistered и ErrInvalidRepositoryType.
func GetRepositoryAs[T any](r Registry, name RepositoryName) (T, error) {
	var res T
	repo, err := r.GetRepository(name)
	if err != nil {
		return res, err //nolint:wrapcheck
	}
	r, ok := repo.(T)
	if !ok {
		return res, ErrInvalidRepositoryType
	}
	return r, nil
}
