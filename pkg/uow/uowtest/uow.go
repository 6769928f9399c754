// Package uowtest содержит UOW для тестов сервисного слоя без базы данных. Фабрики репозиториев
// получают nil вместо соединения, поэтому регистрировать нужно репозитории, хранящие данные в памяти.
package uowtest

import (
	"context"
	"sync"

	"github.com/jamongadejoa28/sassmall-sub003/pkg/uow"
)

var _ uow.UOW = (*UnitOfWork)(nil)

type UnitOfWork struct {
	mu           sync.Mutex
	repositories map[uow.RepositoryName]uow.Repository
	// Commits количество успешно завершенных транзакций.
	Commits int
	// Rollbacks количество транзакций, завершенных ошибкой.
	Rollbacks int
}

func New() *UnitOfWork {
	return &UnitOfWork{repositories: make(map[uow.RepositoryName]uow.Repository)}
}

func (u *UnitOfWork) Register(name uow.RepositoryName, factory uow.RepositoryFactory) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if _, ok := u.repositories[name]; ok {
		return uow.ErrRepositoryAlreadyRegistered
	}
	u.repositories[name] = factory(nil)
	return nil
}

// MustRegister регистрирует готовый экземпляр репозитория.
func (u *UnitOfWork) MustRegister(name uow.RepositoryName, repo uow.Repository) *UnitOfWork {
	if err := u.Register(name, func(uow.DBTX) uow.Repository { return repo }); err != nil {
		panic(err)
	}
	return u
}

// Do выполняет транзакции строго последовательно, изменения не откатываются.
func (u *UnitOfWork) Do(ctx context.Context, fn uow.TxFunc, _ ...uow.TxOption) error {
	if fn == nil {
		return uow.ErrNilTxFunc
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	if err := fn(ctx, transaction{repositories: u.repositories}); err != nil {
		u.Rollbacks++
		return err
	}
	u.Commits++
	return nil
}

func (u *UnitOfWork) GetRepository(name uow.RepositoryName) (uow.Repository, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if repo, ok := u.repositories[name]; ok {
		return repo, nil
	}
	return nil, uow.ErrRepositoryNotRegistered
}

type transaction struct {
	repositories map[uow.RepositoryName]uow.Repository
}

func (t transaction) Get(name uow.RepositoryName) (uow.Repository, error) {
	if repo, ok := t.repositories[name]; ok {
		return repo, nil
	}
	return nil, uow.ErrRepositoryNotRegistered
}
