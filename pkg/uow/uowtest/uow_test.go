package uowtest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/jamongadejoa28/sassmall-sub003/pkg/uow"
)

type counterRepo struct {
	n int
}

type UnitOfWorkTestSuite struct {
	suite.Suite
	u    *UnitOfWork
	repo *counterRepo
}

func TestUnitOfWorkSuite(t *testing.T) {
	suite.Run(t, new(UnitOfWorkTestSuite))
}

func (s *UnitOfWorkTestSuite) SetupTest() {
	s.repo = &counterRepo{}
	s.u = New().MustRegister("counter", s.repo)
}

// TestDo_CommitAndRollback Тест на учет зафиксированных и откаченных транзакций.
func (s *UnitOfWorkTestSuite) TestDo_CommitAndRollback() {
	ctx := context.Background()
	errBoom := errors.New("boom")

	s.Require().NoError(s.u.Do(ctx, func(_ context.Context, tx uow.TX) error {
		repo, err := uow.GetAs[*counterRepo](tx, "counter")
		if err != nil {
			return err
		}
		repo.n++
		return nil
	}))
	s.Require().ErrorIs(s.u.Do(ctx, func(context.Context, uow.TX) error { return errBoom }), errBoom)
	s.Require().ErrorIs(s.u.Do(ctx, nil), uow.ErrNilTxFunc)

	s.Equal(1, s.repo.n)
	s.Equal(1, s.u.Commits)
	s.Equal(1, s.u.Rollbacks)
}

// TestGetRepositoryAs Тест на получение репозитория вне транзакции с проверкой типа.
func (s *UnitOfWorkTestSuite) TestGetRepositoryAs() {
	repo, err := uow.GetRepositoryAs[*counterRepo](s.u, "counter")
	s.Require().NoError(err)
	s.Same(s.repo, repo)

	_, err = uow.GetRepositoryAs[*UnitOfWork](s.u, "counter")
	s.ErrorIs(err, uow.ErrInvalidRepositoryType)

	_, err = uow.GetRepositoryAs[*counterRepo](s.u, "missing")
	s.ErrorIs(err, uow.ErrRepositoryNotRegistered)

	s.ErrorIs(s.u.Register("counter", func(uow.DBTX) uow.Repository { return nil }), uow.ErrRepositoryAlreadyRegistered)
}
