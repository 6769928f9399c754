package pgrepo

import (
	"github.com/jamongadejoa28/sassmall-sub003/internal/domain"
	"github.com/jamongadejoa28/sassmall-sub003/internal/repository/repoargs"
)

// TestOrder_CreateFindByID Тест на чтение заказа в том же виде, в каком он был сохранен.
func (s *RepositoryTestSuite) TestOrder_CreateFindByID() {
	repo := NewOrderRepository(s.pool)
	order := s.newOrder("ORD-20250301-0000000A")

	created, err := repo.Create(s.ctx, order)
	s.Require().NoError(err)
	s.Positive(created.ID)

	found, err := repo.FindByID(s.ctx, created.ID)
	s.Require().NoError(err)

	s.Equal(created.ID, found.ID)
	s.Equal(order.OrderNumber, found.OrderNumber)
	s.Equal(order.UserID, found.UserID)
	s.Equal(domain.OrderStatusPending, found.Status)
	s.Equal(order.ShippingAddress, found.ShippingAddress)
	s.Equal(order.PaymentMethod, found.PaymentMethod)
	s.Equal(order.Memo, found.Memo)
	s.Empty(found.PaymentKey)
	s.True(order.Subtotal.Equal(found.Subtotal), "subtotal %s != %s", order.Subtotal, found.Subtotal)
	s.True(order.ShippingFee.Equal(found.ShippingFee), "shipping fee %s != %s", order.ShippingFee, found.ShippingFee)
	s.True(order.TotalAmount.Equal(found.TotalAmount), "total %s != %s", order.TotalAmount, found.TotalAmount)
	s.True(order.OrderedAt.Equal(found.OrderedAt))
	s.True(order.UpdatedAt.Equal(found.UpdatedAt))

	s.Require().Len(found.Items, len(order.Items))
	for i, item := range found.Items {
		want := order.Items[i]
		s.Equal(created.Items[i].ID, item.ID)
		s.Equal(created.ID, item.OrderID)
		s.Equal(want.ProductID, item.ProductID)
		s.Equal(want.ProductName, item.ProductName)
		s.Equal(want.Quantity, item.Quantity)
		s.Equal(want.Options, item.Options)
		s.True(want.Price.Equal(item.Price), "price %s != %s", want.Price, item.Price)
		s.True(want.LineTotal.Equal(item.LineTotal), "line total %s != %s", want.LineTotal, item.LineTotal)
	}

	byNumber, err := repo.FindByOrderNumber(s.ctx, order.OrderNumber)
	s.Require().NoError(err)
	s.Equal(created.ID, byNumber.ID)
}

// TestOrder_FindByID_NotFound Тест на ошибку для несуществующего заказа.
func (s *RepositoryTestSuite) TestOrder_FindByID_NotFound() {
	_, err := NewOrderRepository(s.pool).FindByID(s.ctx, 404)
	s.ErrorIs(err, domain.ErrRecordNotFound)
}

// TestOrder_Create_DuplicateNumber Тест на конфликт номера заказа.
func (s *RepositoryTestSuite) TestOrder_Create_DuplicateNumber() {
	repo := NewOrderRepository(s.pool)
	_, err := repo.Create(s.ctx, s.newOrder("ORD-20250301-0000000B"))
	s.Require().NoError(err)

	_, err = repo.Create(s.ctx, s.newOrder("ORD-20250301-0000000B"))
	s.ErrorIs(err, domain.ErrDuplicateKey)
}

// TestOrder_UpdateStatus_CompareAndSet Тест на обновление статуса только из ожидаемого статуса.
func (s *RepositoryTestSuite) TestOrder_UpdateStatus_CompareAndSet() {
	repo := NewOrderRepository(s.pool)
	created, err := repo.Create(s.ctx, s.newOrder("ORD-20250301-0000000C"))
	s.Require().NoError(err)

	s.Require().NoError(repo.UpdateStatus(s.ctx, repoargs.UpdateOrderStatus{
		ID:        created.ID,
		Expected:  domain.OrderStatusPending,
		Status:    domain.OrderStatusPaymentInProgress,
		UpdatedAt: s.now,
	}))

	// второй писатель с устаревшим ожидаемым статусом.
	err = repo.UpdateStatus(s.ctx, repoargs.UpdateOrderStatus{
		ID:        created.ID,
		Expected:  domain.OrderStatusPending,
		Status:    domain.OrderStatusCancelled,
		UpdatedAt: s.now,
	})
	s.ErrorIs(err, domain.ErrStaleState)

	found, err := repo.FindByID(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Equal(domain.OrderStatusPaymentInProgress, found.Status)
}
