package service

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/jamongadejoa28/sassmall-sub003/internal/domain"
)

const releaseConcurrency = 8

// InventoryCompensator управляет остатками товаров заказа: резервирует при создании заказа, возвращает
// при отмене и окончательно списывает при доставке.
type InventoryCompensator struct {
	catalog ProductCatalog
	l       *logrus.Entry
}

func NewInventoryCompensator(catalog ProductCatalog, l *logrus.Logger) *InventoryCompensator {
	return &InventoryCompensator{
		catalog: catalog,
		l: l.WithFields(logrus.Fields{
			"component": "inventory",
			"module":    "compensator",
		}),
	}
}

// Reserve резервирует остатки по одной позиции. Если резерв хотя бы одной позиции не удался, уже
// зарезервированные позиции возвращаются на склад, а метод возвращает ошибку.
func (c *InventoryCompensator) Reserve(ctx context.Context, lines []domain.StockLine) error {
	reserved := make([]domain.StockLine, 0, len(lines))
	for _, line := range lines {
		ok, err := c.catalog.ReserveStock(ctx, line.ProductID, line.Quantity)
		if err == nil && ok {
			reserved = append(reserved, line)
			continue
		}

		if failed := c.Release(context.WithoutCancel(ctx), reserved); len(failed) > 0 {
			c.l.WithField("lines", failed).Error("rollback of partial reservation failed, stock must be reconciled")
		}
		if err != nil {
			return fmt.Errorf("reserve product %d: %w", line.ProductID, err)
		}
		return fmt.Errorf("reserve product %d x%d: %w", line.ProductID, line.Quantity, domain.ErrInsufficientStock)
	}
	return nil
}

// Release возвращает остатки всех позиций параллельно. Неудача одной позиции не мешает остальным.
// Возвращает позиции, которые вернуть не удалось.
func (c *InventoryCompensator) Release(ctx context.Context, lines []domain.StockLine) []domain.StockLine {
	if len(lines) == 0 {
		return nil
	}

	var (
		mu     sync.Mutex
		failed []domain.StockLine
		g      errgroup.Group
	)
	g.SetLimit(releaseConcurrency)

	for _, line := range lines {
		g.Go(func() error {
			ok, err := c.catalog.ReleaseStock(ctx, line.ProductID, line.Quantity)
			if err == nil && ok {
				return nil
			}
			c.l.WithError(err).WithFields(logrus.Fields{
				"productID": line.ProductID,
				"quantity":  line.Quantity,
				"rejected":  err == nil,
			}).Warn("stock release failed")

			mu.Lock()
			failed = append(failed, line)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	slices.SortFunc(failed, func(a, b domain.StockLine) int {
		return cmp.Compare(a.ProductID, b.ProductID)
	})
	return failed
}

// Decrease окончательно списывает остатки доставленного заказа. Ошибки по позициям только логируются.
func (c *InventoryCompensator) Decrease(ctx context.Context, order *domain.Order) []domain.StockLine {
	var failed []domain.StockLine
	for _, line := range order.StockLines() {
		ok, err := c.catalog.DecreaseInventory(ctx, line.ProductID, line.Quantity, order.OrderNumber)
		if err == nil && ok {
			continue
		}
		c.l.WithError(err).WithFields(logrus.Fields{
			"orderNumber": order.OrderNumber,
			"productID":   line.ProductID,
			"quantity":    line.Quantity,
		}).Error("inventory decrease failed, manual reconciliation required")
		failed = append(failed, line)
	}
	return failed
}
