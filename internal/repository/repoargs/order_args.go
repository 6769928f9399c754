package repoargs

import (
	"time"

	"github.com/jamongadejoa28/sassmall-sub003/internal/domain"
	"github.com/shopspring/decimal"
)

// UpdateOrderStatus смена статуса с проверкой, что сохраненный статус все еще равен Expected.
type UpdateOrderStatus struct {
	ID        int64
	Expected  domain.OrderStatusType
	Status    domain.OrderStatusType
	UpdatedAt time.Time
}

type ListUserOrders struct {
	UserID int64
	Status domain.OrderStatusType
	Limit  uint
	Offset uint
}

// OrderSearch фильтр административного поиска. Пустые поля не участвуют в условии.
type OrderSearch struct {
	Status            domain.OrderStatusType
	UserID            int64
	OrderNumberPrefix string
	From              *time.Time
	To                *time.Time
	Limit             uint
	Offset            uint
}

type StatusStatistics struct {
	Status  domain.OrderStatusType `json:"status"`
	Count   int64                  `json:"count"`
	Revenue decimal.Decimal        `json:"revenue"`
}
