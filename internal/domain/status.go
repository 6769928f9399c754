package domain

// orderTransitions таблица допустимых переходов статуса заказа. Формат хранения статусов и сама таблица
// совместимы с существующими клиентами, менять их нельзя.
var orderTransitions = map[OrderStatusType][]OrderStatusType{
	OrderStatusPending: {
		OrderStatusPaymentInProgress,
		OrderStatusCancelled,
	},
	OrderStatusPaymentInProgress: {
		OrderStatusPaymentCompleted,
		OrderStatusPaymentFailed,
		OrderStatusCancelled,
	},
	OrderStatusPaymentCompleted: {
		OrderStatusConfirmed,
		OrderStatusRefundInProgress,
	},
	OrderStatusPaymentFailed: {
		OrderStatusPaymentInProgress,
		OrderStatusCancelled,
	},
	OrderStatusConfirmed: {
		OrderStatusPreparingShipment,
		OrderStatusRefundInProgress,
	},
	OrderStatusPreparingShipment: {
		OrderStatusShipping,
		OrderStatusRefundInProgress,
	},
	OrderStatusShipping: {
		OrderStatusDelivered,
		OrderStatusRefundInProgress,
	},
	OrderStatusDelivered: {
		OrderStatusRefundInProgress,
	},
	OrderStatusRefundInProgress: {
		OrderStatusRefunded,
	},
}

// AllOrderStatuses все статусы заказа в порядке жизненного цикла.
func AllOrderStatuses() []OrderStatusType {
	return []OrderStatusType{
		OrderStatusPending,
		OrderStatusPaymentInProgress,
		OrderStatusPaymentCompleted,
		OrderStatusPaymentFailed,
		OrderStatusConfirmed,
		OrderStatusPreparingShipment,
		OrderStatusShipping,
		OrderStatusDelivered,
		OrderStatusCancelled,
		OrderStatusRefundInProgress,
		OrderStatusRefunded,
	}
}

func (s OrderStatusType) IsValid() bool {
	for _, status := range AllOrderStatuses() {
		if s == status {
			return true
		}
	}
	return false
}

// CanTransitionTo возвращает true только для ребер таблицы переходов. Переход в тот же статус не допускается.
func (s OrderStatusType) CanTransitionTo(to OrderStatusType) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

func (s OrderStatusType) IsTerminal() bool {
	return s == OrderStatusCancelled || s == OrderStatusRefunded
}

// RequiresAdmin статусы, в которые заказ может перевести только администратор.
func (s OrderStatusType) RequiresAdmin() bool {
	switch s {
	case OrderStatusConfirmed, OrderStatusPreparingShipment, OrderStatusShipping, OrderStatusDelivered:
		return true
	default:
		return false
	}
}

// IsCustomerCancellable статусы, из которых покупатель может сам отменить свой заказ.
func (s OrderStatusType) IsCustomerCancellable() bool {
	switch s {
	case OrderStatusPending, OrderStatusPaymentInProgress, OrderStatusPaymentFailed:
		return true
	default:
		return false
	}
}

// IsAdminCancellable статусы, из которых заказ может отменить администратор. Для оплаченных заказов отмена
// возможна только после возврата средств.
func (s OrderStatusType) IsAdminCancellable() bool {
	return s.IsCustomerCancellable() || s.HasCapturedFunds()
}

// HasCapturedFunds деньги списаны, товар еще не передан в доставку.
func (s OrderStatusType) HasCapturedFunds() bool {
	switch s {
	case OrderStatusPaymentCompleted, OrderStatusConfirmed, OrderStatusPreparingShipment:
		return true
	default:
		return false
	}
}

func (s OrderStatusType) IsRefundable() bool {
	switch s {
	case OrderStatusPaymentCompleted, OrderStatusConfirmed, OrderStatusPreparingShipment,
		OrderStatusShipping, OrderStatusDelivered:
		return true
	default:
		return false
	}
}
