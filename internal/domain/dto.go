package domain

type OrderStatusType string

const (
	OrderStatusPending           OrderStatusType = "PENDING"
	OrderStatusPaymentInProgress OrderStatusType = "PAYMENT_IN_PROGRESS"
	OrderStatusPaymentCompleted  OrderStatusType = "PAYMENT_COMPLETED"
	OrderStatusPaymentFailed     OrderStatusType = "PAYMENT_FAILED"
	OrderStatusConfirmed         OrderStatusType = "CONFIRMED"
	OrderStatusPreparingShipment OrderStatusType = "PREPARING_SHIPMENT"
	OrderStatusShipping          OrderStatusType = "SHIPPING"
	OrderStatusDelivered         OrderStatusType = "DELIVERED"
	OrderStatusCancelled         OrderStatusType = "CANCELLED"
	OrderStatusRefundInProgress  OrderStatusType = "REFUND_IN_PROGRESS"
	OrderStatusRefunded          OrderStatusType = "REFUNDED"
)

type PaymentStatusType string

const (
	PaymentStatusPending   PaymentStatusType = "pending"
	PaymentStatusReady     PaymentStatusType = "ready"
	PaymentStatusApproved  PaymentStatusType = "approved"
	PaymentStatusFailed    PaymentStatusType = "failed"
	PaymentStatusCancelled PaymentStatusType = "cancelled"
	PaymentStatusRefunded  PaymentStatusType = "refunded"
)

type PaymentMethodType string

const (
	PaymentMethodCard           PaymentMethodType = "CARD"
	PaymentMethodVirtualAccount PaymentMethodType = "VIRTUAL_ACCOUNT"
	PaymentMethodTransfer       PaymentMethodType = "TRANSFER"
	PaymentMethodMobile         PaymentMethodType = "MOBILE"
	PaymentMethodEasyPay        PaymentMethodType = "EASY_PAY"
)

// IsValid проверяет, что способ оплаты поддерживается.
func (m PaymentMethodType) IsValid() bool {
	switch m {
	case PaymentMethodCard, PaymentMethodVirtualAccount, PaymentMethodTransfer,
		PaymentMethodMobile, PaymentMethodEasyPay:
		return true
	default:
		return false
	}
}

type RoleType string

const (
	RoleCustomer RoleType = "customer"
	RoleAdmin    RoleType = "admin"
)

type SagaKindType string

const (
	SagaKindCancel SagaKindType = "cancel"
	SagaKindRefund SagaKindType = "refund"
)

type SagaStatusType string

const (
	SagaStatusStarted        SagaStatusType = "started"
	SagaStatusFundsSettled   SagaStatusType = "funds_settled"
	SagaStatusReleasePending SagaStatusType = "release_pending"
	SagaStatusStockReleased  SagaStatusType = "stock_released"
	SagaStatusCompleted      SagaStatusType = "completed"
	SagaStatusFailed         SagaStatusType = "failed"
)

// IsOpen сага еще не дошла до финального состояния.
func (s SagaStatusType) IsOpen() bool {
	return s != SagaStatusCompleted && s != SagaStatusFailed
}
