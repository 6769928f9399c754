package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	MinOrderItems   = 1
	MaxOrderItems   = 100
	MinItemQuantity = 1
	MaxItemQuantity = 999
)

var (
	// FreeShippingThreshold при сумме товаров от этого значения доставка бесплатна.
	FreeShippingThreshold = decimal.NewFromInt(50000)
	// FlatShippingFee фиксированная стоимость доставки.
	FlatShippingFee = decimal.NewFromInt(3000)
)

type NewOrderItemArgs struct {
	ProductID   int64
	ProductName string
	Price       decimal.Decimal
	Quantity    int
	ImageURL    string
	Options     map[string]string
}

// NewOrderItem создает позицию заказа со снимком названия и цены товара.
func NewOrderItem(args NewOrderItemArgs) (*OrderItem, error) {
	if args.ProductID <= 0 {
		return nil, NewValidationError("productId", "must be positive")
	}
	if strings.TrimSpace(args.ProductName) == "" {
		return nil, NewValidationError("productName", "is required")
	}
	item := &OrderItem{
		ProductID:   args.ProductID,
		ProductName: args.ProductName,
		ImageURL:    args.ImageURL,
		Options:     args.Options,
	}
	if err := item.SetPrice(args.Price); err != nil {
		return nil, err
	}
	if err := item.SetQuantity(args.Quantity); err != nil {
		return nil, err
	}
	return item, nil
}

func (i *OrderItem) SetQuantity(quantity int) error {
	if quantity < MinItemQuantity || quantity > MaxItemQuantity {
		return NewValidationError("quantity", fmt.Sprintf("must be between %d and %d", MinItemQuantity, MaxItemQuantity))
	}
	i.Quantity = quantity
	i.recalculate()
	return nil
}

func (i *OrderItem) SetPrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return NewValidationError("price", "must not be negative")
	}
	i.Price = price
	i.recalculate()
	return nil
}

func (i *OrderItem) recalculate() {
	i.LineTotal = i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type NewOrderArgs struct {
	OrderNumber     string
	UserID          int64
	Items           []OrderItem
	ShippingAddress Address
	PaymentMethod   PaymentMethodType
	Memo            string
	// Status начальный статус. Пустое значение - OrderStatusPending.
	Status OrderStatusType
	Now    time.Time
}

// NewOrder собирает агрегат заказа и проверяет его инварианты.
func NewOrder(args NewOrderArgs) (*Order, error) {
	if args.UserID <= 0 {
		return nil, NewValidationError("userId", "must be positive")
	}
	if len(args.Items) < MinOrderItems || len(args.Items) > MaxOrderItems {
		return nil, NewValidationError("items", fmt.Sprintf("count must be between %d and %d", MinOrderItems, MaxOrderItems))
	}
	if err := args.ShippingAddress.Validate(); err != nil {
		return nil, err
	}
	if !args.PaymentMethod.IsValid() {
		return nil, NewValidationError("paymentMethod", "is not supported")
	}

	status := args.Status
	if status == "" {
		status = OrderStatusPending
	}
	if !status.IsValid() {
		return nil, NewValidationError("status", "is unknown")
	}

	seen := make(map[int64]struct{}, len(args.Items))
	items := make([]OrderItem, len(args.Items))
	for i, item := range args.Items {
		if _, dup := seen[item.ProductID]; dup {
			return nil, NewValidationError("items", fmt.Sprintf("product %d is duplicated", item.ProductID))
		}
		seen[item.ProductID] = struct{}{}
		item.recalculate()
		items[i] = item
	}

	order := &Order{
		CreatedAt:       args.Now,
		UpdatedAt:       args.Now,
		OrderedAt:       args.Now,
		OrderNumber:     args.OrderNumber,
		UserID:          args.UserID,
		Status:          status,
		Items:           items,
		ShippingAddress: args.ShippingAddress,
		PaymentMethod:   args.PaymentMethod,
		Memo:            args.Memo,
	}
	order.recalculate()
	return order, nil
}

// CalculateShippingFee стоимость доставки для суммы товаров subtotal.
func CalculateShippingFee(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThanOrEqual(FreeShippingThreshold) {
		return decimal.Zero
	}
	return FlatShippingFee
}

func (o *Order) recalculate() {
	subtotal := decimal.Zero
	for i := range o.Items {
		o.Items[i].recalculate()
		subtotal = subtotal.Add(o.Items[i].LineTotal)
	}
	o.Subtotal = subtotal
	o.ShippingFee = CalculateShippingFee(subtotal)
	o.TotalAmount = subtotal.Add(o.ShippingFee)
}

// UpdateItemQuantity меняет количество товара в позиции и пересчитывает суммы заказа.
func (o *Order) UpdateItemQuantity(productID int64, quantity int) error {
	for i := range o.Items {
		if o.Items[i].ProductID == productID {
			if err := o.Items[i].SetQuantity(quantity); err != nil {
				return err
			}
			o.recalculate()
			return nil
		}
	}
	return fmt.Errorf("item for product %d: %w", productID, ErrRecordNotFound)
}

// CheckInvariants проверяет денежные инварианты заказа. Используется после загрузки из хранилища.
func (o *Order) CheckInvariants() error {
	subtotal := decimal.Zero
	for _, item := range o.Items {
		if !item.LineTotal.Equal(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))) {
			return fmt.Errorf("item %d line total mismatch: %w", item.ProductID, ErrUnknown)
		}
		subtotal = subtotal.Add(item.LineTotal)
	}
	if !o.Subtotal.Equal(subtotal) {
		return fmt.Errorf("order %s subtotal mismatch: %w", o.OrderNumber, ErrUnknown)
	}
	if !o.ShippingFee.Equal(CalculateShippingFee(o.Subtotal)) {
		return fmt.Errorf("order %s shipping fee mismatch: %w", o.OrderNumber, ErrUnknown)
	}
	if !o.TotalAmount.Equal(o.Subtotal.Add(o.ShippingFee)) {
		return fmt.Errorf("order %s total mismatch: %w", o.OrderNumber, ErrUnknown)
	}
	return nil
}

func (o *Order) IsOwnedBy(userID int64) bool {
	return o.UserID == userID
}

// CanBeViewedBy заказ доступен владельцу и администратору.
func (o *Order) CanBeViewedBy(actor Actor) bool {
	return actor.IsAdmin() || o.IsOwnedBy(actor.UserID)
}

// TransitionTo переводит заказ в статус to строго по таблице переходов и проставляет UpdatedAt.
func (o *Order) TransitionTo(to OrderStatusType, now time.Time) error {
	if !o.Status.CanTransitionTo(to) {
		return NewInvalidTransitionError(o.Status, to)
	}
	o.Status = to
	o.UpdatedAt = now
	return nil
}

// ChangeStatus смена статуса от имени actor с проверкой прав.
// Отмена заказа выполняется через Cancel, так как требует компенсирующих действий.
func (o *Order) ChangeStatus(actor Actor, to OrderStatusType, now time.Time) error {
	if !actor.IsAdmin() && !o.IsOwnedBy(actor.UserID) {
		return fmt.Errorf("order %s: %w", o.OrderNumber, ErrPermissionDenied)
	}
	if to.RequiresAdmin() && !actor.IsAdmin() {
		return fmt.Errorf("status %s requires admin: %w", to, ErrPermissionDenied)
	}
	if to == OrderStatusCancelled {
		return o.Cancel(actor, now)
	}
	if to == OrderStatusRefundInProgress && !o.Status.IsRefundable() {
		return NewInvalidTransitionError(o.Status, to)
	}
	return o.TransitionTo(to, now)
}

// CanBeCancelledBy проверяет, может ли actor отменить заказ в текущем статусе.
func (o *Order) CanBeCancelledBy(actor Actor) error {
	if actor.IsAdmin() {
		if !o.Status.IsAdminCancellable() {
			return NewInvalidTransitionError(o.Status, OrderStatusCancelled)
		}
		return nil
	}
	if !o.IsOwnedBy(actor.UserID) {
		return fmt.Errorf("order %s: %w", o.OrderNumber, ErrPermissionDenied)
	}
	if !o.Status.IsCustomerCancellable() {
		return NewInvalidTransitionError(o.Status, OrderStatusCancelled)
	}
	return nil
}

// Cancel переводит заказ в CANCELLED. Для неоплаченных заказов переход идет по таблице; оплаченный заказ
// администратор отменяет только после возврата средств, поэтому вызывать Cancel для него можно лишь
// из саги отмены.
func (o *Order) Cancel(actor Actor, now time.Time) error {
	if err := o.CanBeCancelledBy(actor); err != nil {
		return err
	}
	if o.Status.CanTransitionTo(OrderStatusCancelled) {
		return o.TransitionTo(OrderStatusCancelled, now)
	}
	o.Status = OrderStatusCancelled
	o.UpdatedAt = now
	return nil
}

// RequiresRefundOnCancel при отмене заказа в этом статусе нужно вернуть деньги.
func (o *Order) RequiresRefundOnCancel() bool {
	return o.Status.HasCapturedFunds()
}

func (o *Order) StockLines() []StockLine {
	lines := make([]StockLine, len(o.Items))
	for i, item := range o.Items {
		lines[i] = StockLine{ProductID: item.ProductID, Quantity: item.Quantity}
	}
	return lines
}

// Title короткое название заказа для платежного провайдера и уведомлений.
func (o *Order) Title() string {
	if len(o.Items) == 0 {
		return o.OrderNumber
	}
	if len(o.Items) == 1 {
		return o.Items[0].ProductName
	}
	return fmt.Sprintf("%s and %d more", o.Items[0].ProductName, len(o.Items)-1)
}

func (a Address) Validate() error {
	switch {
	case strings.TrimSpace(a.RecipientName) == "":
		return NewValidationError("shippingAddress.recipientName", "is required")
	case strings.TrimSpace(a.Phone) == "":
		return NewValidationError("shippingAddress.phone", "is required")
	case strings.TrimSpace(a.ZipCode) == "":
		return NewValidationError("shippingAddress.zipCode", "is required")
	case strings.TrimSpace(a.Line1) == "":
		return NewValidationError("shippingAddress.line1", "is required")
	}
	return nil
}
