package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatus — статус заказа.
//
// Жизненный цикл:
//
//	pending -> processing -> shipped -> delivered
//	      \-> cancelled (только из pending/processing)
type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
)

// Valid — известный ли это статус.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderProcessing, OrderShipped, OrderDelivered, OrderCancelled:
		return true
	}

	return false
}

// Cancellable — можно ли отменить заказ в этом статусе.
func (s OrderStatus) Cancellable() bool {
	return s == OrderPending || s == OrderProcessing
}

// CanTransitionTo — допустим ли переход статуса.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	switch s {
	case OrderPending:
		return next == OrderProcessing || next == OrderCancelled
	case OrderProcessing:
		return next == OrderShipped || next == OrderCancelled
	case OrderShipped:
		return next == OrderDelivered
	}

	return false
}

// Order — заказ пользователя. После создания состав заказа неизменяем,
// меняется только статус. Сумма фиксируется при оформлении.
type Order struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	Status          OrderStatus
	TotalCents      int64
	ShippingAddress string
	Notes           string
	CreatedAt       time.Time
	UpdatedAt       time.Time

	Items []OrderItem
}

// OrderItem — позиция заказа со снапшотом цены на момент покупки.
// Цена товара может меняться — заказ хранит то, что реально заплачено.
type OrderItem struct {
	ID                   uuid.UUID
	OrderID              uuid.UUID
	ProductID            uuid.UUID
	ProductName          string
	Quantity             int64
	PriceCentsAtPurchase int64
}

// SubtotalCents — стоимость позиции по зафиксированной цене.
func (i *OrderItem) SubtotalCents() int64 {
	return i.PriceCentsAtPurchase * i.Quantity
}

// ItemCount — суммарное количество единиц товара в заказе.
func (o *Order) ItemCount() int64 {
	var n int64
	for idx := range o.Items {
		n += o.Items[idx].Quantity
	}

	return n
}
