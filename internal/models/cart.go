package models

import (
	"time"

	"github.com/google/uuid"
)

// Cart — корзина пользователя. Одна корзина на пользователя,
// создаётся лениво при первом обращении.
type Cart struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time

	Items []CartItem
}

// CartItem — позиция корзины. Пара (CartID, ProductID) уникальна:
// повторное добавление товара сливается в количество.
// Цена в корзине не фиксируется — всегда берётся текущая цена товара.
type CartItem struct {
	ID        uuid.UUID
	CartID    uuid.UUID
	ProductID uuid.UUID
	Quantity  int64
	CreatedAt time.Time
	UpdatedAt time.Time

	// Product — снапшот товара для отображения; заполняется выборкой.
	Product *Product
}

// SubtotalCents — стоимость позиции по текущей цене товара.
func (i *CartItem) SubtotalCents() int64 {
	if i.Product == nil {
		return 0
	}

	return i.Product.PriceCents * i.Quantity
}

// TotalCents — суммарная стоимость корзины.
func (c *Cart) TotalCents() int64 {
	var total int64
	for idx := range c.Items {
		total += c.Items[idx].SubtotalCents()
	}

	return total
}
