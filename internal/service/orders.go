package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pribylovaa/go-storefront/internal/models"
	"github.com/pribylovaa/go-storefront/internal/pkg/log"
	"github.com/pribylovaa/go-storefront/internal/storage"
)

// CheckoutInput — данные оформления заказа.
type CheckoutInput struct {
	ShippingAddress string
	Notes           string
}

// Checkout оформляет заказ из текущей корзины пользователя.
// Состав и цены фиксируются на момент оформления; остатки списываются
// атомарно, корзина очищается в той же транзакции.
func (s *Service) Checkout(ctx context.Context, userID uuid.UUID, in CheckoutInput) (*models.Order, error) {
	const op = "service.orders.Checkout"

	if strings.TrimSpace(in.ShippingAddress) == "" {
		verr := &ValidationError{}
		verr.add("shipping_address", "shipping address is required")
		return nil, fmt.Errorf("%s: %w", op, verr)
	}

	cart, err := s.storage.EnsureCart(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if len(cart.Items) == 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrEmptyCart)
	}

	now := time.Now().UTC()
	order := &models.Order{
		ID:              uuid.New(),
		UserID:          userID,
		Status:          models.OrderPending,
		ShippingAddress: strings.TrimSpace(in.ShippingAddress),
		Notes:           in.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	for i := range cart.Items {
		it := &cart.Items[i]
		if it.Product == nil {
			return nil, fmt.Errorf("%s: cart item %s has no product snapshot", op, it.ID)
		}

		order.Items = append(order.Items, models.OrderItem{
			ID:                   uuid.New(),
			OrderID:              order.ID,
			ProductID:            it.ProductID,
			ProductName:          it.Product.Name,
			Quantity:             it.Quantity,
			PriceCentsAtPurchase: it.Product.PriceCents,
		})
		order.TotalCents += it.Product.PriceCents * it.Quantity
	}

	if err := s.storage.PlaceOrder(ctx, order, cart.ID); err != nil {
		if errors.Is(err, storage.ErrInsufficientStock) {
			return nil, fmt.Errorf("%s: %w", op, ErrInsufficientStock)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.From(ctx).Info("order_placed",
		"order_id", order.ID.String(),
		"items", len(order.Items),
		"total_cents", order.TotalCents,
	)

	return order, nil
}

// Orders возвращает заказы пользователя (новые первыми).
func (s *Service) Orders(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	const op = "service.orders.Orders"

	orders, err := s.storage.OrdersByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return orders, nil
}

// OrderByID возвращает заказ пользователя. Чужой заказ неотличим от
// несуществующего — в обоих случаях ErrNotFound.
func (s *Service) OrderByID(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	const op = "service.orders.OrderByID"

	order, err := s.storage.OrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if order.UserID != userID {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	return order, nil
}

// CancelOrder отменяет заказ пользователя. Допустимо только из
// pending/processing; остатки возвращаются на склад.
func (s *Service) CancelOrder(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	const op = "service.orders.CancelOrder"

	order, err := s.OrderByID(ctx, userID, orderID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !order.Status.Cancellable() {
		return nil, fmt.Errorf("%s: %w", op, ErrFailedPrecondition)
	}

	if err := s.storage.CancelOrder(ctx, order.ID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	order.Status = models.OrderCancelled
	order.UpdatedAt = time.Now().UTC()

	log.From(ctx).Info("order_cancelled", "order_id", order.ID.String())

	return order, nil
}

// UpdateOrderStatus переводит заказ в новый статус (админ-операция).
// Переход проверяется по жизненному циклу заказа.
func (s *Service) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, next models.OrderStatus) (*models.Order, error) {
	const op = "service.orders.UpdateOrderStatus"

	if !next.Valid() {
		verr := &ValidationError{}
		verr.add("status", "unknown status")
		return nil, fmt.Errorf("%s: %w", op, verr)
	}

	order, err := s.storage.OrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !order.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("%s: %w", op, ErrFailedPrecondition)
	}

	// Отмена через смену статуса тоже возвращает остатки.
	if next == models.OrderCancelled {
		if err := s.storage.CancelOrder(ctx, order.ID); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	} else {
		if err := s.storage.UpdateOrderStatus(ctx, order.ID, next); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	order.Status = next
	order.UpdatedAt = time.Now().UTC()

	return order, nil
}
