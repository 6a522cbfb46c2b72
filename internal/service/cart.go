package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/pribylovaa/go-storefront/internal/models"
	"github.com/pribylovaa/go-storefront/internal/storage"
)

// Cart возвращает корзину пользователя, создавая её при первом обращении.
func (s *Service) Cart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	const op = "service.cart.Cart"

	cart, err := s.storage.EnsureCart(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return cart, nil
}

// AddCartItem добавляет товар в корзину по slug. Проверяет, что товар
// активен и что запрошенное количество не превышает остаток.
func (s *Service) AddCartItem(ctx context.Context, userID uuid.UUID, productSlug string, quantity int64) (*models.Cart, error) {
	const op = "service.cart.AddCartItem"

	if quantity <= 0 {
		verr := &ValidationError{}
		verr.add("quantity", "quantity must be positive")
		return nil, fmt.Errorf("%s: %w", op, verr)
	}

	product, err := s.storage.ProductBySlug(ctx, productSlug)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	cart, err := s.storage.EnsureCart(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// Количество с учётом уже лежащего в корзине.
	var inCart int64
	for i := range cart.Items {
		if cart.Items[i].ProductID == product.ID {
			inCart = cart.Items[i].Quantity
			break
		}
	}

	if inCart+quantity > product.InventoryCount {
		return nil, fmt.Errorf("%s: %w", op, ErrInsufficientStock)
	}

	if err := s.storage.AddCartItem(ctx, cart.ID, product.ID, quantity); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	cart, err = s.storage.EnsureCart(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return cart, nil
}

// UpdateCartItem выставляет количество позиции корзины.
func (s *Service) UpdateCartItem(ctx context.Context, userID, itemID uuid.UUID, quantity int64) (*models.Cart, error) {
	const op = "service.cart.UpdateCartItem"

	if quantity <= 0 {
		verr := &ValidationError{}
		verr.add("quantity", "quantity must be positive")
		return nil, fmt.Errorf("%s: %w", op, verr)
	}

	cart, err := s.storage.EnsureCart(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var item *models.CartItem
	for i := range cart.Items {
		if cart.Items[i].ID == itemID {
			item = &cart.Items[i]
			break
		}
	}
	if item == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	if item.Product != nil && quantity > item.Product.InventoryCount {
		return nil, fmt.Errorf("%s: %w", op, ErrInsufficientStock)
	}

	if err := s.storage.UpdateCartItemQuantity(ctx, cart.ID, itemID, quantity); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	cart, err = s.storage.EnsureCart(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return cart, nil
}

// RemoveCartItem удаляет позицию из корзины пользователя.
func (s *Service) RemoveCartItem(ctx context.Context, userID, itemID uuid.UUID) (*models.Cart, error) {
	const op = "service.cart.RemoveCartItem"

	cart, err := s.storage.EnsureCart(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.storage.RemoveCartItem(ctx, cart.ID, itemID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	cart, err = s.storage.EnsureCart(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return cart, nil
}

// ClearCart удаляет все позиции корзины пользователя.
func (s *Service) ClearCart(ctx context.Context, userID uuid.UUID) error {
	const op = "service.cart.ClearCart"

	cart, err := s.storage.EnsureCart(ctx, userID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.storage.ClearCart(ctx, cart.ID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
