package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/pribylovaa/go-storefront/internal/models"
	"github.com/pribylovaa/go-storefront/internal/storage"
)

// PlaceOrder атомарно создает заказ с позициями, списывает остатки
// и очищает корзину. При нехватке остатков вся транзакция откатывается
// с ErrInsufficientStock.
func (s *Storage) PlaceOrder(ctx context.Context, order *models.Order, cartID uuid.UUID) error {
	const op = "storage.postgres.PlaceOrder"

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	insertOrder := `
		INSERT INTO orders(id, user_id, status, total_cents, shipping_address, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err = tx.Exec(ctx, insertOrder,
		order.ID, order.UserID, order.Status, order.TotalCents,
		order.ShippingAddress, order.Notes, order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	insertItem := `
		INSERT INTO order_items(id, order_id, product_id, product_name, quantity, price_cents_at_purchase)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	// Условное списание: UPDATE проходит только если остатка хватает.
	decrement := `
		UPDATE products
		SET inventory_count = inventory_count - $2, updated_at = NOW()
		WHERE id = $1 AND inventory_count >= $2
	`

	for i := range order.Items {
		it := &order.Items[i]

		if _, err := tx.Exec(ctx, insertItem,
			it.ID, it.OrderID, it.ProductID, it.ProductName, it.Quantity, it.PriceCentsAtPurchase,
		); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		cmdTag, err := tx.Exec(ctx, decrement, it.ProductID, it.Quantity)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if cmdTag.RowsAffected() == 0 {
			return fmt.Errorf("%s: %w", op, storage.ErrInsufficientStock)
		}
	}

	if _, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// orderItems выбирает позиции заказа.
func (s *Storage) orderItems(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error) {
	query := `
		SELECT id, order_id, product_id, product_name, quantity, price_cents_at_purchase
		FROM order_items
		WHERE order_id = $1
		ORDER BY product_name, id
	`

	rows, err := s.db.Query(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.OrderItem
	for rows.Next() {
		var it models.OrderItem
		if err := rows.Scan(
			&it.ID, &it.OrderID, &it.ProductID, &it.ProductName, &it.Quantity, &it.PriceCentsAtPurchase,
		); err != nil {
			return nil, err
		}
		items = append(items, it)
	}

	return items, rows.Err()
}

// OrdersByUserID возвращает заказы пользователя (новые первыми) с позициями.
func (s *Storage) OrdersByUserID(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	const op = "storage.postgres.OrdersByUserID"

	query := `
		SELECT id, user_id, status, total_cents, shipping_address, notes, created_at, updated_at
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC, id
	`

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		var o models.Order
		if err := rows.Scan(
			&o.ID, &o.UserID, &o.Status, &o.TotalCents,
			&o.ShippingAddress, &o.Notes, &o.CreatedAt, &o.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for i := range orders {
		items, err := s.orderItems(ctx, orders[i].ID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		orders[i].Items = items
	}

	return orders, nil
}

// OrderByID находит заказ с позициями.
func (s *Storage) OrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	const op = "storage.postgres.OrderByID"

	query := `
		SELECT id, user_id, status, total_cents, shipping_address, notes, created_at, updated_at
		FROM orders
		WHERE id = $1
	`

	var o models.Order
	err := s.db.QueryRow(ctx, query, id).Scan(
		&o.ID, &o.UserID, &o.Status, &o.TotalCents,
		&o.ShippingAddress, &o.Notes, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	items, err := s.orderItems(ctx, o.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	o.Items = items

	return &o, nil
}

// UpdateOrderStatus выставляет статус заказа.
func (s *Storage) UpdateOrderStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus) error {
	const op = "storage.postgres.UpdateOrderStatus"

	query := `
		UPDATE orders
		SET status = $2, updated_at = NOW()
		WHERE id = $1
	`

	cmdTag, err := s.db.Exec(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}

// CancelOrder атомарно отменяет заказ и возвращает остатки на склад.
func (s *Storage) CancelOrder(ctx context.Context, id uuid.UUID) error {
	const op = "storage.postgres.CancelOrder"

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	cancel := `
		UPDATE orders
		SET status = $2, updated_at = NOW()
		WHERE id = $1
	`

	cmdTag, err := tx.Exec(ctx, cancel, id, models.OrderCancelled)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	restore := `
		UPDATE products p
		SET inventory_count = p.inventory_count + i.quantity, updated_at = NOW()
		FROM order_items i
		WHERE i.order_id = $1 AND i.product_id = p.id
	`

	if _, err := tx.Exec(ctx, restore, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
