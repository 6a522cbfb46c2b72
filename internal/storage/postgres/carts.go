package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pribylovaa/go-storefront/internal/models"
	"github.com/pribylovaa/go-storefront/internal/storage"
)

// EnsureCart возвращает корзину пользователя с позициями, создавая её при отсутствии.
func (s *Storage) EnsureCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	const op = "storage.postgres.EnsureCart"

	// Ленивое создание: INSERT .. ON CONFLICT DO NOTHING + SELECT.
	insert := `
		INSERT INTO carts(id, user_id, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		ON CONFLICT (user_id) DO NOTHING
	`

	if _, err := s.db.Exec(ctx, insert, uuid.New(), userID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	sel := `
		SELECT id, user_id, created_at, updated_at
		FROM carts
		WHERE user_id = $1
	`

	var cart models.Cart
	err := s.db.QueryRow(ctx, sel, userID).Scan(
		&cart.ID, &cart.UserID, &cart.CreatedAt, &cart.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	items, err := s.cartItems(ctx, cart.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	cart.Items = items

	return &cart, nil
}

// cartItems выбирает позиции корзины вместе со снапшотами товаров.
func (s *Storage) cartItems(ctx context.Context, cartID uuid.UUID) ([]models.CartItem, error) {
	query := `
		SELECT i.id, i.cart_id, i.product_id, i.quantity, i.created_at, i.updated_at,
		       p.id, p.name, p.slug, p.description, p.price_cents, p.category_id,
		       p.image_url, p.inventory_count, p.is_active, p.featured,
		       p.created_at, p.updated_at
		FROM cart_items i
		JOIN products p ON p.id = i.product_id
		WHERE i.cart_id = $1
		ORDER BY i.created_at, i.id
	`

	rows, err := s.db.Query(ctx, query, cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.CartItem
	for rows.Next() {
		var it models.CartItem
		var p models.Product
		if err := rows.Scan(
			&it.ID, &it.CartID, &it.ProductID, &it.Quantity, &it.CreatedAt, &it.UpdatedAt,
			&p.ID, &p.Name, &p.Slug, &p.Description, &p.PriceCents, &p.CategoryID,
			&p.ImageURL, &p.InventoryCount, &p.IsActive, &p.Featured,
			&p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, err
		}
		it.Product = &p
		items = append(items, it)
	}

	return items, rows.Err()
}

// AddCartItem добавляет товар в корзину; повторное добавление увеличивает количество.
func (s *Storage) AddCartItem(ctx context.Context, cartID, productID uuid.UUID, quantity int64) error {
	const op = "storage.postgres.AddCartItem"

	query := `
		INSERT INTO cart_items(id, cart_id, product_id, quantity, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		ON CONFLICT (cart_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity, updated_at = NOW()
	`

	_, err := s.db.Exec(ctx, query, uuid.New(), cartID, productID, quantity)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// UpdateCartItemQuantity выставляет количество позиции.
func (s *Storage) UpdateCartItemQuantity(ctx context.Context, cartID, itemID uuid.UUID, quantity int64) error {
	const op = "storage.postgres.UpdateCartItemQuantity"

	query := `
		UPDATE cart_items
		SET quantity = $3, updated_at = NOW()
		WHERE id = $2 AND cart_id = $1
	`

	cmdTag, err := s.db.Exec(ctx, query, cartID, itemID, quantity)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}

// RemoveCartItem удаляет позицию из корзины.
func (s *Storage) RemoveCartItem(ctx context.Context, cartID, itemID uuid.UUID) error {
	const op = "storage.postgres.RemoveCartItem"

	query := `
		DELETE FROM cart_items
		WHERE id = $2 AND cart_id = $1
	`

	cmdTag, err := s.db.Exec(ctx, query, cartID, itemID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}

// ClearCart удаляет все позиции корзины.
func (s *Storage) ClearCart(ctx context.Context, cartID uuid.UUID) error {
	const op = "storage.postgres.ClearCart"

	query := `
		DELETE FROM cart_items
		WHERE cart_id = $1
	`

	if _, err := s.db.Exec(ctx, query, cartID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
