package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pribylovaa/go-storefront/internal/models"
	"github.com/pribylovaa/go-storefront/internal/storage"
)

// Categories возвращает активные категории с количеством активных товаров.
// COUNT считается одним запросом через LEFT JOIN — без N+1.
func (s *Storage) Categories(ctx context.Context) ([]models.Category, error) {
	const op = "storage.postgres.Categories"

	query := `
		SELECT c.id, c.name, c.slug, c.description, c.image_url, c.is_active,
		       c.created_at, c.updated_at,
		       COUNT(p.id) FILTER (WHERE p.is_active) AS product_count
		FROM categories c
		LEFT JOIN products p ON p.category_id = c.id
		WHERE c.is_active
		GROUP BY c.id
		ORDER BY c.name
	`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var result []models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(
			&c.ID, &c.Name, &c.Slug, &c.Description, &c.ImageURL, &c.IsActive,
			&c.CreatedAt, &c.UpdatedAt, &c.ProductCount,
		); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return result, nil
}

// CategoryBySlug находит активную категорию по slug.
func (s *Storage) CategoryBySlug(ctx context.Context, slug string) (*models.Category, error) {
	const op = "storage.postgres.CategoryBySlug"

	query := `
		SELECT c.id, c.name, c.slug, c.description, c.image_url, c.is_active,
		       c.created_at, c.updated_at,
		       (SELECT COUNT(*) FROM products p WHERE p.category_id = c.id AND p.is_active) AS product_count
		FROM categories c
		WHERE c.slug = $1 AND c.is_active
	`

	var c models.Category
	err := s.db.QueryRow(ctx, query, slug).Scan(
		&c.ID, &c.Name, &c.Slug, &c.Description, &c.ImageURL, &c.IsActive,
		&c.CreatedAt, &c.UpdatedAt, &c.ProductCount,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &c, nil
}

// orderBySQL — whitelist сортировок; произвольные значения не попадают в SQL.
func orderBySQL(o models.ProductOrdering) string {
	switch o {
	case models.OrderingPriceAsc:
		return "p.price_cents ASC, p.id"
	case models.OrderingPriceDesc:
		return "p.price_cents DESC, p.id"
	case models.OrderingNameAsc:
		return "p.name ASC, p.id"
	case models.OrderingNameDesc:
		return "p.name DESC, p.id"
	case models.OrderingOldestLast:
		return "p.created_at ASC, p.id"
	default:
		return "p.created_at DESC, p.id"
	}
}

// Products возвращает страницу активных товаров по фильтру и общее число совпадений.
func (s *Storage) Products(ctx context.Context, filter models.ProductFilter) ([]models.Product, int64, error) {
	const op = "storage.postgres.Products"

	where := []string{"p.is_active"}
	var args []any

	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if filter.CategorySlug != "" {
		where = append(where, "c.slug = "+arg(filter.CategorySlug))
	}
	if filter.MinPriceCents != nil {
		where = append(where, "p.price_cents >= "+arg(*filter.MinPriceCents))
	}
	if filter.MaxPriceCents != nil {
		where = append(where, "p.price_cents <= "+arg(*filter.MaxPriceCents))
	}
	if filter.InStock != nil {
		if *filter.InStock {
			where = append(where, "p.inventory_count > 0")
		} else {
			where = append(where, "p.inventory_count = 0")
		}
	}
	if filter.Featured != nil {
		where = append(where, "p.featured = "+arg(*filter.Featured))
	}
	if filter.Search != "" {
		pat := "%" + filter.Search + "%"
		where = append(where, "(p.name ILIKE "+arg(pat)+" OR p.description ILIKE "+arg(pat)+")")
	}

	whereSQL := strings.Join(where, " AND ")

	countQuery := `
		SELECT COUNT(*)
		FROM products p
		JOIN categories c ON c.id = p.category_id
		WHERE ` + whereSQL

	var total int64
	if err := s.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	query := `
		SELECT p.id, p.name, p.slug, p.description, p.price_cents, p.category_id,
		       p.image_url, p.inventory_count, p.is_active, p.featured,
		       p.created_at, p.updated_at,
		       c.id, c.name, c.slug, c.description, c.image_url, c.is_active,
		       c.created_at, c.updated_at
		FROM products p
		JOIN categories c ON c.id = p.category_id
		WHERE ` + whereSQL + `
		ORDER BY ` + orderBySQL(filter.Ordering) + `
		LIMIT ` + arg(filter.Limit) + ` OFFSET ` + arg(filter.Offset)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var result []models.Product
	for rows.Next() {
		var p models.Product
		var c models.Category
		if err := rows.Scan(
			&p.ID, &p.Name, &p.Slug, &p.Description, &p.PriceCents, &p.CategoryID,
			&p.ImageURL, &p.InventoryCount, &p.IsActive, &p.Featured,
			&p.CreatedAt, &p.UpdatedAt,
			&c.ID, &c.Name, &c.Slug, &c.Description, &c.ImageURL, &c.IsActive,
			&c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("%s: %w", op, err)
		}
		p.Category = &c
		result = append(result, p)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	return result, total, nil
}

// ProductBySlug находит активный товар по slug (с категорией).
func (s *Storage) ProductBySlug(ctx context.Context, slug string) (*models.Product, error) {
	const op = "storage.postgres.ProductBySlug"

	query := `
		SELECT p.id, p.name, p.slug, p.description, p.price_cents, p.category_id,
		       p.image_url, p.inventory_count, p.is_active, p.featured,
		       p.created_at, p.updated_at,
		       c.id, c.name, c.slug, c.description, c.image_url, c.is_active,
		       c.created_at, c.updated_at
		FROM products p
		JOIN categories c ON c.id = p.category_id
		WHERE p.slug = $1 AND p.is_active
	`

	var p models.Product
	var c models.Category
	err := s.db.QueryRow(ctx, query, slug).Scan(
		&p.ID, &p.Name, &p.Slug, &p.Description, &p.PriceCents, &p.CategoryID,
		&p.ImageURL, &p.InventoryCount, &p.IsActive, &p.Featured,
		&p.CreatedAt, &p.UpdatedAt,
		&c.ID, &c.Name, &c.Slug, &c.Description, &c.ImageURL, &c.IsActive,
		&c.CreatedAt, &c.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	p.Category = &c
	return &p, nil
}

// SaveProduct создает новый товар.
func (s *Storage) SaveProduct(ctx context.Context, product *models.Product) error {
	const op = "storage.postgres.SaveProduct"

	query := `
		INSERT INTO products(id, name, slug, description, price_cents, category_id,
		                     image_url, inventory_count, is_active, featured, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := s.db.Exec(ctx, query,
		product.ID, product.Name, product.Slug, product.Description,
		product.PriceCents, product.CategoryID, product.ImageURL,
		product.InventoryCount, product.IsActive, product.Featured,
		product.CreatedAt, product.UpdatedAt,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case pgerrcode.UniqueViolation:
				return fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
			case pgerrcode.ForeignKeyViolation:
				return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
			}
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// UpdateProduct обновляет товар, найденный по slug.
// Ключ поиска передаётся отдельно: тело может содержать новый slug
// (переименование); конфликт нового slug — ErrAlreadyExists.
func (s *Storage) UpdateProduct(ctx context.Context, slug string, product *models.Product) error {
	const op = "storage.postgres.UpdateProduct"

	query := `
		UPDATE products
		SET name = $2, slug = $3, description = $4, price_cents = $5, category_id = $6,
		    image_url = $7, inventory_count = $8, is_active = $9, featured = $10,
		    updated_at = $11
		WHERE slug = $1
	`

	cmdTag, err := s.db.Exec(ctx, query,
		slug, product.Name, product.Slug, product.Description, product.PriceCents,
		product.CategoryID, product.ImageURL, product.InventoryCount,
		product.IsActive, product.Featured, product.UpdatedAt,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case pgerrcode.UniqueViolation:
				return fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
			case pgerrcode.ForeignKeyViolation:
				return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
			}
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}

// DeactivateProduct мягко удаляет товар (is_active=false).
func (s *Storage) DeactivateProduct(ctx context.Context, slug string) error {
	const op = "storage.postgres.DeactivateProduct"

	query := `
		UPDATE products
		SET is_active = FALSE, updated_at = NOW()
		WHERE slug = $1 AND is_active
	`

	cmdTag, err := s.db.Exec(ctx, query, slug)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}
