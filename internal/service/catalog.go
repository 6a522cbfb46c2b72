package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pribylovaa/go-storefront/internal/models"
	"github.com/pribylovaa/go-storefront/internal/storage"
)

// featuredLimit — размер подборки «featured» на витрине.
const featuredLimit = 8

// ProductPage — страница каталога с общим числом совпадений.
type ProductPage struct {
	Products []models.Product
	Total    int64
	Limit    int
	Offset   int
}

// Categories возвращает активные категории каталога.
func (s *Service) Categories(ctx context.Context) ([]models.Category, error) {
	const op = "service.catalog.Categories"

	categories, err := s.storage.Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return categories, nil
}

// CategoryBySlug находит активную категорию по slug.
func (s *Service) CategoryBySlug(ctx context.Context, slug string) (*models.Category, error) {
	const op = "service.catalog.CategoryBySlug"

	category, err := s.storage.CategoryBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return category, nil
}

// ListProducts возвращает страницу активных товаров по фильтру.
// Limit нормализуется к [1, MaxPageSize] с дефолтом PageSize.
func (s *Service) ListProducts(ctx context.Context, filter models.ProductFilter) (*ProductPage, error) {
	const op = "service.catalog.ListProducts"

	if filter.Limit <= 0 {
		filter.Limit = s.catalog.PageSize
	}
	if filter.Limit > s.catalog.MaxPageSize {
		filter.Limit = s.catalog.MaxPageSize
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	if filter.Ordering != "" && !validOrdering(filter.Ordering) {
		verr := &ValidationError{}
		verr.add("ordering", "unknown ordering")
		return nil, fmt.Errorf("%s: %w", op, verr)
	}

	products, total, err := s.storage.Products(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &ProductPage{
		Products: products,
		Total:    total,
		Limit:    filter.Limit,
		Offset:   filter.Offset,
	}, nil
}

// FeaturedProducts возвращает подборку «featured» (до 8 товаров).
func (s *Service) FeaturedProducts(ctx context.Context) ([]models.Product, error) {
	const op = "service.catalog.FeaturedProducts"

	featured := true
	filter := models.ProductFilter{
		Featured: &featured,
		Ordering: models.OrderingNewestFirst,
		Limit:    featuredLimit,
	}

	products, _, err := s.storage.Products(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return products, nil
}

// ProductBySlug находит активный товар по slug.
func (s *Service) ProductBySlug(ctx context.Context, slug string) (*models.Product, error) {
	const op = "service.catalog.ProductBySlug"

	product, err := s.storage.ProductBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return product, nil
}

// ProductInput — данные товара для создания/обновления (админ).
type ProductInput struct {
	Name           string
	Slug           string
	Description    string
	PriceCents     int64
	CategoryID     uuid.UUID
	ImageURL       string
	InventoryCount int64
	Featured       bool
}

// validateProductInput проверяет инварианты товара.
func validateProductInput(in ProductInput) *ValidationError {
	verr := &ValidationError{}

	if len(strings.TrimSpace(in.Name)) < 3 {
		verr.add("name", "name must be at least 3 characters")
	}
	if strings.TrimSpace(in.Slug) == "" {
		verr.add("slug", "slug is required")
	}
	if in.PriceCents <= 0 {
		verr.add("price_cents", "price must be positive")
	}
	if in.InventoryCount < 0 {
		verr.add("inventory_count", "inventory must not be negative")
	}
	if in.CategoryID == uuid.Nil {
		verr.add("category_id", "category is required")
	}

	if verr.empty() {
		return nil
	}

	return verr
}

// CreateProduct создает новый товар (требует прав администратора на HTTP-слое).
func (s *Service) CreateProduct(ctx context.Context, in ProductInput) (*models.Product, error) {
	const op = "service.catalog.CreateProduct"

	if verr := validateProductInput(in); verr != nil {
		return nil, fmt.Errorf("%s: %w", op, verr)
	}

	now := time.Now().UTC()
	product := &models.Product{
		ID:             uuid.New(),
		Name:           strings.TrimSpace(in.Name),
		Slug:           strings.TrimSpace(in.Slug),
		Description:    in.Description,
		PriceCents:     in.PriceCents,
		CategoryID:     in.CategoryID,
		ImageURL:       in.ImageURL,
		InventoryCount: in.InventoryCount,
		IsActive:       true,
		Featured:       in.Featured,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.storage.SaveProduct(ctx, product); err != nil {
		switch {
		case errors.Is(err, storage.ErrAlreadyExists):
			verr := &ValidationError{}
			verr.add("slug", "slug already in use")
			return nil, fmt.Errorf("%s: %w", op, verr)
		case errors.Is(err, storage.ErrNotFound):
			// FK на категорию.
			verr := &ValidationError{}
			verr.add("category_id", "category does not exist")
			return nil, fmt.Errorf("%s: %w", op, verr)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return product, nil
}

// UpdateProduct обновляет товар по slug.
func (s *Service) UpdateProduct(ctx context.Context, slug string, in ProductInput) (*models.Product, error) {
	const op = "service.catalog.UpdateProduct"

	if verr := validateProductInput(in); verr != nil {
		return nil, fmt.Errorf("%s: %w", op, verr)
	}

	product, err := s.storage.ProductBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	product.Name = strings.TrimSpace(in.Name)
	product.Slug = strings.TrimSpace(in.Slug)
	product.Description = in.Description
	product.PriceCents = in.PriceCents
	product.CategoryID = in.CategoryID
	product.ImageURL = in.ImageURL
	product.InventoryCount = in.InventoryCount
	product.Featured = in.Featured
	product.UpdatedAt = time.Now().UTC()

	if err := s.storage.UpdateProduct(ctx, slug, product); err != nil {
		switch {
		case errors.Is(err, storage.ErrAlreadyExists):
			verr := &ValidationError{}
			verr.add("slug", "slug already in use")
			return nil, fmt.Errorf("%s: %w", op, verr)
		case errors.Is(err, storage.ErrNotFound):
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return product, nil
}

// DeleteProduct мягко удаляет товар: is_active=false, исторические заказы
// продолжают ссылаться на запись.
func (s *Service) DeleteProduct(ctx context.Context, slug string) error {
	const op = "service.catalog.DeleteProduct"

	if err := s.storage.DeactivateProduct(ctx, slug); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func validOrdering(o models.ProductOrdering) bool {
	switch o {
	case models.OrderingPriceAsc, models.OrderingPriceDesc,
		models.OrderingNameAsc, models.OrderingNameDesc,
		models.OrderingNewestFirst, models.OrderingOldestLast:
		return true
	}

	return false
}
