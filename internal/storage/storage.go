package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/pribylovaa/go-storefront/internal/models"
)

var (
	// ErrNotFound — запись не найдена (пользователь/токен/товар/заказ).
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists — нарушение уникальности (email/slug/refresh-token).
	ErrAlreadyExists = errors.New("already exists")
	// ErrInsufficientStock — товара не хватает на складе для операции.
	ErrInsufficientStock = errors.New("insufficient stock")
)

// UserStorage выполняет операции над пользователями.
type UserStorage interface {
	// SaveUser создает нового пользователя в БД.
	SaveUser(ctx context.Context, user *models.User) error
	// UserByEmail находит пользователя по email.
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	// UserByID находит пользователя по ID.
	UserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	// UpdateUser обновляет изменяемые поля профиля.
	UpdateUser(ctx context.Context, user *models.User) error
}

// RefreshTokenStorage выполняет операции над refresh-токенами.
type RefreshTokenStorage interface {
	// SaveRefreshToken сохраняет новый refresh-token в БД.
	SaveRefreshToken(ctx context.Context, token *models.RefreshToken) error
	// RefreshTokenByHash находит refresh-токен по его хэшу.
	RefreshTokenByHash(ctx context.Context, hash string) (*models.RefreshToken, error)
	// RevokeRefreshTokenIfActive пытается отозвать refresh-токен, если он ещё активен.
	// (true, nil) — отозван сейчас; (false, nil) — уже был отозван; (false, ErrNotFound) — не найден.
	RevokeRefreshTokenIfActive(ctx context.Context, hash string) (bool, error)
	// DeleteExpiredTokens удаляет все просроченные токены.
	DeleteExpiredTokens(ctx context.Context, now time.Time) error
}

// CatalogStorage выполняет операции над категориями и товарами.
type CatalogStorage interface {
	// Categories возвращает активные категории с количеством активных товаров.
	Categories(ctx context.Context) ([]models.Category, error)
	// CategoryBySlug находит активную категорию по slug.
	CategoryBySlug(ctx context.Context, slug string) (*models.Category, error)
	// Products возвращает страницу активных товаров по фильтру и общее число совпадений.
	Products(ctx context.Context, filter models.ProductFilter) ([]models.Product, int64, error)
	// ProductBySlug находит активный товар по slug (с категорией).
	ProductBySlug(ctx context.Context, slug string) (*models.Product, error)
	// SaveProduct создает новый товар.
	SaveProduct(ctx context.Context, product *models.Product) error
	// UpdateProduct обновляет товар, найденный по slug; тело может
	// содержать новый slug (переименование).
	UpdateProduct(ctx context.Context, slug string, product *models.Product) error
	// DeactivateProduct мягко удаляет товар (is_active=false).
	DeactivateProduct(ctx context.Context, slug string) error
}

// CartStorage выполняет операции над корзинами.
type CartStorage interface {
	// EnsureCart возвращает корзину пользователя с позициями, создавая её при отсутствии.
	EnsureCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	// AddCartItem добавляет товар в корзину; повторное добавление увеличивает количество.
	AddCartItem(ctx context.Context, cartID, productID uuid.UUID, quantity int64) error
	// UpdateCartItemQuantity выставляет количество позиции.
	UpdateCartItemQuantity(ctx context.Context, cartID, itemID uuid.UUID, quantity int64) error
	// RemoveCartItem удаляет позицию из корзины.
	RemoveCartItem(ctx context.Context, cartID, itemID uuid.UUID) error
	// ClearCart удаляет все позиции корзины.
	ClearCart(ctx context.Context, cartID uuid.UUID) error
}

// OrderStorage выполняет операции над заказами.
type OrderStorage interface {
	// PlaceOrder атомарно создает заказ с позициями, списывает остатки
	// и очищает корзину. При нехватке остатков — ErrInsufficientStock.
	PlaceOrder(ctx context.Context, order *models.Order, cartID uuid.UUID) error
	// OrdersByUserID возвращает заказы пользователя (новые первыми) с позициями.
	OrdersByUserID(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
	// OrderByID находит заказ с позициями.
	OrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	// UpdateOrderStatus выставляет статус заказа.
	UpdateOrderStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus) error
	// CancelOrder атомарно отменяет заказ и возвращает остатки на склад.
	CancelOrder(ctx context.Context, id uuid.UUID) error
}

// Storage задает контракт работы с БД.
type Storage interface {
	UserStorage
	RefreshTokenStorage
	CatalogStorage
	CartStorage
	OrderStorage
	Close()
}
