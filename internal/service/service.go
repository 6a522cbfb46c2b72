// service содержит бизнес-логику витрины:
// регистрацию/аутентификацию пользователей, выпуск/проверку токенов,
// каталог, корзину и заказы — поверх интерфейсов из пакета storage.
//
// Основные аспекты:
//   - Пакет не хранит состояние запроса внутри Service; экземпляр Service
//     безопасен для конкурентного использования из разных горутин при условии,
//     что переданное хранилище (storage.Storage) потокобезопасно.
//   - Ошибки возвращаются сентинелами и далее маппятся HTTP-слоем
//     (см. internal/errors).
package service

import (
	"errors"
	"sort"
	"strings"

	"github.com/pribylovaa/go-storefront/internal/cache"
	"github.com/pribylovaa/go-storefront/internal/config"
	"github.com/pribylovaa/go-storefront/internal/storage"
)

var (
	// ErrInvalidCredentials — пара логин/пароль неверна или пользователь не найден.
	// HTTP 401.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidToken — токен (access/refresh) некорректен по формату/подписи
	// или отсутствует в хранилище. HTTP 401.
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired — срок действия токена истёк. HTTP 401.
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenRevoked — токен отозван (logout) и недействителен
	// независимо от срока. HTTP 401.
	ErrTokenRevoked = errors.New("token revoked")

	// ErrEmailTaken — e-mail уже занят другим пользователем. HTTP 409.
	ErrEmailTaken = errors.New("email already taken")

	// ErrRefreshTokenCollision — исчерпаны попытки сгенерировать уникальный refresh-токен
	// (редкий случай коллизий при сохранении хэша в БД после нескольких ретраев).
	// HTTP 500.
	ErrRefreshTokenCollision = errors.New("refresh token collision")

	// ErrInvalidArgument — входные данные не проходят валидацию. HTTP 400.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound — сущность не найдена (или принадлежит другому пользователю).
	// HTTP 404.
	ErrNotFound = errors.New("not found")

	// ErrPermissionDenied — операция требует прав администратора. HTTP 403.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrFailedPrecondition — состояние сущности не допускает операцию
	// (например, отмена отгруженного заказа). HTTP 412.
	ErrFailedPrecondition = errors.New("failed precondition")

	// ErrInsufficientStock — товара не хватает на складе. HTTP 409.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrEmptyCart — оформление заказа с пустой корзиной. HTTP 412.
	ErrEmptyCart = errors.New("cart is empty")
)

// ValidationError — ошибка валидации формы с разбивкой по полям.
// Оборачивает ErrInvalidArgument, чтобы маппинг статусов оставался единым.
type ValidationError struct {
	// Fields — имя поля -> список сообщений.
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	return "validation failed: " + strings.Join(names, ", ")
}

func (e *ValidationError) Unwrap() error { return ErrInvalidArgument }

func (e *ValidationError) add(field, msg string) {
	if e.Fields == nil {
		e.Fields = map[string][]string{}
	}
	e.Fields[field] = append(e.Fields[field], msg)
}

func (e *ValidationError) empty() bool { return len(e.Fields) == 0 }

// Service описывает бизнес-логику витрины.
type Service struct {
	storage storage.Storage
	auth    config.AuthConfig
	catalog config.CatalogConfig
	rcache  cache.RefreshCache // может быть nil, если кэш не сконфигурирован
}

// New создаёт новый экземпляр Service.
func New(storage storage.Storage, auth config.AuthConfig, catalog config.CatalogConfig) *Service {
	return &Service{
		storage: storage,
		auth:    auth,
		catalog: catalog,
	}
}

// SetRefreshCache устанавливает кэш refresh-токенов (опционально).
func (s *Service) SetRefreshCache(c cache.RefreshCache) {
	s.rcache = c
}
