package models

import (
	"time"

	"github.com/google/uuid"
)

// Category — категория каталога (плоская структура, без вложенности).
type Category struct {
	ID          uuid.UUID
	Name        string
	Slug        string
	Description string
	ImageURL    string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
	// ProductCount — количество активных товаров; заполняется выборкой.
	ProductCount int64
}

// Product — товар каталога.
//
// Цены храним в целых копейках/центах (PriceCents) — никакой плавающей
// точки в деньгах. Товары не удаляются физически (IsActive=false),
// чтобы не ломать исторические заказы.
type Product struct {
	ID             uuid.UUID
	Name           string
	Slug           string
	Description    string
	PriceCents     int64
	CategoryID     uuid.UUID
	ImageURL       string
	InventoryCount int64
	IsActive       bool
	Featured       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time

	// Category — заполняется выборкой при необходимости (JOIN).
	Category *Category
}

// InStock — товар доступен к покупке.
func (p *Product) InStock() bool {
	return p.InventoryCount > 0
}

// ProductOrdering — допустимые варианты сортировки списка товаров.
type ProductOrdering string

const (
	OrderingPriceAsc    ProductOrdering = "price"
	OrderingPriceDesc   ProductOrdering = "-price"
	OrderingNameAsc     ProductOrdering = "name"
	OrderingNameDesc    ProductOrdering = "-name"
	OrderingNewestFirst ProductOrdering = "-created_at"
	OrderingOldestLast  ProductOrdering = "created_at"
)

// ProductFilter — параметры выборки товаров (query-string фильтры витрины).
// Нулевые значения/nil означают «фильтр не задан».
type ProductFilter struct {
	CategorySlug  string
	MinPriceCents *int64
	MaxPriceCents *int64
	InStock       *bool
	Featured      *bool
	Search        string
	Ordering      ProductOrdering
	Limit         int
	Offset        int
}
