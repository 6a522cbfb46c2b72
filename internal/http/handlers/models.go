package handlers

import (
	"time"

	"github.com/pribylovaa/go-storefront/internal/models"
	"github.com/pribylovaa/go-storefront/internal/service"
)

// DTO HTTP-слоя: доменные модели не несут json-тегов,
// поэтому конвертация в ответы фронту живёт здесь.

type userResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name,omitempty"`
	LastName  string    `json:"last_name,omitempty"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
}

func userFromModel(u *models.User) userResponse {
	return userResponse{
		ID:        u.ID.String(),
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		IsAdmin:   u.IsAdmin,
		CreatedAt: u.CreatedAt,
	}
}

type authResponse struct {
	AccessToken     string       `json:"access_token"`
	RefreshToken    string       `json:"refresh_token"`
	AccessExpiresAt time.Time    `json:"access_expires_at"`
	User            userResponse `json:"user"`
}

func authFromModel(tp *models.TokenPair, u *models.User) authResponse {
	return authResponse{
		AccessToken:     tp.AccessToken,
		RefreshToken:    tp.RefreshToken,
		AccessExpiresAt: tp.AccessExpiresAt,
		User:            userFromModel(u),
	}
}

type refreshResponse struct {
	AccessToken     string    `json:"access_token"`
	AccessExpiresAt time.Time `json:"access_expires_at"`
}

type categoryResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Slug         string `json:"slug"`
	Description  string `json:"description,omitempty"`
	ImageURL     string `json:"image_url,omitempty"`
	ProductCount int64  `json:"product_count"`
}

func categoryFromModel(c *models.Category) categoryResponse {
	return categoryResponse{
		ID:           c.ID.String(),
		Name:         c.Name,
		Slug:         c.Slug,
		Description:  c.Description,
		ImageURL:     c.ImageURL,
		ProductCount: c.ProductCount,
	}
}

type productResponse struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	Slug           string            `json:"slug"`
	Description    string            `json:"description,omitempty"`
	PriceCents     int64             `json:"price_cents"`
	ImageURL       string            `json:"image_url,omitempty"`
	InventoryCount int64             `json:"inventory_count"`
	InStock        bool              `json:"in_stock"`
	Featured       bool              `json:"featured"`
	Category       *categoryResponse `json:"category,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
}

func productFromModel(p *models.Product) productResponse {
	out := productResponse{
		ID:             p.ID.String(),
		Name:           p.Name,
		Slug:           p.Slug,
		Description:    p.Description,
		PriceCents:     p.PriceCents,
		ImageURL:       p.ImageURL,
		InventoryCount: p.InventoryCount,
		InStock:        p.InStock(),
		Featured:       p.Featured,
		CreatedAt:      p.CreatedAt,
	}

	if p.Category != nil {
		c := categoryFromModel(p.Category)
		out.Category = &c
	}

	return out
}

func productsFromModels(ps []models.Product) []productResponse {
	out := make([]productResponse, 0, len(ps))
	for i := range ps {
		out = append(out, productFromModel(&ps[i]))
	}
	return out
}

type productListResponse struct {
	Products []productResponse `json:"products"`
	Total    int64             `json:"total"`
	Limit    int               `json:"limit"`
	Offset   int               `json:"offset"`
}

func productListFromPage(page *service.ProductPage) productListResponse {
	return productListResponse{
		Products: productsFromModels(page.Products),
		Total:    page.Total,
		Limit:    page.Limit,
		Offset:   page.Offset,
	}
}

type categoryDetailResponse struct {
	Category categoryResponse  `json:"category"`
	Products []productResponse `json:"products"`
}

type cartItemResponse struct {
	ID            string          `json:"id"`
	Quantity      int64           `json:"quantity"`
	SubtotalCents int64           `json:"subtotal_cents"`
	Product       productResponse `json:"product"`
}

type cartResponse struct {
	ID         string             `json:"id"`
	Items      []cartItemResponse `json:"items"`
	TotalCents int64              `json:"total_cents"`
}

func cartFromModel(c *models.Cart) cartResponse {
	out := cartResponse{
		ID:         c.ID.String(),
		Items:      make([]cartItemResponse, 0, len(c.Items)),
		TotalCents: c.TotalCents(),
	}

	for i := range c.Items {
		it := &c.Items[i]
		resp := cartItemResponse{
			ID:            it.ID.String(),
			Quantity:      it.Quantity,
			SubtotalCents: it.SubtotalCents(),
		}
		if it.Product != nil {
			resp.Product = productFromModel(it.Product)
		}
		out.Items = append(out.Items, resp)
	}

	return out
}

type orderItemResponse struct {
	ID                   string `json:"id"`
	ProductID            string `json:"product_id"`
	ProductName          string `json:"product_name"`
	Quantity             int64  `json:"quantity"`
	PriceCentsAtPurchase int64  `json:"price_cents_at_purchase"`
	SubtotalCents        int64  `json:"subtotal_cents"`
}

type orderResponse struct {
	ID              string              `json:"id"`
	Status          string              `json:"status"`
	TotalCents      int64               `json:"total_cents"`
	ShippingAddress string              `json:"shipping_address"`
	Notes           string              `json:"notes,omitempty"`
	Items           []orderItemResponse `json:"items"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

func orderFromModel(o *models.Order) orderResponse {
	out := orderResponse{
		ID:              o.ID.String(),
		Status:          string(o.Status),
		TotalCents:      o.TotalCents,
		ShippingAddress: o.ShippingAddress,
		Notes:           o.Notes,
		Items:           make([]orderItemResponse, 0, len(o.Items)),
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}

	for i := range o.Items {
		it := &o.Items[i]
		out.Items = append(out.Items, orderItemResponse{
			ID:                   it.ID.String(),
			ProductID:            it.ProductID.String(),
			ProductName:          it.ProductName,
			Quantity:             it.Quantity,
			PriceCentsAtPurchase: it.PriceCentsAtPurchase,
			SubtotalCents:        it.SubtotalCents(),
		})
	}

	return out
}

func ordersFromModels(os []models.Order) []orderResponse {
	out := make([]orderResponse, 0, len(os))
	for i := range os {
		out = append(out, orderFromModel(&os[i]))
	}
	return out
}
