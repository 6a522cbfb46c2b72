package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	apierrors "github.com/pribylovaa/go-storefront/internal/errors"
	"github.com/pribylovaa/go-storefront/internal/models"
	"github.com/pribylovaa/go-storefront/internal/service"
)

func (h *Handlers) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.Service.Categories(r.Context())
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	out := make([]categoryResponse, 0, len(categories))
	for i := range categories {
		out = append(out, categoryFromModel(&categories[i]))
	}

	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) CategoryBySlug(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	category, err := h.Service.CategoryBySlug(r.Context(), slug)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	// Витрина категории: сама категория + первая страница её товаров.
	page, err := h.Service.ListProducts(r.Context(), models.ProductFilter{
		CategorySlug: slug,
	})
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, categoryDetailResponse{
		Category: categoryFromModel(category),
		Products: productsFromModels(page.Products),
	})
}

// parseProductFilter разбирает query-string фильтры списка товаров.
// Битые значения числовых/булевых параметров → ошибка 400.
func parseProductFilter(r *http.Request) (models.ProductFilter, error) {
	q := r.URL.Query()
	filter := models.ProductFilter{
		CategorySlug: q.Get("category"),
		Search:       q.Get("search"),
		Ordering:     models.ProductOrdering(q.Get("ordering")),
	}

	if v := q.Get("min_price"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 0 {
			return filter, errInvalidArgument()
		}
		filter.MinPriceCents = &n
	}

	if v := q.Get("max_price"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 0 {
			return filter, errInvalidArgument()
		}
		filter.MaxPriceCents = &n
	}

	if v := q.Get("in_stock"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return filter, errInvalidArgument()
		}
		filter.InStock = &b
	}

	if v := q.Get("featured"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return filter, errInvalidArgument()
		}
		filter.Featured = &b
	}

	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return filter, errInvalidArgument()
		}
		filter.Limit = n
	}

	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return filter, errInvalidArgument()
		}
		filter.Offset = n
	}

	return filter, nil
}

func (h *Handlers) ListProducts(w http.ResponseWriter, r *http.Request) {
	filter, err := parseProductFilter(r)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	page, err := h.Service.ListProducts(r.Context(), filter)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, productListFromPage(page))
}

func (h *Handlers) FeaturedProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.Service.FeaturedProducts(r.Context())
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, productsFromModels(products))
}

func (h *Handlers) ProductBySlug(w http.ResponseWriter, r *http.Request) {
	product, err := h.Service.ProductBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, productFromModel(product))
}

type productRequest struct {
	Name           string `json:"name"`
	Slug           string `json:"slug"`
	Description    string `json:"description"`
	PriceCents     int64  `json:"price_cents"`
	CategoryID     string `json:"category_id"`
	ImageURL       string `json:"image_url"`
	InventoryCount int64  `json:"inventory_count"`
	Featured       bool   `json:"featured"`
}

func (in *productRequest) toInput() (service.ProductInput, error) {
	categoryID, err := uuid.Parse(in.CategoryID)
	if err != nil {
		return service.ProductInput{}, errInvalidArgument()
	}

	return service.ProductInput{
		Name:           in.Name,
		Slug:           in.Slug,
		Description:    in.Description,
		PriceCents:     in.PriceCents,
		CategoryID:     categoryID,
		ImageURL:       in.ImageURL,
		InventoryCount: in.InventoryCount,
		Featured:       in.Featured,
	}, nil
}

func (h *Handlers) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var in productRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, errInvalidArgument())
		return
	}

	input, err := in.toInput()
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	product, err := h.Service.CreateProduct(r.Context(), input)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, productFromModel(product))
}

func (h *Handlers) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var in productRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, errInvalidArgument())
		return
	}

	input, err := in.toInput()
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	product, err := h.Service.UpdateProduct(r.Context(), chi.URLParam(r, "slug"), input)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, productFromModel(product))
}

func (h *Handlers) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteProduct(r.Context(), chi.URLParam(r, "slug")); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
