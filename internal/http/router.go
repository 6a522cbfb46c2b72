package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pribylovaa/go-storefront/internal/http/handlers"
	"github.com/pribylovaa/go-storefront/internal/http/middleware"
	"github.com/pribylovaa/go-storefront/internal/service"
)

// Options — параметры сборки HTTP-роутера.
type Options struct {
	Logger   *slog.Logger
	Timeout  time.Duration
	BasePath string // например, "/api"; если пустой — роуты регистрируются на корне.
}

// NewRouter собирает http.Handler с chi и подключёнными middleware/роутами.
func NewRouter(svc *service.Service, opts Options) http.Handler {
	root := chi.NewRouter()

	// Middleware (внешний -> внутренний).
	root.Use(
		middleware.Recover(),            // безопасно ловим паники
		middleware.RequestID(),          // формируем/прокидываем X-Request-Id (до логирования!)
		middleware.Logging(opts.Logger), // кладём request-scoped логгер в контекст и логируем
		middleware.AuthBearer(),         // вынимаем Bearer токен в контекст
	)
	if opts.Timeout > 0 {
		root.Use(middleware.Timeout(opts.Timeout)) // общий дедлайн запроса
	}

	// Зависимости хендлеров.
	h := handlers.New(svc)

	// Регистрация маршрутов.
	if opts.BasePath != "" {
		sub := chi.NewRouter()
		registerRoutes(sub, h, svc)
		root.Mount(opts.BasePath, sub)
		return root
	}

	registerRoutes(root, h, svc)
	return root
}

// registerRoutes — единая точка регистрации всех REST-эндпойнтов.
func registerRoutes(r chi.Router, h *handlers.Handlers, svc *service.Service) {
	authed := middleware.Authenticate(svc)
	admin := middleware.AdminOnly()

	// auth
	r.Post("/auth/register", h.Register)
	r.Post("/auth/login", h.Login)
	r.Post("/auth/refresh", h.Refresh)
	r.Post("/auth/logout", h.Logout)
	r.With(authed).Get("/auth/profile", h.Profile)
	r.With(authed).Patch("/auth/profile", h.UpdateProfile)

	// catalog (публичный)
	r.Get("/categories", h.ListCategories)
	r.Get("/categories/{slug}", h.CategoryBySlug)
	r.Get("/products", h.ListProducts)
	r.Get("/products/featured", h.FeaturedProducts)
	r.Get("/products/{slug}", h.ProductBySlug)

	// catalog (админ)
	r.With(authed, admin).Post("/products", h.CreateProduct)
	r.With(authed, admin).Put("/products/{slug}", h.UpdateProduct)
	r.With(authed, admin).Delete("/products/{slug}", h.DeleteProduct)

	// cart
	r.With(authed).Get("/cart", h.Cart)
	r.With(authed).Post("/cart/items", h.AddCartItem)
	r.With(authed).Patch("/cart/items/{id}", h.UpdateCartItem)
	r.With(authed).Delete("/cart/items/{id}", h.RemoveCartItem)
	r.With(authed).Delete("/cart", h.ClearCart)

	// orders
	r.With(authed).Post("/orders", h.Checkout)
	r.With(authed).Get("/orders", h.ListOrders)
	r.With(authed).Get("/orders/{id}", h.OrderByID)
	r.With(authed).Post("/orders/{id}/cancel", h.CancelOrder)
	r.With(authed, admin).Post("/orders/{id}/status", h.UpdateOrderStatus)
}
