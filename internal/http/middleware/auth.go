package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	apierrors "github.com/pribylovaa/go-storefront/internal/errors"
	"github.com/pribylovaa/go-storefront/internal/service"
)

// TokenValidator проверяет access-токен и возвращает личность пользователя.
// Контракту удовлетворяет *service.Service.
type TokenValidator interface {
	ValidateAccessToken(ctx context.Context, accessToken string) (uuid.UUID, string, bool, error)
}

// AuthBearer извлекает Bearer-токен из Authorization и кладёт "сырой" токен
// в контекст. Токен не проверяется: публичные маршруты работают и без него.
func AuthBearer() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")

			if auth != "" {
				const prefix = "Bearer "
				if strings.HasPrefix(auth, prefix) && len(auth) > len(prefix) {
					token := strings.TrimSpace(auth[len(prefix):])

					if token != "" {
						ctx := context.WithValue(r.Context(), ctxAuthToken, token)
						r = r.WithContext(ctx)
					}
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Authenticate требует валидный access-токен: проверяет его через validator
// и кладёт Identity в контекст. Без токена или с невалидным токеном — 401.
func Authenticate(validator TokenValidator) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := AuthTokenFrom(r.Context())
			if !ok {
				apierrors.WriteError(w, r, service.ErrInvalidToken)
				return
			}

			uid, email, isAdmin, err := validator.ValidateAccessToken(r.Context(), token)
			if err != nil {
				apierrors.WriteError(w, r, err)
				return
			}

			ctx := context.WithValue(r.Context(), ctxIdentity, Identity{
				UserID:  uid,
				Email:   email,
				IsAdmin: isAdmin,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminOnly пропускает только администраторов. Ставится после Authenticate.
func AdminOnly() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFrom(r.Context())
			if !ok {
				apierrors.WriteError(w, r, service.ErrInvalidToken)
				return
			}

			if !id.IsAdmin {
				apierrors.WriteError(w, r, service.ErrPermissionDenied)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
