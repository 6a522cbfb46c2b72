package middleware

import (
	"context"

	"github.com/google/uuid"
)

type ctxKey int

const (
	ctxRequestID ctxKey = iota
	ctxAuthToken
	ctxIdentity
)

// Identity — аутентифицированный пользователь запроса.
type Identity struct {
	UserID  uuid.UUID
	Email   string
	IsAdmin bool
}

// RequestIDFrom возвращает request id из контекста, если он там есть.
func RequestIDFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ctxRequestID).(string)
	return id, ok
}

// AuthTokenFrom возвращает сырой Bearer-токен из контекста, если он там есть.
func AuthTokenFrom(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(ctxAuthToken).(string)
	return token, ok
}

// IdentityFrom возвращает аутентифицированного пользователя из контекста.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxIdentity).(Identity)
	return id, ok
}
