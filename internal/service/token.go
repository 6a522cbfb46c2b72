package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/pribylovaa/go-storefront/internal/cache"
	"github.com/pribylovaa/go-storefront/internal/models"
	"github.com/pribylovaa/go-storefront/internal/pkg/log"
	"github.com/pribylovaa/go-storefront/internal/storage"
)

// accessClaims — полезная нагрузка access-токена.
type accessClaims struct {
	UserID  string `json:"uid"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"adm"`
	jwt.RegisteredClaims
}

// generateAccessToken выпускает подписанный HS256 access-токен.
func (s *Service) generateAccessToken(_ context.Context, user *models.User, now time.Time) (string, error) {
	const op = "service.token.generateAccessToken"

	claims := accessClaims{
		UserID:  user.ID.String(),
		Email:   user.Email,
		IsAdmin: user.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.auth.Issuer,
			Audience:  jwt.ClaimStrings{s.auth.Audience},
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.auth.AccessTokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString([]byte(s.auth.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return signed, nil
}

// validateAccessToken проверяет подпись и claims access-токена.
func (s *Service) validateAccessToken(accessToken string) (uuid.UUID, string, bool, error) {
	const op = "service.token.validateAccessToken"

	var claims accessClaims

	token, err := jwt.ParseWithClaims(accessToken, &claims,
		func(t *jwt.Token) (interface{}, error) {
			return []byte(s.auth.JWTSecret), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(5*time.Second),
		jwt.WithIssuer(s.auth.Issuer),
		jwt.WithAudience(s.auth.Audience),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return uuid.Nil, "", false, fmt.Errorf("%s: %w", op, ErrTokenExpired)
		}

		return uuid.Nil, "", false, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	if !token.Valid {
		return uuid.Nil, "", false, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	uid, err := uuid.Parse(claims.UserID)
	if err != nil {
		return uuid.Nil, "", false, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	return uid, claims.Email, claims.IsAdmin, nil
}

// maxRefreshAttempts — лимит ретраев при коллизии хэша refresh-токена в БД.
const maxRefreshAttempts = 5

// generateRefreshToken выпускает новый refresh-токен: 32 случайных байта в
// base64url. В хранилище сохраняется только SHA-256 хэш; при (крайне редкой)
// коллизии хэша попытка повторяется с новым секретом.
func (s *Service) generateRefreshToken(ctx context.Context, userID uuid.UUID) (string, error) {
	const op = "service.token.generateRefreshToken"

	for attempt := 0; attempt < maxRefreshAttempts; attempt++ {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}

		plain := base64.RawURLEncoding.EncodeToString(buf)
		hash := hashRefreshToken(plain)

		now := time.Now().UTC()
		token := &models.RefreshToken{
			RefreshTokenHash: hash,
			UserID:           userID,
			CreatedAt:        now,
			ExpiresAt:        now.Add(s.auth.RefreshTokenTTL),
		}

		err := s.storage.SaveRefreshToken(ctx, token)
		if err != nil {
			if errors.Is(err, storage.ErrAlreadyExists) {
				continue
			}

			return "", fmt.Errorf("%s: %w", op, err)
		}

		if s.rcache != nil {
			entry := &cache.RefreshEntry{
				UserID:    userID,
				Revoked:   false,
				ExpiresAt: token.ExpiresAt,
			}
			if cerr := s.rcache.Set(ctx, hash, entry, s.auth.RefreshTokenTTL); cerr != nil {
				log.From(ctx).Warn("refresh_cache_set_failed", "err", cerr.Error())
			}
		}

		return plain, nil
	}

	return "", fmt.Errorf("%s: %w", op, ErrRefreshTokenCollision)
}

// validateRefreshToken проверяет refresh-токен: сперва быстрый путь через кэш,
// затем — источник истины (Postgres).
func (s *Service) validateRefreshToken(ctx context.Context, plain string) (*models.RefreshToken, error) {
	const op = "service.token.validateRefreshToken"

	if plain == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	hash := hashRefreshToken(plain)
	now := time.Now().UTC()

	if s.rcache != nil {
		entry, ok, err := s.rcache.Get(ctx, hash)
		if err != nil {
			log.From(ctx).Warn("refresh_cache_get_failed", "err", err.Error())
		} else if ok {
			switch {
			case entry.Revoked:
				return nil, fmt.Errorf("%s: %w", op, ErrTokenRevoked)
			case now.After(entry.ExpiresAt):
				return nil, fmt.Errorf("%s: %w", op, ErrTokenExpired)
			default:
				return &models.RefreshToken{
					RefreshTokenHash: hash,
					UserID:           entry.UserID,
					ExpiresAt:        entry.ExpiresAt,
				}, nil
			}
		}
	}

	token, err := s.storage.RefreshTokenByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if token.Revoked {
		return nil, fmt.Errorf("%s: %w", op, ErrTokenRevoked)
	}

	if now.After(token.ExpiresAt) {
		return nil, fmt.Errorf("%s: %w", op, ErrTokenExpired)
	}

	return token, nil
}
