package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/go-storefront/internal/models"
	"github.com/pribylovaa/go-storefront/internal/storage"
)

// Интеграционные тесты репозитория refresh_tokens.go:
// сохранение/поиск по хэшу, трёхзначная семантика RevokeRefreshTokenIfActive
// и удаление просроченных токенов.

func seedRefreshToken(t *testing.T, st *Storage, hash string, expiresAt time.Time) *models.RefreshToken {
	t.Helper()

	u := seedUser(t, st, hash+"@example.com")
	tok := &models.RefreshToken{
		RefreshTokenHash: hash,
		UserID:           u.ID,
		CreatedAt:        time.Now().UTC(),
		ExpiresAt:        expiresAt,
	}
	require.NoError(t, st.SaveRefreshToken(context.Background(), tok))
	return tok
}

// TestIntegration_SaveRefreshToken_And_GetByHash_OK — happy-path сохранения и поиска.
func TestIntegration_SaveRefreshToken_And_GetByHash_OK(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	exp := time.Now().UTC().Add(time.Hour)
	tok := seedRefreshToken(t, st, "hash-1", exp)

	got, err := st.RefreshTokenByHash(context.Background(), tok.RefreshTokenHash)
	require.NoError(t, err)
	require.Equal(t, tok.UserID, got.UserID)
	require.False(t, got.Revoked)
	require.WithinDuration(t, exp, got.ExpiresAt, time.Second)
}

// TestIntegration_SaveRefreshToken_DuplicateHash — повторная вставка того же хэша,
// ожидаем storage.ErrAlreadyExists.
func TestIntegration_SaveRefreshToken_DuplicateHash(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	tok := seedRefreshToken(t, st, "hash-dup", time.Now().UTC().Add(time.Hour))

	dup := &models.RefreshToken{
		RefreshTokenHash: tok.RefreshTokenHash,
		UserID:           tok.UserID,
		CreatedAt:        time.Now().UTC(),
		ExpiresAt:        tok.ExpiresAt,
	}
	err := st.SaveRefreshToken(context.Background(), dup)
	require.Error(t, err)
	require.ErrorIs(t, err, storage.ErrAlreadyExists)
}

// TestIntegration_RefreshTokenByHash_NotFound — поиск неизвестного хэша,
// ожидаем storage.ErrNotFound.
func TestIntegration_RefreshTokenByHash_NotFound(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	_, err := st.RefreshTokenByHash(context.Background(), "absent")
	require.Error(t, err)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

// TestIntegration_RevokeRefreshTokenIfActive_Semantics — три исхода:
// (true, nil) для активного токена, (false, nil) для уже отозванного,
// (false, ErrNotFound) для неизвестного хэша.
func TestIntegration_RevokeRefreshTokenIfActive_Semantics(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	tok := seedRefreshToken(t, st, "hash-revoke", time.Now().UTC().Add(time.Hour))

	revoked, err := st.RevokeRefreshTokenIfActive(context.Background(), tok.RefreshTokenHash)
	require.NoError(t, err)
	require.True(t, revoked)

	// Повторный отзыв: токен существует, но уже отозван.
	revoked, err = st.RevokeRefreshTokenIfActive(context.Background(), tok.RefreshTokenHash)
	require.NoError(t, err)
	require.False(t, revoked)

	got, err := st.RefreshTokenByHash(context.Background(), tok.RefreshTokenHash)
	require.NoError(t, err)
	require.True(t, got.Revoked)

	_, err = st.RevokeRefreshTokenIfActive(context.Background(), "absent")
	require.Error(t, err)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

// TestIntegration_DeleteExpiredTokens — удаляются только токены с expires_at <= now.
func TestIntegration_DeleteExpiredTokens(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	now := time.Now().UTC()
	expired := seedRefreshToken(t, st, "hash-expired", now.Add(-time.Hour))
	active := seedRefreshToken(t, st, "hash-active", now.Add(time.Hour))

	require.NoError(t, st.DeleteExpiredTokens(context.Background(), now))

	_, err := st.RefreshTokenByHash(context.Background(), expired.RefreshTokenHash)
	require.ErrorIs(t, err, storage.ErrNotFound)

	_, err = st.RefreshTokenByHash(context.Background(), active.RefreshTokenHash)
	require.NoError(t, err)
}
