package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/go-storefront/internal/models"
	"github.com/pribylovaa/go-storefront/internal/storage"
)

func TestGenerateAccessToken_AndValidate_OK(t *testing.T) {
	svc, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	ctx := context.Background()
	user := &models.User{ID: uuid.New(), Email: "user@example.com", IsAdmin: true}
	now := time.Now().UTC()

	at, err := svc.generateAccessToken(ctx, user, now)
	require.NoError(t, err)

	vUID, vEmail, vAdmin, err := svc.validateAccessToken(at)
	require.NoError(t, err)
	require.Equal(t, user.ID, vUID)
	require.Equal(t, user.Email, vEmail)
	require.True(t, vAdmin)
}

func TestValidateAccessToken_WrongAlg_WrongIssuer_WrongAudience(t *testing.T) {
	svc, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	secret := []byte(testCfg().JWTSecret)
	uid := uuid.New()
	now := time.Now().UTC()

	baseClaims := func() jwt.MapClaims {
		return jwt.MapClaims{
			"uid":   uid.String(),
			"email": "a@b.c",
			"iss":   testCfg().Issuer,
			"sub":   uid.String(),
			"aud":   testCfg().Audience,
			"exp":   now.Add(testCfg().AccessTokenTTL).Unix(),
			"iat":   now.Unix(),
		}
	}

	t.Run("wrong alg", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS512, baseClaims())
		signed, err := token.SignedString(secret)
		require.NoError(t, err)

		_, _, _, err = svc.validateAccessToken(signed)
		require.Error(t, err)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		claims := baseClaims()
		claims["iss"] = "another-issuer"
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
		signed, err := token.SignedString(secret)
		require.NoError(t, err)

		_, _, _, err = svc.validateAccessToken(signed)
		require.Error(t, err)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong audience", func(t *testing.T) {
		claims := baseClaims()
		claims["aud"] = "unexpected-aud"
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
		signed, err := token.SignedString(secret)
		require.NoError(t, err)

		_, _, _, err = svc.validateAccessToken(signed)
		require.Error(t, err)
		require.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestValidateAccessToken_Expired(t *testing.T) {
	svc, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	ctx := context.Background()
	user := &models.User{ID: uuid.New(), Email: "user@example.com"}

	// Выпускаем токен в прошлом — за пределами leeway.
	at, err := svc.generateAccessToken(ctx, user, time.Now().UTC().Add(-2*testCfg().AccessTokenTTL))
	require.NoError(t, err)

	_, _, _, err = svc.validateAccessToken(at)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrTokenExpired)
}

func TestValidateAccessToken_Garbage(t *testing.T) {
	svc, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	_, _, _, err := svc.validateAccessToken("not-a-jwt")
	require.Error(t, err)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestGenerateRefreshToken_SavesHash_NotPlain(t *testing.T) {
	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	ctx := context.Background()
	userID := uuid.New()

	var saved *models.RefreshToken
	st.EXPECT().SaveRefreshToken(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, tok *models.RefreshToken) error {
			saved = tok
			return nil
		})

	plain, err := svc.generateRefreshToken(ctx, userID)
	require.NoError(t, err)
	require.NotEmpty(t, plain)
	require.NotNil(t, saved)
	require.Equal(t, userID, saved.UserID)
	require.NotEqual(t, plain, saved.RefreshTokenHash)
	require.Equal(t, hashPlain(plain), saved.RefreshTokenHash)
	require.WithinDuration(t, time.Now().Add(testCfg().RefreshTokenTTL), saved.ExpiresAt, 2*time.Second)
}

func TestGenerateRefreshToken_RetriesOnCollision(t *testing.T) {
	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	ctx := context.Background()

	gomock.InOrder(
		st.EXPECT().SaveRefreshToken(gomock.Any(), gomock.Any()).Return(storage.ErrAlreadyExists),
		st.EXPECT().SaveRefreshToken(gomock.Any(), gomock.Any()).Return(nil),
	)

	plain, err := svc.generateRefreshToken(ctx, uuid.New())
	require.NoError(t, err)
	require.NotEmpty(t, plain)
}

func TestGenerateRefreshToken_CollisionExhausted(t *testing.T) {
	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	st.EXPECT().SaveRefreshToken(gomock.Any(), gomock.Any()).
		Return(storage.ErrAlreadyExists).
		Times(maxRefreshAttempts)

	_, err := svc.generateRefreshToken(context.Background(), uuid.New())
	require.Error(t, err)
	require.ErrorIs(t, err, ErrRefreshTokenCollision)
}

func TestValidateRefreshToken_EmptyPlain(t *testing.T) {
	svc, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	_, err := svc.validateRefreshToken(context.Background(), "")
	require.Error(t, err)
	require.ErrorIs(t, err, ErrInvalidToken)
}
