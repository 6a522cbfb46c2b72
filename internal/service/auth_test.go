package service

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/go-storefront/internal/config"
	"github.com/pribylovaa/go-storefront/internal/models"
	"github.com/pribylovaa/go-storefront/internal/storage"
	"github.com/pribylovaa/go-storefront/mocks"
)

func testCfg() config.AuthConfig {
	return config.AuthConfig{
		JWTSecret:       "unit-secret",
		AccessTokenTTL:  30 * time.Second,
		RefreshTokenTTL: 24 * time.Hour,
		Issuer:          "storefront",
		Audience:        "storefront-web",
	}
}

func testCatalogCfg() config.CatalogConfig {
	return config.CatalogConfig{
		PageSize:    12,
		MaxPageSize: 100,
	}
}

func newSvc(t *testing.T) (*Service, *mocks.MockStorage, *gomock.Controller) {
	t.Helper()
	ctrl := gomock.NewController(t)
	st := mocks.NewMockStorage(ctrl)
	svc := New(st, testCfg(), testCatalogCfg())
	return svc, st, ctrl
}

func mustHashPW(t *testing.T, pw string) string {
	t.Helper()
	h, err := hashPassword(pw)
	require.NoError(t, err)
	return h
}

func hashPlain(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

func TestRegisterUser_OK(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	ctx := context.Background()
	norm := "user@example.com"

	// Сначала UserByEmail → ErrNotFound, потом SaveUser, потом SaveRefreshToken.
	st.EXPECT().UserByEmail(gomock.Any(), norm).Return(nil, storage.ErrNotFound)
	st.EXPECT().SaveUser(gomock.Any(), gomock.Any()).Return(nil)
	st.EXPECT().SaveRefreshToken(gomock.Any(), gomock.Any()).Return(nil)

	tp, user, err := svc.RegisterUser(ctx, RegisterInput{
		Email:     "User@Example.com",
		Password:  "Abcdef1!",
		FirstName: " Ann ",
		LastName:  "Lee",
	})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, user.ID)
	require.Equal(t, norm, user.Email)
	require.Equal(t, "Ann", user.FirstName)
	require.NotEmpty(t, tp.AccessToken)
	require.NotEmpty(t, tp.RefreshToken)

	require.WithinDuration(t, time.Now().Add(svc.auth.AccessTokenTTL), tp.AccessExpiresAt, 2*time.Second)
}

func TestRegisterUser_InvalidEmail(t *testing.T) {
	t.Parallel()

	svc, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	_, _, err := svc.RegisterUser(context.Background(), RegisterInput{Email: "not-an-email", Password: "Abcdef1!"})
	require.Error(t, err)
	require.ErrorIs(t, err, ErrInvalidArgument)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Fields, "email")
}

func TestRegisterUser_WeakOrEmptyPassword(t *testing.T) {
	t.Parallel()

	svc, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	_, _, err := svc.RegisterUser(context.Background(), RegisterInput{Email: "u@e.com", Password: ""})
	require.Error(t, err)
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, _, err = svc.RegisterUser(context.Background(), RegisterInput{Email: "u@e.com", Password: "short"})
	require.Error(t, err)
	require.ErrorIs(t, err, ErrInvalidArgument)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Fields, "password")
}

func TestRegisterUser_EmailAlreadyExists_OnLookup(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	// Если UserByEmail вернул пользователя (err == nil) - считается занятым email.
	st.EXPECT().UserByEmail(gomock.Any(), "user@example.com").
		Return(&models.User{ID: uuid.New(), Email: "user@example.com"}, nil)

	_, _, err := svc.RegisterUser(context.Background(), RegisterInput{Email: "user@example.com", Password: "Abcdef1!"})
	require.Error(t, err)
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestRegisterUser_SaveUserAlreadyExists_MapsToEmailTaken(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	st.EXPECT().UserByEmail(gomock.Any(), "user@example.com").
		Return(nil, storage.ErrNotFound)
	st.EXPECT().SaveUser(gomock.Any(), gomock.Any()).
		Return(storage.ErrAlreadyExists)

	_, _, err := svc.RegisterUser(context.Background(), RegisterInput{Email: "user@example.com", Password: "Abcdef1!"})
	require.Error(t, err)
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestRegisterUser_StorageLookupError_Propagated(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	st.EXPECT().UserByEmail(gomock.Any(), "user@example.com").
		Return(nil, errors.New("db down"))

	_, _, err := svc.RegisterUser(context.Background(), RegisterInput{Email: "user@example.com", Password: "Abcdef1!"})
	require.Error(t, err)
}

func TestLoginUser_OK(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	ctx := context.Background()
	email := "user@example.com"
	pw := "Abcdef1!"
	user := &models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: mustHashPW(t, pw),
	}

	st.EXPECT().UserByEmail(gomock.Any(), email).Return(user, nil)
	st.EXPECT().SaveRefreshToken(gomock.Any(), gomock.Any()).Return(nil)

	tp, got, err := svc.LoginUser(ctx, email, pw)
	require.NoError(t, err)
	require.Equal(t, user.ID, got.ID)
	require.NotEmpty(t, tp.AccessToken)
	require.NotEmpty(t, tp.RefreshToken)
}

func TestLoginUser_InvalidEmail_OrEmptyPassword(t *testing.T) {
	t.Parallel()

	svc, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	_, _, err := svc.LoginUser(context.Background(), "bad", "Abcdef1!")
	require.Error(t, err)
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.LoginUser(context.Background(), "user@example.com", "")
	require.Error(t, err)
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginUser_UserNotFound_OrWrongPassword(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	st.EXPECT().UserByEmail(gomock.Any(), "user@example.com").
		Return(nil, storage.ErrNotFound)

	_, _, err := svc.LoginUser(context.Background(), "user@example.com", "Abcdef1!")
	require.Error(t, err)
	require.ErrorIs(t, err, ErrInvalidCredentials)

	// wrong password
	user := &models.User{ID: uuid.New(), Email: "user@example.com", PasswordHash: mustHashPW(t, "Abcdef1!")}
	st.EXPECT().UserByEmail(gomock.Any(), "user@example.com").
		Return(user, nil)

	_, _, err = svc.LoginUser(context.Background(), "user@example.com", "WRONG1!")
	require.Error(t, err)
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefreshAccessToken_OK_NoRotation(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	ctx := context.Background()
	userID := uuid.New()
	user := &models.User{ID: userID, Email: "user@example.com", PasswordHash: "hash"}

	plain := "some-refresh-plain"
	hash := hashPlain(plain)

	st.EXPECT().RefreshTokenByHash(gomock.Any(), hash).Return(&models.RefreshToken{
		RefreshTokenHash: hash,
		UserID:           userID,
		CreatedAt:        time.Now().Add(-time.Hour),
		ExpiresAt:        time.Now().Add(time.Hour),
		Revoked:          false,
	}, nil)

	st.EXPECT().UserByID(gomock.Any(), userID).Return(user, nil)

	tp, err := svc.RefreshAccessToken(ctx, plain)
	require.NoError(t, err)
	require.NotEmpty(t, tp.AccessToken)
	// refresh-токен не ротируется: клиент получает обратно тот же секрет.
	require.Equal(t, plain, tp.RefreshToken)
}

func TestRefreshAccessToken_UnknownExpiredRevoked(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	ctx := context.Background()

	st.EXPECT().RefreshTokenByHash(gomock.Any(), hashPlain("unknown")).
		Return(nil, storage.ErrNotFound)
	_, err := svc.RefreshAccessToken(ctx, "unknown")
	require.ErrorIs(t, err, ErrInvalidToken)

	st.EXPECT().RefreshTokenByHash(gomock.Any(), hashPlain("expired")).
		Return(&models.RefreshToken{
			UserID:    uuid.New(),
			ExpiresAt: time.Now().Add(-time.Minute),
		}, nil)
	_, err = svc.RefreshAccessToken(ctx, "expired")
	require.ErrorIs(t, err, ErrTokenExpired)

	st.EXPECT().RefreshTokenByHash(gomock.Any(), hashPlain("revoked")).
		Return(&models.RefreshToken{
			UserID:    uuid.New(),
			ExpiresAt: time.Now().Add(time.Hour),
			Revoked:   true,
		}, nil)
	_, err = svc.RefreshAccessToken(ctx, "revoked")
	require.ErrorIs(t, err, ErrTokenRevoked)
}

func TestRefreshAccessToken_UserGone_MapsToInvalidToken(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	userID := uuid.New()
	plain := "orphan-refresh"

	st.EXPECT().RefreshTokenByHash(gomock.Any(), hashPlain(plain)).Return(&models.RefreshToken{
		RefreshTokenHash: hashPlain(plain),
		UserID:           userID,
		ExpiresAt:        time.Now().Add(time.Hour),
	}, nil)
	st.EXPECT().UserByID(gomock.Any(), userID).Return(nil, storage.ErrNotFound)

	_, err := svc.RefreshAccessToken(context.Background(), plain)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestLogout_Idempotent(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	ctx := context.Background()
	plain := "refresh-plain"
	hash := hashPlain(plain)

	// Активный токен отозван сейчас.
	st.EXPECT().RevokeRefreshTokenIfActive(gomock.Any(), hash).Return(true, nil)
	require.NoError(t, svc.Logout(ctx, plain))

	// Уже отозван — тоже успех.
	st.EXPECT().RevokeRefreshTokenIfActive(gomock.Any(), hash).Return(false, nil)
	require.NoError(t, svc.Logout(ctx, plain))

	// Незнакомый токен — тоже успех.
	st.EXPECT().RevokeRefreshTokenIfActive(gomock.Any(), hash).Return(false, storage.ErrNotFound)
	require.NoError(t, svc.Logout(ctx, plain))
}

func TestLogout_StorageError_Propagated(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	st.EXPECT().RevokeRefreshTokenIfActive(gomock.Any(), gomock.Any()).
		Return(false, errors.New("db down"))

	err := svc.Logout(context.Background(), "refresh-plain")
	require.Error(t, err)
}
