package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// authBackend — сервер аутентификации для тестов фасада и загрузки сессии.
type authBackend struct {
	mu sync.Mutex

	email    string
	password string

	accessToken  string
	refreshToken string

	profile User

	// заглушки отказов.
	refreshFails bool
	profileFails bool
	logoutFails  bool

	refreshCalls int
	profileCalls int
	logoutCalls  int
	totalCalls   int
}

func (b *authBackend) handler() http.Handler {
	mux := http.NewServeMux()

	count := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			b.mu.Lock()
			b.totalCalls++
			b.mu.Unlock()
			next(w, r)
		}
	}

	authOK := func() map[string]any {
		_, _, _, profile := b.view()
		return map[string]any{
			"access_token":  b.accessToken,
			"refresh_token": b.refreshToken,
			"user":          profile,
		}
	}

	mux.HandleFunc("/auth/login", count(func(w http.ResponseWriter, r *http.Request) {
		var in struct{ Email, Password string }
		_ = json.NewDecoder(r.Body).Decode(&in)
		if in.Email != b.email || in.Password != b.password {
			writeTestError(w, http.StatusUnauthorized, "invalid_credentials")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(authOK())
	}))

	mux.HandleFunc("/auth/register", count(func(w http.ResponseWriter, r *http.Request) {
		var in RegisterInput
		_ = json.NewDecoder(r.Body).Decode(&in)
		if in.Email == "taken@example.com" {
			writeTestError(w, http.StatusConflict, "email_taken")
			return
		}
		if in.Password == "short" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]any{
					"code":    "invalid_argument",
					"message": "validation failed",
					"fields":  map[string][]string{"password": {"too short"}},
				},
			})
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(authOK())
	}))

	mux.HandleFunc("/auth/refresh", count(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.refreshCalls++
		b.mu.Unlock()

		var in struct {
			RefreshToken string `json:"refresh_token"`
		}
		_ = json.NewDecoder(r.Body).Decode(&in)
		refreshFails, _, _, _ := b.view()
		if refreshFails || in.RefreshToken != b.refreshToken {
			writeTestError(w, http.StatusUnauthorized, "unauthenticated")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": b.accessToken})
	}))

	mux.HandleFunc("/auth/logout", count(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.logoutCalls++
		b.mu.Unlock()

		_, _, logoutFails, _ := b.view()
		if logoutFails {
			writeTestError(w, http.StatusInternalServerError, "internal")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	mux.HandleFunc("/auth/profile", count(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.profileCalls++
		b.mu.Unlock()

		_, profileFails, _, profile := b.view()
		if profileFails || r.Header.Get("Authorization") != "Bearer "+b.accessToken {
			writeTestError(w, http.StatusUnauthorized, "unauthenticated")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(profile)
	}))

	return mux
}

// view — чтение изменяемых полей под мьютексом (ради -race).
func (b *authBackend) view() (refreshFails, profileFails, logoutFails bool, profile User) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.refreshFails, b.profileFails, b.logoutFails, b.profile
}

func (b *authBackend) setFailures(refresh, profile, logout bool) {
	b.mu.Lock()
	b.refreshFails = refresh
	b.profileFails = profile
	b.logoutFails = logout
	b.mu.Unlock()
}

// counters — счётчики вызовов под мьютексом.
func (b *authBackend) counters() (refreshCalls, profileCalls, logoutCalls, totalCalls int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.refreshCalls, b.profileCalls, b.logoutCalls, b.totalCalls
}

func defaultAuthBackend() *authBackend {
	return &authBackend{
		email:        "a@b.com",
		password:     "x",
		accessToken:  "acc-1",
		refreshToken: "ref-1",
		profile:      User{ID: "u-1", Email: "a@b.com", FirstName: "Ann"},
	}
}

func newAuthClient(t *testing.T, backend *authBackend, store TokenStore) *Client {
	t.Helper()

	srv := httptest.NewServer(backend.handler())
	t.Cleanup(srv.Close)

	if store == nil {
		store = &memStore{}
	}
	c, err := New(Options{BaseURL: srv.URL, Store: store})
	require.NoError(t, err)

	return c
}

func TestLogin_OK_StoresTokensAndSession(t *testing.T) {
	backend := defaultAuthBackend()
	store := &memStore{}
	c := newAuthClient(t, backend, store)

	user, err := c.Login(context.Background(), "a@b.com", "x")
	require.NoError(t, err)
	require.Equal(t, "a@b.com", user.Email)

	require.Equal(t, SessionAuthenticated, c.Session().State())

	access, _ := c.Tokens().AccessToken()
	require.Equal(t, "acc-1", access)

	stored, err := store.LoadRefreshToken()
	require.NoError(t, err)
	require.Equal(t, "ref-1", stored)
}

func TestLogin_InvalidCredentials_SessionUntouched(t *testing.T) {
	backend := defaultAuthBackend()
	c := newAuthClient(t, backend, nil)

	_, err := c.Login(context.Background(), "a@b.com", "wrong")
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	require.Equal(t, "invalid_credentials", apiErr.Code)

	require.Equal(t, SessionIdle, c.Session().State())
	_, ok := c.Tokens().AccessToken()
	require.False(t, ok)
}

func TestRegister_OK_AutoAuthenticates(t *testing.T) {
	backend := defaultAuthBackend()
	c := newAuthClient(t, backend, nil)

	user, err := c.Register(context.Background(), RegisterInput{
		Email:    "new@example.com",
		Password: "Abcdef1!",
	})
	require.NoError(t, err)
	require.NotNil(t, user)
	require.Equal(t, SessionAuthenticated, c.Session().State())
}

func TestRegister_ValidationFields(t *testing.T) {
	backend := defaultAuthBackend()
	c := newAuthClient(t, backend, nil)

	_, err := c.Register(context.Background(), RegisterInput{
		Email:    "new@example.com",
		Password: "short",
	})
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	require.Contains(t, apiErr.Fields, "password")
}

func TestLogout_ClearsLocalState_EvenOnServerFailure(t *testing.T) {
	for _, serverFails := range []bool{false, true} {
		backend := defaultAuthBackend()
		backend.logoutFails = serverFails
		store := &memStore{}
		c := newAuthClient(t, backend, store)

		_, err := c.Login(context.Background(), "a@b.com", "x")
		require.NoError(t, err)

		c.Logout(context.Background())

		_, _, logoutCalls, _ := backend.counters()
		require.Equal(t, 1, logoutCalls)
		require.Equal(t, SessionAnonymous, c.Session().State())

		_, ok := c.Tokens().AccessToken()
		require.False(t, ok)
		_, ok = c.Tokens().RefreshToken()
		require.False(t, ok)

		stored, err := store.LoadRefreshToken()
		require.NoError(t, err)
		require.Empty(t, stored, "durable slot must be cleared (serverFails=%v)", serverFails)
	}
}

func TestLogout_WithoutSession_NoServerCall(t *testing.T) {
	backend := defaultAuthBackend()
	c := newAuthClient(t, backend, nil)

	c.Logout(context.Background())

	_, _, logoutCalls, _ := backend.counters()
	require.Equal(t, 0, logoutCalls)
	require.Equal(t, SessionAnonymous, c.Session().State())
}

func TestRefreshUser_ReplacesProfile(t *testing.T) {
	backend := defaultAuthBackend()
	c := newAuthClient(t, backend, nil)

	_, err := c.Login(context.Background(), "a@b.com", "x")
	require.NoError(t, err)

	backend.mu.Lock()
	backend.profile.FirstName = "Renamed"
	backend.mu.Unlock()

	user, err := c.RefreshUser(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Renamed", user.FirstName)

	held, ok := c.Session().User()
	require.True(t, ok)
	require.Equal(t, "Renamed", held.FirstName)
}

func TestRefreshUser_Failure_NotSessionEnding(t *testing.T) {
	backend := defaultAuthBackend()
	c := newAuthClient(t, backend, nil)

	_, err := c.Login(context.Background(), "a@b.com", "x")
	require.NoError(t, err)

	backend.setFailures(true, true, false)

	_, err = c.RefreshUser(context.Background())
	require.Error(t, err)

	// Ошибка отдана вызывающему; сессию она не завершает.
	require.Equal(t, SessionAuthenticated, c.Session().State())
}
