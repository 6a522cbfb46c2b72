// Package client — типизированный Go-клиент витрины: хранение токенов,
// прозрачное обновление access-токена, загрузка сессии при старте
// и фасад аутентификации.
//
// Все зависимости передаются явно через конструкторы — никакого
// глобального состояния на уровне пакета.
package client

import (
	"fmt"
	"sync"
)

// TokenStore — долговременный слот для refresh-токена.
// Отсутствие записи — валидное состояние (анонимный посетитель).
type TokenStore interface {
	SaveRefreshToken(token string) error
	// LoadRefreshToken возвращает пустую строку, если слот пуст.
	LoadRefreshToken() (string, error)
	ClearRefreshToken() error
}

// Tokens — единственный владелец пары токенов внутри процесса.
//
// Access-токен живёт только в памяти и теряется при перезапуске.
// Refresh-токен зеркалируется в долговременный слот, чтобы пережить
// перезапуск. Все операции потокобезопасны.
type Tokens struct {
	mu      sync.RWMutex
	access  string
	refresh string

	store TokenStore // nil — refresh живёт только в памяти
}

// NewTokens создает хранилище токенов поверх долговременного слота.
// store может быть nil — тогда сессия не переживает перезапуск.
func NewTokens(store TokenStore) *Tokens {
	return &Tokens{store: store}
}

// SetTokens сохраняет оба токена и зеркалирует refresh в долговременный слот.
func (t *Tokens) SetTokens(access, refresh string) error {
	const op = "client.tokens.SetTokens"

	t.mu.Lock()
	t.access = access
	t.refresh = refresh
	t.mu.Unlock()

	if t.store != nil {
		if err := t.store.SaveRefreshToken(refresh); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	return nil
}

// SetAccessToken заменяет только access-токен (после refresh-обмена);
// refresh-токен остаётся прежним.
func (t *Tokens) SetAccessToken(access string) {
	t.mu.Lock()
	t.access = access
	t.mu.Unlock()
}

// AccessToken возвращает текущий access-токен, если он есть.
func (t *Tokens) AccessToken() (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.access, t.access != ""
}

// RefreshToken возвращает текущий refresh-токен, если он есть.
func (t *Tokens) RefreshToken() (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.refresh, t.refresh != ""
}

// ClearTokens обнуляет оба токена и чистит долговременный слот.
// Идемпотентна: повторный вызов — no-op.
func (t *Tokens) ClearTokens() error {
	const op = "client.tokens.ClearTokens"

	t.mu.Lock()
	t.access = ""
	t.refresh = ""
	t.mu.Unlock()

	if t.store != nil {
		if err := t.store.ClearRefreshToken(); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	return nil
}

// LoadStoredRefreshToken читает refresh-токен из долговременного слота в память.
// Возвращает false, если слот пуст. Вызывается один раз при старте.
func (t *Tokens) LoadStoredRefreshToken() (bool, error) {
	const op = "client.tokens.LoadStoredRefreshToken"

	if t.store == nil {
		return false, nil
	}

	refresh, err := t.store.LoadRefreshToken()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if refresh == "" {
		return false, nil
	}

	t.mu.Lock()
	t.refresh = refresh
	t.mu.Unlock()

	return true, nil
}
