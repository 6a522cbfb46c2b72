package client

import (
	"context"
	"sync"
)

// SessionState — состояние сессии на клиенте.
//
// Машина состояний: Idle -> Loading -> {Authenticated, Anonymous}.
type SessionState int

const (
	SessionIdle SessionState = iota
	SessionLoading
	SessionAuthenticated
	SessionAnonymous
)

// String реализует fmt.Stringer.
func (s SessionState) String() string {
	switch s {
	case SessionIdle:
		return "idle"
	case SessionLoading:
		return "loading"
	case SessionAuthenticated:
		return "authenticated"
	case SessionAnonymous:
		return "anonymous"
	default:
		return "unknown"
	}
}

// Session — представление клиента о текущем пользователе.
// «Аутентифицирован» тогда и только тогда, когда профиль не nil.
type Session struct {
	mu    sync.RWMutex
	state SessionState
	user  *User
}

func newSession() *Session {
	return &Session{state: SessionIdle}
}

// State возвращает текущее состояние.
func (s *Session) State() SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.state
}

// Loading — true, пока загрузка сессии не завершилась.
// Route guard-ы по этому флагу не редиректят преждевременно.
func (s *Session) Loading() bool {
	st := s.State()
	return st == SessionIdle || st == SessionLoading
}

// User возвращает профиль активной сессии.
func (s *Session) User() (*User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.user, s.user != nil
}

func (s *Session) setLoading() {
	s.mu.Lock()
	s.state = SessionLoading
	s.user = nil
	s.mu.Unlock()
}

func (s *Session) setAuthenticated(user *User) {
	s.mu.Lock()
	s.state = SessionAuthenticated
	s.user = user
	s.mu.Unlock()
}

func (s *Session) setAnonymous() {
	s.mu.Lock()
	s.state = SessionAnonymous
	s.user = nil
	s.mu.Unlock()
}

// Bootstrap превращает долговременное состояние в живую сессию при старте.
//
// Нет сохранённого refresh-токена — Anonymous без единого сетевого вызова.
// Токен есть — refresh-обмен и затем загрузка профиля; отказ любого шага
// очищает токены и даёт Anonymous. Ошибки не возвращаются: итог загрузки —
// всегда одно из двух терминальных состояний.
func (c *Client) Bootstrap(ctx context.Context) SessionState {
	c.session.setLoading()

	ok, err := c.tokens.LoadStoredRefreshToken()
	if err != nil {
		c.log.Warn("session_bootstrap_load_failed", "err", err.Error())
		c.session.setAnonymous()
		return SessionAnonymous
	}
	if !ok {
		c.session.setAnonymous()
		return SessionAnonymous
	}

	refresh, _ := c.tokens.RefreshToken()
	access, err := c.exchangeRefresh(ctx, refresh)
	if err != nil {
		c.log.Debug("session_bootstrap_refresh_rejected", "err", err.Error())
		_ = c.tokens.ClearTokens()
		c.session.setAnonymous()
		return SessionAnonymous
	}
	c.tokens.SetAccessToken(access)

	user, err := c.fetchProfile(ctx)
	if err != nil {
		c.log.Debug("session_bootstrap_profile_failed", "err", err.Error())
		_ = c.tokens.ClearTokens()
		c.session.setAnonymous()
		return SessionAnonymous
	}

	c.session.setAuthenticated(user)
	return SessionAuthenticated
}
