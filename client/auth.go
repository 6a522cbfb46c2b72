package client

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// User — профиль пользователя, как его отдаёт API.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
}

// RegisterInput — поля регистрации.
type RegisterInput struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

type authPayload struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	User         User   `json:"user"`
}

// установка сессии после login/register.
func (c *Client) adoptSession(p *authPayload) error {
	if err := c.tokens.SetTokens(p.AccessToken, p.RefreshToken); err != nil {
		return err
	}
	user := p.User
	c.session.setAuthenticated(&user)

	return nil
}

// Login аутентифицирует пользователя и делает сессию активной.
// Отказ сервера (неверные учётные данные) возвращается как *APIError
// без изменения состояния сессии.
func (c *Client) Login(ctx context.Context, email, password string) (*User, error) {
	const op = "client.auth.Login"

	in := map[string]string{"email": email, "password": password}
	var out authPayload

	if err := c.doJSON(ctx, c.raw, http.MethodPost, "/auth/login", in, &out, http.StatusOK); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := c.adoptSession(&out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	user, _ := c.session.User()
	return user, nil
}

// Register создает пользователя; сервер сразу аутентифицирует его,
// поэтому контракт совпадает с Login. Ошибки валидации приходят
// в *APIError.Fields по именам полей.
func (c *Client) Register(ctx context.Context, in RegisterInput) (*User, error) {
	const op = "client.auth.Register"

	var out authPayload
	if err := c.doJSON(ctx, c.raw, http.MethodPost, "/auth/register", in, &out, http.StatusCreated); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := c.adoptSession(&out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	user, _ := c.session.User()
	return user, nil
}

// Logout завершает сессию. Серверный вызов (денилист refresh-токена) —
// best-effort: локальное состояние очищается безусловно, сетевые ошибки
// не блокируют выход.
func (c *Client) Logout(ctx context.Context) {
	if refresh, ok := c.tokens.RefreshToken(); ok {
		in := map[string]string{"refresh_token": refresh}
		if err := c.doJSON(ctx, c.raw, http.MethodPost, "/auth/logout", in, nil, http.StatusNoContent); err != nil {
			c.log.Warn("logout_server_call_failed", "err", err.Error())
		}
	}

	if err := c.tokens.ClearTokens(); err != nil {
		c.log.Warn("logout_clear_tokens_failed", "err", err.Error())
	}
	c.session.setAnonymous()
}

// fetchProfile загружает профиль через pipeline-клиента.
func (c *Client) fetchProfile(ctx context.Context) (*User, error) {
	const op = "client.auth.fetchProfile"

	var out User
	if err := c.doJSON(ctx, c.httpc, http.MethodGet, "/auth/profile", nil, &out, http.StatusOK); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &out, nil
}

// RefreshUser перечитывает профиль активной сессии (например, после
// правки профиля из другого места). Ошибка возвращается вызывающему
// и не завершает сессию.
func (c *Client) RefreshUser(ctx context.Context) (*User, error) {
	const op = "client.auth.RefreshUser"

	user, err := c.fetchProfile(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	c.session.mu.Lock()
	if c.session.state == SessionAuthenticated {
		c.session.user = user
	}
	c.session.mu.Unlock()

	return user, nil
}

// UpdateProfileInput — изменяемые поля профиля; nil — поле не трогаем.
type UpdateProfileInput struct {
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
}

// UpdateProfile правит профиль и обновляет его в сессии.
func (c *Client) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*User, error) {
	const op = "client.auth.UpdateProfile"

	var out User
	if err := c.doJSON(ctx, c.httpc, http.MethodPatch, "/auth/profile", in, &out, http.StatusOK); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	c.session.mu.Lock()
	if c.session.state == SessionAuthenticated {
		c.session.user = &out
	}
	c.session.mu.Unlock()

	return &out, nil
}
