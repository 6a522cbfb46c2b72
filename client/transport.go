package client

import (
	"context"
	"io"
	"net/http"
)

// RefreshFunc — обмен refresh-токена на новый access-токен.
// Должен выполняться в обход Transport, иначе отказ обмена
// зациклится на самом себе.
type RefreshFunc func(ctx context.Context, refreshToken string) (string, error)

// Transport — http.RoundTripper с прозрачным обновлением access-токена.
//
// Перед отправкой: если access-токен есть, запрос уходит с заголовком
// Authorization: Bearer. После ответа: только на 401 (403 проходит насквозь)
// выполняется один refresh-обмен и один повтор исходного запроса.
// Повтор ровно один — ретрай отправляется напрямую через базовый транспорт,
// без повторного перехвата. Конкурентные 401 не коалесцируются:
// каждый запрос делает собственный обмен.
//
// Если обмен провалился — токены очищаются, вызывается OnAuthExpired
// (редирект на логин), а вызывающему возвращается исходный 401.
type Transport struct {
	// Base — базовый транспорт; nil означает http.DefaultTransport.
	Base http.RoundTripper
	// Tokens — владелец пары токенов.
	Tokens *Tokens
	// Refresh — обмен refresh->access в обход этого транспорта.
	Refresh RefreshFunc
	// OnAuthExpired — хук «сессия умерла»; может быть nil.
	OnAuthExpired func()
}

var _ http.RoundTripper = (*Transport)(nil)

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}

	return http.DefaultTransport
}

// RoundTrip реализует http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	out := req.Clone(req.Context())
	if access, ok := t.Tokens.AccessToken(); ok {
		out.Header.Set("Authorization", "Bearer "+access)
	}

	resp, err := t.base().RoundTrip(out)
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		return resp, err
	}

	refresh, ok := t.Tokens.RefreshToken()
	if !ok {
		// Без refresh-токена отказ терминален.
		return resp, nil
	}

	// Тело запроса уже прочитано первой отправкой; без GetBody
	// повтор невозможен — отдаём исходный отказ.
	if req.Body != nil && req.GetBody == nil {
		return resp, nil
	}

	access, rerr := t.Refresh(req.Context(), refresh)
	if rerr != nil {
		_ = t.Tokens.ClearTokens()
		if t.OnAuthExpired != nil {
			t.OnAuthExpired()
		}

		return resp, nil
	}

	t.Tokens.SetAccessToken(access)

	// Исходный 401 больше не нужен.
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()

	retry := req.Clone(req.Context())
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		retry.Body = body
	}
	retry.Header.Set("Authorization", "Bearer "+access)

	return t.base().RoundTrip(retry)
}
