package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const defaultTimeout = 30 * time.Second

// Options — параметры сборки клиента.
type Options struct {
	// BaseURL — корень API, например "https://shop.example.com/api".
	BaseURL string
	// Store — долговременный слот refresh-токена; nil — сессия
	// не переживает перезапуск процесса.
	Store TokenStore
	// HTTPClient — базовый HTTP-клиент; nil — клиент по умолчанию
	// с таймаутом defaultTimeout.
	HTTPClient *http.Client
	// Logger — nil означает slog.Default().
	Logger *slog.Logger
	// OnAuthExpired — хук «сессия умерла» (редирект на логин); может быть nil.
	OnAuthExpired func()
}

// Client — API-клиент витрины. Владеет токенами и состоянием сессии;
// все запросы защищённых эндпойнтов идут через Transport с прозрачным
// обновлением access-токена.
type Client struct {
	baseURL string
	log     *slog.Logger

	tokens  *Tokens
	session *Session

	// httpc — клиент с перехватом 401 (Transport).
	httpc *http.Client
	// raw — клиент в обход перехвата: refresh-обмен, логин, логаут.
	raw *http.Client
}

// New собирает клиента. Единственная обязательная опция — BaseURL.
func New(opts Options) (*Client, error) {
	const op = "client.client.New"

	if strings.TrimSpace(opts.BaseURL) == "" {
		return nil, fmt.Errorf("%s: base url is required", op)
	}

	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	raw := opts.HTTPClient
	if raw == nil {
		raw = &http.Client{Timeout: defaultTimeout}
	}

	c := &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		log:     log,
		tokens:  NewTokens(opts.Store),
		session: newSession(),
		raw:     raw,
	}

	c.httpc = &http.Client{
		Timeout: raw.Timeout,
		Transport: &Transport{
			Base:          raw.Transport,
			Tokens:        c.tokens,
			Refresh:       c.exchangeRefresh,
			OnAuthExpired: opts.OnAuthExpired,
		},
	}

	return c, nil
}

// Tokens возвращает владельца пары токенов.
func (c *Client) Tokens() *Tokens {
	return c.tokens
}

// Session возвращает состояние сессии (для route guard-ов).
func (c *Client) Session() *Session {
	return c.session
}

// HTTPClient возвращает клиента с перехватом 401 — через него ходят
// все доменные вызовы (каталог, корзина, заказы).
func (c *Client) HTTPClient() *http.Client {
	return c.httpc
}

// APIError — ошибка API в формате серверного конверта
// {"error":{"code","message","fields","request_id"}}.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Fields     map[string][]string
	RequestID  string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api: %s (%d %s)", e.Message, e.StatusCode, e.Code)
	}

	return fmt.Sprintf("api: %d %s", e.StatusCode, e.Code)
}

type errorEnvelope struct {
	Error struct {
		Code      string              `json:"code"`
		Message   string              `json:"message"`
		Fields    map[string][]string `json:"fields"`
		RequestID string              `json:"request_id"`
	} `json:"error"`
}

// apiErrorFromResponse вычитывает конверт ошибки; если тело не разбирается,
// возвращает APIError только со статусом.
func apiErrorFromResponse(resp *http.Response) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	var env errorEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err == nil {
		apiErr.Code = env.Error.Code
		apiErr.Message = env.Error.Message
		apiErr.Fields = env.Error.Fields
		apiErr.RequestID = env.Error.RequestID
	}

	return apiErr
}

// doJSON выполняет запрос через указанный HTTP-клиент: сериализует in (если есть),
// проверяет статус и десериализует ответ в out (если нужен).
func (c *Client) doJSON(ctx context.Context, httpc *http.Client, method, path string, in, out any, wantStatus int) error {
	const op = "client.client.doJSON"

	var body *bytes.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := httpc.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != wantStatus {
		return apiErrorFromResponse(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	return nil
}

// exchangeRefresh меняет refresh-токен на новый access-токен.
// Идёт через raw-клиента — в обход перехвата 401.
func (c *Client) exchangeRefresh(ctx context.Context, refreshToken string) (string, error) {
	const op = "client.client.exchangeRefresh"

	var out struct {
		AccessToken string `json:"access_token"`
	}
	in := map[string]string{"refresh_token": refreshToken}

	if err := c.doJSON(ctx, c.raw, http.MethodPost, "/auth/refresh", in, &out, http.StatusOK); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return out.AccessToken, nil
}
