package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/iudanet/refkeeper/pkg/api"
)

var (
	// ErrNotAuthenticated сервер отклонил сессию (401 или редирект периметра на /login)
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrNotFound запрошенный ресурс не найден (404)
	ErrNotFound = errors.New("not found")

	// ErrRateLimited сервер ограничил частоту запросов (429)
	ErrRateLimited = errors.New("rate limited")

	// ErrNoSessionCookie сервер ответил 200 на логин, но не выставил cookie
	ErrNoSessionCookie = errors.New("server did not set session cookie")
)

// StatusError ответ сервера с кодом вне диапазона 2xx
type StatusError struct {
	Message    string
	StatusCode int
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("server error (%d): %s", e.StatusCode, e.Message)
}

// Is сопоставляет код ответа с sentinel ошибками пакета
func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrNotAuthenticated:
		return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusFound
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrRateLimited:
		return e.StatusCode == http.StatusTooManyRequests
	}
	return false
}

// Client представляет HTTP клиент для взаимодействия с сервером
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// NewClient создает новый API клиент
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			// Редирект периметра на /login означает отсутствие сессии, не переходим
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// SetToken задает токен сессии, который будет отправляться в cookie
func (c *Client) SetToken(token string) {
	c.token = token
}

// Signup регистрирует нового пользователя
func (c *Client) Signup(ctx context.Context, req api.SignupRequest) (*api.SignupResponse, error) {
	var resp api.SignupResponse
	if _, err := c.doRequest(ctx, http.MethodPost, "/auth/signup", req, &resp); err != nil {
		return nil, fmt.Errorf("signup request failed: %w", err)
	}
	return &resp, nil
}

// Login выполняет аутентификацию и возвращает токен из cookie сессии
func (c *Client) Login(ctx context.Context, req api.LoginRequest) (*api.LoginResponse, string, error) {
	var resp api.LoginResponse
	httpResp, err := c.doRequest(ctx, http.MethodPost, "/auth/login", req, &resp)
	if err != nil {
		return nil, "", fmt.Errorf("login request failed: %w", err)
	}

	for _, cookie := range httpResp.Cookies() {
		if cookie.Name == api.SessionCookie && cookie.Value != "" {
			c.token = cookie.Value
			return &resp, cookie.Value, nil
		}
	}

	return nil, "", ErrNoSessionCookie
}

// Logout завершает сессию на сервере (сервер очищает cookie)
func (c *Client) Logout(ctx context.Context) error {
	if _, err := c.doRequest(ctx, http.MethodPost, "/auth/logout", nil, nil); err != nil {
		return fmt.Errorf("logout request failed: %w", err)
	}
	c.token = ""
	return nil
}

// Profile возвращает данные текущего пользователя
func (c *Client) Profile(ctx context.Context) (*api.ProfileResponse, error) {
	var resp api.ProfileResponse
	if _, err := c.doRequest(ctx, http.MethodGet, "/profile", nil, &resp); err != nil {
		return nil, fmt.Errorf("profile request failed: %w", err)
	}
	return &resp, nil
}

// ListArticles возвращает все статьи пользователя
func (c *Client) ListArticles(ctx context.Context) ([]api.Article, error) {
	var resp []api.Article
	if _, err := c.doRequest(ctx, http.MethodGet, "/articles", nil, &resp); err != nil {
		return nil, fmt.Errorf("list articles request failed: %w", err)
	}
	return resp, nil
}

// GetArticle возвращает статью по идентификатору
func (c *Client) GetArticle(ctx context.Context, id string) (*api.Article, error) {
	var resp api.Article
	if _, err := c.doRequest(ctx, http.MethodGet, "/articles?"+idQuery(id), nil, &resp); err != nil {
		return nil, fmt.Errorf("get article request failed: %w", err)
	}
	return &resp, nil
}

// CreateArticle создает статью
func (c *Client) CreateArticle(ctx context.Context, req api.ArticleRequest) (*api.Article, error) {
	var resp api.Article
	if _, err := c.doRequest(ctx, http.MethodPost, "/articles", req, &resp); err != nil {
		return nil, fmt.Errorf("create article request failed: %w", err)
	}
	return &resp, nil
}

// UpdateArticle частично обновляет статью
func (c *Client) UpdateArticle(ctx context.Context, id string, req api.ArticlePatchRequest) (*api.Article, error) {
	var resp api.Article
	if _, err := c.doRequest(ctx, http.MethodPut, "/articles?"+idQuery(id), req, &resp); err != nil {
		return nil, fmt.Errorf("update article request failed: %w", err)
	}
	return &resp, nil
}

// DeleteArticle удаляет статью
func (c *Client) DeleteArticle(ctx context.Context, id string) error {
	if _, err := c.doRequest(ctx, http.MethodDelete, "/articles?"+idQuery(id), nil, nil); err != nil {
		return fmt.Errorf("delete article request failed: %w", err)
	}
	return nil
}

// Search ищет статьи по подстроке в поле title или doi
func (c *Client) Search(ctx context.Context, term, searchBy string) ([]api.Article, error) {
	q := url.Values{}
	q.Set("term", term)
	q.Set("searchBy", searchBy)

	var resp []api.Article
	if _, err := c.doRequest(ctx, http.MethodGet, "/search?"+q.Encode(), nil, &resp); err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	return resp, nil
}

// Health возвращает состояние сервера
func (c *Client) Health(ctx context.Context) (*api.HealthResponse, error) {
	var resp api.HealthResponse
	if _, err := c.doRequest(ctx, http.MethodGet, "/health", nil, &resp); err != nil {
		return nil, fmt.Errorf("health request failed: %w", err)
	}
	return &resp, nil
}

func idQuery(id string) string {
	return url.Values{"id": []string{id}}.Encode()
}

// doRequest выполняет HTTP запрос.
// Тело ответа уже прочитано и закрыто, заголовки (в том числе cookie) доступны.
func (c *Client) doRequest(ctx context.Context, method, path string, body, result any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.AddCookie(&http.Cookie{Name: api.SessionCookie, Value: c.token})
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		statusErr := &StatusError{StatusCode: resp.StatusCode}
		var errResp api.ErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil {
			statusErr.Message = errResp.Message
		}
		return nil, statusErr
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return resp, nil
}
