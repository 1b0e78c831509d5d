package aeza

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client - типизированная обертка над REST API Aeza. Клиент не хранит
// состояния, не логирует и не повторяет запросы: каждая операция
// выполняется ровно один раз, исход возвращается вызывающему.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

func NewClient(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://my.aeza.net/api"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// request выполняет запрос с единообразной обработкой ошибок: сетевые
// ошибки, не-2xx статусы и некорректный JSON сворачиваются в *RemoteError.
func (c *Client) request(ctx context.Context, method, endpoint string, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("кодирование запроса: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reqBody)
	if err != nil {
		return fmt.Errorf("создание запроса: %w", err)
	}
	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return &RemoteError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &RemoteError{Status: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &RemoteError{Status: resp.StatusCode, Body: string(raw)}
	}

	var envelope apiResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return &RemoteError{Status: resp.StatusCode, Body: string(raw), Err: err}
	}
	if envelope.Error != nil {
		return &RemoteError{
			Status: resp.StatusCode,
			Body:   fmt.Sprintf("%s: %s", envelope.Error.Slug, envelope.Error.Message),
		}
	}

	if out != nil {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return &RemoteError{Status: resp.StatusCode, Body: string(raw), Err: err}
		}
	}
	return nil
}

// ListOS выводит список ОС, доступных для установки на сервер.
func (c *Client) ListOS(ctx context.Context) ([]OS, error) {
	var payload itemsPayload[OS]
	if err := c.request(ctx, http.MethodGet, "/os", nil, &payload); err != nil {
		return nil, err
	}
	return payload.Items, nil
}

// ListRecipes выводит список ПО, которое может быть установлено на сервер.
func (c *Client) ListRecipes(ctx context.Context) ([]Recipe, error) {
	var payload itemsPayload[Recipe]
	if err := c.request(ctx, http.MethodGet, "/vm/recipe", nil, &payload); err != nil {
		return nil, err
	}
	return payload.Items, nil
}

// GetCurrencies выводит множители для преобразования валют.
func (c *Client) GetCurrencies(ctx context.Context) (Rates, error) {
	var payload currenciesPayload
	if err := c.request(ctx, http.MethodGet, "/payment/currencies", nil, &payload); err != nil {
		return nil, err
	}
	return payload.Currencies, nil
}

// ListMyServices выводит список купленных услуг.
func (c *Client) ListMyServices(ctx context.Context) ([]Service, error) {
	var payload itemsPayload[Service]
	if err := c.request(ctx, http.MethodGet, "/services", nil, &payload); err != nil {
		return nil, err
	}
	return payload.Items, nil
}

// ListProducts выводит список всех доступных для покупки услуг.
func (c *Client) ListProducts(ctx context.Context) ([]Product, error) {
	var payload itemsPayload[Product]
	if err := c.request(ctx, http.MethodGet, "/services/products", nil, &payload); err != nil {
		return nil, err
	}
	return payload.Items, nil
}

// GetService получает информацию об услуге по ее id.
func (c *Client) GetService(ctx context.Context, serviceID int64) (*Service, error) {
	var payload itemsPayload[Service]
	endpoint := fmt.Sprintf("/services/%d", serviceID)
	if err := c.request(ctx, http.MethodGet, endpoint, nil, &payload); err != nil {
		return nil, err
	}
	if len(payload.Items) == 0 {
		return nil, &RemoteError{Body: fmt.Sprintf("услуга %d не найдена в ответе", serviceID)}
	}
	return &payload.Items[0], nil
}

// ListOrders выводит информацию о заказах.
func (c *Client) ListOrders(ctx context.Context) ([]Order, error) {
	var payload itemsPayload[Order]
	if err := c.request(ctx, http.MethodGet, "/services/orders", nil, &payload); err != nil {
		return nil, err
	}
	return payload.Items, nil
}

// CreateService заказывает сервер. Повторы при таймауте - ответственность
// вызывающего: у API нет ключа идемпотентности.
func (c *Client) CreateService(ctx context.Context, req CreateServiceRequest) (*Order, error) {
	var order Order
	if err := c.request(ctx, http.MethodPost, "/services/orders", req, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// ControlService управляет сервером (запуск, стоп, перезагрузка).
// Неизвестное действие отклоняется до сетевого вызова.
func (c *Client) ControlService(ctx context.Context, serviceID int64, action string) error {
	switch action {
	case ActionResume, ActionSuspend, ActionReboot:
	default:
		return &ValidationError{Msg: fmt.Sprintf("некорректное действие: %q", action)}
	}

	endpoint := fmt.Sprintf("/services/%d/ctl", serviceID)
	return c.request(ctx, http.MethodPost, endpoint, map[string]string{"action": action}, nil)
}

// StartService запускает сервер.
func (c *Client) StartService(ctx context.Context, serviceID int64) error {
	return c.ControlService(ctx, serviceID, ActionResume)
}

// StopService останавливает сервер.
func (c *Client) StopService(ctx context.Context, serviceID int64) error {
	return c.ControlService(ctx, serviceID, ActionSuspend)
}

// RebootService перезагружает сервер.
func (c *Client) RebootService(ctx context.Context, serviceID int64) error {
	return c.ControlService(ctx, serviceID, ActionReboot)
}

// ReinstallService переустанавливает сервер.
func (c *Client) ReinstallService(ctx context.Context, serviceID, osID int64, password string, recipeID *int64) error {
	endpoint := fmt.Sprintf("/services/%d/reinstall", serviceID)
	body := map[string]any{
		"os":       osID,
		"recipe":   recipeID,
		"password": password,
	}
	return c.request(ctx, http.MethodPost, endpoint, body, nil)
}

// ChangePassword меняет пароль сервера.
func (c *Client) ChangePassword(ctx context.Context, serviceID int64, password string) error {
	endpoint := fmt.Sprintf("/services/%d/changePassword", serviceID)
	return c.request(ctx, http.MethodPut, endpoint, map[string]string{"password": password}, nil)
}

// ChangeName меняет имя сервера.
func (c *Client) ChangeName(ctx context.Context, serviceID int64, name string) error {
	endpoint := fmt.Sprintf("/services/%d/changeName", serviceID)
	return c.request(ctx, http.MethodPut, endpoint, map[string]string{"name": name}, nil)
}

// DeleteService удаляет сервер.
func (c *Client) DeleteService(ctx context.Context, serviceID int64) error {
	endpoint := fmt.Sprintf("/services/%d", serviceID)
	return c.request(ctx, http.MethodDelete, endpoint, nil, nil)
}
