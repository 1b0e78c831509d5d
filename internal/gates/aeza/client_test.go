package aeza

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClient(Config{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Timeout: 2 * time.Second,
	})
}

func TestClientSendsAuthHeaders(t *testing.T) {
	var gotKey, gotContentType string

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-API-Key")
		gotContentType = r.Header.Get("Content-Type")
		w.Write([]byte(`{"data": {"items": []}}`))
	})

	_, err := client.ListOS(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "test-key", gotKey)
	assert.Equal(t, "application/json", gotContentType)
}

func TestListProducts(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/services/products", r.URL.Path)
		w.Write([]byte(`{"data": {"items": [
			{"id": 163, "name": "Promo", "type": "vps", "prices": {"hour": 1.5, "month": 300}}
		]}}`))
	})

	products, err := client.ListProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, int64(163), products[0].ID)
	assert.True(t, products[0].Prices.Month.Equal(decimal.NewFromInt(300)))
}

func TestCreateService(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/services/orders", r.URL.Path)
		w.Write([]byte(`{"data": {"id": 777, "status": "active", "productId": 163,
			"items": [{"id": 4242, "name": "bot-proxy", "ip": "45.10.0.7", "status": "active"}]}}`))
	})

	order, err := client.CreateService(context.Background(), CreateServiceRequest{
		Count:     1,
		Term:      TermHour,
		Name:      "bot-proxy",
		ProductID: 163,
		Parameters: map[string]any{
			"os": 4320,
		},
		Method: "balance",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(777), order.ID)
	require.Len(t, order.Items, 1)
	assert.Equal(t, int64(4242), order.Items[0].ID)
}

func TestControlServiceRejectsUnknownAction(t *testing.T) {
	requested := false
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		requested = true
	})

	err := client.ControlService(context.Background(), 1, "destroy")

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.False(t, requested, "сетевой вызов не должен выполняться")
}

func TestControlServiceActions(t *testing.T) {
	tests := []struct {
		name   string
		call   func(c *Client) error
		action string
	}{
		{
			name:   "resume",
			call:   func(c *Client) error { return c.StartService(context.Background(), 5) },
			action: "resume",
		},
		{
			name:   "suspend",
			call:   func(c *Client) error { return c.StopService(context.Background(), 5) },
			action: "suspend",
		},
		{
			name:   "reboot",
			call:   func(c *Client) error { return c.RebootService(context.Background(), 5) },
			action: "reboot",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotBody string
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/services/5/ctl", r.URL.Path)
				raw, _ := io.ReadAll(r.Body)
				gotBody = string(raw)
				w.Write([]byte(`{"data": {}}`))
			})

			require.NoError(t, tt.call(client))
			assert.Contains(t, gotBody, tt.action)
		})
	}
}

func TestNon2xxBecomesRemoteError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error": {"slug": "unauthorized", "message": "bad key"}}`))
	})

	_, err := client.ListMyServices(context.Background())

	var remoteErr *RemoteError
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, http.StatusForbidden, remoteErr.Status)
	assert.Contains(t, remoteErr.Body, "bad key")
	assert.False(t, remoteErr.Timeout())
}

func TestMalformedJSONBecomesRemoteError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>maintenance</html>`))
	})

	_, err := client.ListOS(context.Background())

	var remoteErr *RemoteError
	require.ErrorAs(t, err, &remoteErr)
	assert.Contains(t, remoteErr.Body, "maintenance")
}

func TestAPIErrorEnvelopeBecomesRemoteError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error": {"slug": "insufficient_funds", "message": "not enough balance"}}`))
	})

	_, err := client.CreateService(context.Background(), CreateServiceRequest{ProductID: 1})

	var remoteErr *RemoteError
	require.ErrorAs(t, err, &remoteErr)
	assert.Contains(t, remoteErr.Body, "insufficient_funds")
}

func TestTimeoutIsReportedAsTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`{"data": {"items": []}}`))
	}))
	t.Cleanup(server.Close)

	client := NewClient(Config{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Timeout: 20 * time.Millisecond,
	})

	_, err := client.ListOS(context.Background())

	var remoteErr *RemoteError
	require.ErrorAs(t, err, &remoteErr)
	assert.True(t, remoteErr.Timeout())
}

func TestNetworkErrorBecomesRemoteError(t *testing.T) {
	// Закрытый порт, соединение не устанавливается
	client := NewClient(Config{
		APIKey:  "test-key",
		BaseURL: "http://127.0.0.1:1",
		Timeout: time.Second,
	})

	_, err := client.GetCurrencies(context.Background())

	var remoteErr *RemoteError
	require.True(t, errors.As(err, &remoteErr))
	assert.Zero(t, remoteErr.Status)
}
