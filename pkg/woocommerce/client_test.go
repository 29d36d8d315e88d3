package woocommerce

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==================== 测试辅助 ====================

type recordingSleeper struct {
	waits []time.Duration
}

func (r *recordingSleeper) Sleep(_ context.Context, d time.Duration) error {
	r.waits = append(r.waits, d)
	return nil
}

func newTestClient(t *testing.T, storeURL string, maxRetries int, sleeper *recordingSleeper) *Client {
	t.Helper()
	return NewClient(Config{
		StoreURL:       storeURL,
		ConsumerKey:    "ck_test",
		ConsumerSecret: "cs_test",
		APIVersion:     "v3",
		MaxRetries:     maxRetries,
		RetryBackoff:   1500 * time.Millisecond,
		Timeout:        2 * time.Second,
	}, WithSleeper(sleeper.Sleep))
}

// ==================== 重试策略 ====================

func TestClient_RetriesServerErrorsUntilExhausted(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprintf(w, "boom %d", n)
	}))
	defer srv.Close()

	sleeper := &recordingSleeper{}
	client := newTestClient(t, srv.URL, 3, sleeper)

	_, err := client.Do(context.Background(), http.MethodGet, "products/1", nil, nil)

	apiErr, ok := AsAPIError(err)
	require.True(t, ok, "期望 APIError，实际: %v", err)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, "boom 3", apiErr.Detail)
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
	assert.Equal(t, []time.Duration{1500 * time.Millisecond, 3 * time.Second}, sleeper.waits)
}

func TestClient_ClientErrorIsNotRetried(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"code":"woocommerce_rest_product_invalid_id"}`))
	}))
	defer srv.Close()

	sleeper := &recordingSleeper{}
	client := newTestClient(t, srv.URL, 3, sleeper)

	_, err := client.Do(context.Background(), http.MethodGet, "products/999", nil, nil)

	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Contains(t, apiErr.Detail, "woocommerce_rest_product_invalid_id")
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
	assert.Empty(t, sleeper.waits)
}

func TestClient_TransportFailureUsesSentinelStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	sleeper := &recordingSleeper{}
	client := newTestClient(t, url, 2, sleeper)

	_, err := client.Do(context.Background(), http.MethodGet, "products", nil, nil)

	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, StatusTransport, apiErr.StatusCode)
	assert.True(t, apiErr.IsTransport())
	assert.NotEmpty(t, apiErr.Detail)
	assert.Equal(t, []time.Duration{1500 * time.Millisecond}, sleeper.waits)
}

func TestClient_RecoversAfterTransientFailure(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": 42, "name": "ok"}`))
	}))
	defer srv.Close()

	sleeper := &recordingSleeper{}
	client := newTestClient(t, srv.URL, 3, sleeper)

	result, err := client.Do(context.Background(), http.MethodGet, "products/42", nil, nil)

	require.NoError(t, err)
	assert.Equal(t, json.Number("42"), result["id"])
	assert.Len(t, sleeper.waits, 1)
}

func TestClient_NotConfiguredFailsBeforeNetwork(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer srv.Close()

	sleeper := &recordingSleeper{}
	client := NewClient(Config{StoreURL: srv.URL, MaxRetries: 3}, WithSleeper(sleeper.Sleep))

	_, err := client.Do(context.Background(), http.MethodGet, "products", nil, nil)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotConfigured))
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, []string{"consumer key", "consumer secret"}, cfgErr.Missing)
	_, isAPI := AsAPIError(err)
	assert.False(t, isAPI)
	assert.Equal(t, int32(0), atomic.LoadInt32(&hits))
	assert.Empty(t, sleeper.waits)
}

// ==================== 商品接口 ====================

func TestClient_CreateProductSendsAuthenticatedJSON(t *testing.T) {
	var gotPath, gotMethod, gotUser, gotPass string
	var gotBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
		gotUser, gotPass, _ = r.BasicAuth()
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id": 501, "status": "publish"}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL+"/", 1, &recordingSleeper{})
	payload := NewProductPayload("Dawn", "A quiet river", "", true)

	product, err := client.CreateProduct(context.Background(), payload)

	require.NoError(t, err)
	assert.Equal(t, int64(501), product.ID)
	assert.Equal(t, "/wp-json/wc/v3/products", gotPath)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "ck_test", gotUser)
	assert.Equal(t, "cs_test", gotPass)
	assert.Equal(t, "Dawn", gotBody["name"])
	assert.Equal(t, "simple", gotBody["type"])
	assert.Equal(t, []interface{}{}, gotBody["images"])
}

func TestClient_UpdateProductTargetsID(t *testing.T) {
	var gotPath, gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
		_, _ = w.Write([]byte(`{"id": 77}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, 1, &recordingSleeper{})

	product, err := client.UpdateProduct(context.Background(), 77, NewProductPayload("x", "", "", false))

	require.NoError(t, err)
	assert.Equal(t, int64(77), product.ID)
	assert.Equal(t, "/wp-json/wc/v3/products/77", gotPath)
	assert.Equal(t, http.MethodPut, gotMethod)
}

func TestConfig_BaseURL(t *testing.T) {
	cfg := Config{StoreURL: "https://shop.example.com/", APIVersion: "/v3/"}
	assert.Equal(t, "https://shop.example.com/wp-json/wc/v3", cfg.BaseURL())

	cfg.APIVersion = ""
	assert.Equal(t, "https://shop.example.com/wp-json/wc/v3", cfg.BaseURL())
}
