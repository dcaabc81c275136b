package addons

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"addonshub-go/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func testConfig(endpoint string) *config.Config {
	return &config.Config{
		AddonsEndpoint:      endpoint,
		ShopURL:             "https://shop.example.com",
		PlatformVersion:     "8.1.0",
		RequestTimeoutSec:   5,
		RetryMax:            2,
		RetryIntervalSec:    1,
		RetryMaxIntervalSec: 1,
	}
}

func TestRequestSendsEnvelope(t *testing.T) {
	var gotPath string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotBody, _ = io.ReadAll(r.Body)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := New(testConfig(srv.URL))
	body, err := c.Request(context.Background(), "check_customer", map[string]string{"username_addons": "u"})
	require.NoError(t, err)
	assert.True(t, gjson.GetBytes(body, "ok").Bool())

	assert.Equal(t, "/request/check_customer", gotPath)
	assert.Equal(t, "https://shop.example.com", gjson.GetBytes(gotBody, "shop_url").String())
	assert.Equal(t, "8.1.0", gjson.GetBytes(gotBody, "platform_version").String())
	assert.Equal(t, "u", gjson.GetBytes(gotBody, "username_addons").String())
}

func TestCheckCustomerParsesErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"errors": []map[string]any{{"code": 401, "label": "bad credentials"}},
		})
	}))
	defer srv.Close()

	c := New(testConfig(srv.URL))
	res, err := c.CheckCustomer(context.Background(), "u", "p")
	require.NoError(t, err)
	assert.False(t, res.OK())
	require.Len(t, res.Errors, 1)
	assert.Equal(t, 401, res.Errors[0].Code)
	assert.Equal(t, "bad credentials", res.Errors[0].Label)
}

func TestCheckCustomerSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"is_contributor":true}`))
	}))
	defer srv.Close()

	c := New(testConfig(srv.URL))
	res, err := c.CheckCustomer(context.Background(), "u", "p")
	require.NoError(t, err)
	assert.True(t, res.OK())
	assert.True(t, res.IsContributor)
}

func TestRequestRetriesOn5xx(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.RetryOn5xx = true
	c := New(cfg)
	_, err := c.Request(context.Background(), "native", nil)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestRequestHonorsContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := New(testConfig(srv.URL))
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := c.Request(ctx, "native", nil)
	assert.Error(t, err)
}

func TestListModules(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"modules":[{"name":"paypal","display_name":"PayPal","version":"2.1.0"}]}`))
	}))
	defer srv.Close()

	c := New(testConfig(srv.URL))
	mods, err := c.ListModules(context.Background())
	require.NoError(t, err)
	require.Len(t, mods, 1)
	assert.Equal(t, "paypal", mods[0].Name)
	assert.Equal(t, "2.1.0", mods[0].Version)
}
