package network

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/juancollazo-ch/woo-fluxc-service/internal/cache"
	"github.com/juancollazo-ch/woo-fluxc-service/internal/site"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type gateway struct {
	ID      string `json:"id"`
	Enabled bool   `json:"enabled"`
}

func appPasswordSite(baseURL string) site.Site {
	return site.Site{
		LocalID:  1,
		URL:      baseURL,
		Origin:   site.OriginApplicationPassword,
		Username: "admin",
		Password: "secret",
	}
}

func newTestClient(opts Options) *Client {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return NewClient(opts)
}

func TestGet_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/wp-json/wc/v3/payment_gateways", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "admin", user)
		assert.Equal(t, "secret", pass)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"cod","enabled":true}]`))
	}))
	defer server.Close()

	c := newTestClient(Options{})
	resp := Get[[]gateway](context.Background(), c, appPasswordSite(server.URL), "/wc/v3/payment_gateways", url.Values{"page": {"2"}}, false)

	require.False(t, resp.IsError())
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "cod", resp.Data[0].ID)
	assert.True(t, resp.Data[0].Enabled)
}

func TestPost_SendsJSONBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, true, body["enabled"])
		_, _ = w.Write([]byte(`{"id":"bacs","enabled":true}`))
	}))
	defer server.Close()

	c := newTestClient(Options{})
	resp := Post[gateway](context.Background(), c, appPasswordSite(server.URL), "/wc/v3/payment_gateways/bacs", map[string]any{"enabled": true})

	require.False(t, resp.IsError())
	assert.Equal(t, "bacs", resp.Data.ID)
}

func TestExecute_APIError(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantType GenericErrorType
		wantCode string
	}{
		{
			name:     "invalid id",
			status:   http.StatusNotFound,
			body:     `{"code":"woocommerce_rest_invalid_id","message":"Invalid ID.","data":{"status":404}}`,
			wantType: ErrTypeNotFound,
			wantCode: "woocommerce_rest_invalid_id",
		},
		{
			name:     "permission missing",
			status:   http.StatusForbidden,
			body:     `{"code":"woocommerce_rest_cannot_view","message":"Sorry, you cannot list resources.","data":{"status":403}}`,
			wantType: ErrTypeHTTPAuthError,
			wantCode: "woocommerce_rest_cannot_view",
		},
		{
			name:     "unauthenticated",
			status:   http.StatusUnauthorized,
			body:     `{"code":"rest_not_logged_in","message":"You are not currently logged in."}`,
			wantType: ErrTypeNotAuthenticated,
			wantCode: "rest_not_logged_in",
		},
		{
			name:     "bad request without json",
			status:   http.StatusBadRequest,
			body:     `nope`,
			wantType: ErrTypeNetworkError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			c := newTestClient(Options{})
			resp := Get[gateway](context.Background(), c, appPasswordSite(server.URL), "/wc/v3/payment_gateways/x", nil, false)

			require.True(t, resp.IsError())
			assert.Equal(t, tt.wantType, resp.Err.Type)
			assert.Equal(t, tt.status, resp.Err.StatusCode)
			assert.Equal(t, tt.wantCode, resp.Err.APICode)
		})
	}
}

func TestExecute_ParseError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id": 12}`))
	}))
	defer server.Close()

	c := newTestClient(Options{})
	resp := Get[gateway](context.Background(), c, appPasswordSite(server.URL), "/wc/v3/payment_gateways/x", nil, false)

	require.True(t, resp.IsError())
	assert.Equal(t, ErrTypeParseError, resp.Err.Type)
}

func TestExecute_InvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>maintenance</html>`))
	}))
	defer server.Close()

	c := newTestClient(Options{})
	resp := Get[gateway](context.Background(), c, appPasswordSite(server.URL), "/wc/v3/payment_gateways/x", nil, false)

	require.True(t, resp.IsError())
	assert.Equal(t, ErrTypeInvalidResponse, resp.Err.Type)
}

func TestExecute_EnableCaching(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		_, _ = w.Write([]byte(`{"id":"cod","enabled":true}`))
	}))
	defer server.Close()

	c := newTestClient(Options{Cache: cache.NewMemory(), CacheTTL: time.Minute})
	s := appPasswordSite(server.URL)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		resp := Get[gateway](ctx, c, s, "/wc/v3/payment_gateways/cod", nil, true)
		require.False(t, resp.IsError())
		assert.Equal(t, "cod", resp.Data.ID)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))

	// sin el flag siempre va a la red
	resp := Get[gateway](ctx, c, s, "/wc/v3/payment_gateways/cod", nil, false)
	require.False(t, resp.IsError())
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestExecute_WriteInvalidatesCachedGet(t *testing.T) {
	var enabled atomic.Bool
	var gets int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			enabled.Store(true)
		} else {
			atomic.AddInt32(&gets, 1)
		}
		_ = json.NewEncoder(w).Encode(gateway{ID: "cod", Enabled: enabled.Load()})
	}))
	defer server.Close()

	c := newTestClient(Options{Cache: cache.NewMemory(), CacheTTL: time.Hour})
	s := appPasswordSite(server.URL)
	ctx := context.Background()
	path := "/wc/v3/payment_gateways/cod"

	first := Get[gateway](ctx, c, s, path, nil, true)
	require.False(t, first.IsError())
	assert.False(t, first.Data.Enabled)

	updated := Post[gateway](ctx, c, s, path, map[string]bool{"enabled": true})
	require.False(t, updated.IsError())

	second := Get[gateway](ctx, c, s, path, nil, true)
	require.False(t, second.IsError())
	assert.True(t, second.Data.Enabled)
	assert.Equal(t, int32(2), atomic.LoadInt32(&gets))
}

func TestExecute_CircuitBreakerOpens(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	c := newTestClient(Options{BreakerMaxFailures: 2, BreakerOpenTimeout: time.Minute})
	s := appPasswordSite(server.URL)

	for i := 0; i < 2; i++ {
		resp := Get[gateway](context.Background(), c, s, "/wc/v3/payment_gateways", nil, false)
		require.True(t, resp.IsError())
		assert.Equal(t, ErrTypeServerError, resp.Err.Type)
	}

	resp := Get[gateway](context.Background(), c, s, "/wc/v3/payment_gateways", nil, false)
	require.True(t, resp.IsError())
	assert.Equal(t, ErrTypeCircuitOpen, resp.Err.Type)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestExecute_ClientErrorsDoNotTripBreaker(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	c := newTestClient(Options{BreakerMaxFailures: 1})
	s := appPasswordSite(server.URL)
	for i := 0; i < 3; i++ {
		resp := Get[gateway](context.Background(), c, s, "/wc/v3/payment_gateways/x", nil, false)
		require.True(t, resp.IsError())
		assert.Equal(t, ErrTypeNotFound, resp.Err.Type)
	}
}

func TestExecute_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	c := newTestClient(Options{})
	resp := Get[gateway](ctx, c, appPasswordSite(server.URL), "/wc/v3/payment_gateways", nil, false)

	require.True(t, resp.IsError())
	assert.Equal(t, ErrTypeTimeout, resp.Err.Type)
	assert.True(t, errors.Is(resp.Err, context.DeadlineExceeded))
}

func TestExecute_CancelledWhileWaitingForLimiter(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := newTestClient(Options{RateLimitPerSecond: 1, Burst: 1})
	resp := Get[[]gateway](ctx, c, appPasswordSite(server.URL), "/wc/v3/payment_gateways", nil, false)

	require.True(t, resp.IsError())
	assert.Equal(t, ErrTypeTimeout, resp.Err.Type)
	assert.True(t, errors.Is(resp.Err, context.Canceled))
	assert.Equal(t, int32(0), atomic.LoadInt32(&hits))
}

func TestExecute_NoConnection(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	addr := server.URL
	server.Close()

	c := newTestClient(Options{})
	resp := Get[gateway](context.Background(), c, appPasswordSite(addr), "/wc/v3/payment_gateways", nil, false)

	require.True(t, resp.IsError())
	assert.Equal(t, ErrTypeNoConnection, resp.Err.Type)
}

func TestExecute_InvalidPath(t *testing.T) {
	c := newTestClient(Options{})
	resp := Get[gateway](context.Background(), c, appPasswordSite("https://shop.example.com"), "wc/v3", nil, false)
	require.True(t, resp.IsError())
	assert.Equal(t, ErrTypeUnknown, resp.Err.Type)
}

func wpcomSite() site.Site {
	return site.Site{LocalID: 2, SiteID: 1234, Origin: site.OriginWPCom, Token: "wpcom-token"}
}

func TestTunnel_Get(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/rest/v1.1/jetpack-blogs/1234/rest-api/", r.URL.Path)
		assert.Equal(t, "/wc/v3/payment_gateways?page=1&_method=get", r.URL.Query().Get("path"))
		assert.Equal(t, "true", r.URL.Query().Get("json"))
		assert.Equal(t, "Bearer wpcom-token", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"data":[{"id":"cod","enabled":false}]}`))
	}))
	defer server.Close()

	c := newTestClient(Options{WPComBaseURL: server.URL})
	resp := Get[[]gateway](context.Background(), c, wpcomSite(), "/wc/v3/payment_gateways", url.Values{"page": {"1"}}, false)

	require.False(t, resp.IsError())
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "cod", resp.Data[0].ID)
}

func TestTunnel_PutIsSentAsPost(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		raw, _ := io.ReadAll(r.Body)
		var envelope struct {
			Path string         `json:"path"`
			Body map[string]any `json:"body"`
			JSON bool           `json:"json"`
		}
		require.NoError(t, json.Unmarshal(raw, &envelope))
		assert.Equal(t, "/wc/v3/orders/5&_method=put", envelope.Path)
		assert.Equal(t, "completed", envelope.Body["status"])
		assert.True(t, envelope.JSON)
		_, _ = w.Write([]byte(`{"data":{"id":"5","enabled":true}}`))
	}))
	defer server.Close()

	c := newTestClient(Options{WPComBaseURL: server.URL})
	resp := Put[gateway](context.Background(), c, wpcomSite(), "/wc/v3/orders/5", map[string]any{"status": "completed"})
	require.False(t, resp.IsError())
	assert.Equal(t, "5", resp.Data.ID)
}

func TestTunnel_ErrorEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":"woocommerce_rest_shop_order_invalid_id","message":"Invalid ID.","data":{"status":404}}`))
	}))
	defer server.Close()

	c := newTestClient(Options{WPComBaseURL: server.URL})
	resp := Get[gateway](context.Background(), c, wpcomSite(), "/wc/v3/orders/99", nil, false)

	require.True(t, resp.IsError())
	assert.Equal(t, ErrTypeNotFound, resp.Err.Type)
	assert.Equal(t, 404, resp.Err.StatusCode)
	assert.Equal(t, "woocommerce_rest_shop_order_invalid_id", resp.Err.APICode)
}

func TestMetrics(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "missing") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"id":"cod"}`))
	}))
	defer server.Close()

	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	c := newTestClient(Options{Metrics: metrics})
	s := appPasswordSite(server.URL)

	Get[gateway](context.Background(), c, s, "/wc/v3/payment_gateways/cod", nil, false)
	Get[gateway](context.Background(), c, s, "/wc/v3/payment_gateways/missing", nil, false)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.requests.WithLabelValues("GET", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.requests.WithLabelValues("GET", string(ErrTypeNotFound))))
}

func TestTypeForStatus(t *testing.T) {
	assert.Equal(t, ErrTypeServerError, typeForStatus(503))
	assert.Equal(t, ErrTypeTimeout, typeForStatus(504))
	assert.Equal(t, ErrTypeRateLimited, typeForStatus(429))
	assert.Equal(t, ErrTypeCensored, typeForStatus(451))
	assert.Equal(t, ErrTypeNetworkError, typeForStatus(422))
}
