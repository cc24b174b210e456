package network

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/juancollazo-ch/woo-fluxc-service/internal/cache"
	"github.com/juancollazo-ch/woo-fluxc-service/internal/logging"
	"github.com/juancollazo-ch/woo-fluxc-service/internal/site"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// maxResponseSize limita el cuerpo leído (10MB)
const maxResponseSize = 10 * 1024 * 1024

// Options configura el Client. Los campos en cero toman valores por defecto.
type Options struct {
	HTTPClient         *http.Client
	Timeout            time.Duration
	UserAgent          string
	WPComBaseURL       string
	RateLimitPerSecond float64
	Burst              int
	BreakerMaxFailures uint32
	BreakerOpenTimeout time.Duration
	Cache              cache.Cache
	CacheTTL           time.Duration
	Metrics            *Metrics
	Logger             *zap.Logger
}

// Client es el request builder compartido por todos los RestClients.
// No reintenta: cada llamada es un único request HTTP.
type Client struct {
	http      *http.Client
	userAgent string
	wpcomBase string
	cache     cache.Cache
	cacheTTL  time.Duration
	metrics   *Metrics
	logger    *zap.Logger

	limit rate.Limit
	burst int

	breakerMaxFailures uint32
	breakerOpenTimeout time.Duration

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	breakers map[string]*gobreaker.CircuitBreaker
}

func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "woo-fluxc-service/1.0"
	}
	if opts.WPComBaseURL == "" {
		opts.WPComBaseURL = "https://public-api.wordpress.com"
	}
	limit := rate.Inf
	if opts.RateLimitPerSecond > 0 {
		limit = rate.Limit(opts.RateLimitPerSecond)
	}
	if opts.Burst <= 0 {
		opts.Burst = 1
	}
	if opts.BreakerMaxFailures == 0 {
		opts.BreakerMaxFailures = 5
	}
	if opts.BreakerOpenTimeout <= 0 {
		opts.BreakerOpenTimeout = 30 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = zap.L()
	}

	return &Client{
		http:               httpClient,
		userAgent:          opts.UserAgent,
		wpcomBase:          strings.TrimRight(opts.WPComBaseURL, "/"),
		cache:              opts.Cache,
		cacheTTL:           opts.CacheTTL,
		metrics:            opts.Metrics,
		logger:             opts.Logger,
		limit:              limit,
		burst:              opts.Burst,
		breakerMaxFailures: opts.BreakerMaxFailures,
		breakerOpenTimeout: opts.BreakerOpenTimeout,
		limiters:           make(map[string]*rate.Limiter),
		breakers:           make(map[string]*gobreaker.CircuitBreaker),
	}
}

// Request describe una operación de la API REST de WooCommerce / WordPress.
type Request struct {
	Site          site.Site
	Method        string
	Path          string // p.ej. "/wc/v3/payment_gateways"
	Params        url.Values
	Body          any
	EnableCaching bool
}

// rawResponse es lo que pasa por el circuit breaker
type rawResponse struct {
	status int
	body   []byte
}

// errServerFailure marca respuestas 5xx para que cuenten como fallo en el breaker
var errServerFailure = errors.New("server failure")

// Do ejecuta el request y devuelve el cuerpo JSON ya desenvuelto (túnel Jetpack).
func (c *Client) Do(ctx context.Context, req Request) ([]byte, *Error) {
	start := time.Now()
	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodGet
	}
	logger := logging.FromContext(ctx, c.logger).With(
		zap.String("method", method),
		zap.String("path", req.Path),
		zap.Int("local_site_id", req.Site.LocalID),
	)

	httpReq, err := c.buildHTTPRequest(ctx, method, req)
	if err != nil {
		c.metrics.observe(method, "invalid_request", time.Since(start))
		return nil, &Error{Type: ErrTypeUnknown, Message: "error building request", Cause: err}
	}

	useCache := c.cache != nil && req.EnableCaching && method == http.MethodGet
	cacheKey := responseCacheKey(req.Site, httpReq)
	if useCache {
		if cached, ok, cerr := c.cache.Get(ctx, cacheKey); cerr != nil {
			logger.Warn("cache lookup failed", zap.Error(cerr))
		} else if ok {
			c.metrics.observe(method, "cache_hit", time.Since(start))
			logger.Debug("served from cache")
			return cached, nil
		}
	}

	key := breakerKey(req.Site)
	if err := c.limiterFor(key).Wait(ctx); err != nil {
		// cancelado o vencido mientras esperaba turno en el limitador
		if ctxErr := ctx.Err(); ctxErr != nil {
			c.metrics.observe(method, string(ErrTypeTimeout), time.Since(start))
			return nil, &Error{Type: ErrTypeTimeout, Message: "cancelled while waiting for rate limiter", Cause: ctxErr}
		}
		c.metrics.observe(method, string(ErrTypeRateLimited), time.Since(start))
		return nil, &Error{Type: ErrTypeRateLimited, Cause: err}
	}

	result, err := c.breakerFor(key).Execute(func() (interface{}, error) {
		resp, err := c.http.Do(httpReq)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
		if err != nil {
			return nil, err
		}
		raw := &rawResponse{status: resp.StatusCode, body: body}
		if resp.StatusCode >= 500 {
			return raw, errServerFailure
		}
		return raw, nil
	})

	var nerr *Error
	var payload []byte
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		nerr = &Error{Type: ErrTypeCircuitOpen, Message: "circuit breaker open for " + key, Cause: err}
	case errors.Is(err, errServerFailure):
		raw := result.(*rawResponse)
		nerr = c.errorFromBody(req.Site, raw.status, raw.body)
	case err != nil:
		nerr = fromTransportError(err)
	default:
		raw := result.(*rawResponse)
		if raw.status < 200 || raw.status >= 300 {
			nerr = c.errorFromBody(req.Site, raw.status, raw.body)
		} else {
			payload, nerr = c.unwrap(req.Site, raw.status, raw.body)
		}
	}

	elapsed := time.Since(start)
	if nerr != nil {
		c.metrics.observe(method, string(nerr.Type), elapsed)
		logger.Warn("woo request failed",
			zap.String("error_type", string(nerr.Type)),
			zap.Int("status", nerr.StatusCode),
			zap.String("api_code", nerr.APICode),
			zap.Int64("latency_ms", elapsed.Milliseconds()),
		)
		return nil, nerr
	}

	c.metrics.observe(method, "success", elapsed)
	logger.Debug("woo request completed", zap.Int64("latency_ms", elapsed.Milliseconds()))

	if useCache {
		if err := c.cache.Set(ctx, cacheKey, payload, c.cacheTTL); err != nil {
			logger.Warn("cache store failed", zap.Error(err))
		}
	}
	if c.cache != nil && method != http.MethodGet {
		c.invalidate(ctx, req, logger)
	}
	return payload, nil
}

func responseCacheKey(s site.Site, httpReq *http.Request) string {
	return fmt.Sprintf("%d:%s", s.LocalID, httpReq.URL.String())
}

// invalidate borra el GET cacheado (sin parámetros) del path que se acaba de escribir.
func (c *Client) invalidate(ctx context.Context, req Request, logger *zap.Logger) {
	getReq, err := c.buildHTTPRequest(ctx, http.MethodGet, Request{Site: req.Site, Method: http.MethodGet, Path: req.Path})
	if err != nil {
		return
	}
	if err := c.cache.Delete(ctx, responseCacheKey(req.Site, getReq)); err != nil {
		logger.Warn("cache invalidation failed", zap.Error(err))
	}
}

func (c *Client) buildHTTPRequest(ctx context.Context, method string, req Request) (*http.Request, error) {
	if req.Path == "" || !strings.HasPrefix(req.Path, "/") {
		return nil, fmt.Errorf("path must start with '/': %q", req.Path)
	}

	if req.Site.IsWPCom() {
		return c.buildTunnelRequest(ctx, method, req)
	}

	endpoint, err := url.Parse(req.Site.RestURL() + req.Path)
	if err != nil {
		return nil, err
	}
	if len(req.Params) > 0 {
		endpoint.RawQuery = req.Params.Encode()
	}

	var body io.Reader
	if req.Body != nil && method != http.MethodGet {
		encoded, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("error marshaling body: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, endpoint.String(), body)
	if err != nil {
		return nil, err
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)
	httpReq.SetBasicAuth(req.Site.Username, req.Site.Password)
	return httpReq, nil
}

// buildTunnelRequest arma la llamada al proxy jetpack-blogs/{id}/rest-api de WordPress.com.
// GET va con query params; el resto se envía como POST con _method.
func (c *Client) buildTunnelRequest(ctx context.Context, method string, req Request) (*http.Request, error) {
	endpoint, err := url.Parse(fmt.Sprintf("%s/rest/v1.1/jetpack-blogs/%d/rest-api/", c.wpcomBase, req.Site.SiteID))
	if err != nil {
		return nil, err
	}

	wpPath := req.Path
	if len(req.Params) > 0 {
		wpPath += "?" + req.Params.Encode()
	}
	wpPath = fmt.Sprintf("%s&_method=%s", wpPath, strings.ToLower(method))

	var httpReq *http.Request
	if method == http.MethodGet {
		q := url.Values{}
		q.Set("path", wpPath)
		q.Set("json", "true")
		endpoint.RawQuery = q.Encode()
		httpReq, err = http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	} else {
		envelope := map[string]any{
			"path": wpPath,
			"json": true,
		}
		if req.Body != nil {
			envelope["body"] = req.Body
		}
		encoded, merr := json.Marshal(envelope)
		if merr != nil {
			return nil, fmt.Errorf("error marshaling body: %w", merr)
		}
		httpReq, err = http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(encoded))
		if err == nil {
			httpReq.Header.Set("Content-Type", "application/json")
		}
	}
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)
	httpReq.Header.Set("Authorization", "Bearer "+req.Site.Token)
	return httpReq, nil
}

// wpErrorBody cubre el error de WP REST ({code,message,data.status}) y el del túnel ({error,message}).
type wpErrorBody struct {
	Code    string          `json:"code"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (c *Client) errorFromBody(s site.Site, status int, body []byte) *Error {
	nerr := &Error{Type: typeForStatus(status), StatusCode: status}

	var parsed wpErrorBody
	if len(body) > 0 && json.Unmarshal(body, &parsed) == nil {
		nerr.APICode = parsed.Code
		if nerr.APICode == "" {
			nerr.APICode = parsed.Error
		}
		nerr.Message = parsed.Message
		if inner := embeddedStatus(parsed.Data); inner != 0 && inner != status {
			nerr.StatusCode = inner
			nerr.Type = typeForStatus(inner)
		}
	}
	return nerr
}

// embeddedStatus lee data.status cuando viene como objeto; el túnel a veces responde 200/400 envolviendo el 404 real.
func embeddedStatus(raw json.RawMessage) int {
	if len(raw) == 0 || raw[0] != '{' {
		return 0
	}
	var data struct {
		Status json.Number `json:"status"`
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return 0
	}
	status, err := strconv.Atoi(data.Status.String())
	if err != nil {
		return 0
	}
	return status
}

// unwrap devuelve el payload útil. Para sitios WPCOM el túnel envuelve todo en {"data": ...}
// y puede devolver errores con HTTP 200.
func (c *Client) unwrap(s site.Site, status int, body []byte) ([]byte, *Error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return []byte("null"), nil
	}
	if !json.Valid(body) {
		return nil, &Error{Type: ErrTypeInvalidResponse, StatusCode: status, Message: "response is not valid JSON"}
	}
	if !s.IsWPCom() {
		return body, nil
	}

	var envelope struct {
		Data  json.RawMessage `json:"data"`
		Error string          `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &Error{Type: ErrTypeInvalidResponse, StatusCode: status, Message: "unexpected tunnel envelope", Cause: err}
	}
	if envelope.Error != "" {
		nerr := c.errorFromBody(s, http.StatusBadRequest, body)
		if inner := embeddedStatus(envelope.Data); inner != 0 {
			nerr.StatusCode = inner
			nerr.Type = typeForStatus(inner)
		}
		return nil, nerr
	}
	if envelope.Data == nil {
		return nil, &Error{Type: ErrTypeInvalidResponse, StatusCode: status, Message: "tunnel response without data"}
	}
	return envelope.Data, nil
}

func breakerKey(s site.Site) string {
	if s.IsWPCom() {
		return fmt.Sprintf("wpcom:%d", s.SiteID)
	}
	if u, err := url.Parse(s.URL); err == nil && u.Host != "" {
		return u.Host
	}
	return fmt.Sprintf("site:%d", s.LocalID)
}

func (c *Client) limiterFor(key string) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()
	limiter, ok := c.limiters[key]
	if !ok {
		limiter = rate.NewLimiter(c.limit, c.burst)
		c.limiters[key] = limiter
	}
	return limiter
}

func (c *Client) breakerFor(key string) *gobreaker.CircuitBreaker {
	c.mu.Lock()
	defer c.mu.Unlock()
	cb, ok := c.breakers[key]
	if !ok {
		maxFailures := c.breakerMaxFailures
		logger := c.logger
		cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        key,
			MaxRequests: 1,
			Timeout:     c.breakerOpenTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= maxFailures
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn("circuit breaker state changed",
					zap.String("breaker", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()),
				)
			},
		})
		c.breakers[key] = cb
	}
	return cb
}
