package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/juancollazo-ch/woo-fluxc-service/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestWithLogging_CloudTraceHeader(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	var seen string
	handler := WithLogging(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logging.TraceID(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/sites", nil)
	req.Header.Set("X-Cloud-Trace-Context", "105445aa7843bc8bf206b12000100000/1;o=1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "105445aa7843bc8bf206b12000100000", seen)
	assert.Equal(t, seen, rec.Header().Get("X-Trace-ID"))

	completed := logs.FilterMessage("Request completed").All()
	require.Len(t, completed, 1)
	fields := completed[0].ContextMap()
	assert.EqualValues(t, http.StatusTeapot, fields["httpRequest.status"])
	assert.Equal(t, seen, fields["trace_id"])
	assert.Len(t, logs.FilterMessage("Request started").All(), 1)
}

func TestWithLogging_GeneratesTraceID(t *testing.T) {
	var seen string
	handler := WithLogging(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logging.TraceID(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Len(t, seen, 36)
	assert.Equal(t, seen, rec.Header().Get("X-Trace-ID"))
}

func TestTraceIDFrom_ExplicitHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Trace-ID", "abc-123")
	assert.Equal(t, "abc-123", traceIDFrom(req))
}
