package handlers

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/juancollazo-ch/woo-fluxc-service/internal/logging"
	"go.uber.org/zap"
)

// traceIDFrom toma el trace de Cloud Run (TRACE_ID/SPAN_ID;o=1) o genera uno
func traceIDFrom(r *http.Request) string {
	if header := r.Header.Get("X-Cloud-Trace-Context"); header != "" {
		if slashIdx := strings.IndexByte(header, '/'); slashIdx != -1 {
			header = header[:slashIdx]
		}
		if header != "" {
			return header
		}
	}
	if header := r.Header.Get("X-Trace-ID"); header != "" {
		return header
	}
	return uuid.NewString()
}

// WithLogging: log de inicio/fin con trace id compatible con Cloud Logging
func WithLogging(base *zap.Logger) func(http.Handler) http.Handler {
	projectID := os.Getenv("GCP_PROJECT")
	if projectID == "" {
		projectID = os.Getenv("GOOGLE_CLOUD_PROJECT")
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			traceID := traceIDFrom(r)
			ctx := logging.WithLoggingFields(r.Context(), traceID, 0)
			w.Header().Set("X-Trace-ID", traceID)

			log := logging.FromContext(ctx, base)
			if projectID != "" {
				log = log.With(zap.String("logging.googleapis.com/trace", fmt.Sprintf("projects/%s/traces/%s", projectID, traceID)))
			}

			log.Info("Request started",
				zap.String("httpRequest.requestMethod", r.Method),
				zap.String("httpRequest.requestUrl", r.URL.Path),
				zap.String("httpRequest.remoteIp", r.RemoteAddr),
				zap.String("httpRequest.userAgent", r.UserAgent()),
			)

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			duration := time.Since(start)
			log.Info("Request completed",
				zap.String("httpRequest.requestMethod", r.Method),
				zap.String("httpRequest.requestUrl", r.URL.Path),
				zap.Int("httpRequest.status", ww.Status()),
				zap.Int64("httpRequest.latency.milliseconds", duration.Milliseconds()),
				zap.Float64("httpRequest.latency.seconds", duration.Seconds()),
			)
		})
	}
}
