// internal/logging/context.go
package logging

import (
	"context"

	"github.com/juancollazo-ch/woo-fluxc-service/internal/contextkeys"
	"go.uber.org/zap"
)

// FieldsFromContext extrae los campos de logging (trace_id, local_site_id, action)
// del contexto y los devuelve como un slice de zap.Field.
func FieldsFromContext(ctx context.Context) []zap.Field {
	fields := []zap.Field{}
	if ctx == nil {
		return fields
	}
	if traceID, ok := ctx.Value(contextkeys.TraceIDKey).(string); ok && traceID != "" {
		fields = append(fields, zap.String("trace_id", traceID))
	}
	if siteID, ok := ctx.Value(contextkeys.LocalSiteIDKey).(int); ok && siteID > 0 {
		fields = append(fields, zap.Int("local_site_id", siteID))
	}
	if action, ok := ctx.Value(contextkeys.ActionKey).(string); ok && action != "" {
		fields = append(fields, zap.String("action", action))
	}
	return fields
}

// WithLoggingFields añade trace_id y local_site_id al contexto si están presentes.
func WithLoggingFields(ctx context.Context, traceID string, localSiteID int) context.Context {
	if traceID != "" {
		ctx = context.WithValue(ctx, contextkeys.TraceIDKey, traceID)
	}
	if localSiteID > 0 {
		ctx = context.WithValue(ctx, contextkeys.LocalSiteIDKey, localSiteID)
	}
	return ctx
}

// WithAction marca el contexto con el tipo de acción despachada.
func WithAction(ctx context.Context, action string) context.Context {
	if action == "" {
		return ctx
	}
	return context.WithValue(ctx, contextkeys.ActionKey, action)
}

// TraceID devuelve el trace id guardado en el contexto, o "" si no hay.
func TraceID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	traceID, _ := ctx.Value(contextkeys.TraceIDKey).(string)
	return traceID
}

// FromContext devuelve el logger con los campos del contexto ya agregados.
func FromContext(ctx context.Context, base *zap.Logger) *zap.Logger {
	if base == nil {
		base = zap.L()
	}
	fields := FieldsFromContext(ctx)
	if len(fields) == 0 {
		return base
	}
	return base.With(fields...)
}
