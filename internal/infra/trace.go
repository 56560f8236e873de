package infra

import "context"

type traceKey struct{}

// ZeroTraceID — значение, когда запрос пришел не через HTTP-пайплайн
const ZeroTraceID = "00000000-0000-0000-0000-000000000000"

func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceKey{}, traceID)
}

// TraceIDFrom помогает безопасно достать ID в любом месте кода
func TraceIDFrom(ctx context.Context) string {
	if id, ok := ctx.Value(traceKey{}).(string); ok && id != "" {
		return id
	}
	return ZeroTraceID
}
