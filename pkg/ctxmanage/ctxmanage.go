package ctxmanage

import (
	"context"

	"github.com/gin-gonic/gin"
)

type key string

// TraceIdKey holds the per-request trace id set by the logger middleware.
const TraceIdKey key = "1"

func GetTraceIdOfRequest(c *gin.Context) string {
	ctx := c.Request.Context()
	traceId, ok := ctx.Value(TraceIdKey).(string)
	if !ok {
		return "unknown"
	}
	return traceId
}

func WithTraceId(ctx context.Context, traceId string) context.Context {
	return context.WithValue(ctx, TraceIdKey, traceId)
}
