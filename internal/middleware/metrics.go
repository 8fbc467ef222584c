package middleware

import (
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/tasker/pkg/httpcontext"
)

// StatusRecorder counts response codes.
type StatusRecorder interface {
	RecordHTTPStatus(statusCode int)
}

// AccessLog logs every request with its status and duration and reports the
// status to rec when set.
func AccessLog(rec StatusRecorder, logger *zap.Logger) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			started := time.Now()
			next(ctx)

			status := ctx.Response.StatusCode()
			if rec != nil {
				rec.RecordHTTPStatus(status)
			}
			logger.Debug("request",
				zap.String("request_id", httpcontext.RequestID(ctx)),
				zap.ByteString("method", ctx.Method()),
				zap.ByteString("path", ctx.Path()),
				zap.Int("status", status),
				zap.Duration("duration", time.Since(started)))
		}
	}
}
