// twinchat/middlewares/logger.go
package middlewares

import (
	"context"
	"net/http"
	"time"

	"twinchat/twinchat/utils/logging"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const DefaultSlowThreshold = 500 * time.Millisecond

// RequestLogger writes one line to the request log for every request that
// failed (status >= 400) or took at least slow. Fast successful requests are
// dropped. It also copies chi's request id into logging.RequestIDKey so
// LogDuration can tag timings with it.
func RequestLogger(log *zap.Logger, slow time.Duration) func(http.Handler) http.Handler {
	if slow <= 0 {
		slow = DefaultSlowThreshold
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqID := middleware.GetReqID(r.Context())
			if reqID != "" {
				r = r.WithContext(context.WithValue(r.Context(), logging.RequestIDKey, reqID))
			}
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			latency := time.Since(start)
			if status < http.StatusBadRequest && latency < slow {
				return
			}
			log.Info("request",
				zap.String("request_id", reqID),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", status),
				zap.Duration("latency", latency),
				zap.Int("bytes", ww.BytesWritten()),
			)
		})
	}
}
