// internal/middleware/logging.go
//
// Access-log middleware.  One DEBUG line per request, or WARN for 5xx,
// through the global sugared logger.  Sits after chi's RequestID so the
// ID is available.

package middleware

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Logger records method, path, status, bytes, duration, and request ID.
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		fields := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"dur", time.Since(start),
			"req_id", chimw.GetReqID(r.Context()),
		}
		if status >= http.StatusInternalServerError {
			zap.S().Warnw("request", fields...)
			return
		}
		zap.S().Debugw("request", fields...)
	})
}
