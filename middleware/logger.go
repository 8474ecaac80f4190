package middleware

import (
	"net/http"
	"time"

	"github.com/Dosada05/prompt-battle/logger"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// RequestLogger пишет access-лог через zap.
func RequestLogger(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}
				kv := []interface{}{
					"method", r.Method,
					"path", r.URL.Path,
					"status", status,
					"bytes", ww.BytesWritten(),
					"elapsed", time.Since(start),
					"request_id", chimw.GetReqID(r.Context()),
				}
				switch {
				case status >= 500:
					log.Error("http request", kv...)
				case status >= 400:
					log.Warn("http request", kv...)
				default:
					log.Info("http request", kv...)
				}
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
