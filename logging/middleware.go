// Package logging holds the global slog setup, the rotating file
// writer and the request logging middleware.
package logging

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

// logWriterPool reuses response wrappers across requests.
var logWriterPool = sync.Pool{
	New: func() any {
		return &logWriter{status: http.StatusOK}
	},
}

// LoggingMiddleware emits one structured line per request. Health and
// metrics probes are skipped so the files stay annotation traffic only.
func LoggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/health" || r.URL.Path == "/metrics" {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			lw := logWriterPool.Get().(*logWriter)
			lw.ResponseWriter = w
			lw.status = http.StatusOK
			lw.bytes = 0

			next.ServeHTTP(lw, r)

			requestID, _ := r.Context().Value(middleware.RequestIDKey).(string)
			if requestID == "" {
				requestID = "-"
			}

			attrs := make([]slog.Attr, 0, 8)
			attrs = append(attrs,
				slog.String("request_id", requestID),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
			)
			if r.URL.RawQuery != "" {
				attrs = append(attrs, slog.String("query", r.URL.RawQuery))
			}
			attrs = append(attrs,
				slog.String("remote_addr", r.RemoteAddr),
				slog.Int("status", lw.status),
				slog.Int("bytes", lw.bytes),
				slog.Duration("duration", time.Since(start)),
			)
			logger.LogAttrs(r.Context(), slog.LevelInfo, "request", attrs...)

			logWriterPool.Put(lw)
		})
	}
}

// logWriter captures status and byte count for the request log line.
type logWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *logWriter) WriteHeader(statusCode int) {
	w.status = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *logWriter) Write(data []byte) (int, error) {
	n, err := w.ResponseWriter.Write(data)
	w.bytes += n
	return n, err
}
