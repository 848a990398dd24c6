package middleware

import (
	"bufio"
	"errors"
	"net"
	"net/http"

	"storefront-be/internal/logger"
	"storefront-be/internal/metrics"
	"storefront-be/internal/utils"

	"go.uber.org/zap"
)

// responseRecorder lets us capture HTTP status codes
type responseRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (r *responseRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

// Flush keeps server-sent event streams working behind the recorder.
func (r *responseRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *responseRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := r.ResponseWriter.(http.Hijacker); ok {
		return h.Hijack()
	}
	return nil, nil, errors.New("hijack not supported")
}

// LoggingMiddleware logs every HTTP request as a structured zap entry.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		timer := metrics.StartTimer()

		rec := &responseRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rec, r)

		metrics.Inc(metrics.HTTPRequests)
		if rec.statusCode >= http.StatusInternalServerError {
			metrics.Inc(metrics.HTTPErrors)
		}

		fields := []zap.Field{
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.statusCode),
			zap.Duration("duration", timer.Duration()),
			zap.String("remote_ip", r.RemoteAddr),
		}
		if staffID, ok := utils.GetStaffIDFromContext(r.Context()); ok {
			fields = append(fields, zap.String("staff_id", staffID.String()))
		}

		log := logger.FromCtx(r.Context())
		switch {
		case rec.statusCode >= http.StatusInternalServerError:
			log.Error("HTTP Request", fields...)
		case rec.statusCode >= http.StatusBadRequest:
			log.Warn("HTTP Request", fields...)
		default:
			log.Info("HTTP Request", fields...)
		}
	})
}
