package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

type logContextKey string

const (
	LoggerKey       = logContextKey("logger")
	RequestIDHeader = "X-Request-ID"
)

// statusRecorder captures what the handler wrote for the access log.
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
	bytes      int
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *statusRecorder) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytes += n
	return n, err
}

func (rw *statusRecorder) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// Logging gives every request a correlation id and a scoped logger, then
// writes one access line at a level matching the response status.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		start := time.Now()

		correlationID := r.Header.Get(RequestIDHeader)
		if correlationID == "" {
			correlationID = uuid.NewString()
		}

		w.Header().Set(RequestIDHeader, correlationID)

		requestLogger := slog.Default().With(
			slog.String("correlation_id", correlationID),
			slog.String("http_method", r.Method),
			slog.String("http_path", r.URL.Path),
		)

		if sc := trace.SpanContextFromContext(r.Context()); sc.HasTraceID() {
			requestLogger = requestLogger.With(slog.String("trace_id", sc.TraceID().String()))
		}

		rw := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r.WithContext(WithLogger(r.Context(), requestLogger)))

		level := slog.LevelInfo
		switch {
		case rw.statusCode >= http.StatusInternalServerError:
			level = slog.LevelError
		case rw.statusCode >= http.StatusBadRequest:
			level = slog.LevelWarn
		}

		requestLogger.Log(r.Context(), level, "Request completed",
			slog.Int("http_status", rw.statusCode),
			slog.Int("bytes", rw.bytes),
			slog.String("remote_addr", r.RemoteAddr),
			slog.String("user_agent", r.UserAgent()),
			slog.Duration("duration", time.Since(start)))
	})
}

// WithLogger attaches logger to ctx. Background workers use it to tag their own runs.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}

func LoggerFromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(LoggerKey).(*slog.Logger); ok {
		return logger
	}

	return slog.Default()
}
